package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spherical/formula-render/cmd/formula-render/ui"
	"github.com/spherical/formula-render/internal/latex"
)

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the available document templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0)
			for _, v := range latex.Variants() {
				rows = append(rows, []string{
					v.Name,
					strconv.Itoa(v.DefaultInset),
					fmt.Sprintf("%t", v.NeedsMatrix()),
					v.Description,
				})
			}
			ui.Table([]string{"Template", "Inset", "Matrix", "Description"}, rows)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "formula-render version %s\n", version)
		},
	}
}
