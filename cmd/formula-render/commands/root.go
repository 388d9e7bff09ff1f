package commands

import (
	"github.com/spf13/cobra"

	"github.com/spherical/formula-render/internal/domain"
)

var version = "0.1.0"

// renderOptions holds the flags of the render command.
type renderOptions struct {
	cfgFile    string
	verbose    bool
	noColor    bool
	formula    string
	color      string
	matrix     string
	template   string
	inset      int
	outputDir  string
	index      int
	dpi        int
	rasterizer string
}

// NewRootCmd builds the formula-render command tree.
func NewRootCmd() *cobra.Command {
	opts := &renderOptions{}

	rootCmd := &cobra.Command{
		Use:   "formula-render",
		Short: "Render a LaTeX formula into a tightly cropped PNG",
		Long: `formula-render fills a LaTeX template with a formula, compiles it with pdflatex,
rasterizes the PDF at 500 DPI and trims the white margin, writing the result
to formulas/formula-<n>.png.`,
		Example: `  formula-render -f 'E = mc^2'
  formula-render -f '\mat{a & b \\ c & d}' -t matrix -m bmatrix -c LightBlue1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.cfgFile, "config", "", "config file path (YAML)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	f := rootCmd.Flags()
	f.StringVarP(&opts.formula, "formula", "f", domain.DefaultFormula, "LaTeX math expression to render")
	f.StringVarP(&opts.color, "color", "c", domain.DefaultColor, "background color (xcolor name)")
	f.StringVarP(&opts.matrix, "matrix", "m", domain.DefaultMatrix, "matrix environment used by \\mat{...}")
	f.StringVarP(&opts.template, "template", "t", domain.DefaultVariant, "document template (see 'templates')")
	f.IntVar(&opts.inset, "inset", -1, "pixels trimmed inside the content box per side (-1: template default)")
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "output directory (default: formulas/ next to the executable)")
	f.IntVar(&opts.index, "index", -1, "output index (-1: next free index)")
	f.IntVar(&opts.dpi, "dpi", domain.DefaultDPI, "rasterization resolution")
	f.StringVar(&opts.rasterizer, "rasterizer", "fitz", "PDF rasterizer: fitz or pdftoppm")

	rootCmd.AddCommand(newTemplatesCmd(), newVersionCmd())
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
