package main

import (
	"os"

	"github.com/spherical/formula-render/cmd/formula-render/commands"
	"github.com/spherical/formula-render/cmd/formula-render/ui"
)

func main() {
	if err := commands.Execute(); err != nil {
		ui.Error("Error: %v", err)
		os.Exit(1)
	}
}
