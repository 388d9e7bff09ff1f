package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/formula-render/cmd/formula-render/ui"
	"github.com/spherical/formula-render/internal/config"
	"github.com/spherical/formula-render/internal/domain"
	"github.com/spherical/formula-render/internal/latex"
	"github.com/spherical/formula-render/internal/observability"
	"github.com/spherical/formula-render/internal/output"
	"github.com/spherical/formula-render/internal/pdf"
	"github.com/spherical/formula-render/internal/render"
)

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	ui.InitUI(opts.noColor, opts.verbose)
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "formula-render",
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := output.NewWriter(cfg.Output.Dir, output.Options{
		Scale:       cfg.Output.Scale,
		Compression: cfg.Output.Compression,
	})
	if err != nil {
		return err
	}

	index := opts.index
	if index < 0 {
		if index, err = output.NextIndex(cfg.Output.Dir); err != nil {
			return err
		}
		if opts.verbose {
			ui.Info("Next free output index is %d", index)
		}
	}

	rasterizer, err := pdf.New(cfg.Raster.Backend, cfg.Raster.PdftoppmBinary, logger)
	if err != nil {
		return err
	}
	compiler := latex.NewCompiler(latex.CompilerConfig{
		Binary:           cfg.Latex.Binary,
		Timeout:          cfg.Latex.Timeout,
		KeepLogOnFailure: cfg.Latex.KeepLogOnFailure,
	}, logger)

	service := render.NewService(
		latex.NewRenderer(cfg.Latex.ExtraColors, cfg.Latex.ExtraMatrices),
		compiler,
		rasterizer,
		writer,
		render.Options{DPI: cfg.Raster.DPI, Inset: cfg.Crop.Inset, WorkDir: cfg.Output.Dir},
		logger,
	)

	req := domain.FormulaRequest{
		Formula: opts.formula,
		Color:   opts.color,
		Matrix:  opts.matrix,
		Variant: cfg.Latex.Template,
	}

	result, err := process(ctx, service, req, index)
	if err != nil {
		var cerr *latex.CompileError
		if errors.As(err, &cerr) && cerr.LogPath != "" {
			ui.Warning("compiler log kept at %s", cerr.LogPath)
		}
		return err
	}

	for _, out := range result.Outputs {
		ui.Success("Wrote %s (%dx%d)", out.Path, out.Width, out.Height)
	}
	if opts.verbose {
		ui.KeyValue("Page", fmt.Sprintf("%dx%d", result.PageWidth, result.PageHeight))
		ui.KeyValue("Job", result.JobID)
		ui.KeyValue("Duration", ui.FormatDuration(result.Duration))
	}
	return nil
}

// process runs the service in a goroutine and drives the spinner from its events.
func process(ctx context.Context, service *render.Service, req domain.FormulaRequest, index int) (*domain.RenderResult, error) {
	eventCh := make(chan domain.StreamEvent, 32)
	type outcome struct {
		result *domain.RenderResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		result, err := service.Process(ctx, req, index, eventCh)
		close(eventCh)
		done <- outcome{result, err}
	}()

	spinner := ui.NewSpinner("Rendering formula...")
	if !ui.Verbose() {
		spinner.Start()
	}
	for event := range eventCh {
		switch event.Type {
		case domain.EventCompiling, domain.EventRasterizing, domain.EventCropping:
			if msg, ok := event.Payload.(string); ok {
				spinner.UpdateMessage(msg + "...")
			}
		}
	}
	if !ui.Verbose() {
		spinner.Stop()
	}

	o := <-done
	return o.result, o.err
}

// loadConfig loads file and environment configuration, then applies flags
// that were set explicitly.
func loadConfig(cmd *cobra.Command, opts *renderOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Output.Dir = opts.outputDir
	}
	if flags.Changed("template") {
		cfg.Latex.Template = opts.template
	}
	if flags.Changed("inset") {
		cfg.Crop.Inset = opts.inset
	}
	if flags.Changed("dpi") {
		cfg.Raster.DPI = opts.dpi
	}
	if flags.Changed("rasterizer") {
		cfg.Raster.Backend = opts.rasterizer
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
