// Package render runs the formula pipeline: template, compile, rasterize, crop, write.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/formula-render/internal/crop"
	"github.com/spherical/formula-render/internal/domain"
	"github.com/spherical/formula-render/internal/latex"
	"github.com/spherical/formula-render/internal/observability"
)

// Options tunes a Service.
type Options struct {
	DPI     int
	Inset   int    // -1 uses the template variant's default
	WorkDir string // parent of the per-job scratch directories
}

// Service orchestrates one formula rendering
type Service struct {
	renderer   *latex.Renderer
	compiler   domain.Compiler
	rasterizer domain.Rasterizer
	writer     domain.ImageWriter
	opts       Options
	logger     *observability.Logger
}

// NewService creates a new rendering service
func NewService(renderer *latex.Renderer, compiler domain.Compiler, rasterizer domain.Rasterizer,
	writer domain.ImageWriter, opts Options, logger *observability.Logger) *Service {
	if opts.DPI <= 0 {
		opts.DPI = domain.DefaultDPI
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		renderer:   renderer,
		compiler:   compiler,
		rasterizer: rasterizer,
		writer:     writer,
		opts:       opts,
		logger:     logger.WithOperation("render"),
	}
}

type croppedPage struct {
	number int
	img    image.Image
}

// Process renders req and writes its pages starting at index. Either every page
// is written or none is.
func (s *Service) Process(ctx context.Context, req domain.FormulaRequest, index int, eventCh chan<- domain.StreamEvent) (*domain.RenderResult, error) {
	startTime := time.Now()
	jobID := uuid.NewString()
	logger := s.logger.WithJob(jobID)

	result, err := s.process(ctx, req, index, jobID, logger, eventCh)
	if err != nil {
		logger.Error().Err(err).Msg("render failed")
		s.emitError(eventCh, err)
		return nil, err
	}

	result.Duration = time.Since(startTime)
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventComplete,
		Payload:   fmt.Sprintf("Rendered %d page(s) in %v", len(result.Outputs), result.Duration.Round(time.Millisecond)),
		Timestamp: time.Now(),
	})
	logger.Info().Int("pages", result.PageCount).Dur("elapsed", result.Duration).Msg("render complete")
	return result, nil
}

func (s *Service) process(ctx context.Context, req domain.FormulaRequest, index int, jobID string,
	logger *observability.Logger, eventCh chan<- domain.StreamEvent) (*domain.RenderResult, error) {
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventStart,
		Payload:   fmt.Sprintf("Rendering formula with template %q", req.Variant),
		Timestamp: time.Now(),
	})

	variant, err := latex.LookupVariant(req.Variant)
	if err != nil {
		return nil, err
	}
	inset := s.opts.Inset
	if inset < 0 {
		inset = variant.DefaultInset
	}

	doc, err := s.renderer.Render(variant.Name, latex.Params{
		Formula: req.Formula,
		Color:   req.Color,
		Matrix:  req.Matrix,
	})
	if err != nil {
		return nil, err
	}

	jobDir := filepath.Join(s.opts.WorkDir, ".formula-"+jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, domain.IOError("create job directory", err)
	}
	// A failed compile may leave its log behind; then the directory stays.
	defer func() {
		if err := os.Remove(jobDir); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("dir", jobDir).Msg("job directory kept")
		}
	}()

	s.emitEvent(eventCh, domain.StreamEvent{Type: domain.EventCompiling, Payload: "Compiling document", Timestamp: time.Now()})
	logger.Debug().Str("variant", variant.Name).Int("inset", inset).Msg("compiling")

	pdfPath, err := s.compiler.Compile(ctx, doc, jobDir)
	if err != nil {
		return nil, domain.CompileError("latex compilation failed", err)
	}
	defer func() {
		if err := os.Remove(pdfPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Msg("remove PDF")
		}
	}()

	s.emitEvent(eventCh, domain.StreamEvent{Type: domain.EventRasterizing, Payload: fmt.Sprintf("Rasterizing at %d DPI", s.opts.DPI), Timestamp: time.Now()})
	pages, err := s.rasterizer.Rasterize(ctx, pdfPath, s.opts.DPI)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, domain.RasterizeError("PDF has no pages", nil)
	}

	result := &domain.RenderResult{
		JobID:      jobID,
		PageCount:  len(pages),
		PageWidth:  pages[0].Width(),
		PageHeight: pages[0].Height(),
	}

	cropped := make([]croppedPage, 0, len(pages))
	for _, page := range pages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		s.emitEvent(eventCh, domain.StreamEvent{
			Type:       domain.EventCropping,
			PageNumber: page.PageNumber,
			Payload:    fmt.Sprintf("Cropping page %d", page.PageNumber),
			Timestamp:  time.Now(),
		})

		img, box, err := crop.Trim(page.Image, inset)
		if err != nil {
			return nil, domain.CropError(fmt.Sprintf("page %d", page.PageNumber), err)
		}
		logger.Debug().
			Int("page", page.PageNumber).
			Int("page_width", page.Width()).
			Int("page_height", page.Height()).
			Str("box", box.String()).
			Msg("page cropped")
		cropped = append(cropped, croppedPage{number: page.PageNumber, img: img})
	}

	for i, page := range cropped {
		out, err := s.writer.Write(page.img, index+i)
		if err != nil {
			for _, written := range result.Outputs {
				_ = os.Remove(written.Path)
			}
			return nil, err
		}
		result.Outputs = append(result.Outputs, *out)
		s.emitEvent(eventCh, domain.StreamEvent{
			Type:       domain.EventPageWritten,
			PageNumber: page.number,
			Payload:    out,
			Timestamp:  time.Now(),
		})
	}

	return result, nil
}

// emitEvent safely emits an event to the channel
func (s *Service) emitEvent(eventCh chan<- domain.StreamEvent, event domain.StreamEvent) {
	if eventCh != nil {
		select {
		case eventCh <- event:
		default:
			s.logger.Warn().Str("event", string(event.Type)).Msg("event channel full, dropping event")
		}
	}
}

// emitError emits an error event
func (s *Service) emitError(eventCh chan<- domain.StreamEvent, err error) {
	s.emitEvent(eventCh, domain.StreamEvent{
		Type:      domain.EventError,
		Payload:   err.Error(),
		Timestamp: time.Now(),
	})
}
