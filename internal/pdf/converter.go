// Package pdf rasterizes compiled PDF pages into in-memory bitmaps.
package pdf

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/formula-render/internal/domain"
	"github.com/spherical/formula-render/internal/observability"
)

// FitzRasterizer implements PDF rasterization using go-fitz (MuPDF)
type FitzRasterizer struct {
	logger *observability.Logger
}

// NewFitzRasterizer creates a new go-fitz backed rasterizer
func NewFitzRasterizer(logger *observability.Logger) *FitzRasterizer {
	if logger == nil {
		logger = observability.Nop()
	}
	return &FitzRasterizer{logger: logger.WithOperation("rasterize")}
}

// Rasterize renders every page of the PDF at the given DPI, preserving page order
func (r *FitzRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]domain.Page, error) {
	validator := NewValidator()
	if err := validator.ValidatePDFPath(pdfPath); err != nil {
		return nil, domain.RasterizeError("invalid PDF", err)
	}
	if err := validator.ValidateDPI(dpi); err != nil {
		return nil, err
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.RasterizeError("failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.RasterizeError("PDF has no pages", nil)
	}

	pages := make([]domain.Page, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(pageNum, float64(dpi))
		if err != nil {
			return nil, domain.RasterizeError(fmt.Sprintf("failed to render page %d", pageNum+1), err)
		}

		r.logger.Debug().
			Int("page", pageNum+1).
			Int("width", img.Bounds().Dx()).
			Int("height", img.Bounds().Dy()).
			Msg("page rasterized")

		pages = append(pages, domain.Page{PageNumber: pageNum + 1, Image: img})
	}

	return pages, nil
}
