package domain

import (
	"context"
	"image"
)

// Compiler turns a LaTeX document into a PDF
type Compiler interface {
	// Compile writes doc into jobDir, runs the compiler and returns the PDF path
	Compile(ctx context.Context, doc string, jobDir string) (string, error)
}

// Rasterizer converts PDF pages into bitmaps
type Rasterizer interface {
	// Rasterize returns one page per PDF page, in page order
	Rasterize(ctx context.Context, pdfPath string, dpi int) ([]Page, error)
}

// ImageWriter persists a cropped bitmap under an explicit index
type ImageWriter interface {
	Write(img image.Image, index int) (*OutputImage, error)
}
