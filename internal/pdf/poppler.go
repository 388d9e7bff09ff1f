package pdf

import (
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spherical/formula-render/internal/domain"
	"github.com/spherical/formula-render/internal/observability"
)

// PopplerRasterizer renders pages by shelling out to pdftoppm.
type PopplerRasterizer struct {
	binary string
	logger *observability.Logger
}

// NewPopplerRasterizer creates a rasterizer; an empty binary means pdftoppm.
func NewPopplerRasterizer(binary string, logger *observability.Logger) *PopplerRasterizer {
	if binary == "" {
		binary = "pdftoppm"
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &PopplerRasterizer{binary: binary, logger: logger.WithOperation("rasterize")}
}

// Rasterize renders every page as PNG into a scratch directory and decodes them in page order.
func (r *PopplerRasterizer) Rasterize(ctx context.Context, pdfPath string, dpi int) ([]domain.Page, error) {
	validator := NewValidator()
	if err := validator.ValidatePDFPath(pdfPath); err != nil {
		return nil, domain.RasterizeError("invalid PDF", err)
	}
	if err := validator.ValidateDPI(dpi); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp("", "formula-pages-*")
	if err != nil {
		return nil, domain.IOError("failed to create temp directory", err)
	}
	defer os.RemoveAll(workDir)

	prefix := filepath.Join(workDir, "page")
	cmd := exec.CommandContext(ctx, r.binary, "-png", "-r", strconv.Itoa(dpi), pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, domain.RasterizeError(fmt.Sprintf("pdftoppm failed: %s", strings.TrimSpace(string(out))), err)
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, domain.IOError("list rendered pages", err)
	}
	if len(matches) == 0 {
		return nil, domain.RasterizeError("no rendered pages found", nil)
	}
	sort.Slice(matches, func(i, j int) bool {
		return pageNumberFromName(matches[i]) < pageNumberFromName(matches[j])
	})

	pages := make([]domain.Page, 0, len(matches))
	for _, match := range matches {
		img, err := loadImage(match)
		if err != nil {
			return nil, domain.RasterizeError(fmt.Sprintf("decode %s", filepath.Base(match)), err)
		}
		page := domain.Page{PageNumber: pageNumberFromName(match), Image: img}
		r.logger.Debug().Int("page", page.PageNumber).Int("width", page.Width()).Int("height", page.Height()).Msg("page rasterized")
		pages = append(pages, page)
	}
	return pages, nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	return img, err
}

// pageNumberFromName extracts N from <prefix>-N.png; pdftoppm zero-pads N
// according to the page count.
func pageNumberFromName(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	idx := strings.LastIndex(base, "-")
	if idx >= 0 {
		if v, err := strconv.Atoi(base[idx+1:]); err == nil {
			return v
		}
	}
	return 0
}
