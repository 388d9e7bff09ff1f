package pdf

import (
	"fmt"

	"github.com/spherical/formula-render/internal/domain"
	"github.com/spherical/formula-render/internal/observability"
)

// Backend names accepted by New
const (
	BackendFitz     = "fitz"
	BackendPdftoppm = "pdftoppm"
)

// New returns the rasterizer for the named backend.
func New(backend, pdftoppmBinary string, logger *observability.Logger) (domain.Rasterizer, error) {
	switch backend {
	case "", BackendFitz:
		return NewFitzRasterizer(logger), nil
	case BackendPdftoppm:
		return NewPopplerRasterizer(pdftoppmBinary, logger), nil
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown rasterizer backend %q", backend), nil)
	}
}
