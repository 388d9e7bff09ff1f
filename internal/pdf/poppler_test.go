package pdf

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/formula-render/internal/domain"
	"github.com/spherical/formula-render/internal/testutil"
)

// fakePdftoppm writes a script that copies pre-rendered PNGs of the given widths
// to <prefix>-NN.png, mimicking pdftoppm's zero padded page names.
func fakePdftoppm(t *testing.T, widths ...int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	fixtures := t.TempDir()
	script := "#!/bin/sh\nprefix=\"$5\"\n"
	for i, w := range widths {
		src := filepath.Join(fixtures, fmt.Sprintf("%d.png", i))
		f, err := os.Create(src)
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, w, 4))))
		require.NoError(t, f.Close())
		script += fmt.Sprintf("cp %q \"$prefix-%02d.png\"\n", src, i+1)
	}
	path := filepath.Join(t.TempDir(), "pdftoppm")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestPopplerRasterizer_OrdersPages(t *testing.T) {
	widths := []int{3, 5, 7, 9, 11, 13, 15, 17, 19, 21, 23}
	pdfPath := testutil.WritePDF(t, t.TempDir(), "formula.pdf", 10, 10)

	r := NewPopplerRasterizer(fakePdftoppm(t, widths...), nil)
	pages, err := r.Rasterize(context.Background(), pdfPath, 500)
	require.NoError(t, err)
	require.Len(t, pages, len(widths))
	for i, page := range pages {
		assert.Equal(t, i+1, page.PageNumber)
		assert.Equal(t, widths[i], page.Width())
	}
}

func TestPopplerRasterizer_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "pdftoppm")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho 'Syntax Error: broken' >&2\nexit 1\n"), 0o755))
	pdfPath := testutil.WritePDF(t, t.TempDir(), "formula.pdf", 10, 10)

	_, err := NewPopplerRasterizer(script, nil).Rasterize(context.Background(), pdfPath, 500)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeRasterize))
	assert.Contains(t, err.Error(), "Syntax Error: broken")
}

func TestPopplerRasterizer_NoPages(t *testing.T) {
	pdfPath := testutil.WritePDF(t, t.TempDir(), "formula.pdf", 10, 10)
	_, err := NewPopplerRasterizer(fakePdftoppm(t), nil).Rasterize(context.Background(), pdfPath, 500)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no rendered pages")
}

func TestPageNumberFromName(t *testing.T) {
	assert.Equal(t, 1, pageNumberFromName("/tmp/x/page-1.png"))
	assert.Equal(t, 12, pageNumberFromName("/tmp/x/page-012.png"))
	assert.Equal(t, 0, pageNumberFromName("/tmp/x/page.png"))
}

func TestNew(t *testing.T) {
	r, err := New("", "", nil)
	require.NoError(t, err)
	assert.IsType(t, &FitzRasterizer{}, r)

	r, err = New(BackendPdftoppm, "", nil)
	require.NoError(t, err)
	assert.IsType(t, &PopplerRasterizer{}, r)

	_, err = New("ghostscript", "", nil)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}
