package pdf

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/formula-render/internal/crop"
	"github.com/spherical/formula-render/internal/domain"
	"github.com/spherical/formula-render/internal/testutil"
)

func TestFitzRasterizer_PageSizeFollowsDPI(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "formula.pdf", 72, 36, testutil.FilledRect(18, 9, 36, 18))

	r := NewFitzRasterizer(nil)
	pages, err := r.Rasterize(context.Background(), path, 144)
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.Equal(t, 1, pages[0].PageNumber)
	assert.Equal(t, 144, pages[0].Width())
	assert.Equal(t, 72, pages[0].Height())

	box, err := crop.BoundingBox(pages[0].Image)
	require.NoError(t, err)
	// 18..54 x 9..27 points from the bottom-left, doubled and flipped
	assert.InDelta(t, 36, box.Min.X, 1)
	assert.InDelta(t, 108, box.Max.X, 1)
	assert.InDelta(t, 18, box.Min.Y, 1)
	assert.InDelta(t, 54, box.Max.Y, 1)
}

func TestFitzRasterizer_PreservesPageOrder(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "pages.pdf", 50, 50,
		testutil.FilledRect(0, 0, 10, 10),
		"",
		testutil.FilledRect(40, 40, 10, 10),
	)

	pages, err := NewFitzRasterizer(nil).Rasterize(context.Background(), path, 72)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, page := range pages {
		assert.Equal(t, i+1, page.PageNumber)
	}

	_, err = crop.BoundingBox(pages[1].Image)
	assert.ErrorIs(t, err, crop.ErrNoContent)

	first, err := crop.BoundingBox(pages[0].Image)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(0, 40), first.Min)
}

func TestFitzRasterizer_Errors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.pdf")
	require.NoError(t, os.WriteFile(corrupt, []byte("this is not a pdf at all"), 0o644))

	r := NewFitzRasterizer(nil)

	_, err := r.Rasterize(context.Background(), filepath.Join(dir, "missing.pdf"), 500)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeRasterize))

	_, err = r.Rasterize(context.Background(), corrupt, 500)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeRasterize))

	valid := testutil.WritePDF(t, dir, "ok.pdf", 10, 10)
	_, err = r.Rasterize(context.Background(), valid, 0)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestFitzRasterizer_CancelledContext(t *testing.T) {
	path := testutil.WritePDF(t, t.TempDir(), "formula.pdf", 10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFitzRasterizer(nil).Rasterize(ctx, path, 72)
	assert.ErrorIs(t, err, context.Canceled)
}
