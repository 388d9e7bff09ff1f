// Package crop trims the white margin around a rasterized formula.
//
// A pixel counts as background only when it is opaque pure white
// (255, 255, 255); every other pixel is content.
package crop

import (
	"errors"
	"image"
	"image/color"
	"runtime"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoContent means every pixel of the image is pure white.
	ErrNoContent = errors.New("no content found")
	// ErrInsetTooLarge means the inset would leave an empty or negative box.
	ErrInsetTooLarge = errors.New("inset larger than content")
)

// minBandRows keeps small images on a single goroutine.
const minBandRows = 64

// projection records, for one band of rows, which rows and columns hold content.
type projection struct {
	minY, maxY int // maxY exclusive; minY == maxY when the band is empty
	cols       []bool
}

// BoundingBox returns the smallest rectangle containing every non-white pixel.
// Rows are scanned in parallel bands; each band yields a column projection and
// a row range, which are then reduced into the final box.
func BoundingBox(img image.Image) (image.Rectangle, error) {
	b := img.Bounds()
	if b.Empty() {
		return image.Rectangle{}, ErrNoContent
	}

	rowContent := rowScanner(img)

	bands := runtime.GOMAXPROCS(0)
	if maxBands := b.Dy() / minBandRows; bands > maxBands {
		bands = maxBands
	}
	if bands < 1 {
		bands = 1
	}
	step := (b.Dy() + bands - 1) / bands

	results := make([]projection, bands)
	var g errgroup.Group
	for i := 0; i < bands; i++ {
		y0 := b.Min.Y + i*step
		y1 := min(y0+step, b.Max.Y)
		g.Go(func() error {
			p := projection{minY: y1, maxY: y1, cols: make([]bool, b.Dx())}
			for y := y0; y < y1; y++ {
				if rowContent(y, p.cols) {
					if p.minY == y1 {
						p.minY = y
					}
					p.maxY = y + 1
				}
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return image.Rectangle{}, err
	}

	box := image.Rectangle{Min: image.Pt(b.Max.X, b.Max.Y), Max: image.Pt(b.Min.X, b.Min.Y)}
	found := false
	cols := make([]bool, b.Dx())
	for _, p := range results {
		if p.minY == p.maxY {
			continue
		}
		found = true
		box.Min.Y = min(box.Min.Y, p.minY)
		box.Max.Y = max(box.Max.Y, p.maxY)
		for x, hit := range p.cols {
			cols[x] = cols[x] || hit
		}
	}
	if !found {
		return image.Rectangle{}, ErrNoContent
	}

	for x, hit := range cols {
		if hit {
			box.Min.X = b.Min.X + x
			break
		}
	}
	for x := len(cols) - 1; x >= 0; x-- {
		if cols[x] {
			box.Max.X = b.Min.X + x + 1
			break
		}
	}
	return box, nil
}

// rowScanner returns a function that marks content columns of row y in cols and
// reports whether the row held any content.
func rowScanner(img image.Image) func(y int, cols []bool) bool {
	b := img.Bounds()
	switch src := img.(type) {
	case *image.RGBA:
		// premultiplied: R=G=B=0xff implies A=0xff
		return pixScanner(src.Pix, func(y int) int { return src.PixOffset(b.Min.X, y) }, b.Dx(), false)
	case *image.NRGBA:
		return pixScanner(src.Pix, func(y int) int { return src.PixOffset(b.Min.X, y) }, b.Dx(), true)
	default:
		return func(y int, cols []bool) bool {
			hit := false
			for x := b.Min.X; x < b.Max.X; x++ {
				if !isWhite(img.At(x, y)) {
					cols[x-b.Min.X] = true
					hit = true
				}
			}
			return hit
		}
	}
}

// pixScanner walks 4-byte-per-pixel rows directly.
func pixScanner(pix []uint8, rowStart func(y int) int, width int, checkAlpha bool) func(y int, cols []bool) bool {
	return func(y int, cols []bool) bool {
		start := rowStart(y)
		row := pix[start : start+width*4]
		hit := false
		for i := 0; i < len(row); i += 4 {
			if row[i] != 0xff || row[i+1] != 0xff || row[i+2] != 0xff || (checkAlpha && row[i+3] != 0xff) {
				cols[i/4] = true
				hit = true
			}
		}
		return hit
	}
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

// Inset shrinks r by n pixels on every side. The result must keep a positive
// size; otherwise ErrInsetTooLarge is returned.
func Inset(r image.Rectangle, n int) (image.Rectangle, error) {
	if n <= 0 {
		return r, nil
	}
	if r.Dx() <= 2*n || r.Dy() <= 2*n {
		return image.Rectangle{}, ErrInsetTooLarge
	}
	return r.Inset(n), nil
}

// Crop copies the r portion of img into a new RGBA image whose origin is (0, 0).
func Crop(img image.Image, r image.Rectangle) *image.RGBA {
	r = r.Intersect(img.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	return dst
}

// Trim crops img to its content bounding box shrunk by inset pixels per side.
func Trim(img image.Image, inset int) (*image.RGBA, image.Rectangle, error) {
	box, err := BoundingBox(img)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	box, err = Inset(box, inset)
	if err != nil {
		return nil, image.Rectangle{}, err
	}
	return Crop(img, box), box, nil
}
