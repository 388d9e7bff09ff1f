// Package output names and writes the cropped formula images.
package output

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"github.com/spherical/formula-render/internal/domain"
)

// ErrExists is returned when the target file is already present.
var ErrExists = errors.New("output file already exists")

var indexPattern = regexp.MustCompile(`^formula-(\d+)\.png$`)

// FileName returns the output file name for index.
func FileName(index int) string {
	return fmt.Sprintf("formula-%d.png", index)
}

// NextIndex returns the number of PNG files in dir, or one past the highest
// formula-<n>.png if that is larger. A missing directory yields 0.
func NextIndex(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, domain.IOError("read output directory", err)
	}

	count, next := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			continue
		}
		count++
		if m := indexPattern.FindStringSubmatch(entry.Name()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n+1 > next {
				next = n + 1
			}
		}
	}
	return max(count, next), nil
}

// Options controls encoding of written images.
type Options struct {
	Scale       float64 // 1 keeps the rasterized size
	Compression string  // default, speed, best or none
}

// Writer saves images as formula-<index>.png inside a directory.
type Writer struct {
	dir  string
	opts Options
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string, opts Options) (*Writer, error) {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, domain.IOError("create output directory", err)
	}
	return &Writer{dir: dir, opts: opts}, nil
}

// Write encodes img to formula-<index>.png. An existing file is never
// overwritten; ErrExists is returned instead.
func (w *Writer) Write(img image.Image, index int) (*domain.OutputImage, error) {
	if index < 0 {
		return nil, domain.ValidationError(fmt.Sprintf("output index must not be negative, got %d", index), nil)
	}

	img = scale(img, w.opts.Scale)
	path := filepath.Join(w.dir, FileName(index))

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, domain.IOError(path, ErrExists)
		}
		return nil, domain.IOError("create output file", err)
	}

	encoder := png.Encoder{CompressionLevel: compressionLevel(w.opts.Compression)}
	if err := encoder.Encode(file, img); err != nil {
		file.Close()
		os.Remove(path)
		return nil, domain.IOError("encode PNG", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, domain.IOError("close output file", err)
	}

	b := img.Bounds()
	return &domain.OutputImage{Path: path, Index: index, Width: b.Dx(), Height: b.Dy()}, nil
}

func scale(img image.Image, factor float64) image.Image {
	if factor == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor+0.5))
	h := max(1, int(float64(b.Dy())*factor+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func compressionLevel(name string) png.CompressionLevel {
	switch name {
	case "speed":
		return png.BestSpeed
	case "best":
		return png.BestCompression
	case "none":
		return png.NoCompression
	default:
		return png.DefaultCompression
	}
}
