// Package eval scores xView2 prediction masks against target masks on disk.
package eval

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/tiff"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// readImage reads image from file.
func readImage(filename string) (image.Image, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg":
		return imaging.Open(filename)
	case ".tiff", ".tif":
		f, err := os.Open(filename)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return tiff.Decode(f)
	default:
		return nil, errors.Errorf("unsupported image format: %v", filepath.Ext(filename))
	}
}

// isMask reports whether file name has a supported mask extension.
func isMask(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".tiff", ".tif":
		return true
	}
	return false
}

// ReadMask reads a label mask where each pixel's gray value is its class.
func ReadMask(filename string) (*image.Gray, error) {
	img, err := readImage(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mask %q", filename)
	}

	return toGray(img), nil
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	return gray
}

// ResizeMask resizes a label mask with nearest neighbour so no new labels
// are introduced.
func ResizeMask(m *image.Gray, width, height int) *image.Gray {
	b := m.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return m
	}

	return toGray(resize.Resize(uint(width), uint(height), m, resize.NearestNeighbor))
}

// Labels returns per-pixel labels in row-major order.
func Labels(m *image.Gray) []int64 {
	b := m.Bounds()
	labels := make([]int64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := m.Pix[m.PixOffset(b.Min.X, y):m.PixOffset(b.Max.X, y)]
		for _, v := range row {
			labels = append(labels, int64(v))
		}
	}

	return labels
}
