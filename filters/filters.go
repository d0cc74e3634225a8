// Package filters implements the image filters composed by curvewarp: border
// padding, the curved-surface warp and guide overlays.
package filters

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/glog"
)

// ImageFilter transforms an image. It may return a lazy image that computes
// its pixels on demand from the source.
type ImageFilter interface {
	Apply(image image.Image) image.Image
}

// ApplyAll applies the filters in order and materializes the result.
func ApplyAll(img image.Image, filters ...ImageFilter) *image.RGBA {
	glog.V(2).Infof("ApplyAll: %d filters", len(filters))
	for _, filter := range filters {
		img = filter.Apply(img)
	}
	return ToRGBA(img)
}

// ToRGBA returns img as an *image.RGBA with bounds starting at (0, 0),
// converting it if needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Src.Draw(rgba, rgba.Rect, img, bounds.Min)
	return rgba
}

type filterImage struct {
	source image.Image
	atFn   func(x, y int, under color.Color) color.Color
}

// ColorModel returns the Image's color model.
func (f *filterImage) ColorModel() color.Model { return f.source.ColorModel() }

// Bounds returns the domain for which At can return non-zero color.
func (f *filterImage) Bounds() image.Rectangle { return f.source.Bounds() }

// At returns the color of the pixel at (x, y), drawn over the source.
func (f *filterImage) At(x, y int) color.Color {
	return f.atFn(x, y, f.source.At(x, y))
}
