package filters

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/golang/glog"
)

// Border pads an image with Width columns on the left and right, and Height
// rows on the top and bottom, filled with a constant Color.
type Border struct {
	Width, Height int
	Color         color.Color
}

// NewBorder creates a Border filter. A nil color pads with opaque black.
func NewBorder(width, height int, c color.Color) *Border {
	if c == nil {
		c = color.Black
	}
	return &Border{Width: width, Height: height, Color: c}
}

// Apply implements the ImageFilter interface. The result starts at (0, 0).
func (b *Border) Apply(img image.Image) image.Image {
	if b.Width <= 0 && b.Height <= 0 {
		return img
	}
	bw, bh := max(b.Width, 0), max(b.Height, 0)
	bounds := img.Bounds()
	padded := image.NewRGBA(image.Rect(0, 0, bounds.Dx()+2*bw, bounds.Dy()+2*bh))
	draw.Src.Draw(padded, padded.Rect, image.NewUniform(b.Color), image.Point{})
	inner := image.Rect(bw, bh, bw+bounds.Dx(), bh+bounds.Dy())
	draw.Src.Draw(padded, inner, img, bounds.Min)
	glog.V(2).Infof("Border: %s padded to %s", bounds, padded.Rect)
	return padded
}
