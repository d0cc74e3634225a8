package filters

import (
	"image"
	"image/color"

	"github.com/golang/freetype/truetype"
	"github.com/golang/glog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/math/fixed"
)

// DPI constant used to render text.
const DPI = 96

// Text draws a caption, e.g. the name of the projection, over the image.
type Text struct {
	// Text to render.
	Text string

	// Origin is the top-left corner of the caption box.
	Origin image.Point

	// Color of the text, and Background of the box behind it. A transparent
	// Background draws the text only.
	Color, Background color.Color

	// Font size, in points.
	Size float64

	// Rectangle enclosing text.
	rect image.Rectangle

	// Text rendered, with the alpha channel used as the text coverage.
	renderedText *image.RGBA
}

// NewText creates a new Text filter.
func NewText(text string, origin image.Point, color, background color.Color, size float64) *Text {
	t := &Text{
		Origin:     origin,
		Color:      color,
		Background: background,
		Size:       size,
	}
	t.SetText(text)
	return t
}

var goboldFont *truetype.Font

func init() {
	var err error
	goboldFont, err = truetype.Parse(gobold.TTF)
	if err != nil {
		glog.Fatalf("Failed to parse golang.org/x/image/font/gofont/gobold TTF: %s", err)
	}
}

// SetText renders the given text, and updates the caption box.
func (t *Text) SetText(text string) {
	t.Text = text
	d := &font.Drawer{
		Src: image.NewUniform(t.Color),
		Face: truetype.NewFace(goboldFont, &truetype.Options{
			Size:       t.Size,
			DPI:        DPI,
			Hinting:    font.HintingFull,
			SubPixelsX: 8,
			SubPixelsY: 8,
		}),
	}
	metrics := d.Face.Metrics()
	d.Dot = fixed.Point26_6{X: 0, Y: metrics.Ascent}
	width := d.MeasureString(text).Ceil()
	height := (metrics.Ascent + metrics.Descent).Ceil()
	if width <= 0 || height <= 0 {
		t.renderedText = nil
		t.rect = image.Rectangle{}
		return
	}

	t.renderedText = image.NewRGBA(image.Rect(0, 0, width, height))
	d.Dst = t.renderedText
	d.DrawString(text)
	t.rect = image.Rectangle{Min: t.Origin, Max: t.Origin.Add(image.Point{X: width, Y: height})}
	glog.V(2).Infof("Text %q rendered in %s", text, t.rect)
}

// Bounds of the caption box in image coordinates.
func (t *Text) Bounds() image.Rectangle { return t.rect }

// at is the function given to the filterImage object.
func (t *Text) at(x, y int, under color.Color) color.Color {
	if t.renderedText == nil || !(image.Point{X: x, Y: y}.In(t.rect)) {
		return under
	}
	if t.Background != nil {
		if _, _, _, a := t.Background.RGBA(); a > 0 {
			under = blendOver(t.Background, under)
		}
	}
	c := t.renderedText.RGBAAt(x-t.rect.Min.X, y-t.rect.Min.Y)
	if c.A == 0 {
		return under
	}
	return blendOver(c, under)
}

// blendOver composes the color c over under.
func blendOver(c, under color.Color) color.Color {
	const M = 1<<16 - 1
	sr, sg, sb, sa := c.RGBA()
	dr, dg, db, da := under.RGBA()
	a := M - sa
	return color.RGBA64{
		R: uint16(sr + dr*a/M),
		G: uint16(sg + dg*a/M),
		B: uint16(sb + db*a/M),
		A: uint16(sa + da*a/M),
	}
}

// Apply implements the ImageFilter interface.
func (t *Text) Apply(image image.Image) image.Image {
	return &filterImage{image, t.at}
}
