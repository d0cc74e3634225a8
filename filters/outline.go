package filters

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/janpfeifer/curvewarp/projection"
)

// Outline draws the rim of the projection surface over the image: an ellipse
// fitting the canvas for the hemisphere, the two bent edges for cylinders.
type Outline struct {
	// Dim is the rectangle the surface spans.
	Dim image.Rectangle

	Variant projection.Variant

	// Color of the outline to be drawn.
	Color color.Color

	// Thickness of the outline, in pixels.
	Thickness float64

	// Center and radii are generated automatically.
	center, innerRadius, outerRadius mgl64.Vec2
}

// NewOutline creates a new Outline filter for the surface of the given variant
// spanning dim.
func NewOutline(dim image.Rectangle, variant projection.Variant, color color.Color, thickness float64) *Outline {
	o := &Outline{Variant: variant, Color: color, Thickness: thickness}
	o.SetDim(dim)
	return o
}

// SetDim sets the rectangle the surface spans and recomputes the ellipse radii.
func (o *Outline) SetDim(dim image.Rectangle) {
	o.Dim = dim
	center := o.Dim.Min.Add(o.Dim.Max).Div(2)
	o.center = mgl64.Vec2{float64(center.X), float64(center.Y)}
	o.outerRadius = mgl64.Vec2{
		float64(o.Dim.Max.X) - o.center.X(),
		float64(o.Dim.Max.Y) - o.center.Y(),
	}
	// A thickness reaching the center fills the whole ellipse.
	o.innerRadius = mgl64.Vec2{
		math.Max(o.outerRadius.X()-o.Thickness, minInnerRadius),
		math.Max(o.outerRadius.Y()-o.Thickness, minInnerRadius),
	}
}

const minInnerRadius = 1e-3

// at is the function given to the filterImage object.
func (o *Outline) at(x, y int, under color.Color) color.Color {
	if x >= o.Dim.Max.X || x < o.Dim.Min.X || y >= o.Dim.Max.Y || y < o.Dim.Min.Y {
		return under
	}
	p := mgl64.Vec2{float64(x) + 0.5, float64(y) + 0.5}.Sub(o.center)

	switch o.Variant {
	case projection.CylinderAlongY:
		if o.outerRadius.X()-math.Abs(p.X()) > o.Thickness {
			return under
		}
	case projection.CylinderAlongX:
		if o.outerRadius.Y()-math.Abs(p.Y()) > o.Thickness {
			return under
		}
	default:
		if ellipseDist(p, o.outerRadius) > 1 || ellipseDist(p, o.innerRadius) < 1 {
			return under
		}
	}
	return o.Color
}

// ellipseDist is < 1 inside the ellipse with the given radii, > 1 outside.
func ellipseDist(p, radius mgl64.Vec2) float64 {
	dx := p.X() / radius.X()
	dy := p.Y() / radius.Y()
	return dx*dx + dy*dy
}

// Apply implements the ImageFilter interface.
func (o *Outline) Apply(image image.Image) image.Image {
	return &filterImage{image, o.at}
}
