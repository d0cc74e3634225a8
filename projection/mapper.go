// Package projection maps output pixels to source pixels for an image projected
// onto a virtual curved surface: a cylinder bent along one of the axes, or a
// hemisphere.
//
// For each output pixel the ray from the viewer through the (centered) pixel is
// intersected with the surface, solving a quadratic on the depth coordinate.
// The nearest intersection (positive root) is always taken, and the
// intersection is projected back to the image plane.
//
// Pixels far from the center may miss the surface for some geometries (the
// quadratic discriminant is negative). Those are folded onto the tangent point
// by clamping the discriminant to zero, and reported as out of domain.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrInvalidCanvas is returned for canvases with a non-positive width or height.
	ErrInvalidCanvas = errors.New("invalid canvas")

	// ErrUnknownVariant is returned for a Variant value that is not one of Variants.
	ErrUnknownVariant = errors.New("unknown projection variant")

	// ErrInvalidConvexity is returned for a Convexity other than Concave or Convex.
	ErrInvalidConvexity = errors.New("invalid convexity")
)

// Option configures a Mapper.
type Option func(m *Mapper)

// WithIndependentHemisphereAxes makes the Hemisphere variant derive its vertical
// focal length and radius from the canvas height.
//
// By default both axes of the hemisphere are derived from the width, which only
// gives a round surface for square canvases. That is the reference behavior
// and it is kept as the default.
func WithIndependentHemisphereAxes() Option {
	return func(m *Mapper) { m.independentAxes = true }
}

// Mapper maps output pixels to source coordinates for one canvas, convexity and
// variant. The geometry is derived once in NewMapper, and Map only evaluates the
// per-pixel part.
//
// A Mapper is immutable, and safe for concurrent use.
type Mapper struct {
	width, height int
	convexity     Convexity
	variant       Variant

	// GeomX and GeomY are the surface parameters used for each axis.
	// Cylinders use the same geometry on both.
	GeomX, GeomY Geometry

	independentAxes bool
	center          mgl64.Vec2

	// Quadratic a·z² + b·z + c = 0, with a = kx·pc.x² + ky·pc.y² + a0.
	// Only a depends on the pixel.
	kx, ky, a0 float64
	b, c       float64
}

// NewMapper validates the canvas and selects the surface variant. It returns
// ErrInvalidCanvas if width or height is not positive: a zero dimension would
// also give a zero focal length.
func NewMapper(width, height int, convexity Convexity, variant Variant, options ...Option) (*Mapper, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, width, height)
	}
	if convexity != Concave && convexity != Convex {
		return nil, fmt.Errorf("%w: %g", ErrInvalidConvexity, float64(convexity))
	}
	m := &Mapper{
		width:     width,
		height:    height,
		convexity: convexity,
		variant:   variant,
		center:    mgl64.Vec2{float64(width / 2), float64(height / 2)},
	}
	for _, option := range options {
		option(m)
	}

	switch variant {
	case CylinderAlongY:
		m.GeomX = NewGeometry(width, convexity)
		m.GeomY = m.GeomX
		m.setCylinder(m.GeomX)
		m.kx = 1 / (m.GeomX.F * m.GeomX.F)
	case CylinderAlongX:
		m.GeomY = NewGeometry(height, convexity)
		m.GeomX = m.GeomY
		m.setCylinder(m.GeomY)
		m.ky = 1 / (m.GeomY.F * m.GeomY.F)
	case Hemisphere:
		m.GeomX = NewGeometry(width, convexity)
		if m.independentAxes {
			m.GeomY = NewGeometry(height, convexity)
		} else {
			m.GeomY = m.GeomX
		}
		gx, gy := m.GeomX, m.GeomY
		m.kx = 1 / (gx.F * gx.F)
		m.ky = 1 / (gy.F * gy.F)
		m.a0 = 2
		m.b = -2 * (gx.Z0 + gy.Z0)
		m.c = gx.Z0*gx.Z0 + gy.Z0*gy.Z0 - gx.R*gx.R - gy.R*gy.R
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}
	return m, nil
}

func (m *Mapper) setCylinder(g Geometry) {
	m.a0 = 1
	m.b = -2 * g.Z0
	m.c = g.Z0*g.Z0 - g.R*g.R
}

// Width of the canvas.
func (m *Mapper) Width() int { return m.width }

// Height of the canvas.
func (m *Mapper) Height() int { return m.height }

// Convexity used by the mapper.
func (m *Mapper) Convexity() Convexity { return m.convexity }

// Variant used by the mapper.
func (m *Mapper) Variant() Variant { return m.variant }

// Center returns the canvas center, (width/2, height/2) with integer halves.
func (m *Mapper) Center() mgl64.Vec2 { return m.center }

// Quadratic returns the coefficients of the depth equation a·zc² + b·zc + c = 0
// for the output point.
func (m *Mapper) Quadratic(point mgl64.Vec2) (a, b, c float64) {
	pc := point.Sub(m.center)
	return m.coefficientA(pc), m.b, m.c
}

func (m *Mapper) coefficientA(pc mgl64.Vec2) float64 {
	return m.kx*pc.X()*pc.X() + m.ky*pc.Y()*pc.Y() + m.a0
}

// Map returns the source coordinate sampled by the output point. inDomain is
// false if the ray misses the surface, in which case the tangent solution is
// used. The returned point is always finite.
func (m *Mapper) Map(point mgl64.Vec2) (source mgl64.Vec2, inDomain bool) {
	pc := point.Sub(m.center)
	zc, inDomain := PositiveRoot(m.coefficientA(pc), m.b, m.c)
	source = mgl64.Vec2{
		pc.X() * zc / m.GeomX.F,
		pc.Y() * zc / m.GeomY.F,
	}.Add(m.center)
	return
}

// PositiveRoot solves a·z² + b·z + c = 0 taking the positive branch of the
// quadratic formula, (-b + sqrt(b² - 4ac)) / 2a. The negative branch is the
// far intersection and is never used.
//
// A negative discriminant is clamped to zero, and inDomain is returned false.
// a must be non-zero; the mapper coefficients guarantee a >= 1.
func PositiveRoot(a, b, c float64) (z float64, inDomain bool) {
	discriminant := b*b - 4*a*c
	inDomain = discriminant >= 0
	if !inDomain {
		discriminant = 0
	}
	z = (-b + math.Sqrt(discriminant)) / (2 * a)
	return
}

// Map is a convenience that builds a Mapper and maps a single point.
// Prefer NewMapper when mapping more than one point.
func Map(point mgl64.Vec2, width, height int, convexity Convexity, variant Variant) (source mgl64.Vec2, inDomain bool, err error) {
	m, err := NewMapper(width, height, convexity, variant)
	if err != nil {
		return mgl64.Vec2{}, false, err
	}
	source, inDomain = m.Map(point)
	return source, inDomain, nil
}
