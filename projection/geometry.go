package projection

import "math"

// Geometry holds the parameters of the curved surface along one axis.
//
// The surface passes through the canvas edge: its base depth Z0 is derived
// from the focal length F and the half-extent Omega.
type Geometry struct {
	F     float64 // Focal length, signed by the convexity.
	R     float64 // Radius of the cylinder or sphere.
	Omega float64 // Half-extent of the canvas along the axis.
	Z0    float64 // Base depth offset.
}

// NewGeometry derives the surface parameters for a canvas dimension dim.
// dim must be positive: with F = ±dim and Omega = dim/2 the square root
// argument F² - Omega² is never negative.
func NewGeometry(dim int, convexity Convexity) Geometry {
	half := float64(dim / 2)
	f := float64(dim) * float64(convexity)
	return Geometry{
		F:     f,
		R:     half,
		Omega: half,
		Z0:    f - math.Sqrt(f*f-half*half),
	}
}
