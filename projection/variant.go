package projection

import (
	"fmt"
	"strings"
)

// Variant selects the virtual surface the image is projected onto.
type Variant int

const (
	// CylinderAlongX bends the rows: curvature is driven by the vertical
	// distance from the center.
	CylinderAlongX Variant = iota

	// CylinderAlongY bends the columns: curvature is driven by the horizontal
	// distance from the center.
	CylinderAlongY

	// Hemisphere curves both axes at once.
	Hemisphere
)

// Variants lists all the supported variants, in display order.
var Variants = []Variant{CylinderAlongX, CylinderAlongY, Hemisphere}

func (v Variant) String() string {
	switch v {
	case CylinderAlongX:
		return "CylinderAlongX"
	case CylinderAlongY:
		return "CylinderAlongY"
	case Hemisphere:
		return "Hemisphere"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Valid returns whether v is one of the known variants.
func (v Variant) Valid() bool {
	return v >= CylinderAlongX && v <= Hemisphere
}

// ParseVariant converts a user given name to a Variant. Names are case-insensitive,
// and short forms ("x", "y", "sphere") are accepted.
func ParseVariant(name string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "x", "cylinder-x", "cylinderx", "cylinderalongx":
		return CylinderAlongX, nil
	case "y", "cylinder-y", "cylindery", "cylinderalongy":
		return CylinderAlongY, nil
	case "hemisphere", "sphere":
		return Hemisphere, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
}

// Convexity is the sign applied to the focal length: the surface either
// curves away from the viewer (Concave) or bulges toward it (Convex).
type Convexity float64

const (
	Concave Convexity = 1
	Convex  Convexity = -1
)

// ConvexityFor returns Convex if convex is true, Concave otherwise.
func ConvexityFor(convex bool) Convexity {
	if convex {
		return Convex
	}
	return Concave
}

func (c Convexity) String() string {
	switch c {
	case Concave:
		return "concave"
	case Convex:
		return "convex"
	}
	return fmt.Sprintf("Convexity(%g)", float64(c))
}
