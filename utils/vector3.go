package utils

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec builds an r3.Vec from up to three components, missing ones are zero
func Vec(v ...float64) (p r3.Vec) {
	switch len(v) {
	default:
		p.Z = v[2]
		fallthrough
	case 2:
		p.Y = v[1]
		fallthrough
	case 1:
		p.X = v[0]
	case 0:
	}
	return
}

func VecArray(p r3.Vec) [3]float64 {
	return [3]float64{p.X, p.Y, p.Z}
}

// Normalize returns the unit vector and the original length, zero vectors are
// returned unchanged
func Normalize(p r3.Vec) (u r3.Vec, length float64) {
	length = r3.Norm(p)
	if length > 0 {
		u = r3.Scale(1/length, p)
	} else {
		u = p
	}
	return
}

// SmallestComponentAxis returns the unit axis of the component of p with the
// smallest magnitude, ties go to the later axis
func SmallestComponentAxis(p r3.Vec) r3.Vec {
	ax, ay, az := math.Abs(p.X), math.Abs(p.Y), math.Abs(p.Z)
	if ax < ay {
		if az < ax {
			return r3.Vec{Z: 1}
		}
		return r3.Vec{X: 1}
	}
	if az < ay {
		return r3.Vec{Z: 1}
	}
	return r3.Vec{Y: 1}
}

// DerivativeColumn extracts d(component)/d(xi) for xi direction xiDir from a
// derivative array laid out [component*ndim + xi]
func DerivativeColumn(derivatives []float64, nComponents, nDim, xiDir int) (p r3.Vec) {
	var v [3]float64
	for c := 0; c < nComponents && c < 3; c++ {
		v[c] = derivatives[c*nDim+xiDir]
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

// TriangleArea uses Heron's formula
func TriangleArea(a, b, c r3.Vec) float64 {
	var (
		la = r3.Norm(r3.Sub(b, c))
		lb = r3.Norm(r3.Sub(a, c))
		lc = r3.Norm(r3.Sub(a, b))
		s  = 0.5 * (la + lb + lc)
		sq = s * (s - la) * (s - lb) * (s - lc)
	)
	if sq <= 0 {
		return 0
	}
	return math.Sqrt(sq)
}
