package voltex

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/types"
)

// Environment map faces returned by CubeMap
const (
	EnvXi1Low = iota
	EnvXi1High
	EnvXi2Low
	EnvXi2High
	EnvXi3Low
	EnvXi3High
)

type cubeFace struct {
	axis     int
	high     bool
	u, v     int // in plane axes
	flipU    bool
	flipV    bool
	env      int
	boundedT bool // only hits between the centre and the point
}

// cubeFaces is the order faces are tried, the xi3=0 face is tried first for
// hits short of the point and again last for any hit
var cubeFaces = []cubeFace{
	{axis: 2, u: 0, v: 1, flipU: true, env: EnvXi3Low, boundedT: true},
	{axis: 2, high: true, u: 0, v: 1, env: EnvXi3High},
	{axis: 0, u: 2, v: 1, env: EnvXi1Low},
	{axis: 0, high: true, u: 2, v: 1, flipU: true, env: EnvXi1High},
	{axis: 1, u: 0, v: 2, env: EnvXi2Low},
	{axis: 1, high: true, u: 0, v: 2, flipV: true, env: EnvXi2High},
	{axis: 2, u: 0, v: 1, flipU: true, env: EnvXi3Low},
}

// gridFaces maps the marching face index 1..6 to the face it lies in
var gridFaces = [7]int{-1, 2, 3, 4, 5, 0, 1}

func (f cubeFace) project(c, w [3]float64) (tex r3.Vec, t float64) {
	var (
		a = f.axis
		p [3]float64
	)
	if f.high {
		t = (1 - c[a]) / (w[a] - c[a])
	} else {
		t = -c[a] / (w[a] - c[a])
	}
	for d := 0; d < 3; d++ {
		p[d] = c[d] + t*(w[d]-c[d])
	}
	u, v := p[f.u], p[f.v]
	if f.flipU {
		u = 1 - u
	}
	if f.flipV {
		v = 1 - v
	}
	return r3.Vec{X: u, Y: v}, t
}

func (f cubeFace) hit(c, w [3]float64) (tex r3.Vec, ok bool) {
	tex, t := f.project(c, w)
	if !(t >= 0) || (f.boundedT && !(t < 1)) {
		return
	}
	// range check on the unflipped plane coordinates
	u, v := tex.X, tex.Y
	if f.flipU {
		u = 1 - u
	}
	if f.flipV {
		v = 1 - v
	}
	ok = u >= 0 && u <= 1 && v >= 0 && v <= 1
	return
}

/*
CubeMap projects point v from the centre of projection cop onto the faces of
the box [0,size] and returns the texture coordinate on the face hit along
with its environment map face. Box extents below one are treated as one.
A triangle known to lie in a face of the box passes its marching face index
1..6 as face, which forces that face, otherwise face is 0.
*/
func CubeMap(v, cop, size types.Xi, face int) (tex r3.Vec, env int) {
	var c, w [3]float64
	for d := 0; d < 3; d++ {
		sf := size[d]
		if sf <= 1 {
			sf = 1
		}
		c[d], w[d] = cop[d]/sf, v[d]/sf
	}
	if face >= 1 && face <= 6 {
		f := cubeFaces[gridFaces[face]]
		tex, _ = f.project(c, w)
		return tex, f.env
	}
	for _, f := range cubeFaces {
		var ok bool
		if tex, ok = f.hit(c, w); ok {
			return tex, f.env
		}
	}
	return r3.Vec{}, EnvXi3Low
}
