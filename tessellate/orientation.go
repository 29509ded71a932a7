package tessellate

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/utils"
)

var ErrInvalidComponentCount = errors.New("invalid orientation scale component count")

var identityAxes = [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}

/*
OrientationScaleAxes decodes an orientation/scale field value into three
glyph axes and a size per axis. The number of components selects the form:

	0: identity axes, zero size
	1: identity axes, isotropic size
	2: one 2D vector, second axis in plane, third along z
	3: one 3D vector, the other axes completed about it
	4: two 2D vectors, third along z
	6: two 3D vectors, third their normalised cross product
	9: three 3D vectors

Zero length vectors give zero axes and sizes.
*/
func OrientationScaleAxes(values []float64) (axes [3]r3.Vec, size r3.Vec, err error) {
	switch len(values) {
	case 0:
		axes = identityAxes
	case 1:
		axes = identityAxes
		size = r3.Vec{X: values[0], Y: values[0], Z: values[0]}
	case 2:
		var m float64
		axes[0], m = utils.Normalize(r3.Vec{X: values[0], Y: values[1]})
		axes[1] = r3.Vec{X: -axes[0].Y, Y: axes[0].X}
		axes[2] = r3.Vec{Z: 1}
		size = r3.Vec{X: m, Y: m, Z: m}
	case 3:
		a1, m := utils.Normalize(r3.Vec{X: values[0], Y: values[1], Z: values[2]})
		if m > 0 {
			axes[0] = a1
			axes[1], _ = utils.Normalize(r3.Cross(utils.SmallestComponentAxis(a1), a1))
			axes[2] = r3.Cross(axes[0], axes[1])
		}
		size = r3.Vec{X: m, Y: m, Z: m}
	case 4:
		var m1, m2 float64
		axes[0], m1 = utils.Normalize(r3.Vec{X: values[0], Y: values[1]})
		axes[1], m2 = utils.Normalize(r3.Vec{X: values[2], Y: values[3]})
		axes[2] = r3.Vec{Z: 1}
		size = r3.Vec{X: m1, Y: m2}
	case 6:
		var m1, m2 float64
		axes[0], m1 = utils.Normalize(utils.Vec(values[0:3]...))
		axes[1], m2 = utils.Normalize(utils.Vec(values[3:6]...))
		axes[2], _ = utils.Normalize(r3.Cross(axes[0], axes[1]))
		size = r3.Vec{X: m1, Y: m2}
	case 9:
		var m [3]float64
		for k := 0; k < 3; k++ {
			axes[k], m[k] = utils.Normalize(utils.Vec(values[3*k : 3*k+3]...))
		}
		size = r3.Vec{X: m[0], Y: m[1], Z: m[2]}
	default:
		err = fmt.Errorf("%w: %d", ErrInvalidComponentCount, len(values))
	}
	return
}
