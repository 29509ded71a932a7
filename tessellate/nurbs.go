package tessellate

import (
	"fmt"

	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
)

// patchCorner places the four Bezier control points nearest one corner of
// a 4x4 grid, s index fastest
type patchCorner struct {
	xi               types.Xi
	sign1, sign2     float64
	at, step1, step2 int
}

var patchCorners = [4]patchCorner{
	{types.NewXi(0, 0), 1, 1, 0, 1, 4},
	{types.NewXi(1, 0), -1, 1, 3, -1, 4},
	{types.NewXi(0, 1), 1, -1, 12, 1, -4},
	{types.NewXi(1, 1), -1, -1, 15, -1, -4},
}

var bezierKnots = []float64{0, 0, 0, 0, 1, 1, 1, 1}

// Nurbs converts a 2D element to a bicubic Bezier patch from the values and
// first derivatives of the coordinate field at its corners, the Hermite to
// Bezier conversion. A texture field gets its own control grid.
func Nurbs(elem mesh.Element, coords, texture field.Field, time float64,
	top mesh.Element) (patch *graphics.Nurbs, err error) {
	defer field.ClearAll(coords, texture)
	if elem == nil || elem.Dimension() != 2 {
		err = fmt.Errorf("nurbs patch needs a 2D element")
		return
	}
	if err = checkCoordinates(coords); err != nil {
		return
	}
	var name types.GraphicsName
	if name, err = graphicsName(elem); err != nil {
		return
	}
	p := &graphics.Nurbs{
		GraphicsName: name,
		SOrder:       4,
		TOrder:       4,
		SKnots:       append([]float64(nil), bezierKnots...),
		TKnots:       append([]float64(nil), bezierKnots...),
		SCount:       4,
		TCount:       4,
	}
	if p.Control, err = hermiteControl(elem, coords, time, top); err != nil {
		return
	}
	if texture != nil {
		if p.TextureControl, err = hermiteControl(elem, texture, time, top); err != nil {
			return
		}
	}
	patch = p
	return
}

func hermiteControl(elem mesh.Element, f field.Field, time float64,
	top mesh.Element) (cp [][4]float64, err error) {
	nc := min(f.NumberOfComponents(), 3)
	cp = make([][4]float64, 16)
	for _, c := range patchCorners {
		var x, dx []float64
		if x, dx, err = f.EvaluateWithDerivatives(elem, c.xi, time, top); err != nil {
			return
		}
		for k := 0; k < nc; k++ {
			var (
				d1 = c.sign1 * dx[k*2] / 3
				d2 = c.sign2 * dx[k*2+1] / 3
			)
			cp[c.at][k] = x[k]
			cp[c.at+c.step1][k] = x[k] + d1
			cp[c.at+c.step2][k] = x[k] + d2
			cp[c.at+c.step1+c.step2][k] = x[k] + d1 + d2
		}
		for _, i := range []int{c.at, c.at + c.step1, c.at + c.step2, c.at + c.step1 + c.step2} {
			cp[i][3] = 1
		}
	}
	return
}
