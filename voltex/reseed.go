package voltex

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/statistics"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

// SurfacePoint is a point scattered over an isosurface, located in a block
// element
type SurfacePoint struct {
	Element  mesh.Element
	Xi       types.Xi // Local to Element
	Position r3.Vec
}

/*
ReseedSurfacePoints scatters random points over an isosurface. Each triangle
receives a Poisson distributed number of points with mean its area times the
first component of density at its xi centroid, placed uniformly over the
triangle in xi and evaluated with coords.
*/
func ReseedSurfacePoints(iso *Isosurface, coords, density field.Field, time float64,
	rng *rand.Rand) (points []SurfacePoint, err error) {
	defer field.ClearAll(coords, density)
	if iso == nil || iso.Voltex == nil || iso.Block == nil {
		err = fmt.Errorf("no isosurface to reseed")
		return
	}
	if len(iso.Xi) != len(iso.Voltex.Vertices) {
		err = fmt.Errorf("isosurface has %d vertex xi for %d vertices", len(iso.Xi), len(iso.Voltex.Vertices))
		return
	}
	if coords == nil || coords.NumberOfComponents() > 3 {
		err = fmt.Errorf("reseeding needs a coordinate field of at most 3 components")
		return
	}
	if density == nil || density.NumberOfComponents() > 4 {
		err = fmt.Errorf("reseeding needs a density field of at most 4 components")
		return
	}
	v := iso.Voltex
	for _, tri := range v.Triangles {
		var (
			x0, x1, x2 = iso.Xi[tri[0]], iso.Xi[tri[1]], iso.Xi[tri[2]]
			p0, p1, p2 = v.Vertices[tri[0]].Position, v.Vertices[tri[1]].Position, v.Vertices[tri[2]].Position
			centroid   = x0.Add(x1).Add(x2).Scale(1. / 3)
			d          []float64
			count      int
		)
		elem, local, ok := iso.Block.Locate(centroid)
		if !ok {
			err = fmt.Errorf("no element in block for xi %v", centroid)
			return
		}
		if d, err = density.Evaluate(elem, local, time, nil); err != nil {
			return
		}
		if count, err = statistics.SamplePoisson(utils.TriangleArea(p0, p1, p2)*d[0], rng); err != nil {
			return
		}
		for j := 0; j < count; j++ {
			r1, r2 := rng.Float64(), rng.Float64()
			if r1+r2 > 1 {
				r1, r2 = 1-r1, 1-r2
			}
			xi := x0.Add(x1.Sub(x0).Scale(r1)).Add(x2.Sub(x0).Scale(r2))
			if elem, local, ok = iso.Block.Locate(xi); !ok {
				err = fmt.Errorf("no element in block for xi %v", xi)
				return
			}
			var x []float64
			if x, err = coords.Evaluate(elem, local, time, nil); err != nil {
				return
			}
			points = append(points, SurfacePoint{Element: elem, Xi: local, Position: utils.Vec(x...)})
		}
	}
	return
}
