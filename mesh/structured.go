package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/shape"
)

// NewStructured builds a dim dimensional mesh of n[0] x n[1] x n[2] line,
// square or cube elements filling the box [lo,hi]. Element numbering runs
// with the first direction fastest.
func NewStructured(dim int, n [3]int, lo, hi r3.Vec) (m *Mesh, err error) {
	if dim < 1 || dim > 3 {
		err = fmt.Errorf("invalid structured mesh dimension %d", dim)
		return
	}
	var (
		np [3]int
		s  shape.Shape
	)
	for d := 0; d < 3; d++ {
		if d >= dim {
			n[d] = 0
		} else if n[d] < 1 {
			err = fmt.Errorf("structured mesh needs at least one element along direction %d", d)
			return
		}
		np[d] = n[d] + 1
	}
	switch dim {
	case 1:
		s = shape.NewLine()
	case 2:
		s = shape.NewSquare()
	case 3:
		s = shape.NewCube()
	}
	var (
		verts  = make([]r3.Vec, 0, np[0]*np[1]*np[2])
		conn   [][]int
		shapes []shape.Shape
		frac   = func(i, n int) float64 {
			if n == 0 {
				return 0
			}
			return float64(i) / float64(n)
		}
		node = func(i, j, k int) int { return i + np[0]*(j+np[1]*k) }
	)
	for k := 0; k < np[2]; k++ {
		for j := 0; j < np[1]; j++ {
			for i := 0; i < np[0]; i++ {
				verts = append(verts, r3.Vec{
					X: lo.X + (hi.X-lo.X)*frac(i, n[0]),
					Y: lo.Y + (hi.Y-lo.Y)*frac(j, n[1]),
					Z: lo.Z + (hi.Z-lo.Z)*frac(k, n[2]),
				})
			}
		}
	}
	for k := 0; k < max(n[2], 1); k++ {
		for j := 0; j < max(n[1], 1); j++ {
			for i := 0; i < n[0]; i++ {
				var ec []int
				for c := 0; c < 1<<dim; c++ {
					ec = append(ec, node(i+c&1, j+(c>>1)&1, k+(c>>2)&1))
				}
				conn = append(conn, ec)
				shapes = append(shapes, s)
			}
		}
	}
	return New(verts, conn, shapes)
}

// NewTriangulated splits each square of an nx x ny structured grid over
// [lo,hi] into two triangles
func NewTriangulated(nx, ny int, lo, hi r3.Vec) (m *Mesh, err error) {
	var sq *Mesh
	if sq, err = NewStructured(2, [3]int{nx, ny}, lo, hi); err != nil {
		return
	}
	var (
		conn   [][]int
		shapes []shape.Shape
	)
	for _, e := range sq.Elements {
		n := e.Nodes()
		conn = append(conn, []int{n[0], n[1], n[2]}, []int{n[3], n[2], n[1]})
		shapes = append(shapes, shape.NewTriangle(), shape.NewTriangle())
	}
	return New(sq.Vertices, conn, shapes)
}
