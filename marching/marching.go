package marching

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/types"
)

// Engine turns sampled scalar fields into a triangle surface bounding the
// region where every field is at or above its isovalue
type Engine interface {
	Triangulate(fields []ScalarGrid, isovalues []float64, coords CoordinateGrid, opts Options) (*Surface, error)
}

// ScalarGrid holds node values of a lattice with N nodes per axis, indexed
// i + N[0]*(j + N[1]*k)
type ScalarGrid struct {
	N      [3]int
	Values []float64
}

func (g ScalarGrid) Index(i, j, k int) int { return i + g.N[0]*(j+g.N[1]*k) }

func (g ScalarGrid) At(i, j, k int) float64 { return g.Values[g.Index(i, j, k)] }

func NewScalarGrid(n [3]int) ScalarGrid {
	return ScalarGrid{N: n, Values: make([]float64, n[0]*n[1]*n[2])}
}

// CoordinateGrid is the position of each lattice node, indexed as ScalarGrid
type CoordinateGrid struct {
	N      [3]int
	Points []r3.Vec
}

func NewCoordinateGrid(n [3]int) CoordinateGrid {
	return CoordinateGrid{N: n, Points: make([]r3.Vec, n[0]*n[1]*n[2])}
}

/*
Options places a lattice inside a larger one so separately triangulated
slabs share vertex keys. Node (i,j,k) of the lattice is global node
NodeOffset + (i,j,k) of a GlobalN lattice, with xi Origin + Spacing*global.
A zero GlobalN means the lattice is the whole grid.

Closed surrounds the global lattice with an outside layer so the surface is
capped where the inside region meets the grid boundary. Cap triangles carry
the face index of the boundary plane they lie in.
*/
type Options struct {
	Closed     bool
	Origin     types.Xi
	Spacing    types.Xi
	NodeOffset [3]int
	GlobalN    [3]int
}

// Vertex is a surface point on a lattice edge. Key identifies the edge by
// global node numbers, or the node when the vertex sits on one.
type Vertex struct {
	Xi       types.Xi
	Position r3.Vec
	Key      types.EdgeKey
	Field    int // Index of the field whose boundary the vertex lies on
	planes   uint8
}

/*
Triangle indexes Surface.Vertices. Face is 0 for triangles inside the grid
and 1 + 2*axis + side for triangles lying in a boundary plane of the global
lattice: 1 xi1=0, 2 xi1=max, 3 xi2=0, 4 xi2=max, 5 xi3=0, 6 xi3=max.
*/
type Triangle struct {
	V     [3]int
	Field int
	Face  int
}

type Surface struct {
	Vertices  []Vertex
	Triangles []Triangle
}

/*
Weld joins surfaces triangulated from neighbouring slabs of one global
lattice, merging vertices with equal keys. The first copy of a shared vertex
is kept.
*/
func Weld(surfaces ...*Surface) (s *Surface) {
	var (
		index = make(map[types.EdgeKey]int)
	)
	s = &Surface{}
	for _, in := range surfaces {
		if in == nil {
			continue
		}
		remap := make([]int, len(in.Vertices))
		for i, v := range in.Vertices {
			n, ok := index[v.Key]
			if !ok {
				n = len(s.Vertices)
				index[v.Key] = n
				s.Vertices = append(s.Vertices, v)
			}
			remap[i] = n
		}
		for _, t := range in.Triangles {
			s.Triangles = append(s.Triangles, Triangle{
				V:     [3]int{remap[t.V[0]], remap[t.V[1]], remap[t.V[2]]},
				Field: t.Field,
				Face:  t.Face,
			})
		}
	}
	return
}

func checkInput(fields []ScalarGrid, isovalues []float64, coords CoordinateGrid) (err error) {
	if len(fields) == 0 {
		return fmt.Errorf("no scalar fields to triangulate")
	}
	if len(fields) != len(isovalues) {
		return fmt.Errorf("have %d isovalues for %d scalar fields", len(isovalues), len(fields))
	}
	n := coords.N
	for d := 0; d < 3; d++ {
		if n[d] < 2 {
			return fmt.Errorf("lattice needs at least two nodes per axis, have %v", n)
		}
	}
	np := n[0] * n[1] * n[2]
	if len(coords.Points) != np {
		return fmt.Errorf("coordinate grid has %d points for %v nodes", len(coords.Points), n)
	}
	for i, f := range fields {
		if f.N != n || len(f.Values) != np {
			return fmt.Errorf("scalar field %d lattice %v with %d values does not match coordinates %v",
				i, f.N, len(f.Values), n)
		}
	}
	return
}
