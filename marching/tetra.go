package marching

import (
	"math"
	"math/bits"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

const tetraDirCount = 6

var (
	// Each cell is cut into six tetrahedra around the (0,0,0)-(1,1,1)
	// diagonal, tetrahedron t has corners (0,0,0), dirs[t][0], dirs[t][1]
	// and (1,1,1). Every cell splits its faces along the same diagonals so
	// neighbouring cells agree on shared faces.
	dirs = [tetraDirCount][2][3]int{
		{{1, 0, 0}, {1, 1, 0}},
		{{1, 0, 0}, {1, 0, 1}},
		{{0, 1, 0}, {1, 1, 0}},
		{{0, 0, 1}, {1, 0, 1}},
		{{0, 1, 0}, {0, 1, 1}},
		{{0, 0, 1}, {0, 1, 1}},
	}

	// tetCases lists the cut edges for each inside corner mask (bit c set when
	// corner c is inside), four edge cases in order around the quadrilateral
	tetCases = [16][][2]int{
		{},
		{{0, 1}, {0, 2}, {0, 3}},
		{{1, 0}, {1, 2}, {1, 3}},
		{{0, 2}, {0, 3}, {1, 3}, {1, 2}},
		{{2, 0}, {2, 1}, {2, 3}},
		{{0, 1}, {0, 3}, {2, 3}, {2, 1}},
		{{1, 0}, {1, 3}, {2, 3}, {2, 0}},
		{{3, 0}, {3, 1}, {3, 2}},
		{{3, 0}, {3, 1}, {3, 2}},
		{{0, 1}, {0, 2}, {3, 2}, {3, 1}},
		{{1, 0}, {1, 2}, {3, 2}, {3, 0}},
		{{2, 0}, {2, 1}, {2, 3}},
		{{2, 0}, {2, 1}, {3, 1}, {3, 0}},
		{{1, 0}, {1, 2}, {1, 3}},
		{{0, 1}, {0, 2}, {0, 3}},
		{},
	}
)

/*
Tetrahedra is a marching tetrahedra Engine. The fields are combined as
min_i(s_i - iso_i) at each node, a node is inside where the combination is
not negative, and the surface is interpolated linearly along the edges of
each tetrahedron. Triangles wind so the right hand normal points into the
inside region in lattice space.
*/
type Tetrahedra struct{}

func (Tetrahedra) Triangulate(fields []ScalarGrid, isovalues []float64, coords CoordinateGrid,
	opts Options) (s *Surface, err error) {
	if err = checkInput(fields, isovalues, coords); err != nil {
		return
	}
	var (
		l      = newLattice(fields, isovalues, coords, opts)
		index  = make(map[types.EdgeKey]int)
		lo, hi = l.cellRange()
	)
	s = &Surface{}
	for k := lo[2]; k < hi[2]; k++ {
		for j := lo[1]; j < hi[1]; j++ {
			for i := lo[0]; i < hi[0]; i++ {
				for t := 0; t < tetraDirCount; t++ {
					l.tetra(s, index, [4][3]int{
						{i, j, k},
						{i + dirs[t][0][0], j + dirs[t][0][1], k + dirs[t][0][2]},
						{i + dirs[t][1][0], j + dirs[t][1][1], k + dirs[t][1][2]},
						{i + 1, j + 1, k + 1},
					})
				}
			}
		}
	}
	return
}

type lattice struct {
	n       [3]int
	globalN [3]int
	f       []float64
	arg     []int
	coords  CoordinateGrid
	opts    Options
}

func newLattice(fields []ScalarGrid, isovalues []float64, coords CoordinateGrid, opts Options) (l *lattice) {
	np := len(coords.Points)
	l = &lattice{
		n:       coords.N,
		globalN: opts.GlobalN,
		f:       make([]float64, np),
		arg:     make([]int, np),
		coords:  coords,
		opts:    opts,
	}
	if l.globalN == [3]int{} {
		l.globalN = coords.N
	}
	for p := 0; p < np; p++ {
		l.f[p] = math.Inf(1)
		for i, g := range fields {
			if v := g.Values[p] - isovalues[i]; v < l.f[p] {
				l.f[p], l.arg[p] = v, i
			}
		}
	}
	return
}

// cellRange is the range of cell origins to march. A closed surface adds the
// outside layer only along the boundary planes of the global lattice, so
// slabs of one lattice never cap their shared planes.
func (l *lattice) cellRange() (lo, hi [3]int) {
	for d := 0; d < 3; d++ {
		hi[d] = l.n[d] - 1
		if !l.opts.Closed {
			continue
		}
		if l.opts.NodeOffset[d] == 0 {
			lo[d] = -1
		}
		if l.opts.NodeOffset[d]+l.n[d] >= l.globalN[d] {
			hi[d]++
		}
	}
	return
}

// local clamps a lattice position, which may lie in the outside layer, to
// a node of this lattice
func (l *lattice) local(c [3]int) (idx int, inGrid bool) {
	var cc [3]int
	inGrid = true
	for d := 0; d < 3; d++ {
		cc[d] = utils.ClampInt(c[d], 0, l.n[d]-1)
		if cc[d] != c[d] {
			inGrid = false
		}
	}
	idx = cc[0] + l.n[0]*(cc[1]+l.n[1]*cc[2])
	return
}

func (l *lattice) value(c [3]int) float64 {
	idx, inGrid := l.local(c)
	if !inGrid {
		return -1
	}
	return l.f[idx]
}

func (l *lattice) clamped(c [3]int) (g [3]int) {
	for d := 0; d < 3; d++ {
		g[d] = l.opts.NodeOffset[d] + utils.ClampInt(c[d], 0, l.n[d]-1)
	}
	return
}

func (l *lattice) global(c [3]int) int {
	g := l.clamped(c)
	return g[0] + l.globalN[0]*(g[1]+l.globalN[1]*g[2])
}

// planes has bit 2*axis set when the node is on the low boundary of the
// global lattice along axis and bit 2*axis+1 on the high boundary
func (l *lattice) planes(c [3]int) (p uint8) {
	g := l.clamped(c)
	for d := 0; d < 3; d++ {
		if g[d] == 0 {
			p |= 1 << (2 * d)
		}
		if g[d] == l.globalN[d]-1 {
			p |= 1 << (2*d + 1)
		}
	}
	return
}

func (l *lattice) xi(c [3]int) (xi types.Xi) {
	g := l.clamped(c)
	for d := 0; d < 3; d++ {
		xi[d] = l.opts.Origin[d] + l.opts.Spacing[d]*float64(g[d])
	}
	return
}

func latticeVec(c [3]int) r3.Vec {
	return r3.Vec{X: float64(c[0]), Y: float64(c[1]), Z: float64(c[2])}
}

// vertex finds or adds the surface vertex on the edge from inside node a to
// outside node b, returning its index and lattice position
func (l *lattice) vertex(s *Surface, index map[types.EdgeKey]int, a, b [3]int) (v int, at r3.Vec) {
	var (
		fa, fb  = l.value(a), l.value(b)
		ia, _   = l.local(a)
		ib, inB = l.local(b)
		t       = fa / (fa - fb)
		ga      = l.global(a)
	)
	var key types.EdgeKey
	if t == 0 || !inB {
		// the outside layer collapses onto the boundary node
		t = 0
		key = types.NewEdgeKey([2]int{ga, ga})
	} else {
		key = types.NewEdgeKey([2]int{ga, l.global(b)})
	}
	at = r3.Add(latticeVec(a), r3.Scale(t, r3.Sub(latticeVec(b), latticeVec(a))))
	var ok bool
	if v, ok = index[key]; ok {
		return
	}
	vert := Vertex{Key: key, Field: l.arg[ia], Position: l.coords.Points[ia], Xi: l.xi(a), planes: l.planes(a)}
	if t != 0 {
		vert.Field = l.arg[ib]
		vert.Position = r3.Add(vert.Position, r3.Scale(t, r3.Sub(l.coords.Points[ib], vert.Position)))
		vert.Xi = vert.Xi.Add(l.xi(b).Sub(vert.Xi).Scale(t))
		vert.planes &= l.planes(b)
	}
	v = len(s.Vertices)
	index[key] = v
	s.Vertices = append(s.Vertices, vert)
	return
}

func (l *lattice) tetra(s *Surface, index map[types.EdgeKey]int, corners [4][3]int) {
	var (
		mask              int
		inside, outside   r3.Vec
		nInside, nOutside float64
	)
	for c := 0; c < 4; c++ {
		if l.value(corners[c]) >= 0 {
			mask |= 1 << c
			inside = r3.Add(inside, latticeVec(corners[c]))
			nInside++
		} else {
			outside = r3.Add(outside, latticeVec(corners[c]))
			nOutside++
		}
	}
	edges := tetCases[mask]
	if len(edges) == 0 {
		return
	}
	var (
		dir = r3.Sub(r3.Scale(1/nInside, inside), r3.Scale(1/nOutside, outside))
		vs  [4]int
		at  [4]r3.Vec
	)
	for e, edge := range edges {
		a, b := corners[edge[0]], corners[edge[1]]
		if mask&(1<<edge[0]) == 0 {
			a, b = b, a
		}
		vs[e], at[e] = l.vertex(s, index, a, b)
	}
	l.triangle(s, dir, [3]int{vs[0], vs[1], vs[2]}, [3]r3.Vec{at[0], at[1], at[2]})
	if len(edges) == 4 {
		l.triangle(s, dir, [3]int{vs[0], vs[2], vs[3]}, [3]r3.Vec{at[0], at[2], at[3]})
	}
}

func (l *lattice) triangle(s *Surface, dir r3.Vec, v [3]int, at [3]r3.Vec) {
	if v[0] == v[1] || v[1] == v[2] || v[2] == v[0] {
		return
	}
	orient := r3.Dot(r3.Cross(r3.Sub(at[1], at[0]), r3.Sub(at[2], at[0])), dir)
	if orient == 0 {
		return
	}
	if orient < 0 {
		v[1], v[2] = v[2], v[1]
	}
	tri := Triangle{V: v, Field: s.Vertices[v[0]].Field}
	if planes := s.Vertices[v[0]].planes & s.Vertices[v[1]].planes & s.Vertices[v[2]].planes; planes != 0 {
		tri.Face = 1 + bits.TrailingZeros8(planes)
	}
	s.Triangles = append(s.Triangles, tri)
}
