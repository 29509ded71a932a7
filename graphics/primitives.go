package graphics

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/types"
)

type Kind uint8

const (
	PolylineKind Kind = iota
	SurfaceKind
	NurbsKind
	GlyphSetKind
	VoltexKind
)

func (k Kind) String() string {
	switch k {
	case PolylineKind:
		return "polyline"
	case SurfaceKind:
		return "surface"
	case NurbsKind:
		return "nurbs"
	case GlyphSetKind:
		return "glyph_set"
	case VoltexKind:
		return "voltex"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Primitive is a geometry buffer tagged with the graphics name of the element
// it was built from
type Primitive interface {
	Kind() Kind
	Name() types.GraphicsName
}

// Triangulator is implemented by primitives that can be flattened to
// triangles for file output
type Triangulator interface {
	TriangleList() []Triangle
}

type Triangle struct {
	V [3]r3.Vec
}

// Cross is (V1-V0) x (V2-V0), twice the area along the right hand normal
func (t Triangle) Cross() r3.Vec {
	return r3.Cross(r3.Sub(t.V[1], t.V[0]), r3.Sub(t.V[2], t.V[0]))
}

// Normal is the unit normal by the right hand rule, zero when degenerate
func (t Triangle) Normal() r3.Vec {
	n := t.Cross()
	if l := r3.Norm(n); l > 0 {
		return r3.Scale(1/l, n)
	}
	return r3.Vec{}
}

type Polyline struct {
	GraphicsName   types.GraphicsName
	Points         []r3.Vec
	Data           []float64
	DataComponents int
}

func (p *Polyline) Kind() Kind               { return PolylineKind }
func (p *Polyline) Name() types.GraphicsName { return p.GraphicsName }

type PolygonType uint8

const (
	Quadrilateral PolygonType = iota
	TriangleStrip
)

/*
Surface is a grid of points with normals. Quadrilateral surfaces hold N2 rows
of N1 points, point (i,j) at j*N1+i. TriangleStrip surfaces are simplex
shaped: row j holds N1-j points. Cylinder marks a swept tube, its rows run
around the tube.
*/
type Surface struct {
	GraphicsName   types.GraphicsName
	Polygon        PolygonType
	Cylinder       bool
	N1, N2         int
	Points         []r3.Vec
	Normals        []r3.Vec
	Tangents       []r3.Vec
	Texture        []r3.Vec
	Data           []float64
	DataComponents int
}

func (s *Surface) Kind() Kind               { return SurfaceKind }
func (s *Surface) Name() types.GraphicsName { return s.GraphicsName }

// RowStart is the index of the first point of row j
func (s *Surface) RowStart(j int) int {
	if s.Polygon == Quadrilateral {
		return j * s.N1
	}
	// rows shrink by one point each
	return j*s.N1 - j*(j-1)/2
}

func (s *Surface) TriangleList() (tris []Triangle) {
	p := s.Points
	switch s.Polygon {
	case Quadrilateral:
		for j := 0; j < s.N2-1; j++ {
			for i := 0; i < s.N1-1; i++ {
				a, b := j*s.N1+i, j*s.N1+i+1
				c, d := a+s.N1, b+s.N1
				tris = append(tris,
					Triangle{V: [3]r3.Vec{p[a], p[b], p[d]}},
					Triangle{V: [3]r3.Vec{p[a], p[d], p[c]}})
			}
		}
	case TriangleStrip:
		for j := 0; j < s.N1-1; j++ {
			row, next := s.RowStart(j), s.RowStart(j+1)
			for i := 0; i < s.N1-j-1; i++ {
				tris = append(tris, Triangle{V: [3]r3.Vec{p[row+i], p[row+i+1], p[next+i]}})
				if i < s.N1-j-2 {
					tris = append(tris, Triangle{V: [3]r3.Vec{p[row+i+1], p[next+i+1], p[next+i]}})
				}
			}
		}
	}
	return
}

/*
Nurbs is a rational Bezier patch. Control points are homogeneous (x,y,z,w)
with the s index fastest.
*/
type Nurbs struct {
	GraphicsName   types.GraphicsName
	SOrder, TOrder int
	SKnots, TKnots []float64
	SCount, TCount int
	Control        [][4]float64
	TextureControl [][4]float64
}

func (n *Nurbs) Kind() Kind               { return NurbsKind }
func (n *Nurbs) Name() types.GraphicsName { return n.GraphicsName }

// Evaluate returns the patch point at (s,t) for the cubic Bezier patches
// built from Hermite elements
func (n *Nurbs) Evaluate(s, t float64) (p r3.Vec) {
	var (
		bs = bernstein3(s)
		bt = bernstein3(t)
		w  float64
	)
	for j := 0; j < 4; j++ {
		for i := 0; i < 4; i++ {
			c := n.Control[4*j+i]
			f := bs[i] * bt[j] * c[3]
			p = r3.Add(p, r3.Scale(f, r3.Vec{X: c[0], Y: c[1], Z: c[2]}))
			w += f
		}
	}
	if w != 0 {
		p = r3.Scale(1/w, p)
	}
	return
}

func bernstein3(u float64) [4]float64 {
	v := 1 - u
	return [4]float64{v * v * v, 3 * u * v * v, 3 * u * u * v, u * u * u}
}

/*
GlyphSet places a glyph at each point with axes scaled per point. Names are
the point numbers, Selected flags points drawn highlighted.
*/
type GlyphSet struct {
	GraphicsName   types.GraphicsName
	Glyph          string
	Points         []r3.Vec
	Axes           [3][]r3.Vec
	Scales         []r3.Vec
	Data           []float64
	DataComponents int
	Labels         []string
	Names          []int
	Selected       []bool
}

func (g *GlyphSet) Kind() Kind               { return GlyphSetKind }
func (g *GlyphSet) Name() types.GraphicsName { return g.GraphicsName }

func (g *GlyphSet) Len() int { return len(g.Points) }

type VoltexVertex struct {
	Position r3.Vec
	Normal   r3.Vec
	Texture  r3.Vec
	Data     []float64
}

// Voltex is an isosurface triangle mesh with per triangle vertex texture
// coordinates from the cube map
type Voltex struct {
	GraphicsName    types.GraphicsName
	Vertices        []VoltexVertex
	Triangles       [][3]int
	TriangleTexture [][3]r3.Vec
	DataComponents  int
}

func (v *Voltex) Kind() Kind               { return VoltexKind }
func (v *Voltex) Name() types.GraphicsName { return v.GraphicsName }

func (v *Voltex) TriangleList() (tris []Triangle) {
	tris = make([]Triangle, len(v.Triangles))
	for t, tri := range v.Triangles {
		for c := 0; c < 3; c++ {
			tris[t].V[c] = v.Vertices[tri[c]].Position
		}
	}
	return
}
