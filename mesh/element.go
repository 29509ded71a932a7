package mesh

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/types"
)

// Element is the topology of one element as seen by the samplers and
// tessellators
type Element interface {
	Dimension() int
	Shape() shape.Shape
	// Adjacent returns the elements on the other side of face
	Adjacent(face int) []Element
	// Face returns the sub-element for face, nil when the face is collapsed
	Face(face int) Element
	Identifier() types.ElementIdentifier
}

// ParentMapper is implemented by faces and lines, Parent returns the first
// parent and the parentDim x (dim+1) affine xi map whose first column is the
// offset: xi_parent = b + A.xi
type ParentMapper interface {
	Parent() (Element, *mat.Dense)
}

// Interpolator exposes the nodal basis of an element, used by nodal fields
type Interpolator interface {
	Nodes() []int
	Basis(xi types.Xi) (w []float64, dw [][3]float64)
}

/*
Elem is the concrete element stored in a Mesh.

Node ordering:
  - tensor shapes: lexicographic with xi0 fastest, local node k sits at xi
    given by the bits of k
  - simplices: origin first, then the unit point along each linked direction
  - triangle line prisms: the triangle at line xi 0, then at line xi 1
  - polygons: the centre first then the ring at xi_around = r/sides; polygon
    lines repeat this at line xi 0 and 1
*/
type Elem struct {
	mesh    *Mesh
	shape   shape.Shape
	topo    shape.Topology
	nodes   []int
	id      types.ElementIdentifier
	faces   []*Elem
	parents []*Elem
}

var (
	_ Element      = (*Elem)(nil)
	_ ParentMapper = (*Elem)(nil)
	_ Interpolator = (*Elem)(nil)
)

func (e *Elem) Dimension() int                      { return e.shape.Dimension }
func (e *Elem) Shape() shape.Shape                  { return e.shape }
func (e *Elem) Topology() shape.Topology            { return e.topo }
func (e *Elem) Identifier() types.ElementIdentifier { return e.id }
func (e *Elem) Nodes() []int                        { return e.nodes }
func (e *Elem) Mesh() *Mesh                         { return e.mesh }

func (e *Elem) NumFaces() int { return len(e.faces) }

func (e *Elem) Face(face int) Element {
	if face < 0 || face >= len(e.faces) || e.faces[face] == nil {
		return nil
	}
	return e.faces[face]
}

func (e *Elem) Adjacent(face int) (adj []Element) {
	if face < 0 || face >= len(e.faces) || e.faces[face] == nil {
		return
	}
	for _, p := range e.faces[face].parents {
		if p != e {
			adj = append(adj, p)
		}
	}
	return
}

func (e *Elem) Parent() (Element, *mat.Dense) {
	if len(e.parents) == 0 {
		return nil, nil
	}
	return e.parents[0], e.ParentXiMap(e.parents[0])
}

// ParentXiMap returns the affine xi map from e into parent p, matching nodes
// by their global number
func (e *Elem) ParentXiMap(p *Elem) (m *mat.Dense) {
	var (
		dim   = e.Dimension()
		pDim  = p.Dimension()
		xiAt  = func(local int) types.Xi { return p.NodeXi(p.localIndex(e.nodes[local])) }
		x0    = xiAt(0)
		tails = e.unitNodes()
	)
	m = mat.NewDense(pDim, dim+1, nil)
	for r := 0; r < pDim; r++ {
		m.Set(r, 0, x0[r])
	}
	for k := 0; k < dim; k++ {
		xk := xiAt(tails[k])
		for r := 0; r < pDim; r++ {
			m.Set(r, k+1, xk[r]-x0[r])
		}
	}
	return
}

// unitNodes gives the local nodes at unit xi along each direction, for the
// tensor and simplex shapes that faces and lines take
func (e *Elem) unitNodes() (un []int) {
	un = make([]int, e.Dimension())
	for k := range un {
		if e.shape.IsTensor() {
			un[k] = 1 << k
		} else {
			un[k] = k + 1
		}
	}
	return
}

func (e *Elem) localIndex(node int) int {
	for i, n := range e.nodes {
		if n == node {
			return i
		}
	}
	return -1
}

// NodeXi is the xi location of local node i
func (e *Elem) NodeXi(i int) (xi types.Xi) {
	var (
		topo = e.topo
		a, b = topo.Linked[0], topo.Linked[1]
		l    = topo.LineDirection
	)
	switch topo.Category {
	case shape.Line1D, shape.Square2D, shape.Cube3D:
		for d := 0; d < e.Dimension(); d++ {
			if i&(1<<d) != 0 {
				xi[d] = 1
			}
		}
	case shape.Triangle2D, shape.Tetrahedron3D:
		if i > 0 {
			xi[i-1] = 1
		}
	case shape.TriangleLine3D:
		if i >= 3 {
			xi[l] = 1
			i -= 3
		}
		switch i {
		case 1:
			xi[a] = 1
		case 2:
			xi[b] = 1
		}
	case shape.Polygon2D, shape.PolygonLine3D:
		sides := topo.PolygonSides
		if l >= 0 && i > sides {
			xi[l] = 1
			i -= sides + 1
		}
		if i > 0 {
			xi[a] = float64(i-1) / float64(sides)
			xi[b] = 1
		}
	default:
		panic("unknown element category")
	}
	return
}

// NodeCount is the number of nodes an element of this topology carries
func NodeCount(topo shape.Topology) int {
	switch topo.Category {
	case shape.Line1D:
		return 2
	case shape.Square2D:
		return 4
	case shape.Cube3D:
		return 8
	case shape.Triangle2D:
		return 3
	case shape.Tetrahedron3D:
		return 4
	case shape.TriangleLine3D:
		return 6
	case shape.Polygon2D:
		return topo.PolygonSides + 1
	case shape.PolygonLine3D:
		return 2 * (topo.PolygonSides + 1)
	}
	panic("unknown element category")
}

// Basis returns the nodal weights and their xi derivatives at xi
func (e *Elem) Basis(xi types.Xi) (w []float64, dw [][3]float64) {
	var (
		topo = e.topo
		a, b = topo.Linked[0], topo.Linked[1]
		l    = topo.LineDirection
	)
	switch topo.Category {
	case shape.Line1D, shape.Square2D, shape.Cube3D:
		return tensorBasis(e.Dimension(), xi)
	case shape.Triangle2D, shape.Tetrahedron3D:
		dim := e.Dimension()
		w, dw = make([]float64, dim+1), make([][3]float64, dim+1)
		w[0] = 1
		for d := 0; d < dim; d++ {
			w[0] -= xi[d]
			w[d+1] = xi[d]
			dw[0][d] = -1
			dw[d+1][d] = 1
		}
	case shape.TriangleLine3D:
		tw := [3]float64{1 - xi[a] - xi[b], xi[a], xi[b]}
		tdw := [3][2]float64{{-1, -1}, {1, 0}, {0, 1}}
		w, dw = make([]float64, 6), make([][3]float64, 6)
		for layer := 0; layer < 2; layer++ {
			lw, ldw := 1-xi[l], -1.
			if layer == 1 {
				lw, ldw = xi[l], 1
			}
			for t := 0; t < 3; t++ {
				k := 3*layer + t
				w[k] = tw[t] * lw
				dw[k][a] = tdw[t][0] * lw
				dw[k][b] = tdw[t][1] * lw
				dw[k][l] = tw[t] * ldw
			}
		}
	case shape.Polygon2D, shape.PolygonLine3D:
		w, dw = polygonBasis(topo, xi)
	default:
		panic("unknown element category")
	}
	return
}

func tensorBasis(dim int, xi types.Xi) (w []float64, dw [][3]float64) {
	nn := 1 << dim
	w, dw = make([]float64, nn), make([][3]float64, nn)
	for k := 0; k < nn; k++ {
		w[k] = 1
		for d := 0; d < dim; d++ {
			f := 1 - xi[d]
			if k&(1<<d) != 0 {
				f = xi[d]
			}
			w[k] *= f
		}
		for e := 0; e < dim; e++ {
			g := 1.
			for d := 0; d < dim; d++ {
				switch {
				case d == e && k&(1<<d) != 0:
				case d == e:
					g = -g
				case k&(1<<d) != 0:
					g *= xi[d]
				default:
					g *= 1 - xi[d]
				}
			}
			dw[k][e] = g
		}
	}
	return
}

// polygonBasis interpolates radially from the centre node to the ring,
// piecewise linear around the ring
func polygonBasis(topo shape.Topology, xi types.Xi) (w []float64, dw [][3]float64) {
	var (
		sides  = topo.PolygonSides
		around = topo.Linked[0]
		radial = topo.Linked[1]
		line   = topo.LineDirection
		r      = xi[radial]
		t      = xi[around] * float64(sides)
		s      = int(math.Floor(t))
	)
	if s >= sides {
		s = sides - 1
	}
	if s < 0 {
		s = 0
	}
	f := t - float64(s)
	s0, s1 := 1+s, 1+(s+1)%sides
	pw := make([]float64, sides+1)
	pdw := make([][2]float64, sides+1) // d/dxi_around, d/dxi_radial
	pw[0], pdw[0][1] = 1-r, -1
	pw[s0] += r * (1 - f)
	pw[s1] += r * f
	pdw[s0][0] -= r * float64(sides)
	pdw[s1][0] += r * float64(sides)
	pdw[s0][1] += 1 - f
	pdw[s1][1] += f
	if line < 0 {
		w, dw = pw, make([][3]float64, sides+1)
		for k := range pw {
			dw[k][around], dw[k][radial] = pdw[k][0], pdw[k][1]
		}
		return
	}
	w, dw = make([]float64, 2*(sides+1)), make([][3]float64, 2*(sides+1))
	for layer := 0; layer < 2; layer++ {
		lw, ldw := 1-xi[line], -1.
		if layer == 1 {
			lw, ldw = xi[line], 1
		}
		for p := range pw {
			k := layer*(sides+1) + p
			w[k] = pw[p] * lw
			dw[k][around] = pdw[p][0] * lw
			dw[k][radial] = pdw[p][1] * lw
			dw[k][line] = pw[p] * ldw
		}
	}
	return
}

// faceNodes lists the local nodes of each face of the element along with
// the face shape; only tensor and simplex elements carry sub-elements
func (e *Elem) faceNodes() (faces [][]int, shapes []shape.Shape) {
	dim := e.Dimension()
	if dim < 2 {
		return
	}
	switch e.topo.Category {
	case shape.Square2D, shape.Cube3D:
		// face 2d+s holds the nodes with bit d equal to s
		sub := shape.NewLine()
		if dim == 3 {
			sub = shape.NewSquare()
		}
		for d := 0; d < dim; d++ {
			for s := 0; s < 2; s++ {
				var fn []int
				for k := 0; k < 1<<dim; k++ {
					if (k>>d)&1 == s {
						fn = append(fn, k)
					}
				}
				faces = append(faces, fn)
				shapes = append(shapes, sub)
			}
		}
	case shape.Triangle2D, shape.Tetrahedron3D:
		// face d < dim is the xi_d = 0 plane, face dim the slanted face
		sub := shape.NewLine()
		if dim == 3 {
			sub = shape.NewTriangle()
		}
		for d := 0; d <= dim; d++ {
			var fn []int
			for k := 0; k <= dim; k++ {
				if (d < dim && k != d+1) || (d == dim && k != 0) {
					fn = append(fn, k)
				}
			}
			faces = append(faces, fn)
			shapes = append(shapes, sub)
		}
	}
	return
}
