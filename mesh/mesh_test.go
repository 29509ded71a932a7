package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/types"
)

func TestStructuredMesh(t *testing.T) {
	{ // Test a 2x2x2 hex mesh
		m, err := NewStructured(3, [3]int{2, 2, 2}, r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, m.Dimension)
		assert.Equal(t, 27, len(m.Vertices))
		assert.Equal(t, 8, len(m.Elements))
		assert.Equal(t, 36, len(m.Faces))
		assert.Equal(t, 54, len(m.Lines))
		e := m.Elements[0]
		assert.Equal(t, types.ElementIdentifier{Type: types.CMElement, Number: 1}, e.Identifier())
		// +xi faces reach the next element in each direction
		for d, want := range []int{2, 3, 5} {
			adj := e.Adjacent(2*d + 1)
			require.Len(t, adj, 1)
			assert.Equal(t, want, adj[0].Identifier().Number)
			assert.Empty(t, e.Adjacent(2*d))
		}
		f := e.Face(1)
		require.NotNil(t, f)
		assert.Equal(t, types.CMFace, f.Identifier().Type)
		assert.Equal(t, 2, f.Dimension())
		l := f.Face(0)
		require.NotNil(t, l)
		assert.Equal(t, types.CMLine, l.Identifier().Type)
		{ // Test rebuilding connectivity leaves it unchanged
			m.BuildConnectivity()
			assert.Equal(t, 36, len(m.Faces))
			assert.Equal(t, 54, len(m.Lines))
			assert.Len(t, m.FaceMap, 36+54)
			for d, want := range []int{2, 3, 5} {
				adj := e.Adjacent(2*d + 1)
				require.Len(t, adj, 1)
				assert.Equal(t, want, adj[0].Identifier().Number)
				assert.Empty(t, e.Adjacent(2*d))
			}
		}
	}
	{ // Test a 2D mesh has lines as faces
		m, err := NewStructured(2, [3]int{3, 1}, r3.Vec{}, r3.Vec{X: 3, Y: 1})
		require.NoError(t, err)
		assert.Equal(t, 3, len(m.Elements))
		assert.Equal(t, 10, len(m.Lines))
		assert.Empty(t, m.Faces)
		assert.Equal(t, types.CMLine, m.Elements[0].Face(0).Identifier().Type)
		el, ok := m.Element(types.ElementIdentifier{Type: types.CMElement, Number: 2})
		require.True(t, ok)
		assert.Equal(t, m.Elements[1], el)
		_, ok = m.Element(types.ElementIdentifier{Type: types.CMElement, Number: 4})
		assert.False(t, ok)
		assert.Len(t, m.ElementsOfDimension(1), 10)
	}
	{ // Test bad input
		_, err := NewStructured(4, [3]int{1, 1, 1}, r3.Vec{}, r3.Vec{})
		assert.Error(t, err)
		_, err = NewStructured(2, [3]int{1, 0}, r3.Vec{}, r3.Vec{})
		assert.Error(t, err)
		_, err = New([]r3.Vec{{}, {X: 1}}, [][]int{{0, 2}}, []shape.Shape{shape.NewLine()})
		assert.Error(t, err)
		_, err = New([]r3.Vec{{}, {X: 1}}, [][]int{{0, 1, 1}}, []shape.Shape{shape.NewLine()})
		assert.Error(t, err)
	}
}

func TestBasis(t *testing.T) {
	shapes := []shape.Shape{
		shape.NewLine(), shape.NewSquare(), shape.NewCube(),
		shape.NewTriangle(), shape.NewTetrahedron(),
		shape.NewTriangleLine([2]int{0, 1}), shape.NewTriangleLine([2]int{1, 2}),
		shape.NewPolygon(5), shape.NewPolygonLine(4, [2]int{0, 1}),
	}
	for _, s := range shapes {
		topo, err := shape.Classify(s)
		require.NoError(t, err)
		e := &Elem{shape: s, topo: topo}
		nn := NodeCount(topo)
		{ // Test partition of unity and derivative sums
			w, dw := e.Basis(types.NewXi(0.2, 0.3, 0.1))
			require.Len(t, w, nn)
			var sum float64
			var dsum [3]float64
			for k := range w {
				sum += w[k]
				for d := 0; d < 3; d++ {
					dsum[d] += dw[k][d]
				}
			}
			assert.InDelta(t, 1, sum, 1.e-12, topo.Category.String())
			for d := 0; d < 3; d++ {
				assert.InDelta(t, 0, dsum[d], 1.e-12, topo.Category.String())
			}
		}
		{ // Test nodal interpolation property
			for i := 0; i < nn; i++ {
				w, _ := e.Basis(e.NodeXi(i))
				assert.InDelta(t, 1, w[i], 1.e-12, "%s node %d", topo.Category, i)
			}
		}
	}
}

func TestFacesAndParents(t *testing.T) {
	{ // Test parent maps of a cube face round trip to the face nodes
		m, err := NewStructured(3, [3]int{1, 1, 1}, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
		require.NoError(t, err)
		e := m.Elements[0]
		for f := 0; f < 6; f++ {
			face := e.Face(f).(*Elem)
			p, xm := face.Parent()
			assert.Equal(t, Element(e), p)
			r, c := xm.Dims()
			assert.Equal(t, 3, r)
			assert.Equal(t, 3, c)
			for i, n := range face.Nodes() {
				fx := face.NodeXi(i)
				px := mat.NewVecDense(3, nil)
				px.MulVec(xm, mat.NewVecDense(3, []float64{1, fx[0], fx[1]}))
				want := e.NodeXi(e.localIndex(n))
				for d := 0; d < 3; d++ {
					assert.InDelta(t, want[d], px.AtVec(d), 1.e-12)
				}
			}
		}
	}
	{ // Test collapsed faces are nil
		verts := []r3.Vec{{}, {X: 1}, {Y: 1}}
		m, err := New(verts, [][]int{{0, 0, 1, 2}}, []shape.Shape{shape.NewSquare()})
		require.NoError(t, err)
		e := m.Elements[0]
		assert.Nil(t, e.Face(2))
		assert.NotNil(t, e.Face(0))
		assert.NotNil(t, e.Face(1))
		assert.NotNil(t, e.Face(3))
	}
	{ // Test tetrahedron faces and node location
		verts := []r3.Vec{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 1, Y: 1, Z: 1}}
		m, err := New(verts, [][]int{{0, 1, 2, 3}, {4, 1, 2, 3}},
			[]shape.Shape{shape.NewTetrahedron(), shape.NewTetrahedron()})
		require.NoError(t, err)
		assert.Equal(t, 7, len(m.Faces))
		assert.Equal(t, 9, len(m.Lines))
		adj := m.Elements[0].Adjacent(3)
		require.Len(t, adj, 1)
		assert.Equal(t, 2, adj[0].Identifier().Number)
		e, xi, err := m.NodeLocation(4)
		require.NoError(t, err)
		assert.Equal(t, 2, e.Identifier().Number)
		assert.Equal(t, types.Xi{}, xi)
		e, xi, err = m.NodeLocation(3)
		require.NoError(t, err)
		assert.Equal(t, 1, e.Identifier().Number)
		assert.Equal(t, types.Xi{0, 0, 1}, xi)
		_, _, err = m.NodeLocation(5)
		assert.Error(t, err)
	}
}
