package tessellate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/types"
)

func assertVec(t *testing.T, want, got r3.Vec, tol float64, msgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, tol, msgs...)
	assert.InDelta(t, want.Y, got.Y, tol, msgs...)
	assert.InDelta(t, want.Z, got.Z, tol, msgs...)
}

func TestOrientationScaleAxes(t *testing.T) {
	{ // Test isotropic forms
		axes, size, err := OrientationScaleAxes(nil)
		require.NoError(t, err)
		assert.Equal(t, identityAxes, axes)
		assert.Equal(t, r3.Vec{}, size)
		axes, size, err = OrientationScaleAxes([]float64{2})
		require.NoError(t, err)
		assert.Equal(t, [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}, axes)
		assert.Equal(t, r3.Vec{X: 2, Y: 2, Z: 2}, size)
	}
	{ // Test 2D vectors
		axes, size, err := OrientationScaleAxes([]float64{3, 4})
		require.NoError(t, err)
		assertVec(t, r3.Vec{X: 0.6, Y: 0.8}, axes[0], 1.e-14)
		assertVec(t, r3.Vec{X: -0.8, Y: 0.6}, axes[1], 1.e-14)
		assertVec(t, r3.Vec{Z: 1}, axes[2], 0)
		assertVec(t, r3.Vec{X: 5, Y: 5, Z: 5}, size, 1.e-14)
		axes, size, err = OrientationScaleAxes([]float64{2, 0, 0, 3})
		require.NoError(t, err)
		assertVec(t, r3.Vec{X: 1}, axes[0], 0)
		assertVec(t, r3.Vec{Y: 1}, axes[1], 0)
		assertVec(t, r3.Vec{X: 2, Y: 3}, size, 0)
	}
	{ // Test one 3D vector completes an orthonormal frame
		axes, size, err := OrientationScaleAxes([]float64{0, 0, 2})
		require.NoError(t, err)
		assertVec(t, r3.Vec{Z: 1}, axes[0], 0)
		assertVec(t, r3.Vec{X: 1}, axes[1], 1.e-14)
		assertVec(t, r3.Vec{Y: 1}, axes[2], 1.e-14)
		assertVec(t, r3.Vec{X: 2, Y: 2, Z: 2}, size, 0)
		axes, _, err = OrientationScaleAxes([]float64{0.3, -1.2, 0.7})
		require.NoError(t, err)
		for a := 0; a < 3; a++ {
			assert.InDelta(t, 1, r3.Norm(axes[a]), 1.e-12)
			for b := a + 1; b < 3; b++ {
				assert.InDelta(t, 0, r3.Dot(axes[a], axes[b]), 1.e-12)
			}
		}
		// right handed
		assertVec(t, axes[2], r3.Cross(axes[0], axes[1]), 1.e-12)
	}
	{ // Test zero vectors give zero axes without failing
		axes, size, err := OrientationScaleAxes([]float64{0, 0, 0})
		require.NoError(t, err)
		assert.Equal(t, [3]r3.Vec{}, axes)
		assert.Equal(t, r3.Vec{}, size)
	}
	{ // Test two and three 3D vectors
		axes, size, err := OrientationScaleAxes([]float64{1, 0, 0, 0, 2, 0})
		require.NoError(t, err)
		assertVec(t, r3.Vec{Z: 1}, axes[2], 1.e-14)
		assertVec(t, r3.Vec{X: 1, Y: 2}, size, 1.e-14)
		axes, size, err = OrientationScaleAxes([]float64{0, 2, 0, 3, 0, 0, 0, 0, 4})
		require.NoError(t, err)
		assert.Equal(t, [3]r3.Vec{{Y: 1}, {X: 1}, {Z: 1}}, axes)
		assert.Equal(t, r3.Vec{X: 2, Y: 3, Z: 4}, size)
	}
	{ // Test other component counts
		for _, k := range []int{5, 7, 8, 10} {
			_, _, err := OrientationScaleAxes(make([]float64, k))
			assert.ErrorIs(t, err, ErrInvalidComponentCount, "k=%d", k)
		}
	}
}

func lineMesh(t *testing.T, n int, length float64) (*mesh.Mesh, *field.Nodal) {
	m, err := mesh.NewStructured(1, [3]int{n}, r3.Vec{}, r3.Vec{X: length})
	require.NoError(t, err)
	return m, field.NewCoordinates(m)
}

func TestPolyline(t *testing.T) {
	m, coords := lineMesh(t, 2, 2)
	{ // Test points and data
		data := field.NewFunction("x2", 1, coords, func(x r3.Vec, time float64) []float64 {
			return []float64{2 * x.X}
		})
		pl, err := Polyline(m.Elements[1], coords, data, 4, 0, nil)
		require.NoError(t, err)
		require.Len(t, pl.Points, 5)
		for i, p := range pl.Points {
			assertVec(t, r3.Vec{X: 1 + 0.25*float64(i)}, p, 1.e-14)
			assert.InDelta(t, 2*p.X, pl.Data[i], 1.e-12)
		}
		assert.Equal(t, 1, pl.DataComponents)
		assert.Equal(t, types.GraphicsName(2), pl.Name())
		assert.False(t, coords.Cached())
		assert.False(t, data.Cached())
	}
	{ // Test bad input
		_, err := Polyline(m.Elements[0], coords, nil, 0, 0, nil)
		assert.Error(t, err)
		sq, err := mesh.NewStructured(2, [3]int{1, 1}, r3.Vec{}, r3.Vec{X: 1, Y: 1})
		require.NoError(t, err)
		_, err = Polyline(sq.Elements[0], field.NewCoordinates(sq), nil, 2, 0, nil)
		assert.Error(t, err)
		_, err = Polyline(m.Elements[0], field.NewConstant("four", 1, 2, 3, 4), nil, 2, 0, nil)
		assert.Error(t, err)
	}
}

func TestCylinder(t *testing.T) {
	{ // Test a straight tube keeps every ring point at the radius
		m, coords := lineMesh(t, 1, 2)
		cyl, err := Cylinder(m.Elements[0], CylinderOptions{
			Coordinates:    coords,
			ConstantRadius: 0.5,
			SegmentsAlong:  4,
			SegmentsAround: 8,
		})
		require.NoError(t, err)
		assert.True(t, cyl.Cylinder)
		assert.Equal(t, 9, cyl.N1)
		assert.Equal(t, 5, cyl.N2)
		require.Len(t, cyl.Points, 45)
		for i := 0; i <= 4; i++ {
			centre := r3.Vec{X: 0.5 * float64(i)}
			for j := 0; j <= 8; j++ {
				k := i*9 + j
				d := r3.Sub(cyl.Points[k], centre)
				assert.InDelta(t, 0.5, r3.Norm(d), 1.e-12)
				assert.InDelta(t, 0, d.X, 1.e-12)
				assertVec(t, r3.Scale(2, d), cyl.Normals[k], 1.e-12)
				assert.InDelta(t, float64(i)/4, cyl.Texture[k].X, 1.e-14)
				assert.InDelta(t, float64(j)/8, cyl.Texture[k].Y, 1.e-14)
			}
			// seam point duplicates the first
			assertVec(t, cyl.Points[i*9], cyl.Points[i*9+8], 1.e-12)
		}
		assert.False(t, coords.Cached())
	}
	{ // Test a helix keeps the radius and the ring square to the curve
		m, coords := lineMesh(t, 1, 1)
		helix := field.NewFunction("helix", 3, coords, func(x r3.Vec, time float64) []float64 {
			a := x.X * math.Pi
			return []float64{math.Cos(a), math.Sin(a), 0.5 * x.X}
		})
		cyl, err := Cylinder(m.Elements[0], CylinderOptions{
			Coordinates:    helix,
			ConstantRadius: 0.1,
			SegmentsAlong:  16,
			SegmentsAround: 6,
		})
		require.NoError(t, err)
		for i := 0; i <= 16; i++ {
			a := float64(i) / 16 * math.Pi
			var (
				centre  = r3.Vec{X: math.Cos(a), Y: math.Sin(a), Z: float64(i) / 32}
				tangent = r3.Unit(r3.Vec{X: -math.Pi * math.Sin(a), Y: math.Pi * math.Cos(a), Z: 0.5})
			)
			for j := 0; j <= 6; j++ {
				d := r3.Sub(cyl.Points[i*7+j], centre)
				assert.InDelta(t, 0.1, r3.Norm(d), 1.e-6)
				assert.InDelta(t, 0, r3.Dot(d, tangent), 1.e-5)
			}
		}
	}
	{ // Test a growing radius field tilts the normals backwards
		m, coords := lineMesh(t, 1, 2)
		radius := field.NewFunction("radius", 1, coords, func(x r3.Vec, time float64) []float64 {
			return []float64{0.2 + 0.1*x.X}
		})
		cyl, err := Cylinder(m.Elements[0], CylinderOptions{
			Coordinates:    coords,
			Radius:         radius,
			ScaleFactor:    1,
			SegmentsAlong:  2,
			SegmentsAround: 4,
		})
		require.NoError(t, err)
		for i := 0; i <= 2; i++ {
			centre := r3.Vec{X: float64(i)}
			for j := 0; j <= 4; j++ {
				k := i*5 + j
				assert.InDelta(t, 0.2+0.1*float64(i), r3.Norm(r3.Sub(cyl.Points[k], centre)), 1.e-9)
				assert.Less(t, cyl.Normals[k].X, 0.)
				assert.InDelta(t, 1, r3.Norm(cyl.Normals[k]), 1.e-12)
			}
		}
		assert.False(t, radius.Cached())
	}
	{ // Test validation and cache clearing on failure
		m, coords := lineMesh(t, 1, 2)
		_, err := Cylinder(m.Elements[0], CylinderOptions{Coordinates: coords, SegmentsAlong: 2, SegmentsAround: 1})
		assert.Error(t, err)
		_, err = Cylinder(m.Elements[0], CylinderOptions{Coordinates: coords, SegmentsAlong: 2, SegmentsAround: 4,
			Radius: field.NewConstant("r", 1, 1)})
		assert.Error(t, err)
		undefined := field.NewFunction("undefined", 1, coords, func(x r3.Vec, time float64) []float64 {
			if x.X > 1.5 {
				return nil
			}
			return []float64{x.X}
		})
		before := coords.Clears()
		cyl, err := Cylinder(m.Elements[0], CylinderOptions{Coordinates: coords, Data: undefined,
			ConstantRadius: 1, SegmentsAlong: 4, SegmentsAround: 4})
		assert.ErrorIs(t, err, field.ErrFieldEvaluation)
		assert.Nil(t, cyl)
		assert.Equal(t, before+1, coords.Clears())
		assert.False(t, coords.Cached())
		assert.False(t, undefined.Cached())
	}
}

func TestSurface(t *testing.T) {
	{ // Test a flat square
		m, err := mesh.NewStructured(2, [3]int{1, 1}, r3.Vec{}, r3.Vec{X: 1, Y: 1})
		require.NoError(t, err)
		coords := field.NewCoordinates(m)
		s, err := Surface(m.Elements[0], SurfaceOptions{Coordinates: coords, Segments: [2]int{2, 3}})
		require.NoError(t, err)
		assert.Equal(t, graphics.Quadrilateral, s.Polygon)
		assert.Equal(t, 3, s.N1)
		assert.Equal(t, 4, s.N2)
		require.Len(t, s.Points, 12)
		for j := 0; j < 4; j++ {
			for i := 0; i < 3; i++ {
				assertVec(t, r3.Vec{X: float64(i) / 2, Y: float64(j) / 3}, s.Points[j*3+i], 1.e-14)
			}
		}
		for _, n := range s.Normals {
			assertVec(t, r3.Vec{Z: 1}, n, 1.e-14)
		}
		assert.Nil(t, s.Tangents)
		assert.Len(t, s.TriangleList(), 12)
		s, err = Surface(m.Elements[0], SurfaceOptions{Coordinates: coords, Segments: [2]int{1, 1}, ReverseNormals: true})
		require.NoError(t, err)
		for _, n := range s.Normals {
			assertVec(t, r3.Vec{Z: -1}, n, 1.e-14)
		}
		assert.False(t, coords.Cached())
	}
	{ // Test a triangle gives a simplex strip
		m, err := mesh.NewTriangulated(1, 1, r3.Vec{}, r3.Vec{X: 1, Y: 1})
		require.NoError(t, err)
		s, err := Surface(m.Elements[0], SurfaceOptions{Coordinates: field.NewCoordinates(m), Segments: [2]int{2, 1}})
		require.NoError(t, err)
		assert.Equal(t, graphics.TriangleStrip, s.Polygon)
		assert.Equal(t, 3, s.N1)
		require.Len(t, s.Points, 6)
		assertVec(t, r3.Vec{Y: 1}, s.Points[5], 1.e-14)
		for _, n := range s.Normals {
			assertVec(t, r3.Vec{Z: -1}, n, 1.e-14)
		}
		assert.Len(t, s.TriangleList(), 4)
	}
	{ // Test a collapsed square gets normals on the collapsed edge
		verts := []r3.Vec{{}, {X: 1}, {Y: 1}}
		m, err := mesh.New(verts, [][]int{{0, 0, 1, 2}}, []shape.Shape{shape.NewSquare()})
		require.NoError(t, err)
		assert.Equal(t, CollapsedXi2At0, CollapsedEdge(m.Elements[0]))
		s, err := Surface(m.Elements[0], SurfaceOptions{Coordinates: field.NewCoordinates(m), Segments: [2]int{3, 2}})
		require.NoError(t, err)
		require.Len(t, s.Normals, 12)
		for i, n := range s.Normals {
			assertVec(t, r3.Vec{Z: -1}, n, 1.e-12, "point %d", i)
		}
	}
	{ // Test a polygon has normals at its centre
		verts := []r3.Vec{{}, {X: 1}, {Y: 1}, {X: -1}, {Y: -1}}
		m, err := mesh.New(verts, [][]int{{0, 1, 2, 3, 4}}, []shape.Shape{shape.NewPolygon(4)})
		require.NoError(t, err)
		s, err := Surface(m.Elements[0], SurfaceOptions{Coordinates: field.NewCoordinates(m), Segments: [2]int{4, 2}})
		require.NoError(t, err)
		assert.Equal(t, 9, s.N1)
		assert.Equal(t, 3, s.N2)
		require.Len(t, s.Points, 27)
		for i := 0; i < 9; i++ {
			assertVec(t, r3.Vec{}, s.Points[i], 1.e-14)
		}
		for i, n := range s.Normals {
			assertVec(t, r3.Vec{Z: -1}, n, 1.e-12, "point %d", i)
		}
	}
	{ // Test tangents follow the texture coordinates
		m, err := mesh.NewStructured(2, [3]int{1, 1}, r3.Vec{}, r3.Vec{X: 2, Y: 1})
		require.NoError(t, err)
		coords := field.NewCoordinates(m)
		s, err := Surface(m.Elements[0], SurfaceOptions{Coordinates: coords, Texture: &field.Xi{Components: 2},
			Segments: [2]int{1, 1}})
		require.NoError(t, err)
		for _, tg := range s.Tangents {
			assertVec(t, r3.Vec{X: 1}, tg, 1.e-14)
		}
		swapped := field.NewFunction("swapped", 2, coords, func(x r3.Vec, time float64) []float64 {
			return []float64{x.Y, x.X / 2}
		})
		s, err = Surface(m.Elements[0], SurfaceOptions{Coordinates: coords, Texture: swapped, Segments: [2]int{1, 1}})
		require.NoError(t, err)
		for _, tg := range s.Tangents {
			assertVec(t, r3.Vec{Y: 1}, tg, 1.e-6)
		}
		singular := field.NewConstant("singular", 0.5, 0.5)
		s, err = Surface(m.Elements[0], SurfaceOptions{Coordinates: coords, Texture: singular, Segments: [2]int{1, 1}})
		require.NoError(t, err)
		assertVec(t, r3.Vec{X: 1}, s.Tangents[0], 1.e-14)
		assertVec(t, r3.Vec{X: 0.5, Y: 0.5}, s.Texture[0], 0)
	}
	{ // Test failure clears caches and returns nothing
		m, err := mesh.NewStructured(2, [3]int{1, 1}, r3.Vec{}, r3.Vec{X: 1, Y: 1})
		require.NoError(t, err)
		coords := field.NewCoordinates(m)
		undefined := field.NewFunction("undefined", 1, coords, func(x r3.Vec, time float64) []float64 {
			if x.Y > 0.5 {
				return nil
			}
			return []float64{1}
		})
		s, err := Surface(m.Elements[0], SurfaceOptions{Coordinates: coords, Data: undefined, Segments: [2]int{2, 2}})
		assert.ErrorIs(t, err, field.ErrFieldEvaluation)
		assert.Nil(t, s)
		assert.False(t, coords.Cached())
		_, err = Surface(m.Elements[0], SurfaceOptions{Coordinates: coords, Segments: [2]int{0, 2}})
		assert.Error(t, err)
	}
}

func TestNurbs(t *testing.T) {
	m, err := mesh.NewStructured(2, [3]int{1, 1}, r3.Vec{}, r3.Vec{X: 1, Y: 1})
	require.NoError(t, err)
	coords := field.NewCoordinates(m)
	{ // Test corners and a bilinear map reproduced
		p, err := Nurbs(m.Elements[0], coords, nil, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 4, p.SOrder)
		assert.Equal(t, []float64{0, 0, 0, 0, 1, 1, 1, 1}, p.SKnots)
		require.Len(t, p.Control, 16)
		assert.Equal(t, [4]float64{0, 0, 0, 1}, p.Control[0])
		assert.InDeltaSlice(t, []float64{1, 1, 0, 1}, p.Control[15][:], 1.e-14)
		assert.InDeltaSlice(t, []float64{1. / 3, 0, 0, 1}, p.Control[1][:], 1.e-14)
		assert.InDeltaSlice(t, []float64{2. / 3, 1, 0, 1}, p.Control[14][:], 1.e-14)
		assert.Nil(t, p.TextureControl)
		assertVec(t, r3.Vec{X: 0.3, Y: 0.7}, p.Evaluate(0.3, 0.7), 1.e-14)
		assert.False(t, coords.Cached())
	}
	{ // Test texture control points
		p, err := Nurbs(m.Elements[0], coords, &field.Xi{Components: 2}, 0, nil)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1. / 3, 1. / 3, 0, 1}, p.TextureControl[5][:], 1.e-14)
	}
	{ // Test a line is rejected
		lm, lc := lineMesh(t, 1, 1)
		_, err := Nurbs(lm.Elements[0], lc, nil, 0, nil)
		assert.Error(t, err)
	}
}

func TestGlyphSet(t *testing.T) {
	m, coords := lineMesh(t, 2, 4)
	var (
		elem   = m.Elements[0]
		points = []types.Xi{types.NewXi(0), types.NewXi(0.5), types.NewXi(1)}
		opts   = GlyphOptions{
			Glyph:         "sphere",
			Coordinates:   coords,
			Orientation:   field.NewConstant("size", 2),
			VariableScale: field.NewConstant("stretch", 3),
			Data:          field.NewConstant("data", 7),
			Label:         field.NewConstant("label", 1, 2.5),
			BaseSize:      r3.Vec{X: 1, Y: 1, Z: 1},
			ScaleFactors:  r3.Vec{X: 0.5, Y: 0.5, Z: 0.5},
			Centre:        r3.Vec{X: 0.5},
		}
	)
	{ // Test scaling, centring and labels
		gs, err := GlyphSetFromElement(elem, points, nil, opts)
		require.NoError(t, err)
		require.Equal(t, 3, gs.Len())
		assert.Equal(t, "sphere", gs.Glyph)
		for i := range points {
			assertVec(t, r3.Vec{X: float64(i) - 3}, gs.Points[i], 1.e-14)
			assertVec(t, r3.Vec{X: 6, Y: 2, Z: 2}, gs.Scales[i], 1.e-14)
			assert.Equal(t, r3.Vec{X: 1}, gs.Axes[0][i])
			assert.Equal(t, "1,2.5", gs.Labels[i])
		}
		assert.Equal(t, []float64{7, 7, 7}, gs.Data)
		assert.Nil(t, gs.Names)
		assert.False(t, coords.Cached())
	}
	{ // Test selection modes
		o := opts
		o.Selected = types.Ranges{{1, 1}}
		o.Select = DrawSelected
		gs, err := GlyphSetFromElement(elem, points, nil, o)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, gs.Names)
		o.Select = DrawUnselected
		gs, err = GlyphSetFromElement(elem, points, nil, o)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}, gs.Names)
		assertVec(t, r3.Vec{X: -1}, gs.Points[1], 1.e-14)
		o.Select = SelectOn
		gs, err = GlyphSetFromElement(elem, points, []int{4, 1, 9}, o)
		require.NoError(t, err)
		assert.Equal(t, []int{4, 1, 9}, gs.Names)
		assert.Equal(t, []bool{false, true, false}, gs.Selected)
		o.ElementSelected = true
		o.Select = DrawUnselected
		gs, err = GlyphSetFromElement(elem, points, nil, o)
		require.NoError(t, err)
		assert.Nil(t, gs)
		o.Select = DrawSelected
		gs, err = GlyphSetFromElement(elem, points, nil, o)
		require.NoError(t, err)
		assert.Equal(t, 3, gs.Len())
		mode, err := ParseSelectMode("draw_unselected")
		require.NoError(t, err)
		assert.Equal(t, DrawUnselected, mode)
	}
	{ // Test nodes
		o := opts
		o.Select = SelectOn
		gs, err := GlyphSetFromNodes(m, o)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, gs.Names)
		assertVec(t, r3.Vec{X: 2 - 3}, gs.Points[1], 1.e-14)
	}
	{ // Test bad input
		o := opts
		o.Orientation = field.NewConstant("five", 1, 2, 3, 4, 5)
		_, err := GlyphSetFromElement(elem, points, nil, o)
		assert.ErrorIs(t, err, ErrInvalidComponentCount)
		_, err = GlyphSetFromElement(elem, points, []int{1}, opts)
		assert.Error(t, err)
	}
}
