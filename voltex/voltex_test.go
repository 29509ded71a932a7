package voltex

import (
	"bytes"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/blocks"
	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/statistics"
	"github.com/notargets/fegraphics/types"
)

var centre = r3.Vec{X: 1, Y: 1, Z: 1}

// cubeMesh is 2x2x2 unit cubes over [0,2]^3, so block xi equals position
func cubeMesh(t *testing.T) (m *mesh.Mesh, coords *field.Nodal) {
	m, err := mesh.NewStructured(3, [3]int{2, 2, 2}, r3.Vec{}, r3.Vec{X: 2, Y: 2, Z: 2})
	require.NoError(t, err)
	return m, field.NewCoordinates(m)
}

func ball(coords field.Field, value func(r2 float64) float64) field.Field {
	return field.NewFunction("ball", 1, coords, func(x r3.Vec, time float64) []float64 {
		return []float64{value(r3.Norm2(r3.Sub(x, centre)))}
	})
}

func radius(p r3.Vec) float64 { return r3.Norm(r3.Sub(p, centre)) }

func TestExtract(t *testing.T) {
	m, coords := cubeMesh(t)
	seed := m.Elements[0]
	sphere := ball(coords, func(r2 float64) float64 { return -r2 })
	tex := Texture{
		XiMax:     types.NewXi(2, 2, 2),
		Dimension: [3]int{8, 8, 8},
		Isovalue:  -0.7 * 0.7,
	}
	{ // Test a sphere has outward normals and cube mapped texture
		iso, err := Extractor{}.Extract(seed, tex, Fields{
			Scalar:      sphere,
			Coordinates: coords,
			Data:        field.NewConstant("temperature", 3.5),
		})
		require.NoError(t, err)
		require.NotNil(t, iso)
		v := iso.Voltex
		assert.Equal(t, types.GraphicsName(1), v.GraphicsName)
		assert.Equal(t, graphics.VoltexKind, v.Kind())
		assert.Equal(t, len(v.Vertices), len(iso.Xi))
		assert.Equal(t, 1, v.DataComponents)
		require.NotEmpty(t, v.Triangles)
		for i, vv := range v.Vertices {
			assert.InDelta(t, 0.7, radius(vv.Position), 0.03)
			assert.InDelta(t, iso.Xi[i][0], vv.Position.X, 1e-12)
			assert.InDelta(t, 1, r3.Norm(vv.Normal), 1e-12)
			assert.Greater(t, r3.Dot(vv.Normal, r3.Sub(vv.Position, centre)), 0.)
			assert.Equal(t, []float64{3.5}, vv.Data)
		}
		for _, tt := range v.TriangleTexture {
			for _, tc := range tt {
				assert.True(t, tc.X >= 0 && tc.X <= 1 && tc.Y >= 0 && tc.Y <= 1, "texture %v", tc)
				assert.Zero(t, tc.Z)
			}
		}
		assert.False(t, coords.Cached())
		{ // Test slabs capped by MaxCells give the same surface
			slabbed := tex
			slabbed.MaxCells = 8 * 8 * 3
			assert.Equal(t, 3, slabbed.slabLayers())
			iso2, err := Extractor{Engine: nil}.Extract(seed, slabbed, Fields{Scalar: sphere, Coordinates: coords})
			require.NoError(t, err)
			assert.Equal(t, len(v.Vertices), len(iso2.Voltex.Vertices))
			assert.Equal(t, len(v.Triangles), len(iso2.Voltex.Triangles))
			tiny := tex
			tiny.MaxCells = 5
			assert.Equal(t, 1, tiny.slabLayers())
		}
		{ // Test texture coordinates from a field replace the cube map
			iso3, err := Extractor{}.Extract(seed, tex, Fields{Scalar: sphere, Coordinates: coords,
				TextureCoordinates: &field.Xi{Components: 2}})
			require.NoError(t, err)
			v3 := iso3.Voltex
			for ti, tri := range v3.Triangles {
				for c, vi := range tri {
					assert.Equal(t, v3.Vertices[vi].Texture, v3.TriangleTexture[ti][c])
				}
			}
			_, local, _ := iso3.Block.Locate(iso3.Xi[0])
			assert.InDelta(t, local[0], v3.Vertices[0].Texture.X, 1e-12)
			assert.Zero(t, v3.Vertices[0].Texture.Z)
		}
		{ // Test blur pulls the surface in
			blurred, err := Extractor{}.Extract(seed, tex, Fields{Scalar: sphere, Coordinates: coords,
				Blur: field.NewConstant("blur", 2)})
			require.NoError(t, err)
			var before, after float64
			for i := range v.Vertices {
				before += radius(v.Vertices[i].Position)
				after += radius(blurred.Voltex.Vertices[i].Position)
			}
			assert.Less(t, after, before)
		}
	}
	{ // Test a closed surface is capped by the lattice boundary
		slab := field.NewFunction("x", 1, coords, func(x r3.Vec, time float64) []float64 {
			return []float64{x.X}
		})
		closed := tex
		closed.Isovalue, closed.Closed = 1.1, true
		iso, err := Extractor{}.Extract(seed, closed, Fields{Scalar: slab, Coordinates: coords})
		require.NoError(t, err)
		v := iso.Voltex
		var total, inner float64
		tris := v.TriangleList()
		for ti, tri := range tris {
			a := r3.Norm(tri.Cross()) / 2
			total += a
			if math.Abs(tri.V[0].X-1.1) < 1e-12 && math.Abs(tri.V[1].X-1.1) < 1e-12 &&
				math.Abs(tri.V[2].X-1.1) < 1e-12 {
				inner += a
			}
			if tri.Cross().X < 0 && tri.Normal().X < -0.999 {
				// on the xi1=max cap, forced onto the xi1 high cube face
				for c, p := range tri.V {
					assert.InDelta(t, 1-p.Z/2, v.TriangleTexture[ti][c].X, 1e-12)
					assert.InDelta(t, p.Y/2, v.TriangleTexture[ti][c].Y, 1e-12)
				}
			}
		}
		assert.InDelta(t, 15.2, total, 1e-9)
		assert.InDelta(t, 4, inner, 1e-9)
		var found bool
		for _, vv := range v.Vertices {
			p := vv.Position
			if math.Abs(p.X-2) < 1e-12 && p.Y > 0.1 && p.Y < 1.9 && p.Z > 0.1 && p.Z < 1.9 {
				found = true
				assert.InDelta(t, 1, vv.Normal.X, 1e-12)
			}
		}
		assert.True(t, found)
		{ // Test slabs of a closed surface are only capped on the lattice boundary
			slabbed := closed
			slabbed.MaxCells = 8 * 8 * 3
			iso2, err := Extractor{}.Extract(seed, slabbed, Fields{Scalar: slab, Coordinates: coords})
			require.NoError(t, err)
			v2 := iso2.Voltex
			assert.Equal(t, len(v.Vertices), len(v2.Vertices))
			assert.Equal(t, len(v.Triangles), len(v2.Triangles))
			var area float64
			for _, tri := range v2.TriangleList() {
				area += r3.Norm(tri.Cross()) / 2
			}
			assert.InDelta(t, total, area, 1e-9)
		}
	}
	{ // Test a clip function keeps the part of the sphere above z=1
		iso, err := Extractor{}.Extract(seed, tex, Fields{Scalar: sphere, Coordinates: coords,
			ClipFunction: func(p r3.Vec) float64 { return p.Z - 1 }})
		require.NoError(t, err)
		var onPlane, top bool
		for _, vv := range iso.Voltex.Vertices {
			assert.GreaterOrEqual(t, vv.Position.Z, 1-1e-12)
			onPlane = onPlane || math.Abs(vv.Position.Z-1) < 1e-12
			top = top || vv.Position.Z > 1.6
		}
		assert.True(t, onPlane)
		assert.True(t, top)
		{ // Test a clip field takes precedence over the function
			cut := tex
			cut.CutIsovalue = 1.5
			height := field.NewFunction("z", 1, coords, func(x r3.Vec, time float64) []float64 {
				return []float64{x.Z}
			})
			iso2, err := Extractor{}.Extract(seed, cut, Fields{Scalar: sphere, Coordinates: coords,
				Clip: height, ClipFunction: func(p r3.Vec) float64 { return -1 }})
			require.NoError(t, err)
			for _, vv := range iso2.Voltex.Vertices {
				assert.GreaterOrEqual(t, vv.Position.Z, 1.5-1e-12)
			}
		}
	}
	{ // Test a hollow sphere has an outer and an inner wall facing away from the material
		hollow := tex
		hollow.Dimension = [3]int{16, 16, 16}
		hollow.Isovalue = 1 - 0.8*0.8
		hollow.Hollow, hollow.HollowIsovalue = true, 0.5
		inner := math.Sqrt(0.5 * hollow.Isovalue)
		iso, err := Extractor{}.Extract(seed, hollow, Fields{
			Scalar:      ball(coords, func(r2 float64) float64 { return 1 - r2 }),
			Coordinates: coords,
		})
		require.NoError(t, err)
		var nOuter, nInner int
		for _, vv := range iso.Voltex.Vertices {
			var (
				r   = radius(vv.Position)
				out = r3.Dot(vv.Normal, r3.Sub(vv.Position, centre))
			)
			switch {
			case math.Abs(r-0.8) < 0.03:
				nOuter++
				assert.Greater(t, out, 0.)
			case math.Abs(r-inner) < 0.03:
				nInner++
				assert.Less(t, out, 0.)
			default:
				assert.Fail(t, "vertex off both walls", "radius %g", r)
			}
		}
		assert.NotZero(t, nOuter)
		assert.NotZero(t, nInner)
	}
	{ // Test an isosurface beyond the mesh is produced with a warning
		var buf bytes.Buffer
		Logger.SetOutput(&buf)
		defer Logger.SetOutput(os.Stderr)
		wide := tex
		wide.XiMax = types.NewXi(2.5, 2, 2)
		iso, err := Extractor{}.Extract(seed, wide, Fields{Scalar: sphere, Coordinates: coords})
		assert.ErrorIs(t, err, blocks.ErrIncompleteBlock)
		require.NotNil(t, iso)
		assert.NotEmpty(t, iso.Voltex.Triangles)
		assert.Contains(t, buf.String(), "voltex extends beyond elements")
	}
	{ // Test an empty surface and bad input
		iso, err := Extractor{}.Extract(seed, tex, Fields{Scalar: field.NewConstant("low", -1), Coordinates: coords})
		assert.NoError(t, err)
		assert.Nil(t, iso)
		_, err = Extractor{}.Extract(seed, Texture{XiMax: types.NewXi(1, 1, 1)}, Fields{Scalar: sphere, Coordinates: coords})
		assert.Error(t, err)
		_, err = Extractor{}.Extract(seed, tex, Fields{Scalar: coords, Coordinates: coords})
		assert.Error(t, err)
		_, err = Extractor{}.Extract(seed, tex, Fields{Scalar: sphere})
		assert.Error(t, err)
		square, err := mesh.NewStructured(2, [3]int{1, 1}, r3.Vec{}, r3.Vec{X: 1, Y: 1})
		require.NoError(t, err)
		_, err = Extractor{}.Extract(square.Elements[0], tex, Fields{Scalar: sphere, Coordinates: coords})
		assert.Error(t, err)
	}
}

func TestCubeMap(t *testing.T) {
	var (
		size = types.NewXi(2, 2, 2)
		cop  = types.NewXi(1, 1, 1)
	)
	{ // Test a point straight below the centre lands on the xi3 low face
		tex, env := CubeMap(types.NewXi(1, 1, 0), cop, size, 0)
		assert.Equal(t, EnvXi3Low, env)
		assert.InDelta(t, 0.5, tex.X, 1e-15)
		assert.InDelta(t, 0.5, tex.Y, 1e-15)
	}
	{ // Test the xi1 high face flips u
		tex, env := CubeMap(types.NewXi(1.5, 1.2, 1.4), cop, size, 0)
		assert.Equal(t, EnvXi1High, env)
		assert.InDelta(t, 0.1, tex.X, 1e-12)
		assert.InDelta(t, 0.7, tex.Y, 1e-12)
	}
	{ // Test extents below one are treated as one
		tex, env := CubeMap(types.NewXi(0.5, 0.5, 0.9), types.NewXi(0.5, 0.5, 0.5), types.NewXi(0.5, 0.5, 0.5), 0)
		assert.Equal(t, EnvXi3High, env)
		assert.InDelta(t, 0.5, tex.X, 1e-12)
		assert.InDelta(t, 0.5, tex.Y, 1e-12)
	}
	{ // Test grid faces force the projection
		tex, env := CubeMap(types.NewXi(2, 0.5, 1.5), cop, size, 2)
		assert.Equal(t, EnvXi1High, env)
		assert.InDelta(t, 0.25, tex.X, 1e-12)
		assert.InDelta(t, 0.25, tex.Y, 1e-12)
		tex, env = CubeMap(types.NewXi(0.5, 1.5, 0), cop, size, 5)
		assert.Equal(t, EnvXi3Low, env)
		assert.InDelta(t, 0.75, tex.X, 1e-12)
		assert.InDelta(t, 0.75, tex.Y, 1e-12)
		tex, env = CubeMap(types.NewXi(0.5, 2, 0.5), cop, size, 4)
		assert.Equal(t, EnvXi2High, env)
		assert.InDelta(t, 0.25, tex.X, 1e-12)
		assert.InDelta(t, 0.75, tex.Y, 1e-12)
	}
}

func TestSmoothing(t *testing.T) {
	{ // Test normals are the negated triangle normal, unused vertices get (1,0,0)
		v := &graphics.Voltex{
			Vertices: []graphics.VoltexVertex{
				{Position: r3.Vec{}}, {Position: r3.Vec{X: 1}}, {Position: r3.Vec{Y: 1}}, {Position: r3.Vec{Z: 5}},
			},
			Triangles: [][3]int{{0, 1, 2}},
		}
		Normals(v)
		for i := 0; i < 3; i++ {
			assert.Equal(t, r3.Vec{Z: -1}, v.Vertices[i].Normal)
		}
		assert.Equal(t, r3.Vec{X: 1}, v.Vertices[3].Normal)
		empty := &graphics.Voltex{Vertices: []graphics.VoltexVertex{{}}}
		Normals(empty)
		assert.Equal(t, r3.Vec{X: 1}, empty.Vertices[0].Normal)
	}
	{ // Test blur moves counted vertices to their neighbours' average
		v := &graphics.Voltex{
			Vertices: []graphics.VoltexVertex{
				{Position: r3.Vec{X: 0.2, Y: 0.1, Z: 1}},
				{Position: r3.Vec{X: -1, Y: -1}}, {Position: r3.Vec{X: 1, Y: -1}},
				{Position: r3.Vec{X: 1, Y: 1}}, {Position: r3.Vec{X: -1, Y: 1}},
			},
			Triangles: [][3]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}, {0, 4, 1}},
		}
		Blur(v, []int{1})
		assert.InDelta(t, 0, r3.Norm(v.Vertices[0].Position), 1e-15)
		assert.Equal(t, r3.Vec{X: -1, Y: -1}, v.Vertices[1].Position)
		// corner 1 sees the moved centre and corners 2 and 4
		Blur(v, []int{0, 1})
		assert.InDelta(t, 0, v.Vertices[1].Position.X, 1e-15)
		assert.InDelta(t, 0, v.Vertices[1].Position.Y, 1e-15)
	}
	{ // Test a count of n moves a vertex n times
		v := &graphics.Voltex{
			Vertices: []graphics.VoltexVertex{
				{Position: r3.Vec{X: 4}}, {Position: r3.Vec{}}, {Position: r3.Vec{Y: 3}},
			},
			Triangles: [][3]int{{0, 1, 2}},
		}
		Blur(v, []int{0, 2, 0})
		// first pass (4+0)/2, (0+3)/2 then again with the same neighbours
		assert.Equal(t, r3.Vec{X: 2, Y: 1.5}, v.Vertices[1].Position)
	}
}

func TestInterpolateVectorField(t *testing.T) {
	m, err := mesh.NewStructured(3, [3]int{2, 2, 2}, r3.Vec{}, r3.Vec{X: 4, Y: 2, Z: 2})
	require.NoError(t, err)
	block, err := blocks.Resolve(m.Elements[0], [3]int{2, 2, 2})
	require.NoError(t, err)
	lattice := []r3.Vec{{X: 0.5, Y: 0.5, Z: 0.5}, {X: 2, Y: 2, Z: 2}, {X: -1}, {X: 2.5}}
	moved, err := InterpolateVectorField(block, field.NewCoordinates(m), lattice, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.InDelta(t, 1, lattice[0].X, 1e-14)
	assert.InDelta(t, 0.5, lattice[0].Y, 1e-14)
	assert.InDelta(t, 4, lattice[1].X, 1e-14)
	assert.Equal(t, r3.Vec{X: -1}, lattice[2])
	assert.Equal(t, r3.Vec{X: 2.5}, lattice[3])
}

func TestReseedSurfacePoints(t *testing.T) {
	m, coords := cubeMesh(t)
	tex := Texture{XiMax: types.NewXi(2, 2, 2), Dimension: [3]int{8, 8, 8}, Isovalue: -0.7 * 0.7}
	iso, err := Extractor{}.Extract(m.Elements[0], tex, Fields{
		Scalar:      ball(coords, func(r2 float64) float64 { return -r2 }),
		Coordinates: coords,
	})
	require.NoError(t, err)
	{ // Test the point count follows area times density
		var area float64
		for _, tri := range iso.Voltex.TriangleList() {
			area += r3.Norm(tri.Cross()) / 2
		}
		points, err := ReseedSurfacePoints(iso, coords, field.NewConstant("density", 50), 0, statistics.NewElementRand(1))
		require.NoError(t, err)
		mean := 50 * area
		assert.InDelta(t, mean, float64(len(points)), 5*math.Sqrt(mean))
		for _, p := range points {
			assert.InDelta(t, 0.7, radius(p.Position), 0.05)
			require.NotNil(t, p.Element)
			for d := 0; d < 3; d++ {
				assert.True(t, p.Xi[d] >= 0 && p.Xi[d] <= 1, "local xi %v", p.Xi)
			}
		}
		again, err := ReseedSurfacePoints(iso, coords, field.NewConstant("density", 50), 0, statistics.NewElementRand(1))
		require.NoError(t, err)
		assert.Equal(t, points, again)
	}
	{ // Test negative density and missing input fail
		_, err := ReseedSurfacePoints(iso, coords, field.NewConstant("density", -1), 0, statistics.NewElementRand(1))
		assert.ErrorIs(t, err, statistics.ErrNegativeMean)
		_, err = ReseedSurfacePoints(nil, coords, field.NewConstant("density", 1), 0, statistics.NewElementRand(1))
		assert.Error(t, err)
		_, err = ReseedSurfacePoints(iso, coords, field.NewConstant("density", 1, 2, 3, 4, 5), 0, statistics.NewElementRand(1))
		assert.Error(t, err)
	}
}
