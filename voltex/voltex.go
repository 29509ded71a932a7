package voltex

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/blocks"
	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/marching"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

// Logger receives warnings, redirect or silence it with SetOutput
var Logger = log.New(os.Stderr, "voltex: ", log.LstdFlags)

// MaxScalarFields is the most scalar fields combined into one surface: the
// iso field, a clip and the hollow shell
const MaxScalarFields = 3

/*
Texture describes the lattice an isosurface is extracted on. The lattice
spans [0,XiMax] of a block of ceil(XiMax) elements per axis starting at the
seed element, with Dimension cells per axis.
*/
type Texture struct {
	XiMax     types.Xi
	Dimension [3]int
	// MaxCells caps the cells triangulated at once, the lattice is worked
	// through in xi3 slabs of at least one cell layer. 0 is no cap.
	MaxCells int
	Isovalue float64
	// CutIsovalue is the clip field isovalue, a clip function is cut at 0
	CutIsovalue float64
	// Hollow keeps only a shell, s <= 1 - HollowIsovalue*Isovalue
	Hollow         bool
	HollowIsovalue float64
	// Closed caps the surface where it meets the lattice boundary
	Closed bool
}

func (tex Texture) spacing() (h types.Xi) {
	for d := 0; d < 3; d++ {
		h[d] = tex.XiMax[d] / float64(tex.Dimension[d])
	}
	return
}

func (tex Texture) blockSize() (n [3]int) {
	for d := 0; d < 3; d++ {
		n[d] = int(math.Ceil(tex.XiMax[d] - utils.XiTolerance))
		n[d] = max(n[d], 1)
	}
	return
}

// slabLayers is the number of xi3 cell layers triangulated together
func (tex Texture) slabLayers() int {
	perLayer := tex.Dimension[0] * tex.Dimension[1]
	if tex.MaxCells <= 0 || perLayer*tex.Dimension[2] <= tex.MaxCells {
		return tex.Dimension[2]
	}
	return max(tex.MaxCells/perLayer, 1)
}

func (tex Texture) check() error {
	for d := 0; d < 3; d++ {
		if tex.Dimension[d] < 1 {
			return fmt.Errorf("texture needs at least one cell per axis, have %v", tex.Dimension)
		}
		if !(tex.XiMax[d] > 0) {
			return fmt.Errorf("texture xi extent must be positive, have %v", tex.XiMax)
		}
	}
	return nil
}

// ClipFunction is a clip surface in physical space, points where it is not
// negative are kept
type ClipFunction func(p r3.Vec) float64

/*
Fields are evaluated in the block elements. Scalar and Coordinates are
required. A Clip field takes precedence over a ClipFunction. Texture
coordinates replace the cube map. Blur gives the number of smoothing passes
at each vertex from its first component.
*/
type Fields struct {
	Scalar             field.Field
	Coordinates        field.Field
	Data               field.Field
	TextureCoordinates field.Field
	Blur               field.Field
	Clip               field.Field
	ClipFunction       ClipFunction
	Time               float64
}

func (f Fields) all() []field.Field {
	return []field.Field{f.Scalar, f.Coordinates, f.Data, f.TextureCoordinates, f.Blur, f.Clip}
}

func (f Fields) check() (err error) {
	if f.Scalar == nil || f.Scalar.NumberOfComponents() != 1 {
		return fmt.Errorf("voltex needs a single component scalar field")
	}
	if f.Coordinates == nil || f.Coordinates.NumberOfComponents() < 1 || f.Coordinates.NumberOfComponents() > 3 {
		return fmt.Errorf("voltex needs a coordinate field of 1 to 3 components")
	}
	if f.Clip != nil && f.Clip.NumberOfComponents() != 1 {
		return fmt.Errorf("clip field %s must have a single component", f.Clip.Name())
	}
	return
}

// Isosurface is an extracted voltex along with the block it was extracted
// from and the block xi of each vertex
type Isosurface struct {
	Voltex *graphics.Voltex
	Xi     []types.Xi
	Block  *blocks.Block
}

type Extractor struct {
	Engine marching.Engine // nil uses marching.Tetrahedra
}

/*
Extract triangulates the isosurface of the scalar field over the block
started at seed. A block that cannot be filled from the mesh is logged and
reported with an error wrapping blocks.ErrIncompleteBlock alongside the
isosurface, lattice points in missing cells use the nearest element found.
An empty surface gives a nil isosurface.
*/
func (x Extractor) Extract(seed mesh.Element, tex Texture, f Fields) (iso *Isosurface, err error) {
	defer field.ClearAll(f.all()...)
	if seed == nil || seed.Dimension() != 3 {
		err = fmt.Errorf("voltex needs a 3D seed element")
		return
	}
	if err = tex.check(); err != nil {
		return
	}
	if err = f.check(); err != nil {
		return
	}
	var name types.GraphicsName
	if name, err = types.NewGraphicsName(seed.Identifier()); err != nil {
		return
	}
	block, berr := blocks.Resolve(seed, tex.blockSize())
	if berr != nil {
		if !errors.Is(berr, blocks.ErrIncompleteBlock) {
			err = berr
			return
		}
		Logger.Printf("voltex extends beyond elements: %v", berr)
	}
	engine := x.Engine
	if engine == nil {
		engine = marching.Tetrahedra{}
	}
	var (
		s   *marching.Surface
		vol *graphics.Voltex
		xis []types.Xi
	)
	if s, err = triangulate(engine, block, tex, f); err != nil {
		return
	}
	if len(s.Triangles) == 0 {
		err = berr
		return
	}
	if vol, xis, err = buildVoltex(name, block, s, tex, f); err != nil {
		return
	}
	iso = &Isosurface{Voltex: vol, Xi: xis, Block: block}
	err = berr
	return
}

func triangulate(engine marching.Engine, block *blocks.Block, tex Texture, f Fields) (s *marching.Surface, err error) {
	var (
		h      = tex.spacing()
		n      = [3]int{tex.Dimension[0] + 1, tex.Dimension[1] + 1, tex.Dimension[2] + 1}
		layers = tex.slabLayers()
		slabs  []*marching.Surface
	)
	for k0 := 0; k0 < tex.Dimension[2]; k0 += layers {
		var (
			k1     = min(k0+layers, tex.Dimension[2])
			slabN  = [3]int{n[0], n[1], k1 - k0 + 1}
			coords = marching.NewCoordinateGrid(slabN)
			grids  = make([]marching.ScalarGrid, 0, MaxScalarFields)
			isos   = make([]float64, 0, MaxScalarFields)
			slab   *marching.Surface
		)
		for p := range coords.Points {
			i, j, k := p%slabN[0], (p/slabN[0])%slabN[1], p/(slabN[0]*slabN[1])
			coords.Points[p] = r3.Vec{X: h[0] * float64(i), Y: h[1] * float64(j), Z: h[2] * float64(k+k0)}
		}
		lattice := append([]r3.Vec(nil), coords.Points...)
		if _, err = InterpolateVectorField(block, f.Coordinates, coords.Points, f.Time); err != nil {
			return
		}
		var scalar marching.ScalarGrid
		if scalar, err = sample(block, f.Scalar, lattice, slabN, f.Time); err != nil {
			return
		}
		grids, isos = append(grids, scalar), append(isos, tex.Isovalue)
		switch {
		case f.Clip != nil:
			var clip marching.ScalarGrid
			if clip, err = sample(block, f.Clip, lattice, slabN, f.Time); err != nil {
				return
			}
			grids, isos = append(grids, clip), append(isos, tex.CutIsovalue)
		case f.ClipFunction != nil:
			clip := marching.NewScalarGrid(slabN)
			for p, pos := range coords.Points {
				clip.Values[p] = f.ClipFunction(pos)
			}
			grids, isos = append(grids, clip), append(isos, 0)
		}
		if tex.Hollow {
			shell := marching.NewScalarGrid(slabN)
			for p, v := range scalar.Values {
				shell.Values[p] = 1 - v
			}
			grids, isos = append(grids, shell), append(isos, tex.HollowIsovalue*tex.Isovalue)
		}
		opts := marching.Options{
			Closed:     tex.Closed,
			Spacing:    h,
			NodeOffset: [3]int{0, 0, k0},
			GlobalN:    n,
		}
		if slab, err = engine.Triangulate(grids, isos, coords, opts); err != nil {
			return
		}
		slabs = append(slabs, slab)
	}
	s = marching.Weld(slabs...)
	return
}

// sample evaluates the first component of a field at lattice points in
// block xi
func sample(block *blocks.Block, f field.Field, lattice []r3.Vec, n [3]int, time float64) (g marching.ScalarGrid, err error) {
	g = marching.NewScalarGrid(n)
	for p, xi := range lattice {
		elem, local, ok := block.Locate(types.NewXi(xi.X, xi.Y, xi.Z))
		if !ok {
			err = fmt.Errorf("no element in block for xi %v", xi)
			return
		}
		var v []float64
		if v, err = f.Evaluate(elem, local, time, nil); err != nil {
			return
		}
		g.Values[p] = v[0]
	}
	return
}

/*
InterpolateVectorField replaces each lattice point, given in block xi, by the
vector field evaluated there, up to three components. Points outside
[0,N] of the block are left untouched. moved counts the points replaced.
*/
func InterpolateVectorField(block *blocks.Block, vf field.Field, lattice []r3.Vec, time float64) (moved int, err error) {
	for p, x := range lattice {
		xi := types.NewXi(x.X, x.Y, x.Z)
		if !insideBlock(block, xi) {
			continue
		}
		elem, local, ok := block.Locate(xi)
		if !ok {
			continue
		}
		var v []float64
		if v, err = vf.Evaluate(elem, local, time, nil); err != nil {
			return
		}
		lattice[p] = utils.Vec(v[:min(len(v), 3)]...)
		moved++
	}
	return
}

func insideBlock(block *blocks.Block, xi types.Xi) bool {
	for d := 0; d < 3; d++ {
		if xi[d] < -utils.XiTolerance || xi[d] > float64(block.N[d])+utils.XiTolerance {
			return false
		}
	}
	return true
}

func buildVoltex(name types.GraphicsName, block *blocks.Block, s *marching.Surface, tex Texture,
	f Fields) (v *graphics.Voltex, xis []types.Xi, err error) {
	var (
		nv     = len(s.Vertices)
		blur   = make([]int, nv)
		cop    = tex.XiMax.Scale(0.5)
		blurry bool
	)
	v = &graphics.Voltex{
		GraphicsName:    name,
		Vertices:        make([]graphics.VoltexVertex, nv),
		Triangles:       make([][3]int, len(s.Triangles)),
		TriangleTexture: make([][3]r3.Vec, len(s.Triangles)),
	}
	if f.Data != nil {
		v.DataComponents = f.Data.NumberOfComponents()
	}
	xis = make([]types.Xi, nv)
	for i, mv := range s.Vertices {
		xis[i] = mv.Xi
		elem, local, ok := block.Locate(mv.Xi)
		if !ok {
			err = fmt.Errorf("no element in block for vertex xi %v", mv.Xi)
			return
		}
		var (
			vv  = &v.Vertices[i]
			val []float64
		)
		if val, err = f.Coordinates.Evaluate(elem, local, f.Time, nil); err != nil {
			return
		}
		vv.Position = utils.Vec(val...)
		if f.Data != nil {
			if vv.Data, err = f.Data.Evaluate(elem, local, f.Time, nil); err != nil {
				return
			}
		}
		if f.TextureCoordinates != nil {
			if val, err = f.TextureCoordinates.Evaluate(elem, local, f.Time, nil); err != nil {
				return
			}
			vv.Texture = utils.Vec(val[:min(len(val), 3)]...)
		}
		if f.Blur != nil && !onSideBoundary(mv.Xi, tex.XiMax) {
			if val, err = f.Blur.Evaluate(elem, local, f.Time, nil); err != nil {
				return
			}
			if blur[i] = int(val[0]); blur[i] > 0 {
				blurry = true
			}
		}
	}
	for t, tri := range s.Triangles {
		v.Triangles[t] = tri.V
		for c, vi := range tri.V {
			if f.TextureCoordinates != nil {
				v.TriangleTexture[t][c] = v.Vertices[vi].Texture
			} else {
				v.TriangleTexture[t][c], _ = CubeMap(s.Vertices[vi].Xi, cop, tex.XiMax, tri.Face)
			}
		}
	}
	if blurry {
		Blur(v, blur)
	}
	Normals(v)
	return
}

// onSideBoundary is true on the xi1 and xi2 boundary planes of the lattice,
// vertices there are never blurred
func onSideBoundary(xi, ximax types.Xi) bool {
	for d := 0; d < 2; d++ {
		if math.Abs(xi[d]) < utils.XiTolerance || math.Abs(xi[d]-ximax[d]) < utils.XiTolerance {
			return true
		}
	}
	return false
}
