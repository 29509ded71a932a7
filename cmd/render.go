/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"

	ip "github.com/notargets/fegraphics/InputParameters"
	"github.com/notargets/fegraphics/blocks"
	"github.com/notargets/fegraphics/discretization"
	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/readfiles"
	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/statistics"
	"github.com/notargets/fegraphics/tessellate"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
	"github.com/notargets/fegraphics/voltex"
)

type RenderModel struct {
	ICFile     string
	OutputFile string
	Parallel   int
}

// RenderCmd represents the render command
var RenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Tessellate a structured mesh into graphics primitives",
	Long: `
Builds a structured mesh, tessellates every element into the primitive named
in the input parameters file and writes the triangulated result as OBJ or STL.

fegraphics render -I sphere.yaml -o sphere.obj`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			rm  = &RenderModel{}
			err error
		)
		fmt.Println("render called")
		rm.ICFile, _ = cmd.Flags().GetString("inputParametersFile")
		rm.OutputFile, _ = cmd.Flags().GetString("output")
		rm.Parallel = viper.GetInt("parallel")
		rp := processRenderInput(rm)
		rp.Print()
		var r *Render
		if r, err = NewRender(rp, rm.Parallel); err != nil {
			exitOnError(err)
		}
		c := graphics.NewCollection()
		if err = r.Run(c); err != nil {
			exitOnError(err)
		}
		PrintSummary(c)
		if len(rm.OutputFile) != 0 {
			if err = WriteOutput(rm.OutputFile, c); err != nil {
				exitOnError(err)
			}
		}
	},
}

func processRenderInput(rm *RenderModel) (rp *ip.RenderParameters) {
	var (
		err  error
		data []byte
	)
	if len(rm.ICFile) == 0 {
		fmt.Printf("error: must supply an input parameters file (-I, --inputParametersFile)\n")
		exampleFile := `
########################################
Title: "Sphere"
Dimension: 3
Elements: [2, 2, 2]
Min: [0, 0, 0]
Max: [2, 2, 2]
Primitive: voltex # xi, polyline, cylinder, surface, nurbs, glyphs
Field:
  Function: radius
  Centre: [1, 1, 1]
  Scale: -1
Voltex:
  Lattice: [16, 16, 16]
  Isovalue: -0.7
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	if data, err = os.ReadFile(rm.ICFile); err != nil {
		exitOnError(err)
	}
	rp = &ip.RenderParameters{}
	if err = rp.Parse(data); err != nil {
		exitOnError(err)
	}
	return
}

func init() {
	rootCmd.AddCommand(RenderCmd)
	RenderCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file of render parameters")
	RenderCmd.Flags().StringP("output", "o", "", "triangulated output file, .obj or .stl")
	RenderCmd.Flags().IntP("parallel", "p", runtime.NumCPU(), "number of elements tessellated concurrently")
	_ = viper.BindPFlag("parallel", RenderCmd.Flags().Lookup("parallel"))
}

// Render tessellates every element of a structured mesh
type Render struct {
	Params   *ip.RenderParameters
	Mesh     *mesh.Mesh
	Parallel int
}

func NewRender(rp *ip.RenderParameters, parallel int) (r *Render, err error) {
	if err = rp.Check(); err != nil {
		return
	}
	r = &Render{Params: rp, Parallel: parallel}
	if len(rp.MeshFile) != 0 {
		var g *readfiles.Gmsh
		if g, err = readfiles.ReadMeshFile(rp.MeshFile); err != nil {
			return
		}
		if g.Mesh.Dimension != rp.Dimension {
			err = fmt.Errorf("mesh file %s is %dD, parameters are %dD", rp.MeshFile, g.Mesh.Dimension, rp.Dimension)
			return
		}
		if rp.Primitive == ip.Voltex {
			if err = checkVoltexMesh(g.Mesh, rp); err != nil {
				return
			}
		}
		r.Mesh = g.Mesh
		g.Mesh.PrintStatistics()
	} else if r.Mesh, err = mesh.NewStructured(rp.Dimension, rp.Elements, utils.Vec(rp.Min[:]...),
		utils.Vec(rp.Max[:]...)); err != nil {
		return
	}
	for i := range rp.Segments {
		if rp.Segments[i] < 1 {
			rp.Segments[i] = 4
		}
	}
	if rp.Cylinder.SegmentsAround < 2 {
		rp.Cylinder.SegmentsAround = 8
	}
	for d := 0; d < rp.Dimension; d++ {
		if rp.Sample.NumberInXi[d] < 1 {
			rp.Sample.NumberInXi[d] = 1
		}
		if rp.Voltex.Lattice[d] < 1 {
			rp.Voltex.Lattice[d] = 4 * rp.Elements[d]
		}
	}
	if len(rp.Sample.Mode) == 0 {
		rp.Sample.Mode = discretization.CellCentres.String()
	}
	if len(rp.Glyph.Glyph) == 0 {
		rp.Glyph.Glyph = "point"
	}
	return
}

// checkVoltexMesh requires a mesh file used for an isosurface to hold a
// Elements[0] x Elements[1] x Elements[2] block of hexahedra
func checkVoltexMesh(m *mesh.Mesh, rp *ip.RenderParameters) error {
	for _, e := range m.Elements {
		if c := e.Topology().Category; c != shape.Cube3D {
			return fmt.Errorf("voltex needs a hexahedral mesh, %s has %s element %d",
				rp.MeshFile, c, e.Identifier().Number)
		}
	}
	if n := rp.Elements[0] * rp.Elements[1] * rp.Elements[2]; n != len(m.Elements) {
		return fmt.Errorf("voltex Elements %v hold %d hexahedra, %s has %d",
			rp.Elements, n, rp.MeshFile, len(m.Elements))
	}
	return nil
}

// AnalyticField builds the scalar field named by fp over coords, nil when no
// function is named
func AnalyticField(fp ip.FieldParameters, coords field.Field) field.Field {
	var (
		scale  = fp.Scale
		centre = utils.Vec(fp.Centre[:]...)
		f      field.SpatialFunc
	)
	if scale == 0 {
		scale = 1
	}
	switch strings.ToLower(fp.Function) {
	case ip.FieldRadius:
		f = func(x r3.Vec, time float64) []float64 {
			return []float64{scale * r3.Norm(r3.Sub(x, centre))}
		}
	case ip.FieldX:
		f = func(x r3.Vec, time float64) []float64 { return []float64{scale * (x.X - centre.X)} }
	case ip.FieldY:
		f = func(x r3.Vec, time float64) []float64 { return []float64{scale * (x.Y - centre.Y)} }
	case ip.FieldZ:
		f = func(x r3.Vec, time float64) []float64 { return []float64{scale * (x.Z - centre.Z)} }
	default:
		return nil
	}
	return field.NewFunction(fp.Function, 1, coords, f)
}

type renderFields struct {
	coords *field.Nodal
	scalar field.Field
}

func (r *Render) fields() (rf renderFields) {
	rf.coords = field.NewCoordinates(r.Mesh)
	rf.scalar = AnalyticField(r.Params.Field, rf.coords)
	return
}

/*
Run adds the primitives of every element to sink. Elements are split into
contiguous buckets, one goroutine per bucket, each bucket with its own fields
and each element with a generator seeded from its number. Isosurfaces are
extracted once from the block seeded at the first element.
*/
func (r *Render) Run(sink graphics.Sink) (err error) {
	if r.Params.Primitive == ip.Voltex {
		return r.voltex(sink, r.fields())
	}
	var (
		elems = r.Mesh.Elements
		pm    = utils.NewPartitionMap(r.Parallel, len(elems))
		rf    = make([]renderFields, pm.ParallelDegree)
		errs  = make([]error, len(elems))
	)
	for bn := range rf {
		rf[bn] = r.fields()
	}
	pm.Run(func(bn, k int) {
		errs[k] = r.element(elems[k], rf[bn], sink)
	})
	for k, e := range errs {
		if e != nil {
			bn, kMin, kMax := pm.GetBucket(k)
			errs[k] = fmt.Errorf("element %d, bucket %d [%d,%d) of %d elements: %w",
				elems[k].Identifier().Number, bn, kMin, kMax, pm.GetBucketDimension(bn), e)
		}
	}
	return errors.Join(errs...)
}

func (r *Render) element(elem *mesh.Elem, rf renderFields, sink graphics.Sink) (err error) {
	var (
		rp   = r.Params
		rng  = statistics.NewElementRand(elem.Identifier().Number)
		data = rf.scalar
	)
	switch rp.Primitive {
	case ip.XiPoints, ip.Glyphs:
		var (
			mode discretization.Mode
			xi   []types.Xi
			gs   *graphics.GlyphSet
			opts tessellate.GlyphOptions
		)
		if mode, err = discretization.ParseMode(rp.Sample.Mode); err != nil {
			return
		}
		s := &discretization.Sampler{
			Element:     elem,
			Mode:        mode,
			NumberInXi:  rp.Sample.NumberInXi,
			Exact:       types.NewXi(rp.Sample.Exact[:]...),
			Coordinates: rf.coords,
			Density:     field.NewConstant("density", rp.Sample.Density),
			Time:        rp.Time,
		}
		if xi, err = s.Generate(rng); err != nil {
			return
		}
		if opts, err = r.glyphOptions(rf.coords, data); err != nil {
			return
		}
		if gs, err = tessellate.GlyphSetFromElement(elem, xi, nil, opts); err != nil || gs == nil {
			return
		}
		return sink.Add(gs)
	case ip.Polyline:
		var pl *graphics.Polyline
		if pl, err = tessellate.Polyline(elem, rf.coords, data, rp.Segments[0], rp.Time, nil); err != nil {
			return
		}
		return sink.Add(pl)
	case ip.Cylinder:
		var surf *graphics.Surface
		if surf, err = tessellate.Cylinder(elem, tessellate.CylinderOptions{
			Coordinates:    rf.coords,
			Radius:         rf.scalar,
			Data:           data,
			ConstantRadius: rp.Cylinder.Radius,
			ScaleFactor:    rp.Cylinder.ScaleFactor,
			SegmentsAlong:  rp.Segments[0],
			SegmentsAround: rp.Cylinder.SegmentsAround,
			Time:           rp.Time,
		}); err != nil {
			return
		}
		return sink.Add(surf)
	case ip.Surface:
		var surf *graphics.Surface
		if surf, err = tessellate.Surface(elem, tessellate.SurfaceOptions{
			Coordinates:    rf.coords,
			Data:           data,
			Segments:       rp.Segments,
			ReverseNormals: rp.Reverse,
			Time:           rp.Time,
		}); err != nil {
			return
		}
		return sink.Add(surf)
	case ip.Nurbs:
		var patch *graphics.Nurbs
		if patch, err = tessellate.Nurbs(elem, rf.coords, nil, rp.Time, nil); err != nil {
			return
		}
		return sink.Add(patch)
	}
	return fmt.Errorf("unable to render %q per element", rp.Primitive)
}

func (r *Render) glyphOptions(coords, data field.Field) (opts tessellate.GlyphOptions, err error) {
	gp := r.Params.Glyph
	opts = tessellate.GlyphOptions{
		Glyph:        gp.Glyph,
		Coordinates:  coords,
		Data:         data,
		BaseSize:     utils.Vec(gp.BaseSize[:]...),
		ScaleFactors: utils.Vec(gp.ScaleFactors[:]...),
		Centre:       utils.Vec(gp.Centre[:]...),
		Time:         r.Params.Time,
	}
	if len(gp.Select) != 0 {
		if opts.Select, err = tessellate.ParseSelectMode(gp.Select); err != nil {
			return
		}
	}
	for _, n := range gp.Selected {
		opts.Selected = opts.Selected.Add(n, n)
	}
	return
}

func (r *Render) voltex(sink graphics.Sink, rf renderFields) (err error) {
	var (
		rp  = r.Params
		vp  = rp.Voltex
		tex = voltex.Texture{
			XiMax:          types.NewXi(float64(rp.Elements[0]), float64(rp.Elements[1]), float64(rp.Elements[2])),
			Dimension:      vp.Lattice,
			MaxCells:       vp.MaxCells,
			Isovalue:       vp.Isovalue,
			Hollow:         vp.Hollow,
			HollowIsovalue: vp.HollowIsovalue,
			Closed:         vp.Closed,
		}
		f = voltex.Fields{
			Scalar:      rf.scalar,
			Coordinates: rf.coords,
			Data:        rf.scalar,
			Time:        rp.Time,
		}
		iso *voltex.Isosurface
	)
	if vp.Blur > 0 {
		f.Blur = field.NewConstant("blur", float64(vp.Blur))
	}
	if vp.ClipAbove != nil {
		z := *vp.ClipAbove
		f.ClipFunction = func(p r3.Vec) float64 { return p.Z - z }
	}
	iso, err = voltex.Extractor{}.Extract(r.Mesh.Elements[0], tex, f)
	if err != nil && !errors.Is(err, blocks.ErrIncompleteBlock) {
		return
	}
	err = nil
	if iso == nil {
		fmt.Printf("isovalue %g gives an empty surface\n", vp.Isovalue)
		return
	}
	if err = sink.Add(iso.Voltex); err != nil {
		return
	}
	if vp.ReseedDensity > 0 {
		return reseed(iso, rf.coords, vp.ReseedDensity, rp.Time, sink)
	}
	return
}

// reseed scatters points over the isosurface and adds them as glyph sets, one
// per element holding points, named by the order the points were made
func reseed(iso *voltex.Isosurface, coords field.Field, density, time float64,
	sink graphics.Sink) (err error) {
	var points []voltex.SurfacePoint
	if points, err = voltex.ReseedSurfacePoints(iso, coords, field.NewConstant("density", density),
		time, statistics.NewElementRand(iso.Block.Elements[0].Identifier().Number)); err != nil {
		return
	}
	var (
		order   []mesh.Element
		xi      = make(map[mesh.Element][]types.Xi)
		numbers = make(map[mesh.Element][]int)
	)
	for i, p := range points {
		if _, ok := xi[p.Element]; !ok {
			order = append(order, p.Element)
		}
		xi[p.Element] = append(xi[p.Element], p.Xi)
		numbers[p.Element] = append(numbers[p.Element], i)
	}
	fmt.Printf("reseeded %d surface points in %d elements\n", len(points), len(order))
	for _, elem := range order {
		var gs *graphics.GlyphSet
		if gs, err = tessellate.GlyphSetFromElement(elem, xi[elem], numbers[elem],
			tessellate.GlyphOptions{Glyph: "point", Coordinates: coords, Time: time}); err != nil {
			return
		}
		if gs != nil {
			if err = sink.Add(gs); err != nil {
				return
			}
		}
	}
	return
}

// PrintSummary prints the number of primitives of each kind
func PrintSummary(c *graphics.Collection) {
	counts := make(map[graphics.Kind]int)
	for _, p := range c.Primitives() {
		counts[p.Kind()]++
	}
	for k := graphics.Kind(0); k <= graphics.VoltexKind; k++ {
		if counts[k] != 0 {
			fmt.Printf("%8d %s primitives\n", counts[k], k)
		}
	}
	fmt.Printf("%8d triangles\n", len(c.Triangles()))
}

// WriteOutput writes the triangulated primitives of c as OBJ or STL by file
// extension
func WriteOutput(path string, c *graphics.Collection) (err error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".obj" && ext != ".stl" {
		return fmt.Errorf("unknown output format %q, use .obj or .stl", ext)
	}
	var f *os.File
	if f, err = os.Create(path); err != nil {
		return
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if ext == ".obj" {
		return graphics.WriteOBJ(f, c.Primitives())
	}
	return graphics.WriteSTL(f, c.Triangles())
}
