package InputParameters

import (
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
)

// Primitive kinds the render command can build
const (
	XiPoints = "xi"
	Polyline = "polyline"
	Cylinder = "cylinder"
	Surface  = "surface"
	Nurbs    = "nurbs"
	Glyphs   = "glyphs"
	Voltex   = "voltex"
)

// Analytic fields available to a render
const (
	FieldRadius = "radius" // distance from Centre
	FieldX      = "x"
	FieldY      = "y"
	FieldZ      = "z"
)

type FieldParameters struct {
	Function string     `yaml:"Function"`
	Centre   [3]float64 `yaml:"Centre"`
	Scale    float64    `yaml:"Scale"`
}

type SampleParameters struct {
	Mode       string     `yaml:"Mode"` // cell_centres, cell_corners, cell_density, cell_poisson, cell_random, exact_xi
	NumberInXi [3]int     `yaml:"NumberInXi"`
	Density    float64    `yaml:"Density"`
	Exact      [3]float64 `yaml:"Exact"`
}

type GlyphParameters struct {
	Glyph        string     `yaml:"Glyph"`
	BaseSize     [3]float64 `yaml:"BaseSize"`
	ScaleFactors [3]float64 `yaml:"ScaleFactors"`
	Centre       [3]float64 `yaml:"Centre"`
	Select       string     `yaml:"Select"`
	Selected     []int      `yaml:"Selected"`
}

type CylinderParameters struct {
	Radius         float64 `yaml:"Radius"`
	ScaleFactor    float64 `yaml:"ScaleFactor"`
	SegmentsAround int     `yaml:"SegmentsAround"`
}

type VoltexParameters struct {
	Lattice        [3]int   `yaml:"Lattice"`
	MaxCells       int      `yaml:"MaxCells"`
	Isovalue       float64  `yaml:"Isovalue"`
	Closed         bool     `yaml:"Closed"`
	Hollow         bool     `yaml:"Hollow"`
	HollowIsovalue float64  `yaml:"HollowIsovalue"`
	ClipAbove      *float64 `yaml:"ClipAbove"` // keep the surface with z above this
	Blur           int      `yaml:"Blur"`
	ReseedDensity  float64  `yaml:"ReseedDensity"`
}

// RenderParameters obtained from the YAML input file
type RenderParameters struct {
	Title     string             `yaml:"Title"`
	MeshFile  string             `yaml:"MeshFile"` // Gmsh file replacing the structured mesh
	Dimension int                `yaml:"Dimension"`
	Elements  [3]int             `yaml:"Elements"`
	Min       [3]float64         `yaml:"Min"`
	Max       [3]float64         `yaml:"Max"`
	Primitive string             `yaml:"Primitive"`
	Segments  [2]int             `yaml:"Segments"`
	Time      float64            `yaml:"Time"`
	Reverse   bool               `yaml:"Reverse"`
	Field     FieldParameters    `yaml:"Field"`
	Sample    SampleParameters   `yaml:"Sample"`
	Glyph     GlyphParameters    `yaml:"Glyph"`
	Cylinder  CylinderParameters `yaml:"Cylinder"`
	Voltex    VoltexParameters   `yaml:"Voltex"`
}

func (rp *RenderParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, rp); err != nil {
		return err
	}
	rp.Primitive = strings.ToLower(rp.Primitive)
	return rp.Check()
}

// Check validates the parameters that are needed whatever primitive is built
func (rp *RenderParameters) Check() (err error) {
	if rp.Dimension < 1 || rp.Dimension > 3 {
		return fmt.Errorf("dimension must be 1, 2 or 3, have %d", rp.Dimension)
	}
	structured := len(rp.MeshFile) == 0
	for d := 0; d < rp.Dimension; d++ {
		if rp.Elements[d] < 1 && (structured || rp.Primitive == Voltex) {
			return fmt.Errorf("need at least one element along direction %d", d)
		}
		if rp.Max[d] <= rp.Min[d] && structured {
			return fmt.Errorf("empty extent along direction %d: [%g,%g]", d, rp.Min[d], rp.Max[d])
		}
	}
	switch rp.Primitive {
	case XiPoints, Glyphs:
	case Polyline, Cylinder:
		if rp.Dimension != 1 {
			return fmt.Errorf("%s needs a 1D mesh", rp.Primitive)
		}
	case Surface, Nurbs:
		if rp.Dimension != 2 {
			return fmt.Errorf("%s needs a 2D mesh", rp.Primitive)
		}
	case Voltex:
		if rp.Dimension != 3 {
			return fmt.Errorf("voltex needs a 3D mesh")
		}
	default:
		return fmt.Errorf("unknown primitive %q", rp.Primitive)
	}
	switch strings.ToLower(rp.Field.Function) {
	case "", FieldRadius, FieldX, FieldY, FieldZ:
	default:
		return fmt.Errorf("unknown field function %q", rp.Field.Function)
	}
	return
}

func (rp *RenderParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	if len(rp.MeshFile) != 0 {
		fmt.Printf("[%s]\t\t= Mesh File\n", rp.MeshFile)
	}
	fmt.Printf("[%d]\t\t\t\t= Dimension\n", rp.Dimension)
	fmt.Printf("%v\t\t\t= Elements\n", rp.Elements[:rp.Dimension])
	fmt.Printf("%v -> %v\t= Bounds\n", rp.Min[:rp.Dimension], rp.Max[:rp.Dimension])
	fmt.Printf("[%s]\t\t\t= Primitive\n", rp.Primitive)
	if len(rp.Field.Function) != 0 {
		fmt.Printf("[%s]\t\t\t= Field\n", rp.Field.Function)
	}
	switch rp.Primitive {
	case XiPoints, Glyphs:
		fmt.Printf("[%s] %v\t\t= Sampling\n", rp.Sample.Mode, rp.Sample.NumberInXi)
	case Cylinder:
		fmt.Printf("%8.5f\t\t= Radius\n", rp.Cylinder.Radius)
	case Voltex:
		fmt.Printf("%v\t\t\t= Lattice\n", rp.Voltex.Lattice)
		fmt.Printf("%8.5f\t\t= Isovalue\n", rp.Voltex.Isovalue)
	default:
		fmt.Printf("%v\t\t\t= Segments\n", rp.Segments)
	}
}
