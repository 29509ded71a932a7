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
	"fmt"
	"os"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/discretization"
	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/statistics"
	"github.com/notargets/fegraphics/types"
)

// XiCmd represents the xi command
var XiCmd = &cobra.Command{
	Use:   "xi",
	Short: "Print the xi points sampled in one element",
	Long: `
Prints the xi points a sampling mode places in a single element of the given
shape, in generation order.

fegraphics xi --shape triangle --mode cell_centres -n 3,3`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			xs  = &XiSample{}
			err error
		)
		name, _ := cmd.Flags().GetString("shape")
		sides, _ := cmd.Flags().GetInt("sides")
		if xs.Shape, err = ParseShape(name, sides); err != nil {
			exitOnError(err)
		}
		mode, _ := cmd.Flags().GetString("mode")
		if xs.Mode, err = discretization.ParseMode(mode); err != nil {
			exitOnError(err)
		}
		n, _ := cmd.Flags().GetIntSlice("n")
		for d := 0; d < len(n) && d < 3; d++ {
			xs.N[d] = n[d]
		}
		exact, _ := cmd.Flags().GetStringSlice("exact")
		for d := 0; d < len(exact) && d < 3; d++ {
			if xs.Exact[d], err = cast.ToFloat64E(exact[d]); err != nil {
				exitOnError(err)
			}
		}
		xs.Seed, _ = cmd.Flags().GetInt("seed")
		xs.Density, _ = cmd.Flags().GetFloat64("density")
		var xi []types.Xi
		if xi, err = xs.Points(); err != nil {
			exitOnError(err)
		}
		fmt.Printf("%d points\n", len(xi))
		dim := xs.Shape.Dimension
		for i, p := range xi {
			fmt.Printf("%6d %v\n", i, p[:dim])
		}
	},
}

func init() {
	rootCmd.AddCommand(XiCmd)
	XiCmd.Flags().StringP("shape", "s", "line", "element shape: line, square, triangle, polygon, cube, tetrahedron, triangle_line, polygon_line")
	XiCmd.Flags().Int("sides", 5, "number of polygon sides")
	XiCmd.Flags().StringP("mode", "m", discretization.CellCentres.String(),
		"sampling mode: cell_centres, cell_corners, cell_density, cell_poisson, cell_random, exact_xi")
	XiCmd.Flags().IntSliceP("n", "n", []int{1, 1, 1}, "number of cells along each xi direction")
	XiCmd.Flags().StringSlice("exact", nil, "xi location for exact_xi")
	XiCmd.Flags().Int("seed", 1, "element number seeding the random modes")
	XiCmd.Flags().Float64("density", 1, "points per unit volume for the density modes")
}

func exitOnError(err error) {
	fmt.Printf("error: %s\n", err.Error())
	os.Exit(1)
}

// ParseShape builds an element shape by name, linked shapes link xi1 and xi2
func ParseShape(name string, sides int) (s shape.Shape, err error) {
	switch name {
	case "line":
		s = shape.NewLine()
	case "square":
		s = shape.NewSquare()
	case "triangle":
		s = shape.NewTriangle()
	case "polygon":
		s = shape.NewPolygon(sides)
	case "cube":
		s = shape.NewCube()
	case "tetrahedron":
		s = shape.NewTetrahedron()
	case "triangle_line":
		s = shape.NewTriangleLine([2]int{0, 1})
	case "polygon_line":
		s = shape.NewPolygonLine(sides, [2]int{0, 1})
	default:
		err = fmt.Errorf("unknown shape %q", name)
		return
	}
	_, err = shape.Classify(s)
	return
}

// XiSample describes the sampling of a single unit element
type XiSample struct {
	Shape   shape.Shape
	Mode    discretization.Mode
	N       [3]int
	Exact   types.Xi
	Seed    int
	Density float64
}

/*
Points samples the element. Line, square and cube shapes are sampled through
a unit element so every mode is available, with a constant density field for
the density modes. Other shapes support the deterministic modes only.
*/
func (xs *XiSample) Points() (xi []types.Xi, err error) {
	var topo shape.Topology
	if topo, err = shape.Classify(xs.Shape); err != nil {
		return
	}
	if !topo.Category.IsTensor() {
		switch xs.Mode {
		case discretization.CellCentres:
			return discretization.CellCentresXi(topo, xs.N)
		case discretization.CellCorners:
			return discretization.CellCornersXi(topo, xs.N)
		case discretization.ExactXi:
			return []types.Xi{xs.Exact}, nil
		}
		err = fmt.Errorf("%w: %s sampling of a %s needs a line, square or cube",
			discretization.ErrUnsupportedCategory, xs.Mode, topo.Category)
		return
	}
	var m *mesh.Mesh
	if m, err = mesh.NewStructured(topo.Dimension(), [3]int{1, 1, 1}, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}); err != nil {
		return
	}
	s := &discretization.Sampler{
		Element:     m.Elements[0],
		Mode:        xs.Mode,
		NumberInXi:  xs.N,
		Exact:       xs.Exact,
		Coordinates: field.NewCoordinates(m),
		Density:     field.NewConstant("density", xs.Density),
	}
	return s.Generate(statistics.NewElementRand(xs.Seed))
}
