package tessellate

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

type SelectMode uint8

const (
	NoSelect SelectMode = iota
	SelectOn
	DrawSelected
	DrawUnselected
)

func (m SelectMode) String() string {
	switch m {
	case NoSelect:
		return "no_select"
	case SelectOn:
		return "select_on"
	case DrawSelected:
		return "draw_selected"
	case DrawUnselected:
		return "draw_unselected"
	}
	return fmt.Sprintf("select_mode(%d)", uint8(m))
}

func ParseSelectMode(s string) (m SelectMode, err error) {
	for m = NoSelect; m <= DrawUnselected; m++ {
		if m.String() == s {
			return
		}
	}
	err = fmt.Errorf("unknown select mode %q", s)
	return
}

/*
GlyphOptions configures glyph placement. Each glyph axis k is the decoded
orientation axis scaled by BaseSize[k] + size[k]*ScaleFactors[k], times the
variable scale component k when present. The glyph is shifted so Centre, in
scaled glyph units, sits on the point.
*/
type GlyphOptions struct {
	Glyph         string
	Coordinates   field.Field
	Orientation   field.Field // Optional, 0 to 9 components per OrientationScaleAxes
	VariableScale field.Field // Optional, up to 3 components
	Data          field.Field
	Label         field.Field
	BaseSize      r3.Vec
	ScaleFactors  r3.Vec
	Centre        r3.Vec
	Select        SelectMode
	Selected      types.Ranges // Selected point numbers
	// ElementSelected marks the whole element selected, overriding Selected
	ElementSelected bool
	Time            float64
	Top             mesh.Element
}

func (o *GlyphOptions) fields() []field.Field {
	return []field.Field{o.Coordinates, o.Orientation, o.VariableScale, o.Data, o.Label}
}

// draw reports whether the point numbered n is drawn and whether it is
// flagged selected
func (o *GlyphOptions) draw(n int) (drawn, selected bool) {
	switch o.Select {
	case NoSelect:
		return true, false
	case SelectOn:
		return true, o.ElementSelected || o.Selected.Contains(n)
	case DrawSelected:
		in := o.ElementSelected || o.Selected.Contains(n)
		return in, in
	case DrawUnselected:
		return !o.ElementSelected && !o.Selected.Contains(n), false
	}
	panic("unknown select mode")
}

func (o *GlyphOptions) check() (err error) {
	if err = checkCoordinates(o.Coordinates); err != nil {
		return
	}
	if o.Orientation != nil {
		switch nc := o.Orientation.NumberOfComponents(); nc {
		case 0, 1, 2, 3, 4, 6, 9:
		default:
			return fmt.Errorf("%w: orientation field %s has %d", ErrInvalidComponentCount, o.Orientation.Name(), nc)
		}
	}
	if o.VariableScale != nil && o.VariableScale.NumberOfComponents() > 3 {
		return fmt.Errorf("variable scale field %s has %d components, at most 3",
			o.VariableScale.Name(), o.VariableScale.NumberOfComponents())
	}
	return
}

type glyphPoint struct {
	elem   mesh.Element
	xi     types.Xi
	number int
}

// GlyphSetFromElement places glyphs at xi points of one element. numbers
// gives the point numbers used for names and selection, nil numbers the
// points from 0. No points drawn gives a nil glyph set and no error.
func GlyphSetFromElement(elem mesh.Element, points []types.Xi, numbers []int,
	opts GlyphOptions) (gs *graphics.GlyphSet, err error) {
	defer field.ClearAll(opts.fields()...)
	if elem == nil {
		err = fmt.Errorf("glyph set needs an element")
		return
	}
	if numbers != nil && len(numbers) != len(points) {
		err = fmt.Errorf("have %d point numbers for %d points", len(numbers), len(points))
		return
	}
	if err = opts.check(); err != nil {
		return
	}
	var name types.GraphicsName
	if name, err = graphicsName(elem); err != nil {
		return
	}
	gps := make([]glyphPoint, len(points))
	for i, xi := range points {
		gps[i] = glyphPoint{elem: elem, xi: xi, number: i}
		if numbers != nil {
			gps[i].number = numbers[i]
		}
	}
	return buildGlyphs(name, gps, &opts)
}

// GlyphSetFromNodes places a glyph at every mesh vertex used by an element,
// each evaluated in the first element holding it; names are vertex numbers
func GlyphSetFromNodes(m *mesh.Mesh, opts GlyphOptions) (gs *graphics.GlyphSet, err error) {
	defer field.ClearAll(opts.fields()...)
	if err = opts.check(); err != nil {
		return
	}
	var gps []glyphPoint
	for n := range m.Vertices {
		elem, xi, lerr := m.NodeLocation(n)
		if lerr != nil {
			continue
		}
		gps = append(gps, glyphPoint{elem: elem, xi: xi, number: n})
	}
	return buildGlyphs(0, gps, &opts)
}

func buildGlyphs(name types.GraphicsName, points []glyphPoint, o *GlyphOptions) (gs *graphics.GlyphSet, err error) {
	var (
		drawn    []glyphPoint
		selected []bool
	)
	for _, p := range points {
		if d, s := o.draw(p.number); d {
			drawn = append(drawn, p)
			selected = append(selected, s)
		}
	}
	if len(drawn) == 0 {
		return
	}
	g := &graphics.GlyphSet{GraphicsName: name, Glyph: o.Glyph}
	if o.Data != nil {
		g.DataComponents = o.Data.NumberOfComponents()
	}
	if o.Select == SelectOn {
		g.Selected = selected
	}
	var (
		base    = utils.VecArray(o.BaseSize)
		factors = utils.VecArray(o.ScaleFactors)
		centre  = utils.VecArray(o.Centre)
	)
	for _, p := range drawn {
		var (
			orientation, varScale, x []float64
			axes                     [3]r3.Vec
			size                     r3.Vec
		)
		if o.Orientation != nil {
			if orientation, err = o.Orientation.Evaluate(p.elem, p.xi, o.Time, o.Top); err != nil {
				return
			}
		}
		if o.VariableScale != nil {
			if varScale, err = o.VariableScale.Evaluate(p.elem, p.xi, o.Time, o.Top); err != nil {
				return
			}
		}
		if x, err = o.Coordinates.Evaluate(p.elem, p.xi, o.Time, o.Top); err != nil {
			return
		}
		if o.Data != nil {
			var d []float64
			if d, err = o.Data.Evaluate(p.elem, p.xi, o.Time, o.Top); err != nil {
				return
			}
			g.Data = append(g.Data, d...)
		}
		if o.Label != nil {
			var l []float64
			if l, err = o.Label.Evaluate(p.elem, p.xi, o.Time, o.Top); err != nil {
				return
			}
			g.Labels = append(g.Labels, formatLabel(l))
		}
		if axes, size, err = OrientationScaleAxes(orientation); err != nil {
			return
		}
		var (
			sz    = utils.VecArray(size)
			scale [3]float64
			point = utils.Vec(x...)
		)
		for j := 0; j < 3; j++ {
			scale[j] = base[j] + sz[j]*factors[j]
			if j < len(varScale) {
				scale[j] *= varScale[j]
			}
			point = r3.Sub(point, r3.Scale(centre[j]*scale[j], axes[j]))
		}
		g.Points = append(g.Points, point)
		for k := 0; k < 3; k++ {
			g.Axes[k] = append(g.Axes[k], axes[k])
		}
		g.Scales = append(g.Scales, utils.Vec(scale[:]...))
		if o.Select != NoSelect {
			g.Names = append(g.Names, p.number)
		}
	}
	gs = g
	return
}

func formatLabel(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ",")
}
