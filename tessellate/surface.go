package tessellate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

// Collapse names the edge of a square element that degenerates to a point
type Collapse uint8

const (
	NotCollapsed Collapse = iota
	CollapsedXi1At0
	CollapsedXi1At1
	CollapsedXi2At0
	CollapsedXi2At1
)

func (c Collapse) String() string {
	switch c {
	case NotCollapsed:
		return "not_collapsed"
	case CollapsedXi1At0:
		return "xi1=0"
	case CollapsedXi1At1:
		return "xi1=1"
	case CollapsedXi2At0:
		return "xi2=0"
	case CollapsedXi2At1:
		return "xi2=1"
	}
	return fmt.Sprintf("collapse(%d)", uint8(c))
}

// CollapsedEdge detects a square element with exactly one of its four faces
// missing, faces are ordered xi1=0, xi1=1, xi2=0, xi2=1
func CollapsedEdge(elem mesh.Element) Collapse {
	var (
		missing = -1
		count   int
	)
	for f := 0; f < 4; f++ {
		if elem.Face(f) == nil {
			missing = f
			count++
		}
	}
	if count != 1 {
		return NotCollapsed
	}
	return []Collapse{CollapsedXi1At0, CollapsedXi1At1, CollapsedXi2At0, CollapsedXi2At1}[missing]
}

type SurfaceOptions struct {
	Coordinates    field.Field
	Texture        field.Field
	Data           field.Field
	Segments       [2]int
	ReverseNormals bool
	Time           float64
	Top            mesh.Element
}

type surfaceLayout struct {
	polygon  graphics.PolygonType
	n1, n2   int
	collapse Collapse
	sides    int
	reverse  bool
}

func (l surfaceLayout) count() int {
	if l.polygon == graphics.TriangleStrip {
		return l.n1 * (l.n1 + 1) / 2
	}
	return l.n1 * l.n2
}

// xi lists the sample locations, rows of increasing xi2 with xi1 fastest
func (l surfaceLayout) xi() (points []types.Xi) {
	points = make([]types.Xi, 0, l.count())
	if l.polygon == graphics.TriangleStrip {
		p := float64(l.n1 - 1)
		for j := 0; j < l.n1; j++ {
			for i := 0; i < l.n1-j; i++ {
				points = append(points, types.NewXi(float64(i)/p, float64(j)/p))
			}
		}
		return
	}
	for j := 0; j < l.n2; j++ {
		for i := 0; i < l.n1; i++ {
			points = append(points, types.NewXi(float64(i)/float64(l.n1-1), float64(j)/float64(l.n2-1)))
		}
	}
	return
}

func newSurfaceLayout(elem mesh.Element, segments [2]int, reverse bool) (l surfaceLayout, err error) {
	var topo shape.Topology
	if topo, err = shape.Classify(elem.Shape()); err != nil {
		return
	}
	l.reverse = reverse
	switch topo.Category {
	case shape.Polygon2D:
		l.sides = topo.PolygonSides
		l.n1 = (segments[0]/l.sides+1)*l.sides + 1
		l.n2 = segments[1] + 1
		l.collapse = CollapsedXi2At0
		l.polygon = graphics.Quadrilateral
	case shape.Triangle2D:
		p := max(segments[0], segments[1]) + 1
		l.n1, l.n2 = p, p
		l.polygon = graphics.TriangleStrip
		// strips wind opposite to quads
		l.reverse = !reverse
	case shape.Square2D:
		l.n1, l.n2 = segments[0]+1, segments[1]+1
		l.polygon = graphics.Quadrilateral
		l.collapse = CollapsedEdge(elem)
	default:
		err = fmt.Errorf("surface needs a 2D element, have %s", topo.Category)
	}
	return
}

// Surface samples a 2D element on a grid of Segments[0] x Segments[1] and
// computes normals, and tangents when a texture field is given
func Surface(elem mesh.Element, opts SurfaceOptions) (surf *graphics.Surface, err error) {
	defer field.ClearAll(opts.Coordinates, opts.Texture, opts.Data)
	if elem == nil || elem.Dimension() != 2 {
		err = fmt.Errorf("surface needs a 2D element")
		return
	}
	if opts.Segments[0] < 1 || opts.Segments[1] < 1 {
		err = fmt.Errorf("surface needs at least one segment in each direction, have %v", opts.Segments)
		return
	}
	if err = checkCoordinates(opts.Coordinates); err != nil {
		return
	}
	var (
		layout surfaceLayout
		name   types.GraphicsName
	)
	if layout, err = newSurfaceLayout(elem, opts.Segments, opts.ReverseNormals); err != nil {
		return
	}
	if name, err = graphicsName(elem); err != nil {
		return
	}
	var (
		np = layout.count()
		s  = &graphics.Surface{
			GraphicsName: name,
			Polygon:      layout.polygon,
			N1:           layout.n1,
			N2:           layout.n2,
			Points:       make([]r3.Vec, np),
			Normals:      make([]r3.Vec, np),
		}
		special = layout.polygon == graphics.Quadrilateral && layout.collapse != NotCollapsed
		nc      = opts.Coordinates.NumberOfComponents()
		n1, n2  = layout.n1, layout.n2
	)
	if opts.Data != nil {
		s.DataComponents = opts.Data.NumberOfComponents()
		s.Data = make([]float64, 0, np*s.DataComponents)
	}
	if opts.Texture != nil {
		s.Tangents = make([]r3.Vec, np)
		s.Texture = make([]r3.Vec, np)
	}
	for i, xi := range layout.xi() {
		var x, dx []float64
		if x, dx, err = opts.Coordinates.EvaluateWithDerivatives(elem, xi, opts.Time, opts.Top); err != nil {
			return
		}
		var (
			d1 = utils.DerivativeColumn(dx, nc, 2, 0)
			d2 = utils.DerivativeColumn(dx, nc, 2, 1)
		)
		s.Points[i] = utils.Vec(x...)
		s.Normals[i] = r3.Cross(d1, d2)
		if opts.Data != nil {
			var d []float64
			if d, err = opts.Data.Evaluate(elem, xi, opts.Time, opts.Top); err != nil {
				return
			}
			s.Data = append(s.Data, d...)
		}
		if opts.Texture != nil {
			var t, dt []float64
			if t, dt, err = opts.Texture.EvaluateWithDerivatives(elem, xi, opts.Time, opts.Top); err != nil {
				return
			}
			s.Texture[i] = utils.Vec(t[:min(len(t), 3)]...)
			s.Tangents[i] = textureTangent(d1, d2, dt)
		}
		if special {
			switch {
			case layout.collapse == CollapsedXi1At0 && i%n1 == 0:
				s.Normals[i] = d1
			case layout.collapse == CollapsedXi2At0 && i/n1 == 0:
				s.Normals[i] = d2
			case layout.collapse == CollapsedXi1At1 && i%n1 == n1-1:
				s.Normals[i] = d1
			case layout.collapse == CollapsedXi2At1 && i/n1 == n2-1:
				s.Normals[i] = d2
			}
		}
	}
	if special {
		collapsedNormals(s.Normals, layout)
	}
	for i := range s.Normals {
		s.Normals[i], _ = utils.Normalize(s.Normals[i])
		if layout.reverse {
			s.Normals[i] = r3.Scale(-1, s.Normals[i])
		}
	}
	for i := range s.Tangents {
		s.Tangents[i], _ = utils.Normalize(s.Tangents[i])
	}
	surf = s
	return
}

// textureTangent is dX/dT0, the first column of dX/dxi (dT/dxi)^-1, falling
// back to dX/dxi1 when the texture Jacobian is singular
func textureTangent(d1, d2 r3.Vec, dt []float64) r3.Vec {
	var t [4]float64 // dT0/dxi1, dT0/dxi2, dT1/dxi1, dT1/dxi2
	copy(t[:], dt)
	det := t[0]*t[3] - t[1]*t[2]
	if math.Abs(det) < utils.ZeroTolerance {
		return d1
	}
	return r3.Scale(1/det, r3.Sub(r3.Scale(t[3], d1), r3.Scale(t[2], d2)))
}

// collapsedNormals replaces the saved tangential derivatives along a
// collapsed edge with normals built from them
func collapsedNormals(normals []r3.Vec, l surfaceLayout) {
	var (
		n1, n2 = l.n1, l.n2
		fill   = func(start, stride, count int, n r3.Vec) {
			for k := 0; k < count; k++ {
				normals[start+k*stride] = n
			}
		}
	)
	if l.sides > 0 {
		// polygon centre: each point sees the ring tangent before it
		prev := normals[n1-2]
		for i := 0; i < n1; i++ {
			s := normals[i]
			normals[i] = r3.Cross(s, prev)
			prev = s
		}
		return
	}
	switch l.collapse {
	case CollapsedXi1At0:
		fill(0, n1, n2, r3.Cross(normals[(n2-1)*n1], normals[0]))
	case CollapsedXi2At0:
		fill(0, 1, n1, r3.Cross(normals[n1-1], normals[0]))
	case CollapsedXi1At1:
		fill(n1-1, n1, n2, r3.Cross(normals[n1-1], normals[n1*n2-1]))
	case CollapsedXi2At1:
		fill(n1*(n2-1), 1, n1, r3.Cross(normals[n1*(n2-1)], normals[n1*n2-1]))
	}
}
