package tessellate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

type CylinderOptions struct {
	Coordinates    field.Field
	Radius         field.Field // Optional, single component
	Data           field.Field
	Texture        field.Field
	ConstantRadius float64
	ScaleFactor    float64
	SegmentsAlong  int
	SegmentsAround int
	Time           float64
	Top            mesh.Element
}

type cylinderSample struct {
	centre, deriv r3.Vec
	dS            float64
	radius        float64
	rderiv        float64
	tex           float64
}

/*
Cylinder sweeps a circle along a 1D element. The surface has SegmentsAround+1
points per row, the last duplicating the first, and SegmentsAlong+1 rows.
The cross section frame is carried along the curve from the start and the
twist against an independently computed end frame is spread evenly along the
length, so the last row lines up with the end frame to within a facet.
*/
func Cylinder(elem mesh.Element, opts CylinderOptions) (surf *graphics.Surface, err error) {
	defer field.ClearAll(opts.Coordinates, opts.Radius, opts.Data, opts.Texture)
	if elem == nil || elem.Dimension() != 1 {
		err = fmt.Errorf("cylinder needs a 1D element")
		return
	}
	if opts.SegmentsAlong < 1 || opts.SegmentsAround < 2 {
		err = fmt.Errorf("cylinder needs at least 1 segment along and 2 around, have %d and %d",
			opts.SegmentsAlong, opts.SegmentsAround)
		return
	}
	if err = checkCoordinates(opts.Coordinates); err != nil {
		return
	}
	if opts.Radius != nil && opts.Radius.NumberOfComponents() != 1 {
		err = fmt.Errorf("cylinder radius field %s must have 1 component", opts.Radius.Name())
		return
	}
	var name types.GraphicsName
	if name, err = graphicsName(elem); err != nil {
		return
	}
	var (
		along   = opts.SegmentsAlong
		around  = opts.SegmentsAround
		nc      = opts.Coordinates.NumberOfComponents()
		samples = make([]cylinderSample, along+1)
		s       = &graphics.Surface{
			GraphicsName: name,
			Polygon:      graphics.Quadrilateral,
			Cylinder:     true,
			N1:           around + 1,
			N2:           along + 1,
			Points:       make([]r3.Vec, (along+1)*(around+1)),
			Normals:      make([]r3.Vec, (along+1)*(around+1)),
			Texture:      make([]r3.Vec, (along+1)*(around+1)),
		}
	)
	if opts.Data != nil {
		s.DataComponents = opts.Data.NumberOfComponents()
		s.Data = make([]float64, 0, len(s.Points)*s.DataComponents)
	}
	for i := range samples {
		var (
			xi    = types.NewXi(float64(i) / float64(along))
			x, dx []float64
			cs    = &samples[i]
		)
		if x, dx, err = opts.Coordinates.EvaluateWithDerivatives(elem, xi, opts.Time, opts.Top); err != nil {
			return
		}
		cs.centre = utils.Vec(x...)
		cs.deriv, cs.dS = utils.Normalize(utils.DerivativeColumn(dx, nc, 1, 0))
		cs.radius = opts.ConstantRadius
		if opts.Radius != nil {
			var r, dr []float64
			if r, dr, err = opts.Radius.EvaluateWithDerivatives(elem, xi, opts.Time, opts.Top); err != nil {
				return
			}
			cs.radius += opts.ScaleFactor * r[0]
			cs.rderiv = opts.ScaleFactor * dr[0]
		}
		cs.tex = xi[0]
		if opts.Texture != nil {
			var t []float64
			if t, err = opts.Texture.Evaluate(elem, xi, opts.Time, opts.Top); err != nil {
				return
			}
			cs.tex = t[0]
		}
		if opts.Data != nil {
			var d []float64
			if d, err = opts.Data.Evaluate(elem, xi, opts.Time, opts.Top); err != nil {
				return
			}
			// the same data for every point around the row
			for j := 0; j <= around; j++ {
				s.Data = append(s.Data, d...)
			}
		}
	}
	var (
		frames         = transportFrames(samples)
		endAligned     = frameNormal(samples[along].deriv)
		change, offset = seamCorrection(samples[along].deriv, frames[along], endAligned, around)
	)
	for i, cs := range samples {
		base := endAligned
		if i < along {
			base = frames[i]
		}
		b := r3.Cross(cs.deriv, base)
		for j := 0; j <= around; j++ {
			var theta float64
			if i < along {
				theta = change*float64(i)/float64(along) + 2*math.Pi*float64(j)/float64(around)
			} else {
				theta = 2 * math.Pi * float64(j+offset) / float64(around)
			}
			var (
				k = i*(around+1) + j
				n = r3.Add(r3.Scale(math.Cos(theta), base), r3.Scale(math.Sin(theta), b))
			)
			s.Points[k] = r3.Add(cs.centre, r3.Scale(cs.radius, n))
			if opts.Radius != nil && cs.rderiv != 0 {
				switch {
				case cs.dS > 0:
					n = r3.Sub(n, r3.Scale(cs.rderiv/cs.dS, cs.deriv))
				case cs.rderiv < 0:
					n = cs.deriv
				default:
					n = r3.Scale(-1, cs.deriv)
				}
			}
			s.Normals[k], _ = utils.Normalize(n)
			s.Texture[k] = r3.Vec{X: cs.tex, Y: float64(j) / float64(around)}
		}
	}
	surf = s
	return
}

// endDirection replaces a vanishing end derivative with the chord to the
// neighbouring sample
func endDirection(samples []cylinderSample, i int) r3.Vec {
	cs := samples[i]
	if cs.dS != 0 {
		return cs.deriv
	}
	var chord r3.Vec
	if i == 0 {
		chord = r3.Sub(samples[1].centre, cs.centre)
	} else {
		chord = r3.Sub(cs.centre, samples[i-1].centre)
	}
	d, _ := utils.Normalize(chord)
	return d
}

func frameNormal(deriv r3.Vec) r3.Vec {
	n, _ := utils.Normalize(r3.Cross(deriv, utils.SmallestComponentAxis(deriv)))
	return n
}

// transportFrames carries the start normal along the curve by projecting
// each step onto the plane normal to the local direction
func transportFrames(samples []cylinderSample) (frames []r3.Vec) {
	frames = make([]r3.Vec, len(samples))
	samples[0].deriv = endDirection(samples, 0)
	frames[0] = frameNormal(samples[0].deriv)
	for i := 1; i < len(samples); i++ {
		if i == len(samples)-1 {
			samples[i].deriv = endDirection(samples, i)
		}
		c := r3.Cross(r3.Sub(samples[i].centre, samples[i-1].centre), frames[i-1])
		frames[i], _ = utils.Normalize(r3.Cross(c, samples[i].deriv))
		if r3.Norm(frames[i]) == 0 {
			// coincident samples
			frames[i] = frames[i-1]
		}
	}
	return
}

// seamCorrection is the twist to spread along the tube and the whole facet
// offset of the end frame
func seamCorrection(deriv, transported, endAligned r3.Vec, around int) (change float64, offset int) {
	var (
		b     = r3.Cross(deriv, endAligned)
		theta = math.Atan2(r3.Dot(transported, b), r3.Dot(transported, endAligned))
		facet = 2 * math.Pi / float64(around)
	)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	offset = int(theta / facet)
	theta -= float64(offset) * facet
	if theta > facet/2 {
		change = facet - theta
		offset++
	} else {
		change = -theta
	}
	return
}
