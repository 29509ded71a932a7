package discretization

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/field"
	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/statistics"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

/*
Sampler produces the xi points of one element for any mode. Coordinates and
Density are only needed by CellDensity and CellPoisson, Exact only by ExactXi.
*/
type Sampler struct {
	Element     mesh.Element
	Mode        Mode
	NumberInXi  [3]int
	Exact       types.Xi
	Coordinates field.Field
	Density     field.Field
	Time        float64
}

func (s *Sampler) Topology() (topo shape.Topology, err error) {
	if s.Element == nil {
		err = fmt.Errorf("%w: no element", ErrInvalidDiscretization)
		return
	}
	return shape.Classify(s.Element.Shape())
}

// Count returns the number of points Generate produces with the element
// seeded generator
func (s *Sampler) Count() (count int, err error) {
	var topo shape.Topology
	if topo, err = s.Topology(); err != nil {
		return
	}
	if s.Mode != CellDensity && s.Mode != CellPoisson {
		return Count(topo, s.Mode, s.NumberInXi)
	}
	var xi []types.Xi
	if xi, err = s.Generate(nil); err != nil {
		return
	}
	return len(xi), nil
}

// Generate returns the ordered xi points. A nil rng is replaced by the
// element number seeded generator.
func (s *Sampler) Generate(rng *rand.Rand) (xi []types.Xi, err error) {
	var topo shape.Topology
	if topo, err = s.Topology(); err != nil {
		return
	}
	if rng == nil {
		rng = statistics.NewElementRand(s.Element.Identifier().Number)
	}
	switch s.Mode {
	case CellCentres:
		return CellCentresXi(topo, s.NumberInXi)
	case CellCorners:
		return CellCornersXi(topo, s.NumberInXi)
	case ExactXi:
		return []types.Xi{s.Exact}, nil
	case CellRandom:
		var count int
		if count, err = Count(topo, CellRandom, s.NumberInXi); err != nil {
			return
		}
		xi = make([]types.Xi, 0, count)
		forEachCell(topo.Dimension(), s.NumberInXi, func(centre, dxi types.Xi) {
			xi = append(xi, jitter(centre, dxi, topo.Dimension(), rng))
		})
		return
	case CellDensity, CellPoisson:
		return s.density(topo, rng)
	}
	err = fmt.Errorf("%w: unknown mode %d", ErrInvalidDiscretization, s.Mode)
	return
}

func (s *Sampler) density(topo shape.Topology, rng *rand.Rand) (xi []types.Xi, err error) {
	if err = checkNumberInXi(topo, s.NumberInXi); err != nil {
		return
	}
	if err = tensorOnly(topo, s.Mode); err != nil {
		return
	}
	if s.Coordinates == nil || s.Density == nil {
		err = fmt.Errorf("%w: %s needs coordinate and density fields", ErrInvalidDiscretization, s.Mode)
		return
	}
	defer field.ClearAll(s.Coordinates, s.Density)
	var (
		dim   = topo.Dimension()
		nComp = s.Coordinates.NumberOfComponents()
	)
	if nComp < dim || nComp > 3 {
		err = fmt.Errorf("%w: %d coordinate components for a %dD element",
			ErrInvalidDiscretization, nComp, dim)
		return
	}
	forEachCell(dim, s.NumberInXi, func(centre, dxi types.Xi) {
		if err != nil {
			return
		}
		var (
			derivs, rho []float64
			measure     float64
			count       int
		)
		if _, derivs, err = s.Coordinates.EvaluateWithDerivatives(s.Element, centre, s.Time, nil); err != nil {
			return
		}
		if rho, err = s.Density.Evaluate(s.Element, centre, s.Time, nil); err != nil {
			return
		}
		measure = cellMeasure(derivs, nComp, dim, dxi)
		expected := measure * rho[0]
		if expected < 0 {
			err = fmt.Errorf("%w: negative number of points expected in cell at %v",
				ErrInvalidDiscretization, centre)
			return
		}
		if s.Mode == CellDensity {
			count = int(expected + 0.5)
		} else if count, err = statistics.SamplePoisson(expected, rng); err != nil {
			return
		}
		if len(xi)+count > MaxPoints {
			err = fmt.Errorf("%w: more than %d points", ErrAllocation, MaxPoints)
			return
		}
		for p := 0; p < count; p++ {
			xi = append(xi, jitter(centre, dxi, dim, rng))
		}
	})
	if err != nil {
		xi = nil
	}
	return
}

// cellMeasure is the length, area or volume of a cell of size dxi
func cellMeasure(derivs []float64, nComp, dim int, dxi types.Xi) float64 {
	a := utils.DerivativeColumn(derivs, nComp, dim, 0)
	switch dim {
	case 1:
		return r3.Norm(a) * dxi[0]
	case 2:
		b := utils.DerivativeColumn(derivs, nComp, dim, 1)
		return r3.Norm(r3.Cross(a, b)) * dxi[0] * dxi[1]
	}
	var (
		b = utils.DerivativeColumn(derivs, nComp, dim, 1)
		c = utils.DerivativeColumn(derivs, nComp, dim, 2)
		J = mat.NewDense(3, 3, []float64{
			a.X, b.X, c.X,
			a.Y, b.Y, c.Y,
			a.Z, b.Z, c.Z,
		})
	)
	return math.Abs(mat.Det(J)) * dxi[0] * dxi[1] * dxi[2]
}

// forEachCell visits the uniform cells of a tensor element, xi0 fastest
func forEachCell(dim int, n [3]int, visit func(centre, dxi types.Xi)) {
	var (
		nc  = [3]int{1, 1, 1}
		dxi types.Xi
	)
	for d := 0; d < dim; d++ {
		nc[d] = n[d]
		dxi[d] = 1 / float64(n[d])
	}
	for k := 0; k < nc[2]; k++ {
		for j := 0; j < nc[1]; j++ {
			for i := 0; i < nc[0]; i++ {
				var (
					centre types.Xi
					ijk    = [3]int{i, j, k}
				)
				for d := 0; d < dim; d++ {
					centre[d] = (float64(ijk[d]) + 0.5) * dxi[d]
				}
				visit(centre, dxi)
			}
		}
	}
}

func jitter(centre, dxi types.Xi, dim int, rng *rand.Rand) (p types.Xi) {
	for d := 0; d < dim; d++ {
		p[d] = centre[d] + dxi[d]*(rng.Float64()-0.5)
	}
	return
}
