package field

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

// SpatialFunc returns nil where the function is not defined
type SpatialFunc func(x r3.Vec, time float64) []float64

// Function evaluates a function of position, where position comes from a
// coordinate field. Xi derivatives use the chain rule with central
// differences in space.
type Function struct {
	Cache
	name        string
	components  int
	coordinates Field
	f           SpatialFunc
	Step        float64
}

func NewFunction(name string, components int, coordinates Field, f SpatialFunc) *Function {
	return &Function{name: name, components: components, coordinates: coordinates, f: f, Step: 1.e-6}
}

func (fn *Function) Name() string            { return fn.name }
func (fn *Function) NumberOfComponents() int { return fn.components }

func (fn *Function) Evaluate(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) (values []float64, err error) {
	values, _, err = fn.evaluate(elem, xi, time, top, false)
	return
}

func (fn *Function) EvaluateWithDerivatives(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) (values, derivatives []float64, err error) {
	return fn.evaluate(elem, xi, time, top, true)
}

func (fn *Function) evaluate(elem mesh.Element, xi types.Xi, time float64, top mesh.Element, derivs bool) (values, derivatives []float64, err error) {
	key := cacheKey{elem, xi, time, derivs}
	if v, d, ok := fn.lookup(key); ok {
		return clone(v), clone(d), nil
	}
	var x, dx []float64
	if derivs {
		x, dx, err = fn.coordinates.EvaluateWithDerivatives(elem, xi, time, top)
	} else {
		x, err = fn.coordinates.Evaluate(elem, xi, time, top)
	}
	if err != nil {
		return
	}
	p := utils.Vec(x...)
	if values, err = fn.call(p, time, elem); err != nil {
		return
	}
	if derivs {
		var (
			dim  = elem.Dimension()
			nc   = fn.coordinates.NumberOfComponents()
			grad = make([][3]float64, fn.components) // d value / d x_k
		)
		for k := 0; k < nc && k < 3; k++ {
			var e [3]float64
			e[k] = fn.Step
			step := utils.Vec(e[:]...)
			var fp, fm []float64
			if fp, err = fn.call(r3.Add(p, step), time, elem); err != nil {
				return
			}
			if fm, err = fn.call(r3.Sub(p, step), time, elem); err != nil {
				return
			}
			for c := range grad {
				grad[c][k] = (fp[c] - fm[c]) / (2 * fn.Step)
			}
		}
		derivatives = make([]float64, fn.components*dim)
		for c := range grad {
			for d := 0; d < dim; d++ {
				for k := 0; k < nc && k < 3; k++ {
					derivatives[c*dim+d] += grad[c][k] * dx[k*dim+d]
				}
			}
		}
	}
	fn.store(key, clone(values), clone(derivatives))
	return
}

func (fn *Function) call(p r3.Vec, time float64, elem mesh.Element) (values []float64, err error) {
	values = fn.f(p, time)
	switch {
	case values == nil:
		err = fmt.Errorf("%w: %s not defined at %v in %s", ErrFieldEvaluation, fn.name, p, identifier(elem))
	case len(values) != fn.components:
		err = fmt.Errorf("%w: %s returned %d components, expected %d", ErrFieldEvaluation, fn.name, len(values), fn.components)
	}
	return
}

// Xi is the element xi coordinates themselves, with as many components as
// the element has dimensions up to Components
type Xi struct {
	Cache
	Components int
}

func (f *Xi) Name() string            { return "xi" }
func (f *Xi) NumberOfComponents() int { return f.Components }

func (f *Xi) Evaluate(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) (values []float64, err error) {
	values, _, err = f.EvaluateWithDerivatives(elem, xi, time, top)
	return
}

func (f *Xi) EvaluateWithDerivatives(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) (values, derivatives []float64, err error) {
	if elem == nil {
		err = fmt.Errorf("%w: xi needs an element", ErrFieldEvaluation)
		return
	}
	dim := elem.Dimension()
	values = make([]float64, f.Components)
	derivatives = make([]float64, f.Components*dim)
	for c := 0; c < f.Components; c++ {
		if c < dim {
			values[c] = xi[c]
			derivatives[c*dim+c] = 1
		}
	}
	return
}

// Constant has the same values everywhere
type Constant struct {
	Cache
	name   string
	Values []float64
}

func NewConstant(name string, values ...float64) *Constant {
	return &Constant{name: name, Values: values}
}

func (f *Constant) Name() string            { return f.name }
func (f *Constant) NumberOfComponents() int { return len(f.Values) }

func (f *Constant) Evaluate(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) ([]float64, error) {
	return clone(f.Values), nil
}

func (f *Constant) EvaluateWithDerivatives(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) (values, derivatives []float64, err error) {
	dim := 0
	if elem != nil {
		dim = elem.Dimension()
	}
	return clone(f.Values), make([]float64, len(f.Values)*dim), nil
}
