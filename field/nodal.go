package field

import (
	"fmt"

	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
)

// Nodal interpolates per vertex values with the element basis
type Nodal struct {
	Cache
	name       string
	mesh       *mesh.Mesh
	components int
	values     [][]float64 // [vertex][component]
}

func NewNodal(name string, m *mesh.Mesh, values [][]float64) (f *Nodal, err error) {
	if len(values) != len(m.Vertices) {
		err = fmt.Errorf("field %s has %d nodal values for %d vertices", name, len(values), len(m.Vertices))
		return
	}
	f = &Nodal{name: name, mesh: m, values: values}
	if len(values) > 0 {
		f.components = len(values[0])
	}
	for n, v := range values {
		if len(v) != f.components {
			err = fmt.Errorf("field %s node %d has %d components, expected %d", name, n, len(v), f.components)
			return
		}
	}
	return
}

// NewCoordinates is the three component coordinate field of a mesh
func NewCoordinates(m *mesh.Mesh) (f *Nodal) {
	values := make([][]float64, len(m.Vertices))
	for n, v := range m.Vertices {
		values[n] = []float64{v.X, v.Y, v.Z}
	}
	f, _ = NewNodal("coordinates", m, values)
	return
}

func (f *Nodal) Name() string            { return f.name }
func (f *Nodal) NumberOfComponents() int { return f.components }

func (f *Nodal) Evaluate(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) (values []float64, err error) {
	values, _, err = f.evaluate(elem, xi, time, false)
	return
}

func (f *Nodal) EvaluateWithDerivatives(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) (values, derivatives []float64, err error) {
	return f.evaluate(elem, xi, time, true)
}

func (f *Nodal) evaluate(elem mesh.Element, xi types.Xi, time float64, derivs bool) (values, derivatives []float64, err error) {
	key := cacheKey{elem, xi, time, derivs}
	if v, d, ok := f.lookup(key); ok {
		return clone(v), clone(d), nil
	}
	me, ok := elem.(*mesh.Elem)
	if !ok || me.Mesh() != f.mesh {
		err = fmt.Errorf("%w: %s not defined on %v", ErrFieldEvaluation, f.name, identifier(elem))
		return
	}
	var (
		dim   = me.Dimension()
		w, dw = me.Basis(xi)
		nodes = me.Nodes()
	)
	values = make([]float64, f.components)
	if derivs {
		derivatives = make([]float64, f.components*dim)
	}
	for k, n := range nodes {
		for c, v := range f.values[n] {
			values[c] += w[k] * v
			for d := 0; d < dim && derivs; d++ {
				derivatives[c*dim+d] += dw[k][d] * v
			}
		}
	}
	f.store(key, clone(values), clone(derivatives))
	return
}

func identifier(elem mesh.Element) string {
	if elem == nil {
		return "no element"
	}
	return elem.Identifier().String()
}
