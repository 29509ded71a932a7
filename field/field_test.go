package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
)

func TestFields(t *testing.T) {
	m, err := mesh.NewStructured(2, [3]int{2, 1}, r3.Vec{}, r3.Vec{X: 4, Y: 1})
	require.NoError(t, err)
	coords := NewCoordinates(m)
	e := m.Elements[1]
	{ // Test coordinate interpolation and derivatives
		x, dx, err := coords.EvaluateWithDerivatives(e, types.NewXi(0.5, 0.25), 0, nil)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{3, 0.25, 0}, x, 1.e-14)
		// layout is component*dim + xi
		assert.InDeltaSlice(t, []float64{2, 0, 0, 1, 0, 0}, dx, 1.e-14)
		assert.True(t, coords.Cached())
		coords.ClearCache()
		assert.False(t, coords.Cached())
		assert.Equal(t, 1, coords.Clears())
	}
	{ // Test nodal fields reject foreign elements
		other, err := mesh.NewStructured(1, [3]int{1}, r3.Vec{}, r3.Vec{X: 1})
		require.NoError(t, err)
		_, err = coords.Evaluate(other.Elements[0], types.Xi{}, 0, nil)
		assert.ErrorIs(t, err, ErrFieldEvaluation)
		_, err = NewNodal("bad", m, [][]float64{{1}})
		assert.Error(t, err)
	}
	{ // Test function fields and chain rule derivatives
		sq := NewFunction("x squared", 1, coords, func(x r3.Vec, time float64) []float64 {
			return []float64{x.X * x.X}
		})
		v, dv, err := sq.EvaluateWithDerivatives(e, types.NewXi(0.5, 0.5), 0, nil)
		require.NoError(t, err)
		assert.InDelta(t, 9, v[0], 1.e-12)
		// d(x^2)/dxi0 = 2x * dx/dxi0 = 2*3*2
		assert.InDelta(t, 12, dv[0], 1.e-5)
		assert.InDelta(t, 0, dv[1], 1.e-5)
		undefined := NewFunction("undefined", 1, coords, func(x r3.Vec, time float64) []float64 {
			if x.X > 3 {
				return nil
			}
			return []float64{1}
		})
		_, err = undefined.Evaluate(e, types.NewXi(0.9, 0.5), 0, nil)
		assert.ErrorIs(t, err, ErrFieldEvaluation)
		_, err = undefined.Evaluate(e, types.NewXi(0.1, 0.5), 0, nil)
		assert.NoError(t, err)
	}
	{ // Test xi and constant fields
		xf := &Xi{Components: 3}
		v, dv, err := xf.EvaluateWithDerivatives(e, types.NewXi(0.1, 0.2), 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{0.1, 0.2, 0}, v)
		assert.Equal(t, []float64{1, 0, 0, 1, 0, 0}, dv)
		c := NewConstant("radius", 2)
		v, dv, err = c.EvaluateWithDerivatives(e, types.Xi{}, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{2}, v)
		assert.Equal(t, []float64{0, 0}, dv)
		ClearAll(c, nil, xf)
		assert.Equal(t, 1, c.Clears())
		assert.Equal(t, 1, xf.Clears())
	}
}
