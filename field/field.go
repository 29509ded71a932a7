package field

import (
	"errors"
	"sync"

	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
)

var ErrFieldEvaluation = errors.New("field evaluation failed")

/*
Field is a continuous quantity evaluated at element xi locations. Derivatives
are laid out [component*dimension + xi] with dimension that of the element
evaluated on. top, when not nil, is the top level element the evaluation is
made for; fields may use it to pick a parent basis.
*/
type Field interface {
	Name() string
	NumberOfComponents() int
	Evaluate(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) (values []float64, err error)
	EvaluateWithDerivatives(elem mesh.Element, xi types.Xi, time float64, top mesh.Element) (values, derivatives []float64, err error)
	ClearCache()
}

type cacheKey struct {
	elem   mesh.Element
	xi     types.Xi
	time   float64
	derivs bool
}

// Cache remembers the most recent evaluation of a field; tessellators must
// clear it when they finish since it holds a reference to an element
type Cache struct {
	mu          sync.Mutex
	key         cacheKey
	valid       bool
	values      []float64
	derivatives []float64
	clears      int
}

func (c *Cache) lookup(key cacheKey) (values, derivatives []float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid && c.key == key {
		return c.values, c.derivatives, true
	}
	return
}

func (c *Cache) store(key cacheKey, values, derivatives []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key, c.valid = key, true
	c.values, c.derivatives = values, derivatives
}

func (c *Cache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.key, c.valid = cacheKey{}, false
	c.values, c.derivatives = nil, nil
	c.clears++
}

// Clears counts ClearCache calls
func (c *Cache) Clears() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

// Cached reports whether the cache holds an evaluation
func (c *Cache) Cached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}

// ClearAll clears the caches of every non nil field
func ClearAll(fields ...Field) {
	for _, f := range fields {
		if f != nil {
			f.ClearCache()
		}
	}
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}
