package graphics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/notargets/fegraphics/types"
)

// Sink takes ownership of finished primitives
type Sink interface {
	Add(p Primitive) error
}

// Collection is an in memory Sink, safe for concurrent use
type Collection struct {
	mu         sync.Mutex
	primitives map[types.GraphicsName][]Primitive
	count      int
}

func NewCollection() *Collection {
	return &Collection{primitives: make(map[types.GraphicsName][]Primitive)}
}

func (c *Collection) Add(p Primitive) error {
	if p == nil {
		return fmt.Errorf("nil primitive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.primitives[p.Name()] = append(c.primitives[p.Name()], p)
	c.count++
	return nil
}

func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Lookup returns the primitives built for a graphics name, for picking
func (c *Collection) Lookup(name types.GraphicsName) []Primitive {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.primitives[name]
}

// Primitives returns all primitives ordered by graphics name
func (c *Collection) Primitives() (all []Primitive) {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]types.GraphicsName, 0, len(c.primitives))
	for name := range c.primitives {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, name := range names {
		all = append(all, c.primitives[name]...)
	}
	return
}

// Triangles flattens every triangulated primitive
func (c *Collection) Triangles() (tris []Triangle) {
	for _, p := range c.Primitives() {
		if t, ok := p.(Triangulator); ok {
			tris = append(tris, t.TriangleList()...)
		}
	}
	return
}
