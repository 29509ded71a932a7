package mesh

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

// Mesh holds vertices, top level elements and the faces and lines derived
// from them
type Mesh struct {
	Dimension int
	Vertices  []r3.Vec

	Elements []*Elem // Top level elements, numbered from 1
	Faces    []*Elem // Two dimensional faces of 3D elements
	Lines    []*Elem // One dimensional lines

	FaceMap map[string]*Elem // Map from sorted vertex string to sub-element

	NToE utils.Incidence // Vertex to top level element incidence
}

// New builds a mesh of elements of a single dimension from vertex indices
// and shapes, then derives faces, lines and connectivity
func New(vertices []r3.Vec, connectivity [][]int, shapes []shape.Shape) (m *Mesh, err error) {
	if len(connectivity) != len(shapes) {
		err = fmt.Errorf("have %d element connectivities and %d shapes", len(connectivity), len(shapes))
		return
	}
	m = &Mesh{
		Vertices: vertices,
		FaceMap:  make(map[string]*Elem),
	}
	for k, conn := range connectivity {
		var e *Elem
		if e, err = m.newElem(shapes[k], conn, types.ElementIdentifier{Type: types.CMElement, Number: k + 1}); err != nil {
			return
		}
		if k == 0 {
			m.Dimension = e.Dimension()
		} else if e.Dimension() != m.Dimension {
			err = fmt.Errorf("element %d has dimension %d in a %dD mesh", k+1, e.Dimension(), m.Dimension)
			return
		}
		m.Elements = append(m.Elements, e)
	}
	m.BuildConnectivity()
	m.NToE = utils.NewIncidence(len(m.Elements), len(m.Vertices), connectivity).Transpose()
	return
}

func (m *Mesh) newElem(s shape.Shape, conn []int, id types.ElementIdentifier) (e *Elem, err error) {
	var topo shape.Topology
	if topo, err = shape.Classify(s); err != nil {
		return
	}
	if nn := NodeCount(topo); len(conn) != nn {
		err = fmt.Errorf("%s has %d nodes, %s needs %d", id, len(conn), topo.Category, nn)
		return
	}
	for _, n := range conn {
		if n < 0 || n >= len(m.Vertices) {
			err = fmt.Errorf("%s references vertex %d of %d", id, n, len(m.Vertices))
			return
		}
	}
	e = &Elem{mesh: m, shape: s, topo: topo, nodes: conn, id: id}
	return
}

// BuildConnectivity derives unique faces of every element, recursively down
// to lines, linking sub-elements with their parents. Faces whose nodes
// collapse onto fewer than dim distinct vertices are left nil.
func (m *Mesh) BuildConnectivity() {
	var (
		parents = m.Elements
		dim     = m.Dimension
	)
	m.Faces, m.Lines, m.FaceMap = nil, nil, make(map[string]*Elem)
	for dim > 1 {
		cmType := types.CMLine
		if dim == 3 {
			cmType = types.CMFace
		}
		var subs []*Elem
		for _, p := range parents {
			fns, shapes := p.faceNodes()
			p.faces = make([]*Elem, len(fns))
			for f, fn := range fns {
				nodes := make([]int, len(fn))
				for i, ln := range fn {
					nodes[i] = p.nodes[ln]
				}
				if distinct(nodes) < dim {
					continue
				}
				key := faceKey(nodes)
				sub, exists := m.FaceMap[key]
				if !exists {
					sub = &Elem{mesh: m, shape: shapes[f], nodes: nodes,
						id: types.ElementIdentifier{Type: cmType, Number: len(subs) + 1}}
					sub.topo, _ = shape.Classify(sub.shape)
					m.FaceMap[key] = sub
					subs = append(subs, sub)
				}
				sub.parents = append(sub.parents, p)
				p.faces[f] = sub
			}
		}
		if dim == 3 {
			m.Faces = subs
		} else {
			m.Lines = subs
		}
		parents = subs
		dim--
	}
}

func faceKey(nodes []int) string {
	sorted := make([]int, len(nodes))
	copy(sorted, nodes)
	sort.Ints(sorted)
	return fmt.Sprintf("%d:%v", len(nodes), sorted)
}

func distinct(nodes []int) (n int) {
	seen := make(map[int]struct{}, len(nodes))
	for _, v := range nodes {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// Element looks up an element, face or line by identifier
func (m *Mesh) Element(id types.ElementIdentifier) (e *Elem, ok bool) {
	var list []*Elem
	switch id.Type {
	case types.CMElement:
		list = m.Elements
	case types.CMFace:
		list = m.Faces
	case types.CMLine:
		list = m.Lines
		if m.Dimension == 1 {
			list = m.Elements
		}
	}
	if id.Number < 1 || id.Number > len(list) {
		return
	}
	return list[id.Number-1], true
}

// ElementsOfDimension returns the top level elements, faces or lines of dim
func (m *Mesh) ElementsOfDimension(dim int) []*Elem {
	switch m.Dimension - dim {
	case 0:
		return m.Elements
	case 1:
		if dim == 2 {
			return m.Faces
		}
		return m.Lines
	case 2:
		return m.Lines
	}
	return nil
}

// NodeLocation returns the first top level element using node and the xi
// of the node within it
func (m *Mesh) NodeLocation(node int) (e *Elem, xi types.Xi, err error) {
	if node < 0 || node >= len(m.Vertices) {
		err = fmt.Errorf("node %d out of range [0,%d)", node, len(m.Vertices))
		return
	}
	elems := m.NToE.Row(node)
	if len(elems) == 0 {
		err = fmt.Errorf("node %d is not used by any element", node)
		return
	}
	e = m.Elements[elems[0]]
	xi = e.NodeXi(e.localIndex(node))
	return
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Dimension: %d\n", m.Dimension)
	fmt.Printf("  Vertices: %d\n", len(m.Vertices))
	fmt.Printf("  Elements: %d\n", len(m.Elements))
	fmt.Printf("  Faces: %d\n", len(m.Faces))
	fmt.Printf("  Lines: %d\n", len(m.Lines))
	boundary := 0
	for _, e := range m.Elements {
		for f := range e.faces {
			if e.faces[f] != nil && len(e.faces[f].parents) == 1 {
				boundary++
			}
		}
	}
	fmt.Printf("  Boundary faces: %d\n", boundary)
}
