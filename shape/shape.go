package shape

import (
	"errors"
	"fmt"
)

var ErrClassification = errors.New("unsupported element shape")

// DirectionType is the shape of an element along one xi direction
type DirectionType uint8

const (
	LineShape DirectionType = iota
	SimplexShape
	PolygonShape
	UnknownShape
)

func (dt DirectionType) String() string {
	switch dt {
	case LineShape:
		return "line"
	case SimplexShape:
		return "simplex"
	case PolygonShape:
		return "polygon"
	}
	return "unknown"
}

/*
Shape describes an element by the shape of each xi direction. Links holds the
symmetric linkage numbers between directions: the number of polygon sides
for a polygon pair, 1 for linked simplex directions, 0 otherwise.
*/
type Shape struct {
	Dimension int
	Types     [3]DirectionType
	Links     [3][3]int
}

func (s *Shape) link(i, j, n int) {
	s.Links[i][j], s.Links[j][i] = n, n
}

func NewLine() Shape {
	return Shape{Dimension: 1}
}

func NewSquare() Shape {
	return Shape{Dimension: 2}
}

func NewTriangle() (s Shape) {
	s = Shape{Dimension: 2, Types: [3]DirectionType{SimplexShape, SimplexShape}}
	s.link(0, 1, 1)
	return
}

func NewPolygon(sides int) (s Shape) {
	s = Shape{Dimension: 2, Types: [3]DirectionType{PolygonShape, PolygonShape}}
	s.link(0, 1, sides)
	return
}

func NewCube() Shape {
	return Shape{Dimension: 3}
}

func NewTetrahedron() (s Shape) {
	s = Shape{Dimension: 3, Types: [3]DirectionType{SimplexShape, SimplexShape, SimplexShape}}
	s.link(0, 1, 1)
	s.link(0, 2, 1)
	s.link(1, 2, 1)
	return
}

// NewTriangleLine builds a prism: a triangle over the linked pair swept along
// the remaining direction
func NewTriangleLine(linked [2]int) (s Shape) {
	s = Shape{Dimension: 3}
	s.Types[linked[0]], s.Types[linked[1]] = SimplexShape, SimplexShape
	s.link(linked[0], linked[1], 1)
	return
}

func NewPolygonLine(sides int, linked [2]int) (s Shape) {
	s = Shape{Dimension: 3}
	s.Types[linked[0]], s.Types[linked[1]] = PolygonShape, PolygonShape
	s.link(linked[0], linked[1], sides)
	return
}

// IsTensor reports whether every xi direction is a line
func (s Shape) IsTensor() bool {
	for i := 0; i < s.Dimension; i++ {
		if s.Types[i] != LineShape {
			return false
		}
	}
	return true
}

// Category is one of the eight canonical element shapes
type Category uint8

const (
	Line1D Category = iota
	Square2D
	Triangle2D
	Polygon2D
	Cube3D
	Tetrahedron3D
	TriangleLine3D
	PolygonLine3D
)

func (c Category) String() string {
	switch c {
	case Line1D:
		return "Line1D"
	case Square2D:
		return "Square2D"
	case Triangle2D:
		return "Triangle2D"
	case Polygon2D:
		return "Polygon2D"
	case Cube3D:
		return "Cube3D"
	case Tetrahedron3D:
		return "Tetrahedron3D"
	case TriangleLine3D:
		return "TriangleLine3D"
	case PolygonLine3D:
		return "PolygonLine3D"
	}
	panic(fmt.Errorf("invalid shape category %d", c))
}

func (c Category) Dimension() int {
	switch c {
	case Line1D:
		return 1
	case Square2D, Triangle2D, Polygon2D:
		return 2
	case Cube3D, Tetrahedron3D, TriangleLine3D, PolygonLine3D:
		return 3
	}
	panic(fmt.Errorf("invalid shape category %d", c))
}

// IsTensor is true for the line, square and cube categories
func (c Category) IsTensor() bool {
	return c == Line1D || c == Square2D || c == Cube3D
}

// Topology is the classified shape: the category, the linked xi directions
// and line direction for 3D linked shapes, and the polygon side count
type Topology struct {
	Category      Category
	Linked        [2]int
	LineDirection int
	PolygonSides  int
}

func (t Topology) Dimension() int { return t.Category.Dimension() }

// Classify derives the canonical category and linkage metadata of a shape
func Classify(s Shape) (topo Topology, err error) {
	topo = Topology{Linked: [2]int{0, 1}, LineDirection: -1}
	switch s.Dimension {
	case 1:
		topo.Category = Line1D
	case 2:
		switch s.Types[0] {
		case LineShape:
			topo.Category = Square2D
		case SimplexShape:
			topo.Category = Triangle2D
		case PolygonShape:
			topo.Category = Polygon2D
			topo.PolygonSides = s.Links[0][1]
		default:
			err = fmt.Errorf("%w: unknown 2D shape %s", ErrClassification, s.Types[0])
			return
		}
	case 3:
		t0, t1, t2 := s.Types[0], s.Types[1], s.Types[2]
		switch {
		case t0 == LineShape && t1 == LineShape:
			topo.Category = Cube3D
		case t0 == SimplexShape && t1 == SimplexShape && t2 == SimplexShape:
			topo.Category = Tetrahedron3D
		case t0 == SimplexShape || t1 == SimplexShape:
			topo.Category = TriangleLine3D
			topo.Linked, topo.LineDirection = linkedPair(t0, t1, SimplexShape)
		case t0 == PolygonShape || t1 == PolygonShape:
			topo.Category = PolygonLine3D
			topo.Linked, topo.LineDirection = linkedPair(t0, t1, PolygonShape)
			topo.PolygonSides = s.Links[topo.Linked[0]][topo.Linked[1]]
		default:
			err = fmt.Errorf("%w: unknown 3D shape %s,%s,%s", ErrClassification, t0, t1, t2)
			return
		}
	default:
		err = fmt.Errorf("%w: invalid dimension %d", ErrClassification, s.Dimension)
		return
	}
	if (topo.Category == Polygon2D || topo.Category == PolygonLine3D) && topo.PolygonSides < 3 {
		err = fmt.Errorf("%w: polygon with %d sides", ErrClassification, topo.PolygonSides)
	}
	return
}

func linkedPair(t0, t1, linkType DirectionType) (linked [2]int, line int) {
	if t0 == linkType {
		if t1 == linkType {
			return [2]int{0, 1}, 2
		}
		return [2]int{0, 2}, 1
	}
	return [2]int{1, 2}, 0
}
