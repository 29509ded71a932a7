package types

import (
	"fmt"
	"math"
)

// CMType is the kind of element an identifier refers to: a top level element,
// a face of a 3D element, or a line
type CMType uint8

const (
	CMElement CMType = iota
	CMFace
	CMLine
)

func (t CMType) String() string {
	return [...]string{"element", "face", "line"}[t]
}

// ElementIdentifier is the (type, number) pair used to address an element
type ElementIdentifier struct {
	Type   CMType
	Number int
}

func (id ElementIdentifier) String() string {
	return fmt.Sprintf("%s %d", id.Type, id.Number)
}

/*
GraphicsName packs an ElementIdentifier into a single int32 for picking.

	element numbers 0..HalfIntMax      -> [0, HalfIntMax]
	face numbers    0..HalfIntMax      -> [HalfIntMax+1, MaxInt32]
	line numbers    0..MaxInt32        -> [MinInt32, -1]
*/
type GraphicsName int32

const HalfIntMax = math.MaxInt32 / 2

func NewGraphicsName(id ElementIdentifier) (name GraphicsName, err error) {
	if id.Number < 0 {
		err = fmt.Errorf("unable to pack negative %s number into a graphics name", id.Type)
		return
	}
	switch id.Type {
	case CMElement:
		if id.Number > HalfIntMax {
			err = fmt.Errorf("element number %d exceeds graphics name range", id.Number)
			return
		}
		name = GraphicsName(id.Number)
	case CMFace:
		if id.Number > HalfIntMax {
			err = fmt.Errorf("face number %d exceeds graphics name range", id.Number)
			return
		}
		name = GraphicsName(HalfIntMax + 1 + id.Number)
	case CMLine:
		if id.Number > math.MaxInt32 {
			err = fmt.Errorf("line number %d exceeds graphics name range", id.Number)
			return
		}
		name = GraphicsName(int64(math.MinInt32) + int64(id.Number))
	default:
		err = fmt.Errorf("unknown element type %d", id.Type)
	}
	return
}

// Identifier is the exact inverse of NewGraphicsName
func (gn GraphicsName) Identifier() (id ElementIdentifier) {
	switch {
	case gn < 0:
		id.Type = CMLine
		id.Number = int(int64(gn) - int64(math.MinInt32))
	case gn > HalfIntMax:
		id.Type = CMFace
		id.Number = int(gn) - HalfIntMax - 1
	default:
		id.Type = CMElement
		id.Number = int(gn)
	}
	return
}

/*
EdgeKey is an always positive number that stores an edge's vertices as indices in a way that can be compared
An edge between vertices [4] and [0] will always be stored as [0,4], in the ascending order of the index values
*/
type EdgeKey uint64

func NewEdgeKey(verts [2]int) (packed EdgeKey) {
	// This packs two index coordinates into two 32 bit unsigned integers to act as a hash and an indirect access method
	var (
		limit = math.MaxUint32
	)
	for _, vert := range verts {
		if vert < 0 || vert > limit {
			panic(fmt.Errorf("unable to pack two ints into a uint64, have %d and %d as inputs",
				verts[0], verts[1]))
		}
	}
	var i1, i2 int
	if verts[0] <= verts[1] {
		i1, i2 = verts[0], verts[1]
	} else {
		i1, i2 = verts[1], verts[0]
	}
	packed = EdgeKey(i1 + i2<<32)
	return
}

func (ek EdgeKey) GetVertices(rev bool) (verts [2]int) {
	var (
		enTmp EdgeKey
	)
	enTmp = ek >> 32
	verts[1] = int(enTmp)
	verts[0] = int(ek - enTmp*(1<<32))
	if rev {
		verts[0], verts[1] = verts[1], verts[0]
	}
	return
}
