package graphics

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

const stlTriangleSize = 50

type stlHeader struct {
	_     [80]uint8
	Count uint32
}

type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
}

func (t stlTriangle) put(b []byte) {
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte) {
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
}

func put3F32(b []byte, f [3]float32) {
	_ = b[11]
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11]
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

func f32(v r3.Vec) [3]float32 { return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)} }

func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

// normal32 is the unit triangle normal in single precision
func normal32(a, b, c [3]float32) (n [3]float32) {
	u := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n = [3]float32{u[1]*v[2] - u[2]*v[1], u[2]*v[0] - u[0]*v[2], u[0]*v[1] - u[1]*v[0]}
	if l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2]); l > 0 {
		n[0], n[1], n[2] = n[0]/l, n[1]/l, n[2]/l
	}
	return
}

// WriteSTL writes triangles in binary STL format
func WriteSTL(w io.Writer, model []Triangle) error {
	if len(model) == 0 {
		return errors.New("empty triangle slice")
	}
	header := stlHeader{Count: uint32(len(model))}
	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return err
	}
	var (
		d   stlTriangle
		buf [stlTriangleSize]byte
	)
	for i, tri := range model {
		d.Vertex1, d.Vertex2, d.Vertex3 = f32(tri.V[0]), f32(tri.V[1]), f32(tri.V[2])
		if bad3F32(d.Vertex1) || bad3F32(d.Vertex2) || bad3F32(d.Vertex3) {
			return fmt.Errorf("triangle %d has a non finite vertex", i)
		}
		d.Normal = normal32(d.Vertex1, d.Vertex2, d.Vertex3)
		d.put(buf[:])
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// ReadSTL reads a binary STL file written by WriteSTL
func ReadSTL(r io.Reader) (model []Triangle, err error) {
	var header stlHeader
	if err = binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("STL header read failed: %w", err)
	}
	var (
		buf [stlTriangleSize]byte
		d   stlTriangle
	)
	for i := 0; i < int(header.Count); i++ {
		if _, err = io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("%d/%d STL triangles read: %w", i, header.Count, err)
		}
		d.get(buf[:])
		model = append(model, Triangle{V: [3]r3.Vec{vec(d.Vertex1), vec(d.Vertex2), vec(d.Vertex3)}})
	}
	return
}

func vec(f [3]float32) r3.Vec { return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])} }
