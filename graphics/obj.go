package graphics

import (
	"bufio"
	"fmt"
	"io"
)

// WriteOBJ writes triangulated primitives as a Wavefront OBJ file, one group
// per graphics name; primitives that do not triangulate are skipped
func WriteOBJ(w io.Writer, prims []Primitive) (err error) {
	var (
		bw   = bufio.NewWriter(w)
		base = 1
	)
	for _, p := range prims {
		tri, ok := p.(Triangulator)
		if !ok {
			continue
		}
		tris := tri.TriangleList()
		if len(tris) == 0 {
			continue
		}
		fmt.Fprintf(bw, "g %s_%d\n", p.Kind(), int32(p.Name()))
		for _, t := range tris {
			for _, v := range t.V {
				fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
			}
		}
		for range tris {
			fmt.Fprintf(bw, "f %d %d %d\n", base, base+1, base+2)
			base += 3
		}
	}
	return bw.Flush()
}
