package voltex

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/fegraphics/graphics"
	"github.com/notargets/fegraphics/utils"
)

func triangleIncidence(v *graphics.Voltex) utils.Incidence {
	lists := make([][]int, len(v.Triangles))
	for t, tri := range v.Triangles {
		lists[t] = tri[:]
	}
	return utils.NewIncidence(len(v.Triangles), len(v.Vertices), lists)
}

/*
Blur smooths vertex positions in place. Each pass moves every vertex with a
positive count to the average of the vertices sharing a triangle with it and
decrements the count, so a vertex with count n is moved n times. Vertices
are updated in order within a pass, later ones seeing the earlier moves.
*/
func Blur(v *graphics.Voltex, counts []int) {
	if len(v.Triangles) == 0 {
		return
	}
	var (
		neighbours = triangleIncidence(v).Neighbors()
		left       = make([]int, len(v.Vertices))
		again      = true
	)
	copy(left, counts)
	for again {
		again = false
		for i := range v.Vertices {
			if left[i] <= 0 {
				continue
			}
			if left[i] > 1 {
				again = true
			}
			left[i]--
			nbrs := neighbours[i]
			if len(nbrs) == 0 {
				continue
			}
			var sum r3.Vec
			for _, j := range nbrs {
				sum = r3.Add(sum, v.Vertices[j].Position)
			}
			v.Vertices[i].Position = r3.Scale(1/float64(len(nbrs)), sum)
		}
	}
}

// Normals sets each vertex normal to the negated, normalised sum of the
// unnormalised normals of the triangles using it, or (1,0,0) where that sum
// vanishes
func Normals(v *graphics.Voltex) {
	if len(v.Triangles) == 0 {
		for i := range v.Vertices {
			v.Vertices[i].Normal = r3.Vec{X: 1}
		}
		return
	}
	var (
		byVertex = triangleIncidence(v).Transpose()
		tris     = v.TriangleList()
	)
	for i := range v.Vertices {
		var sum r3.Vec
		for _, t := range byVertex.Row(i) {
			sum = r3.Add(sum, tris[t].Cross())
		}
		if n := r3.Norm(sum); n > utils.NormalTolerance {
			v.Vertices[i].Normal = r3.Scale(-1/n, sum)
		} else {
			v.Vertices[i].Normal = r3.Vec{X: 1}
		}
	}
}
