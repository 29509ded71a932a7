package utils

import (
	"sort"

	"github.com/james-bowman/sparse"
)

// Incidence is a sparse 0/1 connectivity matrix, for example triangles to
// vertices or elements to nodes
type Incidence struct {
	M *sparse.CSR
}

// NewIncidence builds an nr x nc incidence with ones at (r, c) for each c in
// lists[r]; repeated entries count once
func NewIncidence(nr, nc int, lists [][]int) (inc Incidence) {
	dok := sparse.NewDOK(nr, nc)
	for r, cols := range lists {
		for _, c := range cols {
			dok.Set(r, c, 1)
		}
	}
	inc.M = dok.ToCSR()
	return
}

func (inc Incidence) Dims() (r, c int) { return inc.M.Dims() }

// Transpose returns the column to row incidence
func (inc Incidence) Transpose() (T Incidence) {
	var (
		nr, nc = inc.M.Dims()
		raw    = inc.M.RawMatrix()
		dok    = sparse.NewDOK(nc, nr)
	)
	for i := 0; i < nr; i++ {
		for p := raw.Indptr[i]; p < raw.Indptr[i+1]; p++ {
			dok.Set(raw.Ind[p], i, raw.Data[p])
		}
	}
	T.M = dok.ToCSR()
	return
}

// Row returns the sorted column indices of the nonzeros in row i
func (inc Incidence) Row(i int) (cols []int) {
	return rowOf(inc.M, i)
}

func rowOf(M *sparse.CSR, i int) (cols []int) {
	raw := M.RawMatrix()
	for p := raw.Indptr[i]; p < raw.Indptr[i+1]; p++ {
		if raw.Data[p] != 0 {
			cols = append(cols, raw.Ind[p])
		}
	}
	sort.Ints(cols)
	return
}

// Neighbors returns, for every column, the sorted list of other columns that
// share at least one row with it: for triangles to vertices these are the
// vertices joined to a vertex by a triangle
func (inc Incidence) Neighbors() (nbrs [][]int) {
	var (
		_, nc = inc.M.Dims()
		CToC  = sparse.NewCSR(nc, nc, nil, nil, nil)
	)
	CToC.Mul(inc.M.T(), inc.M)
	nbrs = make([][]int, nc)
	for c := 0; c < nc; c++ {
		for _, j := range rowOf(CToC, c) {
			if j != c {
				nbrs[c] = append(nbrs[c], j)
			}
		}
	}
	return
}
