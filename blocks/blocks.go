package blocks

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

var ErrIncompleteBlock = errors.New("element block incomplete")

// IncompleteBlockError reports cells the flood fill could not reach; the
// block it accompanies is still usable
type IncompleteBlockError struct {
	N       [3]int
	Missing int
}

func (e *IncompleteBlockError) Error() string {
	return fmt.Sprintf("%v: %d of %d cells empty", ErrIncompleteBlock, e.Missing, e.N[0]*e.N[1]*e.N[2])
}

func (e *IncompleteBlockError) Unwrap() error { return ErrIncompleteBlock }

/*
Block is a logical n0 x n1 x n2 grid of elements discovered from a seed
element through +xi adjacency. Cells are indexed k*n0*n1 + j*n0 + i.
Adjacency holds six slots per cell, slots 1, 3 and 5 carry the number of the
element across the +xi1, +xi2 and +xi3 faces (0 for none) and the others
stay zero.
*/
type Block struct {
	N         [3]int
	Elements  []mesh.Element
	Adjacency []int
}

// Index is the linear cell offset of (i,j,k)
func (b *Block) Index(i, j, k int) int { return k*b.N[0]*b.N[1] + j*b.N[0] + i }

// At returns the element in cell (i,j,k), nil when empty or out of range
func (b *Block) At(i, j, k int) mesh.Element {
	if i < 0 || j < 0 || k < 0 || i >= b.N[0] || j >= b.N[1] || k >= b.N[2] {
		return nil
	}
	return b.Elements[b.Index(i, j, k)]
}

// Neighbour returns the recorded element number across face 1, 3 or 5 of a cell
func (b *Block) Neighbour(i, j, k, face int) int {
	return b.Adjacency[6*b.Index(i, j, k)+face]
}

func (b *Block) Complete() bool {
	for _, e := range b.Elements {
		if e == nil {
			return false
		}
	}
	return true
}

func (b *Block) missing() (n int) {
	for _, e := range b.Elements {
		if e == nil {
			n++
		}
	}
	return
}

type cell struct {
	i, j, k int
	elem    mesh.Element
}

/*
Resolve fills a block of n cells starting with seed at (0,0,0) and walking
the first element adjacent across faces 1, 3 and 5 depth first. A cell is
filled once, so periodic meshes terminate. When cells remain empty the block
is returned along with an *IncompleteBlockError.
*/
func Resolve(seed mesh.Element, n [3]int) (b *Block, err error) {
	if seed == nil {
		err = fmt.Errorf("no seed element for block")
		return
	}
	for d := 0; d < 3; d++ {
		if n[d] < 1 {
			err = fmt.Errorf("invalid block size %v", n)
			return
		}
	}
	ncells := n[0] * n[1] * n[2]
	b = &Block{
		N:         n,
		Elements:  make([]mesh.Element, ncells),
		Adjacency: make([]int, 6*ncells),
	}
	var (
		visited = make([]bool, ncells)
		stack   = []cell{{0, 0, 0, seed}}
		steps   = [3][3]int{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	)
	for len(stack) != 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if c.i >= n[0] || c.j >= n[1] || c.k >= n[2] {
			continue
		}
		idx := b.Index(c.i, c.j, c.k)
		if visited[idx] {
			continue
		}
		visited[idx] = true
		b.Elements[idx] = c.elem
		// push +xi3 first so +xi1 is walked first
		for d := 2; d >= 0; d-- {
			adj := c.elem.Adjacent(2*d + 1)
			if len(adj) == 0 {
				continue
			}
			b.Adjacency[6*idx+2*d+1] = adj[0].Identifier().Number
			stack = append(stack, cell{c.i + steps[d][0], c.j + steps[d][1], c.k + steps[d][2], adj[0]})
		}
	}
	if missing := b.missing(); missing != 0 {
		err = &IncompleteBlockError{N: n, Missing: missing}
	}
	return
}

/*
Locate returns the element containing the block xi position and the local
xi within it. Indices are floored and clamped into the block; an empty cell
falls back to the filled cell whose origin is nearest to xi, the first found
in scan order winning ties. ok is false only for a block with no elements.
*/
func (b *Block) Locate(xi types.Xi) (e mesh.Element, local types.Xi, ok bool) {
	var idx [3]int
	for d := 0; d < 3; d++ {
		idx[d] = utils.ClampInt(int(math.Floor(xi[d])), 0, b.N[d]-1)
	}
	if e = b.At(idx[0], idx[1], idx[2]); e == nil {
		best := math.Inf(1)
		for a := 0; a < b.N[0]; a++ {
			for bb := 0; bb < b.N[1]; bb++ {
				for c := 0; c < b.N[2]; c++ {
					if b.At(a, bb, c) == nil {
						continue
					}
					da, db, dc := xi[0]-float64(a), xi[1]-float64(bb), xi[2]-float64(c)
					if dist := da*da + db*db + dc*dc; dist < best {
						best, idx = dist, [3]int{a, bb, c}
					}
				}
			}
		}
		if e = b.At(idx[0], idx[1], idx[2]); e == nil {
			return
		}
	}
	for d := 0; d < 3; d++ {
		local[d] = xi[d] - float64(idx[d])
	}
	return e, local, true
}
