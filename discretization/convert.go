package discretization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fegraphics/mesh"
	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/types"
	"github.com/notargets/fegraphics/utils"
)

// CornerIndexForXi returns the number of the CellCorners point of a Line,
// Square or Cube element lying at xi
func CornerIndexForXi(topo shape.Topology, n [3]int, xi types.Xi) (number int, err error) {
	if err = checkNumberInXi(topo, n); err != nil {
		return
	}
	if err = tensorOnly(topo, CellCorners); err != nil {
		return
	}
	stride := 1
	for d := 0; d < topo.Dimension(); d++ {
		idx := int(math.Round(float64(n[d]) * xi[d]))
		if idx < 0 || idx > n[d] || math.Abs(float64(idx)/float64(n[d])-xi[d]) > utils.XiTolerance {
			err = fmt.Errorf("%w: xi %v is not a cell corner of %v", ErrInvalidDiscretization, xi, n)
			return
		}
		number += idx * stride
		stride *= n[d] + 1
	}
	return
}

// NumberedXiPoint returns point number of the CellCentres or CellCorners set
// without building the whole set for tensor elements
func NumberedXiPoint(topo shape.Topology, mode Mode, n [3]int, number int) (xi types.Xi, err error) {
	var count int
	if mode != CellCentres && mode != CellCorners {
		err = fmt.Errorf("%w: numbered %s points need a Sampler", ErrInvalidDiscretization, mode)
		return
	}
	if count, err = Count(topo, mode, n); err != nil {
		return
	}
	if number < 0 || number >= count {
		err = fmt.Errorf("%w: point %d out of range [0,%d)", ErrInvalidDiscretization, number, count)
		return
	}
	if topo.Category.IsTensor() {
		rest := number
		for d := 0; d < topo.Dimension(); d++ {
			if mode == CellCentres {
				xi[d] = (float64(rest%n[d]) + 0.5) / float64(n[d])
				rest /= n[d]
			} else {
				xi[d] = float64(rest%(n[d]+1)) / float64(n[d])
				rest /= n[d] + 1
			}
		}
		return
	}
	var all []types.Xi
	if mode == CellCentres {
		all, err = CellCentresXi(topo, n)
	} else {
		all, err = CellCornersXi(topo, n)
	}
	if err != nil {
		return
	}
	return all[number], nil
}

// NumberedXiPoint returns point number of the set Generate produces with the
// element seeded generator
func (s *Sampler) NumberedXiPoint(number int) (xi types.Xi, err error) {
	var topo shape.Topology
	if topo, err = s.Topology(); err != nil {
		return
	}
	switch s.Mode {
	case CellCentres, CellCorners:
		return NumberedXiPoint(topo, s.Mode, s.NumberInXi, number)
	case ExactXi:
		if number != 0 {
			err = fmt.Errorf("%w: exact xi has only point 0, not %d", ErrInvalidDiscretization, number)
			return
		}
		return s.Exact, nil
	}
	var all []types.Xi
	if all, err = s.Generate(nil); err != nil {
		return
	}
	if number < 0 || number >= len(all) {
		err = fmt.Errorf("%w: point %d out of range [0,%d)", ErrInvalidDiscretization, number, len(all))
		return
	}
	return all[number], nil
}

// ConvertXiToParent maps points through the parentDim x (dim+1) affine map m,
// parent_j = m[j][0] + sum_k m[j][k+1]*xi_k
func ConvertXiToParent(points []types.Xi, m *mat.Dense) (parent []types.Xi) {
	var (
		pDim, nc = m.Dims()
		dim      = nc - 1
	)
	parent = make([]types.Xi, len(points))
	for p, xi := range points {
		for j := 0; j < pDim; j++ {
			v := m.At(j, 0)
			for k := 0; k < dim; k++ {
				v += m.At(j, k+1) * xi[k]
			}
			parent[p][j] = v
		}
	}
	return
}

// ConvertXiFromParent inverts ConvertXiToParent in the least squares sense
func ConvertXiFromParent(parent []types.Xi, m *mat.Dense) (points []types.Xi, err error) {
	var (
		pDim, nc = m.Dims()
		dim      = nc - 1
		sol      mat.Dense
	)
	if dim < 1 || dim > pDim {
		err = fmt.Errorf("%w: cannot invert a %dx%d xi map", ErrInvalidDiscretization, pDim, nc)
		return
	}
	if len(parent) == 0 {
		return
	}
	var (
		A   = m.Slice(0, pDim, 1, nc)
		rhs = mat.NewDense(pDim, len(parent), nil)
	)
	for p, xi := range parent {
		for j := 0; j < pDim; j++ {
			rhs.Set(j, p, xi[j]-m.At(j, 0))
		}
	}
	if err = sol.Solve(A, rhs); err != nil {
		err = fmt.Errorf("%w: singular xi map: %v", ErrInvalidDiscretization, err)
		return
	}
	points = make([]types.Xi, len(parent))
	for p := range parent {
		for k := 0; k < dim; k++ {
			points[p][k] = sol.At(k, p)
		}
	}
	return
}

// ComposeXiMaps returns the map of inner followed by outer
func ComposeXiMaps(outer, inner *mat.Dense) (m *mat.Dense) {
	var (
		ir, ic = inner.Dims()
		aug    = mat.NewDense(ir+1, ic, nil)
	)
	aug.Set(0, 0, 1)
	aug.Slice(1, ir+1, 0, ic).(*mat.Dense).Copy(inner)
	m = &mat.Dense{}
	m.Mul(outer, aug)
	return
}

// TopLevelXiMap follows first parents from elem up to its top level element
// and returns the composed xi map, nil when elem is itself top level
func TopLevelXiMap(elem mesh.Element) (top mesh.Element, m *mat.Dense, err error) {
	top = elem
	for top.Identifier().Type != types.CMElement {
		pm, ok := top.(mesh.ParentMapper)
		if !ok {
			err = fmt.Errorf("%w: %s has no parent map", ErrInvalidDiscretization, top.Identifier())
			return
		}
		parent, pmap := pm.Parent()
		if parent == nil || pmap == nil {
			err = fmt.Errorf("%w: %s has no parent", ErrInvalidDiscretization, top.Identifier())
			return
		}
		if m == nil {
			m = pmap
		} else {
			m = ComposeXiMaps(pmap, m)
		}
		top = parent
	}
	return
}

/*
TopLevelCornerNumbers maps the CellCorners points of a dim dimensional face
or line of a Square or Cube onto the corner grid of its top level element
with topN cells per direction. m is the axis aligned face to top level xi
map. The face number in xi follows from topN along the mapped directions.
*/
func TopLevelCornerNumbers(dim int, m *mat.Dense, topN [3]int) (n [3]int, numbers []int, err error) {
	var (
		topDim, nc = m.Dims()
		stride     [3]int
		offset     [3]int
		base       int
	)
	if nc != dim+1 || dim < 1 || dim >= topDim || topDim > 3 {
		err = fmt.Errorf("%w: %dx%d xi map for a %dD element", ErrInvalidDiscretization, topDim, nc, dim)
		return
	}
	s := 1
	for r := 0; r < topDim; r++ {
		if topN[r] < 1 {
			err = fmt.Errorf("%w: non-positive number in xi %v", ErrInvalidDiscretization, topN)
			return
		}
		stride[r] = s
		s *= topN[r] + 1
	}
	for r := 0; r < topDim; r++ {
		b := m.At(r, 0)
		if !utils.IsZero(b) && !utils.IsZero(b-1) {
			err = fmt.Errorf("%w: face origin %g is not on a corner", ErrInvalidDiscretization, b)
			return
		}
		base += int(math.Round(b)) * topN[r] * stride[r]
	}
	for k := 0; k < dim; k++ {
		found := false
		for r := 0; r < topDim; r++ {
			a := m.At(r, k+1)
			switch {
			case utils.IsZero(a):
				continue
			case found || !utils.IsZero(math.Abs(a)-1):
				err = fmt.Errorf("%w: face xi map is not axis aligned", ErrInvalidDiscretization)
				return
			}
			found = true
			n[k] = topN[r]
			offset[k] = stride[r]
			if a < 0 {
				offset[k] = -stride[r]
			}
		}
		if !found {
			err = fmt.Errorf("%w: face xi direction %d is degenerate", ErrInvalidDiscretization, k)
			return
		}
	}
	switch dim {
	case 1:
		numbers = make([]int, 0, n[0]+1)
		for i := 0; i <= n[0]; i++ {
			numbers = append(numbers, base+offset[0]*i)
		}
	case 2:
		numbers = make([]int, 0, (n[0]+1)*(n[1]+1))
		for i := 0; i < (n[0]+1)*(n[1]+1); i++ {
			numbers = append(numbers, base+offset[0]*(i%(n[0]+1))+offset[1]*(i/(n[0]+1)))
		}
	}
	return
}

// ConvertCornersToTopLevel returns the CellCorners points of a face or line
// expressed in its Square or Cube top level element, with their numbers in
// the top level corner grid of topN cells
func ConvertCornersToTopLevel(elem mesh.Element, topN [3]int) (top mesh.Element, xi []types.Xi, numbers []int, err error) {
	var (
		m        *mat.Dense
		topTopo  shape.Topology
		elemTopo shape.Topology
		n        [3]int
	)
	if top, m, err = TopLevelXiMap(elem); err != nil {
		return
	}
	if m == nil {
		err = fmt.Errorf("%w: %s is a top level element", ErrInvalidDiscretization, elem.Identifier())
		return
	}
	if topTopo, err = shape.Classify(top.Shape()); err != nil {
		return
	}
	if topTopo.Category != shape.Square2D && topTopo.Category != shape.Cube3D {
		err = fmt.Errorf("%w: top level corners on %s", ErrUnsupportedCategory, topTopo.Category)
		return
	}
	if elemTopo, err = shape.Classify(elem.Shape()); err != nil {
		return
	}
	if n, numbers, err = TopLevelCornerNumbers(elem.Dimension(), m, topN); err != nil {
		return
	}
	var corners []types.Xi
	if corners, err = CellCornersXi(elemTopo, n); err != nil {
		return
	}
	xi = ConvertXiToParent(corners, m)
	return
}
