package discretization

import (
	"errors"
	"fmt"

	"github.com/notargets/fegraphics/shape"
	"github.com/notargets/fegraphics/types"
)

var (
	ErrInvalidDiscretization = errors.New("invalid discretization")
	ErrUnsupportedCategory   = errors.New("discretization mode not supported for element shape")
	ErrAllocation            = errors.New("too many xi points")
)

// MaxPoints bounds the number of xi points a single request may produce
var MaxPoints = 1 << 24

// Mode selects how xi points are laid out in an element
type Mode uint8

const (
	CellCentres Mode = iota
	CellCorners
	CellDensity
	CellPoisson
	CellRandom
	ExactXi
)

func (m Mode) String() string {
	switch m {
	case CellCentres:
		return "cell_centres"
	case CellCorners:
		return "cell_corners"
	case CellDensity:
		return "cell_density"
	case CellPoisson:
		return "cell_poisson"
	case CellRandom:
		return "cell_random"
	case ExactXi:
		return "exact_xi"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

func ParseMode(s string) (m Mode, err error) {
	for m = CellCentres; m <= ExactXi; m++ {
		if m.String() == s {
			return
		}
	}
	err = fmt.Errorf("%w: unknown mode %q", ErrInvalidDiscretization, s)
	return
}

// Random reports whether the mode places points pseudo randomly
func (m Mode) Random() bool {
	return m == CellDensity || m == CellPoisson || m == CellRandom
}

func checkNumberInXi(topo shape.Topology, n [3]int) (err error) {
	for d := 0; d < topo.Dimension(); d++ {
		if n[d] < 1 {
			return fmt.Errorf("%w: non-positive number in xi %v", ErrInvalidDiscretization, n)
		}
	}
	return
}

// simplexNumber is the largest number in xi over the linked simplex directions
func simplexNumber(topo shape.Topology, n [3]int) (ns int) {
	switch topo.Category {
	case shape.Triangle2D:
		ns = max(n[0], n[1])
	case shape.Tetrahedron3D:
		ns = max(n[0], n[1], n[2])
	case shape.TriangleLine3D:
		ns = max(n[topo.Linked[0]], n[topo.Linked[1]])
	}
	return
}

func triangular(n float64) float64  { return n * (n + 1) / 2 }
func tetrahedral(n float64) float64 { return n * (n + 1) * (n + 2) / 6 }

func countCentres(topo shape.Topology, n [3]int) float64 {
	var (
		f      = [3]float64{float64(n[0]), float64(n[1]), float64(n[2])}
		ns     = float64(simplexNumber(topo, n))
		a, b   = topo.Linked[0], topo.Linked[1]
		l      = topo.LineDirection
		around = float64(n[a] * topo.PolygonSides)
	)
	switch topo.Category {
	case shape.Line1D:
		return f[0]
	case shape.Square2D:
		return f[0] * f[1]
	case shape.Triangle2D:
		return ns * ns
	case shape.Polygon2D:
		return around * f[b]
	case shape.Cube3D:
		return f[0] * f[1] * f[2]
	case shape.Tetrahedron3D:
		// upright sub-tetrahedra plus four per sub-octahedron
		return tetrahedral(ns) + 4*tetrahedral(ns-1)
	case shape.TriangleLine3D:
		return ns * ns * f[l]
	case shape.PolygonLine3D:
		return around * f[b] * f[l]
	}
	panic("unknown element category")
}

func countCorners(topo shape.Topology, n [3]int) float64 {
	var (
		f      = [3]float64{float64(n[0]), float64(n[1]), float64(n[2])}
		ns     = float64(simplexNumber(topo, n))
		a, b   = topo.Linked[0], topo.Linked[1]
		l      = topo.LineDirection
		around = float64(n[a] * topo.PolygonSides)
	)
	switch topo.Category {
	case shape.Line1D:
		return f[0] + 1
	case shape.Square2D:
		return (f[0] + 1) * (f[1] + 1)
	case shape.Triangle2D:
		return triangular(ns + 1)
	case shape.Polygon2D:
		return around * (f[b] + 1)
	case shape.Cube3D:
		return (f[0] + 1) * (f[1] + 1) * (f[2] + 1)
	case shape.Tetrahedron3D:
		return tetrahedral(ns + 1)
	case shape.TriangleLine3D:
		return triangular(ns+1) * (f[l] + 1)
	case shape.PolygonLine3D:
		return around * (f[b] + 1) * (f[l] + 1)
	}
	panic("unknown element category")
}

func checkCount(count float64) (n int, err error) {
	if count > float64(MaxPoints) {
		err = fmt.Errorf("%w: %g requested, limit %d", ErrAllocation, count, MaxPoints)
		return
	}
	return int(count), nil
}

func tensorOnly(topo shape.Topology, mode Mode) (err error) {
	switch topo.Category {
	case shape.Line1D, shape.Square2D, shape.Cube3D:
		return
	}
	return fmt.Errorf("%w: %s on %s", ErrUnsupportedCategory, mode, topo.Category)
}

// Count returns the number of points the deterministic modes and CellRandom
// produce. Density and Poisson counts depend on field values, use
// Sampler.Count for those.
func Count(topo shape.Topology, mode Mode, n [3]int) (count int, err error) {
	if err = checkNumberInXi(topo, n); err != nil {
		return
	}
	switch mode {
	case CellCentres:
		return checkCount(countCentres(topo, n))
	case CellCorners:
		return checkCount(countCorners(topo, n))
	case CellRandom:
		if err = tensorOnly(topo, mode); err != nil {
			return
		}
		return checkCount(countCentres(topo, n))
	case ExactXi:
		return 1, nil
	case CellDensity, CellPoisson:
		err = fmt.Errorf("%w: %s point count depends on field values", ErrInvalidDiscretization, mode)
	default:
		err = fmt.Errorf("%w: unknown mode %d", ErrInvalidDiscretization, mode)
	}
	return
}

// CellCentresXi places one point at the centre of every uniform cell. Simplex
// shapes are divided into upright and reversed sub-simplices, polygons use
// number in xi times the side count around.
func CellCentresXi(topo shape.Topology, n [3]int) (xi []types.Xi, err error) {
	var count int
	if count, err = Count(topo, CellCentres, n); err != nil {
		return
	}
	xi = make([]types.Xi, 0, count)
	var (
		ns     = simplexNumber(topo, n)
		fs     = float64(ns)
		a, b   = topo.Linked[0], topo.Linked[1]
		l      = topo.LineDirection
		around = n[a] * topo.PolygonSides
		centre = func(i, n int) float64 { return (float64(i) + 0.5) / float64(n) }
	)
	// triangle rows over the linked pair, upright then reversed
	triangle := func(base types.Xi) {
		for j := 0; j < ns; j++ {
			for i := 0; i < ns-j; i++ {
				p := base
				p[a], p[b] = (float64(i)+1./3.)/fs, (float64(j)+1./3.)/fs
				xi = append(xi, p)
			}
		}
		for j := 1; j < ns; j++ {
			for i := 1; i < ns-j+1; i++ {
				p := base
				p[a], p[b] = (float64(i)-1./3.)/fs, (float64(j)-1./3.)/fs
				xi = append(xi, p)
			}
		}
	}
	switch topo.Category {
	case shape.Line1D:
		for i := 0; i < n[0]; i++ {
			xi = append(xi, types.Xi{centre(i, n[0])})
		}
	case shape.Square2D:
		for j := 0; j < n[1]; j++ {
			for i := 0; i < n[0]; i++ {
				xi = append(xi, types.Xi{centre(i, n[0]), centre(j, n[1])})
			}
		}
	case shape.Triangle2D:
		triangle(types.Xi{})
	case shape.Polygon2D:
		for j := 0; j < n[b]; j++ {
			for i := 0; i < around; i++ {
				xi = append(xi, types.Xi{centre(i, around), centre(j, n[b])})
			}
		}
	case shape.Cube3D:
		for k := 0; k < n[2]; k++ {
			for j := 0; j < n[1]; j++ {
				for i := 0; i < n[0]; i++ {
					xi = append(xi, types.Xi{centre(i, n[0]), centre(j, n[1]), centre(k, n[2])})
				}
			}
		}
	case shape.Tetrahedron3D:
		// upright sub-tetrahedra
		for k := 0; k < ns; k++ {
			for j := 0; j < ns-k; j++ {
				for i := 0; i < ns-k-j; i++ {
					xi = append(xi, types.Xi{(float64(i) + .25) / fs, (float64(j) + .25) / fs, (float64(k) + .25) / fs})
				}
			}
		}
		// each octahedron is split along its xi0 axis into four tetrahedra
		for _, off := range [4][3]float64{
			{-.75, -.5, -.5}, {-.5, -.75, -.25}, {-.5, -.25, -.75}, {-.25, -.5, -.5},
		} {
			for k := 1; k < ns; k++ {
				for j := 1; j < ns-k+1; j++ {
					for i := 1; i < ns-k-j+2; i++ {
						xi = append(xi, types.Xi{
							(float64(i) + off[0]) / fs, (float64(j) + off[1]) / fs, (float64(k) + off[2]) / fs})
					}
				}
			}
		}
	case shape.TriangleLine3D:
		for k := 0; k < n[l]; k++ {
			var base types.Xi
			base[l] = centre(k, n[l])
			triangle(base)
		}
	case shape.PolygonLine3D:
		for k := 0; k < n[l]; k++ {
			for j := 0; j < n[b]; j++ {
				for i := 0; i < around; i++ {
					var p types.Xi
					p[a], p[b], p[l] = centre(i, around), centre(j, n[b]), centre(k, n[l])
					xi = append(xi, p)
				}
			}
		}
	default:
		panic("unknown element category")
	}
	return
}

// CellCornersXi places a point at every corner of the uniform cells. Polygon
// rings omit the duplicate point at xi around = 1.
func CellCornersXi(topo shape.Topology, n [3]int) (xi []types.Xi, err error) {
	var count int
	if count, err = Count(topo, CellCorners, n); err != nil {
		return
	}
	xi = make([]types.Xi, 0, count)
	var (
		ns     = simplexNumber(topo, n)
		fs     = float64(ns)
		a, b   = topo.Linked[0], topo.Linked[1]
		l      = topo.LineDirection
		around = n[a] * topo.PolygonSides
		corner = func(i, n int) float64 { return float64(i) / float64(n) }
	)
	triangle := func(base types.Xi) {
		for j := 0; j <= ns; j++ {
			for i := 0; i <= ns-j; i++ {
				p := base
				p[a], p[b] = float64(i)/fs, float64(j)/fs
				xi = append(xi, p)
			}
		}
	}
	switch topo.Category {
	case shape.Line1D:
		for i := 0; i <= n[0]; i++ {
			xi = append(xi, types.Xi{corner(i, n[0])})
		}
	case shape.Square2D:
		for j := 0; j <= n[1]; j++ {
			for i := 0; i <= n[0]; i++ {
				xi = append(xi, types.Xi{corner(i, n[0]), corner(j, n[1])})
			}
		}
	case shape.Triangle2D:
		triangle(types.Xi{})
	case shape.Polygon2D:
		for j := 0; j <= n[b]; j++ {
			for i := 0; i < around; i++ {
				xi = append(xi, types.Xi{corner(i, around), corner(j, n[b])})
			}
		}
	case shape.Cube3D:
		for k := 0; k <= n[2]; k++ {
			for j := 0; j <= n[1]; j++ {
				for i := 0; i <= n[0]; i++ {
					xi = append(xi, types.Xi{corner(i, n[0]), corner(j, n[1]), corner(k, n[2])})
				}
			}
		}
	case shape.Tetrahedron3D:
		for k := 0; k <= ns; k++ {
			for j := 0; j <= ns-k; j++ {
				for i := 0; i <= ns-k-j; i++ {
					xi = append(xi, types.Xi{float64(i) / fs, float64(j) / fs, float64(k) / fs})
				}
			}
		}
	case shape.TriangleLine3D:
		for k := 0; k <= n[l]; k++ {
			var base types.Xi
			base[l] = corner(k, n[l])
			triangle(base)
		}
	case shape.PolygonLine3D:
		for k := 0; k <= n[l]; k++ {
			for j := 0; j <= n[b]; j++ {
				for i := 0; i < around; i++ {
					var p types.Xi
					p[a], p[b], p[l] = corner(i, around), corner(j, n[b]), corner(k, n[l])
					xi = append(xi, p)
				}
			}
		}
	default:
		panic("unknown element category")
	}
	return
}
