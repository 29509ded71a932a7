package types

// Xi is a point in element parametric space. Components beyond the element
// dimension are kept at zero.
type Xi [3]float64

func NewXi(xi ...float64) (x Xi) {
	if len(xi) > 3 {
		panic("xi has at most three components")
	}
	copy(x[:], xi)
	return
}

func (x Xi) Add(y Xi) Xi {
	return Xi{x[0] + y[0], x[1] + y[1], x[2] + y[2]}
}

func (x Xi) Sub(y Xi) Xi {
	return Xi{x[0] - y[0], x[1] - y[1], x[2] - y[2]}
}

func (x Xi) Scale(a float64) Xi {
	return Xi{a * x[0], a * x[1], a * x[2]}
}

// Ranges is a sorted set of closed integer ranges, used for selected point
// numbers
type Ranges [][2]int

func (r Ranges) Contains(n int) bool {
	for _, rr := range r {
		if n >= rr[0] && n <= rr[1] {
			return true
		}
	}
	return false
}

// Add inserts [lo,hi] keeping the set sorted and merged
func (r Ranges) Add(lo, hi int) (out Ranges) {
	if lo > hi {
		lo, hi = hi, lo
	}
	var placed bool
	for _, rr := range r {
		switch {
		case rr[1]+1 < lo:
			out = append(out, rr)
		case hi+1 < rr[0]:
			if !placed {
				out = append(out, [2]int{lo, hi})
				placed = true
			}
			out = append(out, rr)
		default:
			lo = min(lo, rr[0])
			hi = max(hi, rr[1])
		}
	}
	if !placed {
		out = append(out, [2]int{lo, hi})
	}
	return
}
