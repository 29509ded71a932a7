package utils

const (
	// ZeroTolerance is the magnitude below which a field value or determinant
	// is treated as zero
	ZeroTolerance = 1.e-12
	// XiTolerance is the allowed mismatch when matching xi to grid corners
	XiTolerance = 1.e-4
	// NormalTolerance is the smallest accumulated normal that is normalised
	NormalTolerance = 1.e-10
)

// IsZero reports whether |a| is within ZeroTolerance
func IsZero(a float64) bool {
	return a < ZeroTolerance && a > -ZeroTolerance
}

// ClampInt clamps i into [lo,hi]
func ClampInt(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
