package statistics

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var ErrNegativeMean = errors.New("negative mean for Poisson distribution")

// AtkinsonThreshold is the mean at and above which the rejection method is used
const AtkinsonThreshold = 30.

// elementStream separates element seeded streams from other PCG users
const elementStream = 0x5eed_e1e7

// NewElementRand returns a generator seeded from an element number, so that
// repeated sampling of the same element reproduces the same points
func NewElementRand(number int) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(number), elementStream))
}

// SamplePoisson draws a sample from a Poisson distribution with the given mean
func SamplePoisson(mean float64, rng *rand.Rand) (n int, err error) {
	switch {
	case mean < 0:
		err = fmt.Errorf("%w: %g", ErrNegativeMean, mean)
	case mean < AtkinsonThreshold:
		n = poissonProduct(mean, rng)
	default:
		n = poissonAtkinson(mean, rng)
	}
	return
}

func poissonProduct(mean float64, rng *rand.Rand) (n int) {
	var (
		limit = math.Exp(-mean)
		p     = rng.Float64()
	)
	for p >= limit {
		n++
		p *= rng.Float64()
	}
	return
}

/*
Atkinson's rejection method with a logistic envelope, from
"The Computer Generation of Poisson Random Variables", A. C. Atkinson,
Journal of the Royal Statistical Society Series C, 1979.
*/
func poissonAtkinson(mean float64, rng *rand.Rand) (n int) {
	var (
		c     = 0.767 - 3.36/mean
		beta  = math.Pi / math.Sqrt(3*mean)
		alpha = beta * mean
		k     = math.Log(c) - mean - math.Log(beta)
		lnM   = math.Log(mean)
	)
	for {
		u := openUniform(rng)
		x := (alpha - math.Log((1-u)/u)) / beta
		n = int(math.Floor(x + 0.5))
		if n < 0 {
			continue
		}
		v := openUniform(rng)
		y := alpha - beta*x
		t := 1 + math.Exp(y)
		lhs := y + math.Log(v/(t*t))
		rhs := k + float64(n)*lnM - LogFactorial(n)
		if lhs <= rhs {
			return
		}
	}
}

func openUniform(rng *rand.Rand) (u float64) {
	for u == 0 {
		u = rng.Float64()
	}
	return
}

// LogFactorial is ln(n!) using Stirling's series above a small exact table
func LogFactorial(n int) float64 {
	if n < len(logFactorials) {
		return logFactorials[n]
	}
	x := float64(n)
	return x*math.Log(x) - x + 0.5*math.Log(2*math.Pi*x) + 1/(12*x) - 1/(360*x*x*x)
}

var logFactorials = func() (lf [10]float64) {
	for i := 2; i < len(lf); i++ {
		lf[i] = lf[i-1] + math.Log(float64(i))
	}
	return
}()
