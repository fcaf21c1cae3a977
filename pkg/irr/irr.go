// Package irr solves for the internal rate of return of periodic cash flows.
package irr

import (
	"math"

	"github.com/iwvelando/cre-underwriter/pkg/constants"
)

// Options controls the Newton-Raphson iteration.
type Options struct {
	Guess         float64
	Tolerance     float64
	MaxIterations int
}

// DefaultOptions returns the solver defaults (10% guess, 1e-4 tolerance, 100 iterations).
func DefaultOptions() Options {
	return Options{
		Guess:         constants.DefaultIRRGuess,
		Tolerance:     constants.DefaultIRRTolerance,
		MaxIterations: constants.DefaultIRRMaxIterations,
	}
}

func (o Options) normalized() Options {
	defaults := DefaultOptions()
	if o.Tolerance <= 0 {
		o.Tolerance = defaults.Tolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaults.MaxIterations
	}
	if o.Guess <= constants.IRRLowerBound || o.Guess >= constants.IRRUpperBound {
		o.Guess = defaults.Guess
	}
	return o
}

// NPV discounts cashFlows at rate; cashFlows[j] is received at the end of period j.
func NPV(rate float64, cashFlows []float64) float64 {
	npv := 0.0
	for j, cf := range cashFlows {
		npv += cf / math.Pow(1+rate, float64(j))
	}
	return npv
}

// dNPV is the first derivative of NPV with respect to rate.
func dNPV(rate float64, cashFlows []float64) float64 {
	d := 0.0
	for j, cf := range cashFlows {
		if j == 0 {
			continue
		}
		d -= float64(j) * cf / math.Pow(1+rate, float64(j+1))
	}
	return d
}

// Solve returns the IRR of cashFlows using DefaultOptions.
func Solve(cashFlows []float64) *float64 {
	return SolveWithOptions(cashFlows, DefaultOptions())
}

// SolveWithOptions runs Newton-Raphson from opts.Guess. It returns nil when the
// flows never change sign, when the derivative vanishes, or when the rate leaves
// (-0.99, 10). When the iteration budget runs out the last estimate is returned,
// so a non-nil result is not proof of convergence.
func SolveWithOptions(cashFlows []float64, opts Options) *float64 {
	if !hasSignChange(cashFlows) {
		return nil
	}
	opts = opts.normalized()

	rate := opts.Guess
	for i := 0; i < opts.MaxIterations; i++ {
		derivative := dNPV(rate, cashFlows)
		if derivative == 0 || math.IsNaN(derivative) {
			return nil
		}
		next := rate - NPV(rate, cashFlows)/derivative
		if math.IsNaN(next) || next <= constants.IRRLowerBound || next >= constants.IRRUpperBound {
			return nil
		}
		if math.Abs(next-rate) < opts.Tolerance {
			return &next
		}
		rate = next
	}
	return &rate
}

// EquityMultiple is total inflows over total outflows, nil when nothing was invested.
func EquityMultiple(cashFlows []float64) *float64 {
	in, out := 0.0, 0.0
	for _, cf := range cashFlows {
		if cf > 0 {
			in += cf
		} else {
			out -= cf
		}
	}
	if out == 0 {
		return nil
	}
	m := in / out
	return &m
}

func hasSignChange(cashFlows []float64) bool {
	positive, negative := false, false
	for _, cf := range cashFlows {
		if cf > 0 {
			positive = true
		} else if cf < 0 {
			negative = true
		}
	}
	return positive && negative
}
