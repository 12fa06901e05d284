// Package returns computes equity cash flow vectors and internal rates of
// return for assets and the consolidated portfolio.
package returns

import "math"

// Newton-Raphson parameters for the IRR root-find.
const (
	// DefaultGuess is the starting rate when callers have no better prior.
	DefaultGuess = 0.10
	// ConvergenceTolerance bounds |NPV| at the solution and the minimum
	// usable derivative magnitude.
	ConvergenceTolerance = 1e-6
	// MaxIterations caps the root-find.
	MaxIterations = 1000
	// Rates outside (RateFloor, RateCeiling) are not economically
	// meaningful; leaving the band aborts the solve.
	RateFloor   = -0.99
	RateCeiling = 5.0
)

// NPV returns the net present value of the cash flow vector at rate r,
// discounting entry j by (1+r)^j.
func NPV(cashflows []float64, r float64) float64 {
	var npv float64
	for j, cf := range cashflows {
		npv += cf / math.Pow(1+r, float64(j))
	}
	return npv
}

// npvDerivative returns d(NPV)/dr analytically.
func npvDerivative(cashflows []float64, r float64) float64 {
	var d float64
	for j, cf := range cashflows {
		if j == 0 {
			continue
		}
		d += -float64(j) * cf / (math.Pow(1+r, float64(j)) * (1 + r))
	}
	return d
}

// SolveIRR finds the internal rate of return of the cash flow vector by
// Newton-Raphson, starting from guess. It returns nil when no meaningful IRR
// exists or the search does not converge; callers must treat nil as "IRR not
// meaningful", never as an error.
//
// Preconditions for a meaningful IRR: at least two entries, a negative first
// entry (the investment), and at least one later positive inflow. An
// unconverged search returns nil rather than a guessed value - there is
// deliberately no bisection fallback.
func SolveIRR(cashflows []float64, guess float64) *float64 {
	if len(cashflows) < 2 {
		return nil
	}
	if cashflows[0] >= 0 {
		return nil
	}
	hasInflow := false
	for _, cf := range cashflows[1:] {
		if cf > 0 {
			hasInflow = true
			break
		}
	}
	if !hasInflow {
		return nil
	}

	rate := guess
	for i := 0; i < MaxIterations; i++ {
		npv := NPV(cashflows, rate)
		if math.Abs(npv) < ConvergenceTolerance {
			return &rate
		}

		derivative := npvDerivative(cashflows, rate)
		if math.Abs(derivative) < ConvergenceTolerance {
			// Stationary point: Newton step is meaningless
			return nil
		}

		rate -= npv / derivative
		if rate <= RateFloor || rate >= RateCeiling {
			return nil
		}
	}

	return nil
}
