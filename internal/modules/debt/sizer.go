package debt

import (
	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
)

// Sizer sizes non-recourse project debt against pre-financing cash flows.
type Sizer struct {
	log zerolog.Logger
}

// NewSizer creates a new debt sizer.
func NewSizer(log zerolog.Logger) *Sizer {
	return &Sizer{
		log: log.With().Str("service", "debt_sizer").Logger(),
	}
}

// Size sizes debt for one asset given its capex and pre-financing cash flows.
//
// Amortization mode applies a fixed-gearing loan at MaxGearing and schedules
// level payments. Sculpting mode solves for the maximum debt amount that can
// be fully repaid inside the tenor while honoring the DSCR ceiling each year.
// An infeasible sculpting constraint degrades to zero debt; it is never fatal.
func (s *Sizer) Size(capex float64, cashflows []domain.PeriodCashFlow, p Params) Schedule {
	if capex <= 0 {
		s.log.Warn().Float64("capex", capex).Msg("Non-positive capex, sizing zero debt")
		return zeroSchedule(scheduleTenor(p.TenorYears, len(cashflows)))
	}
	if p.TenorYears > len(cashflows) {
		s.log.Debug().
			Int("tenor_years", p.TenorYears).
			Int("periods", len(cashflows)).
			Msg("Cash flow history shorter than tenor, truncating schedule")
	}

	var schedule Schedule
	switch p.Structure {
	case domain.DebtStructureAmortization:
		schedule = buildAmortized(capex*p.MaxGearing, cashflows, p)
	default:
		schedule = s.solveMaxDebt(capex, cashflows, p)
	}

	if capex > 0 {
		schedule.Gearing = schedule.DebtAmount / capex
	}
	return schedule
}

// solveMaxDebt finds the maximum sculpted debt amount that yields a feasible
// (fully repaid) schedule, by binary search over [0, capex*MaxGearing].
//
// Feasibility is monotonic in the debt amount - more debt is strictly harder
// to fully repay under the same DSCR ceiling - so the search converges on the
// boundary. The loop keeps explicit lower/upper/best state and a hard
// iteration cap for auditability.
func (s *Sizer) solveMaxDebt(capex float64, cashflows []domain.PeriodCashFlow, p Params) Schedule {
	lower := 0.0
	upper := capex * p.MaxGearing
	best := zeroSchedule(scheduleTenor(p.TenorYears, len(cashflows)))

	if upper <= 0 {
		return best
	}

	for i := 0; i < MaxSearchIterations && upper-lower > SearchTolerance; i++ {
		mid := (lower + upper) / 2
		candidate := buildSculpted(mid, cashflows, p)

		if candidate.FullyRepaid {
			best = candidate
			lower = mid
		} else {
			upper = mid
		}
	}

	if best.DebtAmount == 0 {
		s.log.Warn().
			Float64("capex", capex).
			Float64("max_gearing", p.MaxGearing).
			Msg("No feasible sculpted schedule at any debt amount, falling back to zero debt")
	}

	return best
}
