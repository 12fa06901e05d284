package debt

import (
	"math"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
)

// AnnuityPayment returns the level annual payment for principal p at rate r
// over n years: p*r*(1+r)^n / ((1+r)^n - 1). When r is 0 the payment is p/n.
func AnnuityPayment(p, r float64, n int) float64 {
	if n <= 0 || p <= 0 {
		return 0
	}
	if r == 0 {
		return p / float64(n)
	}
	growth := math.Pow(1+r, float64(n))
	return p * r * growth / (growth - 1)
}

// buildAmortized builds a level-payment schedule for the given debt amount.
// The tenor is truncated to the available cash flow history; the final
// period's principal is clamped so the balance closes at exactly zero.
func buildAmortized(debtAmount float64, cashflows []domain.PeriodCashFlow, p Params) Schedule {
	tenor := scheduleTenor(p.TenorYears, len(cashflows))
	if tenor == 0 || debtAmount <= 0 {
		return zeroSchedule(tenor)
	}

	payment := AnnuityPayment(debtAmount, p.InterestRate, tenor)

	s := zeroSchedule(tenor)
	s.DebtAmount = debtAmount
	s.FullyRepaid = false

	opening := debtAmount
	for i := 0; i < tenor; i++ {
		interest := opening * p.InterestRate
		principal := payment - interest
		if principal > opening {
			principal = opening
		}
		if principal < 0 {
			principal = 0
		}

		s.Opening[i] = opening
		s.Interest[i] = interest
		s.Principal[i] = principal
		s.Service[i] = interest + principal
		if s.Service[i] > 0 {
			s.DSCR[i] = cashflows[i].OperatingCashFlow / s.Service[i]
		}

		opening -= principal
		s.Closing[i] = opening
	}

	s.FullyRepaid = math.Abs(opening) <= RepaymentTolerance
	s.finalizeMetrics()
	return s
}

// scheduleTenor truncates the tenor to the available cash flow periods.
// A non-positive tenor yields an empty schedule rather than an error.
func scheduleTenor(tenorYears, available int) int {
	if tenorYears <= 0 {
		return 0
	}
	if tenorYears > available {
		return available
	}
	return tenorYears
}
