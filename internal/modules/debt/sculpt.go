package debt

import (
	"math"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
)

// BlendedTargetDSCR returns the DSCR ceiling for one period: the contracted
// and merchant targets weighted by each revenue stream's share of total
// revenue. A period with no revenue defaults to the merchant target, the
// conservative end of the range.
func BlendedTargetDSCR(cf domain.PeriodCashFlow, p Params) float64 {
	total := cf.Revenue()
	if total <= 0 {
		return p.TargetDSCRMerchant
	}
	contractedShare := cf.ContractedRevenue / total
	merchantShare := cf.MerchantRevenue / total
	return contractedShare*p.TargetDSCRContract + merchantShare*p.TargetDSCRMerchant
}

// buildSculpted builds a DSCR-sculpted schedule for the given debt amount.
// Periods are processed strictly in order: each year's opening balance is the
// prior year's closing balance. Debt service never exceeds the DSCR ceiling
// and principal never over-repays the outstanding balance.
func buildSculpted(debtAmount float64, cashflows []domain.PeriodCashFlow, p Params) Schedule {
	tenor := scheduleTenor(p.TenorYears, len(cashflows))
	if tenor == 0 || debtAmount <= 0 {
		return zeroSchedule(tenor)
	}

	s := zeroSchedule(tenor)
	s.DebtAmount = debtAmount
	s.FullyRepaid = false

	opening := debtAmount
	for i := 0; i < tenor; i++ {
		cf := cashflows[i]
		interest := opening * p.InterestRate

		target := BlendedTargetDSCR(cf, p)
		maxService := 0.0
		if target > 0 {
			maxService = cf.OperatingCashFlow / target
		}

		principal := maxService - interest
		if principal < 0 {
			principal = 0
		}
		if principal > opening {
			principal = opening
		}

		s.Opening[i] = opening
		s.Interest[i] = interest
		s.Principal[i] = principal
		s.Service[i] = interest + principal
		if s.Service[i] > 0 {
			s.DSCR[i] = cf.OperatingCashFlow / s.Service[i]
		}

		opening -= principal
		s.Closing[i] = opening
	}

	s.FullyRepaid = math.Abs(opening) <= RepaymentTolerance
	s.finalizeMetrics()
	return s
}
