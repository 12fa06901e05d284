// Package debt implements project debt sizing for individual assets and the
// portfolio refinancing case. Two structures are supported: level-payment
// amortization at a fixed gearing, and DSCR-sculpted repayment with the debt
// amount solved by bounded binary search.
package debt

import "github.com/woodid012/renew-asset-platform-sub004/internal/domain"

// Tolerances and iteration caps for the sizing algorithms.
const (
	// RepaymentTolerance - a schedule is fully repaid when the closing
	// balance after the tenor is within this of zero ($M).
	RepaymentTolerance = 0.001
	// SearchTolerance - binary search convergence tolerance on the debt
	// amount ($M).
	SearchTolerance = 0.0001
	// MaxSearchIterations caps the binary search explicitly rather than
	// relying on convergence alone.
	MaxSearchIterations = 50
)

// Params holds the debt parameters for one sizing run, taken from the
// asset's cost profile.
type Params struct {
	MaxGearing         float64
	TargetDSCRContract float64
	TargetDSCRMerchant float64
	InterestRate       float64
	TenorYears         int
	Structure          domain.DebtStructure
}

// ParamsFromProfile extracts sizing parameters from a cost profile.
func ParamsFromProfile(profile domain.AssetCostProfile) Params {
	return Params{
		MaxGearing:         profile.MaxGearing,
		TargetDSCRContract: profile.TargetDSCRContract,
		TargetDSCRMerchant: profile.TargetDSCRMerchant,
		InterestRate:       profile.InterestRate,
		TenorYears:         profile.TenorYears,
		Structure:          profile.DebtStructure,
	}
}

// Schedule is a sized debt schedule. All period slices are indexed by tenor
// year (0 = first operating year). Opening[0] equals the debt amount; a
// schedule is valid when Closing[len-1] is approximately zero.
type Schedule struct {
	DebtAmount float64   `json:"debt_amount"` // $M drawn at financial close
	Gearing    float64   `json:"gearing"`     // DebtAmount / capex
	Opening    []float64 `json:"opening"`
	Closing    []float64 `json:"closing"`
	Interest   []float64 `json:"interest"`
	Principal  []float64 `json:"principal"`
	Service    []float64 `json:"service"` // Interest + principal
	DSCR       []float64 `json:"dscr"`

	FullyRepaid    bool    `json:"fully_repaid"`
	AvgDebtService float64 `json:"avg_debt_service"`
	MinDSCR        float64 `json:"min_dscr"`
}

// ServiceInYear returns the total debt service for a tenor year, 0 once the
// schedule is exhausted.
func (s Schedule) ServiceInYear(tenorYear int) float64 {
	if tenorYear < 0 || tenorYear >= len(s.Service) {
		return 0
	}
	return s.Service[tenorYear]
}

// InterestInYear returns the interest charge for a tenor year, 0 once the
// schedule is exhausted.
func (s Schedule) InterestInYear(tenorYear int) float64 {
	if tenorYear < 0 || tenorYear >= len(s.Interest) {
		return 0
	}
	return s.Interest[tenorYear]
}

// PrincipalInYear returns the principal repayment for a tenor year, 0 once
// the schedule is exhausted.
func (s Schedule) PrincipalInYear(tenorYear int) float64 {
	if tenorYear < 0 || tenorYear >= len(s.Principal) {
		return 0
	}
	return s.Principal[tenorYear]
}

// zeroSchedule returns an all-equity schedule for the given tenor. A zero
// debt schedule is trivially fully repaid.
func zeroSchedule(tenor int) Schedule {
	return Schedule{
		Opening:     make([]float64, tenor),
		Closing:     make([]float64, tenor),
		Interest:    make([]float64, tenor),
		Principal:   make([]float64, tenor),
		Service:     make([]float64, tenor),
		DSCR:        make([]float64, tenor),
		FullyRepaid: true,
	}
}

// finalizeMetrics fills the scalar metrics from the period arrays.
func (s *Schedule) finalizeMetrics() {
	var serviceSum float64
	serviceYears := 0
	minDSCR := 0.0
	haveDSCR := false

	for i := range s.Service {
		if s.Service[i] > 0 {
			serviceSum += s.Service[i]
			serviceYears++
		}
		if s.DSCR[i] > 0 {
			if !haveDSCR || s.DSCR[i] < minDSCR {
				minDSCR = s.DSCR[i]
				haveDSCR = true
			}
		}
	}

	if serviceYears > 0 {
		s.AvgDebtService = serviceSum / float64(serviceYears)
	}
	s.MinDSCR = minDSCR
}
