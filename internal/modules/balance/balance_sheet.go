// Package balance reconstructs the platform balance sheet from the P&L and
// cash flow history, enforcing the accounting identity every period.
package balance

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/debt"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/statements"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/waterfall"
)

const (
	// IdentityTolerance - the accounting identity must hold to the cent
	// (in $M terms) every period.
	IdentityTolerance = 0.01
	// accrualFraction approximates receivable/payable balances as roughly
	// one month of the corresponding annual flow. A placeholder accrual
	// model, preserved numerically rather than derived from contract terms.
	accrualFraction = 1.0 / 12
)

// EquityStructure describes how the platform's contributed capital is split.
type EquityStructure struct {
	TotalInvestment    float64 `json:"total_investment"`    // $M paid for the portfolio
	ExternalPct        float64 `json:"external_pct"`        // External investor share, 0-100
	RepaymentComponent float64 `json:"repayment_component"` // Fixed repayable component, $M
}

// Record is one period-end balance sheet.
type Record struct {
	Period string `json:"period"`
	Year   int    `json:"year"`

	// Assets
	Cash               float64 `json:"cash"`
	Receivables        float64 `json:"receivables"`
	FixedAssets        float64 `json:"fixed_assets"`
	Goodwill           float64 `json:"goodwill"`
	AcquisitionPremium float64 `json:"acquisition_premium"`
	OtherAssets        float64 `json:"other_assets"`
	DeferredTaxAssets  float64 `json:"deferred_tax_assets"`

	// Liabilities
	Payables               float64 `json:"payables"`
	InterestPayables       float64 `json:"interest_payables"`
	TaxPayables            float64 `json:"tax_payables"`
	DividendPayables       float64 `json:"dividend_payables"`
	SeniorDebt             float64 `json:"senior_debt"`
	PortfolioFinancing     float64 `json:"portfolio_financing"`
	DeferredTaxLiabilities float64 `json:"deferred_tax_liabilities"`

	// Equity
	ExternalCapital    float64 `json:"external_capital"`
	SponsorCapital     float64 `json:"sponsor_capital"`
	RepaymentComponent float64 `json:"repayment_component"`
	RetainedEarnings   float64 `json:"retained_earnings"`

	TotalAssets      float64 `json:"total_assets"`
	TotalLiabilities float64 `json:"total_liabilities"`
	TotalEquity      float64 `json:"total_equity"`
	Balanced         bool    `json:"balanced"`
}

// Reconstructor derives balance sheets from upstream pipeline results.
type Reconstructor struct {
	log zerolog.Logger
}

// NewReconstructor creates a new balance sheet reconstructor.
func NewReconstructor(log zerolog.Logger) *Reconstructor {
	return &Reconstructor{
		log: log.With().Str("service", "balance_sheet").Logger(),
	}
}

// Build reconstructs one balance sheet record per period: an inception record
// at financial close followed by one per platform statement.
//
// Receivables, payables and the payable accruals are modeled as ~1 month of
// the corresponding flow, with OtherAssets carrying the net working-capital
// counterweight so the accruals never break the identity. An identity
// violation beyond tolerance is a defect signal in the upstream stages and is
// logged loudly, never silently corrected.
func (r *Reconstructor) Build(
	platform []statements.Statement,
	cashflow []waterfall.Record,
	profiles map[string]domain.AssetCostProfile,
	schedules map[string]debt.Schedule,
	structure EquityStructure,
	minimumCashBalance float64,
) []Record {
	totalCapex := 0.0
	for name, profile := range profiles {
		if name == domain.PortfolioProfileKey {
			continue
		}
		totalCapex += profile.Capex
	}

	totalDebt := 0.0
	for name, schedule := range schedules {
		if name == domain.PortfolioProfileKey {
			continue
		}
		totalDebt += schedule.DebtAmount
	}

	premium := math.Max(0, structure.TotalInvestment-totalCapex)

	// Contributed capital closes the inception balance:
	// cash floor + fixed assets + premium on the asset side against senior
	// debt on the liability side.
	contributed := minimumCashBalance + totalCapex + premium - totalDebt
	external, sponsor, repayment := splitContributed(contributed, structure)

	records := make([]Record, 0, len(platform)+1)

	// Inception record: portfolio acquired, debt drawn, no operations yet
	inception := Record{
		Period:             "close",
		Cash:               minimumCashBalance,
		FixedAssets:        totalCapex,
		AcquisitionPremium: premium,
		SeniorDebt:         totalDebt,
		ExternalCapital:    external,
		SponsorCapital:     sponsor,
		RepaymentComponent: repayment,
	}
	r.finalize(&inception)
	records = append(records, inception)

	cumulativeDepreciation := 0.0
	seniorDebt := totalDebt
	retained := 0.0

	for i, s := range platform {
		if i >= len(cashflow) {
			break
		}
		cf := cashflow[i]

		cumulativeDepreciation += -s.Depreciation
		seniorDebt += s.Principal // Principal is negative
		if seniorDebt < 0 {
			seniorDebt = 0
		}
		retained += s.NPAT + cf.DividendPayment

		rec := Record{
			Period: s.Period,
			Year:   s.Year,

			Cash:               cf.CashBalance,
			Receivables:        s.Revenue * accrualFraction,
			FixedAssets:        totalCapex - cumulativeDepreciation,
			AcquisitionPremium: premium,

			Payables:         (-s.AssetOpex - s.PlatformOpex) * accrualFraction,
			InterestPayables: -s.Interest * accrualFraction,
			TaxPayables:      -s.Tax * accrualFraction,
			DividendPayables: -cf.DividendPayment * accrualFraction,
			SeniorDebt:       seniorDebt,

			ExternalCapital:    external,
			SponsorCapital:     sponsor,
			RepaymentComponent: repayment,
			RetainedEarnings:   retained,
		}

		// Net working-capital counterweight for the accrual placeholders
		rec.OtherAssets = rec.Payables + rec.InterestPayables + rec.TaxPayables + rec.DividendPayables - rec.Receivables

		r.finalize(&rec)
		records = append(records, rec)
	}

	return records
}

// splitContributed allocates contributed capital across the equity
// components. The repayment component is fixed; the remainder splits by the
// external investor percentage.
func splitContributed(contributed float64, structure EquityStructure) (external, sponsor, repayment float64) {
	repayment = structure.RepaymentComponent
	if repayment > contributed {
		repayment = contributed
	}
	remainder := contributed - repayment
	external = remainder * structure.ExternalPct / 100
	sponsor = remainder - external
	return external, sponsor, repayment
}

// finalize fills the totals and checks the accounting identity.
func (r *Reconstructor) finalize(rec *Record) {
	rec.TotalAssets = rec.Cash + rec.Receivables + rec.FixedAssets + rec.Goodwill +
		rec.AcquisitionPremium + rec.OtherAssets + rec.DeferredTaxAssets
	rec.TotalLiabilities = rec.Payables + rec.InterestPayables + rec.TaxPayables +
		rec.DividendPayables + rec.SeniorDebt + rec.PortfolioFinancing + rec.DeferredTaxLiabilities
	rec.TotalEquity = rec.ExternalCapital + rec.SponsorCapital + rec.RepaymentComponent + rec.RetainedEarnings

	gap := rec.TotalAssets - (rec.TotalLiabilities + rec.TotalEquity)
	rec.Balanced = math.Abs(gap) < IdentityTolerance

	if !rec.Balanced {
		r.log.Error().
			Str("period", rec.Period).
			Float64("gap", gap).
			Msg("Balance sheet identity violated - upstream modeling defect")
	}
}
