// Package waterfall converts platform P&L into free cash flow to equity,
// applies the dividend policy under a minimum cash reserve, and threads cash
// balance and retained earnings across periods.
package waterfall

import (
	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/statements"
)

// Record is one period of the cash flow statement. All outflows (tax,
// interest, principal, dividends) are stored as negative numbers, so FCFE and
// net cash flow are straight sums.
type Record struct {
	Period  string `json:"period"`
	Year    int    `json:"year"`
	Quarter int    `json:"quarter"` // 0 for annual records

	OperatingCashFlow float64 `json:"operating_cash_flow"` // = EBITDA
	TaxPayment        float64 `json:"tax_payment"`
	InterestPayment   float64 `json:"interest_payment"`
	PrincipalPayment  float64 `json:"principal_payment"`
	TotalDebtService  float64 `json:"total_debt_service"`
	FCFE              float64 `json:"fcfe"`
	DividendPayment   float64 `json:"dividend_payment"`
	NetCashFlow       float64 `json:"net_cash_flow"`
	CashBalance       float64 `json:"cash_balance"`
	RetainedEarnings  float64 `json:"retained_earnings"`
}

// Runner executes the cash flow waterfall.
type Runner struct {
	log zerolog.Logger
}

// NewRunner creates a new waterfall runner.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{
		log: log.With().Str("service", "waterfall").Logger(),
	}
}

// Run walks the platform statements in order, paying dividends out of NPAT
// only when the period is profitable and the post-FCFE cash balance sits
// above the minimum reserve. Dividends are capped at the excess over the
// reserve, so the cash balance can never be pushed below the minimum by a
// distribution.
//
// The first period seeds cashBalance = minimumCashBalance and
// retainedEarnings = 0; both are carried period to period from there.
func (r *Runner) Run(platform []statements.Statement, dividendPolicyPct, minimumCashBalance float64) []Record {
	return r.run(platform, dividendPolicyPct, minimumCashBalance)
}

// RunQuarterly applies the same waterfall to quarterly statements with a
// quartered dividend rate.
func (r *Runner) RunQuarterly(quarterly []statements.Statement, dividendPolicyPct, minimumCashBalance float64) []Record {
	return r.run(quarterly, dividendPolicyPct/4, minimumCashBalance)
}

func (r *Runner) run(stmts []statements.Statement, dividendPolicyPct, minimumCashBalance float64) []Record {
	records := make([]Record, 0, len(stmts))

	cashBalance := minimumCashBalance
	retainedEarnings := 0.0

	for _, s := range stmts {
		rec := Record{
			Period:  s.Period,
			Year:    s.Year,
			Quarter: s.Quarter,

			OperatingCashFlow: s.EBITDA,
			TaxPayment:        s.Tax,
			InterestPayment:   s.Interest,
			PrincipalPayment:  s.Principal,
			TotalDebtService:  s.Interest + s.Principal,
		}

		// Outflow lines are already negative, so this subtracts them
		rec.FCFE = rec.OperatingCashFlow + rec.TaxPayment + rec.InterestPayment + rec.PrincipalPayment

		potentialCash := cashBalance + rec.FCFE

		dividend := 0.0
		if s.NPAT > 0 && potentialCash > minimumCashBalance {
			dividend = s.NPAT * dividendPolicyPct / 100
			if excess := potentialCash - minimumCashBalance; dividend > excess {
				dividend = excess
			}
			if dividend < 0 {
				dividend = 0
			}
		}

		rec.DividendPayment = -dividend
		rec.NetCashFlow = rec.FCFE - dividend

		cashBalance = potentialCash - dividend
		retainedEarnings += s.NPAT - dividend

		rec.CashBalance = cashBalance
		rec.RetainedEarnings = retainedEarnings

		records = append(records, rec)
	}

	return records
}
