package balance

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/debt"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/statements"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/waterfall"
)

// amortizingSchedule hand-builds a schedule with level principal so the debt
// fully repays inside the tenor.
func amortizingSchedule(debtAmount, rate float64, tenor int) debt.Schedule {
	s := debt.Schedule{
		DebtAmount: debtAmount,
		Interest:   make([]float64, tenor),
		Principal:  make([]float64, tenor),
		Service:    make([]float64, tenor),
	}
	opening := debtAmount
	level := debtAmount / float64(tenor)
	for i := 0; i < tenor; i++ {
		s.Interest[i] = opening * rate
		s.Principal[i] = level
		s.Service[i] = s.Interest[i] + level
		opening -= level
	}
	return s
}

// testScenario assembles a three asset portfolio over a twenty year window
// and runs the statement and waterfall stages for real.
func testScenario(t *testing.T) ([]statements.Statement, []waterfall.Record, map[string]domain.AssetCostProfile, map[string]debt.Schedule, float64) {
	t.Helper()

	consts := domain.DefaultConstants()
	consts.StartYear = 2025
	consts.EndYear = 2044

	assets := []domain.Asset{
		{Name: "Plains Solar", Technology: domain.TechnologySolar, CapacityMW: 80, StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), LifeYears: 30},
		{Name: "Ridge Wind", Technology: domain.TechnologyWind, CapacityMW: 120, StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), LifeYears: 30},
		{Name: "Bay Storage", Technology: domain.TechnologyStorage, CapacityMW: 50, VolumeMWh: 100, StartDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), LifeYears: 20},
	}

	profiles := map[string]domain.AssetCostProfile{
		"Plains Solar": {Capex: 90, OperatingCost: 3},
		"Ridge Wind":   {Capex: 150, OperatingCost: 5, OperatingCostEscalation: 2.5},
		"Bay Storage":  {Capex: 60, OperatingCost: 2},
	}

	schedules := map[string]debt.Schedule{
		"Plains Solar": amortizingSchedule(60, 0.06, 15),
		"Ridge Wind":   amortizingSchedule(100, 0.055, 18),
		"Bay Storage":  amortizingSchedule(40, 0.065, 12),
	}

	annual := make(map[string]map[int]domain.RevenueBreakdown)
	revenues := map[string]float64{"Plains Solar": 22, "Ridge Wind": 38, "Bay Storage": 12}
	for name, rev := range revenues {
		byYear := make(map[int]domain.RevenueBreakdown)
		for year := consts.StartYear; year <= consts.EndYear; year++ {
			byYear[year] = domain.RevenueBreakdown{ContractedEnergy: rev}
		}
		annual[name] = byYear
	}

	builder := statements.NewBuilder(zerolog.Nop())
	out := builder.Build(statements.Inputs{
		Assets:        assets,
		Profiles:      profiles,
		Constants:     consts,
		Schedules:     schedules,
		AnnualRevenue: annual,
	})

	runner := waterfall.NewRunner(zerolog.Nop())
	cashflow := runner.Run(out.PlatformAnnual, consts.DividendPolicyPct, consts.MinimumCashBalance)

	return out.PlatformAnnual, cashflow, profiles, schedules, consts.MinimumCashBalance
}

func TestIdentityHoldsEveryPeriod(t *testing.T) {
	platform, cashflow, profiles, schedules, minCash := testScenario(t)

	rec := NewReconstructor(zerolog.Nop())
	sheets := rec.Build(platform, cashflow, profiles, schedules, EquityStructure{
		TotalInvestment:    350,
		ExternalPct:        70,
		RepaymentComponent: 25,
	}, minCash)

	require.Len(t, sheets, len(platform)+1)

	for _, bs := range sheets {
		assert.True(t, bs.Balanced, "period %s: assets %.4f vs L+E %.4f", bs.Period, bs.TotalAssets, bs.TotalLiabilities+bs.TotalEquity)
		assert.InDelta(t, bs.TotalAssets, bs.TotalLiabilities+bs.TotalEquity, IdentityTolerance, "period %s", bs.Period)
	}
}

func TestInceptionRecord(t *testing.T) {
	platform, cashflow, profiles, schedules, minCash := testScenario(t)

	rec := NewReconstructor(zerolog.Nop())
	sheets := rec.Build(platform, cashflow, profiles, schedules, EquityStructure{
		TotalInvestment: 350,
		ExternalPct:     70,
	}, minCash)

	inception := sheets[0]
	assert.Equal(t, "close", inception.Period)
	assert.InDelta(t, minCash, inception.Cash, 1e-9)
	assert.InDelta(t, 300.0, inception.FixedAssets, 1e-9) // 90 + 150 + 60
	assert.InDelta(t, 50.0, inception.AcquisitionPremium, 1e-9)
	assert.InDelta(t, 200.0, inception.SeniorDebt, 1e-9) // 60 + 100 + 40
	assert.Zero(t, inception.RetainedEarnings)

	// Contributed capital is the inception plug
	contributed := minCash + 300 + 50 - 200
	assert.InDelta(t, contributed, inception.TotalEquity, 1e-9)
	assert.InDelta(t, contributed*0.70, inception.ExternalCapital, 1e-9)
}

func TestSeniorDebtRollsDownToZero(t *testing.T) {
	platform, cashflow, profiles, schedules, minCash := testScenario(t)

	rec := NewReconstructor(zerolog.Nop())
	sheets := rec.Build(platform, cashflow, profiles, schedules, EquityStructure{TotalInvestment: 300}, minCash)

	prev := sheets[0].SeniorDebt
	for _, bs := range sheets[1:] {
		assert.LessOrEqual(t, bs.SeniorDebt, prev+1e-9, "period %s", bs.Period)
		assert.GreaterOrEqual(t, bs.SeniorDebt, 0.0)
		prev = bs.SeniorDebt
	}

	// Longest tenor is 18 years, so the book is clean by the final period
	assert.InDelta(t, 0.0, sheets[len(sheets)-1].SeniorDebt, 1e-9)
}

func TestRetainedEarningsTracksWaterfall(t *testing.T) {
	platform, cashflow, profiles, schedules, minCash := testScenario(t)

	rec := NewReconstructor(zerolog.Nop())
	sheets := rec.Build(platform, cashflow, profiles, schedules, EquityStructure{TotalInvestment: 300}, minCash)

	for i, cf := range cashflow {
		bs := sheets[i+1]
		assert.InDelta(t, cf.RetainedEarnings, bs.RetainedEarnings, 1e-9, "period %s", bs.Period)
		assert.InDelta(t, cf.CashBalance, bs.Cash, 1e-9)
	}
}

func TestNoPremiumWhenInvestmentBelowCapex(t *testing.T) {
	platform, cashflow, profiles, schedules, minCash := testScenario(t)

	rec := NewReconstructor(zerolog.Nop())
	sheets := rec.Build(platform, cashflow, profiles, schedules, EquityStructure{TotalInvestment: 250}, minCash)

	assert.Zero(t, sheets[0].AcquisitionPremium)
}

func TestSplitContributed(t *testing.T) {
	external, sponsor, repayment := splitContributed(100, EquityStructure{
		ExternalPct:        60,
		RepaymentComponent: 20,
	})
	assert.InDelta(t, 48.0, external, 1e-9)
	assert.InDelta(t, 32.0, sponsor, 1e-9)
	assert.InDelta(t, 20.0, repayment, 1e-9)

	// Repayment component can never exceed total contributed capital
	_, _, repayment = splitContributed(10, EquityStructure{RepaymentComponent: 20})
	assert.InDelta(t, 10.0, repayment, 1e-9)
}

func TestInconsistentStatementsFlagUnbalanced(t *testing.T) {
	// NPAT with no supporting P&L lines is an upstream defect the identity
	// check must surface, not absorb
	stmts := []statements.Statement{{Period: "2025", Year: 2025, NPAT: 5}}

	runner := waterfall.NewRunner(zerolog.Nop())
	cashflow := runner.Run(stmts, 100, 5.0)

	rec := NewReconstructor(zerolog.Nop())
	sheets := rec.Build(stmts, cashflow,
		map[string]domain.AssetCostProfile{"A": {Capex: 50}},
		map[string]debt.Schedule{"A": {DebtAmount: 30}},
		EquityStructure{TotalInvestment: 50}, 5.0)

	require.Len(t, sheets, 2)
	assert.True(t, sheets[0].Balanced)
	assert.False(t, sheets[1].Balanced)
}

func TestPortfolioEntriesExcludedFromTotals(t *testing.T) {
	platform, cashflow, profiles, schedules, minCash := testScenario(t)

	// A portfolio level refinancing schedule must not inflate capex or debt
	profiles[domain.PortfolioProfileKey] = domain.AssetCostProfile{Capex: 999}
	schedules[domain.PortfolioProfileKey] = debt.Schedule{DebtAmount: 999}

	rec := NewReconstructor(zerolog.Nop())
	sheets := rec.Build(platform, cashflow, profiles, schedules, EquityStructure{TotalInvestment: 350}, minCash)

	assert.InDelta(t, 300.0, sheets[0].FixedAssets, 1e-9)
	assert.InDelta(t, 200.0, sheets[0].SeniorDebt, 1e-9)
	for _, bs := range sheets {
		assert.True(t, bs.Balanced, fmt.Sprintf("period %s", bs.Period))
	}
}
