package returns

import (
	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/debt"
)

// EquityCashFlowVector is an ordered equity cash flow sequence anchored to a
// calendar year. The leading entries are the (negative) construction equity
// outlays; one entry per operating period follows. It feeds SolveIRR directly.
type EquityCashFlowVector struct {
	StartYear int       `json:"start_year"`
	Flows     []float64 `json:"flows"`
}

// IRR solves for the vector's internal rate of return.
func (v EquityCashFlowVector) IRR() *float64 {
	return SolveIRR(v.Flows, DefaultGuess)
}

// BuildAssetVector assembles one asset's equity cash flow vector from its
// sized debt schedule and pre-financing cash flows. Construction outlays are
// placed in the years before operations begin; each operating year
// contributes operating cash flow net of that year's debt service. The
// terminal value is already part of the final operating year's cash flow.
func BuildAssetVector(
	asset domain.Asset,
	profile domain.AssetCostProfile,
	schedule debt.Schedule,
	cashflows []domain.PeriodCashFlow,
) EquityCashFlowVector {
	outlays := debt.ConstructionEquityOutlays(
		profile.Capex,
		schedule.DebtAmount,
		profile.EquityTimingUpfront,
		profile.ConstructionDurationMonths,
	)

	flows := make([]float64, 0, len(outlays)+len(cashflows))
	flows = append(flows, outlays...)

	for i, cf := range cashflows {
		flows = append(flows, cf.OperatingCashFlow-schedule.ServiceInYear(i))
	}

	return EquityCashFlowVector{
		StartYear: asset.OperatingStartYear() - len(outlays),
		Flows:     flows,
	}
}

// AggregatePortfolio sums per-asset equity vectors into one portfolio-level
// vector aligned by calendar year.
func AggregatePortfolio(vectors []EquityCashFlowVector) EquityCashFlowVector {
	if len(vectors) == 0 {
		return EquityCashFlowVector{}
	}

	startYear := vectors[0].StartYear
	endYear := vectors[0].StartYear + len(vectors[0].Flows) - 1
	for _, v := range vectors[1:] {
		if v.StartYear < startYear {
			startYear = v.StartYear
		}
		if last := v.StartYear + len(v.Flows) - 1; last > endYear {
			endYear = last
		}
	}

	flows := make([]float64, endYear-startYear+1)
	for _, v := range vectors {
		for i, cf := range v.Flows {
			flows[v.StartYear-startYear+i] += cf
		}
	}

	return EquityCashFlowVector{StartYear: startYear, Flows: flows}
}
