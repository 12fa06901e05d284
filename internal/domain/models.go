// Package domain provides core domain models and types.
// The domain layer is pure: no database, HTTP, or logging dependencies.
package domain

import "time"

// Technology represents an asset's technology class
type Technology string

const (
	TechnologySolar   Technology = "solar"
	TechnologyWind    Technology = "wind"
	TechnologyStorage Technology = "storage"
)

// DebtStructure selects how project debt is scheduled
type DebtStructure string

const (
	// DebtStructureAmortization - level-payment loan over the tenor
	DebtStructureAmortization DebtStructure = "amortization"
	// DebtStructureSculpting - repayments sized to a DSCR ceiling each year
	DebtStructureSculpting DebtStructure = "sculpting"
)

// PortfolioProfileKey is the cost profile key used for portfolio-level
// refinancing when the portfolio holds two or more assets.
const PortfolioProfileKey = "portfolio"

// Asset is a single renewable energy asset in the portfolio.
// Immutable during a pipeline run.
type Asset struct {
	Name             string     `json:"name"`
	Technology       Technology `json:"technology"`
	CapacityMW       float64    `json:"capacity_mw"`  // Nameplate capacity (solar/wind)
	VolumeMWh        float64    `json:"volume_mwh"`   // Storage volume (storage only)
	Region           string     `json:"region"`       // Price region (e.g. NSW, VIC)
	StartDate        time.Time  `json:"start_date"`   // Operational start
	LifeYears        int        `json:"life_years"`   // Asset life from operational start
	Degradation      float64    `json:"degradation"`  // Annual output degradation, percent
	CapacityFactor   float64    `json:"capacity_factor"`
	QuarterlyFactors [4]float64 `json:"quarterly_factors"` // Per-quarter capacity factors; zero means flat
	Contracts        []Contract `json:"contracts"`
}

// OperatingStartYear returns the first calendar year of operations.
func (a Asset) OperatingStartYear() int {
	return a.StartDate.Year()
}

// OperatingEndYear returns the last calendar year of operations (inclusive).
func (a Asset) OperatingEndYear() int {
	return a.StartDate.Year() + a.LifeYears - 1
}

// YearsSinceStart returns whole operating years elapsed at the given calendar
// year, used for degradation and escalation. Negative before operations begin.
func (a Asset) YearsSinceStart(year int) int {
	return year - a.StartDate.Year()
}

// AssetCostProfile holds per-asset capex, opex and debt parameters.
// Amounts are in $M unless noted.
type AssetCostProfile struct {
	Capex                      float64       `json:"capex"`
	OperatingCost              float64       `json:"operating_cost"`            // Annual, year-one dollars
	OperatingCostEscalation    float64       `json:"operating_cost_escalation"` // Percent per year
	TerminalValue              float64       `json:"terminal_value"`            // Received in final operating year
	MaxGearing                 float64       `json:"max_gearing"`               // Debt / capex ceiling
	TargetDSCRContract         float64       `json:"target_dscr_contract"`
	TargetDSCRMerchant         float64       `json:"target_dscr_merchant"`
	InterestRate               float64       `json:"interest_rate"` // Annual, decimal
	TenorYears                 int           `json:"tenor_years"`
	DebtStructure              DebtStructure `json:"debt_structure"`
	EquityTimingUpfront        bool          `json:"equity_timing_upfront"`
	ConstructionDurationMonths int           `json:"construction_duration_months"`
}

// RevenueBreakdown decomposes one period's revenue ($M) into its
// contracted/merchant and green/energy buckets.
type RevenueBreakdown struct {
	ContractedGreen  float64 `json:"contracted_green"`
	ContractedEnergy float64 `json:"contracted_energy"`
	MerchantGreen    float64 `json:"merchant_green"`
	MerchantEnergy   float64 `json:"merchant_energy"`
	TotalGeneration  float64 `json:"total_generation"` // MWh
}

// Total returns total revenue for the period.
func (r RevenueBreakdown) Total() float64 {
	return r.ContractedGreen + r.ContractedEnergy + r.MerchantGreen + r.MerchantEnergy
}

// Contracted returns total contracted revenue for the period.
func (r RevenueBreakdown) Contracted() float64 {
	return r.ContractedGreen + r.ContractedEnergy
}

// Merchant returns total merchant revenue for the period.
func (r RevenueBreakdown) Merchant() float64 {
	return r.MerchantGreen + r.MerchantEnergy
}

// Add returns the element-wise sum of two breakdowns.
func (r RevenueBreakdown) Add(other RevenueBreakdown) RevenueBreakdown {
	return RevenueBreakdown{
		ContractedGreen:  r.ContractedGreen + other.ContractedGreen,
		ContractedEnergy: r.ContractedEnergy + other.ContractedEnergy,
		MerchantGreen:    r.MerchantGreen + other.MerchantGreen,
		MerchantEnergy:   r.MerchantEnergy + other.MerchantEnergy,
		TotalGeneration:  r.TotalGeneration + other.TotalGeneration,
	}
}

// PeriodCashFlow is one asset-year of pre-financing cash flow.
// The sequence is append-only and built strictly in chronological order:
// each year's opening debt balance is the prior year's closing balance.
type PeriodCashFlow struct {
	Year              int     `json:"year"`
	ContractedRevenue float64 `json:"contracted_revenue"`
	MerchantRevenue   float64 `json:"merchant_revenue"`
	Opex              float64 `json:"opex"` // Positive magnitude
	OperatingCashFlow float64 `json:"operating_cash_flow"`
	DebtService       float64 `json:"debt_service"`
	EquityCashFlow    float64 `json:"equity_cash_flow"`
	DSCR              float64 `json:"dscr"`
}

// Revenue returns total revenue for the period.
func (p PeriodCashFlow) Revenue() float64 {
	return p.ContractedRevenue + p.MerchantRevenue
}

// Constants holds the global modeling assumptions for a pipeline run.
type Constants struct {
	TaxRate                float64            `json:"tax_rate"`
	DepreciationYears      map[Technology]int `json:"depreciation_years"`
	PlatformOpex           float64            `json:"platform_opex"`            // $M per year
	PlatformOpexEscalation float64            `json:"platform_opex_escalation"` // Percent per year
	DividendPolicyPct      float64            `json:"dividend_policy_pct"`      // Percent of NPAT
	MinimumCashBalance     float64            `json:"minimum_cash_balance"`     // $M
	StartYear              int                `json:"start_year"`
	EndYear                int                `json:"end_year"`
}

// DefaultConstants returns the platform's standard modeling assumptions.
func DefaultConstants() Constants {
	return Constants{
		TaxRate: 0.30,
		DepreciationYears: map[Technology]int{
			TechnologySolar:   30,
			TechnologyWind:    30,
			TechnologyStorage: 20,
		},
		PlatformOpex:           4.2,
		PlatformOpexEscalation: 2.5,
		DividendPolicyPct:      100,
		MinimumCashBalance:     5.0,
		StartYear:              time.Now().Year(),
		EndYear:                time.Now().Year() + 30,
	}
}

// DepreciationPeriod returns the depreciation period in years for a
// technology, defaulting to 30 when unmapped.
func (c Constants) DepreciationPeriod(tech Technology) int {
	if years, ok := c.DepreciationYears[tech]; ok && years > 0 {
		return years
	}
	return 30
}

// Years returns the analysis years [StartYear, EndYear] in order.
func (c Constants) Years() []int {
	if c.EndYear < c.StartYear {
		return nil
	}
	years := make([]int, 0, c.EndYear-c.StartYear+1)
	for y := c.StartYear; y <= c.EndYear; y++ {
		years = append(years, y)
	}
	return years
}
