package projections

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/balance"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/debt"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/returns"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/revenue"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/statements"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/waterfall"
)

// Pipeline wires the modeling stages together. Safe for concurrent runs; all
// run state lives on the stack.
type Pipeline struct {
	revenue    *revenue.Calculator
	sizer      *debt.Sizer
	statements *statements.Builder
	waterfall  *waterfall.Runner
	balance    *balance.Reconstructor
	log        zerolog.Logger
}

// NewPipeline creates a pipeline over the given price provider.
func NewPipeline(price domain.PriceProvider, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		revenue:    revenue.NewCalculator(price, log),
		sizer:      debt.NewSizer(log),
		statements: statements.NewBuilder(log),
		waterfall:  waterfall.NewRunner(log),
		balance:    balance.NewReconstructor(log),
		log:        log.With().Str("service", "projections").Logger(),
	}
}

// Run executes the full pipeline. Asset-level stages (revenue, debt sizing,
// equity returns) run concurrently, one goroutine per asset; the consolidated
// stages run in dependency order afterwards.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Result, error) {
	if len(in.Assets) == 0 {
		return nil, fmt.Errorf("no assets to model")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	start := time.Now()
	result := &Result{
		RunID:       uuid.NewString(),
		GeneratedAt: start.UTC(),
		Constants:   in.Constants,
		Assets:      make(map[string]*AssetResult, len(in.Assets)),
	}

	p.log.Info().
		Str("run_id", result.RunID).
		Int("assets", len(in.Assets)).
		Int("start_year", in.Constants.StartYear).
		Int("end_year", in.Constants.EndYear).
		Msg("Starting projection run")

	// Fan out: each asset's stages are independent of every other asset's
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, asset := range in.Assets {
		profile, ok := in.Profiles[asset.Name]
		if !ok {
			p.log.Warn().Str("asset", asset.Name).Msg("No cost profile, excluding asset from run")
			continue
		}

		wg.Add(1)
		go func(asset domain.Asset, profile domain.AssetCostProfile) {
			defer wg.Done()
			ar := p.modelAsset(asset, profile, in.Constants)
			mu.Lock()
			result.Assets[asset.Name] = ar
			mu.Unlock()
		}(asset, profile)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}
	if len(result.Assets) == 0 {
		return nil, fmt.Errorf("no assets could be modeled")
	}

	// Consolidated stages, in dependency order
	result.Statements = p.statements.Build(p.statementInputs(in, result))
	result.CashFlowAnnual = p.waterfall.Run(result.Statements.PlatformAnnual, in.Constants.DividendPolicyPct, in.Constants.MinimumCashBalance)
	result.CashFlowQuarterly = p.waterfall.RunQuarterly(result.Statements.PlatformQuarterly, in.Constants.DividendPolicyPct, in.Constants.MinimumCashBalance)

	schedules := make(map[string]debt.Schedule, len(result.Assets))
	vectors := make([]returns.EquityCashFlowVector, 0, len(result.Assets))
	for name, ar := range result.Assets {
		schedules[name] = ar.Schedule
		vectors = append(vectors, ar.Equity)
	}

	result.BalanceSheets = p.balance.Build(
		result.Statements.PlatformAnnual,
		result.CashFlowAnnual,
		in.Profiles,
		schedules,
		in.Equity,
		in.Constants.MinimumCashBalance,
	)

	result.PortfolioEquity = returns.AggregatePortfolio(vectors)
	result.PortfolioMetrics = returns.ComputeMetrics(result.PortfolioEquity)

	result.PortfolioRefinance = p.sizePortfolioRefinance(in, result)

	p.log.Info().
		Str("run_id", result.RunID).
		Dur("elapsed", time.Since(start)).
		Int("assets", len(result.Assets)).
		Msg("Projection run complete")

	return result, nil
}

// modelAsset runs the asset-level stages: revenue curves, pre-financing cash
// flows, debt sizing, and the equity return vector.
func (p *Pipeline) modelAsset(asset domain.Asset, profile domain.AssetCostProfile, consts domain.Constants) *AssetResult {
	ar := &AssetResult{
		Asset:            asset,
		AnnualRevenue:    make(map[int]domain.RevenueBreakdown),
		QuarterlyRevenue: make(map[string]domain.RevenueBreakdown),
	}

	for _, year := range consts.Years() {
		ar.AnnualRevenue[year] = p.revenue.Annual(asset, year)
		for q := 1; q <= 4; q++ {
			ar.QuarterlyRevenue[fmt.Sprintf("%d-Q%d", year, q)] = p.revenue.Quarterly(asset, year, q)
		}
	}

	ar.CashFlows = p.buildCashFlows(asset, profile, consts)
	ar.Schedule = p.sizer.Size(profile.Capex, ar.CashFlows, debt.ParamsFromProfile(profile))

	// Fill in the financing lines now the schedule is known
	for i := range ar.CashFlows {
		service := ar.Schedule.ServiceInYear(i)
		ar.CashFlows[i].DebtService = service
		ar.CashFlows[i].EquityCashFlow = ar.CashFlows[i].OperatingCashFlow - service
		if service > 0 {
			ar.CashFlows[i].DSCR = ar.CashFlows[i].OperatingCashFlow / service
		}
	}

	ar.Equity = returns.BuildAssetVector(asset, profile, ar.Schedule, ar.CashFlows)
	ar.Metrics = returns.ComputeMetrics(ar.Equity)

	irrField := p.log.Debug().Str("asset", asset.Name).
		Float64("debt", ar.Schedule.DebtAmount).
		Float64("gearing", ar.Schedule.Gearing)
	if ar.Metrics.IRR != nil {
		irrField = irrField.Float64("irr", *ar.Metrics.IRR)
	}
	irrField.Msg("Asset modeled")

	return ar
}

// buildCashFlows builds the asset's pre-financing cash flow sequence, one
// entry per operating year from operational start through the earlier of
// asset life and the analysis window. Index 0 is the first operating year, so
// the sequence feeds the debt sizer's tenor indexing directly.
func (p *Pipeline) buildCashFlows(asset domain.Asset, profile domain.AssetCostProfile, consts domain.Constants) []domain.PeriodCashFlow {
	lastYear := asset.OperatingEndYear()
	if consts.EndYear < lastYear {
		lastYear = consts.EndYear
	}

	var cashflows []domain.PeriodCashFlow
	for year := asset.OperatingStartYear(); year <= lastYear; year++ {
		breakdown := p.revenue.Annual(asset, year)
		elapsed := asset.YearsSinceStart(year)

		opex := profile.OperatingCost * escalationFactor(profile.OperatingCostEscalation, elapsed)
		cf := domain.PeriodCashFlow{
			Year:              year,
			ContractedRevenue: breakdown.Contracted(),
			MerchantRevenue:   breakdown.Merchant(),
			Opex:              opex,
		}
		cf.OperatingCashFlow = cf.Revenue() - opex

		if year == asset.OperatingEndYear() {
			cf.OperatingCashFlow += profile.TerminalValue
		}

		cashflows = append(cashflows, cf)
	}

	return cashflows
}

// statementInputs assembles the consolidated statement builder's inputs from
// the per-asset results.
func (p *Pipeline) statementInputs(in Inputs, result *Result) statements.Inputs {
	si := statements.Inputs{
		Assets:           make([]domain.Asset, 0, len(result.Assets)),
		Profiles:         in.Profiles,
		Constants:        in.Constants,
		Schedules:        make(map[string]debt.Schedule, len(result.Assets)),
		AnnualRevenue:    make(map[string]map[int]domain.RevenueBreakdown, len(result.Assets)),
		QuarterlyRevenue: make(map[string]map[string]domain.RevenueBreakdown, len(result.Assets)),
	}

	for name, ar := range result.Assets {
		si.Assets = append(si.Assets, ar.Asset)
		si.Schedules[name] = ar.Schedule
		si.AnnualRevenue[name] = ar.AnnualRevenue
		si.QuarterlyRevenue[name] = ar.QuarterlyRevenue
	}

	return si
}

// sizePortfolioRefinance sizes a sculpted portfolio-level refinancing against
// the combined asset cash flows. Requires at least two assets and a portfolio
// cost profile; returns nil otherwise.
func (p *Pipeline) sizePortfolioRefinance(in Inputs, result *Result) *debt.Schedule {
	if len(result.Assets) < 2 {
		return nil
	}
	profile, ok := in.Profiles[domain.PortfolioProfileKey]
	if !ok {
		return nil
	}

	combined := combineCashFlows(result.Assets)
	if len(combined) == 0 {
		return nil
	}

	totalCapex := 0.0
	for name := range result.Assets {
		totalCapex += in.Profiles[name].Capex
	}

	params := debt.ParamsFromProfile(profile)
	params.Structure = domain.DebtStructureSculpting

	schedule := p.sizer.Size(totalCapex, combined, params)
	p.log.Info().
		Float64("debt", schedule.DebtAmount).
		Float64("gearing", schedule.Gearing).
		Msg("Portfolio refinancing sized")

	return &schedule
}

// combineCashFlows sums per-asset cash flows aligned by calendar year,
// returning a contiguous sequence from the earliest operating year.
func combineCashFlows(assets map[string]*AssetResult) []domain.PeriodCashFlow {
	firstYear, lastYear := 0, 0
	for _, ar := range assets {
		if len(ar.CashFlows) == 0 {
			continue
		}
		start := ar.CashFlows[0].Year
		end := ar.CashFlows[len(ar.CashFlows)-1].Year
		if firstYear == 0 || start < firstYear {
			firstYear = start
		}
		if end > lastYear {
			lastYear = end
		}
	}
	if firstYear == 0 {
		return nil
	}

	combined := make([]domain.PeriodCashFlow, lastYear-firstYear+1)
	for i := range combined {
		combined[i].Year = firstYear + i
	}
	for _, ar := range assets {
		for _, cf := range ar.CashFlows {
			c := &combined[cf.Year-firstYear]
			c.ContractedRevenue += cf.ContractedRevenue
			c.MerchantRevenue += cf.MerchantRevenue
			c.Opex += cf.Opex
			c.OperatingCashFlow += cf.OperatingCashFlow
		}
	}

	return combined
}

// escalationFactor compounds a percentage escalation over elapsed whole years.
func escalationFactor(pctPerYear float64, elapsedYears int) float64 {
	if elapsedYears <= 0 || pctPerYear == 0 {
		return 1.0
	}
	return math.Pow(1+pctPerYear/100, float64(elapsedYears))
}
