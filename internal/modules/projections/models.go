// Package projections orchestrates the full modeling pipeline for one run:
// per-asset revenue, debt sizing and equity returns in parallel, then the
// consolidated statement, cash flow and balance sheet stages in sequence.
package projections

import (
	"time"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/balance"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/debt"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/returns"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/statements"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/waterfall"
)

// Inputs is everything one pipeline run needs. The pipeline never mutates its
// inputs; a run is a pure function of them plus the price provider.
type Inputs struct {
	Assets    []domain.Asset
	Profiles  map[string]domain.AssetCostProfile
	Constants domain.Constants
	Equity    balance.EquityStructure
}

// AssetResult carries one asset's full modeling output.
type AssetResult struct {
	Asset            domain.Asset                       `json:"asset"`
	CashFlows        []domain.PeriodCashFlow            `json:"cash_flows"`
	Schedule         debt.Schedule                      `json:"schedule"`
	AnnualRevenue    map[int]domain.RevenueBreakdown    `json:"annual_revenue"`
	QuarterlyRevenue map[string]domain.RevenueBreakdown `json:"quarterly_revenue"`
	Equity           returns.EquityCashFlowVector       `json:"equity"`
	Metrics          returns.Metrics                    `json:"metrics"`
}

// Result is the complete output of one pipeline run. Consumers always receive
// a whole Result; partial runs are never published.
type Result struct {
	RunID       string           `json:"run_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Constants   domain.Constants `json:"constants"`

	Assets map[string]*AssetResult `json:"assets"`

	Statements        *statements.Output `json:"statements"`
	CashFlowAnnual    []waterfall.Record `json:"cash_flow_annual"`
	CashFlowQuarterly []waterfall.Record `json:"cash_flow_quarterly"`
	BalanceSheets     []balance.Record   `json:"balance_sheets"`

	PortfolioEquity  returns.EquityCashFlowVector `json:"portfolio_equity"`
	PortfolioMetrics returns.Metrics              `json:"portfolio_metrics"`

	// PortfolioRefinance is a portfolio-level sculpted refinancing sized
	// against the combined asset cash flows. Present only when the portfolio
	// holds two or more assets and a portfolio cost profile exists; it is
	// reported alongside the asset schedules, never substituted for them.
	PortfolioRefinance *debt.Schedule `json:"portfolio_refinance,omitempty"`
}
