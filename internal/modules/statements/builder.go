package statements

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/debt"
)

// Inputs carries everything the builder needs for one run. Revenue maps are
// keyed by asset name, then by calendar year (annual) or "YYYY-Qn" (quarterly).
type Inputs struct {
	Assets           []domain.Asset
	Profiles         map[string]domain.AssetCostProfile
	Constants        domain.Constants
	Schedules        map[string]debt.Schedule
	AnnualRevenue    map[string]map[int]domain.RevenueBreakdown
	QuarterlyRevenue map[string]map[string]domain.RevenueBreakdown
}

// Builder consolidates per-asset P&L into platform statements.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a new statement builder.
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{
		log: log.With().Str("service", "statements").Logger(),
	}
}

// Build produces per-asset annual statements plus platform annual and
// quarterly statements for the analysis window.
//
// Platform EBITDA through NPAT are recomputed top-down after platform opex is
// subtracted - summing asset-level EBT would double-apply platform costs.
func (b *Builder) Build(in Inputs) *Output {
	out := &Output{
		PerAsset: make(map[string][]Statement, len(in.Assets)),
	}

	years := in.Constants.Years()

	for _, asset := range in.Assets {
		profile, ok := in.Profiles[asset.Name]
		if !ok {
			b.log.Warn().Str("asset", asset.Name).Msg("No cost profile, skipping asset in statements")
			continue
		}
		out.PerAsset[asset.Name] = b.buildAssetAnnual(asset, profile, in, years)
	}

	out.PlatformAnnual = b.buildPlatformAnnual(in, out.PerAsset, years)
	out.PlatformQuarterly = b.buildPlatformQuarterly(in, out.PerAsset, out.PlatformAnnual)

	return out
}

// buildAssetAnnual builds one asset's annual statements across the window.
func (b *Builder) buildAssetAnnual(
	asset domain.Asset,
	profile domain.AssetCostProfile,
	in Inputs,
	years []int,
) []Statement {
	stmts := make([]Statement, 0, len(years))
	schedule := in.Schedules[asset.Name]
	depPeriod := in.Constants.DepreciationPeriod(asset.Technology)

	for _, year := range years {
		s := Statement{
			Period: fmt.Sprintf("%d", year),
			Year:   year,
		}

		if breakdown, ok := in.AnnualRevenue[asset.Name][year]; ok {
			s.Revenue = breakdown.Total()
		}

		operating := year >= asset.OperatingStartYear() && year <= asset.OperatingEndYear()
		elapsed := asset.YearsSinceStart(year)

		if operating {
			s.AssetOpex = -profile.OperatingCost * escalate(profile.OperatingCostEscalation, elapsed)

			// Straight-line depreciation until the period ends
			if elapsed < depPeriod && depPeriod > 0 {
				s.Depreciation = -profile.Capex / float64(depPeriod)
			}

			s.Interest = -schedule.InterestInYear(elapsed)
			s.Principal = -schedule.PrincipalInYear(elapsed)
		}

		s.deriveFromLines(in.Constants.TaxRate)
		stmts = append(stmts, s)
	}

	return stmts
}

// buildPlatformAnnual sums asset lines per year, layers in escalated platform
// overhead, and rederives the profit lines at the platform level.
func (b *Builder) buildPlatformAnnual(in Inputs, perAsset map[string][]Statement, years []int) []Statement {
	platform := make([]Statement, 0, len(years))

	for i, year := range years {
		s := Statement{
			Period: fmt.Sprintf("%d", year),
			Year:   year,
		}

		for _, stmts := range perAsset {
			if i >= len(stmts) {
				continue
			}
			s.Revenue += stmts[i].Revenue
			s.AssetOpex += stmts[i].AssetOpex
			s.Depreciation += stmts[i].Depreciation
			s.Interest += stmts[i].Interest
			s.Principal += stmts[i].Principal
		}

		s.PlatformOpex = -in.Constants.PlatformOpex * escalate(in.Constants.PlatformOpexEscalation, year-in.Constants.StartYear)

		s.deriveFromLines(in.Constants.TaxRate)
		platform = append(platform, s)
	}

	return platform
}

// buildPlatformQuarterly approximates quarterly statements: revenue is
// computed independently per quarter from the quarterly breakdowns, every
// other primary line is the annual figure divided by four, and the profit
// lines are rederived. The uniform /4 split is documented model behavior, not
// a seasonality model.
func (b *Builder) buildPlatformQuarterly(in Inputs, perAsset map[string][]Statement, annual []Statement) []Statement {
	quarterly := make([]Statement, 0, len(annual)*4)

	for _, a := range annual {
		for q := 1; q <= 4; q++ {
			s := Statement{
				Period:  fmt.Sprintf("%d-Q%d", a.Year, q),
				Year:    a.Year,
				Quarter: q,

				AssetOpex:    a.AssetOpex / 4,
				PlatformOpex: a.PlatformOpex / 4,
				Depreciation: a.Depreciation / 4,
				Interest:     a.Interest / 4,
				Principal:    a.Principal / 4,
			}

			// Only assets that made it into the per-asset statements
			// contribute; an asset skipped for a missing profile must not
			// leak revenue into the quarterly view.
			key := s.Period
			for name := range perAsset {
				if breakdown, ok := in.QuarterlyRevenue[name][key]; ok {
					s.Revenue += breakdown.Total()
				}
			}

			s.deriveFromLines(in.Constants.TaxRate)
			quarterly = append(quarterly, s)
		}
	}

	return quarterly
}

// escalate compounds a percentage escalation over elapsed whole years.
func escalate(pctPerYear float64, elapsedYears int) float64 {
	if elapsedYears <= 0 || pctPerYear == 0 {
		return 1.0
	}
	return math.Pow(1+pctPerYear/100, float64(elapsedYears))
}
