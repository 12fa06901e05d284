// Package revenue decomposes per-asset output into contracted and merchant
// revenue buckets. It is the upstream input contract for the debt sizing and
// statement stages: one RevenueBreakdown per asset per period.
package revenue

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
)

const (
	hoursPerYear    = 8760.0
	hoursPerQuarter = hoursPerYear / 4
	// storageCyclesPerDay - one full charge/discharge cycle per day
	storageCyclesPerDay = 1.0
)

// Calculator computes revenue breakdowns from contracts and merchant prices.
// The price provider must be a synchronous pure lookup; the calculator adds
// no retry or caching semantics of its own.
type Calculator struct {
	price domain.PriceProvider
	log   zerolog.Logger
}

// NewCalculator creates a new revenue calculator.
func NewCalculator(price domain.PriceProvider, log zerolog.Logger) *Calculator {
	return &Calculator{
		price: price,
		log:   log.With().Str("service", "revenue").Logger(),
	}
}

// Annual returns the revenue breakdown for one asset and calendar year.
// Years outside the asset's operating life yield a zero breakdown.
func (c *Calculator) Annual(asset domain.Asset, year int) domain.RevenueBreakdown {
	if year < asset.OperatingStartYear() || year > asset.OperatingEndYear() {
		return domain.RevenueBreakdown{}
	}

	generation := c.annualGeneration(asset, year)
	periodKey := fmt.Sprintf("%d", year)
	return c.breakdown(asset, generation, year, periodKey)
}

// Quarterly returns the revenue breakdown for one asset, calendar year and
// quarter (1-4). Quarterly revenue is computed independently rather than as
// an annual /4 split because the contract/merchant mix can shift intra-year.
func (c *Calculator) Quarterly(asset domain.Asset, year, quarter int) domain.RevenueBreakdown {
	if year < asset.OperatingStartYear() || year > asset.OperatingEndYear() {
		return domain.RevenueBreakdown{}
	}
	if quarter < 1 || quarter > 4 {
		return domain.RevenueBreakdown{}
	}

	generation := c.quarterlyGeneration(asset, year, quarter)
	periodKey := fmt.Sprintf("%d-Q%d", year, quarter)
	return c.breakdown(asset, generation, year, periodKey)
}

// annualGeneration returns the asset's output for the year in MWh, after
// degradation.
func (c *Calculator) annualGeneration(asset domain.Asset, year int) float64 {
	factor := degradationFactor(asset, year)

	if asset.Technology == domain.TechnologyStorage {
		return asset.VolumeMWh * storageCyclesPerDay * 365 * factor
	}
	return asset.CapacityMW * hoursPerYear * asset.CapacityFactor * factor
}

// quarterlyGeneration returns the asset's output for one quarter in MWh.
// Assets with per-quarter capacity factors use them; otherwise the annual
// factor applies flat across quarters.
func (c *Calculator) quarterlyGeneration(asset domain.Asset, year, quarter int) float64 {
	factor := degradationFactor(asset, year)

	if asset.Technology == domain.TechnologyStorage {
		return asset.VolumeMWh * storageCyclesPerDay * 365 / 4 * factor
	}

	capacityFactor := asset.CapacityFactor
	if qf := asset.QuarterlyFactors[quarter-1]; qf > 0 {
		capacityFactor = qf
	}
	return asset.CapacityMW * hoursPerQuarter * capacityFactor * factor
}

// degradationFactor compounds annual output degradation from the operating
// start year.
func degradationFactor(asset domain.Asset, year int) float64 {
	elapsed := asset.YearsSinceStart(year)
	if elapsed <= 0 || asset.Degradation == 0 {
		return 1.0
	}
	return math.Pow(1-asset.Degradation/100, float64(elapsed))
}

// breakdown splits the period's generation into contracted and merchant
// revenue. Contracted shares come from active contracts; whatever share of
// output remains uncontracted is sold merchant at the provider's price.
func (c *Calculator) breakdown(asset domain.Asset, generationMWh float64, year int, periodKey string) domain.RevenueBreakdown {
	result := domain.RevenueBreakdown{TotalGeneration: generationMWh}
	if generationMWh <= 0 {
		return result
	}

	contractedPct := 0.0
	for _, contract := range asset.Contracts {
		if !contract.ActiveInYear(year) {
			continue
		}

		green, energy, ok := c.contractRevenue(asset, contract, generationMWh, year, periodKey)
		if !ok {
			continue
		}

		result.ContractedGreen += green
		result.ContractedEnergy += energy
		contractedPct += contract.CounterpartyPct
	}

	merchantShare := 1 - contractedPct/100
	if merchantShare < 0 {
		merchantShare = 0
	}
	merchantMWh := generationMWh * merchantShare

	green, energy := c.merchantRevenue(asset, merchantMWh, periodKey)
	result.MerchantGreen = green
	result.MerchantEnergy = energy

	return result
}

// contractRevenue is the single dispatch point over contract kinds. It
// returns the period's contracted green and energy revenue in $M, and false
// for a kind it does not recognize (the contract is skipped with a warning,
// not fatal).
func (c *Calculator) contractRevenue(
	asset domain.Asset,
	contract domain.Contract,
	generationMWh float64,
	year int,
	periodKey string,
) (green, energy float64, ok bool) {
	share := contract.CounterpartyPct / 100
	contractedMWh := generationMWh * share
	escalation := contract.EscalationFactor(year)

	switch contract.Kind {
	case domain.ContractFixed:
		// Single bundled price for the full contracted output
		return 0, toMillions(contractedMWh * contract.StrikePrice * escalation), true

	case domain.ContractBundled:
		green = toMillions(contractedMWh * contract.GreenPrice * escalation)
		energy = toMillions(contractedMWh * contract.EnergyPrice * escalation)
		return green, energy, true

	case domain.ContractGreen:
		return toMillions(contractedMWh * contract.GreenPrice * escalation), 0, true

	case domain.ContractEnergy:
		return 0, toMillions(contractedMWh * contract.EnergyPrice * escalation), true

	case domain.ContractCfD:
		// Buyer settles the difference against merchant energy: the asset
		// receives the escalated strike on the contracted share regardless
		// of the floating price.
		return 0, toMillions(contractedMWh * contract.StrikePrice * escalation), true

	case domain.ContractTolling:
		// Availability payment: $/hour on the full period, independent of
		// throughput
		hours := hoursPerYear
		if len(periodKey) > 4 {
			hours = hoursPerQuarter
		}
		return 0, toMillions(hours * contract.HourlyRate * escalation), true

	case domain.ContractStorageCfD:
		return 0, toMillions(contractedMWh * contract.StrikePrice * escalation), true

	default:
		c.log.Warn().
			Str("asset", asset.Name).
			Str("kind", string(contract.Kind)).
			Msg("Unknown contract kind, skipping contract")
		return 0, 0, false
	}
}

// merchantRevenue prices the uncontracted share of output at the provider's
// curve. Renewables sell both energy and green certificates; storage earns
// the charge/discharge spread on its energy only.
func (c *Calculator) merchantRevenue(asset domain.Asset, merchantMWh float64, periodKey string) (green, energy float64) {
	if merchantMWh <= 0 {
		return 0, 0
	}

	profile := string(asset.Technology)

	if asset.Technology == domain.TechnologyStorage {
		spread, ok := c.price(profile, "Energy", asset.Region, periodKey)
		if !ok {
			c.log.Warn().Str("asset", asset.Name).Str("period", periodKey).Msg("No merchant spread price for period")
			return 0, 0
		}
		return 0, toMillions(merchantMWh * spread)
	}

	energyPrice, ok := c.price(profile, "Energy", asset.Region, periodKey)
	if ok {
		energy = toMillions(merchantMWh * energyPrice)
	} else {
		c.log.Warn().Str("asset", asset.Name).Str("period", periodKey).Msg("No merchant energy price for period")
	}

	greenPrice, ok := c.price(profile, "green", asset.Region, periodKey)
	if ok {
		green = toMillions(merchantMWh * greenPrice)
	}

	return green, energy
}

// toMillions converts MWh x $/MWh revenue to $M.
func toMillions(dollars float64) float64 {
	return dollars / 1e6
}
