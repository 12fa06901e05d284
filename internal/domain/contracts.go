package domain

import "time"

// ContractKind tags a revenue contract variant. Kinds are grouped into two
// families: renewable offtake contracts and storage contracts. Every
// computation that depends on the variant dispatches on the kind exactly once
// (see the revenue calculator) instead of scattering string checks.
type ContractKind string

// Renewable offtake contract kinds
const (
	// ContractFixed - fixed price for the full bundled output
	ContractFixed ContractKind = "fixed"
	// ContractBundled - green + energy sold together at separate prices
	ContractBundled ContractKind = "bundled"
	// ContractGreen - green certificates only
	ContractGreen ContractKind = "green"
	// ContractEnergy - energy only
	ContractEnergy ContractKind = "energy"
	// ContractCfD - contract-for-difference against the merchant energy price
	ContractCfD ContractKind = "cfd"
)

// Storage contract kinds
const (
	// ContractTolling - fixed hourly availability payment for the full volume
	ContractTolling ContractKind = "tolling"
	// ContractStorageCfD - contract-for-difference on the charge/discharge spread
	ContractStorageCfD ContractKind = "storage_cfd"
)

// RenewableFamily reports whether the kind belongs to the renewable offtake
// family (as opposed to the storage family).
func (k ContractKind) RenewableFamily() bool {
	switch k {
	case ContractFixed, ContractBundled, ContractGreen, ContractEnergy, ContractCfD:
		return true
	}
	return false
}

// Contract is one revenue contract attached to an asset. Which fields are
// meaningful depends on the kind; the revenue calculator's dispatch function
// is the single place that interprets them.
//
// Prices are $/MWh, escalation is percent per year from the contract start.
type Contract struct {
	Kind            ContractKind `json:"kind"`
	CounterpartyPct float64      `json:"counterparty_pct"` // Share of output contracted, 0-100
	StrikePrice     float64      `json:"strike_price"`     // fixed, cfd, storage_cfd
	GreenPrice      float64      `json:"green_price"`      // bundled, green
	EnergyPrice     float64      `json:"energy_price"`     // bundled, energy
	HourlyRate      float64      `json:"hourly_rate"`      // tolling, $/hour
	Escalation      float64      `json:"escalation"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
}

// ActiveInYear reports whether the contract covers any part of the given
// calendar year.
func (c Contract) ActiveInYear(year int) bool {
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return false
	}
	return year >= c.StartDate.Year() && year <= c.EndDate.Year()
}

// EscalationFactor returns the compounded escalation multiplier for a
// calendar year relative to the contract start year.
func (c Contract) EscalationFactor(year int) float64 {
	elapsed := year - c.StartDate.Year()
	if elapsed <= 0 || c.Escalation == 0 {
		return 1.0
	}
	factor := 1.0
	for i := 0; i < elapsed; i++ {
		factor *= 1 + c.Escalation/100
	}
	return factor
}

// PriceProvider is the merchant price lookup consumed by the engine.
// It must behave as a synchronous pure function: same inputs, same output.
// periodKey is a 4-digit year ("2030"), a quarter ("2030-Q2"), or a
// D/MM/YYYY date string. The second return is false when the curve has no
// point for the key.
type PriceProvider func(profile, priceType, region, periodKey string) (float64, bool)
