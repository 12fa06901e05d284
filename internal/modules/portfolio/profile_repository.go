package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
)

// ProfileRepository handles cost profile persistence
type ProfileRepository struct {
	portfolioDB *sql.DB
	log         zerolog.Logger
}

// NewProfileRepository creates a new cost profile repository
func NewProfileRepository(portfolioDB *sql.DB, log zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{
		portfolioDB: portfolioDB,
		log:         log.With().Str("repo", "cost_profiles").Logger(),
	}
}

// Upsert inserts or replaces the cost profile for an asset. The portfolio
// refinancing profile uses the reserved "portfolio" key.
func (r *ProfileRepository) Upsert(assetName string, profile domain.AssetCostProfile) error {
	upfront := 0
	if profile.EquityTimingUpfront {
		upfront = 1
	}

	_, err := r.portfolioDB.Exec(`
		INSERT OR REPLACE INTO cost_profiles (
			asset_name, capex, operating_cost, operating_cost_escalation,
			terminal_value, max_gearing, target_dscr_contract,
			target_dscr_merchant, interest_rate, tenor_years, debt_structure,
			equity_timing_upfront, construction_duration_months, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		assetName,
		profile.Capex,
		profile.OperatingCost,
		profile.OperatingCostEscalation,
		profile.TerminalValue,
		profile.MaxGearing,
		profile.TargetDSCRContract,
		profile.TargetDSCRMerchant,
		profile.InterestRate,
		profile.TenorYears,
		string(profile.DebtStructure),
		upfront,
		profile.ConstructionDurationMonths,
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cost profile: %w", err)
	}
	return nil
}

// GetByName retrieves one cost profile. The second return is false when no
// profile exists for the name.
func (r *ProfileRepository) GetByName(assetName string) (domain.AssetCostProfile, bool, error) {
	row := r.portfolioDB.QueryRow(`
		SELECT capex, operating_cost, operating_cost_escalation, terminal_value,
		       max_gearing, target_dscr_contract, target_dscr_merchant,
		       interest_rate, tenor_years, debt_structure,
		       equity_timing_upfront, construction_duration_months
		FROM cost_profiles
		WHERE asset_name = ?
	`, assetName)

	profile, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return domain.AssetCostProfile{}, false, nil
	}
	if err != nil {
		return domain.AssetCostProfile{}, false, fmt.Errorf("failed to get cost profile: %w", err)
	}
	return profile, true, nil
}

// GetAll retrieves every cost profile keyed by asset name.
func (r *ProfileRepository) GetAll() (map[string]domain.AssetCostProfile, error) {
	rows, err := r.portfolioDB.Query(`
		SELECT asset_name, capex, operating_cost, operating_cost_escalation,
		       terminal_value, max_gearing, target_dscr_contract,
		       target_dscr_merchant, interest_rate, tenor_years, debt_structure,
		       equity_timing_upfront, construction_duration_months
		FROM cost_profiles
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost profiles: %w", err)
	}
	defer rows.Close()

	profiles := make(map[string]domain.AssetCostProfile)
	for rows.Next() {
		var (
			name    string
			profile domain.AssetCostProfile
			upfront int
		)
		err := rows.Scan(
			&name,
			&profile.Capex,
			&profile.OperatingCost,
			&profile.OperatingCostEscalation,
			&profile.TerminalValue,
			&profile.MaxGearing,
			&profile.TargetDSCRContract,
			&profile.TargetDSCRMerchant,
			&profile.InterestRate,
			&profile.TenorYears,
			&profile.DebtStructure,
			&upfront,
			&profile.ConstructionDurationMonths,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cost profile: %w", err)
		}
		profile.EquityTimingUpfront = upfront != 0
		profiles[name] = profile
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cost profiles: %w", err)
	}
	return profiles, nil
}

func scanProfile(row scanner) (domain.AssetCostProfile, error) {
	var (
		profile domain.AssetCostProfile
		upfront int
	)
	err := row.Scan(
		&profile.Capex,
		&profile.OperatingCost,
		&profile.OperatingCostEscalation,
		&profile.TerminalValue,
		&profile.MaxGearing,
		&profile.TargetDSCRContract,
		&profile.TargetDSCRMerchant,
		&profile.InterestRate,
		&profile.TenorYears,
		&profile.DebtStructure,
		&upfront,
		&profile.ConstructionDurationMonths,
	)
	if err != nil {
		return domain.AssetCostProfile{}, err
	}
	profile.EquityTimingUpfront = upfront != 0
	return profile, nil
}
