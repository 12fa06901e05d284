// Package portfolio persists the asset register and per-asset cost profiles,
// and assembles them into pipeline inputs.
package portfolio

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
)

// AssetRepository handles asset persistence
type AssetRepository struct {
	portfolioDB *sql.DB
	log         zerolog.Logger
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(portfolioDB *sql.DB, log zerolog.Logger) *AssetRepository {
	return &AssetRepository{
		portfolioDB: portfolioDB,
		log:         log.With().Str("repo", "assets").Logger(),
	}
}

// Upsert inserts or replaces an asset. Contracts and quarterly factors are
// stored as JSON columns.
func (r *AssetRepository) Upsert(asset domain.Asset) error {
	contractsJSON, err := json.Marshal(asset.Contracts)
	if err != nil {
		return fmt.Errorf("failed to marshal contracts: %w", err)
	}
	factorsJSON, err := json.Marshal(asset.QuarterlyFactors)
	if err != nil {
		return fmt.Errorf("failed to marshal quarterly factors: %w", err)
	}

	now := time.Now().Unix()
	_, err = r.portfolioDB.Exec(`
		INSERT INTO assets (
			name, technology, capacity_mw, volume_mwh, region, start_date,
			life_years, degradation, capacity_factor, quarterly_factors_json,
			contracts_json, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			technology = excluded.technology,
			capacity_mw = excluded.capacity_mw,
			volume_mwh = excluded.volume_mwh,
			region = excluded.region,
			start_date = excluded.start_date,
			life_years = excluded.life_years,
			degradation = excluded.degradation,
			capacity_factor = excluded.capacity_factor,
			quarterly_factors_json = excluded.quarterly_factors_json,
			contracts_json = excluded.contracts_json,
			updated_at = excluded.updated_at
	`,
		asset.Name,
		string(asset.Technology),
		asset.CapacityMW,
		asset.VolumeMWh,
		asset.Region,
		asset.StartDate.Unix(),
		asset.LifeYears,
		asset.Degradation,
		asset.CapacityFactor,
		string(factorsJSON),
		string(contractsJSON),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert asset: %w", err)
	}
	return nil
}

// GetByName retrieves one asset, or nil when it does not exist.
func (r *AssetRepository) GetByName(name string) (*domain.Asset, error) {
	row := r.portfolioDB.QueryRow(`
		SELECT name, technology, capacity_mw, volume_mwh, region, start_date,
		       life_years, degradation, capacity_factor, quarterly_factors_json,
		       contracts_json
		FROM assets
		WHERE name = ?
	`, name)

	asset, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return asset, nil
}

// GetAll retrieves every asset ordered by name.
func (r *AssetRepository) GetAll() ([]domain.Asset, error) {
	rows, err := r.portfolioDB.Query(`
		SELECT name, technology, capacity_mw, volume_mwh, region, start_date,
		       life_years, degradation, capacity_factor, quarterly_factors_json,
		       contracts_json
		FROM assets
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

// Delete removes an asset and its cost profile.
func (r *AssetRepository) Delete(name string) error {
	if _, err := r.portfolioDB.Exec("DELETE FROM assets WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if _, err := r.portfolioDB.Exec("DELETE FROM cost_profiles WHERE asset_name = ?", name); err != nil {
		return fmt.Errorf("failed to delete cost profile: %w", err)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (*domain.Asset, error) {
	var (
		asset        domain.Asset
		technology   string
		startUnix    int64
		factorsJSON  sql.NullString
		contractJSON sql.NullString
	)

	err := row.Scan(
		&asset.Name,
		&technology,
		&asset.CapacityMW,
		&asset.VolumeMWh,
		&asset.Region,
		&startUnix,
		&asset.LifeYears,
		&asset.Degradation,
		&asset.CapacityFactor,
		&factorsJSON,
		&contractJSON,
	)
	if err != nil {
		return nil, err
	}

	asset.Technology = domain.Technology(technology)
	asset.StartDate = time.Unix(startUnix, 0).UTC()

	if factorsJSON.Valid && factorsJSON.String != "" {
		if err := json.Unmarshal([]byte(factorsJSON.String), &asset.QuarterlyFactors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quarterly factors: %w", err)
		}
	}
	if contractJSON.Valid && contractJSON.String != "" {
		if err := json.Unmarshal([]byte(contractJSON.String), &asset.Contracts); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contracts: %w", err)
		}
	}

	return &asset, nil
}
