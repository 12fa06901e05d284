// Package pricing serves merchant price curves to the modeling engine. Curves
// live in prices.db keyed by (profile, price type, region, period); the
// service layer turns them into the pure lookup function the engine consumes.
package pricing

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// PricePoint is one point on a merchant price curve. Prices are $/MWh.
type PricePoint struct {
	Profile   string  `json:"profile"`    // Technology profile (solar, wind, storage)
	PriceType string  `json:"price_type"` // "Energy", "green", "spread"
	Region    string  `json:"region"`
	Period    string  `json:"period"` // "2030", "2030-Q2", or "1/07/2030"
	Price     float64 `json:"price"`
}

// Repository handles merchant price persistence
type Repository struct {
	pricesDB *sql.DB
	log      zerolog.Logger
}

// NewRepository creates a new price repository
func NewRepository(pricesDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		pricesDB: pricesDB,
		log:      log.With().Str("repo", "pricing").Logger(),
	}
}

// GetPrice retrieves a single curve point. The second return is false when
// the curve has no point for the key.
func (r *Repository) GetPrice(profile, priceType, region, period string) (float64, bool, error) {
	var price float64
	err := r.pricesDB.QueryRow(`
		SELECT price FROM merchant_prices
		WHERE profile = ? AND price_type = ? AND region = ? AND period = ?
	`, profile, priceType, region, period).Scan(&price)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get price: %w", err)
	}
	return price, true, nil
}

// Upsert inserts or replaces curve points, returning the count written.
func (r *Repository) Upsert(points []PricePoint) (int, error) {
	tx, err := r.pricesDB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO merchant_prices (profile, price_type, region, period, price)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, p := range points {
		if _, err := stmt.Exec(p.Profile, p.PriceType, p.Region, p.Period, p.Price); err != nil {
			return 0, fmt.Errorf("failed to upsert price point: %w", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return written, nil
}

// GetCurve retrieves all points of one curve ordered by period.
func (r *Repository) GetCurve(profile, priceType, region string) ([]PricePoint, error) {
	rows, err := r.pricesDB.Query(`
		SELECT profile, price_type, region, period, price
		FROM merchant_prices
		WHERE profile = ? AND price_type = ? AND region = ?
		ORDER BY period ASC
	`, profile, priceType, region)
	if err != nil {
		return nil, fmt.Errorf("failed to query curve: %w", err)
	}
	defer rows.Close()

	var points []PricePoint
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.Profile, &p.PriceType, &p.Region, &p.Period, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating curve: %w", err)
	}
	return points, nil
}

// GetSetting retrieves a numeric pricing setting. The second return is false
// when the key is unset.
func (r *Repository) GetSetting(key string) (float64, bool, error) {
	var value float64
	err := r.pricesDB.QueryRow("SELECT value FROM price_settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get setting: %w", err)
	}
	return value, true, nil
}

// SetSetting stores a numeric pricing setting.
func (r *Repository) SetSetting(key string, value float64) error {
	_, err := r.pricesDB.Exec(`
		INSERT OR REPLACE INTO price_settings (key, value) VALUES (?, ?)
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}
	return nil
}
