package portfolio

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
)

func setupPortfolioDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE assets (
			name TEXT PRIMARY KEY,
			technology TEXT NOT NULL,
			capacity_mw REAL NOT NULL DEFAULT 0,
			volume_mwh REAL NOT NULL DEFAULT 0,
			region TEXT NOT NULL DEFAULT '',
			start_date INTEGER NOT NULL,
			life_years INTEGER NOT NULL DEFAULT 30,
			degradation REAL NOT NULL DEFAULT 0,
			capacity_factor REAL NOT NULL DEFAULT 0,
			quarterly_factors_json TEXT,
			contracts_json TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE cost_profiles (
			asset_name TEXT PRIMARY KEY,
			capex REAL NOT NULL,
			operating_cost REAL NOT NULL DEFAULT 0,
			operating_cost_escalation REAL NOT NULL DEFAULT 0,
			terminal_value REAL NOT NULL DEFAULT 0,
			max_gearing REAL NOT NULL DEFAULT 0.7,
			target_dscr_contract REAL NOT NULL DEFAULT 1.35,
			target_dscr_merchant REAL NOT NULL DEFAULT 2.0,
			interest_rate REAL NOT NULL DEFAULT 0.06,
			tenor_years INTEGER NOT NULL DEFAULT 15,
			debt_structure TEXT NOT NULL DEFAULT 'sculpting',
			equity_timing_upfront INTEGER NOT NULL DEFAULT 1,
			construction_duration_months INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)
	return db
}

func newService(t *testing.T) *Service {
	t.Helper()
	db := setupPortfolioDB(t)
	return NewService(
		NewAssetRepository(db, zerolog.Nop()),
		NewProfileRepository(db, zerolog.Nop()),
		zerolog.Nop(),
	)
}

func testAsset() domain.Asset {
	return domain.Asset{
		Name:             "Plains Solar",
		Technology:       domain.TechnologySolar,
		CapacityMW:       100,
		Region:           "NSW",
		StartDate:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LifeYears:        30,
		Degradation:      0.4,
		CapacityFactor:   0.28,
		QuarterlyFactors: [4]float64{0.32, 0.24, 0.22, 0.34},
		Contracts: []domain.Contract{{
			Kind:            domain.ContractBundled,
			CounterpartyPct: 70,
			GreenPrice:      30,
			EnergyPrice:     55,
			Escalation:      2.0,
			StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2039, 12, 31, 0, 0, 0, 0, time.UTC),
		}},
	}
}

func TestAssetRoundTrip(t *testing.T) {
	svc := newService(t)

	require.NoError(t, svc.SaveAsset(testAsset()))

	got, err := svc.GetAsset("Plains Solar")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, domain.TechnologySolar, got.Technology)
	assert.Equal(t, 100.0, got.CapacityMW)
	assert.Equal(t, 2025, got.StartDate.Year())
	assert.Equal(t, [4]float64{0.32, 0.24, 0.22, 0.34}, got.QuarterlyFactors)

	require.Len(t, got.Contracts, 1)
	c := got.Contracts[0]
	assert.Equal(t, domain.ContractBundled, c.Kind)
	assert.Equal(t, 70.0, c.CounterpartyPct)
	assert.Equal(t, 2039, c.EndDate.Year())

	// Upsert replaces in place
	updated := testAsset()
	updated.CapacityMW = 120
	require.NoError(t, svc.SaveAsset(updated))

	got, err = svc.GetAsset("Plains Solar")
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.CapacityMW)

	missing, err := svc.GetAsset("Nonexistent")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProfileRoundTrip(t *testing.T) {
	svc := newService(t)

	profile := domain.AssetCostProfile{
		Capex:              110,
		OperatingCost:      3.5,
		TerminalValue:      8,
		MaxGearing:         0.70,
		TargetDSCRContract: 1.35,
		TargetDSCRMerchant: 1.80,
		InterestRate:       0.06,
		TenorYears:         18,
		DebtStructure:      domain.DebtStructureSculpting,
	}
	require.NoError(t, svc.SaveProfile("Plains Solar", profile))

	got, found, err := svc.GetProfile("Plains Solar")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, profile, got)

	_, found, err = svc.GetProfile("Nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLoadInputs(t *testing.T) {
	svc := newService(t)

	require.NoError(t, svc.SaveAsset(testAsset()))
	require.NoError(t, svc.SaveProfile("Plains Solar", domain.AssetCostProfile{Capex: 110}))
	// The portfolio refinancing profile rides along under the reserved key
	require.NoError(t, svc.SaveProfile(domain.PortfolioProfileKey, domain.AssetCostProfile{MaxGearing: 0.75, TenorYears: 20}))

	assets, profiles, err := svc.LoadInputs()
	require.NoError(t, err)

	require.Len(t, assets, 1)
	assert.Equal(t, "Plains Solar", assets[0].Name)
	require.Len(t, profiles, 2)
	assert.Contains(t, profiles, domain.PortfolioProfileKey)
}

func TestDeleteRemovesProfileToo(t *testing.T) {
	svc := newService(t)

	require.NoError(t, svc.SaveAsset(testAsset()))
	require.NoError(t, svc.SaveProfile("Plains Solar", domain.AssetCostProfile{Capex: 110}))
	require.NoError(t, svc.DeleteAsset("Plains Solar"))

	got, err := svc.GetAsset("Plains Solar")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, found, err := svc.GetProfile("Plains Solar")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAssetValidation(t *testing.T) {
	svc := newService(t)

	noName := testAsset()
	noName.Name = ""
	assert.Error(t, svc.SaveAsset(noName))

	reserved := testAsset()
	reserved.Name = domain.PortfolioProfileKey
	assert.Error(t, svc.SaveAsset(reserved))

	badTech := testAsset()
	badTech.Technology = "geothermal"
	assert.Error(t, svc.SaveAsset(badTech))

	noCapacity := testAsset()
	noCapacity.CapacityMW = 0
	assert.Error(t, svc.SaveAsset(noCapacity))

	storageNoVolume := testAsset()
	storageNoVolume.Technology = domain.TechnologyStorage
	storageNoVolume.VolumeMWh = 0
	assert.Error(t, svc.SaveAsset(storageNoVolume))

	overContracted := testAsset()
	overContracted.Contracts = append(overContracted.Contracts, domain.Contract{
		Kind:            domain.ContractGreen,
		CounterpartyPct: 40,
		GreenPrice:      25,
		StartDate:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2035, 12, 31, 0, 0, 0, 0, time.UTC),
	})
	// 70% + 40% over 2030-2035
	assert.Error(t, svc.SaveAsset(overContracted))

	assert.Error(t, svc.SaveProfile("X", domain.AssetCostProfile{MaxGearing: 1.2}))
	assert.Error(t, svc.SaveProfile("X", domain.AssetCostProfile{DebtStructure: "balloon"}))
}
