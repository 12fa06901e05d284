package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/portfolio"
)

func setupRouter(t *testing.T) *chi.Mux {
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

	svc := portfolio.NewService(
		portfolio.NewAssetRepository(db, zerolog.Nop()),
		portfolio.NewProfileRepository(db, zerolog.Nop()),
		zerolog.Nop(),
	)

	router := chi.NewRouter()
	NewHandler(svc, zerolog.Nop()).RegisterRoutes(router)
	return router
}

func sampleAsset() domain.Asset {
	return domain.Asset{
		Name:           "Plains-Solar",
		Technology:     domain.TechnologySolar,
		CapacityMW:     100,
		Region:         "NSW",
		StartDate:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		LifeYears:      30,
		CapacityFactor: 0.28,
	}
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAssetCRUD(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, "POST", "/assets/", sampleAsset())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, "GET", "/assets/Plains-Solar/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Asset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Plains-Solar", got.Name)
	assert.Equal(t, domain.TechnologySolar, got.Technology)

	rec = doJSON(t, router, "GET", "/assets/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	rec = doJSON(t, router, "DELETE", "/assets/Plains-Solar/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/assets/Plains-Solar/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	router := setupRouter(t)

	rec := doJSON(t, router, "POST", "/assets/", sampleAsset())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "GET", "/assets/Plains-Solar/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	profile := domain.AssetCostProfile{
		Capex:                   110,
		OperatingCost:           4.5,
		OperatingCostEscalation: 2.5,
		MaxGearing:              0.70,
		TargetDSCRContract:      1.35,
		TargetDSCRMerchant:      1.80,
		InterestRate:            0.06,
		TenorYears:              18,
		DebtStructure:           domain.DebtStructureSculpting,
	}
	rec = doJSON(t, router, "PUT", "/assets/Plains-Solar/profile", profile)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, "GET", "/assets/Plains-Solar/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.AssetCostProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 110.0, got.Capex)
	assert.Equal(t, 18, got.TenorYears)
}

func TestSaveAssetValidation(t *testing.T) {
	router := setupRouter(t)

	bad := sampleAsset()
	bad.Name = ""
	rec := doJSON(t, router, "POST", "/assets/", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, "POST", "/assets/", "not an asset")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
