package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/woodid012/renew-asset-platform-sub004/internal/events"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/pricing"
)

func setupRouter(t *testing.T) (*chi.Mux, *pricing.Repository, *events.Hub) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE merchant_prices (
			profile TEXT NOT NULL,
			price_type TEXT NOT NULL,
			region TEXT NOT NULL,
			period TEXT NOT NULL,
			price REAL NOT NULL,
			PRIMARY KEY (profile, price_type, region, period)
		);
		CREATE TABLE price_settings (
			key TEXT PRIMARY KEY,
			value REAL NOT NULL
		);
	`)
	require.NoError(t, err)

	repo := pricing.NewRepository(db, zerolog.Nop())
	hub := events.NewHub()

	router := chi.NewRouter()
	NewHandler(repo, hub, zerolog.Nop()).RegisterRoutes(router)
	return router, repo, hub
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

func solarCurve() []pricing.PricePoint {
	return []pricing.PricePoint{
		{Profile: "solar", PriceType: "Energy", Region: "NSW", Period: "2030", Price: 62},
		{Profile: "solar", PriceType: "Energy", Region: "NSW", Period: "2031", Price: 66},
		{Profile: "solar", PriceType: "Energy", Region: "NSW", Period: "2032", Price: 70},
		{Profile: "solar", PriceType: "Energy", Region: "NSW", Period: "2033", Price: 64},
	}
}

func TestUpsertAndGetCurve(t *testing.T) {
	router, _, hub := setupRouter(t)
	ch, cancel := hub.Subscribe()
	defer cancel()

	rec := doJSON(t, router, "POST", "/prices/", solarCurve())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var upsert struct {
		Written int `json:"written"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upsert))
	assert.Equal(t, 4, upsert.Written)

	event := <-ch
	assert.Equal(t, events.PricesUpdated, event.Type)

	rec = doJSON(t, router, "GET", "/prices/curve?profile=solar&type=Energy&region=NSW", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var curve struct {
		Points []pricing.PricePoint `json:"points"`
		Count  int                  `json:"count"`
		Stats  pricing.CurveStats   `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &curve))
	assert.Equal(t, 4, curve.Count)
	assert.Equal(t, "2030", curve.Points[0].Period)
	assert.InDelta(t, 65.5, curve.Stats.Mean, 1e-9)
}

func TestGetCurveRequiresParams(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, "GET", "/prices/curve?profile=solar", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertRejectsEmptyBatch(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, "POST", "/prices/", []pricing.PricePoint{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSmoothCurve(t *testing.T) {
	router, repo, _ := setupRouter(t)

	_, err := repo.Upsert(solarCurve())
	require.NoError(t, err)

	rec := doJSON(t, router, "POST", "/prices/smooth", map[string]interface{}{
		"profile": "solar",
		"type":    "Energy",
		"region":  "NSW",
		"window":  2,
		"method":  "sma",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Points []pricing.PricePoint `json:"points"`
		Saved  bool                 `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Points, 4)
	assert.False(t, resp.Saved)
	// Warmup point keeps its original price, the rest are averaged
	assert.InDelta(t, 62.0, resp.Points[0].Price, 1e-9)
	assert.InDelta(t, 64.0, resp.Points[1].Price, 1e-9)

	// Not saved: stored curve is untouched
	stored, err := repo.GetCurve("solar", "Energy", "NSW")
	require.NoError(t, err)
	assert.InDelta(t, 66.0, stored[1].Price, 1e-9)
}

func TestSmoothCurveRejectsBadWindow(t *testing.T) {
	router, repo, _ := setupRouter(t)

	_, err := repo.Upsert(solarCurve())
	require.NoError(t, err)

	rec := doJSON(t, router, "POST", "/prices/smooth", map[string]interface{}{
		"profile": "solar",
		"type":    "Energy",
		"region":  "NSW",
		"window":  1,
		"method":  "sma",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
	router, _, _ := setupRouter(t)

	rec := doJSON(t, router, "PUT", "/prices/settings", map[string]float64{
		pricing.SettingEscalationPct: 2.5,
		pricing.SettingReferenceYear: 2025,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, "GET", "/prices/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var settings map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, 2.5, settings[pricing.SettingEscalationPct])
	assert.Equal(t, 2025.0, settings[pricing.SettingReferenceYear])

	rec = doJSON(t, router, "PUT", "/prices/settings", map[string]float64{"bogus": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
