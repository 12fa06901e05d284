package database

// schemas is the single source of truth for each database's schema,
// keyed by database name. Applied by Migrate().
var schemas = map[string]string{
	"portfolio": portfolioSchema,
	"prices":    pricesSchema,
	"cache":     cacheSchema,
}

// portfolio.db - asset register and per-asset cost/debt assumptions
const portfolioSchema = `
CREATE TABLE IF NOT EXISTS assets (
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

CREATE TABLE IF NOT EXISTS cost_profiles (
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
`

// prices.db - merchant price curves keyed by curve coordinates
const pricesSchema = `
CREATE TABLE IF NOT EXISTS merchant_prices (
	profile TEXT NOT NULL,
	price_type TEXT NOT NULL,
	region TEXT NOT NULL,
	period TEXT NOT NULL,
	price REAL NOT NULL,
	PRIMARY KEY (profile, price_type, region, period)
);

CREATE TABLE IF NOT EXISTS price_settings (
	key TEXT PRIMARY KEY,
	value REAL NOT NULL
);
`

// cache.db - ephemeral pipeline run snapshots (msgpack payloads)
const cacheSchema = `
CREATE TABLE IF NOT EXISTS run_snapshots (
	run_id TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	asset_count INTEGER NOT NULL DEFAULT 0,
	payload BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_snapshots_created ON run_snapshots(created_at);
`
