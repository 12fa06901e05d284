// Package snapshots persists completed pipeline runs in cache.db so results
// survive restarts and earlier runs stay inspectable. Payloads are
// msgpack-encoded; the table is pruned to a retention count.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/projections"
)

// Store handles run snapshot persistence
type Store struct {
	cacheDB *sql.DB
	log     zerolog.Logger
}

// NewStore creates a new snapshot store
func NewStore(cacheDB *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		cacheDB: cacheDB,
		log:     log.With().Str("service", "snapshots").Logger(),
	}
}

// Save stores a completed run, replacing any snapshot with the same run ID.
func (s *Store) Save(result *projections.Result) error {
	if result == nil {
		return fmt.Errorf("nil result")
	}

	payload, err := msgpack.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.cacheDB.Exec(`
		INSERT OR REPLACE INTO run_snapshots (run_id, created_at, asset_count, payload)
		VALUES (?, ?, ?, ?)
	`, result.RunID, result.GeneratedAt.Unix(), len(result.Assets), payload)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.log.Debug().
		Str("run_id", result.RunID).
		Int("bytes", len(payload)).
		Msg("Snapshot stored")
	return nil
}

// Get retrieves one snapshot by run ID, or nil when it does not exist.
func (s *Store) Get(runID string) (*projections.Result, error) {
	var payload []byte
	err := s.cacheDB.QueryRow("SELECT payload FROM run_snapshots WHERE run_id = ?", runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return decode(payload)
}

// Latest retrieves the most recent snapshot, or nil when none exist.
func (s *Store) Latest() (*projections.Result, error) {
	var payload []byte
	err := s.cacheDB.QueryRow(`
		SELECT payload FROM run_snapshots ORDER BY created_at DESC, run_id DESC LIMIT 1
	`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}
	return decode(payload)
}

// List returns snapshot metadata newest first, up to limit.
func (s *Store) List(limit int) ([]projections.RunMeta, error) {
	rows, err := s.cacheDB.Query(`
		SELECT run_id, created_at, asset_count
		FROM run_snapshots
		ORDER BY created_at DESC, run_id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var metas []projections.RunMeta
	for rows.Next() {
		var (
			m         projections.RunMeta
			createdAt int64
		)
		if err := rows.Scan(&m.RunID, &createdAt, &m.AssetCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot meta: %w", err)
		}
		m.CreatedAt = time.Unix(createdAt, 0).UTC()
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return metas, nil
}

// Prune deletes all but the newest retain snapshots, returning the count
// removed.
func (s *Store) Prune(retain int) (int, error) {
	if retain < 1 {
		return 0, fmt.Errorf("retain count must be at least 1, got %d", retain)
	}

	result, err := s.cacheDB.Exec(`
		DELETE FROM run_snapshots
		WHERE run_id NOT IN (
			SELECT run_id FROM run_snapshots
			ORDER BY created_at DESC, run_id DESC
			LIMIT ?
		)
	`, retain)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned snapshots: %w", err)
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Int("retained", retain).Msg("Pruned old snapshots")
	}
	return int(removed), nil
}

func decode(payload []byte) (*projections.Result, error) {
	var result projections.Result
	if err := msgpack.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &result, nil
}
