package projections

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
	"github.com/woodid012/renew-asset-platform-sub004/internal/events"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/balance"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/portfolio"
	"github.com/woodid012/renew-asset-platform-sub004/internal/modules/pricing"
)

// RunMeta describes a stored run without its payload.
type RunMeta struct {
	RunID      string    `json:"run_id"`
	CreatedAt  time.Time `json:"created_at"`
	AssetCount int       `json:"asset_count"`
}

// SnapshotStore persists completed runs. Save failures must not fail the run
// that produced the result.
type SnapshotStore interface {
	Save(result *Result) error
	Get(runID string) (*Result, error)
	Latest() (*Result, error)
	List(limit int) ([]RunMeta, error)
}

// RunOptions tunes one run. Zero-value fields fall back to the platform
// defaults.
type RunOptions struct {
	Constants *domain.Constants       `json:"constants,omitempty"`
	Equity    balance.EquityStructure `json:"equity"`
}

// Service orchestrates pipeline runs: loads inputs from the portfolio book,
// snapshots the price curves, executes the pipeline, persists the result and
// broadcasts run lifecycle events. One run executes at a time.
type Service struct {
	portfolio *portfolio.Service
	prices    *pricing.Repository
	store     SnapshotStore
	hub       *events.Hub
	log       zerolog.Logger

	runMu sync.Mutex

	resultMu sync.RWMutex
	latest   *Result
}

// NewService creates a new projections service
func NewService(
	portfolioSvc *portfolio.Service,
	prices *pricing.Repository,
	store SnapshotStore,
	hub *events.Hub,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolio: portfolioSvc,
		prices:    prices,
		store:     store,
		hub:       hub,
		log:       log.With().Str("service", "projections_runner").Logger(),
	}
}

// Execute runs the full pipeline over the persisted portfolio. Concurrent
// calls are rejected rather than queued; a projection run is idempotent, so
// the caller can simply retry.
func (s *Service) Execute(ctx context.Context, opts RunOptions) (*Result, error) {
	if !s.runMu.TryLock() {
		return nil, fmt.Errorf("a run is already in progress")
	}
	defer s.runMu.Unlock()

	start := time.Now()

	assets, profiles, err := s.portfolio.LoadInputs()
	if err != nil {
		s.hub.Publish(&events.RunFailedData{Error: err.Error()})
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	consts := domain.DefaultConstants()
	if opts.Constants != nil {
		consts = *opts.Constants
	}

	// A fresh pricing service per run pins a stable snapshot of the curves
	priceSvc, err := pricing.NewService(s.prices, s.log)
	if err != nil {
		s.hub.Publish(&events.RunFailedData{Error: err.Error()})
		return nil, fmt.Errorf("failed to initialize pricing: %w", err)
	}

	s.hub.Publish(&events.RunStartedData{Assets: len(assets)})

	pipeline := NewPipeline(priceSvc.Provider(), s.log)
	result, err := pipeline.Run(ctx, Inputs{
		Assets:    assets,
		Profiles:  profiles,
		Constants: consts,
		Equity:    opts.Equity,
	})
	if err != nil {
		s.hub.Publish(&events.RunFailedData{Error: err.Error()})
		return nil, err
	}

	if err := s.store.Save(result); err != nil {
		// The run itself succeeded; a persistence failure should not hide it
		s.log.Error().Err(err).Str("run_id", result.RunID).Msg("Failed to persist snapshot")
	}

	s.resultMu.Lock()
	s.latest = result
	s.resultMu.Unlock()

	s.hub.Publish(&events.RunCompletedData{
		RunID:        result.RunID,
		Assets:       len(result.Assets),
		DurationMs:   time.Since(start).Milliseconds(),
		PortfolioIRR: result.PortfolioMetrics.IRR,
	})

	return result, nil
}

// Latest returns the most recent result: the in-memory one when this process
// has run, otherwise the newest persisted snapshot. Nil when neither exists.
func (s *Service) Latest() (*Result, error) {
	s.resultMu.RLock()
	latest := s.latest
	s.resultMu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	result, err := s.store.Latest()
	if err != nil {
		return nil, err
	}
	if result != nil {
		s.resultMu.Lock()
		s.latest = result
		s.resultMu.Unlock()
	}
	return result, nil
}

// Get returns one stored run by ID, or nil when it does not exist.
func (s *Service) Get(runID string) (*Result, error) {
	return s.store.Get(runID)
}

// List returns stored run metadata, newest first.
func (s *Service) List(limit int) ([]RunMeta, error) {
	return s.store.List(limit)
}
