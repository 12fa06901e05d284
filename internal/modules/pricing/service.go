package pricing

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
)

// Settings keys in price_settings.
const (
	// SettingEscalationPct - nominal escalation applied beyond the
	// reference year, percent per year
	SettingEscalationPct = "escalation_pct"
	// SettingReferenceYear - the year curve prices are quoted in
	SettingReferenceYear = "reference_year"
)

// Service resolves merchant prices for the modeling engine. Lookups are
// memoized per service instance, so one pipeline run sees a stable snapshot
// of the curves even if the underlying tables change mid-run.
type Service struct {
	repo *Repository
	log  zerolog.Logger

	escalationPct float64
	referenceYear int

	mu   sync.RWMutex
	memo map[string]memoEntry
}

type memoEntry struct {
	price float64
	found bool
}

// NewService creates a pricing service, loading the escalation settings once.
func NewService(repo *Repository, log zerolog.Logger) (*Service, error) {
	s := &Service{
		repo: repo,
		log:  log.With().Str("service", "pricing").Logger(),
		memo: make(map[string]memoEntry),
	}

	if pct, ok, err := repo.GetSetting(SettingEscalationPct); err != nil {
		return nil, fmt.Errorf("failed to load escalation setting: %w", err)
	} else if ok {
		s.escalationPct = pct
	}

	if year, ok, err := repo.GetSetting(SettingReferenceYear); err != nil {
		return nil, fmt.Errorf("failed to load reference year setting: %w", err)
	} else if ok {
		s.referenceYear = int(year)
	}

	return s, nil
}

// Provider returns the pure lookup function the engine consumes.
func (s *Service) Provider() domain.PriceProvider {
	return s.Price
}

// Price resolves one merchant price. The period key may be a 4-digit year, a
// "YYYY-Qn" quarter, or a D/MM/YYYY date. Quarter and date keys fall back to
// the annual curve point when no finer-grained point exists. Prices escalate
// from the reference year when escalation settings are present.
func (s *Service) Price(profile, priceType, region, periodKey string) (float64, bool) {
	key := profile + "|" + priceType + "|" + region + "|" + periodKey

	s.mu.RLock()
	entry, hit := s.memo[key]
	s.mu.RUnlock()
	if hit {
		return entry.price, entry.found
	}

	price, found := s.resolve(profile, priceType, region, periodKey)

	s.mu.Lock()
	s.memo[key] = memoEntry{price: price, found: found}
	s.mu.Unlock()

	return price, found
}

func (s *Service) resolve(profile, priceType, region, periodKey string) (float64, bool) {
	year, ok := yearFromPeriodKey(periodKey)
	if !ok {
		s.log.Warn().Str("period", periodKey).Msg("Unparseable period key")
		return 0, false
	}

	price, found, err := s.repo.GetPrice(profile, priceType, region, periodKey)
	if err != nil {
		s.log.Error().Err(err).Str("period", periodKey).Msg("Price lookup failed")
		return 0, false
	}

	// Quarter and date keys fall back to the annual point
	if !found && periodKey != strconv.Itoa(year) {
		price, found, err = s.repo.GetPrice(profile, priceType, region, strconv.Itoa(year))
		if err != nil {
			s.log.Error().Err(err).Str("period", periodKey).Msg("Annual fallback lookup failed")
			return 0, false
		}
	}
	if !found {
		return 0, false
	}

	return price * s.escalationFactor(year), true
}

// escalationFactor compounds the configured escalation from the reference
// year. Years at or before the reference year are unescalated.
func (s *Service) escalationFactor(year int) float64 {
	if s.referenceYear == 0 || s.escalationPct == 0 || year <= s.referenceYear {
		return 1.0
	}
	factor := 1.0
	for y := s.referenceYear; y < year; y++ {
		factor *= 1 + s.escalationPct/100
	}
	return factor
}

// yearFromPeriodKey extracts the calendar year from any supported period key
// format: "2030", "2030-Q2", or "1/07/2030".
func yearFromPeriodKey(periodKey string) (int, bool) {
	switch {
	case strings.Contains(periodKey, "/"):
		parts := strings.Split(periodKey, "/")
		if len(parts) != 3 {
			return 0, false
		}
		year, err := strconv.Atoi(parts[2])
		if err != nil || year < 1000 {
			return 0, false
		}
		return year, true

	case strings.Contains(periodKey, "-Q"):
		year, err := strconv.Atoi(periodKey[:strings.Index(periodKey, "-Q")])
		if err != nil {
			return 0, false
		}
		return year, true

	default:
		year, err := strconv.Atoi(periodKey)
		if err != nil || len(periodKey) != 4 {
			return 0, false
		}
		return year, true
	}
}
