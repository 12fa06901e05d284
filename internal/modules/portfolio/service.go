package portfolio

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/woodid012/renew-asset-platform-sub004/internal/domain"
)

// Service coordinates asset and cost profile access for the API and the
// modeling pipeline.
type Service struct {
	assets   *AssetRepository
	profiles *ProfileRepository
	log      zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(assets *AssetRepository, profiles *ProfileRepository, log zerolog.Logger) *Service {
	return &Service{
		assets:   assets,
		profiles: profiles,
		log:      log.With().Str("service", "portfolio").Logger(),
	}
}

// SaveAsset validates and persists an asset.
func (s *Service) SaveAsset(asset domain.Asset) error {
	if err := validateAsset(asset); err != nil {
		return err
	}
	return s.assets.Upsert(asset)
}

// SaveProfile validates and persists a cost profile.
func (s *Service) SaveProfile(assetName string, profile domain.AssetCostProfile) error {
	if assetName == "" {
		return fmt.Errorf("asset name is required")
	}
	if profile.Capex < 0 {
		return fmt.Errorf("capex cannot be negative")
	}
	if profile.MaxGearing < 0 || profile.MaxGearing > 1 {
		return fmt.Errorf("max gearing must be in [0, 1], got %.2f", profile.MaxGearing)
	}
	if profile.TenorYears < 0 {
		return fmt.Errorf("tenor years cannot be negative")
	}
	switch profile.DebtStructure {
	case domain.DebtStructureAmortization, domain.DebtStructureSculpting, "":
	default:
		return fmt.Errorf("unknown debt structure %q", profile.DebtStructure)
	}
	return s.profiles.Upsert(assetName, profile)
}

// GetAsset retrieves one asset, or nil when it does not exist.
func (s *Service) GetAsset(name string) (*domain.Asset, error) {
	return s.assets.GetByName(name)
}

// GetAssets retrieves every asset.
func (s *Service) GetAssets() ([]domain.Asset, error) {
	return s.assets.GetAll()
}

// GetProfile retrieves one cost profile.
func (s *Service) GetProfile(assetName string) (domain.AssetCostProfile, bool, error) {
	return s.profiles.GetByName(assetName)
}

// DeleteAsset removes an asset and its cost profile.
func (s *Service) DeleteAsset(name string) error {
	return s.assets.Delete(name)
}

// LoadInputs assembles the persisted portfolio into pipeline inputs: all
// assets plus every cost profile, including the portfolio refinancing profile
// when one exists.
func (s *Service) LoadInputs() ([]domain.Asset, map[string]domain.AssetCostProfile, error) {
	assets, err := s.assets.GetAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load assets: %w", err)
	}

	profiles, err := s.profiles.GetAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cost profiles: %w", err)
	}

	for _, asset := range assets {
		if _, ok := profiles[asset.Name]; !ok {
			s.log.Warn().Str("asset", asset.Name).Msg("Asset has no cost profile")
		}
	}

	return assets, profiles, nil
}

// validateAsset enforces the invariants the engine assumes.
func validateAsset(asset domain.Asset) error {
	if asset.Name == "" {
		return fmt.Errorf("asset name is required")
	}
	if asset.Name == domain.PortfolioProfileKey {
		return fmt.Errorf("%q is a reserved name", domain.PortfolioProfileKey)
	}

	switch asset.Technology {
	case domain.TechnologySolar, domain.TechnologyWind:
		if asset.CapacityMW <= 0 {
			return fmt.Errorf("capacity must be positive for %s assets", asset.Technology)
		}
	case domain.TechnologyStorage:
		if asset.VolumeMWh <= 0 {
			return fmt.Errorf("volume must be positive for storage assets")
		}
	default:
		return fmt.Errorf("unknown technology %q", asset.Technology)
	}

	if asset.StartDate.IsZero() {
		return fmt.Errorf("start date is required")
	}
	if asset.LifeYears <= 0 {
		return fmt.Errorf("life years must be positive")
	}
	if asset.Degradation < 0 || asset.Degradation >= 100 {
		return fmt.Errorf("degradation must be in [0, 100), got %.2f", asset.Degradation)
	}

	contractedPct := make(map[int]float64)
	for _, c := range asset.Contracts {
		if c.CounterpartyPct < 0 || c.CounterpartyPct > 100 {
			return fmt.Errorf("contract counterparty share must be in [0, 100], got %.2f", c.CounterpartyPct)
		}
		if c.StartDate.IsZero() || c.EndDate.IsZero() {
			continue
		}
		for year := c.StartDate.Year(); year <= c.EndDate.Year(); year++ {
			contractedPct[year] += c.CounterpartyPct
		}
	}
	for year, pct := range contractedPct {
		if pct > 100+1e-9 {
			return fmt.Errorf("contracts cover %.1f%% of output in %d, over 100%%", pct, year)
		}
	}

	return nil
}
