// README: Pricing service computes fare estimates from a configured tier.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"jeepney/internal/types"
)

var ErrPresetNotFound = errors.New("fare preset not found")

// Calculate returns the unrounded fare for distanceKm. Negative or NaN
// distances are rejected.
func (t Tier) Calculate(distanceKm float64) (float64, error) {
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		return 0, fmt.Errorf("%w: distance %v km", types.ErrInvalidArgument, distanceKm)
	}
	if distanceKm <= t.BaseKm {
		return t.BaseFare, nil
	}
	return t.BaseFare + (distanceKm-t.BaseKm)*t.PerKmRate, nil
}

// Validate rejects tiers that would break the non-decreasing fare guarantee.
func (t Tier) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"base_fare", t.BaseFare},
		{"base_km", t.BaseKm},
		{"per_km_rate", t.PerKmRate},
	}
	for _, f := range fields {
		if f.v < 0 || math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", types.ErrInvalidArgument, f.name, f.v)
		}
	}
	return nil
}

// RoundFare rounds to 2 decimal places, halves away from zero.
func RoundFare(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundDistance rounds to 3 decimal places, halves away from zero.
func RoundDistance(km float64) float64 {
	return math.Round(km*1000) / 1000
}

type Service struct {
	tier Tier
}

func NewService(tier Tier) *Service {
	return &Service{tier: tier}
}

func (s *Service) Tier() Tier {
	return s.tier
}

// Quote prices distanceKm with the active tier. The fare is computed from the
// unrounded distance and rounded afterwards.
func (s *Service) Quote(distanceKm float64) (Quote, error) {
	fare, err := s.tier.Calculate(distanceKm)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		DistanceKm: RoundDistance(distanceKm),
		Fare:       RoundFare(fare),
		Currency:   s.tier.Currency,
	}, nil
}

// PresetSource looks up tiers that are not built in.
type PresetSource interface {
	GetTier(ctx context.Context, name string) (Tier, error)
}

// ResolveTier prefers a tier stored in src and falls back to the built-in presets.
// src may be nil.
func ResolveTier(ctx context.Context, src PresetSource, name string) (Tier, error) {
	if name == "" {
		name = DefaultPreset
	}
	if src != nil {
		t, err := src.GetTier(ctx, name)
		if err == nil {
			return t, t.Validate()
		}
		if !errors.Is(err, ErrPresetNotFound) {
			return Tier{}, err
		}
	}
	if t, ok := Preset(name); ok {
		return t, nil
	}
	return Tier{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
}
