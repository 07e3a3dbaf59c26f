// README: Trip service prices routed trips and estimates jeep arrival times.
package trip

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jeepney/internal/maps"
	"jeepney/internal/modules/location"
	"jeepney/internal/modules/pricing"
	"jeepney/internal/types"
)

type Service struct {
	routes    maps.Provider
	fares     *pricing.Service
	locations *location.Service
	cfg       Config
	logger    *zap.Logger
}

func NewService(routes maps.Provider, fares *pricing.Service, locations *location.Service, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		routes:    routes,
		fares:     fares,
		locations: locations,
		cfg:       cfg.withDefaults(),
		logger:    logger,
	}
}

// Route asks the routing provider for a driving route and prices its distance.
func (s *Service) Route(ctx context.Context, from, to types.Point) (Estimate, error) {
	if err := location.ValidatePoint(from); err != nil {
		return Estimate{}, err
	}
	if err := location.ValidatePoint(to); err != nil {
		return Estimate{}, err
	}

	route, err := s.directions(ctx, from, to)
	if err != nil {
		return Estimate{}, err
	}

	quote, err := s.fares.Quote(route.DistanceKm())
	if err != nil {
		return Estimate{}, fmt.Errorf("%w: route distance %v m: %v", types.ErrUpstreamGateway, route.DistanceMeters, err)
	}
	return Estimate{
		DistanceKm:      quote.DistanceKm,
		DurationSeconds: route.DurationSeconds,
		Geometry:        route.Geometry,
		Fare:            quote.Fare,
		Currency:        quote.Currency,
	}, nil
}

// Distance prices the straight-line distance between two points without any
// upstream call.
func (s *Service) Distance(from, to types.Point) (pricing.Quote, error) {
	km, err := location.Distance(from, to)
	if err != nil {
		return pricing.Quote{}, err
	}
	return s.fares.Quote(km)
}

// JeepsWithETA routes every jeep near the passenger to the passenger's
// position. Jeeps whose directions call fails are left out; if every call
// fails the result is an upstream gateway error.
func (s *Service) JeepsWithETA(ctx context.Context, passenger types.Point) ([]JeepETA, error) {
	nearby, err := s.locations.Nearby(ctx, passenger, s.cfg.ETARadiusKm, s.cfg.ETAMaxJeeps)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return []JeepETA{}, nil
	}

	results := make([]*JeepETA, len(nearby))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.ETAConcurrency)
	for i, jeep := range nearby {
		i, jeep := i, jeep
		g.Go(func() error {
			route, err := s.directions(gctx, jeep.Position, passenger)
			if err != nil {
				s.logger.Warn("eta lookup failed",
					zap.String("jeep_id", string(jeep.ID)),
					zap.Error(err),
				)
				return nil
			}
			results[i] = &JeepETA{
				ID:         jeep.ID,
				Position:   jeep.Position,
				UpdatedAt:  jeep.UpdatedAt,
				DistanceKm: pricing.RoundDistance(route.DistanceKm()),
				ETAMinutes: etaMinutes(route.DurationSeconds),
				Geometry:   route.Geometry,
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]JeepETA, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no eta available for %d nearby jeeps", types.ErrUpstreamGateway, len(nearby))
	}
	return out, nil
}

func (s *Service) directions(ctx context.Context, from, to types.Point) (maps.Route, error) {
	if s.cfg.RoutingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RoutingTimeout)
		defer cancel()
	}
	return s.routes.Directions(ctx, from, to)
}

func etaMinutes(durationSeconds float64) int {
	if durationSeconds <= 0 {
		return 0
	}
	return int(math.Ceil(durationSeconds / 60))
}
