// README: Location service validates driver updates and fans them out to notifiers.
package location

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"jeepney/internal/types"
)

// Notifier receives every accepted location update. Failures are logged and
// never fail the write.
type Notifier interface {
	Notify(ctx context.Context, loc VehicleLocation) error
}

type Service struct {
	registry  Registry
	notifiers []Notifier
	logger    *zap.Logger
}

func NewService(registry Registry, logger *zap.Logger, notifiers ...Notifier) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{registry: registry, notifiers: notifiers, logger: logger}
}

func (s *Service) Update(ctx context.Context, u Update) (VehicleLocation, error) {
	if u.VehicleID == "" {
		return VehicleLocation{}, fmt.Errorf("%w: missing vehicle id", types.ErrInvalidArgument)
	}
	if err := ValidatePoint(u.Position); err != nil {
		return VehicleLocation{}, err
	}

	loc, err := s.registry.Upsert(ctx, u.VehicleID, u.Position)
	if err != nil {
		return VehicleLocation{}, err
	}

	s.logger.Debug("jeep location updated",
		zap.String("jeep_id", string(loc.ID)),
		zap.String("reported_by", string(u.ReportedBy)),
		zap.Float64("lat", loc.Position.Lat),
		zap.Float64("lng", loc.Position.Lng),
	)

	for _, n := range s.notifiers {
		if err := n.Notify(ctx, loc); err != nil {
			s.logger.Warn("location notifier failed",
				zap.String("jeep_id", string(loc.ID)),
				zap.Error(err),
			)
		}
	}
	return loc, nil
}

func (s *Service) List(ctx context.Context) ([]VehicleLocation, error) {
	return s.registry.GetAll(ctx)
}

// Nearby returns at most limit vehicles within radiusKm of pos, closest first.
// A limit <= 0 means no limit.
func (s *Service) Nearby(ctx context.Context, pos types.Point, radiusKm float64, limit int) ([]NearbyVehicle, error) {
	if err := ValidatePoint(pos); err != nil {
		return nil, err
	}
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		return nil, fmt.Errorf("%w: radius %v", types.ErrInvalidArgument, radiusKm)
	}
	found, err := s.registry.Nearby(ctx, pos, radiusKm)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}
