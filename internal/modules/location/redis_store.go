// README: Location registry backed by Redis GEO, shared between API replicas.
package location

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"jeepney/internal/types"
)

const (
	jeepGeoKey       = "jeeps:geo"
	jeepUpdatedAtKey = "jeeps:updated_at"
)

type RedisStore struct {
	redis *redis.Client
	now   func() time.Time
}

func NewRedisStore(redis *redis.Client) *RedisStore {
	return &RedisStore{redis: redis, now: time.Now}
}

func (s *RedisStore) Upsert(ctx context.Context, id types.ID, pos types.Point) (VehicleLocation, error) {
	loc := VehicleLocation{ID: id, Position: pos, UpdatedAt: s.now().UTC()}
	pipe := s.redis.TxPipeline()
	pipe.GeoAdd(ctx, jeepGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	})
	pipe.HSet(ctx, jeepUpdatedAtKey, string(id), loc.UpdatedAt.UnixMilli())
	if _, err := pipe.Exec(ctx); err != nil {
		return VehicleLocation{}, fmt.Errorf("redis upsert %s: %w", id, err)
	}
	return loc, nil
}

func (s *RedisStore) GetAll(ctx context.Context) ([]VehicleLocation, error) {
	ids, err := s.redis.ZRange(ctx, jeepGeoKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list jeeps: %w", err)
	}
	if len(ids) == 0 {
		return []VehicleLocation{}, nil
	}

	pipe := s.redis.Pipeline()
	posCmd := pipe.GeoPos(ctx, jeepGeoKey, ids...)
	tsCmd := pipe.HMGet(ctx, jeepUpdatedAtKey, ids...)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis read jeeps: %w", err)
	}

	positions := posCmd.Val()
	stamps := tsCmd.Val()
	out := make([]VehicleLocation, 0, len(ids))
	for i, id := range ids {
		if i >= len(positions) || positions[i] == nil {
			// removed between ZRANGE and GEOPOS
			continue
		}
		out = append(out, VehicleLocation{
			ID:        types.ID(id),
			Position:  types.Point{Lat: positions[i].Latitude, Lng: positions[i].Longitude},
			UpdatedAt: parseMillis(stamps, i),
		})
	}
	// ZRANGE on a GEO key is in geohash order
	sortByID(out)
	return out, nil
}

func (s *RedisStore) Nearby(ctx context.Context, pos types.Point, radiusKm float64) ([]NearbyVehicle, error) {
	results, err := s.redis.GeoSearchLocation(ctx, jeepGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  pos.Lng,
			Latitude:   pos.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis geosearch: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Name
	}
	stamps, err := s.redis.HMGet(ctx, jeepUpdatedAtKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis read timestamps: %w", err)
	}

	out := make([]NearbyVehicle, len(results))
	for i, r := range results {
		out[i] = NearbyVehicle{
			VehicleLocation: VehicleLocation{
				ID:        types.ID(r.Name),
				Position:  types.Point{Lat: r.Latitude, Lng: r.Longitude},
				UpdatedAt: parseMillis(stamps, i),
			},
			DistanceKm: r.Dist,
		}
	}
	return out, nil
}

// Ping is used by the health endpoint.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func parseMillis(vals []interface{}, i int) time.Time {
	if i >= len(vals) {
		return time.Time{}
	}
	str, ok := vals[i].(string)
	if !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
