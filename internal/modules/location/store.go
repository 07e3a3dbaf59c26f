// README: Location registry contract and the in-process implementation.
package location

import (
	"context"
	"sort"
	"sync"
	"time"

	"jeepney/internal/types"
)

// Registry maps a vehicle identifier to its last-known coordinate.
// Implementations must be safe for concurrent use.
type Registry interface {
	GetAll(ctx context.Context) ([]VehicleLocation, error)
	Upsert(ctx context.Context, id types.ID, pos types.Point) (VehicleLocation, error)
	Nearby(ctx context.Context, pos types.Point, radiusKm float64) ([]NearbyVehicle, error)
}

// MemoryStore is a mutex-guarded map. Contents are lost when the process exits.
type MemoryStore struct {
	mu    sync.RWMutex
	jeeps map[types.ID]VehicleLocation
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jeeps: make(map[types.ID]VehicleLocation), now: time.Now}
}

// GetAll returns every known vehicle ordered by ID.
func (s *MemoryStore) GetAll(_ context.Context) ([]VehicleLocation, error) {
	s.mu.RLock()
	out := make([]VehicleLocation, 0, len(s.jeeps))
	for _, v := range s.jeeps {
		out = append(out, v)
	}
	s.mu.RUnlock()

	sortByID(out)
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, id types.ID, pos types.Point) (VehicleLocation, error) {
	loc := VehicleLocation{ID: id, Position: pos, UpdatedAt: s.now().UTC()}
	s.mu.Lock()
	s.jeeps[id] = loc
	s.mu.Unlock()
	return loc, nil
}

// Nearby returns vehicles within radiusKm of pos, closest first.
func (s *MemoryStore) Nearby(ctx context.Context, pos types.Point, radiusKm float64) ([]NearbyVehicle, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterNearby(all, pos, radiusKm), nil
}

func sortByID(items []VehicleLocation) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

func filterNearby(all []VehicleLocation, pos types.Point, radiusKm float64) []NearbyVehicle {
	var result []NearbyVehicle
	for _, v := range all {
		dist := haversineKm(pos.Lat, pos.Lng, v.Position.Lat, v.Position.Lng)
		if dist <= radiusKm {
			result = append(result, NearbyVehicle{VehicleLocation: v, DistanceKm: dist})
		}
	}
	sortByDistance(result, func(n NearbyVehicle) float64 { return n.DistanceKm })
	return result
}
