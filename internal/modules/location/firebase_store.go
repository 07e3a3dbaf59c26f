// README: Firebase RTDB registry under /drivers, shared with the web client.
package location

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"

	"jeepney/internal/types"
)

const driversNode = "drivers"

var _ Registry = (*FirebaseStore)(nil)

// rtdbJeepEntry mirrors a single entry stored under /drivers/{id}.
type rtdbJeepEntry struct {
	Location  *rtdbPoint `json:"location"`
	UpdatedAt int64      `json:"updated_at"`
}

type rtdbPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type FirebaseStore struct {
	dbClient *db.Client
	now      func() time.Time
}

func NewFirebaseStore(dbClient *db.Client) *FirebaseStore {
	return &FirebaseStore{dbClient: dbClient, now: time.Now}
}

func (s *FirebaseStore) Upsert(ctx context.Context, id types.ID, pos types.Point) (VehicleLocation, error) {
	loc := VehicleLocation{ID: id, Position: pos, UpdatedAt: s.now().UTC()}
	ref := s.dbClient.NewRef(driversNode).Child(string(id))
	err := ref.Update(ctx, map[string]interface{}{
		"location":   rtdbPoint{Lat: pos.Lat, Lng: pos.Lng},
		"updated_at": loc.UpdatedAt.UnixMilli(),
	})
	if err != nil {
		return VehicleLocation{}, fmt.Errorf("rtdb upsert %s: %w", id, err)
	}
	return loc, nil
}

func (s *FirebaseStore) GetAll(ctx context.Context) ([]VehicleLocation, error) {
	var data map[string]rtdbJeepEntry
	if err := s.dbClient.NewRef(driversNode).Get(ctx, &data); err != nil {
		return nil, fmt.Errorf("rtdb list drivers: %w", err)
	}
	return entriesToLocations(data), nil
}

func entriesToLocations(data map[string]rtdbJeepEntry) []VehicleLocation {
	out := make([]VehicleLocation, 0, len(data))
	for id, entry := range data {
		// drivers registered by the web client before their first fix have no location yet
		if entry.Location == nil {
			continue
		}
		var updated time.Time
		if entry.UpdatedAt > 0 {
			updated = time.UnixMilli(entry.UpdatedAt).UTC()
		}
		out = append(out, VehicleLocation{
			ID:        types.ID(id),
			Position:  types.Point{Lat: entry.Location.Lat, Lng: entry.Location.Lng},
			UpdatedAt: updated,
		})
	}
	sortByID(out)
	return out
}

func (s *FirebaseStore) Nearby(ctx context.Context, pos types.Point, radiusKm float64) ([]NearbyVehicle, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return filterNearby(all, pos, radiusKm), nil
}
