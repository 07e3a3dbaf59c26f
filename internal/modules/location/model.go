// README: Vehicle location entities held by the registry.
package location

import (
	"time"

	"jeepney/internal/types"
)

// VehicleLocation is the last-known position of a jeep. It is overwritten on
// every accepted update and never deleted.
type VehicleLocation struct {
	ID        types.ID
	Position  types.Point
	UpdatedAt time.Time
}

// NearbyVehicle is a VehicleLocation annotated with its distance from a query point.
type NearbyVehicle struct {
	VehicleLocation
	DistanceKm float64
}

// Update is a single authenticated location write.
type Update struct {
	VehicleID types.ID
	Position  types.Point
	// ReportedBy is the authenticated caller that sent the update.
	ReportedBy types.ID
}

// View is the wire form of a VehicleLocation.
type View struct {
	JeepID    string    `json:"jeep_id"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v VehicleLocation) View() View {
	return View{
		JeepID:    string(v.ID),
		Lat:       v.Position.Lat,
		Lng:       v.Position.Lng,
		UpdatedAt: v.UpdatedAt.UTC(),
	}
}
