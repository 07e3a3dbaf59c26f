package maps

import (
	"context"

	"jeepney/internal/types"
)

// Route is a directions result normalized across providers. Geometry points
// are ordered lat/lng regardless of the provider's wire order.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []types.Point
}

func (r Route) DistanceKm() float64 {
	return r.DistanceMeters / 1000
}

// Provider computes a driving route between two points. Upstream failures are
// reported as types.ErrUpstreamGateway.
type Provider interface {
	Directions(ctx context.Context, from, to types.Point) (Route, error)
}
