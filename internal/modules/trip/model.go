// README: Trip estimates combine routing results with fare quotes.
package trip

import (
	"time"

	"jeepney/internal/types"
)

// Estimate is a routed trip between two points with its fare.
type Estimate struct {
	DistanceKm      float64
	DurationSeconds float64
	Geometry        []types.Point
	Fare            float64
	Currency        string
}

// JeepETA is a nearby jeep with the driving time it needs to reach the passenger.
type JeepETA struct {
	ID         types.ID
	Position   types.Point
	UpdatedAt  time.Time
	DistanceKm float64
	ETAMinutes int
	Geometry   []types.Point
}

type Config struct {
	// RoutingTimeout bounds each upstream directions call. Zero disables it.
	RoutingTimeout time.Duration
	ETARadiusKm    float64
	ETAMaxJeeps    int
	// ETAConcurrency limits parallel directions calls for one ETA request.
	ETAConcurrency int
}

const (
	defaultETARadiusKm    = 5.0
	defaultETAMaxJeeps    = 10
	defaultETAConcurrency = 4
)

func (c Config) withDefaults() Config {
	if c.ETARadiusKm <= 0 {
		c.ETARadiusKm = defaultETARadiusKm
	}
	if c.ETAMaxJeeps <= 0 {
		c.ETAMaxJeeps = defaultETAMaxJeeps
	}
	if c.ETAConcurrency <= 0 {
		c.ETAConcurrency = defaultETAConcurrency
	}
	return c
}
