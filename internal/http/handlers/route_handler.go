// README: Route, distance and ETA handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jeepney/internal/modules/trip"
)

type RouteHandler struct {
	trip *trip.Service
}

func NewRouteHandler(svc *trip.Service) *RouteHandler {
	return &RouteHandler{trip: svc}
}

type routeResp struct {
	DistanceKm float64      `json:"distance_km"`
	DurationS  float64      `json:"duration_s"`
	Geometry   [][2]float64 `json:"geometry"`
	FarePHP    float64      `json:"fare_php"`
}

func (h *RouteHandler) Route(c *gin.Context) {
	from, err := queryPoint(c, "start_lat", "start_lng")
	if err != nil {
		writeServiceError(c, err)
		return
	}
	to, err := queryPoint(c, "end_lat", "end_lng")
	if err != nil {
		writeServiceError(c, err)
		return
	}

	est, err := h.trip.Route(c.Request.Context(), from, to)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, routeResp{
		DistanceKm: est.DistanceKm,
		DurationS:  est.DurationSeconds,
		Geometry:   latLngPairs(est.Geometry),
		FarePHP:    est.Fare,
	})
}

type distanceResp struct {
	DistanceKm float64 `json:"distance_km"`
	Fare       float64 `json:"fare"`
}

// Distance prices the straight-line distance; no upstream call, no auth.
func (h *RouteHandler) Distance(c *gin.Context) {
	from, err := queryPoint(c, "lat1", "lon1")
	if err != nil {
		writeServiceError(c, err)
		return
	}
	to, err := queryPoint(c, "lat2", "lon2")
	if err != nil {
		writeServiceError(c, err)
		return
	}
	q, err := h.trip.Distance(from, to)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, distanceResp{DistanceKm: q.DistanceKm, Fare: q.Fare})
}

type jeepETAResp struct {
	Lat        float64      `json:"lat"`
	Lng        float64      `json:"lng"`
	DistanceKm float64      `json:"distance_km"`
	ETAMinutes int          `json:"eta_minutes"`
	Geometry   [][2]float64 `json:"geometry"`
}

// JeepsWithETA returns nearby jeeps keyed by jeep id.
func (h *RouteHandler) JeepsWithETA(c *gin.Context) {
	passenger, err := queryPoint(c, "user_lat", "user_lng")
	if err != nil {
		writeServiceError(c, err)
		return
	}
	jeeps, err := h.trip.JeepsWithETA(c.Request.Context(), passenger)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make(map[string]jeepETAResp, len(jeeps))
	for _, j := range jeeps {
		out[string(j.ID)] = jeepETAResp{
			Lat:        j.Position.Lat,
			Lng:        j.Position.Lng,
			DistanceKm: j.DistanceKm,
			ETAMinutes: j.ETAMinutes,
			Geometry:   latLngPairs(j.Geometry),
		}
	}
	writeJSON(c, http.StatusOK, out)
}
