package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmaps "googlemaps.github.io/maps"

	"jeepney/internal/types"
)

// Polyline from the Google encoding reference: (38.5,-120.2) (40.7,-120.95) (43.252,-126.453).
const samplePolyline = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

func newTestRouteService(t *testing.T, handler http.HandlerFunc) *RouteService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := NewRouteService("test-key", gmaps.WithBaseURL(srv.URL))
	require.NoError(t, err)
	return svc
}

func TestRouteService_Directions(t *testing.T) {
	var origin, destination string
	svc := newTestRouteService(t, func(w http.ResponseWriter, r *http.Request) {
		origin = r.URL.Query().Get("origin")
		destination = r.URL.Query().Get("destination")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"routes": [{
				"legs": [
					{"distance": {"text": "3.0 km", "value": 3000}, "duration": {"text": "5 mins", "value": 300}},
					{"distance": {"text": "1.5 km", "value": 1500}, "duration": {"text": "3 mins", "value": 180}}
				],
				"overview_polyline": {"points": "` + samplePolyline + `"}
			}]
		}`))
	})

	route, err := svc.Directions(context.Background(),
		types.Point{Lat: 14.5547, Lng: 121.0244},
		types.Point{Lat: 14.6091, Lng: 121.0223},
	)
	require.NoError(t, err)

	assert.Equal(t, "14.5547,121.0244", origin)
	assert.Equal(t, "14.6091,121.0223", destination)
	assert.Equal(t, 4500.0, route.DistanceMeters)
	assert.Equal(t, 480.0, route.DurationSeconds)
	require.Len(t, route.Geometry, 3)
	assert.InDelta(t, 38.5, route.Geometry[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, route.Geometry[0].Lng, 1e-5)
	assert.InDelta(t, 43.252, route.Geometry[2].Lat, 1e-5)
}

func TestRouteService_NoRoute(t *testing.T) {
	svc := newTestRouteService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
	})

	_, err := svc.Directions(context.Background(), types.Point{Lat: 14.5, Lng: 121}, types.Point{Lat: 14.6, Lng: 121})
	assert.ErrorIs(t, err, types.ErrUpstreamGateway)
}
