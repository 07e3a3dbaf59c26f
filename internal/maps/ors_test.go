package maps

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jeepney/internal/types"
)

const orsBody = `{
  "type": "FeatureCollection",
  "features": [{
    "geometry": {"type": "LineString", "coordinates": [[121.0244, 14.5547], [121.0230, 14.5800], [121.0223, 14.6091]]},
    "properties": {"summary": {"distance": 7123.4, "duration": 912.7}}
  }]
}`

func TestORSService_Directions(t *testing.T) {
	var gotPath, gotStart, gotEnd, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStart = r.URL.Query().Get("start")
		gotEnd = r.URL.Query().Get("end")
		gotKey = r.URL.Query().Get("api_key")
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write([]byte(orsBody))
	}))
	defer srv.Close()

	svc := NewORSService("secret", srv.URL+"/", "", srv.Client())
	route, err := svc.Directions(context.Background(),
		types.Point{Lat: 14.5547, Lng: 121.0244},
		types.Point{Lat: 14.6091, Lng: 121.0223},
	)
	require.NoError(t, err)

	assert.Equal(t, "/v2/directions/driving-car", gotPath)
	assert.Equal(t, "121.0244,14.5547", gotStart)
	assert.Equal(t, "121.0223,14.6091", gotEnd)
	assert.Equal(t, "secret", gotKey)

	assert.Equal(t, 7123.4, route.DistanceMeters)
	assert.InDelta(t, 7.1234, route.DistanceKm(), 1e-9)
	assert.Equal(t, 912.7, route.DurationSeconds)
	require.Len(t, route.Geometry, 3)
	assert.Equal(t, types.Point{Lat: 14.5547, Lng: 121.0244}, route.Geometry[0])
	assert.Equal(t, types.Point{Lat: 14.6091, Lng: 121.0223}, route.Geometry[2])
}

func TestORSService_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-200", status: http.StatusForbidden, body: `{"error":"Access to this API has been disallowed"}`},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
		{name: "malformed json", status: http.StatusOK, body: `{"features": [`},
		{name: "no features", status: http.StatusOK, body: `{"features": []}`},
		{name: "short coordinate", status: http.StatusOK, body: `{"features":[{"geometry":{"coordinates":[[121.0],[121.1,14.6]]},"properties":{"summary":{"distance":1,"duration":1}}}]}`},
		{name: "bare feature", status: http.StatusOK, body: `{"features":[{"type":"Feature"}]}`},
		{name: "empty properties", status: http.StatusOK, body: `{"features":[{"properties":{}}]}`},
		{name: "null geometry", status: http.StatusOK, body: `{"type":"FeatureCollection","features":[{"geometry":null}]}`},
		{name: "null summary", status: http.StatusOK, body: `{"features":[{"geometry":{"coordinates":[[121.0,14.5],[121.1,14.6]]},"properties":{"summary":null}}]}`},
		{name: "single coordinate", status: http.StatusOK, body: `{"features":[{"geometry":{"coordinates":[[121.0,14.5]]},"properties":{"summary":{"distance":0,"duration":0}}}]}`},
		{name: "no geometry", status: http.StatusOK, body: `{"features":[{"properties":{"summary":{"distance":10,"duration":5}}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc := NewORSService("k", srv.URL, "driving-car", srv.Client())
			_, err := svc.Directions(context.Background(), types.Point{Lat: 14.5, Lng: 121}, types.Point{Lat: 14.6, Lng: 121})
			assert.ErrorIs(t, err, types.ErrUpstreamGateway)
		})
	}
}

func TestORSService_ZeroLengthRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features":[{"geometry":{"coordinates":[[120.9842,14.5995],[120.9842,14.5995]]},"properties":{"summary":{}}}]}`))
	}))
	defer srv.Close()

	p := types.Point{Lat: 14.5995, Lng: 120.9842}
	route, err := NewORSService("k", srv.URL, "", srv.Client()).Directions(context.Background(), p, p)
	require.NoError(t, err)
	assert.Zero(t, route.DistanceMeters)
	assert.Zero(t, route.DurationSeconds)
	require.Len(t, route.Geometry, 2)
	assert.Equal(t, p, route.Geometry[0])
}

func TestORSService_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	svc := NewORSService("k", addr, "", &http.Client{Timeout: time.Second})
	_, err := svc.Directions(context.Background(), types.Point{}, types.Point{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, types.ErrUpstreamGateway)
}

func TestORSService_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	svc := NewORSService("k", srv.URL, "", srv.Client())
	_, err := svc.Directions(ctx, types.Point{}, types.Point{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, types.ErrUpstreamGateway)
}
