package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"jeepney/internal/types"
)

const (
	DefaultORSBaseURL = "https://api.openrouteservice.org"
	DefaultORSProfile = "driving-car"
)

// maxErrorBody caps how much of a failed upstream response is kept for the error message.
const maxErrorBody = 512

var _ Provider = (*ORSService)(nil)

// ORSService handles interactions with the OpenRouteService directions API.
type ORSService struct {
	apiKey  string
	baseURL string
	profile string
	client  *http.Client
}

// NewORSService creates an ORSService. Empty baseURL and profile fall back to
// the public endpoint and the driving-car profile; a nil client uses http.DefaultClient.
func NewORSService(apiKey, baseURL, profile string, client *http.Client) *ORSService {
	if baseURL == "" {
		baseURL = DefaultORSBaseURL
	}
	if profile == "" {
		profile = DefaultORSProfile
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ORSService{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		client:  client,
	}
}

type orsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			// ORS omits zero distance and duration from a present summary.
			Summary *struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// Directions returns the first route ORS proposes from one point to another.
func (s *ORSService) Directions(ctx context.Context, from, to types.Point) (Route, error) {
	q := url.Values{}
	q.Set("api_key", s.apiKey)
	q.Set("start", lngLat(from))
	q.Set("end", lngLat(to))
	endpoint := fmt.Sprintf("%s/v2/directions/%s?%s", s.baseURL, url.PathEscape(s.profile), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Route{}, fmt.Errorf("build directions request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/geo+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("%w: directions request: %v", types.ErrUpstreamGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Route{}, fmt.Errorf("%w: directions status %d: %s",
			types.ErrUpstreamGateway, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Route{}, fmt.Errorf("%w: decode directions: %v", types.ErrUpstreamGateway, err)
	}
	if len(payload.Features) == 0 {
		return Route{}, fmt.Errorf("%w: directions returned no route", types.ErrUpstreamGateway)
	}

	f := payload.Features[0]
	summary := f.Properties.Summary
	if summary == nil {
		return Route{}, fmt.Errorf("%w: directions route has no summary", types.ErrUpstreamGateway)
	}
	if len(f.Geometry.Coordinates) < 2 {
		return Route{}, fmt.Errorf("%w: directions route has %d coordinates",
			types.ErrUpstreamGateway, len(f.Geometry.Coordinates))
	}
	geometry := make([]types.Point, 0, len(f.Geometry.Coordinates))
	for _, c := range f.Geometry.Coordinates {
		if len(c) < 2 {
			return Route{}, fmt.Errorf("%w: malformed coordinate %v", types.ErrUpstreamGateway, c)
		}
		// ORS sends [lng, lat]
		geometry = append(geometry, types.Point{Lat: c[1], Lng: c[0]})
	}

	return Route{
		DistanceMeters:  summary.Distance,
		DurationSeconds: summary.Duration,
		Geometry:        geometry,
	}, nil
}

func lngLat(p types.Point) string {
	return strconv.FormatFloat(p.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}
