// README: Base handler utilities (JSON helpers, error mapping, query parsing).
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"jeepney/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

const maxIDLength = 64

// isValidID accepts jeep ids made of letters, digits, '-' and '_'.
// Firebase UIDs fit this alphabet.
func isValidID(v string) bool {
	if v == "" || len(v) > maxIDLength {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '-' || c == '_' {
			continue
		}
		return false
	}
	return true
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeServiceError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrAuthentication):
		writeError(c, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, types.ErrUpstreamGateway):
		writeError(c, http.StatusBadGateway, "routing service unavailable")
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// queryFloat parses a required float query parameter.
func queryFloat(c *gin.Context, key string) (float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", types.ErrInvalidArgument, key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", types.ErrInvalidArgument, key)
	}
	return v, nil
}

func queryPoint(c *gin.Context, latKey, lngKey string) (types.Point, error) {
	lat, err := queryFloat(c, latKey)
	if err != nil {
		return types.Point{}, err
	}
	lng, err := queryFloat(c, lngKey)
	if err != nil {
		return types.Point{}, err
	}
	return types.Point{Lat: lat, Lng: lng}, nil
}

// latLngPairs renders geometry as [[lat, lng], ...].
func latLngPairs(points []types.Point) [][2]float64 {
	out := make([][2]float64, 0, len(points))
	for _, p := range points {
		out = append(out, [2]float64{p.Lat, p.Lng})
	}
	return out
}
