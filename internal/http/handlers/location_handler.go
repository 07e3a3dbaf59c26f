// README: Location handlers for listing jeeps and driver updates.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jeepney/internal/http/middleware"
	"jeepney/internal/modules/location"
	"jeepney/internal/types"
)

type LocationHandler struct {
	location *location.Service
}

func NewLocationHandler(svc *location.Service) *LocationHandler {
	return &LocationHandler{location: svc}
}

func (h *LocationHandler) List(c *gin.Context) {
	locs, err := h.location.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	views := make([]location.View, 0, len(locs))
	for _, l := range locs {
		views = append(views, l.View())
	}
	writeJSON(c, http.StatusOK, views)
}

type updateLocationReq struct {
	JeepID string   `json:"jeep_id"`
	Lat    *float64 `json:"lat"`
	Lng    *float64 `json:"lng"`
}

// Update stores the caller's jeep position. jeep_id defaults to the caller UID.
func (h *LocationHandler) Update(c *gin.Context) {
	var req updateLocationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}

	uid := middleware.CallerUID(c)
	jeepID := req.JeepID
	if jeepID == "" {
		jeepID = uid
	}
	if !isValidID(jeepID) {
		writeError(c, http.StatusBadRequest, "invalid jeep_id")
		return
	}

	loc, err := h.location.Update(c.Request.Context(), location.Update{
		VehicleID:  types.ID(jeepID),
		Position:   types.Point{Lat: *req.Lat, Lng: *req.Lng},
		ReportedBy: types.ID(uid),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok", "location": loc.View()})
}
