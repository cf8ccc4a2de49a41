// README: Passenger location handler.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bettercommute/internal/http/middleware"
	"bettercommute/internal/modules/location"
	"bettercommute/internal/types"
)

type LocationService interface {
	Update(ctx context.Context, u location.Update) (bool, error)
}

type LocationHandler struct {
	location LocationService
}

func NewLocationHandler(svc LocationService) *LocationHandler {
	return &LocationHandler{location: svc}
}

// Update stores the caller's position, used as the default pickup.
func (h *LocationHandler) Update(c *gin.Context) {
	var req pointReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Lat == nil || req.Lng == nil {
		writeError(c, http.StatusBadRequest, "lat and lng required")
		return
	}
	stored, err := h.location.Update(c.Request.Context(), location.Update{
		UserID:   types.ID(middleware.CallerUID(c)),
		Position: types.Point{Lat: *req.Lat, Lng: *req.Lng},
	})
	if err != nil {
		writeLocationError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok", "stored": stored})
}
