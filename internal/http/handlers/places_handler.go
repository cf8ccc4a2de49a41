// README: Place autocomplete and details handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bettercommute/internal/modules/places"
	"bettercommute/internal/types"
)

type PlacesService interface {
	Predictions(ctx context.Context, query string) []places.Prediction
	Details(ctx context.Context, placeID string) (types.Point, error)
}

type PlacesHandler struct {
	places PlacesService
}

func NewPlacesHandler(svc PlacesService) *PlacesHandler {
	return &PlacesHandler{places: svc}
}

func (h *PlacesHandler) Predictions(c *gin.Context) {
	preds := h.places.Predictions(c.Request.Context(), c.Query("q"))
	writeJSON(c, http.StatusOK, gin.H{"predictions": preds})
}

func (h *PlacesHandler) Details(c *gin.Context) {
	id := c.Param("id")
	p, err := h.places.Details(c.Request.Context(), id)
	if err != nil {
		writePlacesError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"id": id, "location": p})
}
