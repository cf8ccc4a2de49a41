// README: Car catalog handler.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bettercommute/internal/modules/catalog"
)

type CarCatalog interface {
	All(ctx context.Context) []catalog.CarType
}

type CarHandler struct {
	cars CarCatalog
}

func NewCarHandler(cars CarCatalog) *CarHandler {
	return &CarHandler{cars: cars}
}

func (h *CarHandler) List(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"cars": h.cars.All(c.Request.Context())})
}
