// README: Route handler: polyline and distance between two points.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bettercommute/internal/modules/route"
	"bettercommute/internal/types"
)

type RouteLookup interface {
	Lookup(ctx context.Context, origin, destination types.Point) (route.Result, error)
}

type RouteHandler struct {
	routes RouteLookup
}

func NewRouteHandler(routes RouteLookup) *RouteHandler {
	return &RouteHandler{routes: routes}
}

type routeResp struct {
	Status     route.Status  `json:"status"`
	Points     []types.Point `json:"points"`
	DistanceKm float64       `json:"distance_km"`
}

// Get always answers 200; a missing or failed route is the empty result
// with status no_route or failed.
func (h *RouteHandler) Get(c *gin.Context) {
	from, err := types.ParsePoint(c.Query("from"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid from")
		return
	}
	to, err := types.ParsePoint(c.Query("to"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "invalid to")
		return
	}
	res, err := h.routes.Lookup(c.Request.Context(), from, to)
	if err != nil {
		res = route.Empty()
	}
	writeJSON(c, http.StatusOK, routeResp{
		Status:     route.StatusOf(err),
		Points:     res.Points,
		DistanceKm: res.DistanceKm,
	})
}
