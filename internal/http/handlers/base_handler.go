// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bettercommute/internal/modules/account"
	"bettercommute/internal/modules/booking"
	"bettercommute/internal/modules/catalog"
	"bettercommute/internal/modules/location"
	"bettercommute/internal/modules/places"
)

type errorResponse struct {
	Error string `json:"error"`
}

// pointReq is a lat/lng pair in a request body.
type pointReq struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// isValidID accepts the UUIDs booking IDs are generated as.
func isValidID(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrBadRequest), errors.Is(err, catalog.ErrUnknownCarType):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, booking.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrActiveBooking),
		errors.Is(err, booking.ErrConflict), errors.Is(err, booking.ErrCancelWindowClosed):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrRouteUnavailable):
		_ = c.Error(err)
		writeError(c, http.StatusServiceUnavailable, booking.ErrRouteUnavailable.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeAccountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, account.ErrBadRequest), errors.Is(err, account.ErrWeakPassword):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrEmailExists):
		writeError(c, http.StatusConflict, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writePlacesError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, places.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, places.ErrPlaceNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		_ = c.Error(err)
		writeError(c, http.StatusBadGateway, "place lookup failed")
	}
}

func writeLocationError(c *gin.Context, err error) {
	if errors.Is(err, location.ErrInvalidPosition) {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	_ = c.Error(err)
	writeError(c, http.StatusInternalServerError, "internal error")
}
