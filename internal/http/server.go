// README: API gateway; wires module services into the gin router.
package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"bettercommute/internal/http/handlers"
	"bettercommute/internal/infra"
)

type ServerDeps struct {
	Accounts handlers.AccountService
	Places   handlers.PlacesService
	Routes   handlers.RouteLookup
	Cars     handlers.CarCatalog
	Location handlers.LocationService
	Bookings handlers.BookingService
	Verifier infra.TokenVerifier
	Logger   *zap.Logger
}

// NewServer returns the HTTP server for addr. WriteTimeout is left unset so
// websocket streams are not cut off.
func NewServer(addr string, deps ServerDeps) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
