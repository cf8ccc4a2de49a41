// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bettercommute/internal/http/handlers"
	"bettercommute/internal/http/middleware"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.Recovery(logger), middleware.Logging(logger))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	accountHandler := handlers.NewAccountHandler(deps.Accounts)
	r.POST("/api/accounts", accountHandler.SignUp)

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	placesHandler := handlers.NewPlacesHandler(deps.Places)
	api.GET("/places/predictions", placesHandler.Predictions)
	api.GET("/places/:id", placesHandler.Details)

	routeHandler := handlers.NewRouteHandler(deps.Routes)
	api.GET("/routes", routeHandler.Get)

	carHandler := handlers.NewCarHandler(deps.Cars)
	api.GET("/cars", carHandler.List)

	locationHandler := handlers.NewLocationHandler(deps.Location)
	api.PUT("/passengers/me/location", locationHandler.Update)

	bookingHandler := handlers.NewBookingHandler(deps.Bookings, deps.Cars, logger)
	api.POST("/quotes", bookingHandler.Quote)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings/:id", bookingHandler.Get)
	api.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	api.POST("/bookings/:id/acknowledge", bookingHandler.Acknowledge)
	api.GET("/bookings/:id/stream", bookingHandler.Stream)

	return r
}
