// README: Entry point; loads config, wires services and serves the HTTP API until SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bettercommute/internal/config"
	"bettercommute/internal/events"
	httptransport "bettercommute/internal/http"
	"bettercommute/internal/infra"
	"bettercommute/internal/maps"
	"bettercommute/internal/modules/account"
	"bettercommute/internal/modules/booking"
	"bettercommute/internal/modules/catalog"
	"bettercommute/internal/modules/driver"
	"bettercommute/internal/modules/location"
	"bettercommute/internal/modules/places"
	"bettercommute/internal/modules/pricing"
	"bettercommute/internal/modules/route"
	"bettercommute/internal/modules/trip"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := infra.NewLogger(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("commute-api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Firebase.ProjectID == "" {
		return errors.New("COMMUTE_FIREBASE_PROJECT_ID is required")
	}
	if cfg.Maps.APIKey == "" {
		return errors.New("COMMUTE_MAPS_API_KEY is required")
	}

	app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile, cfg.Firebase.DatabaseURL)
	if err != nil {
		return err
	}
	authClient, err := infra.NewFirebaseAuth(ctx, app)
	if err != nil {
		return err
	}
	rtdb, err := infra.NewFirebaseDatabase(ctx, app)
	if err != nil {
		return err
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	mapsClient, err := maps.NewClient(cfg.Maps.APIKey)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.Nop{}
	if w := infra.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic); w != nil {
		defer w.Close()
		publisher = events.NewKafkaPublisher(w, logger.Named("events"))
	}

	accountSvc := account.NewService(account.NewFirebaseDirectory(authClient), logger.Named("account"))
	placesSvc := places.NewService(maps.NewPlacesService(mapsClient), logger.Named("places"))
	routeCalc := route.NewCalculator(
		maps.NewRouteService(mapsClient),
		route.NewRedisCache(redisClient, cfg.Route.CacheTTL),
		cfg.Route.Timeout,
		logger.Named("route"),
	)
	catalogSvc := catalog.NewService(catalog.NewFirebaseStore(rtdb), logger.Named("catalog"))
	locationSvc := location.NewService(location.NewStore(redisClient), logger.Named("location"))
	driverClient := driver.NewClient(cfg.DriverAPI.BaseURL, cfg.DriverAPI.Path, cfg.DriverAPI.Timeout, logger.Named("driver"))

	bookingSvc := booking.NewService(booking.Deps{
		Repo:         booking.NewStore(dbPool),
		Routes:       routeCalc,
		Cars:         catalogSvc,
		Pricing:      pricing.NewService(cfg.Trip.Currency),
		Drivers:      driverClient,
		Simulator:    trip.NewSimulator(cfg.Trip.TickInterval, logger.Named("trip")),
		Pickups:      locationSvc,
		Events:       publisher,
		CancelWindow: cfg.Trip.CancelWindow,
		Logger:       logger.Named("booking"),
	})
	defer bookingSvc.Close()
	if err := bookingSvc.Recover(ctx); err != nil {
		return err
	}

	server := httptransport.NewServer(cfg.HTTP.Addr, httptransport.ServerDeps{
		Accounts: accountSvc,
		Places:   placesSvc,
		Routes:   routeCalc,
		Cars:     catalogSvc,
		Location: locationSvc,
		Bookings: bookingSvc,
		Verifier: infra.NewFirebaseVerifier(authClient),
		Logger:   logger.Named("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
