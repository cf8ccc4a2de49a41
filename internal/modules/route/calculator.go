// README: Route distance calculator: normalizes provider directions into a Result.
package route

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"bettercommute/internal/types"
)

type Calculator struct {
	provider Provider
	cache    Cache
	timeout  time.Duration
	logger   *zap.Logger
}

// NewCalculator builds a calculator. cache may be nil; a zero timeout means
// provider calls are bounded only by the caller's context.
func NewCalculator(provider Provider, cache Cache, timeout time.Duration, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = noCache{}
	}
	return &Calculator{provider: provider, cache: cache, timeout: timeout, logger: logger}
}

// Compute returns the route between origin and destination, or the empty
// fallback when there is no route or the lookup failed. It never errors.
func (c *Calculator) Compute(ctx context.Context, origin, destination types.Point) Result {
	res, err := c.Lookup(ctx, origin, destination)
	if err != nil {
		return Empty()
	}
	return res
}

// Lookup is Compute with the two empty outcomes kept apart: ErrNoRoute when
// the provider has no route, ErrLookupFailed for transport errors, timeouts
// and malformed responses. Failures are logged here.
func (c *Calculator) Lookup(ctx context.Context, origin, destination types.Point) (Result, error) {
	key := cacheKey(origin, destination)
	if res, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("route cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return res, nil
	}

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	routes, err := c.provider.Directions(callCtx, origin, destination)
	if err != nil {
		c.logger.Error("directions lookup failed",
			zap.Stringer("origin", origin),
			zap.Stringer("destination", destination),
			zap.Error(err),
		)
		return Empty(), fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	res, err := normalize(routes)
	if err != nil {
		if err == ErrNoRoute {
			c.logger.Info("no route between points",
				zap.Stringer("origin", origin),
				zap.Stringer("destination", destination),
			)
			return Empty(), err
		}
		c.logger.Error("malformed directions response", zap.Error(err))
		return Empty(), fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	if err := c.cache.Set(ctx, key, res); err != nil {
		c.logger.Warn("route cache set failed", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

// normalize takes the first route and its first leg.
func normalize(routes []Directions) (Result, error) {
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Empty(), ErrNoRoute
	}
	r := routes[0]
	leg := r.Legs[0]
	if leg.DistanceMeters < 0 {
		return Empty(), fmt.Errorf("negative leg distance %d", leg.DistanceMeters)
	}
	path, err := maps.DecodePolyline(r.Polyline)
	if err != nil {
		return Empty(), fmt.Errorf("decode polyline: %w", err)
	}
	if len(path) < 2 {
		return Empty(), fmt.Errorf("polyline has %d points", len(path))
	}
	points := make([]types.Point, len(path))
	for i, ll := range path {
		points[i] = types.Point{Lat: ll.Lat, Lng: ll.Lng}
	}
	return Result{Points: points, DistanceKm: float64(leg.DistanceMeters) / 1000.0}, nil
}
