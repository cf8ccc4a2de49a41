package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"bettercommute/internal/modules/route"
	"bettercommute/internal/types"
)

// directionsAPI is the subset of *maps.Client the route service calls.
type directionsAPI interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
}

// RouteService handles interactions with the Google Maps Directions API.
type RouteService struct {
	client directionsAPI
}

// NewRouteService wraps a maps client.
func NewRouteService(client *maps.Client) *RouteService {
	return &RouteService{client: client}
}

// Directions returns driving routes from origin to destination.
// A ZERO_RESULTS / NOT_FOUND answer is reported as no routes rather than an error.
func (s *RouteService) Directions(ctx context.Context, origin, destination types.Point) ([]route.Directions, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin.String(),
		Destination: destination.String(),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		if isNoResults(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("maps api error: %w", err)
	}

	out := make([]route.Directions, 0, len(routes))
	for _, rt := range routes {
		d := route.Directions{Polyline: rt.OverviewPolyline.Points}
		for _, leg := range rt.Legs {
			if leg == nil {
				continue
			}
			d.Legs = append(d.Legs, route.Leg{DistanceMeters: leg.Distance.Meters})
		}
		out = append(out, d)
	}
	return out, nil
}
