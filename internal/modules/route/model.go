// README: Route result and directions provider contract.
package route

import (
	"context"
	"errors"

	"bettercommute/internal/types"
)

var (
	ErrNoRoute      = errors.New("no route found")
	ErrLookupFailed = errors.New("route lookup failed")
)

// Status names the outcome of a lookup for API responses.
type Status string

const (
	StatusFound   Status = "found"
	StatusNoRoute Status = "no_route"
	StatusFailed  Status = "failed"
)

// Result is a decoded route. The zero value is the "no route" fallback.
type Result struct {
	Points     []types.Point `json:"points"`
	DistanceKm float64       `json:"distance_km"`
}

// Found reports whether r carries a real route.
func (r Result) Found() bool {
	return len(r.Points) > 0
}

// Empty is the fallback returned when no route exists or the lookup failed.
func Empty() Result {
	return Result{Points: []types.Point{}, DistanceKm: 0}
}

// Leg is one leg of a provider route.
type Leg struct {
	DistanceMeters int
}

// Directions is one provider route: an encoded overview polyline and its legs.
type Directions struct {
	Polyline string
	Legs     []Leg
}

// Provider computes driving directions. An empty slice with a nil error means
// the provider found no route.
type Provider interface {
	Directions(ctx context.Context, origin, destination types.Point) ([]Directions, error)
}

// StatusOf maps a Lookup error to its API status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return StatusFound
	case errors.Is(err, ErrNoRoute):
		return StatusNoRoute
	default:
		return StatusFailed
	}
}
