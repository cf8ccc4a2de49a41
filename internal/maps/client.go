package maps

import (
	"fmt"

	"googlemaps.github.io/maps"
)

// NewClient creates the shared Google Maps client used by the route and places services.
func NewClient(apiKey string) (*maps.Client, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return client, nil
}
