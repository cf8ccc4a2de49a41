package maps

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"

	"bettercommute/internal/modules/places"
	"bettercommute/internal/types"
)

// placesAPI is the subset of *maps.Client the places service calls.
type placesAPI interface {
	PlaceAutocomplete(ctx context.Context, r *maps.PlaceAutocompleteRequest) (maps.AutocompleteResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
}

// PlacesService handles interactions with the Google Places API.
type PlacesService struct {
	client placesAPI
}

// NewPlacesService wraps a maps client.
func NewPlacesService(client *maps.Client) *PlacesService {
	return &PlacesService{client: client}
}

// Predictions returns autocomplete suggestions for a partial query, in the
// order the API ranked them.
func (s *PlacesService) Predictions(ctx context.Context, query string) ([]places.Prediction, error) {
	resp, err := s.client.PlaceAutocomplete(ctx, &maps.PlaceAutocompleteRequest{Input: query})
	if err != nil {
		if isNoResults(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("places autocomplete error: %w", err)
	}
	out := make([]places.Prediction, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		out = append(out, places.Prediction{ID: p.PlaceID, Label: p.Description})
	}
	return out, nil
}

// Details resolves a place ID to its coordinates.
func (s *PlacesService) Details(ctx context.Context, placeID string) (types.Point, error) {
	r := &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields:  []maps.PlaceDetailsFieldMask{maps.PlaceDetailsFieldMaskGeometryLocation},
	}
	res, err := s.client.PlaceDetails(ctx, r)
	if err != nil {
		if isNoResults(err) {
			return types.Point{}, places.ErrPlaceNotFound
		}
		return types.Point{}, fmt.Errorf("place details error: %w", err)
	}
	loc := res.Geometry.Location
	return types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// isNoResults matches the status errors the maps client returns for empty answers.
func isNoResults(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NOT_FOUND")
}
