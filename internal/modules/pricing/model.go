// README: Fare quote returned for each car type.
package pricing

import "bettercommute/internal/types"

type Quote struct {
	CarType    string      `json:"car_type"`
	PricePerKm float64     `json:"price_per_km"`
	ImageURL   string      `json:"image_url,omitempty"`
	DistanceKm float64     `json:"distance_km"`
	Total      types.Money `json:"total"`
}
