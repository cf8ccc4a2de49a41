// README: Car type as stored in the car_types catalog.
package catalog

type CarType struct {
	Type       string  `json:"type"`
	PricePerKm float64 `json:"pricePerKm"`
	ImageURL   string  `json:"imageUrl"`
}
