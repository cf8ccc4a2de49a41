// README: Pricing service computes fare estimates.
package pricing

import (
	"math"

	"bettercommute/internal/modules/catalog"
	"bettercommute/internal/types"
)

// Estimate returns pricePerKm*distanceKm rounded to the nearest whole unit.
// Negative inputs are treated as zero.
func Estimate(pricePerKm, distanceKm float64) int64 {
	if pricePerKm <= 0 || distanceKm <= 0 {
		return 0
	}
	return int64(math.Round(pricePerKm * distanceKm))
}

type Service struct {
	currency string
}

func NewService(currency string) *Service {
	if currency == "" {
		currency = "USD"
	}
	return &Service{currency: currency}
}

func (s *Service) Currency() string {
	return s.currency
}

// Price returns the fare for one car type over distanceKm.
func (s *Service) Price(pricePerKm, distanceKm float64) types.Money {
	return types.Money{Amount: Estimate(pricePerKm, distanceKm), Currency: s.currency}
}

// Quote prices every car type for the same distance, in catalog order.
func (s *Service) Quote(cars []catalog.CarType, distanceKm float64) []Quote {
	out := make([]Quote, 0, len(cars))
	for _, c := range cars {
		out = append(out, Quote{
			CarType:    c.Type,
			PricePerKm: c.PricePerKm,
			ImageURL:   c.ImageURL,
			DistanceKm: distanceKm,
			Total:      s.Price(c.PricePerKm, distanceKm),
		})
	}
	return out
}
