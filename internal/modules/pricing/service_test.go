package pricing

import (
	"testing"

	"bettercommute/internal/modules/catalog"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name       string
		pricePerKm float64
		distanceKm float64
		want       int64
	}{
		{name: "exact", pricePerKm: 2.0, distanceKm: 2.5, want: 5},
		{name: "rounds down", pricePerKm: 1.5, distanceKm: 2.9, want: 4},   // 4.35
		{name: "rounds half up", pricePerKm: 1.5, distanceKm: 3.0, want: 5}, // 4.5
		{name: "rounds up", pricePerKm: 1.75, distanceKm: 12.4, want: 22},   // 21.7
		{name: "zero distance (no route)", pricePerKm: 3.0, distanceKm: 0, want: 0},
		{name: "free car", pricePerKm: 0, distanceKm: 10, want: 0},
		{name: "negative clamps", pricePerKm: -1, distanceKm: 10, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.pricePerKm, tt.distanceKm); got != tt.want {
				t.Errorf("Estimate(%v, %v) = %d, want %d", tt.pricePerKm, tt.distanceKm, got, tt.want)
			}
		})
	}
}

func TestService_Quote(t *testing.T) {
	s := NewService("GBP")
	cars := []catalog.CarType{
		{Type: "Economy", PricePerKm: 1.2, ImageURL: "https://img/eco.png"},
		{Type: "Executive", PricePerKm: 3.0},
	}

	quotes := s.Quote(cars, 4.2)

	if len(quotes) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(quotes))
	}
	if quotes[0].CarType != "Economy" || quotes[0].Total.Amount != 5 || quotes[0].Total.Currency != "GBP" {
		t.Errorf("economy quote = %+v", quotes[0]) // 5.04
	}
	if quotes[1].Total.Amount != 13 {
		t.Errorf("executive quote = %+v", quotes[1]) // 12.6
	}
	if quotes[0].ImageURL != "https://img/eco.png" || quotes[1].DistanceKm != 4.2 {
		t.Errorf("quote fields not carried: %+v", quotes)
	}
}

func TestService_DefaultCurrency(t *testing.T) {
	if NewService("").Currency() != "USD" {
		t.Error("expected USD default")
	}
	if got := NewService("").Quote(nil, 3); len(got) != 0 {
		t.Errorf("expected no quotes, got %v", got)
	}
}
