// README: Catalog service: lists car types, degrading to an empty set on failure.
package catalog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

var ErrUnknownCarType = errors.New("unknown car type")

type Service struct {
	source Source
	logger *zap.Logger
}

func NewService(source Source, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, logger: logger}
}

// All returns the catalog. Entries without a type name are skipped and a
// failed fetch yields an empty, non-nil slice.
func (s *Service) All(ctx context.Context) []CarType {
	cars, err := s.source.FetchAll(ctx)
	if err != nil {
		s.logger.Error("fetching car types failed", zap.Error(err))
		return []CarType{}
	}
	out := make([]CarType, 0, len(cars))
	for _, c := range cars {
		if strings.TrimSpace(c.Type) == "" || c.PricePerKm < 0 {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Find looks a car type up by name, case-insensitively.
func (s *Service) Find(ctx context.Context, carType string) (CarType, error) {
	for _, c := range s.All(ctx) {
		if strings.EqualFold(c.Type, carType) {
			return c, nil
		}
	}
	return CarType{}, ErrUnknownCarType
}
