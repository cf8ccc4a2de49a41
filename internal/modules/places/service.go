// README: Place search service: autocomplete degrades to empty, details surface not-found.
package places

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"bettercommute/internal/types"
)

var (
	ErrPlaceNotFound = errors.New("place not found")
	ErrBadRequest    = errors.New("bad request")
)

// Prediction is one autocomplete suggestion.
type Prediction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Provider interface {
	Predictions(ctx context.Context, query string) ([]Prediction, error)
	Details(ctx context.Context, placeID string) (types.Point, error)
}

type Service struct {
	provider Provider
	logger   *zap.Logger
}

func NewService(provider Provider, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, logger: logger}
}

// Predictions returns suggestions for query. Blank queries and provider
// failures both give an empty list.
func (s *Service) Predictions(ctx context.Context, query string) []Prediction {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Prediction{}
	}
	preds, err := s.provider.Predictions(ctx, query)
	if err != nil {
		s.logger.Warn("place predictions failed", zap.String("query", query), zap.Error(err))
		return []Prediction{}
	}
	if preds == nil {
		return []Prediction{}
	}
	return preds
}

// Details resolves a place to coordinates.
func (s *Service) Details(ctx context.Context, placeID string) (types.Point, error) {
	if strings.TrimSpace(placeID) == "" {
		return types.Point{}, ErrBadRequest
	}
	p, err := s.provider.Details(ctx, placeID)
	if err != nil {
		if !errors.Is(err, ErrPlaceNotFound) {
			s.logger.Warn("place details failed", zap.String("place_id", placeID), zap.Error(err))
		}
		return types.Point{}, err
	}
	return p, nil
}
