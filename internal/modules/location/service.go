// README: Location service records the passenger's last known position for default pickup.
package location

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"bettercommute/internal/types"
)

var ErrInvalidPosition = errors.New("invalid position")

// minMoveKm: updates closer than this to the stored position are dropped.
const minMoveKm = 0.005

type Service struct {
	store  Store
	logger *zap.Logger
}

func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Update stores a new position. It reports whether the position was written.
func (s *Service) Update(ctx context.Context, u Update) (bool, error) {
	if u.UserID == "" || !u.Position.Valid() {
		return false, ErrInvalidPosition
	}
	if prev, ok, err := s.store.GetPosition(ctx, u.UserID); err == nil && ok {
		if haversineKm(prev, u.Position) < minMoveKm {
			return false, nil
		}
	}
	if err := s.store.SetPosition(ctx, u.UserID, u.Position); err != nil {
		return false, err
	}
	return true, nil
}

// Pickup returns the passenger's last known position, or DefaultCenter when
// none is stored or the store cannot be read.
func (s *Service) Pickup(ctx context.Context, id types.ID) (types.Point, bool) {
	p, ok, err := s.store.GetPosition(ctx, id)
	if err != nil {
		s.logger.Warn("reading passenger location failed", zap.String("user_id", string(id)), zap.Error(err))
		return DefaultCenter, false
	}
	if !ok {
		return DefaultCenter, false
	}
	return p, true
}
