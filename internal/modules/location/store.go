// README: Location store backed by a Redis GEO set.
package location

import (
	"context"

	"github.com/redis/go-redis/v9"

	"bettercommute/internal/types"
)

const passengersGeoKey = "geo:passengers"

type Store interface {
	SetPosition(ctx context.Context, id types.ID, pos types.Point) error
	GetPosition(ctx context.Context, id types.ID) (types.Point, bool, error)
}

type RedisStore struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) SetPosition(ctx context.Context, id types.ID, pos types.Point) error {
	return s.redis.GeoAdd(ctx, passengersGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Latitude:  pos.Lat,
		Longitude: pos.Lng,
	}).Err()
}

func (s *RedisStore) GetPosition(ctx context.Context, id types.ID) (types.Point, bool, error) {
	pos, err := s.redis.GeoPos(ctx, passengersGeoKey, string(id)).Result()
	if err != nil {
		return types.Point{}, false, err
	}
	if len(pos) == 0 || pos[0] == nil {
		return types.Point{}, false, nil
	}
	return types.Point{Lat: pos[0].Latitude, Lng: pos[0].Longitude}, true, nil
}
