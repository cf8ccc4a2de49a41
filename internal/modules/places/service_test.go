package places

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"bettercommute/internal/types"
)

type stubProvider struct {
	preds []Prediction
	point types.Point
	err   error
	calls int
}

func (s *stubProvider) Predictions(context.Context, string) ([]Prediction, error) {
	s.calls++
	return s.preds, s.err
}

func (s *stubProvider) Details(context.Context, string) (types.Point, error) {
	s.calls++
	return s.point, s.err
}

func TestPredictions_BlankQuerySkipsProvider(t *testing.T) {
	p := &stubProvider{}
	got := NewService(p, nil).Predictions(context.Background(), "   ")
	assert.Empty(t, got)
	assert.Equal(t, 0, p.calls)
}

func TestPredictions_FailureIsEmpty(t *testing.T) {
	p := &stubProvider{err: errors.New("quota exceeded")}
	got := NewService(p, nil).Predictions(context.Background(), "stat")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPredictions_PassThrough(t *testing.T) {
	p := &stubProvider{preds: []Prediction{{ID: "1", Label: "Station Rd"}}}
	got := NewService(p, nil).Predictions(context.Background(), "stat")
	assert.Equal(t, []Prediction{{ID: "1", Label: "Station Rd"}}, got)
}

func TestDetails(t *testing.T) {
	svc := NewService(&stubProvider{point: types.Point{Lat: 1, Lng: 2}}, nil)
	p, err := svc.Details(context.Background(), "abc")
	assert.NoError(t, err)
	assert.Equal(t, types.Point{Lat: 1, Lng: 2}, p)

	_, err = svc.Details(context.Background(), "")
	assert.ErrorIs(t, err, ErrBadRequest)

	svc = NewService(&stubProvider{err: ErrPlaceNotFound}, nil)
	_, err = svc.Details(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrPlaceNotFound)
}
