package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bettercommute/internal/modules/trip"
)

func fastTicker(time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(time.Microsecond)
	return t.C, t.Stop
}

func TestSimulateArrives(t *testing.T) {
	var out bytes.Buffer
	sim := trip.NewSimulator(time.Second, nil, trip.WithTicker(fastTicker))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.True(t, simulate(ctx, sim, 1, &out))
	assert.Contains(t, out.String(), "Arriving")
}

func TestSimulateCancelled(t *testing.T) {
	var out bytes.Buffer
	sim := trip.NewSimulator(time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, simulate(ctx, sim, 3, &out))
}

func TestSimulateZeroETA(t *testing.T) {
	var out bytes.Buffer
	sim := trip.NewSimulator(time.Hour, nil)
	assert.True(t, simulate(context.Background(), sim, 0, &out))
	assert.Empty(t, out.String())
}

func TestArrivingIn(t *testing.T) {
	assert.Equal(t, "Arriving now", arrivingIn(0))
	assert.Equal(t, "Arriving in 1 minute", arrivingIn(1))
	assert.Equal(t, "Arriving in 4 minutes", arrivingIn(4))
}
