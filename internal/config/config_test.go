package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.Trip.TickInterval != time.Second {
		t.Errorf("Trip.TickInterval = %v", cfg.Trip.TickInterval)
	}
	if cfg.Trip.CancelWindow != 20*time.Second {
		t.Errorf("Trip.CancelWindow = %v", cfg.Trip.CancelWindow)
	}
	if cfg.DriverAPI.Timeout != 15*time.Second {
		t.Errorf("DriverAPI.Timeout = %v", cfg.DriverAPI.Timeout)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("Kafka.Brokers = %v, want none", cfg.Kafka.Brokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COMMUTE_ENV", "development")
	t.Setenv("COMMUTE_TRIP_TICK", "250ms")
	t.Setenv("COMMUTE_CANCEL_WINDOW", "30")
	t.Setenv("COMMUTE_KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Development() {
		t.Error("expected development env")
	}
	if cfg.Trip.TickInterval != 250*time.Millisecond {
		t.Errorf("Trip.TickInterval = %v", cfg.Trip.TickInterval)
	}
	if cfg.Trip.CancelWindow != 30*time.Second {
		t.Errorf("Trip.CancelWindow = %v", cfg.Trip.CancelWindow)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
}
