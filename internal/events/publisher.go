// README: Booking lifecycle events published to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TypeBookingConfirmed = "booking.confirmed"
	TypeDriverAssigned   = "booking.driver_assigned"
	TypeDriverArrived    = "booking.arrived"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingFailed    = "booking.failed"
	TypeBookingCompleted = "booking.completed"
)

type Event struct {
	Type       string         `json:"type"`
	BookingID  string         `json:"booking_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(w *kafka.Writer, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish writes e keyed by booking ID so a booking's events stay ordered on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.BookingID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("publish event failed", zap.String("type", e.Type), zap.String("booking_id", e.BookingID), zap.Error(err))
		return err
	}
	return nil
}

// Nop discards events; used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
