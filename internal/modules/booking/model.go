// README: Booking aggregate, status flow and live progress updates.
package booking

import (
	"time"

	"bettercommute/internal/modules/trip"
	"bettercommute/internal/types"
)

type Status string

const (
	StatusNone        Status = "none"
	StatusConfirmed   Status = "confirmed"
	StatusApproaching Status = "approaching"
	StatusArrived     Status = "arrived"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusFailed      Status = "failed"
)

type Booking struct {
	ID            types.ID    `json:"id"`
	PassengerID   types.ID    `json:"passenger_id"`
	Status        Status      `json:"status"`
	StatusVersion int         `json:"status_version"`
	Pickup        types.Point `json:"pickup"`
	Dropoff       types.Point `json:"dropoff"`
	CarType       string      `json:"car_type"`
	DistanceKm    float64     `json:"distance_km"`
	PricePerKm    float64     `json:"price_per_km"`
	Total         types.Money `json:"total"`
	DriverName    string      `json:"driver_name,omitempty"`
	DriverPhone   string      `json:"driver_phone,omitempty"`
	ETAMinutes    int         `json:"eta_minutes,omitempty"`
	Error         string      `json:"error,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	ApproachingAt *time.Time  `json:"approaching_at,omitempty"`
	ArrivedAt     *time.Time  `json:"arrived_at,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`

	// Progress is the latest simulator state; only set while a run is live.
	Progress *trip.ProgressState `json:"progress,omitempty"`
}

// RemainingMinutes is the "arriving in N minutes" figure, or 0 when unknown.
func (b *Booking) RemainingMinutes() int {
	switch {
	case b.Status == StatusApproaching && b.Progress != nil:
		return b.Progress.RemainingMinutes(b.ETAMinutes)
	case b.Status == StatusApproaching:
		return b.ETAMinutes
	default:
		return 0
	}
}

// Active reports whether the booking still has a driver lookup or approach running.
func (b *Booking) Active() bool {
	return b.Status == StatusConfirmed || b.Status == StatusApproaching
}

type Event struct {
	ID         int64
	BookingID  types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// Change carries the columns written alongside a status transition.
type Change struct {
	Driver *trip.Quote
	Error  string
}

func (c Change) apply(b *Booking) {
	if c.Driver != nil {
		b.DriverName = c.Driver.DriverName
		b.DriverPhone = c.Driver.MobileNumber
		b.ETAMinutes = c.Driver.ETAMinutes
	}
	if c.Error != "" {
		b.Error = c.Error
	}
}

// Update is pushed to stream subscribers on every status change and tick.
type Update struct {
	BookingID        types.ID            `json:"booking_id"`
	Status           Status              `json:"status"`
	Progress         *trip.ProgressState `json:"progress,omitempty"`
	RemainingMinutes int                 `json:"remaining_minutes"`
	DriverName       string              `json:"driver_name,omitempty"`
	DriverPhone      string              `json:"driver_phone,omitempty"`
	Error            string              `json:"error,omitempty"`
}

func updateOf(b *Booking) Update {
	return Update{
		BookingID:        b.ID,
		Status:           b.Status,
		Progress:         b.Progress,
		RemainingMinutes: b.RemainingMinutes(),
		DriverName:       b.DriverName,
		DriverPhone:      b.DriverPhone,
		Error:            b.Error,
	}
}

// AllowedTransitions is the booking state flow.
var AllowedTransitions = map[Status][]Status{
	StatusConfirmed:   {StatusApproaching, StatusCancelled, StatusFailed},
	StatusApproaching: {StatusArrived, StatusCancelled},
	StatusArrived:     {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
