// README: Booking service: confirms a quote, looks up the driver, then
// paces the simulated approach and records arrival.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bettercommute/internal/events"
	"bettercommute/internal/modules/catalog"
	"bettercommute/internal/modules/pricing"
	"bettercommute/internal/modules/route"
	"bettercommute/internal/modules/trip"
	"bettercommute/internal/types"
)

var (
	ErrInvalidState       = errors.New("invalid state transition")
	ErrNotFound           = errors.New("booking not found")
	ErrConflict           = errors.New("booking state conflict")
	ErrActiveBooking      = errors.New("passenger has active booking")
	ErrBadRequest         = errors.New("bad request")
	ErrCancelWindowClosed = errors.New("cancel window closed")
	ErrRouteUnavailable   = errors.New("route service unavailable, try again")
)

// interruptedReason is recorded on bookings whose run did not survive a restart.
const interruptedReason = "booking interrupted by server restart"

const (
	defaultPublishTimeout = 2 * time.Second
	// cancelAttempts bounds retries when the run moves the booking mid-cancel.
	cancelAttempts = 3
)

type RouteCalculator interface {
	Compute(ctx context.Context, origin, destination types.Point) route.Result
	Lookup(ctx context.Context, origin, destination types.Point) (route.Result, error)
}

type CarFinder interface {
	Find(ctx context.Context, carType string) (catalog.CarType, error)
}

type DriverLookup interface {
	Lookup(ctx context.Context) (trip.Quote, error)
}

type PickupLocator interface {
	Pickup(ctx context.Context, passengerID types.ID) (types.Point, bool)
}

type Deps struct {
	Repo           Repository
	Routes         RouteCalculator
	Cars           CarFinder
	Pricing        *pricing.Service
	Drivers        DriverLookup
	Simulator      *trip.Simulator
	Pickups        PickupLocator
	Events         events.Publisher
	CancelWindow   time.Duration
	PublishTimeout time.Duration
	Logger         *zap.Logger
}

type Service struct {
	repo           Repository
	routes         RouteCalculator
	cars           CarFinder
	pricing        *pricing.Service
	drivers        DriverLookup
	sim            *trip.Simulator
	pickups        PickupLocator
	events         events.Publisher
	cancelWindow   time.Duration
	publishTimeout time.Duration
	logger         *zap.Logger
	now            func() time.Time

	root     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu   sync.Mutex
	runs map[types.ID]*run
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Pricing == nil {
		d.Pricing = pricing.NewService("")
	}
	if d.Simulator == nil {
		d.Simulator = trip.NewSimulator(time.Second, d.Logger)
	}
	if d.CancelWindow <= 0 {
		d.CancelWindow = 20 * time.Second
	}
	if d.PublishTimeout <= 0 {
		d.PublishTimeout = defaultPublishTimeout
	}
	root, cancel := context.WithCancel(context.Background())
	return &Service{
		repo:           d.Repo,
		routes:         d.Routes,
		cars:           d.Cars,
		pricing:        d.Pricing,
		drivers:        d.Drivers,
		sim:            d.Simulator,
		pickups:        d.Pickups,
		events:         d.Events,
		cancelWindow:   d.CancelWindow,
		publishTimeout: d.PublishTimeout,
		logger:         d.Logger,
		now:            time.Now,
		root:           root,
		shutdown:       cancel,
		runs:           make(map[types.ID]*run),
	}
}

type QuoteCommand struct {
	PassengerID types.ID
	Pickup      *types.Point
	Dropoff     types.Point
}

type QuoteResult struct {
	Pickup  types.Point     `json:"pickup"`
	Dropoff types.Point     `json:"dropoff"`
	Route   route.Result    `json:"route"`
	Quotes  []pricing.Quote `json:"quotes"`
}

type ConfirmCommand struct {
	PassengerID types.ID
	Pickup      *types.Point
	Dropoff     types.Point
	CarType     string
}

type CancelCommand struct {
	BookingID   types.ID
	PassengerID types.ID
}

type AcknowledgeCommand struct {
	BookingID   types.ID
	PassengerID types.ID
}

// Quote prices every car in cars for the pickup -> dropoff route.
func (s *Service) Quote(ctx context.Context, cmd QuoteCommand, cars []catalog.CarType) (QuoteResult, error) {
	pickup, err := s.resolvePickup(ctx, cmd.PassengerID, cmd.Pickup, cmd.Dropoff)
	if err != nil {
		return QuoteResult{}, err
	}
	r := s.routes.Compute(ctx, pickup, cmd.Dropoff)
	return QuoteResult{
		Pickup:  pickup,
		Dropoff: cmd.Dropoff,
		Route:   r,
		Quotes:  s.pricing.Quote(cars, r.DistanceKm),
	}, nil
}

// Confirm persists a booking and starts the driver lookup in the background.
func (s *Service) Confirm(ctx context.Context, cmd ConfirmCommand) (*Booking, error) {
	if cmd.PassengerID == "" || cmd.CarType == "" {
		return nil, ErrBadRequest
	}
	pickup, err := s.resolvePickup(ctx, cmd.PassengerID, cmd.Pickup, cmd.Dropoff)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.HasActiveByPassenger(ctx, cmd.PassengerID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrActiveBooking
	}
	car, err := s.cars.Find(ctx, cmd.CarType)
	if err != nil {
		return nil, err
	}

	// a missing route is priced at zero; an outage must not be
	r, err := s.routes.Lookup(ctx, pickup, cmd.Dropoff)
	if err != nil && !errors.Is(err, route.ErrNoRoute) {
		return nil, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	now := s.now()
	b := &Booking{
		ID:          types.ID(uuid.NewString()),
		PassengerID: cmd.PassengerID,
		Status:      StatusConfirmed,
		Pickup:      pickup,
		Dropoff:     cmd.Dropoff,
		CarType:     car.Type,
		DistanceKm:  r.DistanceKm,
		PricePerKm:  car.PricePerKm,
		Total:       s.pricing.Price(car.PricePerKm, r.DistanceKm),
		CreatedAt:   now,
	}
	// the store rejects a second active booking raced past the check above
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	s.record(ctx, b.ID, StatusNone, StatusConfirmed, "passenger", &cmd.PassengerID, now)
	s.publish(ctx, events.TypeBookingConfirmed, b, map[string]any{
		"car_type":     b.CarType,
		"distance_km":  b.DistanceKm,
		"total_amount": b.Total.Amount,
		"currency":     b.Total.Currency,
	})

	out := *b
	s.launch(b)
	return &out, nil
}

// Get returns the booking with its live progress when a run is active.
func (s *Service) Get(ctx context.Context, id, passengerID types.ID) (*Booking, error) {
	b, err := s.owned(ctx, id, passengerID)
	if err != nil {
		return nil, err
	}
	if r := s.lookupRun(id); r != nil {
		b.Progress = r.progress()
	}
	return b, nil
}

// Cancel cancels a booking confirmed less than the cancel window ago. The
// cancelled status is written first and only then is the run stopped, so a
// failed write leaves the booking active with its run still driving it.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	b, err := s.owned(ctx, cmd.BookingID, cmd.PassengerID)
	if err != nil {
		return err
	}
	if !CanTransition(b.Status, StatusCancelled) {
		return ErrInvalidState
	}
	if s.now().Sub(b.CreatedAt) >= s.cancelWindow {
		return ErrCancelWindowClosed
	}

	var cancelled *Booking
	for attempt := 1; ; attempt++ {
		cancelled, err = s.transition(ctx, b, StatusCancelled, Change{}, "passenger", &cmd.PassengerID)
		if !errors.Is(err, ErrConflict) || attempt == cancelAttempts {
			break
		}
		// the run advanced the booking; retry against the new version
		if b, err = s.repo.Get(ctx, b.ID); err != nil {
			return err
		}
	}
	if err != nil {
		return err
	}

	// run writes are version-guarded and now conflict; stop it
	if r := s.lookupRun(b.ID); r != nil {
		r.settle(updateOf(cancelled))
		r.stop()
	}
	s.publish(ctx, events.TypeBookingCancelled, cancelled, nil)
	return nil
}

// Acknowledge dismisses an arrived booking.
func (s *Service) Acknowledge(ctx context.Context, cmd AcknowledgeCommand) error {
	b, err := s.owned(ctx, cmd.BookingID, cmd.PassengerID)
	if err != nil {
		return err
	}
	done, err := s.transition(ctx, b, StatusCompleted, Change{}, "passenger", &cmd.PassengerID)
	if err != nil {
		return err
	}
	s.publish(ctx, events.TypeBookingCompleted, done, nil)
	return nil
}

// Subscribe streams updates for a booking. The first update is the current
// snapshot; the channel is closed when the run ends or unsubscribe is called.
// A slow reader misses intermediate updates but always sees the newest one.
func (s *Service) Subscribe(ctx context.Context, id, passengerID types.ID) (<-chan Update, func(), error) {
	b, err := s.owned(ctx, id, passengerID)
	if err != nil {
		return nil, nil, err
	}
	if r := s.lookupRun(id); r != nil {
		if ch, unsubscribe, ok := r.subscribe(); ok {
			return ch, unsubscribe, nil
		}
		// run ended between the read and the subscribe
		if b, err = s.repo.Get(ctx, id); err != nil {
			return nil, nil, err
		}
	}
	ch := make(chan Update, 1)
	ch <- updateOf(b)
	close(ch)
	return ch, func() {}, nil
}

// Recover fails bookings left active by a previous process.
func (s *Service) Recover(ctx context.Context) error {
	n, err := s.repo.FailActive(ctx, interruptedReason)
	if err != nil {
		return fmt.Errorf("recover bookings: %w", err)
	}
	if n > 0 {
		s.logger.Warn("failed interrupted bookings", zap.Int64("count", n))
	}
	return nil
}

// Close stops every run and waits for them to exit.
func (s *Service) Close() {
	s.shutdown()
	s.wg.Wait()
}

func (s *Service) resolvePickup(ctx context.Context, passengerID types.ID, pickup *types.Point, dropoff types.Point) (types.Point, error) {
	if !dropoff.Valid() {
		return types.Point{}, ErrBadRequest
	}
	if pickup != nil {
		if !pickup.Valid() {
			return types.Point{}, ErrBadRequest
		}
		return *pickup, nil
	}
	if s.pickups == nil {
		return types.Point{}, ErrBadRequest
	}
	p, _ := s.pickups.Pickup(ctx, passengerID)
	return p, nil
}

func (s *Service) owned(ctx context.Context, id, passengerID types.ID) (*Booking, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if passengerID != "" && b.PassengerID != passengerID {
		return nil, ErrNotFound
	}
	return b, nil
}

// transition applies one optimistic status change and records it.
func (s *Service) transition(ctx context.Context, b *Booking, to Status, ch Change, actorType string, actorID *types.ID) (*Booking, error) {
	if !CanTransition(b.Status, to) {
		return nil, ErrInvalidState
	}
	ok, err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to, b.StatusVersion, ch)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	s.record(ctx, b.ID, b.Status, to, actorType, actorID, s.now())

	next := *b
	next.Status = to
	next.StatusVersion++
	ch.apply(&next)
	return &next, nil
}

func (s *Service) record(ctx context.Context, id types.ID, from, to Status, actorType string, actorID *types.ID, at time.Time) {
	err := s.repo.AppendEvent(ctx, &Event{
		BookingID:  id,
		FromStatus: from,
		ToStatus:   to,
		ActorType:  actorType,
		ActorID:    actorID,
		CreatedAt:  at,
	})
	if err != nil {
		s.logger.Warn("append booking event failed", zap.String("booking_id", string(id)), zap.Error(err))
	}
}

// publish is best effort and bounded so a broker outage cannot stall callers.
func (s *Service) publish(ctx context.Context, typ string, b *Booking, data map[string]any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	err := s.events.Publish(ctx, events.Event{
		Type:       typ,
		BookingID:  string(b.ID),
		OccurredAt: s.now().UTC(),
		Data:       data,
	})
	if err != nil {
		s.logger.Warn("publish booking event failed", zap.String("type", typ), zap.String("booking_id", string(b.ID)), zap.Error(err))
	}
}
