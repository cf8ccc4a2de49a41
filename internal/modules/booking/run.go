// README: Per-booking background run: driver lookup, paced approach and
// fan-out of progress to stream subscribers.
package booking

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bettercommute/internal/events"
	"bettercommute/internal/modules/trip"
	"bettercommute/internal/types"
)

// subscriberBuffer bounds how far a stream reader may lag.
const subscriberBuffer = 16

type run struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	latest  Update
	closed  bool
	settled bool
	subs    map[chan Update]struct{}
}

func newRun(cancel context.CancelFunc, b *Booking) *run {
	return &run{
		cancel: cancel,
		done:   make(chan struct{}),
		latest: updateOf(b),
		subs:   make(map[chan Update]struct{}),
	}
}

// stop cancels the run and waits until it can no longer write.
func (r *run) stop() {
	r.cancel()
	<-r.done
}

func (r *run) progress() *trip.ProgressState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest.Progress == nil {
		return nil
	}
	p := *r.latest.Progress
	return &p
}

func (r *run) subscribe() (<-chan Update, func(), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, nil, false
	}
	ch := make(chan Update, subscriberBuffer)
	ch <- r.latest
	r.subs[ch] = struct{}{}
	unsubscribe := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.subs[ch]; ok {
			delete(r.subs, ch)
			close(ch)
		}
	}
	return ch, unsubscribe, true
}

func (r *run) broadcast(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		return
	}
	r.send(u)
}

// settle sends a terminal update; later broadcasts from the run are dropped.
func (r *run) settle(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settled = true
	r.send(u)
}

func (r *run) send(u Update) {
	r.latest = u
	for ch := range r.subs {
		select {
		case ch <- u:
		default:
			// full: drop the oldest so the newest is never lost
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- u:
			default:
			}
		}
	}
}

func (r *run) closeSubscribers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for ch := range r.subs {
		close(ch)
		delete(r.subs, ch)
	}
}

func (s *Service) launch(b *Booking) {
	ctx, cancel := context.WithCancel(s.root)
	r := newRun(cancel, b)

	s.mu.Lock()
	s.runs[b.ID] = r
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(r.done)
		defer cancel()
		defer s.forget(b.ID, r)
		defer r.closeSubscribers()
		s.drive(ctx, r, b)
	}()
}

func (s *Service) lookupRun(id types.ID) *run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

func (s *Service) forget(id types.ID, r *run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runs[id] == r {
		delete(s.runs, id)
	}
}

// drive resolves the driver and only then paces the approach. Once ctx is
// cancelled nothing more is written for the booking.
func (s *Service) drive(ctx context.Context, r *run, b *Booking) {
	log := s.logger.With(zap.String("booking_id", string(b.ID)))

	quote, err := s.drivers.Lookup(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Warn("driver lookup failed", zap.Error(err))
		failed, terr := s.transition(ctx, b, StatusFailed, Change{Error: err.Error()}, "system", nil)
		if terr != nil {
			log.Error("mark booking failed", zap.Error(terr))
			return
		}
		r.broadcast(updateOf(failed))
		s.publish(ctx, events.TypeBookingFailed, failed, map[string]any{"error": failed.Error})
		return
	}

	b, err = s.transition(ctx, b, StatusApproaching, Change{Driver: &quote}, "system", nil)
	if err != nil {
		log.Error("mark booking approaching", zap.Error(err))
		return
	}
	r.broadcast(updateOf(b))
	s.publish(ctx, events.TypeDriverAssigned, b, map[string]any{
		"driver_name": quote.DriverName,
		"eta_minutes": quote.ETAMinutes,
	})
	log.Info("driver assigned", zap.String("driver", quote.DriverName), zap.Int("eta_minutes", quote.ETAMinutes))

	sess := s.sim.Start(ctx, quote.ETAMinutes)
	defer sess.Cancel()
	for st := range sess.States() {
		b.Progress = &st
		r.broadcast(updateOf(b))
	}
	if !sess.HasArrived() || ctx.Err() != nil {
		return
	}

	arrived, err := s.transition(ctx, b, StatusArrived, Change{}, "system", nil)
	if err != nil {
		log.Error("mark booking arrived", zap.Error(err))
		return
	}
	r.broadcast(updateOf(arrived))
	s.publish(ctx, events.TypeDriverArrived, arrived, nil)
	log.Info("driver arrived")
}
