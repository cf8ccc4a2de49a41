// README: Ticker-paced simulator that walks a Plan and signals arrival.
package trip

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// TickerFunc starts a ticker and returns its channel and a stop function.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

type Simulator struct {
	interval  time.Duration
	newTicker TickerFunc
	logger    *zap.Logger
}

type Option func(*Simulator)

// WithTicker replaces the wall-clock ticker.
func WithTicker(f TickerFunc) Option {
	return func(s *Simulator) { s.newTicker = f }
}

func NewSimulator(interval time.Duration, logger *zap.Logger, opts ...Option) *Simulator {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Simulator{interval: interval, newTicker: realTicker, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Session is a single, non-restartable run of the simulator.
type Session struct {
	states  chan ProgressState
	arrived chan struct{}
	done    chan struct{}
	cancel  context.CancelFunc
}

// Start begins a run for etaMinutes. The run ends on arrival, when ctx is
// cancelled, or when Cancel is called.
func (s *Simulator) Start(ctx context.Context, etaMinutes int) *Session {
	ctx, cancel := context.WithCancel(ctx)
	sess := &Session{
		states:  make(chan ProgressState),
		arrived: make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go s.run(ctx, sess, etaMinutes)
	return sess
}

func (s *Simulator) run(ctx context.Context, sess *Session, etaMinutes int) {
	defer close(sess.done)
	defer close(sess.states)
	defer sess.cancel()

	if etaMinutes <= 0 {
		s.logger.Warn("non-positive eta, arriving immediately", zap.Int("eta_minutes", etaMinutes))
		close(sess.arrived)
		return
	}

	tickC, stop := s.newTicker(s.interval)
	defer stop()

	for st := range Plan(etaMinutes) {
		select {
		case <-ctx.Done():
			return
		case <-tickC:
		}
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case sess.states <- st:
		}
	}
	close(sess.arrived)
}

// States delivers progress in tick order. It is closed when the run ends.
func (s *Session) States() <-chan ProgressState { return s.states }

// Arrived is closed exactly once when the final state has been delivered
// (or immediately for a non-positive ETA). It is never closed on cancellation.
func (s *Session) Arrived() <-chan struct{} { return s.arrived }

// Done is closed after the run goroutine has exited and its ticker is stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// Cancel stops the run and waits for it to exit. Safe to call more than once.
func (s *Session) Cancel() {
	s.cancel()
	<-s.done
}

// HasArrived reports whether the arrival signal has fired.
func (s *Session) HasArrived() bool {
	select {
	case <-s.arrived:
		return true
	default:
		return false
	}
}

// Run drives a session to the end, calling onState for every state.
// It returns true when the driver arrived and false when ctx ended first.
func (s *Simulator) Run(ctx context.Context, etaMinutes int, onState func(ProgressState)) bool {
	sess := s.Start(ctx, etaMinutes)
	defer sess.Cancel()
	for st := range sess.States() {
		if onState != nil {
			onState(st)
		}
	}
	return sess.HasArrived()
}
