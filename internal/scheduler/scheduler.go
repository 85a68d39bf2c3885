// Package scheduler triggers scrape runs at startup, on a fixed interval,
// and on demand.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/city-events-scraper/internal/clock/system"
	"github.com/JakeFAU/city-events-scraper/internal/event"
)

// DefaultInterval is one run per day.
const DefaultInterval = 24 * time.Hour

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("scheduler already started")

// RunFunc performs one full scrape pass.
type RunFunc func(ctx context.Context)

// Ticker delivers ticks on C until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a Ticker for the given interval.
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker.
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Config controls scheduling.
type Config struct {
	Interval time.Duration
	// SkipInitialRun disables the run performed immediately on Start.
	SkipInitialRun bool
	NewTicker      TickerFactory
	// Clock stamps run start times. Defaults to the system clock.
	Clock  event.Clock
	Logger *zap.Logger
}

// Scheduler runs a RunFunc from a single goroutine, so runs never overlap.
// Ticks or triggers that arrive during a run collapse into at most one
// pending run.
type Scheduler struct {
	cfg     Config
	run     RunFunc
	logger  *zap.Logger
	trigger chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu        sync.Mutex
	started   bool
	stopOnce  sync.Once
	lastStart time.Time
	runs      int
}

// New constructs a Scheduler. Non-positive intervals use DefaultInterval.
func New(cfg Config, run RunFunc) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = NewTimeTicker
	}
	if cfg.Clock == nil {
		cfg.Clock = system.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:     cfg,
		run:     run,
		logger:  logger,
		trigger: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start launches the scheduling loop and returns immediately. The loop ends
// when ctx is canceled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true
	go s.loop(ctx)
	return nil
}

// Trigger requests an out-of-band run. It reports false when a run is
// already pending.
func (s *Scheduler) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop ends the loop and waits for any in-flight run to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.doneCh
	}
}

// Runs reports how many runs have started and when the last began.
func (s *Scheduler) Runs() (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.lastStart
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := s.cfg.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", zap.Duration("interval", s.cfg.Interval))
	if !s.cfg.SkipInitialRun {
		s.runOnce(ctx, "startup")
	}
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopping", zap.Error(ctx.Err()))
			return
		case <-s.stopCh:
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C():
			s.runOnce(ctx, "interval")
		case <-s.trigger:
			s.runOnce(ctx, "manual")
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.runs++
	s.lastStart = s.cfg.Clock.Now()
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled run panicked", zap.String("reason", reason), zap.Any("panic", r))
		}
	}()
	s.logger.Info("scheduled run starting", zap.String("reason", reason))
	s.run(ctx)
}
