// Package poller keeps a local cache converged with an authoritative source
// by fetching it on a fixed interval.
package poller

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultInterval = 3 * time.Second

// State is the lifecycle state of a Poller.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
)

// FetchFunc reads the authoritative state.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Status is a point-in-time view of a Poller.
type Status struct {
	State      State     `json:"state"`
	Polling    bool      `json:"polling"`
	HasCache   bool      `json:"has_cache"`
	LastFetch  time.Time `json:"last_fetch"`
	LastChange time.Time `json:"last_change"`
	LastErr    string    `json:"last_error,omitempty"`
}

// Poller fetches on an interval, replaces its cache only when the fetched
// value differs structurally from the cached one, and signals each change
// once. At most one fetch is in flight at a time. After Stop or Pause
// returns, no in-flight or scheduled fetch mutates the cache.
type Poller[T any] struct {
	fetch    FetchFunc[T]
	interval time.Duration
	equal    func(a, b T) bool
	onChange func(ctx context.Context, value T)
	name     string
	logger   logger.Logger
	tracer   trace.Tracer

	inFlight atomic.Bool

	mu         sync.Mutex
	state      State
	gen        uint64
	settledGen uint64
	runCtx     context.Context //nolint:containedctx // parent of catch-up fetches
	cancel     context.CancelFunc
	loopDone   chan struct{}
	cache      T
	hasCache   bool
	lastFetch  time.Time
	lastChange time.Time
	lastErr    error
}

// New creates an idle Poller. A non-positive interval uses the default.
func New[T any](fetch FetchFunc[T], interval time.Duration, opts ...Option[T]) *Poller[T] {
	if interval <= 0 {
		interval = defaultInterval
	}
	p := &Poller[T]{
		fetch:    fetch,
		interval: interval,
		equal:    func(a, b T) bool { return reflect.DeepEqual(a, b) },
		name:     "poller",
		logger:   logger.Discard(),
		tracer:   otel.Tracer("consistency-poller"),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins polling with one immediate fetch. Starting a running poller
// is a no-op; a stopped poller cannot be restarted.
func (p *Poller[T]) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateStopped:
		return ErrStopped
	case StateRunning:
		return nil
	}
	p.runLocked(ctx)
	return nil
}

// runLocked starts the tick loop. Caller holds p.mu.
func (p *Poller[T]) runLocked(parent context.Context) {
	p.state = StateRunning
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithCancel(parent)
	p.runCtx = ctx
	p.cancel = cancel
	done := make(chan struct{})
	p.loopDone = done

	go p.loop(ctx, gen, done)
}

func (p *Poller[T]) loop(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)
	go p.cycle(ctx, gen) //nolint:errcheck // errors are recorded in status

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go p.cycle(ctx, gen) //nolint:errcheck // errors are recorded in status
		}
	}
}

// halt cancels the loop and waits for it. It must not be called with p.mu held.
func (p *Poller[T]) halt(cancel context.CancelFunc, done chan struct{}) {
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Pause suspends polling. Results of fetches already in flight are discarded.
func (p *Poller[T]) Pause() {
	p.mu.Lock()
	if p.state != StateRunning {
		p.mu.Unlock()
		return
	}
	p.state = StatePaused
	p.gen++
	cancel, done := p.cancel, p.loopDone
	p.cancel, p.loopDone = nil, nil
	p.mu.Unlock()

	p.halt(cancel, done)
}

// Resume restarts a paused poller with one immediate fetch.
func (p *Poller[T]) Resume(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateStopped:
		return ErrStopped
	case StateRunning:
		return nil
	}
	p.runLocked(ctx)
	return nil
}

// SetVisible pauses when the consumer is hidden and resumes when it is shown.
func (p *Poller[T]) SetVisible(ctx context.Context, visible bool) error {
	if visible {
		return p.Resume(ctx)
	}
	p.Pause()
	return nil
}

// Stop ends polling for good. When Stop returns, nothing will change the
// cache again.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		return
	}
	p.state = StateStopped
	p.gen++
	cancel, done := p.cancel, p.loopDone
	p.cancel, p.loopDone = nil, nil
	p.mu.Unlock()

	p.halt(cancel, done)
}

// Refresh fetches once now, outside the interval. It returns ErrInFlight if
// a fetch is already running and ErrStopped after Stop.
func (p *Poller[T]) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		return ErrStopped
	}
	gen := p.gen
	p.mu.Unlock()
	return p.cycle(ctx, gen)
}

func (p *Poller[T]) cycle(ctx context.Context, gen uint64) error {
	if !p.inFlight.CompareAndSwap(false, true) {
		metrics.RecordPollSkipped()
		return ErrInFlight
	}
	err := p.fetchAndApply(ctx, gen)
	p.inFlight.Store(false)
	if errors.Is(err, ErrStale) {
		p.catchUp()
	}
	return err
}

// catchUp fetches for the current generation when a discarded fetch held
// the in-flight slot and that generation has not completed a fetch yet,
// e.g. a Resume whose immediate fetch was skipped.
func (p *Poller[T]) catchUp() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateRunning || p.settledGen == p.gen {
		return
	}
	go p.cycle(p.runCtx, p.gen) //nolint:errcheck // errors are recorded in status
}

func (p *Poller[T]) fetchAndApply(ctx context.Context, gen uint64) error {
	metrics.RecordPollCycle()
	ctx, span := p.tracer.Start(ctx, "Poller.cycle", trace.WithAttributes(attribute.String("poller", p.name)))
	defer span.End()

	value, err := p.fetch(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.state == StateStopped {
		span.SetAttributes(attribute.Bool("discarded", true))
		return ErrStale
	}
	p.settledGen = gen
	now := time.Now()
	if err != nil {
		p.lastErr = err
		metrics.RecordPollError()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error(ctx, "poll fetch failed", logger.String("poller", p.name), logger.Error(err))
		return err
	}
	p.lastErr = nil
	p.lastFetch = now
	if p.hasCache && p.equal(p.cache, value) {
		return nil
	}
	p.cache = value
	p.hasCache = true
	p.lastChange = now
	metrics.RecordPollChange()
	span.SetAttributes(attribute.Bool("changed", true))
	p.logger.Debug(ctx, "poll observed change", logger.String("poller", p.name))
	if p.onChange != nil {
		p.onChange(ctx, value)
	}
	return nil
}

// Cache returns the last successfully fetched value.
func (p *Poller[T]) Cache() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache, p.hasCache
}

// Status reports the poller's state.
func (p *Poller[T]) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Status{
		State:      p.state,
		Polling:    p.state == StateRunning,
		HasCache:   p.hasCache,
		LastFetch:  p.lastFetch,
		LastChange: p.lastChange,
	}
	if p.lastErr != nil {
		s.LastErr = p.lastErr.Error()
	}
	return s
}
