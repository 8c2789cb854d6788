package worker

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/podium/internal/domain/dedupe"
	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// Default listener configuration constants.
const (
	defaultWorkers       = 4
	shardBuffer          = 256
	listenerShutdownWait = 5 * time.Second
)

// Subscriber is where the listener reads notifications from.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan model.Notification, error)
}

// Handler applies a notification to local state.
type Handler interface {
	HandleNotification(ctx context.Context, n model.Notification) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, n model.Notification) error

// HandleNotification calls f.
func (f HandlerFunc) HandleNotification(ctx context.Context, n model.Notification) error {
	return f(ctx, n)
}

// Listener reads notifications, drops duplicates and dispatches the rest to
// a Handler through a fixed set of shards.
type Listener struct {
	bus     Subscriber
	handler Handler
	deduper dedupe.Deduper
	workers int
	name    string
	logger  logger.Logger

	mu       sync.Mutex
	running  bool
	shutdown chan struct{}
	done     chan struct{}
}

// NewListener creates a listener with configuration options.
func NewListener(bus Subscriber, handler Handler, opts ...Option) *Listener {
	l := &Listener{
		bus:      bus,
		handler:  handler,
		workers:  defaultWorkers,
		name:     "listener",
		logger:   logger.Discard(),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.deduper == nil {
		l.deduper = dedupe.NewInMemoryDeduper()
	}
	l.logger = l.logger.Named(l.name)
	return l
}

// Run subscribes and processes notifications until ctx is canceled, the
// subscription closes, or Shutdown is called.
func (l *Listener) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrRunning
	}
	l.running = true
	l.mu.Unlock()
	defer close(l.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in, err := l.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	shards := make([]chan model.Notification, l.workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range shards {
		shards[i] = make(chan model.Notification, shardBuffer)
		ch := shards[i]
		g.Go(func() error {
			for n := range ch {
				l.process(gctx, n)
			}
			return nil
		})
	}

	l.logger.Info(ctx, "listener started", logger.Int("workers", l.workers))
	l.dispatch(ctx, in, shards)
	for _, ch := range shards {
		close(ch)
	}
	return g.Wait()
}

func (l *Listener) dispatch(ctx context.Context, in <-chan model.Notification, shards []chan model.Notification) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.shutdown:
			return
		case n, ok := <-in:
			if !ok {
				return
			}
			select {
			case shards[shard(n, len(shards))] <- n:
			case <-ctx.Done():
				return
			}
		}
	}
}

// shard keeps notifications for one score tuple in order.
func shard(n model.Notification, count int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(n.CompetitionID + "|" + n.Segment + "|" + n.Contestant + "|" + n.Judge + "|" + n.Criterion))
	return int(h.Sum32() % uint32(count))
}

// process handles a single notification.
func (l *Listener) process(ctx context.Context, n model.Notification) {
	if n.ID != "" && l.deduper.SeenAndRecord(ctx, n.ID) {
		l.logger.Debug(ctx, "duplicate notification", logger.String("id", n.ID))
		return
	}
	if err := l.handler.HandleNotification(ctx, n); err != nil {
		if n.ID != "" {
			l.deduper.Unrecord(ctx, n.ID)
		}
		l.logger.Error(ctx, "notification handling failed",
			logger.String("id", n.ID),
			logger.String("competition", n.CompetitionID),
			logger.Error(err),
		)
		return
	}
	metrics.RecordNotificationConsumed()
}

// Shutdown stops the listener and waits for in-flight handlers.
func (l *Listener) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	running := l.running
	select {
	case <-l.shutdown:
	default:
		close(l.shutdown)
	}
	l.mu.Unlock()
	if !running {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, listenerShutdownWait)
	defer cancel()
	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		l.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
