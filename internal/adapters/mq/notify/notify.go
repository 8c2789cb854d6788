// Package notify carries score change notifications between instances.
//
// A notification only says that something changed; consumers re-read the
// authoritative store for the affected tuple.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/metrics"
)

// Default bus configuration.
const (
	defaultBufferSize = 1024
	DefaultChannel    = "podium:notifications"
)

// Bus publishes notifications and fans them out to subscribers.
type Bus interface {
	// Publish sends n to every subscriber.
	Publish(ctx context.Context, n model.Notification) error

	// Subscribe returns a channel of notifications. The channel is closed
	// when ctx is done or the bus is closed.
	Subscribe(ctx context.Context) (<-chan model.Notification, error)

	// Close stops the bus and closes every subscription.
	Close() error
}

// New builds a notification with a fresh ID.
func New(competitionID string, key model.ScoreKey, deleted bool) model.Notification {
	return model.Notification{
		ID:            uuid.NewString(),
		CompetitionID: competitionID,
		Segment:       key.Segment,
		Contestant:    key.Contestant,
		Judge:         key.Judge,
		Criterion:     key.Criterion,
		Deleted:       deleted,
		TS:            time.Now().UTC(),
	}
}

// InMemoryBus delivers notifications within one process. A subscriber whose
// buffer is full misses the notification.
type InMemoryBus struct {
	mu     sync.RWMutex
	subs   map[chan model.Notification]struct{}
	done   chan struct{}
	closed bool
	opts   options
}

// NewInMemoryBus creates a bus with bounded subscriber buffers.
func NewInMemoryBus(opts ...Option) *InMemoryBus {
	return &InMemoryBus{
		subs: make(map[chan model.Notification]struct{}),
		done: make(chan struct{}),
		opts: newOptions(opts),
	}
}

func (b *InMemoryBus) Publish(ctx context.Context, n model.Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	metrics.RecordNotificationPublished()
	for ch := range b.subs {
		select {
		case ch <- n:
		default:
			metrics.RecordNotificationDropped()
		}
	}
	return nil
}

func (b *InMemoryBus) Subscribe(ctx context.Context) (<-chan model.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	ch := make(chan model.Notification, b.opts.bufferSize)
	b.subs[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}()
	return ch, nil
}

func (b *InMemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
	return nil
}

// Subscribers returns the number of live subscriptions.
func (b *InMemoryBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
