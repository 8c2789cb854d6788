package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"

	"github.com/okian/podium/internal/domain/model"
	"github.com/okian/podium/pkg/logger"
	"github.com/okian/podium/pkg/metrics"
)

// RedisBus carries notifications as JSON over a Redis pub/sub channel so that
// every instance sharing the store hears every change.
type RedisBus struct {
	client redis.UniversalClient
	opts   options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewRedisBus wraps an existing client.
func NewRedisBus(client redis.UniversalClient, opts ...Option) (*RedisBus, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBus{client: client, opts: newOptions(opts), ctx: ctx, cancel: cancel}, nil
}

func (b *RedisBus) Publish(ctx context.Context, n model.Notification) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return ErrClosed
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := b.client.Publish(ctx, b.opts.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis channel %s: %w", b.opts.channel, err)
	}
	metrics.RecordNotificationPublished()
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan model.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	ps := b.client.Subscribe(b.ctx, b.opts.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to redis channel %s: %w", b.opts.channel, err)
	}

	out := make(chan model.Notification, b.opts.bufferSize)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(out)
		defer ps.Close()

		in := ps.Channel()
		for {
			select {
			case msg, ok := <-in:
				if !ok {
					return
				}
				var n model.Notification
				if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
					b.opts.logger.Warn(ctx, "dropping malformed notification",
						logger.String("channel", msg.Channel), logger.Error(err))
					continue
				}
				select {
				case out <- n:
				default:
					metrics.RecordNotificationDropped()
				}
			case <-ctx.Done():
				return
			case <-b.ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return nil
}
