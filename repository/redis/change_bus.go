package redis

import (
	"context"
	"errors"
	"sync"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/internal/realtime"
	"github.com/fastygo/roadmap/repository"
)

// DefaultChannel carries roadmap_items changes.
const DefaultChannel = "roadmap_items"

// ChangeBus publishes realtime changes over Redis pub/sub.
type ChangeBus struct {
	client  *redislib.Client
	channel string
	buffer  int
	logger  *zap.Logger
}

var _ repository.ChangeBus = (*ChangeBus)(nil)

// NewChangeBus creates a Redis-backed change bus.
func NewChangeBus(client *redislib.Client, channel string, logger *zap.Logger) *ChangeBus {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChangeBus{
		client:  client,
		channel: channel,
		buffer:  64,
		logger:  logger,
	}
}

// Channel returns the pub/sub channel name.
func (b *ChangeBus) Channel() string {
	return b.channel
}

func (b *ChangeBus) Publish(ctx context.Context, change realtime.Change) error {
	payload, err := realtime.Encode(change)
	if err != nil {
		return err
	}
	return b.PublishRaw(ctx, payload)
}

// PublishRaw sends an already encoded message.
func (b *ChangeBus) PublishRaw(ctx context.Context, payload []byte) error {
	if b == nil || b.client == nil {
		return errors.New("change bus not configured")
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *ChangeBus) Subscribe(ctx context.Context) (<-chan []byte, func() error, error) {
	if b == nil || b.client == nil {
		return nil, nil, errors.New("change bus not configured")
	}

	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan []byte, b.buffer)
	var once sync.Once
	var closeErr error
	closeFn := func() error {
		once.Do(func() { closeErr = pubsub.Close() })
		return closeErr
	}

	go func() {
		defer close(out)
		defer closeFn()
		in := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	b.logger.Info("subscribed to change bus", zap.String("channel", b.channel))
	return out, closeFn, nil
}
