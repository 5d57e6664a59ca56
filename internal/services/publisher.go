package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/roadmap/internal/infrastructure/outbox"
	"github.com/fastygo/roadmap/internal/realtime"
	"github.com/fastygo/roadmap/usecase"
)

// ChangePublisher publishes directly when the bus is up and the outbox is
// empty; otherwise the message is queued behind earlier ones.
type ChangePublisher struct {
	processor *OutboxProcessor
}

func NewChangePublisher(processor *OutboxProcessor) *ChangePublisher {
	return &ChangePublisher{processor: processor}
}

func (p *ChangePublisher) PublishChange(ctx context.Context, change realtime.Change) {
	op := p.processor
	if op == nil {
		return
	}
	payload, err := realtime.Encode(change)
	if err != nil {
		op.logger.Warn("refusing to publish malformed change", zap.String("item_id", change.ID), zap.Error(err))
		return
	}

	online := op.monitor == nil || op.monitor.RedisOnline()
	if online && op.bus != nil && op.Size() == 0 {
		err := op.bus.PublishRaw(ctx, payload)
		if err == nil {
			return
		}
		op.logger.Warn("change publish failed, queueing", zap.String("item_id", change.ID), zap.Error(err))
	}

	msg := outbox.Message{
		ItemID:  change.ID,
		Kind:    string(change.Type),
		Payload: payload,
	}
	if err := op.store.Enqueue(msg); err != nil {
		op.logger.Error("failed to queue change", zap.String("item_id", change.ID), zap.Error(err))
	}
}

var _ usecase.ChangePublisher = (*ChangePublisher)(nil)

// ChangeSender is the publishing half of repository.ChangeBus.
type ChangeSender interface {
	Publish(ctx context.Context, change realtime.Change) error
}

// DirectPublisher sends changes straight to the bus and only logs failures.
// The CLI uses it because it does not own the server's outbox file.
type DirectPublisher struct {
	bus    ChangeSender
	logger *zap.Logger
}

func NewDirectPublisher(bus ChangeSender, logger *zap.Logger) *DirectPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectPublisher{bus: bus, logger: logger}
}

func (p *DirectPublisher) PublishChange(ctx context.Context, change realtime.Change) {
	if p.bus == nil {
		return
	}
	if err := p.bus.Publish(ctx, change); err != nil {
		p.logger.Warn("change publish failed", zap.String("item_id", change.ID), zap.Error(err))
	}
}

var _ usecase.ChangePublisher = (*DirectPublisher)(nil)
