package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/internal/infrastructure/outbox"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	RedisOnline() bool
}

// RawPublisher sends encoded change messages.
type RawPublisher interface {
	PublishRaw(ctx context.Context, payload []byte) error
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// OutboxProcessor replays queued change messages once the bus is reachable.
type OutboxProcessor struct {
	store   *outbox.Store
	monitor ConnectionHealth
	bus     RawPublisher
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewOutboxProcessor(
	store *outbox.Store,
	monitor ConnectionHealth,
	bus RawPublisher,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *OutboxProcessor {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	op := &OutboxProcessor{
		store:   store,
		monitor: monitor,
		bus:     bus,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = op.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := op.Drain(ctx); err != nil {
			op.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = op.cron.AddFunc("@every 1h", func() {
		if _, err := op.Cleanup(time.Now()); err != nil {
			op.logger.Error("outbox cleanup failed", zap.Error(err))
		}
	})

	return op
}

// Start launches the cron scheduler.
func (op *OutboxProcessor) Start() {
	if op == nil || op.cron == nil {
		return
	}
	op.cron.Start()
	op.logger.Info("outbox processor started")
}

// Stop gracefully stops the scheduler.
func (op *OutboxProcessor) Stop(ctx context.Context) {
	if op == nil || op.cron == nil {
		return
	}
	stopCtx := op.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	op.logger.Info("outbox processor stopped")
}

// Drain publishes queued messages oldest first. It stops at the first failure
// so later changes never overtake earlier ones.
func (op *OutboxProcessor) Drain(ctx context.Context) error {
	if op == nil || op.store == nil || op.bus == nil {
		return nil
	}
	if op.monitor != nil && !op.monitor.RedisOnline() {
		op.logger.Debug("skipping outbox drain (redis offline)")
		return nil
	}

	msgs, err := op.store.Peek(op.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, msg := range msgs {
		if err := op.bus.PublishRaw(ctx, msg.Payload); err != nil {
			op.logger.Error("failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.String("item_id", msg.ItemID),
				zap.Error(err))

			msg.Retries++
			if msg.Retries >= op.cfg.MaxRetries {
				op.logger.Warn("dropping outbox message (max retries reached)", zap.String("message_id", msg.ID))
				_ = op.store.Remove(msg)
				continue
			}
			if err := op.store.Update(msg); err != nil {
				op.logger.Error("failed to update outbox message", zap.Error(err))
			}
			return nil
		}

		if err := op.store.Remove(msg); err != nil {
			op.logger.Warn("failed to purge published outbox message", zap.Error(err))
		}
	}
	return nil
}

// Cleanup drops messages older than the retention window.
func (op *OutboxProcessor) Cleanup(now time.Time) (int, error) {
	if op == nil || op.store == nil {
		return 0, nil
	}
	removed, err := op.store.Cleanup(now.Add(-op.cfg.Retention))
	if removed > 0 {
		op.logger.Warn("expired outbox messages dropped", zap.Int("count", removed))
	}
	return removed, err
}

// Size returns the number of queued messages.
func (op *OutboxProcessor) Size() int {
	if op == nil || op.store == nil {
		return 0
	}
	size, err := op.store.Size()
	if err != nil {
		return 0
	}
	return size
}
