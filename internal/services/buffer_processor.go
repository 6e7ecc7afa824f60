package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/infrastructure/buffer"
	"github.com/fastygo/accounts/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained and how long
// items are kept.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

var errUnprocessable = errors.New("unprocessable buffer item")

// BufferProcessor replays buffered login activities into the primary store.
// Appends are idempotent on the activity id, so an item replayed after a
// partial failure is stored once.
type BufferProcessor struct {
	store      *buffer.Store
	monitor    ConnectionHealth
	activities repository.LoginActivityRepository
	logger     *zap.Logger
	cron       *cron.Cron
	cfg        ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	activities repository.LoginActivityRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
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

	bp := &BufferProcessor{
		store:      store,
		monitor:    monitor,
		activities: activities,
		logger:     logger.Named("buffer"),
		cfg:        cfg,
		cron:       cron.New(cron.WithSeconds()),
	}

	drainSchedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := bp.cron.AddFunc(drainSchedule, bp.drainJob); err != nil {
		bp.logger.Error("failed to schedule buffer drain", zap.Error(err))
	}
	if _, err := bp.cron.AddFunc("@hourly", bp.cleanupJob); err != nil {
		bp.logger.Error("failed to schedule buffer cleanup", zap.Error(err))
	}

	return bp
}

// Start launches the cron scheduler.
func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (bp *BufferProcessor) Stop(ctx context.Context) error {
	if bp == nil || bp.cron == nil {
		return nil
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	bp.logger.Info("buffer processor stopped")
	return nil
}

// Drain replays one batch and returns how many items reached the store.
func (bp *BufferProcessor) Drain(ctx context.Context) (int, error) {
	if bp == nil || bp.store == nil {
		return 0, nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return 0, nil
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	var replayed int
	for _, item := range items {
		if err := bp.processItem(ctx, item); err != nil {
			bp.handleFailure(item, err)
			continue
		}
		replayed++
		if err := bp.store.Remove(item); err != nil {
			bp.logger.Warn("failed to purge processed buffer item", zap.String("item_id", item.ID), zap.Error(err))
		}
	}
	if replayed > 0 {
		bp.logger.Info("buffered login activities replayed", zap.Int("count", replayed))
	}
	return replayed, nil
}

// Enqueue persists an item for later replay.
func (bp *BufferProcessor) Enqueue(item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}
	return bp.store.Enqueue(item)
}

// Cleanup drops items older than the retention window.
func (bp *BufferProcessor) Cleanup(now time.Time) (int, error) {
	if bp == nil || bp.store == nil {
		return 0, nil
	}
	return bp.store.Cleanup(now.Add(-bp.cfg.Retention))
}

// Size returns the number of buffered items.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) drainJob() {
	ctx, cancel := context.WithTimeout(context.Background(), bp.cfg.Interval)
	defer cancel()
	if _, err := bp.Drain(ctx); err != nil {
		bp.logger.Error("buffer drain failed", zap.Error(err))
	}
}

func (bp *BufferProcessor) cleanupJob() {
	removed, err := bp.Cleanup(time.Now())
	if err != nil {
		bp.logger.Error("buffer cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		bp.logger.Warn("expired buffer items dropped", zap.Int("count", removed))
	}
}

func (bp *BufferProcessor) handleFailure(item buffer.Item, err error) {
	logger := bp.logger.With(
		zap.String("item_id", item.ID),
		zap.String("entity", item.Entity),
		zap.Int("retries", item.Retries),
		zap.Error(err))

	if errors.Is(err, errUnprocessable) || item.Retries+1 >= bp.cfg.MaxRetries {
		logger.Error("dropping buffer item")
		if rmErr := bp.store.Remove(item); rmErr != nil {
			logger.Warn("failed to remove buffer item", zap.NamedError("remove_error", rmErr))
		}
		return
	}

	logger.Warn("failed to replay buffer item, requeueing")
	if rqErr := bp.store.Requeue(item); rqErr != nil {
		logger.Error("failed to requeue buffer item", zap.NamedError("requeue_error", rqErr))
	}
}

func (bp *BufferProcessor) processItem(ctx context.Context, item buffer.Item) error {
	if ctx == nil {
		ctx = context.Background()
	}

	switch item.Entity {
	case buffer.EntityLoginActivity:
		if item.Operation != buffer.OperationAppend {
			return fmt.Errorf("%w: operation %s", errUnprocessable, item.Operation)
		}
		var activity domain.LoginActivity
		if err := item.Decode(&activity); err != nil {
			return fmt.Errorf("%w: %v", errUnprocessable, err)
		}
		if activity.ID == "" {
			activity.ID = item.ID
		}
		return bp.activities.Append(ctx, &activity)
	default:
		return fmt.Errorf("%w: entity %s", errUnprocessable, item.Entity)
	}
}
