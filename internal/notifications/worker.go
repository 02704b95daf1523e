package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// WorkerConfig contains worker configuration.
type WorkerConfig struct {
	BatchSize         int
	PollInterval      time.Duration
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	NumWorkers        int
	// StaleAfter is how long an item may stay processing before it is requeued.
	StaleAfter time.Duration
}

// DefaultWorkerConfig returns default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:         100,
		PollInterval:      5 * time.Second,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        5 * time.Minute,
		BackoffMultiplier: 2.0,
		NumWorkers:        5,
		StaleAfter:        10 * time.Minute,
	}
}

// Worker processes notifications from the queue.
type Worker struct {
	config   WorkerConfig
	repo     Repository
	sender   Sender
	renderer *Renderer

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWorker creates a new notification worker.
func NewWorker(config WorkerConfig, repo Repository, sender Sender, renderer *Renderer) *Worker {
	return &Worker{
		config:   config,
		repo:     repo,
		sender:   sender,
		renderer: renderer,
		stopCh:   make(chan struct{}),
	}
}

// Start launches worker goroutines and the queue maintenance loop.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("starting notification worker",
		"workers", w.config.NumWorkers,
		"batch_size", w.config.BatchSize,
		"poll_interval", w.config.PollInterval,
	)

	for i := 0; i < w.config.NumWorkers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}

	w.wg.Add(1)
	go w.maintain(ctx)
}

// Stop signals all goroutines and waits for them. Repeated calls are no-ops.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		slog.Info("notification worker stopped")
	})
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.ProcessBatch(ctx, workerID)
		}
	}
}

// maintain requeues stale items and refreshes queue gauges.
func (w *Worker) maintain(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval * 6)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			if n, err := w.repo.RequeueStale(ctx, w.config.StaleAfter); err != nil {
				slog.Error("failed to requeue stale notifications", "error", err)
			} else if n > 0 {
				slog.Warn("requeued stale notifications", "count", n)
			}

			stats, err := w.repo.GetQueueStats(ctx)
			if err != nil {
				slog.Error("failed to collect queue stats", "error", err)
				continue
			}
			RecordQueueStats(stats)
		}
	}
}

// ProcessBatch claims one batch of due notifications and delivers them.
func (w *Worker) ProcessBatch(ctx context.Context, workerID int) {
	items, err := w.repo.FetchPendingNotifications(ctx, w.config.BatchSize)
	if err != nil {
		slog.Error("failed to fetch pending notifications", "worker", workerID, "error", err)
		return
	}

	if len(items) == 0 {
		return
	}

	slog.Debug("processing notifications", "worker", workerID, "count", len(items))
	recordQueueProcessed(len(items))

	for _, item := range items {
		w.processItem(ctx, item)
	}
}

func (w *Worker) processItem(ctx context.Context, item *QueueItem) {
	logger := slog.With("item_id", item.ID, "message_type", item.MessageType)
	channel := w.sender.Type()

	subject, body, err := w.renderer.Render(item.MessageType, item.Payload)
	if err != nil {
		w.fail(ctx, logger, item, channel, fmt.Errorf("render: %w", err))
		return
	}

	start := time.Now()
	err = w.sender.Send(ctx, Notification{To: item.Recipient, Subject: subject, Body: body})
	recordNotificationDuration(channel, time.Since(start))
	if err != nil {
		w.retryOrFail(ctx, logger, item, channel, err)
		return
	}

	if err := w.repo.MarkAsSent(ctx, item.ID); err != nil {
		logger.Error("failed to mark as sent", "error", err)
	}
	recordNotificationSent(channel, "success")
	logger.Debug("notification sent", "attempt", item.Attempt())
}

func (w *Worker) retryOrFail(ctx context.Context, logger *slog.Logger, item *QueueItem, channel string, err error) {
	logger.Warn("send failed",
		"attempt", item.Attempt(),
		"max_attempts", item.MaxAttempts,
		"error", err,
	)

	switch {
	case !isRetryable(err):
		w.fail(ctx, logger, item, channel, err)
	case item.LastAttempt():
		w.fail(ctx, logger, item, channel, fmt.Errorf("max attempts exceeded: %w", err))
	default:
		next := time.Now().Add(w.backoff(item.Attempt()))
		if markErr := w.repo.MarkForRetry(ctx, item.ID, err, next); markErr != nil {
			logger.Error("failed to mark for retry", "error", markErr)
		}
		recordNotificationSent(channel, "retry")
		logger.Info("notification scheduled for retry", "next_attempt", next)
	}
}

func (w *Worker) fail(ctx context.Context, logger *slog.Logger, item *QueueItem, channel string, err error) {
	if markErr := w.repo.MarkAsFailed(ctx, item.ID, err); markErr != nil {
		logger.Error("failed to mark as failed", "error", markErr)
	}
	recordNotificationSent(channel, "failed")
}

// backoff is the delay after the given failed attempt, capped at MaxBackoff.
func (w *Worker) backoff(attempt int) time.Duration {
	d := float64(w.config.InitialBackoff) * math.Pow(w.config.BackoffMultiplier, float64(attempt-1))
	if d > float64(w.config.MaxBackoff) {
		return w.config.MaxBackoff
	}
	return time.Duration(d)
}
