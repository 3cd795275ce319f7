package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/mergebot/common/logger"
	"basegraph.app/mergebot/internal/event"
	"basegraph.app/mergebot/internal/queue"
)

// Consumer is the subset of queue.RedisConsumer the worker drives.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
	Reclaim(ctx context.Context, minIdle time.Duration, count int64) ([]queue.Message, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev event.Event) error
}

type Config struct {
	MaxAttempts     int
	RefreshInterval time.Duration // zero disables periodic Refresh events
	ReclaimInterval time.Duration // zero disables reclaiming
	ReclaimMinIdle  time.Duration
	ReclaimBatch    int64
	ErrorBackoff    time.Duration
	NewID           func() int64 // delivery ids for locally generated Refresh events
}

type Worker struct {
	consumer   Consumer
	dispatcher Dispatcher
	cfg        Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, dispatcher Dispatcher, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.ReclaimBatch <= 0 {
		cfg.ReclaimBatch = 10
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = time.Second
	}
	return &Worker{
		consumer:   consumer,
		dispatcher: dispatcher,
		cfg:        cfg,
		stopCh:     make(chan struct{}),
		stoppedCh:  make(chan struct{}),
	}
}

// Run consumes the stream until ctx is cancelled or Stop is called.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "mergebot.worker"})
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-w.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	tickersDone := make(chan struct{})
	go func() {
		defer close(tickersDone)
		w.runTickers(ctx)
	}()
	defer func() { <-tickersDone }()

	slog.InfoContext(ctx, "worker started", "max_attempts", w.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
		}

		messages, err := w.consumer.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			slog.ErrorContext(ctx, "reading from stream failed", "error", err)
			w.sleep(ctx, w.cfg.ErrorBackoff)
			continue
		}

		for _, msg := range messages {
			w.HandleMessage(ctx, msg)
		}
	}
}

// Stop asks Run to return and waits for it.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

// HandleMessage dispatches one delivery and settles it: ack on success,
// requeue while attempts remain, dead-letter otherwise.
func (w *Worker) HandleMessage(ctx context.Context, msg queue.Message) {
	span := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.handle_message")
	defer span.End()

	ctx = logger.WithLogFields(span.Context(), logger.LogFields{
		MessageID:  logger.Ptr(msg.ID),
		DeliveryID: logger.Ptr(msg.DeliveryID),
	})

	start := time.Now()
	err := w.dispatchSafe(ctx, msg.Event)
	if err == nil {
		if ackErr := w.consumer.Ack(ctx, msg); ackErr != nil {
			slog.WarnContext(ctx, "failed to ack message", "error", ackErr)
		}
		slog.DebugContext(ctx, "message processed", "duration_ms", time.Since(start).Milliseconds())
		return
	}

	span.RecordError(err)
	if msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "max attempts reached, sending to DLQ", "error", err, "attempt", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message", "error", err, "attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}

func (w *Worker) dispatchSafe(ctx context.Context, ev event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in event dispatch", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.dispatcher.Dispatch(ctx, ev)
}

func (w *Worker) runTickers(ctx context.Context) {
	refresh := tickerC(w.cfg.RefreshInterval)
	reclaim := tickerC(w.cfg.ReclaimInterval)
	defer refresh.stop()
	defer reclaim.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh.c:
			w.refresh(ctx)
		case <-reclaim.c:
			w.reclaimOnce(ctx)
		}
	}
}

// refresh dispatches a Refresh event that never went through the queue.
// It still gets a delivery id so its logs correlate like queued events.
func (w *Worker) refresh(ctx context.Context) {
	if w.cfg.NewID != nil {
		ctx = logger.WithLogFields(ctx, logger.LogFields{DeliveryID: logger.Ptr(w.cfg.NewID())})
	}
	if err := w.dispatchSafe(ctx, event.Refresh{}); err != nil {
		slog.ErrorContext(ctx, "refresh failed", "error", err)
	}
}

func (w *Worker) reclaimOnce(ctx context.Context) {
	messages, err := w.consumer.Reclaim(ctx, w.cfg.ReclaimMinIdle, w.cfg.ReclaimBatch)
	if err != nil {
		slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
		return
	}
	for _, msg := range messages {
		w.HandleMessage(ctx, msg)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

type optionalTicker struct {
	c      <-chan time.Time
	ticker *time.Ticker
}

// tickerC returns a ticker whose channel never fires when d is not positive.
func tickerC(d time.Duration) optionalTicker {
	if d <= 0 {
		return optionalTicker{}
	}
	t := time.NewTicker(d)
	return optionalTicker{c: t.C, ticker: t}
}

func (t optionalTicker) stop() {
	if t.ticker != nil {
		t.ticker.Stop()
	}
}
