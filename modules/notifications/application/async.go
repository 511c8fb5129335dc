package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
)

var (
	// ErrDispatcherClosed is returned by Submit after Close.
	ErrDispatcherClosed = errors.New("async dispatcher closed")
	// ErrDispatchQueueFull is returned by Submit when every queue slot is taken.
	ErrDispatchQueueFull = errors.New("dispatch queue full")
)

// AsyncDispatcher decouples dispatch from the order commit: Submit hands the
// event to a bounded queue drained by a fixed pool of workers.
type AsyncDispatcher struct {
	dispatcher *Dispatcher
	queue      chan contracts.TransitionCompletedEvent
	workers    int
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
	group  *errgroup.Group
}

// NewAsyncDispatcher defaults to 4 workers and a queue of 256 events.
func NewAsyncDispatcher(d *Dispatcher, workers, queueSize int, logger *slog.Logger) *AsyncDispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncDispatcher{
		dispatcher: d,
		queue:      make(chan contracts.TransitionCompletedEvent, queueSize),
		workers:    workers,
		logger:     logger,
	}
}

// Start launches the workers. They stop when Close drains the queue.
func (a *AsyncDispatcher) Start(ctx context.Context) {
	g := &errgroup.Group{}
	for range a.workers {
		g.Go(func() error {
			for evt := range a.queue {
				// Dispatch outlives the request that committed the transition
				report, err := a.dispatcher.Dispatch(context.WithoutCancel(ctx), evt)
				if err != nil {
					a.logger.Error("dispatching notifications",
						slog.String("order_id", evt.OrderID),
						slog.String("target", evt.To),
						slog.Any("error", err),
					)
					continue
				}
				a.logger.Debug("notifications dispatched",
					slog.String("order_id", evt.OrderID),
					slog.String("target", evt.To),
					slog.Int("queued", report.Queued),
					slog.Int("skipped", report.Skipped),
					slog.Int("failed", report.Failed),
				)
			}
			return nil
		})
	}
	a.group = g
}

// Submit queues the event and returns without waiting for a worker. A full
// queue drops the event, counted as a failed notification for its target.
func (a *AsyncDispatcher) Submit(ctx context.Context, evt contracts.TransitionCompletedEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrDispatcherClosed
	}
	select {
	case a.queue <- evt:
		return nil
	default:
		a.dispatcher.recorder.NotificationFailed(evt.To, "queue_full")
		a.logger.WarnContext(ctx, "notification dropped: dispatch queue full",
			slog.String("order_id", evt.OrderID),
			slog.String("target", evt.To),
			slog.Int("capacity", cap(a.queue)),
		)
		return ErrDispatchQueueFull
	}
}

// Close stops accepting events and waits until queued ones are dispatched.
func (a *AsyncDispatcher) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	if a.group == nil {
		return nil
	}
	return a.group.Wait()
}
