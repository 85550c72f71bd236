package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/service"
)

// NotificationWorker moves notification delivery off the request path. It
// subscribes to account events, queues them and delivers them from a fixed set
// of goroutines.
type NotificationWorker struct {
	notifier *service.NotificationService
	logger   *zap.Logger
	queue    chan events.Event
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// StartNotificationWorker subscribes to dispatcher and starts workers
// goroutines draining a queue of size buffer. Call Stop to drain and exit.
func StartNotificationWorker(dispatcher events.Dispatcher, notifier *service.NotificationService, logger *zap.Logger, workers, buffer int) *NotificationWorker {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	w := &NotificationWorker{
		notifier: notifier,
		logger:   logger,
		queue:    make(chan events.Event, buffer),
	}
	for _, eventType := range notifier.EventTypes() {
		dispatcher.Subscribe(eventType, w.enqueue)
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
	return w
}

// enqueue hands the event to the workers. A full queue drops the event rather
// than stall the request that published it.
func (w *NotificationWorker) enqueue(ctx context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	case <-ctx.Done():
		return ctx.Err()
	default:
		w.logger.Warn("notification queue full; dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("account_id", event.AccountID))
	}
	return nil
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for event := range w.queue {
		if err := w.notifier.Handle(context.Background(), event); err != nil {
			w.logger.Error("notification delivery failed",
				zap.String("event_type", string(event.Type)),
				zap.String("account_id", event.AccountID),
				zap.Error(err))
		}
	}
}

// Stop closes the queue and waits for queued events to be delivered. Events
// published after Stop fail, so stop the HTTP server first.
func (w *NotificationWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.queue)
		w.wg.Wait()
	})
}
