package events

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans account events out to their subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type inMemoryDispatcher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher that delivers on the caller's
// goroutine.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		subscribers: make(map[EventType][]EventHandler),
	}
}

// Publish stamps event with an ID and timestamp when it has none and hands it
// to each subscriber of its type in subscription order. A failing or panicking
// subscriber does not stop the rest; failures come back joined. Delivery stops
// once ctx is done.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	d.mu.RLock()
	subscribers := slices.Clone(d.subscribers[event.Type])
	d.mu.RUnlock()

	var errs []error
	for _, handler := range subscribers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := deliver(ctx, handler, event); err != nil {
			errs = append(errs, fmt.Errorf("%s subscriber: %w", event.Type, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[eventType] = append(d.subscribers[eventType], handler)
}

func deliver(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handler(ctx, event)
}
