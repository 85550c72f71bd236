package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/events"
	"github.com/spec-kit/storefront-auth/internal/service"
)

func TestNotificationWorker_DeliversQueuedEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	notifier := service.NewNotificationService(zap.New(core), config.NotificationConfig{})
	dispatcher := events.NewInMemoryDispatcher()

	w := StartNotificationWorker(dispatcher, notifier, zap.NewNop(), 2, 8)
	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventAccountRegistered, AccountID: "a"}))
	require.NoError(t, dispatcher.Publish(ctx, events.Event{Type: events.EventPasswordChanged, AccountID: "b"}))
	w.Stop()
	w.Stop()

	assert.Equal(t, 1, logs.FilterMessage("AccountRegistered").Len())
	assert.Equal(t, 1, logs.FilterMessage("PasswordChanged").Len())
}

func TestNotificationWorker_DropsWhenFull(t *testing.T) {
	core, warnings := observer.New(zap.WarnLevel)
	notifier := service.NewNotificationService(zap.NewNop(), config.NotificationConfig{})
	dispatcher := events.NewInMemoryDispatcher()

	// No buffer and a single worker that is not yet draining: the publish
	// either hands off or drops, but never blocks.
	w := &NotificationWorker{notifier: notifier, logger: zap.New(core), queue: make(chan events.Event)}
	dispatcher.Subscribe(events.EventPasswordChanged, w.enqueue)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventPasswordChanged, AccountID: "c"}))
	assert.Equal(t, 1, warnings.FilterMessage("notification queue full; dropping event").Len())
}
