package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/events"
)

func TestNotificationService_NeverLogsResetToken(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{EmailFrom: "shop@example.com"})

	err := n.Handle(context.Background(), events.Event{
		Type:      events.EventPasswordResetRequested,
		AccountID: "acc-1",
		Email:     "a@example.com",
		Payload:   events.PasswordResetRequestedPayload{Token: "secret.jwt.value", ExpiresAt: time.Now().Add(time.Hour)},
	})
	require.NoError(t, err)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "PasswordResetRequested", logs.All()[0].Message)
	assert.Equal(t, "password-reset", logs.All()[1].ContextMap()["template"])
	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			assert.NotEqual(t, "secret.jwt.value", v)
		}
	}
}

func TestNotificationService_IgnoresUnknownEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{})
	require.NoError(t, n.Handle(context.Background(), events.Event{Type: "something_else"}))
	assert.Zero(t, logs.Len())
	assert.Len(t, n.EventTypes(), 3)
}
