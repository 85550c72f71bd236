package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-auth/internal/config"
	"github.com/spec-kit/storefront-auth/internal/events"
)

// NotificationService delivers account notifications. Delivery is stubbed:
// the intent is logged, the token itself never is.
type NotificationService struct {
	logger   *zap.Logger
	cfg      config.NotificationConfig
	handlers map[events.EventType]events.EventHandler
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	n := &NotificationService{logger: logger, cfg: cfg}
	n.handlers = map[events.EventType]events.EventHandler{
		events.EventAccountRegistered:      n.handleAccountRegistered,
		events.EventPasswordResetRequested: n.handlePasswordResetRequested,
		events.EventPasswordChanged:        n.handlePasswordChanged,
	}
	return n
}

// EventTypes lists the events the service reacts to.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventAccountRegistered,
		events.EventPasswordResetRequested,
		events.EventPasswordChanged,
	}
}

// Handle delivers the notification for event. Unknown types are ignored.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	if handler, ok := n.handlers[event.Type]; ok {
		return handler(ctx, event)
	}
	return nil
}

func (n *NotificationService) handleAccountRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountRegistered", zap.String("account_id", event.AccountID))
	n.sendEmailNotificationStub(ctx, event, "welcome")
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.PasswordResetRequestedPayload)
	n.logger.Info("PasswordResetRequested",
		zap.String("account_id", event.AccountID),
		zap.Time("expires_at", payload.ExpiresAt))
	n.sendEmailNotificationStub(ctx, event, "password-reset")
	return nil
}

func (n *NotificationService) handlePasswordChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("PasswordChanged", zap.String("account_id", event.AccountID))
	n.sendEmailNotificationStub(ctx, event, "password-changed")
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, template string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", event.Email),
		zap.String("template", template),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("account_id", event.AccountID),
		zap.String("event_type", string(event.Type)))
}
