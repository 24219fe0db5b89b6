package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/talent-auth/internal/events"
)

// AuditService writes account lifecycle events to the audit log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventAccountRegistered, a.handle)
	a.dispatcher.Subscribe(events.EventChallengeIssued, a.handle)
	a.dispatcher.Subscribe(events.EventChannelVerified, a.handle)
	a.dispatcher.Subscribe(events.EventPasswordResetRequested, a.handle)
	a.dispatcher.Subscribe(events.EventPasswordResetCompleted, a.handle)
	a.dispatcher.Subscribe(events.EventDeliveryFailed, a.handleDeliveryFailed)
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("account_id", event.AccountID),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleDeliveryFailed(_ context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("account_id", event.AccountID),
		zap.Any("payload", event.Payload))
	return nil
}
