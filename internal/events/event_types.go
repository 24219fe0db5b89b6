package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/talent-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAccountRegistered      EventType = "account_registered"
	EventChallengeIssued        EventType = "challenge_issued"
	EventChannelVerified        EventType = "channel_verified"
	EventPasswordResetRequested EventType = "password_reset_requested"
	EventPasswordResetCompleted EventType = "password_reset_completed"
	EventDeliveryFailed         EventType = "delivery_failed"
)

// Event represents an account lifecycle event. Payloads never carry codes,
// tokens or password hashes.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with an id and time.
func NewEvent(eventType EventType, accountID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		AccountID: accountID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// ChannelPayload names the channel an event concerns.
type ChannelPayload struct {
	Channel domain.Channel `json:"channel"`
}

// DeliveryFailedPayload records a best-effort delivery that did not confirm.
type DeliveryFailedPayload struct {
	Channel domain.Channel `json:"channel"`
	Reason  string         `json:"reason"`
}
