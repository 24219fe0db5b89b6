package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/spec-kit/talent-auth/internal/config"
)

type messageCreator interface {
	CreateMessage(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

// TwilioGateway sends codes by SMS.
type TwilioGateway struct {
	from     string
	messages messageCreator
}

// NewTwilioGateway builds a gateway from notification settings.
func NewTwilioGateway(cfg config.NotificationConfig) (*TwilioGateway, error) {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
		return nil, errors.New("twilio credentials not configured")
	}
	if cfg.TwilioFrom == "" {
		return nil, errors.New("twilio sender number not configured")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	return &TwilioGateway{from: cfg.TwilioFrom, messages: client.Api}, nil
}

// Deliver sends the SMS. The Twilio client has no context support, so the call
// runs in a goroutine and ctx bounds how long we wait for it.
func (g *TwilioGateway) Deliver(ctx context.Context, to Destination, msg Message) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(e164(to.Address))
	params.SetFrom(g.from)
	params.SetBody(msg.Body())

	done := make(chan error, 1)
	go func() {
		_, err := g.messages.CreateMessage(params)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send sms: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send sms: %w", ctx.Err())
	}
}

func e164(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "+") {
		return phone
	}
	return "+" + phone
}
