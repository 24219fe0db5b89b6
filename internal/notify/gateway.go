// Package notify delivers verification codes and reset tokens to email
// addresses and phone numbers. Delivery is best-effort: callers persist first
// and treat any error here as a degraded outcome.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/talent-auth/internal/domain"
)

var (
	// ErrUnsupportedChannel is returned when no gateway serves a destination channel.
	ErrUnsupportedChannel = errors.New("no gateway for channel")
	// ErrNotDelivered is returned by gateways that record a message without sending it.
	ErrNotDelivered = errors.New("no delivery provider configured")
)

// Purpose says why a code is being sent.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePhoneVerification Purpose = "phone_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

// Destination is where a message goes.
type Destination struct {
	Channel domain.Channel
	Address string
}

// Message carries the code to deliver.
type Message struct {
	Purpose Purpose
	Code    string
}

// Subject returns the email subject line.
func (m Message) Subject() string {
	switch m.Purpose {
	case PurposePasswordReset:
		return "Password Reset Code"
	case PurposePhoneVerification:
		return "Phone Verification Code"
	default:
		return "Email Verification Code"
	}
}

// Body returns the plain-text message body.
func (m Message) Body() string {
	switch m.Purpose {
	case PurposePasswordReset:
		return fmt.Sprintf("Your password reset code is %s. This code will expire in 1 hour. If you did not request a reset, ignore this message.", m.Code)
	default:
		return fmt.Sprintf("Your verification code is %s.", m.Code)
	}
}

// Gateway delivers a message to a destination.
type Gateway interface {
	Deliver(ctx context.Context, to Destination, msg Message) error
}

// Router dispatches to a gateway per channel.
type Router struct {
	gateways map[domain.Channel]Gateway
}

// NewRouter builds a router from channel-to-gateway bindings.
func NewRouter(email, phone Gateway) *Router {
	r := &Router{gateways: make(map[domain.Channel]Gateway, 2)}
	if email != nil {
		r.gateways[domain.ChannelEmail] = email
	}
	if phone != nil {
		r.gateways[domain.ChannelPhone] = phone
	}
	return r
}

// Deliver forwards to the gateway registered for the destination channel.
func (r *Router) Deliver(ctx context.Context, to Destination, msg Message) error {
	gw, ok := r.gateways[to.Channel]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedChannel, to.Channel)
	}
	return gw.Deliver(ctx, to, msg)
}
