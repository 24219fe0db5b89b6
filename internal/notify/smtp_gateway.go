package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/spec-kit/talent-auth/internal/config"
)

// SMTPGateway sends codes by email through an SMTP relay.
type SMTPGateway struct {
	from   string
	client *mail.Client
}

// NewSMTPGateway builds a gateway from notification settings.
func NewSMTPGateway(cfg config.NotificationConfig) (*SMTPGateway, error) {
	if cfg.SMTPHost == "" {
		return nil, errors.New("smtp host not configured")
	}
	if cfg.EmailFrom == "" {
		return nil, errors.New("sender address not configured")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(cfg.DeliveryTimeout()),
	}
	if cfg.SMTPUseSSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPGateway{from: cfg.EmailFrom, client: client}, nil
}

func (g *SMTPGateway) Deliver(ctx context.Context, to Destination, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(g.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(to.Address); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(msg.Subject())
	m.SetBodyString(mail.TypeTextPlain, msg.Body())

	if err := g.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
