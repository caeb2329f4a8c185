// Package mailer sends transactional email for the bursary platform.
package mailer

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"github.com/KnMBursary/bursary_backend/internal/apperrors"
	"github.com/KnMBursary/bursary_backend/internal/core/ports"
)

// SMTPConfig holds connection and sender identity settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	FromAddr string
}

// SMTPNotifier implements ports.Notifier over an authenticated SMTP relay.
type SMTPNotifier struct {
	cfg SMTPConfig
}

var _ ports.Notifier = (*SMTPNotifier)(nil)

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, textBody, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(n.cfg.FromName, n.cfg.FromAddr); err != nil {
		return fmt.Errorf("%w: invalid sender address: %v", apperrors.ErrDeliveryFailed, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("%w: invalid recipient address: %v", apperrors.ErrDeliveryFailed, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, textBody)
	if htmlBody != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, htmlBody)
	}

	client, err := gomail.NewClient(n.cfg.Host,
		gomail.WithPort(n.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(n.cfg.Username),
		gomail.WithPassword(n.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to build smtp client: %v", apperrors.ErrDeliveryFailed, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: failed to deliver mail to %s: %v", apperrors.ErrDeliveryFailed, to, err)
	}
	return nil
}
