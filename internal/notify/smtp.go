package notify

import (
	"context"
	"fmt"

	"ductclean/internal/config"
	"ductclean/internal/domain"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// SMTPSender delivers customer email through a plain SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
	logger *zerolog.Logger
}

func NewSMTPSender(cfg config.EmailConfig, logger *zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *SMTPSender) SendEmail(ctx context.Context, msg domain.EmailMessage) error {
	if msg.To == "" {
		return fmt.Errorf("email recipient is empty")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", msg.To, err)
	}

	s.logger.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}
