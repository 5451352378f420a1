package email

import (
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

// Sender delivers customer-facing notifications. The outbox worker is the
// only producer; everything it sends originates from an outbox event.
type Sender interface {
	SendDocumentReady(to, documentType, documentNumber, total string) error
	SendTierChanged(to, oldTier, newTier string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpSender struct {
	dialer *gomail.Dialer
	from   string
	logger *zerolog.Logger
}

func NewSMTPSender(cfg Config, logger *zerolog.Logger) Sender {
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

func (s *smtpSender) SendDocumentReady(to, documentType, documentNumber, total string) error {
	subject := fmt.Sprintf("Your %s %s is ready", documentType, documentNumber)
	body := fmt.Sprintf(
		"<p>Hi,</p><p>Your %s <strong>%s</strong> for a total of %s is ready.</p><p>Thank you for your business.</p>",
		documentType, documentNumber, total,
	)
	return s.send(to, subject, body)
}

func (s *smtpSender) SendTierChanged(to, oldTier, newTier string) error {
	subject := fmt.Sprintf("You've reached the %s tier", newTier)
	body := fmt.Sprintf(
		"<p>Congratulations!</p><p>Your loyalty tier has been upgraded from %s to <strong>%s</strong>.</p>",
		oldTier, newTier,
	)
	return s.send(to, subject, body)
}

func (s *smtpSender) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error().Err(err).Str("to", to).Str("subject", subject).Msg("failed to send email")
		return fmt.Errorf("sending email: %w", err)
	}

	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

// NopSender is used when SMTP is not configured. Deliveries are logged and
// dropped so the worker keeps draining the outbox in dev environments.
type NopSender struct {
	Logger *zerolog.Logger
}

func (n NopSender) SendDocumentReady(to, documentType, documentNumber, total string) error {
	n.Logger.Info().Str("to", to).Str("document", documentNumber).Msg("email disabled, skipping document notification")
	return nil
}

func (n NopSender) SendTierChanged(to, oldTier, newTier string) error {
	n.Logger.Info().Str("to", to).Str("tier", newTier).Msg("email disabled, skipping tier notification")
	return nil
}
