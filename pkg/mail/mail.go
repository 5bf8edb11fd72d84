// Package mail sends transactional email over SMTP.
package mail

import (
	"context"
	"fmt"

	"github.com/example/storefront/pkg/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender struct {
	dialer *gomail.Dialer
	from   string
	name   string
	logger *zap.Logger
}

// NewSender returns a sender for cfg. With no SMTP host configured messages are
// logged instead of sent.
func NewSender(cfg *config.MailConfig, logger *zap.Logger) *Sender {
	s := &Sender{
		from:   cfg.FromAddress,
		name:   cfg.FromName,
		logger: logger.Named("mail"),
	}
	if cfg.Host != "" {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return s
}

func (s *Sender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.dialer == nil {
		s.logger.Info("smtp disabled, message not sent",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
		)
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.name)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	s.logger.Debug("mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
