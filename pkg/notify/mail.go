package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-timetable/pkg/config"
)

// ErrNoRecipient is returned for messages without an address.
var ErrNoRecipient = errors.New("notification has no recipient")

type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
	Close() error
}

// MailNotifier sends notifications as plain-text email over SMTP.
type MailNotifier struct {
	client mailSender
	from   string
	policy Policy
	logger *zap.Logger
}

// NewMailNotifier configures an SMTP client. Authentication is enabled only
// when a username is set.
func NewMailNotifier(cfg config.SMTPConfig, policy Policy, logger *zap.Logger) (*MailNotifier, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.UseSSL {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mail client: %w", err)
	}
	return newMailNotifier(client, cfg.From, policy, logger), nil
}

func newMailNotifier(client mailSender, from string, policy Policy, logger *zap.Logger) *MailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailNotifier{client: client, from: from, policy: policy, logger: logger}
}

// Notify sends msg to its recipient.
func (n *MailNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return ErrNoRecipient
	}
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.Recipient); err != nil {
		return fmt.Errorf("set recipient %s: %w", msg.Recipient, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	return retry(ctx, n.policy, n.logger, "mail", func() error {
		if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	})
}

// Close releases the SMTP connection.
func (n *MailNotifier) Close() error {
	return n.client.Close()
}
