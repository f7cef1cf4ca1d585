package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-timetable/pkg/config"
)

// Message is a notification addressed to one recipient.
type Message struct {
	ID        string      `json:"id"`
	Kind      string      `json:"kind"`
	Recipient string      `json:"recipient"`
	Subject   string      `json:"subject"`
	Body      string      `json:"body"`
	Payload   interface{} `json:"payload,omitempty"`
}

// Notifier delivers messages over a transport.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Close() error
}

// Policy bounds delivery retries.
type Policy struct {
	InitialInterval time.Duration
	MaxElapsed      time.Duration
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxElapsed > 0 {
		b.MaxElapsedTime = p.MaxElapsed
	}
	b.Reset()
	return backoff.WithContext(b, ctx)
}

// retry runs op until it succeeds, returns a permanent error, or the policy gives up.
func retry(ctx context.Context, p Policy, logger *zap.Logger, transport string, op backoff.Operation) error {
	notify := func(err error, wait time.Duration) {
		logger.Warn("notification delivery failed, retrying",
			zap.String("transport", transport), zap.Duration("wait", wait), zap.Error(err))
	}
	return backoff.RetryNotify(op, p.backOff(ctx), notify)
}

// New builds the notifier selected by cfg.Transport.
func New(cfg config.NotifyConfig, logger *zap.Logger) (Notifier, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := Policy{MaxElapsed: cfg.MaxElapsed}
	switch cfg.Transport {
	case "", config.TransportLog:
		return NewLogNotifier(logger), nil
	case config.TransportAMQP:
		return DialAMQP(cfg.AMQP, policy, logger)
	case config.TransportNATS:
		return DialNATS(cfg.NATS, policy, logger)
	case config.TransportMail:
		return NewMailNotifier(cfg.SMTP, policy, logger)
	default:
		return nil, fmt.Errorf("unknown notify transport %q", cfg.Transport)
	}
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a notifier backed by logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the message.
func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Info("notification",
		zap.String("id", msg.ID),
		zap.String("kind", msg.Kind),
		zap.String("recipient", msg.Recipient),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// Close is a no-op.
func (n *LogNotifier) Close() error { return nil }
