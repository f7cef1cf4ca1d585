package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-timetable/pkg/config"
)

type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// NATSNotifier publishes notifications as JSON on a NATS subject.
type NATSNotifier struct {
	conn    *nats.Conn
	pub     natsPublisher
	subject string
	policy  Policy
	logger  *zap.Logger
}

// DialNATS connects to the NATS server.
func DialNATS(cfg config.NATSConfig, policy Policy, logger *zap.Logger) (*NATSNotifier, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("sma-adp-timetable"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	n := newNATSNotifier(conn, cfg.Subject, policy, logger)
	n.conn = conn
	return n, nil
}

func newNATSNotifier(pub natsPublisher, subject string, policy Policy, logger *zap.Logger) *NATSNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSNotifier{pub: pub, subject: subject, policy: policy, logger: logger}
}

// Notify publishes msg on the configured subject.
func (n *NATSNotifier) Notify(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return retry(ctx, n.policy, n.logger, "nats", func() error {
		return n.pub.Publish(n.subject, data)
	})
}

// Close drains pending messages and closes the connection.
func (n *NATSNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Drain()
}
