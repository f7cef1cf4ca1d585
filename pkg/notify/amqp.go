package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-timetable/pkg/config"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes notifications as JSON to a RabbitMQ exchange.
type AMQPNotifier struct {
	conn       *amqp.Connection
	channel    amqpPublisher
	exchange   string
	routingKey string
	policy     Policy
	logger     *zap.Logger
}

// DialAMQP connects to the broker. With the default exchange the routing key
// names a durable queue, which is declared here.
func DialAMQP(cfg config.AMQPConfig, policy Policy, logger *zap.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if cfg.Exchange == "" {
		if _, err := ch.QueueDeclare(cfg.RoutingKey, true, false, false, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", cfg.RoutingKey, err)
		}
	}
	n := newAMQPNotifier(ch, cfg.Exchange, cfg.RoutingKey, policy, logger)
	n.conn = conn
	return n, nil
}

func newAMQPNotifier(ch amqpPublisher, exchange, routingKey string, policy Policy, logger *zap.Logger) *AMQPNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPNotifier{channel: ch, exchange: exchange, routingKey: routingKey, policy: policy, logger: logger}
}

// Notify publishes msg, retrying transient broker failures.
func (n *AMQPNotifier) Notify(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         msg.Kind,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	return retry(ctx, n.policy, n.logger, "amqp", func() error {
		if err := n.channel.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, publishing); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	})
}

// Close closes the broker connection.
func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}
