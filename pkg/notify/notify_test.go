package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-adp-timetable/pkg/config"
)

var fastPolicy = Policy{InitialInterval: time.Millisecond, MaxElapsed: time.Second}

type flakyNATS struct {
	failures int
	subjects []string
	payloads [][]byte
}

func (f *flakyNATS) Publish(subject string, data []byte) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("nats: connection closed")
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

type recordingChannel struct {
	exchange   string
	key        string
	publishing amqp.Publishing
	err        error
}

func (r *recordingChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if r.err != nil {
		return r.err
	}
	r.exchange, r.key, r.publishing = exchange, key, msg
	return nil
}

type countingMailer struct {
	sent int
}

func (c *countingMailer) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	c.sent += len(messages)
	return nil
}

func (c *countingMailer) Close() error { return nil }

func reminder() Message {
	return Message{
		ID:        "entry-1:45_min:2024-07-15",
		Kind:      "lesson_reminder",
		Recipient: "ana@school.test",
		Subject:   "Lesson reminder",
		Body:      "Reminder: You have Maths with 7A in 45 minutes (08:30).",
	}
}

func TestLogNotifierWritesEntry(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), reminder()))
	entries := logs.FilterMessage("notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ana@school.test", entries[0].ContextMap()["recipient"])
}

func TestNATSNotifierRetriesTransientFailures(t *testing.T) {
	pub := &flakyNATS{failures: 2}
	n := newNATSNotifier(pub, "timetable.reminders", fastPolicy, nil)

	require.NoError(t, n.Notify(context.Background(), reminder()))
	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "timetable.reminders", pub.subjects[0])

	var decoded Message
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.Equal(t, "entry-1:45_min:2024-07-15", decoded.ID)
}

func TestNATSNotifierGivesUp(t *testing.T) {
	pub := &flakyNATS{failures: 1 << 20}
	n := newNATSNotifier(pub, "subject", Policy{InitialInterval: time.Millisecond, MaxElapsed: 20 * time.Millisecond}, nil)

	assert.Error(t, n.Notify(context.Background(), reminder()))
}

func TestAMQPNotifierPublishesJSON(t *testing.T) {
	ch := &recordingChannel{}
	n := newAMQPNotifier(ch, "", "timetable.reminders", fastPolicy, nil)

	require.NoError(t, n.Notify(context.Background(), reminder()))
	assert.Equal(t, "timetable.reminders", ch.key)
	assert.Equal(t, "application/json", ch.publishing.ContentType)
	assert.Equal(t, amqp.Persistent, ch.publishing.DeliveryMode)
	assert.Equal(t, "lesson_reminder", ch.publishing.Type)
}

func TestAMQPNotifierStopsOnCancelledContext(t *testing.T) {
	ch := &recordingChannel{err: errors.New("channel closed")}
	n := newAMQPNotifier(ch, "", "q", Policy{InitialInterval: time.Millisecond, MaxElapsed: time.Minute}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, n.Notify(ctx, reminder()))
}

func TestMailNotifierRequiresRecipient(t *testing.T) {
	mailer := &countingMailer{}
	n := newMailNotifier(mailer, "timetable@school.test", fastPolicy, nil)

	msg := reminder()
	msg.Recipient = ""
	assert.ErrorIs(t, n.Notify(context.Background(), msg), ErrNoRecipient)
	assert.Zero(t, mailer.sent)

	require.NoError(t, n.Notify(context.Background(), reminder()))
	assert.Equal(t, 1, mailer.sent)
}

func TestNewSelectsTransport(t *testing.T) {
	n, err := New(config.NotifyConfig{Transport: config.TransportLog}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	_, err = New(config.NotifyConfig{Transport: "pigeon"}, nil)
	assert.Error(t, err)
}
