package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-timetable/internal/dto"
	"github.com/noah-isme/sma-adp-timetable/internal/models"
	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-adp-timetable/pkg/errors"
	"github.com/noah-isme/sma-adp-timetable/pkg/jobs"
	"github.com/noah-isme/sma-adp-timetable/pkg/notify"
)

type memoryDeduper struct {
	keys map[string]struct{}
	err  error
}

func (m *memoryDeduper) SetNX(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.keys == nil {
		m.keys = map[string]struct{}{}
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *memoryDeduper) Del(_ context.Context, key string) error {
	delete(m.keys, key)
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func (r *recordingNotifier) Close() error { return nil }

type recordingQueue struct {
	jobs []jobs.Job
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

// monday is 2024-01-08, a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2024, time.January, 8, hour, minute, 0, 0, time.UTC)
}

func newReminderFixture(t *testing.T) (*ReminderService, *fakeEntryStore, *memoryDeduper, *recordingNotifier) {
	t.Helper()
	f := newTimetableFixture(t)
	f.seedLesson("e1", "class-7a", "maths", ptr("ana"), timetable.Monday, 1)
	f.seedLesson("e2", "class-7a", "art", nil, timetable.Monday, 2)
	f.seedLesson("e3", "class-7b", "english", ptr("budi"), timetable.Monday, 2)

	dedupe := &memoryDeduper{}
	notifier := &recordingNotifier{}
	svc := NewReminderService(f.store, dedupe, notifier, NewMetricsService(), nil, nil, ReminderConfig{AcademicYears: []string{"ay-1"}})
	return svc, f.store, dedupe, notifier
}

func TestReminderWindow(t *testing.T) {
	cases := []struct {
		until time.Duration
		want  models.ReminderType
		ok    bool
	}{
		{45 * time.Minute, models.Reminder45Minutes, true},
		{40 * time.Minute, models.Reminder45Minutes, true},
		{50 * time.Minute, models.Reminder45Minutes, true},
		{10 * time.Minute, models.Reminder10Minutes, true},
		{5 * time.Minute, models.Reminder10Minutes, true},
		{30 * time.Minute, "", false},
		{2 * time.Minute, "", false},
		{-10 * time.Minute, "", false},
	}
	for _, tc := range cases {
		got, ok := reminderWindow(tc.until)
		assert.Equal(t, tc.ok, ok, tc.until.String())
		assert.Equal(t, tc.want, got, tc.until.String())
	}
}

func TestReminderScanSendsFortyFiveMinuteWarning(t *testing.T) {
	svc, _, _, notifier := newReminderFixture(t)

	resp, err := svc.Scan(context.Background(), "ay-1", monday(6, 15))
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Scanned)
	assert.Equal(t, 1, resp.Queued)
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, resp.Reminders, 1)
	assert.Equal(t, "e1", resp.Reminders[0].EntryID)
	assert.Equal(t, "45_min", resp.Reminders[0].AlertType)
	assert.Equal(t, "Reminder: You have Maths with 7A in 45 minutes (07:00).", resp.Reminders[0].Message)

	require.Len(t, notifier.sent, 1)
	msg := notifier.sent[0]
	assert.Equal(t, "ana@school.test", msg.Recipient)
	assert.Equal(t, "Lesson reminder: Maths with 7A", msg.Subject)
	assert.Equal(t, "timetable:reminder:e1:45_min:2024-01-08", msg.ID)
}

func TestReminderScanTenMinuteWarning(t *testing.T) {
	svc, _, _, _ := newReminderFixture(t)

	resp, err := svc.Scan(context.Background(), "ay-1", monday(7, 35))
	require.NoError(t, err)
	require.Len(t, resp.Reminders, 1)
	assert.Equal(t, "e3", resp.Reminders[0].EntryID)
	assert.Equal(t, "10_min", resp.Reminders[0].AlertType)
	assert.Equal(t, "Hurry up! Your class English with 7B starts in 10 minutes (07:45).", resp.Reminders[0].Message)
}

func TestReminderScanDeduplicates(t *testing.T) {
	svc, _, _, notifier := newReminderFixture(t)

	_, err := svc.Scan(context.Background(), "ay-1", monday(6, 15))
	require.NoError(t, err)
	resp, err := svc.Scan(context.Background(), "ay-1", monday(6, 18))
	require.NoError(t, err)
	assert.Zero(t, resp.Queued)
	assert.Equal(t, 2, resp.Skipped)
	assert.Len(t, notifier.sent, 1)
}

func TestReminderScanSkipsWhenDedupeUnavailable(t *testing.T) {
	svc, _, dedupe, notifier := newReminderFixture(t)
	dedupe.err = errors.New("redis down")

	resp, err := svc.Scan(context.Background(), "ay-1", monday(6, 15))
	require.NoError(t, err)
	assert.Zero(t, resp.Queued)
	assert.Empty(t, notifier.sent)
}

func TestReminderScanWeekend(t *testing.T) {
	svc, _, _, notifier := newReminderFixture(t)

	saturday := time.Date(2024, time.January, 13, 6, 15, 0, 0, time.UTC)
	resp, err := svc.Scan(context.Background(), "ay-1", saturday)
	require.NoError(t, err)
	assert.Zero(t, resp.Scanned)
	assert.Empty(t, resp.Reminders)
	assert.Empty(t, notifier.sent)
}

func TestReminderScanUsesQueue(t *testing.T) {
	svc, _, _, notifier := newReminderFixture(t)
	queue := &recordingQueue{}
	svc.UseQueue(queue)

	resp, err := svc.Scan(context.Background(), "ay-1", monday(6, 15))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Queued)
	assert.Empty(t, notifier.sent)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, ReminderJobType, queue.jobs[0].Type)

	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))
	assert.Len(t, notifier.sent, 1)
}

func TestReminderScanRetriesAfterFailedDelivery(t *testing.T) {
	svc, _, dedupe, notifier := newReminderFixture(t)
	notifier.err = errors.New("smtp unavailable")

	resp, err := svc.Scan(context.Background(), "ay-1", monday(6, 15))
	require.NoError(t, err)
	assert.Zero(t, resp.Queued)
	assert.Empty(t, notifier.sent)
	assert.NotContains(t, dedupe.keys, "timetable:reminder:e1:45_min:2024-01-08")

	notifier.err = nil
	resp, err = svc.Scan(context.Background(), "ay-1", monday(6, 16))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Queued)
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "timetable:reminder:e1:45_min:2024-01-08", notifier.sent[0].ID)
}

func TestReminderDropFreesQueuedKey(t *testing.T) {
	svc, _, dedupe, notifier := newReminderFixture(t)
	queue := &recordingQueue{}
	svc.UseQueue(queue)

	_, err := svc.Scan(context.Background(), "ay-1", monday(6, 15))
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)
	assert.Contains(t, dedupe.keys, queue.jobs[0].ID)

	svc.Drop(context.Background(), queue.jobs[0], errors.New("smtp unavailable"))
	assert.NotContains(t, dedupe.keys, queue.jobs[0].ID)

	svc.UseQueue(nil)
	resp, err := svc.Scan(context.Background(), "ay-1", monday(6, 17))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Queued)
	assert.Len(t, notifier.sent, 1)
}

func TestReminderHandlePropagatesNotifierErrors(t *testing.T) {
	svc, _, _, notifier := newReminderFixture(t)
	notifier.err = errors.New("smtp unavailable")

	reminder := models.LessonReminder{EntryID: "e1", Type: models.Reminder10Minutes, TeacherEmail: "ana@school.test"}
	err := svc.Handle(context.Background(), jobs.Job{ID: "job-1", Type: ReminderJobType, Payload: reminder})
	assert.Error(t, err)

	assert.NoError(t, svc.Handle(context.Background(), jobs.Job{ID: "job-2", Payload: "garbage"}))
}

func TestReminderRunParsesTimestamp(t *testing.T) {
	svc, _, _, _ := newReminderFixture(t)

	resp, err := svc.Run(context.Background(), dto.ReminderRunRequest{AcademicYearID: "ay-1", At: "2024-01-08T06:15:00Z"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Queued)

	_, err = svc.Run(context.Background(), dto.ReminderRunRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestReminderRunAllUsesClock(t *testing.T) {
	svc, _, _, notifier := newReminderFixture(t)
	svc.now = func() time.Time { return monday(6, 15) }

	svc.RunAll(context.Background())
	assert.Len(t, notifier.sent, 1)
}
