package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-timetable/internal/dto"
	"github.com/noah-isme/sma-adp-timetable/internal/models"
	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-adp-timetable/pkg/errors"
	"github.com/noah-isme/sma-adp-timetable/pkg/jobs"
	"github.com/noah-isme/sma-adp-timetable/pkg/notify"
	"github.com/noah-isme/sma-adp-timetable/pkg/validation"
)

// ReminderJobType tags lesson reminder jobs on the queue.
const ReminderJobType = "lesson_reminder"

type reminderLessonReader interface {
	ListDetailedByDay(ctx context.Context, academicYearID string, day timetable.Day) ([]models.TimetableEntryDetail, error)
}

type reminderDeduper interface {
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

type reminderQueue interface {
	Enqueue(job jobs.Job) error
}

// ReminderConfig tunes the reminder scan.
type ReminderConfig struct {
	AcademicYears []string
	Location      *time.Location
	Interval      time.Duration
	DedupeTTL     time.Duration
}

// ReminderService warns teachers shortly before their lessons.
type ReminderService struct {
	lessons   reminderLessonReader
	dedupe    reminderDeduper
	queue     reminderQueue
	notifier  notify.Notifier
	metrics   *MetricsService
	validator *validation.Validator
	logger    *zap.Logger
	config    ReminderConfig
	now       func() time.Time
}

// NewReminderService wires reminder dependencies. The queue may be attached
// later with UseQueue since the queue's handler is the service itself.
func NewReminderService(lessons reminderLessonReader, dedupe reminderDeduper, notifier notify.Notifier, metrics *MetricsService, validate *validation.Validator, logger *zap.Logger, cfg ReminderConfig) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.DedupeTTL <= 0 {
		cfg.DedupeTTL = 24 * time.Hour
	}
	return &ReminderService{
		lessons:   lessons,
		dedupe:    dedupe,
		notifier:  notifier,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// UseQueue routes reminders through q instead of notifying inline.
func (s *ReminderService) UseQueue(q reminderQueue) {
	s.queue = q
}

// Run scans one academic year on demand.
func (s *ReminderService) Run(ctx context.Context, req dto.ReminderRunRequest) (*dto.ReminderRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	at := s.now()
	if req.At != "" {
		parsed, err := time.Parse(time.RFC3339, req.At)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "at must be an RFC3339 timestamp")
		}
		at = parsed
	}
	return s.Scan(ctx, req.AcademicYearID, at)
}

// Scan finds today's lessons starting in the 45 or 10 minute windows and
// queues one reminder per lesson, alert type and date.
func (s *ReminderService) Scan(ctx context.Context, academicYearID string, at time.Time) (*dto.ReminderRunResponse, error) {
	local := at.In(s.config.Location)
	resp := &dto.ReminderRunResponse{Reminders: []dto.ReminderView{}}
	day, ok := timetable.DayOf(local.Weekday())
	if !ok {
		return resp, nil
	}

	lessons, err := s.lessons.ListDetailedByDay(ctx, academicYearID, day)
	if err != nil {
		return nil, storageError(err, "failed to load today's lessons")
	}
	resp.Scanned = len(lessons)

	for _, lesson := range lessons {
		if lesson.TeacherID == nil || lesson.TeacherEmail == nil || *lesson.TeacherEmail == "" {
			resp.Skipped++
			continue
		}
		startsAt := lesson.StartTime.On(local)
		alert, ok := reminderWindow(startsAt.Sub(local))
		if !ok {
			continue
		}

		key := reminderKey(lesson.ID, alert, local)
		fresh, err := s.dedupe.SetNX(ctx, key, s.config.DedupeTTL)
		if err != nil {
			s.logger.Warn("reminder dedupe failed", zap.String("key", key), zap.Error(err))
			resp.Skipped++
			continue
		}
		if !fresh {
			resp.Skipped++
			s.metrics.ObserveReminder(string(alert), "duplicate")
			continue
		}

		reminder := newLessonReminder(lesson, alert, startsAt)
		if err := s.dispatch(ctx, jobs.Job{ID: key, Type: ReminderJobType, Payload: reminder}); err != nil {
			s.logger.Warn("reminder dispatch failed", zap.String("key", key), zap.Error(err))
			s.metrics.ObserveReminder(string(alert), "dropped")
			s.release(ctx, key)
			continue
		}
		s.metrics.ObserveReminder(string(alert), "queued")
		resp.Queued++
		resp.Reminders = append(resp.Reminders, dto.ReminderView{
			EntryID:   reminder.EntryID,
			AlertType: string(reminder.Type),
			TeacherID: reminder.TeacherID,
			Message:   reminder.Message,
		})
	}
	return resp, nil
}

// RunAll scans every configured academic year at the current time.
func (s *ReminderService) RunAll(ctx context.Context) {
	now := s.now()
	for _, year := range s.config.AcademicYears {
		resp, err := s.Scan(ctx, year, now)
		if err != nil {
			s.logger.Warn("reminder scan failed", zap.String("academic_year_id", year), zap.Error(err))
			continue
		}
		if resp.Queued > 0 {
			s.logger.Info("reminders queued", zap.String("academic_year_id", year), zap.Int("queued", resp.Queued))
		}
	}
}

// StartScheduler runs RunAll every configured interval until ctx is done.
func (s *ReminderService) StartScheduler(ctx context.Context) {
	if s.config.Interval <= 0 || len(s.config.AcademicYears) == 0 {
		return
	}
	ticker := time.NewTicker(s.config.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunAll(ctx)
			}
		}
	}()
}

// Handle delivers a queued reminder. It is the jobs.Handler for the reminder queue.
func (s *ReminderService) Handle(ctx context.Context, job jobs.Job) error {
	reminder, ok := job.Payload.(models.LessonReminder)
	if !ok {
		s.logger.Error("unexpected reminder payload", zap.String("job_id", job.ID))
		return nil
	}
	msg := notify.Message{
		ID:        job.ID,
		Kind:      ReminderJobType,
		Recipient: reminder.TeacherEmail,
		Subject:   fmt.Sprintf("Lesson reminder: %s with %s", reminder.SubjectName, reminder.ClassName),
		Body:      reminder.Message,
		Payload:   reminder,
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.metrics.ObserveReminder(string(reminder.Type), "failed")
		return err
	}
	s.metrics.ObserveReminder(string(reminder.Type), "sent")
	return nil
}

// Drop frees the dedupe key of a queued reminder that could not be delivered,
// so a later scan inside the same window retries it. It is the queue's OnDrop hook.
func (s *ReminderService) Drop(ctx context.Context, job jobs.Job, err error) {
	if job.Type != ReminderJobType {
		return
	}
	s.logger.Warn("reminder undeliverable", zap.String("key", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
	s.release(ctx, job.ID)
}

func (s *ReminderService) release(ctx context.Context, key string) {
	if err := s.dedupe.Del(ctx, key); err != nil {
		s.logger.Warn("reminder dedupe release failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ReminderService) dispatch(ctx context.Context, job jobs.Job) error {
	if s.queue != nil {
		return s.queue.Enqueue(job)
	}
	return s.Handle(ctx, job)
}

// reminderWindow maps the time until a lesson to its alert type.
func reminderWindow(until time.Duration) (models.ReminderType, bool) {
	minutes := until.Minutes()
	switch {
	case minutes >= 40 && minutes <= 50:
		return models.Reminder45Minutes, true
	case minutes >= 5 && minutes <= 15:
		return models.Reminder10Minutes, true
	default:
		return "", false
	}
}

func reminderKey(entryID string, alert models.ReminderType, local time.Time) string {
	return fmt.Sprintf("timetable:reminder:%s:%s:%s", entryID, alert, local.Format("2006-01-02"))
}

func newLessonReminder(lesson models.TimetableEntryDetail, alert models.ReminderType, startsAt time.Time) models.LessonReminder {
	var message string
	switch alert {
	case models.Reminder45Minutes:
		message = fmt.Sprintf("Reminder: You have %s with %s in 45 minutes (%s).", lesson.SubjectName, lesson.ClassName, lesson.StartTime)
	default:
		message = fmt.Sprintf("Hurry up! Your class %s with %s starts in 10 minutes (%s).", lesson.SubjectName, lesson.ClassName, lesson.StartTime)
	}
	reminder := models.LessonReminder{
		EntryID:      lesson.ID,
		Type:         alert,
		TeacherID:    *lesson.TeacherID,
		TeacherEmail: *lesson.TeacherEmail,
		ClassName:    lesson.ClassName,
		SubjectName:  lesson.SubjectName,
		Day:          lesson.Day,
		Period:       lesson.Period,
		StartsAt:     startsAt,
		Message:      message,
	}
	if lesson.TeacherName != nil {
		reminder.TeacherName = *lesson.TeacherName
	}
	return reminder
}
