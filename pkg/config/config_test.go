package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "07:00", cfg.Timetable.DefaultStart)
	assert.Equal(t, "13:00", cfg.Timetable.DefaultEnd)
	assert.Equal(t, 45, cfg.Timetable.DefaultPeriodMinutes)
	assert.Equal(t, []int{3, 6}, cfg.Timetable.DefaultBreaks)
	assert.Equal(t, TransportLog, cfg.Notify.Transport)
	assert.Equal(t, 24*time.Hour, cfg.Reminders.DedupeTTL)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TIMETABLE_DEFAULT_BREAKS", "4, x, 7")
	t.Setenv("NOTIFY_TRANSPORT", "NATS")
	t.Setenv("REMINDERS_INTERVAL", "not-a-duration")
	t.Setenv("REMINDERS_ACADEMIC_YEARS", "ay-2024, ay-2025")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int{4, 7}, cfg.Timetable.DefaultBreaks)
	assert.Equal(t, TransportNATS, cfg.Notify.Transport)
	assert.Equal(t, 5*time.Minute, cfg.Reminders.Interval)
	assert.Equal(t, []string{"ay-2024", "ay-2025"}, cfg.Reminders.AcademicYears)
}
