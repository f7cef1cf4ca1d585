package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-adp-timetable/pkg/errors"
)

type sample struct {
	AcademicYearID string `json:"academicYearId" validate:"required"`
	StartTime      string `json:"startTime" validate:"omitempty,clock"`
	Period         int    `json:"period" validate:"min=1"`
}

func TestStructAcceptsValidPayload(t *testing.T) {
	v := New()
	assert.NoError(t, v.Struct(sample{AcademicYearID: "ay-1", StartTime: "07:30", Period: 2}))
}

func TestStructTranslatesMessages(t *testing.T) {
	v := New()
	err := v.Struct(sample{StartTime: "7.30", Period: 0})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "academicYearId is a required field")
	assert.Contains(t, appErr.Message, "startTime must be a time in HH:MM format")
	assert.Contains(t, appErr.Message, "period must be 1 or greater")
}
