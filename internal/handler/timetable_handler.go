package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-timetable/internal/dto"
	"github.com/noah-isme/sma-adp-timetable/internal/middleware"
	"github.com/noah-isme/sma-adp-timetable/internal/service"
	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-adp-timetable/pkg/errors"
	"github.com/noah-isme/sma-adp-timetable/pkg/response"
)

type timetableOperations interface {
	Settings(ctx context.Context, academicYearID string) (*dto.GridSettingsResponse, error)
	UpdateSettings(ctx context.Context, academicYearID string, req dto.GridSettingsRequest) (*dto.GridSettingsResponse, int, error)
	Grid(ctx context.Context, q dto.GridQuery) (*dto.GridResponse, error)
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
	Validate(ctx context.Context, req dto.SlotRequest) (timetable.Verdict, error)
	UpsertEntry(ctx context.Context, req dto.SlotRequest) (*dto.SlotResponse, error)
	DeleteEntry(ctx context.Context, id string) error
	ClassTimetable(ctx context.Context, academicYearID, classID string) (*dto.ClassTimetableResponse, error)
	TeacherTimetable(ctx context.Context, academicYearID, teacherID string) (*dto.TeacherTimetableResponse, error)
	ExportClass(ctx context.Context, classID string, q dto.ExportQuery) (string, string, []byte, error)
}

type reminderRunner interface {
	Run(ctx context.Context, req dto.ReminderRunRequest) (*dto.ReminderRunResponse, error)
}

// TimetableHandler exposes timetable endpoints.
type TimetableHandler struct {
	service   timetableOperations
	reminders reminderRunner
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService, reminders *service.ReminderService) *TimetableHandler {
	return &TimetableHandler{service: svc, reminders: reminders}
}

// Settings godoc
// @Summary Get grid settings of an academic year
// @Tags Timetable
// @Produce json
// @Param yearId path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/settings/{yearId} [get]
func (h *TimetableHandler) Settings(c *gin.Context) {
	settings, err := h.service.Settings(c.Request.Context(), c.Param("yearId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Replace grid settings of an academic year
// @Description Lessons that no longer fit the new grid are removed.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param yearId path string true "Academic year ID"
// @Param payload body dto.GridSettingsRequest true "Grid settings"
// @Success 200 {object} response.Envelope
// @Router /timetable/settings/{yearId} [put]
func (h *TimetableHandler) UpdateSettings(c *gin.Context) {
	var req dto.GridSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid settings payload"))
		return
	}
	settings, removed, err := h.service.UpdateSettings(c.Request.Context(), c.Param("yearId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, map[string]interface{}{"removedEntries": removed})
}

// Grid godoc
// @Summary Preview the period grid
// @Tags Timetable
// @Produce json
// @Param academicYearId query string false "Academic year ID"
// @Param start query string false "Day start (HH:MM)"
// @Param end query string false "Day end (HH:MM)"
// @Param periodMinutes query int false "Period length in minutes"
// @Param breaks query []int false "Break period numbers"
// @Success 200 {object} response.Envelope
// @Router /timetable/grid [get]
func (h *TimetableHandler) Grid(c *gin.Context) {
	var q dto.GridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid grid query"))
		return
	}
	grid, err := h.service.Grid(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid)
}

// Generate godoc
// @Summary Generate the weekly timetable
// @Description Replaces the week of the academic year, or of the listed classes only.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid generate payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Validate godoc
// @Summary Check a proposed lesson without saving it
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SlotRequest true "Proposed lesson"
// @Success 200 {object} response.Envelope
// @Router /timetable/validate [post]
func (h *TimetableHandler) Validate(c *gin.Context) {
	var req dto.SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid slot payload"))
		return
	}
	verdict, err := h.service.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, verdict)
}

// UpsertEntry godoc
// @Summary Validate and save one lesson
// @Description Rejected lessons return 409 with the verdict in data.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.SlotRequest true "Lesson"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/entries [put]
func (h *TimetableHandler) UpsertEntry(c *gin.Context) {
	var req dto.SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid slot payload"))
		return
	}
	result, err := h.service.UpsertEntry(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			response.ErrorWithData(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// DeleteEntry godoc
// @Summary Delete one lesson
// @Tags Timetable
// @Param id path string true "Timetable entry ID"
// @Success 204
// @Router /timetable/entries/{id} [delete]
func (h *TimetableHandler) DeleteEntry(c *gin.Context) {
	if err := h.service.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClassTimetable godoc
// @Summary Weekly grid of a class
// @Tags Timetable
// @Produce json
// @Param classId path string true "Class ID"
// @Param academicYearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/classes/{classId} [get]
func (h *TimetableHandler) ClassTimetable(c *gin.Context) {
	yearID, ok := requireYear(c)
	if !ok {
		return
	}
	view, err := h.service.ClassTimetable(c.Request.Context(), yearID, c.Param("classId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, view.Cached)
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// ExportClass godoc
// @Summary Download a class timetable
// @Tags Timetable
// @Produce octet-stream
// @Param classId path string true "Class ID"
// @Param academicYearId query string true "Academic year ID"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} binary
// @Router /timetable/classes/{classId}/export [get]
func (h *TimetableHandler) ExportClass(c *gin.Context) {
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid export query"))
		return
	}
	filename, contentType, body, err := h.service.ExportClass(c.Request.Context(), c.Param("classId"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, contentType, body)
}

// TeacherTimetable godoc
// @Summary Weekly lessons of a teacher
// @Tags Timetable
// @Produce json
// @Param id path string true "Teacher ID, or me for the caller"
// @Param academicYearId query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers/{id} [get]
func (h *TimetableHandler) TeacherTimetable(c *gin.Context) {
	yearID, ok := requireYear(c)
	if !ok {
		return
	}
	teacherID, ok := resolveSelf(c, c.Param("id"))
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.service.TeacherTimetable(c.Request.Context(), yearID, teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, view.Cached)
	response.JSON(c, http.StatusOK, view, middleware.ExtractMeta(c))
}

// RunReminders godoc
// @Summary Scan for upcoming lessons and send reminders now
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ReminderRunRequest true "Reminder scan"
// @Success 200 {object} response.Envelope
// @Router /timetable/reminders/run [post]
func (h *TimetableHandler) RunReminders(c *gin.Context) {
	if h.reminders == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "reminders are not configured"))
		return
	}
	var req dto.ReminderRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.WrapAs(err, appErrors.ErrValidation, "invalid reminder payload"))
		return
	}
	result, err := h.reminders.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

func requireYear(c *gin.Context) (string, bool) {
	yearID := c.Query("academicYearId")
	if yearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academicYearId is required"))
		return "", false
	}
	return yearID, true
}
