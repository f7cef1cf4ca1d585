package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-adp-timetable/internal/dto"
	internalmiddleware "github.com/noah-isme/sma-adp-timetable/internal/middleware"
	"github.com/noah-isme/sma-adp-timetable/internal/models"
	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-adp-timetable/pkg/errors"
)

type timetableServiceMock struct {
	generateReq  dto.GenerateTimetableRequest
	slotReq      dto.SlotRequest
	teacherID    string
	yearID       string
	deletedID    string
	exportQuery  dto.ExportQuery
	upsertResult *dto.SlotResponse
	upsertErr    error
	deleteErr    error
}

func (m *timetableServiceMock) Settings(ctx context.Context, academicYearID string) (*dto.GridSettingsResponse, error) {
	return &dto.GridSettingsResponse{AcademicYearID: academicYearID, PeriodMinutes: 45, Default: true}, nil
}

func (m *timetableServiceMock) UpdateSettings(ctx context.Context, academicYearID string, req dto.GridSettingsRequest) (*dto.GridSettingsResponse, int, error) {
	return &dto.GridSettingsResponse{AcademicYearID: academicYearID, PeriodMinutes: req.PeriodMinutes}, 2, nil
}

func (m *timetableServiceMock) Grid(ctx context.Context, q dto.GridQuery) (*dto.GridResponse, error) {
	return &dto.GridResponse{TeachablePerDay: len(q.BreakPeriods)}, nil
}

func (m *timetableServiceMock) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	m.generateReq = req
	return &dto.GenerateTimetableResponse{Message: "week replaced", AcademicYearID: req.AcademicYearID, Entries: 60}, nil
}

func (m *timetableServiceMock) Validate(ctx context.Context, req dto.SlotRequest) (timetable.Verdict, error) {
	m.slotReq = req
	return timetable.Verdict{Reason: timetable.ReasonTeacherOverlap, Message: "Monday period 1: teacher already teaches Class 7A"}, nil
}

func (m *timetableServiceMock) UpsertEntry(ctx context.Context, req dto.SlotRequest) (*dto.SlotResponse, error) {
	m.slotReq = req
	return m.upsertResult, m.upsertErr
}

func (m *timetableServiceMock) DeleteEntry(ctx context.Context, id string) error {
	m.deletedID = id
	return m.deleteErr
}

func (m *timetableServiceMock) ClassTimetable(ctx context.Context, academicYearID, classID string) (*dto.ClassTimetableResponse, error) {
	m.yearID = academicYearID
	return &dto.ClassTimetableResponse{AcademicYearID: academicYearID, ClassID: classID}, nil
}

func (m *timetableServiceMock) TeacherTimetable(ctx context.Context, academicYearID, teacherID string) (*dto.TeacherTimetableResponse, error) {
	m.yearID = academicYearID
	m.teacherID = teacherID
	return &dto.TeacherTimetableResponse{AcademicYearID: academicYearID, TeacherID: teacherID}, nil
}

func (m *timetableServiceMock) ExportClass(ctx context.Context, classID string, q dto.ExportQuery) (string, string, []byte, error) {
	m.exportQuery = q
	return "timetable-7a.csv", "text/csv", []byte("Period,Monday\n"), nil
}

type reminderRunnerMock struct {
	req dto.ReminderRunRequest
}

func (m *reminderRunnerMock) Run(ctx context.Context, req dto.ReminderRunRequest) (*dto.ReminderRunResponse, error) {
	m.req = req
	return &dto.ReminderRunResponse{Scanned: 3, Queued: 1}, nil
}

func withClaims(userID string, role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
		c.Next()
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req, _ := http.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestTimetableGenerateBindsPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	handler := &TimetableHandler{service: mockSvc}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/timetable/generate", `{"academicYearId":"ay-1","classIds":["class-7a"],"seed":42}`)

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ay-1", mockSvc.generateReq.AcademicYearID)
	assert.Equal(t, []string{"class-7a"}, mockSvc.generateReq.ClassIDs)
	require.NotNil(t, mockSvc.generateReq.Seed)
	assert.Equal(t, int64(42), *mockSvc.generateReq.Seed)

	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "week replaced", data["message"])
}

func TestTimetableGenerateRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/timetable/generate", `{"academicYearId":`)

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableValidateReturnsVerdict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	handler := &TimetableHandler{service: mockSvc}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/timetable/validate",
		`{"academicYearId":"ay-1","classId":"class-7b","subjectId":"maths","teacherId":"ana","day":"monday","period":1}`)

	handler.Validate(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, timetable.Monday, mockSvc.slotReq.Day)
	require.NotNil(t, mockSvc.slotReq.TeacherID)
	assert.Equal(t, "ana", *mockSvc.slotReq.TeacherID)

	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, false, data["accepted"])
	assert.Equal(t, "teacher_overlap", data["reason"])
}

func TestTimetableUpsertRejectedCarriesVerdict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{
		upsertResult: &dto.SlotResponse{Verdict: timetable.Verdict{Reason: timetable.ReasonBreakPeriod, Message: "Wednesday period 3 is a break"}},
		upsertErr:    appErrors.Clone(appErrors.ErrSlotRejected, "Wednesday period 3 is a break"),
	}
	handler := &TimetableHandler{service: mockSvc}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPut, "/timetable/entries",
		`{"academicYearId":"ay-1","classId":"class-7a","subjectId":"maths","day":"wednesday","period":3}`)

	handler.UpsertEntry(c)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	verdict := body["data"].(map[string]interface{})["verdict"].(map[string]interface{})
	assert.Equal(t, "break_period", verdict["reason"])
	assert.Equal(t, "SLOT_REJECTED", body["error"].(map[string]interface{})["code"])
}

func TestTimetableUpsertConcurrentModification(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{upsertErr: appErrors.ErrConcurrentModification}}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPut, "/timetable/entries",
		`{"academicYearId":"ay-1","editOf":"e1","version":1,"classId":"class-7a","subjectId":"maths","day":"tuesday","period":2}`)

	handler.UpsertEntry(c)

	require.Equal(t, http.StatusConflict, w.Code)
	body := decodeEnvelope(t, w)
	assert.Nil(t, body["data"])
	assert.Equal(t, "CONCURRENT_MODIFICATION", body["error"].(map[string]interface{})["code"])
}

func TestTimetableDeleteEntry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	router := gin.New()
	router.DELETE("/timetable/entries/:id", (&TimetableHandler{service: mockSvc}).DeleteEntry)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodDelete, "/timetable/entries/e1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "e1", mockSvc.deletedID)

	mockSvc.deleteErr = appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimetableClassViewRequiresYear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	router := gin.New()
	router.GET("/timetable/classes/:classId", (&TimetableHandler{service: mockSvc}).ClassTimetable)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetable/classes/class-7a", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/timetable/classes/class-7a?academicYearId=ay-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ay-1", mockSvc.yearID)
}

func TestTimetableGridBindsBreaks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/timetable/grid", (&TimetableHandler{service: &timetableServiceMock{}}).Grid)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetable/grid?periodMinutes=40&breaks=3&breaks=6", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["teachablePerDay"])
}

func TestTimetableUpdateSettingsReportsRemovedEntries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.PUT("/timetable/settings/:yearId", (&TimetableHandler{service: &timetableServiceMock{}}).UpdateSettings)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPut, "/timetable/settings/ay-1",
		`{"startTime":"07:00","endTime":"12:00","periodMinutes":45,"breakPeriods":[3]}`))

	require.Equal(t, http.StatusOK, w.Code)
	meta := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["removedEntries"])
}

func TestTimetableExportSetsAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	router := gin.New()
	router.GET("/timetable/classes/:classId/export", (&TimetableHandler{service: mockSvc}).ExportClass)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetable/classes/class-7a/export?academicYearId=ay-1&format=csv", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="timetable-7a.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "csv", mockSvc.exportQuery.Format)
	assert.Equal(t, "Period,Monday\n", w.Body.String())
}

func TestTimetableTeacherViewSelfAccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	router := gin.New()
	router.GET("/timetable/teachers/:id",
		withClaims("ana", models.RoleTeacher),
		internalmiddleware.RBAC(string(models.RoleAdmin), internalmiddleware.Self),
		(&TimetableHandler{service: mockSvc}).TeacherTimetable)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetable/teachers/ana?academicYearId=ay-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana", mockSvc.teacherID)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/timetable/teachers/me?academicYearId=ay-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana", mockSvc.teacherID)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/timetable/teachers/budi?academicYearId=ay-1", nil)
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestTimetableRunReminders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reminders := &reminderRunnerMock{}
	handler := &TimetableHandler{service: &timetableServiceMock{}, reminders: reminders}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/timetable/reminders/run", `{"academicYearId":"ay-1","at":"2024-01-08T06:15:00Z"}`)

	handler.RunReminders(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-01-08T06:15:00Z", reminders.req.At)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["queued"])
}

func TestTimetableTeacherViewReportsCacheMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	router.GET("/timetable/teachers/:id", (&TimetableHandler{service: &timetableServiceMock{}}).TeacherTimetable)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/timetable/teachers/budi?academicYearId=ay-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	meta := decodeEnvelope(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, false, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
