package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-timetable/internal/dto"
	"github.com/noah-isme/sma-adp-timetable/internal/models"
	"github.com/noah-isme/sma-adp-timetable/internal/repository"
	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
	appErrors "github.com/noah-isme/sma-adp-timetable/pkg/errors"
	"github.com/noah-isme/sma-adp-timetable/pkg/export"
	"github.com/noah-isme/sma-adp-timetable/pkg/validation"
)

const unassignedTeacher = "unassigned"

type timetableEntryStore interface {
	ReplaceWeek(ctx context.Context, academicYearID string, classIDs []string, entries []models.TimetableEntry) error
	UpsertEntry(ctx context.Context, entry *models.TimetableEntry) error
	FindByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	ListByYear(ctx context.Context, academicYearID string) ([]models.TimetableEntry, error)
	ListByClass(ctx context.Context, academicYearID, classID string) ([]models.TimetableEntryDetail, error)
	ListByTeacher(ctx context.Context, academicYearID, teacherID string) ([]models.TimetableEntryDetail, error)
	Delete(ctx context.Context, id string) error
}

type timetableSettingsStore interface {
	Get(ctx context.Context, academicYearID string) (*models.TimetableSettings, error)
	Apply(ctx context.Context, settings *models.TimetableSettings, grid *timetable.Grid) (int, error)
}

type timetableClassReader interface {
	ListByYear(ctx context.Context, academicYearID string) ([]models.Class, error)
}

type timetableOfferingReader interface {
	ListByYear(ctx context.Context, academicYearID string) ([]models.ClassSubject, error)
}

type timetableTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type timetableCache interface {
	View(ctx context.Context, academicYearID string, kind ViewKind, id string, dest interface{}) (bool, error)
	StoreView(ctx context.Context, academicYearID string, kind ViewKind, id string, view interface{}) error
	InvalidateYear(ctx context.Context, academicYearID string) error
}

// TimetableConfig tunes the timetable service.
type TimetableConfig struct {
	DefaultGrid       timetable.GridConfig
	GenerationTimeout time.Duration
}

// TimetableService generates, validates and serves weekly timetables.
type TimetableService struct {
	entries   timetableEntryStore
	settings  timetableSettingsStore
	classes   timetableClassReader
	offerings timetableOfferingReader
	cache     timetableCache
	teachers  timetableTeacherReader
	metrics   *MetricsService
	validator *validation.Validator
	logger    *zap.Logger
	config    TimetableConfig
	seeds     func() int64
}

// NewTimetableService wires timetable dependencies.
func NewTimetableService(
	entries timetableEntryStore,
	settings timetableSettingsStore,
	classes timetableClassReader,
	offerings timetableOfferingReader,
	cache timetableCache,
	metrics *MetricsService,
	validate *validation.Validator,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultGrid.PeriodMinutes == 0 {
		cfg.DefaultGrid = timetable.DefaultGridConfig()
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = 30 * time.Second
	}
	return &TimetableService{
		entries:   entries,
		settings:  settings,
		classes:   classes,
		offerings: offerings,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		seeds:     func() int64 { return time.Now().UnixNano() },
	}
}

// UseTeacherDirectory makes the teacher view reject unknown teacher ids.
func (s *TimetableService) UseTeacherDirectory(teachers timetableTeacherReader) {
	s.teachers = teachers
}

// Settings returns the grid settings of a year, or the configured defaults.
func (s *TimetableService) Settings(ctx context.Context, academicYearID string) (*dto.GridSettingsResponse, error) {
	cfg, stored, err := s.gridConfig(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	return settingsResponse(academicYearID, cfg, !stored), nil
}

// UpdateSettings stores new grid settings. Lessons that no longer line up
// with the rebuilt grid are removed.
func (s *TimetableService) UpdateSettings(ctx context.Context, academicYearID string, req dto.GridSettingsRequest) (*dto.GridSettingsResponse, int, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, 0, err
	}
	cfg := timetable.GridConfig{
		Start:         timetable.MustClock(req.StartTime),
		End:           timetable.MustClock(req.EndTime),
		PeriodMinutes: req.PeriodMinutes,
		Breaks:        req.BreakPeriods,
	}
	grid, err := buildGrid(cfg)
	if err != nil {
		return nil, 0, err
	}

	row := models.SettingsFromGrid(academicYearID, grid.Config())
	removed, err := s.settings.Apply(ctx, &row, grid)
	if err != nil {
		return nil, 0, storageError(err, "failed to store timetable settings")
	}
	s.invalidate(ctx, academicYearID)
	s.logger.Info("timetable settings updated",
		zap.String("academic_year_id", academicYearID),
		zap.Int("periods", grid.PeriodCount()),
		zap.Int("removed_entries", removed))

	return settingsResponse(academicYearID, grid.Config(), false), removed, nil
}

// Grid previews the grid of a year with optional overrides.
func (s *TimetableService) Grid(ctx context.Context, q dto.GridQuery) (*dto.GridResponse, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, err
	}
	cfg := s.config.DefaultGrid
	if q.AcademicYearID != "" {
		stored, _, err := s.gridConfig(ctx, q.AcademicYearID)
		if err != nil {
			return nil, err
		}
		cfg = stored
	}
	if q.StartTime != "" {
		cfg.Start = timetable.MustClock(q.StartTime)
	}
	if q.EndTime != "" {
		cfg.End = timetable.MustClock(q.EndTime)
	}
	if q.PeriodMinutes > 0 {
		cfg.PeriodMinutes = q.PeriodMinutes
	}
	if q.BreakPeriods != nil {
		cfg.Breaks = q.BreakPeriods
	}
	grid, err := buildGrid(cfg)
	if err != nil {
		return nil, err
	}
	return &dto.GridResponse{
		Days:            grid.Days(),
		Periods:         grid.Periods(),
		TeachablePerDay: grid.TeachablePerDay(),
		TeachableCount:  grid.TeachableCount(),
	}, nil
}

// Generate rebuilds the week of an academic year, or of the requested
// classes only, and atomically replaces the stored lessons.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (resp *dto.GenerateTimetableResponse, err error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	started := time.Now()
	scope := "full"
	if len(req.ClassIDs) > 0 {
		scope = "scoped"
	}
	defer func() {
		entries, unfilled := 0, 0
		if resp != nil {
			entries, unfilled = resp.Entries, len(resp.Unfilled)
		}
		s.metrics.ObserveGeneration(scope, time.Since(started), entries, unfilled, err)
	}()

	grid, err := s.grid(ctx, req.AcademicYearID)
	if err != nil {
		return nil, err
	}
	roster, err := s.loadRoster(ctx, req.AcademicYearID)
	if err != nil {
		return nil, err
	}

	targets := roster.refs
	var scopeIDs []string
	if scope == "scoped" {
		targets, scopeIDs, err = roster.subset(req.ClassIDs)
		if err != nil {
			return nil, err
		}
	}

	index := timetable.NewConflictIndex(grid)
	var kept timetable.Week
	if scope == "scoped" {
		existing, err := s.entries.ListByYear(ctx, req.AcademicYearID)
		if err != nil {
			return nil, storageError(err, "failed to load timetable")
		}
		inScope := make(map[string]struct{}, len(scopeIDs))
		for _, id := range scopeIDs {
			inScope[id] = struct{}{}
		}
		for _, entry := range existing {
			if _, ok := inScope[entry.ClassID]; !ok {
				kept = append(kept, entry.Assignment())
			}
		}
		index.Seed(kept)
	}

	seed := s.seeds()
	if req.Seed != nil {
		seed = *req.Seed
	}

	genCtx, cancel := context.WithTimeout(ctx, s.config.GenerationTimeout)
	defer cancel()
	result, err := timetable.NewSeededGenerator(seed).Generate(genCtx, grid, targets, roster.offerings, index)
	if err != nil {
		if errors.Is(err, timetable.ErrInvalidGridConfiguration) {
			return nil, appErrors.WrapAs(err, appErrors.ErrInvalidGridConfiguration, err.Error())
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "timetable generation did not finish")
	}

	combined := append(append(timetable.Week(nil), kept...), result.Week...)
	if err := combined.Verify(grid); err != nil {
		s.logger.Error("generated timetable failed verification", zap.String("academic_year_id", req.AcademicYearID), zap.Error(err))
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "generated timetable is inconsistent")
	}

	rows := make([]models.TimetableEntry, 0, len(result.Week))
	for _, a := range result.Week {
		rows = append(rows, models.NewTimetableEntry(req.AcademicYearID, a))
	}
	if err := s.entries.ReplaceWeek(ctx, req.AcademicYearID, scopeIDs, rows); err != nil {
		return nil, storageError(err, "failed to replace timetable")
	}
	s.invalidate(ctx, req.AcademicYearID)

	for _, w := range result.Warnings {
		s.logger.Warn("timetable generation warning",
			zap.String("academic_year_id", req.AcademicYearID), zap.String("class_id", w.ClassID), zap.String("message", w.Message))
	}
	if len(result.Unfilled) > 0 {
		s.logger.Warn("timetable generation left slots empty",
			zap.String("academic_year_id", req.AcademicYearID), zap.Int("unfilled", len(result.Unfilled)), zap.Int64("seed", seed))
	}
	s.logger.Info("week replaced",
		zap.String("academic_year_id", req.AcademicYearID),
		zap.String("scope", scope),
		zap.Int("classes", len(targets)),
		zap.Int("entries", len(rows)),
		zap.Int64("seed", seed))

	return &dto.GenerateTimetableResponse{
		Message:        "week replaced",
		AcademicYearID: req.AcademicYearID,
		Seed:           seed,
		Classes:        len(targets),
		Entries:        len(rows),
		Warnings:       nonNilWarnings(result.Warnings),
		Unfilled:       nonNilUnfilled(result.Unfilled),
	}, nil
}

// Validate checks a proposed lesson against the stored week without writing.
func (s *TimetableService) Validate(ctx context.Context, req dto.SlotRequest) (timetable.Verdict, error) {
	verdict, _, err := s.check(ctx, req)
	return verdict, err
}

// UpsertEntry validates and stores a single lesson. Rejected proposals return
// the verdict alongside ErrSlotRejected.
func (s *TimetableService) UpsertEntry(ctx context.Context, req dto.SlotRequest) (*dto.SlotResponse, error) {
	verdict, state, err := s.check(ctx, req)
	if err != nil {
		return nil, err
	}
	resp := &dto.SlotResponse{Verdict: verdict}
	if !verdict.Accepted {
		return resp, appErrors.Clone(appErrors.ErrSlotRejected, verdict.Message)
	}

	entry := models.NewTimetableEntry(req.AcademicYearID, state.candidate.Assignment(req.EditOf))
	if req.EditOf != "" {
		entry.Version = state.versions[req.EditOf]
		if req.Version > 0 {
			entry.Version = req.Version
		}
	}
	if err := s.entries.UpsertEntry(ctx, &entry); err != nil {
		if errors.Is(err, repository.ErrConcurrentModification) {
			return nil, appErrors.WrapAs(err, appErrors.ErrConcurrentModification, "")
		}
		return nil, storageError(err, "failed to store timetable entry")
	}
	s.invalidate(ctx, req.AcademicYearID)
	s.logger.Info("timetable entry stored",
		zap.String("entry_id", entry.ID),
		zap.String("class_id", entry.ClassID),
		zap.String("day", entry.Day.String()),
		zap.Int("period", entry.Period),
		zap.Int("version", entry.Version))

	resp.Entry = entry
	return resp, nil
}

// DeleteEntry removes a lesson.
func (s *TimetableService) DeleteEntry(ctx context.Context, id string) error {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return storageError(err, "failed to load timetable entry")
	}
	if err := s.entries.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return storageError(err, "failed to delete timetable entry")
	}
	s.invalidate(ctx, entry.AcademicYearID)
	return nil
}

// ClassTimetable lays out a class's week over the grid.
func (s *TimetableService) ClassTimetable(ctx context.Context, academicYearID, classID string) (*dto.ClassTimetableResponse, error) {
	var cached dto.ClassTimetableResponse
	if s.cachedView(ctx, academicYearID, ClassView, classID, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	grid, err := s.grid(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	classes, err := s.classes.ListByYear(ctx, academicYearID)
	if err != nil {
		return nil, storageError(err, "failed to load classes")
	}
	var className string
	for _, c := range classes {
		if c.ID == classID {
			className = c.Name
		}
	}
	if className == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	details, err := s.entries.ListByClass(ctx, academicYearID, classID)
	if err != nil {
		return nil, storageError(err, "failed to load class timetable")
	}
	byID := make(map[string]models.TimetableEntryDetail, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	layout := models.Week(models.Entries(details)).ClassGrid(grid, classID)
	resp := &dto.ClassTimetableResponse{AcademicYearID: academicYearID, ClassID: classID, ClassName: className}
	for _, day := range layout.Days {
		row := dto.ClassTimetableDay{Day: day.Day}
		for _, cell := range day.Cells {
			out := dto.ClassTimetableCell{Period: cell.Period, StartTime: cell.Start, EndTime: cell.End, Break: cell.Break}
			if cell.Lesson != nil {
				lesson := lessonView(byID[cell.Lesson.ID])
				out.Lesson = &lesson
			}
			row.Cells = append(row.Cells, out)
		}
		resp.Days = append(resp.Days, row)
	}
	s.storeView(ctx, academicYearID, ClassView, classID, resp)
	return resp, nil
}

// TeacherTimetable returns a teacher's week grouped by day. Results are
// cached until the next write to the year.
func (s *TimetableService) TeacherTimetable(ctx context.Context, academicYearID, teacherID string) (*dto.TeacherTimetableResponse, error) {
	var cached dto.TeacherTimetableResponse
	if s.cachedView(ctx, academicYearID, TeacherView, teacherID, &cached) {
		cached.Cached = true
		return &cached, nil
	}

	if s.teachers != nil {
		if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
			}
			return nil, storageError(err, "failed to load teacher")
		}
	}

	details, err := s.entries.ListByTeacher(ctx, academicYearID, teacherID)
	if err != nil {
		return nil, storageError(err, "failed to load teacher timetable")
	}
	byID := make(map[string]models.TimetableEntryDetail, len(details))
	for _, d := range details {
		byID[d.ID] = d
	}

	resp := &dto.TeacherTimetableResponse{AcademicYearID: academicYearID, TeacherID: teacherID, Days: []dto.TeacherTimetableDay{}}
	for _, day := range models.Week(models.Entries(details)).ForTeacher(teacherID) {
		out := dto.TeacherTimetableDay{Day: day.Day}
		for _, a := range day.Assignments {
			out.Lessons = append(out.Lessons, lessonView(byID[a.ID]))
		}
		resp.Days = append(resp.Days, out)
	}

	s.storeView(ctx, academicYearID, TeacherView, teacherID, resp)
	return resp, nil
}

// ExportClass renders a class's week as csv, pdf or xlsx.
func (s *TimetableService) ExportClass(ctx context.Context, classID string, q dto.ExportQuery) (string, string, []byte, error) {
	if err := s.validator.Struct(q); err != nil {
		return "", "", nil, err
	}
	format, err := export.ParseFormat(q.Format)
	if err != nil {
		return "", "", nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	view, err := s.ClassTimetable(ctx, q.AcademicYearID, classID)
	if err != nil {
		return "", "", nil, err
	}
	renderer, err := export.NewRenderer(format)
	if err != nil {
		return "", "", nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	body, err := renderer.Render(classDataset(view))
	if err != nil {
		return "", "", nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to render timetable export")
	}
	filename := fmt.Sprintf("timetable-%s.%s", slug(view.ClassName), format)
	return filename, format.ContentType(), body, nil
}

type checkState struct {
	candidate timetable.Candidate
	versions  map[string]int
}

func (s *TimetableService) check(ctx context.Context, req dto.SlotRequest) (timetable.Verdict, checkState, error) {
	if err := s.validator.Struct(req); err != nil {
		return timetable.Verdict{}, checkState{}, err
	}
	grid, err := s.grid(ctx, req.AcademicYearID)
	if err != nil {
		return timetable.Verdict{}, checkState{}, err
	}
	roster, err := s.loadRoster(ctx, req.AcademicYearID)
	if err != nil {
		return timetable.Verdict{}, checkState{}, err
	}
	stored, err := s.entries.ListByYear(ctx, req.AcademicYearID)
	if err != nil {
		return timetable.Verdict{}, checkState{}, storageError(err, "failed to load timetable")
	}

	state := checkState{versions: make(map[string]int, len(stored))}
	for _, e := range stored {
		state.versions[e.ID] = e.Version
	}
	if req.EditOf != "" {
		if _, ok := state.versions[req.EditOf]; !ok {
			return timetable.Verdict{}, checkState{}, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
	}

	candidate := timetable.Candidate{
		EditOf:    req.EditOf,
		ClassID:   req.ClassID,
		SubjectID: req.SubjectID,
		TeacherID: req.TeacherID,
		Day:       req.Day,
		Period:    req.Period,
	}
	if slot, ok := grid.Slot(req.Day, req.Period); ok {
		candidate.Start, candidate.End = slot.Start, slot.End
	}
	if req.StartTime != "" {
		candidate.Start = timetable.MustClock(req.StartTime)
	}
	if req.EndTime != "" {
		candidate.End = timetable.MustClock(req.EndTime)
	}
	state.candidate = candidate

	dir := timetable.NewRoster(roster.refs, roster.offerings)
	verdict := timetable.NewValidator(grid, dir, models.Week(stored)).Validate(candidate)

	outcome := "accepted"
	if !verdict.Accepted {
		outcome = string(verdict.Reason)
		s.logger.Info("timetable slot rejected",
			zap.String("class_id", req.ClassID),
			zap.String("reason", outcome),
			zap.String("message", verdict.Message))
	}
	s.metrics.ObserveValidation(outcome)
	return verdict, state, nil
}

type yearRoster struct {
	refs      []timetable.ClassRef
	offerings map[string][]timetable.Offering
}

func (s *TimetableService) loadRoster(ctx context.Context, academicYearID string) (yearRoster, error) {
	classes, err := s.classes.ListByYear(ctx, academicYearID)
	if err != nil {
		return yearRoster{}, storageError(err, "failed to load classes")
	}
	rows, err := s.offerings.ListByYear(ctx, academicYearID)
	if err != nil {
		return yearRoster{}, storageError(err, "failed to load class subjects")
	}
	out := yearRoster{
		refs:      make([]timetable.ClassRef, 0, len(classes)),
		offerings: make(map[string][]timetable.Offering, len(classes)),
	}
	for _, c := range classes {
		out.refs = append(out.refs, timetable.ClassRef{ID: c.ID, Name: c.Name})
	}
	for _, r := range rows {
		out.offerings[r.ClassID] = append(out.offerings[r.ClassID], timetable.Offering{
			ClassID:   r.ClassID,
			SubjectID: r.SubjectID,
			TeacherID: r.TeacherID,
		})
	}
	return out, nil
}

// subset keeps the requested classes in roster order, rejecting unknown ids.
func (r yearRoster) subset(classIDs []string) ([]timetable.ClassRef, []string, error) {
	wanted := make(map[string]struct{}, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = struct{}{}
	}
	var refs []timetable.ClassRef
	var ids []string
	for _, ref := range r.refs {
		if _, ok := wanted[ref.ID]; ok {
			refs = append(refs, ref)
			ids = append(ids, ref.ID)
			delete(wanted, ref.ID)
		}
	}
	for _, id := range classIDs {
		if _, missing := wanted[id]; missing {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("class %s not found in academic year", id))
		}
	}
	return refs, ids, nil
}

func (s *TimetableService) gridConfig(ctx context.Context, academicYearID string) (timetable.GridConfig, bool, error) {
	row, err := s.settings.Get(ctx, academicYearID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.config.DefaultGrid, false, nil
		}
		return timetable.GridConfig{}, false, storageError(err, "failed to load timetable settings")
	}
	return row.GridConfig(), true, nil
}

func (s *TimetableService) grid(ctx context.Context, academicYearID string) (*timetable.Grid, error) {
	cfg, _, err := s.gridConfig(ctx, academicYearID)
	if err != nil {
		return nil, err
	}
	return buildGrid(cfg)
}

// Cache failures fall through to the database.
func (s *TimetableService) cachedView(ctx context.Context, academicYearID string, kind ViewKind, id string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, _ := s.cache.View(ctx, academicYearID, kind, id, dest)
	return hit
}

func (s *TimetableService) storeView(ctx context.Context, academicYearID string, kind ViewKind, id string, view interface{}) {
	if s.cache == nil {
		return
	}
	_ = s.cache.StoreView(ctx, academicYearID, kind, id, view)
}

func (s *TimetableService) invalidate(ctx context.Context, academicYearID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.InvalidateYear(ctx, academicYearID)
}

func buildGrid(cfg timetable.GridConfig) (*timetable.Grid, error) {
	grid, err := timetable.BuildGrid(cfg)
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrInvalidGridConfiguration, err.Error())
	}
	return grid, nil
}

func storageError(err error, message string) error {
	return appErrors.WrapAs(err, appErrors.ErrStorageFailure, message)
}

func settingsResponse(academicYearID string, cfg timetable.GridConfig, isDefault bool) *dto.GridSettingsResponse {
	breaks := cfg.Breaks
	if breaks == nil {
		breaks = []int{}
	}
	return &dto.GridSettingsResponse{
		AcademicYearID: academicYearID,
		StartTime:      cfg.Start,
		EndTime:        cfg.End,
		PeriodMinutes:  cfg.PeriodMinutes,
		BreakPeriods:   breaks,
		Default:        isDefault,
	}
}

func lessonView(d models.TimetableEntryDetail) dto.TimetableLesson {
	teacher := unassignedTeacher
	if d.TeacherName != nil && d.TeacherID != nil {
		teacher = *d.TeacherName
	}
	return dto.TimetableLesson{
		ID:        d.ID,
		ClassID:   d.ClassID,
		ClassName: d.ClassName,
		SubjectID: d.SubjectID,
		Subject:   d.SubjectName,
		TeacherID: d.TeacherID,
		Teacher:   teacher,
		Day:       d.Day,
		Period:    d.Period,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Version:   d.Version,
	}
}

func classDataset(view *dto.ClassTimetableResponse) export.Dataset {
	headers := []string{"Period"}
	for _, day := range view.Days {
		headers = append(headers, day.Day.Title())
	}
	data := export.Dataset{Title: fmt.Sprintf("Class %s Timetable", view.ClassName), Headers: headers}
	if len(view.Days) == 0 {
		return data
	}
	for i, cell := range view.Days[0].Cells {
		row := map[string]string{
			"Period": fmt.Sprintf("%d (%s-%s)", cell.Period, cell.StartTime, cell.EndTime),
		}
		for _, day := range view.Days {
			c := day.Cells[i]
			switch {
			case c.Break:
				row[day.Day.Title()] = "Break"
			case c.Lesson != nil:
				row[day.Day.Title()] = c.Lesson.Subject + " / " + c.Lesson.Teacher
			}
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, name)
}

func nonNilWarnings(in []timetable.Warning) []timetable.Warning {
	if in == nil {
		return []timetable.Warning{}
	}
	return in
}

func nonNilUnfilled(in []timetable.Unfilled) []timetable.Unfilled {
	if in == nil {
		return []timetable.Unfilled{}
	}
	return in
}
