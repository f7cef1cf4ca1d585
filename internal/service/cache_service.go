package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-adp-timetable/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ViewKind names a rendered timetable view kept in cache.
type ViewKind string

const (
	ClassView   ViewKind = "class"
	TeacherView ViewKind = "teacher"
)

// CacheService keeps rendered timetable views per academic year. Every view
// of a year is dropped together whenever that year's week changes.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// View loads a cached view into dest and reports whether it was found. Backend
// failures are returned alongside a miss.
func (s *CacheService) View(ctx context.Context, academicYearID string, kind ViewKind, id string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	key := viewKey(academicYearID, kind, id)
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	switch {
	case err == nil:
		s.metrics.RecordCacheOperation(true, time.Since(start))
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		s.metrics.RecordCacheOperation(false, time.Since(start))
		return false, nil
	default:
		s.metrics.RecordCacheOperation(false, time.Since(start))
		s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// StoreView caches a rendered view until the configured TTL or the next
// write to its year.
func (s *CacheService) StoreView(ctx context.Context, academicYearID string, kind ViewKind, id string, view interface{}) error {
	if !s.Enabled() {
		return nil
	}
	key := viewKey(academicYearID, kind, id)
	if err := s.repo.Set(ctx, key, view, s.ttl); err != nil {
		s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateYear drops every cached view of an academic year.
func (s *CacheService) InvalidateYear(ctx context.Context, academicYearID string) error {
	if !s.Enabled() {
		return nil
	}
	pattern := yearKeyPrefix(academicYearID) + "*"
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("timetable cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

func yearKeyPrefix(academicYearID string) string {
	return fmt.Sprintf("timetable:%s:", academicYearID)
}

func viewKey(academicYearID string, kind ViewKind, id string) string {
	return yearKeyPrefix(academicYearID) + string(kind) + ":" + id
}
