package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-adp-timetable/api/swagger"
	"github.com/noah-isme/sma-adp-timetable/internal/handler"
	"github.com/noah-isme/sma-adp-timetable/internal/repository"
	"github.com/noah-isme/sma-adp-timetable/internal/service"
	"github.com/noah-isme/sma-adp-timetable/internal/timetable"
	"github.com/noah-isme/sma-adp-timetable/pkg/cache"
	"github.com/noah-isme/sma-adp-timetable/pkg/config"
	"github.com/noah-isme/sma-adp-timetable/pkg/database"
	"github.com/noah-isme/sma-adp-timetable/pkg/jobs"
	"github.com/noah-isme/sma-adp-timetable/pkg/logger"
	"github.com/noah-isme/sma-adp-timetable/pkg/notify"
	"github.com/noah-isme/sma-adp-timetable/pkg/validation"
)

// @title SMA ADP Timetable API
// @version 1.0.0
// @description Weekly timetable generation, validation and lesson reminders.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	var rdb *redis.Client
	if client, err := cache.NewRedis(ctx, cfg.Redis); err != nil {
		logr.Warn("redis unavailable, caching and reminder dedupe disabled", zap.Error(err))
	} else {
		rdb = client
		defer rdb.Close()
	}

	defaultGrid, err := gridDefaults(cfg.Timetable)
	if err != nil {
		logr.Fatal("invalid default timetable grid", zap.Error(err))
	}
	location := time.Local
	if cfg.Reminders.Timezone != "" {
		if location, err = time.LoadLocation(cfg.Reminders.Timezone); err != nil {
			logr.Fatal("invalid reminder timezone", zap.String("timezone", cfg.Reminders.Timezone), zap.Error(err))
		}
	}

	validate := validation.New()
	metricsSvc := service.NewMetricsService()

	timetableRepo := repository.NewTimetableRepository(db)
	settingsRepo := repository.NewTimetableSettingsRepository(db)
	classRepo := repository.NewClassRepository(db)
	offeringRepo := repository.NewClassSubjectRepository(db)
	cacheRepo := repository.NewCacheRepository(rdb)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Timetable.CacheTTL, logr, rdb != nil)
	timetableSvc := service.NewTimetableService(timetableRepo, settingsRepo, classRepo, offeringRepo, cacheSvc, metricsSvc, validate, logr, service.TimetableConfig{
		DefaultGrid:       defaultGrid,
		GenerationTimeout: cfg.Timetable.GenerationTimeout,
	})
	timetableSvc.UseTeacherDirectory(repository.NewTeacherRepository(db))

	notifier, err := notify.New(cfg.Notify, logr)
	if err != nil {
		logr.Fatal("failed to init notifier", zap.String("transport", cfg.Notify.Transport), zap.Error(err))
	}
	defer notifier.Close() //nolint:errcheck

	reminderSvc := service.NewReminderService(timetableRepo, cacheRepo, notifier, metricsSvc, validate, logr, service.ReminderConfig{
		AcademicYears: cfg.Reminders.AcademicYears,
		Location:      location,
		Interval:      cfg.Reminders.Interval,
		DedupeTTL:     cfg.Reminders.DedupeTTL,
	})
	reminderQueue := jobs.NewQueue("reminders", reminderSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Reminders.Workers,
		BufferSize: cfg.Reminders.BufferSize,
		MaxRetries: cfg.Reminders.MaxRetries,
		RetryDelay: cfg.Reminders.RetryDelay,
		OnDrop:     reminderSvc.Drop,
		Logger:     logr,
	})
	reminderQueue.Start(ctx)
	defer reminderQueue.Stop()
	reminderSvc.UseQueue(reminderQueue)
	if cfg.Reminders.Enabled {
		reminderSvc.StartScheduler(ctx)
		logr.Info("reminder scheduler started",
			zap.Strings("academic_years", cfg.Reminders.AcademicYears),
			zap.Duration("interval", cfg.Reminders.Interval))
	}

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	router := newRouter(cfg, logr, routerDeps{
		tokens:    service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
		metrics:   metricsSvc,
		timetable: handler.NewTimetableHandler(timetableSvc, reminderSvc),
		ops:       handler.NewMetricsHandler(metricsSvc, checks),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown failed", zap.Error(err))
	}
}

func gridDefaults(cfg config.TimetableConfig) (timetable.GridConfig, error) {
	start, err := timetable.ParseClock(cfg.DefaultStart)
	if err != nil {
		return timetable.GridConfig{}, fmt.Errorf("TIMETABLE_DEFAULT_START: %w", err)
	}
	end, err := timetable.ParseClock(cfg.DefaultEnd)
	if err != nil {
		return timetable.GridConfig{}, fmt.Errorf("TIMETABLE_DEFAULT_END: %w", err)
	}
	grid := timetable.GridConfig{
		Start:         start,
		End:           end,
		PeriodMinutes: cfg.DefaultPeriodMinutes,
		Breaks:        cfg.DefaultBreaks,
	}
	if _, err := timetable.BuildGrid(grid); err != nil {
		return timetable.GridConfig{}, err
	}
	return grid, nil
}
