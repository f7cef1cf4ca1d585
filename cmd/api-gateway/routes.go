package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-adp-timetable/internal/handler"
	"github.com/noah-isme/sma-adp-timetable/internal/middleware"
	"github.com/noah-isme/sma-adp-timetable/internal/models"
	"github.com/noah-isme/sma-adp-timetable/internal/service"
	"github.com/noah-isme/sma-adp-timetable/pkg/config"
	"github.com/noah-isme/sma-adp-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-adp-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-adp-timetable/pkg/middleware/requestid"
)

type routerDeps struct {
	tokens    middleware.TokenValidator
	metrics   *service.MetricsService
	timetable *handler.TimetableHandler
	ops       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.ops.Health)
	r.GET("/ready", deps.ops.Ready)
	r.GET("/metrics", deps.ops.Prometheus)
	r.GET("/metrics/summary", deps.ops.Snapshot)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	editors := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	checkers := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleTeacher)
	teacherView := middleware.RBAC(string(models.RoleAdmin), string(models.RoleSuperAdmin), middleware.Self)

	api := r.Group(cfg.APIPrefix, middleware.JWT(deps.tokens))
	tt := api.Group("/timetable")
	{
		h := deps.timetable
		tt.GET("/settings/:yearId", h.Settings)
		tt.PUT("/settings/:yearId", editors, h.UpdateSettings)
		tt.GET("/grid", h.Grid)
		tt.POST("/generate", editors, h.Generate)
		tt.POST("/validate", checkers, h.Validate)
		tt.PUT("/entries", editors, h.UpsertEntry)
		tt.DELETE("/entries/:id", editors, h.DeleteEntry)
		tt.GET("/classes/:classId", h.ClassTimetable)
		tt.GET("/classes/:classId/export", h.ExportClass)
		tt.GET("/teachers/:id", teacherView, h.TeacherTimetable)
		tt.POST("/reminders/run", editors, h.RunReminders)
	}

	return r
}
