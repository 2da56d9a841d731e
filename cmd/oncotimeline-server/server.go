package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/oncotimeline/oncotimeline/internal/config"
	"github.com/oncotimeline/oncotimeline/internal/domain/drug"
	"github.com/oncotimeline/oncotimeline/internal/domain/knowledge"
	"github.com/oncotimeline/oncotimeline/internal/domain/patient"
	"github.com/oncotimeline/oncotimeline/internal/domain/phase"
	"github.com/oncotimeline/oncotimeline/internal/domain/timeline"
	"github.com/oncotimeline/oncotimeline/internal/platform/db"
	"github.com/oncotimeline/oncotimeline/internal/platform/middleware"
	"github.com/oncotimeline/oncotimeline/internal/platform/seed"
	"github.com/oncotimeline/oncotimeline/internal/platform/telemetry"
)

const version = "0.1.0"

// newServer wires middleware and routes. metrics may be nil when
// METRICS_ENABLED is off.
func newServer(cfg *config.Config, logger zerolog.Logger, b *backend, svc seed.Services, metrics *telemetry.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	if metrics != nil {
		e.Use(metrics.Middleware())
	}
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(b.driver, b.pinger))

	if metrics != nil {
		svc.Timeline.SetMutationRecorder(metrics)
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	apiV1 := e.Group("/api/v1")
	patient.NewHandler(svc.Patients).RegisterRoutes(apiV1)
	phase.NewHandler(svc.Phases).RegisterRoutes(apiV1)
	drug.NewHandler(svc.Drugs).RegisterRoutes(apiV1)
	timeline.NewHandler(svc.Timeline).RegisterRoutes(apiV1)
	knowledge.NewHandler(svc.Knowledge).RegisterRoutes(apiV1)

	return e
}
