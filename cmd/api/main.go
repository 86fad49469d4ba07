package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/admin"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/api/router"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/app/bootstrap"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/appointments"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/clinic"
	appconfig "github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/config"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/leads"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/observability/metrics"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/patients"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/internal/surveys"
	"github.com/Tatito1901/prediccion-hernia-vesicula-sub006/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic operations API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	// Optional runtime dependencies
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	clinicStore := bootstrap.BuildClinicStore(redisClient)
	reportDB := bootstrap.BuildReportDB(cfg.DatabaseURL, logger)
	if reportDB != nil {
		defer reportDB.Close()
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	admissionMetrics := metrics.NewAdmissionMetrics(registry)

	// Rule engine with persisted clinic settings overlay
	engine := bootstrap.BuildEngine(ctx, cfg, clinicStore, logger)

	// Initialize repositories and services
	patientRepo := patients.NewPostgresRepository(pool)
	leadRepo := leads.NewPostgresRepository(pool)
	surveyRepo := surveys.NewPostgresRepository(pool)
	apptRepo := appointments.NewRepository(pool)

	notifier := bootstrap.BuildNotifier(cfg, patientRepo, logger)
	apptService := appointments.NewService(apptRepo, engine, admissionMetrics, notifier, logger)

	// Initialize handlers
	apptHandler := appointments.NewHandler(apptService, logger)
	patientsHandler := patients.NewHandler(patientRepo, logger)
	leadsHandler := leads.NewHandler(leadRepo, logger)
	surveysHandler := surveys.NewHandler(surveyRepo, logger)

	statsHandler := clinic.NewStatsHandler(clinic.NewStatsRepository(pool), logger)
	dashboardHandler := clinic.NewDashboardHandler(
		clinic.NewDashboardRepository(pool), apptService, engine, registry, logger)
	clinicHandler := clinic.NewHandler(statsHandler, dashboardHandler, clinicStore, logger)

	var reportHandler *admin.ReportHandler
	if reportDB != nil {
		reportHandler = admin.NewReportHandler(reportDB, logger)
	}

	// Setup router
	routerCfg := &router.Config{
		Logger:              logger,
		AppointmentsHandler: apptHandler,
		PatientsHandler:     patientsHandler,
		LeadsHandler:        leadsHandler,
		SurveysHandler:      surveysHandler,
		ClinicHandler:       clinicHandler,
		AdminReport:         reportHandler,
		StaffJWTSecret:      cfg.AdminJWTSecret,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
