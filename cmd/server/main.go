package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/CarlosSantos19/parqueadero-app/internal/access/audit"
	accesshandler "github.com/CarlosSantos19/parqueadero-app/internal/access/handler"
	accessservice "github.com/CarlosSantos19/parqueadero-app/internal/access/service"
	accessstore "github.com/CarlosSantos19/parqueadero-app/internal/access/store"
	directoryhandler "github.com/CarlosSantos19/parqueadero-app/internal/directory/handler"
	directoryservice "github.com/CarlosSantos19/parqueadero-app/internal/directory/service"
	directorystore "github.com/CarlosSantos19/parqueadero-app/internal/directory/store"
	"github.com/CarlosSantos19/parqueadero-app/internal/plate"
	platehandler "github.com/CarlosSantos19/parqueadero-app/internal/plate/handler"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/config"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/database"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/health"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/httpserver"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/logger"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/metrics"
	"github.com/CarlosSantos19/parqueadero-app/internal/platform/token"
	httptransport "github.com/CarlosSantos19/parqueadero-app/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing parking access service",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	m := metrics.New()

	// Stores: PostgreSQL when configured, in-memory otherwise.
	var (
		employees directorystore.EmployeeStore
		visitors  directorystore.VisitorStore
		events    accessstore.EventStore
	)
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.DatabaseURL
	pool, err := database.New(dbCfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
		if err := pool.Migrate(migrateCtx); err != nil {
			cancelMigrate()
			log.Error("database migration failed", "error", err)
			os.Exit(1)
		}
		cancelMigrate()
		employees = directorystore.NewPostgresEmployees(pool.DB())
		visitors = directorystore.NewPostgresVisitors(pool.DB())
		events = accessstore.NewPostgresEvents(pool.DB())
		log.Info("using postgres stores")
	} else {
		employees = directorystore.NewInMemoryEmployees()
		visitors = directorystore.NewInMemoryVisitors()
		events = accessstore.NewInMemoryEvents()
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	recorder := audit.NewRecorder(events,
		audit.WithAsyncBuffer(cfg.AuditBuffer),
		audit.WithLogger(log),
		audit.WithMetrics(m),
	)
	defer recorder.Close()

	directory := directoryservice.NewService(employees, visitors, log,
		directoryservice.WithVisitorLookback(cfg.VisitorLookback))
	access := accessservice.NewService(directory, events, recorder, log,
		accessservice.WithMetrics(m))

	var recognizer plate.Recognizer
	if cfg.OCREngineURL != "" {
		recognizer = plate.NewEngineRecognizer(cfg.OCREngineURL)
	} else {
		recognizer = plate.EchoRecognizer{}
		log.Warn("OCR_ENGINE_URL not set, using echo recognizer")
	}
	normalizer := plate.NewNormalizer(plate.Config{
		PatternMatchFloor: cfg.PatternMatchFloor,
		FallbackFloor:     cfg.FallbackFloor,
		NoMatchCeiling:    cfg.NoMatchCeiling,
		FallbackScale:     cfg.FallbackScale,
	})
	recognition := plate.NewService(recognizer, normalizer,
		plate.WithMetrics(m),
		plate.WithLogger(log),
	)

	healthHandler := health.New(cfg.Environment)
	if pool != nil {
		healthHandler.RegisterCheck("database", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
	}

	tokens := token.NewValidator(cfg.JWTSigningKey)
	router := httptransport.NewRouter(httptransport.Handlers{
		Access:      accesshandler.New(access, log),
		Directory:   directoryhandler.New(directory, log),
		Recognition: platehandler.New(recognition, log),
		Health:      healthHandler,
	}, tokens, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
