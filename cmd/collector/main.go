package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"airspace-analytics/vatwatch/internal/common"
	"airspace-analytics/vatwatch/internal/config"
	"airspace-analytics/vatwatch/internal/db"
	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/detectors"
	"airspace-analytics/vatwatch/internal/geo"
	"airspace-analytics/vatwatch/internal/jobs"
	"airspace-analytics/vatwatch/internal/logging"
	"airspace-analytics/vatwatch/internal/metrics"
	gormModels "airspace-analytics/vatwatch/internal/models/gorm"
	"airspace-analytics/vatwatch/internal/providers"
	"airspace-analytics/vatwatch/internal/routes"
	"airspace-analytics/vatwatch/internal/services"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err) // exit code 1
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("vatwatch starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	// Connect to DB with sqlx
	if err := db.InitPostgres(cfg.DSN(), cfg.DBPoolSize, cfg.DBMaxOverflow); err != nil {
		log.Fatalf("Failed to connect to Postgres (sqlx): %v", err)
	}
	logging.Info("Connected to Postgres (sqlx)")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.ValidateSchema(ctx, db.DB); err != nil {
		log.Fatalf("Schema validation failed: %v", err)
	}

	// Connect to DB with GORM for the reference-data side
	gormDB, err := db.InitPostgresORM(cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to Postgres (GORM): %v", err)
	}
	if err := gormDB.AutoMigrate(&gormModels.Airport{}); err != nil {
		log.Fatalf("Airport table migration failed: %v", err)
	}

	// Load airport reference data and mirror it into Postgres
	airports, err := common.LoadAirports(cfg.AirportsPath)
	if err != nil {
		log.Fatalf("Failed to load airports: %v", err)
	}
	airportRepo := repositories.NewAirportRepository(gormDB)
	persistAirports(ctx, airportRepo, airports)

	// Boundary polygon, optional
	var boundary *geo.Polygon
	if cfg.BoundaryEnabled {
		boundary, err = geo.Load(cfg.BoundaryPath)
		if err != nil {
			log.Fatalf("Failed to load boundary polygon: %v", err)
		}
		logging.Info("Boundary polygon loaded", "path", cfg.BoundaryPath)
	} else {
		logging.Warn("Geographic filter disabled; ingesting the whole feed")
	}

	// Optional Redis-backed dashboard views
	var redisClient *redis.Client
	if cfg.RedisHost != "" {
		redisClient = common.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	}
	dashboard := common.NewDashboardPublisher(redisClient, 2*cfg.PollInterval)

	metricsReg := metrics.NewMetricsRegistry()
	statusSvc := services.NewStatusService(db.DB, redisClient, cfg.PollInterval)

	buffer, err := common.NewObservationBuffer(cfg.PilotBufferCap, cfg.ControllerBufferCap)
	if err != nil {
		log.Fatalf("Failed to create observation buffer: %v", err)
	}

	// Repositories
	ingestRepo := repositories.NewIngestRepository(db.DB)
	flightRepo := repositories.NewFlightRepository(db.DB)
	ctrlRepo := repositories.NewControllerRepository(db.DB)
	transceiverRepo := repositories.NewTransceiverRepository(db.DB)
	matchRepo := repositories.NewMatchRepository(db.DB)
	summaryRepo := repositories.NewSummaryRepository(db.DB)

	summarizer := services.NewSummarizer(flightRepo, matchRepo, summaryRepo, dashboard, metricsReg)

	// Detectors
	landing := detectors.NewLandingDetector(airports, cfg.LandingRadiusNm, cfg.LandingAltFt, cfg.LandingSpeedKt)
	completion := detectors.NewFlightCompletion(flightRepo, cfg.StaleAfter, cfg.CompleteAfter)
	matcher := detectors.NewMatcher(transceiverRepo, ctrlRepo, matchRepo, detectors.MatchParams{
		FreqToleranceHz: cfg.FreqToleranceHz,
		TimeTolerance:   cfg.MatchTimeTolerance,
		MaxDistanceNm:   cfg.MatchMaxDistanceNm,
		CollapseGap:     cfg.MatchGap,
		MinDuration:     cfg.MatchMinDuration,
	}, cfg.MatchLookback)

	provider := providers.NewFeedProvider(cfg.FeedURL, cfg.TransceiversURL, cfg.FeedTimeout)

	ingestJob := jobs.NewIngestJob(cfg, provider, buffer, ingestRepo, ctrlRepo,
		landing, completion, matcher, summarizer, statusSvc, dashboard, metricsReg, boundary)
	jobs.InitializeJobs(ctx, ingestJob)

	router := routes.RegisterRoutes(&routes.Dependencies{
		Config:      cfg,
		Metrics:     metricsReg,
		Status:      statusSvc,
		Summarizer:  summarizer,
		Buffer:      buffer,
		FlightRepo:  flightRepo,
		CtrlRepo:    ctrlRepo,
		MatchRepo:   matchRepo,
		SummaryRepo: summaryRepo,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info("Server starting", "port", cfg.HTTPPort, "environment", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	exitCode := 0
	for running := true; running; {
		select {
		case sig := <-signals:
			if sig == syscall.SIGHUP {
				if err := ingestJob.ReloadBoundary(); err != nil {
					logging.Error("Boundary reload failed", "error", err.Error())
				}
				continue
			}
			logging.Info("Shutdown signal received", "signal", sig.String())
			running = false
		case err := <-ingestJob.FatalErr:
			logging.Error("Fatal runtime error", "error", err.Error())
			exitCode = 2
			running = false
		case err := <-serverErr:
			logging.Error("HTTP server failed", "error", err.Error())
			exitCode = 2
			running = false
		}
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP shutdown failed", "error", err.Error())
	}
	logging.Info("vatwatch stopped")
	os.Exit(exitCode)
}

// persistAirports mirrors the JSON reference set into Postgres so external
// tools can join against it. Failures are not fatal: the in-memory store is
// the authoritative copy for detection.
func persistAirports(ctx context.Context, repo *repositories.AirportRepository, store *common.AirportStore) {
	records := make([]gormModels.Airport, 0, store.Count())
	for _, ap := range store.All() {
		records = append(records, gormModels.Airport{
			ICAO:        ap.ICAO,
			Name:        ap.Name,
			Latitude:    ap.Latitude,
			Longitude:   ap.Longitude,
			ElevationFt: ap.ElevationFt,
		})
	}
	if err := repo.ReplaceAll(ctx, records); err != nil {
		logging.Warn("Failed to mirror airports into Postgres", "error", err.Error())
		return
	}
	logging.Info("Airport reference data mirrored to Postgres", "count", len(records))
}
