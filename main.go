package main

import (
	"database/sql"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apihttp "parking-analytics/internal/api/http"
	"parking-analytics/internal/audit"
	"parking-analytics/internal/auth"
	lotrepo "parking-analytics/internal/facility/infrastructure/postgres"
	"parking-analytics/internal/observability/metrics"
	occupancyapp "parking-analytics/internal/occupancy/application"
	occupancyrepo "parking-analytics/internal/occupancy/infrastructure/postgres"
	occupancyhttp "parking-analytics/internal/occupancy/interfaces/http"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatalf("load .env error: %v", err)
	}
	cfg := loadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}
	metrics.Init(db, logger)

	analyticsCfg, err := occupancyapp.LoadConfig()
	if err != nil {
		logger.Fatalf("analytics config error: %v", err)
	}

	eventRepo := occupancyrepo.NewEventRepository(db,
		occupancyrepo.WithEventTable(cfg.EventsTable),
		occupancyrepo.WithFacilityColumn(cfg.EventsFacilityColumn),
		occupancyrepo.WithPermitColumn(cfg.EventsPermitColumn),
	)
	membershipRepo := occupancyrepo.NewMembershipRepository(db)
	lots := lotrepo.NewLotRepository(db)
	lotChecker := auth.NewLotChecker(lots)
	auditRepo := audit.NewRepository(db)

	analyticsService, err := occupancyapp.NewAnalyticsService(eventRepo, membershipRepo, occupancyapp.SystemClock{}, logger, analyticsCfg)
	if err != nil {
		logger.Fatalf("analytics service error: %v", err)
	}
	analyticsHandler, err := occupancyhttp.NewHandler(analyticsService, lotChecker, auditRepo, logger)
	if err != nil {
		logger.Fatalf("analytics handler error: %v", err)
	}
	logger.Printf("analytics configured: timezone=%s growth_start=%s selector_weeks=%d",
		analyticsCfg.Location(), analyticsCfg.GrowthStart, analyticsCfg.SelectorWeeks)

	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), auth.NewDefaultPolicy(
		[]string{"/healthz", "/metrics"},
		[]string{"/api/v1/ingest/"},
	))
	cameraAuth := auth.NewCameraAuthMiddleware([]byte(cfg.CameraSecret), time.Duration(cfg.CameraSkewSeconds)*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/analytics/", analyticsHandler)
	mux.Handle("/api/v1/lots", apihttp.NewLotsHandler(lots))
	mux.Handle("/api/v1/occupancy-events", apihttp.NewOccupancyEventsHandler(eventRepo, lotChecker))
	mux.Handle("/api/v1/exports/occupancy-events.csv", apihttp.NewExportOccupancyEventsCSVHandler(eventRepo, lotChecker, auditRepo, analyticsCfg.Location()))
	mux.Handle("/api/v1/ingest/occupancy-events", cameraAuth.Wrap(apihttp.NewIngestHandler(eventRepo, logger)))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL          string
	DBMaxOpenConns       int
	HTTPAddr             string
	JWTSecret            string
	CameraSecret         string
	CameraSkewSeconds    int
	EventsTable          string
	EventsFacilityColumn string
	EventsPermitColumn   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:          getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		DBMaxOpenConns:       getenvIntDefault("DB_MAX_OPEN_CONNS", 10),
		HTTPAddr:             getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:            getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		CameraSecret:         getenvDefault("CAMERA_HMAC_SECRET", ""),
		CameraSkewSeconds:    getenvIntDefault("CAMERA_MAX_SKEW_SECONDS", 300),
		EventsTable:          getenvDefault("OCCUPANCY_EVENTS_TABLE", ""),
		EventsFacilityColumn: getenvDefault("OCCUPANCY_FACILITY_COLUMN", ""),
		EventsPermitColumn:   getenvDefault("OCCUPANCY_PERMIT_COLUMN", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		metrics.IncHTTPRequest(r.Method, resp.status)
		logger.Printf("http %s %s %d %s request_id=%s", r.Method, r.URL.Path, resp.status, time.Since(start), requestID)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
