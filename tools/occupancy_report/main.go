package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	occupancyapp "parking-analytics/internal/occupancy/application"
	"parking-analytics/internal/occupancy/domain/analytics"
	occupancyrepo "parking-analytics/internal/occupancy/infrastructure/postgres"
)

type config struct {
	dbURL          string
	organizationID string
	facilityID     string
	weekStart      string
	growthStart    string
	format         string
	permitColumn   string
	timeout        time.Duration
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(2)
	}
	cfg, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	analyticsCfg, err := occupancyapp.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "analytics config:", err)
		os.Exit(2)
	}
	weekStart, err := parseDate(cfg.weekStart, analyticsCfg.Location())
	if err != nil {
		fmt.Fprintln(os.Stderr, "--week:", err)
		os.Exit(2)
	}
	growthStart, err := parseDate(cfg.growthStart, analyticsCfg.Location())
	if err != nil {
		fmt.Fprintln(os.Stderr, "--growth-start:", err)
		os.Exit(2)
	}

	db, err := sql.Open("pgx", cfg.dbURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db open:", err)
		os.Exit(2)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()

	events := occupancyrepo.NewEventRepository(db, occupancyrepo.WithPermitColumn(cfg.permitColumn))
	svc, err := occupancyapp.NewAnalyticsService(
		events,
		occupancyrepo.NewMembershipRepository(db),
		occupancyapp.SystemClock{},
		log.New(io.Discard, "", 0),
		analyticsCfg,
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "analytics service:", err)
		os.Exit(2)
	}

	report, err := buildReport(ctx, svc, events, cfg, weekStart, growthStart)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewReporter(cfg.format, os.Stdout).Print(report); err != nil {
		fmt.Fprintln(os.Stderr, "render:", err)
		os.Exit(1)
	}
}

type eventCounter interface {
	CountSince(ctx context.Context, facilityID string, since time.Time) (int, error)
}

func buildReport(ctx context.Context, svc *occupancyapp.AnalyticsService, counter eventCounter, cfg config, weekStart, growthStart time.Time) (Report, error) {
	overview, err := svc.Overview(ctx, cfg.organizationID, cfg.facilityID, weekStart)
	if err != nil {
		return Report{}, fmt.Errorf("load occupancy: %w", err)
	}
	growth, err := svc.MembershipGrowth(ctx, cfg.organizationID, cfg.facilityID, growthStart)
	if err != nil {
		return Report{}, fmt.Errorf("load membership growth: %w", err)
	}
	today, err := counter.CountSince(ctx, cfg.facilityID, analytics.TruncateToDay(svc.Now()))
	if err != nil {
		return Report{}, fmt.Errorf("count today: %w", err)
	}
	return Report{
		FacilityID:  cfg.facilityID,
		GeneratedAt: svc.Now(),
		EventsToday: today,
		Weekly:      overview.Weekly,
		Expected:    overview.Expected,
		Growth:      growth,
	}, nil
}

func parseFlags() (config, error) {
	var cfg config
	flag.StringVar(&cfg.dbURL, "db", getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")), "Postgres DSN")
	flag.StringVar(&cfg.organizationID, "org", getenvDefault("ORGANIZATION_ID", ""), "organization id (optional)")
	flag.StringVar(&cfg.facilityID, "lot", "", "parking lot id (empty = all lots)")
	flag.StringVar(&cfg.weekStart, "week", "", "any day of the week to report, YYYY-MM-DD (default: current week)")
	flag.StringVar(&cfg.growthStart, "growth-start", "", "membership growth start, YYYY-MM-DD (default: config)")
	flag.StringVar(&cfg.format, "format", "table", "output format: table, json or markdown")
	flag.StringVar(&cfg.permitColumn, "permit-column", getenvDefault("OCCUPANCY_PERMIT_COLUMN", ""), "boolean permit column on occupancy events")
	flag.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "query timeout")
	flag.Parse()

	if cfg.dbURL == "" {
		return cfg, errors.New("missing --db or DATABASE_URL/PG_DSN")
	}
	switch cfg.format {
	case "table", "json", "markdown":
	default:
		return cfg, fmt.Errorf("unknown --format %q", cfg.format)
	}
	return cfg, nil
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
