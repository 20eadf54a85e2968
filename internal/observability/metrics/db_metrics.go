package metrics

import (
	"database/sql"
	"log"

	"github.com/prometheus/client_golang/prometheus"
)

func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "lots",
			Help: "Parking lots known to the service",
		},
		func() float64 {
			return queryCount(db, logger, `SELECT COUNT(*) FROM "ParkingLot"`)
		},
	))

	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "occupancy_events_today",
			Help: "Occupancy events recorded since midnight (database time zone)",
		},
		func() float64 {
			return queryCount(db, logger, `SELECT COUNT(*) FROM "OccupancyEvent" WHERE created_at >= date_trunc('day', now())`)
		},
	))
}

func queryCount(db *sql.DB, logger *log.Logger, query string) float64 {
	if db == nil {
		return 0
	}
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		if logger != nil {
			logger.Printf("metrics query failed: %v", err)
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
