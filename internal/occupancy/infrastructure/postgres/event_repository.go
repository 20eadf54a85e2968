package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"parking-analytics/internal/observability/metrics"
	"parking-analytics/internal/occupancy/domain/analytics"
)

const (
	defaultEventsTable = `"OccupancyEvent"`
	defaultLotsTable   = `"ParkingLot"`
)

// DBTX is the subset of *sql.DB used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// EventRepository reads occupancy events from Postgres.
type EventRepository struct {
	db           DBTX
	table        string
	lotsTable    string
	facilityCol  string
	permitColumn string
}

// EventOption configures the repository.
type EventOption func(*EventRepository)

// WithEventTable overrides the default events table.
func WithEventTable(table string) EventOption {
	return func(repo *EventRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithFacilityColumn overrides the column holding the facility id.
func WithFacilityColumn(column string) EventOption {
	return func(repo *EventRepository) {
		if column != "" {
			repo.facilityCol = column
		}
	}
}

// WithPermitColumn sets the boolean column that flags authorized entries.
// Without it every event is read with an unknown permit state.
func WithPermitColumn(column string) EventOption {
	return func(repo *EventRepository) {
		repo.permitColumn = column
	}
}

// NewEventRepository constructs a repository.
func NewEventRepository(db DBTX, opts ...EventOption) *EventRepository {
	repo := &EventRepository{
		db:          db,
		table:       defaultEventsTable,
		lotsTable:   defaultLotsTable,
		facilityCol: `"cameraId"`,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ListOccupancyEvents returns events matching the filter ordered by entry time.
// Rows without a timestamp are rejected here and counted.
func (r *EventRepository) ListOccupancyEvents(ctx context.Context, filter analytics.EventFilter) ([]analytics.OccupancyEvent, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("event repo: nil db")
	}
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, errors.New("event repo: from and to are required")
	}
	if !filter.To.After(filter.From) {
		return nil, errors.New("event repo: to must be after from")
	}

	permit := "NULL::boolean"
	if r.permitColumn != "" {
		permit = "e." + r.permitColumn
	}
	query := fmt.Sprintf(`
SELECT e.id, COALESCE(e.%[1]s::text, ''), e.created_at, %[2]s
FROM %[3]s e
LEFT JOIN %[4]s l ON l.id::text = e.%[1]s::text
WHERE e.created_at >= $1
	AND e.created_at < $2
	AND ($3 = '' OR e.%[1]s::text = $3)
	AND ($4 = '' OR l."organizationId"::text = $4)
ORDER BY e.created_at ASC, e.id ASC`, r.facilityCol, permit, r.table, r.lotsTable)
	args := []any{filter.From.UTC(), filter.To.UTC(), filter.FacilityID, filter.OrganizationID}
	if filter.Limit > 0 {
		query += "\nLIMIT $5"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []analytics.OccupancyEvent{}
	rejected := 0
	for rows.Next() {
		var (
			evt       analytics.OccupancyEvent
			createdAt sql.NullTime
			permitted sql.NullBool
		)
		if err := rows.Scan(&evt.ID, &evt.FacilityID, &createdAt, &permitted); err != nil {
			return nil, err
		}
		if !createdAt.Valid || createdAt.Time.IsZero() {
			rejected++
			continue
		}
		evt.EntryTime = createdAt.Time.UTC()
		if permitted.Valid {
			value := permitted.Bool
			evt.IsPermitted = &value
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	metrics.AddRecordsRejected("OccupancyEvent", rejected)
	return events, nil
}

// CountSince returns how many events were recorded at or after since.
func (r *EventRepository) CountSince(ctx context.Context, facilityID string, since time.Time) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("event repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT COUNT(*)
FROM %s
WHERE created_at >= $1
	AND ($2 = '' OR %s::text = $2)`, r.table, r.facilityCol)

	rows, err := r.db.QueryContext(ctx, query, since.UTC(), facilityID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

// RecordOccupancyEvents inserts events in one statement and returns how many were written.
func (r *EventRepository) RecordOccupancyEvents(ctx context.Context, events []analytics.OccupancyEvent) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("event repo: nil db")
	}
	if len(events) == 0 {
		return 0, nil
	}

	columns := []string{r.facilityCol, "created_at"}
	if r.permitColumn != "" {
		columns = append(columns, r.permitColumn)
	}
	values := make([]string, 0, len(events))
	args := make([]any, 0, len(events)*len(columns))
	for _, evt := range events {
		if evt.EntryTime.IsZero() {
			return 0, errors.New("event repo: entry time required")
		}
		placeholders := make([]string, len(columns))
		for i := range columns {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+i+1)
		}
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, evt.FacilityID, evt.EntryTime.UTC())
		if r.permitColumn != "" {
			var permitted sql.NullBool
			if evt.IsPermitted != nil {
				permitted = sql.NullBool{Bool: *evt.IsPermitted, Valid: true}
			}
			args = append(args, permitted)
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		r.table, strings.Join(columns, ", "), strings.Join(values, ", "))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return len(events), nil
	}
	return int(affected), nil
}
