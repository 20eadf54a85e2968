package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	facility "parking-analytics/internal/facility/domain"
)

const defaultLotsTable = `"ParkingLot"`

// DBTX is the subset of *sql.DB used by the repositories.
type DBTX interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// LotRepository is a Postgres implementation for parking lots.
type LotRepository struct {
	db    DBTX
	table string
}

// NewLotRepository constructs a repository.
func NewLotRepository(db DBTX, opts ...LotOption) *LotRepository {
	repo := &LotRepository{db: db, table: defaultLotsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// LotOption configures the repository.
type LotOption func(*LotRepository)

// WithLotTable overrides the default table name.
func WithLotTable(table string) LotOption {
	return func(repo *LotRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a parking lot by id. A missing lot returns nil, nil.
func (r *LotRepository) Get(ctx context.Context, id string) (*facility.ParkingLot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("lot repo: nil db")
	}
	if id == "" {
		return nil, errors.New("lot repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id::text, "organizationId"::text, name, description, address, capacity, current_occupancy, picture, created_at
FROM %s
WHERE id::text = $1
LIMIT 1`, r.table)

	row := r.db.QueryRowContext(ctx, query, id)
	lot, err := scanLot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return lot, nil
}

// ListByOrganization returns the lots of an organization ordered by name.
// An empty organization id lists every lot.
func (r *LotRepository) ListByOrganization(ctx context.Context, organizationID string) ([]facility.ParkingLot, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("lot repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id::text, "organizationId"::text, name, description, address, capacity, current_occupancy, picture, created_at
FROM %s
WHERE ($1 = '' OR "organizationId"::text = $1)
ORDER BY name ASC, id ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lots := []facility.ParkingLot{}
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, *lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lots, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLot(row rowScanner) (*facility.ParkingLot, error) {
	var (
		lot          facility.ParkingLot
		organization sql.NullString
		description  sql.NullString
		address      sql.NullString
		capacity     sql.NullString
		occupancy    sql.NullString
		picture      sql.NullString
		createdAt    sql.NullTime
	)
	if err := row.Scan(
		&lot.ID,
		&organization,
		&lot.Name,
		&description,
		&address,
		&capacity,
		&occupancy,
		&picture,
		&createdAt,
	); err != nil {
		return nil, err
	}
	lot.OrganizationID = organization.String
	lot.Description = description.String
	lot.Address = address.String
	lot.Picture = picture.String
	lot.Capacity = parseCount(capacity)
	lot.CurrentOccupancy = parseCount(occupancy)
	if createdAt.Valid {
		lot.CreatedAt = createdAt.Time.UTC()
	}
	return &lot, nil
}

// parseCount reads the text counters of the lot table; blanks and garbage are 0.
func parseCount(value sql.NullString) int {
	if !value.Valid {
		return 0
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value.String))
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}
