package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parking-analytics/internal/observability/metrics"
	"parking-analytics/internal/occupancy/domain/analytics"
)

const defaultMembershipsTable = `"Membership"`

// MembershipRepository reads membership creations from Postgres.
type MembershipRepository struct {
	db        DBTX
	table     string
	lotsTable string
}

// NewMembershipRepository constructs a repository.
func NewMembershipRepository(db DBTX) *MembershipRepository {
	return &MembershipRepository{db: db, table: defaultMembershipsTable, lotsTable: defaultLotsTable}
}

// ListMembershipCreations returns memberships matching the filter in creation order.
func (r *MembershipRepository) ListMembershipCreations(ctx context.Context, filter analytics.MembershipFilter) ([]analytics.MembershipCreation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("membership repo: nil db")
	}
	until := filter.Until
	if until.IsZero() {
		until = time.Now()
	}

	query := fmt.Sprintf(`
SELECT m.id, COALESCE(m."parkingLotId"::text, ''), COALESCE(m.status, ''), m.created_at
FROM %s m
LEFT JOIN %s l ON l.id::text = m."parkingLotId"::text
WHERE (m.created_at IS NULL OR m.created_at < $1)
	AND ($2 = '' OR m."parkingLotId"::text = $2)
	AND ($3 = '' OR m.status = $3)
	AND ($4 = '' OR l."organizationId"::text = $4)
ORDER BY m.created_at ASC NULLS LAST, m.id ASC`, r.table, r.lotsTable)

	rows, err := r.db.QueryContext(ctx, query, until.UTC(), filter.ParkingLotID, filter.Status, filter.OrganizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	creations := []analytics.MembershipCreation{}
	rejected := 0
	for rows.Next() {
		var (
			c         analytics.MembershipCreation
			createdAt sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.ParkingLotID, &c.Status, &createdAt); err != nil {
			return nil, err
		}
		if !createdAt.Valid || createdAt.Time.IsZero() {
			rejected++
			continue
		}
		c.CreatedAt = createdAt.Time.UTC()
		creations = append(creations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	metrics.AddRecordsRejected("Membership", rejected)
	return creations, nil
}
