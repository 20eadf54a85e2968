package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"parking-analytics/internal/occupancy/domain/analytics"
)

// ErrInvalidRange is returned when an event read has no usable window.
var ErrInvalidRange = errors.New("memory repo: invalid range")

// Repository is an in-memory event and membership store for demo/testing.
// It implements both reader interfaces of the analytics service.
type Repository struct {
	mu          sync.RWMutex
	events      []analytics.OccupancyEvent
	memberships []analytics.MembershipCreation
	lotOrg      map[string]string
	nextID      int64
}

// NewRepository constructs a repository.
func NewRepository() *Repository {
	return &Repository{lotOrg: make(map[string]string)}
}

// AssignLot records which organization owns a lot.
func (r *Repository) AssignLot(lotID, organizationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lotOrg[lotID] = organizationID
}

// AddEvents appends occupancy events.
func (r *Repository) AddEvents(events ...analytics.OccupancyEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// AddMemberships appends membership creations.
func (r *Repository) AddMemberships(creations ...analytics.MembershipCreation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memberships = append(r.memberships, creations...)
}

// RecordOccupancyEvents stores events with fresh ids and returns how many were written.
func (r *Repository) RecordOccupancyEvents(ctx context.Context, events []analytics.OccupancyEvent) (int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, evt := range events {
		if evt.EntryTime.IsZero() {
			return 0, errors.New("memory repo: entry time required")
		}
	}
	for _, evt := range events {
		r.nextID++
		evt.ID = r.nextID
		r.events = append(r.events, evt)
	}
	return len(events), nil
}

// ListOccupancyEvents returns events matching the filter ordered by entry time.
func (r *Repository) ListOccupancyEvents(ctx context.Context, filter analytics.EventFilter) ([]analytics.OccupancyEvent, error) {
	_ = ctx
	if filter.From.IsZero() || filter.To.IsZero() || !filter.To.After(filter.From) {
		return nil, ErrInvalidRange
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]analytics.OccupancyEvent, 0, len(r.events))
	for _, evt := range r.events {
		if evt.EntryTime.IsZero() || !filter.Matches(evt) {
			continue
		}
		if !r.ownedBy(evt.FacilityID, filter.OrganizationID) {
			continue
		}
		result = append(result, evt)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].EntryTime.Equal(result[j].EntryTime) {
			return result[i].ID < result[j].ID
		}
		return result[i].EntryTime.Before(result[j].EntryTime)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// CountSince returns how many events were recorded at or after since.
func (r *Repository) CountSince(ctx context.Context, facilityID string, since time.Time) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, evt := range r.events {
		if facilityID != "" && evt.FacilityID != facilityID {
			continue
		}
		if !evt.EntryTime.Before(since) {
			count++
		}
	}
	return count, nil
}

// ListMembershipCreations returns memberships matching the filter in creation order.
func (r *Repository) ListMembershipCreations(ctx context.Context, filter analytics.MembershipFilter) ([]analytics.MembershipCreation, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]analytics.MembershipCreation, 0, len(r.memberships))
	for _, c := range r.memberships {
		if c.CreatedAt.IsZero() || !filter.Matches(c) {
			continue
		}
		if !r.ownedBy(c.ParkingLotID, filter.OrganizationID) {
			continue
		}
		result = append(result, c)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *Repository) ownedBy(lotID, organizationID string) bool {
	if organizationID == "" {
		return true
	}
	return r.lotOrg[lotID] == organizationID
}
