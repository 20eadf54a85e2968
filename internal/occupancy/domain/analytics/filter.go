package analytics

import "time"

// EventFilter selects occupancy events for a read.
// Empty ids match everything; From is inclusive, To is exclusive.
type EventFilter struct {
	OrganizationID string
	FacilityID     string
	From           time.Time
	To             time.Time
	Limit          int
}

// Matches reports whether evt satisfies the facility and time bounds of the filter.
// Organization scoping needs lot ownership and is left to the reader.
func (f EventFilter) Matches(evt OccupancyEvent) bool {
	if f.FacilityID != "" && evt.FacilityID != f.FacilityID {
		return false
	}
	if !f.From.IsZero() && evt.EntryTime.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !evt.EntryTime.Before(f.To) {
		return false
	}
	return true
}

// MembershipFilter selects membership creations for a read.
type MembershipFilter struct {
	OrganizationID string
	ParkingLotID   string
	Status         string
	Until          time.Time
}

// Matches reports whether c satisfies the lot, status and time bounds of the filter.
func (f MembershipFilter) Matches(c MembershipCreation) bool {
	if f.ParkingLotID != "" && c.ParkingLotID != f.ParkingLotID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if !f.Until.IsZero() && !c.CreatedAt.Before(f.Until) {
		return false
	}
	return true
}
