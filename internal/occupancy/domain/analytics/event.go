package analytics

import "time"

// DaysPerWeek is the number of weekday buckets.
const DaysPerWeek = 7

// LookbackWeeks is the trailing window used by the expected-occupancy profile.
const LookbackWeeks = 4

var weekdayLabels = [DaysPerWeek]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayLabels returns the fixed, Sunday-first bucket labels.
func WeekdayLabels() []string {
	labels := make([]string, DaysPerWeek)
	copy(labels, weekdayLabels[:])
	return labels
}

// OccupancyEvent is a vehicle entering a tracked facility.
// Events are immutable facts; builders only read them.
type OccupancyEvent struct {
	ID          int64     `json:"id"`
	FacilityID  string    `json:"facility_id"`
	EntryTime   time.Time `json:"entry_time"`
	IsPermitted *bool     `json:"is_permitted,omitempty"`
}

// Unpermitted reports whether the event is known to be unauthorized.
// Events without a permit flag are not counted as unpermitted.
func (e OccupancyEvent) Unpermitted() bool {
	return e.IsPermitted != nil && !*e.IsPermitted
}

// MembershipCreation is the creation record of a parking lot membership.
type MembershipCreation struct {
	ID           int64     `json:"id"`
	ParkingLotID string    `json:"parking_lot_id"`
	Status       string    `json:"status,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
