package analytics

import "time"

// WeeklyHistogram is the per-weekday event count for one calendar week.
type WeeklyHistogram struct {
	WeekStart   time.Time `json:"week_start"`
	Labels      []string  `json:"labels"`
	Counts      []int     `json:"counts"`
	Unpermitted []int     `json:"unpermitted"`
	Total       int       `json:"total"`
	Skipped     int       `json:"skipped"`
}

// BuildWeeklyHistogram counts events per weekday for the week opened by weekStart.
// weekStart is normalized to its Sunday midnight; weekdays are read in the
// location of weekStart. Range membership is the caller's job: every event
// with a timestamp is counted.
func BuildWeeklyHistogram(events []OccupancyEvent, weekStart time.Time) (WeeklyHistogram, error) {
	if weekStart.IsZero() {
		return WeeklyHistogram{}, ErrInvalidWeekStart
	}
	weekStart = StartOfWeek(weekStart)
	loc := weekStart.Location()

	result := WeeklyHistogram{
		WeekStart:   weekStart,
		Labels:      WeekdayLabels(),
		Counts:      make([]int, DaysPerWeek),
		Unpermitted: make([]int, DaysPerWeek),
	}
	for _, evt := range events {
		if evt.EntryTime.IsZero() {
			result.Skipped++
			continue
		}
		day := evt.EntryTime.In(loc).Weekday()
		result.Counts[day]++
		if evt.Unpermitted() {
			result.Unpermitted[day]++
		}
		result.Total++
	}
	return result, nil
}
