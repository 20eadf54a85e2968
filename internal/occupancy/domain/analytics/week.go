package analytics

import "time"

// TruncateToDay returns local midnight of t in t's location.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Sunday midnight that opens the week containing t.
func StartOfWeek(t time.Time) time.Time {
	day := TruncateToDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// WeekEnd returns the exclusive end of the week opened by weekStart.
// Calendar days are added so DST transitions keep midnight boundaries.
func WeekEnd(weekStart time.Time) time.Time {
	return weekStart.AddDate(0, 0, DaysPerWeek)
}

// RecentWeekStarts returns the current week start followed by the given
// number of previous week starts, newest first.
func RecentWeekStarts(now time.Time, previous int) []time.Time {
	if previous < 0 {
		previous = 0
	}
	current := StartOfWeek(now)
	weeks := make([]time.Time, 0, previous+1)
	for i := 0; i <= previous; i++ {
		weeks = append(weeks, current.AddDate(0, 0, -DaysPerWeek*i))
	}
	return weeks
}

// ProfileWeekStarts returns the lookback week buckets used by the expected
// profile. Index 0 is the current week.
func ProfileWeekStarts(now time.Time) []time.Time {
	return RecentWeekStarts(now, LookbackWeeks-1)
}

// ProfileWindow returns the query window [start, end) that covers every
// lookback bucket for now.
func ProfileWindow(now time.Time) (time.Time, time.Time) {
	weeks := ProfileWeekStarts(now)
	return weeks[len(weeks)-1], WeekEnd(weeks[0])
}
