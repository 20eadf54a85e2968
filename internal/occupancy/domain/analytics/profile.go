package analytics

import (
	"math"
	"time"
)

// ExpectedProfile is the average daily event count per weekday over the
// trailing lookback weeks.
type ExpectedProfile struct {
	Labels     []string    `json:"labels"`
	Averages   []float64   `json:"averages"`
	WeekStarts []time.Time `json:"week_starts"`
	// WeekCounts is indexed [weekday][week]; week 0 is the current week.
	WeekCounts [][]int `json:"week_counts"`
	Dropped    int     `json:"dropped"`
	Skipped    int     `json:"skipped"`
}

// BuildExpectedProfile averages events per weekday across the lookback weeks
// ending with the week of now. A weekday's average only includes weeks in
// which that weekday had at least one event; with no such week it is 0.
// Events outside every lookback week are dropped and counted.
func BuildExpectedProfile(events []OccupancyEvent, now time.Time) (ExpectedProfile, error) {
	if now.IsZero() {
		return ExpectedProfile{}, ErrInvalidReferenceTime
	}
	weekStarts := ProfileWeekStarts(now)
	loc := now.Location()

	counts := make([][]int, DaysPerWeek)
	for day := range counts {
		counts[day] = make([]int, len(weekStarts))
	}

	result := ExpectedProfile{
		Labels:     WeekdayLabels(),
		Averages:   make([]float64, DaysPerWeek),
		WeekStarts: weekStarts,
		WeekCounts: counts,
	}

	for _, evt := range events {
		if evt.EntryTime.IsZero() {
			result.Skipped++
			continue
		}
		at := evt.EntryTime.In(loc)
		week := weekIndex(weekStarts, at)
		if week < 0 {
			result.Dropped++
			continue
		}
		counts[at.Weekday()][week]++
	}

	for day := 0; day < DaysPerWeek; day++ {
		sum, weeks := 0, 0
		for _, count := range counts[day] {
			if count > 0 {
				sum += count
				weeks++
			}
		}
		if weeks == 0 {
			continue
		}
		result.Averages[day] = roundOneDecimal(float64(sum) / float64(weeks))
	}
	return result, nil
}

func weekIndex(weekStarts []time.Time, at time.Time) int {
	for i, start := range weekStarts {
		if !at.Before(start) && at.Before(WeekEnd(start)) {
			return i
		}
	}
	return -1
}

func roundOneDecimal(value float64) float64 {
	return math.Round(value*10) / 10
}
