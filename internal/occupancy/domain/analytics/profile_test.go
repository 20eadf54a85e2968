package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExpectedProfile_AveragesOnlyWeeksWithEvents(t *testing.T) {
	now := mustTime(t, "2025-06-18T12:00") // Wednesday
	events := eventsAt(t,
		// Monday: 2 in the current week, 1 two weeks ago, none in the others.
		"2025-06-16T08:00", "2025-06-16T09:00", "2025-06-02T08:00",
		// Tuesday: a single week.
		"2025-06-10T07:00",
		// Wednesday: 1 + 1 + 2 over three weeks.
		"2025-06-04T10:00", "2025-06-11T10:00", "2025-06-18T08:00", "2025-06-18T09:00",
	)

	profile, err := BuildExpectedProfile(events, now)
	require.NoError(t, err)

	assert.Equal(t, WeekdayLabels(), profile.Labels)
	assert.Equal(t, []float64{0, 1.5, 1, 1.3, 0, 0, 0}, profile.Averages)
	assert.Equal(t, 0, profile.Dropped)
}

func TestBuildExpectedProfile_WeekBuckets(t *testing.T) {
	now := mustTime(t, "2025-06-18T12:00")

	profile, err := BuildExpectedProfile(nil, now)
	require.NoError(t, err)

	require.Len(t, profile.WeekStarts, LookbackWeeks)
	assert.Equal(t, mustTime(t, "2025-06-15T00:00"), profile.WeekStarts[0])
	assert.Equal(t, mustTime(t, "2025-06-08T00:00"), profile.WeekStarts[1])
	assert.Equal(t, mustTime(t, "2025-06-01T00:00"), profile.WeekStarts[2])
	assert.Equal(t, mustTime(t, "2025-05-25T00:00"), profile.WeekStarts[3])
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 0}, profile.Averages)
}

func TestBuildExpectedProfile_DropsEventsOutsideLookback(t *testing.T) {
	now := mustTime(t, "2025-06-18T12:00")
	events := eventsAt(t,
		"2025-05-24T23:59", // before the oldest bucket
		"2025-06-22T00:00", // end of the current week is exclusive
		"2025-05-25T00:00", // first instant of the oldest bucket
	)
	events = append(events, OccupancyEvent{ID: 42})

	profile, err := BuildExpectedProfile(events, now)
	require.NoError(t, err)

	assert.Equal(t, 2, profile.Dropped)
	assert.Equal(t, 1, profile.Skipped)
	assert.Equal(t, 1.0, profile.Averages[time.Sunday])
	assert.Equal(t, 1, profile.WeekCounts[time.Sunday][3])
}

func TestBuildExpectedProfile_ZeroWeekdayIsExactlyZero(t *testing.T) {
	now := mustTime(t, "2025-06-18T12:00")
	events := eventsAt(t, "2025-06-16T08:00")

	profile, err := BuildExpectedProfile(events, now)
	require.NoError(t, err)

	for day, avg := range profile.Averages {
		if time.Weekday(day) == time.Monday {
			continue
		}
		assert.Zero(t, avg, "weekday %d", day)
	}
}

func TestBuildExpectedProfile_ZeroNow(t *testing.T) {
	_, err := BuildExpectedProfile(nil, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidReferenceTime)
}

func TestBuildExpectedProfile_Idempotent(t *testing.T) {
	now := mustTime(t, "2025-06-18T12:00")
	events := eventsAt(t, "2025-06-16T08:00", "2025-06-09T08:00", "2025-06-09T18:00")

	first, err := BuildExpectedProfile(events, now)
	require.NoError(t, err)
	second, err := BuildExpectedProfile(events, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1.5, first.Averages[time.Monday])
}
