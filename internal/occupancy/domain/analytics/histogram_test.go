package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02T15:04", value, time.UTC)
	require.NoError(t, err)
	return parsed
}

func eventsAt(t *testing.T, values ...string) []OccupancyEvent {
	t.Helper()
	events := make([]OccupancyEvent, 0, len(values))
	for i, value := range values {
		events = append(events, OccupancyEvent{ID: int64(i + 1), FacilityID: "lot-1", EntryTime: mustTime(t, value)})
	}
	return events
}

func TestBuildWeeklyHistogram_Example(t *testing.T) {
	events := eventsAt(t, "2025-06-01T10:00", "2025-06-01T14:00", "2025-06-03T09:00")

	hist, err := BuildWeeklyHistogram(events, mustTime(t, "2025-06-01T00:00"))
	require.NoError(t, err)

	assert.Equal(t, []int{2, 0, 1, 0, 0, 0, 0}, hist.Counts)
	assert.Equal(t, []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}, hist.Labels)
	assert.Equal(t, 3, hist.Total)
	assert.Equal(t, 0, hist.Skipped)
}

func TestBuildWeeklyHistogram_Empty(t *testing.T) {
	hist, err := BuildWeeklyHistogram(nil, mustTime(t, "2025-06-04T08:30"))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 0}, hist.Counts)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 0}, hist.Unpermitted)
	assert.Equal(t, mustTime(t, "2025-06-01T00:00"), hist.WeekStart)
}

func TestBuildWeeklyHistogram_SumMatchesEventsInWeek(t *testing.T) {
	weekStart := mustTime(t, "2025-06-01T00:00")
	var events []OccupancyEvent
	for i := 0; i < 7*24; i += 5 {
		events = append(events, OccupancyEvent{EntryTime: weekStart.Add(time.Duration(i) * time.Hour)})
	}

	hist, err := BuildWeeklyHistogram(events, weekStart)
	require.NoError(t, err)

	sum := 0
	for _, count := range hist.Counts {
		assert.GreaterOrEqual(t, count, 0)
		sum += count
	}
	assert.Equal(t, len(events), sum)
	assert.Equal(t, len(events), hist.Total)
}

func TestBuildWeeklyHistogram_SkipsMissingTimestamps(t *testing.T) {
	events := eventsAt(t, "2025-06-02T10:00")
	events = append(events, OccupancyEvent{ID: 99})

	hist, err := BuildWeeklyHistogram(events, mustTime(t, "2025-06-01T00:00"))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 0, 0, 0, 0, 0}, hist.Counts)
	assert.Equal(t, 1, hist.Skipped)
}

func TestBuildWeeklyHistogram_Unpermitted(t *testing.T) {
	denied := false
	allowed := true
	events := []OccupancyEvent{
		{EntryTime: mustTime(t, "2025-06-06T10:00"), IsPermitted: &denied},
		{EntryTime: mustTime(t, "2025-06-06T11:00"), IsPermitted: &allowed},
		{EntryTime: mustTime(t, "2025-06-06T12:00")},
	}

	hist, err := BuildWeeklyHistogram(events, mustTime(t, "2025-06-01T00:00"))
	require.NoError(t, err)

	assert.Equal(t, 3, hist.Counts[time.Friday])
	assert.Equal(t, 1, hist.Unpermitted[time.Friday])
}

func TestBuildWeeklyHistogram_UsesWeekStartLocation(t *testing.T) {
	eastern := time.FixedZone("UTC-5", -5*60*60)
	weekStart := time.Date(2025, 6, 1, 0, 0, 0, 0, eastern)
	// 02:00 UTC on Monday is still Sunday evening at UTC-5.
	events := []OccupancyEvent{{EntryTime: mustTime(t, "2025-06-02T02:00")}}

	hist, err := BuildWeeklyHistogram(events, weekStart)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 0, 0, 0, 0, 0, 0}, hist.Counts)
}

func TestBuildWeeklyHistogram_ZeroWeekStart(t *testing.T) {
	_, err := BuildWeeklyHistogram(nil, time.Time{})
	assert.ErrorIs(t, err, ErrInvalidWeekStart)
}

func TestBuildWeeklyHistogram_DoesNotMutateInput(t *testing.T) {
	events := eventsAt(t, "2025-06-01T10:00", "2025-06-03T09:00")
	before := append([]OccupancyEvent(nil), events...)

	first, err := BuildWeeklyHistogram(events, mustTime(t, "2025-06-01T00:00"))
	require.NoError(t, err)
	second, err := BuildWeeklyHistogram(events, mustTime(t, "2025-06-01T00:00"))
	require.NoError(t, err)

	assert.Equal(t, before, events)
	assert.Equal(t, first, second)
}
