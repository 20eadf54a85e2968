package application

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-analytics/internal/occupancy/domain/analytics"
	"parking-analytics/internal/occupancy/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type failingReader struct{}

var errReaderDown = errors.New("reader down")

func (failingReader) ListOccupancyEvents(context.Context, analytics.EventFilter) ([]analytics.OccupancyEvent, error) {
	return nil, errReaderDown
}

func (failingReader) ListMembershipCreations(context.Context, analytics.MembershipFilter) ([]analytics.MembershipCreation, error) {
	return nil, errReaderDown
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02T15:04", value)
	require.NoError(t, err)
	return parsed
}

func newTestService(t *testing.T, repo *memory.Repository, now time.Time) *AnalyticsService {
	t.Helper()
	svc, err := NewAnalyticsService(repo, repo, fixedClock{now: now}, log.New(io.Discard, "", 0), DefaultConfig())
	require.NoError(t, err)
	return svc
}

func seedWeek(t *testing.T, repo *memory.Repository) {
	t.Helper()
	repo.AssignLot("lot-a", "org-1")
	repo.AssignLot("lot-b", "org-2")
	repo.AddEvents(
		analytics.OccupancyEvent{ID: 1, FacilityID: "lot-a", EntryTime: at(t, "2025-06-15T09:00")},
		analytics.OccupancyEvent{ID: 2, FacilityID: "lot-a", EntryTime: at(t, "2025-06-15T17:30")},
		analytics.OccupancyEvent{ID: 3, FacilityID: "lot-a", EntryTime: at(t, "2025-06-17T08:00")},
		analytics.OccupancyEvent{ID: 4, FacilityID: "lot-b", EntryTime: at(t, "2025-06-17T09:00")},
		analytics.OccupancyEvent{ID: 5, FacilityID: "lot-a", EntryTime: at(t, "2025-06-22T08:00")},
	)
}

func TestNewAnalyticsServiceRequiresReaders(t *testing.T) {
	repo := memory.NewRepository()
	_, err := NewAnalyticsService(nil, repo, nil, nil, DefaultConfig())
	assert.Error(t, err)
	_, err = NewAnalyticsService(repo, nil, nil, nil, DefaultConfig())
	assert.Error(t, err)

	svc, err := NewAnalyticsService(repo, repo, nil, nil, Config{GrowthStart: "2025-01-05"})
	require.NoError(t, err)
	assert.Equal(t, 5, svc.Config().SelectorWeeks)
}

func TestWeeklyOccupancy(t *testing.T) {
	repo := memory.NewRepository()
	seedWeek(t, repo)
	svc := newTestService(t, repo, at(t, "2025-06-20T12:00"))

	got, err := svc.WeeklyOccupancy(context.Background(), "", "lot-a", at(t, "2025-06-18T10:00"))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1, 0, 0, 0, 0}, got.Counts)
	assert.Equal(t, at(t, "2025-06-15T00:00"), got.WeekStart)

	got, err = svc.WeeklyOccupancy(context.Background(), "org-2", "", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1, 0, 0, 0, 0}, got.Counts)
}

func TestWeeklyOccupancyWrapsReaderErrors(t *testing.T) {
	svc, err := NewAnalyticsService(failingReader{}, failingReader{}, fixedClock{now: at(t, "2025-06-20T12:00")}, log.New(io.Discard, "", 0), DefaultConfig())
	require.NoError(t, err)

	_, err = svc.WeeklyOccupancy(context.Background(), "", "lot-a", time.Time{})
	assert.ErrorIs(t, err, errReaderDown)
}

func TestExpectedOccupancy(t *testing.T) {
	repo := memory.NewRepository()
	repo.AddEvents(
		analytics.OccupancyEvent{ID: 1, FacilityID: "lot-a", EntryTime: at(t, "2025-06-16T08:00")},
		analytics.OccupancyEvent{ID: 2, FacilityID: "lot-a", EntryTime: at(t, "2025-06-09T08:00")},
		analytics.OccupancyEvent{ID: 3, FacilityID: "lot-a", EntryTime: at(t, "2025-06-09T09:00")},
		analytics.OccupancyEvent{ID: 4, FacilityID: "lot-a", EntryTime: at(t, "2025-05-01T09:00")},
	)
	svc := newTestService(t, repo, at(t, "2025-06-18T12:00"))

	got, err := svc.ExpectedOccupancy(context.Background(), "", "lot-a")
	require.NoError(t, err)
	require.Len(t, got.Averages, analytics.DaysPerWeek)
	assert.InDelta(t, 1.5, got.Averages[1], 1e-9)
	assert.Equal(t, analytics.WeekdayLabels(), got.Labels)
}

func TestMembershipGrowthDefaultsStart(t *testing.T) {
	repo := memory.NewRepository()
	repo.AddMemberships(
		analytics.MembershipCreation{ID: 1, ParkingLotID: "lot-a", CreatedAt: at(t, "2025-02-10T09:00")},
		analytics.MembershipCreation{ID: 2, ParkingLotID: "lot-a", CreatedAt: at(t, "2025-02-12T09:00")},
		analytics.MembershipCreation{ID: 3, ParkingLotID: "lot-a", CreatedAt: at(t, "2025-02-25T09:00")},
	)
	svc := newTestService(t, repo, at(t, "2025-02-26T12:00"))

	got, err := svc.MembershipGrowth(context.Background(), "", "lot-a", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2/9", "2/16", "2/23"}, got.Labels)
	assert.Equal(t, []int{2, 2, 3}, got.Counts)
}

func TestWeekOptions(t *testing.T) {
	svc := newTestService(t, memory.NewRepository(), at(t, "2025-06-18T12:00"))

	options := svc.WeekOptions(0)
	require.Len(t, options, 5)
	assert.Equal(t, "Current Week", options[0].Label)
	assert.Equal(t, at(t, "2025-06-15T00:00"), options[0].Start)
	assert.Equal(t, "Week of 6/8/2025", options[1].Label)
	assert.Equal(t, at(t, "2025-05-18T00:00"), options[4].Start)

	assert.Len(t, svc.WeekOptions(2), 2)
}

func TestOverview(t *testing.T) {
	repo := memory.NewRepository()
	seedWeek(t, repo)
	svc := newTestService(t, repo, at(t, "2025-06-20T12:00"))

	got, err := svc.Overview(context.Background(), "", "lot-a", at(t, "2025-06-15T00:00"))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Weekly.Total)
	assert.Len(t, got.Expected.Averages, analytics.DaysPerWeek)
}

func TestOverviewJoinsErrors(t *testing.T) {
	svc, err := NewAnalyticsService(failingReader{}, failingReader{}, fixedClock{now: at(t, "2025-06-20T12:00")}, log.New(io.Discard, "", 0), DefaultConfig())
	require.NoError(t, err)

	_, err = svc.Overview(context.Background(), "", "lot-a", time.Time{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errReaderDown)
	assert.Contains(t, err.Error(), "weekly occupancy")
	assert.Contains(t, err.Error(), "expected occupancy")
}
