package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-analytics/internal/occupancy/domain/analytics"
)

func TestListOccupancyEventsFiltersAndSorts(t *testing.T) {
	repo := NewRepository()
	repo.AssignLot("lot-a", "org-1")
	repo.AssignLot("lot-b", "org-2")
	base := time.Date(2025, 6, 15, 8, 0, 0, 0, time.UTC)
	repo.AddEvents(
		analytics.OccupancyEvent{ID: 3, FacilityID: "lot-a", EntryTime: base.Add(2 * time.Hour)},
		analytics.OccupancyEvent{ID: 1, FacilityID: "lot-a", EntryTime: base},
		analytics.OccupancyEvent{ID: 2, FacilityID: "lot-b", EntryTime: base.Add(time.Hour)},
		analytics.OccupancyEvent{ID: 4, FacilityID: "lot-a", EntryTime: base.AddDate(0, 0, 8)},
		analytics.OccupancyEvent{ID: 5, FacilityID: "lot-a"},
	)

	events, err := repo.ListOccupancyEvents(context.Background(), analytics.EventFilter{
		From: base,
		To:   base.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{events[0].ID, events[1].ID, events[2].ID})

	events, err = repo.ListOccupancyEvents(context.Background(), analytics.EventFilter{
		OrganizationID: "org-1",
		From:           base,
		To:             base.AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	require.Len(t, events, 2)

	events, err = repo.ListOccupancyEvents(context.Background(), analytics.EventFilter{
		FacilityID: "lot-a",
		From:       base,
		To:         base.AddDate(0, 0, 30),
		Limit:      1,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].ID)
}

func TestListOccupancyEventsRejectsEmptyRange(t *testing.T) {
	repo := NewRepository()
	now := time.Now()
	_, err := repo.ListOccupancyEvents(context.Background(), analytics.EventFilter{From: now, To: now})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestListMembershipCreations(t *testing.T) {
	repo := NewRepository()
	base := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	repo.AddMemberships(
		analytics.MembershipCreation{ID: 2, ParkingLotID: "lot-a", Status: "active", CreatedAt: base.AddDate(0, 0, 3)},
		analytics.MembershipCreation{ID: 1, ParkingLotID: "lot-a", Status: "expired", CreatedAt: base},
		analytics.MembershipCreation{ID: 3, ParkingLotID: "lot-b", Status: "active", CreatedAt: base},
		analytics.MembershipCreation{ID: 4, ParkingLotID: "lot-a", Status: "active", CreatedAt: base.AddDate(0, 1, 0)},
	)

	got, err := repo.ListMembershipCreations(context.Background(), analytics.MembershipFilter{
		ParkingLotID: "lot-a",
		Until:        base.AddDate(0, 0, 14),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(2), got[1].ID)

	got, err = repo.ListMembershipCreations(context.Background(), analytics.MembershipFilter{Status: "active"})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestCountSince(t *testing.T) {
	repo := NewRepository()
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	repo.AddEvents(
		analytics.OccupancyEvent{ID: 1, FacilityID: "lot-a", EntryTime: base.Add(-time.Hour)},
		analytics.OccupancyEvent{ID: 2, FacilityID: "lot-a", EntryTime: base},
		analytics.OccupancyEvent{ID: 3, FacilityID: "lot-b", EntryTime: base.Add(time.Hour)},
	)

	count, err := repo.CountSince(context.Background(), "", base)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountSince(context.Background(), "lot-a", base)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordOccupancyEvents(t *testing.T) {
	repo := NewRepository()
	at := time.Date(2025, 6, 16, 7, 45, 0, 0, time.UTC)

	n, err := repo.RecordOccupancyEvents(context.Background(), []analytics.OccupancyEvent{
		{FacilityID: "lot-a", EntryTime: at},
		{FacilityID: "lot-a", EntryTime: at.Add(time.Minute)},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.RecordOccupancyEvents(context.Background(), []analytics.OccupancyEvent{{FacilityID: "lot-a"}})
	assert.Error(t, err)

	events, err := repo.ListOccupancyEvents(context.Background(), analytics.EventFilter{From: at, To: at.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].ID)
	assert.Equal(t, int64(2), events[1].ID)
}
