package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"parking-analytics/internal/observability/metrics"
	"parking-analytics/internal/occupancy/domain/analytics"
)

const (
	KindWeekly   = "weekly"
	KindExpected = "expected"
	KindGrowth   = "membership_growth"
)

// EventReader loads occupancy events.
type EventReader interface {
	ListOccupancyEvents(ctx context.Context, filter analytics.EventFilter) ([]analytics.OccupancyEvent, error)
}

// MembershipReader loads membership creations.
type MembershipReader interface {
	ListMembershipCreations(ctx context.Context, filter analytics.MembershipFilter) ([]analytics.MembershipCreation, error)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

// Now returns current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// WeekOption is one entry of the week selector.
type WeekOption struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
}

// Overview is the weekly histogram and expected profile of one facility.
type Overview struct {
	Weekly   analytics.WeeklyHistogram `json:"weekly"`
	Expected analytics.ExpectedProfile `json:"expected"`
}

// AnalyticsService reads records and runs the analytics builders.
type AnalyticsService struct {
	events      EventReader
	memberships MembershipReader
	clock       Clock
	logger      *log.Logger
	cfg         Config
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(events EventReader, memberships MembershipReader, clock Clock, logger *log.Logger, cfg Config) (*AnalyticsService, error) {
	if events == nil {
		return nil, errors.New("analytics service: nil event reader")
	}
	if memberships == nil {
		return nil, errors.New("analytics service: nil membership reader")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.location == nil {
		if err := cfg.resolve(); err != nil {
			return nil, err
		}
	}
	return &AnalyticsService{
		events:      events,
		memberships: memberships,
		clock:       clock,
		logger:      logger,
		cfg:         cfg,
	}, nil
}

// Config returns the service configuration.
func (s *AnalyticsService) Config() Config {
	return s.cfg
}

// Now returns the clock time in the configured timezone.
func (s *AnalyticsService) Now() time.Time {
	return s.clock.Now().In(s.cfg.Location())
}

// WeeklyOccupancy returns the histogram of the week containing weekStart.
// A zero weekStart selects the current week. An empty facilityID covers every facility
// in organizationID's scope.
func (s *AnalyticsService) WeeklyOccupancy(ctx context.Context, organizationID, facilityID string, weekStart time.Time) (result analytics.WeeklyHistogram, err error) {
	started := time.Now()
	defer func() { observe(KindWeekly, started, err) }()

	if weekStart.IsZero() {
		weekStart = s.Now()
	}
	start := analytics.StartOfWeek(weekStart.In(s.cfg.Location()))
	events, err := s.events.ListOccupancyEvents(ctx, analytics.EventFilter{
		OrganizationID: organizationID,
		FacilityID:     facilityID,
		From:           start,
		To:             analytics.WeekEnd(start),
	})
	if err != nil {
		return analytics.WeeklyHistogram{}, fmt.Errorf("weekly occupancy: load events: %w", err)
	}
	result, err = analytics.BuildWeeklyHistogram(localize(events, s.cfg.Location()), start)
	if err != nil {
		return analytics.WeeklyHistogram{}, err
	}
	if result.Skipped > 0 {
		s.logger.Printf("weekly occupancy: facility=%s week=%s skipped=%d", facilityID, start.Format(dateLayout), result.Skipped)
	}
	return result, nil
}

// ExpectedOccupancy returns the average weekday profile of the trailing weeks.
func (s *AnalyticsService) ExpectedOccupancy(ctx context.Context, organizationID, facilityID string) (result analytics.ExpectedProfile, err error) {
	started := time.Now()
	defer func() { observe(KindExpected, started, err) }()

	now := s.Now()
	from, to := analytics.ProfileWindow(now)
	events, err := s.events.ListOccupancyEvents(ctx, analytics.EventFilter{
		OrganizationID: organizationID,
		FacilityID:     facilityID,
		From:           from,
		To:             to,
	})
	if err != nil {
		return analytics.ExpectedProfile{}, fmt.Errorf("expected occupancy: load events: %w", err)
	}
	result, err = analytics.BuildExpectedProfile(localize(events, s.cfg.Location()), now)
	if err != nil {
		return analytics.ExpectedProfile{}, err
	}
	if result.Dropped > 0 {
		metrics.AddAnalyticsDropped(KindExpected, "outside_window", result.Dropped)
		s.logger.Printf("expected occupancy: facility=%s dropped=%d", facilityID, result.Dropped)
	}
	if result.Skipped > 0 {
		metrics.AddAnalyticsDropped(KindExpected, "missing_timestamp", result.Skipped)
	}
	return result, nil
}

// MembershipGrowth returns the cumulative membership count per week since startDate.
// A zero startDate falls back to the configured growth start.
func (s *AnalyticsService) MembershipGrowth(ctx context.Context, organizationID, parkingLotID string, startDate time.Time) (result analytics.MembershipGrowth, err error) {
	started := time.Now()
	defer func() { observe(KindGrowth, started, err) }()

	if startDate.IsZero() {
		startDate = s.cfg.GrowthStartDate()
	}
	now := s.Now()
	creations, err := s.memberships.ListMembershipCreations(ctx, analytics.MembershipFilter{
		OrganizationID: organizationID,
		ParkingLotID:   parkingLotID,
		Until:          analytics.WeekEnd(analytics.StartOfWeek(now)),
	})
	if err != nil {
		return analytics.MembershipGrowth{}, fmt.Errorf("membership growth: load memberships: %w", err)
	}
	for i := range creations {
		creations[i].CreatedAt = creations[i].CreatedAt.In(s.cfg.Location())
	}
	result, err = analytics.BuildMembershipGrowth(creations, startDate.In(s.cfg.Location()), now)
	if err != nil {
		return analytics.MembershipGrowth{}, err
	}
	if result.Skipped > 0 {
		metrics.AddAnalyticsDropped(KindGrowth, "missing_timestamp", result.Skipped)
	}
	return result, nil
}

// WeekOptions returns the current week and count-1 previous weeks, newest first.
func (s *AnalyticsService) WeekOptions(count int) []WeekOption {
	if count <= 0 {
		count = s.cfg.SelectorWeeks
	}
	starts := analytics.RecentWeekStarts(s.Now(), count-1)
	options := make([]WeekOption, 0, len(starts))
	for i, start := range starts {
		label := "Current Week"
		if i > 0 {
			label = "Week of " + start.Format("1/2/2006")
		}
		options = append(options, WeekOption{Label: label, Start: start})
	}
	return options
}

// Overview loads the weekly histogram and the expected profile concurrently.
func (s *AnalyticsService) Overview(ctx context.Context, organizationID, facilityID string, weekStart time.Time) (Overview, error) {
	var (
		wg          sync.WaitGroup
		out         Overview
		weeklyErr   error
		expectedErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		out.Weekly, weeklyErr = s.WeeklyOccupancy(ctx, organizationID, facilityID, weekStart)
	}()
	go func() {
		defer wg.Done()
		out.Expected, expectedErr = s.ExpectedOccupancy(ctx, organizationID, facilityID)
	}()
	wg.Wait()

	if err := errors.Join(weeklyErr, expectedErr); err != nil {
		return Overview{}, err
	}
	return out, nil
}

func localize(events []analytics.OccupancyEvent, loc *time.Location) []analytics.OccupancyEvent {
	out := make([]analytics.OccupancyEvent, len(events))
	for i, evt := range events {
		if !evt.EntryTime.IsZero() {
			evt.EntryTime = evt.EntryTime.In(loc)
		}
		out[i] = evt
	}
	return out
}

func observe(kind string, started time.Time, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveAnalytics(kind, result, time.Since(started))
}
