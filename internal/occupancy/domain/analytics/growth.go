package analytics

import (
	"fmt"
	"sort"
	"time"
)

// MembershipGrowth is a weekly cumulative count of memberships.
type MembershipGrowth struct {
	Labels     []string    `json:"labels"`
	WeekStarts []time.Time `json:"week_starts"`
	Counts     []int       `json:"counts"`
	Skipped    int         `json:"skipped"`
}

// BuildMembershipGrowth builds the cumulative membership step function from
// the Sunday of startDate through now, one tick per week. Each creation is
// counted in the first week whose end is after it, so creations that predate
// the first tick land in the first week. This departs from strict
// [weekStart, weekEnd) containment, which would leave them uncounted.
// Counts never decrease.
func BuildMembershipGrowth(creations []MembershipCreation, startDate, now time.Time) (MembershipGrowth, error) {
	if startDate.IsZero() {
		return MembershipGrowth{}, ErrInvalidStartDate
	}
	if now.IsZero() {
		return MembershipGrowth{}, ErrInvalidReferenceTime
	}

	result := MembershipGrowth{
		Labels:     []string{},
		WeekStarts: []time.Time{},
		Counts:     []int{},
	}
	for tick := StartOfWeek(startDate); !tick.After(now); tick = WeekEnd(tick) {
		result.WeekStarts = append(result.WeekStarts, tick)
		result.Labels = append(result.Labels, fmt.Sprintf("%d/%d", int(tick.Month()), tick.Day()))
	}

	created := make([]time.Time, 0, len(creations))
	for _, c := range creations {
		if c.CreatedAt.IsZero() {
			result.Skipped++
			continue
		}
		created = append(created, c.CreatedAt)
	}
	sort.Slice(created, func(i, j int) bool { return created[i].Before(created[j]) })

	result.Counts = make([]int, len(result.WeekStarts))
	total, next := 0, 0
	for i, tick := range result.WeekStarts {
		end := WeekEnd(tick)
		for next < len(created) && created[next].Before(end) {
			total++
			next++
		}
		result.Counts[i] = total
	}
	return result, nil
}
