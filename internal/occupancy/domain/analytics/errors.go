package analytics

import "errors"

var (
	// ErrInvalidWeekStart is returned when the histogram week start is zero.
	ErrInvalidWeekStart = errors.New("analytics: invalid week start")
	// ErrInvalidReferenceTime is returned when the reference "now" is zero.
	ErrInvalidReferenceTime = errors.New("analytics: invalid reference time")
	// ErrInvalidStartDate is returned when the growth start date is zero.
	ErrInvalidStartDate = errors.New("analytics: invalid start date")
)
