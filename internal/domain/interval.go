package domain

import (
	"errors"
	"time"
)

var (
	ErrMissingField   = errors.New("missing field")
	ErrNonFutureStart = errors.New("start must be in the future")
	ErrInvertedRange  = errors.New("end must be after start")
)

// Interval is a half-open time range [Start, End). Appointments, blocks and
// calendar events all carry one, and Overlaps is the only overlap predicate
// in the codebase.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start.UTC(), End: end.UTC()}
}

// Overlaps reports whether the two half-open ranges intersect. Ranges that
// only touch at a boundary do not overlap, so back-to-back bookings are
// allowed.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

func (a Interval) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

func (a Interval) IsZero() bool {
	return a.Start.IsZero() || a.End.IsZero()
}

// ValidateForBooking checks an interval for new-appointment creation. The
// future-start rule applies only here, never to reads.
func (a Interval) ValidateForBooking(now time.Time) error {
	switch {
	case a.IsZero():
		return ErrMissingField
	case !a.Start.After(now):
		return ErrNonFutureStart
	case !a.End.After(a.Start):
		return ErrInvertedRange
	}
	return nil
}
