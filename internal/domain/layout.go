package domain

import (
	"sort"
	"time"
)

type EventKind string

const (
	EventKindAppointment EventKind = "appointment"
	EventKindBlock       EventKind = "block"
	EventKindUnavailable EventKind = "unavailable"
)

// ScheduledEvent is one card on a professional's day column, before layout.
type ScheduledEvent struct {
	ID    string    `json:"id"`
	Kind  EventKind `json:"kind"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LaidOutEvent is a ScheduledEvent augmented with render geometry. Top and
// Height are pixels from the day origin, WidthPercent and LeftPercent are
// percentages of the column width.
type LaidOutEvent struct {
	ScheduledEvent
	Top          float64 `json:"top"`
	Height       float64 `json:"height"`
	WidthPercent float64 `json:"widthPercent"`
	LeftPercent  float64 `json:"leftPercent"`
}

// minVisibleMinutes keeps degenerate-duration events tall enough to click.
const minVisibleMinutes = 1.0

// minWidthPercent caps how narrow a card may get. Past five concurrent
// events total width exceeds 100% and cards visually overlap; readability
// of each card wins over strict non-collision.
const minWidthPercent = 20.0

// LayoutDay lays a professional's day events out into non-colliding
// columns with a single left-to-right sweep over the events sorted by
// start (ties keep their submitted order).
//
// The sweep maintains the set of events whose interval has started and not
// yet ended, as indices into the output slice. Each new event re-derives the
// geometry of that whole group, so events already emitted widen, narrow and
// shift as more overlapping events are discovered. Once an event is pruned
// from the group its last geometry is frozen; concurrency among later,
// unrelated events never touches it.
func LayoutDay(events []ScheduledEvent, dayStart time.Time, pixelsPerMinute float64) []LaidOutEvent {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]ScheduledEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	out := make([]LaidOutEvent, 0, len(sorted))
	active := make([]int, 0, 4)

	for _, e := range sorted {
		// An event ending exactly at e.Start has ended: the same strict
		// half-open rule as Interval.Overlaps.
		kept := active[:0]
		for _, idx := range active {
			if out[idx].End.After(e.Start) {
				kept = append(kept, idx)
			}
		}
		active = kept

		minutes := e.End.Sub(e.Start).Minutes()
		if minutes < minVisibleMinutes {
			minutes = minVisibleMinutes
		}
		out = append(out, LaidOutEvent{
			ScheduledEvent: e,
			Top:            e.Start.Sub(dayStart).Minutes() * pixelsPerMinute,
			Height:         minutes * pixelsPerMinute,
		})
		active = append(active, len(out)-1)

		share := 100.0 / float64(len(active))
		for pos, idx := range active {
			width := share
			if width < minWidthPercent {
				width = minWidthPercent
			}
			out[idx].WidthPercent = width
			out[idx].LeftPercent = float64(pos) * share
		}
	}

	return out
}
