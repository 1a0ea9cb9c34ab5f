package schedule

import (
	"fmt"
	"time"
)

// Interval is a span during which the calendar is already committed.
// Intervals are half-open: [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not count as overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Slot is a bookable candidate window inside business hours.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Interval returns the slot as a busy-style interval for overlap checks.
func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// Hours describes the recurring daily booking window.
type Hours struct {
	// Open and Close are local wall-clock hours, Open < Close.
	Open  int
	Close int
	// SlotMinutes is the fixed appointment duration.
	SlotMinutes int
	// LookaheadDays bounds how far ahead slots are enumerated.
	LookaheadDays int
	// Location is the business's IANA timezone.
	Location *time.Location
}

// NewHours validates the daily window and resolves the IANA zone name.
func NewHours(open, close, slotMinutes, lookaheadDays int, timezone string) (Hours, error) {
	if open < 0 || close > 24 || open > close {
		return Hours{}, fmt.Errorf("schedule: invalid hours %d-%d", open, close)
	}
	if slotMinutes <= 0 {
		return Hours{}, fmt.Errorf("schedule: invalid slot minutes %d", slotMinutes)
	}
	if lookaheadDays < 0 {
		return Hours{}, fmt.Errorf("schedule: invalid lookahead %d", lookaheadDays)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Hours{}, fmt.Errorf("schedule: load timezone %q: %w", timezone, err)
	}
	return Hours{
		Open:          open,
		Close:         close,
		SlotMinutes:   slotMinutes,
		LookaheadDays: lookaheadDays,
		Location:      loc,
	}, nil
}

// DayWindow returns the business window for the day `offset` days after
// now's local date, as absolute instants.
func (h Hours) DayWindow(now time.Time, offset int) (time.Time, time.Time) {
	day := now.In(h.Location).AddDate(0, 0, offset)
	open := time.Date(day.Year(), day.Month(), day.Day(), h.Open, 0, 0, 0, h.Location)
	close := time.Date(day.Year(), day.Month(), day.Day(), h.Close, 0, 0, 0, h.Location)
	return open, close
}

// ComputeOpenSlots enumerates open appointment slots within the lookahead
// window. Results are chronological, collision-free against busy, and never
// include a slot that has already begun. Enumeration stops as soon as
// maxResults slots have been collected. An empty result is not an error.
func ComputeOpenSlots(now time.Time, hours Hours, busy []Interval, maxResults int) []Slot {
	if maxResults <= 0 || hours.SlotMinutes <= 0 || hours.Location == nil {
		return nil
	}
	stride := time.Duration(hours.SlotMinutes) * time.Minute

	var open []Slot
	for d := 0; d < hours.LookaheadDays; d++ {
		dayStart, dayEnd := hours.DayWindow(now, d)
		for start := dayStart; start.Before(dayEnd); start = start.Add(stride) {
			candidate := Slot{Start: start, End: start.Add(stride)}
			// A slot that has already begun cannot be offered to a caller.
			if candidate.Start.Before(now) {
				continue
			}
			if conflicts(candidate, busy) {
				continue
			}
			open = append(open, candidate)
			if len(open) >= maxResults {
				return open
			}
		}
	}
	return open
}

// SlotIsFree runs the same half-open overlap arbitration the engine uses,
// against a freshly fetched busy set.
func SlotIsFree(candidate Slot, busy []Interval) bool {
	return !conflicts(candidate, busy)
}

func conflicts(candidate Slot, busy []Interval) bool {
	c := candidate.Interval()
	for _, b := range busy {
		if c.Overlaps(b) {
			return true
		}
	}
	return false
}
