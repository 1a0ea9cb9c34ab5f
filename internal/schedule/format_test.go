package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatSlots(t *testing.T) {
	one := Slot{Start: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)}
	two := Slot{Start: time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)}
	three := Slot{Start: time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)}

	assert.Equal(t, "", FormatSlots(nil, time.UTC))
	assert.Equal(t, "Monday, March 10 at 2:00 PM", FormatSlots([]Slot{one}, time.UTC))
	assert.Equal(t,
		"Monday, March 10 at 2:00 PM, or Monday, March 10 at 3:00 PM",
		FormatSlots([]Slot{one, two}, time.UTC))
	assert.Equal(t,
		"Monday, March 10 at 2:00 PM, Monday, March 10 at 3:00 PM, or Tuesday, March 11 at 9:00 AM",
		FormatSlots([]Slot{one, two, three}, time.UTC))
}

func TestFormatSlotUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	s := Slot{Start: time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Monday, March 10 at 10:00 AM", FormatSlot(s, loc))

	// Nil location falls back to UTC rather than panicking.
	assert.Equal(t, "Monday, March 10 at 2:00 PM", FormatSlot(s, nil))
}
