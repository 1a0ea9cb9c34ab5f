package schedule

import (
	"strings"
	"time"
)

// spokenTimeLayout reads naturally when fed through TTS.
const spokenTimeLayout = "Monday, January 2 at 3:04 PM"

// FormatTime renders a timestamp in the business timezone for speech.
func FormatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(spokenTimeLayout)
}

// FormatSlot renders a slot start in the business timezone for speech.
func FormatSlot(s Slot, loc *time.Location) string {
	return FormatTime(s.Start, loc)
}

// FormatSlots renders an offered slot list as a single spoken sentence
// fragment, e.g. "Monday, January 2 at 10:00 AM, or Monday, January 2 at
// 11:00 AM".
func FormatSlots(slots []Slot, loc *time.Location) string {
	switch len(slots) {
	case 0:
		return ""
	case 1:
		return FormatSlot(slots[0], loc)
	}
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, FormatSlot(s, loc))
	}
	return strings.Join(parts[:len(parts)-1], ", ") + ", or " + parts[len(parts)-1]
}
