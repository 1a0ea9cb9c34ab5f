package messaging

import (
	"strings"
	"testing"
	"time"
)

func TestConfirmationMessage(t *testing.T) {
	start := time.Date(2025, 1, 25, 14, 0, 0, 0, time.UTC)
	msg := ConfirmationMessage("Lumen Aesthetics", "Dana", "Botox", start, time.UTC)
	for _, want := range []string{"Dana", "Botox", "Lumen Aesthetics", "Saturday, Jan 25 at 2:00 PM", "Reply C to confirm"} {
		if !strings.Contains(msg, want) {
			t.Errorf("confirmation missing %q: %s", want, msg)
		}
	}
}

func TestReminderMessageIncludesParkingNote(t *testing.T) {
	start := time.Date(2025, 1, 25, 14, 0, 0, 0, time.UTC)
	msg := ReminderMessage("Dana", "Facial", start, time.UTC, "Park on Level P2.")
	if !strings.Contains(msg, "2:00 PM") || !strings.Contains(msg, "Park on Level P2.") {
		t.Errorf("unexpected reminder: %s", msg)
	}

	bare := ReminderMessage("Dana", "Facial", start, time.UTC, "")
	if strings.Contains(bare, "Park") {
		t.Errorf("expected no parking note: %s", bare)
	}
}

func TestReviewMessage(t *testing.T) {
	msg := ReviewMessage("Dana", "Lumen Aesthetics", "https://example.com/review")
	if !strings.Contains(msg, "https://example.com/review") {
		t.Errorf("expected review link: %s", msg)
	}
	noLink := ReviewMessage("Dana", "Lumen Aesthetics", "")
	if strings.Contains(noLink, "http") {
		t.Errorf("expected no link: %s", noLink)
	}
}

func TestTeamAlertMessageDefaults(t *testing.T) {
	msg := TeamAlertMessage("", "", "")
	for _, want := range []string{"Unknown Client", "Unknown Number", "General Inquiry"} {
		if !strings.Contains(msg, want) {
			t.Errorf("team alert missing %q: %s", want, msg)
		}
	}
}
