package messaging

import (
	"fmt"
	"time"
)

// Outbound SMS copy. Kept together so the front desk can review the whole
// voice of the business in one place.

const confirmTimeLayout = "Monday, Jan 2 at 3:04 PM"

// ConfirmationMessage is sent right after a booking is accepted.
func ConfirmationMessage(business, name, service string, start time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf(
		"Hi %s, your appointment for %s at %s is confirmed for %s. Please arrive 10 mins early. Reply C to confirm.",
		name, service, business, start.In(loc).Format(confirmTimeLayout),
	)
}

// ReminderMessage is sent roughly a day before the appointment.
func ReminderMessage(name, service string, start time.Time, loc *time.Location, parkingNote string) string {
	if loc == nil {
		loc = time.UTC
	}
	msg := fmt.Sprintf("Hi %s, reminder for your %s tomorrow at %s.",
		name, service, start.In(loc).Format("3:04 PM"))
	if parkingNote != "" {
		msg += "\n\n" + parkingNote
	}
	return msg + "\n\nSee you soon!"
}

// ReviewMessage is sent after a completed visit.
func ReviewMessage(name, business, reviewLink string) string {
	msg := fmt.Sprintf("Hi %s, thank you for choosing %s. We would value your feedback on your experience.", name, business)
	if reviewLink != "" {
		msg += " Leave a review here: " + reviewLink
	}
	return msg
}

// CancellationMessage is sent when an appointment is cancelled.
func CancellationMessage(business string) string {
	return fmt.Sprintf("%s: Your appointment has been cancelled. We'd love to see you again, so call us anytime to rebook.", business)
}

// TeamAlertMessage goes to the staff line when a caller needs a human.
func TeamAlertMessage(name, phone, reason string) string {
	if name == "" {
		name = "Unknown Client"
	}
	if phone == "" {
		phone = "Unknown Number"
	}
	if reason == "" {
		reason = "General Inquiry"
	}
	return fmt.Sprintf("TEAM ALERT: Please call back %s at %s. Reason: %s", name, phone, reason)
}

// InsuranceLinkMessage carries the secure upload link.
func InsuranceLinkMessage(business, uploadURL string) string {
	return fmt.Sprintf("%s: Here is your secure link to upload your insurance card:\n\n%s\n\nThis form is encrypted for your privacy.", business, uploadURL)
}
