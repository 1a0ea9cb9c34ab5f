package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	// StatusConfirmed is set when a booking is accepted.
	StatusConfirmed Status = "confirmed"
	// StatusClientVerified is set when the client replies to the
	// confirmation SMS.
	StatusClientVerified Status = "client_verified"
	// StatusCancelled is set by an explicit cancellation.
	StatusCancelled Status = "cancelled"
	// StatusCompleted is set by the sweep once the end time has passed.
	StatusCompleted Status = "completed"
)

// Live reports whether the status still occupies calendar time.
func (s Status) Live() bool {
	return s != StatusCancelled
}

// Appointment is a persisted booking row.
type Appointment struct {
	ID            uuid.UUID
	ClientName    string
	ClientPhone   string
	ClientEmail   string
	ServiceType   string
	Start         time.Time
	End           time.Time
	Status        Status
	ReminderSent  bool
	ReviewSent    bool
	GoogleEventID string
	CreatedAt     time.Time
}
