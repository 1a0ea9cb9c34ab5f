package appointments

import "errors"

// Expected outcomes are sentinel errors so handlers can pick the right
// spoken reply without inspecting strings.
var (
	// ErrSlotTaken means the proposed interval overlaps a committed one.
	// Recoverable: the caller should re-offer alternatives.
	ErrSlotTaken = errors.New("appointments: slot taken")

	// ErrInvalidInput means a required field was missing or unparseable.
	// The agent should re-prompt the caller.
	ErrInvalidInput = errors.New("appointments: invalid input")

	// ErrNotFound means no matching appointment exists.
	ErrNotFound = errors.New("appointments: not found")

	// ErrStorageFailure means the datastore write itself failed. Fatal to
	// the booking; must never be reported as success.
	ErrStorageFailure = errors.New("appointments: storage failure")
)
