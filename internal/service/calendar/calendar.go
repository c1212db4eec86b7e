package calendar

import (
	"context"
	"time"
)

// Event is the scheduling record the front desk creates for a booked visit.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// availabilityWindow is how much of the calendar a slot probe inspects.
// Appointments are booked for an hour but the practice considers a slot
// taken if anything overlaps its first half hour.
const availabilityWindow = 30 * time.Minute

// Backend is the scheduling interface for the clinic calendar. The call flow
// only exercises CheckAvailability and CreateEvent; SearchEvents,
// RescheduleEvent, and CancelEvent are the office-management surface, kept on
// the interface so staff tooling shares one backend. Implementations are
// shared across sessions and must be safe for concurrent use; every method
// may fail with a backend error, which callers convert into a spoken apology
// rather than propagating.
type Backend interface {
	// CreateEvent books the visit and returns the backend's event ID.
	CreateEvent(ctx context.Context, event Event) (string, error)
	// SearchEvents returns the day's events whose summary mentions name.
	SearchEvents(ctx context.Context, name string, from time.Time) ([]Event, error)
	// CheckAvailability reports whether the slot starting at start is free.
	CheckAvailability(ctx context.Context, start time.Time) (bool, error)
	// RescheduleEvent moves an existing event to a new interval.
	RescheduleEvent(ctx context.Context, eventID string, start, end time.Time) error
	// CancelEvent removes an existing event.
	CancelEvent(ctx context.Context, eventID string) error
}
