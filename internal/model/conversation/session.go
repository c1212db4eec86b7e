package conversation

import "time"

// State names the phase a call session is in. Sessions begin at StateGreeting
// and cycle back to StateListening whenever a booking completes, fails
// terminally, or is abandoned.
type State string

const (
	StateGreeting             State = "greeting"
	StateListening            State = "listening"
	StateCollectingName       State = "collecting_name"
	StateCollectingContact    State = "collecting_contact"
	StateUnderstandingNeeds   State = "understanding_needs"
	StateCheckingAvailability State = "checking_availability"
)

// PatientInfo holds the booking slots collected during a call. Values are
// stored verbatim as spoken; a slot is only ever overwritten, never cleared,
// while a booking run is in progress.
type PatientInfo struct {
	Name              string
	Contact           string
	Reason            string
	RequestedTimeText string
}

// Session is the per-connection conversation state. It is owned by exactly
// one websocket loop, which processes turns strictly one at a time, so no
// locking is required on the fields.
type Session struct {
	ID            string
	State         State
	BookingActive bool
	Patient       PatientInfo

	// TimeRetries counts consecutive failed date/time resolutions while in
	// StateCheckingAvailability.
	TimeRetries int

	History   []Message
	CreatedAt time.Time
}

// NewSession returns a session positioned at the greeting state.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		State:     StateGreeting,
		CreatedAt: time.Now().UTC(),
	}
}

// Remember appends a turn to the in-memory history. History lives only as
// long as the session; nothing is persisted.
func (s *Session) Remember(sender, content string) {
	s.History = append(s.History, Message{
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}
