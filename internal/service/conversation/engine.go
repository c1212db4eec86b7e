package conversation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mlclabs/voicedesk/internal/analysis/intent"
	"github.com/mlclabs/voicedesk/internal/model/conversation"
	"github.com/mlclabs/voicedesk/internal/model/entity"
	"github.com/mlclabs/voicedesk/internal/service/calendar"
	"github.com/mlclabs/voicedesk/internal/service/schedule"
)

// EntityExtractor pulls typed spans out of an utterance. Extraction never
// fails; a fault inside the extractor degrades to fewer entities.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) []entity.Entity
}

// GeneralResponder answers non-booking queries. It may fail; the engine
// substitutes an apology.
type GeneralResponder interface {
	GenerateReply(ctx context.Context, sessionID string, history []conversation.Message, text string) (string, error)
}

// Fixed reply texts for the booking flow.
const (
	replyAskName      = "I'd be happy to help you book an appointment. Can I have your full name, please?"
	replyAskContact   = "Thank you. Can I have your contact number, please?"
	replyAskReason    = "What is the reason for your visit?"
	replyAskTime      = "When would you prefer to schedule your appointment?"
	replyAskTimeAgain = "I couldn't understand the time you specified. Could you please provide the date and time again?"
	replySlotTaken    = "I'm sorry, that time is already taken. Is there another date and time that works for you?"
	replyBackendDown  = "I apologize, but I'm having trouble scheduling the appointment. Please try again or call our office directly."
	replyAbandoned    = "I'm sorry, I still couldn't understand the time. Let's set the booking aside for now - you can start again anytime, or call our office directly to schedule."
	replyAcknowledged = "Great! I've noted your preferred time. We'll verify availability and contact you to confirm the appointment. Is there anything else I can help you with?"
	replyApology      = "I apologize, but I'm having trouble processing your request. Could you please try again?"
	replyRepeat       = "I apologize, but I'm having trouble with your request. Could you please repeat that?"

	confirmationTimeLayout = "Monday, January 2 at 3:04 PM"
)

// Options tunes the engine. Zero values get sensible defaults.
type Options struct {
	Greeting        string
	MaxTimeRetries  int
	CalendarTimeout time.Duration
	// DetectIntent decides whether an utterance starts the booking flow.
	// Defaults to the keyword classifier.
	DetectIntent func(string) bool
	// Now is the clock used for year-less date resolution; overridable in
	// tests.
	Now func() time.Time
}

// Engine is the per-turn conversation controller. It is stateless across
// sessions - all mutable state lives in the Session it is handed - so one
// engine instance serves every connection.
type Engine struct {
	extractor EntityExtractor
	resolver  *schedule.Resolver
	backend   calendar.Backend
	assistant GeneralResponder
	opts      Options
}

// NewEngine wires the conversation engine. backend and assistant may be nil:
// without a backend the booking is acknowledged instead of written to a
// calendar, and without an assistant general queries get a canned apology.
func NewEngine(extractor EntityExtractor, resolver *schedule.Resolver, backend calendar.Backend, assistant GeneralResponder, opts Options) *Engine {
	if opts.MaxTimeRetries < 1 {
		opts.MaxTimeRetries = 3
	}
	if opts.CalendarTimeout <= 0 {
		opts.CalendarTimeout = 15 * time.Second
	}
	if opts.DetectIntent == nil {
		opts.DetectIntent = intent.HasBookingIntent
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		extractor: extractor,
		resolver:  resolver,
		backend:   backend,
		assistant: assistant,
		opts:      opts,
	}
}

// Step processes one caller utterance against the session and returns the
// reply to speak. Every fault is converted into a reply here; Step never
// panics the turn up to the transport.
func (e *Engine) Step(ctx context.Context, sess *conversation.Session, text string) string {
	// The LLM fallback sees the history as it stood before this turn.
	history := append([]conversation.Message(nil), sess.History...)

	reply := e.process(ctx, sess, text, history)

	sess.Remember(conversation.SenderCaller, text)
	sess.Remember(conversation.SenderAssistant, reply)
	return reply
}

func (e *Engine) process(ctx context.Context, sess *conversation.Session, text string, history []conversation.Message) string {
	if sess.State == conversation.StateGreeting {
		sess.State = conversation.StateListening
		return e.opts.Greeting
	}

	if !sess.BookingActive && e.opts.DetectIntent(text) {
		sess.BookingActive = true
		sess.State = conversation.StateCollectingName
		sess.TimeRetries = 0
		return replyAskName
	}

	if sess.BookingActive {
		return e.stepBooking(ctx, sess, text)
	}

	return e.generalReply(ctx, sess, text, history)
}

func (e *Engine) stepBooking(ctx context.Context, sess *conversation.Session, text string) string {
	switch sess.State {
	case conversation.StateCollectingName:
		sess.Patient.Name = text
		sess.State = conversation.StateCollectingContact
		return replyAskContact

	case conversation.StateCollectingContact:
		sess.Patient.Contact = text
		sess.State = conversation.StateUnderstandingNeeds
		return replyAskReason

	case conversation.StateUnderstandingNeeds:
		sess.Patient.Reason = text
		sess.State = conversation.StateCheckingAvailability
		return replyAskTime

	case conversation.StateCheckingAvailability:
		return e.checkAvailability(ctx, sess, text)

	default:
		return replyRepeat
	}
}

// checkAvailability is the terminal booking step: resolve the requested
// time, probe the calendar, and create the event. On an unresolvable time
// the state self-loops up to MaxTimeRetries attempts; on a backend failure
// state and slots are left untouched so the caller can simply retry the
// time.
func (e *Engine) checkAvailability(ctx context.Context, sess *conversation.Session, text string) string {
	sess.Patient.RequestedTimeText = text

	entities := e.extractor.Extract(ctx, text)
	appt := e.resolver.Resolve(entities, e.opts.Now())
	if appt == nil {
		sess.TimeRetries++
		if sess.TimeRetries >= e.opts.MaxTimeRetries {
			log.Printf("[engine] abandoning booking after %d unresolved time attempts session=%s", sess.TimeRetries, sess.ID)
			sess.BookingActive = false
			sess.State = conversation.StateListening
			sess.TimeRetries = 0
			return replyAbandoned
		}
		return replyAskTimeAgain
	}

	if e.backend == nil {
		// No calendar configured: acknowledge and let the office confirm
		// out of band.
		e.completeBooking(sess)
		return replyAcknowledged
	}

	cctx, cancel := context.WithTimeout(ctx, e.opts.CalendarTimeout)
	defer cancel()

	free, err := e.backend.CheckAvailability(cctx, appt.Start)
	if err != nil {
		log.Printf("[engine] availability check failed session=%s: %v", sess.ID, err)
		return replyBackendDown
	}
	if !free {
		return replySlotTaken
	}

	event := calendar.Event{
		Summary:     "Appointment: " + sess.Patient.Name,
		Description: fmt.Sprintf("Reason: %s\nContact: %s", sess.Patient.Reason, sess.Patient.Contact),
		Start:       appt.Start,
		End:         appt.End,
	}
	if _, err := e.backend.CreateEvent(cctx, event); err != nil {
		log.Printf("[engine] create event failed session=%s: %v", sess.ID, err)
		return replyBackendDown
	}

	e.completeBooking(sess)
	return fmt.Sprintf("Great! I've booked your appointment for %s. Please arrive 15 minutes early with your ID and insurance card.",
		appt.Start.Format(confirmationTimeLayout))
}

func (e *Engine) completeBooking(sess *conversation.Session) {
	sess.BookingActive = false
	sess.State = conversation.StateListening
	sess.TimeRetries = 0
}

func (e *Engine) generalReply(ctx context.Context, sess *conversation.Session, text string, history []conversation.Message) string {
	if e.assistant == nil {
		return replyApology
	}

	reply, err := e.assistant.GenerateReply(ctx, sess.ID, history, text)
	if err != nil {
		log.Printf("[engine] general reply failed session=%s: %v", sess.ID, err)
		return replyApology
	}
	return reply
}
