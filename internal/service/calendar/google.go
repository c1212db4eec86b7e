package calendar

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleScheduler implements Backend on top of the Google Calendar API.
// One instance is shared by all sessions; its configuration is read-only
// after construction.
type GoogleScheduler struct {
	service    *gcal.Service
	calendarID string
	loc        *time.Location
}

// NewGoogleScheduler authenticates with a service-account credentials file
// and binds to the given calendar. An empty calendarID targets "primary".
func NewGoogleScheduler(ctx context.Context, credentialsFile, calendarID string, loc *time.Location) (*GoogleScheduler, error) {
	if credentialsFile == "" {
		return nil, fmt.Errorf("calendar credentials file is required")
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.Local
	}

	service, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleScheduler{service: service, calendarID: calendarID, loc: loc}, nil
}

// CreateEvent inserts the visit into the clinic calendar.
func (g *GoogleScheduler) CreateEvent(ctx context.Context, event Event) (string, error) {
	body := &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &gcal.EventDateTime{
			DateTime: event.Start.In(g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: event.End.In(g.loc).Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
	}

	created, err := g.service.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event failed: %w", err)
	}

	log.Printf("[calendar] created event id=%s start=%s", created.Id, body.Start.DateTime)
	return created.Id, nil
}

// SearchEvents lists events from the given instant to the end of that day
// and keeps the ones whose summary contains the patient name.
func (g *GoogleScheduler) SearchEvents(ctx context.Context, name string, from time.Time) ([]Event, error) {
	from = from.In(g.loc)
	endOfDay := time.Date(from.Year(), from.Month(), from.Day(), 23, 59, 59, 0, g.loc)

	resp, err := g.service.Events.List(g.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(endOfDay.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events failed: %w", err)
	}

	needle := strings.ToLower(name)
	var matches []Event
	for _, item := range resp.Items {
		if !strings.Contains(strings.ToLower(item.Summary), needle) {
			continue
		}
		matches = append(matches, g.toEvent(item))
	}
	return matches, nil
}

// CheckAvailability reports whether anything overlaps the slot's opening
// window.
func (g *GoogleScheduler) CheckAvailability(ctx context.Context, start time.Time) (bool, error) {
	start = start.In(g.loc)

	resp, err := g.service.Events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(start.Add(availabilityWindow).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("availability check failed: %w", err)
	}

	return len(resp.Items) == 0, nil
}

// RescheduleEvent moves an event to a new interval, keeping its other fields.
func (g *GoogleScheduler) RescheduleEvent(ctx context.Context, eventID string, start, end time.Time) error {
	existing, err := g.service.Events.Get(g.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("fetch event failed: %w", err)
	}

	existing.Start = &gcal.EventDateTime{DateTime: start.In(g.loc).Format(time.RFC3339), TimeZone: g.loc.String()}
	existing.End = &gcal.EventDateTime{DateTime: end.In(g.loc).Format(time.RFC3339), TimeZone: g.loc.String()}

	if _, err := g.service.Events.Update(g.calendarID, eventID, existing).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update event failed: %w", err)
	}
	return nil
}

// CancelEvent deletes an event.
func (g *GoogleScheduler) CancelEvent(ctx context.Context, eventID string) error {
	if err := g.service.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event failed: %w", err)
	}
	return nil
}

func (g *GoogleScheduler) toEvent(item *gcal.Event) Event {
	event := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
	}
	if item.Start != nil && item.Start.DateTime != "" {
		if start, err := time.Parse(time.RFC3339, item.Start.DateTime); err == nil {
			event.Start = start.In(g.loc)
		}
	}
	if item.End != nil && item.End.DateTime != "" {
		if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
			event.End = end.In(g.loc)
		}
	}
	return event
}
