package schedule

import (
	"regexp"
	"strings"
	"time"

	"github.com/mlclabs/voicedesk/internal/model/entity"
)

// Appointment is a concrete interval derived from DATE+TIME entities.
// End is always Start plus the fixed visit duration.
type Appointment struct {
	Start time.Time
	End   time.Time
}

// visitDuration is the fixed appointment length.
const visitDuration = time.Hour

// maxLeadTime bounds how far out a resolved appointment may be before it is
// treated as a misparse rather than a real request.
const maxLeadTime = 2 * 366 * 24 * time.Hour

// Resolver turns free-text date and time spans into clinic-local instants.
type Resolver struct {
	loc *time.Location
}

// NewResolver builds a resolver anchored to the clinic timezone. All parsed
// instants are expressed in this location.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{loc: loc}
}

var ordinalSuffix = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)

var clockSpan = regexp.MustCompile(`(?i)(\d{1,2}:\d{2})\s*(AM|PM)`)

// layouts are tried in order; the first successful parse wins, which gives a
// deterministic tie-break for strings that would match several formats.
// Year-less layouts resolve to the nearest upcoming occurrence.
var layouts = []struct {
	layout  string
	hasYear bool
}{
	{"2 January 2006 3:04 PM", true},
	{"January 2, 2006 3:04 PM", true},
	{"January 2 3:04 PM", false},
	{"2 January 3:04 PM", false},
}

// Resolve picks the last DATE and last TIME entity, normalizes ordinal
// suffixes ("5th" -> "5"), and parses the combined text against the layout
// list. It returns nil whenever either entity is missing or no layout
// matches; malformed input is never an error.
func (r *Resolver) Resolve(entities []entity.Entity, now time.Time) *Appointment {
	date, ok := entity.Last(entities, entity.Date)
	if !ok {
		return nil
	}
	clock, ok := entity.Last(entities, entity.Time)
	if !ok {
		return nil
	}

	dateText := ordinalSuffix.ReplaceAllString(strings.TrimSpace(date.Text), "$1")
	combined := dateText + " " + normalizeClock(clock.Text)

	for _, candidate := range layouts {
		start, err := time.ParseInLocation(candidate.layout, combined, r.loc)
		if err != nil {
			continue
		}

		if !candidate.hasYear {
			start = time.Date(now.In(r.loc).Year(), start.Month(), start.Day(), start.Hour(), start.Minute(), 0, 0, r.loc)
			if start.Before(now) {
				start = start.AddDate(1, 0, 0)
			}
		}

		if start.Sub(now) > maxLeadTime {
			return nil
		}

		return &Appointment{Start: start, End: start.Add(visitDuration)}
	}

	return nil
}

// normalizeClock upcases the meridiem and forces a single space before it so
// "2:30pm" and "2:30 PM" parse against the same layout.
func normalizeClock(text string) string {
	text = strings.TrimSpace(text)
	return clockSpan.ReplaceAllStringFunc(text, func(match string) string {
		parts := clockSpan.FindStringSubmatch(match)
		return parts[1] + " " + strings.ToUpper(parts[2])
	})
}
