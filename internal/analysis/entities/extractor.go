package entities

import (
	"regexp"

	"github.com/mlclabs/voicedesk/internal/model/entity"
)

// Heuristic extraction for the spans the booking flow needs. It only knows
// the shapes callers actually say when asked for a date and time, which is
// enough to keep the flow working when the LLM extractor is unavailable.

const months = `January|February|March|April|May|June|July|August|September|October|November|December`

var (
	// "5th March", "5 March 2026", "March 5th", "March 5, 2026"
	datePattern = regexp.MustCompile(`(?i)\b(\d{1,2}(?:st|nd|rd|th)?\s+(?:` + months + `)(?:\s+\d{4})?|(?:` + months + `)\s+\d{1,2}(?:st|nd|rd|th)?(?:,\s*\d{4})?)\b`)

	// "2:30 PM", "10:00am"
	timePattern = regexp.MustCompile(`(?i)\b(\d{1,2}:\d{2}\s*(?:AM|PM))`)

	// "555-1234", "+1 555 867 5309"
	phonePattern = regexp.MustCompile(`\+?\d[\d\-\s().]{5,}\d`)
)

// Extract scans the text for DATE, TIME, and PHONE spans. PERSON spans are
// beyond what a pattern can do reliably and are left to the LLM extractor.
func Extract(text string) []entity.Entity {
	var found []entity.Entity

	for _, match := range datePattern.FindAllString(text, -1) {
		found = append(found, entity.Entity{Kind: entity.Date, Text: match})
	}
	for _, match := range timePattern.FindAllString(text, -1) {
		found = append(found, entity.Entity{Kind: entity.Time, Text: match})
	}
	for _, match := range phonePattern.FindAllString(text, -1) {
		found = append(found, entity.Entity{Kind: entity.Phone, Text: match})
	}

	return found
}
