package intent

import "strings"

// bookingTriggers is the fixed vocabulary that starts the appointment flow.
// Matching is a case-insensitive substring OR with no negation handling:
// "I don't want to book" still triggers. That is intentional; the front desk
// would rather over-offer booking than miss a request.
var bookingTriggers = []string{
	"book",
	"schedule",
	"appointment",
	"see the doctor",
	"make an appointment",
	"book a time",
	"schedule a visit",
}

// HasBookingIntent reports whether the utterance asks to start booking an
// appointment. Pure function, no failure mode.
func HasBookingIntent(text string) bool {
	lowered := strings.ToLower(text)
	for _, trigger := range bookingTriggers {
		if strings.Contains(lowered, trigger) {
			return true
		}
	}
	return false
}

// QueryType buckets a non-booking utterance so the LLM fallback can be
// steered toward the right part of the knowledge base.
type QueryType string

const (
	QueryGeneral        QueryType = "general"
	QueryMedical        QueryType = "medical"
	QueryAdministrative QueryType = "administrative"
	QueryService        QueryType = "service"
)

// Context is the result of classifying a general query.
type Context struct {
	Type              QueryType
	RequiresAttention bool
	Note              string
}

var medicalTerms = []string{
	"pain", "hurt", "sick", "fever", "emergency", "urgent",
	"bleeding", "severe", "injury", "accident",
}

var adminTerms = []string{
	"insurance", "bill", "payment", "forms", "records",
	"document", "certificate", "report",
}

var serviceTerms = []string{
	"vaccine", "shot", "checkup", "physical", "test",
	"screening", "prescription", "refill",
}

// ClassifyQuery inspects an utterance for medical, administrative, or
// service-related vocabulary. Medical concerns are flagged so the reply can
// prioritize care guidance.
func ClassifyQuery(text string) Context {
	lowered := strings.ToLower(text)

	if containsAny(lowered, medicalTerms) {
		return Context{
			Type:              QueryMedical,
			RequiresAttention: true,
			Note:              "Patient expressing medical concern - prioritize care guidance",
		}
	}
	if containsAny(lowered, adminTerms) {
		return Context{Type: QueryAdministrative}
	}
	if containsAny(lowered, serviceTerms) {
		return Context{Type: QueryService}
	}
	return Context{Type: QueryGeneral}
}

func containsAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
