package entity

// Kind identifies the type of a span extracted from free text.
type Kind string

const (
	Date   Kind = "DATE"
	Time   Kind = "TIME"
	Person Kind = "PERSON"
	Phone  Kind = "PHONE"
)

// Entity is a typed span pulled out of an utterance by an extractor.
type Entity struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Last returns the final entity of the given kind, preserving the rule that
// a later mention overrides an earlier one within the same utterance.
func Last(entities []Entity, kind Kind) (Entity, bool) {
	for i := len(entities) - 1; i >= 0; i-- {
		if entities[i].Kind == kind {
			return entities[i], true
		}
	}
	return Entity{}, false
}
