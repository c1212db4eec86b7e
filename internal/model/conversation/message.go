package conversation

import "time"

// Message records one side of a turn for the LLM fallback context.
type Message struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	SenderCaller    = "user"
	SenderAssistant = "assistant"
)
