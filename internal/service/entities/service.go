package entities

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	analysis "github.com/mlclabs/voicedesk/internal/analysis/entities"
	"github.com/mlclabs/voicedesk/internal/model/entity"
)

const extractorSystemPrompt = `You are a named-entity extractor for a medical front desk.
Given one caller utterance, return ONLY a JSON array of the entities you find.
Each element has the shape {"kind": "...", "text": "..."}.
Allowed kinds: DATE, TIME, PERSON, PHONE.
"text" must be the exact substring from the utterance.
Return [] when nothing matches. No prose, no markdown.`

const extractorUserPrompt = `Utterance: {utterance}`

// Config controls the entity extraction service.
type Config struct {
	Enabled bool
}

// Service extracts typed spans from utterances. When the LLM extractor is
// enabled it runs a classifier chain over the shared chat model and falls
// back to pattern matching on any failure; when disabled it is pattern
// matching all the way down.
type Service struct {
	enabled   bool
	extractor compose.Runnable[map[string]any, *schema.Message]
	fallback  func(string) []entity.Entity
}

// NewService creates the extraction service. chatModel may be nil, in which
// case only the heuristic extractor runs.
func NewService(ctx context.Context, chatModel model.ChatModel, cfg Config) (*Service, error) {
	svc := &Service{
		enabled:  cfg.Enabled && chatModel != nil,
		fallback: analysis.Extract,
	}

	if !svc.enabled {
		return svc, nil
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(extractorSystemPrompt),
		schema.UserMessage(extractorUserPrompt),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile extractor chain: %w", err)
	}

	svc.extractor = runnable
	return svc, nil
}

// Enabled reports whether the LLM extractor is active.
func (s *Service) Enabled() bool {
	return s != nil && s.enabled && s.extractor != nil
}

// Extract returns the typed spans found in the utterance. Extraction never
// fails from the caller's point of view; every fault path degrades to the
// heuristic extractor.
func (s *Service) Extract(ctx context.Context, text string) []entity.Entity {
	if !s.Enabled() {
		return s.fallback(text)
	}

	msg, err := s.extractor.Invoke(ctx, map[string]any{"utterance": text})
	if err != nil {
		log.Printf("[entities] extractor invoke failed, using fallback: %v", err)
		return s.fallback(text)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return s.fallback(text)
	}

	parsed, err := parseExtractorOutput(msg.Content)
	if err != nil {
		log.Printf("[entities] extractor output parse failed, using fallback: %v", err)
		return s.fallback(text)
	}

	if len(parsed) == 0 {
		return s.fallback(text)
	}
	return parsed
}

// parseExtractorOutput pulls the JSON array out of the model reply and keeps
// only well-formed entities of known kinds.
func parseExtractorOutput(content string) ([]entity.Entity, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "[")
	end := strings.LastIndex(trimmed, "]")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("missing json array")
	}

	var raw []entity.Entity
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &raw); err != nil {
		return nil, err
	}

	valid := raw[:0]
	for _, item := range raw {
		if item.Text == "" {
			continue
		}
		switch entity.Kind(strings.ToUpper(string(item.Kind))) {
		case entity.Date, entity.Time, entity.Person, entity.Phone:
			item.Kind = entity.Kind(strings.ToUpper(string(item.Kind)))
			valid = append(valid, item)
		}
	}
	return valid, nil
}
