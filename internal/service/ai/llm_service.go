package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/mlclabs/voicedesk/internal/analysis/intent"
	"github.com/mlclabs/voicedesk/internal/config"
	"github.com/mlclabs/voicedesk/internal/model/conversation"
	"github.com/mlclabs/voicedesk/internal/model/practice"
)

// Service answers the general (non-booking) queries of a call with the LLM,
// grounded in the practice knowledge profile.
type Service struct {
	chatModel model.ChatModel
	profile   practice.Profile
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the receptionist chain on top of the configured chat
// model.
func NewService(ctx context.Context, profile practice.Profile, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile receptionist chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		profile:   profile,
		chain:     runnable,
	}, nil
}

// GenerateReply produces a receptionist answer for a free-form query. The
// query is annotated when the utterance signals a medical concern so the
// model prioritizes care guidance.
func (s *Service) GenerateReply(ctx context.Context, sessionID string, history []conversation.Message, userText string) (string, error) {
	query := userText
	queryCtx := intent.ClassifyQuery(userText)
	if queryCtx.RequiresAttention {
		query = fmt.Sprintf("%s\nContext: %s", userText, queryCtx.Note)
	}

	response, err := s.chain.Invoke(ctx, map[string]any{
		"system":  BuildSystemPrompt(s.profile),
		"history": s.buildHistoryMessages(history),
		"query":   query,
	})
	if err != nil {
		return "", fmt.Errorf("failed to run receptionist chain: %w", err)
	}

	log.Printf("[ai] generated reply for session=%s type=%s length=%d", sessionID, queryCtx.Type, len(response.Content))
	return response.Content, nil
}

// GetChatModel exposes the underlying model so other services (the entity
// extractor) can reuse it instead of holding separate credentials.
func (s *Service) GetChatModel() model.ChatModel {
	return s.chatModel
}

func (s *Service) buildHistoryMessages(messages []conversation.Message) []*schema.Message {
	const historyLimit = 10

	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > historyLimit {
		startIdx = len(messages) - historyLimit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case conversation.SenderCaller:
			history = append(history, schema.UserMessage(msg.Content))
		case conversation.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}

	return history
}
