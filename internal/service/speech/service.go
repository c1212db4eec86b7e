package speech

import (
	"context"
	"log"

	"github.com/mlclabs/voicedesk/internal/config"
)

// Service is the synthesis capability shared across sessions. Configuration
// is read-only after construction.
type Service struct {
	cfg config.SpeechConfig
	tts *DeepgramTTSClient
}

// NewService creates the speech service.
func NewService(cfg config.SpeechConfig) *Service {
	return &Service{
		cfg: cfg,
		tts: NewDeepgramTTSClient(cfg),
	}
}

// Enabled reports whether synthesis credentials are configured.
func (s *Service) Enabled() bool {
	return s != nil && s.cfg.Enabled
}

// Synthesize renders reply text as audio, bounded by the configured timeout.
// Callers must treat an error as a text-only turn, never as a failed turn.
func (s *Service) Synthesize(ctx context.Context, sessionID, text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	audio, err := s.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	log.Printf("[tts] synthesized audio session=%s bytes=%d", sessionID, len(audio))
	return audio, nil
}
