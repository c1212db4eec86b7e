package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mlclabs/voicedesk/internal/config"
)

// DeepgramTTSClient speaks to the Deepgram /v1/speak REST endpoint and
// returns raw audio bytes.
type DeepgramTTSClient struct {
	cfg        config.SpeechConfig
	httpClient *http.Client
}

// NewDeepgramTTSClient builds the client. Timeouts are enforced per call via
// context so a single shared http.Client is enough.
func NewDeepgramTTSClient(cfg config.SpeechConfig) *DeepgramTTSClient {
	return &DeepgramTTSClient{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

type speakRequest struct {
	Text string `json:"text"`
}

type speakErrorResponse struct {
	ErrCode string `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
}

// Synthesize converts text into speech audio. The response body is the audio
// itself; any non-200 status is surfaced as an error.
func (c *DeepgramTTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("TTS text is empty")
	}

	endpoint, err := url.Parse(c.cfg.BaseURL + "/v1/speak")
	if err != nil {
		return nil, fmt.Errorf("invalid TTS base URL: %w", err)
	}

	query := endpoint.Query()
	query.Set("model", c.cfg.Model)
	query.Set("encoding", c.cfg.Encoding)
	query.Set("sample_rate", strconv.Itoa(c.cfg.SampleRate))
	endpoint.RawQuery = query.Encode()

	payload, err := json.Marshal(speakRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal TTS request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build TTS request failed: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read TTS response failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr speakErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.ErrMsg != "" {
			return nil, fmt.Errorf("TTS failed with status %d: %s", resp.StatusCode, apiErr.ErrMsg)
		}
		return nil, fmt.Errorf("TTS failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if len(body) == 0 {
		return nil, fmt.Errorf("TTS returned empty audio")
	}

	return body, nil
}
