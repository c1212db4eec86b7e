package voice

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/mlclabs/voicedesk/internal/config"
	"github.com/mlclabs/voicedesk/internal/model/entity"
	convsvc "github.com/mlclabs/voicedesk/internal/service/conversation"
	"github.com/mlclabs/voicedesk/internal/service/schedule"
	"github.com/mlclabs/voicedesk/internal/service/speech"
)

const testGreeting = "Good morning! Thank you for calling Dr. Smith's office. How can I assist you today?"

type noopExtractor struct{}

func (noopExtractor) Extract(_ context.Context, _ string) []entity.Entity { return nil }

func newTestHandler(speechSvc *speech.Service, registry *convsvc.Registry) *Handler {
	engine := convsvc.NewEngine(
		noopExtractor{},
		schedule.NewResolver(time.UTC),
		nil,
		nil,
		convsvc.Options{Greeting: testGreeting},
	)
	return New(engine, speechSvc, registry)
}

func mountServer(t *testing.T, h *Handler) *httptest.Server {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T, registry *convsvc.Registry) *httptest.Server {
	t.Helper()
	return mountServer(t, newTestHandler(nil, registry))
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// ttsService builds a speech service pointed at a stub Deepgram endpoint.
func ttsService(t *testing.T, handler http.HandlerFunc) *speech.Service {
	t.Helper()

	tts := httptest.NewServer(handler)
	t.Cleanup(tts.Close)

	return speech.NewService(config.SpeechConfig{
		APIKey:     "test-key",
		BaseURL:    tts.URL,
		Model:      "aura-helios-en",
		Encoding:   "linear16",
		SampleRate: 16000,
		Timeout:    time.Second,
		Enabled:    true,
	})
}

func TestTranscriptionTurnReturnsResponse(t *testing.T) {
	server := newTestServer(t, convsvc.NewRegistry())
	conn := dial(t, server)

	if err := conn.WriteJSON(map[string]string{"type": "transcription", "text": "hello"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var reply responseMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply.Type != "response" {
		t.Fatalf("unexpected message type: %s", reply.Type)
	}
	if reply.Text != testGreeting {
		t.Fatalf("unexpected reply text: %q", reply.Text)
	}
	if reply.Audio != "" || reply.Error != "" {
		t.Fatalf("text-only deployment must not carry audio fields: %+v", reply)
	}
}

func TestRepliesArriveInTurnOrder(t *testing.T) {
	server := newTestServer(t, convsvc.NewRegistry())
	conn := dial(t, server)

	turns := []string{"hello", "I'd like to book an appointment", "Jane Doe"}
	for _, text := range turns {
		if err := conn.WriteJSON(map[string]string{"type": "transcription", "text": text}); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	var replies []string
	for range turns {
		var reply responseMessage
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		replies = append(replies, reply.Text)
	}

	if replies[0] != testGreeting {
		t.Fatalf("expected greeting first, got %q", replies[0])
	}
	if !strings.Contains(replies[1], "full name") {
		t.Fatalf("expected name prompt second, got %q", replies[1])
	}
	if !strings.Contains(replies[2], "contact number") {
		t.Fatalf("expected contact prompt third, got %q", replies[2])
	}
}

func TestUnknownMessageTypeIsIgnored(t *testing.T) {
	server := newTestServer(t, convsvc.NewRegistry())
	conn := dial(t, server)

	if err := conn.WriteJSON(map[string]string{"type": "audio", "text": "ignored"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := conn.WriteJSON(map[string]string{"type": "transcription", "text": "hello"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var reply responseMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply.Text != testGreeting {
		t.Fatalf("expected greeting for the transcription turn, got %q", reply.Text)
	}
}

func TestMalformedFrameKeepsCallAlive(t *testing.T) {
	server := newTestServer(t, convsvc.NewRegistry())
	conn := dial(t, server)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var errMsg errorMessage
	if err := conn.ReadJSON(&errMsg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if errMsg.Type != "error" || errMsg.Message == "" {
		t.Fatalf("expected error event, got %+v", errMsg)
	}

	if err := conn.WriteJSON(map[string]string{"type": "transcription", "text": "hello"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var reply responseMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read after malformed frame failed: %v", err)
	}
	if reply.Text != testGreeting {
		t.Fatalf("expected call to continue, got %q", reply.Text)
	}
}

func TestMalformedFramesRefreshReadDeadline(t *testing.T) {
	handler := newTestHandler(nil, convsvc.NewRegistry())
	handler.readTimeout = 300 * time.Millisecond
	server := mountServer(t, handler)
	conn := dial(t, server)

	// Keep the call busy with garbage for well past the shortened deadline;
	// each frame must count as activity.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		var errMsg errorMessage
		if err := conn.ReadJSON(&errMsg); err != nil {
			t.Fatalf("read failed: %v", err)
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := conn.WriteJSON(map[string]string{"type": "transcription", "text": "hello"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var reply responseMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("expected call to survive sustained garbage, read failed: %v", err)
	}
	if reply.Text != testGreeting {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
}

func TestPingsDoNotDisruptTurnReplies(t *testing.T) {
	handler := newTestHandler(nil, convsvc.NewRegistry())
	handler.pingInterval = time.Millisecond
	server := mountServer(t, handler)
	conn := dial(t, server)

	// Replies and keepalive pings now interleave constantly; every turn must
	// still produce exactly one intact reply.
	for i := 0; i < 200; i++ {
		text := fmt.Sprintf("turn %d", i)
		if err := conn.WriteJSON(map[string]string{"type": "transcription", "text": text}); err != nil {
			t.Fatalf("turn %d: write failed: %v", i, err)
		}

		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var reply responseMessage
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("turn %d: read failed: %v", i, err)
		}
		if reply.Type != "response" || reply.Text == "" {
			t.Fatalf("turn %d: corrupted reply: %+v", i, reply)
		}
	}
}

func TestSynthesisFailureDegradesToTextOnly(t *testing.T) {
	speechSvc := ttsService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"err_code":"INTERNAL","err_msg":"voice model offline"}`))
	})

	server := mountServer(t, newTestHandler(speechSvc, convsvc.NewRegistry()))
	conn := dial(t, server)

	if err := conn.WriteJSON(map[string]string{"type": "transcription", "text": "hello"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var reply responseMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply.Text != testGreeting {
		t.Fatalf("reply text must survive a synthesis failure, got %q", reply.Text)
	}
	if reply.Error != "Audio generation failed" {
		t.Fatalf("expected audio failure marker, got %q", reply.Error)
	}
	if reply.Audio != "" {
		t.Fatalf("failed synthesis must not attach audio, got %d bytes", len(reply.Audio))
	}
}

func TestSynthesisSuccessAttachesAudio(t *testing.T) {
	speechSvc := ttsService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x01, 0x02, 0x03, 0x04})
	})

	server := mountServer(t, newTestHandler(speechSvc, convsvc.NewRegistry()))
	conn := dial(t, server)

	if err := conn.WriteJSON(map[string]string{"type": "transcription", "text": "hello"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var reply responseMessage
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if reply.Text != testGreeting || reply.Error != "" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Audio != "AQIDBA==" {
		t.Fatalf("unexpected audio payload: %q", reply.Audio)
	}
}

func TestConnectionLifecycleTracksRegistry(t *testing.T) {
	registry := convsvc.NewRegistry()
	server := newTestServer(t, registry)
	conn := dial(t, server)

	waitFor(t, func() bool { return registry.Len() == 1 })

	conn.Close()

	waitFor(t, func() bool { return registry.Len() == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
