package voice

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mlclabs/voicedesk/internal/model/conversation"
	convsvc "github.com/mlclabs/voicedesk/internal/service/conversation"
	"github.com/mlclabs/voicedesk/internal/service/speech"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

// Handler owns the websocket call loop: one connection is one call, one
// inbound transcription is one turn.
type Handler struct {
	engine   *convsvc.Engine
	speech   *speech.Service
	registry *convsvc.Registry
	upgrader websocket.Upgrader

	readTimeout  time.Duration
	pingInterval time.Duration
}

// New creates the voice websocket handler. speech may be nil for text-only
// deployments.
func New(engine *convsvc.Engine, speechSvc *speech.Service, registry *convsvc.Registry) *Handler {
	return &Handler{
		engine:   engine,
		speech:   speechSvc,
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout:  readTimeout,
		pingInterval: pingInterval,
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type responseMessage struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Audio string `json:"audio,omitempty"`
	Error string `json:"error,omitempty"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// handleWebSocket runs one call end to end. Turns are processed in arrival
// order on this goroutine, so replies go out in the order the caller spoke.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sess := conversation.NewSession(uuid.NewString())
	h.registry.Register(sess)
	defer h.registry.Unregister(sess.ID)

	log.Printf("[websocket] call started session=%s", sess.ID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				// A malformed frame is a caller fault, not a call fault:
				// report it and keep the call alive. It still counts as
				// activity, so the deadline moves too.
				var syntaxErr *json.SyntaxError
				var typeErr *json.UnmarshalTypeError
				if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
					conn.SetReadDeadline(time.Now().Add(h.readTimeout))
					h.sendError(conn, "invalid message")
					continue
				}
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[websocket] read error session=%s: %v", sess.ID, err)
				}
				log.Printf("[websocket] call ended session=%s turns=%d", sess.ID, len(sess.History)/2)
				return
			}

			conn.SetReadDeadline(time.Now().Add(h.readTimeout))

			if msg.Type != "transcription" {
				continue
			}

			h.handleTurn(ctx, conn, sess, msg.Text)
		}
	}
}

// handleTurn runs one utterance through the engine and ships the reply,
// with audio when synthesis is available.
func (h *Handler) handleTurn(ctx context.Context, conn *websocket.Conn, sess *conversation.Session, text string) {
	reply := h.engine.Step(ctx, sess, text)

	out := responseMessage{Type: "response", Text: reply}

	if h.speech.Enabled() {
		audio, err := h.speech.Synthesize(ctx, sess.ID, reply)
		if err != nil {
			// Synthesis failure degrades the turn to text only.
			log.Printf("[websocket] synthesis failed session=%s: %v", sess.ID, err)
			out.Error = "Audio generation failed"
		} else {
			out.Audio = base64.StdEncoding.EncodeToString(audio)
		}
	}

	if err := conn.WriteJSON(out); err != nil {
		log.Printf("[websocket] write response failed session=%s: %v", sess.ID, err)
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	msg := errorMessage{Type: "error", Message: message}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

// pingLoop keeps the connection alive from its own goroutine. It must use
// WriteControl: control frames are the only writes gorilla/websocket allows
// concurrently with the read loop's reply writes.
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
