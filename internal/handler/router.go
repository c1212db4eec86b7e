package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mlclabs/voicedesk/internal/handler/voice"
	middlewarePkg "github.com/mlclabs/voicedesk/internal/middleware"
	convsvc "github.com/mlclabs/voicedesk/internal/service/conversation"
	"github.com/mlclabs/voicedesk/internal/service/speech"
	"github.com/mlclabs/voicedesk/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(engine *convsvc.Engine, speechSvc *speech.Service, registry *convsvc.Registry, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	voiceHandler := voice.New(engine, speechSvc, registry)
	voiceHandler.RegisterRoutes(r)

	indexPage := filepath.Join(staticDir, "index.html")

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		if _, err := os.Stat(indexPage); err == nil {
			http.ServeFile(w, req, indexPage)
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"service": "voicedesk",
			"status":  "ok",
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":          "ok",
			"active_sessions": registry.Len(),
		})
	})

	return r
}
