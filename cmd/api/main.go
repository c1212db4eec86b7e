package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/joho/godotenv"

	"github.com/mlclabs/voicedesk/internal/config"
	"github.com/mlclabs/voicedesk/internal/handler"
	"github.com/mlclabs/voicedesk/internal/model/practice"
	"github.com/mlclabs/voicedesk/internal/service/ai"
	"github.com/mlclabs/voicedesk/internal/service/calendar"
	convsvc "github.com/mlclabs/voicedesk/internal/service/conversation"
	entitysvc "github.com/mlclabs/voicedesk/internal/service/entities"
	"github.com/mlclabs/voicedesk/internal/service/schedule"
	"github.com/mlclabs/voicedesk/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	profile := practice.Seed()

	loc, err := cfg.Calendar.Location()
	if err != nil {
		log.Fatalf("failed to resolve clinic timezone: %v", err)
	}

	// Initialize AI service
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, profile, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - general queries get a canned apology")
		} else {
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, skipping AI initialization")
	}

	// Initialize entity extraction (LLM-assisted with heuristic fallback)
	var chatModelForExtraction model.ChatModel
	if aiService != nil {
		chatModelForExtraction = aiService.GetChatModel()
	}
	extractor, err := entitysvc.NewService(ctx, chatModelForExtraction, entitysvc.Config{
		Enabled: cfg.AI.ExtractorEnabled,
	})
	if err != nil {
		log.Fatalf("failed to initialize entity extraction: %v", err)
	}
	if extractor.Enabled() {
		log.Println("LLM entity extractor enabled")
	} else if cfg.AI.ExtractorEnabled {
		log.Println("LLM entity extractor requested but chat model unavailable, falling back to heuristics")
	} else {
		log.Println("LLM entity extractor disabled by configuration")
	}

	// Initialize calendar backend
	var backend calendar.Backend
	if cfg.Calendar.Enabled {
		scheduler, err := calendar.NewGoogleScheduler(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.CalendarID, loc)
		if err != nil {
			log.Printf("warning: failed to initialize Google Calendar: %v", err)
			log.Println("continuing without calendar - bookings are acknowledged, not scheduled")
		} else {
			backend = scheduler
			log.Println("Google Calendar backend initialized successfully")
		}
	} else {
		log.Println("Calendar credentials not configured, bookings are acknowledged without scheduling")
	}

	// Initialize Speech service
	var speechService *speech.Service
	if cfg.Speech.Enabled {
		speechService = speech.NewService(cfg.Speech)
		log.Println("Speech service initialized successfully")
	} else {
		log.Println("Deepgram credentials not configured, replies are text only")
	}

	var assistant convsvc.GeneralResponder
	if aiService != nil {
		assistant = aiService
	}

	engine := convsvc.NewEngine(extractor, schedule.NewResolver(loc), backend, assistant, convsvc.Options{
		Greeting:        profile.Greeting,
		MaxTimeRetries:  cfg.Booking.MaxTimeRetries,
		CalendarTimeout: cfg.Calendar.Timeout,
	})
	registry := convsvc.NewRegistry()

	router := handler.NewRouter(engine, speechService, registry, cfg.Server.StaticDir)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("voicedesk backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
