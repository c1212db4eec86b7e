package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Speech   SpeechConfig
	Calendar CalendarConfig
	Booking  BookingConfig
}

// Load parses the full configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	calendar, err := loadCalendarConfig()
	if err != nil {
		return nil, err
	}

	booking, err := loadBookingConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Speech: speech, Calendar: calendar, Booking: booking}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr      string
	StaticDir string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	addr := port
	if !strings.Contains(port, ":") {
		if strings.Contains(port, " ") {
			return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
		}
		addr = ":" + port
	}

	return ServerConfig{
		Addr:      addr,
		StaticDir: getEnvOrDefault("STATIC_DIR", "static"),
	}, nil
}

// AIConfig holds the chat model credentials used by the receptionist LLM
// and the entity extractor.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int

	ExtractorEnabled bool
}

// Enabled reports whether the required model credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("chat model credentials missing: provide ARK_API_KEY + ARK_MODEL, or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	extractorEnabled, err := parseBoolEnv("AI_ENTITY_EXTRACTOR_ENABLED", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:           strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:        strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:        strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:            strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:          getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:           getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:      temperature,
		TopP:             topP,
		MaxTokens:        maxTokens,
		ExtractorEnabled: extractorEnabled,
	}, nil
}

// SpeechConfig holds the Deepgram text-to-speech settings.
type SpeechConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Encoding   string
	SampleRate int
	Timeout    time.Duration
	Enabled    bool
}

func loadSpeechConfig() (SpeechConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("DEEPGRAM_TIMEOUT"); err != nil {
		return SpeechConfig{}, err
	} else if override != nil {
		timeoutSeconds = *override
	}

	sampleRate := 16000
	if override, err := parseOptionalIntEnv("DEEPGRAM_SAMPLE_RATE"); err != nil {
		return SpeechConfig{}, err
	} else if override != nil {
		sampleRate = *override
	}

	apiKey := strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY"))

	return SpeechConfig{
		APIKey:     apiKey,
		BaseURL:    getEnvOrDefault("DEEPGRAM_BASE_URL", "https://api.deepgram.com"),
		Model:      getEnvOrDefault("DEEPGRAM_TTS_MODEL", "aura-helios-en"),
		Encoding:   getEnvOrDefault("DEEPGRAM_TTS_ENCODING", "linear16"),
		SampleRate: sampleRate,
		Timeout:    time.Duration(timeoutSeconds) * time.Second,
		Enabled:    apiKey != "",
	}, nil
}

// CalendarConfig holds the Google Calendar settings and the clinic timezone
// used for every resolved appointment.
type CalendarConfig struct {
	CredentialsFile string
	CalendarID      string
	Timezone        string
	Timeout         time.Duration
	Enabled         bool
}

// Location resolves the configured clinic timezone.
func (c CalendarConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid CLINIC_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func loadCalendarConfig() (CalendarConfig, error) {
	timeoutSeconds := 15
	if override, err := parseOptionalIntEnv("CALENDAR_TIMEOUT"); err != nil {
		return CalendarConfig{}, err
	} else if override != nil {
		timeoutSeconds = *override
	}

	credentials := strings.TrimSpace(os.Getenv("GOOGLE_CALENDAR_CREDENTIALS"))

	return CalendarConfig{
		CredentialsFile: credentials,
		CalendarID:      getEnvOrDefault("GOOGLE_CALENDAR_ID", "primary"),
		Timezone:        getEnvOrDefault("CLINIC_TIMEZONE", "America/Los_Angeles"),
		Timeout:         time.Duration(timeoutSeconds) * time.Second,
		Enabled:         credentials != "",
	}, nil
}

// BookingConfig tunes the conversation engine.
type BookingConfig struct {
	// MaxTimeRetries bounds consecutive unresolved date/time attempts before
	// a booking is abandoned.
	MaxTimeRetries int
}

func loadBookingConfig() (BookingConfig, error) {
	maxRetries := 3
	if override, err := parseOptionalIntEnv("BOOKING_MAX_TIME_RETRIES"); err != nil {
		return BookingConfig{}, err
	} else if override != nil {
		if *override < 1 {
			maxRetries = 1
		} else {
			maxRetries = *override
		}
	}

	return BookingConfig{MaxTimeRetries: maxRetries}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
