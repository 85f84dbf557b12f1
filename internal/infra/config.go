package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	OutputDir         string
	CaptionProvider   string
	CaptionModel      string
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	ImageModel        string
	ImageSize         string
	EditModel         string
	MaxUploadBytes    int64
	RateLimitPerMin   int
	AllowedOrigins    []string
	CaptionTimeout    time.Duration
	GenerationTimeout time.Duration
	FetchGrace        time.Duration
	FetchMaxWait      time.Duration
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		OutputDir:         getEnv("OUTPUT_DIR", "output"),
		CaptionProvider:   getEnv("CAPTION_PROVIDER", "openai"),
		CaptionModel:      getEnv("CAPTION_MODEL", "gpt-4o-mini"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_CAPTION_MODEL", "gemini-1.5-flash"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ImageModel:        getEnv("IMAGE_MODEL", "dall-e-3"),
		ImageSize:         getEnv("IMAGE_SIZE", "1024x1024"),
		EditModel:         getEnv("EDIT_MODEL", "gpt-4.1-mini"),
		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		CaptionTimeout:    time.Second * time.Duration(getEnvInt("CAPTION_TIMEOUT_SECONDS", 60)),
		GenerationTimeout: time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 120)),
		FetchGrace:        time.Second * time.Duration(getEnvInt("FETCH_GRACE_SECONDS", 2)),
		FetchMaxWait:      time.Second * time.Duration(getEnvInt("FETCH_MAX_WAIT_SECONDS", 60)),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 30)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 300)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	switch cfg.CaptionProvider {
	case "openai":
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when CAPTION_PROVIDER=gemini")
		}
	default:
		return nil, fmt.Errorf("unsupported CAPTION_PROVIDER %q", cfg.CaptionProvider)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvInt64(key string, fallback int64) int64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}
