package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	defaultPort           = "5000"
	defaultGeminiModel    = "gemini-1.5-flash"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultMaxBodyBytes   = 50 << 20
	defaultMaxUploadBytes = 10 << 20
	defaultLLMTimeoutSecs = 120

	// Production frontend plus the local Vite dev server.
	defaultCORSOrigins = "https://backend-cal.vercel.app,http://localhost:5173"
)

// Config holds application configuration. It is built once at startup and
// handed to constructors; nothing reads the environment after Load returns.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	CORSAllowOrigin []string
	MaxBodyBytes    int64
	MaxUploadBytes  int64

	LLMProvider       string
	GeminiAPIKey      string
	GeminiModel       string
	OpenAIAPIKey      string
	OpenAIModel       string
	LLMTimeoutSeconds int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("config: DATABASE_URL is required in production")
	}

	return Config{
		Port:              getEnv("PORT", defaultPort),
		Env:               env,
		DatabaseURL:       dbURL,
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", defaultCORSOrigins)),
		MaxBodyBytes:      getEnvInt64("MAX_BODY_BYTES", defaultMaxBodyBytes),
		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		LLMProvider:       normalizeProvider(getEnv("LLM_PROVIDER", "gemini")),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", defaultGeminiModel),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("LLM_MODEL", defaultOpenAIModel),
		LLMTimeoutSeconds: int(getEnvInt64("LLM_TIMEOUT_SECONDS", defaultLLMTimeoutSecs)),
	}
}

// IsDevLike reports whether the environment tolerates missing infrastructure.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || val <= 0 {
		log.Printf("config: %s invalid positive int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "none", "placeholder":
		return "none"
	default:
		return "gemini"
	}
}
