package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the Kokoro gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Kokoro TTS server configuration. The base URL must include the API
	// version prefix when the server uses one (Kokoro-FastAPI serves the
	// OpenAI-compatible endpoints under /v1).
	KokoroBaseURL string  `envconfig:"KOKORO_BASE_URL" default:"http://localhost:8000/v1"`
	KokoroAPIKey  string  `envconfig:"KOKORO_API_KEY" default:"sk-kokoro"`
	KokoroModel   string  `envconfig:"KOKORO_MODEL" default:"tts-1"`
	KokoroVoice   string  `envconfig:"KOKORO_VOICE" default:"af_heart"` // af_heart, af_bella, ...
	KokoroSpeed   float64 `envconfig:"KOKORO_SPEED" default:"1.0"`      // Speech speed multiplier

	// HTTP client tuning for the Kokoro server connection pool
	ConnectTimeout int `envconfig:"KOKORO_CONNECT_TIMEOUT" default:"15"`      // Dial timeout in seconds
	ReadTimeout    int `envconfig:"KOKORO_READ_TIMEOUT" default:"5"`          // Response header timeout in seconds
	MaxConnections int `envconfig:"KOKORO_MAX_CONNECTIONS" default:"50"`      // Concurrent connection cap
	MaxIdleConns   int `envconfig:"KOKORO_MAX_IDLE_CONNECTIONS" default:"50"` // Idle connections kept in the pool
	IdleConnExpiry int `envconfig:"KOKORO_IDLE_EXPIRY" default:"120"`         // Idle connection expiry in seconds

	// Audio processing configuration
	FrameDurationMs int `envconfig:"AUDIO_FRAME_MS" default:"100"` // Target emitted frame duration

	// Resilience configuration (caller-side retry policy; the TTS adapter
	// itself never retries)
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`             // Maximum retry attempts
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"100"`        // Initial backoff in milliseconds

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.KokoroBaseURL == "" {
		return nil, fmt.Errorf("KOKORO_BASE_URL must not be empty")
	}
	if cfg.FrameDurationMs <= 0 {
		return nil, fmt.Errorf("AUDIO_FRAME_MS must be positive, got %d", cfg.FrameDurationMs)
	}

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
