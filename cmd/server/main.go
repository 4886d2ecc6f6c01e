package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kokorolabs/kokoro-gateway/internal/config"
	"github.com/kokorolabs/kokoro-gateway/internal/gateway"
	"github.com/kokorolabs/kokoro-gateway/internal/observability"
	"github.com/kokorolabs/kokoro-gateway/internal/resilience"
	"github.com/kokorolabs/kokoro-gateway/internal/tts"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("kokoro_base_url", cfg.KokoroBaseURL).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Kokoro Gateway Service starting")

	// Shared TTS client; all synthesis streams draw from its connection pool
	synth := tts.NewKokoroTTS(cfg)

	// Circuit breaker guarding the Kokoro server, state mirrored into metrics
	breaker := resilience.NewCircuitBreaker(
		"kokoro",
		cfg.CircuitBreakerMaxFailures,
		time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
	)
	breaker.OnStateChange(func(name string, state resilience.CircuitState) {
		observability.UpdateCircuitBreakerState(name, int(state))
		if state == resilience.StateOpen {
			observability.IncrementCircuitBreakerFailures(name)
		}
		logger.Warn().Str("breaker", name).Int("state", int(state)).Msg("Circuit breaker state changed")
	})

	mux := http.NewServeMux()

	// Streaming synthesis over WebSocket
	mux.HandleFunc("/streams/synthesize", gateway.HandleSynthesizeWS(cfg, synth))

	// One-shot synthesis over HTTP, raw PCM response
	mux.HandleFunc("/v1/synthesize", gateway.HandleSynthesize(cfg, synth, breaker))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness probes the Kokoro server with a cheap unauthenticated request;
	// any HTTP response at all means the server is reachable.
	kokoroCheck := func(ctx context.Context) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.KokoroBaseURL+"/models", nil)
		if err != nil {
			return false, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return false, err
		}
		resp.Body.Close()
		return true, nil
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"kokoro": kokoroCheck,
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// WriteTimeout is deliberately generous: /v1/synthesize streams audio for
	// as long as the upstream produces it.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/streams/synthesize", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
