package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kokoro_gateway_active_sessions",
		Help: "Number of active streaming sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kokoro_gateway_sessions_total",
		Help: "Total number of streaming sessions handled",
	})

	// Synthesis metrics
	synthesisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kokoro_gateway_synthesis_requests_total",
		Help: "Total number of synthesis requests",
	}, []string{"status"})

	synthesisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kokoro_gateway_synthesis_latency_seconds",
		Help:    "End-to-end synthesis latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	firstFrameLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kokoro_gateway_first_frame_latency_seconds",
		Help:    "Latency from synthesis request to first emitted frame in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Audio metrics
	framesEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kokoro_gateway_frames_emitted_total",
		Help: "Total number of audio frames emitted",
	})

	audioBytesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kokoro_gateway_audio_bytes_total",
		Help: "Total audio bytes streamed to clients",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kokoro_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"kind", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kokoro_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kokoro_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// SynthesisMetrics tracks metrics for a single synthesis call
type SynthesisMetrics struct {
	mu         sync.Mutex
	startTime  time.Time
	firstFrame bool
}

// NewSynthesisMetrics starts a metrics tracker for one synthesis call
func NewSynthesisMetrics() *SynthesisMetrics {
	return &SynthesisMetrics{startTime: time.Now()}
}

// RecordFrame records one emitted frame and its payload size
func (m *SynthesisMetrics) RecordFrame(bytes int) {
	m.mu.Lock()
	if !m.firstFrame {
		m.firstFrame = true
		firstFrameLatency.Observe(time.Since(m.startTime).Seconds())
	}
	m.mu.Unlock()

	framesEmitted.Inc()
	audioBytesOut.Add(float64(bytes))
}

// RecordEnd records the completion of the synthesis call
func (m *SynthesisMetrics) RecordEnd(success bool) {
	synthesisLatency.Observe(time.Since(m.startTime).Seconds())

	status := "success"
	if !success {
		status = "error"
	}
	synthesisRequests.WithLabelValues(status).Inc()
}

// RecordSessionStart records a new streaming session
func RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records a finished streaming session
func RecordSessionEnd() {
	activeSessions.Dec()
}

// RecordError records an error by kind and component
func RecordError(kind, component string) {
	errorsTotal.WithLabelValues(kind, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
