package api

import (
	"net/http"
	"net/http/pprof"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"maze-arena/internal/game"
)

// Metrics with bounded cardinality (no per-client or per-enemy labels)
var (
	// Simulation metrics
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.0167, 0.033},
	})

	tickDelta = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_delta_seconds",
		Help:    "Clamped simulation step length",
		Buckets: []float64{0.005, 0.01, 0.0167, 0.025, 0.033},
	})

	enemyCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_enemy_count",
		Help: "Live enemies",
	})

	projectileCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_projectile_count",
		Help: "Live projectiles",
	})

	areaEffectCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_area_effect_count",
		Help: "Live area effects",
	})

	simPaused = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sim_paused",
		Help: "1 while the simulation is paused",
	})

	killsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_kills_total",
		Help: "Enemies killed",
	})

	damageTakenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_player_damage_total",
		Help: "Damage applied to the player",
	}, []string{"kind"}) // Bounded: "standard", "unblockable"

	inputsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_inputs_total",
		Help: "Input events applied by the tick loop",
	})

	inputsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sim_inputs_dropped_total",
		Help: "Input events rejected because the queue was full",
	})

	// Event log metrics
	eventLogTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_log_dropped_total",
		Help: "Events dropped due to rate limiting or buffer full",
	})

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // Bounded: "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "input_rate"

	// WebSocket metrics
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket snapshot frames sent",
	}, []string{"format"}) // Bounded: "json", "msgpack"
)

// TickMetrics turns per-tick TickStats into counter increments. Engine
// totals are cumulative, so it remembers the last values it saw.
type TickMetrics struct {
	mu          sync.Mutex
	kills       int
	damage      [2]float64
	dropped     uint64
	eventTotal  uint64
	eventDrops  uint64
	eventSource func() map[string]interface{}
}

// NewTickMetrics creates an observer. eventStats may be nil.
func NewTickMetrics(eventStats func() map[string]interface{}) *TickMetrics {
	return &TickMetrics{eventSource: eventStats}
}

// Observe records one tick; pass it to Engine.SetTickObserver
func (m *TickMetrics) Observe(s game.TickStats) {
	tickDuration.Observe(s.Duration.Seconds())
	enemyCount.Set(float64(s.Enemies))
	projectileCount.Set(float64(s.Projectiles))
	areaEffectCount.Set(float64(s.AreaEffects))
	inputsTotal.Add(float64(s.InputsDrained))
	if s.Paused {
		simPaused.Set(1)
		return
	}
	simPaused.Set(0)
	tickDelta.Observe(s.Delta)

	m.mu.Lock()
	defer m.mu.Unlock()

	if d := s.Kills - m.kills; d > 0 {
		killsTotal.Add(float64(d))
	}
	m.kills = s.Kills

	for kind, total := range s.DamageTaken {
		if d := total - m.damage[kind]; d > 0 {
			damageTakenTotal.WithLabelValues(game.DamageKind(kind).String()).Add(d)
		}
		m.damage[kind] = total
	}

	if s.InputsDropped > m.dropped {
		inputsDropped.Add(float64(s.InputsDropped - m.dropped))
	}
	m.dropped = s.InputsDropped
}

// SyncEventLog copies event log totals into the counters. Called from the
// broadcast loop rather than every tick.
func (m *TickMetrics) SyncEventLog() {
	if m.eventSource == nil {
		return
	}
	stats := m.eventSource()
	total, _ := stats["total"].(uint64)
	dropped, _ := stats["dropped"].(uint64)

	m.mu.Lock()
	defer m.mu.Unlock()
	if total > m.eventTotal {
		eventLogTotal.Add(float64(total - m.eventTotal))
		m.eventTotal = total
	}
	if dropped > m.eventDrops {
		eventLogDropped.Add(float64(dropped - m.eventDrops))
		m.eventDrops = dropped
	}
}

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST be localhost in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
	Logger        *zap.Logger
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only - NEVER expose externally
	}
}

// NewDebugMux builds the pprof, metrics and health handler
func NewDebugMux() *http.ServeMux {
	mux := http.NewServeMux()

	// pprof endpoints for profiling
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return mux
}

// StartDebugServer starts the internal observability server.
// CRITICAL: This MUST bind to localhost only to prevent pprof-based DoS
func StartDebugServer(cfg ObservabilityConfig) (*http.Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("📊 Debug server disabled")
		return nil, nil
	}

	// SECURITY: Validate address is localhost
	if !isLoopbackAddr(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		logger.Warn("⚠️ Debug server forced to localhost for security", zap.String("requested", cfg.ListenAddr))
		cfg.ListenAddr = "127.0.0.1:6060"
	}

	var handler http.Handler = NewDebugMux()
	if cfg.BasicAuthUser != "" {
		handler = basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, handler)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("📊 Debug server starting",
			zap.String("pprof", "http://"+cfg.ListenAddr+"/debug/pprof/"),
			zap.String("metrics", "http://"+cfg.ListenAddr+"/metrics"))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("⚠️ Debug server error", zap.Error(err))
		}
	}()

	return srv, nil
}

func isLoopbackAddr(addr string) bool {
	for _, prefix := range []string{"127.0.0.1:", "localhost:", "[::1]:"} {
		if len(addr) > len(prefix) && addr[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// UpdateWSConnections updates WebSocket connection count
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages counts one snapshot frame sent in format
func IncrementWSMessages(format string) {
	wsMessagesTotal.WithLabelValues(format).Inc()
}
