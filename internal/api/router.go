package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"maze-arena/internal/game"
	"maze-arena/internal/minimap"
)

// EngineInterface defines the engine methods used by the API.
// This interface enables mocking for tests without spinning up the tick loop.
// Keep this minimal - only include methods the API layer actually calls.
type EngineInterface interface {
	// GetSnapshot returns the latest lock-free immutable snapshot
	GetSnapshot() *game.WorldSnapshot
	// SubmitInput queues one input event; false when the queue is full
	SubmitInput(ev game.InputEvent) bool
	// SetPaused requests a pause state change at the next tick
	SetPaused(paused bool)
	// Layout returns the static rooms and mazes
	Layout() game.Layout
	// InputStats returns queued and dropped input counts
	InputStats() (queued int, dropped uint64)
	// GetEventLogStats returns event log counters
	GetEventLogStats() map[string]interface{}
	// TickRate returns ticks per second
	TickRate() int
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the simulation engine (required)
	Engine EngineInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// Origins is the CORS and websocket origin policy.
	// If nil, uses DefaultAllowedOrigins.
	Origins *OriginPolicy

	// Minimap renders /api/minimap.png. If nil, one is built from the engine layout.
	Minimap *minimap.Renderer

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool

	// Logger receives handler logs. Defaults to a no-op logger.
	Logger *zap.Logger
}

// routerHandlers holds the handler functions for the router.
// This is used internally to pass handlers to route setup.
type routerHandlers struct {
	engine  EngineInterface
	minimap *minimap.Renderer
	logger  *zap.Logger
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	r.Use(middleware.RequestID)
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	} else {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		r.Use(NewIPRateLimiter(rateLimitCfg).Middleware)
	}

	// CORS configuration
	origins := cfg.Origins
	if origins == nil {
		origins = NewOriginPolicy(nil)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mm := cfg.Minimap
	if mm == nil {
		mm = minimap.NewRenderer(cfg.Engine.Layout())
	}

	// Create handlers struct
	h := &routerHandlers{
		engine:  cfg.Engine,
		minimap: mm,
		logger:  logger,
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// World state
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Get("/minimap.png", h.handleMinimap)

		// Static layout
		r.Get("/layout", h.handleGetLayout)
		r.Get("/maze/{room}", h.handleGetMaze)

		// Control
		r.Post("/input", h.handleInput)
		r.Post("/pause", h.handlePause)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}
