package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"maze-arena/internal/minimap"
)

// ServerOptions configures NewServer. Zero values fall back to defaults.
type ServerOptions struct {
	Origins       []string
	RateLimit     RateLimitConfig
	InputRate     InputRateConfig
	BroadcastRate int
	Logger        *zap.Logger
	Metrics       *TickMetrics
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine      EngineInterface
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server
	logger      *zap.Logger
}

// NewServer creates a new API server.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
// This enables testing by allowing the server to be constructed without
// starting goroutines or opening network listeners.
//
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(engine EngineInterface, opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rateCfg := opts.RateLimit
	if rateCfg.RequestsPerSecond <= 0 {
		rateCfg = DefaultRateLimitConfig
	}
	origins := NewOriginPolicy(opts.Origins)

	s := &Server{
		engine:      engine,
		rateLimiter: NewIPRateLimiter(rateCfg),
		logger:      logger,
	}
	s.wsHub = NewWebSocketHub(HubConfig{
		Engine:        engine,
		Origins:       origins,
		InputRate:     opts.InputRate,
		BroadcastRate: opts.BroadcastRate,
		Logger:        logger,
		Metrics:       opts.Metrics,
	})

	// Build router using the factory
	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		RateLimiter: s.rateLimiter,
		Origins:     origins,
		Minimap:     minimap.NewRenderer(engine.Layout()),
		Logger:      logger,
	})

	// Add WebSocket routes (these need the wsHub instance)
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Start begins the HTTP server AND starts background workers.
// This is the ONLY method that starts goroutines or opens network listeners.
// It blocks until Shutdown is called or the listener fails.
func (s *Server) Start(addr string) error {
	// Start background workers NOW, not in constructor
	s.wsHub.Start()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("🌐 API server starting", zap.String("addr", addr))
	s.logger.Info("📡 WebSocket endpoint ready", zap.String("path", "/ws"))

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Router returns the HTTP handler for use with httptest.
// Use this in integration tests instead of calling Start().
//
// Example:
//
//	server := api.NewServer(engine, api.ServerOptions{})
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the websocket hub so tests can start it without a listener
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown performs graceful shutdown of the listener and background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.wsHub.Stop()
	return err
}
