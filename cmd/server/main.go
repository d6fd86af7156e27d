package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"maze-arena/internal/api"
	"maze-arena/internal/config"
	"maze-arena/internal/game"
)

func main() {
	// Load .env file from parent directory
	envSource := "../.env"
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		envSource = ".env"
		if err := godotenv.Load(".env"); err != nil {
			envSource = ""
		}
	}

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	logger, err := newLogger(appConfig.Log)
	if err != nil {
		log.Fatalf("❌ Logger setup failed: %v", err)
	}
	defer logger.Sync()

	if envSource != "" {
		logger.Info("✅ Loaded environment", zap.String("file", envSource))
	} else {
		logger.Info("💡 No .env file found, using environment variables only")
	}

	logger.Info("🎮 ================================")
	logger.Info("🎮  MAZE ARENA - GO ENGINE")
	logger.Info("🎮 ================================")

	simCfg := appConfig.Sim
	serverCfg := appConfig.Server

	engine, err := game.NewEngine(game.EngineConfig{
		TickRate:       simCfg.TickRate,
		InputQueueSize: simCfg.InputQueueSize,
		Tuning:         simCfg.Tuning,
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("❌ Engine setup failed", zap.Error(err))
	}

	limits := engine.GetLimits()
	logger.Info("🛡️ Resource limits",
		zap.Int("enemies", limits.MaxEnemies),
		zap.Int("projectiles", limits.MaxProjectiles),
		zap.Int("areaEffects", limits.MaxAreaEffects),
		zap.Int("texts", limits.MaxTexts),
		zap.Int("beams", limits.MaxBeams))
	logger.Info("🧭 Simulation",
		zap.Int("tps", simCfg.TickRate),
		zap.Uint32("seed", simCfg.Tuning.Seed),
		zap.Int("rooms", len(engine.Layout().Rooms)),
		zap.Bool("mazeObstacles", simCfg.Tuning.Geometry.MazeObstacles),
		zap.String("tuningFile", simCfg.TuningFile))

	// Start event log
	if appConfig.EventLog.Enabled {
		if err := engine.StartEventLog(appConfig.EventLog.Path); err != nil {
			logger.Warn("⚠️ Event log disabled", zap.Error(err))
		} else {
			logger.Info("📝 Event log", zap.String("path", appConfig.EventLog.Path))
		}
	}

	// Start debug server
	debugCfg := api.DefaultObservabilityConfig()
	debugCfg.Enabled = appConfig.Debug.Enabled
	debugCfg.ListenAddr = appConfig.Debug.ListenAddr
	debugCfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	debugCfg.BasicAuthPass = os.Getenv("DEBUG_PASS")
	debugCfg.Logger = logger
	debugServer, err := api.StartDebugServer(debugCfg)
	if err != nil {
		logger.Warn("⚠️ Debug server disabled", zap.Error(err))
	}

	metrics := api.NewTickMetrics(engine.GetEventLogStats)
	engine.SetTickObserver(metrics.Observe)

	server := api.NewServer(engine, api.ServerOptions{
		Origins: serverCfg.AllowedOrigins,
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: serverCfg.RequestsPerSec,
			Burst:             serverCfg.Burst,
			CleanupInterval:   api.DefaultRateLimitConfig.CleanupInterval,
		},
		InputRate: api.InputRateConfig{
			EventsPerSecond: serverCfg.InputPerSec,
			Burst:           serverCfg.InputBurst,
		},
		BroadcastRate: serverCfg.BroadcastRate,
		Logger:        logger,
		Metrics:       metrics,
	})

	// Start engine
	engine.Start()

	addr := ":" + strconv.Itoa(serverCfg.Port)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(addr)
	}()

	logger.Info("🚀 Server ready",
		zap.String("state", fmt.Sprintf("http://localhost%s/api/state", addr)),
		zap.String("ws", fmt.Sprintf("ws://localhost%s/ws", addr)))

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("🛑 Shutting down...", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			logger.Error("❌ API server failed", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownGrace)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("⚠️ API server shutdown", zap.Error(err))
	}
	if debugServer != nil {
		debugServer.Shutdown(ctx)
	}
	engine.Stop()
	engine.StopEventLog()

	snap := engine.GetSnapshot()
	logger.Info("👋 Goodbye!",
		zap.Uint64("ticks", snap.TickNumber),
		zap.Int("kills", snap.TotalKills),
		zap.Int("resets", snap.Resets))
}

// newLogger builds a production JSON logger, or a console logger in
// development mode.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
