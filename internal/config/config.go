// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for server and simulation settings.
//
// Values are layered: built-in defaults, then an optional YAML tuning file,
// then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"maze-arena/internal/game"
)

// ErrInvalidConfig is returned by AppConfig.Validate
var ErrInvalidConfig = errors.New("config: invalid configuration")

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string // CORS and websocket origins; nil keeps the api defaults
	RequestsPerSec float64  // Per-IP HTTP rate
	Burst          int
	InputPerSec    float64 // Per-client websocket input rate
	InputBurst     int
	BroadcastRate  int // Snapshot pushes per second
	ShutdownGrace  time.Duration
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		RequestsPerSec: 10,
		Burst:          20,
		InputPerSec:    240, // Key edges plus pointer deltas at 60 Hz
		InputBurst:     120,
		BroadcastRate:  20,
		ShutdownGrace:  5 * time.Second,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}
	if r := getEnvFloat("RATE_LIMIT_RPS", 0); r > 0 {
		cfg.RequestsPerSec = r
	}
	if b := getEnvInt("RATE_LIMIT_BURST", 0); b > 0 {
		cfg.Burst = b
	}
	if r := getEnvFloat("INPUT_RATE", 0); r > 0 {
		cfg.InputPerSec = r
	}
	if b := getEnvInt("INPUT_BURST", 0); b > 0 {
		cfg.InputBurst = b
	}
	if r := getEnvInt("BROADCAST_RATE", 0); r > 0 {
		cfg.BroadcastRate = r
	}

	return cfg
}

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds the engine loop settings and the gameplay tuning.
type SimConfig struct {
	TickRate       int    // Ticks per second
	InputQueueSize int    // Lock-free input ring capacity
	TuningFile     string // Optional YAML overlay on game.DefaultTuning
	Tuning         game.Tuning
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickRate:       60,
		InputQueueSize: game.DefaultInputQueueSize,
		Tuning:         game.DefaultTuning(),
	}
}

// SimFromEnv returns simulation configuration with environment variable
// overrides. SIM_CONFIG names a YAML tuning file; SIM_SEED is applied after
// it so one file can be replayed under many seeds.
func SimFromEnv() (SimConfig, error) {
	cfg := DefaultSim()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if q := getEnvInt("INPUT_QUEUE_SIZE", 0); q > 0 {
		cfg.InputQueueSize = q
	}

	if path := os.Getenv("SIM_CONFIG"); path != "" {
		t, err := LoadTuningFile(path, cfg.Tuning)
		if err != nil {
			return cfg, err
		}
		cfg.TuningFile = path
		cfg.Tuning = t
	}

	if v := os.Getenv("SIM_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return cfg, fmt.Errorf("%w: SIM_SEED %q: %v", ErrInvalidConfig, v, err)
		}
		cfg.Tuning.Seed = uint32(seed)
	}
	if os.Getenv("MAZE_OBSTACLES") == "true" {
		cfg.Tuning.Geometry.MazeObstacles = true
	}

	return cfg, nil
}

// LoadTuningFile overlays the YAML file at path onto base. Keys the file
// omits keep their base values; lists such as rooms are replaced whole.
func LoadTuningFile(path string, base game.Tuning) (game.Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read tuning file: %w", err)
	}
	return ParseTuning(data, base)
}

// ParseTuning overlays YAML data onto base
func ParseTuning(data []byte, base game.Tuning) (game.Tuning, error) {
	t := base
	if err := yaml.Unmarshal(data, &t); err != nil {
		return base, fmt.Errorf("%w: tuning yaml: %v", ErrInvalidConfig, err)
	}
	return t, nil
}

// =============================================================================
// LOGGING / DEBUG / EVENT LOG
// =============================================================================

// LogConfig selects the zap logger flavor.
type LogConfig struct {
	Level       string // debug, info, warn, error
	Development bool   // Console encoder with colors instead of JSON
}

// DefaultLog returns the default logging configuration.
func DefaultLog() LogConfig {
	return LogConfig{Level: "info"}
}

// LogFromEnv returns logging configuration with environment variable overrides.
func LogFromEnv() LogConfig {
	cfg := DefaultLog()
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		cfg.Level = strings.ToLower(lvl)
	}
	if os.Getenv("LOG_DEV") == "true" {
		cfg.Development = true
	}
	return cfg
}

// DebugConfig controls the localhost pprof/metrics server.
type DebugConfig struct {
	Enabled    bool
	ListenAddr string
}

// DefaultDebug returns the default debug server configuration.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060", // Localhost only
	}
}

// DebugFromEnv returns debug configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	return cfg
}

// EventLogConfig controls the JSONL event log.
type EventLogConfig struct {
	Enabled bool
	Path    string
}

// DefaultEventLog returns the default event log configuration.
func DefaultEventLog() EventLogConfig {
	return EventLogConfig{Enabled: true, Path: "events.jsonl"}
}

// EventLogFromEnv returns event log configuration with environment variable overrides.
func EventLogFromEnv() EventLogConfig {
	cfg := DefaultEventLog()
	if p := os.Getenv("EVENT_LOG_PATH"); p != "" {
		cfg.Path = p
	}
	if os.Getenv("EVENT_LOG_DISABLED") == "true" {
		cfg.Enabled = false
	}
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server   ServerConfig
	Sim      SimConfig
	Log      LogConfig
	Debug    DebugConfig
	EventLog EventLogConfig
}

// Default returns the configuration with no file or environment input.
func Default() AppConfig {
	return AppConfig{
		Server:   DefaultServer(),
		Sim:      DefaultSim(),
		Log:      DefaultLog(),
		Debug:    DefaultDebug(),
		EventLog: DefaultEventLog(),
	}
}

// Load returns the complete configuration with environment overrides,
// validated.
func Load() (AppConfig, error) {
	sim, err := SimFromEnv()
	if err != nil {
		return AppConfig{}, err
	}
	cfg := AppConfig{
		Server:   ServerFromEnv(),
		Sim:      sim,
		Log:      LogFromEnv(),
		Debug:    DebugFromEnv(),
		EventLog: EventLogFromEnv(),
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c AppConfig) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrInvalidConfig, c.Server.Port)
	case c.Server.RequestsPerSec <= 0 || c.Server.Burst <= 0:
		return fmt.Errorf("%w: http rate limit must be positive", ErrInvalidConfig)
	case c.Server.InputPerSec <= 0 || c.Server.InputBurst <= 0:
		return fmt.Errorf("%w: input rate limit must be positive", ErrInvalidConfig)
	case c.Server.BroadcastRate <= 0:
		return fmt.Errorf("%w: broadcast rate %d", ErrInvalidConfig, c.Server.BroadcastRate)
	case c.Sim.TickRate <= 0 || c.Sim.TickRate > 1000:
		return fmt.Errorf("%w: tick rate %d", ErrInvalidConfig, c.Sim.TickRate)
	case c.Sim.InputQueueSize <= 0:
		return fmt.Errorf("%w: input queue size %d", ErrInvalidConfig, c.Sim.InputQueueSize)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Log.Level)
	}
	if c.EventLog.Enabled && c.EventLog.Path == "" {
		return fmt.Errorf("%w: event log enabled without a path", ErrInvalidConfig)
	}
	if err := c.Sim.Tuning.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
