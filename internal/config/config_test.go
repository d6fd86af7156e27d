package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maze-arena/internal/game"
)

// TestDefaultIsValid verifies the built-in defaults pass validation
func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 60, cfg.Sim.TickRate)
	assert.Equal(t, game.DefaultTuning(), cfg.Sim.Tuning)
}

// TestLoadEnvOverrides verifies environment variables win over defaults
func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("TICK_RATE", "120")
	t.Setenv("SIM_SEED", "99")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DISABLE_DEBUG_SERVER", "true")
	t.Setenv("MAZE_OBSTACLES", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 120, cfg.Sim.TickRate)
	assert.Equal(t, uint32(99), cfg.Sim.Tuning.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.False(t, cfg.Debug.Enabled)
	assert.True(t, cfg.Sim.Tuning.Geometry.MazeObstacles)
}

// TestLoadIgnoresMalformedNumbers verifies unparsable ints fall back
func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

// TestLoadBadSeed verifies a malformed seed is an error, not a silent default
func TestLoadBadSeed(t *testing.T) {
	t.Setenv("SIM_SEED", "-4")
	_, err := Load()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

// TestParseTuningOverlay verifies YAML only replaces the keys it names
func TestParseTuningOverlay(t *testing.T) {
	base := game.DefaultTuning()
	data := []byte(`
seed: 7
movement:
  move_speed: 12
enemies:
  room_cap: 3
limits:
  max_projectiles: 500
`)
	got, err := ParseTuning(data, base)
	require.NoError(t, err)

	assert.Equal(t, uint32(7), got.Seed)
	assert.Equal(t, 12.0, got.Movement.MoveSpeed)
	assert.Equal(t, 3, got.Enemies.RoomCap)
	assert.Equal(t, 500, got.Limits.MaxProjectiles)

	// Untouched keys keep their defaults
	assert.Equal(t, base.Movement.Gravity, got.Movement.Gravity)
	assert.Equal(t, base.Guns, got.Guns)
	assert.Equal(t, base.Rooms, got.Rooms)
}

// TestParseTuningReplacesRooms verifies lists are replaced whole
func TestParseTuningReplacesRooms(t *testing.T) {
	data := []byte(`
rooms:
  - {x: 0, z: 0, e: true, seed: 1}
  - {x: 110, z: 0, w: true, seed: 2, spawns: true}
`)
	got, err := ParseTuning(data, game.DefaultTuning())
	require.NoError(t, err)
	require.Len(t, got.Rooms, 2)
	assert.True(t, got.Rooms[1].Spawns)
	assert.NoError(t, got.Validate())
}

// TestParseTuningRejectsGarbage verifies malformed YAML is reported
func TestParseTuningRejectsGarbage(t *testing.T) {
	base := game.DefaultTuning()
	got, err := ParseTuning([]byte("movement: [1, 2"), base)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, base, got)
}

// TestLoadTuningFile verifies SIM_CONFIG is read and then seeded
func TestLoadTuningFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 5\nmax_delta: 0.02\n"), 0o644))

	t.Setenv("SIM_CONFIG", path)
	t.Setenv("SIM_SEED", "11")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Sim.TuningFile)
	assert.Equal(t, 0.02, cfg.Sim.Tuning.MaxDelta)
	assert.Equal(t, uint32(11), cfg.Sim.Tuning.Seed)
}

// TestLoadMissingTuningFile verifies a missing file is a startup error
func TestLoadMissingTuningFile(t *testing.T) {
	t.Setenv("SIM_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// TestValidate covers each rejected field
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"port", func(c *AppConfig) { c.Server.Port = 70000 }},
		{"http rate", func(c *AppConfig) { c.Server.Burst = 0 }},
		{"input rate", func(c *AppConfig) { c.Server.InputPerSec = 0 }},
		{"broadcast", func(c *AppConfig) { c.Server.BroadcastRate = 0 }},
		{"tick rate", func(c *AppConfig) { c.Sim.TickRate = 0 }},
		{"queue", func(c *AppConfig) { c.Sim.InputQueueSize = -1 }},
		{"log level", func(c *AppConfig) { c.Log.Level = "loud" }},
		{"event log path", func(c *AppConfig) { c.EventLog.Path = "" }},
		{"tuning", func(c *AppConfig) { c.Sim.Tuning.MaxDelta = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}

	cfg := Default()
	cfg.Sim.Tuning.MaxDelta = 0
	assert.True(t, errors.Is(cfg.Validate(), game.ErrInvalidTuning))
}
