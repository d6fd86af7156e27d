package game

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"maze-arena/internal/game/spatial"
)

// ErrEngineConfig is returned for an unusable EngineConfig
var ErrEngineConfig = errors.New("game: invalid engine config")

const (
	// DefaultInputQueueSize bounds queued client input between ticks
	DefaultInputQueueSize = 1024

	// tickEventEvery spaces out tick boundary events in the event log
	tickEventEvery = 60
)

// pause requests from outside the tick goroutine
const (
	pauseNone int32 = iota
	pauseOn
	pauseOff
)

// EngineConfig configures an Engine
type EngineConfig struct {
	TickRate       int // Ticks per second
	InputQueueSize int
	Tuning         Tuning
	Logger         *zap.Logger
}

// TickStats is handed to the tick observer after every tick
type TickStats struct {
	Duration      time.Duration
	Delta         float64
	Paused        bool
	Enemies       int
	Projectiles   int
	AreaEffects   int
	Kills         int
	DamageTaken   [2]float64
	InputsDrained int
	InputsDropped uint64
}

// Engine runs a World on a ticker. API goroutines hand it input through a
// lock-free queue and read published snapshots; nothing outside the tick
// goroutine touches the World.
type Engine struct {
	mu      sync.Mutex // Serializes ticks with Stop and manual Advance
	world   *World
	input   InputState
	inputs  *spatial.LockFreeQueue[InputEvent]
	drain   []InputEvent
	pending atomic.Int32 // pauseNone / pauseOn / pauseOff

	tickRate int
	running  bool
	ticker   *time.Ticker
	stopChan chan struct{}
	done     chan struct{}
	lastTick time.Time

	// Snapshot system for lock-free reader separation
	snapshotPool *SnapshotPool
	layout       Layout

	// Event sourcing for replay and debugging
	eventLog *EventLog

	observer func(TickStats)
	logger   *zap.Logger
}

// NewEngine validates cfg and builds the world
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("%w: tick rate %d", ErrEngineConfig, cfg.TickRate)
	}
	if cfg.InputQueueSize <= 0 {
		cfg.InputQueueSize = DefaultInputQueueSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	eventLog := NewEventLog(logger)
	world, err := NewWorld(cfg.Tuning, logger, eventLog)
	if err != nil {
		return nil, fmt.Errorf("create world: %w", err)
	}

	e := &Engine{
		world:        world,
		inputs:       spatial.NewLockFreeQueue[InputEvent](cfg.InputQueueSize),
		drain:        make([]InputEvent, cfg.InputQueueSize),
		tickRate:     cfg.TickRate,
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
		snapshotPool: NewSnapshotPool(cfg.Tuning.Limits, cfg.Tuning.Swarm.Units),
		eventLog:     eventLog,
		logger:       logger,
	}
	e.layout = world.Layout()
	e.produceSnapshot()
	return e, nil
}

// Start begins the game loop
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.lastTick = time.Now()
	e.ticker = time.NewTicker(time.Second / time.Duration(e.tickRate))
	enemies := len(e.world.enemies)
	e.mu.Unlock()

	go func() {
		defer close(e.done)
		for {
			select {
			case now := <-e.ticker.C:
				e.tick(now)
			case <-e.stopChan:
				return
			}
		}
	}()

	e.logger.Info("🎮 Simulation started",
		zap.Int("tickRate", e.tickRate),
		zap.Int("enemies", enemies))
}

// Stop halts the loop and waits for the current tick to finish
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stopChan)
	e.mu.Unlock()

	<-e.done
	e.logger.Info("🛑 Simulation stopped")
}

// tick samples the wall clock and advances the world by the elapsed time
func (e *Engine) tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	dt := now.Sub(e.lastTick).Seconds()
	e.lastTick = now
	e.advance(dt)
}

// Advance runs one tick with an explicit dt. For tests and tools that drive
// the world without the ticker; do not mix with Start.
func (e *Engine) Advance(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.advance(dt)
}

func (e *Engine) advance(dt float64) {
	start := time.Now()
	w := e.world

	switch e.pending.Swap(pauseNone) {
	case pauseOn:
		w.SetPaused(true)
	case pauseOff:
		w.SetPaused(false)
	}

	n := e.inputs.DrainTo(e.drain)
	for i := 0; i < n; i++ {
		e.input.Apply(e.drain[i])
	}
	frame := e.input.Frame()

	stepped := w.Step(dt, &frame)

	if stepped > 0 && w.clock.Steps()%tickEventEvery == 0 {
		w.emit(EventTypeTick, "", TickPayload{
			RNGState:    w.rng.State(),
			EnemyCount:  len(w.enemies),
			Projectiles: w.projectiles.Len(),
			DeltaTimeNs: int64(stepped * 1e9),
		})
	}

	e.produceSnapshot()

	if e.observer != nil {
		e.observer(TickStats{
			Duration:      time.Since(start),
			Delta:         stepped,
			Paused:        w.Paused(),
			Enemies:       len(w.enemies),
			Projectiles:   w.projectiles.Len(),
			AreaEffects:   len(w.areaEffects),
			Kills:         w.stats.Kills,
			DamageTaken:   w.stats.DamageTaken,
			InputsDrained: n,
			InputsDropped: e.inputs.Dropped(),
		})
	}
}

// produceSnapshot fills the write slot and publishes a frozen copy
func (e *Engine) produceSnapshot() {
	snap := e.snapshotPool.AcquireWrite()
	e.world.FillSnapshot(snap)
	e.snapshotPool.PublishWrite()
}

// SubmitInput queues a client input event. Returns false when the queue is
// full. Safe from any goroutine.
func (e *Engine) SubmitInput(ev InputEvent) bool {
	return e.inputs.TryPush(ev)
}

// SetPaused requests a pause state change, applied at the next tick
func (e *Engine) SetPaused(paused bool) {
	if paused {
		e.pending.Store(pauseOn)
	} else {
		e.pending.Store(pauseOff)
	}
}

// GetSnapshot returns the latest published snapshot (lock-free). The
// result is never mutated, so callers may keep it.
func (e *Engine) GetSnapshot() *WorldSnapshot {
	return e.snapshotPool.AcquireRead()
}

// SetTickObserver installs a callback run at the end of every tick on the
// tick goroutine. Set it before Start.
func (e *Engine) SetTickObserver(fn func(TickStats)) {
	e.observer = fn
}

// StartEventLog starts writing events to filePath (JSONL)
func (e *Engine) StartEventLog(filePath string) error {
	return e.eventLog.Start(filePath)
}

// StopEventLog flushes and closes the event log
func (e *Engine) StopEventLog() {
	e.eventLog.Stop()
}

// GetEventLogStats returns event log counters
func (e *Engine) GetEventLogStats() map[string]interface{} {
	return e.eventLog.GetStats()
}

// InputStats returns queue depth and total rejected pushes
func (e *Engine) InputStats() (queued int, dropped uint64) {
	return e.inputs.Len(), e.inputs.Dropped()
}

// GetLimits returns the resource limits
func (e *Engine) GetLimits() ResourceLimits {
	return e.snapshotPool.GetLimits()
}

// TickRate returns the configured ticks per second
func (e *Engine) TickRate() int {
	return e.tickRate
}

// Layout returns the static room and maze description
func (e *Engine) Layout() Layout {
	return e.layout
}

// World exposes the simulation for read-only setup data (rooms, mazes).
// Mutable state must be read through snapshots.
func (e *Engine) World() *World {
	return e.world
}
