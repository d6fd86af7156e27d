package game

import (
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// STRESS TEST SUITE: REAL-WORLD LOAD SIMULATION
// Run with: go test -v -run=TestStress -timeout=120s ./internal/game/...
// =============================================================================

// StressTestResult contains metrics from stress tests
type StressTestResult struct {
	Duration       time.Duration
	TotalTicks     int64
	AvgTickTime    time.Duration
	MaxTickTime    time.Duration
	P99TickTime    time.Duration
	TicksPerSecond float64
	InputsSent     int64
	InputsDropped  uint64
	PeakEnemies    int
	PeakPellets    int
}

// StressTestConfig configures stress test parameters
type StressTestConfig struct {
	Duration         time.Duration
	TickRate         int
	Producers        int // Goroutines submitting input
	InputsPerSec     int // Per producer
	LatencyThreshold time.Duration
}

// DefaultStressConfig returns a busy session: guns firing, abilities held
// and the pointer moving constantly.
func DefaultStressConfig() StressTestConfig {
	return StressTestConfig{
		Duration:         3 * time.Second,
		TickRate:         60,
		Producers:        8,
		InputsPerSec:     500,
		LatencyThreshold: 8 * time.Millisecond, // Half a 60 Hz frame
	}
}

// randomInput returns a plausible client input event
func randomInput(r *rand.Rand) InputEvent {
	// Menu excluded so the run never pauses
	key := Key(r.Intn(int(KeyCount) - 1))
	if key >= KeyMenu {
		key++
	}
	switch r.Intn(4) {
	case 0:
		return InputEvent{Kind: InputLook, DX: r.Float64()*40 - 20, DY: r.Float64()*10 - 5}
	case 1:
		return InputEvent{Kind: InputRelease, Key: key}
	default:
		return InputEvent{Kind: InputPress, Key: key}
	}
}

// -----------------------------------------------------------------------------
// STRESS TEST: SUSTAINED LOAD
// -----------------------------------------------------------------------------

func TestStress_SustainedLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	cfg := DefaultStressConfig()
	result := runStressTest(t, cfg)

	t.Logf("Stress Test Results:")
	t.Logf("  Duration: %v", result.Duration)
	t.Logf("  Total Ticks: %d", result.TotalTicks)
	t.Logf("  Avg Tick Time: %v", result.AvgTickTime)
	t.Logf("  Max Tick Time: %v", result.MaxTickTime)
	t.Logf("  P99 Tick Time: %v", result.P99TickTime)
	t.Logf("  TPS: %.2f", result.TicksPerSecond)
	t.Logf("  Inputs Sent: %d (dropped %d)", result.InputsSent, result.InputsDropped)
	t.Logf("  Peak Enemies: %d", result.PeakEnemies)
	t.Logf("  Peak Pellets: %d", result.PeakPellets)

	assert.Less(t, result.AvgTickTime, cfg.LatencyThreshold, "average tick time")
	assert.LessOrEqual(t, result.PeakPellets, DefaultLimits.MaxProjectiles)
	assert.Greater(t, result.TotalTicks, int64(0))
}

// -----------------------------------------------------------------------------
// STRESS TEST: CONCURRENT INPUT AND READERS
// -----------------------------------------------------------------------------

func TestStress_ConcurrentInput(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	engine, err := NewEngine(EngineConfig{TickRate: 120, Tuning: DefaultTuning()})
	require.NoError(t, err)
	engine.Start()
	defer engine.Stop()

	var wg sync.WaitGroup
	var accepted, rejected int64

	numWorkers := 10
	inputsPerWorker := 500
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < inputsPerWorker; i++ {
				if engine.SubmitInput(randomInput(r)) {
					atomic.AddInt64(&accepted, 1)
				} else {
					atomic.AddInt64(&rejected, 1)
				}
				if i%50 == 0 {
					time.Sleep(time.Millisecond)
				}
			}
		}(int64(w))
	}

	// Snapshot readers run alongside, like websocket broadcasters
	stop := make(chan struct{})
	var readers sync.WaitGroup
	var lastSeq atomic.Uint64
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := engine.GetSnapshot()
				if snap.Sequence > lastSeq.Load() {
					lastSeq.Store(snap.Sequence)
				}
				time.Sleep(time.Millisecond)
			}
		}()
	}

	wg.Wait()
	time.Sleep(100 * time.Millisecond)
	close(stop)
	readers.Wait()

	_, dropped := engine.InputStats()
	t.Logf("Concurrent Input Test:")
	t.Logf("  Accepted: %d", accepted)
	t.Logf("  Rejected: %d", rejected)
	t.Logf("  Last Sequence Seen: %d", lastSeq.Load())

	assert.Equal(t, int64(numWorkers*inputsPerWorker), accepted+rejected)
	assert.Equal(t, uint64(rejected), dropped)
	assert.Greater(t, lastSeq.Load(), uint64(1))
}

// -----------------------------------------------------------------------------
// STRESS TEST: PROJECTILE SATURATION
// -----------------------------------------------------------------------------

func TestStress_ProjectileSaturation(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	w := newTestWorld(t, func(tt *Tuning) {
		tt.Guns.FireInterval = 0.001
		tt.Limits.MaxProjectiles = 200
	})
	limits := w.Tuning().Limits
	fire := held(ButtonLeft, ButtonRight)

	peak := 0
	for i := 0; i < 600; i++ {
		w.Step(testDT, fire)
		if n := w.ProjectileCount(); n > peak {
			peak = n
		}
		require.LessOrEqual(t, w.ProjectileCount(), limits.MaxProjectiles)
		require.LessOrEqual(t, w.AreaEffectCount(), limits.MaxAreaEffects)
	}

	t.Logf("Projectile Saturation Test:")
	t.Logf("  Peak Pellets: %d", peak)
	t.Logf("  Evicted: %d", w.projectiles.Evicted())
	t.Logf("  Area Effects Evicted: %d", w.Stats().AreaEvicted)

	assert.Equal(t, limits.MaxProjectiles, peak)
	assert.Greater(t, w.projectiles.Evicted(), uint64(0))
}

// -----------------------------------------------------------------------------
// STRESS TEST: POPULATION CHURN
// -----------------------------------------------------------------------------

func TestStress_PopulationChurn(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping stress test in short mode")
	}

	tt := DefaultTuning()
	tt.Enemies.SpawnMin = 0.05
	tt.Enemies.SpawnJitter = 0.05
	w, err := NewWorld(tt, nil, nil)
	require.NoError(t, err)

	// Park the player in room 1 under expansion so enemies keep dying
	p := w.Player()
	p.Pos = Vec3{X: 0, Y: 0.5, Z: -110}
	p.ExpansionUntil = 1e9

	maxPopulation := len(w.spawners) * tt.Enemies.RoomCap
	for i := 0; i < 3000; i++ {
		w.Step(testDT, &InputFrame{})
		require.LessOrEqual(t, len(w.Enemies()), maxPopulation)
		for _, e := range w.Enemies() {
			require.False(t, e.Dead, "dead enemy survived cleanup")
		}
	}

	t.Logf("Population Churn Test:")
	t.Logf("  Spawned: %d", w.Stats().Spawned)
	t.Logf("  Kills: %d", w.Stats().Kills)
	t.Logf("  Live: %d", len(w.Enemies()))

	assert.Greater(t, w.Stats().Kills, 0)
	assert.Equal(t, w.Stats().Spawned-w.Stats().Kills, len(w.Enemies()))
}

// -----------------------------------------------------------------------------
// HELPER: RUN STRESS TEST
// -----------------------------------------------------------------------------

func runStressTest(t *testing.T, cfg StressTestConfig) StressTestResult {
	engine, err := NewEngine(EngineConfig{
		TickRate: cfg.TickRate,
		Tuning:   DefaultTuning(),
	})
	require.NoError(t, err)

	var result StressTestResult
	var inputsSent int64

	// Producers hammer the input queue for the whole run
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < cfg.Producers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			ticker := time.NewTicker(time.Second / time.Duration(cfg.InputsPerSec))
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					engine.SubmitInput(randomInput(r))
					atomic.AddInt64(&inputsSent, 1)
				}
			}
		}(int64(i + 1))
	}

	// Keep both guns firing the whole time
	engine.SubmitInput(InputEvent{Kind: InputPress, Key: ButtonLeft})
	engine.SubmitInput(InputEvent{Kind: InputPress, Key: ButtonRight})

	var tickTimes []time.Duration
	var totalTickTime time.Duration
	frame := time.Second / time.Duration(cfg.TickRate)

	deadline := time.Now().Add(cfg.Duration)
	startTime := time.Now()

	for time.Now().Before(deadline) {
		start := time.Now()
		engine.Advance(frame.Seconds())
		elapsed := time.Since(start)

		tickTimes = append(tickTimes, elapsed)
		totalTickTime += elapsed
		result.TotalTicks++
		if elapsed > result.MaxTickTime {
			result.MaxTickTime = elapsed
		}

		snap := engine.GetSnapshot()
		if snap.EnemyCount > result.PeakEnemies {
			result.PeakEnemies = snap.EnemyCount
		}
		if snap.ProjectileCount > result.PeakPellets {
			result.PeakPellets = snap.ProjectileCount
		}

		// Sleep to maintain the tick rate
		if sleep := frame - elapsed; sleep > 0 {
			time.Sleep(sleep)
		}
	}

	close(stop)
	wg.Wait()

	result.Duration = time.Since(startTime)
	result.TicksPerSecond = float64(result.TotalTicks) / result.Duration.Seconds()
	if result.TotalTicks > 0 {
		result.AvgTickTime = totalTickTime / time.Duration(result.TotalTicks)
	}

	sort.Slice(tickTimes, func(i, j int) bool { return tickTimes[i] < tickTimes[j] })
	if len(tickTimes) > 0 {
		result.P99TickTime = tickTimes[len(tickTimes)*99/100]
	}

	result.InputsSent = atomic.LoadInt64(&inputsSent)
	_, result.InputsDropped = engine.InputStats()
	return result
}
