package game

import (
	"testing"
)

// ============================================================================
// Benchmarks
// ============================================================================

// BenchmarkWorldStep measures one tick of a fully populated world with both
// guns firing.
func BenchmarkWorldStep(b *testing.B) {
	w, err := NewWorld(DefaultTuning(), nil, nil)
	if err != nil {
		b.Fatalf("NewWorld: %v", err)
	}
	fire := held(ButtonLeft, ButtonRight, KeyForward)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Step(testDT, fire)
	}
}

// BenchmarkWorldStepExpanded measures the banded burn across every enemy
func BenchmarkWorldStepExpanded(b *testing.B) {
	w, err := NewWorld(DefaultTuning(), nil, nil)
	if err != nil {
		b.Fatalf("NewWorld: %v", err)
	}
	w.Player().ExpansionUntil = 1e12

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Step(testDT, &InputFrame{})
	}
}

// BenchmarkWorldStepMazeObstacles measures movement and pellets against the
// maze-derived obstacle set.
func BenchmarkWorldStepMazeObstacles(b *testing.B) {
	tt := DefaultTuning()
	tt.Geometry.MazeObstacles = true
	w, err := NewWorld(tt, nil, nil)
	if err != nil {
		b.Fatalf("NewWorld: %v", err)
	}
	fire := held(ButtonLeft, KeyForward, KeySprint)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Step(testDT, fire)
	}
}

// BenchmarkFillSnapshot measures copying world state into a pooled snapshot
func BenchmarkFillSnapshot(b *testing.B) {
	w, err := NewWorld(DefaultTuning(), nil, nil)
	if err != nil {
		b.Fatalf("NewWorld: %v", err)
	}
	fire := held(ButtonLeft, ButtonRight)
	for i := 0; i < 30; i++ {
		w.Step(testDT, fire)
	}
	pool := NewSnapshotPool(DefaultLimits, w.Tuning().Swarm.Units)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snap := pool.AcquireWrite()
		w.FillSnapshot(snap)
		pool.PublishWrite()
	}
}

// BenchmarkEngineSubmitInput measures the lock-free input path under
// parallel producers.
func BenchmarkEngineSubmitInput(b *testing.B) {
	e, err := NewEngine(EngineConfig{TickRate: 60, Tuning: DefaultTuning(), InputQueueSize: 1 << 16})
	if err != nil {
		b.Fatalf("NewEngine: %v", err)
	}
	ev := InputEvent{Kind: InputLook, DX: 1}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		// Once the queue fills this measures the reject path
		for pb.Next() {
			e.SubmitInput(ev)
		}
	})
}
