package spatial

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpatialGridQueryRadius(t *testing.T) {
	g := NewSpatialGrid(-165, -165, 330, 330, 10, 200)

	g.Insert(1, 0, 0)
	g.Insert(2, 5, 5)
	g.Insert(3, 100, 100)
	g.Insert(4, -160, -160)
	require.Equal(t, 4, g.Len())

	got := g.QueryRadius(2, 2, 5)
	assert.ElementsMatch(t, []uint32{1, 2}, got)

	got = g.QueryRadius(-163, -163, 2)
	assert.ElementsMatch(t, []uint32{4}, got)
}

func TestSpatialGridClampsOutside(t *testing.T) {
	g := NewSpatialGrid(-10, -10, 20, 20, 5, 16)

	g.Insert(7, 500, -500)
	assert.Equal(t, []uint32{7}, g.QueryCell(9, -9))
}

func TestSpatialGridClear(t *testing.T) {
	g := NewSpatialGrid(0, 0, 100, 100, 10, 16)
	for i := 0; i < 10; i++ {
		g.Insert(uint32(i), float64(i*10), 50)
	}
	stats := g.Stats()
	assert.Equal(t, 10, stats.TotalEntities)
	assert.Equal(t, 10, stats.NonEmptyCells)

	g.Clear()
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.QueryRadius(50, 50, 100))

	cols, rows, size := g.Dimensions()
	assert.Equal(t, 10, cols)
	assert.Equal(t, 10, rows)
	assert.Equal(t, 10.0, size)
}

func TestLockFreeQueueOrder(t *testing.T) {
	q := NewLockFreeQueue[int](4)
	assert.Equal(t, 4, q.Cap())

	for i := 0; i < 4; i++ {
		require.True(t, q.TryPush(i))
	}
	assert.False(t, q.TryPush(99), "push into full queue")
	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, 4, q.Len())

	for i := 0; i < 4; i++ {
		v, ok := q.TryPop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.TryPop()
	assert.False(t, ok)

	// slots are reusable after wrap-around
	require.True(t, q.TryPush(10))
	v, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, 10, v)
}

func TestLockFreeQueueConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 500

	q := NewLockFreeQueue[int](producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.TryPush(base + i)
			}
		}(p * perProducer)
	}
	wg.Wait()

	buf := make([]int, producers*perProducer)
	n := q.DrainTo(buf)
	require.Equal(t, producers*perProducer, n)

	seen := make(map[int]bool, n)
	for _, v := range buf[:n] {
		assert.False(t, seen[v], "duplicate %d", v)
		seen[v] = true
	}
}

func TestLockFreeQueueMinimumCapacity(t *testing.T) {
	q := NewLockFreeQueue[string](1)
	assert.Equal(t, 2, q.Cap())
	assert.True(t, q.TryPush("a"))
	assert.True(t, q.TryPush("b"))
	assert.False(t, q.TryPush("c"))
}

func BenchmarkSpatialGridRebuild(b *testing.B) {
	g := NewSpatialGrid(-165, -165, 330, 330, 10, 200)
	for i := 0; i < b.N; i++ {
		g.Clear()
		for j := 0; j < 150; j++ {
			g.Insert(uint32(j), float64(j%30)*10-150, float64(j/30)*10-150)
		}
		g.QueryRadius(0, 0, 10)
	}
}
