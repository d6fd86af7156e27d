package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProjectilePoolEvictsOldest verifies the cap pushes out the oldest
// projectile first.
func TestProjectilePoolEvictsOldest(t *testing.T) {
	pool := NewProjectilePool(2000)
	for i := 0; i < 2001; i++ {
		pr := pool.Spawn()
		pr.Damage = float64(i)
	}

	assert.Equal(t, 2000, pool.Len())
	assert.Equal(t, uint64(1), pool.Evicted())
	live := pool.Live()
	assert.Equal(t, uint64(2), live[0].Seq)
	assert.Equal(t, 1.0, live[0].Damage)
	assert.Equal(t, uint64(2001), live[len(live)-1].Seq)
}

// TestProjectilePoolRecycles verifies filtered projectiles are reused zeroed
func TestProjectilePoolRecycles(t *testing.T) {
	pool := NewProjectilePool(8)
	a := pool.Spawn()
	a.Damage = 5
	b := pool.Spawn()
	b.Damage = 7

	pool.Filter(func(pr *Projectile) bool { return pr.Damage != 5 })
	require.Equal(t, 1, pool.Len())
	assert.Same(t, b, pool.Live()[0])

	c := pool.Spawn()
	assert.Same(t, a, c)
	assert.Zero(t, c.Damage)
	assert.Equal(t, uint64(3), c.Seq)
}

// firePellet adds a player pellet moving along vel from pos
func firePellet(w *World, pos, vel Vec3) *Projectile {
	gt := &w.tuning.Guns
	pr := w.projectiles.Spawn()
	pr.Faction = FactionPlayer
	pr.Pos = pos
	pr.Vel = vel
	pr.Life = gt.Life
	pr.Range = gt.Range
	pr.Damage = gt.Damage
	pr.HitRadius = gt.HitRadiusLeft
	pr.AreaRadius = gt.AreaRadius
	pr.AreaDPS = gt.AreaDPS
	pr.AreaLife = gt.AreaLife
	return pr
}

// TestPelletHitsEnemy verifies a pellet damages the enemy shield-first and
// bursts into an area effect.
func TestPelletHitsEnemy(t *testing.T) {
	w := newTestWorld(t)
	e := spawnAt(w, 2, Vec3{X: 0, Y: 1, Z: 110})
	e.MoveTarget = e.Pos
	e.NextMoveUpdate = 1e9

	firePellet(w, Vec3{X: 0, Y: 1, Z: 105}, Vec3{Z: 80})
	stepN(w, 4, &InputFrame{})

	assert.Zero(t, w.ProjectileCount())
	assert.Less(t, e.PA, 1000.0)
	assert.Equal(t, 1, w.AreaEffectCount())
	assert.GreaterOrEqual(t, w.Stats().DamageDealt, 1000.0)
}

// TestPelletSweepNoTunneling verifies a pellet that crosses an enemy within
// one step still hits it.
func TestPelletSweepNoTunneling(t *testing.T) {
	w := newTestWorld(t)
	e := spawnAt(w, 2, Vec3{X: 0, Y: 1, Z: 110})
	e.NextMoveUpdate = 1e9

	// 10 units per step, enemy sits mid-segment
	firePellet(w, Vec3{X: 0, Y: 1, Z: 105}, Vec3{Z: 600})
	w.Step(testDT, &InputFrame{})

	assert.Zero(t, w.ProjectileCount())
	assert.Equal(t, 0.0, e.PA)
}

// TestPelletHitsFirstEnemyInList verifies simultaneous candidates resolve by
// list order.
func TestPelletHitsFirstEnemyInList(t *testing.T) {
	w := newTestWorld(t)
	far := spawnAt(w, 2, Vec3{X: 0, Y: 1, Z: 112})
	near := spawnAt(w, 2, Vec3{X: 0, Y: 1, Z: 108})
	far.NextMoveUpdate = 1e9
	near.NextMoveUpdate = 1e9

	firePellet(w, Vec3{X: 0, Y: 1, Z: 105}, Vec3{Z: 600})
	w.Step(testDT, &InputFrame{})

	assert.Equal(t, 0.0, far.PA)
	assert.Equal(t, 1000.0, near.PA)
}

// TestPelletBlockedByObstacle verifies geometry stops pellets and the burst
// lands at the impact point.
func TestPelletBlockedByObstacle(t *testing.T) {
	w := newTestWorld(t, func(tt *Tuning) {
		tt.Geometry.MazeObstacles = true
	})

	// Room 2 is closed on its south side, so the outer ring is solid there
	firePellet(w, Vec3{X: 0, Y: 1, Z: 150}, Vec3{Z: 80})
	stepN(w, 30, &InputFrame{})

	assert.Zero(t, w.ProjectileCount())
	require.Equal(t, 1, w.AreaEffectCount())
	impact := w.areaEffects[0].Pos
	assert.Greater(t, impact.Z, 150.0)
	assert.Less(t, impact.Z, 166.0)
}

// TestPelletLeavesWorld verifies a pellet leaving every room is removed
func TestPelletLeavesWorld(t *testing.T) {
	w := newTestWorld(t)
	firePellet(w, Vec3{X: 0, Y: 1, Z: 0}, Vec3{X: 80, Z: 80})

	stepN(w, 120, &InputFrame{})
	assert.Zero(t, w.ProjectileCount())
}

// TestPelletRangeAndLife verifies range and lifetime expiry
func TestPelletRangeAndLife(t *testing.T) {
	w := newTestWorld(t)

	pr := firePellet(w, Vec3{X: 0, Y: 1, Z: 0}, Vec3{Z: -10})
	pr.Range = 2
	pr.AreaRadius = 0
	stepN(w, 13, &InputFrame{})
	assert.Zero(t, w.ProjectileCount())

	pr = firePellet(w, Vec3{X: 0, Y: 1, Z: 0}, Vec3{Z: -1})
	pr.Life = 0.1
	stepN(w, 7, &InputFrame{})
	assert.Zero(t, w.ProjectileCount())
	assert.Zero(t, w.AreaEffectCount(), "expiry does not burst")
}

// TestEnemyBallLeash verifies a ball that strays from the player is dropped
func TestEnemyBallLeash(t *testing.T) {
	w := newTestWorld(t)
	pr := w.projectiles.Spawn()
	pr.Faction = FactionEnemy
	pr.Pos = Vec3{X: 11, Y: 1, Z: 0}
	pr.Vel = Vec3{X: 6}
	pr.Life = 5
	pr.Damage = 500
	pr.HitRadius = 0.12

	stepN(w, 5, &InputFrame{})
	assert.Equal(t, 1, w.ProjectileCount())

	stepN(w, 20, &InputFrame{})
	assert.Zero(t, w.ProjectileCount())
	assert.Equal(t, 9999.0, w.Player().PA)
}

// TestAreaEffectBurnsAndExpires verifies DPS over time and expiry
func TestAreaEffectBurnsAndExpires(t *testing.T) {
	w := newTestWorld(t)
	e := spawnAt(w, 2, Vec3{X: 0, Y: 1, Z: 110})
	e.NextMoveUpdate = 1e9
	outside := spawnAt(w, 2, Vec3{X: 10, Y: 1, Z: 110})
	outside.NextMoveUpdate = 1e9

	w.addAreaEffect(Vec3{X: 0, Y: 1, Z: 110}, 2, 500, 1, 0xff)
	stepN(w, 60, &InputFrame{})

	assert.InDelta(t, 500, e.PA, 10)
	assert.Equal(t, 1000.0, outside.PA)

	stepN(w, 5, &InputFrame{})
	assert.Zero(t, w.AreaEffectCount())
	pa := e.PA
	stepN(w, 10, &InputFrame{})
	assert.Equal(t, pa, e.PA)
}

// TestAreaEffectCap verifies the oldest effect is evicted at the cap
func TestAreaEffectCap(t *testing.T) {
	w := newTestWorld(t, func(tt *Tuning) {
		tt.Limits.MaxAreaEffects = 3
	})
	for i := 0; i < 4; i++ {
		w.addAreaEffect(Vec3{X: float64(i)}, 1, 1, 10, 0)
	}

	require.Equal(t, 3, w.AreaEffectCount())
	assert.Equal(t, 1.0, w.areaEffects[0].Pos.X)
	assert.Equal(t, uint64(1), w.Stats().AreaEvicted)
}

// TestSegmentPointDistSq checks the clamp at both segment ends
func TestSegmentPointDistSq(t *testing.T) {
	a := Vec3{}
	b := Vec3{X: 10}

	assert.InDelta(t, 4, segmentPointDistSq(a, b, Vec3{X: 5, Y: 2}), 1e-9)
	assert.InDelta(t, 9, segmentPointDistSq(a, b, Vec3{X: -3}), 1e-9)
	assert.InDelta(t, 1, segmentPointDistSq(a, b, Vec3{X: 11}), 1e-9)
	assert.InDelta(t, 2, segmentPointDistSq(a, a, Vec3{X: 1, Z: 1}), 1e-9)
}
