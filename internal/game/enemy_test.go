package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnemyTakeDamageShieldFirst verifies PA absorbs before AP and a kill
// is reported once.
func TestEnemyTakeDamageShieldFirst(t *testing.T) {
	e := &Enemy{AP: 5000, PA: 1000}

	toPA, toAP, killed := e.TakeDamage(1500)
	assert.Equal(t, 1000.0, toPA)
	assert.Equal(t, 500.0, toAP)
	assert.False(t, killed)
	assert.Equal(t, 4500.0, e.AP)

	_, toAP, killed = e.TakeDamage(10000)
	assert.Equal(t, 4500.0, toAP)
	assert.True(t, killed)
	assert.True(t, e.Dead)

	toPA, toAP, killed = e.TakeDamage(100)
	assert.Zero(t, toPA)
	assert.Zero(t, toAP)
	assert.False(t, killed, "dead enemies are not killed twice")
}

// TestEnemyStrike verifies the strike only reaches AP once PA is gone
func TestEnemyStrike(t *testing.T) {
	e := &Enemy{AP: 5000, PA: 1000}
	toPA, toAP, killed := e.Strike(500)
	assert.Equal(t, 500.0, toPA)
	assert.Zero(t, toAP)
	assert.False(t, killed)

	e = &Enemy{AP: 5000, PA: 1000}
	toPA, toAP, killed = e.Strike(10000)
	assert.Equal(t, 1000.0, toPA)
	assert.Equal(t, 5000.0, toAP)
	assert.True(t, killed)
}

// TestEnemyEngagesAndKeepsDistance verifies an enemy closes to the stand-off
// distance once the player is in range.
func TestEnemyEngagesAndKeepsDistance(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.Pos = Vec3{X: 0, Y: 0.5, Z: -110}
	e := spawnAt(w, 1, Vec3{X: 6, Y: 1, Z: -110})

	stepN(w, 180, &InputFrame{})

	assert.True(t, e.Engaged)
	flat := Vec3{X: e.Pos.X - p.Pos.X, Z: e.Pos.Z - p.Pos.Z}
	assert.InDelta(t, 2, flat.Len(), 0.05)
	assert.Equal(t, 1.0, e.Pos.Y)
}

// TestEnemyStandOffWhilePlayerAdvances verifies a player walking into an
// engaged enemy never gets inside the stand-off distance.
func TestEnemyStandOffWhilePlayerAdvances(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.Pos = Vec3{X: 0, Y: 0.5, Z: -110}
	p.Yaw = -math.Pi / 2 // Facing +X
	e := spawnAt(w, 1, Vec3{X: 2.5, Y: 1, Z: -110})
	standOff := w.Tuning().Enemies.StandOff

	for i := 0; i < 12; i++ {
		w.Step(testDT, held(KeyForward))
		require.True(t, e.Engaged, "step %d", i)
		flat := Vec3{X: e.Pos.X - p.Pos.X, Z: e.Pos.Z - p.Pos.Z}
		require.GreaterOrEqual(t, flat.Len(), standOff-1e-9, "step %d", i)
	}
	assert.Greater(t, p.Pos.X, 1.5, "player kept walking")
	assert.Greater(t, e.Pos.X, 3.5, "enemy was pushed ahead of the player")
}

// TestEngagedEnemySteersToCapturedTarget verifies an engaged enemy walks
// toward the target taken at its last retarget, not the live player.
func TestEngagedEnemySteersToCapturedTarget(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.Pos = Vec3{X: 0, Y: 0.5, Z: -110}
	e := spawnAt(w, 1, Vec3{X: 5, Y: 1, Z: -110})
	e.MoveTarget = Vec3{X: 5, Y: 1, Z: -105}
	e.NextMoveUpdate = 1e9

	stepN(w, 30, &InputFrame{})

	require.True(t, e.Engaged)
	assert.InDelta(t, 5, e.Pos.X, 1e-9)
	assert.InDelta(t, -110+30*testDT*w.Tuning().Enemies.MoveSpeed, e.Pos.Z, 1e-6)
}

// TestEnemyIgnoresPlayerInOtherRoom verifies enemies wander inside their
// home room while the player is elsewhere.
func TestEnemyIgnoresPlayerInOtherRoom(t *testing.T) {
	w := newTestWorld(t)
	e := spawnAt(w, 3, Vec3{X: 110, Y: 1, Z: 0})
	b := w.Rooms().InteriorBounds(3, 0.9)

	moved := false
	for i := 0; i < 600; i++ {
		w.Step(testDT, &InputFrame{})
		require.False(t, e.Engaged)
		require.True(t, b.Contains(e.Pos.X, e.Pos.Z), "enemy left its room at %+v", e.Pos)
		if e.Pos.X != 110 || e.Pos.Z != 0 {
			moved = true
		}
	}
	assert.True(t, moved)
	assert.Zero(t, w.ProjectileCount())
}

// TestEnemyBeam verifies the telegraph ramps up and the beam hits AP
// directly.
func TestEnemyBeam(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.Pos = Vec3{X: 0, Y: 0.5, Z: -110}
	e := spawnAt(w, 1, Vec3{X: 3, Y: 1, Z: -110})
	e.NextBall = 1e9
	e.NextBeam = 1
	e.ChargeStart = 0.2

	stepN(w, 30, &InputFrame{})
	assert.Greater(t, e.Telegraph, 0.0)
	assert.Less(t, e.Telegraph, 1.0)
	assert.Equal(t, 99999.0, p.AP)

	stepN(w, 35, &InputFrame{})
	assert.Equal(t, 92499.0, p.AP)
	assert.Equal(t, 9999.0, p.PA, "beam bypasses the shield")
	assert.Equal(t, 7500.0, w.Stats().DamageTaken[DamageUnblockable])
	assert.Len(t, w.beams, 1)
	assert.Zero(t, e.Telegraph)
	assert.InDelta(t, w.Now()+50, e.NextBeam, 0.1)
}

// TestEnemyBeamWaitsForPlayer verifies an armed beam holds until the player
// is engaged.
func TestEnemyBeamWaitsForPlayer(t *testing.T) {
	w := newTestWorld(t)
	e := spawnAt(w, 1, Vec3{X: 3, Y: 1, Z: -110})
	e.NextBall = 1e9
	e.NextBeam = 0.5
	e.ChargeStart = e.NextBeam - w.Tuning().Enemies.BeamTelegraph

	stepN(w, 120, &InputFrame{})
	assert.Equal(t, 99999.0, w.Player().AP)
	assert.Equal(t, 1.0, e.Telegraph)

	w.Player().Pos = Vec3{X: 0, Y: 0.5, Z: -110}
	e.Pos = Vec3{X: 3, Y: 1, Z: -110}
	w.Step(testDT, &InputFrame{})
	assert.Equal(t, 92499.0, w.Player().AP)
}

// TestEnemyBallHitsShield verifies the ball projectile travels to the player
// and is absorbed by PA.
func TestEnemyBallHitsShield(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.Pos = Vec3{X: 0, Y: 0.5, Z: -110}
	e := spawnAt(w, 1, Vec3{X: 4, Y: 1, Z: -110})
	e.NextBall = 0.02

	w.Step(testDT, &InputFrame{})
	w.Step(testDT, &InputFrame{})
	w.Step(testDT, &InputFrame{})
	require.Equal(t, 1, w.ProjectileCount())
	ball := w.projectiles.Live()[0]
	assert.Equal(t, FactionEnemy, ball.Faction)
	assert.Equal(t, e.ID, ball.Source)
	assert.Greater(t, ball.Damage, 500.0)
	assert.Less(t, ball.Damage, 1000.0)

	stepN(w, 60, &InputFrame{})
	assert.Zero(t, w.ProjectileCount())
	assert.Less(t, p.PA, 9500.0)
	assert.Equal(t, 99999.0, p.AP)
	assert.Greater(t, w.Stats().DamageTaken[DamageStandard], 500.0)
}

// TestTelegraphBlend verifies the blend ramps over the first part of the
// telegraph and then holds.
func TestTelegraphBlend(t *testing.T) {
	w := newTestWorld(t)
	e := &Enemy{ChargeStart: 10}

	assert.Zero(t, w.telegraphBlend(e, 5))
	assert.InDelta(t, 0, w.telegraphBlend(e, 10), 1e-6)
	assert.InDelta(t, 0.5, w.telegraphBlend(e, 14), 1e-5)
	assert.InDelta(t, 1, w.telegraphBlend(e, 19), 1e-6)
	assert.InDelta(t, 1, w.telegraphBlend(e, 30), 1e-6)
}

// TestDeadEnemiesRemoved verifies kills are compacted out the same tick
// in spawn order.
func TestDeadEnemiesRemoved(t *testing.T) {
	w := newTestWorld(t)
	a := spawnAt(w, 2, Vec3{X: 0, Y: 1, Z: 100})
	b := spawnAt(w, 2, Vec3{X: 5, Y: 1, Z: 100})
	c := spawnAt(w, 2, Vec3{X: 10, Y: 1, Z: 100})

	w.damageEnemy(b, 1e9)
	require.True(t, b.Dead)
	w.Step(testDT, &InputFrame{})

	assert.Equal(t, []*Enemy{a, c}, w.Enemies())
	assert.Equal(t, 2, w.EnemiesInRoom(2))
	assert.Equal(t, 1, w.Stats().Kills)
}
