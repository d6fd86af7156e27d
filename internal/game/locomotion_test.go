package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWalkForward verifies base speed along the facing direction
func TestWalkForward(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()

	stepN(w, 60, held(KeyForward))

	assert.InDelta(t, -10.5, p.Pos.Z, 0.2)
	assert.InDelta(t, 0, p.Pos.X, 1e-9)
	assert.Equal(t, 0.5, p.Pos.Y)
	assert.True(t, p.Grounded)
	assert.Equal(t, MotionGrounded, p.Motion)
	assert.Equal(t, 100.0, p.Stamina)
}

// TestSprintDrainsStamina verifies the sprint multiplier and drain
func TestSprintDrainsStamina(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()

	stepN(w, 60, held(KeySprint, KeyLeft))

	assert.InDelta(t, -15.75, p.Pos.X, 0.3)
	assert.InDelta(t, 92, p.Stamina, 0.2)
	assert.True(t, p.Grounded)
}

// TestCriticalSlowsMovement verifies the post-reset slow window
func TestCriticalSlowsMovement(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.CriticalUntil = 100

	stepN(w, 60, held(KeyForward))
	assert.InDelta(t, -5.25, p.Pos.Z, 0.1)
}

// TestJumpArc verifies a jump leaves the floor, costs stamina, peaks at the
// jump height and lands again.
func TestJumpArc(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()

	w.Step(testDT, pressed(KeyJump))
	require.False(t, p.Grounded)
	assert.Equal(t, MotionAirborne, p.Motion)
	assert.Less(t, p.Stamina, 97.0)

	peak := p.Pos.Y
	for i := 0; i < 60; i++ {
		w.Step(testDT, &InputFrame{})
		peak = math.Max(peak, p.Pos.Y)
	}
	assert.InDelta(t, 1.0, peak, 0.1)
	assert.True(t, p.Grounded)
	assert.Equal(t, 0.5, p.Pos.Y)
}

// TestJumpRequiresFooting verifies holding jump in the air does not
// launch again.
func TestJumpRequiresFooting(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()

	w.Step(testDT, held(KeyJump))
	vy := p.Vel.Y
	stamina := p.Stamina
	w.Step(testDT, held(KeyJump))

	assert.Less(t, p.Vel.Y, vy)
	assert.GreaterOrEqual(t, p.Stamina, stamina, "no second jump cost")
}

// TestFlightClimbs verifies sprint+forward flies along the view direction
func TestFlightClimbs(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.Pitch = 0.5

	stepN(w, 60, held(KeySprint, KeyForward))

	assert.Equal(t, MotionFlying, p.Motion)
	assert.False(t, p.Grounded)
	assert.Greater(t, p.Pos.Y, 1.5)
	assert.InDelta(t, 90, p.Stamina, 0.3)
}

// TestHoverHoldsAltitude verifies sprint without forward stops the fall
func TestHoverHoldsAltitude(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.Pos.Y = 5
	p.Grounded = false

	stepN(w, 30, held(KeySprint))
	assert.InDelta(t, 5, p.Pos.Y, 1e-9)
	assert.Less(t, p.Stamina, 100.0)

	stepN(w, 60, &InputFrame{})
	assert.True(t, p.Grounded)
}

// TestCeilingClamp verifies flight stops at the ceiling
func TestCeilingClamp(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.Pitch = 1.2

	stepN(w, 600, held(KeySprint, KeyForward))
	assert.LessOrEqual(t, p.Pos.Y, 29.5)
}

// TestDash verifies the chord plus a direction press teleports the body,
// costs stamina and starts that key's cooldown.
func TestDash(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()

	f := held(KeySprint, KeyJump, KeyForward)
	f.Pressed[KeyForward] = true
	w.Step(testDT, f)

	assert.Equal(t, MotionDashing, p.Motion)
	assert.InDelta(t, -10.7625, p.Pos.Z, 0.01)
	assert.InDelta(t, 91.87, p.Stamina, 0.05)

	// Same key is cooling down
	z := p.Pos.Z
	w.Step(testDT, f)
	assert.NotEqual(t, MotionDashing, p.Motion)
	assert.InDelta(t, z-0.2625, p.Pos.Z, 0.01)

	// Another key has its own cooldown
	g := held(KeySprint, KeyJump, KeyRight)
	g.Pressed[KeyRight] = true
	w.Step(testDT, g)
	assert.Equal(t, MotionDashing, p.Motion)
	assert.Greater(t, p.Pos.X, 10.0)
}

// TestDashExpanded verifies the expansion distance multiplier
func TestDashExpanded(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.ExpansionUntil = 100

	f := held(KeySprint, KeyJump, KeyBack)
	f.Pressed[KeyBack] = true
	w.Step(testDT, f)

	assert.Greater(t, p.Pos.Z, 31.5)
	assert.Equal(t, 100.0, p.Stamina, "free while expanded")
}

// TestDashBlockedByEnergyLock verifies a locked player cannot dash
func TestDashBlockedByEnergyLock(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.StaminaLockout = true
	p.Stamina = 0
	p.Energy = 0
	p.EnergyLock = true

	f := held(KeySprint, KeyJump, KeyForward)
	f.Pressed[KeyForward] = true
	w.Step(testDT, f)

	assert.NotEqual(t, MotionDashing, p.Motion)
	assert.Greater(t, p.Pos.Z, -1.0)
}

// TestClosedWallStopsPlayer verifies a room side without a doorway blocks
// the body.
func TestClosedWallStopsPlayer(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()
	p.Pos = Vec3{X: 0, Y: 0.5, Z: -110}

	stepN(w, 600, held(KeyForward))

	assert.GreaterOrEqual(t, p.Pos.Z, -164.5)
	assert.Less(t, p.Pos.Z, -164.0)
	room, ok := w.Rooms().RoomAt(p.Pos)
	require.True(t, ok)
	assert.Equal(t, 1, room)
}

// TestDoorwayConnectsRooms verifies walking through an opening changes room
func TestDoorwayConnectsRooms(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()

	stepN(w, 600, held(KeyForward))

	room, ok := w.Rooms().RoomAt(p.Pos)
	require.True(t, ok)
	assert.Equal(t, 1, room)
}

// TestLookRequiresPointerLock verifies pointer deltas only turn the view
// while locked, and pitch is clamped.
func TestLookRequiresPointerLock(t *testing.T) {
	w := newTestWorld(t)
	p := w.Player()

	w.Step(testDT, &InputFrame{LookDX: 100})
	assert.Equal(t, 0.0, p.Yaw)

	w.Step(testDT, &InputFrame{LookDX: 100, LookDY: -50, PointerLocked: true})
	assert.InDelta(t, -0.2, p.Yaw, 1e-9)
	assert.InDelta(t, 0.1, p.Pitch, 1e-9)

	w.Step(testDT, &InputFrame{LookDY: -10000, PointerLocked: true})
	assert.InDelta(t, math.Pi/2-0.05, p.Pitch, 1e-9)
}

// TestPlayerStaysInLegalSpace drives the body through a maze layout and
// checks it is never inside an obstacle or outside every room.
func TestPlayerStaysInLegalSpace(t *testing.T) {
	w := newTestWorld(t, func(tt *Tuning) {
		tt.Geometry.MazeObstacles = true
	})
	p := w.Player()
	rooms := w.Rooms()
	half := w.Tuning().Geometry.BodyHalf()

	script := []*InputFrame{
		held(KeyForward),
		held(KeyForward, KeySprint),
		held(KeyLeft, KeySprint),
		held(KeyBack, KeyRight),
		held(KeyJump, KeyForward),
		held(KeySprint),
	}
	for i := 0; i < 3000; i++ {
		f := *script[(i/40)%len(script)]
		if i%40 == 0 {
			f.LookDX = 350
			f.PointerLocked = true
		}
		if i%97 == 0 {
			f.Held[KeySprint] = true
			f.Held[KeyJump] = true
			f.Held[KeyForward] = true
			f.Pressed[KeyForward] = true
		}
		w.Step(testDT, &f)

		require.True(t, rooms.Contains(p.Pos), "step %d: outside rooms at %+v", i, p.Pos)
		require.False(t, rooms.CollidesBody(p.Pos, half), "step %d: inside obstacle at %+v", i, p.Pos)
		require.True(t, rooms.Contains(w.camera), "step %d: camera outside rooms", i)
	}
}
