package game

import (
	"math"

	"maze-arena/internal/game/spatial"
)

// applyLook turns the pointer delta into yaw/pitch. Only while pointer lock
// is held.
func (w *World) applyLook(in *InputFrame) {
	if !in.PointerLocked {
		return
	}
	mt := &w.tuning.Movement
	p := w.player
	p.Yaw -= in.LookDX * mt.LookSensitivity
	p.Pitch -= in.LookDY * mt.LookSensitivity
	p.Pitch = spatial.Clamp(p.Pitch, -mt.PitchLimit, mt.PitchLimit)
}

// moveDirection sums the held direction keys into a horizontal vector
func (w *World) moveDirection(in *InputFrame) Vec3 {
	p := w.player
	var dir Vec3
	if in.Down(KeyForward) {
		dir = dir.Add(p.Forward())
	}
	if in.Down(KeyBack) {
		dir = dir.Sub(p.Forward())
	}
	if in.Down(KeyRight) {
		dir = dir.Add(p.Right())
	}
	if in.Down(KeyLeft) {
		dir = dir.Sub(p.Right())
	}
	return dir
}

// tryDash handles direction-key press edges while the sprint+jump chord is
// held. Each key has its own cooldown.
func (w *World) tryDash(in *InputFrame) bool {
	if !in.dashChord() {
		return false
	}
	mt := &w.tuning.Movement
	p := w.player
	now := w.clock.Now()

	dashed := false
	for i, k := range dashKeys {
		if !in.Edge(k) {
			continue
		}
		if p.EnergyLock || !p.CanAfford(mt.DashCost) || now < p.DashReadyAt[i] {
			continue
		}
		dir := w.moveDirection(in)
		if dir.LenSq() == 0 {
			continue
		}
		dist := mt.DashDistance
		if p.Expanded(now) {
			dist *= mt.DashExpansionMult
		}
		w.moveHorizontal(dir.Normalize().Scale(dist))
		p.Consume(mt.DashCost, now)
		p.DashReadyAt[i] = now + mt.DashCooldown
		dashed = true
	}
	return dashed
}

// stepLocomotion integrates the player body for one tick
func (w *World) stepLocomotion(in *InputFrame, dt float64) {
	mt := &w.tuning.Movement
	p := w.player
	now := w.clock.Now()

	dashed := w.tryDash(in)

	sprint := in.Down(KeySprint)
	forward := in.Down(KeyForward)
	chord := in.dashChord()
	available := p.EnergyAvailable()
	flying := sprint && forward && !chord && available

	// Horizontal velocity from the held axes
	dir := w.moveDirection(in)
	if dir.LenSq() > 0 {
		speed := mt.MoveSpeed
		if sprint && available && !p.EnergyLock {
			speed *= mt.SprintMult
		}
		if p.Expanded(now) {
			speed *= mt.ExpansionSpeedMult
		}
		if p.EnergyLock {
			speed *= mt.LockSpeedMult
		}
		if p.Critical(now) {
			speed *= mt.CriticalSpeedMult
		}
		dir = dir.Normalize()
		p.Vel.X = dir.X * speed
		p.Vel.Z = dir.Z * speed
	} else {
		p.Vel.X = 0
		p.Vel.Z = 0
	}

	switch {
	case flying:
		p.Vel = p.Vel.AddScaled(p.Look(), mt.FlyAccel*dt)
		p.Grounded = false
	case in.Down(KeyJump) && !chord && p.Grounded && !p.EnergyLock &&
		available && p.CanAfford(mt.JumpCost):
		p.Vel.Y = math.Max(p.Vel.Y, mt.JumpSpeed())
		p.Grounded = false
		p.Consume(mt.JumpCost, now)
	default:
		p.Vel.Y -= mt.Gravity * dt
	}

	// Hover: shift in the air without forward holds altitude
	if sprint && !p.Grounded && !forward && available {
		p.Vel.Y = math.Max(0, p.Vel.Y)
	}

	w.moveHorizontal(Vec3{X: p.Vel.X * dt, Z: p.Vel.Z * dt})
	w.resolveVertical(p.Pos.Y + p.Vel.Y*dt)
	w.clampToWorld()

	switch {
	case dashed:
		p.Motion = MotionDashing
	case flying:
		p.Motion = MotionFlying
	case p.Grounded:
		p.Motion = MotionGrounded
	default:
		p.Motion = MotionAirborne
	}
}

// moveHorizontal applies an XZ displacement one axis at a time. Each axis is
// kept only if the body stays inside a room and clear of obstacles.
func (w *World) moveHorizontal(delta Vec3) {
	p := w.player
	half := w.tuning.Geometry.BodyHalf()

	if delta.X != 0 {
		try := Vec3{X: p.Pos.X + delta.X, Y: p.Pos.Y, Z: p.Pos.Z}
		if !w.rooms.CollidesBody(try, half) {
			p.Pos.X = try.X
		}
	}
	if delta.Z != 0 {
		try := Vec3{X: p.Pos.X, Y: p.Pos.Y, Z: p.Pos.Z + delta.Z}
		if !w.rooms.CollidesBody(try, half) {
			p.Pos.Z = try.Z
		}
	}
}

// resolveVertical moves the body to nextY against the floor, the ceiling and
// obstacle tops.
func (w *World) resolveVertical(nextY float64) {
	g := &w.tuning.Geometry
	p := w.player
	half := g.BodyHalf()

	switch {
	case nextY >= g.CeilingY():
		p.Pos.Y = g.CeilingY()
		p.Vel.Y = 0
		return
	case nextY <= g.FloorY():
		p.Pos.Y = g.FloorY()
		p.Vel.Y = 0
		p.Grounded = true
		return
	}

	try := Vec3{X: p.Pos.X, Y: nextY, Z: p.Pos.Z}
	if !w.rooms.CollidesBody(try, half) {
		p.Pos.Y = nextY
		p.Grounded = false
		return
	}

	if p.Vel.Y <= 0 {
		if top, ok := w.rooms.HighestTopBeneath(p.Pos, half, p.Pos.Y-half); ok {
			p.Pos.Y = top + half
		}
		p.Grounded = true
	}
	p.Vel.Y = 0
}

// clampToWorld keeps the body inside the outer world square and the vertical
// range.
func (w *World) clampToWorld() {
	g := &w.tuning.Geometry
	p := w.player
	limit := g.WorldHalf() - g.BodyHalf()

	p.Pos.X = spatial.Clamp(p.Pos.X, -limit, limit)
	p.Pos.Z = spatial.Clamp(p.Pos.Z, -limit, limit)
	if p.Pos.Y < g.FloorY() {
		p.Pos.Y = g.FloorY()
		p.Vel.Y = math.Max(0, p.Vel.Y)
		p.Grounded = true
	}
	if p.Pos.Y > g.CeilingY() {
		p.Pos.Y = g.CeilingY()
		p.Vel.Y = math.Min(0, p.Vel.Y)
	}
}
