package game

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"

	"maze-arena/internal/game/spatial"
)

// spawner keeps one room populated
type spawner struct {
	room      int
	color     uint32
	nextSpawn float64
}

// newTelegraphTween maps telegraph progress (elapsed / BeamTelegraph) to the
// 0..1 color blend.
func newTelegraphTween(span float64) *gween.Tween {
	return gween.New(0, 1, float32(span), ease.Linear)
}

// telegraphBlend evaluates the charge-up blend for e at now
func (w *World) telegraphBlend(e *Enemy, now float64) float64 {
	if now < e.ChargeStart {
		return 0
	}
	progress := (now - e.ChargeStart) / w.tuning.Enemies.BeamTelegraph
	v, _ := w.telegraph.Set(float32(progress))
	return math.Min(1, float64(v))
}

// populate fills every spawning room with its initial enemies
func (w *World) populate() {
	et := &w.tuning.Enemies
	now := w.clock.Now()
	for i := range w.spawners {
		s := &w.spawners[i]
		count := et.InitialMin + int(math.Floor(w.rng.Float64()*float64(et.InitialJitter)))
		for n := 0; n < count; n++ {
			w.spawnEnemy(s.room, s.color)
		}
		s.nextSpawn = now + et.SpawnMin + w.rng.Float64()*et.SpawnJitter
		w.logger.Debug("👾 Room populated",
			zap.Int("room", s.room),
			zap.Int("enemies", count))
	}
}

// randomPointInRoom picks a point in the room interior that a body of the
// enemy radius can occupy. Falls back to the last candidate when every
// attempt lands in an obstacle.
func (w *World) randomPointInRoom(room int) Vec3 {
	et := &w.tuning.Enemies
	b := w.rooms.InteriorBounds(room, et.Radius+et.RoomMargin)
	y := w.tuning.Geometry.FloorY() + et.Radius

	var p Vec3
	attempts := et.SpawnAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		p = Vec3{
			X: b.MinX + w.rng.Float64()*(b.MaxX-b.MinX),
			Y: y,
			Z: b.MinZ + w.rng.Float64()*(b.MaxZ-b.MinZ),
		}
		if !w.rooms.CollidesBody(p, et.Radius) {
			break
		}
	}
	return p
}

// spawnEnemy adds one enemy at a random legal point of room
func (w *World) spawnEnemy(room int, color uint32) *Enemy {
	et := &w.tuning.Enemies
	now := w.clock.Now()

	pos := w.randomPointInRoom(room)
	w.enemySeq++
	e := &Enemy{
		Room:       room,
		Color:      color,
		Pos:        pos,
		AP:         et.AP,
		PA:         et.PA,
		MaxAP:      et.AP,
		MaxPA:      et.PA,
		SpawnTime:  now,
		MoveTarget: pos,
		seq:        w.enemySeq,
	}
	e.NextBall = now + et.BallInterval + w.rng.Float64()*et.BallJitter
	e.NextBeam = now + et.BeamInterval + w.rng.Float64()*et.BeamJitter
	e.ChargeStart = e.NextBeam - et.BeamTelegraph
	e.NextMoveUpdate = now + et.RetargetMin + w.rng.Float64()*et.RetargetJitter
	e.ID = w.newEnemyID()

	w.enemies = append(w.enemies, e)
	w.stats.Spawned++
	w.emit(EventTypeEnemySpawn, e.ID, EnemySpawnPayload{
		EnemyID: e.ID,
		Room:    room,
		X:       pos.X,
		Z:       pos.Z,
	})
	return e
}

// updateSpawners tops up rooms below the population cap
func (w *World) updateSpawners() {
	et := &w.tuning.Enemies
	now := w.clock.Now()

	for i := range w.roomCounts {
		w.roomCounts[i] = 0
	}
	for _, e := range w.enemies {
		if !e.Dead {
			w.roomCounts[e.Room]++
		}
	}

	for i := range w.spawners {
		s := &w.spawners[i]
		if w.roomCounts[s.room] >= et.RoomCap || now < s.nextSpawn {
			continue
		}
		w.spawnEnemy(s.room, s.color)
		w.roomCounts[s.room]++
		s.nextSpawn = now + et.SpawnMin + w.rng.Float64()*et.SpawnJitter
	}
}

// stepEnemies runs population control and every enemy's behavior
func (w *World) stepEnemies(dt float64) {
	w.updateSpawners()

	playerRoom, inRoom := w.rooms.RoomAt(w.player.Pos)
	for _, e := range w.enemies {
		if e.Dead {
			continue
		}
		w.updateEnemy(e, playerRoom, inRoom, dt)
	}
}

// updateEnemy moves one enemy and fires its attacks
func (w *World) updateEnemy(e *Enemy, playerRoom int, inRoom bool, dt float64) {
	et := &w.tuning.Enemies
	p := w.player
	now := w.clock.Now()

	dist := e.Pos.Dist(p.Pos)
	e.Engaged = inRoom && playerRoom == e.Room && dist <= et.EngageRange

	if now >= e.NextMoveUpdate {
		if e.Engaged {
			e.MoveTarget = p.Pos
		} else {
			e.MoveTarget = w.randomPointInRoom(e.Room)
		}
		e.NextMoveUpdate = now + et.RetargetMin + w.rng.Float64()*et.RetargetJitter
	}

	w.moveEnemy(e, dt)

	e.Telegraph = w.telegraphBlend(e, now)

	if !e.Engaged {
		return
	}

	// The beam stays armed past NextBeam until the player is in reach
	if now >= e.NextBeam {
		w.fireBeam(e)
	}

	if now >= e.NextBall && e.Pos.Dist(p.Pos) <= et.BallRange {
		w.fireBall(e)
	}
}

// moveEnemy walks toward the move target captured at the last retarget on
// the XZ plane. An engaged enemy that ends up nearer than the stand-off
// distance is placed back on the stand-off circle around the player.
func (w *World) moveEnemy(e *Enemy, dt float64) {
	et := &w.tuning.Enemies
	p := w.player

	flat := Vec3{X: e.MoveTarget.X - e.Pos.X, Z: e.MoveTarget.Z - e.Pos.Z}
	if d := flat.Len(); d > 1e-6 {
		e.Pos = e.Pos.AddScaled(flat.Scale(1/d), math.Min(et.MoveSpeed*dt, d))
	}

	if e.Engaged {
		away := Vec3{X: e.Pos.X - p.Pos.X, Z: e.Pos.Z - p.Pos.Z}
		if d := away.Len(); d < et.StandOff {
			if d < 1e-6 {
				away, d = Vec3{X: 1}, 1
			}
			e.Pos.X = p.Pos.X + away.X/d*et.StandOff
			e.Pos.Z = p.Pos.Z + away.Z/d*et.StandOff
		}
	}

	b := w.rooms.InteriorBounds(e.Room, et.Radius+et.RoomMargin)
	e.Pos.X = spatial.Clamp(e.Pos.X, b.MinX, b.MaxX)
	e.Pos.Z = spatial.Clamp(e.Pos.Z, b.MinZ, b.MaxZ)
	e.Pos.Y = w.tuning.Geometry.FloorY() + et.Radius
}

// fireBeam hits the player instantly and rearms the telegraph
func (w *World) fireBeam(e *Enemy) {
	et := &w.tuning.Enemies
	now := w.clock.Now()

	w.damagePlayer(et.BeamDamage, DamageUnblockable, e.ID)
	w.addBeam(e.Pos, w.player.Pos, e.Color)

	e.NextBeam = now + et.BeamInterval
	e.ChargeStart = e.NextBeam - et.BeamTelegraph
	e.Telegraph = 0
}

// fireBall launches a slow homing-free projectile at the player. Damage
// falls off linearly with distance down to BallMinDamage.
func (w *World) fireBall(e *Enemy) {
	et := &w.tuning.Enemies
	now := w.clock.Now()

	to := w.player.Pos.Sub(e.Pos)
	dist := to.Len()
	e.NextBall = now + et.BallInterval
	if dist < 1e-6 {
		return
	}
	dir := to.Scale(1 / dist)

	damage := et.BallMaxDamage - dist/et.BallRange*(et.BallMaxDamage-et.BallMinDamage)
	damage = math.Max(et.BallMinDamage, damage)

	pr := w.projectiles.Spawn()
	pr.Faction = FactionEnemy
	pr.Pos = e.Pos.AddScaled(dir, et.Radius+et.BallLead)
	pr.Vel = dir.Scale(et.BallSpeed)
	pr.Life = et.BallLife
	pr.Damage = damage
	pr.HitRadius = et.BallRadius
	pr.Color = e.Color
	pr.Source = e.ID
}

// FindSwarmTarget returns the live enemy within radius of from with the
// lowest AP. Ties go to the earliest spawn, then the nearest. Nil when none.
func (w *World) FindSwarmTarget(from Vec3, radius float64) *Enemy {
	var best *Enemy
	bestDist := 0.0
	r2 := radius * radius
	for _, e := range w.enemies {
		if e.Dead {
			continue
		}
		d := e.Pos.DistSq(from)
		if d > r2 {
			continue
		}
		if best == nil || betterSwarmTarget(e, d, best, bestDist) {
			best, bestDist = e, d
		}
	}
	return best
}

func betterSwarmTarget(e *Enemy, d float64, best *Enemy, bestDist float64) bool {
	if e.AP != best.AP {
		return e.AP < best.AP
	}
	if e.SpawnTime != best.SpawnTime {
		return e.SpawnTime < best.SpawnTime
	}
	if d != bestDist {
		return d < bestDist
	}
	return e.seq < best.seq
}

// EnemiesInRoom counts live enemies whose home is room
func (w *World) EnemiesInRoom(room int) int {
	n := 0
	for _, e := range w.enemies {
		if !e.Dead && e.Room == room {
			n++
		}
	}
	return n
}
