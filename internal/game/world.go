package game

import (
	"fmt"

	"github.com/tanema/gween"
	"go.uber.org/zap"

	"maze-arena/internal/game/maze"
	"maze-arena/internal/game/spatial"
)

// enemyGridCell is the neighbor grid cell edge. About the largest area
// effect radius plus a pellet step.
const enemyGridCell = 10

// WorldStats are running totals since world creation
type WorldStats struct {
	Spawned       int
	Kills         int
	DamageDealt   float64
	DamageTaken   [2]float64 // Indexed by DamageKind
	ShotsFired    int
	SwarmLaunched int
	AreaEvicted   uint64
}

// World is the whole simulation. It is single-threaded: only Step mutates
// it, and the Engine only calls Step from its tick goroutine.
type World struct {
	tuning Tuning
	logger *zap.Logger
	events *EventLog

	clock *SimClock
	rng   *maze.Mulberry32

	rooms *spatial.RoomIndex
	mazes []*maze.Grid

	player *Player
	camera Vec3

	expansion Expansion
	repair    Repair
	swarm     Swarm
	guns      Guns

	enemies    []*Enemy
	enemySeq   uint64
	spawners   []spawner
	roomCounts []int
	enemyGrid  *spatial.SpatialGrid
	telegraph  *gween.Tween

	projectiles *ProjectilePool
	areaEffects []AreaEffect
	texts       []FloatingText
	beams       []Beam

	stats      WorldStats
	idFallback int
}

// NewWorld validates the tuning, builds the rooms and seeds the initial
// enemy population. events may be nil.
func NewWorld(t Tuning, logger *zap.Logger, events *EventLog) (*World, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &World{
		tuning: t,
		logger: logger,
		events: events,
		clock:  NewSimClock(t.MaxDelta),
		rng:    maze.NewMulberry32(t.Seed),
	}

	if err := w.buildRooms(); err != nil {
		return nil, err
	}

	g := &w.tuning.Geometry
	half := g.WorldHalf()
	w.enemyGrid = spatial.NewSpatialGrid(-half, -half, 2*half, 2*half, enemyGridCell, t.Limits.MaxEnemies)
	w.telegraph = newTelegraphTween(t.Enemies.BeamBlendSpan)

	w.player = NewPlayer(&w.tuning)
	w.camera = w.eyePosition()
	w.expansion = newExpansion(&w.tuning.Expansion)
	w.repair = newRepair(&w.tuning.Repair)
	w.swarm = newSwarm(&w.tuning.Swarm)
	w.guns = NewGuns(&w.tuning.Guns)

	w.projectiles = NewProjectilePool(t.Limits.MaxProjectiles)
	w.areaEffects = make([]AreaEffect, 0, t.Limits.MaxAreaEffects)
	w.texts = make([]FloatingText, 0, t.Limits.MaxTexts)
	w.beams = make([]Beam, 0, t.Limits.MaxBeams)
	w.enemies = make([]*Enemy, 0, t.Limits.MaxEnemies)

	w.populate()

	w.logger.Info("🌍 World created",
		zap.Uint32("seed", t.Seed),
		zap.Int("rooms", w.rooms.Len()),
		zap.Int("obstacles", w.rooms.ObstacleCount()),
		zap.Int("enemies", len(w.enemies)))
	return w, nil
}

// buildRooms carves each room's maze and indexes the layout
func (w *World) buildRooms() error {
	g := &w.tuning.Geometry
	size := g.RoomSize()

	rooms := make([]spatial.Room, len(w.tuning.Rooms))
	w.mazes = make([]*maze.Grid, len(w.tuning.Rooms))
	for i, rs := range w.tuning.Rooms {
		grid, err := maze.Generate(maze.Config{
			Size:     g.RoomCells,
			Seed:     rs.Seed,
			Openings: maze.Openings{N: rs.N, S: rs.S, E: rs.E, W: rs.W},
		})
		if err != nil {
			return fmt.Errorf("room %d maze: %w", i, err)
		}
		w.mazes[i] = grid

		room := spatial.Room{
			CenterX:  rs.X,
			CenterZ:  rs.Z,
			Openings: spatial.Openings{N: rs.N, S: rs.S, E: rs.E, W: rs.W},
			Color:    rs.Color,
			Seed:     rs.Seed,
		}
		if g.MazeObstacles {
			for _, r := range grid.WallRects(g.CellSize, rs.X, rs.Z) {
				room.Obstacles = append(room.Obstacles, spatial.Box{
					Min: Vec3{X: r.MinX, Y: 0, Z: r.MinZ},
					Max: Vec3{X: r.MaxX, Y: g.ObstacleHeight, Z: r.MaxZ},
				})
			}
		}
		rooms[i] = room

		if rs.Spawns {
			w.spawners = append(w.spawners, spawner{room: i, color: rs.Color})
		}
	}

	idx, err := spatial.NewRoomIndex(rooms, spatial.Geometry{
		RoomSize:  size,
		FloorY:    g.FloorY(),
		CeilingY:  g.CeilingY(),
		WorldHalf: g.WorldHalf(),
		BodyHalf:  g.BodyHalf(),
	})
	if err != nil {
		return fmt.Errorf("index rooms: %w", err)
	}
	w.rooms = idx
	w.roomCounts = make([]int, len(rooms))
	return nil
}

// Step advances the world by dt seconds (clamped to MaxDelta) using one input
// frame. The menu key toggles pause; while paused nothing moves and sim time
// stands still. Returns the step actually taken.
func (w *World) Step(dt float64, in *InputFrame) float64 {
	if in.Edge(KeyMenu) {
		w.SetPaused(!w.clock.Paused())
	}
	if w.clock.Paused() {
		return 0
	}
	dt = w.clock.Advance(dt)

	// Input
	w.applyLook(in)

	// Player
	w.stepLocomotion(in, dt)
	w.player.UpdateStamina(in, &w.tuning.Movement, w.clock.Now(), dt)
	w.camera = w.rooms.ClampToNearestRoom(w.eyePosition())

	// Abilities
	w.stepExpansion(in, dt)
	w.stepRepair(in)
	w.stepSwarm(in, dt)

	// Enemies and combat
	w.stepEnemies(dt)
	w.stepWeapons(in)
	w.stepProjectiles(dt)
	w.stepAreaEffects(dt)

	// Cleanup
	w.removeDeadEnemies()
	w.ageEffects(dt)
	w.player.RegenerateShield(w.clock.Now(), dt)
	w.finishReloads()

	return dt
}

// SetPaused freezes or resumes the simulation
func (w *World) SetPaused(paused bool) {
	if w.clock.Paused() == paused {
		return
	}
	w.clock.SetPaused(paused)
	w.emit(EventTypePause, playerSource, PausePayload{Paused: paused})
	w.logger.Info("⏸️ Pause toggled",
		zap.Bool("paused", paused),
		zap.Float64("simTime", w.clock.Now()))
}

// Paused reports whether the simulation is frozen
func (w *World) Paused() bool {
	return w.clock.Paused()
}

// Now returns the sim time
func (w *World) Now() float64 {
	return w.clock.Now()
}

// Player returns the player. Callers outside the tick goroutine must use
// snapshots instead.
func (w *World) Player() *Player {
	return w.player
}

// Enemies returns the live enemy list
func (w *World) Enemies() []*Enemy {
	return w.enemies
}

// Rooms returns the room index
func (w *World) Rooms() *spatial.RoomIndex {
	return w.rooms
}

// Maze returns the carved grid of room i
func (w *World) Maze(i int) *maze.Grid {
	if i < 0 || i >= len(w.mazes) {
		return nil
	}
	return w.mazes[i]
}

// Tuning returns the world's constants
func (w *World) Tuning() *Tuning {
	return &w.tuning
}

// Stats returns the running totals
func (w *World) Stats() WorldStats {
	return w.stats
}

// ProjectileCount returns the live projectile count
func (w *World) ProjectileCount() int {
	return w.projectiles.Len()
}

// AreaEffectCount returns the live area effect count
func (w *World) AreaEffectCount() int {
	return len(w.areaEffects)
}

// RNGState returns the random stream position
func (w *World) RNGState() uint32 {
	return w.rng.State()
}

// eyePosition is where the camera and guns sit
func (w *World) eyePosition() Vec3 {
	p := w.player.Pos
	p.Y += w.tuning.Movement.EyeHeight
	return p
}

// emit forwards an event to the log if one is attached
func (w *World) emit(t EventType, source string, payload interface{}) {
	if w.events == nil {
		return
	}
	w.events.Record(t, w.clock.Steps(), w.clock.Now(), source, payload)
}

// FillSnapshot copies the world into snap. Slices are appended up to their
// preallocated capacity.
func (w *World) FillSnapshot(snap *WorldSnapshot) {
	now := w.clock.Now()
	p := w.player
	res := &w.tuning.Resources

	snap.TickNumber = w.clock.Steps()
	snap.SimTime = now
	snap.Paused = w.clock.Paused()
	snap.RNGState = w.rng.State()

	room, ok := w.rooms.RoomAt(p.Pos)
	if !ok {
		room = -1
	}
	snap.Player = PlayerSnapshot{
		Pos:      p.Pos,
		Vel:      p.Vel,
		Yaw:      p.Yaw,
		Pitch:    p.Pitch,
		Motion:   p.Motion.String(),
		Grounded: p.Grounded,
		Room:     room,
	}
	snap.Camera = w.camera

	snap.HUD = HUDSnapshot{
		StaminaPct:     percent(p.Stamina, res.StaminaMax),
		EnergyPct:      percent(p.Energy, res.EnergyMax),
		StaminaLockout: p.StaminaLockout,
		EnergyLock:     p.EnergyLock,
		AP:             p.AP,
		PA:             p.PA,
		APPct:          p.APPercent(),
		PAPct:          p.PAPercent(),
		PACooldown:     p.PACooldown,
		Invulnerable:   p.Invulnerable(now),
		Critical:       p.Critical(now),
		DamageScale:    p.DamageScale,
		Expansion:      abilitySnapshot(&w.expansion.Ability, now),
		Repair:         abilitySnapshot(&w.repair.Ability, now),
		Swarm:          abilitySnapshot(&w.swarm.Ability, now),
		ExpansionLeft:  w.expansionRemaining(),
		Kits:           w.repair.Kits,
		SwarmIdle:      w.swarm.IdleCount(),
		AmmoLeft:       w.guns.Left.Ammo,
		AmmoRight:      w.guns.Right.Ammo,
		ReloadingLeft:  w.guns.Left.Reloading,
		ReloadingRight: w.guns.Right.Reloading,
	}

	for _, e := range w.enemies {
		if len(snap.Enemies) >= cap(snap.Enemies) {
			break
		}
		snap.Enemies = append(snap.Enemies, EnemySnapshot{
			ID:        e.ID,
			Room:      e.Room,
			Pos:       e.Pos,
			AP:        e.AP,
			PA:        e.PA,
			Telegraph: e.Telegraph,
			Engaged:   e.Engaged,
			Color:     e.Color,
		})
	}

	for _, pr := range w.projectiles.Live() {
		if len(snap.Projectiles) >= cap(snap.Projectiles) {
			break
		}
		snap.Projectiles = append(snap.Projectiles, ProjectileSnapshot{
			Pos:   pr.Pos,
			Vel:   pr.Vel,
			Enemy: pr.Faction == FactionEnemy,
			Color: pr.Color,
		})
	}

	for i := range w.areaEffects {
		if len(snap.AreaEffects) >= cap(snap.AreaEffects) {
			break
		}
		a := &w.areaEffects[i]
		snap.AreaEffects = append(snap.AreaEffects, AreaEffectSnapshot{
			Pos:    a.Pos,
			Radius: a.Radius,
			Fade:   a.Fade(),
			Color:  a.Color,
		})
	}

	for i := range w.beams {
		if len(snap.Beams) >= cap(snap.Beams) {
			break
		}
		b := &w.beams[i]
		snap.Beams = append(snap.Beams, BeamSnapshot{
			From:  b.From,
			To:    b.To,
			Alpha: b.Life / b.StartLife,
			Color: b.Color,
		})
	}

	for i := range w.swarm.Units {
		u := &w.swarm.Units[i]
		if u.Phase == SwarmIdle || len(snap.Swarm) >= cap(snap.Swarm) {
			continue
		}
		snap.Swarm = append(snap.Swarm, SwarmUnitSnapshot{
			Slot:  u.Slot,
			Phase: u.Phase.String(),
			Pos:   u.Pos,
		})
	}

	for i := range w.texts {
		if len(snap.Texts) >= cap(snap.Texts) {
			break
		}
		t := &w.texts[i]
		snap.Texts = append(snap.Texts, TextSnapshot{
			Pos:   t.Pos,
			Text:  t.Text,
			Color: t.Color,
			Alpha: t.Life / t.StartLife,
		})
	}

	snap.EnemyCount = len(w.enemies)
	snap.ProjectileCount = w.projectiles.Len()
	snap.TotalKills = w.stats.Kills
	snap.Resets = p.Resets
}

func abilitySnapshot(a *Ability, now float64) AbilitySnapshot {
	return AbilitySnapshot{
		Phase:         a.Phase.String(),
		ChargeRatio:   a.ChargeRatio(now),
		CooldownRatio: a.CooldownRatio(now),
	}
}
