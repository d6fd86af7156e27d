package game

import (
	"sync/atomic"
	"time"
)

// ResourceLimits defines hard caps on per-world entity counts
type ResourceLimits struct {
	MaxEnemies     int `yaml:"max_enemies"`      // Rendered enemies per snapshot
	MaxProjectiles int `yaml:"max_projectiles"`  // Live projectiles, oldest evicted
	MaxAreaEffects int `yaml:"max_area_effects"` // Live area effects, oldest evicted
	MaxTexts       int `yaml:"max_texts"`        // Live floating texts, newest dropped
	MaxBeams       int `yaml:"max_beams"`        // Live beam visuals, newest dropped
}

// DefaultLimits provides the stock caps
var DefaultLimits = ResourceLimits{
	MaxEnemies:     256,
	MaxProjectiles: 2000,
	MaxAreaEffects: 512,
	MaxTexts:       64,
	MaxBeams:       32,
}

// PlayerSnapshot is an immutable copy of player state for rendering
// Uses value types (not pointers) to ensure immutability
type PlayerSnapshot struct {
	Pos      Vec3    `json:"pos"`
	Vel      Vec3    `json:"vel"`
	Yaw      float64 `json:"yaw"`
	Pitch    float64 `json:"pitch"`
	Motion   string  `json:"motion"`
	Grounded bool    `json:"grounded"`
	Room     int     `json:"room"` // -1 when between rooms
}

// HUDSnapshot carries every scalar the overlay shows
type HUDSnapshot struct {
	StaminaPct     float64 `json:"staminaPct"`
	EnergyPct      float64 `json:"energyPct"`
	StaminaLockout bool    `json:"staminaLockout"`
	EnergyLock     bool    `json:"energyLock"`
	AP             float64 `json:"ap"`
	PA             float64 `json:"pa"`
	APPct          float64 `json:"apPct"`
	PAPct          float64 `json:"paPct"`
	PACooldown     bool    `json:"paCooldown"`
	Invulnerable   bool    `json:"invulnerable"`
	Critical       bool    `json:"critical"`
	DamageScale    float64 `json:"damageScale"`

	Expansion AbilitySnapshot `json:"expansion"`
	Repair    AbilitySnapshot `json:"repair"`
	Swarm     AbilitySnapshot `json:"swarm"`

	ExpansionLeft float64 `json:"expansionLeft"`
	Kits          int     `json:"kits"`
	SwarmIdle     int     `json:"swarmIdle"`

	AmmoLeft       int  `json:"ammoLeft"`
	AmmoRight      int  `json:"ammoRight"`
	ReloadingLeft  bool `json:"reloadingLeft"`
	ReloadingRight bool `json:"reloadingRight"`
}

// AbilitySnapshot is the UI view of one ability machine
type AbilitySnapshot struct {
	Phase         string  `json:"phase"`
	ChargeRatio   float64 `json:"chargeRatio"`
	CooldownRatio float64 `json:"cooldownRatio"`
}

// EnemySnapshot is an immutable enemy for rendering, with its label data
type EnemySnapshot struct {
	ID        string  `json:"id"`
	Room      int     `json:"room"`
	Pos       Vec3    `json:"pos"`
	AP        float64 `json:"ap"`
	PA        float64 `json:"pa"`
	Telegraph float64 `json:"telegraph"`
	Engaged   bool    `json:"engaged"`
	Color     uint32  `json:"color"`
}

// ProjectileSnapshot is an immutable projectile
type ProjectileSnapshot struct {
	Pos   Vec3   `json:"pos"`
	Vel   Vec3   `json:"vel"`
	Enemy bool   `json:"enemy"`
	Color uint32 `json:"color"`
}

// AreaEffectSnapshot is an immutable area effect
type AreaEffectSnapshot struct {
	Pos    Vec3    `json:"pos"`
	Radius float64 `json:"radius"`
	Fade   float64 `json:"fade"`
	Color  uint32  `json:"color"`
}

// BeamSnapshot is an immutable beam visual
type BeamSnapshot struct {
	From  Vec3    `json:"from"`
	To    Vec3    `json:"to"`
	Alpha float64 `json:"alpha"`
	Color uint32  `json:"color"`
}

// SwarmUnitSnapshot is a launched swarm unit
type SwarmUnitSnapshot struct {
	Slot  int    `json:"slot"`
	Phase string `json:"phase"`
	Pos   Vec3   `json:"pos"`
}

// TextSnapshot is an immutable floating text
type TextSnapshot struct {
	Pos   Vec3    `json:"pos"`
	Text  string  `json:"text"`
	Color uint32  `json:"color"`
	Alpha float64 `json:"alpha"`
}

// WorldSnapshot is a complete immutable world state for clients.
// All slices are pre-allocated and capped by ResourceLimits.
type WorldSnapshot struct {
	Sequence   uint64    `json:"sequence"`  // Monotonic sequence for ordering
	Timestamp  time.Time `json:"timestamp"` // When snapshot was created
	TickNumber uint64    `json:"tick"`      // Sim step this represents
	SimTime    float64   `json:"simTime"`
	Paused     bool      `json:"paused"`
	RNGState   uint32    `json:"rngState"` // Stream position for replay checks

	Player PlayerSnapshot `json:"player"`
	Camera Vec3           `json:"camera"`
	HUD    HUDSnapshot    `json:"hud"`

	// Pre-allocated capped slices (never grows beyond limits)
	Enemies     []EnemySnapshot      `json:"enemies"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`
	AreaEffects []AreaEffectSnapshot `json:"areaEffects"`
	Beams       []BeamSnapshot       `json:"beams"`
	Swarm       []SwarmUnitSnapshot  `json:"swarm"`
	Texts       []TextSnapshot       `json:"texts"`

	// Aggregate stats
	EnemyCount      int `json:"enemyCount"`
	ProjectileCount int `json:"projectileCount"`
	TotalKills      int `json:"totalKills"`
	Resets          int `json:"resets"`
}

// SnapshotPool hands the tick one reusable write slot and readers frozen
// copies. A published snapshot is never written again, so readers may hold
// it across ticks.
type SnapshotPool struct {
	scratch   WorldSnapshot
	limits    ResourceLimits
	published atomic.Pointer[WorldSnapshot]
	sequence  uint64 // only touched by the producer
}

// NewSnapshotPool creates a pool with a pre-allocated write slot
func NewSnapshotPool(limits ResourceLimits, swarmUnits int) *SnapshotPool {
	pool := &SnapshotPool{limits: limits}

	// Pre-allocate the write slot so filling never grows a slice
	pool.scratch = WorldSnapshot{
		Enemies:     make([]EnemySnapshot, 0, limits.MaxEnemies),
		Projectiles: make([]ProjectileSnapshot, 0, limits.MaxProjectiles),
		AreaEffects: make([]AreaEffectSnapshot, 0, limits.MaxAreaEffects),
		Beams:       make([]BeamSnapshot, 0, limits.MaxBeams),
		Swarm:       make([]SwarmUnitSnapshot, 0, swarmUnits),
		Texts:       make([]TextSnapshot, 0, limits.MaxTexts),
	}
	pool.published.Store((&WorldSnapshot{}).Clone())

	return pool
}

// AcquireWrite gets the write slot (producer only, called from the tick)
// Returns a snapshot with reset slices but preserved capacity
func (p *SnapshotPool) AcquireWrite() *WorldSnapshot {
	snap := &p.scratch

	// Reset all slices but keep capacity (zero allocation)
	snap.Enemies = snap.Enemies[:0]
	snap.Projectiles = snap.Projectiles[:0]
	snap.AreaEffects = snap.AreaEffects[:0]
	snap.Beams = snap.Beams[:0]
	snap.Swarm = snap.Swarm[:0]
	snap.Texts = snap.Texts[:0]

	p.sequence++
	snap.Sequence = p.sequence
	snap.Timestamp = time.Now()

	return snap
}

// PublishWrite freezes a copy of the write slot and makes it the latest
// snapshot. Called after the slot is fully populated.
func (p *SnapshotPool) PublishWrite() {
	p.published.Store(p.scratch.Clone())
}

// AcquireRead gets the latest published snapshot. Safe from any goroutine;
// the result is never mutated. Before the first publish this is an empty
// snapshot with Sequence 0.
func (p *SnapshotPool) AcquireRead() *WorldSnapshot {
	return p.published.Load()
}

// Clone deep-copies s, trimming every slice to its length
func (s *WorldSnapshot) Clone() *WorldSnapshot {
	c := *s
	c.Enemies = cloneSlice(s.Enemies)
	c.Projectiles = cloneSlice(s.Projectiles)
	c.AreaEffects = cloneSlice(s.AreaEffects)
	c.Beams = cloneSlice(s.Beams)
	c.Swarm = cloneSlice(s.Swarm)
	c.Texts = cloneSlice(s.Texts)
	return &c
}

// cloneSlice copies s into a right-sized slice, empty rather than nil
func cloneSlice[T any](s []T) []T {
	c := make([]T, len(s))
	copy(c, s)
	return c
}

// GetLimits returns the resource limits
func (p *SnapshotPool) GetLimits() ResourceLimits {
	return p.limits
}
