package game

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTuning is returned by Tuning.Validate
var ErrInvalidTuning = errors.New("game: invalid tuning")

// Tuning holds every gameplay constant. The YAML tags match the optional
// tuning file read by the config package; anything the file omits keeps its
// default.
type Tuning struct {
	Seed     uint32  `yaml:"seed"`
	MaxDelta float64 `yaml:"max_delta"` // Upper bound on a single step, seconds

	Geometry  GeometryTuning  `yaml:"geometry"`
	Movement  MovementTuning  `yaml:"movement"`
	Resources ResourceTuning  `yaml:"resources"`
	Expansion ExpansionTuning `yaml:"expansion"`
	Repair    RepairTuning    `yaml:"repair"`
	Swarm     SwarmTuning     `yaml:"swarm"`
	Enemies   EnemyTuning     `yaml:"enemies"`
	Guns      GunTuning       `yaml:"guns"`
	Limits    ResourceLimits  `yaml:"limits"`
	Rooms     []RoomSpec      `yaml:"rooms"`
	Texts     TextTuning      `yaml:"texts"`
}

// =============================================================================
// GEOMETRY
// =============================================================================

// GeometryTuning describes the room grid and the player body
type GeometryTuning struct {
	RoomCells      int     `yaml:"room_cells"`      // Cells per room side
	CellSize       float64 `yaml:"cell_size"`       // World units per cell
	RoomHeight     float64 `yaml:"room_height"`     // Floor to ceiling
	BodySize       float64 `yaml:"body_size"`       // Player cube edge
	WorldRooms     float64 `yaml:"world_rooms"`     // World half extent in room lengths
	MazeObstacles  bool    `yaml:"maze_obstacles"`  // Extrude each room's maze walls into obstacles
	ObstacleHeight float64 `yaml:"obstacle_height"` // Height of maze wall boxes
}

// RoomSize returns the room side length in world units
func (g GeometryTuning) RoomSize() float64 {
	return float64(g.RoomCells) * g.CellSize
}

// BodyHalf returns the player half extent
func (g GeometryTuning) BodyHalf() float64 {
	return g.BodySize / 2
}

// FloorY returns the lowest legal body center height
func (g GeometryTuning) FloorY() float64 {
	return g.BodyHalf()
}

// CeilingY returns the highest legal body center height
func (g GeometryTuning) CeilingY() float64 {
	return g.RoomHeight - g.BodyHalf()
}

// WorldHalf returns the outer clamp on X and Z
func (g GeometryTuning) WorldHalf() float64 {
	return g.WorldRooms * g.RoomSize()
}

// RoomSpec places one room of the layout. Rooms with Spawns set get an enemy
// population.
type RoomSpec struct {
	X      float64 `yaml:"x"`
	Z      float64 `yaml:"z"`
	N      bool    `yaml:"n"`
	S      bool    `yaml:"s"`
	E      bool    `yaml:"e"`
	W      bool    `yaml:"w"`
	Color  uint32  `yaml:"color"`
	Seed   uint32  `yaml:"seed"`
	Spawns bool    `yaml:"spawns"`
}

// =============================================================================
// PLAYER
// =============================================================================

// MovementTuning holds locomotion constants
type MovementTuning struct {
	MoveSpeed          float64 `yaml:"move_speed"`
	SprintMult         float64 `yaml:"sprint_mult"`
	ExpansionSpeedMult float64 `yaml:"expansion_speed_mult"`
	LockSpeedMult      float64 `yaml:"lock_speed_mult"`
	CriticalSpeedMult  float64 `yaml:"critical_speed_mult"`
	Gravity            float64 `yaml:"gravity"`
	JumpHeight         float64 `yaml:"jump_height"`
	JumpCost           float64 `yaml:"jump_cost"`
	FlyAccel           float64 `yaml:"fly_accel"`
	HoverDrain         float64 `yaml:"hover_drain"`
	FlyDrain           float64 `yaml:"fly_drain"`
	SprintDrain        float64 `yaml:"sprint_drain"`
	DashDistance       float64 `yaml:"dash_distance"`
	DashExpansionMult  float64 `yaml:"dash_expansion_mult"`
	DashCooldown       float64 `yaml:"dash_cooldown"`
	DashCost           float64 `yaml:"dash_cost"`
	LookSensitivity    float64 `yaml:"look_sensitivity"`
	PitchLimit         float64 `yaml:"pitch_limit"`
	EyeHeight          float64 `yaml:"eye_height"`
}

// JumpSpeed returns the launch velocity that reaches JumpHeight
func (m MovementTuning) JumpSpeed() float64 {
	return math.Sqrt(2 * m.Gravity * m.JumpHeight)
}

// ResourceTuning holds the stamina/energy and AP/PA economy constants
type ResourceTuning struct {
	StaminaMax       float64 `yaml:"stamina_max"`
	EnergyMax        float64 `yaml:"energy_max"`
	StaminaRegen     float64 `yaml:"stamina_regen"`
	LockoutRegen     float64 `yaml:"lockout_regen"`
	EnergyRegen      float64 `yaml:"energy_regen"`
	StaminaLockout   float64 `yaml:"stamina_lockout"`
	APMax            float64 `yaml:"ap_max"`
	PAMax            float64 `yaml:"pa_max"`
	PARegen          float64 `yaml:"pa_regen"`
	PACooldown       float64 `yaml:"pa_cooldown"`
	CriticalDuration float64 `yaml:"critical_duration"`
}

// =============================================================================
// ABILITIES
// =============================================================================

// DamageBand is one ring of the expansion aura
type DamageBand struct {
	Radius float64 `yaml:"radius"`
	DPS    float64 `yaml:"dps"`
}

// ExpansionTuning configures the expansion ability
type ExpansionTuning struct {
	Hold         float64      `yaml:"hold"`
	Active       float64      `yaml:"active"`
	Cooldown     float64      `yaml:"cooldown"`
	HealInterval float64      `yaml:"heal_interval"`
	HealMin      int          `yaml:"heal_min"`
	HealMax      int          `yaml:"heal_max"`
	StrikeRadius float64      `yaml:"strike_radius"`
	StrikeDamage float64      `yaml:"strike_damage"`
	Bands        []DamageBand `yaml:"bands"` // Ascending radius
}

// RepairTuning configures the repair ability
type RepairTuning struct {
	Hold         float64   `yaml:"hold"`
	Active       float64   `yaml:"active"`
	Cooldown     float64   `yaml:"cooldown"`
	Kits         int       `yaml:"kits"` // -1 is unlimited
	HealRamp     float64   `yaml:"heal_ramp"`
	Invulnerable float64   `yaml:"invulnerable"`
	StageLength  float64   `yaml:"stage_length"`
	Stages       []float64 `yaml:"stages"` // Damage scale per stage
}

// SwarmTuning configures the swarm ability and its units
type SwarmTuning struct {
	Units          int     `yaml:"units"`
	Interval       float64 `yaml:"interval"` // Minimum time between launches
	EnergyCost     float64 `yaml:"energy_cost"`
	TargetRange    float64 `yaml:"target_range"`
	FirstHit       float64 `yaml:"first_hit"`
	HitInterval    float64 `yaml:"hit_interval"`
	MaxHits        int     `yaml:"max_hits"`
	HitDamage      float64 `yaml:"hit_damage"`
	Lifetime       float64 `yaml:"lifetime"`
	OutDuration    float64 `yaml:"out_duration"`
	ReturnDuration float64 `yaml:"return_duration"`
	Reach          float64 `yaml:"reach"`
}

// =============================================================================
// ENEMIES
// =============================================================================

// EnemyTuning configures enemy stats, behavior and population
type EnemyTuning struct {
	Radius         float64 `yaml:"radius"`
	AP             float64 `yaml:"ap"`
	PA             float64 `yaml:"pa"`
	MoveSpeed      float64 `yaml:"move_speed"`
	EngageRange    float64 `yaml:"engage_range"`
	StandOff       float64 `yaml:"stand_off"`
	RoomMargin     float64 `yaml:"room_margin"` // Added to Radius for interior confinement
	RetargetMin    float64 `yaml:"retarget_min"`
	RetargetJitter float64 `yaml:"retarget_jitter"`

	InitialMin    int     `yaml:"initial_min"`
	InitialJitter int     `yaml:"initial_jitter"`
	RoomCap       int     `yaml:"room_cap"`
	SpawnMin      float64 `yaml:"spawn_min"`
	SpawnJitter   float64 `yaml:"spawn_jitter"`
	SpawnAttempts int     `yaml:"spawn_attempts"`

	BallInterval  float64 `yaml:"ball_interval"`
	BallJitter    float64 `yaml:"ball_jitter"`
	BallRange     float64 `yaml:"ball_range"`
	BallSpeed     float64 `yaml:"ball_speed"`
	BallLife      float64 `yaml:"ball_life"`
	BallRadius    float64 `yaml:"ball_radius"`
	BallMaxDamage float64 `yaml:"ball_max_damage"`
	BallMinDamage float64 `yaml:"ball_min_damage"`
	BallLeash     float64 `yaml:"ball_leash"`
	BallLead      float64 `yaml:"ball_lead"` // Spawn offset beyond Radius

	BeamInterval  float64 `yaml:"beam_interval"`
	BeamJitter    float64 `yaml:"beam_jitter"`
	BeamTelegraph float64 `yaml:"beam_telegraph"`
	BeamBlendSpan float64 `yaml:"beam_blend_span"`
	BeamDamage    float64 `yaml:"beam_damage"`
	BeamVisual    float64 `yaml:"beam_visual"`
}

// =============================================================================
// WEAPONS & EFFECTS
// =============================================================================

// GunTuning configures the twin guns and their pellets
type GunTuning struct {
	FireInterval   float64 `yaml:"fire_interval"`
	Pellets        int     `yaml:"pellets"`
	Spread         float64 `yaml:"spread"` // Full cone width, radians
	Speed          float64 `yaml:"speed"`
	Life           float64 `yaml:"life"`
	Range          float64 `yaml:"range"`
	Damage         float64 `yaml:"damage"`
	AreaRadius     float64 `yaml:"area_radius"`
	AreaDPS        float64 `yaml:"area_dps"`
	AreaLife       float64 `yaml:"area_life"`
	HitRadiusLeft  float64 `yaml:"hit_radius_left"`
	HitRadiusRight float64 `yaml:"hit_radius_right"`
	Magazine       int     `yaml:"magazine"`
	Reload         float64 `yaml:"reload"`
	Offset         float64 `yaml:"offset"` // Lateral muzzle offset from the eye
}

// TextTuning configures floating combat texts
type TextTuning struct {
	Life float64 `yaml:"life"`
	Rise float64 `yaml:"rise"`
}

// DefaultTuning returns the stock gameplay values
func DefaultTuning() Tuning {
	return Tuning{
		Seed:     1,
		MaxDelta: 0.033,
		Geometry: GeometryTuning{
			RoomCells:      11,
			CellSize:       10,
			RoomHeight:     30,
			BodySize:       1,
			WorldRooms:     1.5,
			MazeObstacles:  false,
			ObstacleHeight: 30,
		},
		Movement: MovementTuning{
			MoveSpeed:          10.5,
			SprintMult:         1.5,
			ExpansionSpeedMult: 2,
			LockSpeedMult:      0.5,
			CriticalSpeedMult:  0.5,
			Gravity:            25,
			JumpHeight:         0.5,
			JumpCost:           4,
			FlyAccel:           20,
			HoverDrain:         0.4,
			FlyDrain:           10,
			SprintDrain:        8,
			DashDistance:       10.5,
			DashExpansionMult:  3,
			DashCooldown:       0.2,
			DashCost:           8,
			LookSensitivity:    0.002,
			PitchLimit:         math.Pi/2 - 0.05,
			EyeHeight:          0.3,
		},
		Resources: ResourceTuning{
			StaminaMax:       100,
			EnergyMax:        100,
			StaminaRegen:     25.6,
			LockoutRegen:     40,
			EnergyRegen:      25.6,
			StaminaLockout:   10,
			APMax:            99999,
			PAMax:            9999,
			PARegen:          33,
			PACooldown:       50,
			CriticalDuration: 10,
		},
		Expansion: ExpansionTuning{
			Hold:         1,
			Active:       30,
			Cooldown:     20,
			HealInterval: 0.2,
			HealMin:      1,
			HealMax:      10,
			StrikeRadius: 10,
			StrikeDamage: 10000,
			Bands: []DamageBand{
				{Radius: 2, DPS: 1000},
				{Radius: 4, DPS: 500},
				{Radius: 6, DPS: 250},
				{Radius: 8, DPS: 125},
			},
		},
		Repair: RepairTuning{
			Hold:         1,
			Active:       6,
			Cooldown:     4,
			Kits:         -1,
			HealRamp:     1,
			Invulnerable: 1.5,
			StageLength:  1.5,
			Stages:       []float64{0, 0.25, 0.5, 0.75},
		},
		Swarm: SwarmTuning{
			Units:          72,
			Interval:       0.2,
			EnergyCost:     1,
			TargetRange:    10,
			FirstHit:       1,
			HitInterval:    1,
			MaxHits:        3,
			HitDamage:      500,
			Lifetime:       3,
			OutDuration:    0.9,
			ReturnDuration: 0.6,
			Reach:          1.6,
		},
		Enemies: EnemyTuning{
			Radius:         0.5,
			AP:             5000,
			PA:             1000,
			MoveSpeed:      3,
			EngageRange:    7.5,
			StandOff:       2,
			RoomMargin:     0.4,
			RetargetMin:    0.3,
			RetargetJitter: 0.4,
			InitialMin:     10,
			InitialJitter:  21,
			RoomCap:        30,
			SpawnMin:       10,
			SpawnJitter:    10,
			SpawnAttempts:  16,
			BallInterval:   5,
			BallJitter:     2,
			BallRange:      10,
			BallSpeed:      6,
			BallLife:       5,
			BallRadius:     0.12,
			BallMaxDamage:  1000,
			BallMinDamage:  500,
			BallLeash:      12,
			BallLead:       0.2,
			BeamInterval:   50,
			BeamJitter:     5,
			BeamTelegraph:  10,
			BeamBlendSpan:  0.8,
			BeamDamage:     7500,
			BeamVisual:     0.3,
		},
		Guns: GunTuning{
			FireInterval:   0.1,
			Pellets:        13,
			Spread:         0.08,
			Speed:          80,
			Life:           125,
			Range:          10000,
			Damage:         1000,
			AreaRadius:     2,
			AreaDPS:        500,
			AreaLife:       3,
			HitRadiusLeft:  0.2,
			HitRadiusRight: 0.384,
			Magazine:       1000,
			Reload:         0.1,
			Offset:         0.34,
		},
		Limits: DefaultLimits,
		Rooms:  DefaultRooms(),
		Texts: TextTuning{
			Life: 0.8,
			Rise: 0.8,
		},
	}
}

// DefaultRooms returns the plus-shaped layout: a hub at the origin and four
// enemy rooms one room length away on each axis.
func DefaultRooms() []RoomSpec {
	const offset = 110
	return []RoomSpec{
		{X: 0, Z: 0, N: true, S: true, E: true, W: true, Color: 0x1f2937, Seed: 1337},
		{X: 0, Z: -offset, S: true, Color: 0x22c55e, Seed: 2024, Spawns: true},
		{X: 0, Z: offset, N: true, Color: 0x3b82f6, Seed: 4242, Spawns: true},
		{X: offset, Z: 0, W: true, Color: 0xef4444, Seed: 9001, Spawns: true},
		{X: -offset, Z: 0, E: true, Color: 0xeab308, Seed: 7777, Spawns: true},
	}
}

// Validate rejects values the simulation cannot run with
func (t Tuning) Validate() error {
	switch {
	case t.MaxDelta <= 0:
		return fmt.Errorf("%w: max_delta must be positive", ErrInvalidTuning)
	case t.Geometry.RoomCells < 3 || t.Geometry.CellSize <= 0:
		return fmt.Errorf("%w: room needs at least 3 cells of positive size", ErrInvalidTuning)
	case t.Geometry.BodySize <= 0 || t.Geometry.RoomHeight <= t.Geometry.BodySize:
		return fmt.Errorf("%w: body %.2f does not fit room height %.2f",
			ErrInvalidTuning, t.Geometry.BodySize, t.Geometry.RoomHeight)
	case len(t.Rooms) == 0:
		return fmt.Errorf("%w: no rooms", ErrInvalidTuning)
	case t.Resources.StaminaMax <= 0 || t.Resources.EnergyMax <= 0:
		return fmt.Errorf("%w: stamina and energy pools must be positive", ErrInvalidTuning)
	case t.Resources.APMax < 1 || t.Resources.PAMax < 0:
		return fmt.Errorf("%w: ap_max must be at least 1", ErrInvalidTuning)
	case t.Expansion.HealMax < t.Expansion.HealMin:
		return fmt.Errorf("%w: expansion heal_max below heal_min", ErrInvalidTuning)
	case t.Expansion.HealInterval <= 0:
		return fmt.Errorf("%w: expansion heal_interval must be positive", ErrInvalidTuning)
	case t.Repair.StageLength <= 0 || len(t.Repair.Stages) == 0:
		return fmt.Errorf("%w: repair needs at least one damage stage", ErrInvalidTuning)
	case t.Swarm.Units <= 0 || t.Swarm.HitInterval <= 0:
		return fmt.Errorf("%w: swarm needs units and a positive hit interval", ErrInvalidTuning)
	case t.Enemies.RoomCap < 0 || t.Enemies.InitialMin < 0 || t.Enemies.InitialJitter < 0:
		return fmt.Errorf("%w: negative enemy population", ErrInvalidTuning)
	case t.Enemies.BeamBlendSpan <= 0 || t.Enemies.BeamTelegraph <= 0:
		return fmt.Errorf("%w: beam telegraph must be positive", ErrInvalidTuning)
	case t.Guns.Magazine <= 0 || t.Guns.FireInterval <= 0:
		return fmt.Errorf("%w: guns need a magazine and a fire interval", ErrInvalidTuning)
	case t.Limits.MaxProjectiles <= 0 || t.Limits.MaxAreaEffects <= 0:
		return fmt.Errorf("%w: projectile and area effect caps must be positive", ErrInvalidTuning)
	}

	for i := 1; i < len(t.Expansion.Bands); i++ {
		if t.Expansion.Bands[i].Radius < t.Expansion.Bands[i-1].Radius {
			return fmt.Errorf("%w: expansion bands must be sorted by radius", ErrInvalidTuning)
		}
	}
	return nil
}
