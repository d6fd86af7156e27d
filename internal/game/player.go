package game

import (
	"math"

	"maze-arena/internal/game/spatial"
)

// Vec3 is the world vector type
type Vec3 = spatial.Vec3

// MotionState is the locomotion state reported to clients
type MotionState uint8

const (
	MotionGrounded MotionState = iota
	MotionAirborne
	MotionFlying
	MotionDashing
)

// String returns the wire name of the state
func (m MotionState) String() string {
	switch m {
	case MotionGrounded:
		return "grounded"
	case MotionAirborne:
		return "airborne"
	case MotionFlying:
		return "flying"
	case MotionDashing:
		return "dashing"
	default:
		return "unknown"
	}
}

// dashKeys are the direction keys that can trigger a dash, in DashReadyAt order
var dashKeys = [4]Key{KeyForward, KeyBack, KeyLeft, KeyRight}

// Player is the single controllable body. All scheduled times are on the
// world's SimClock.
type Player struct {
	Pos      Vec3
	Vel      Vec3
	Grounded bool
	Yaw      float64
	Pitch    float64
	Motion   MotionState

	// Stamina/energy economy
	Stamina            float64
	Energy             float64
	StaminaLockout     bool
	StaminaCooldownEnd float64
	EnergyLock         bool

	// Armor points and shield
	AP            float64
	PA            float64
	PACooldown    bool
	PACooldownEnd float64

	// Protection windows
	ExpansionUntil float64 // Immune, faster and free of stamina costs before this
	InvulnUntil    float64
	CriticalUntil  float64
	RecoverStart   float64 // Repair damage scale staging
	RecoverUntil   float64
	DamageScale    float64

	DashReadyAt [len(dashKeys)]float64

	Resets int

	res    ResourceTuning
	origin Vec3
}

// NewPlayer creates a player at the origin with full pools
func NewPlayer(t *Tuning) *Player {
	origin := Vec3{X: 0, Y: t.Geometry.FloorY(), Z: 0}
	return &Player{
		Pos:         origin,
		Grounded:    true,
		Stamina:     t.Resources.StaminaMax,
		Energy:      t.Resources.EnergyMax,
		AP:          t.Resources.APMax,
		PA:          t.Resources.PAMax,
		DamageScale: 1,
		res:         t.Resources,
		origin:      origin,
	}
}

// Expanded reports whether the expansion window is open
func (p *Player) Expanded(now float64) bool {
	return now < p.ExpansionUntil
}

// Invulnerable reports whether the repair invulnerability window is open
func (p *Player) Invulnerable(now float64) bool {
	return now < p.InvulnUntil
}

// Critical reports whether the post-reset slow window is open
func (p *Player) Critical(now float64) bool {
	return now < p.CriticalUntil
}

// Forward returns the horizontal facing direction
func (p *Player) Forward() Vec3 {
	return Vec3{X: -math.Sin(p.Yaw), Z: -math.Cos(p.Yaw)}
}

// Right returns the horizontal strafe direction
func (p *Player) Right() Vec3 {
	return Vec3{X: math.Sin(p.Yaw + math.Pi/2), Z: math.Cos(p.Yaw + math.Pi/2)}
}

// Look returns the unit view direction including pitch
func (p *Player) Look() Vec3 {
	cp := math.Cos(p.Pitch)
	return Vec3{
		X: -math.Sin(p.Yaw) * cp,
		Y: math.Sin(p.Pitch),
		Z: -math.Cos(p.Yaw) * cp,
	}
}

// APPercent returns AP as a 0-100 percentage
func (p *Player) APPercent() float64 {
	return percent(p.AP, p.res.APMax)
}

// PAPercent returns PA as a 0-100 percentage
func (p *Player) PAPercent() float64 {
	return percent(p.PA, p.res.PAMax)
}

func percent(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Max(0, math.Min(100, v/max*100))
}

// resetToOrigin is the AP floor response: back to spawn, stopped, slowed.
func (p *Player) resetToOrigin(now float64) {
	p.Pos = p.origin
	p.Vel = Vec3{}
	p.Grounded = true
	p.CriticalUntil = now + p.res.CriticalDuration
	p.Resets++
}
