package game

import "math"

// DamageKind selects how a hit interacts with the shield
type DamageKind uint8

const (
	// DamageStandard is absorbed by PA before reaching AP
	DamageStandard DamageKind = iota
	// DamageUnblockable skips PA and goes straight to AP
	DamageUnblockable
)

// String returns the metric label for the kind
func (k DamageKind) String() string {
	if k == DamageUnblockable {
		return "unblockable"
	}
	return "standard"
}

// DamageResult describes what a hit did to the player
type DamageResult struct {
	Applied bool    // False when an immunity window swallowed the hit
	ToPA    float64 // Absorbed by the shield
	ToAP    float64 // Taken by armor
	Reset   bool    // AP hit the floor and the player was sent home
}

// CanAfford reports whether the active pool covers amount. During lockout
// that is energy, otherwise stamina.
func (p *Player) CanAfford(amount float64) bool {
	if p.StaminaLockout {
		return p.Energy >= amount
	}
	return p.Stamina >= amount
}

// EnergyAvailable reports whether the active pool is above zero
func (p *Player) EnergyAvailable() bool {
	if p.StaminaLockout {
		return p.Energy > 0
	}
	return p.Stamina > 0
}

// Consume spends amount from the active pool. Free while expanded. Draining
// stamina to zero starts the lockout; during lockout energy pays instead.
func (p *Player) Consume(amount, now float64) {
	if amount <= 0 || p.Expanded(now) {
		return
	}
	if p.StaminaLockout {
		p.Energy = math.Max(0, p.Energy-amount)
		return
	}
	p.Stamina = math.Max(0, p.Stamina-amount)
	if p.Stamina <= 0 {
		p.Stamina = 0
		p.StaminaLockout = true
		p.StaminaCooldownEnd = now + p.res.StaminaLockout
	}
}

// UpdateStamina runs the per-tick drain/regeneration of stamina and energy
// for the held inputs.
func (p *Player) UpdateStamina(in *InputFrame, mt *MovementTuning, now, dt float64) {
	sprint := in.Down(KeySprint)
	flying := sprint && in.Down(KeyForward) && !in.dashChord()
	available := p.EnergyAvailable()

	switch {
	case flying && available:
		p.Consume(mt.FlyDrain*dt, now)
	case sprint && !p.Grounded && !flying:
		if available {
			p.Consume(mt.HoverDrain*dt, now)
		}
	case p.StaminaLockout:
		p.Stamina = math.Min(p.res.StaminaMax, p.Stamina+p.res.LockoutRegen*dt)
		if p.Stamina >= p.res.StaminaMax {
			p.StaminaLockout = false
		}
	case sprint && in.anyMove() && p.Stamina > 0:
		p.Consume(mt.SprintDrain*dt, now)
	default:
		p.Stamina = math.Min(p.res.StaminaMax, p.Stamina+p.res.StaminaRegen*dt)
	}

	p.Energy = math.Min(p.res.EnergyMax, p.Energy+p.res.EnergyRegen*dt)

	if !p.EnergyLock && p.StaminaLockout && p.Energy <= 0 {
		p.EnergyLock = true
	}
	if p.EnergyLock && (p.Stamina >= p.res.StaminaMax || p.Energy >= p.res.EnergyMax) {
		p.EnergyLock = false
	}
	if p.Expanded(now) {
		p.EnergyLock = false
	}
}

// ApplyDamage routes a hit through the immunity windows, the repair damage
// scale, the shield (Standard only) and finally AP. AP never drops below 1;
// reaching the floor resets the player to the origin.
func (p *Player) ApplyDamage(amount float64, kind DamageKind, now float64) DamageResult {
	if amount <= 0 || p.Expanded(now) || p.Invulnerable(now) {
		return DamageResult{}
	}
	amount *= p.DamageScale
	if amount <= 0 {
		return DamageResult{Applied: true}
	}

	res := DamageResult{Applied: true}
	if kind == DamageStandard && !p.PACooldown && p.PA > 0 {
		absorbed := math.Min(p.PA, amount)
		p.PA -= absorbed
		amount -= absorbed
		res.ToPA = absorbed
		if p.PA <= 0 {
			p.PA = 0
			p.PACooldown = true
			p.PACooldownEnd = now + p.res.PACooldown
		}
	}

	if amount > 0 {
		before := p.AP
		p.AP = math.Max(1, p.AP-amount)
		res.ToAP = before - p.AP
	}

	// Any landed hit at the floor resets, even one the shield fully absorbed
	if p.AP <= 1 {
		p.resetToOrigin(now)
		res.Reset = true
	}
	return res
}

// RegenerateShield refills PA and manages the shield cooldown window
func (p *Player) RegenerateShield(now, dt float64) {
	if !p.PACooldown && p.PA <= 0 {
		p.PACooldown = true
		p.PACooldownEnd = now + p.res.PACooldown
	}
	p.PA = math.Min(p.res.PAMax, p.PA+p.res.PARegen*dt)
	if p.PACooldown && now >= p.PACooldownEnd && p.PA >= p.res.PAMax {
		p.PACooldown = false
	}
}

// Heal adds AP up to the maximum and returns the amount applied
func (p *Player) Heal(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	before := p.AP
	p.AP = math.Min(p.res.APMax, p.AP+amount)
	return p.AP - before
}
