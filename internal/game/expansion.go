package game

import "math"

// Expansion is the long hold ability: while active the player is immune,
// faster, free of stamina costs, heals in small random ticks and burns
// nearby enemies by distance band.
type Expansion struct {
	Ability
	NextHeal float64
	Healed   float64
}

func newExpansion(et *ExpansionTuning) Expansion {
	return Expansion{Ability: NewAbility("expansion", et.Hold, et.Active, et.Cooldown)}
}

// stepExpansion drives the machine and applies its active-window effects
func (w *World) stepExpansion(in *InputFrame, dt float64) {
	et := &w.tuning.Expansion
	x := &w.expansion
	p := w.player
	now := w.clock.Now()

	if x.Update(in.Down(KeyExpansion), now, nil) {
		p.ExpansionUntil = x.PhaseStart + x.ActiveDuration
		p.EnergyLock = false
		x.NextHeal = now + et.HealInterval
		w.expansionStrike()
		w.abilityActivated(&x.Ability)
	}

	if !p.Expanded(now) {
		return
	}

	if now >= x.NextHeal {
		roll := et.HealMin + w.rng.Intn(et.HealMax-et.HealMin+1)
		x.Healed += p.Heal(float64(roll))
		x.NextHeal = now + et.HealInterval
	}

	for _, e := range w.enemies {
		if e.Dead {
			continue
		}
		if dps := bandDPS(et.Bands, e.Pos.Dist(p.Pos)); dps > 0 {
			w.damageEnemy(e, dps*dt)
		}
	}
}

// expansionStrike is the one-shot blow on activation
func (w *World) expansionStrike() {
	et := &w.tuning.Expansion
	p := w.player
	r2 := et.StrikeRadius * et.StrikeRadius
	for _, e := range w.enemies {
		if e.Dead || e.Pos.DistSq(p.Pos) > r2 {
			continue
		}
		toPA, toAP, killed := e.Strike(et.StrikeDamage)
		w.reportEnemyDamage(e, toPA, toAP, killed)
	}
}

// bandDPS returns the damage rate of the innermost band containing dist
func bandDPS(bands []DamageBand, dist float64) float64 {
	for _, b := range bands {
		if dist < b.Radius {
			return b.DPS
		}
	}
	return 0
}

// expansionRemaining returns seconds left in the active window
func (w *World) expansionRemaining() float64 {
	return math.Max(0, w.player.ExpansionUntil-w.clock.Now())
}
