package game

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Repair refills the shield, grants a short invulnerability, ramps an AP heal
// in and stages incoming damage back up over the active window.
type Repair struct {
	Ability
	Kits        int // -1 is unlimited
	HealStart   float64
	HealAmount  float64
	HealApplied float64
	ramp        *gween.Tween
}

func newRepair(rt *RepairTuning) Repair {
	return Repair{
		Ability: NewAbility("repair", rt.Hold, rt.Active, rt.Cooldown),
		Kits:    rt.Kits,
	}
}

// stepRepair drives the machine, the heal ramp and the damage scale stages
func (w *World) stepRepair(in *InputFrame) {
	rt := &w.tuning.Repair
	r := &w.repair
	p := w.player
	now := w.clock.Now()

	guard := func() bool { return r.Kits != 0 }
	if r.Update(in.Down(KeyRepair), now, guard) {
		if r.Kits > 0 {
			r.Kits--
		}
		p.PA = w.tuning.Resources.PAMax
		p.PACooldown = false
		p.PACooldownEnd = 0
		p.InvulnUntil = now + rt.Invulnerable
		p.RecoverStart = now
		p.RecoverUntil = now + r.ActiveDuration

		r.HealStart = now
		r.HealAmount = math.Floor(w.tuning.Resources.APMax/4 + p.AP/3)
		r.HealApplied = 0
		r.ramp = gween.New(0, float32(r.HealAmount), float32(rt.HealRamp), ease.Linear)
		w.abilityActivated(&r.Ability)
	}

	w.advanceHealRamp(now)
	p.DamageScale = w.damageScale(now)
}

// advanceHealRamp applies whatever part of the heal the ramp has reached
func (w *World) advanceHealRamp(now float64) {
	r := &w.repair
	if r.ramp == nil || r.HealApplied >= r.HealAmount {
		return
	}
	v, done := r.ramp.Set(float32(now - r.HealStart))
	target := math.Floor(float64(v))
	if done {
		target = r.HealAmount
	}
	if target > r.HealApplied {
		w.player.Heal(target - r.HealApplied)
		r.HealApplied = target
	}
	if done {
		r.ramp = nil
	}
}

// damageScale returns the incoming damage multiplier for the current repair
// stage, 1 outside the window.
func (w *World) damageScale(now float64) float64 {
	rt := &w.tuning.Repair
	p := w.player
	if now < p.RecoverStart || now >= p.RecoverUntil {
		return 1
	}
	stage := int((now - p.RecoverStart) / rt.StageLength)
	if stage >= len(rt.Stages) {
		stage = len(rt.Stages) - 1
	}
	return rt.Stages[stage]
}
