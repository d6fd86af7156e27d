package game

import "math"

// AbilityPhase is the state of a hold-to-activate ability
type AbilityPhase uint8

const (
	PhaseIdle AbilityPhase = iota
	PhaseCharging
	PhaseActive
	PhaseCooldown
)

// String returns the wire name of the phase
func (p AbilityPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCharging:
		return "charging"
	case PhaseActive:
		return "active"
	case PhaseCooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Ability is the shared four-phase machine:
//
//	Idle -> Charging      input pressed while idle
//	Charging -> Idle      input released before HoldThreshold
//	Charging -> Active    held for HoldThreshold and the guard allows it
//	Active -> Cooldown    after ActiveDuration
//	Cooldown -> Idle      after CooldownDuration
//
// Active and Cooldown are anchored to the activation time so ticks landing
// late do not stretch the cycle. Input during Active or Cooldown is ignored;
// a key still held when Idle is re-entered starts charging from that tick.
type Ability struct {
	Name             string
	Phase            AbilityPhase
	PhaseStart       float64
	HoldStart        float64
	HoldThreshold    float64
	ActiveDuration   float64
	CooldownDuration float64
	Activations      int
}

// NewAbility creates an idle machine
func NewAbility(name string, hold, active, cooldown float64) Ability {
	return Ability{
		Name:             name,
		HoldThreshold:    hold,
		ActiveDuration:   active,
		CooldownDuration: cooldown,
	}
}

// maxTransitions bounds how many phases one Update may walk through. A zero
// length ability can go Idle -> Charging -> Active -> Cooldown in one tick.
const maxTransitions = 4

// Update advances the machine to now given whether the activation input is
// held. guard may veto activation (nil allows it). Returns true on the tick
// the machine enters Active.
func (a *Ability) Update(held bool, now float64, guard func() bool) bool {
	activated := false
	for i := 0; i < maxTransitions; i++ {
		if !a.step(held, now, guard, &activated) {
			break
		}
	}
	return activated
}

// step performs at most one transition and reports whether it did
func (a *Ability) step(held bool, now float64, guard func() bool, activated *bool) bool {
	switch a.Phase {
	case PhaseIdle:
		if !held {
			return false
		}
		a.Phase = PhaseCharging
		a.PhaseStart = now
		a.HoldStart = now
		return true

	case PhaseCharging:
		if !held {
			a.Phase = PhaseIdle
			a.PhaseStart = now
			return true
		}
		if now-a.HoldStart < a.HoldThreshold {
			return false
		}
		if guard != nil && !guard() {
			return false
		}
		a.Phase = PhaseActive
		a.PhaseStart = now
		a.Activations++
		*activated = true
		return true

	case PhaseActive:
		end := a.PhaseStart + a.ActiveDuration
		if now < end {
			return false
		}
		a.Phase = PhaseCooldown
		a.PhaseStart = end
		return true

	case PhaseCooldown:
		end := a.PhaseStart + a.CooldownDuration
		if now < end {
			return false
		}
		a.Phase = PhaseIdle
		a.PhaseStart = end
		return true
	}
	return false
}

// IsActive reports whether the ability is in its active window
func (a *Ability) IsActive() bool {
	return a.Phase == PhaseActive
}

// ActivatedAt returns when the current Active or Cooldown cycle began
func (a *Ability) ActivatedAt() float64 {
	switch a.Phase {
	case PhaseActive:
		return a.PhaseStart
	case PhaseCooldown:
		return a.PhaseStart - a.ActiveDuration
	}
	return 0
}

// CooldownRatio returns the remaining fraction of active+cooldown, 1 right
// after activation and 0 when ready.
func (a *Ability) CooldownRatio(now float64) float64 {
	if a.Phase != PhaseActive && a.Phase != PhaseCooldown {
		return 0
	}
	total := a.ActiveDuration + a.CooldownDuration
	if total <= 0 {
		return 0
	}
	remaining := a.ActivatedAt() + total - now
	return math.Max(0, math.Min(1, remaining/total))
}

// ChargeRatio returns how far the current hold has progressed
func (a *Ability) ChargeRatio(now float64) float64 {
	if a.Phase != PhaseCharging {
		return 0
	}
	if a.HoldThreshold <= 0 {
		return 1
	}
	return math.Max(0, math.Min(1, (now-a.HoldStart)/a.HoldThreshold))
}
