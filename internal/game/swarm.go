package game

import "math"

// SwarmPhase is the state of one swarm unit
type SwarmPhase uint8

const (
	SwarmIdle SwarmPhase = iota
	SwarmOutbound
	SwarmReturning
)

// String returns the wire name of the phase
func (s SwarmPhase) String() string {
	switch s {
	case SwarmIdle:
		return "idle"
	case SwarmOutbound:
		return "outbound"
	case SwarmReturning:
		return "returning"
	default:
		return "unknown"
	}
}

// SwarmUnit is one drone of the fixed pool. Launched units strike their
// target on a fixed schedule and go idle at the end of their lifetime.
type SwarmUnit struct {
	Slot    int
	Phase   SwarmPhase
	Timer   float64 // Seconds since launch
	NextHit float64 // Timer value of the next strike
	Hits    int
	Dir     Vec3
	Pos     Vec3
	Target  *Enemy
}

// Swarm launches one unit per activation. Hold threshold and active time are
// zero, so the cooldown is the launch cadence while the key is held.
type Swarm struct {
	Ability
	Units []SwarmUnit
}

func newSwarm(st *SwarmTuning) Swarm {
	s := Swarm{
		Ability: NewAbility("swarm", 0, 0, st.Interval),
		Units:   make([]SwarmUnit, st.Units),
	}
	for i := range s.Units {
		s.Units[i].Slot = i
	}
	return s
}

// IdleCount returns how many units are ready to launch
func (s *Swarm) IdleCount() int {
	n := 0
	for i := range s.Units {
		if s.Units[i].Phase == SwarmIdle {
			n++
		}
	}
	return n
}

// idleUnit returns the first idle unit or nil
func (s *Swarm) idleUnit() *SwarmUnit {
	for i := range s.Units {
		if s.Units[i].Phase == SwarmIdle {
			return &s.Units[i]
		}
	}
	return nil
}

// stepSwarm drives the launch machine and every launched unit
func (w *World) stepSwarm(in *InputFrame, dt float64) {
	st := &w.tuning.Swarm
	s := &w.swarm
	p := w.player
	now := w.clock.Now()

	guard := func() bool {
		return p.Energy > 0 && !p.EnergyLock && s.idleUnit() != nil
	}
	if s.Update(in.Down(KeySwarm), now, guard) {
		p.Energy = math.Max(0, p.Energy-st.EnergyCost)
		u := s.idleUnit()
		u.Phase = SwarmOutbound
		u.Timer = 0
		u.NextHit = st.FirstHit
		u.Hits = 0
		u.Dir = p.Look()
		u.Target = w.FindSwarmTarget(p.Pos, st.TargetRange)
		u.Pos = w.swarmAnchor(u.Slot)
		w.stats.SwarmLaunched++
	}

	for i := range s.Units {
		if s.Units[i].Phase != SwarmIdle {
			w.updateSwarmUnit(&s.Units[i], dt)
		}
	}
}

// updateSwarmUnit advances one launched unit
func (w *World) updateSwarmUnit(u *SwarmUnit, dt float64) {
	st := &w.tuning.Swarm
	u.Timer += dt

	// Flight path: out to Reach, then back to the formation slot
	var reach float64
	if u.Timer < st.OutDuration {
		u.Phase = SwarmOutbound
		reach = st.Reach * u.Timer / st.OutDuration
	} else {
		u.Phase = SwarmReturning
		back := (u.Timer - st.OutDuration) / st.ReturnDuration
		reach = st.Reach * math.Max(0, 1-back)
	}
	u.Pos = w.swarmAnchor(u.Slot).AddScaled(u.Dir, reach)

	if u.Hits < st.MaxHits && u.Timer >= u.NextHit {
		if u.Target == nil || u.Target.Dead {
			u.Target = w.FindSwarmTarget(u.Pos, st.TargetRange)
		}
		if u.Target != nil {
			w.damageEnemy(u.Target, st.HitDamage)
		}
		u.Hits++
		u.NextHit += st.HitInterval
	}

	if u.Timer >= st.Lifetime {
		u.Phase = SwarmIdle
		u.Timer = 0
		u.Target = nil
		u.Pos = Vec3{}
	}
}

// swarmAnchor returns the formation slot position: two wings of six rows
// behind the shoulders.
func (w *World) swarmAnchor(slot int) Vec3 {
	p := w.player
	side := -1.0
	if slot%2 == 1 {
		side = 1
	}
	row := float64((slot / 2) % 6)
	col := float64(slot / 12)

	pos := w.eyePosition()
	pos = pos.AddScaled(p.Right(), side*(0.6+0.15*col))
	pos = pos.AddScaled(p.Forward(), -0.3)
	pos.Y += -0.3 + 0.12*row
	return pos
}
