package game

import (
	"math"
)

// Faction selects what a projectile can hit
type Faction uint8

const (
	FactionPlayer Faction = iota // Hits enemies
	FactionEnemy                 // Hits the player
)

// Projectile is a moving damage carrier. Player pellets travel fast and burst
// into an area effect; enemy balls are slow and hit only the player.
type Projectile struct {
	Seq     uint64 // Insertion order, oldest is evicted first
	Faction Faction
	Source  string // Enemy ID or gun side, for events

	Pos, Vel Vec3
	Life     float64 // Seconds left
	Range    float64 // Max travel, 0 for unlimited
	Travel   float64

	Damage     float64
	HitRadius  float64
	AreaRadius float64
	AreaDPS    float64
	AreaLife   float64
	Color      uint32
}

// ProjectilePool owns live projectiles and recycles dead ones through a free
// list. Spawn enforces the hard cap by evicting the oldest live projectile.
type ProjectilePool struct {
	live    []*Projectile
	free    []*Projectile
	max     int
	seq     uint64
	evicted uint64
}

// NewProjectilePool creates a pool capped at max live projectiles
func NewProjectilePool(max int) *ProjectilePool {
	pp := &ProjectilePool{
		live: make([]*Projectile, 0, max),
		free: make([]*Projectile, 0, max),
		max:  max,
	}
	return pp
}

// Spawn returns a zeroed projectile already counted as live. The caller
// fills it in.
func (pp *ProjectilePool) Spawn() *Projectile {
	if len(pp.live) >= pp.max {
		oldest := pp.live[0]
		copy(pp.live, pp.live[1:])
		pp.live = pp.live[:len(pp.live)-1]
		pp.release(oldest)
		pp.evicted++
	}

	var pr *Projectile
	if n := len(pp.free); n > 0 {
		pr = pp.free[n-1]
		pp.free = pp.free[:n-1]
	} else {
		pr = &Projectile{}
	}
	pp.seq++
	pr.Seq = pp.seq
	pp.live = append(pp.live, pr)
	return pr
}

func (pp *ProjectilePool) release(pr *Projectile) {
	*pr = Projectile{}
	pp.free = append(pp.free, pr)
}

// Filter keeps the projectiles for which keep returns true, in order, and
// recycles the rest.
func (pp *ProjectilePool) Filter(keep func(pr *Projectile) bool) {
	n := 0
	for _, pr := range pp.live {
		if keep(pr) {
			pp.live[n] = pr
			n++
		} else {
			pp.release(pr)
		}
	}
	for i := n; i < len(pp.live); i++ {
		pp.live[i] = nil
	}
	pp.live = pp.live[:n]
}

// Live returns the live projectiles, oldest first. Read-only.
func (pp *ProjectilePool) Live() []*Projectile {
	return pp.live
}

// Len returns the live count
func (pp *ProjectilePool) Len() int {
	return len(pp.live)
}

// Evicted returns how many projectiles the cap has pushed out
func (pp *ProjectilePool) Evicted() uint64 {
	return pp.evicted
}

// stepProjectiles integrates and resolves every live projectile
func (w *World) stepProjectiles(dt float64) {
	w.indexEnemies()
	w.projectiles.Filter(func(pr *Projectile) bool {
		return w.updateProjectile(pr, dt)
	})
}

// indexEnemies rebuilds the neighbor grid from live enemies
func (w *World) indexEnemies() {
	w.enemyGrid.Clear()
	for i, e := range w.enemies {
		if !e.Dead {
			w.enemyGrid.Insert(uint32(i), e.Pos.X, e.Pos.Z)
		}
	}
}

// updateProjectile advances one projectile. Returns false once it is spent.
func (w *World) updateProjectile(pr *Projectile, dt float64) bool {
	from := pr.Pos
	step := pr.Vel.Scale(dt)
	pr.Pos = pr.Pos.Add(step)
	pr.Life -= dt
	pr.Travel += step.Len()

	// Geometry: out of every room or inside an obstacle
	if w.rooms.PointBlocked(pr.Pos) {
		w.projectileImpact(pr, pr.Pos)
		return false
	}

	switch pr.Faction {
	case FactionPlayer:
		if e := w.sweepEnemies(from, pr.Pos, pr.HitRadius); e != nil {
			w.damageEnemy(e, pr.Damage)
			w.projectileImpact(pr, pr.Pos)
			return false
		}
	case FactionEnemy:
		reach := w.tuning.Geometry.BodyHalf() + pr.HitRadius
		if segmentPointDistSq(from, pr.Pos, w.player.Pos) <= reach*reach {
			w.damagePlayer(pr.Damage, DamageStandard, pr.Source)
			return false
		}
		if pr.Pos.Dist(w.player.Pos) > w.tuning.Enemies.BallLeash {
			return false
		}
	}

	if pr.Life <= 0 {
		return false
	}
	if pr.Range > 0 && pr.Travel >= pr.Range {
		return false
	}
	return true
}

// sweepEnemies returns the first live enemy, in list order, whose sphere the
// segment from->to passes within hitRadius of.
func (w *World) sweepEnemies(from, to Vec3, hitRadius float64) *Enemy {
	reach := w.tuning.Enemies.Radius + hitRadius
	mid := from.Lerp(to, 0.5)
	query := reach + from.Dist(to)/2

	var hit *Enemy
	hitIdx := uint32(math.MaxUint32)
	for _, idx := range w.enemyGrid.QueryRadius(mid.X, mid.Z, query) {
		e := w.enemies[idx]
		if e.Dead || idx >= hitIdx {
			continue
		}
		if segmentPointDistSq(from, to, e.Pos) <= reach*reach {
			hit, hitIdx = e, idx
		}
	}
	return hit
}

// projectileImpact spawns the burst area effect if the projectile has one
func (w *World) projectileImpact(pr *Projectile, at Vec3) {
	if pr.AreaRadius <= 0 || pr.AreaDPS <= 0 {
		return
	}
	w.addAreaEffect(at, pr.AreaRadius, pr.AreaDPS, pr.AreaLife, pr.Color)
}

// segmentPointDistSq returns the squared distance from p to segment ab
func segmentPointDistSq(a, b, p Vec3) float64 {
	ab := b.Sub(a)
	l := ab.LenSq()
	if l == 0 {
		return p.DistSq(a)
	}
	t := (p.Sub(a).X*ab.X + p.Sub(a).Y*ab.Y + p.Sub(a).Z*ab.Z) / l
	t = math.Max(0, math.Min(1, t))
	return p.DistSq(a.AddScaled(ab, t))
}
