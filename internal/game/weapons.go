package game

import "math"

// GunSide identifies one of the twin guns
type GunSide uint8

const (
	GunLeft GunSide = iota
	GunRight
)

// String returns the wire name of the side
func (s GunSide) String() string {
	if s == GunRight {
		return "right"
	}
	return "left"
}

// Gun is one magazine-fed pellet gun
type Gun struct {
	Side      GunSide
	Ammo      int
	Reloading bool
	ReloadEnd float64
}

// Guns is the twin gun pair sharing one fire cadence
type Guns struct {
	Left, Right Gun
	NextFire    float64
}

// NewGuns creates loaded guns
func NewGuns(gt *GunTuning) Guns {
	return Guns{
		Left:  Gun{Side: GunLeft, Ammo: gt.Magazine},
		Right: Gun{Side: GunRight, Ammo: gt.Magazine},
	}
}

// gun returns the gun for a side
func (g *Guns) gun(side GunSide) *Gun {
	if side == GunRight {
		return &g.Right
	}
	return &g.Left
}

// stepWeapons fires whichever guns are held, at most once per FireInterval
func (w *World) stepWeapons(in *InputFrame) {
	gt := &w.tuning.Guns
	now := w.clock.Now()

	left, right := in.Down(ButtonLeft), in.Down(ButtonRight)
	if !left && !right {
		return
	}
	if now < w.guns.NextFire {
		return
	}
	w.guns.NextFire = now + gt.FireInterval

	if left {
		w.fireGun(&w.guns.Left)
	}
	if right {
		w.fireGun(&w.guns.Right)
	}
}

// fireGun empties one pellet volley from g, starting a reload when the
// magazine runs dry.
func (w *World) fireGun(g *Gun) {
	gt := &w.tuning.Guns
	now := w.clock.Now()

	if g.Reloading {
		return
	}
	if g.Ammo <= 0 {
		g.Reloading = true
		g.ReloadEnd = now + gt.Reload
		return
	}
	g.Ammo--

	p := w.player
	hitRadius := gt.HitRadiusLeft
	side := -1.0
	if g.Side == GunRight {
		hitRadius = gt.HitRadiusRight
		side = 1
	}
	muzzle := w.eyePosition().AddScaled(p.Right(), side*gt.Offset)

	for i := 0; i < gt.Pellets; i++ {
		yaw := p.Yaw + (w.rng.Float64()-0.5)*gt.Spread
		pitch := p.Pitch + (w.rng.Float64()-0.5)*gt.Spread
		cp := math.Cos(pitch)
		dir := Vec3{X: -math.Sin(yaw) * cp, Y: math.Sin(pitch), Z: -math.Cos(yaw) * cp}

		pr := w.projectiles.Spawn()
		pr.Faction = FactionPlayer
		pr.Source = g.Side.String()
		pr.Pos = muzzle
		pr.Vel = dir.Scale(gt.Speed)
		pr.Life = gt.Life
		pr.Range = gt.Range
		pr.Damage = gt.Damage
		pr.HitRadius = hitRadius
		pr.AreaRadius = gt.AreaRadius
		pr.AreaDPS = gt.AreaDPS
		pr.AreaLife = gt.AreaLife
		pr.Color = gunColor(g.Side)
	}
	w.stats.ShotsFired++

	if g.Ammo == 0 {
		g.Reloading = true
		g.ReloadEnd = now + gt.Reload
	}
}

// finishReloads refills guns whose reload time has passed
func (w *World) finishReloads() {
	now := w.clock.Now()
	for _, g := range []*Gun{&w.guns.Left, &w.guns.Right} {
		if g.Reloading && now >= g.ReloadEnd {
			g.Reloading = false
			g.Ammo = w.tuning.Guns.Magazine
		}
	}
}

func gunColor(side GunSide) uint32 {
	if side == GunRight {
		return 0xf97316
	}
	return 0x38bdf8
}
