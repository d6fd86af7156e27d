package game

// AreaEffect is a lingering damage sphere left by a pellet impact
type AreaEffect struct {
	Pos       Vec3
	Radius    float64
	DPS       float64
	Life      float64
	StartLife float64
	Color     uint32
}

// Fade returns the remaining life fraction for rendering
func (a *AreaEffect) Fade() float64 {
	if a.StartLife <= 0 {
		return 0
	}
	f := a.Life / a.StartLife
	if f < 0 {
		return 0
	}
	return f
}

// addAreaEffect appends an effect, evicting the oldest at the cap
func (w *World) addAreaEffect(pos Vec3, radius, dps, life float64, color uint32) {
	if len(w.areaEffects) >= w.tuning.Limits.MaxAreaEffects {
		copy(w.areaEffects, w.areaEffects[1:])
		w.areaEffects = w.areaEffects[:len(w.areaEffects)-1]
		w.stats.AreaEvicted++
	}
	w.areaEffects = append(w.areaEffects, AreaEffect{
		Pos:       pos,
		Radius:    radius,
		DPS:       dps,
		Life:      life,
		StartLife: life,
		Color:     color,
	})
}

// stepAreaEffects ages every effect and burns enemies inside it. An effect
// still deals damage on the tick it expires.
func (w *World) stepAreaEffects(dt float64) {
	n := 0
	for i := range w.areaEffects {
		a := &w.areaEffects[i]
		a.Life -= dt

		r2 := a.Radius * a.Radius
		for _, idx := range w.enemyGrid.QueryRadius(a.Pos.X, a.Pos.Z, a.Radius) {
			e := w.enemies[idx]
			if e.Dead || e.Pos.DistSq(a.Pos) > r2 {
				continue
			}
			w.damageEnemy(e, a.DPS*dt)
		}

		if a.Life > 0 {
			w.areaEffects[n] = *a
			n++
		}
	}
	w.areaEffects = w.areaEffects[:n]
}
