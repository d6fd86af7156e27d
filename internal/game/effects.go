package game

import "fmt"

// FloatingText is a rising combat number
type FloatingText struct {
	Pos       Vec3
	Vel       Vec3
	Text      string
	Color     uint32
	Life      float64
	StartLife float64
}

// Beam is the short-lived visual of an enemy beam hit
type Beam struct {
	From, To  Vec3
	Color     uint32
	Life      float64
	StartLife float64
}

// Text colors
const (
	colorShieldText = 0x60a5fa
	colorArmorText  = 0xf87171
)

// addText queues a floating text. Drops silently at the cap.
func (w *World) addText(pos Vec3, text string, color uint32) {
	if len(w.texts) >= w.tuning.Limits.MaxTexts {
		return
	}
	tt := &w.tuning.Texts
	w.texts = append(w.texts, FloatingText{
		Pos:       pos,
		Vel:       Vec3{Y: tt.Rise},
		Text:      text,
		Color:     color,
		Life:      tt.Life,
		StartLife: tt.Life,
	})
}

// addDamageTexts shows the shield and armor parts of a hit over pos
func (w *World) addDamageTexts(pos Vec3, toPA, toAP float64) {
	above := pos
	above.Y += w.tuning.Enemies.Radius + 0.3
	if toPA >= 1 {
		w.addText(above, fmt.Sprintf("-PA %.0f", toPA), colorShieldText)
		above.Y += 0.25
	}
	if toAP >= 1 {
		w.addText(above, fmt.Sprintf("-AP %.0f", toAP), colorArmorText)
	}
}

// addBeam records a beam visual, dropping it at the cap
func (w *World) addBeam(from, to Vec3, color uint32) {
	if len(w.beams) >= w.tuning.Limits.MaxBeams {
		return
	}
	life := w.tuning.Enemies.BeamVisual
	w.beams = append(w.beams, Beam{From: from, To: to, Color: color, Life: life, StartLife: life})
}

// ageEffects moves texts, expires texts and beams
func (w *World) ageEffects(dt float64) {
	n := 0
	for i := range w.texts {
		t := &w.texts[i]
		t.Life -= dt
		t.Pos = t.Pos.AddScaled(t.Vel, dt)
		if t.Life > 0 {
			w.texts[n] = *t
			n++
		}
	}
	w.texts = w.texts[:n]

	n = 0
	for i := range w.beams {
		b := &w.beams[i]
		b.Life -= dt
		if b.Life > 0 {
			w.beams[n] = *b
			n++
		}
	}
	w.beams = w.beams[:n]
}
