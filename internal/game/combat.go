package game

import (
	"go.uber.org/zap"
)

// playerSource tags events that originate from the player
const playerSource = "player"

// damageEnemy applies shield-first damage to e and reports the result
func (w *World) damageEnemy(e *Enemy, amount float64) {
	toPA, toAP, killed := e.TakeDamage(amount)
	w.reportEnemyDamage(e, toPA, toAP, killed)
}

// reportEnemyDamage records texts, stats and the kill event for a hit
func (w *World) reportEnemyDamage(e *Enemy, toPA, toAP float64, killed bool) {
	if toPA == 0 && toAP == 0 {
		return
	}
	w.stats.DamageDealt += toPA + toAP
	w.addDamageTexts(e.Pos, toPA, toAP)

	if !killed {
		return
	}
	w.stats.Kills++
	w.emit(EventTypeEnemyKill, playerSource, EnemyKillPayload{
		EnemyID: e.ID,
		Room:    e.Room,
		Kills:   w.stats.Kills,
	})
	w.logger.Debug("💀 Enemy destroyed",
		zap.String("enemy", e.ID),
		zap.Int("room", e.Room),
		zap.Int("kills", w.stats.Kills))
}

// damagePlayer applies a hit to the player and records it
func (w *World) damagePlayer(amount float64, kind DamageKind, source string) DamageResult {
	now := w.clock.Now()
	res := w.player.ApplyDamage(amount, kind, now)
	if !res.Applied {
		return res
	}

	w.stats.DamageTaken[kind] += res.ToPA + res.ToAP
	w.emit(EventTypePlayerDamage, source, PlayerDamagePayload{
		Source: source,
		Kind:   kind.String(),
		ToPA:   res.ToPA,
		ToAP:   res.ToAP,
		AP:     w.player.AP,
		PA:     w.player.PA,
	})

	if res.Reset {
		w.emit(EventTypePlayerReset, playerSource, PlayerResetPayload{
			Source:        source,
			CriticalUntil: w.player.CriticalUntil,
		})
		w.logger.Info("🔁 Player reset to origin",
			zap.String("source", source),
			zap.String("kind", kind.String()),
			zap.Int("resets", w.player.Resets))
	}
	return res
}

// abilityActivated records an ability entering its active phase
func (w *World) abilityActivated(a *Ability) {
	w.emit(EventTypeAbility, playerSource, AbilityPayload{
		Ability:     a.Name,
		Activations: a.Activations,
	})
	w.logger.Debug("✨ Ability activated",
		zap.String("ability", a.Name),
		zap.Int("activations", a.Activations),
		zap.Float64("simTime", w.clock.Now()))
}

// removeDeadEnemies compacts the enemy list in place, keeping spawn order.
// Swarm units drop targets that died this tick.
func (w *World) removeDeadEnemies() {
	for i := range w.swarm.Units {
		u := &w.swarm.Units[i]
		if u.Target != nil && u.Target.Dead {
			u.Target = nil
		}
	}

	n := 0
	for _, e := range w.enemies {
		if !e.Dead {
			w.enemies[n] = e
			n++
		}
	}
	for i := n; i < len(w.enemies); i++ {
		w.enemies[i] = nil
	}
	w.enemies = w.enemies[:n]
}
