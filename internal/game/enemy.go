package game

import (
	"math"

	"github.com/oklog/ulid/v2"
)

// Enemy is one autonomous hostile. Enemies live in World.enemies, are marked
// Dead the moment AP reaches 0 and are compacted out at the end of that tick.
type Enemy struct {
	ID        string
	Room      int // Home room, also the archetype
	Color     uint32
	Pos       Vec3
	AP, PA    float64
	MaxAP     float64
	MaxPA     float64
	SpawnTime float64
	Dead      bool

	MoveTarget     Vec3
	NextMoveUpdate float64
	NextBall       float64
	ChargeStart    float64
	NextBeam       float64
	Engaged        bool
	Telegraph      float64 // 0..1 beam charge blend

	seq uint64 // Spawn order, breaks ties in target selection
}

// TakeDamage applies damage shield-first. Returns the split and whether this
// hit killed the enemy. Dead enemies take nothing.
func (e *Enemy) TakeDamage(amount float64) (toPA, toAP float64, killed bool) {
	if e.Dead || amount <= 0 {
		return 0, 0, false
	}
	toPA = math.Min(e.PA, amount)
	e.PA -= toPA
	rest := amount - toPA
	if rest > 0 {
		toAP = math.Min(e.AP, rest)
		e.AP -= toAP
	}
	if e.AP <= 0 {
		e.AP = 0
		e.Dead = true
		killed = true
	}
	return toPA, toAP, killed
}

// Strike is the expansion opening blow: it removes up to amount from PA and,
// only if that empties the shield, up to amount from AP as well.
func (e *Enemy) Strike(amount float64) (toPA, toAP float64, killed bool) {
	if e.Dead || amount <= 0 {
		return 0, 0, false
	}
	toPA = math.Min(e.PA, amount)
	e.PA -= toPA
	if e.PA <= 0 {
		e.PA = 0
		toAP = math.Min(e.AP, amount)
		e.AP -= toAP
	}
	if e.AP <= 0 {
		e.AP = 0
		e.Dead = true
		killed = true
	}
	return toPA, toAP, killed
}

// newEnemyID derives a ULID from sim time and the world random stream so a
// seeded run reproduces the same IDs.
func (w *World) newEnemyID() string {
	ms := uint64(w.clock.Now() * 1000)
	id, err := ulid.New(ms, w.rng)
	if err != nil {
		w.idFallback++
		return ulid.Make().String()
	}
	return id.String()
}
