package game

import (
	"encoding/json"
	"time"
)

// EventType enum for event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeTick              // Periodic tick boundary with RNG state
	EventTypeEnemySpawn
	EventTypeEnemyKill
	EventTypePlayerDamage
	EventTypePlayerReset
	EventTypeAbility
	EventTypePause

	eventTypeCount
)

// EventVersion for backwards compatibility in replay
const EventVersion uint8 = 1

// Event is the core event structure for the event log
type Event struct {
	Version   uint8     `json:"version"`   // Schema version
	Type      EventType `json:"type"`      // Event type
	Timestamp int64     `json:"timestamp"` // Unix nano
	Sequence  uint64    `json:"sequence"`  // Monotonic sequence
	TickNum   uint64    `json:"tickNum"`   // Sim step this occurred in
	SimTime   float64   `json:"simTime"`   // Sim clock seconds
	Source    string    `json:"source"`    // Emitter (for rate limiting)
	Payload   []byte    `json:"payload"`   // JSON-encoded payload
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypeTick:
		return "tick"
	case EventTypeEnemySpawn:
		return "enemy_spawn"
	case EventTypeEnemyKill:
		return "enemy_kill"
	case EventTypePlayerDamage:
		return "player_damage"
	case EventTypePlayerReset:
		return "player_reset"
	case EventTypeAbility:
		return "ability"
	case EventTypePause:
		return "pause"
	default:
		return "unknown"
	}
}

// Typed payloads for different event types

// TickPayload contains tick boundary information for replay
type TickPayload struct {
	RNGState    uint32 `json:"rngState"`
	EnemyCount  int    `json:"enemyCount"`
	Projectiles int    `json:"projectiles"`
	DeltaTimeNs int64  `json:"deltaTimeNs"`
}

// EnemySpawnPayload contains spawn details
type EnemySpawnPayload struct {
	EnemyID string  `json:"enemyId"`
	Room    int     `json:"room"`
	X       float64 `json:"x"`
	Z       float64 `json:"z"`
}

// EnemyKillPayload contains kill details
type EnemyKillPayload struct {
	EnemyID string `json:"enemyId"`
	Room    int    `json:"room"`
	Kills   int    `json:"kills"`
}

// PlayerDamagePayload contains a hit on the player after immunity and scaling
type PlayerDamagePayload struct {
	Source string  `json:"source"`
	Kind   string  `json:"kind"`
	ToPA   float64 `json:"toPa"`
	ToAP   float64 `json:"toAp"`
	AP     float64 `json:"ap"`
	PA     float64 `json:"pa"`
}

// PlayerResetPayload is emitted when AP hits the floor
type PlayerResetPayload struct {
	Source        string  `json:"source"`
	CriticalUntil float64 `json:"criticalUntil"`
}

// AbilityPayload is emitted when an ability goes active
type AbilityPayload struct {
	Ability     string `json:"ability"`
	Activations int    `json:"activations"`
}

// PausePayload is emitted on pause toggles
type PausePayload struct {
	Paused bool `json:"paused"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, tickNum uint64, simTime float64, source string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		TickNum:   tickNum,
		SimTime:   simTime,
		Source:    source,
		Payload:   EncodePayload(payload),
	}
}
