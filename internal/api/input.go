package api

import (
	"errors"
	"fmt"
	"math"

	"maze-arena/internal/game"
)

// ErrBadInput is returned for an input message the engine cannot use
var ErrBadInput = errors.New("api: bad input message")

// maxLookDelta bounds one pointer delta in pixels
const maxLookDelta = 4096

// Input message types
const (
	InputTypePress      = "press"
	InputTypeRelease    = "release"
	InputTypeLook       = "look"
	InputTypeLock       = "lock"
	InputTypeReleaseAll = "release_all"
)

// InputMessage is the wire form of one input event, shared by POST
// /api/input and the websocket.
//
//	{"type":"press","key":"forward"}
//	{"type":"look","dx":12,"dy":-3}
//	{"type":"lock","locked":true}
type InputMessage struct {
	Type   string  `json:"type"`
	Key    string  `json:"key,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Locked bool    `json:"locked,omitempty"`
}

// ToEvent validates m and converts it to an engine event
func (m InputMessage) ToEvent() (game.InputEvent, error) {
	switch m.Type {
	case InputTypePress, InputTypeRelease:
		key, ok := game.ParseKey(m.Key)
		if !ok {
			return game.InputEvent{}, fmt.Errorf("%w: unknown key %q", ErrBadInput, m.Key)
		}
		kind := game.InputPress
		if m.Type == InputTypeRelease {
			kind = game.InputRelease
		}
		return game.InputEvent{Kind: kind, Key: key}, nil

	case InputTypeLook:
		if !finiteWithin(m.DX, maxLookDelta) || !finiteWithin(m.DY, maxLookDelta) {
			return game.InputEvent{}, fmt.Errorf("%w: look delta out of range", ErrBadInput)
		}
		return game.InputEvent{Kind: game.InputLook, DX: m.DX, DY: m.DY}, nil

	case InputTypeLock:
		return game.InputEvent{Kind: game.InputPointerLock, Locked: m.Locked}, nil

	case InputTypeReleaseAll:
		return game.InputEvent{Kind: game.InputReleaseAll}, nil
	}
	return game.InputEvent{}, fmt.Errorf("%w: unknown type %q", ErrBadInput, m.Type)
}

func finiteWithin(v, limit float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= limit
}
