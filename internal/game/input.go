package game

// Key identifies a logical input. The API maps browser key codes onto these.
type Key uint8

const (
	KeyForward Key = iota
	KeyBack
	KeyLeft
	KeyRight
	KeySprint // shift
	KeyJump   // space
	KeyExpansion
	KeyRepair
	KeySwarm
	KeyMenu
	ButtonLeft
	ButtonRight
	KeyCount
)

var keyNames = [KeyCount]string{
	KeyForward:   "forward",
	KeyBack:      "back",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeySprint:    "sprint",
	KeyJump:      "jump",
	KeyExpansion: "expansion",
	KeyRepair:    "repair",
	KeySwarm:     "swarm",
	KeyMenu:      "menu",
	ButtonLeft:   "fire_left",
	ButtonRight:  "fire_right",
}

// String returns the wire name of the key
func (k Key) String() string {
	if k < KeyCount {
		return keyNames[k]
	}
	return "unknown"
}

// ParseKey maps a wire name back to a Key
func ParseKey(name string) (Key, bool) {
	for k, n := range keyNames {
		if n == name {
			return Key(k), true
		}
	}
	return KeyCount, false
}

// InputKind classifies an InputEvent
type InputKind uint8

const (
	InputPress InputKind = iota
	InputRelease
	InputLook
	InputPointerLock
	InputReleaseAll
)

// InputEvent is one client-side input change, queued by the API and applied
// by the tick goroutine in arrival order.
type InputEvent struct {
	Kind   InputKind
	Key    Key
	DX, DY float64 // Pointer delta in pixels, InputLook only
	Locked bool    // InputPointerLock only
}

// InputFrame is what a single Step sees: keys held at the end of the frame,
// keys pressed at least once during it, and the accumulated pointer delta.
type InputFrame struct {
	Held          [KeyCount]bool
	Pressed       [KeyCount]bool
	LookDX        float64
	LookDY        float64
	PointerLocked bool
}

// Down reports whether k is held
func (f *InputFrame) Down(k Key) bool {
	return f.Held[k]
}

// Edge reports whether k was pressed this frame
func (f *InputFrame) Edge(k Key) bool {
	return f.Pressed[k]
}

// anyMove reports whether any movement axis is held
func (f *InputFrame) anyMove() bool {
	return f.Held[KeyForward] || f.Held[KeyBack] || f.Held[KeyLeft] || f.Held[KeyRight]
}

// dashChord reports whether sprint and jump are both held
func (f *InputFrame) dashChord() bool {
	return f.Held[KeySprint] && f.Held[KeyJump]
}

// InputState folds InputEvents into frames. Held keys persist across frames;
// press edges and pointer deltas reset after each Frame call.
type InputState struct {
	frame InputFrame
}

// Apply folds one event into the pending frame
func (s *InputState) Apply(ev InputEvent) {
	switch ev.Kind {
	case InputPress:
		if ev.Key < KeyCount {
			s.frame.Held[ev.Key] = true
			s.frame.Pressed[ev.Key] = true
		}
	case InputRelease:
		if ev.Key < KeyCount {
			s.frame.Held[ev.Key] = false
		}
	case InputLook:
		s.frame.LookDX += ev.DX
		s.frame.LookDY += ev.DY
	case InputPointerLock:
		s.frame.PointerLocked = ev.Locked
	case InputReleaseAll:
		s.frame.Held = [KeyCount]bool{}
	}
}

// Frame returns the pending frame and starts a new one
func (s *InputState) Frame() InputFrame {
	f := s.frame
	s.frame.Pressed = [KeyCount]bool{}
	s.frame.LookDX = 0
	s.frame.LookDY = 0
	return f
}
