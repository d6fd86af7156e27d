// Package maze provides the seeded random stream and the grid carver used to
// lay out each room.
package maze

// Mulberry32 is a small 32-bit mixing generator. Two streams built from the
// same seed produce identical sequences, which is what makes room layouts and
// spawn placement reproducible.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 creates a stream positioned at seed
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Next advances the stream and returns the next 32-bit value
func (m *Mulberry32) Next() uint32 {
	m.state += 0x6D2B79F5
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns a value in [0, 1)
func (m *Mulberry32) Float64() float64 {
	return float64(m.Next()) / 4294967296.0
}

// Intn returns a value in [0, n). n <= 0 returns 0.
func (m *Mulberry32) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(m.Float64() * float64(n))
}

// Range returns a value in [lo, hi)
func (m *Mulberry32) Range(lo, hi float64) float64 {
	return lo + m.Float64()*(hi-lo)
}

// Read fills p from the stream so it can serve as an io.Reader entropy source.
func (m *Mulberry32) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 4 {
		v := m.Next()
		for j := 0; j < 4 && i+j < len(p); j++ {
			p[i+j] = byte(v >> (8 * j))
		}
	}
	return len(p), nil
}

// State returns the internal counter for replay logging
func (m *Mulberry32) State() uint32 {
	return m.state
}
