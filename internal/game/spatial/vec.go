package spatial

import "math"

// Vec3 is a world-space position or direction. Y is up; -Z is north.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// AddScaled returns v + o*s
func (v Vec3) AddScaled(o Vec3, s float64) Vec3 {
	return Vec3{v.X + o.X*s, v.Y + o.Y*s, v.Z + o.Z*s}
}

// LenSq returns the squared length
func (v Vec3) LenSq() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }

// Len returns the length
func (v Vec3) Len() float64 { return math.Sqrt(v.LenSq()) }

// DistSq returns the squared distance to o
func (v Vec3) DistSq(o Vec3) float64 { return v.Sub(o).LenSq() }

// Dist returns the distance to o
func (v Vec3) Dist(o Vec3) float64 { return math.Sqrt(v.DistSq(o)) }

// Normalize returns a unit vector, or the zero vector for zero input
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Lerp blends toward o by t
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

// Box is an axis-aligned obstacle volume
type Box struct {
	Min, Max Vec3
}

// Valid reports whether min <= max on every axis
func (b Box) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

// ContainsPoint is an inclusive point test
func (b Box) ContainsPoint(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Overlaps reports strict overlap with another box
func (b Box) Overlaps(o Box) bool {
	return b.Min.X < o.Max.X && b.Max.X > o.Min.X &&
		b.Min.Y < o.Max.Y && b.Max.Y > o.Min.Y &&
		b.Min.Z < o.Max.Z && b.Max.Z > o.Min.Z
}

// BoxAround builds a cube of the given half extent centered on p
func BoxAround(p Vec3, half float64) Box {
	return Box{
		Min: Vec3{p.X - half, p.Y - half, p.Z - half},
		Max: Vec3{p.X + half, p.Y + half, p.Z + half},
	}
}

// Rect is an XZ rectangle
type Rect struct {
	MinX, MaxX, MinZ, MaxZ float64
}

// Contains is an inclusive XZ test
func (r Rect) Contains(x, z float64) bool {
	return x >= r.MinX && x <= r.MaxX && z >= r.MinZ && z <= r.MaxZ
}

// Clamp projects (x, z) into the rectangle
func (r Rect) Clamp(x, z float64) (float64, float64) {
	return Clamp(x, r.MinX, r.MaxX), Clamp(z, r.MinZ, r.MaxZ)
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
