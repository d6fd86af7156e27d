package spatial

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRoomTable is returned when the room table cannot be indexed
var ErrInvalidRoomTable = errors.New("spatial: invalid room table")

// Openings marks which sides of a room have a doorway.
// North is -Z, south is +Z, east is +X, west is -X.
type Openings struct {
	N, S, E, W bool
}

// Room is a static square chamber. Immutable once indexed.
type Room struct {
	CenterX, CenterZ float64
	Openings         Openings
	Obstacles        []Box
	Color            uint32
	Seed             uint32
}

// Geometry holds the shared dimensions of every room
type Geometry struct {
	RoomSize  float64 // Full side length
	FloorY    float64 // Lowest legal body center height
	CeilingY  float64 // Highest legal body center height
	WorldHalf float64 // Outer clamp on X and Z
	BodyHalf  float64 // Player half extent used for doorway adjustment
}

// Half returns half the room side
func (g Geometry) Half() float64 {
	return g.RoomSize / 2
}

// ClampEpsilon keeps clamped camera positions off the exact boundary
const ClampEpsilon = 0.2

// boxEpsilon shrinks the body box so touching faces do not count as overlap
const boxEpsilon = 1e-4

// RoomIndex answers point-membership and obstacle queries against the room
// table. The table is fixed at construction. Obstacle queries move a shared
// cursor, so only the tick goroutine may call CollidesBody, PointBlocked and
// HighestTopBeneath; the bounds and membership queries are safe anywhere.
type RoomIndex struct {
	rooms     []Room
	geom      Geometry
	bounds    []Rect // doorway-adjusted by geom.BodyHalf
	obstacles *ObstacleSpace
}

// NewRoomIndex validates the table and builds the obstacle broadphase
func NewRoomIndex(rooms []Room, geom Geometry) (*RoomIndex, error) {
	if len(rooms) == 0 {
		return nil, fmt.Errorf("%w: no rooms", ErrInvalidRoomTable)
	}
	if geom.RoomSize <= 0 || geom.CeilingY <= geom.FloorY || geom.WorldHalf <= 0 {
		return nil, fmt.Errorf("%w: bad geometry %+v", ErrInvalidRoomTable, geom)
	}

	seen := make(map[[2]float64]int, len(rooms))
	for i, r := range rooms {
		key := [2]float64{r.CenterX, r.CenterZ}
		if j, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: rooms %d and %d share center (%.1f, %.1f)",
				ErrInvalidRoomTable, j, i, r.CenterX, r.CenterZ)
		}
		seen[key] = i
		for k, b := range r.Obstacles {
			if !b.Valid() {
				return nil, fmt.Errorf("%w: room %d obstacle %d has min > max", ErrInvalidRoomTable, i, k)
			}
		}
	}

	idx := &RoomIndex{
		rooms:  append([]Room(nil), rooms...),
		geom:   geom,
		bounds: make([]Rect, len(rooms)),
	}
	for i := range idx.rooms {
		idx.bounds[i] = idx.Bounds(i, geom.BodyHalf)
	}

	idx.obstacles = NewObstacleSpace(geom.WorldHalf)
	for i, r := range idx.rooms {
		for _, b := range r.Obstacles {
			idx.obstacles.Add(i, b)
		}
	}

	return idx, nil
}

// Len returns the number of rooms
func (ri *RoomIndex) Len() int {
	return len(ri.rooms)
}

// Room returns room i
func (ri *RoomIndex) Room(i int) Room {
	return ri.rooms[i]
}

// Geometry returns the shared room dimensions
func (ri *RoomIndex) Geometry() Geometry {
	return ri.geom
}

// Bounds returns room i's footprint widened by margin on open sides and
// narrowed by it on closed sides.
func (ri *RoomIndex) Bounds(i int, margin float64) Rect {
	r := ri.rooms[i]
	half := ri.geom.Half()
	side := func(open bool) float64 {
		if open {
			return margin
		}
		return -margin
	}
	return Rect{
		MinX: r.CenterX - half - side(r.Openings.W),
		MaxX: r.CenterX + half + side(r.Openings.E),
		MinZ: r.CenterZ - half - side(r.Openings.N),
		MaxZ: r.CenterZ + half + side(r.Openings.S),
	}
}

// InteriorBounds returns room i's footprint narrowed by margin on every side
func (ri *RoomIndex) InteriorBounds(i int, margin float64) Rect {
	r := ri.rooms[i]
	half := ri.geom.Half()
	return Rect{
		MinX: r.CenterX - half + margin,
		MaxX: r.CenterX + half - margin,
		MinZ: r.CenterZ - half + margin,
		MaxZ: r.CenterZ + half - margin,
	}
}

// AppendRoomsAt appends every room whose doorway-adjusted bounds contain p
func (ri *RoomIndex) AppendRoomsAt(dst []int, p Vec3) []int {
	for i, b := range ri.bounds {
		if b.Contains(p.X, p.Z) {
			dst = append(dst, i)
		}
	}
	return dst
}

// RoomsAt returns every room containing p. A point in a shared doorway
// belongs to both rooms.
func (ri *RoomIndex) RoomsAt(p Vec3) []int {
	return ri.AppendRoomsAt(nil, p)
}

// RoomAt returns the first room containing p
func (ri *RoomIndex) RoomAt(p Vec3) (int, bool) {
	for i, b := range ri.bounds {
		if b.Contains(p.X, p.Z) {
			return i, true
		}
	}
	return -1, false
}

// Contains reports whether p lies in at least one room
func (ri *RoomIndex) Contains(p Vec3) bool {
	_, ok := ri.RoomAt(p)
	return ok
}

// ClampToNearestRoom projects p into whichever room needs the smallest
// squared displacement. With no rooms p is returned unchanged.
func (ri *RoomIndex) ClampToNearestRoom(p Vec3) Vec3 {
	best := p
	bestDist := math.Inf(1)
	for _, b := range ri.bounds {
		c := Vec3{
			X: Clamp(p.X, b.MinX+ClampEpsilon, b.MaxX-ClampEpsilon),
			Y: Clamp(p.Y, ri.geom.FloorY+ClampEpsilon, ri.geom.CeilingY-ClampEpsilon),
			Z: Clamp(p.Z, b.MinZ+ClampEpsilon, b.MaxZ-ClampEpsilon),
		}
		if d := c.DistSq(p); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// CollidesBody reports whether a body of half extent half centered on p
// overlaps an obstacle of any room containing p. A point outside every room
// always collides.
func (ri *RoomIndex) CollidesBody(p Vec3, half float64) bool {
	var buf [4]int
	rooms := ri.AppendRoomsAt(buf[:0], p)
	if len(rooms) == 0 {
		return true
	}
	body := BoxAround(p, half-boxEpsilon)
	hit := false
	ri.obstacles.Query(body, func(room int, b Box) bool {
		if containsInt(rooms, room) && body.Overlaps(b) {
			hit = true
			return false
		}
		return true
	})
	return hit
}

// PointBlocked reports whether p is outside every room or inside an obstacle
// of a room containing it.
func (ri *RoomIndex) PointBlocked(p Vec3) bool {
	var buf [4]int
	rooms := ri.AppendRoomsAt(buf[:0], p)
	if len(rooms) == 0 {
		return true
	}
	point := Box{Min: p, Max: p}
	hit := false
	ri.obstacles.Query(point, func(room int, b Box) bool {
		if containsInt(rooms, room) && b.ContainsPoint(p) {
			hit = true
			return false
		}
		return true
	})
	return hit
}

// HighestTopBeneath returns the highest obstacle top under the body's XZ
// footprint that is at or below feetY. ok is false when there is none.
func (ri *RoomIndex) HighestTopBeneath(p Vec3, half, feetY float64) (top float64, ok bool) {
	var buf [4]int
	rooms := ri.AppendRoomsAt(buf[:0], p)
	foot := Box{
		Min: Vec3{p.X - half + boxEpsilon, math.Inf(-1), p.Z - half + boxEpsilon},
		Max: Vec3{p.X + half - boxEpsilon, math.Inf(1), p.Z + half - boxEpsilon},
	}
	top = math.Inf(-1)
	ri.obstacles.Query(foot, func(room int, b Box) bool {
		if !containsInt(rooms, room) || !foot.Overlaps(b) {
			return true
		}
		if b.Max.Y <= feetY+boxEpsilon && b.Max.Y > top {
			top = b.Max.Y
			ok = true
		}
		return true
	})
	return top, ok
}

// ObstacleCount returns the number of indexed obstacles
func (ri *RoomIndex) ObstacleCount() int {
	return ri.obstacles.Len()
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
