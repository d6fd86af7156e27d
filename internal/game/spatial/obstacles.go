package spatial

import (
	"math"

	"github.com/solarlune/resolv"
)

const (
	obstacleTag = "obstacle"
	cursorTag   = "cursor"

	// obstacleCellSize is the broadphase cell edge in world units
	obstacleCellSize = 10
)

// obstacleRef is attached to each resolv object so the exact test can run on
// the full 3D box after the XZ broadphase.
type obstacleRef struct {
	room int
	box  Box
}

// ObstacleSpace is an XZ broadphase over static obstacle boxes. resolv works
// in non-negative 2D space, so world X/Z are shifted by the world half extent
// (plus one cell of slack) and Z maps to resolv's Y axis.
type ObstacleSpace struct {
	space  *resolv.Space
	cursor *resolv.Object
	offset float64
	count  int
}

// NewObstacleSpace creates an empty broadphase covering ±worldHalf
func NewObstacleSpace(worldHalf float64) *ObstacleSpace {
	offset := worldHalf + obstacleCellSize
	size := int(math.Ceil(2 * offset))

	space := resolv.NewSpace(size, size, obstacleCellSize, obstacleCellSize)
	cursor := resolv.NewObject(0, 0, 1, 1, cursorTag)
	space.Add(cursor)

	return &ObstacleSpace{
		space:  space,
		cursor: cursor,
		offset: offset,
	}
}

// Add registers an obstacle belonging to room. The footprint is padded by one
// unit on each side since resolv computes cell coverage with integer edges.
func (s *ObstacleSpace) Add(room int, b Box) {
	obj := resolv.NewObject(
		b.Min.X+s.offset-1,
		b.Min.Z+s.offset-1,
		b.Max.X-b.Min.X+2,
		b.Max.Z-b.Min.Z+2,
		obstacleTag,
	)
	obj.Data = &obstacleRef{room: room, box: b}
	s.space.Add(obj)
	s.count++
}

// Len returns the number of registered obstacles
func (s *ObstacleSpace) Len() int {
	return s.count
}

// Query calls fn for every obstacle whose padded footprint shares a cell with
// the XZ footprint of area. fn returns false to stop early. Candidates still
// need an exact overlap test.
func (s *ObstacleSpace) Query(area Box, fn func(room int, b Box) bool) {
	if s.count == 0 {
		return
	}

	s.cursor.X = area.Min.X + s.offset - 1
	s.cursor.Y = area.Min.Z + s.offset - 1
	s.cursor.W = area.Max.X - area.Min.X + 2
	s.cursor.H = area.Max.Z - area.Min.Z + 2
	s.cursor.Update()

	check := s.cursor.Check(0, 0, obstacleTag)
	if check == nil {
		return
	}
	for _, obj := range check.ObjectsByTags(obstacleTag) {
		ref, ok := obj.Data.(*obstacleRef)
		if !ok {
			continue
		}
		if !fn(ref.room, ref.box) {
			return
		}
	}
}
