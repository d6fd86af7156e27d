package game

import (
	"strings"

	"maze-arena/internal/game/maze"
)

// RoomLayout is the static description of one room for clients
type RoomLayout struct {
	Index    int      `json:"index"`
	CenterX  float64  `json:"centerX"`
	CenterZ  float64  `json:"centerZ"`
	MinX     float64  `json:"minX"`
	MaxX     float64  `json:"maxX"`
	MinZ     float64  `json:"minZ"`
	MaxZ     float64  `json:"maxZ"`
	Doors    string   `json:"doors"` // Subset of "NSEW"
	Color    uint32   `json:"color"`
	Seed     uint32   `json:"seed"`
	Spawns   bool     `json:"spawns"`
	Passages int      `json:"passages"`
	Maze     []string `json:"maze"` // One row per line, '#' wall '.' passage
}

// Layout is everything about the world that never changes after
// construction. It is safe to share across goroutines.
type Layout struct {
	Seed      uint32       `json:"seed"`
	RoomSize  float64      `json:"roomSize"`
	CellSize  float64      `json:"cellSize"`
	RoomCells int          `json:"roomCells"`
	WorldHalf float64      `json:"worldHalf"`
	Obstacles int          `json:"obstacles"`
	Rooms     []RoomLayout `json:"rooms"`
}

// Layout builds the static world description
func (w *World) Layout() Layout {
	g := w.tuning.Geometry
	l := Layout{
		Seed:      w.tuning.Seed,
		RoomSize:  g.RoomSize(),
		CellSize:  g.CellSize,
		RoomCells: g.RoomCells,
		WorldHalf: g.WorldHalf(),
		Obstacles: w.rooms.ObstacleCount(),
		Rooms:     make([]RoomLayout, w.rooms.Len()),
	}
	for i := range l.Rooms {
		rs := w.tuning.Rooms[i]
		b := w.rooms.InteriorBounds(i, 0)
		l.Rooms[i] = RoomLayout{
			Index:   i,
			CenterX: rs.X,
			CenterZ: rs.Z,
			MinX:    b.MinX,
			MaxX:    b.MaxX,
			MinZ:    b.MinZ,
			MaxZ:    b.MaxZ,
			Doors:   doorString(rs),
			Color:   rs.Color,
			Seed:    rs.Seed,
			Spawns:  rs.Spawns,
		}
		if grid := w.mazes[i]; grid != nil {
			l.Rooms[i].Passages = grid.PassageCount()
			l.Rooms[i].Maze = mazeRows(grid)
		}
	}
	return l
}

func doorString(rs RoomSpec) string {
	var sb strings.Builder
	for _, d := range []struct {
		open bool
		c    byte
	}{{rs.N, 'N'}, {rs.S, 'S'}, {rs.E, 'E'}, {rs.W, 'W'}} {
		if d.open {
			sb.WriteByte(d.c)
		}
	}
	return sb.String()
}

func mazeRows(g *maze.Grid) []string {
	return strings.Split(strings.TrimSuffix(g.String(), "\n"), "\n")
}
