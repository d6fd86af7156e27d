package maze

import (
	"errors"
	"fmt"
)

// Cell values
const (
	Wall    = true
	Passage = false
)

// ErrInvalidSize is returned for grids too small to carve
var ErrInvalidSize = errors.New("maze: invalid grid size")

// Point is a grid coordinate. Y grows toward the south side.
type Point struct {
	X, Y int
}

// Openings selects which boundary sides get a straight corridor to the center.
type Openings struct {
	N, S, E, W bool
}

// Config controls maze generation
type Config struct {
	Size     int // Cells per side
	Seed     uint32
	Openings Openings
}

// Grid is a square maze. Cells[y][x] is Wall or Passage.
type Grid struct {
	Size   int
	Cells  [][]bool
	Center Point
}

// neighbor order before shuffling: N, E, S, W
var carveDirs = [4]Point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Generate carves a single connected maze from the grid center.
// Identical configs produce identical grids.
func Generate(cfg Config) (*Grid, error) {
	if cfg.Size < 3 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, cfg.Size)
	}

	n := cfg.Size
	cells := make([][]bool, n)
	for y := range cells {
		cells[y] = make([]bool, n)
		for x := range cells[y] {
			cells[y][x] = Wall
		}
	}

	g := &Grid{
		Size:   n,
		Cells:  cells,
		Center: Point{n / 2, n / 2},
	}

	rng := NewMulberry32(cfg.Seed)
	g.carve(rng)

	c := g.Center
	if cfg.Openings.N {
		g.openCorridor(Point{c.X, 0}, Point{0, 1})
	}
	if cfg.Openings.S {
		g.openCorridor(Point{c.X, n - 1}, Point{0, -1})
	}
	if cfg.Openings.W {
		g.openCorridor(Point{0, c.Y}, Point{1, 0})
	}
	if cfg.Openings.E {
		g.openCorridor(Point{n - 1, c.Y}, Point{-1, 0})
	}

	cells[c.Y][c.X] = Passage
	return g, nil
}

// carveFrame is one level of the backtracker: a cell and its shuffled exits.
type carveFrame struct {
	at   Point
	dirs [4]Point
	next int
}

// carve runs the recursive backtracker with an explicit stack. Each cell's
// exits are shuffled when the cell is first entered, so the random stream is
// consumed in the same order as the recursive form.
func (g *Grid) carve(rng *Mulberry32) {
	n := g.Size
	stack := make([]carveFrame, 0, n*n/4+1)

	enter := func(p Point) {
		g.Cells[p.Y][p.X] = Passage
		f := carveFrame{at: p, dirs: carveDirs}
		for i := len(f.dirs) - 1; i > 0; i-- {
			j := int(rng.Float64() * float64(i+1))
			f.dirs[i], f.dirs[j] = f.dirs[j], f.dirs[i]
		}
		stack = append(stack, f)
	}

	enter(g.Center)
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.dirs) {
			stack = stack[:len(stack)-1]
			continue
		}
		d := top.dirs[top.next]
		top.next++

		nx, ny := top.at.X+d.X*2, top.at.Y+d.Y*2
		if nx > 0 && nx < n-1 && ny > 0 && ny < n-1 && g.Cells[ny][nx] == Wall {
			g.Cells[top.at.Y+d.Y][top.at.X+d.X] = Passage
			enter(Point{nx, ny})
		}
	}
}

func (g *Grid) openCorridor(from, step Point) {
	p := from
	for p.X >= 0 && p.X < g.Size && p.Y >= 0 && p.Y < g.Size {
		g.Cells[p.Y][p.X] = Passage
		if p == g.Center {
			return
		}
		p.X += step.X
		p.Y += step.Y
	}
}

// Open reports whether (x, y) is inside the grid and carved
func (g *Grid) Open(x, y int) bool {
	if x < 0 || y < 0 || x >= g.Size || y >= g.Size {
		return false
	}
	return g.Cells[y][x] == Passage
}

// Reachable returns every passage cell reachable from the center (BFS)
func (g *Grid) Reachable() map[Point]bool {
	seen := map[Point]bool{g.Center: true}
	queue := []Point{g.Center}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range carveDirs {
			q := Point{p.X + d.X, p.Y + d.Y}
			if !seen[q] && g.Open(q.X, q.Y) {
				seen[q] = true
				queue = append(queue, q)
			}
		}
	}
	return seen
}

// Connected reports whether all passage cells form a single region
func (g *Grid) Connected() bool {
	reach := g.Reachable()
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			if g.Cells[y][x] == Passage && !reach[Point{x, y}] {
				return false
			}
		}
	}
	return true
}

// PassageCount returns the number of carved cells
func (g *Grid) PassageCount() int {
	count := 0
	for _, row := range g.Cells {
		for _, c := range row {
			if c == Passage {
				count++
			}
		}
	}
	return count
}

// WallRect is the XZ footprint of a wall cell in world units
type WallRect struct {
	MinX, MinZ, MaxX, MaxZ float64
}

// WallRects maps wall cells to world rectangles. The grid is centered on
// (originX, originZ) with cellSize units per cell.
func (g *Grid) WallRects(cellSize, originX, originZ float64) []WallRect {
	half := float64(g.Size) * cellSize / 2
	rects := make([]WallRect, 0, g.Size*g.Size-g.PassageCount())
	for y := 0; y < g.Size; y++ {
		for x := 0; x < g.Size; x++ {
			if g.Cells[y][x] != Wall {
				continue
			}
			minX := originX - half + float64(x)*cellSize
			minZ := originZ - half + float64(y)*cellSize
			rects = append(rects, WallRect{
				MinX: minX,
				MinZ: minZ,
				MaxX: minX + cellSize,
				MaxZ: minZ + cellSize,
			})
		}
	}
	return rects
}

// String renders the grid as text, '#' for walls
func (g *Grid) String() string {
	buf := make([]byte, 0, g.Size*(g.Size+1))
	for _, row := range g.Cells {
		for _, c := range row {
			if c == Wall {
				buf = append(buf, '#')
			} else {
				buf = append(buf, '.')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
