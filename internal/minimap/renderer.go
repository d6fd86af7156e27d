// Package minimap draws a top-down PNG of the arena from a world snapshot.
// It only reads snapshots and the static layout, so it runs on API
// goroutines without touching the simulation.
package minimap

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"maze-arena/internal/game"
)

// ErrInvalidSize is returned for a non-positive or oversized image edge
var ErrInvalidSize = errors.New("minimap: invalid size")

// MaxSize caps the PNG edge so one request cannot allocate unbounded memory
const MaxSize = 1024

// DefaultSize is the PNG edge when callers do not ask for one
const DefaultSize = 256

// Options selects what the renderer draws
type Options struct {
	Size        int
	Mazes       bool // Shade maze walls inside each room
	Projectiles bool
	Labels      bool // Room numbers, skipped below labelMinSize
}

// labelMinSize is the smallest edge that still fits room numbers
const labelMinSize = 192

// DefaultOptions returns the stock minimap
func DefaultOptions() Options {
	return Options{Size: DefaultSize, Mazes: true, Projectiles: true, Labels: true}
}

// Renderer turns snapshots into PNG bytes. Contexts are cached per size and
// guarded by a mutex, so concurrent requests serialize on the draw.
type Renderer struct {
	layout game.Layout

	// World XZ extent covered by the image
	minX, minZ, span float64

	mu       sync.Mutex
	contexts map[int]*gg.Context
}

// NewRenderer fits the image to the rooms of layout
func NewRenderer(layout game.Layout) *Renderer {
	minX, maxX := math.Inf(1), math.Inf(-1)
	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, r := range layout.Rooms {
		minX = math.Min(minX, r.MinX)
		maxX = math.Max(maxX, r.MaxX)
		minZ = math.Min(minZ, r.MinZ)
		maxZ = math.Max(maxZ, r.MaxZ)
	}
	if len(layout.Rooms) == 0 {
		minX, maxX, minZ, maxZ = -1, 1, -1, 1
	}
	span := math.Max(maxX-minX, maxZ-minZ)
	pad := span * 0.02

	return &Renderer{
		layout:   layout,
		minX:     minX - pad,
		minZ:     minZ - pad,
		span:     span + 2*pad,
		contexts: make(map[int]*gg.Context),
	}
}

// RenderPNG draws snap and returns the encoded PNG
func (r *Renderer) RenderPNG(snap *game.WorldSnapshot, opts Options) ([]byte, error) {
	if opts.Size <= 0 || opts.Size > MaxSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dc := r.context(opts.Size)
	scale := float64(opts.Size) / r.span

	r.drawBackground(dc, opts.Size)
	r.drawRooms(dc, scale, opts.Mazes)
	if opts.Labels && opts.Size >= labelMinSize {
		r.drawLabels(dc, scale)
	}
	if snap != nil {
		drawAreaEffects(dc, r, scale, snap.AreaEffects)
		if opts.Projectiles {
			drawProjectiles(dc, r, scale, snap.Projectiles)
		}
		drawBeams(dc, r, scale, snap.Beams)
		drawEnemies(dc, r, scale, snap.Enemies)
		drawPlayer(dc, r, scale, snap.Player)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode minimap: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) context(size int) *gg.Context {
	dc, ok := r.contexts[size]
	if !ok {
		dc = gg.NewContext(size, size)
		r.contexts[size] = dc
	}
	return dc
}

// toPixel maps world XZ to image XY. North (-Z) is up.
func (r *Renderer) toPixel(x, z, scale float64) (float64, float64) {
	return (x - r.minX) * scale, (z - r.minZ) * scale
}

func (r *Renderer) drawBackground(dc *gg.Context, size int) {
	dc.SetColor(color.RGBA{12, 12, 28, 255})
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()
}

func (r *Renderer) drawRooms(dc *gg.Context, scale float64, mazes bool) {
	for _, room := range r.layout.Rooms {
		x0, y0 := r.toPixel(room.MinX, room.MinZ, scale)
		x1, y1 := r.toPixel(room.MaxX, room.MaxZ, scale)

		dc.SetColor(rgba(room.Color, 200))
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Fill()

		if mazes && len(room.Maze) > 0 {
			cell := (x1 - x0) / float64(len(room.Maze))
			dc.SetColor(color.NRGBA{0, 0, 0, 90})
			for cy, row := range room.Maze {
				for cx := 0; cx < len(row); cx++ {
					if row[cx] == '#' {
						dc.DrawRectangle(x0+float64(cx)*cell, y0+float64(cy)*cell, cell, cell)
					}
				}
			}
			dc.Fill()
		}

		dc.SetColor(color.NRGBA{255, 255, 255, 60})
		dc.SetLineWidth(1)
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Stroke()
	}
}

func (r *Renderer) drawLabels(dc *gg.Context, scale float64) {
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(color.NRGBA{255, 255, 255, 140})
	for _, room := range r.layout.Rooms {
		x, y := r.toPixel(room.MinX, room.MinZ, scale)
		dc.DrawStringAnchored(fmt.Sprint(room.Index), x+3, y+3, 0, 1)
	}
}

func drawAreaEffects(dc *gg.Context, r *Renderer, scale float64, effects []game.AreaEffectSnapshot) {
	for _, a := range effects {
		x, y := r.toPixel(a.Pos.X, a.Pos.Z, scale)
		alpha := uint8(math.Round(120 * clamp01(a.Fade)))
		dc.SetColor(rgba(a.Color, alpha))
		dc.DrawCircle(x, y, math.Max(1, a.Radius*scale))
		dc.Fill()
	}
}

func drawProjectiles(dc *gg.Context, r *Renderer, scale float64, projectiles []game.ProjectileSnapshot) {
	for _, p := range projectiles {
		x, y := r.toPixel(p.Pos.X, p.Pos.Z, scale)
		if p.Enemy {
			dc.SetColor(color.RGBA{255, 80, 80, 255})
		} else {
			dc.SetColor(rgba(p.Color, 220))
		}
		dc.DrawRectangle(x, y, 1, 1)
		dc.Fill()
	}
}

func drawBeams(dc *gg.Context, r *Renderer, scale float64, beams []game.BeamSnapshot) {
	dc.SetLineWidth(2)
	for _, b := range beams {
		x0, y0 := r.toPixel(b.From.X, b.From.Z, scale)
		x1, y1 := r.toPixel(b.To.X, b.To.Z, scale)
		dc.SetColor(rgba(b.Color, uint8(math.Round(255*clamp01(b.Alpha)))))
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}
}

func drawEnemies(dc *gg.Context, r *Renderer, scale float64, enemies []game.EnemySnapshot) {
	radius := math.Max(2, 0.5*scale)
	for _, e := range enemies {
		x, y := r.toPixel(e.Pos.X, e.Pos.Z, scale)
		dc.SetColor(rgba(e.Color, 255))
		dc.DrawCircle(x, y, radius)
		dc.Fill()
		if e.Engaged {
			dc.SetColor(color.White)
			dc.SetLineWidth(1)
			dc.DrawCircle(x, y, radius+1)
			dc.Stroke()
		}
	}
}

// drawPlayer draws a triangle pointing along the view yaw
func drawPlayer(dc *gg.Context, r *Renderer, scale float64, p game.PlayerSnapshot) {
	x, y := r.toPixel(p.Pos.X, p.Pos.Z, scale)
	size := math.Max(4, float64(dc.Width())/64)

	// Yaw 0 faces -Z, which is up on the image
	fx, fy := -math.Sin(p.Yaw), -math.Cos(p.Yaw)
	rx, ry := -fy, fx

	dc.SetColor(color.RGBA{255, 255, 255, 255})
	dc.MoveTo(x+fx*size, y+fy*size)
	dc.LineTo(x-fx*size*0.6+rx*size*0.6, y-fy*size*0.6+ry*size*0.6)
	dc.LineTo(x-fx*size*0.6-rx*size*0.6, y-fy*size*0.6-ry*size*0.6)
	dc.ClosePath()
	dc.Fill()
}

// rgba unpacks a 0xRRGGBB color
func rgba(c uint32, a uint8) color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: a}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
