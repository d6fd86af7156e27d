package minimap

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maze-arena/internal/game"
)

func newTestRenderer(t *testing.T) (*Renderer, *game.Engine) {
	t.Helper()
	e, err := game.NewEngine(game.EngineConfig{TickRate: 60, Tuning: game.DefaultTuning()})
	require.NoError(t, err)
	return NewRenderer(e.Layout()), e
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

// TestRenderPNG verifies a snapshot renders to a PNG of the requested size
func TestRenderPNG(t *testing.T) {
	r, e := newTestRenderer(t)

	data, err := r.RenderPNG(e.GetSnapshot(), DefaultOptions())
	require.NoError(t, err)
	img := decode(t, data)
	assert.Equal(t, image.Rect(0, 0, DefaultSize, DefaultSize), img.Bounds())

	// The hub room sits in the middle, the corners are background
	cr, cg, cb, _ := img.At(2, 2).RGBA()
	assert.Equal(t, [3]uint32{12 * 0x101, 12 * 0x101, 28 * 0x101}, [3]uint32{cr, cg, cb})
	mr, mg, mb, _ := img.At(DefaultSize/2, DefaultSize/2+20).RGBA()
	assert.NotEqual(t, [3]uint32{cr, cg, cb}, [3]uint32{mr, mg, mb})
}

// TestRenderPNGWithoutSnapshot verifies the static layout alone renders
func TestRenderPNGWithoutSnapshot(t *testing.T) {
	r, _ := newTestRenderer(t)
	data, err := r.RenderPNG(nil, Options{Size: 64})
	require.NoError(t, err)
	assert.Equal(t, 64, decode(t, data).Bounds().Dx())
}

// TestRenderPNGRejectsSize verifies size bounds
func TestRenderPNGRejectsSize(t *testing.T) {
	r, e := newTestRenderer(t)
	for _, size := range []int{0, -5, MaxSize + 1} {
		_, err := r.RenderPNG(e.GetSnapshot(), Options{Size: size})
		assert.True(t, errors.Is(err, ErrInvalidSize), "size %d", size)
	}
}

// TestRenderPNGConcurrent verifies parallel requests share the cached contexts
func TestRenderPNGConcurrent(t *testing.T) {
	r, e := newTestRenderer(t)
	snap := e.GetSnapshot()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(size int) {
			defer wg.Done()
			_, err := r.RenderPNG(snap, Options{Size: size, Mazes: true})
			errs <- err
		}(64 + (i%2)*64)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Len(t, r.contexts, 2)
}

// TestToPixel verifies north is up and the rooms fit inside the image
func TestToPixel(t *testing.T) {
	r, _ := newTestRenderer(t)
	scale := 256 / r.span

	nx, ny := r.toPixel(0, -110, scale)
	sx, sy := r.toPixel(0, 110, scale)
	assert.InDelta(t, nx, sx, 1e-9)
	assert.Less(t, ny, sy)

	for _, room := range r.layout.Rooms {
		x0, y0 := r.toPixel(room.MinX, room.MinZ, scale)
		x1, y1 := r.toPixel(room.MaxX, room.MaxZ, scale)
		assert.GreaterOrEqual(t, x0, 0.0)
		assert.GreaterOrEqual(t, y0, 0.0)
		assert.LessOrEqual(t, x1, 256.0)
		assert.LessOrEqual(t, y1, 256.0)
	}
}

// TestRGBA verifies 0xRRGGBB unpacking
func TestRGBA(t *testing.T) {
	c := rgba(0x22c55e, 128)
	assert.Equal(t, uint8(0x22), c.R)
	assert.Equal(t, uint8(0xc5), c.G)
	assert.Equal(t, uint8(0x5e), c.B)
	assert.Equal(t, uint8(128), c.A)
}

// TestRenderPNGLabels verifies room numbers only draw on large images
func TestRenderPNGLabels(t *testing.T) {
	r, _ := newTestRenderer(t)

	render := func(size int, labels bool) []byte {
		data, err := r.RenderPNG(nil, Options{Size: size, Labels: labels})
		require.NoError(t, err)
		return data
	}

	assert.NotEqual(t, render(256, false), render(256, true))
	assert.Equal(t, render(128, false), render(128, true))
}
