// Package stub is a renderer backend that draws nothing and counts every
// object it is asked to create and destroy.
package stub

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

type Counts struct {
	Initialized int
	Shutdown    int
	Textures    int
	Geometries  int
	ShadowMaps  int
	Frames      int
	Resizes     int
}

type Backend struct {
	mu     sync.Mutex
	config metadata.RendererConfig
	live   Counts
	total  Counts

	// DrawErr is returned by every DrawFrame while set.
	DrawErr error
	// DrawPanic makes DrawFrame panic with this value while set.
	DrawPanic interface{}
	// OnDraw runs inside DrawFrame, after the failure hooks.
	OnDraw func(packet *metadata.RenderPacket)
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Initialize(config metadata.RendererConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config = config
	b.live.Initialized++
	b.total.Initialized++
	return nil
}

func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.live.Initialized == 0 {
		return fmt.Errorf("stub backend: shutdown without initialize")
	}
	// Everything still uploaded goes away with the device.
	b.live = Counts{}
	b.total.Shutdown++
	return nil
}

func (b *Backend) Resized(width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.config.Width = width
	b.config.Height = height
	b.total.Resizes++
	return nil
}

func (b *Backend) TextureCreate(texture *metadata.Texture) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	texture.InternalData = b
	b.live.Textures++
	b.total.Textures++
	return nil
}

func (b *Backend) TextureDestroy(texture *metadata.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.live.Textures > 0 {
		b.live.Textures--
	}
}

func (b *Backend) CreateGeometry(geometry *metadata.Geometry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	geometry.InternalData = b
	b.live.Geometries++
	b.total.Geometries++
	return nil
}

func (b *Backend) DestroyGeometry(geometry *metadata.Geometry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if geometry.InternalData == b && b.live.Geometries > 0 {
		b.live.Geometries--
	}
}

func (b *Backend) ShadowMapCreate(shadow *metadata.ShadowMap) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	shadow.InternalData = b
	b.live.ShadowMaps++
	b.total.ShadowMaps++
	return nil
}

func (b *Backend) ShadowMapDestroy(shadow *metadata.ShadowMap) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if shadow.InternalData == b && b.live.ShadowMaps > 0 {
		b.live.ShadowMaps--
	}
}

func (b *Backend) DrawFrame(packet *metadata.RenderPacket) error {
	b.mu.Lock()
	drawErr, drawPanic, onDraw := b.DrawErr, b.DrawPanic, b.OnDraw
	b.mu.Unlock()

	if drawPanic != nil {
		panic(drawPanic)
	}
	if drawErr != nil {
		return drawErr
	}
	if onDraw != nil {
		onDraw(packet)
	}

	b.mu.Lock()
	b.live.Frames++
	b.total.Frames++
	b.mu.Unlock()
	return nil
}

// ReadPixels returns an opaque grey frame of the current size.
func (b *Backend) ReadPixels() (*metadata.ImageData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, h := b.config.Width, b.config.Height
	pixels := make([]uint8, int(w)*int(h)*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = 128, 128, 128, 255
	}
	return &metadata.ImageData{ChannelCount: 4, Width: w, Height: h, Pixels: pixels}, nil
}

func (b *Backend) SetDrawError(err error) {
	b.mu.Lock()
	b.DrawErr = err
	b.mu.Unlock()
}

func (b *Backend) SetDrawPanic(v interface{}) {
	b.mu.Lock()
	b.DrawPanic = v
	b.mu.Unlock()
}

// Live reports objects currently held by this backend.
func (b *Backend) Live() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Total reports everything ever created on this backend.
func (b *Backend) Total() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

func (b *Backend) Size() (uint32, uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.config.Width, b.config.Height
}
