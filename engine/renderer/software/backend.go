// Package software is a headless renderer backend. It projects the scene
// through the camera and paints it back to front onto a gg canvas.
package software

import (
	"fmt"
	"image"
	"sort"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

type textureUpload struct {
	image   *image.RGBA
	average math.Vec4
	// Pre-scaled copies keyed by pixel height bucket.
	scaled map[int]*gg.ImageBuf
}

type geometryUpload struct {
	geometry *metadata.Geometry
}

type Backend struct {
	config     metadata.RendererConfig
	ctx        *gg.Context
	textures   map[metadata.Handle]*textureUpload
	geometries map[metadata.Handle]*geometryUpload
	shadowMaps map[metadata.Handle]*metadata.ShadowMap
	// Set after a frame was drawn and kept for readback.
	hasFrame bool
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Initialize(config metadata.RendererConfig) error {
	if config.Width == 0 || config.Height == 0 {
		return fmt.Errorf("software backend: invalid size %dx%d", config.Width, config.Height)
	}
	b.config = config
	b.ctx = gg.NewContext(int(config.Width), int(config.Height))
	b.textures = make(map[metadata.Handle]*textureUpload)
	b.geometries = make(map[metadata.Handle]*geometryUpload)
	b.shadowMaps = make(map[metadata.Handle]*metadata.ShadowMap)
	core.LogDebug("software backend initialized at %dx%d", config.Width, config.Height)
	return nil
}

func (b *Backend) Shutdown() error {
	if b.ctx == nil {
		return nil
	}
	err := b.ctx.Close()
	b.ctx = nil
	b.textures = nil
	b.geometries = nil
	b.shadowMaps = nil
	b.hasFrame = false
	return err
}

func (b *Backend) Resized(width, height uint32) error {
	if b.ctx == nil {
		return core.ErrDisposed
	}
	if err := b.ctx.Resize(int(width), int(height)); err != nil {
		return err
	}
	b.config.Width = width
	b.config.Height = height
	b.hasFrame = false
	return nil
}

func (b *Backend) TextureCreate(texture *metadata.Texture) error {
	if b.ctx == nil {
		return core.ErrDisposed
	}
	if texture.Image == nil {
		return fmt.Errorf("texture '%s' has no pixels", texture.Name)
	}
	b.textures[texture.Handle] = &textureUpload{
		image:   texture.Image,
		average: averageColour(texture.Image),
		scaled:  make(map[int]*gg.ImageBuf),
	}
	return nil
}

func (b *Backend) TextureDestroy(texture *metadata.Texture) {
	delete(b.textures, texture.Handle)
}

func (b *Backend) CreateGeometry(geometry *metadata.Geometry) error {
	if b.ctx == nil {
		return core.ErrDisposed
	}
	if len(geometry.Indices)%3 != 0 {
		return fmt.Errorf("geometry '%s' index count %d is not a triangle list", geometry.Name, len(geometry.Indices))
	}
	b.geometries[geometry.Handle] = &geometryUpload{geometry: geometry}
	return nil
}

func (b *Backend) DestroyGeometry(geometry *metadata.Geometry) {
	delete(b.geometries, geometry.Handle)
}

func (b *Backend) ShadowMapCreate(shadow *metadata.ShadowMap) error {
	if b.ctx == nil {
		return core.ErrDisposed
	}
	b.shadowMaps[shadow.Handle] = shadow
	return nil
}

func (b *Backend) ShadowMapDestroy(shadow *metadata.ShadowMap) {
	delete(b.shadowMaps, shadow.Handle)
}

func (b *Backend) DrawFrame(packet *metadata.RenderPacket) error {
	if b.ctx == nil {
		return core.ErrDisposed
	}
	bg := b.config.ClearColour
	b.ctx.ClearWithColor(gg.RGBA2(float64(bg.X), float64(bg.Y), float64(bg.Z), float64(bg.W)))

	if packet.Scene != nil {
		items := b.collect(packet)
		// Far to near.
		sort.SliceStable(items, func(i, j int) bool { return items[i].depth > items[j].depth })
		for _, it := range items {
			if err := it.draw(b.ctx); err != nil {
				return err
			}
		}
	}
	b.hasFrame = true
	return nil
}

func (b *Backend) ReadPixels() (*metadata.ImageData, error) {
	if b.ctx == nil {
		return nil, core.ErrDisposed
	}
	if !b.hasFrame {
		return nil, fmt.Errorf("software backend: no frame drawn since last resize")
	}
	if err := b.ctx.FlushGPU(); err != nil {
		return nil, err
	}
	img := b.ctx.Image()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(img.Bounds())
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	return &metadata.ImageData{
		ChannelCount: 4,
		Width:        uint32(rgba.Bounds().Dx()),
		Height:       uint32(rgba.Bounds().Dy()),
		Pixels:       rgba.Pix,
	}, nil
}

// Canvas exposes the gg context for callers that want to encode directly.
func (b *Backend) Canvas() *gg.Context {
	return b.ctx
}

func averageColour(img *image.RGBA) math.Vec4 {
	var r, g, bl, a, n float32
	bounds := img.Bounds()
	// Every 4th pixel is plenty for a flat shade.
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 4 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 4 {
			c := img.RGBAAt(x, y)
			r += float32(c.R)
			g += float32(c.G)
			bl += float32(c.B)
			a += float32(c.A)
			n++
		}
	}
	if n == 0 {
		return math.NewVec4(1, 1, 1, 1)
	}
	return math.NewVec4(r/n/255, g/n/255, bl/n/255, a/n/255)
}
