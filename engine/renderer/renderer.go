package renderer

import (
	"fmt"

	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

/**
 * @brief Front end over a backend. Every object it creates gets an arena
 * entry; textures are borrowed and uploaded on first use.
 */
type Renderer struct {
	backend     RendererBackend
	arena       *metadata.ResourceArena
	config      metadata.RendererConfig
	handle      metadata.Handle
	uploaded    map[metadata.Handle]*metadata.Texture
	frameNumber uint64
	shutdown    bool
}

func New(backend RendererBackend, arena *metadata.ResourceArena, config metadata.RendererConfig) (*Renderer, error) {
	if config.Width == 0 || config.Height == 0 {
		return nil, core.ErrNoSurface
	}
	handle, err := arena.Acquire(metadata.ResourceKindRenderer, metadata.OwnershipExclusive, config.ApplicationName)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	if err := backend.Initialize(config); err != nil {
		core.LogError("renderer backend failed to initialize: %s", err)
		_, _ = arena.Release(handle)
		return nil, err
	}
	return &Renderer{
		backend:  backend,
		arena:    arena,
		config:   config,
		handle:   handle,
		uploaded: make(map[metadata.Handle]*metadata.Texture),
	}, nil
}

/**
 * @brief Frees every backend upload and the renderer itself. Objects created
 * through the renderer can still be destroyed afterwards; only their arena
 * entries are released then.
 */
func (r *Renderer) Shutdown() error {
	if r.shutdown {
		return nil
	}
	r.shutdown = true
	for h, t := range r.uploaded {
		r.backend.TextureDestroy(t)
		delete(r.uploaded, h)
	}
	err := r.backend.Shutdown()
	if err != nil {
		core.LogError("renderer backend shutdown: %s", err)
	}
	if _, rerr := r.arena.Release(r.handle); rerr != nil {
		core.LogError("%s", rerr)
	}
	return err
}

func (r *Renderer) IsShutdown() bool {
	return r.shutdown
}

func (r *Renderer) Config() metadata.RendererConfig {
	return r.config
}

func (r *Renderer) Size() (uint32, uint32) {
	return r.config.Width, r.config.Height
}

func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}

func (r *Renderer) Arena() *metadata.ResourceArena {
	return r.arena
}

func (r *Renderer) OnResize(width, height uint32) error {
	if width == 0 || height == 0 {
		return core.ErrNoSurface
	}
	if err := r.backend.Resized(width, height); err != nil {
		core.LogError("%s", err)
		return err
	}
	r.config.Width = width
	r.config.Height = height
	return nil
}

// UploadTexture makes the texture available to the backend. Idempotent.
func (r *Renderer) UploadTexture(texture *metadata.Texture) error {
	if r.shutdown {
		return core.ErrDisposed
	}
	if _, ok := r.uploaded[texture.Handle]; ok {
		return nil
	}
	if err := r.backend.TextureCreate(texture); err != nil {
		core.LogError("failed to upload texture '%s': %s", texture.Name, err)
		return err
	}
	r.uploaded[texture.Handle] = texture
	return nil
}

// TextureDestroy drops the backend upload of a texture whose last arena
// reference is gone.
func (r *Renderer) TextureDestroy(texture *metadata.Texture) {
	if _, ok := r.uploaded[texture.Handle]; !ok {
		return
	}
	r.backend.TextureDestroy(texture)
	delete(r.uploaded, texture.Handle)
}

func (r *Renderer) UploadedTextureCount() int {
	return len(r.uploaded)
}

func (r *Renderer) CreateGeometry(config metadata.GeometryConfig) (*metadata.Geometry, error) {
	if r.shutdown {
		return nil, core.ErrDisposed
	}
	if len(config.Vertices) == 0 || len(config.Indices) == 0 {
		err := fmt.Errorf("geometry '%s' has no vertex or index data", config.Name)
		core.LogError("%s", err)
		return nil, err
	}
	handle, err := r.arena.Acquire(metadata.ResourceKindGeometry, metadata.OwnershipExclusive, config.Name)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	g := &metadata.Geometry{
		Handle:   handle,
		Center:   config.Center,
		Name:     config.Name,
		Vertices: config.Vertices,
		Indices:  config.Indices,
	}
	g.Extents.Min = config.MinExtents
	g.Extents.Max = config.MaxExtents
	if err := r.backend.CreateGeometry(g); err != nil {
		core.LogError("failed to create geometry '%s': %s", config.Name, err)
		_, _ = r.arena.Release(handle)
		return nil, err
	}
	return g, nil
}

func (r *Renderer) DestroyGeometry(g *metadata.Geometry) {
	if g == nil || !g.Handle.IsValid() {
		return
	}
	if !r.shutdown {
		r.backend.DestroyGeometry(g)
	}
	if _, err := r.arena.Release(g.Handle); err != nil {
		core.LogError("destroy geometry '%s': %s", g.Name, err)
	}
	g.Handle = metadata.InvalidHandle
	g.InternalData = nil
}

/**
 * @brief Creates a material. When diffuse is set the material borrows a
 * reference on its texture; the caller gives it back on disposal.
 */
func (r *Renderer) CreateMaterial(config metadata.MaterialConfig, diffuse *metadata.TextureMap) (*metadata.Material, error) {
	if r.shutdown {
		return nil, core.ErrDisposed
	}
	if diffuse != nil && diffuse.Texture != nil {
		if err := r.arena.Retain(diffuse.Texture.Handle); err != nil {
			core.LogError("material '%s' references a dead texture: %s", config.Name, err)
			return nil, err
		}
		if err := r.UploadTexture(diffuse.Texture); err != nil {
			r.releaseTexture(diffuse.Texture)
			return nil, err
		}
	}
	handle, err := r.arena.Acquire(metadata.ResourceKindMaterial, metadata.OwnershipExclusive, config.Name)
	if err != nil {
		if diffuse != nil && diffuse.Texture != nil {
			r.releaseTexture(diffuse.Texture)
		}
		core.LogError("%s", err)
		return nil, err
	}
	return &metadata.Material{
		Handle:         handle,
		Name:           config.Name,
		DiffuseColour:  config.DiffuseColour,
		DiffuseMap:     diffuse,
		Shininess:      config.Shininess,
		CastShadows:    config.CastShadows,
		ReceiveShadows: config.ReceiveShadows,
	}, nil
}

// DestroyMaterial releases the material entry only. Its texture reference is
// handled by the caller, which knows whether the texture is cache owned.
func (r *Renderer) DestroyMaterial(m *metadata.Material) {
	if m == nil || !m.Handle.IsValid() {
		return
	}
	if _, err := r.arena.Release(m.Handle); err != nil {
		core.LogError("destroy material '%s': %s", m.Name, err)
	}
	m.Handle = metadata.InvalidHandle
}

// ReleaseTexture gives back one texture reference and drops the upload when
// it was the last one. Returns true when the texture was freed.
func (r *Renderer) ReleaseTexture(t *metadata.Texture) bool {
	return r.releaseTexture(t)
}

func (r *Renderer) releaseTexture(t *metadata.Texture) bool {
	freed, err := r.arena.Release(t.Handle)
	if err != nil {
		core.LogError("release texture '%s': %s", t.Name, err)
		return false
	}
	if freed {
		r.TextureDestroy(t)
	}
	return freed
}

func (r *Renderer) CreateSprite(name string, material *metadata.Material) (*metadata.Sprite, error) {
	if r.shutdown {
		return nil, core.ErrDisposed
	}
	handle, err := r.arena.Acquire(metadata.ResourceKindSprite, metadata.OwnershipExclusive, name)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &metadata.Sprite{Handle: handle, Name: name, Material: material}, nil
}

func (r *Renderer) DestroySprite(s *metadata.Sprite) {
	if s == nil || !s.Handle.IsValid() {
		return
	}
	if _, err := r.arena.Release(s.Handle); err != nil {
		core.LogError("destroy sprite '%s': %s", s.Name, err)
	}
	s.Handle = metadata.InvalidHandle
}

func (r *Renderer) CreateShadowMap(size uint32) (*metadata.ShadowMap, error) {
	if r.shutdown {
		return nil, core.ErrDisposed
	}
	handle, err := r.arena.Acquire(metadata.ResourceKindShadowMap, metadata.OwnershipExclusive, "shadow_map")
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	sm := &metadata.ShadowMap{Handle: handle, Size: size}
	if err := r.backend.ShadowMapCreate(sm); err != nil {
		core.LogError("failed to create shadow map: %s", err)
		_, _ = r.arena.Release(handle)
		return nil, err
	}
	return sm, nil
}

func (r *Renderer) DestroyShadowMap(sm *metadata.ShadowMap) {
	if sm == nil || !sm.Handle.IsValid() {
		return
	}
	if !r.shutdown {
		r.backend.ShadowMapDestroy(sm)
	}
	if _, err := r.arena.Release(sm.Handle); err != nil {
		core.LogError("destroy shadow map: %s", err)
	}
	sm.Handle = metadata.InvalidHandle
	sm.InternalData = nil
}

func (r *Renderer) DrawFrame(packet *metadata.RenderPacket) error {
	if r.shutdown {
		return core.ErrDisposed
	}
	packet.Width = r.config.Width
	packet.Height = r.config.Height
	if err := r.backend.DrawFrame(packet); err != nil {
		core.LogError("DrawFrame failed: %s", err)
		return err
	}
	r.frameNumber++
	return nil
}

/**
 * @brief Reads back the last drawn frame. Only renderers created with
 * PreserveDrawingBuffer keep a readable frame.
 */
func (r *Renderer) ReadPixels() (*metadata.ImageData, error) {
	if r.shutdown {
		return nil, core.ErrDisposed
	}
	if !r.config.PreserveDrawingBuffer {
		return nil, core.ErrReadbackDisabled
	}
	return r.backend.ReadPixels()
}
