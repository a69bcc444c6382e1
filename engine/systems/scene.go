package systems

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/renderer"
	"github.com/spaghettifunk/gardenia/engine/renderer/components"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
	"github.com/spaghettifunk/gardenia/engine/resources"
)

type SceneState int

const (
	SceneStateEmpty SceneState = iota
	SceneStateBuilding
	SceneStateReady
	SceneStateResetting
	SceneStateDisposed
)

func (s SceneState) String() string {
	switch s {
	case SceneStateEmpty:
		return "empty"
	case SceneStateBuilding:
		return "building"
	case SceneStateReady:
		return "ready"
	case SceneStateResetting:
		return "resetting"
	case SceneStateDisposed:
		return "disposed"
	}
	return "unknown"
}

// BackendFactory returns a fresh backend for every scene generation.
type BackendFactory func() renderer.RendererBackend

type Viewport struct {
	Width  uint32
	Height uint32
}

func (v Viewport) Aspect() float32 {
	if v.Height == 0 {
		return 1
	}
	return float32(v.Width) / float32(v.Height)
}

type SceneConfig struct {
	/** @brief Template for every renderer; the size comes from the viewport. */
	Renderer metadata.RendererConfig
	Geometry GeometryBuilderConfig
	Surface  string
	Border   string
	/** @brief Border wall height in metres. Zero disables borders. */
	BorderHeight float32
	/** @brief Shadow map resolution of the sun. Zero disables shadows. */
	ShadowMapSize uint32
	ShowGrid      bool
	ShowAxes      bool
}

// Stopper is anything that schedules frames against the scene.
type Stopper interface {
	Stop()
}

/**
 * @brief Owns the one live scene generation: its renderer, camera and every
 * object created through them. Build always tears the previous generation
 * down first, so repeated builds never leak. Textures are the exception;
 * they belong to the shared cache and outlive generations.
 */
type SceneManager struct {
	mu         sync.Mutex
	config     SceneConfig
	state      SceneState
	arena      *metadata.ResourceArena
	textures   *TextureCache
	newBackend BackendFactory
	loop       Stopper

	renderer   *renderer.Renderer
	camera     *components.Camera
	scene      *metadata.Scene
	billboards *BillboardFactory
	bounds     garden.GardenBounds
	plants     []garden.PlantInstance3D
	generation uint32
	elapsed    float64
}

func NewSceneManager(config SceneConfig, arena *metadata.ResourceArena, textures *TextureCache, newBackend BackendFactory) (*SceneManager, error) {
	if arena == nil || textures == nil || newBackend == nil {
		err := fmt.Errorf("func NewSceneManager - arena, texture cache and backend factory are required")
		core.LogError("%s", err)
		return nil, err
	}
	if config.Geometry.CircleSegments == 0 {
		config.Geometry.CircleSegments = DEFAULT_CIRCLE_SEGMENTS
	}
	sm := &SceneManager{
		config:     config,
		arena:      arena,
		textures:   textures,
		newBackend: newBackend,
	}
	// Runs with sm.mu held: Get is only called while building and palette
	// swaps go through SetPalette.
	textures.OnFree(func(t *metadata.Texture) {
		if sm.renderer != nil {
			sm.renderer.TextureDestroy(t)
		}
	})
	return sm, nil
}

// AttachLoop registers the scheduler stopped before every reset.
func (sm *SceneManager) AttachLoop(loop Stopper) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.loop = loop
}

func (sm *SceneManager) stopLoop() {
	sm.mu.Lock()
	loop := sm.loop
	sm.mu.Unlock()
	if loop != nil {
		loop.Stop()
	}
}

func (sm *SceneManager) State() SceneState {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state
}

func (sm *SceneManager) Generation() uint32 {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.generation
}

func (sm *SceneManager) HasScene() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.scene != nil && sm.renderer != nil
}

func (sm *SceneManager) Bounds() garden.GardenBounds {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.bounds
}

// Plants returns the plants of the live generation.
func (sm *SceneManager) Plants() []garden.PlantInstance3D {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	out := make([]garden.PlantInstance3D, len(sm.plants))
	copy(out, sm.plants)
	return out
}

func (sm *SceneManager) Arena() *metadata.ResourceArena {
	return sm.arena
}

func (sm *SceneManager) Textures() *TextureCache {
	return sm.textures
}

// SetSway installs the billboard sway hook on the live generation.
func (sm *SceneManager) SetSway(fn metadata.SwayFunc) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.billboards != nil {
		sm.billboards.SetSway(fn)
	}
}

/**
 * @brief Builds a new scene generation. A zero sized viewport is not an
 * error: nothing is built and nothing is torn down.
 */
func (sm *SceneManager) Build(viewport Viewport, bounds garden.GardenBounds, plants []garden.PlantInstance3D) error {
	if viewport.Width == 0 || viewport.Height == 0 {
		core.LogDebug("scene build skipped, no rendering surface (%dx%d)", viewport.Width, viewport.Height)
		return nil
	}
	sm.stopLoop()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.state == SceneStateDisposed {
		return core.ErrDisposed
	}
	sm.reset()
	sm.state = SceneStateBuilding

	if err := sm.build(viewport, bounds, plants); err != nil {
		core.LogError("scene build failed: %s", err)
		sm.reset()
		return err
	}
	sm.generation++
	sm.scene.Generation = sm.generation
	sm.bounds = bounds
	sm.plants = append(sm.plants[:0], plants...)
	sm.state = SceneStateReady
	sm.publishLive()

	core.LogInfo("scene generation %d built: %d billboards, %d live handles", sm.generation, len(sm.scene.Sprites), sm.arena.LiveTotal())
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_SCENE_BUILT,
		Data: &core.SceneEvent{
			Generation: sm.generation,
			Geometries: sm.arena.Live(metadata.ResourceKindGeometry),
			Materials:  sm.arena.Live(metadata.ResourceKindMaterial),
			Billboards: len(sm.scene.Sprites),
		},
	})
	return nil
}

func (sm *SceneManager) build(viewport Viewport, bounds garden.GardenBounds, plants []garden.PlantInstance3D) error {
	rc := sm.config.Renderer
	rc.Width = viewport.Width
	rc.Height = viewport.Height
	r, err := renderer.New(sm.newBackend(), sm.arena, rc)
	if err != nil {
		return err
	}
	sm.renderer = r
	sm.scene = &metadata.Scene{}

	center := math.NewVec3(bounds.Center.X, bounds.Center.Y, bounds.GroundHeight(bounds.Center))
	sm.camera = components.NewCamera(viewport.Aspect())
	sm.camera.Frame(center, bounds.Radius())

	gb, err := NewGeometryBuilder(sm.config.Geometry, r, sm.textures)
	if err != nil {
		return err
	}
	if sm.scene.Ground, err = gb.BuildGround(bounds, sm.config.Surface); err != nil {
		return err
	}
	if sm.config.BorderHeight > 0 {
		if sm.scene.Borders, err = gb.BuildBorders(bounds, sm.config.Border, sm.config.BorderHeight); err != nil {
			return err
		}
	}
	if sm.config.ShowGrid || sm.config.ShowAxes {
		if sm.scene.Helpers, err = gb.BuildHelpers(bounds, sm.config.ShowGrid, sm.config.ShowAxes); err != nil {
			return err
		}
	}

	sm.scene.Ambient = &metadata.AmbientLight{Colour: math.NewVec4(1, 1, 1, 1), Intensity: 0.45}
	sm.scene.Sun = &metadata.DirectionalLight{
		Name:        "sun",
		Direction:   math.NewVec3(-0.5, 0.6, -1).Normalized(),
		Colour:      math.NewVec4(1, 0.96, 0.88, 1),
		Intensity:   0.9,
		CastShadows: sm.config.ShadowMapSize > 0,
	}
	if sm.scene.Sun.CastShadows {
		if sm.scene.Sun.ShadowMap, err = r.CreateShadowMap(sm.config.ShadowMapSize); err != nil {
			return err
		}
	}

	sm.billboards = NewBillboardFactory(r, sm.textures)
	for _, p := range plants {
		sprite, err := sm.billboards.Build(p)
		if err != nil {
			return err
		}
		sm.scene.Sprites = append(sm.scene.Sprites, sprite)
	}
	return nil
}

// Reset tears the live generation down. Safe to call on an empty manager.
func (sm *SceneManager) Reset() {
	sm.stopLoop()
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.reset()
}

/**
 * @brief Disposes the live generation in order: billboards, the renderer,
 * the scene graph (geometries and materials, cache owned textures are only
 * given back), and the shadow maps. Disposal errors are logged, never
 * returned.
 */
func (sm *SceneManager) reset() {
	if sm.renderer == nil && sm.scene == nil {
		if sm.state != SceneStateDisposed {
			sm.state = SceneStateEmpty
		}
		return
	}
	sm.state = SceneStateResetting
	scene := sm.scene
	r := sm.renderer

	if scene != nil && r != nil {
		for _, s := range scene.Sprites {
			sm.disposeMaterial(r, s.Material)
			r.DestroySprite(s)
		}
		scene.Sprites = nil
	}

	if r != nil {
		if err := r.Shutdown(); err != nil {
			core.LogError("renderer shutdown during reset: %s", err)
		}
	}

	if scene != nil && r != nil {
		geometries := make(map[*metadata.Geometry]struct{})
		materials := make(map[*metadata.Material]struct{})
		scene.WalkMeshes(func(m *metadata.Mesh) {
			if m.Geometry != nil {
				geometries[m.Geometry] = struct{}{}
			}
			if m.Material != nil {
				materials[m.Material] = struct{}{}
			}
		})
		for g := range geometries {
			r.DestroyGeometry(g)
		}
		for m := range materials {
			sm.disposeMaterial(r, m)
		}
		for _, light := range scene.Lights() {
			if light.ShadowMap != nil {
				r.DestroyShadowMap(light.ShadowMap)
				light.ShadowMap = nil
			}
		}
	}

	generation := sm.generation
	sm.scene = nil
	sm.renderer = nil
	sm.camera = nil
	sm.billboards = nil
	sm.plants = nil
	sm.elapsed = 0
	sm.state = SceneStateEmpty
	sm.publishLive()

	core.LogDebug("scene generation %d reset, %d live handles remain", generation, sm.arena.LiveTotal())
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_SCENE_RESET,
		Data: &core.SceneEvent{Generation: generation},
	})
}

func (sm *SceneManager) disposeMaterial(r *renderer.Renderer, m *metadata.Material) {
	if m == nil || !m.Handle.IsValid() {
		return
	}
	if m.DiffuseMap != nil && m.DiffuseMap.Texture != nil {
		t := m.DiffuseMap.Texture
		if sm.textures.Contains(t) {
			// The cache keeps the texture; give back the material's borrow only.
			if _, err := sm.arena.Release(t.Handle); err != nil {
				core.LogError("release cached texture '%s': %s", t.Name, err)
			}
		} else {
			r.ReleaseTexture(t)
		}
	}
	r.DestroyMaterial(m)
}

// Dispose resets and refuses further builds.
func (sm *SceneManager) Dispose() {
	sm.Reset()
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.state = SceneStateDisposed
}

// Resize follows the viewport. A zero size is ignored.
func (sm *SceneManager) Resize(viewport Viewport) error {
	if viewport.Width == 0 || viewport.Height == 0 {
		return nil
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.renderer == nil {
		return nil
	}
	if err := sm.renderer.OnResize(viewport.Width, viewport.Height); err != nil {
		return err
	}
	sm.camera.SetAspect(viewport.Aspect())
	return nil
}

// SetPalette repaints every cached texture with the new colours. The live
// generation keeps its current textures until the next build.
func (sm *SceneManager) SetPalette(p *resources.Palette) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.textures.SetPalette(p)
}

/**
 * @brief Draws one frame of the live generation. Returns core.ErrNoScene
 * when there is nothing to draw.
 */
func (sm *SceneManager) Render(delta float64) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.scene == nil || sm.renderer == nil {
		return core.ErrNoScene
	}
	sm.elapsed += delta
	sm.billboards.Update(sm.scene.Sprites, sm.elapsed)
	return sm.renderer.DrawFrame(sm.packet(delta))
}

func (sm *SceneManager) packet(delta float64) *metadata.RenderPacket {
	return &metadata.RenderPacket{
		DeltaTime:      delta,
		Scene:          sm.scene,
		View:           sm.camera.GetView(),
		Projection:     sm.camera.GetProjection(),
		CameraPosition: sm.camera.Position,
	}
}

type sceneFrame struct {
	renderer *renderer.Renderer
	camera   *components.Camera
	packet   func() *metadata.RenderPacket
}

// do runs fn with the live renderer and camera while holding the scene lock.
func (sm *SceneManager) do(fn func(f *sceneFrame) error) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.scene == nil || sm.renderer == nil {
		return core.ErrNoScene
	}
	return fn(&sceneFrame{
		renderer: sm.renderer,
		camera:   sm.camera,
		packet:   func() *metadata.RenderPacket { return sm.packet(0) },
	})
}

type SceneStats struct {
	State      string         `json:"state"`
	Generation uint32         `json:"generation"`
	Billboards int            `json:"billboards"`
	Width      uint32         `json:"width"`
	Height     uint32         `json:"height"`
	Frames     uint64         `json:"frames"`
	Live       map[string]int `json:"live"`
	Textures   int            `json:"cachedTextures"`
}

func (sm *SceneManager) Stats() SceneStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	stats := SceneStats{
		State:      sm.state.String(),
		Generation: sm.generation,
		Live:       make(map[string]int),
		Textures:   sm.textures.Len(),
	}
	if sm.scene != nil {
		stats.Billboards = len(sm.scene.Sprites)
	}
	if sm.renderer != nil {
		stats.Width, stats.Height = sm.renderer.Size()
		stats.Frames = sm.renderer.FrameNumber()
	}
	for _, kind := range metadata.ResourceKinds() {
		stats.Live[kind.String()] = sm.arena.Live(kind)
	}
	return stats
}

func (sm *SceneManager) publishLive() {
	for _, kind := range metadata.ResourceKinds() {
		core.MetricsSetLiveResources(kind.String(), sm.arena.Live(kind))
	}
}
