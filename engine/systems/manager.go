package systems

import (
	"fmt"

	"github.com/gogpu/gg"

	"github.com/spaghettifunk/gardenia/engine/config"
	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/renderer"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
	"github.com/spaghettifunk/gardenia/engine/renderer/software"
	"github.com/spaghettifunk/gardenia/engine/renderer/stub"
	"github.com/spaghettifunk/gardenia/engine/resources"
)

/**
 * @brief Owns the scene side systems and wires them together.
 */
type SystemManager struct {
	Arena    *metadata.ResourceArena
	Textures *TextureCache
	Scene    *SceneManager
	Loop     *RenderLoop
	Export   *ExportPipeline
	Jobs     *JobSystem
}

// BackendFactoryFor maps the configured backend name to a factory.
func BackendFactoryFor(name string) (BackendFactory, error) {
	t, ok := renderer.ParseRendererType(name)
	if !ok {
		return nil, fmt.Errorf("unknown renderer backend %q", name)
	}
	switch t {
	case renderer.Stub:
		return func() renderer.RendererBackend { return stub.New() }, nil
	default:
		return func() renderer.RendererBackend { return software.New() }, nil
	}
}

// ParseColour reads "#rrggbb" or "#rrggbbaa" into a colour vector.
func ParseColour(hex string) math.Vec4 {
	c := gg.Hex(hex)
	return math.NewVec4(float32(c.R), float32(c.G), float32(c.B), float32(c.A))
}

/**
 * @brief Builds every system from the configuration. newBackend and
 * newScheduler may be nil, in which case the configured backend and a
 * ticker at loop.fps are used.
 */
func NewSystemManager(cfg *config.Config, palette *resources.Palette, newBackend BackendFactory, newScheduler func() FrameScheduler) (*SystemManager, error) {
	if newBackend == nil {
		var err error
		if newBackend, err = BackendFactoryFor(cfg.Renderer.Backend); err != nil {
			core.LogError("%s", err)
			return nil, err
		}
	}
	if newScheduler == nil {
		fps := uint32(cfg.Loop.FPS)
		newScheduler = func() FrameScheduler { return NewTickerScheduler(fps) }
	}

	arena, err := metadata.NewResourceArena(metadata.ResourceArenaConfig{
		MaxResourceCount: cfg.Renderer.MaxResources,
	})
	if err != nil {
		return nil, err
	}
	tc, err := NewTextureCache(TextureCacheConfig{
		MaxTextureCount: uint32(cfg.Textures.MaxEntries),
		TextureSize:     cfg.Textures.Size,
		SpriteSize:      cfg.Textures.SpriteSize,
	}, arena, palette)
	if err != nil {
		return nil, err
	}
	sm, err := NewSceneManager(SceneConfig{
		Renderer: metadata.RendererConfig{
			ApplicationName:       "gardenia",
			PreserveDrawingBuffer: cfg.Renderer.PreserveDrawingBuffer,
			ClearColour:           ParseColour(cfg.Renderer.ClearColour),
			Antialias:             cfg.Renderer.Antialias,
		},
		Geometry: GeometryBuilderConfig{
			CircleSegments:  uint32(cfg.Scene.CircleSegments),
			TileSize:        cfg.Scene.TileSize,
			BorderThickness: cfg.Scene.BorderThickness,
		},
		Surface:       cfg.Scene.Surface,
		Border:        cfg.Scene.Border,
		BorderHeight:  cfg.Scene.BorderHeight,
		ShadowMapSize: cfg.Renderer.ShadowMapSize,
		ShowGrid:      cfg.Scene.ShowGrid,
		ShowAxes:      cfg.Scene.ShowAxes,
	}, arena, tc, newBackend)
	if err != nil {
		return nil, err
	}
	js, err := NewJobSystem(cfg.Server.JobWorkers, cfg.Server.JobQueue)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	return &SystemManager{
		Arena:    arena,
		Textures: tc,
		Scene:    sm,
		Loop:     NewRenderLoop(sm, newScheduler),
		Export:   NewExportPipeline(sm),
		Jobs:     js,
	}, nil
}

func (sm *SystemManager) Shutdown() error {
	sm.Loop.Stop()
	sm.Scene.Dispose()
	sm.Textures.Clear()
	if err := sm.Jobs.Shutdown(); err != nil {
		return err
	}
	if live := sm.Arena.LiveTotal(); live > 0 {
		core.LogWarn("%d resource handles still live at shutdown", live)
	}
	return nil
}
