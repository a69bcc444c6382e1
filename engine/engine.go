package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spaghettifunk/gardenia/engine/assets"
	"github.com/spaghettifunk/gardenia/engine/config"
	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/photoreal"
	"github.com/spaghettifunk/gardenia/engine/resources"
	"github.com/spaghettifunk/gardenia/engine/storage"
	"github.com/spaghettifunk/gardenia/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete and requests are served
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released everything it owned
	EngineStageShutdown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting-down"
	case EngineStageShutdown:
		return "shutdown"
	}
	return "unknown"
}

var ErrNotRunning = errors.New("engine is not running")

const WIND_PERIOD_SECONDS float64 = 4

/** @brief What to build: a garden description, its plants and the viewport. */
type SceneRequest struct {
	Description garden.Description   `json:"garden"`
	Plants      []garden.PlacedPlant `json:"plants"`
	// Extra catalog entries, looked up before the loaded inventories.
	Catalog []garden.PlantAttributes `json:"catalog,omitempty"`
	Width   uint32                   `json:"width"`
	Height  uint32                   `json:"height"`
	// Season the photoreal passes aim for; empty uses today's.
	Season garden.Season `json:"season,omitempty"`
}

type ExportResult struct {
	Artifact storage.Info       `json:"artifact"`
	Session  photoreal.Snapshot `json:"session"`
}

/**
 * @brief Owns every subsystem: scene and render loop, assets, artifact
 * storage and the photoreal pipeline. Safe for concurrent use.
 */
type Engine struct {
	mu            sync.Mutex
	currentStage  Stage
	name          string
	config        *config.Config
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	store         storage.Store
	photoreal     *photoreal.StateMachine
	// Context of the current scene, handed to new photoreal sessions.
	scene photoreal.SceneContext
}

func New(cfg *config.Config, app ApplicationConfig) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if app.Name == "" {
		app.Name = "gardenia"
	}
	core.SetLogLevel(cfg.Log.Level)

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	sm, err := systems.NewSystemManager(cfg, resources.DefaultPalette(), app.Backend, app.Scheduler)
	if err != nil {
		core.LogError("%s", err)
		am.Shutdown()
		return nil, err
	}

	store := app.Store
	if store == nil {
		if store, err = storage.Open(context.Background(), cfg.Storage); err != nil {
			sm.Shutdown()
			am.Shutdown()
			return nil, err
		}
	}

	enhancer := app.Enhancer
	if enhancer == nil && cfg.Enhancer.BaseURL == "" {
		core.LogWarn("enhancer.base_url not set, photorealization is disabled")
		enhancer = photoreal.DisabledEnhancer{}
	} else if enhancer == nil {
		client, err := photoreal.NewHTTPEnhancer(photoreal.HTTPEnhancerConfigFrom(cfg.Enhancer), nil)
		if err != nil {
			sm.Shutdown()
			am.Shutdown()
			return nil, fmt.Errorf("enhancer: %w", err)
		}
		enhancer = client
	}
	dispatcher := app.Dispatcher
	if dispatcher == nil {
		dispatcher = sm.Jobs
	}
	pr, err := photoreal.NewStateMachine(photoreal.StateMachineConfigFrom(cfg), enhancer, dispatcher)
	if err != nil {
		sm.Shutdown()
		am.Shutdown()
		return nil, err
	}

	return &Engine{
		currentStage:  EngineStageUninitialized,
		name:          app.Name,
		config:        cfg,
		assetManager:  am,
		systemManager: sm,
		store:         store,
		photoreal:     pr,
	}, nil
}

/**
 * @brief Registers metrics and loads the asset directory. Palettes loaded
 * now or edited later repaint the texture cache.
 */
func (e *Engine) Initialize() error {
	e.mu.Lock()
	if e.currentStage != EngineStageUninitialized {
		e.mu.Unlock()
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	e.mu.Unlock()

	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	e.assetManager.OnReload(resources.ResourceTypePalette, func(res *resources.Resource) {
		p, ok := res.Data.(*resources.Palette)
		if !ok {
			return
		}
		core.LogInfo("palette '%s' loaded, repainting textures", res.Name)
		e.systemManager.Scene.SetPalette(p)
	})

	if dir := e.config.Assets.Dir; dir != "" {
		if err := e.loadAssets(dir); err != nil {
			core.LogError("failed to load assets from %s: %s", dir, err)
			return err
		}
	}

	e.mu.Lock()
	e.currentStage = EngineStageRunning
	e.mu.Unlock()
	core.LogInfo("%s initialized (renderer %s, storage %s)", e.name, e.config.Renderer.Backend, e.store.Driver())
	return nil
}

func (e *Engine) loadAssets(dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		core.LogWarn("asset directory %s not found, using built-in palette only", dir)
		return nil
	}
	if e.config.Assets.Watch {
		return e.assetManager.Initialize(dir)
	}
	return e.assetManager.LoadDir(dir)
}

func (e *Engine) running() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.currentStage != EngineStageRunning {
		return fmt.Errorf("%w (%s)", ErrNotRunning, e.currentStage)
	}
	return nil
}

func (e *Engine) Stage() Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentStage
}

func (e *Engine) Config() *config.Config             { return e.config }
func (e *Engine) Systems() *systems.SystemManager    { return e.systemManager }
func (e *Engine) Assets() *assets.AssetManager       { return e.assetManager }
func (e *Engine) Store() storage.Store               { return e.store }
func (e *Engine) Photoreal() *photoreal.StateMachine { return e.photoreal }

// Inventory merges every loaded plant catalog with extra; extra wins.
func (e *Engine) Inventory(extra []garden.PlantAttributes) garden.MapInventory {
	inv := garden.MapInventory{}
	for _, res := range e.assetManager.List(resources.ResourceTypeInventory) {
		if m, ok := res.Data.(garden.MapInventory); ok {
			for id, attrs := range m {
				inv[id] = attrs
			}
		}
	}
	for _, attrs := range extra {
		inv[attrs.ID] = attrs
	}
	return inv
}

/**
 * @brief Builds a new scene generation from a description and (re)starts
 * the render loop. The previous generation is torn down first.
 */
func (e *Engine) BuildScene(req SceneRequest) (systems.SceneStats, error) {
	if err := e.running(); err != nil {
		return systems.SceneStats{}, err
	}
	bounds, err := req.Description.Bounds()
	if err != nil {
		core.LogError("invalid garden description: %s", err)
		return systems.SceneStats{}, err
	}
	inv := e.Inventory(req.Catalog)
	plants, err := req.Description.Plants(bounds, req.Plants, inv)
	if err != nil {
		return systems.SceneStats{}, err
	}

	sm := e.systemManager
	if err := sm.Scene.Build(systems.Viewport{Width: req.Width, Height: req.Height}, bounds, plants); err != nil {
		return systems.SceneStats{}, err
	}
	if !sm.Scene.HasScene() {
		// zero sized viewport, nothing was built
		return sm.Scene.Stats(), nil
	}
	if wind := e.config.Scene.Wind; wind > 0 {
		sm.Scene.SetSway(systems.WindSway(math.NewVec2(1, 0.35), wind, WIND_PERIOD_SECONDS))
	}

	e.mu.Lock()
	e.scene = photoreal.SceneContext{Bounds: bounds, Plants: plants, Inventory: inv, Season: req.Season}
	e.mu.Unlock()

	sm.Loop.Start()
	return sm.Scene.Stats(), nil
}

// BuildFixture builds a garden loaded from the asset directory.
func (e *Engine) BuildFixture(name string, width, height uint32) (systems.SceneStats, error) {
	res, ok := e.assetManager.Find(resources.ResourceTypeGarden, name)
	if !ok {
		return systems.SceneStats{}, fmt.Errorf("garden fixture %q not found", name)
	}
	fixture := res.Data.(*resources.GardenFixture)
	return e.BuildScene(SceneRequest{
		Description: fixture.Description,
		Plants:      fixture.Plants,
		Catalog:     fixture.Catalog,
		Width:       width,
		Height:      height,
	})
}

// ResetScene stops the loop and tears the current generation down.
func (e *Engine) ResetScene() error {
	if err := e.running(); err != nil {
		return err
	}
	e.systemManager.Scene.Reset()
	e.mu.Lock()
	e.scene = photoreal.SceneContext{}
	e.mu.Unlock()
	return nil
}

func (e *Engine) SceneStats() systems.SceneStats {
	return e.systemManager.Scene.Stats()
}

/**
 * @brief Renders a still at width x height, publishes the PNG and opens a
 * new photoreal session on it, superseding any previous one. A zero size
 * uses the configured export size.
 */
func (e *Engine) Export(ctx context.Context, width, height uint32) (ExportResult, error) {
	if err := e.running(); err != nil {
		return ExportResult{}, err
	}
	if width == 0 || height == 0 {
		width, height = e.config.Export.Width, e.config.Export.Height
	}
	data, err := e.systemManager.Export.ExportImage(width, height)
	if err != nil {
		return ExportResult{}, err
	}
	png, err := systems.EncodePNG(data)
	if err != nil {
		core.LogError("%s", err)
		return ExportResult{}, err
	}
	info, err := storage.PublishPNG(ctx, e.store, png)
	if err != nil {
		return ExportResult{}, err
	}

	e.mu.Lock()
	scene := e.scene
	e.mu.Unlock()
	snap, err := e.photoreal.NewSession(info.URL, scene)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Artifact: info, Session: snap}, nil
}

/**
 * @brief Seasonal variants of the completed session's final image for the
 * days startDay..endDay, wrapping over the new year when end < start. An
 * empty style uses enhancer.style.
 */
func (e *Engine) Seasonal(ctx context.Context, startDay, endDay int, style string) ([]garden.SeasonalImage, error) {
	if err := e.running(); err != nil {
		return nil, err
	}
	dates, err := garden.NewDateRange(startDay, endDay)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	scene := e.scene
	e.mu.Unlock()
	inv := scene.Inventory
	if inv == nil {
		inv = garden.MapInventory{}
	}
	manifest := garden.BuildManifest(scene.Bounds, scene.Plants, inv)
	return e.photoreal.SeasonalWithStyle(ctx, dates, manifest, style)
}

func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.currentStage == EngineStageShuttingDown || e.currentStage == EngineStageShutdown {
		e.mu.Unlock()
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.mu.Unlock()

	core.LogInfo("shutting down %s", e.name)
	var errs []error
	if err := e.systemManager.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	if err := e.assetManager.Shutdown(); err != nil {
		errs = append(errs, err)
	}

	e.mu.Lock()
	e.currentStage = EngineStageShutdown
	e.mu.Unlock()
	return errors.Join(errs...)
}
