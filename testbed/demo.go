package testbed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spaghettifunk/gardenia/engine"
	"github.com/spaghettifunk/gardenia/engine/config"
	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/photoreal"
	"github.com/spaghettifunk/gardenia/engine/storage"
	"github.com/spaghettifunk/gardenia/engine/systems"
)

const DEMO_FRAMES int = 5

// DemoCatalog is the plant catalog of the demo bed.
func DemoCatalog() []garden.PlantAttributes {
	return []garden.PlantAttributes{
		{ID: "betula-pendula", CommonName: "Silver Birch", BotanicalName: "Betula pendula", Category: garden.CategoryTree,
			FoliageColor: "green", BloomTime: "spring", BloomMonths: []int{4, 5}, MatureHeight: 15, MatureSpread: 6, CurrentHeight: 4, CurrentSpread: 2},
		{ID: "buxus", CommonName: "Box", BotanicalName: "Buxus sempervirens", Category: garden.CategoryShrub,
			FoliageColor: "dark green", MatureHeight: 1.2, MatureSpread: 1},
		{ID: "lavandula", CommonName: "English Lavender", BotanicalName: "Lavandula angustifolia", Category: garden.CategoryPerennial,
			FlowerColor: "purple", FoliageColor: "silver", BloomTime: "summer", BloomMonths: []int{6, 7, 8}, MatureHeight: 0.6, MatureSpread: 0.6},
		{ID: "salvia", CommonName: "Woodland Sage", BotanicalName: "Salvia nemorosa", Category: garden.CategoryPerennial,
			FlowerColor: "violet", BloomTime: "summer", BloomMonths: []int{6, 7, 8, 9}, MatureHeight: 0.5, MatureSpread: 0.4},
		{ID: "helleborus", CommonName: "Christmas Rose", BotanicalName: "Helleborus niger", Category: garden.CategoryPerennial,
			FlowerColor: "white", FoliageColor: "dark green", BloomTime: "winter", BloomMonths: []int{12, 1, 2}, MatureHeight: 0.3, MatureSpread: 0.4},
	}
}

/**
 * @brief An L-shaped bed, 6 m by 4 m, with a birch in the corner, a box
 * hedge along the long side and perennials in front.
 */
func DemoScene(width, height uint32) engine.SceneRequest {
	placed := []garden.PlacedPlant{
		{ID: "tree-1", PlantID: "betula-pendula", Position: garden.Point{X: 1, Y: 3}},
	}
	for i := 0; i < 4; i++ {
		placed = append(placed, garden.PlacedPlant{
			ID:       fmt.Sprintf("box-%d", i+1),
			PlantID:  "buxus",
			Position: garden.Point{X: 0.6 + float32(i)*1.3, Y: 0.5},
		})
	}
	placed = append(placed,
		garden.PlacedPlant{ID: "lav-1", PlantID: "lavandula", Position: garden.Point{X: 2.2, Y: 1.4}},
		garden.PlacedPlant{ID: "lav-2", PlantID: "lavandula", Position: garden.Point{X: 3, Y: 1.2}},
		garden.PlacedPlant{ID: "sal-1", PlantID: "salvia", Position: garden.Point{X: 4.2, Y: 1.3}},
		garden.PlacedPlant{ID: "hel-1", PlantID: "helleborus", Position: garden.Point{X: 1.6, Y: 2.2}},
	)
	return engine.SceneRequest{
		Description: garden.Description{
			Shape:      garden.ShapeLShaped.String(),
			Units:      garden.UnitsMeters,
			Dimensions: garden.DescriptionDimensions{Width: 6, Length: 4},
			Slope:      2,
		},
		Plants:  placed,
		Catalog: DemoCatalog(),
		Width:   width,
		Height:  height,
	}
}

/**
 * @brief Builds the demo bed on the configured renderer, draws a few frames
 * and writes an export to path. No server, no enhancer.
 */
func RunDemo(cfg *config.Config, path string) error {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Assets.Watch = false
	scheduler := systems.NewManualScheduler()
	eng, err := engine.New(cfg, engine.ApplicationConfig{
		Name:       "gardenia demo",
		Scheduler:  func() systems.FrameScheduler { return scheduler },
		Enhancer:   photoreal.DisabledEnhancer{},
		Dispatcher: photoreal.InlineDispatcher{},
		Store:      storage.NewMemoryStore(""),
	})
	if err != nil {
		return err
	}
	defer eng.Shutdown()
	if err := eng.Initialize(); err != nil {
		return err
	}

	stats, err := eng.BuildScene(DemoScene(cfg.Renderer.Width, cfg.Renderer.Height))
	if err != nil {
		return err
	}
	core.LogInfo("demo scene built: generation %d, %d billboards", stats.Generation, stats.Billboards)
	for i := 0; i < DEMO_FRAMES; i++ {
		if !scheduler.Step(time.Second) {
			core.LogWarn("render loop did not pick up frame %d", i)
			break
		}
	}

	ctx := context.Background()
	res, err := eng.Export(ctx, cfg.Export.Width, cfg.Export.Height)
	if err != nil {
		return err
	}
	_, rc, err := eng.Store().Get(ctx, res.Artifact.Key)
	if err != nil {
		return err
	}
	defer rc.Close()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	core.LogInfo("demo export written to %s (%dx%d, %d bytes)", path, cfg.Export.Width, cfg.Export.Height, res.Artifact.Size)
	return nil
}
