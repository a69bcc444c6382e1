package systems

import (
	"testing"

	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/renderer"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
	"github.com/spaghettifunk/gardenia/engine/renderer/stub"
)

type stubs struct {
	created []*stub.Backend
}

func (s *stubs) factory() BackendFactory {
	return func() renderer.RendererBackend {
		b := stub.New()
		s.created = append(s.created, b)
		return b
	}
}

func (s *stubs) last() *stub.Backend {
	if len(s.created) == 0 {
		return nil
	}
	return s.created[len(s.created)-1]
}

func testSceneConfig() SceneConfig {
	return SceneConfig{
		Renderer:      metadata.RendererConfig{ApplicationName: "test", PreserveDrawingBuffer: true},
		Geometry:      GeometryBuilderConfig{CircleSegments: 64, TileSize: 2, BorderThickness: 0.15},
		Surface:       "grass",
		Border:        "stone",
		BorderHeight:  0.3,
		ShadowMapSize: 256,
	}
}

func newTestCache(t *testing.T, arena *metadata.ResourceArena, max uint32) *TextureCache {
	t.Helper()
	tc, err := NewTextureCache(TextureCacheConfig{MaxTextureCount: max, TextureSize: 16, SpriteSize: 16}, arena, nil)
	if err != nil {
		t.Fatal(err)
	}
	return tc
}

func newTestScene(t *testing.T, config SceneConfig) (*SceneManager, *stubs) {
	t.Helper()
	arena, err := metadata.NewResourceArena(metadata.ResourceArenaConfig{MaxResourceCount: 1024})
	if err != nil {
		t.Fatal(err)
	}
	s := &stubs{}
	sm, err := NewSceneManager(config, arena, newTestCache(t, arena, DEFAULT_MAX_TEXTURE_COUNT), s.factory())
	if err != nil {
		t.Fatal(err)
	}
	return sm, s
}

func testPlants() []garden.PlantInstance3D {
	return []garden.PlantInstance3D{
		garden.NewPlantInstance("p1", "oak", "Oak", math.NewVec3(1, 1, 0),
			garden.Dimensions{Height: 4, Spread: 3}, garden.Properties{Category: garden.CategoryTree, LeafColor: "green"}),
		garden.NewPlantInstance("p2", "box", "Box", math.NewVec3(2, 1, 0),
			garden.Dimensions{Height: 1, Spread: 1}, garden.Properties{Category: garden.CategoryShrub, LeafColor: "dark green"}),
		garden.NewPlantInstance("p3", "salvia", "Salvia", math.NewVec3(3, 2, 0),
			garden.Dimensions{Height: 0.5, Spread: 0.4}, garden.Properties{Category: garden.CategoryPerennial, FlowerColor: "purple"}),
	}
}

func rectangle() garden.GardenBounds {
	return garden.NewRectangleBounds(math.NewVec2(0, 0), math.NewVec2(6, 4))
}

// newTestRenderer returns a renderer on a stub backend sharing arena.
func newTestRenderer(t *testing.T, arena *metadata.ResourceArena) (*renderer.Renderer, *stub.Backend) {
	t.Helper()
	b := stub.New()
	r, err := renderer.New(b, arena, metadata.RendererConfig{Width: 64, Height: 64, PreserveDrawingBuffer: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Shutdown() })
	return r, b
}
