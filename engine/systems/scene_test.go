package systems

import (
	"testing"

	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
	"github.com/spaghettifunk/gardenia/engine/renderer/stub"
)

func liveCounts(arena *metadata.ResourceArena) map[metadata.ResourceKind]int {
	out := make(map[metadata.ResourceKind]int)
	for _, k := range metadata.ResourceKinds() {
		out[k] = arena.Live(k)
	}
	return out
}

func TestRepeatedBuildsLeakNothing(t *testing.T) {
	sm, backends := newTestScene(t, testSceneConfig())
	viewport := Viewport{Width: 320, Height: 240}

	if err := sm.Build(viewport, rectangle(), testPlants()); err != nil {
		t.Fatal(err)
	}
	first := liveCounts(sm.Arena())
	want := map[metadata.ResourceKind]int{
		metadata.ResourceKindRenderer:  1,
		metadata.ResourceKindGeometry:  2, // ground and the shared border box
		metadata.ResourceKindMaterial:  5, // ground, border, three plants
		metadata.ResourceKindSprite:    3,
		metadata.ResourceKindShadowMap: 1,
		metadata.ResourceKindTexture:   5,
	}
	for k, n := range want {
		if first[k] != n {
			t.Errorf("after first build live %s = %d, want %d", k, first[k], n)
		}
	}

	for i := 0; i < 10; i++ {
		if err := sm.Build(viewport, rectangle(), testPlants()); err != nil {
			t.Fatal(err)
		}
	}
	after := liveCounts(sm.Arena())
	for k, n := range first {
		if after[k] != n {
			t.Errorf("after 11 builds live %s = %d, want %d", k, after[k], n)
		}
	}
	if got := sm.Arena().LiveByOwnership(metadata.ResourceKindTexture, metadata.OwnershipExclusive); got != 0 {
		t.Errorf("exclusive textures = %d, want 0", got)
	}
	if sm.Generation() != 11 {
		t.Errorf("generation = %d, want 11", sm.Generation())
	}

	if len(backends.created) != 11 {
		t.Fatalf("backends created = %d, want 11", len(backends.created))
	}
	for i, b := range backends.created[:10] {
		if live := b.Live(); live != (stub.Counts{}) {
			t.Errorf("backend %d still holds %+v", i, live)
		}
	}
	live := backends.last().Live()
	if live.Geometries != 2 || live.ShadowMaps != 1 || live.Textures != 5 {
		t.Errorf("current backend live = %+v", live)
	}
}

func TestResetReleasesEverythingButTheCache(t *testing.T) {
	sm, backends := newTestScene(t, testSceneConfig())
	if err := sm.Build(Viewport{Width: 100, Height: 100}, rectangle(), testPlants()); err != nil {
		t.Fatal(err)
	}
	cached, err := sm.Textures().Get(SurfaceKey("grass"))
	if err != nil {
		t.Fatal(err)
	}

	sm.Reset()
	if sm.State() != SceneStateEmpty || sm.HasScene() {
		t.Fatalf("state = %s after reset", sm.State())
	}
	if got, want := sm.Arena().LiveTotal(), sm.Textures().Len(); got != want {
		t.Fatalf("live handles = %d after reset, want only the %d cached textures", got, want)
	}
	if backends.last().Live().Initialized != 0 {
		t.Errorf("backend not shut down")
	}

	again, err := sm.Textures().Get(SurfaceKey("grass"))
	if err != nil {
		t.Fatal(err)
	}
	if again != cached {
		t.Errorf("cached texture did not survive the reset")
	}

	// Resetting twice is harmless.
	sm.Reset()
}

func TestCacheOverflowDuringSceneDoesNotLeak(t *testing.T) {
	arena := newArena(t)
	s := &stubs{}
	sm, err := NewSceneManager(testSceneConfig(), arena, newTestCache(t, arena, 2), s.factory())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := sm.Build(Viewport{Width: 64, Height: 64}, rectangle(), testPlants()); err != nil {
			t.Fatal(err)
		}
	}
	sm.Reset()
	if got, want := arena.Live(metadata.ResourceKindTexture), sm.Textures().Len(); got != want {
		t.Fatalf("live textures = %d, want %d cached", got, want)
	}
	if got := arena.LiveTotal(); got != sm.Textures().Len() {
		t.Fatalf("live handles = %d after reset", got)
	}
}

func TestBuildWithoutSurfaceIsSilent(t *testing.T) {
	sm, backends := newTestScene(t, testSceneConfig())
	for _, vp := range []Viewport{{0, 0}, {100, 0}, {0, 100}} {
		if err := sm.Build(vp, rectangle(), testPlants()); err != nil {
			t.Fatalf("Build(%v) = %v, want nil", vp, err)
		}
	}
	if len(backends.created) != 0 {
		t.Fatalf("a backend was created without a surface")
	}
	if sm.Arena().LiveTotal() != 0 || sm.State() != SceneStateEmpty {
		t.Fatalf("state %s with %d live handles", sm.State(), sm.Arena().LiveTotal())
	}
}

func TestDisposedManagerRefusesBuilds(t *testing.T) {
	sm, _ := newTestScene(t, testSceneConfig())
	sm.Dispose()
	if err := sm.Build(Viewport{Width: 10, Height: 10}, rectangle(), nil); err != core.ErrDisposed {
		t.Fatalf("Build after Dispose = %v, want ErrDisposed", err)
	}
}

func TestRenderWithoutScene(t *testing.T) {
	sm, _ := newTestScene(t, testSceneConfig())
	if err := sm.Render(0.016); err != core.ErrNoScene {
		t.Fatalf("Render = %v, want ErrNoScene", err)
	}
}

func TestStatsReportLiveResources(t *testing.T) {
	sm, _ := newTestScene(t, testSceneConfig())
	if err := sm.Build(Viewport{Width: 80, Height: 60}, rectangle(), testPlants()); err != nil {
		t.Fatal(err)
	}
	stats := sm.Stats()
	if stats.State != "ready" || stats.Billboards != 3 || stats.Width != 80 || stats.Height != 60 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.Live["sprite"] != 3 {
		t.Errorf("live sprites = %d, want 3", stats.Live["sprite"])
	}
}
