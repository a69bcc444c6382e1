package systems

import (
	"testing"

	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
	"github.com/spaghettifunk/gardenia/engine/resources"
)

func newArena(t *testing.T) *metadata.ResourceArena {
	t.Helper()
	arena, err := metadata.NewResourceArena(metadata.ResourceArenaConfig{MaxResourceCount: 256})
	if err != nil {
		t.Fatal(err)
	}
	return arena
}

func TestTextureCacheReturnsSameTextureForEqualKeys(t *testing.T) {
	tc := newTestCache(t, newArena(t), 10)

	a, err := tc.Get(PlantKey(garden.Properties{Category: "Tree", FlowerColor: " White", LeafColor: "green"}))
	if err != nil {
		t.Fatal(err)
	}
	b, err := tc.Get(PlantKey(garden.Properties{Category: "tree", FlowerColor: "white", LeafColor: "GREEN"}))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("equal style keys returned different textures")
	}
	c, err := tc.Get(PlantKey(garden.Properties{Category: "tree", FlowerColor: "red", LeafColor: "green"}))
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Fatalf("different flower colours share a texture")
	}
	if tc.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tc.Len())
	}
	if !a.HasTransparency() {
		t.Errorf("plant textures should be transparent")
	}
	if a.Ownership != metadata.OwnershipSharedCache {
		t.Errorf("ownership = %s, want shared cache", a.Ownership)
	}
}

func TestTextureCacheKindsDoNotCollide(t *testing.T) {
	tc := newTestCache(t, newArena(t), 10)
	s, err := tc.Get(SurfaceKey("gravel"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := tc.Get(BorderKey("gravel"))
	if err != nil {
		t.Fatal(err)
	}
	if s == b {
		t.Fatal("surface and border with the same name share a texture")
	}
}

func TestTextureCacheClearsAboveCeiling(t *testing.T) {
	arena := newArena(t)
	tc := newTestCache(t, arena, 3)

	first, err := tc.Get(SurfaceKey("grass"))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"mulch", "gravel"} {
		if _, err := tc.Get(SurfaceKey(s)); err != nil {
			t.Fatal(err)
		}
	}
	if got := arena.Live(metadata.ResourceKindTexture); got != 3 {
		t.Fatalf("live textures = %d, want 3", got)
	}

	if _, err := tc.Get(SurfaceKey("soil")); err != nil {
		t.Fatal(err)
	}
	if tc.Len() != 1 {
		t.Fatalf("Len() = %d after overflow, want 1", tc.Len())
	}
	if arena.IsLive(first.Handle) {
		t.Errorf("evicted texture is still live")
	}
	if tc.Contains(first) {
		t.Errorf("Contains reports an evicted texture")
	}

	again, err := tc.Get(SurfaceKey("grass"))
	if err != nil {
		t.Fatal(err)
	}
	if again == first {
		t.Errorf("rebuilt texture is the evicted one")
	}
}

func TestTextureCacheKeepsBorrowedTexturesAliveOnClear(t *testing.T) {
	arena := newArena(t)
	tc := newTestCache(t, arena, 10)
	var freed []*metadata.Texture
	tc.OnFree(func(t *metadata.Texture) { freed = append(freed, t) })

	tex, err := tc.Get(BorderKey("brick"))
	if err != nil {
		t.Fatal(err)
	}
	if err := arena.Retain(tex.Handle); err != nil {
		t.Fatal(err)
	}
	tc.Clear()
	if !arena.IsLive(tex.Handle) {
		t.Fatal("borrowed texture was freed by Clear")
	}
	if len(freed) != 0 {
		t.Fatalf("OnFree called for a borrowed texture")
	}

	other, err := tc.Get(SurfaceKey("paved"))
	if err != nil {
		t.Fatal(err)
	}
	tc.Clear()
	if len(freed) != 1 || freed[0] != other {
		t.Fatalf("OnFree = %v, want the unborrowed texture", freed)
	}
}

func TestTextureCacheSetPaletteRepaints(t *testing.T) {
	tc := newTestCache(t, newArena(t), 10)
	before, err := tc.Get(SurfaceKey("grass"))
	if err != nil {
		t.Fatal(err)
	}
	p := &resources.Palette{Surfaces: map[string]resources.Swatch{"grass": {Base: "#ff0000", Accent: "#ff0000"}}}
	tc.SetPalette(p)

	after, err := tc.Get(SurfaceKey("grass"))
	if err != nil {
		t.Fatal(err)
	}
	if before == after {
		t.Fatal("palette change kept the old texture")
	}
	px := after.Image.RGBAAt(0, 0)
	if px.R < 200 || px.G > 60 {
		t.Fatalf("repainted pixel = %v, want red", px)
	}
}

func TestNewTextureCacheRejectsZeroCeiling(t *testing.T) {
	if _, err := NewTextureCache(TextureCacheConfig{}, newArena(t), nil); err == nil {
		t.Fatal("expected an error for a zero ceiling")
	}
}
