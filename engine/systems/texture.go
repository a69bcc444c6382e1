package systems

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
	"github.com/spaghettifunk/gardenia/engine/resources"
)

/** @brief Default ceiling of the texture cache. */
const DEFAULT_MAX_TEXTURE_COUNT uint32 = 50

type StyleKind int

const (
	StyleKindSurface StyleKind = iota
	StyleKindBorder
	StyleKindPlant
)

func (k StyleKind) String() string {
	switch k {
	case StyleKindSurface:
		return "surface"
	case StyleKindBorder:
		return "border"
	case StyleKindPlant:
		return "plant"
	}
	return "unknown"
}

/**
 * @brief Typed cache key. Only the fields relevant to Kind are set; use the
 * constructors so equal styles produce equal keys.
 */
type StyleKey struct {
	Kind        StyleKind
	Material    string
	Category    garden.Category
	FlowerColor string
	LeafColor   string
}

func normalizeStyle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func SurfaceKey(surface string) StyleKey {
	return StyleKey{Kind: StyleKindSurface, Material: normalizeStyle(surface)}
}

func BorderKey(border string) StyleKey {
	return StyleKey{Kind: StyleKindBorder, Material: normalizeStyle(border)}
}

func PlantKey(props garden.Properties) StyleKey {
	return StyleKey{
		Kind:        StyleKindPlant,
		Category:    garden.NormalizeCategory(string(props.Category)),
		FlowerColor: normalizeStyle(props.FlowerColor),
		LeafColor:   normalizeStyle(props.LeafColor),
	}
}

func (k StyleKey) String() string {
	if k.Kind == StyleKindPlant {
		return fmt.Sprintf("plant:%s:%s:%s", k.Category, k.FlowerColor, k.LeafColor)
	}
	return k.Kind.String() + ":" + k.Material
}

type TextureCacheConfig struct {
	/** @brief Entries kept before the whole cache is dropped. */
	MaxTextureCount uint32
	/** @brief Edge length of surface and border textures. */
	TextureSize uint32
	/** @brief Edge length of plant sprite textures. */
	SpriteSize uint32
}

/**
 * @brief Lazily paints and memoizes the procedural textures. The cache holds
 * one arena reference per texture for as long as the entry exists; materials
 * borrow further references through the renderer.
 */
type TextureCache struct {
	mu      sync.Mutex
	config  TextureCacheConfig
	arena   *metadata.ResourceArena
	palette *resources.Palette
	entries map[StyleKey]*metadata.Texture
	owned   map[metadata.Handle]StyleKey
	// Called for every texture whose last reference went away on Clear.
	onFree func(t *metadata.Texture)
}

func NewTextureCache(config TextureCacheConfig, arena *metadata.ResourceArena, palette *resources.Palette) (*TextureCache, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureCache - config.MaxTextureCount must be > 0")
		core.LogError("%s", err)
		return nil, err
	}
	if config.TextureSize == 0 {
		config.TextureSize = metadata.DEFAULT_TEXTURE_SIZE
	}
	if config.SpriteSize == 0 {
		config.SpriteSize = metadata.DEFAULT_SPRITE_SIZE
	}
	if palette == nil {
		palette = resources.DefaultPalette()
	}
	return &TextureCache{
		config:  config,
		arena:   arena,
		palette: palette,
		entries: make(map[StyleKey]*metadata.Texture),
		owned:   make(map[metadata.Handle]StyleKey),
	}, nil
}

// OnFree installs the hook used to drop backend uploads of textures freed by
// Clear.
func (tc *TextureCache) OnFree(fn func(t *metadata.Texture)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.onFree = fn
}

/**
 * @brief Returns the texture for key, painting it on first use. Repeated calls
 * with an equal key return the same texture until the cache is cleared.
 */
func (tc *TextureCache) Get(key StyleKey) (*metadata.Texture, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if t, ok := tc.entries[key]; ok {
		return t, nil
	}
	if uint32(len(tc.entries)) >= tc.config.MaxTextureCount {
		core.LogInfo("texture cache reached %d entries, clearing", len(tc.entries))
		tc.clear()
	}

	img, size, err := tc.paint(key)
	if err != nil {
		core.LogError("failed to paint texture '%s': %s", key, err)
		return nil, err
	}
	handle, err := tc.arena.Acquire(metadata.ResourceKindTexture, metadata.OwnershipSharedCache, key.String())
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	t := &metadata.Texture{
		Handle:    handle,
		Width:     size,
		Height:    size,
		Ownership: metadata.OwnershipSharedCache,
		Name:      key.String(),
		Image:     img,
	}
	if key.Kind == StyleKindPlant {
		t.Flags |= metadata.TextureFlagBits(metadata.TextureFlagHasTransparency)
	}
	tc.entries[key] = t
	tc.owned[handle] = key
	return t, nil
}

func (tc *TextureCache) paint(key StyleKey) (*image.RGBA, uint32, error) {
	switch key.Kind {
	case StyleKindSurface:
		img, err := paintSurface(key.Material, tc.palette.Surface(key.Material), tc.config.TextureSize)
		return img, tc.config.TextureSize, err
	case StyleKindBorder:
		img, err := paintBorder(key.Material, tc.palette.Border(key.Material), tc.config.TextureSize)
		return img, tc.config.TextureSize, err
	case StyleKindPlant:
		props := garden.Properties{Category: key.Category, FlowerColor: key.FlowerColor, LeafColor: key.LeafColor}
		img, err := paintPlant(props, tc.palette, tc.config.SpriteSize)
		return img, tc.config.SpriteSize, err
	}
	return nil, 0, fmt.Errorf("unknown style kind %d", key.Kind)
}

// Contains reports whether the texture is owned by the cache.
func (tc *TextureCache) Contains(t *metadata.Texture) bool {
	if t == nil {
		return false
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	_, ok := tc.owned[t.Handle]
	return ok
}

/**
 * @brief Drops every entry. Textures still borrowed by a live scene stay
 * alive until that scene gives its references back.
 */
func (tc *TextureCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.clear()
}

func (tc *TextureCache) clear() {
	for key, t := range tc.entries {
		freed, err := tc.arena.Release(t.Handle)
		if err != nil {
			core.LogError("texture cache release '%s': %s", key, err)
		}
		if freed && tc.onFree != nil {
			tc.onFree(t)
		}
		delete(tc.owned, t.Handle)
		delete(tc.entries, key)
	}
}

// SetPalette swaps the colours and clears the cache so textures are repainted.
func (tc *TextureCache) SetPalette(p *resources.Palette) {
	if p == nil {
		return
	}
	p.Merge(resources.DefaultPalette())
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.palette = p
	tc.clear()
}

func (tc *TextureCache) Len() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.entries)
}
