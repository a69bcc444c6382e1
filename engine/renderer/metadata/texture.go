package metadata

import (
	"image"

	"github.com/spaghettifunk/gardenia/engine/math"
)

/** @brief Side length of procedurally painted ground textures. */
const DEFAULT_TEXTURE_SIZE uint32 = 256

/** @brief Side length of procedurally painted plant sprites. */
const DEFAULT_SPRITE_SIZE uint32 = 128

type TextureFlag int

const (
	/** @brief The painted image keeps a transparent background. */
	TextureFlagHasTransparency TextureFlag = 0x1
)

/** @brief Holds bit flags for textures. */
type TextureFlagBits uint8

/**
 * @brief A painted image living in the resource arena. Every texture is
 * created by the TextureCache and marked OwnershipSharedCache, so scene
 * resets leave it alive.
 */
type Texture struct {
	Handle    Handle
	Width     uint32
	Height    uint32
	Flags     TextureFlagBits
	Ownership Ownership
	Name      string
	/** @brief The painted pixels. */
	Image *image.RGBA
	/** @brief Backend specific upload. */
	InternalData interface{}
}

func (t *Texture) HasTransparency() bool {
	return t != nil && t.Flags&TextureFlagBits(TextureFlagHasTransparency) != 0
}

type TextureUse int

const (
	TextureUseUnknown TextureUse = iota
	/** @brief Tiled across a ground or border surface. */
	TextureUseMapDiffuse
	/** @brief Drawn once on a camera facing plant billboard. */
	TextureUseSprite
)

/** @brief How a texture coordinate outside [0, 1] is resolved. */
type TextureRepeat int

const (
	TextureRepeatRepeat TextureRepeat = iota
	TextureRepeatClampToEdge
)

// Wrap maps a texture coordinate into [0, 1].
func (r TextureRepeat) Wrap(c float32) float32 {
	switch r {
	case TextureRepeatClampToEdge:
		return math.Clamp(c, 0, 1)
	default:
		return c - math.Floor(c)
	}
}

/**
 * @brief Binds a texture to a surface along with how it tiles.
 */
type TextureMap struct {
	Texture *Texture
	Use     TextureUse
	/** @brief The repeat mode on the U axis. */
	RepeatU TextureRepeat
	/** @brief The repeat mode on the V axis. */
	RepeatV TextureRepeat
	/** @brief Number of tiles along U and V. */
	Repeat math.Vec2
}
