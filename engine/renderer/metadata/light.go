package metadata

import "github.com/spaghettifunk/gardenia/engine/math"

/** @brief Default resolution of directional shadow maps. */
const DEFAULT_SHADOW_MAP_SIZE uint32 = 1024

type ShadowMap struct {
	Handle       Handle
	Size         uint32
	InternalData interface{}
}

type AmbientLight struct {
	Colour    math.Vec4
	Intensity float32
}

type DirectionalLight struct {
	Name string
	/** @brief Direction the light travels, normalized. */
	Direction   math.Vec3
	Colour      math.Vec4
	Intensity   float32
	CastShadows bool
	/** @brief Set when CastShadows is true. Freed explicitly on reset. */
	ShadowMap *ShadowMap
}
