package metadata

import "github.com/spaghettifunk/gardenia/engine/math"

/**
 * @brief Material configuration, created in code by the builders.
 */
type MaterialConfig struct {
	/** @brief The name of the material. */
	Name string
	/** @brief The diffuse colour of the material. */
	DiffuseColour math.Vec4
	/** @brief The shininess of the material. */
	Shininess float32
	/** @brief Whether meshes with this material cast shadows. */
	CastShadows bool
	/** @brief Whether meshes with this material receive shadows. */
	ReceiveShadows bool
}

/**
 * @brief A material, which represents various properties
 * of a surface in the world such as texture, colour and shininess.
 */
type Material struct {
	Handle Handle
	/** @brief The material name. */
	Name string
	/** @brief The diffuse colour. Multiplied with the diffuse map. */
	DiffuseColour math.Vec4
	/** @brief The diffuse texture map. May be nil for untextured materials. */
	DiffuseMap *TextureMap
	/** @brief The material shininess, determines how concentrated the specular lighting is. */
	Shininess      float32
	CastShadows    bool
	ReceiveShadows bool
}
