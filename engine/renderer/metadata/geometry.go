package metadata

import (
	"github.com/spaghettifunk/gardenia/engine/math"
)

/**
 * @brief Represents the configuration for a geometry.
 */
type GeometryConfig struct {
	/** @brief An array of Vertices. */
	Vertices []math.Vertex3D
	/** @brief An array of Indices. Triangles, counter-clockwise. */
	Indices []uint32

	Center     math.Vec3
	MinExtents math.Vec3
	MaxExtents math.Vec3

	/** @brief The Name of the geometry. */
	Name string
}

/**
 * @brief Represents actual geometry in the world.
 * Typically (but not always, depending on use) paired with a material.
 */
type Geometry struct {
	Handle Handle
	/** @brief The center of the geometry in local coordinates. */
	Center math.Vec3
	/** @brief The extents of the geometry in local coordinates. */
	Extents math.Extents3D
	/** @brief The geometry name. */
	Name string
	/** @brief Vertex data, kept so backends can (re)upload it. */
	Vertices []math.Vertex3D
	Indices  []uint32
	/** @brief Backend specific upload. */
	InternalData interface{}
}

// NewGeometryConfig fills center and extents from the vertex list.
func NewGeometryConfig(name string, vertices []math.Vertex3D, indices []uint32) GeometryConfig {
	extents := math.ExtentsFromVertices(vertices)
	return GeometryConfig{
		Vertices:   vertices,
		Indices:    indices,
		MinExtents: extents.Min,
		MaxExtents: extents.Max,
		Center:     extents.Min.Add(extents.Max).MulScalar(0.5),
		Name:       name,
	}
}
