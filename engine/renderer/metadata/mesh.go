package metadata

import (
	"github.com/spaghettifunk/gardenia/engine/math"
)

type Mesh struct {
	Name      string
	Geometry  *Geometry
	Material  *Material
	Transform *math.Transform
	/** @brief Hidden meshes stay in the graph but are not drawn. */
	Visible bool
}

// WorldExtents returns the XY footprint of the mesh's transformed geometry.
func (m *Mesh) WorldExtents() math.Extents2D {
	world := m.Transform.GetWorld()
	points := make([]math.Vec2, 0, len(m.Geometry.Vertices))
	for _, v := range m.Geometry.Vertices {
		points = append(points, v.Position.Transform(world).XY())
	}
	return math.ExtentsFromPoints(points)
}

/** @brief A named collection of meshes sharing a parent transform. */
type Group struct {
	Name      string
	Meshes    []*Mesh
	Transform *math.Transform
}

func (g *Group) Add(m *Mesh) {
	if g.Transform != nil {
		m.Transform.SetParent(g.Transform)
	}
	g.Meshes = append(g.Meshes, m)
}

/**
 * @brief Directional effect applied to a sprite on top of camera facing.
 * Offset shifts the sprite's top in world units; the base never moves.
 */
type SwayFunc func(sprite *Sprite, elapsed float64) math.Vec2

/**
 * @brief A camera facing quad. Center is the anchor within the quad
 * in [0,1]; (0.5, 0) pins the bottom center to Position.
 */
type Sprite struct {
	Handle   Handle
	Name     string
	Material *Material
	Position math.Vec3
	/** @brief World size, X is width and Y is height. */
	Scale  math.Vec2
	Center math.Vec2
	/** @brief Current sway offset of the top edge. */
	Sway math.Vec2
}
