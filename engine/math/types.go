package math

type Vec2 struct {
	X, Y float32
}

// Vec3 uses Z as up. The garden ground lies in the XY plane.
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 doubles as an RGBA colour with components in [0, 1].
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief A 4x4 matrix. Points are row vectors, p' = p * M, so the
 * translation lives in elements 12, 13 and 14.
 */
type Mat4 struct {
	Data [16]float32
}

/** @brief Axis aligned bounds on the ground plane. */
type Extents2D struct {
	Min Vec2
	Max Vec2
}

/** @brief Axis aligned bounds in world space. */
type Extents3D struct {
	Min Vec3
	Max Vec3
}

/**
 * @brief A mesh vertex. Texcoords run past 1 on tiled ground surfaces.
 */
type Vertex3D struct {
	Position Vec3
	Normal   Vec3
	Texcoord Vec2
}

/**
 * @brief Position, rotation and scale of a mesh, optionally relative to a
 * parent. Rotation is Euler XYZ in radians. Set IsDirty after editing a
 * field directly so the local matrix gets rebuilt.
 */
type Transform struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
	IsDirty  bool
	Local    Mat4
	Parent   *Transform
}
