package components

import (
	"github.com/spaghettifunk/gardenia/engine/math"
)

/** @brief Vertical field of view of the default camera, in degrees. */
const DEFAULT_CAMERA_FOV float32 = 50.0

const (
	DEFAULT_CAMERA_NEAR float32 = 0.1
	DEFAULT_CAMERA_FAR  float32 = 1000.0
)

/**
 * @brief Perspective camera. World up is +Z; the camera looks at Target.
 */
type Camera struct {
	/**
	 * @brief The position of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position math.Vec3
	Target   math.Vec3
	Up       math.Vec3
	/** @brief Vertical field of view in degrees. */
	FOV    float32
	Aspect float32
	Near   float32
	Far    float32
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix math.Mat4
}

func NewCamera(aspect float32) *Camera {
	camera := &Camera{}
	camera.Reset()
	camera.Aspect = aspect
	return camera
}

func (c *Camera) Reset() {
	c.Position = math.NewVec3(0, -10, 10)
	c.Target = math.NewVec3Zero()
	c.Up = math.NewVec3Up()
	c.FOV = DEFAULT_CAMERA_FOV
	c.Aspect = 1
	c.Near = DEFAULT_CAMERA_NEAR
	c.Far = DEFAULT_CAMERA_FAR
	c.IsDirty = true
	c.ViewMatrix = math.NewMat4Identity()
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) LookAt(target math.Vec3) {
	c.Target = target
	c.IsDirty = true
}

func (c *Camera) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.Aspect = aspect
}

// Frame places the camera so a footprint of the given radius around center
// fits the view, looking down at roughly 40 degrees.
func (c *Camera) Frame(center math.Vec3, radius float32) {
	if radius <= 0 {
		radius = 1
	}
	distance := radius / math.Sin(math.DegToRad(c.FOV*0.5)) * 1.1
	c.Target = center
	c.Position = center.Add(math.NewVec3(0, -distance*0.75, distance*0.65))
	c.IsDirty = true
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = math.NewMat4LookAt(c.Position, c.Target, c.Up)
		c.IsDirty = false
	}
	return c.ViewMatrix
}

func (c *Camera) GetProjection() math.Mat4 {
	return math.NewMat4Perspective(math.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}
