package metadata

import (
	"github.com/spaghettifunk/gardenia/engine/math"
)

type RendererConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	Width           uint32
	Height          uint32
	/** @brief Keep the last frame around so it can be read back. */
	PreserveDrawingBuffer bool
	ClearColour           math.Vec4
	Antialias             bool
}

/**
 * @brief Everything the backend needs to draw one frame.
 */
type RenderPacket struct {
	DeltaTime      float64
	Scene          *Scene
	View           math.Mat4
	Projection     math.Mat4
	CameraPosition math.Vec3
	Width          uint32
	Height         uint32
}
