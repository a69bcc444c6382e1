package renderer

import "github.com/spaghettifunk/gardenia/engine/renderer/metadata"

/**
 * @brief What a rendering backend must provide. Create calls attach backend
 * data to the object; destroy calls must tolerate objects they never saw.
 */
type RendererBackend interface {
	Initialize(config metadata.RendererConfig) error
	Shutdown() error
	Resized(width, height uint32) error
	TextureCreate(texture *metadata.Texture) error
	TextureDestroy(texture *metadata.Texture)
	CreateGeometry(geometry *metadata.Geometry) error
	DestroyGeometry(geometry *metadata.Geometry)
	ShadowMapCreate(shadow *metadata.ShadowMap) error
	ShadowMapDestroy(shadow *metadata.ShadowMap)
	DrawFrame(packet *metadata.RenderPacket) error
	ReadPixels() (*metadata.ImageData, error)
}

type RendererType uint8

const (
	Software RendererType = iota
	Stub
)

func (t RendererType) String() string {
	if t == Stub {
		return "stub"
	}
	return "software"
}

func ParseRendererType(name string) (RendererType, bool) {
	switch name {
	case "software", "":
		return Software, true
	case "stub":
		return Stub, true
	}
	return Software, false
}
