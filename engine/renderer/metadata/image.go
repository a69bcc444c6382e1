package metadata

import (
	"fmt"
	"image"
)

/**
 * @brief A frame read back from the renderer, row-major with alpha
 * premultiplied, 4 bytes per pixel.
 */
type ImageData struct {
	ChannelCount uint8
	Width        uint32
	Height       uint32
	Pixels       []uint8
}

// RGBA wraps the pixels without copying them.
func (d *ImageData) RGBA() (*image.RGBA, error) {
	if d == nil || d.ChannelCount != 4 {
		return nil, fmt.Errorf("image data: need 4 channels")
	}
	if want := int(d.Width) * int(d.Height) * 4; len(d.Pixels) != want {
		return nil, fmt.Errorf("image data: have %d bytes for %dx%d", len(d.Pixels), d.Width, d.Height)
	}
	return &image.RGBA{
		Pix:    d.Pixels,
		Stride: int(d.Width) * 4,
		Rect:   image.Rect(0, 0, int(d.Width), int(d.Height)),
	}, nil
}
