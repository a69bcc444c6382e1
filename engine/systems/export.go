package systems

import (
	"bytes"
	"fmt"
	"image/png"
	"time"

	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

/**
 * @brief Renders one still of the live scene at an arbitrary size. The
 * renderer and camera are always put back to their previous size and aspect,
 * whether the frame succeeded, failed or panicked.
 */
type ExportPipeline struct {
	scene *SceneManager
}

func NewExportPipeline(scene *SceneManager) *ExportPipeline {
	return &ExportPipeline{scene: scene}
}

func (e *ExportPipeline) ExportImage(width, height uint32) (*metadata.ImageData, error) {
	start := time.Now()
	var data *metadata.ImageData
	err := e.scene.do(func(f *sceneFrame) (err error) {
		if !f.renderer.Config().PreserveDrawingBuffer {
			return core.ErrReadbackDisabled
		}
		if width == 0 || height == 0 {
			return core.ErrNoSurface
		}
		prevWidth, prevHeight := f.renderer.Size()
		prevAspect := f.camera.Aspect
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("export render panicked: %v", r)
			}
			if rerr := f.renderer.OnResize(prevWidth, prevHeight); rerr != nil {
				core.LogError("failed to restore renderer size after export: %s", rerr)
			}
			f.camera.SetAspect(prevAspect)
		}()

		if err := f.renderer.OnResize(width, height); err != nil {
			return err
		}
		f.camera.SetAspect(float32(width) / float32(height))
		if err := f.renderer.DrawFrame(f.packet()); err != nil {
			return err
		}
		data, err = f.renderer.ReadPixels()
		return err
	})

	seconds := time.Since(start).Seconds()
	core.EventFire(core.EventContext{
		Type: core.EVENT_CODE_EXPORT_COMPLETED,
		Data: &core.ExportEvent{Width: width, Height: height, Seconds: seconds, Err: err},
	})
	if err != nil {
		core.LogError("export %dx%d failed: %s", width, height, err)
		return nil, err
	}
	core.LogInfo("exported %dx%d in %.3fs", width, height, seconds)
	return data, nil
}

// EncodePNG encodes RGBA image data.
func EncodePNG(data *metadata.ImageData) ([]byte, error) {
	img, err := data.RGBA()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
