package software

import (
	"image"
	"image/color"
	"testing"

	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

func quadScene(t *testing.T, b *Backend) *metadata.Scene {
	t.Helper()
	vertices := []math.Vertex3D{
		{Position: math.NewVec3(-1, -1, 0), Normal: math.NewVec3Up(), Texcoord: math.NewVec2(0, 0)},
		{Position: math.NewVec3(1, -1, 0), Normal: math.NewVec3Up(), Texcoord: math.NewVec2(1, 0)},
		{Position: math.NewVec3(1, 1, 0), Normal: math.NewVec3Up(), Texcoord: math.NewVec2(1, 1)},
		{Position: math.NewVec3(-1, 1, 0), Normal: math.NewVec3Up(), Texcoord: math.NewVec2(0, 1)},
	}
	g := &metadata.Geometry{Handle: metadata.Handle{ID: 1}, Name: "quad", Vertices: vertices, Indices: []uint32{0, 1, 2, 0, 2, 3}}
	if err := b.CreateGeometry(g); err != nil {
		t.Fatal(err)
	}
	return &metadata.Scene{
		Ground: &metadata.Mesh{
			Geometry:  g,
			Material:  &metadata.Material{DiffuseColour: math.NewVec4(1, 0, 0, 1)},
			Transform: math.TransformCreate(),
			Visible:   true,
		},
		Ambient: &metadata.AmbientLight{Colour: math.NewVec4(1, 1, 1, 1), Intensity: 1},
	}
}

func TestDrawFrameProjectsGround(t *testing.T) {
	b := New()
	if err := b.Initialize(metadata.RendererConfig{Width: 64, Height: 48, ClearColour: math.NewVec4(0, 0, 1, 1)}); err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()

	scene := quadScene(t, b)
	view := math.NewMat4LookAt(math.NewVec3(0, -3, 3), math.NewVec3Zero(), math.NewVec3Up())
	proj := math.NewMat4Perspective(math.DegToRad(50), 64.0/48.0, 0.1, 100)
	if err := b.DrawFrame(&metadata.RenderPacket{Scene: scene, View: view, Projection: proj, Width: 64, Height: 48}); err != nil {
		t.Fatal(err)
	}

	img, err := b.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	if img.Width != 64 || img.Height != 48 {
		t.Fatalf("size = %dx%d, want 64x48", img.Width, img.Height)
	}
	// Right of the quad diagonal, which runs through the image center.
	center := (24*64 + 40) * 4
	r, bl := img.Pixels[center], img.Pixels[center+2]
	if r < 128 || bl > 64 {
		t.Fatalf("center pixel = %v, want the red ground", img.Pixels[center:center+4])
	}
	corner := 0
	if img.Pixels[corner+2] < 200 {
		t.Fatalf("corner pixel = %v, want the blue clear colour", img.Pixels[corner:corner+4])
	}
}

func TestSpriteIsScaledOnce(t *testing.T) {
	b := New()
	if err := b.Initialize(metadata.RendererConfig{Width: 32, Height: 32}); err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()

	src := image.NewRGBA(image.Rect(0, 0, 64, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 64; x++ {
			src.SetRGBA(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	tex := &metadata.Texture{Handle: metadata.Handle{ID: 7}, Name: "plant", Image: src}
	if err := b.TextureCreate(tex); err != nil {
		t.Fatal(err)
	}
	upload := b.textures[tex.Handle]
	first := b.scaledSprite(upload, 20)
	second := b.scaledSprite(upload, 25)
	if first != second {
		t.Fatal("heights in the same bucket should share one scaled copy")
	}
	if len(upload.scaled) != 1 {
		t.Fatalf("scaled copies = %d, want 1", len(upload.scaled))
	}

	b.TextureDestroy(tex)
	if _, ok := b.textures[tex.Handle]; ok {
		t.Fatal("texture upload survived destroy")
	}
}

func TestReadPixelsWithoutFrame(t *testing.T) {
	b := New()
	if err := b.Initialize(metadata.RendererConfig{Width: 8, Height: 8}); err != nil {
		t.Fatal(err)
	}
	defer b.Shutdown()
	if _, err := b.ReadPixels(); err == nil {
		t.Fatal("expected an error before the first frame")
	}
}

func TestSampleBlendHonoursTextureMap(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(1, 0, color.RGBA{})
	upload := &textureUpload{image: img, average: math.NewVec4(0, 0, 0, 1)}
	white := math.NewVec4(1, 1, 1, 1)
	opaque := &metadata.Texture{Image: img}
	sprite := &metadata.Texture{Image: img, Flags: metadata.TextureFlagBits(metadata.TextureFlagHasTransparency)}

	tests := []struct {
		name      string
		tm        *metadata.TextureMap
		u         float32
		wantRed   bool
		wantAlpha float32
	}{
		{"repeat wraps past one", &metadata.TextureMap{Texture: opaque, Repeat: math.NewVec2(1, 1)}, 1.25, true, 1},
		{"clamp sticks to the edge", &metadata.TextureMap{Texture: opaque, RepeatU: metadata.TextureRepeatClampToEdge, RepeatV: metadata.TextureRepeatClampToEdge, Repeat: math.NewVec2(1, 1)}, 1.25, false, 1},
		{"tiling count scales uv", &metadata.TextureMap{Texture: opaque, Repeat: math.NewVec2(4, 1)}, 0.3, true, 1},
		{"opaque texture ignores texel alpha", &metadata.TextureMap{Texture: opaque, RepeatU: metadata.TextureRepeatClampToEdge, Repeat: math.NewVec2(1, 1)}, 1, false, 1},
		{"transparent texture keeps texel alpha", &metadata.TextureMap{Texture: sprite, RepeatU: metadata.TextureRepeatClampToEdge, Repeat: math.NewVec2(1, 1)}, 1, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sampleBlend(upload, tt.tm, math.NewVec2(tt.u, 0), white)
			if red := got.X > 0.3; red != tt.wantRed {
				t.Errorf("red = %v (%v), want %v", red, got.X, tt.wantRed)
			}
			if got.W != tt.wantAlpha {
				t.Errorf("alpha = %v, want %v", got.W, tt.wantAlpha)
			}
		})
	}
}
