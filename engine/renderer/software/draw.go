package software

import (
	"image"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"

	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

// Sprites are pre-scaled in steps of this many pixels of screen height.
const spriteHeightBucket = 16

type drawItem struct {
	depth float32
	draw  func(ctx *gg.Context) error
}

type projector struct {
	viewProjection math.Mat4
	width, height  float32
}

// project returns screen coordinates and view depth. ok is false behind the
// near plane.
func (p projector) project(v math.Vec3) (x, y, depth float32, ok bool) {
	clip := v.TransformHomogeneous(p.viewProjection)
	if clip.W <= 1e-4 {
		return 0, 0, 0, false
	}
	ndcX := clip.X / clip.W
	ndcY := clip.Y / clip.W
	x = (ndcX + 1) * 0.5 * p.width
	y = (1 - ndcY) * 0.5 * p.height
	return x, y, clip.W, true
}

type lighting struct {
	ambient   math.Vec3
	sunDir    math.Vec3
	sunColour math.Vec3
	sunPower  float32
	shadows   bool
}

func newLighting(scene *metadata.Scene, shadowMaps map[metadata.Handle]*metadata.ShadowMap) lighting {
	l := lighting{ambient: math.NewVec3(0.4, 0.4, 0.4), sunDir: math.NewVec3(0, 0, -1)}
	if scene.Ambient != nil {
		c := scene.Ambient.Colour
		l.ambient = math.NewVec3(c.X, c.Y, c.Z).MulScalar(scene.Ambient.Intensity)
	}
	if sun := scene.Sun; sun != nil {
		l.sunDir = sun.Direction.Normalized()
		l.sunColour = math.NewVec3(sun.Colour.X, sun.Colour.Y, sun.Colour.Z)
		l.sunPower = sun.Intensity
		if sun.CastShadows && sun.ShadowMap != nil {
			_, l.shadows = shadowMaps[sun.ShadowMap.Handle]
		}
	}
	return l
}

func (l lighting) shade(base math.Vec4, normal math.Vec3) math.Vec4 {
	diffuse := math.Max(float32(0), normal.Dot(l.sunDir.MulScalar(-1))) * l.sunPower
	r := base.X * (l.ambient.X + l.sunColour.X*diffuse)
	g := base.Y * (l.ambient.Y + l.sunColour.Y*diffuse)
	b := base.Z * (l.ambient.Z + l.sunColour.Z*diffuse)
	return math.NewVec4(math.Clamp(r, 0, 1), math.Clamp(g, 0, 1), math.Clamp(b, 0, 1), base.W)
}

func (b *Backend) collect(packet *metadata.RenderPacket) []drawItem {
	p := projector{
		viewProjection: packet.View.Mul(packet.Projection),
		width:          float32(packet.Width),
		height:         float32(packet.Height),
	}
	light := newLighting(packet.Scene, b.shadowMaps)

	items := make([]drawItem, 0, 256)
	packet.Scene.WalkMeshes(func(m *metadata.Mesh) {
		items = b.collectMesh(items, p, light, m)
	})
	for _, s := range packet.Scene.Sprites {
		items = b.collectSprite(items, p, light, s)
	}
	return items
}

func (b *Backend) collectMesh(items []drawItem, p projector, light lighting, m *metadata.Mesh) []drawItem {
	if !m.Visible || m.Geometry == nil {
		return items
	}
	upload, ok := b.geometries[m.Geometry.Handle]
	if !ok {
		return items
	}
	world := m.Transform.GetWorld()
	// Directions only; translation dropped.
	normalMatrix := world
	normalMatrix.Data[12], normalMatrix.Data[13], normalMatrix.Data[14] = 0, 0, 0

	base, tex := b.materialColour(m.Material)
	vertices := upload.geometry.Vertices
	indices := upload.geometry.Indices
	for i := 0; i+2 < len(indices); i += 3 {
		v0, v1, v2 := vertices[indices[i]], vertices[indices[i+1]], vertices[indices[i+2]]
		w0, w1, w2 := v0.Position.Transform(world), v1.Position.Transform(world), v2.Position.Transform(world)

		x0, y0, d0, ok0 := p.project(w0)
		x1, y1, d1, ok1 := p.project(w1)
		x2, y2, d2, ok2 := p.project(w2)
		if !ok0 || !ok1 || !ok2 {
			continue
		}

		normal := w1.Sub(w0).Cross(w2.Sub(w0)).Normalized()
		if normal.LengthSquared() == 0 {
			normal = v0.Normal.Transform(normalMatrix).Normalized()
		}
		colour := base
		if tex != nil {
			uv := v0.Texcoord.Add(v1.Texcoord).Add(v2.Texcoord).MulScalar(1.0 / 3.0)
			colour = sampleBlend(tex, m.Material.DiffuseMap, uv, base)
		}
		colour = light.shade(colour, normal)

		px := [3]float64{float64(x0), float64(x1), float64(x2)}
		py := [3]float64{float64(y0), float64(y1), float64(y2)}
		items = append(items, drawItem{
			depth: (d0 + d1 + d2) / 3,
			draw: func(ctx *gg.Context) error {
				ctx.MoveTo(px[0], py[0])
				ctx.LineTo(px[1], py[1])
				ctx.LineTo(px[2], py[2])
				ctx.ClosePath()
				ctx.SetRGBA(float64(colour.X), float64(colour.Y), float64(colour.Z), float64(colour.W))
				return ctx.Fill()
			},
		})
	}
	return items
}

func (b *Backend) collectSprite(items []drawItem, p projector, light lighting, s *metadata.Sprite) []drawItem {
	if s.Material == nil || s.Material.DiffuseMap == nil || s.Material.DiffuseMap.Texture == nil {
		return items
	}
	upload, ok := b.textures[s.Material.DiffuseMap.Texture.Handle]
	if !ok {
		return items
	}

	base := s.Position
	top := base.Add(math.NewVec3(s.Sway.X, s.Sway.Y, s.Scale.Y))
	bx, by, depth, okBase := p.project(base)
	tx, ty, _, okTop := p.project(top)
	if !okBase || !okTop {
		return items
	}
	screenHeight := math.NewVec2(bx, by).Distance(math.NewVec2(tx, ty))
	if screenHeight < 1 {
		return items
	}
	screenWidth := screenHeight * s.Scale.X / s.Scale.Y

	// Anchor inside the quad, (0.5, 0) is bottom center.
	left := float64(bx - screenWidth*s.Center.X)
	topY := float64(by - screenHeight*(1-s.Center.Y))

	if light.shadows {
		sx, sy, _, okShadow := p.project(base.Add(shadowOffset(light.sunDir, s.Scale.Y)))
		if okShadow {
			rx := float64(screenWidth) * 0.45
			ry := rx * 0.35
			items = append(items, drawItem{
				depth: depth + 0.01,
				draw: func(ctx *gg.Context) error {
					ctx.DrawEllipse(float64(sx), float64(sy), rx, ry)
					ctx.SetRGBA(0, 0, 0, 0.25)
					return ctx.Fill()
				},
			})
		}
	}

	buf := b.scaledSprite(upload, int(screenHeight))
	shade := light.shade(math.NewVec4(1, 1, 1, 1), math.NewVec3(0, -1, 0.3).Normalized())
	opacity := float64(math.Clamp((shade.X+shade.Y+shade.Z)/3+0.35, 0.6, 1))
	items = append(items, drawItem{
		depth: depth,
		draw: func(ctx *gg.Context) error {
			ctx.DrawImageEx(buf, gg.DrawImageOptions{
				X:             left,
				Y:             topY,
				DstWidth:      float64(screenWidth),
				DstHeight:     float64(screenHeight),
				Interpolation: gg.InterpBilinear,
				Opacity:       opacity,
				BlendMode:     gg.BlendNormal,
			})
			return nil
		},
	})
	return items
}

// scaledSprite returns the sprite resampled close to its on-screen height.
// Bilinear sampling alone aliases badly when a large sprite is drawn small.
func (b *Backend) scaledSprite(upload *textureUpload, screenHeight int) *gg.ImageBuf {
	bucket := (screenHeight/spriteHeightBucket + 1) * spriteHeightBucket
	src := upload.image.Bounds()
	if bucket >= src.Dy() {
		bucket = src.Dy()
	}
	if buf, ok := upload.scaled[bucket]; ok {
		return buf
	}
	w := src.Dx() * bucket / src.Dy()
	if w < 1 {
		w = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, bucket))
	draw.CatmullRom.Scale(dst, dst.Bounds(), upload.image, src, draw.Over, nil)
	buf := gg.ImageBufFromImage(dst)
	upload.scaled[bucket] = buf
	return buf
}

func (b *Backend) materialColour(m *metadata.Material) (math.Vec4, *textureUpload) {
	if m == nil {
		return math.NewVec4(0.8, 0.8, 0.8, 1), nil
	}
	base := m.DiffuseColour
	if m.DiffuseMap != nil && m.DiffuseMap.Texture != nil {
		if upload, ok := b.textures[m.DiffuseMap.Texture.Handle]; ok {
			return base, upload
		}
	}
	return base, nil
}

// sampleBlend mixes the texel at uv with the texture average so flat
// triangles keep some of the pattern without flickering. The map decides
// tiling per axis; transparent textures carry the texel alpha through.
func sampleBlend(upload *textureUpload, tm *metadata.TextureMap, uv math.Vec2, tint math.Vec4) math.Vec4 {
	u, v := uv.X-math.Floor(uv.X), uv.Y-math.Floor(uv.Y)
	transparent := false
	if tm != nil {
		u = tm.RepeatU.Wrap(uv.X * tm.Repeat.X)
		v = tm.RepeatV.Wrap(uv.Y * tm.Repeat.Y)
		transparent = tm.Texture.HasTransparency()
	}
	bounds := upload.image.Bounds()
	x := bounds.Min.X + int(u*float32(bounds.Dx()-1))
	y := bounds.Min.Y + int(v*float32(bounds.Dy()-1))
	c := upload.image.RGBAAt(x, y)
	avg := upload.average
	mix := func(texel uint8, mean, t float32) float32 {
		return (float32(texel)/255*0.35 + mean*0.65) * t
	}
	alpha := tint.W
	if transparent {
		alpha *= float32(c.A) / 255
	}
	return math.NewVec4(
		mix(c.R, avg.X, tint.X),
		mix(c.G, avg.Y, tint.Y),
		mix(c.B, avg.Z, tint.Z),
		alpha,
	)
}

func shadowOffset(sunDir math.Vec3, height float32) math.Vec3 {
	planar := math.NewVec3(sunDir.X, sunDir.Y, 0).Normalized()
	return planar.MulScalar(height * 0.35)
}
