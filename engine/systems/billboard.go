package systems

import (
	"hash/fnv"

	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/renderer"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

/** @brief A billboard is never narrower than this fraction of its height. */
const BILLBOARD_MIN_WIDTH_RATIO float32 = 0.6

// BillboardScale returns the world size of a plant sprite, X is width.
func BillboardScale(d garden.Dimensions) math.Vec2 {
	c := d.Clamped()
	return math.NewVec2(math.Max(c.Spread, BILLBOARD_MIN_WIDTH_RATIO*c.Height), c.Height)
}

/**
 * @brief Creates camera facing plant sprites. Textures come from the cache,
 * sprites and materials from the renderer.
 */
type BillboardFactory struct {
	renderer *renderer.Renderer
	textures *TextureCache
	sway     metadata.SwayFunc
}

func NewBillboardFactory(r *renderer.Renderer, textures *TextureCache) *BillboardFactory {
	return &BillboardFactory{renderer: r, textures: textures}
}

// SetSway installs a per frame offset for the sprite tops. nil disables it.
func (bf *BillboardFactory) SetSway(fn metadata.SwayFunc) {
	bf.sway = fn
}

func (bf *BillboardFactory) Build(plant garden.PlantInstance3D) (*metadata.Sprite, error) {
	tex, err := bf.textures.Get(PlantKey(plant.Properties))
	if err != nil {
		return nil, err
	}
	material, err := bf.renderer.CreateMaterial(metadata.MaterialConfig{
		Name:          "plant_" + plant.ID,
		DiffuseColour: math.NewVec4(1, 1, 1, 1),
		CastShadows:   true,
	}, &metadata.TextureMap{
		Texture: tex,
		Use:     metadata.TextureUseSprite,
		RepeatU: metadata.TextureRepeatClampToEdge,
		RepeatV: metadata.TextureRepeatClampToEdge,
		Repeat:  math.NewVec2(1, 1),
	})
	if err != nil {
		return nil, err
	}
	sprite, err := bf.renderer.CreateSprite(plant.Name, material)
	if err != nil {
		bf.renderer.ReleaseTexture(tex)
		bf.renderer.DestroyMaterial(material)
		return nil, err
	}
	sprite.Position = plant.Position
	sprite.Scale = BillboardScale(plant.Dimensions)
	sprite.Center = math.NewVec2(0.5, 0)
	return sprite, nil
}

// Update applies the sway hook, if any.
func (bf *BillboardFactory) Update(sprites []*metadata.Sprite, elapsed float64) {
	if bf.sway == nil {
		return
	}
	for _, s := range sprites {
		s.Sway = bf.sway(s, elapsed)
	}
}

/**
 * @brief Wind sway along direction. Each sprite gets a phase from its name so
 * neighbours do not move in lockstep. Amplitude is a fraction of the sprite
 * height.
 */
func WindSway(direction math.Vec2, amplitude float32, period float64) metadata.SwayFunc {
	dir := direction
	if l := dir.Length(); l > 0 {
		dir = dir.MulScalar(1 / l)
	}
	return func(s *metadata.Sprite, elapsed float64) math.Vec2 {
		h := fnv.New32a()
		h.Write([]byte(s.Name))
		phase := float32(h.Sum32()%1000) / 1000 * math.K_PI_2
		t := float32(elapsed/period) * math.K_PI_2
		return dir.MulScalar(math.Sin(t+phase) * amplitude * s.Scale.Y)
	}
}
