package systems

import (
	"hash/fnv"
	"image"
	"image/draw"
	stdmath "math"

	"github.com/gogpu/gg"
	"golang.org/x/exp/rand"

	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/resources"
)

// painter wraps a gg context and keeps the first drawing error.
type painter struct {
	ctx *gg.Context
	rnd *rand.Rand
	w   float64
	h   float64
	err error
}

func newPainter(width, height uint32, seed string) *painter {
	h := fnv.New64a()
	h.Write([]byte(seed))
	return &painter{
		ctx: gg.NewContext(int(width), int(height)),
		rnd: rand.New(rand.NewSource(h.Sum64())),
		w:   float64(width),
		h:   float64(height),
	}
}

func (p *painter) fill() {
	if err := p.ctx.Fill(); err != nil && p.err == nil {
		p.err = err
	}
}

func (p *painter) stroke() {
	if err := p.ctx.Stroke(); err != nil && p.err == nil {
		p.err = err
	}
}

func (p *painter) colour(hex string, alpha float64) {
	c := gg.Hex(hex)
	p.ctx.SetRGBA(c.R, c.G, c.B, alpha)
}

// jitter returns hex shifted in brightness by up to amount.
func (p *painter) jitter(hex string, amount, alpha float64) {
	c := gg.Hex(hex)
	d := (p.rnd.Float64()*2 - 1) * amount
	p.ctx.SetRGBA(clamp01(c.R+d), clamp01(c.G+d), clamp01(c.B+d), alpha)
}

func (p *painter) image() (*image.RGBA, error) {
	defer p.ctx.Close()
	if p.err != nil {
		return nil, p.err
	}
	if err := p.ctx.FlushGPU(); err != nil {
		return nil, err
	}
	img := p.ctx.Image()
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}

func clamp01(v float64) float64 {
	return stdmath.Max(0, stdmath.Min(1, v))
}

/**
 * @brief Paints a tileable ground texture for the surface type.
 */
func paintSurface(surface string, swatch resources.Swatch, size uint32) (*image.RGBA, error) {
	p := newPainter(size, size, "surface:"+surface)
	p.ctx.ClearWithColor(gg.Hex(swatch.Base))

	switch surface {
	case "mulch":
		for i := 0; i < 420; i++ {
			p.ctx.Push()
			p.ctx.Translate(p.rnd.Float64()*p.w, p.rnd.Float64()*p.h)
			p.ctx.Rotate(p.rnd.Float64() * stdmath.Pi)
			l := 4 + p.rnd.Float64()*10
			p.ctx.DrawRectangle(-l/2, -1.5, l, 3)
			p.jitter(swatch.Accent, 0.12, 0.9)
			p.fill()
			p.ctx.Pop()
		}
	case "gravel":
		for i := 0; i < 600; i++ {
			p.ctx.DrawEllipse(p.rnd.Float64()*p.w, p.rnd.Float64()*p.h, 1.5+p.rnd.Float64()*3, 1+p.rnd.Float64()*2.5)
			if i%2 == 0 {
				p.jitter(swatch.Accent, 0.1, 1)
			} else {
				p.jitter(swatch.Base, 0.15, 1)
			}
			p.fill()
		}
	case "soil":
		for i := 0; i < 900; i++ {
			p.ctx.DrawCircle(p.rnd.Float64()*p.w, p.rnd.Float64()*p.h, 0.6+p.rnd.Float64()*1.6)
			p.jitter(swatch.Accent, 0.08, 0.7)
			p.fill()
		}
	case "paved":
		tile := p.w / 4
		p.ctx.SetLineWidth(2)
		for y := 0.0; y < p.h; y += tile {
			for x := 0.0; x < p.w; x += tile {
				p.ctx.DrawRoundedRectangle(x+2, y+2, tile-4, tile-4, 3)
				p.jitter(swatch.Base, 0.05, 1)
				p.fill()
			}
		}
		for v := 0.0; v <= p.w; v += tile {
			p.ctx.DrawLine(v, 0, v, p.h)
			p.ctx.DrawLine(0, v, p.w, v)
		}
		p.colour(swatch.Accent, 1)
		p.stroke()
	default:
		// Grass: short blades leaning in random directions.
		p.ctx.SetLineWidth(1.2)
		for i := 0; i < 1400; i++ {
			x, y := p.rnd.Float64()*p.w, p.rnd.Float64()*p.h
			lean := (p.rnd.Float64() - 0.5) * 4
			p.ctx.MoveTo(x, y)
			p.ctx.LineTo(x+lean, y-3-p.rnd.Float64()*5)
			if i%3 == 0 {
				p.jitter(swatch.Accent, 0.1, 0.9)
			} else {
				p.jitter(swatch.Base, 0.12, 0.9)
			}
			p.stroke()
		}
	}
	return p.image()
}

/**
 * @brief Paints the side texture of a border wall.
 */
func paintBorder(material string, swatch resources.Swatch, size uint32) (*image.RGBA, error) {
	p := newPainter(size, size, "border:"+material)
	p.ctx.ClearWithColor(gg.Hex(swatch.Base))

	switch material {
	case "brick":
		rows := 8
		bh := p.h / float64(rows)
		bw := p.w / 4
		for r := 0; r < rows; r++ {
			offset := 0.0
			if r%2 == 1 {
				offset = -bw / 2
			}
			for x := offset; x < p.w; x += bw {
				p.ctx.DrawRectangle(x+1.5, float64(r)*bh+1.5, bw-3, bh-3)
				p.jitter(swatch.Base, 0.06, 1)
				p.fill()
			}
		}
		// Mortar shows through the 3px gaps.
		p.ctx.Push()
		p.colour(swatch.Accent, 0.35)
		p.ctx.DrawRectangle(0, 0, p.w, p.h)
		p.fill()
		p.ctx.Pop()
	case "stone":
		for i := 0; i < 28; i++ {
			w := 30 + p.rnd.Float64()*40
			h := 20 + p.rnd.Float64()*25
			p.ctx.DrawRoundedRectangle(p.rnd.Float64()*p.w-w/2, p.rnd.Float64()*p.h-h/2, w, h, 8)
			p.jitter(swatch.Accent, 0.12, 0.95)
			p.fill()
		}
	case "metal":
		p.ctx.SetLineWidth(1)
		for y := 0.0; y < p.h; y += 2 {
			p.ctx.DrawLine(0, y, p.w, y)
			p.jitter(swatch.Accent, 0.05, 0.3)
			p.stroke()
		}
		for _, x := range []float64{p.w * 0.1, p.w * 0.9} {
			for _, y := range []float64{p.h * 0.2, p.h * 0.8} {
				p.ctx.DrawCircle(x, y, 4)
				p.colour(swatch.Accent, 1)
				p.fill()
			}
		}
	default:
		// Wood: horizontal planks with grain.
		planks := 4
		ph := p.h / float64(planks)
		for i := 0; i < planks; i++ {
			p.ctx.DrawRectangle(0, float64(i)*ph+1, p.w, ph-2)
			p.jitter(swatch.Base, 0.05, 1)
			p.fill()
			p.ctx.SetLineWidth(1)
			for g := 0; g < 6; g++ {
				y := float64(i)*ph + 4 + p.rnd.Float64()*(ph-8)
				p.ctx.MoveTo(0, y)
				p.ctx.CubicTo(p.w*0.3, y+p.rnd.Float64()*4-2, p.w*0.7, y+p.rnd.Float64()*4-2, p.w, y)
				p.colour(swatch.Accent, 0.5)
				p.stroke()
			}
		}
	}
	return p.image()
}

/**
 * @brief Paints a plant sprite on a transparent background. The base of
 * the plant touches the bottom edge at the horizontal center.
 */
func paintPlant(props garden.Properties, palette *resources.Palette, size uint32) (*image.RGBA, error) {
	key := string(props.Category) + "|" + props.FlowerColor + "|" + props.LeafColor
	p := newPainter(size, size, "plant:"+key)
	p.ctx.Clear()

	leaf := palette.Color(props.LeafColor, palette.Plants.Leaf)
	flower := palette.Color(props.FlowerColor, palette.Plants.Flower)
	cx := p.w / 2

	switch billboardStyle(props.Category) {
	case billboardTree:
		// Trunk.
		p.ctx.DrawRectangle(cx-p.w*0.05, p.h*0.55, p.w*0.1, p.h*0.45)
		p.colour(palette.Plants.Trunk, 1)
		p.fill()
		// Canopy from overlapping blobs.
		for i := 0; i < 14; i++ {
			a := p.rnd.Float64() * 2 * stdmath.Pi
			d := p.rnd.Float64() * p.w * 0.22
			p.ctx.DrawCircle(cx+stdmath.Cos(a)*d, p.h*0.33+stdmath.Sin(a)*d*0.8, p.w*(0.14+p.rnd.Float64()*0.08))
			p.jitter(leaf, 0.1, 1)
			p.fill()
		}
	case billboardShrub:
		// Layered rounded mass, darker at the bottom.
		layers := 3
		for l := 0; l < layers; l++ {
			y := p.h * (0.8 - float64(l)*0.18)
			rx := p.w * (0.46 - float64(l)*0.08)
			ry := p.h * (0.2 - float64(l)*0.03)
			p.ctx.DrawEllipse(cx, y, rx, ry)
			c := gg.Hex(leaf)
			shade := 0.75 + float64(l)*0.12
			p.ctx.SetRGBA(clamp01(c.R*shade), clamp01(c.G*shade), clamp01(c.B*shade), 1)
			p.fill()
		}
		if props.FlowerColor != "" {
			for i := 0; i < 10; i++ {
				p.ctx.DrawCircle(cx+(p.rnd.Float64()-0.5)*p.w*0.7, p.h*(0.45+p.rnd.Float64()*0.35), p.w*0.025)
				p.colour(flower, 1)
				p.fill()
			}
		}
	default:
		// Stem with two leaves and a radial bloom on top.
		p.ctx.SetLineWidth(p.w * 0.03)
		p.ctx.MoveTo(cx, p.h)
		p.ctx.QuadraticTo(cx+p.w*0.04, p.h*0.6, cx, p.h*0.3)
		p.colour(palette.Plants.Stem, 1)
		p.stroke()
		for _, side := range []float64{-1, 1} {
			p.ctx.Push()
			p.ctx.Translate(cx+side*p.w*0.1, p.h*0.65)
			p.ctx.Rotate(side * 0.6)
			p.ctx.DrawEllipse(0, 0, p.w*0.12, p.h*0.04)
			p.colour(leaf, 1)
			p.fill()
			p.ctx.Pop()
		}
		petals := 8
		for i := 0; i < petals; i++ {
			a := float64(i) / float64(petals) * 2 * stdmath.Pi
			p.ctx.Push()
			p.ctx.Translate(cx, p.h*0.26)
			p.ctx.Rotate(a)
			p.ctx.DrawEllipse(p.w*0.09, 0, p.w*0.09, p.w*0.04)
			p.jitter(flower, 0.05, 1)
			p.fill()
			p.ctx.Pop()
		}
		p.ctx.DrawCircle(cx, p.h*0.26, p.w*0.045)
		p.colour("#f2cf3a", 1)
		p.fill()
	}
	return p.image()
}

type billboardKind int

const (
	billboardDefault billboardKind = iota
	billboardTree
	billboardShrub
)

func billboardStyle(c garden.Category) billboardKind {
	switch c {
	case garden.CategoryTree:
		return billboardTree
	case garden.CategoryShrub:
		return billboardShrub
	}
	return billboardDefault
}
