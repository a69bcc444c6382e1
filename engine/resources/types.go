package resources

import (
	"strings"

	"github.com/spaghettifunk/gardenia/engine/garden"
)

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	ResourceTypeNone ResourceType = iota
	/** @brief Colour palette for procedural textures. */
	ResourceTypePalette
	/** @brief Plant catalog, id to botanical attributes. */
	ResourceTypeInventory
	/** @brief Garden description with placed plants. */
	ResourceTypeGarden
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypePalette:
		return "palette"
	case ResourceTypeInventory:
		return "inventory"
	case ResourceTypeGarden:
		return "garden"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	Type     ResourceType
	/** @brief The resource data: *Palette, garden.MapInventory or *GardenFixture. */
	Data interface{}
}

/** @brief Two tone colour pair used by a procedural painter, as hex strings. */
type Swatch struct {
	Base   string `toml:"base"`
	Accent string `toml:"accent"`
}

type PlantSwatch struct {
	Trunk  string `toml:"trunk"`
	Stem   string `toml:"stem"`
	Leaf   string `toml:"leaf"`
	Flower string `toml:"flower"`
}

/**
 * @brief Colours used by the procedural texture painters. Missing entries
 * fall back to the defaults.
 */
type Palette struct {
	Name     string            `toml:"name"`
	Surfaces map[string]Swatch `toml:"surfaces"`
	Borders  map[string]Swatch `toml:"borders"`
	Plants   PlantSwatch       `toml:"plants"`
	// Named colours used by the plant catalog, e.g. "purple" = "#7b3fa0".
	Colors map[string]string `toml:"colors"`
}

func DefaultPalette() *Palette {
	return &Palette{
		Name: "default",
		Surfaces: map[string]Swatch{
			"grass":  {Base: "#4f7a2e", Accent: "#6f9b3f"},
			"mulch":  {Base: "#5a3a22", Accent: "#7a5232"},
			"gravel": {Base: "#9a948a", Accent: "#c4beb2"},
			"soil":   {Base: "#4a3426", Accent: "#634633"},
			"paved":  {Base: "#8d8d88", Accent: "#6f6f6a"},
		},
		Borders: map[string]Swatch{
			"wood":  {Base: "#8b5a2b", Accent: "#5e3b1a"},
			"stone": {Base: "#8c8577", Accent: "#b0a898"},
			"brick": {Base: "#a0442c", Accent: "#d9c9b0"},
			"metal": {Base: "#5f6466", Accent: "#8a9092"},
		},
		Plants: PlantSwatch{Trunk: "#5b3a1e", Stem: "#3f6b2a", Leaf: "#4c8c3a", Flower: "#e04f7a"},
		Colors: map[string]string{
			"red":        "#d93b3b",
			"pink":       "#e86fa0",
			"orange":     "#ef8a2e",
			"yellow":     "#f2cf3a",
			"white":      "#f4f1ea",
			"blue":       "#4d6fd0",
			"purple":     "#7b3fa0",
			"violet":     "#8a5cc9",
			"green":      "#4c8c3a",
			"dark green": "#2f5a26",
			"silver":     "#a9b3a5",
			"bronze":     "#8a5a2b",
			"burgundy":   "#6e1f33",
			"variegated": "#9cbf6a",
			"gold":       "#d4a829",
		},
	}
}

// Merge fills entries missing from p with the ones from defaults.
func (p *Palette) Merge(defaults *Palette) {
	if p.Name == "" {
		p.Name = defaults.Name
	}
	if p.Surfaces == nil {
		p.Surfaces = map[string]Swatch{}
	}
	for k, v := range defaults.Surfaces {
		if _, ok := p.Surfaces[k]; !ok {
			p.Surfaces[k] = v
		}
	}
	if p.Borders == nil {
		p.Borders = map[string]Swatch{}
	}
	for k, v := range defaults.Borders {
		if _, ok := p.Borders[k]; !ok {
			p.Borders[k] = v
		}
	}
	if p.Colors == nil {
		p.Colors = map[string]string{}
	}
	for k, v := range defaults.Colors {
		if _, ok := p.Colors[k]; !ok {
			p.Colors[k] = v
		}
	}
	if p.Plants.Trunk == "" {
		p.Plants.Trunk = defaults.Plants.Trunk
	}
	if p.Plants.Stem == "" {
		p.Plants.Stem = defaults.Plants.Stem
	}
	if p.Plants.Leaf == "" {
		p.Plants.Leaf = defaults.Plants.Leaf
	}
	if p.Plants.Flower == "" {
		p.Plants.Flower = defaults.Plants.Flower
	}
}

func (p *Palette) Surface(name string) Swatch {
	if s, ok := p.Surfaces[strings.ToLower(name)]; ok {
		return s
	}
	return p.Surfaces["grass"]
}

func (p *Palette) Border(name string) Swatch {
	if s, ok := p.Borders[strings.ToLower(name)]; ok {
		return s
	}
	return p.Borders["wood"]
}

// Color resolves a catalog colour name or passes a hex value through.
// Unknown names return fallback.
func (p *Palette) Color(name, fallback string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return fallback
	}
	if strings.HasPrefix(n, "#") {
		return n
	}
	if c, ok := p.Colors[n]; ok {
		return c
	}
	return fallback
}

/**
 * @brief A garden on disk: the description, the placed plants and
 * optionally an inline catalog.
 */
type GardenFixture struct {
	Name        string                   `toml:"name"`
	Description garden.Description       `toml:"garden"`
	Plants      []garden.PlacedPlant     `toml:"placed"`
	Catalog     []garden.PlantAttributes `toml:"catalog"`
}
