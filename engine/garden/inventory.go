package garden

import "sort"

/** @brief Botanical attributes of a catalog plant. Sizes in metres. */
type PlantAttributes struct {
	ID            string   `json:"id" toml:"id"`
	CommonName    string   `json:"commonName" toml:"common_name"`
	BotanicalName string   `json:"botanicalName" toml:"botanical_name"`
	Category      Category `json:"category" toml:"category"`
	FlowerColor   string   `json:"flowerColor" toml:"flower_color"`
	FoliageColor  string   `json:"foliageColor" toml:"foliage_color"`
	BloomTime     string   `json:"bloomTime" toml:"bloom_time"`
	// Months the plant flowers, 1-12. Empty means it does not.
	BloomMonths   []int   `json:"bloomMonths,omitempty" toml:"bloom_months"`
	MatureHeight  float32 `json:"matureHeight" toml:"mature_height"`
	MatureSpread  float32 `json:"matureSpread" toml:"mature_spread"`
	CurrentHeight float32 `json:"currentHeight,omitempty" toml:"current_height"`
	CurrentSpread float32 `json:"currentSpread,omitempty" toml:"current_spread"`
}

func (a PlantAttributes) DisplayName() string {
	if a.CommonName != "" {
		return a.CommonName
	}
	if a.BotanicalName != "" {
		return a.BotanicalName
	}
	return a.ID
}

// RenderDimensions prefers the current size and falls back to the mature one.
func (a PlantAttributes) RenderDimensions() Dimensions {
	d := Dimensions{Height: a.CurrentHeight, Spread: a.CurrentSpread}
	if d.Height <= 0 {
		d.Height = a.MatureHeight
	}
	if d.Spread <= 0 {
		d.Spread = a.MatureSpread
	}
	return d
}

// BloomsInMonth reports whether the plant flowers in month (1-12).
func (a PlantAttributes) BloomsInMonth(month int) bool {
	for _, m := range a.BloomMonths {
		if m == month {
			return true
		}
	}
	return false
}

type Inventory interface {
	Lookup(plantID string) (PlantAttributes, bool)
}

type MapInventory map[string]PlantAttributes

func (m MapInventory) Lookup(plantID string) (PlantAttributes, bool) {
	a, ok := m[plantID]
	return a, ok
}

// NewMapInventory indexes the attributes by ID.
func NewMapInventory(plants []PlantAttributes) MapInventory {
	m := make(MapInventory, len(plants))
	for _, p := range plants {
		m[p.ID] = p
	}
	return m
}

// IDs returns the plant ids in sorted order.
func (m MapInventory) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
