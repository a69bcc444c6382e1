package garden

type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

const (
	SMALL_PLANT_MAX_HEIGHT  float32 = 0.6
	MEDIUM_PLANT_MAX_HEIGHT float32 = 2.0
)

// SizeClassForHeight buckets a mature height in metres.
func SizeClassForHeight(height float32) SizeClass {
	switch {
	case height < SMALL_PLANT_MAX_HEIGHT:
		return SizeSmall
	case height < MEDIUM_PLANT_MAX_HEIGHT:
		return SizeMedium
	}
	return SizeLarge
}

// SizeClass uses the mature height, or the current one when unknown.
func (a PlantAttributes) SizeClass() SizeClass {
	h := a.MatureHeight
	if h <= 0 {
		h = a.CurrentHeight
	}
	return SizeClassForHeight(h)
}

type ManifestEntry struct {
	Name      string
	PlantID   string
	SizeClass SizeClass
	// Position relative to the plot, 0-1 on both axes.
	X float32
	Y float32
}

/**
 * @brief Builds the plant manifest sent with seasonal requests. Positions
 * are normalized to the bounding box so the remote side does not need units.
 */
func BuildManifest(bounds GardenBounds, plants []PlantInstance3D, inventory Inventory) []ManifestEntry {
	w, l := bounds.Width(), bounds.Length()
	entries := make([]ManifestEntry, 0, len(plants))
	for _, p := range plants {
		entry := ManifestEntry{
			Name:      p.Name,
			PlantID:   p.PlantID,
			SizeClass: SizeClassForHeight(p.Dimensions.Height),
		}
		if attrs, ok := inventory.Lookup(p.PlantID); ok {
			entry.SizeClass = attrs.SizeClass()
		}
		if w > 0 {
			entry.X = (p.Position.X - bounds.Extents.Min.X) / w
		}
		if l > 0 {
			entry.Y = (p.Position.Y - bounds.Extents.Min.Y) / l
		}
		entries = append(entries, entry)
	}
	return entries
}
