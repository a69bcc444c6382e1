package loaders

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/resources"
)

type inventoryFile struct {
	Plants []garden.PlantAttributes `toml:"plants"`
}

// InventoryLoader reads a plant catalog with one [[plants]] table per plant.
type InventoryLoader struct{}

func (il *InventoryLoader) Load(path string) (*resources.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f inventoryFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}
	for i, p := range f.Plants {
		if p.ID == "" {
			return nil, fmt.Errorf("inventory %s: plant #%d has no id", path, i+1)
		}
		f.Plants[i].Category = garden.NormalizeCategory(string(p.Category))
	}
	return &resources.Resource{
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(data)),
		Type:     resources.ResourceTypeInventory,
		Data:     garden.NewMapInventory(f.Plants),
	}, nil
}

func (il *InventoryLoader) Unload(*resources.Resource) error {
	return nil
}
