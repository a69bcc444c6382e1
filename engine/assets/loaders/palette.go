package loaders

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/gardenia/engine/resources"
)

type PaletteLoader struct{}

func (pl *PaletteLoader) Load(path string) (*resources.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	palette := &resources.Palette{}
	if err := toml.Unmarshal(data, palette); err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	palette.Merge(resources.DefaultPalette())
	return &resources.Resource{
		Name:     palette.Name,
		FullPath: path,
		DataSize: uint64(len(data)),
		Type:     resources.ResourceTypePalette,
		Data:     palette,
	}, nil
}

func (pl *PaletteLoader) Unload(*resources.Resource) error {
	return nil
}
