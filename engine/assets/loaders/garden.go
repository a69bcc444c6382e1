package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/gardenia/engine/resources"
)

type GardenLoader struct{}

func (gl *GardenLoader) Load(path string) (*resources.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fixture := &resources.GardenFixture{}
	if err := toml.Unmarshal(data, fixture); err != nil {
		return nil, fmt.Errorf("garden %s: %w", path, err)
	}
	if _, err := fixture.Description.Bounds(); err != nil {
		return nil, fmt.Errorf("garden %s: %w", path, err)
	}
	if fixture.Name == "" {
		fixture.Name = strings.TrimSuffix(filepath.Base(path), ".garden.toml")
	}
	return &resources.Resource{
		Name:     fixture.Name,
		FullPath: path,
		DataSize: uint64(len(data)),
		Type:     resources.ResourceTypeGarden,
		Data:     fixture,
	}, nil
}

func (gl *GardenLoader) Unload(*resources.Resource) error {
	return nil
}
