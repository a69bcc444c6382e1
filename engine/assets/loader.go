package assets

import "github.com/spaghettifunk/gardenia/engine/resources"

type Loader interface {
	Load(path string) (*resources.Resource, error)
	Unload(*resources.Resource) error
}
