package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/gardenia/engine/assets/loaders"
	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/resources"
)

type AssetInfo struct {
	Path       string
	Type       resources.ResourceType
	LastLoaded time.Time
	Resource   *resources.Resource
}

// ReloadFunc is called after an asset was (re)loaded from disk.
type ReloadFunc func(res *resources.Resource)

/**
 * @brief Loads palettes, plant catalogs and garden fixtures from a
 * directory and reloads them when they change on disk.
 */
type AssetManager struct {
	assets    map[string]*AssetInfo
	loaders   map[resources.ResourceType]Loader
	callbacks map[resources.ResourceType][]ReloadFunc

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	started  bool
}

var ErrClosed = errors.New("asset manager already closed")

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:    make(map[string]*AssetInfo),
		loaders:   make(map[resources.ResourceType]Loader),
		callbacks: make(map[resources.ResourceType][]ReloadFunc),
		fsnotify:  fsWatch,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	am.registerLoader(resources.ResourceTypePalette, &loaders.PaletteLoader{})
	am.registerLoader(resources.ResourceTypeInventory, &loaders.InventoryLoader{})
	am.registerLoader(resources.ResourceTypeGarden, &loaders.GardenLoader{})
	return am, nil
}

// Initialize loads every known asset under assetsDir and starts watching it.
func (am *AssetManager) Initialize(assetsDir string) error {
	if am.isClosed {
		return ErrClosed
	}
	if err := am.watchRecursive(assetsDir, false); err != nil {
		return err
	}
	am.mutex.Lock()
	am.started = true
	am.mutex.Unlock()
	go am.start()
	return nil
}

// LoadDir loads every known asset under assetsDir once, without watching.
func (am *AssetManager) LoadDir(assetsDir string) error {
	if am.isClosed {
		return ErrClosed
	}
	return filepath.Walk(assetsDir, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
}

// OnReload registers fn for every later load of an asset of the given type.
func (am *AssetManager) OnReload(resourceType resources.ResourceType, fn ReloadFunc) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.callbacks[resourceType] = append(am.callbacks[resourceType], fn)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType resources.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads (or reloads) a file using the loader for its type.
func (am *AssetManager) LoadAsset(path string) (*resources.Resource, error) {
	assetType := determineAssetType(path)
	if assetType == resources.ResourceTypeNone {
		return nil, fmt.Errorf("unknown asset type: %s", path)
	}
	loader, ok := am.loaders[assetType]
	if !ok {
		return nil, fmt.Errorf("no loader registered for asset type: %s", assetType)
	}
	res, err := loader.Load(path)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = &AssetInfo{
		Path:       path,
		Type:       assetType,
		LastLoaded: time.Now(),
		Resource:   res,
	}
	callbacks := append([]ReloadFunc(nil), am.callbacks[assetType]...)
	am.mutex.Unlock()

	core.LogInfo("loaded %s asset '%s' from %s", assetType, res.Name, path)
	for _, fn := range callbacks {
		fn(res)
	}
	return res, nil
}

// Find returns the loaded asset of the given type and name.
func (am *AssetManager) Find(resourceType resources.ResourceType, name string) (*resources.Resource, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	for _, a := range am.assets {
		if a.Type == resourceType && a.Resource.Name == name {
			return a.Resource, true
		}
	}
	return nil, false
}

// List returns the loaded assets of a type, sorted by path.
func (am *AssetManager) List(resourceType resources.ResourceType) []*resources.Resource {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	paths := make([]string, 0, len(am.assets))
	for p, a := range am.assets {
		if a.Type == resourceType {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	out := make([]*resources.Resource, 0, len(paths))
	for _, p := range paths {
		out = append(out, am.assets[p].Resource)
	}
	return out
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	started := am.started
	am.mutex.Unlock()

	if !started {
		return am.fsnotify.Close()
	}
	close(am.done)
	<-am.stopped
	return nil
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogError("%s", err)
					}
				}
				continue
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("%s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list
// and loads the files it finds.
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		if !unWatch {
			am.handleFileEvent(walkPath)
		}
		return nil
	})
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	if determineAssetType(path) == resources.ResourceTypeNone {
		return
	}
	if _, err := am.LoadAsset(path); err != nil {
		// Editors write files in several steps; keep the last good version.
		core.LogWarn("could not load asset %s: %s", path, err)
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) resources.ResourceType {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".palette.toml"):
		return resources.ResourceTypePalette
	case strings.HasSuffix(name, ".plants.toml"):
		return resources.ResourceTypeInventory
	case strings.HasSuffix(name, ".garden.toml"):
		return resources.ResourceTypeGarden
	default:
		return resources.ResourceTypeNone
	}
}
