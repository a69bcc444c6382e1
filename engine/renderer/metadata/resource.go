package metadata

import (
	"fmt"
	"sync"
)

/** @brief Invalid identifier used for unset ids and generations. */
const InvalidID uint32 = 4294967295

type ResourceKind int

/** @brief Kinds of renderer owned resources tracked by the arena. */
const (
	ResourceKindTexture ResourceKind = iota
	ResourceKindGeometry
	ResourceKindMaterial
	ResourceKindShadowMap
	ResourceKindSprite
	ResourceKindRenderer
	resourceKindCount
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceKindTexture:
		return "texture"
	case ResourceKindGeometry:
		return "geometry"
	case ResourceKindMaterial:
		return "material"
	case ResourceKindShadowMap:
		return "shadow_map"
	case ResourceKindSprite:
		return "sprite"
	case ResourceKindRenderer:
		return "renderer"
	}
	return "unknown"
}

// ResourceKinds lists every kind the arena tracks.
func ResourceKinds() []ResourceKind {
	kinds := make([]ResourceKind, 0, resourceKindCount)
	for k := ResourceKind(0); k < resourceKindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

/**
 * @brief Ownership tag of an arena entry. Exclusive resources belong to one
 * scene generation and are freed on reset. SharedCache resources belong to
 * the texture cache; scenes only borrow a reference.
 */
type Ownership int

const (
	OwnershipExclusive Ownership = iota
	OwnershipSharedCache
)

func (o Ownership) String() string {
	if o == OwnershipSharedCache {
		return "shared-cache"
	}
	return "exclusive"
}

/** @brief A handle into the resource arena. Slots are reused, the generation is not. */
type Handle struct {
	ID         uint32
	Generation uint32
}

var InvalidHandle = Handle{ID: InvalidID, Generation: InvalidID}

func (h Handle) IsValid() bool {
	return h.ID != InvalidID
}

func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.ID, h.Generation)
}

type ResourceReference struct {
	ReferenceCount uint64
	Kind           ResourceKind
	Ownership      Ownership
	Generation     uint32
	Name           string
}

type ResourceArenaConfig struct {
	/** @brief Maximum number of live entries at once. */
	MaxResourceCount uint32
}

/**
 * @brief Arena of renderer resource handles. Every texture, geometry,
 * material, shadow map, sprite and renderer gets an entry on creation and
 * loses it when its reference count drops to zero.
 */
type ResourceArena struct {
	mu        sync.Mutex
	config    ResourceArenaConfig
	entries   []ResourceReference
	live      []bool
	freeSlots []uint32
	counts    [resourceKindCount]int
}

var (
	ErrArenaFull      = fmt.Errorf("resource arena is full")
	ErrInvalidHandle  = fmt.Errorf("invalid resource handle")
	ErrStaleHandle    = fmt.Errorf("stale resource handle")
	ErrNoArenaEntries = fmt.Errorf("resource arena config must allow at least one entry")
)

func NewResourceArena(config ResourceArenaConfig) (*ResourceArena, error) {
	if config.MaxResourceCount == 0 {
		return nil, ErrNoArenaEntries
	}
	return &ResourceArena{
		config:  config,
		entries: make([]ResourceReference, 0, 64),
		live:    make([]bool, 0, 64),
	}, nil
}

/**
 * @brief Registers a new resource with a reference count of one.
 */
func (a *ResourceArena) Acquire(kind ResourceKind, ownership Ownership, name string) (Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var id uint32
	if n := len(a.freeSlots); n > 0 {
		id = a.freeSlots[n-1]
		a.freeSlots = a.freeSlots[:n-1]
	} else {
		if uint32(len(a.entries)) >= a.config.MaxResourceCount {
			return InvalidHandle, fmt.Errorf("%w: %d entries", ErrArenaFull, a.config.MaxResourceCount)
		}
		id = uint32(len(a.entries))
		a.entries = append(a.entries, ResourceReference{Generation: InvalidID})
		a.live = append(a.live, false)
	}

	ref := &a.entries[id]
	if ref.Generation == InvalidID {
		ref.Generation = 0
	} else {
		ref.Generation++
	}
	ref.ReferenceCount = 1
	ref.Kind = kind
	ref.Ownership = ownership
	ref.Name = name
	a.live[id] = true
	a.counts[kind]++

	return Handle{ID: id, Generation: ref.Generation}, nil
}

func (a *ResourceArena) lookup(h Handle) (*ResourceReference, error) {
	if !h.IsValid() || int(h.ID) >= len(a.entries) {
		return nil, ErrInvalidHandle
	}
	if !a.live[h.ID] || a.entries[h.ID].Generation != h.Generation {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return &a.entries[h.ID], nil
}

/** @brief Adds a reference to a live resource. */
func (a *ResourceArena) Retain(h Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ref, err := a.lookup(h)
	if err != nil {
		return err
	}
	ref.ReferenceCount++
	return nil
}

/**
 * @brief Drops one reference. Returns true when this was the last one and
 * the slot was freed; the caller then destroys the backend side.
 */
func (a *ResourceArena) Release(h Handle) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ref, err := a.lookup(h)
	if err != nil {
		return false, err
	}
	ref.ReferenceCount--
	if ref.ReferenceCount > 0 {
		return false, nil
	}
	a.live[h.ID] = false
	a.counts[ref.Kind]--
	ref.Name = ""
	a.freeSlots = append(a.freeSlots, h.ID)
	return true, nil
}

func (a *ResourceArena) IsLive(h Handle) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, err := a.lookup(h)
	return err == nil
}

// Reference returns a copy of the arena entry behind h.
func (a *ResourceArena) Reference(h Handle) (ResourceReference, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ref, err := a.lookup(h)
	if err != nil {
		return ResourceReference{}, false
	}
	return *ref, true
}

/** @brief Number of live entries of the given kind. */
func (a *ResourceArena) Live(kind ResourceKind) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[kind]
}

// LiveByOwnership counts live entries of a kind with the given ownership.
func (a *ResourceArena) LiveByOwnership(kind ResourceKind, ownership Ownership) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for i := range a.entries {
		if a.live[i] && a.entries[i].Kind == kind && a.entries[i].Ownership == ownership {
			n++
		}
	}
	return n
}

func (a *ResourceArena) LiveTotal() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, c := range a.counts {
		total += c
	}
	return total
}
