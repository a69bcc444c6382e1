package metadata

import (
	"errors"
	"testing"
)

func TestResourceArenaRefcount(t *testing.T) {
	arena, err := NewResourceArena(ResourceArenaConfig{MaxResourceCount: 4})
	if err != nil {
		t.Fatal(err)
	}

	h, err := arena.Acquire(ResourceKindTexture, OwnershipSharedCache, "grass")
	if err != nil {
		t.Fatal(err)
	}
	if err := arena.Retain(h); err != nil {
		t.Fatal(err)
	}

	freed, err := arena.Release(h)
	if err != nil || freed {
		t.Fatalf("first release: freed=%v err=%v, want still live", freed, err)
	}
	if got := arena.Live(ResourceKindTexture); got != 1 {
		t.Fatalf("live textures = %d, want 1", got)
	}

	freed, err = arena.Release(h)
	if err != nil || !freed {
		t.Fatalf("second release: freed=%v err=%v, want freed", freed, err)
	}
	if arena.LiveTotal() != 0 {
		t.Fatalf("live total = %d, want 0", arena.LiveTotal())
	}

	if _, err := arena.Release(h); !errors.Is(err, ErrStaleHandle) {
		t.Fatalf("release after free: err = %v, want ErrStaleHandle", err)
	}
}

func TestResourceArenaReusesSlotsWithNewGeneration(t *testing.T) {
	arena, _ := NewResourceArena(ResourceArenaConfig{MaxResourceCount: 1})

	first, _ := arena.Acquire(ResourceKindGeometry, OwnershipExclusive, "ground")
	if _, err := arena.Acquire(ResourceKindGeometry, OwnershipExclusive, "border"); !errors.Is(err, ErrArenaFull) {
		t.Fatalf("err = %v, want ErrArenaFull", err)
	}
	if _, err := arena.Release(first); err != nil {
		t.Fatal(err)
	}

	second, err := arena.Acquire(ResourceKindGeometry, OwnershipExclusive, "border")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID || second.Generation == first.Generation {
		t.Fatalf("second = %s, want same slot as %s with a new generation", second, first)
	}
	if arena.IsLive(first) {
		t.Fatal("old handle still reported live")
	}
}

func TestNewResourceArenaRejectsZeroMax(t *testing.T) {
	if _, err := NewResourceArena(ResourceArenaConfig{}); !errors.Is(err, ErrNoArenaEntries) {
		t.Fatalf("err = %v, want ErrNoArenaEntries", err)
	}
}
