package systems

import (
	"testing"

	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

func TestBillboardScale(t *testing.T) {
	tests := []struct {
		name string
		dims garden.Dimensions
		want math.Vec2
	}{
		{"zero size clamps", garden.Dimensions{}, math.NewVec2(0.1, 0.1)},
		{"negative clamps", garden.Dimensions{Height: -2, Spread: -1}, math.NewVec2(0.1, 0.1)},
		{"narrow plant widens", garden.Dimensions{Height: 2, Spread: 0.5}, math.NewVec2(1.2, 2)},
		{"wide plant keeps spread", garden.Dimensions{Height: 1, Spread: 3}, math.NewVec2(3, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BillboardScale(tt.dims); !got.Compare(tt.want, 1e-5) {
				t.Fatalf("BillboardScale(%+v) = %v, want %v", tt.dims, got, tt.want)
			}
		})
	}
}

func TestBillboardAnchorsAtPlantBase(t *testing.T) {
	arena := newArena(t)
	r, _ := newTestRenderer(t, arena)
	bf := NewBillboardFactory(r, newTestCache(t, arena, 10))

	plant := garden.NewPlantInstance("p", "fern", "Fern", math.NewVec3(2, 3, 0.4),
		garden.Dimensions{Height: 0, Spread: 0}, garden.Properties{Category: "perennial"})
	sprite, err := bf.Build(plant)
	if err != nil {
		t.Fatal(err)
	}
	if !sprite.Position.Compare(plant.Position, 1e-6) {
		t.Errorf("position = %v, want %v", sprite.Position, plant.Position)
	}
	if !sprite.Center.Compare(math.NewVec2(0.5, 0), 1e-6) {
		t.Errorf("anchor = %v, want bottom center", sprite.Center)
	}
	if !sprite.Scale.Compare(math.NewVec2(0.1, 0.1), 1e-6) {
		t.Errorf("scale = %v, want clamped 0.1", sprite.Scale)
	}
}

func TestWindSwayMovesOnlyTheTop(t *testing.T) {
	arena := newArena(t)
	r, _ := newTestRenderer(t, arena)
	bf := NewBillboardFactory(r, newTestCache(t, arena, 10))
	bf.SetSway(WindSway(math.NewVec2(1, 0), 0.1, 2))

	sprite, err := bf.Build(garden.NewPlantInstance("p", "x", "Grass", math.NewVec3(0, 0, 0),
		garden.Dimensions{Height: 1, Spread: 1}, garden.Properties{Category: "grass"}))
	if err != nil {
		t.Fatal(err)
	}
	for _, elapsed := range []float64{0.1, 0.7, 1.3} {
		bf.Update([]*metadata.Sprite{sprite}, elapsed)
		if math.Abs(sprite.Sway.X) > 0.1+1e-6 || sprite.Sway.Y != 0 {
			t.Fatalf("sway = %v at %f", sprite.Sway, elapsed)
		}
	}
	if !sprite.Position.Compare(math.NewVec3Zero(), 1e-6) {
		t.Fatal("sway moved the base")
	}
}
