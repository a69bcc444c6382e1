package garden

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/gardenia/engine/math"
)

func TestDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		wrap       bool
		total      int
	}{
		{name: "wraps over new year", start: 335, end: 74, wrap: true, total: (365 - 335 + 1) + 74},
		{name: "plain", start: 60, end: 90, wrap: false, total: 31},
		{name: "single day", start: 100, end: 100, wrap: false, total: 1},
		{name: "whole year", start: 1, end: 365, wrap: false, total: 365},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewDateRange(tt.start, tt.end)
			if err != nil {
				t.Fatal(err)
			}
			if r.WrapAround != tt.wrap {
				t.Errorf("WrapAround = %v, want %v", r.WrapAround, tt.wrap)
			}
			if r.TotalDays != tt.total {
				t.Errorf("TotalDays = %d, want %d", r.TotalDays, tt.total)
			}
		})
	}

	if _, err := NewDateRange(0, 10); err == nil {
		t.Error("day 0 should be rejected")
	}
	if _, err := NewDateRange(10, 366); err == nil {
		t.Error("day 366 should be rejected")
	}
}

func TestDateRangeSampleWraps(t *testing.T) {
	r, _ := NewDateRange(335, 74)
	days := r.Sample(4)
	want := []int{335, 4, 39, 74}
	if len(days) != len(want) {
		t.Fatalf("days = %v, want %v", days, want)
	}
	for i := range want {
		if days[i] != want[i] {
			t.Fatalf("days = %v, want %v", days, want)
		}
		if !r.Contains(days[i]) {
			t.Errorf("sampled day %d outside range", days[i])
		}
	}
	if r.Contains(200) {
		t.Error("day 200 should be outside 335-74")
	}
}

func TestDateForDay(t *testing.T) {
	if got := DateForDay(2025, 1); got != "2025-01-01" {
		t.Errorf("got %s", got)
	}
	if got := DateForDay(2025, 74); got != "2025-03-15" {
		t.Errorf("got %s", got)
	}
}

func TestPlantInstanceClampsDimensions(t *testing.T) {
	p := NewPlantInstance("a", "b", "zero", math.NewVec3Zero(), Dimensions{}, Properties{})
	if p.Dimensions.Height != MIN_PLANT_DIMENSION || p.Dimensions.Spread != MIN_PLANT_DIMENSION {
		t.Fatalf("dimensions = %+v, want both %v", p.Dimensions, MIN_PLANT_DIMENSION)
	}
	neg := NewPlantInstance("a", "b", "neg", math.NewVec3Zero(), Dimensions{Height: -3, Spread: 2}, Properties{})
	if neg.Dimensions.Height != MIN_PLANT_DIMENSION || neg.Dimensions.Spread != 2 {
		t.Fatalf("dimensions = %+v", neg.Dimensions)
	}
}

func TestDescriptionBounds(t *testing.T) {
	tests := []struct {
		name    string
		desc    Description
		shape   Shape
		extents math.Extents2D
	}{
		{
			name:    "rectangle in feet",
			desc:    Description{Shape: "rectangle", Units: UnitsFeet, Dimensions: DescriptionDimensions{Width: 10, Length: 20}},
			shape:   ShapeRectangle,
			extents: math.Extents2D{Max: math.NewVec2(3.048, 6.096)},
		},
		{
			name:    "circle from radius",
			desc:    Description{Shape: "circle", Units: UnitsMeters, Dimensions: DescriptionDimensions{Radius: 2}},
			shape:   ShapeCircle,
			extents: math.Extents2D{Max: math.NewVec2(4, 4)},
		},
		{
			name:    "oval from width and length",
			desc:    Description{Shape: "oval", Units: "cm", Dimensions: DescriptionDimensions{Width: 600, Length: 300}},
			shape:   ShapeOval,
			extents: math.Extents2D{Max: math.NewVec2(6, 3)},
		},
		{
			name:    "L shape default outline",
			desc:    Description{Shape: "L-shaped", Dimensions: DescriptionDimensions{Width: 5, Length: 4}},
			shape:   ShapeLShaped,
			extents: math.Extents2D{Max: math.NewVec2(5, 4)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.desc.Bounds()
			if err != nil {
				t.Fatal(err)
			}
			if b.Shape != tt.shape {
				t.Errorf("shape = %s, want %s", b.Shape, tt.shape)
			}
			if !b.Extents.Compare(tt.extents, 1e-3) {
				t.Errorf("extents = %+v, want %+v", b.Extents, tt.extents)
			}
			if err := b.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestDescriptionKeepsShortVertexList(t *testing.T) {
	desc := Description{Shape: "triangle", Dimensions: DescriptionDimensions{Width: 4, Length: 3, Vertices: []Point{{0, 0}, {4, 0}}}}
	b, err := desc.Bounds()
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(b.Validate(), ErrTooFewVertices) {
		t.Fatalf("Validate = %v, want ErrTooFewVertices", b.Validate())
	}
	if !b.Extents.Compare(math.Extents2D{Max: math.NewVec2(4, 3)}, 1e-5) {
		t.Fatalf("fallback extents = %+v", b.Extents)
	}
}

func TestDescriptionShortVertexFallbackHasArea(t *testing.T) {
	tests := []struct {
		name    string
		dims    DescriptionDimensions
		extents math.Extents2D
		wantErr bool
	}{
		{"boxed by the given vertices", DescriptionDimensions{Vertices: []Point{{0, 0}, {4, 3}}}, math.Extents2D{Max: math.NewVec2(4, 3)}, false},
		{"offset vertices keep their position", DescriptionDimensions{Vertices: []Point{{2, 1}, {5, 6}}}, math.Extents2D{Min: math.NewVec2(2, 1), Max: math.NewVec2(5, 6)}, false},
		{"width and length win over vertices", DescriptionDimensions{Width: 2, Length: 2, Vertices: []Point{{0, 0}, {4, 3}}}, math.Extents2D{Max: math.NewVec2(2, 2)}, false},
		{"single vertex", DescriptionDimensions{Vertices: []Point{{1, 1}}}, math.Extents2D{}, true},
		{"collinear on an axis", DescriptionDimensions{Vertices: []Point{{0, 0}, {4, 0}}}, math.Extents2D{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Description{Shape: "L-shaped", Dimensions: tt.dims}.Bounds()
			if tt.wantErr {
				if !errors.Is(err, ErrTooFewVertices) {
					t.Fatalf("err = %v, want ErrTooFewVertices", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !b.Extents.Compare(tt.extents, 1e-5) {
				t.Fatalf("extents = %+v, want %+v", b.Extents, tt.extents)
			}
			if b.Extents.Width() <= 0 || b.Extents.Height() <= 0 {
				t.Fatalf("fallback box has no area: %+v", b.Extents)
			}
		})
	}
}

func TestDescriptionPlantsSkipsUnknown(t *testing.T) {
	desc := Description{Shape: "rectangle", Units: UnitsMeters, Slope: 10, Dimensions: DescriptionDimensions{Width: 4, Length: 4}}
	bounds, _ := desc.Bounds()
	inv := NewMapInventory([]PlantAttributes{
		{ID: "oak", CommonName: "Oak", Category: "Tree", MatureHeight: 12, MatureSpread: 8, CurrentHeight: 3},
	})
	plants, err := desc.Plants(bounds, []PlacedPlant{
		{ID: "p1", PlantID: "oak", Position: Point{X: 1, Y: 2}},
		{ID: "p2", PlantID: "missing", Position: Point{X: 2, Y: 2}},
	}, inv)
	if err != nil {
		t.Fatal(err)
	}
	if len(plants) != 1 {
		t.Fatalf("plants = %d, want 1", len(plants))
	}
	p := plants[0]
	if p.Properties.Category != CategoryTree {
		t.Errorf("category = %q", p.Properties.Category)
	}
	if p.Dimensions.Height != 3 || p.Dimensions.Spread != 8 {
		t.Errorf("dimensions = %+v, want current height and mature spread", p.Dimensions)
	}
	if math.Abs(p.Position.Z-0.2) > 1e-5 {
		t.Errorf("z = %v, want 0.2 on a 10%% grade", p.Position.Z)
	}
}

func TestSizeClass(t *testing.T) {
	tests := []struct {
		height float32
		want   SizeClass
	}{
		{0.3, SizeSmall},
		{0.6, SizeMedium},
		{1.9, SizeMedium},
		{2, SizeLarge},
	}
	for _, tt := range tests {
		if got := SizeClassForHeight(tt.height); got != tt.want {
			t.Errorf("SizeClassForHeight(%v) = %s, want %s", tt.height, got, tt.want)
		}
	}
}

func TestParseShape(t *testing.T) {
	for _, s := range Shapes() {
		got, err := ParseShape(s.String())
		if err != nil || got != s {
			t.Errorf("ParseShape(%q) = %v, %v", s.String(), got, err)
		}
	}
	if got, err := ParseShape("L_Shaped"); err != nil || got != ShapeLShaped {
		t.Errorf("ParseShape(L_Shaped) = %v, %v", got, err)
	}
	if _, err := ParseShape("hexagon"); err == nil {
		t.Error("expected error for unknown shape")
	}
}
