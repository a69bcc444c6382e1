package garden

import (
	"strings"

	"github.com/spaghettifunk/gardenia/engine/math"
)

/** @brief Smallest height or spread a plant is rendered with, in metres. */
const MIN_PLANT_DIMENSION float32 = 0.1

type Category string

const (
	CategoryTree        Category = "tree"
	CategoryShrub       Category = "shrub"
	CategoryPerennial   Category = "perennial"
	CategoryAnnual      Category = "annual"
	CategoryGrass       Category = "grass"
	CategoryGroundcover Category = "groundcover"
	CategoryVine        Category = "vine"
	CategoryBulb        Category = "bulb"
)

// NormalizeCategory lower-cases and trims; unknown categories are kept.
func NormalizeCategory(c string) Category {
	n := strings.ToLower(strings.TrimSpace(c))
	switch n {
	case "trees":
		return CategoryTree
	case "shrubs", "bush":
		return CategoryShrub
	case "":
		return CategoryPerennial
	}
	return Category(n)
}

type Dimensions struct {
	Height float32
	Spread float32
}

// Clamped returns the dimensions raised to the minimum floor.
func (d Dimensions) Clamped() Dimensions {
	return Dimensions{
		Height: math.Max(d.Height, MIN_PLANT_DIMENSION),
		Spread: math.Max(d.Spread, MIN_PLANT_DIMENSION),
	}
}

type Properties struct {
	Category    Category
	FlowerColor string
	LeafColor   string
}

type PlantInstance3D struct {
	ID         string
	PlantID    string
	Name       string
	Position   math.Vec3
	Dimensions Dimensions
	Properties Properties
}

// NewPlantInstance clamps the dimensions; NaN and negatives end up at the floor.
func NewPlantInstance(id, plantID, name string, position math.Vec3, dims Dimensions, props Properties) PlantInstance3D {
	if dims.Height != dims.Height {
		dims.Height = 0
	}
	if dims.Spread != dims.Spread {
		dims.Spread = 0
	}
	props.Category = NormalizeCategory(string(props.Category))
	return PlantInstance3D{
		ID:         id,
		PlantID:    plantID,
		Name:       name,
		Position:   position,
		Dimensions: dims.Clamped(),
		Properties: props,
	}
}
