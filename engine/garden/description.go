package garden

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/math"
)

type Units string

const (
	UnitsMeters      Units = "meters"
	UnitsFeet        Units = "feet"
	UnitsCentimeters Units = "centimeters"
	UnitsInches      Units = "inches"
)

// MetresPer returns the conversion factor from u to metres.
func (u Units) MetresPer() (float32, error) {
	switch Units(strings.ToLower(strings.TrimSpace(string(u)))) {
	case UnitsMeters, "m", "metres", "meter", "metre", "":
		return 1, nil
	case UnitsFeet, "ft", "foot":
		return 0.3048, nil
	case UnitsCentimeters, "cm", "centimetres":
		return 0.01, nil
	case UnitsInches, "in", "inch":
		return 0.0254, nil
	}
	return 0, fmt.Errorf("unknown units %q", string(u))
}

type Point struct {
	X float32 `json:"x" toml:"x"`
	Y float32 `json:"y" toml:"y"`
}

type DescriptionDimensions struct {
	Width    float32 `json:"width" toml:"width"`
	Length   float32 `json:"length" toml:"length"`
	Radius   float32 `json:"radius,omitempty" toml:"radius"`
	RadiusX  float32 `json:"radiusX,omitempty" toml:"radius_x"`
	RadiusY  float32 `json:"radiusY,omitempty" toml:"radius_y"`
	Vertices []Point `json:"vertices,omitempty" toml:"vertices"`
}

/**
 * @brief Garden as described by the layout editor. Lengths are in Units;
 * the plot's bounding box starts at the origin.
 */
type Description struct {
	Shape      string                `json:"shape" toml:"shape"`
	Dimensions DescriptionDimensions `json:"dimensions" toml:"dimensions"`
	Units      Units                 `json:"units" toml:"units"`
	// Percent grade along +Y.
	Slope float32 `json:"slope" toml:"slope"`
}

type PlacedPlant struct {
	ID       string `json:"id" toml:"id"`
	PlantID  string `json:"plantId" toml:"plant_id"`
	Position Point  `json:"position" toml:"position"`
}

/**
 * @brief Converts the description to metric bounds. Polygon shapes
 * without vertices get the default outline for their tag; a short
 * vertex list is passed through for the geometry fallback to handle,
 * boxed by width x length or else by the vertices themselves.
 */
func (d Description) Bounds() (GardenBounds, error) {
	shape, err := ParseShape(d.Shape)
	if err != nil {
		return GardenBounds{}, err
	}
	scale, err := d.Units.MetresPer()
	if err != nil {
		return GardenBounds{}, err
	}
	dims := d.Dimensions
	width, length := dims.Width*scale, dims.Length*scale

	var bounds GardenBounds
	switch shape {
	case ShapeRectangle, ShapeSquare:
		if shape == ShapeSquare && length <= 0 {
			length = width
		}
		if width <= 0 || length <= 0 {
			return GardenBounds{}, fmt.Errorf("%s garden needs positive width and length", shape)
		}
		bounds = NewRectangleBounds(math.NewVec2(0, 0), math.NewVec2(width, length))
		bounds.Shape = shape
	case ShapeCircle:
		radius := dims.Radius * scale
		if radius <= 0 {
			radius = width * 0.5
		}
		if radius <= 0 {
			return GardenBounds{}, fmt.Errorf("circle garden needs a positive radius")
		}
		bounds = NewCircleBounds(math.NewVec2(radius, radius), radius)
	case ShapeOval:
		rx, ry := dims.RadiusX*scale, dims.RadiusY*scale
		if rx <= 0 {
			rx = width * 0.5
		}
		if ry <= 0 {
			ry = length * 0.5
		}
		if rx <= 0 || ry <= 0 {
			return GardenBounds{}, fmt.Errorf("oval garden needs positive radii")
		}
		bounds = NewOvalBounds(math.NewVec2(rx, ry), rx, ry)
	case ShapeTriangle, ShapeLShaped, ShapeRShaped:
		vertices := make([]math.Vec2, 0, len(dims.Vertices))
		for _, v := range dims.Vertices {
			vertices = append(vertices, math.NewVec2(v.X*scale, v.Y*scale))
		}
		if len(vertices) == 0 {
			if width <= 0 || length <= 0 {
				return GardenBounds{}, fmt.Errorf("%s garden needs vertices or a width and length", shape)
			}
			vertices = DefaultOutline(shape, width, length)
		}
		fallback, err := polygonFallback(shape, vertices, width, length)
		if err != nil {
			return GardenBounds{}, err
		}
		bounds = NewPolygonBounds(shape, vertices, fallback)
	}
	bounds.Slope = d.Slope
	return bounds, nil
}

// polygonFallback is the box a polygon with fewer than 3 vertices is drawn
// as. It must have area, otherwise the description is rejected.
func polygonFallback(shape Shape, vertices []math.Vec2, width, length float32) (math.Extents2D, error) {
	if len(vertices) >= 3 {
		return math.Extents2D{}, nil
	}
	if width > 0 && length > 0 {
		return math.Extents2D{Max: math.NewVec2(width, length)}, nil
	}
	if len(vertices) > 0 {
		if e := math.ExtentsFromPoints(vertices); e.Width() > 0 && e.Height() > 0 {
			return e, nil
		}
	}
	return math.Extents2D{}, fmt.Errorf("%s garden: %w and no width and length to fall back to", shape, ErrTooFewVertices)
}

// DefaultOutline is the editor's stock outline for polygon shapes, sized
// to width x length.
func DefaultOutline(shape Shape, width, length float32) []math.Vec2 {
	switch shape {
	case ShapeTriangle:
		return []math.Vec2{{X: 0, Y: 0}, {X: width, Y: 0}, {X: width * 0.5, Y: length}}
	case ShapeLShaped:
		return []math.Vec2{
			{X: 0, Y: 0}, {X: width, Y: 0}, {X: width, Y: length * 0.4},
			{X: width * 0.4, Y: length * 0.4}, {X: width * 0.4, Y: length}, {X: 0, Y: length},
		}
	case ShapeRShaped:
		return []math.Vec2{
			{X: 0, Y: 0}, {X: width, Y: 0}, {X: width, Y: length},
			{X: width * 0.6, Y: length}, {X: width * 0.6, Y: length * 0.4}, {X: 0, Y: length * 0.4},
		}
	}
	return nil
}

/**
 * @brief Resolves placed plants against the inventory. Plants the
 * inventory does not know are skipped with a warning.
 */
func (d Description) Plants(bounds GardenBounds, placed []PlacedPlant, inventory Inventory) ([]PlantInstance3D, error) {
	scale, err := d.Units.MetresPer()
	if err != nil {
		return nil, err
	}
	plants := make([]PlantInstance3D, 0, len(placed))
	for _, p := range placed {
		attrs, ok := inventory.Lookup(p.PlantID)
		if !ok {
			core.LogWarn("plant '%s' (instance %s) not found in inventory, skipping", p.PlantID, p.ID)
			continue
		}
		pos := math.NewVec2(p.Position.X*scale, p.Position.Y*scale)
		plants = append(plants, NewPlantInstance(
			p.ID,
			p.PlantID,
			attrs.DisplayName(),
			math.NewVec3(pos.X, pos.Y, bounds.GroundHeight(pos)),
			attrs.RenderDimensions(),
			Properties{
				Category:    attrs.Category,
				FlowerColor: attrs.FlowerColor,
				LeafColor:   attrs.FoliageColor,
			},
		))
	}
	return plants, nil
}
