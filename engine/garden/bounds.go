package garden

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/gardenia/engine/math"
)

type Shape int

const (
	ShapeRectangle Shape = iota
	ShapeSquare
	ShapeCircle
	ShapeOval
	ShapeTriangle
	ShapeLShaped
	ShapeRShaped
)

var shapeNames = map[Shape]string{
	ShapeRectangle: "rectangle",
	ShapeSquare:    "square",
	ShapeCircle:    "circle",
	ShapeOval:      "oval",
	ShapeTriangle:  "triangle",
	ShapeLShaped:   "l-shaped",
	ShapeRShaped:   "r-shaped",
}

// Shapes lists every supported shape tag.
func Shapes() []Shape {
	return []Shape{ShapeRectangle, ShapeSquare, ShapeCircle, ShapeOval, ShapeTriangle, ShapeLShaped, ShapeRShaped}
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ParseShape accepts the tag names used by the layout editor, case
// insensitive, with "_" or " " in place of "-".
func ParseShape(name string) (Shape, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "-", " ", "-").Replace(n)
	switch n {
	case "l", "lshaped":
		n = "l-shaped"
	case "r", "rshaped":
		n = "r-shaped"
	case "ellipse":
		n = "oval"
	}
	for s, sn := range shapeNames {
		if sn == n {
			return s, nil
		}
	}
	return ShapeRectangle, fmt.Errorf("unknown garden shape %q", name)
}

func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Shape) UnmarshalText(text []byte) error {
	parsed, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsPolygon reports whether the shape is described by a vertex list.
func (s Shape) IsPolygon() bool {
	return s == ShapeTriangle || s == ShapeLShaped || s == ShapeRShaped
}

/**
 * @brief Shape specific boundary geometry. One of Corners, Disc, Ellipse
 * or Polygon.
 */
type Boundary interface {
	boundary()
}

// Corners of a rectangle or square, counter-clockwise.
type Corners struct {
	Points [4]math.Vec2
}

type Disc struct {
	Radius float32
}

type Ellipse struct {
	RadiusX float32
	RadiusY float32
}

// Polygon is closed implicitly; the first vertex is not repeated.
type Polygon struct {
	Vertices []math.Vec2
}

func (Corners) boundary() {}
func (Disc) boundary()    {}
func (Ellipse) boundary() {}
func (Polygon) boundary() {}

/**
 * @brief Shape and size of a garden plot in metres. The plot lies in the
 * XY plane; Z is up.
 */
type GardenBounds struct {
	Shape    Shape
	Extents  math.Extents2D
	Center   math.Vec2
	Boundary Boundary
	// Percent grade along +Y. Zero is flat.
	Slope float32
}

func (b GardenBounds) Width() float32 {
	return b.Extents.Width()
}

func (b GardenBounds) Length() float32 {
	return b.Extents.Height()
}

// GroundHeight returns the terrain height at p.
func (b GardenBounds) GroundHeight(p math.Vec2) float32 {
	if b.Slope == 0 {
		return 0
	}
	return (p.Y - b.Extents.Min.Y) * b.Slope / 100
}

// Radius of the smallest circle around Center containing the bounding box.
func (b GardenBounds) Radius() float32 {
	return b.Extents.Max.Distance(b.Center)
}

/**
 * @brief Checks that the boundary variant matches the shape tag. Polygon
 * shapes with fewer than 3 vertices are reported but remain buildable
 * through the bounding box fallback.
 */
func (b GardenBounds) Validate() error {
	if b.Extents.Width() <= 0 || b.Extents.Height() <= 0 {
		return fmt.Errorf("garden %s has an empty bounding box", b.Shape)
	}
	switch b.Shape {
	case ShapeRectangle, ShapeSquare:
		if _, ok := b.Boundary.(Corners); !ok {
			return fmt.Errorf("garden %s needs corner boundary, got %T", b.Shape, b.Boundary)
		}
	case ShapeCircle:
		d, ok := b.Boundary.(Disc)
		if !ok {
			return fmt.Errorf("garden %s needs disc boundary, got %T", b.Shape, b.Boundary)
		}
		if d.Radius <= 0 {
			return fmt.Errorf("garden circle radius must be positive, got %f", d.Radius)
		}
	case ShapeOval:
		e, ok := b.Boundary.(Ellipse)
		if !ok {
			return fmt.Errorf("garden %s needs ellipse boundary, got %T", b.Shape, b.Boundary)
		}
		if e.RadiusX <= 0 || e.RadiusY <= 0 {
			return fmt.Errorf("garden oval radii must be positive, got %f x %f", e.RadiusX, e.RadiusY)
		}
	case ShapeTriangle, ShapeLShaped, ShapeRShaped:
		p, ok := b.Boundary.(Polygon)
		if !ok && b.Boundary != nil {
			return fmt.Errorf("garden %s needs polygon boundary, got %T", b.Shape, b.Boundary)
		}
		if len(p.Vertices) < 3 {
			return ErrTooFewVertices
		}
	default:
		return fmt.Errorf("unknown garden shape %d", int(b.Shape))
	}
	return nil
}

var ErrTooFewVertices = fmt.Errorf("polygon garden needs at least 3 vertices")

func NewRectangleBounds(min, max math.Vec2) GardenBounds {
	shape := ShapeRectangle
	if math.Abs((max.X-min.X)-(max.Y-min.Y)) < math.K_FLOAT_EPSILON {
		shape = ShapeSquare
	}
	return GardenBounds{
		Shape:   shape,
		Extents: math.Extents2D{Min: min, Max: max},
		Center:  math.NewVec2((min.X+max.X)*0.5, (min.Y+max.Y)*0.5),
		Boundary: Corners{Points: [4]math.Vec2{
			min,
			{X: max.X, Y: min.Y},
			max,
			{X: min.X, Y: max.Y},
		}},
	}
}

func NewCircleBounds(center math.Vec2, radius float32) GardenBounds {
	r := math.NewVec2(radius, radius)
	return GardenBounds{
		Shape:    ShapeCircle,
		Extents:  math.Extents2D{Min: center.Sub(r), Max: center.Add(r)},
		Center:   center,
		Boundary: Disc{Radius: radius},
	}
}

func NewOvalBounds(center math.Vec2, radiusX, radiusY float32) GardenBounds {
	r := math.NewVec2(radiusX, radiusY)
	return GardenBounds{
		Shape:    ShapeOval,
		Extents:  math.Extents2D{Min: center.Sub(r), Max: center.Add(r)},
		Center:   center,
		Boundary: Ellipse{RadiusX: radiusX, RadiusY: radiusY},
	}
}

// NewPolygonBounds derives the bounding box from the vertices. With fewer
// than 3 vertices the given fallback extents are kept.
func NewPolygonBounds(shape Shape, vertices []math.Vec2, fallback math.Extents2D) GardenBounds {
	extents := fallback
	if len(vertices) >= 3 {
		extents = math.ExtentsFromPoints(vertices)
	}
	return GardenBounds{
		Shape:    shape,
		Extents:  extents,
		Center:   extents.Center(),
		Boundary: Polygon{Vertices: vertices},
	}
}
