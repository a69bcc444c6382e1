package systems

import (
	"fmt"

	"github.com/spaghettifunk/gardenia/engine/core"
	"github.com/spaghettifunk/gardenia/engine/garden"
	"github.com/spaghettifunk/gardenia/engine/math"
	"github.com/spaghettifunk/gardenia/engine/renderer"
	"github.com/spaghettifunk/gardenia/engine/renderer/metadata"
)

const (
	DEFAULT_CIRCLE_SEGMENTS  uint32  = 64
	DEFAULT_TILE_SIZE        float32 = 2
	DEFAULT_BORDER_THICKNESS float32 = 0.15
	// Helpers float slightly above the ground to avoid fighting with it.
	helperLift float32 = 0.005
)

type GeometryBuilderConfig struct {
	/** @brief Segments used for circle and oval outlines. */
	CircleSegments uint32
	/** @brief World size of one texture tile. */
	TileSize float32
	/** @brief Thickness of border walls. */
	BorderThickness float32
}

/**
 * @brief Turns garden bounds into ground and border meshes. Everything it
 * creates is owned by the renderer it was given.
 */
type GeometryBuilder struct {
	config   GeometryBuilderConfig
	renderer *renderer.Renderer
	textures *TextureCache
}

func NewGeometryBuilder(config GeometryBuilderConfig, r *renderer.Renderer, textures *TextureCache) (*GeometryBuilder, error) {
	if config.CircleSegments < 3 {
		err := fmt.Errorf("func NewGeometryBuilder - config.CircleSegments must be >= 3")
		core.LogError("%s", err)
		return nil, err
	}
	if config.TileSize <= 0 {
		config.TileSize = DEFAULT_TILE_SIZE
	}
	if config.BorderThickness <= 0 {
		config.BorderThickness = DEFAULT_BORDER_THICKNESS
	}
	return &GeometryBuilder{config: config, renderer: r, textures: textures}, nil
}

/**
 * @brief Returns the closed outline of the garden, counter-clockwise, without
 * repeating the first point. fellBack is true when a polygon garden had too
 * few vertices and its bounding box triangle is used instead.
 */
func Outline(bounds garden.GardenBounds, segments uint32) (outline []math.Vec2, fellBack bool) {
	switch b := bounds.Boundary.(type) {
	case garden.Corners:
		return b.Points[:], false
	case garden.Disc:
		return ellipsePoints(bounds.Center, b.Radius, b.Radius, segments), false
	case garden.Ellipse:
		return ellipsePoints(bounds.Center, b.RadiusX, b.RadiusY, segments), false
	case garden.Polygon:
		if len(b.Vertices) >= 3 {
			if math.PolygonSignedArea(b.Vertices) < 0 {
				return reversed(b.Vertices), false
			}
			return b.Vertices, false
		}
	}
	core.LogWarn("garden %s has no usable boundary, falling back to its bounding box triangle", bounds.Shape)
	return bboxTriangle(bounds.Extents), true
}

func ellipsePoints(center math.Vec2, rx, ry float32, segments uint32) []math.Vec2 {
	points := make([]math.Vec2, segments)
	for i := uint32(0); i < segments; i++ {
		a := float32(i) / float32(segments) * 2 * math.K_PI
		points[i] = math.NewVec2(center.X+rx*math.Cos(a), center.Y+ry*math.Sin(a))
	}
	return points
}

func bboxTriangle(e math.Extents2D) []math.Vec2 {
	return []math.Vec2{
		e.Min,
		{X: e.Max.X, Y: e.Min.Y},
		{X: e.Center().X, Y: e.Max.Y},
	}
}

func reversed(points []math.Vec2) []math.Vec2 {
	out := make([]math.Vec2, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

/**
 * @brief Ground geometry for the bounds. Ovals are a unit disc scaled by the
 * returned transform; every other shape is built in world coordinates.
 */
func groundGeometry(bounds garden.GardenBounds, segments uint32) (metadata.GeometryConfig, *math.Transform) {
	ext := bounds.Extents
	w, l := math.Max(ext.Width(), math.K_FLOAT_EPSILON), math.Max(ext.Height(), math.K_FLOAT_EPSILON)
	vertex := func(p math.Vec2, uv math.Vec2, z float32) math.Vertex3D {
		return math.Vertex3D{
			Position: math.NewVec3(p.X, p.Y, z),
			Normal:   math.NewVec3(0, 0, 1),
			Texcoord: uv,
		}
	}
	worldUV := func(p math.Vec2) math.Vec2 {
		return math.NewVec2((p.X-ext.Min.X)/w, (p.Y-ext.Min.Y)/l)
	}

	switch b := bounds.Boundary.(type) {
	case garden.Ellipse:
		rim := ellipsePoints(math.NewVec2(0, 0), 1, 1, segments)
		vertices := make([]math.Vertex3D, 0, len(rim)+1)
		vertices = append(vertices, vertex(math.NewVec2(0, 0), math.NewVec2(0.5, 0.5), bounds.GroundHeight(bounds.Center)))
		for _, p := range rim {
			world := math.NewVec2(bounds.Center.X+p.X*b.RadiusX, bounds.Center.Y+p.Y*b.RadiusY)
			vertices = append(vertices, vertex(p, math.NewVec2((p.X+1)/2, (p.Y+1)/2), bounds.GroundHeight(world)))
		}
		transform := math.TransformFromPositionRotationScale(
			math.NewVec3(bounds.Center.X, bounds.Center.Y, 0),
			math.NewVec3Zero(),
			math.NewVec3(b.RadiusX, b.RadiusY, 1),
		)
		return metadata.NewGeometryConfig("ground", vertices, fanIndices(len(rim))), transform
	case garden.Disc:
		rim := ellipsePoints(bounds.Center, b.Radius, b.Radius, segments)
		vertices := make([]math.Vertex3D, 0, len(rim)+1)
		vertices = append(vertices, vertex(bounds.Center, worldUV(bounds.Center), bounds.GroundHeight(bounds.Center)))
		for _, p := range rim {
			vertices = append(vertices, vertex(p, worldUV(p), bounds.GroundHeight(p)))
		}
		return metadata.NewGeometryConfig("ground", vertices, fanIndices(len(rim))), math.TransformCreate()
	}

	outline, _ := Outline(bounds, segments)
	indices := math.TriangulatePolygon(outline)
	vertices := make([]math.Vertex3D, len(outline))
	for i, p := range outline {
		vertices[i] = vertex(p, worldUV(p), bounds.GroundHeight(p))
	}
	return metadata.NewGeometryConfig("ground", vertices, indices), math.TransformCreate()
}

// fanIndices triangulates a center vertex (index 0) with rim vertices 1..n.
func fanIndices(rim int) []uint32 {
	indices := make([]uint32, 0, rim*3)
	for i := 0; i < rim; i++ {
		next := (i+1)%rim + 1
		indices = append(indices, 0, uint32(i+1), uint32(next))
	}
	return indices
}

func (gb *GeometryBuilder) repeat(length float32) float32 {
	return math.Max(float32(1), length/gb.config.TileSize)
}

/**
 * @brief Builds the textured ground mesh. Never fails on malformed polygon
 * input; a diagnostic is logged and the bounding box triangle is used.
 */
func (gb *GeometryBuilder) BuildGround(bounds garden.GardenBounds, surface string) (*metadata.Mesh, error) {
	config, transform := groundGeometry(bounds, gb.config.CircleSegments)
	if len(config.Indices) == 0 {
		core.LogWarn("ground outline of %s garden could not be triangulated, using its bounding box triangle", bounds.Shape)
		tri := bboxTriangle(bounds.Extents)
		fallback := bounds
		fallback.Boundary = garden.Polygon{Vertices: tri}
		config, transform = groundGeometry(fallback, gb.config.CircleSegments)
	}

	tex, err := gb.textures.Get(SurfaceKey(surface))
	if err != nil {
		return nil, err
	}
	geometry, err := gb.renderer.CreateGeometry(config)
	if err != nil {
		return nil, err
	}
	repeat := math.NewVec2(gb.repeat(bounds.Width()), gb.repeat(bounds.Length()))
	material, err := gb.renderer.CreateMaterial(metadata.MaterialConfig{
		Name:           "ground_" + surface,
		DiffuseColour:  math.NewVec4(1, 1, 1, 1),
		Shininess:      4,
		ReceiveShadows: true,
	}, &metadata.TextureMap{
		Texture: tex,
		Use:     metadata.TextureUseMapDiffuse,
		RepeatU: metadata.TextureRepeatRepeat,
		RepeatV: metadata.TextureRepeatRepeat,
		Repeat:  repeat,
	})
	if err != nil {
		gb.renderer.DestroyGeometry(geometry)
		return nil, err
	}
	return &metadata.Mesh{
		Name:      "ground",
		Geometry:  geometry,
		Material:  material,
		Transform: transform,
		Visible:   true,
	}, nil
}

type BorderSegment struct {
	Start math.Vec2
	End   math.Vec2
}

func (s BorderSegment) Length() float32 {
	return s.Start.Distance(s.End)
}

func (s BorderSegment) Angle() float32 {
	d := s.End.Sub(s.Start)
	return math.Atan2(d.Y, d.X)
}

func (s BorderSegment) Midpoint() math.Vec2 {
	return s.Start.Add(s.End).MulScalar(0.5)
}

// BorderSegments returns one segment per outline edge, closing the loop.
func BorderSegments(bounds garden.GardenBounds, segments uint32) []BorderSegment {
	outline, _ := Outline(bounds, segments)
	out := make([]BorderSegment, 0, len(outline))
	for i := range outline {
		out = append(out, BorderSegment{Start: outline[i], End: outline[(i+1)%len(outline)]})
	}
	return out
}

/**
 * @brief Unit box with its base on z=0, spanning [-0.5,0.5] in X and Y.
 * The bottom face is omitted.
 */
func unitBoxGeometry(name string) metadata.GeometryConfig {
	type face struct {
		normal  math.Vec3
		corners [4]math.Vec3
	}
	faces := []face{
		{math.NewVec3(0, 0, 1), [4]math.Vec3{{X: -0.5, Y: -0.5, Z: 1}, {X: 0.5, Y: -0.5, Z: 1}, {X: 0.5, Y: 0.5, Z: 1}, {X: -0.5, Y: 0.5, Z: 1}}},
		{math.NewVec3(0, -1, 0), [4]math.Vec3{{X: -0.5, Y: -0.5, Z: 0}, {X: 0.5, Y: -0.5, Z: 0}, {X: 0.5, Y: -0.5, Z: 1}, {X: -0.5, Y: -0.5, Z: 1}}},
		{math.NewVec3(0, 1, 0), [4]math.Vec3{{X: 0.5, Y: 0.5, Z: 0}, {X: -0.5, Y: 0.5, Z: 0}, {X: -0.5, Y: 0.5, Z: 1}, {X: 0.5, Y: 0.5, Z: 1}}},
		{math.NewVec3(-1, 0, 0), [4]math.Vec3{{X: -0.5, Y: 0.5, Z: 0}, {X: -0.5, Y: -0.5, Z: 0}, {X: -0.5, Y: -0.5, Z: 1}, {X: -0.5, Y: 0.5, Z: 1}}},
		{math.NewVec3(1, 0, 0), [4]math.Vec3{{X: 0.5, Y: -0.5, Z: 0}, {X: 0.5, Y: 0.5, Z: 0}, {X: 0.5, Y: 0.5, Z: 1}, {X: 0.5, Y: -0.5, Z: 1}}},
	}
	uvs := [4]math.Vec2{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}
	vertices := make([]math.Vertex3D, 0, len(faces)*4)
	indices := make([]uint32, 0, len(faces)*6)
	for _, f := range faces {
		base := uint32(len(vertices))
		for i, c := range f.corners {
			vertices = append(vertices, math.Vertex3D{Position: c, Normal: f.normal, Texcoord: uvs[i]})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return metadata.NewGeometryConfig(name, vertices, indices)
}

/**
 * @brief Builds the border walls. All segments share one unit box geometry
 * and one material; each segment mesh scales the box to
 * (length, thickness, height) at the segment midpoint.
 */
func (gb *GeometryBuilder) BuildBorders(bounds garden.GardenBounds, border string, height float32) (*metadata.Group, error) {
	if height <= 0 {
		return nil, fmt.Errorf("border height must be positive, got %f", height)
	}
	segments := BorderSegments(bounds, gb.config.CircleSegments)

	tex, err := gb.textures.Get(BorderKey(border))
	if err != nil {
		return nil, err
	}
	geometry, err := gb.renderer.CreateGeometry(unitBoxGeometry("border_box"))
	if err != nil {
		return nil, err
	}
	var perimeter float32
	for _, s := range segments {
		perimeter += s.Length()
	}
	material, err := gb.renderer.CreateMaterial(metadata.MaterialConfig{
		Name:          "border_" + border,
		DiffuseColour: math.NewVec4(1, 1, 1, 1),
		Shininess:     8,
		CastShadows:   true,
	}, &metadata.TextureMap{
		Texture: tex,
		Use:     metadata.TextureUseMapDiffuse,
		RepeatU: metadata.TextureRepeatRepeat,
		RepeatV: metadata.TextureRepeatClampToEdge,
		Repeat:  math.NewVec2(gb.repeat(perimeter/float32(len(segments))), 1),
	})
	if err != nil {
		gb.renderer.DestroyGeometry(geometry)
		return nil, err
	}

	group := &metadata.Group{Name: "borders", Transform: math.TransformCreate()}
	for i, s := range segments {
		mid := s.Midpoint()
		group.Add(&metadata.Mesh{
			Name:     fmt.Sprintf("border_%d", i),
			Geometry: geometry,
			Material: material,
			Transform: math.TransformFromPositionRotationScale(
				math.NewVec3(mid.X, mid.Y, bounds.GroundHeight(mid)),
				math.NewVec3(0, 0, s.Angle()),
				math.NewVec3(s.Length(), gb.config.BorderThickness, height),
			),
			Visible: true,
		})
	}
	return group, nil
}

/**
 * @brief Builds the optional debug helpers: a line grid over the bounding
 * box and red/green/blue axis bars at its center.
 */
func (gb *GeometryBuilder) BuildHelpers(bounds garden.GardenBounds, grid, axes bool) ([]*metadata.Mesh, error) {
	var helpers []*metadata.Mesh
	cleanup := func() {
		for _, m := range helpers {
			gb.renderer.DestroyGeometry(m.Geometry)
			gb.renderer.DestroyMaterial(m.Material)
		}
	}

	if grid {
		geometry, err := gb.renderer.CreateGeometry(gridGeometry(bounds.Extents, gb.config.TileSize, helperLift))
		if err != nil {
			return nil, err
		}
		material, err := gb.renderer.CreateMaterial(metadata.MaterialConfig{
			Name:          "helper_grid",
			DiffuseColour: math.NewVec4(0.85, 0.85, 0.85, 0.5),
		}, nil)
		if err != nil {
			gb.renderer.DestroyGeometry(geometry)
			return nil, err
		}
		helpers = append(helpers, &metadata.Mesh{Name: "helper_grid", Geometry: geometry, Material: material, Transform: math.TransformCreate(), Visible: true})
	}

	if axes {
		length := math.Max(bounds.Width(), bounds.Length()) * 0.5
		colours := []math.Vec4{math.NewVec4(1, 0, 0, 1), math.NewVec4(0, 1, 0, 1), math.NewVec4(0, 0, 1, 1)}
		for i, name := range []string{"x", "y", "z"} {
			geometry, err := gb.renderer.CreateGeometry(unitBoxGeometry("helper_axis_" + name))
			if err != nil {
				cleanup()
				return nil, err
			}
			material, err := gb.renderer.CreateMaterial(metadata.MaterialConfig{Name: "helper_axis_" + name, DiffuseColour: colours[i]}, nil)
			if err != nil {
				gb.renderer.DestroyGeometry(geometry)
				cleanup()
				return nil, err
			}
			origin := math.NewVec3(bounds.Center.X, bounds.Center.Y, bounds.GroundHeight(bounds.Center)+helperLift)
			var t *math.Transform
			switch i {
			case 0:
				t = math.TransformFromPositionRotationScale(origin.Add(math.NewVec3(length/2, 0, 0)), math.NewVec3Zero(), math.NewVec3(length, 0.03, 0.03))
			case 1:
				t = math.TransformFromPositionRotationScale(origin.Add(math.NewVec3(0, length/2, 0)), math.NewVec3Zero(), math.NewVec3(0.03, length, 0.03))
			default:
				t = math.TransformFromPositionRotationScale(origin, math.NewVec3Zero(), math.NewVec3(0.03, 0.03, length))
			}
			helpers = append(helpers, &metadata.Mesh{Name: "helper_axis_" + name, Geometry: geometry, Material: material, Transform: t, Visible: true})
		}
	}
	return helpers, nil
}

// gridGeometry lays thin flat strips every step units across the extents.
func gridGeometry(e math.Extents2D, step, z float32) metadata.GeometryConfig {
	const half float32 = 0.01
	var vertices []math.Vertex3D
	var indices []uint32
	quad := func(a, b, c, d math.Vec2) {
		base := uint32(len(vertices))
		for _, p := range []math.Vec2{a, b, c, d} {
			vertices = append(vertices, math.Vertex3D{Position: math.NewVec3(p.X, p.Y, z), Normal: math.NewVec3(0, 0, 1)})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	for x := e.Min.X; x <= e.Max.X+math.K_FLOAT_EPSILON; x += step {
		quad(math.NewVec2(x-half, e.Min.Y), math.NewVec2(x+half, e.Min.Y), math.NewVec2(x+half, e.Max.Y), math.NewVec2(x-half, e.Max.Y))
	}
	for y := e.Min.Y; y <= e.Max.Y+math.K_FLOAT_EPSILON; y += step {
		quad(math.NewVec2(e.Min.X, y-half), math.NewVec2(e.Max.X, y-half), math.NewVec2(e.Max.X, y+half), math.NewVec2(e.Min.X, y+half))
	}
	return metadata.NewGeometryConfig("helper_grid", vertices, indices)
}
