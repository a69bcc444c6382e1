package math

// ExtentsFromPoints returns the 2D bounding box of the given points.
func ExtentsFromPoints(points []Vec2) Extents2D {
	if len(points) == 0 {
		return Extents2D{}
	}
	e := Extents2D{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		if p.X < e.Min.X {
			e.Min.X = p.X
		}
		if p.Y < e.Min.Y {
			e.Min.Y = p.Y
		}
		if p.X > e.Max.X {
			e.Max.X = p.X
		}
		if p.Y > e.Max.Y {
			e.Max.Y = p.Y
		}
	}
	return e
}

// ExtentsFromVertices returns the 3D bounding box of the vertex positions.
func ExtentsFromVertices(vertices []Vertex3D) Extents3D {
	if len(vertices) == 0 {
		return Extents3D{}
	}
	e := Extents3D{Min: vertices[0].Position, Max: vertices[0].Position}
	for _, v := range vertices[1:] {
		p := v.Position
		e.Min = Vec3{minf(e.Min.X, p.X), minf(e.Min.Y, p.Y), minf(e.Min.Z, p.Z)}
		e.Max = Vec3{maxf(e.Max.X, p.X), maxf(e.Max.Y, p.Y), maxf(e.Max.Z, p.Z)}
	}
	return e
}

func (e Extents2D) Width() float32 {
	return e.Max.X - e.Min.X
}

func (e Extents2D) Height() float32 {
	return e.Max.Y - e.Min.Y
}

func (e Extents2D) Center() Vec2 {
	return Vec2{(e.Min.X + e.Max.X) * 0.5, (e.Min.Y + e.Max.Y) * 0.5}
}

// Compare reports whether both corners are within tolerance.
func (e Extents2D) Compare(other Extents2D, tolerance float32) bool {
	return e.Min.Compare(other.Min, tolerance) && e.Max.Compare(other.Max, tolerance)
}

// PolygonSignedArea is positive for counter-clockwise winding.
func PolygonSignedArea(points []Vec2) float32 {
	area := float32(0)
	n := len(points)
	for i := 0; i < n; i++ {
		area += points[i].Cross(points[(i+1)%n])
	}
	return area * 0.5
}

/**
 * @brief Triangulates a simple polygon (convex or concave, no holes) by ear
 * clipping. The path is closed implicitly. Returns triangle indices into
 * points, wound counter-clockwise. Degenerate input yields nil.
 */
func TriangulatePolygon(points []Vec2) []uint32 {
	n := len(points)
	if n < 3 {
		return nil
	}

	remaining := make([]uint32, n)
	for i := range remaining {
		remaining[i] = uint32(i)
	}
	if PolygonSignedArea(points) < 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		}
	}

	indices := make([]uint32, 0, (n-2)*3)
	// Bounded so a self-intersecting path cannot spin forever.
	guard := n * n
	for len(remaining) > 3 && guard > 0 {
		guard--
		clipped := false
		for i := range remaining {
			prev := remaining[(i+len(remaining)-1)%len(remaining)]
			cur := remaining[i]
			next := remaining[(i+1)%len(remaining)]
			if !isEar(points, remaining, prev, cur, next) {
				continue
			}
			indices = append(indices, prev, cur, next)
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			break
		}
	}
	if len(remaining) == 3 {
		indices = append(indices, remaining[0], remaining[1], remaining[2])
	}
	return indices
}

func isEar(points []Vec2, remaining []uint32, prev, cur, next uint32) bool {
	a, b, c := points[prev], points[cur], points[next]
	if b.Sub(a).Cross(c.Sub(b)) <= 0 {
		// Reflex or collinear corner.
		return false
	}
	for _, idx := range remaining {
		if idx == prev || idx == cur || idx == next {
			continue
		}
		if pointInTriangle(points[idx], a, b, c) {
			return false
		}
	}
	return true
}

func pointInTriangle(p, a, b, c Vec2) bool {
	d1 := b.Sub(a).Cross(p.Sub(a))
	d2 := c.Sub(b).Cross(p.Sub(b))
	d3 := a.Sub(c).Cross(p.Sub(c))
	return d1 >= 0 && d2 >= 0 && d3 >= 0
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
