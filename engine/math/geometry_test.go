package math

import "testing"

func TestTriangulatePolygon(t *testing.T) {
	tests := []struct {
		name      string
		points    []Vec2
		triangles int
	}{
		{
			name:      "triangle",
			points:    []Vec2{{0, 0}, {4, 0}, {2, 3}},
			triangles: 1,
		},
		{
			name:      "clockwise square",
			points:    []Vec2{{0, 0}, {0, 2}, {2, 2}, {2, 0}},
			triangles: 2,
		},
		{
			name:      "concave L",
			points:    []Vec2{{0, 0}, {4, 0}, {4, 2}, {2, 2}, {2, 4}, {0, 4}},
			triangles: 4,
		},
		{
			name:      "too few points",
			points:    []Vec2{{0, 0}, {1, 1}},
			triangles: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			indices := TriangulatePolygon(tt.points)
			if got := len(indices) / 3; got != tt.triangles {
				t.Fatalf("triangles = %d, want %d", got, tt.triangles)
			}
			if tt.triangles == 0 {
				return
			}
			// Covered area must match the polygon area.
			area := float32(0)
			for i := 0; i < len(indices); i += 3 {
				tri := []Vec2{tt.points[indices[i]], tt.points[indices[i+1]], tt.points[indices[i+2]]}
				a := PolygonSignedArea(tri)
				if a <= 0 {
					t.Errorf("triangle %d is not counter-clockwise (area %v)", i/3, a)
				}
				area += a
			}
			want := Abs(PolygonSignedArea(tt.points))
			if Abs(area-want) > 1e-4 {
				t.Errorf("covered area = %v, want %v", area, want)
			}
		})
	}
}

func TestTransformRotatesAboutZ(t *testing.T) {
	tr := TransformFromPositionRotationScale(NewVec3(1, 2, 0), NewVec3(0, 0, K_HALF_PI), NewVec3(2, 1, 1))
	// Unit X scaled to 2, rotated to +Y, then translated.
	got := NewVec3(1, 0, 0).Transform(tr.GetWorld())
	want := NewVec3(1, 4, 0)
	if !got.Compare(want, 1e-5) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLookAtMapsTargetToNegativeZ(t *testing.T) {
	view := NewMat4LookAt(NewVec3(0, -10, 5), NewVec3Zero(), NewVec3Up())
	p := NewVec3Zero().Transform(view)
	if Abs(p.X) > 1e-4 || Abs(p.Y) > 1e-4 || p.Z >= 0 {
		t.Fatalf("target in view space = %+v, want on -Z axis", p)
	}
	above := NewVec3(0, 0, 1).Transform(view)
	if above.Y <= 0 {
		t.Fatalf("world up should map to +Y in view space, got %+v", above)
	}
}

func TestTransformParentChain(t *testing.T) {
	root := TransformFromPositionRotationScale(NewVec3(10, 0, 0), NewVec3Zero(), NewVec3One())
	mid := TransformFromPositionRotationScale(NewVec3(0, 5, 0), NewVec3Zero(), NewVec3One())
	leaf := TransformCreate()
	mid.SetParent(root)
	leaf.SetParent(mid)
	if got := NewVec3Zero().Transform(leaf.GetWorld()); !got.Compare(NewVec3(10, 5, 0), 1e-5) {
		t.Fatalf("got %+v", got)
	}
	root.Position = NewVec3(-1, 0, 0)
	root.IsDirty = true
	if got := NewVec3Zero().Transform(leaf.GetWorld()); !got.Compare(NewVec3(-1, 5, 0), 1e-5) {
		t.Fatalf("after moving root got %+v", got)
	}
}
