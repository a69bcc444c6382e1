package math

// TransformCreate is the identity transform.
func TransformCreate() *Transform {
	return TransformFromPositionRotationScale(NewVec3Zero(), NewVec3Zero(), NewVec3One())
}

func TransformFromPositionRotationScale(position, rotation, scale Vec3) *Transform {
	return &Transform{
		Position: position,
		Rotation: rotation,
		Scale:    scale,
		IsDirty:  true,
		Local:    NewMat4Identity(),
	}
}

/**
 * @brief Returns the local matrix, rebuilding it when dirty. Scale applies
 * first, then the XYZ rotation, then the translation. A nil transform is
 * the identity.
 */
func (t *Transform) GetLocal() Mat4 {
	if t == nil {
		return NewMat4Identity()
	}
	if t.IsDirty {
		s := NewMat4Scale(t.Scale)
		r := NewMat4EulerXYZ(t.Rotation.X, t.Rotation.Y, t.Rotation.Z)
		t.Local = s.Mul(r).Mul(NewMat4Translation(t.Position))
		t.IsDirty = false
	}
	return t.Local
}

// GetWorld chains the local matrix with every parent up to the root.
func (t *Transform) GetWorld() Mat4 {
	world := t.GetLocal()
	if t == nil {
		return world
	}
	for p := t.Parent; p != nil; p = p.Parent {
		world = world.Mul(p.GetLocal())
	}
	return world
}

func (t *Transform) SetParent(parent *Transform) {
	t.Parent = parent
}
