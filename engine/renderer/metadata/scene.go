package metadata

/**
 * @brief Every renderer owned object of one scene generation. Exactly one
 * is live at a time and it belongs to the scene manager.
 */
type Scene struct {
	Generation uint32
	Ground     *Mesh
	Borders    *Group
	Sprites    []*Sprite
	Ambient    *AmbientLight
	Sun        *DirectionalLight
	/** @brief Debug grid and axis lines. */
	Helpers []*Mesh
}

// WalkMeshes visits every mesh in the graph, ground first.
func (s *Scene) WalkMeshes(fn func(m *Mesh)) {
	if s == nil {
		return
	}
	if s.Ground != nil {
		fn(s.Ground)
	}
	if s.Borders != nil {
		for _, m := range s.Borders.Meshes {
			fn(m)
		}
	}
	for _, m := range s.Helpers {
		fn(m)
	}
}

// Lights returns the directional lights of the scene.
func (s *Scene) Lights() []*DirectionalLight {
	if s == nil || s.Sun == nil {
		return nil
	}
	return []*DirectionalLight{s.Sun}
}
