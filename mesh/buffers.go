package mesh

// VertexBuffer flattens the vertices into x, y, z triples.
func (m *Mesh) VertexBuffer() []float32 {
	out := make([]float32, 0, 3*len(m.points))
	for _, p := range m.points {
		out = append(out, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return out
}

// IndexBuffer flattens the triangles into index triples.
func (m *Mesh) IndexBuffer() []uint32 {
	out := make([]uint32, 0, 3*len(m.triangles))
	for _, t := range m.triangles {
		out = append(out, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	}
	return out
}

// NormalBuffer flattens the vertex normals, nil when none are stored.
func (m *Mesh) NormalBuffer() []float32 {
	if !m.HasVertexNormals() {
		return nil
	}
	out := make([]float32, 0, 3*len(m.vertexNormals))
	for _, n := range m.vertexNormals {
		out = append(out, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return out
}

// TextureBuffer flattens the texture coordinates into u, v pairs, nil when none are stored.
func (m *Mesh) TextureBuffer() []float32 {
	if !m.HasTextureCoordinates() {
		return nil
	}
	out := make([]float32, 0, 2*len(m.texCoords))
	for _, uv := range m.texCoords {
		out = append(out, float32(uv.X), float32(uv.Y))
	}
	return out
}
