package model

// MeshStats counts what the parser saw while building an ImportedMesh.
type MeshStats struct {
	// Positions is the number of position (v) lines.
	Positions int

	// TexCoords is the number of texture coordinate (vt) lines.
	TexCoords int

	// Normals is the number of normal (vn) lines. Normals are stored but never emitted.
	Normals int

	// Faces is the number of face (f) lines.
	Faces int

	// Triangles is the number of triangles emitted after fan triangulation.
	Triangles int

	// IgnoredLines is the number of non-blank lines with an unrecognized prefix.
	IgnoredLines int
}

// ImportedMesh is the CPU-side result of parsing a mesh source.
// It is produced once per load and is read-only afterwards.
type ImportedMesh struct {
	// Name is the mesh identifier, usually the source locator.
	Name string

	// Vertices are the emitted corners in emission order, three per triangle.
	Vertices []GPUVertex

	// Materials is the finalized material registry. Vertex MaterialIndex values index into it.
	Materials *MaterialRegistry

	// BoundingMin is the minimum corner of the axis-aligned bounding box of the emitted vertices.
	BoundingMin [3]float32

	// BoundingMax is the maximum corner of the axis-aligned bounding box of the emitted vertices.
	BoundingMax [3]float32

	// Stats holds line and primitive counts gathered during the parse.
	Stats MeshStats
}

// VertexCount returns the number of emitted vertices.
func (m *ImportedMesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleCount returns the number of emitted triangles.
func (m *ImportedMesh) TriangleCount() int {
	return len(m.Vertices) / 3
}
