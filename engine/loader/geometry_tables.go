package loader

import "fmt"

// GeometryTables holds the append-only position, texture coordinate and normal tables of a mesh source.
// Entries are stored 0-based; lookups take the 1-based index used by face lines.
type GeometryTables struct {
	positions [][3]float32
	texCoords [][2]float32
	normals   [][3]float32
}

// AddPosition appends a position.
func (g *GeometryTables) AddPosition(p [3]float32) {
	g.positions = append(g.positions, p)
}

// AddTexCoord appends a texture coordinate as authored.
func (g *GeometryTables) AddTexCoord(t [2]float32) {
	g.texCoords = append(g.texCoords, t)
}

// AddNormal appends a normal. Normals are kept for completeness and never emitted.
func (g *GeometryTables) AddNormal(n [3]float32) {
	g.normals = append(g.normals, n)
}

// Position resolves a 1-based position index.
//
// Parameters:
//   - index: the 1-based index from a face corner
//
// Returns:
//   - [3]float32: the position
//   - error: ErrMalformedGeometry if the index is outside the parsed table
func (g *GeometryTables) Position(index int) ([3]float32, error) {
	if index < 1 || index > len(g.positions) {
		return [3]float32{}, fmt.Errorf("%w: position index %d outside 1..%d", ErrMalformedGeometry, index, len(g.positions))
	}
	return g.positions[index-1], nil
}

// TexCoord resolves a 1-based texture coordinate index.
//
// Parameters:
//   - index: the 1-based index from a face corner
//
// Returns:
//   - [2]float32: the texture coordinate as authored
//   - error: ErrMalformedGeometry if the index is outside the parsed table
func (g *GeometryTables) TexCoord(index int) ([2]float32, error) {
	if index < 1 || index > len(g.texCoords) {
		return [2]float32{}, fmt.Errorf("%w: texcoord index %d outside 1..%d", ErrMalformedGeometry, index, len(g.texCoords))
	}
	return g.texCoords[index-1], nil
}

// Positions returns the number of stored positions.
func (g *GeometryTables) Positions() int { return len(g.positions) }

// TexCoords returns the number of stored texture coordinates.
func (g *GeometryTables) TexCoords() int { return len(g.texCoords) }

// Normals returns the number of stored normals.
func (g *GeometryTables) Normals() int { return len(g.normals) }
