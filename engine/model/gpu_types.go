package model

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for mesh pipelines.
// Matches GPUVertex layout exactly (32 bytes, tightly packed vertex attributes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

const (
	// VertexStride is the byte distance between consecutive vertex records in the vertex buffer.
	VertexStride = 32

	// PositionOffset is the byte offset of the position attribute (float32x3).
	PositionOffset = 0
	// TexCoordOffset is the byte offset of the uv attribute (float32x2).
	TexCoordOffset = 12
	// MaterialIndexOffset is the byte offset of the material index attribute (uint32).
	MaterialIndexOffset = 20
	// TilingOffset is the byte offset of the tiling attribute (float32x2).
	TilingOffset = 24

	// BufferAlignment is the byte multiple every vertex buffer size is rounded up to.
	BufferAlignment = 4
)

// GPUVertex is the GPU-aligned representation of a single emitted mesh corner.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
// Size: 32 bytes (no padding required).
type GPUVertex struct {
	Position      [3]float32 // offset  0: vertex position as authored (12 bytes)
	TexCoord      [2]float32 // offset 12: uv with v flipped to a top-left origin (8 bytes)
	MaterialIndex uint32     // offset 20: material registry index, selects the texture array layer (4 bytes)
	Tiling        [2]float32 // offset 24: per-axis uv repeat factor, always >= 1 (8 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, VertexStride)
	g.put(buf)
	return buf
}

// put writes the vertex into buf, which must hold at least VertexStride bytes.
func (g *GPUVertex) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.TexCoord[1]))
	binary.LittleEndian.PutUint32(buf[20:24], g.MaterialIndex)
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Tiling[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Tiling[1]))
}

// VertexBufferLayout returns the attribute layout descriptor matching GPUVertex.
// The material index is declared as Uint32 so the shader reads the same unsigned bits the parser wrote.
//
// Returns:
//   - wgpu.VertexBufferLayout: stride 32, attributes at offsets 0/12/20/24 on shader locations 0..3
func VertexBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: PositionOffset, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: TexCoordOffset, ShaderLocation: 1},
			{Format: wgpu.VertexFormatUint32, Offset: MaterialIndexOffset, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x2, Offset: TilingOffset, ShaderLocation: 3},
		},
	}
}

// VertexBufferSize returns the byte size of a vertex buffer holding count vertices,
// rounded up to BufferAlignment.
//
// Parameters:
//   - count: the number of vertices
//
// Returns:
//   - uint64: the aligned buffer size in bytes
func VertexBufferSize(count int) uint64 {
	return common.AlignUp(uint64(count)*VertexStride, BufferAlignment)
}

// EncodeVertices serializes vertices into one contiguous little-endian byte stream sized by VertexBufferSize.
// Any alignment padding past the last record is zero.
//
// Parameters:
//   - vertices: the vertex records in emission order
//
// Returns:
//   - []byte: the encoded vertex buffer contents
func EncodeVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, VertexBufferSize(len(vertices)))
	for i := range vertices {
		vertices[i].put(buf[i*VertexStride:])
	}
	return buf
}

// DecodeVertices reads vertex records back out of an encoded byte stream using the attribute
// offsets of layout. Trailing alignment padding shorter than one stride is ignored.
//
// Parameters:
//   - data: the encoded vertex bytes
//   - layout: the layout the bytes were written with
//
// Returns:
//   - []GPUVertex: the decoded records
//   - error: error if the layout is missing an attribute, an attribute format does not match GPUVertex
//     or an attribute does not fit inside the stride
func DecodeVertices(data []byte, layout wgpu.VertexBufferLayout) ([]GPUVertex, error) {
	if layout.ArrayStride == 0 {
		return nil, fmt.Errorf("vertex layout has zero stride")
	}
	offsets := make(map[uint32]uint64, len(layout.Attributes))
	for _, attr := range layout.Attributes {
		want, ok := locationFormats[attr.ShaderLocation]
		if !ok || want != attr.Format {
			return nil, fmt.Errorf("unexpected vertex attribute at location %d with format %v", attr.ShaderLocation, attr.Format)
		}
		if size := formatSizes[attr.Format]; attr.Offset > layout.ArrayStride || layout.ArrayStride-attr.Offset < size {
			return nil, fmt.Errorf("vertex attribute at location %d (offset %d, size %d) overruns stride %d",
				attr.ShaderLocation, attr.Offset, size, layout.ArrayStride)
		}
		offsets[attr.ShaderLocation] = attr.Offset
	}
	if len(offsets) != len(locationFormats) {
		return nil, fmt.Errorf("vertex layout declares %d of %d attributes", len(offsets), len(locationFormats))
	}

	stride := layout.ArrayStride
	count := uint64(len(data)) / stride
	vertices := make([]GPUVertex, count)
	for i := uint64(0); i < count; i++ {
		rec := data[i*stride : (i+1)*stride]
		f32 := func(off uint64) float32 {
			return math.Float32frombits(binary.LittleEndian.Uint32(rec[off : off+4]))
		}
		p, t, m, s := offsets[0], offsets[1], offsets[2], offsets[3]
		vertices[i] = GPUVertex{
			Position:      [3]float32{f32(p), f32(p + 4), f32(p + 8)},
			TexCoord:      [2]float32{f32(t), f32(t + 4)},
			MaterialIndex: binary.LittleEndian.Uint32(rec[m : m+4]),
			Tiling:        [2]float32{f32(s), f32(s + 4)},
		}
	}
	return vertices, nil
}

// locationFormats maps each GPUVertex shader location to its attribute format.
var locationFormats = map[uint32]wgpu.VertexFormat{
	0: wgpu.VertexFormatFloat32x3,
	1: wgpu.VertexFormatFloat32x2,
	2: wgpu.VertexFormatUint32,
	3: wgpu.VertexFormatFloat32x2,
}

// ComputeBounds calculates the axis-aligned bounding box of the vertex positions.
// Returns zero vectors for an empty slice.
//
// Parameters:
//   - vertices: the vertex data to compute the bounds from
//
// Returns:
//   - [3]float32: the minimum corner
//   - [3]float32: the maximum corner
func ComputeBounds(vertices []GPUVertex) (minCorner, maxCorner [3]float32) {
	if len(vertices) == 0 {
		return minCorner, maxCorner
	}
	minCorner = vertices[0].Position
	maxCorner = vertices[0].Position
	for _, v := range vertices[1:] {
		for axis := 0; axis < 3; axis++ {
			minCorner[axis] = min(minCorner[axis], v.Position[axis])
			maxCorner[axis] = max(maxCorner[axis], v.Position[axis])
		}
	}
	return minCorner, maxCorner
}

// ComputeBoundingRadius calculates the bounding sphere radius from a slice of
// GPUVertex positions. The radius is the maximum distance from the origin
// across all vertices in the slice.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

// formatSizes holds the byte size of each format in locationFormats.
var formatSizes = map[wgpu.VertexFormat]uint64{
	wgpu.VertexFormatFloat32x3: 12,
	wgpu.VertexFormatFloat32x2: 8,
	wgpu.VertexFormatUint32:    4,
}
