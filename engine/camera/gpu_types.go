package camera

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-mesh/common"
)

// GPUFrameUniform is the GPU-aligned representation of the FrameUniform struct bound at
// shader.FrameGroup binding 0 by the mesh vertex shader.
// Size: 128 bytes (two mat4x4<f32>, no padding).
type GPUFrameUniform struct {
	ViewMatrix       common.Mat4 // offset  0: world to view space (mat4x4<f32>)
	ProjectionMatrix common.Mat4 // offset 64: view to clip space (mat4x4<f32>)
}

// Size returns the size of the GPUFrameUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (128)
func (g *GPUFrameUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUFrameUniform struct into a little-endian byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUFrameUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewMatrix[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.ProjectionMatrix[i]))
	}
	return buf
}
