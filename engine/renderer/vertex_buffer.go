package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// BuildVertexBuffer encodes vertices, uploads them to a new Vertex|CopyDst buffer and stores the buffer,
// vertex count and layout on provider. The buffer size is rounded up to model.BufferAlignment.
//
// Parameters:
//   - dev: the device that creates the buffer
//   - provider: receives the vertex buffer on success
//   - vertices: the flat vertex stream in emission order
//
// Returns:
//   - error: ErrEmptyVertexData for no vertices, or the creation/upload error; the provider is untouched on error
func BuildVertexBuffer(dev Device, provider bind_group_provider.BindGroupProvider, vertices []model.GPUVertex) error {
	if len(vertices) == 0 {
		return fmt.Errorf("%s: %w", provider.Label(), ErrEmptyVertexData)
	}
	data := model.EncodeVertices(vertices)

	buf, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            provider.Label() + " Vertex Buffer",
		Size:             uint64(len(data)),
		Usage:            wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return fmt.Errorf("failed to create vertex buffer for %s: %w", provider.Label(), err)
	}
	if err := dev.WriteBuffer(buf, 0, data); err != nil {
		dev.Release(buf)
		return fmt.Errorf("failed to upload vertex buffer for %s: %w", provider.Label(), err)
	}

	provider.SetVertexBuffer(buf, len(vertices), model.VertexBufferLayout())
	return nil
}
