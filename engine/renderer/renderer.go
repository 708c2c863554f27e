package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrUninitializedResource reports that a GPU object was requested before the resources it depends on exist.
	ErrUninitializedResource = errors.New("uninitialized GPU resource")

	// ErrEmptyVertexData reports an attempt to build a vertex buffer with no vertices.
	ErrEmptyVertexData = errors.New("empty vertex data")
)

// Device is the explicit GPU handle threaded through every component that creates GPU resources.
// It covers resource creation and queue uploads only; render passes and presentation are not part of it.
//
// Implementations must be safe for concurrent use. Material layer uploads call WriteTexture from worker goroutines.
type Device interface {
	// CreateBuffer creates a GPU buffer.
	//
	// Parameters:
	//   - desc: the buffer descriptor
	//
	// Returns:
	//   - *wgpu.Buffer: the created buffer
	//   - error: error if creation fails
	CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data into buf at offset.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: the byte offset into the buffer
	//   - data: the bytes to write
	//
	// Returns:
	//   - error: error if the write cannot be queued
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error

	// CreateTexture creates a GPU texture.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - *wgpu.Texture: the created texture
	//   - error: error if creation fails
	CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, error)

	// WriteTexture queues a write of pixel data into a region of a texture.
	//
	// Parameters:
	//   - dst: the destination texture, mip level and origin (Origin.Z selects the array layer)
	//   - data: the pixel bytes
	//   - layout: the row pitch and image height of data
	//   - size: the extent being written
	//
	// Returns:
	//   - error: error if the write cannot be queued
	WriteTexture(dst *wgpu.ImageCopyTexture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error

	// CreateTextureView creates a view of tex. A nil descriptor uses the texture defaults.
	//
	// Parameters:
	//   - tex: the texture to view
	//   - desc: the view descriptor, or nil
	//
	// Returns:
	//   - *wgpu.TextureView: the created view
	//   - error: error if creation fails
	CreateTextureView(tex *wgpu.Texture, desc *wgpu.TextureViewDescriptor) (*wgpu.TextureView, error)

	// CreateSampler creates a GPU sampler.
	//
	// Parameters:
	//   - desc: the sampler descriptor
	//
	// Returns:
	//   - *wgpu.Sampler: the created sampler
	//   - error: error if creation fails
	CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error)

	// CreateBindGroupLayout creates a bind group layout.
	//
	// Parameters:
	//   - desc: the layout descriptor
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the created layout
	//   - error: error if creation fails
	CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error)

	// CreateBindGroup creates a bind group.
	//
	// Parameters:
	//   - desc: the bind group descriptor
	//
	// Returns:
	//   - *wgpu.BindGroup: the created bind group
	//   - error: error if creation fails
	CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error)

	// CreateShaderModule compiles a shader module from WGSL source.
	//
	// Parameters:
	//   - desc: the shader module descriptor
	//
	// Returns:
	//   - *wgpu.ShaderModule: the created module
	//   - error: error if the source does not compile
	CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error)

	// CreatePipelineLayout creates a pipeline layout from an ordered list of bind group layouts.
	//
	// Parameters:
	//   - desc: the pipeline layout descriptor
	//
	// Returns:
	//   - *wgpu.PipelineLayout: the created layout
	//   - error: error if creation fails
	CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error)

	// CreateRenderPipeline creates a render pipeline. The driver validates the shader stages against the
	// vertex buffer layouts and the pipeline layout here.
	//
	// Parameters:
	//   - desc: the render pipeline descriptor
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the created pipeline
	//   - error: error if creation or validation fails
	CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error)

	// Release frees GPU handles created by this device, in the order given.
	//
	// Parameters:
	//   - resources: the handles to release
	Release(resources ...bind_group_provider.Releasable)

	// Close releases the device itself, along with the queue, adapter and instance it owns.
	// A device wrapping externally owned handles leaves them untouched.
	Close()
}
