package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Releasable is a GPU handle that owns native resources and must be released when no longer needed.
// Every wgpu handle the renderer.Device creates satisfies it, from *wgpu.Buffer to *wgpu.RenderPipeline.
type Releasable interface {
	Release()
}

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// The following fields are GPU allocated resources and must be released when no longer needed. They are populated by the
	// vertex buffer builder, the frame uniform builder and the material texture array binder, not by user-creation.

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized.
	bindGroup *wgpu.BindGroup
	// bindGroupLayout is the GPU bind group layout created for this provider, or nil if not initialized.
	bindGroupLayout *wgpu.BindGroupLayout
	// buffers holds the GPU buffers bound through the bind group (the frame uniform), keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// texture is the GPU texture owned by this provider (the material texture array), or nil.
	texture *wgpu.Texture
	// textureViews holds the GPU texture views created for this provider, keyed by binding index.
	textureViews map[int]*wgpu.TextureView
	// samplers holds the GPU samplers created for this provider, keyed by binding index.
	samplers map[int]*wgpu.Sampler

	// The following fields are specific to mesh providers. They describe the vertex buffer and how to read it.

	// vertexBuffer is the GPU vertex buffer created for this provider, or nil if not initialized.
	vertexBuffer *wgpu.Buffer
	// vertexCount is the number of vertices in the vertex buffer, used for draw calls.
	vertexCount int
	// vertexLayout describes the attribute offsets and formats of the vertex buffer.
	vertexLayout wgpu.VertexBufferLayout
}

// BindGroupProvider defines the interface for components that hold GPU resources.
// The mesh holds one for its vertex buffer, the camera one for its frame uniform buffer and bind group,
// and the material texture array one for its texture, view, sampler, bind group layout and bind group.
//
// Usage pattern:
//  1. Component creates a BindGroupProvider with a unique label
//  2. A builder creates GPU resources on an explicit device and stores them on the provider
//  3. Renderers read the resources for draw calls; they are immutable once published
//  4. The owner detaches the resources and hands them to the device for release
type BindGroupProvider interface {
	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// BindGroupLayout returns the created bind group layout for this provider.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout or nil
	BindGroupLayout() *wgpu.BindGroupLayout

	// Buffer returns the GPU buffer for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// Buffers returns a map of all bound buffers associated with this provider, keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Buffer: a map of buffers keyed by binding index
	Buffers() map[int]*wgpu.Buffer

	// Texture returns the GPU texture owned by this provider, or nil if not set.
	//
	// Returns:
	//   - *wgpu.Texture: the texture or nil
	Texture() *wgpu.Texture

	// TextureView returns the GPU texture view for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// TextureViews returns a map of all texture views associated with this provider, keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.TextureView: a map of texture views keyed by binding index
	TextureViews() map[int]*wgpu.TextureView

	// Sampler returns the GPU sampler for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// Samplers returns a map of all samplers associated with this provider, keyed by binding index.
	//
	// Returns:
	//   - map[int]*wgpu.Sampler: a map of samplers keyed by binding index
	Samplers() map[int]*wgpu.Sampler

	// VertexBuffer returns the GPU vertex buffer, or nil if not initialized.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	VertexBuffer() *wgpu.Buffer

	// VertexCount returns the number of vertices for draw calls.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// VertexLayout returns the attribute layout of the vertex buffer.
	//
	// Returns:
	//   - wgpu.VertexBufferLayout: the vertex buffer layout
	VertexLayout() wgpu.VertexBufferLayout

	// SetBindGroup sets the bind group after GPU initialization.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBindGroupLayout sets the bind group layout after GPU initialization.
	//
	// Parameters:
	//   - bgl: the created bind group layout
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// SetBuffer stores a GPU buffer for a specific binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer to store
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTexture stores the GPU texture owned by this provider.
	//
	// Parameters:
	//   - tex: the created texture
	SetTexture(tex *wgpu.Texture)

	// SetTextureView stores a GPU texture view for a specific binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view to store
	SetTextureView(binding int, tv *wgpu.TextureView)

	// SetSampler stores a GPU sampler for a specific binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to store
	SetSampler(binding int, s *wgpu.Sampler)

	// SetVertexBuffer stores the GPU vertex buffer together with its vertex count and layout.
	//
	// Parameters:
	//   - buf: the created vertex buffer
	//   - count: the number of vertices in the buffer
	//   - layout: the attribute layout of the buffer
	SetVertexBuffer(buf *wgpu.Buffer, count int, layout wgpu.VertexBufferLayout)

	// Detach removes every GPU handle from the provider and returns them in release order
	// (bind group first, vertex buffer last). The caller is responsible for releasing them on the device that created them.
	//
	// Returns:
	//   - []Releasable: the detached non-nil handles
	Detach() []Releasable
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label used as a prefix for every GPU resource created for this provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) Texture() *wgpu.Texture {
	return p.texture
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) TextureViews() map[int]*wgpu.TextureView {
	return p.textureViews
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) Samplers() map[int]*wgpu.Sampler {
	return p.samplers
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) VertexCount() int {
	return p.vertexCount
}

func (p *bindGroupProvider) VertexLayout() wgpu.VertexBufferLayout {
	return p.vertexLayout
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.bindGroupLayout = bgl
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if p.buffers == nil {
		p.buffers = make(map[int]*wgpu.Buffer)
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTexture(tex *wgpu.Texture) {
	p.texture = tex
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	if p.textureViews == nil {
		p.textureViews = make(map[int]*wgpu.TextureView)
	}
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	if p.samplers == nil {
		p.samplers = make(map[int]*wgpu.Sampler)
	}
	p.samplers[binding] = s
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer, count int, layout wgpu.VertexBufferLayout) {
	p.vertexBuffer = buf
	p.vertexCount = count
	p.vertexLayout = layout
}

func (p *bindGroupProvider) Detach() []Releasable {
	var out []Releasable
	if p.bindGroup != nil {
		out = append(out, p.bindGroup)
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		out = append(out, p.bindGroupLayout)
		p.bindGroupLayout = nil
	}
	for i, b := range p.buffers {
		if b != nil {
			out = append(out, b)
		}
		delete(p.buffers, i)
	}
	for i, s := range p.samplers {
		if s != nil {
			out = append(out, s)
		}
		delete(p.samplers, i)
	}
	for i, tv := range p.textureViews {
		if tv != nil {
			out = append(out, tv)
		}
		delete(p.textureViews, i)
	}
	if p.texture != nil {
		out = append(out, p.texture)
		p.texture = nil
	}
	if p.vertexBuffer != nil {
		out = append(out, p.vertexBuffer)
		p.vertexBuffer = nil
		p.vertexCount = 0
	}
	return out
}
