package model

import (
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// model is the implementation of the Model interface.
type model struct {
	name             string
	mesh             *ImportedMesh
	meshProvider     bind_group_provider.BindGroupProvider
	materialProvider bind_group_provider.BindGroupProvider
	boundingRadius   float32
	vertexData       []byte
}

// Model defines the interface for a loaded mesh.
// A Model is a GPU-ready container holding the parsed mesh, its encoded vertex stream, the vertex buffer
// via a BindGroupProvider, and the material texture array resources via a second BindGroupProvider.
// It is produced by the Loader after importing a mesh source and binding its materials.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Mesh retrieves the CPU-side mesh the model was built from.
	//
	// Returns:
	//   - *ImportedMesh: the imported mesh
	Mesh() *ImportedMesh

	// Materials retrieves the finalized material registry of the mesh.
	// Returns an empty registry if the model has no mesh.
	//
	// Returns:
	//   - *MaterialRegistry: the material registry
	Materials() *MaterialRegistry

	// VertexData returns the encoded vertex stream uploaded to the vertex buffer.
	//
	// Returns:
	//   - []byte: the vertex data
	VertexData() []byte

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

	// MeshProvider retrieves the BindGroupProvider holding the GPU vertex buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// MaterialProvider retrieves the BindGroupProvider holding the material texture array, view, sampler and bind group.
	// Returns nil if the model was built without materials.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the material provider, or nil
	MaterialProvider() bind_group_provider.BindGroupProvider

	// BoundingRadius returns the bounding sphere radius for this model, measured as
	// the maximum vertex distance from the origin.
	//
	// Returns:
	//   - float32: the bounding radius
	BoundingRadius() float32

	// Resources detaches every GPU handle held by the model's providers so the caller can release them.
	//
	// Returns:
	//   - []bind_group_provider.Releasable: the detached handles
	Resources() []bind_group_provider.Releasable
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
// If a mesh is given and no bounding radius is set, the radius is computed from the mesh vertices.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.mesh != nil {
		if m.name == "" {
			m.name = m.mesh.Name
		}
		if m.boundingRadius == 0 {
			m.boundingRadius = ComputeBoundingRadius(m.mesh.Vertices)
		}
		if m.vertexData == nil {
			m.vertexData = EncodeVertices(m.mesh.Vertices)
		}
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Mesh() *ImportedMesh {
	return m.mesh
}

func (m *model) Materials() *MaterialRegistry {
	if m.mesh == nil || m.mesh.Materials == nil {
		return NewMaterialRegistry()
	}
	return m.mesh.Materials
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) VertexCount() int {
	if m.meshProvider != nil && m.meshProvider.VertexBuffer() != nil {
		return m.meshProvider.VertexCount()
	}
	if m.mesh != nil {
		return m.mesh.VertexCount()
	}
	return 0
}

func (m *model) VertexLayout() wgpu.VertexBufferLayout {
	if m.meshProvider != nil && m.meshProvider.VertexBuffer() != nil {
		return m.meshProvider.VertexLayout()
	}
	return VertexBufferLayout()
}

func (m *model) MeshProvider() bind_group_provider.BindGroupProvider {
	return m.meshProvider
}

func (m *model) MaterialProvider() bind_group_provider.BindGroupProvider {
	return m.materialProvider
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Resources() []bind_group_provider.Releasable {
	var out []bind_group_provider.Releasable
	if m.materialProvider != nil {
		out = append(out, m.materialProvider.Detach()...)
	}
	if m.meshProvider != nil {
		out = append(out, m.meshProvider.Detach()...)
	}
	return out
}
