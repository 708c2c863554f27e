package model

import (
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMesh is an option builder that sets the parsed mesh of the Model.
//
// Parameters:
//   - mesh: the imported mesh
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh option to a model
func WithMesh(mesh *ImportedMesh) ModelBuilderOption {
	return func(m *model) {
		m.mesh = mesh
	}
}

// WithVertexData is an option builder that sets the encoded vertex stream of the Model.
// When omitted, the stream is encoded from the mesh vertices.
//
// Parameters:
//   - data: the encoded vertex data
//
// Returns:
//   - ModelBuilderOption: a function that applies the vertex data option to a model
func WithVertexData(data []byte) ModelBuilderOption {
	return func(m *model) {
		m.vertexData = data
	}
}

// WithMeshProvider is an option builder that sets the BindGroupProvider for the vertex buffer.
//
// Parameters:
//   - provider: the BindGroupProvider holding the vertex buffer
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh provider option to a model
func WithMeshProvider(provider bind_group_provider.BindGroupProvider) ModelBuilderOption {
	return func(m *model) {
		m.meshProvider = provider
	}
}

// WithMaterialProvider is an option builder that sets the BindGroupProvider for the material texture array.
//
// Parameters:
//   - provider: the BindGroupProvider holding the texture array resources
//
// Returns:
//   - ModelBuilderOption: a function that applies the material provider option to a model
func WithMaterialProvider(provider bind_group_provider.BindGroupProvider) ModelBuilderOption {
	return func(m *model) {
		m.materialProvider = provider
	}
}

// WithBoundingRadius is an option builder that overrides the bounding radius of the Model.
//
// Parameters:
//   - radius: the bounding sphere radius
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounding radius option to a model
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}
