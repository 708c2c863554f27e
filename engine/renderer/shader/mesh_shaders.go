package shader

import (
	_ "embed"
)

// MeshVertexSource is the vertex stage of the textured mesh pipeline. Its VertexInput struct
// mirrors model.GPUVertex and it scales uv by the per-vertex tiling factor.
//
//go:embed assets/mesh_vertex.wgsl
var MeshVertexSource string

// MeshFragmentSource is the fragment stage of the textured mesh pipeline. It samples the material
// texture array at the layer selected by the flat-interpolated material index.
//
//go:embed assets/mesh_fragment.wgsl
var MeshFragmentSource string

const (
	// FrameGroup is the bind group holding the view and projection matrices.
	FrameGroup = 0
	// MaterialGroup is the bind group holding the material texture array and sampler.
	MaterialGroup = 1
)

// MeshVertexShader parses MeshVertexSource.
//
// Returns:
//   - Shader: the mesh vertex shader
func MeshVertexShader() Shader {
	s, err := NewShader("mesh_vertex", ShaderTypeVertex, MeshVertexSource)
	if err != nil {
		panic(err)
	}
	return s
}

// MeshFragmentShader parses MeshFragmentSource.
//
// Returns:
//   - Shader: the mesh fragment shader
func MeshFragmentShader() Shader {
	s, err := NewShader("mesh_fragment", ShaderTypeFragment, MeshFragmentSource)
	if err != nil {
		panic(err)
	}
	return s
}
