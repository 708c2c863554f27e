package shader

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrLayoutMismatch reports that a buffer or bind group layout does not match what a shader declares.
var ErrLayoutMismatch = errors.New("layout does not match shader")

// CheckVertexLayout compares layout against the vertex input struct declared by a vertex shader.
// Attributes are matched by shader location; format, offset and stride must agree exactly.
//
// Parameters:
//   - s: the vertex shader
//   - layout: the layout of the buffer that will be bound to the shader
//
// Returns:
//   - error: an error wrapping ErrLayoutMismatch describing the first difference, or nil
func CheckVertexLayout(s Shader, layout wgpu.VertexBufferLayout) error {
	if s.ShaderType() != ShaderTypeVertex {
		return fmt.Errorf("%w: %s is a %s shader", ErrLayoutMismatch, s.Key(), s.ShaderType())
	}
	declared := s.VertexLayout(0)
	if len(declared) != 1 {
		return fmt.Errorf("%w: %s declares no vertex input struct", ErrLayoutMismatch, s.Key())
	}
	want := declared[0]

	if want.ArrayStride != layout.ArrayStride {
		return fmt.Errorf("%w: %s stride is %d, buffer stride is %d", ErrLayoutMismatch, s.Key(), want.ArrayStride, layout.ArrayStride)
	}
	if len(want.Attributes) != len(layout.Attributes) {
		return fmt.Errorf("%w: %s declares %d attributes, buffer has %d", ErrLayoutMismatch, s.Key(), len(want.Attributes), len(layout.Attributes))
	}

	got := sortedAttributes(layout.Attributes)
	for i, w := range sortedAttributes(want.Attributes) {
		g := got[i]
		if w != g {
			return fmt.Errorf("%w: %s location %d is %v at offset %d, buffer has location %d as %v at offset %d",
				ErrLayoutMismatch, s.Key(), w.ShaderLocation, w.Format, w.Offset, g.ShaderLocation, g.Format, g.Offset)
		}
	}
	return nil
}

// CheckBindGroupLayout compares desc against the bindings a shader declares for group.
// Only the resource kind and its type fields are compared; visibility must include the shader's stage.
//
// Parameters:
//   - s: the shader declaring the group
//   - group: the bind group index
//   - desc: the layout that will be bound at group
//
// Returns:
//   - error: an error wrapping ErrLayoutMismatch describing the first difference, or nil
func CheckBindGroupLayout(s Shader, group int, desc wgpu.BindGroupLayoutDescriptor) error {
	declared, ok := s.BindGroupLayoutDescriptors()[group]
	if !ok {
		return fmt.Errorf("%w: %s declares no group %d", ErrLayoutMismatch, s.Key(), group)
	}

	entries := make(map[uint32]wgpu.BindGroupLayoutEntry, len(desc.Entries))
	for _, e := range desc.Entries {
		entries[e.Binding] = e
	}
	for _, w := range declared.Entries {
		g, ok := entries[w.Binding]
		if !ok {
			return fmt.Errorf("%w: %s group %d binding %d is not in the layout", ErrLayoutMismatch, s.Key(), group, w.Binding)
		}
		if g.Visibility&w.Visibility == 0 {
			return fmt.Errorf("%w: %s group %d binding %d is not visible to the %s stage", ErrLayoutMismatch, s.Key(), group, w.Binding, s.ShaderType())
		}
		if g.Buffer.Type != w.Buffer.Type ||
			g.Sampler.Type != w.Sampler.Type ||
			g.Texture.SampleType != w.Texture.SampleType ||
			g.Texture.ViewDimension != w.Texture.ViewDimension ||
			g.Texture.Multisampled != w.Texture.Multisampled {
			return fmt.Errorf("%w: %s group %d binding %d has a different resource type", ErrLayoutMismatch, s.Key(), group, w.Binding)
		}
	}
	return nil
}

func sortedAttributes(attrs []wgpu.VertexAttribute) []wgpu.VertexAttribute {
	out := slices.Clone(attrs)
	slices.SortFunc(out, func(a, b wgpu.VertexAttribute) int {
		return int(a.ShaderLocation) - int(b.ShaderLocation)
	})
	return out
}
