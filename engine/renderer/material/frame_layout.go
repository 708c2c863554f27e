package material

import "github.com/cogentcore/webgpu/wgpu"

// FrameObjectLayoutDescriptor returns the per-object bind group layout that binds one standalone
// texture and sampler per material instead of a texture array.
//
// Binding 0 is a vertex uniform buffer, binding 1 a vertex read-only storage buffer. Material i
// occupies binding 2+2i (fragment 2D float texture) and 3+2i (fragment filtering sampler).
//
// Parameters:
//   - materials: the number of materials
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: the layout descriptor
func FrameObjectLayoutDescriptor(materials int) wgpu.BindGroupLayoutDescriptor {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, 2+2*max(materials, 0))

	uniform := wgpu.BindGroupLayoutEntry{Binding: 0, Visibility: wgpu.ShaderStageVertex}
	uniform.Buffer.Type = wgpu.BufferBindingTypeUniform
	storage := wgpu.BindGroupLayoutEntry{Binding: 1, Visibility: wgpu.ShaderStageVertex}
	storage.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	entries = append(entries, uniform, storage)

	for i := 0; i < materials; i++ {
		tex := wgpu.BindGroupLayoutEntry{Binding: uint32(2 + 2*i), Visibility: wgpu.ShaderStageFragment}
		tex.Texture.SampleType = wgpu.TextureSampleTypeFloat
		tex.Texture.ViewDimension = wgpu.TextureViewDimension2D

		samp := wgpu.BindGroupLayoutEntry{Binding: uint32(3 + 2*i), Visibility: wgpu.ShaderStageFragment}
		samp.Sampler.Type = wgpu.SamplerBindingTypeFiltering

		entries = append(entries, tex, samp)
	}

	return wgpu.BindGroupLayoutDescriptor{
		Label:   "Object Frame Bind Group Layout",
		Entries: entries,
	}
}
