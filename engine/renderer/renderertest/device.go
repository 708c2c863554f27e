// Package renderertest provides a recording renderer.Device for tests that run without a GPU.
//
// The handles it returns are zero-value wgpu objects. They are only good for identity comparisons;
// calling any method on them (including Release) is invalid.
package renderertest

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// Op names a Device call so tests can inject failures into it.
type Op string

const (
	OpCreateBuffer          Op = "CreateBuffer"
	OpWriteBuffer           Op = "WriteBuffer"
	OpCreateTexture         Op = "CreateTexture"
	OpWriteTexture          Op = "WriteTexture"
	OpCreateTextureView     Op = "CreateTextureView"
	OpCreateSampler         Op = "CreateSampler"
	OpCreateBindGroupLayout Op = "CreateBindGroupLayout"
	OpCreateBindGroup       Op = "CreateBindGroup"
	OpCreateShaderModule    Op = "CreateShaderModule"
	OpCreatePipelineLayout  Op = "CreatePipelineLayout"
	OpCreateRenderPipeline  Op = "CreateRenderPipeline"
)

// BufferWrite is a recorded WriteBuffer call.
type BufferWrite struct {
	Buffer *wgpu.Buffer
	Offset uint64
	Data   []byte
}

// TextureWrite is a recorded WriteTexture call. Data is the caller's slice, not a copy.
type TextureWrite struct {
	Destination wgpu.ImageCopyTexture
	Data        []byte
	Layout      wgpu.TextureDataLayout
	Size        wgpu.Extent3D
}

// Device records every call made through the renderer.Device interface.
type Device struct {
	mu sync.Mutex

	// Errors makes the named operation fail with the given error.
	Errors map[Op]error
	// WriteTextureErr, when set, is consulted for each texture write and may fail a specific layer.
	WriteTextureErr func(dst wgpu.ImageCopyTexture) error

	Buffers          []wgpu.BufferDescriptor
	BufferWrites     []BufferWrite
	Textures         []wgpu.TextureDescriptor
	TextureWrites    []TextureWrite
	Views            []wgpu.TextureViewDescriptor
	Samplers         []wgpu.SamplerDescriptor
	BindGroupLayouts []wgpu.BindGroupLayoutDescriptor
	BindGroups       []wgpu.BindGroupDescriptor
	ShaderModules    []wgpu.ShaderModuleDescriptor
	PipelineLayouts  []wgpu.PipelineLayoutDescriptor
	RenderPipelines  []wgpu.RenderPipelineDescriptor
	Released         []bind_group_provider.Releasable
	Closed           bool
}

var _ renderer.Device = &Device{}

// NewDevice creates an empty recording Device.
func NewDevice() *Device {
	return &Device{Errors: make(map[Op]error)}
}

func (d *Device) fail(op Op) error {
	if d.Errors == nil {
		return nil
	}
	return d.Errors[op]
}

func (d *Device) CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpCreateBuffer); err != nil {
		return nil, err
	}
	d.Buffers = append(d.Buffers, *desc)
	return &wgpu.Buffer{}, nil
}

func (d *Device) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpWriteBuffer); err != nil {
		return err
	}
	d.BufferWrites = append(d.BufferWrites, BufferWrite{Buffer: buf, Offset: offset, Data: data})
	return nil
}

func (d *Device) CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpCreateTexture); err != nil {
		return nil, err
	}
	d.Textures = append(d.Textures, *desc)
	return &wgpu.Texture{}, nil
}

func (d *Device) WriteTexture(dst *wgpu.ImageCopyTexture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpWriteTexture); err != nil {
		return err
	}
	if d.WriteTextureErr != nil {
		if err := d.WriteTextureErr(*dst); err != nil {
			return err
		}
	}
	d.TextureWrites = append(d.TextureWrites, TextureWrite{Destination: *dst, Data: data, Layout: *layout, Size: *size})
	return nil
}

func (d *Device) CreateTextureView(tex *wgpu.Texture, desc *wgpu.TextureViewDescriptor) (*wgpu.TextureView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpCreateTextureView); err != nil {
		return nil, err
	}
	if desc != nil {
		d.Views = append(d.Views, *desc)
	} else {
		d.Views = append(d.Views, wgpu.TextureViewDescriptor{})
	}
	return &wgpu.TextureView{}, nil
}

func (d *Device) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpCreateSampler); err != nil {
		return nil, err
	}
	d.Samplers = append(d.Samplers, *desc)
	return &wgpu.Sampler{}, nil
}

func (d *Device) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpCreateBindGroupLayout); err != nil {
		return nil, err
	}
	d.BindGroupLayouts = append(d.BindGroupLayouts, *desc)
	return &wgpu.BindGroupLayout{}, nil
}

func (d *Device) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpCreateBindGroup); err != nil {
		return nil, err
	}
	d.BindGroups = append(d.BindGroups, *desc)
	return &wgpu.BindGroup{}, nil
}

func (d *Device) CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpCreateShaderModule); err != nil {
		return nil, err
	}
	d.ShaderModules = append(d.ShaderModules, *desc)
	return &wgpu.ShaderModule{}, nil
}

func (d *Device) CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpCreatePipelineLayout); err != nil {
		return nil, err
	}
	d.PipelineLayouts = append(d.PipelineLayouts, *desc)
	return &wgpu.PipelineLayout{}, nil
}

func (d *Device) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail(OpCreateRenderPipeline); err != nil {
		return nil, err
	}
	d.RenderPipelines = append(d.RenderPipelines, *desc)
	return &wgpu.RenderPipeline{}, nil
}

// Release records the handles without touching them.
func (d *Device) Release(resources ...bind_group_provider.Releasable) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Released = append(d.Released, resources...)
}

func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Closed = true
}
