package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuDeviceImpl implements Device on top of a cogentcore/webgpu device and queue.
type wgpuDeviceImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	// owned is true when the device was requested by NewDevice and must be released by Close.
	owned bool

	label                string
	forceFallbackAdapter bool
	limits               *wgpu.Limits
}

var _ Device = &wgpuDeviceImpl{}

// NewDevice requests a headless WebGPU device. No surface is created, so the device can upload
// resources but never present.
//
// Parameters:
//   - options: a variadic list of DeviceBuilderOption functions
//
// Returns:
//   - Device: the acquired device; call Close when done
//   - error: error if no adapter or device is available
func NewDevice(options ...DeviceBuilderOption) (Device, error) {
	d := &wgpuDeviceImpl{
		mu:    &sync.Mutex{},
		label: "Mesh Device",
		owned: true,
	}
	for _, opt := range options {
		opt(d)
	}

	d.instance = wgpu.CreateInstance(nil)
	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
	})
	if err != nil {
		d.instance.Release()
		return nil, fmt.Errorf("failed to request adapter: %w", err)
	}
	d.adapter = a

	limits := wgpu.DefaultLimits()
	if d.limits != nil {
		limits = *d.limits
	}
	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		a.Release()
		d.instance.Release()
		return nil, fmt.Errorf("failed to request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	return d, nil
}

// WrapDevice adapts an existing device and queue, for callers that already own a render loop.
// Close on the returned Device does not release them.
//
// Parameters:
//   - device: the wgpu device
//   - queue: the device's queue
//
// Returns:
//   - Device: the wrapped device
func WrapDevice(device *wgpu.Device, queue *wgpu.Queue) Device {
	return &wgpuDeviceImpl{
		mu:     &sync.Mutex{},
		device: device,
		queue:  queue,
	}
}

func (d *wgpuDeviceImpl) CreateBuffer(desc *wgpu.BufferDescriptor) (*wgpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device.CreateBuffer(desc)
}

func (d *wgpuDeviceImpl) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) error {
	if buf == nil {
		return fmt.Errorf("write buffer: %w", ErrUninitializedResource)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.queue.WriteBuffer(buf, offset, data); err != nil {
		return fmt.Errorf("write buffer: %w", err)
	}
	return nil
}

func (d *wgpuDeviceImpl) CreateTexture(desc *wgpu.TextureDescriptor) (*wgpu.Texture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device.CreateTexture(desc)
}

func (d *wgpuDeviceImpl) WriteTexture(dst *wgpu.ImageCopyTexture, data []byte, layout *wgpu.TextureDataLayout, size *wgpu.Extent3D) error {
	if dst == nil || dst.Texture == nil {
		return fmt.Errorf("write texture: %w", ErrUninitializedResource)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.queue.WriteTexture(dst, data, layout, size); err != nil {
		return fmt.Errorf("write texture layer %d: %w", dst.Origin.Z, err)
	}
	return nil
}

func (d *wgpuDeviceImpl) CreateTextureView(tex *wgpu.Texture, desc *wgpu.TextureViewDescriptor) (*wgpu.TextureView, error) {
	if tex == nil {
		return nil, fmt.Errorf("create texture view: %w", ErrUninitializedResource)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return tex.CreateView(desc)
}

func (d *wgpuDeviceImpl) CreateSampler(desc *wgpu.SamplerDescriptor) (*wgpu.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device.CreateSampler(desc)
}

func (d *wgpuDeviceImpl) CreateBindGroupLayout(desc *wgpu.BindGroupLayoutDescriptor) (*wgpu.BindGroupLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device.CreateBindGroupLayout(desc)
}

func (d *wgpuDeviceImpl) CreateBindGroup(desc *wgpu.BindGroupDescriptor) (*wgpu.BindGroup, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device.CreateBindGroup(desc)
}

func (d *wgpuDeviceImpl) CreateShaderModule(desc *wgpu.ShaderModuleDescriptor) (*wgpu.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device.CreateShaderModule(desc)
}

func (d *wgpuDeviceImpl) CreatePipelineLayout(desc *wgpu.PipelineLayoutDescriptor) (*wgpu.PipelineLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device.CreatePipelineLayout(desc)
}

func (d *wgpuDeviceImpl) CreateRenderPipeline(desc *wgpu.RenderPipelineDescriptor) (*wgpu.RenderPipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.device.CreateRenderPipeline(desc)
}

func (d *wgpuDeviceImpl) Release(resources ...bind_group_provider.Releasable) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range resources {
		if r != nil {
			r.Release()
		}
	}
}

func (d *wgpuDeviceImpl) Close() {
	if !d.owned {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}
