package material

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

const (
	// DefaultWidth is the canonical layer width of a material texture array.
	DefaultWidth = 1920
	// DefaultHeight is the canonical layer height of a material texture array.
	DefaultHeight = 1080
	// DefaultImage is the image used for materials with no entry in the source mapping.
	DefaultImage = "default.jpg"

	// TextureBinding is the bind group binding of the texture array view.
	TextureBinding = 0
	// SamplerBinding is the bind group binding of the sampler.
	SamplerBinding = 1

	// TextureFormat is the pixel format of every layer.
	TextureFormat = wgpu.TextureFormatRGBA8Unorm
)

// ErrNoMaterials reports an Init call with an empty registry; a texture array needs at least one layer.
var ErrNoMaterials = errors.New("material registry is empty")

// materialArray is the implementation of the MaterialArray interface.
type materialArray struct {
	mu sync.RWMutex

	label        string
	width        uint32
	height       uint32
	defaultImage string
	imageBaseDir string
	workers      int
	resizeMode   ResizeMode
	sampler      common.SamplerStagingData
	decoder      ImageDecoder
	logger       *zap.Logger

	provider bind_group_provider.BindGroupProvider
	layers   int
	ready    bool
}

// MaterialArray packs one image per registered material into a single 2d-array texture,
// layer i holding the material with registry index i, and exposes the view, sampler,
// bind group layout and bind group a fragment shader samples it through.
//
// Layout contract (fragment stage):
//   - binding 0: texture_2d_array<f32>
//   - binding 1: filtering sampler
//
// Init publishes every resource at once after all layer uploads have been queued; a failure
// publishes nothing. Once Ready, the resources are read-only and may be shared between renderers.
type MaterialArray interface {
	// Init creates the texture array for registry and loads one image per material into it.
	// Materials absent from sources use the default image. Loads run concurrently on a worker pool
	// and are joined before the view and sampler are created.
	//
	// Parameters:
	//   - ctx: cancels pending image loads
	//   - dev: the device that creates and uploads the resources
	//   - registry: the finalized material registry; its length is the layer count
	//   - sources: material name to image locator
	//
	// Returns:
	//   - error: ErrNoMaterials, an error wrapping common.ErrSourceUnavailable, or a device error
	Init(ctx context.Context, dev renderer.Device, registry *model.MaterialRegistry, sources map[string]string) error

	// BindGroupLayoutDescriptor returns the layout descriptor of the material bind group.
	// It does not depend on Init.
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the two-entry fragment layout
	BindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor

	// CreateBindGroupLayout creates the bind group layout once and stores it on the provider.
	//
	// Parameters:
	//   - dev: the device that creates the layout
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout
	//   - error: error if creation fails
	CreateBindGroupLayout(dev renderer.Device) (*wgpu.BindGroupLayout, error)

	// CreateBindGroup creates the bind group once and stores it on the provider.
	// Before Init has produced a view and sampler it creates nothing and returns an error.
	//
	// Parameters:
	//   - dev: the device that creates the bind group
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	//   - error: an error wrapping renderer.ErrUninitializedResource before Init, or a device error
	CreateBindGroup(dev renderer.Device) (*wgpu.BindGroup, error)

	// Provider returns the BindGroupProvider holding the texture, view, sampler, layout and bind group.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider
	Provider() bind_group_provider.BindGroupProvider

	// LayerCount returns the number of layers of the initialized array, or 0 before Init.
	//
	// Returns:
	//   - int: the layer count
	LayerCount() int

	// Resolution returns the canonical layer size.
	//
	// Returns:
	//   - uint32: the width in pixels
	//   - uint32: the height in pixels
	Resolution() (uint32, uint32)

	// Ready reports whether Init completed successfully.
	//
	// Returns:
	//   - bool: true once the view and sampler exist
	Ready() bool

	// Release frees every GPU resource on dev and returns the array to its uninitialized state.
	//
	// Parameters:
	//   - dev: the device that created the resources
	Release(dev renderer.Device)
}

var _ MaterialArray = &materialArray{}

// NewMaterialArray creates a new MaterialArray configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialArrayBuilderOption functions to configure the array
//
// Returns:
//   - MaterialArray: a new, uninitialized MaterialArray
func NewMaterialArray(options ...MaterialArrayBuilderOption) MaterialArray {
	m := &materialArray{
		label:        "Materials",
		width:        DefaultWidth,
		height:       DefaultHeight,
		defaultImage: DefaultImage,
		workers:      runtime.NumCPU(),
		resizeMode:   ResizeCenter,
		sampler:      DefaultSampler(),
		logger:       zap.NewNop(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.decoder == nil {
		m.decoder = FetchDecoder{Opener: FileOpener{}}
	}
	if m.workers < 1 {
		m.workers = 1
	}
	m.provider = bind_group_provider.NewBindGroupProvider(m.label)
	return m
}

func (m *materialArray) Init(ctx context.Context, dev renderer.Device, registry *model.MaterialRegistry, sources map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return fmt.Errorf("%s: texture array already initialized", m.label)
	}
	if registry == nil || registry.Len() == 0 {
		return fmt.Errorf("%s: %w", m.label, ErrNoMaterials)
	}

	entries := registry.Entries()
	locators := make([]string, len(entries))
	for i, e := range entries {
		loc, err := m.resolveSource(e.Name, sources)
		if err != nil {
			return err
		}
		locators[i] = loc
	}

	layers := uint32(len(entries))
	tex, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:     m.label + " Texture Array",
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageRenderAttachment,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              m.width,
			Height:             m.height,
			DepthOrArrayLayers: layers,
		},
		Format:        TextureFormat,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to create texture array for %s: %w", m.label, err)
	}

	if err := m.loadLayers(ctx, dev, tex, entries, locators); err != nil {
		dev.Release(tex)
		return err
	}

	view, err := dev.CreateTextureView(tex, &wgpu.TextureViewDescriptor{
		Label:           m.label + " Texture Array View",
		Format:          TextureFormat,
		Dimension:       wgpu.TextureViewDimension2DArray,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		dev.Release(tex)
		return fmt.Errorf("failed to create texture array view for %s: %w", m.label, err)
	}

	samplerData := m.sampler
	sampler, err := dev.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         m.label + " Sampler",
		AddressModeU:  samplerData.AddressModeU,
		AddressModeV:  samplerData.AddressModeV,
		AddressModeW:  samplerData.AddressModeW,
		MagFilter:     samplerData.MagFilter,
		MinFilter:     samplerData.MinFilter,
		MipmapFilter:  samplerData.MipmapFilter,
		LodMinClamp:   samplerData.LodMinClamp,
		LodMaxClamp:   common.Coalesce(samplerData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerData.MaxAnisotropy, 1),
		Compare:       samplerData.Compare,
	})
	if err != nil {
		dev.Release(view, tex)
		return fmt.Errorf("failed to create sampler for %s: %w", m.label, err)
	}

	m.provider.SetTexture(tex)
	m.provider.SetTextureView(TextureBinding, view)
	m.provider.SetSampler(SamplerBinding, sampler)
	m.layers = len(entries)
	m.ready = true

	m.logger.Debug("material texture array ready",
		zap.String("label", m.label),
		zap.Int("layers", m.layers),
		zap.Uint32("width", m.width),
		zap.Uint32("height", m.height),
	)
	return nil
}

// resolveSource picks the image locator of a material: its mapped source, else the default image,
// prefixed with the image base directory.
func (m *materialArray) resolveSource(name string, sources map[string]string) (string, error) {
	loc := sources[name]
	if loc == "" {
		loc = m.defaultImage
	}
	if loc == "" {
		return "", fmt.Errorf("%w: material %q has no image and no default image is configured", common.ErrSourceUnavailable, name)
	}
	if m.imageBaseDir == "" || isAbsoluteLocator(loc) {
		return loc, nil
	}
	return strings.TrimSuffix(m.imageBaseDir, "/") + "/" + loc, nil
}

// loadLayers decodes, normalizes and uploads every layer on a worker pool and waits for all of them.
// All failures are joined into the returned error.
func (m *materialArray) loadLayers(ctx context.Context, dev renderer.Device, tex *wgpu.Texture, entries []model.MaterialEntry, locators []string) error {
	pool := worker.NewDynamicWorkerPool(min(m.workers, len(entries)), 256, 1*time.Second)

	var (
		wg     sync.WaitGroup
		errsMu sync.Mutex
		errs   []error
	)
	for i, e := range entries {
		wg.Add(1)
		entry := e // capture for closure
		locator := locators[i]
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				if err := m.loadLayer(ctx, dev, tex, entry, locator); err != nil {
					errsMu.Lock()
					errs = append(errs, err)
					errsMu.Unlock()
					return nil, err
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("failed to load material textures for %s: %w", m.label, errors.Join(errs...))
	}
	return nil
}

// loadLayer fills the layer of one material.
func (m *materialArray) loadLayer(ctx context.Context, dev renderer.Device, tex *wgpu.Texture, entry model.MaterialEntry, locator string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("material %q: %w", entry.Name, err)
	}

	img, err := m.decoder.Decode(ctx, locator)
	if err != nil {
		if !errors.Is(err, common.ErrSourceUnavailable) {
			err = fmt.Errorf("%w: %w", common.ErrSourceUnavailable, err)
		}
		return fmt.Errorf("material %q (%s): %w", entry.Name, locator, err)
	}

	b := img.Bounds()
	normalized, resized := Normalize(img, int(m.width), int(m.height), m.resizeMode)
	if resized {
		m.logger.Debug("normalized material image",
			zap.String("material", entry.Name),
			zap.Int("source_width", b.Dx()),
			zap.Int("source_height", b.Dy()),
			zap.Stringer("mode", m.resizeMode),
		)
	}

	staging, err := common.NewTextureStagingData(normalized, entry.Index)
	if err != nil {
		return fmt.Errorf("material %q: %w", entry.Name, err)
	}

	err = dev.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: staging.Layer},
			Aspect:   wgpu.TextureAspectAll,
		},
		staging.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  staging.Width * 4,
			RowsPerImage: staging.Height,
		},
		&wgpu.Extent3D{
			Width:              staging.Width,
			Height:             staging.Height,
			DepthOrArrayLayers: 1,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upload layer %d for material %q: %w", entry.Index, entry.Name, err)
	}
	return nil
}

func (m *materialArray) BindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	texture := wgpu.BindGroupLayoutEntry{
		Binding:    TextureBinding,
		Visibility: wgpu.ShaderStageFragment,
	}
	texture.Texture.SampleType = wgpu.TextureSampleTypeFloat
	texture.Texture.ViewDimension = wgpu.TextureViewDimension2DArray
	texture.Texture.Multisampled = false

	sampler := wgpu.BindGroupLayoutEntry{
		Binding:    SamplerBinding,
		Visibility: wgpu.ShaderStageFragment,
	}
	sampler.Sampler.Type = wgpu.SamplerBindingTypeFiltering

	return wgpu.BindGroupLayoutDescriptor{
		Label:   m.label + " Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{texture, sampler},
	}
}

func (m *materialArray) CreateBindGroupLayout(dev renderer.Device) (*wgpu.BindGroupLayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createBindGroupLayout(dev)
}

// createBindGroupLayout requires m.mu to be held.
func (m *materialArray) createBindGroupLayout(dev renderer.Device) (*wgpu.BindGroupLayout, error) {
	if layout := m.provider.BindGroupLayout(); layout != nil {
		return layout, nil
	}
	desc := m.BindGroupLayoutDescriptor()
	layout, err := dev.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout for %s: %w", m.label, err)
	}
	m.provider.SetBindGroupLayout(layout)
	return layout, nil
}

func (m *materialArray) CreateBindGroup(dev renderer.Device) (*wgpu.BindGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bg := m.provider.BindGroup(); bg != nil {
		return bg, nil
	}
	view := m.provider.TextureView(TextureBinding)
	sampler := m.provider.Sampler(SamplerBinding)
	if view == nil || sampler == nil {
		return nil, fmt.Errorf("%s: bind group needs the texture array view and sampler: %w", m.label, renderer.ErrUninitializedResource)
	}

	layout, err := m.createBindGroupLayout(dev)
	if err != nil {
		return nil, err
	}
	bg, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  m.label + " Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: TextureBinding, TextureView: view},
			{Binding: SamplerBinding, Sampler: sampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group for %s: %w", m.label, err)
	}
	m.provider.SetBindGroup(bg)
	return bg, nil
}

func (m *materialArray) Provider() bind_group_provider.BindGroupProvider {
	return m.provider
}

func (m *materialArray) LayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.layers
}

func (m *materialArray) Resolution() (uint32, uint32) {
	return m.width, m.height
}

func (m *materialArray) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

func (m *materialArray) Release(dev renderer.Device) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dev.Release(m.provider.Detach()...)
	m.layers = 0
	m.ready = false
}

// isAbsoluteLocator reports whether loc is an absolute path or carries a URL scheme.
func isAbsoluteLocator(loc string) bool {
	return strings.HasPrefix(loc, "/") || strings.Contains(loc, "://")
}
