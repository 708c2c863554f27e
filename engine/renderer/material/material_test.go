package material

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sort"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/renderertest"
	"github.com/cogentcore/webgpu/wgpu"
)

// stubDecoder returns a solid image for every locator and records what was requested.
// Locators missing from colors decode to opaque red.
type stubDecoder struct {
	mu        sync.Mutex
	size      image.Point
	colors    map[string]color.RGBA
	fail      map[string]error
	requested []string
}

func (d *stubDecoder) Decode(_ context.Context, locator string) (image.Image, error) {
	d.mu.Lock()
	d.requested = append(d.requested, locator)
	err := d.fail[locator]
	c, ok := d.colors[locator]
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if !ok {
		c = color.RGBA{R: 255, A: 255}
	}
	img := image.NewRGBA(image.Rect(0, 0, d.size.X, d.size.Y))
	for y := 0; y < d.size.Y; y++ {
		for x := 0; x < d.size.X; x++ {
			img.Set(x, y, c)
		}
	}
	return img, nil
}

func (d *stubDecoder) locators() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := append([]string(nil), d.requested...)
	sort.Strings(out)
	return out
}

func registryOf(names ...string) *model.MaterialRegistry {
	r := model.NewMaterialRegistry()
	for _, n := range names {
		r.Use(n)
	}
	return r
}

func TestInitCreatesOneLayerPerMaterial(t *testing.T) {
	dev := renderertest.NewDevice()
	dec := &stubDecoder{size: image.Pt(4, 4)}
	arr := NewMaterialArray(
		WithResolution(4, 4),
		WithImageDecoder(dec),
		WithImageBaseDir("img/materials/"),
		WithWorkers(2),
	)

	err := arr.Init(context.Background(), dev, registryOf("A", "B", "C"), map[string]string{"A": "a.png"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if len(dev.Textures) != 1 {
		t.Fatalf("created %d textures, want 1", len(dev.Textures))
	}
	desc := dev.Textures[0]
	if desc.Size.DepthOrArrayLayers != 3 || desc.Size.Width != 4 || desc.Size.Height != 4 {
		t.Errorf("texture size = %+v", desc.Size)
	}
	if desc.Format != wgpu.TextureFormatRGBA8Unorm {
		t.Errorf("format = %v", desc.Format)
	}
	wantUsage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageRenderAttachment
	if desc.Usage != wantUsage {
		t.Errorf("usage = %v, want %v", desc.Usage, wantUsage)
	}

	layers := map[uint32]bool{}
	for _, w := range dev.TextureWrites {
		layers[w.Destination.Origin.Z] = true
		if len(w.Data) != 4*4*4 || w.Layout.BytesPerRow != 16 {
			t.Errorf("layer %d write: %d bytes, %d bytes per row", w.Destination.Origin.Z, len(w.Data), w.Layout.BytesPerRow)
		}
	}
	if len(dev.TextureWrites) != 3 || !layers[0] || !layers[1] || !layers[2] {
		t.Errorf("texture writes targeted layers %v", layers)
	}

	want := []string{"img/materials/a.png", "img/materials/default.jpg", "img/materials/default.jpg"}
	if got := dec.locators(); fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("requested locators = %v, want %v", got, want)
	}

	if len(dev.Views) != 1 {
		t.Fatalf("created %d views, want 1", len(dev.Views))
	}
	view := dev.Views[0]
	if view.Dimension != wgpu.TextureViewDimension2DArray || view.ArrayLayerCount != 3 || view.MipLevelCount != 1 {
		t.Errorf("view = %+v", view)
	}
	if len(dev.Samplers) != 1 {
		t.Fatalf("created %d samplers, want 1", len(dev.Samplers))
	}
	s := dev.Samplers[0]
	if s.MagFilter != wgpu.FilterModeLinear || s.MinFilter != wgpu.FilterModeLinear ||
		s.AddressModeU != wgpu.AddressModeRepeat || s.AddressModeV != wgpu.AddressModeRepeat {
		t.Errorf("sampler = %+v", s)
	}

	if !arr.Ready() || arr.LayerCount() != 3 {
		t.Errorf("Ready() = %v, LayerCount() = %d", arr.Ready(), arr.LayerCount())
	}
	if w, h := arr.Resolution(); w != 4 || h != 4 {
		t.Errorf("Resolution() = %dx%d", w, h)
	}
	p := arr.Provider()
	if p.Texture() == nil || p.TextureView(TextureBinding) == nil || p.Sampler(SamplerBinding) == nil {
		t.Error("provider is missing published resources")
	}
}

func TestInitResizesToCanonical(t *testing.T) {
	dev := renderertest.NewDevice()
	dec := &stubDecoder{size: image.Pt(2, 3)}
	arr := NewMaterialArray(WithResolution(8, 6), WithImageDecoder(dec))

	if err := arr.Init(context.Background(), dev, registryOf("A"), nil); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	w := dev.TextureWrites[0]
	if w.Size.Width != 8 || w.Size.Height != 6 || len(w.Data) != 8*6*4 {
		t.Errorf("layer write size = %+v with %d bytes", w.Size, len(w.Data))
	}
}

func TestInitWithoutDefaultImage(t *testing.T) {
	dev := renderertest.NewDevice()
	arr := NewMaterialArray(WithDefaultImage(""), WithImageDecoder(&stubDecoder{size: image.Pt(1, 1)}))

	err := arr.Init(context.Background(), dev, registryOf("A", "B"), map[string]string{"A": "a.png"})
	if !errors.Is(err, common.ErrSourceUnavailable) {
		t.Fatalf("error = %v, want ErrSourceUnavailable", err)
	}
	if len(dev.Textures) != 0 {
		t.Error("no texture should be created when a source is missing")
	}
	if arr.Ready() {
		t.Error("array must not be ready")
	}
}

func TestInitLayerHoldsRegistryMaterial(t *testing.T) {
	dev := renderertest.NewDevice()
	colors := map[string]color.RGBA{
		"a.png": {R: 200, A: 255},
		"b.png": {G: 150, A: 255},
		"c.png": {B: 100, A: 255},
	}
	dec := &stubDecoder{size: image.Pt(2, 2), colors: colors}
	arr := NewMaterialArray(WithResolution(2, 2), WithImageDecoder(dec), WithWorkers(3))

	registry := registryOf("C", "A", "B")
	sources := map[string]string{"A": "a.png", "B": "b.png", "C": "c.png"}
	if err := arr.Init(context.Background(), dev, registry, sources); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if len(dev.TextureWrites) != 3 {
		t.Fatalf("got %d texture writes, want 3", len(dev.TextureWrites))
	}

	names := registry.Names()
	seen := map[uint32]bool{}
	for _, w := range dev.TextureWrites {
		layer := w.Destination.Origin.Z
		if int(layer) >= len(names) || seen[layer] {
			t.Fatalf("unexpected write to layer %d", layer)
		}
		seen[layer] = true
		want := colors[sources[names[layer]]]
		for px := 0; px+4 <= len(w.Data); px += 4 {
			got := color.RGBA{R: w.Data[px], G: w.Data[px+1], B: w.Data[px+2], A: w.Data[px+3]}
			if got != want {
				t.Errorf("layer %d (%s) pixel %d = %v, want %v", layer, names[layer], px/4, got, want)
				break
			}
		}
	}
}

func TestInitSamplerHonoursNearestFilter(t *testing.T) {
	dev := renderertest.NewDevice()
	nearest := DefaultSampler()
	nearest.MagFilter = wgpu.FilterModeNearest
	nearest.MinFilter = wgpu.FilterModeNearest
	nearest.MipmapFilter = wgpu.MipmapFilterModeNearest
	nearest.AddressModeU = wgpu.AddressModeClampToEdge
	arr := NewMaterialArray(WithResolution(1, 1), WithImageDecoder(&stubDecoder{size: image.Pt(1, 1)}), WithSampler(nearest))

	if err := arr.Init(context.Background(), dev, registryOf("A"), nil); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if len(dev.Samplers) != 1 {
		t.Fatalf("created %d samplers, want 1", len(dev.Samplers))
	}
	s := dev.Samplers[0]
	if s.MagFilter != wgpu.FilterModeNearest || s.MinFilter != wgpu.FilterModeNearest || s.MipmapFilter != wgpu.MipmapFilterModeNearest {
		t.Errorf("filters = %v/%v/%v, want nearest", s.MagFilter, s.MinFilter, s.MipmapFilter)
	}
	if s.AddressModeU != wgpu.AddressModeClampToEdge || s.AddressModeV != wgpu.AddressModeRepeat {
		t.Errorf("address modes = %v/%v", s.AddressModeU, s.AddressModeV)
	}
	if s.LodMaxClamp != 32 || s.MaxAnisotropy != 1 {
		t.Errorf("LodMaxClamp = %v, MaxAnisotropy = %d", s.LodMaxClamp, s.MaxAnisotropy)
	}
}

func TestInitEmptyRegistry(t *testing.T) {
	dev := renderertest.NewDevice()
	arr := NewMaterialArray()
	if err := arr.Init(context.Background(), dev, model.NewMaterialRegistry(), nil); !errors.Is(err, ErrNoMaterials) {
		t.Fatalf("error = %v, want ErrNoMaterials", err)
	}
}

func TestInitPartialFailurePublishesNothing(t *testing.T) {
	dev := renderertest.NewDevice()
	dec := &stubDecoder{
		size: image.Pt(2, 2),
		fail: map[string]error{"b.png": errors.New("corrupt")},
	}
	arr := NewMaterialArray(WithResolution(2, 2), WithImageDecoder(dec))

	err := arr.Init(context.Background(), dev, registryOf("A", "B", "C"), map[string]string{"A": "a.png", "B": "b.png", "C": "c.png"})
	if !errors.Is(err, common.ErrSourceUnavailable) {
		t.Fatalf("error = %v, want ErrSourceUnavailable", err)
	}
	if len(dev.Released) != 1 {
		t.Fatalf("released %d handles, want the texture only", len(dev.Released))
	}
	if len(dev.Views) != 0 || len(dev.Samplers) != 0 {
		t.Error("no view or sampler should be created after a failed load")
	}
	if arr.Ready() || arr.LayerCount() != 0 || arr.Provider().Texture() != nil {
		t.Error("failed Init must not publish a texture")
	}
}

func TestInitUploadFailure(t *testing.T) {
	dev := renderertest.NewDevice()
	uploadErr := errors.New("queue full")
	dev.WriteTextureErr = func(dst wgpu.ImageCopyTexture) error {
		if dst.Origin.Z == 1 {
			return uploadErr
		}
		return nil
	}
	arr := NewMaterialArray(WithResolution(2, 2), WithImageDecoder(&stubDecoder{size: image.Pt(2, 2)}))

	err := arr.Init(context.Background(), dev, registryOf("A", "B"), nil)
	if !errors.Is(err, uploadErr) {
		t.Fatalf("error = %v, want %v", err, uploadErr)
	}
	if arr.Ready() {
		t.Error("array must not be ready")
	}
}

func TestInitTwice(t *testing.T) {
	dev := renderertest.NewDevice()
	arr := NewMaterialArray(WithResolution(1, 1), WithImageDecoder(&stubDecoder{size: image.Pt(1, 1)}))
	if err := arr.Init(context.Background(), dev, registryOf("A"), nil); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := arr.Init(context.Background(), dev, registryOf("A"), nil); err == nil {
		t.Error("second Init should fail")
	}
}

func TestCreateBindGroupBeforeInit(t *testing.T) {
	dev := renderertest.NewDevice()
	arr := NewMaterialArray()

	bg, err := arr.CreateBindGroup(dev)
	if !errors.Is(err, renderer.ErrUninitializedResource) {
		t.Fatalf("error = %v, want ErrUninitializedResource", err)
	}
	if bg != nil || len(dev.BindGroups) != 0 || len(dev.BindGroupLayouts) != 0 {
		t.Error("nothing should be created before Init")
	}
	if arr.Provider().BindGroup() != nil {
		t.Error("provider must not hold a bind group")
	}
}

func TestCreateBindGroupAfterInit(t *testing.T) {
	dev := renderertest.NewDevice()
	arr := NewMaterialArray(WithResolution(1, 1), WithImageDecoder(&stubDecoder{size: image.Pt(1, 1)}))
	if err := arr.Init(context.Background(), dev, registryOf("A", "B"), nil); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	bg, err := arr.CreateBindGroup(dev)
	if err != nil {
		t.Fatalf("CreateBindGroup() error = %v", err)
	}
	again, err := arr.CreateBindGroup(dev)
	if err != nil || again != bg {
		t.Error("second CreateBindGroup should return the published bind group")
	}
	if len(dev.BindGroups) != 1 || len(dev.BindGroupLayouts) != 1 {
		t.Fatalf("created %d bind groups and %d layouts, want 1 each", len(dev.BindGroups), len(dev.BindGroupLayouts))
	}

	entries := dev.BindGroups[0].Entries
	if len(entries) != 2 {
		t.Fatalf("bind group has %d entries, want 2", len(entries))
	}
	p := arr.Provider()
	if entries[0].Binding != 0 || entries[0].TextureView != p.TextureView(TextureBinding) {
		t.Error("binding 0 should hold the texture array view")
	}
	if entries[1].Binding != 1 || entries[1].Sampler != p.Sampler(SamplerBinding) {
		t.Error("binding 1 should hold the sampler")
	}

	arr.Release(dev)
	if arr.Ready() || p.BindGroup() != nil || p.Texture() != nil {
		t.Error("Release should clear every resource")
	}
	if len(dev.Released) != 5 {
		t.Errorf("released %d handles, want 5", len(dev.Released))
	}
}

func TestBindGroupLayoutDescriptor(t *testing.T) {
	desc := NewMaterialArray().BindGroupLayoutDescriptor()
	if len(desc.Entries) != 2 {
		t.Fatalf("layout has %d entries, want 2", len(desc.Entries))
	}
	tex, samp := desc.Entries[0], desc.Entries[1]
	if tex.Binding != 0 || tex.Visibility != wgpu.ShaderStageFragment ||
		tex.Texture.ViewDimension != wgpu.TextureViewDimension2DArray || tex.Texture.SampleType != wgpu.TextureSampleTypeFloat {
		t.Errorf("texture entry = %+v", tex)
	}
	if samp.Binding != 1 || samp.Visibility != wgpu.ShaderStageFragment || samp.Sampler.Type != wgpu.SamplerBindingTypeFiltering {
		t.Errorf("sampler entry = %+v", samp)
	}
}

func TestFrameObjectLayoutDescriptor(t *testing.T) {
	desc := FrameObjectLayoutDescriptor(2)
	if len(desc.Entries) != 6 {
		t.Fatalf("got %d entries, want 6", len(desc.Entries))
	}
	for i, e := range desc.Entries {
		if e.Binding != uint32(i) {
			t.Errorf("entry %d has binding %d", i, e.Binding)
		}
	}
	if desc.Entries[0].Buffer.Type != wgpu.BufferBindingTypeUniform || desc.Entries[0].Visibility != wgpu.ShaderStageVertex {
		t.Error("binding 0 should be a vertex uniform buffer")
	}
	if desc.Entries[1].Buffer.Type != wgpu.BufferBindingTypeReadOnlyStorage {
		t.Error("binding 1 should be a read-only storage buffer")
	}
	for _, i := range []int{2, 4} {
		if desc.Entries[i].Texture.SampleType != wgpu.TextureSampleTypeFloat {
			t.Errorf("binding %d should be a texture", i)
		}
		if desc.Entries[i+1].Sampler.Type != wgpu.SamplerBindingTypeFiltering {
			t.Errorf("binding %d should be a sampler", i+1)
		}
	}
	if got := len(FrameObjectLayoutDescriptor(0).Entries); got != 2 {
		t.Errorf("zero materials gave %d entries, want 2", got)
	}
}
