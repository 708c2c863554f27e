package renderer_test

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// newGPUDevice opens a real device or skips when the host has no usable adapter.
func newGPUDevice(t *testing.T) renderer.Device {
	t.Helper()
	if testing.Short() {
		t.Skip("GPU device tests are skipped in short mode")
	}
	dev, err := renderer.NewDevice(renderer.WithLabel("test device"), renderer.WithForceFallbackAdapter(true))
	if err != nil {
		t.Skipf("no WebGPU adapter: %v", err)
	}
	t.Cleanup(dev.Close)
	return dev
}

func TestWGPUWriteBufferReportsValidationError(t *testing.T) {
	dev := newGPUDevice(t)

	buf, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "small",
		Size:  4,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	defer dev.Release(buf)

	if err := dev.WriteBuffer(buf, 0, make([]byte, 16)); err == nil {
		t.Fatal("writing 16 bytes into a 4-byte buffer should fail")
	}
	if err := dev.WriteBuffer(buf, 0, make([]byte, 4)); err != nil {
		t.Fatalf("in-bounds write failed: %v", err)
	}
}

func TestWGPUWriteTextureReportsValidationError(t *testing.T) {
	dev := newGPUDevice(t)

	tex, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "layers",
		Size:          wgpu.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 2},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		t.Fatalf("CreateTexture: %v", err)
	}
	defer dev.Release(tex)

	pixels := make([]byte, 4*4*4)
	layout := &wgpu.TextureDataLayout{BytesPerRow: 16, RowsPerImage: 4}
	size := &wgpu.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1}

	outside := &wgpu.ImageCopyTexture{Texture: tex, Origin: wgpu.Origin3D{Z: 5}, Aspect: wgpu.TextureAspectAll}
	if err := dev.WriteTexture(outside, pixels, layout, size); err == nil {
		t.Fatal("writing layer 5 of a 2-layer texture should fail")
	}

	inside := &wgpu.ImageCopyTexture{Texture: tex, Origin: wgpu.Origin3D{Z: 1}, Aspect: wgpu.TextureAspectAll}
	if err := dev.WriteTexture(inside, pixels, layout, size); err != nil {
		t.Fatalf("in-bounds write failed: %v", err)
	}
}
