package loader

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/profiler"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
)

const twoMaterialOBJ = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 1
usemtl A
f 1/1 2/2 3/2
usemtl B
f 1/1 3/2 4/1
`

// solidDecoder returns a blank image for every locator except those listed in fail.
type solidDecoder struct {
	mu        sync.Mutex
	fail      map[string]bool
	requested []string
}

func (d *solidDecoder) Decode(_ context.Context, locator string) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requested = append(d.requested, locator)
	if d.fail[locator] {
		return nil, common.ErrSourceUnavailable
	}
	return image.NewRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (d *solidDecoder) locators() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := append([]string(nil), d.requested...)
	sort.Strings(out)
	return out
}

func writeMesh(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadReaderWithoutDevice(t *testing.T) {
	l := NewLoader()
	m, err := l.LoadReader(context.Background(), "tri", strings.NewReader(triangleOBJ), nil)
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if m.Name() != "tri" || m.VertexCount() != 3 {
		t.Errorf("model %q has %d vertices", m.Name(), m.VertexCount())
	}
	if m.MeshProvider() == nil || m.MeshProvider().VertexBuffer() != nil {
		t.Error("a CPU-only model has a provider without a vertex buffer")
	}
	if m.MaterialProvider() != nil {
		t.Error("a CPU-only model has no material provider")
	}
	if len(m.VertexData()) != 3*model.VertexStride {
		t.Errorf("vertex data is %d bytes", len(m.VertexData()))
	}

	again, err := l.LoadReader(context.Background(), "tri", strings.NewReader("garbage"), nil)
	if err != nil || again != m {
		t.Error("second load should return the cached model")
	}
	if l.Get("tri") != m || len(l.Models()) != 1 {
		t.Error("model should be cached under its name")
	}
}

func TestLoadWithDevice(t *testing.T) {
	dir := t.TempDir()
	writeMesh(t, dir, "quad.obj", twoMaterialOBJ)

	dev := renderertest.NewDevice()
	dec := &solidDecoder{}
	prof := profiler.NewProfiler(nil)
	l := NewLoader(
		WithDevice(dev),
		WithFetcher(FileFetcher{BaseDir: dir}),
		WithImageDecoder(dec),
		WithResolution(2, 2),
		WithWorkers(2),
		WithVertexShader(shader.MeshVertexShader()),
		WithFragmentShader(shader.MeshFragmentShader()),
		WithProfiler(prof),
	)

	m, err := l.Load(context.Background(), "quad.obj", map[string]string{"A": "a.png"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(dev.Buffers) != 1 || dev.Buffers[0].Size != model.VertexBufferSize(6) {
		t.Fatalf("buffers = %+v", dev.Buffers)
	}
	if m.VertexCount() != 6 || m.MeshProvider().VertexBuffer() == nil {
		t.Errorf("vertex count = %d", m.VertexCount())
	}
	if len(dev.Textures) != 1 || dev.Textures[0].Size.DepthOrArrayLayers != 2 {
		t.Fatalf("textures = %+v", dev.Textures)
	}
	if len(dev.BindGroups) != 1 || m.MaterialProvider() == nil || m.MaterialProvider().BindGroup() == nil {
		t.Error("material bind group should be published on the model")
	}
	if got := dec.locators(); len(got) != 2 || got[0] != "a.png" || got[1] != "default.jpg" {
		t.Errorf("requested images = %v", got)
	}
	if names := m.Materials().Names(); len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Errorf("materials = %v", names)
	}

	var stages []string
	for _, s := range prof.Stages() {
		stages = append(stages, s.Name)
	}
	if strings.Join(stages, ",") != "fetch,parse,upload,textures" {
		t.Errorf("stages = %v", stages)
	}
}

func TestLoadWithoutMaterialsSkipsTextureArray(t *testing.T) {
	dev := renderertest.NewDevice()
	l := NewLoader(WithDevice(dev), WithImageDecoder(&solidDecoder{}))
	m, err := l.LoadReader(context.Background(), "tri.obj", strings.NewReader(triangleOBJ), nil)
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if len(dev.Buffers) != 1 || len(dev.Textures) != 0 || m.MaterialProvider() != nil {
		t.Errorf("got %d buffers and %d textures", len(dev.Buffers), len(dev.Textures))
	}
}

func TestLoadMaterialFailureIsNotCached(t *testing.T) {
	dev := renderertest.NewDevice()
	dec := &solidDecoder{fail: map[string]bool{"b.png": true}}
	l := NewLoader(WithDevice(dev), WithImageDecoder(dec), WithResolution(2, 2))

	_, err := l.LoadReader(context.Background(), "quad.obj", strings.NewReader(twoMaterialOBJ), map[string]string{"A": "a.png", "B": "b.png"})
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("error = %v, want ErrSourceUnavailable", err)
	}
	if l.Get("quad.obj") != nil || len(l.Models()) != 0 {
		t.Error("failed load must not be cached")
	}
	// the texture array and the vertex buffer
	if len(dev.Released) != 2 {
		t.Errorf("released %d handles, want 2", len(dev.Released))
	}
	if len(dev.BindGroups) != 0 {
		t.Error("no bind group should be created")
	}
}

func TestLoadNoDefaultImage(t *testing.T) {
	dev := renderertest.NewDevice()
	l := NewLoader(WithDevice(dev), WithImageDecoder(&solidDecoder{}), WithDefaultImage(""))

	_, err := l.LoadReader(context.Background(), "quad.obj", strings.NewReader(twoMaterialOBJ), map[string]string{"A": "a.png"})
	if !errors.Is(err, ErrSourceUnavailable) || !strings.Contains(err.Error(), `"B"`) {
		t.Fatalf("error = %v, want ErrSourceUnavailable naming B", err)
	}
	if len(dev.Textures) != 0 {
		t.Error("no texture should be created")
	}
}

func TestLoadMissingSource(t *testing.T) {
	l := NewLoader(WithFetcher(FileFetcher{BaseDir: t.TempDir()}))
	if _, err := l.Load(context.Background(), "nope.obj", nil); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("error = %v, want ErrSourceUnavailable", err)
	}
	if l.Get("nope.obj") != nil {
		t.Error("failed load must not be cached")
	}
}

func TestLoadMalformedSource(t *testing.T) {
	dev := renderertest.NewDevice()
	l := NewLoader(WithDevice(dev))
	_, err := l.LoadReader(context.Background(), "bad.obj", strings.NewReader("v 0 0 0\nf 1 2 3\n"), nil)
	if !errors.Is(err, ErrMalformedGeometry) {
		t.Fatalf("error = %v, want ErrMalformedGeometry", err)
	}
	if len(dev.Buffers) != 0 || l.Get("bad.obj") != nil {
		t.Error("nothing should be created or cached")
	}
}

func TestLoadEmptyMesh(t *testing.T) {
	l := NewLoader()
	_, err := l.LoadReader(context.Background(), "points.obj", strings.NewReader("v 0 0 0\nv 1 0 0\n"), nil)
	if !errors.Is(err, renderer.ErrEmptyVertexData) {
		t.Fatalf("error = %v, want ErrEmptyVertexData", err)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	l := NewLoader()
	if _, err := l.LoadReader(context.Background(), "mesh.fbx", strings.NewReader(""), nil); err == nil {
		t.Error("unknown extension should fail")
	}
}

func TestLoadVertexLayoutMismatch(t *testing.T) {
	src := `
struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) uv: vec2<f32>,
    @location(2) materialIndex: i32,
    @location(3) tiling: vec2<f32>,
};

@vertex
fn vs_main(input: VertexInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(input.position, 1.0);
}
`
	vs, err := shader.NewShader("signed", shader.ShaderTypeVertex, src)
	if err != nil {
		t.Fatal(err)
	}
	dev := renderertest.NewDevice()
	l := NewLoader(WithDevice(dev), WithVertexShader(vs))

	_, err = l.LoadReader(context.Background(), "tri.obj", strings.NewReader(triangleOBJ), nil)
	if !errors.Is(err, shader.ErrLayoutMismatch) {
		t.Fatalf("error = %v, want ErrLayoutMismatch", err)
	}
	if len(dev.Buffers) != 0 {
		t.Error("no buffer should be created")
	}
}

func TestLoadOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/meshes/tri.obj" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, triangleOBJ)
	}))
	defer srv.Close()

	l := NewLoader()
	locator := srv.URL + "/meshes/tri.obj?rev=2"
	m, err := l.Load(context.Background(), locator, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.VertexCount() != 3 || l.Get(locator) != m {
		t.Error("remote mesh should load and cache under its URL")
	}

	if _, err := l.Load(context.Background(), srv.URL+"/missing.obj", nil); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("404: error = %v, want ErrSourceUnavailable", err)
	}
}

func TestUnload(t *testing.T) {
	dev := renderertest.NewDevice()
	l := NewLoader(WithDevice(dev), WithImageDecoder(&solidDecoder{}), WithResolution(2, 2))
	if _, err := l.LoadReader(context.Background(), "quad.obj", strings.NewReader(twoMaterialOBJ), nil); err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}

	if !l.Unload("quad.obj") {
		t.Fatal("Unload() = false")
	}
	// bind group, layout, sampler, view, texture, vertex buffer
	if len(dev.Released) != 6 {
		t.Errorf("released %d handles, want 6", len(dev.Released))
	}
	if l.Get("quad.obj") != nil || l.Unload("quad.obj") {
		t.Error("model should be gone after Unload")
	}
}

func TestWithModel(t *testing.T) {
	m := model.NewModel(model.WithName("prebuilt"))
	l := NewLoader(WithModel("prebuilt", m))
	got, err := l.LoadReader(context.Background(), "prebuilt", strings.NewReader(""), nil)
	if err != nil || got != m {
		t.Errorf("LoadReader() = %v, %v; want the pre-populated model", got, err)
	}
}

func TestLoadWithGlobalTiling(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/1 3/1\nvt 4 0\nf 1/2 2/1 3/1\n"
	l := NewLoader(WithParserOptions(WithGlobalTiling()))
	m, err := l.LoadReader(context.Background(), "tiles.obj", strings.NewReader(src), nil)
	if err != nil {
		t.Fatalf("LoadReader() error = %v", err)
	}
	if got := m.Mesh().Vertices[0].Tiling; got[0] != 4 {
		t.Errorf("first face tiling = %v, want u=4", got)
	}
}
