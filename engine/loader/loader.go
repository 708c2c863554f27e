package loader

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/profiler"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"go.uber.org/zap"
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	device         renderer.Device
	fetcher        Fetcher
	decoder        material.ImageDecoder
	vertexShader   shader.Shader
	fragmentShader shader.Shader
	logger         *zap.Logger
	profiler       *profiler.Profiler

	parserOptions   []ParserOption
	materialOptions []material.MaterialArrayBuilderOption

	modelCache map[string]model.Model

	backends map[string]loaderBackend
}

// Loader defines the public-facing interface for loading and caching meshes.
// It runs the whole ingestion pipeline for a source: fetch, parse, shader contract check,
// vertex buffer upload and material texture array binding, and caches the published model by name.
// A failure at any step releases what was already created and caches nothing.
type Loader interface {
	// Load fetches a mesh source and imports it. The backend is selected by the locator's
	// file extension (.obj). A cached model with the same locator is returned as-is.
	//
	// Parameters:
	//   - ctx: cancels the fetch and pending material image loads
	//   - locator: the file path or URL of the mesh source, also used as the cache key
	//   - sources: material name to image locator; unmapped materials use the default image
	//
	// Returns:
	//   - model.Model: the loaded and cached model
	//   - error: an error wrapping ErrSourceUnavailable, ErrMalformedGeometry or a GPU error
	Load(ctx context.Context, locator string, sources map[string]string) (model.Model, error)

	// LoadReader imports a mesh from a reader stream and caches it by the given name.
	// A name without an extension is parsed as OBJ.
	//
	// Parameters:
	//   - ctx: cancels pending material image loads
	//   - name: the cache key and mesh name
	//   - r: the reader providing the mesh source text
	//   - sources: material name to image locator
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: error if loading fails
	LoadReader(ctx context.Context, name string, r io.Reader, sources map[string]string) (model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - model.Model: the cached model or nil
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model

	// Unload removes a model from the cache and releases its GPU resources on the loader's device.
	//
	// Parameters:
	//   - name: the cache key of the model
	//
	// Returns:
	//   - bool: false if no model was cached under name
	Unload(name string) bool
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the provided options applied.
// Without WithDevice the loader parses and caches CPU-side models only.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided options
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		fetcher:    MultiFetcher{},
		logger:     zap.NewNop(),
		modelCache: make(map[string]model.Model),
	}
	for _, option := range options {
		option(l)
	}

	if l.decoder == nil {
		l.decoder = material.FetchDecoder{Opener: l.fetcher}
	}
	parserOptions := append([]ParserOption{WithParserLogger(l.logger)}, l.parserOptions...)
	l.backends = map[string]loaderBackend{
		".obj": newOBJLoaderBackend(parserOptions...),
	}
	return l
}

func (l *loader) Load(ctx context.Context, locator string, sources map[string]string) (model.Model, error) {
	if cached := l.Get(locator); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(locator)
	if err != nil {
		return nil, err
	}

	stop := l.profiler.Start("fetch")
	rc, err := l.fetcher.Open(ctx, locator)
	stop()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", locator, err)
	}
	defer rc.Close()

	return l.load(ctx, locator, backend, rc, sources)
}

func (l *loader) LoadReader(ctx context.Context, name string, r io.Reader, sources map[string]string) (model.Model, error) {
	if cached := l.Get(name); cached != nil {
		return cached, nil
	}

	backend, err := l.resolveBackend(name)
	if err != nil {
		return nil, err
	}
	return l.load(ctx, name, backend, r, sources)
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

func (l *loader) Unload(name string) bool {
	l.mu.Lock()
	m, ok := l.modelCache[name]
	delete(l.modelCache, name)
	l.mu.Unlock()
	if !ok {
		return false
	}
	if l.device != nil {
		l.device.Release(m.Resources()...)
	}
	return true
}

// resolveBackend selects the loader backend for a locator by its file extension.
// Query strings and fragments of URLs are ignored. A locator without an extension uses OBJ.
func (l *loader) resolveBackend(locator string) (loaderBackend, error) {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Scheme != "" && u.Path != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		ext = ".obj"
	}
	backend, ok := l.backends[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported mesh format: %s", ext)
	}
	return backend, nil
}

// load runs the pipeline after the source has been opened and publishes the model.
func (l *loader) load(ctx context.Context, name string, backend loaderBackend, r io.Reader, sources map[string]string) (model.Model, error) {
	stop := l.profiler.Start("parse")
	mesh, err := backend.Parse(name, r)
	stop()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if len(mesh.Vertices) == 0 {
		return nil, fmt.Errorf("failed to load %s: %w", name, renderer.ErrEmptyVertexData)
	}

	layout := model.VertexBufferLayout()
	if l.vertexShader != nil {
		if err := shader.CheckVertexLayout(l.vertexShader, layout); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
	}

	meshProvider := bind_group_provider.NewBindGroupProvider(name + " Mesh")
	var materials material.MaterialArray
	if l.device != nil {
		stop = l.profiler.Start("upload")
		err = renderer.BuildVertexBuffer(l.device, meshProvider, mesh.Vertices)
		stop()
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}

		materials, err = l.bindMaterials(ctx, name, mesh.Materials, sources)
		if err != nil {
			l.device.Release(meshProvider.Detach()...)
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
	}

	opts := []model.ModelBuilderOption{
		model.WithMesh(mesh),
		model.WithName(name),
		model.WithMeshProvider(meshProvider),
	}
	if materials != nil {
		opts = append(opts, model.WithMaterialProvider(materials.Provider()))
	}
	m := model.NewModel(opts...)

	l.mu.Lock()
	if existing, ok := l.modelCache[name]; ok {
		// a concurrent load of the same name won; drop ours
		l.mu.Unlock()
		if l.device != nil {
			l.device.Release(m.Resources()...)
		}
		return existing, nil
	}
	l.modelCache[name] = m
	l.mu.Unlock()

	l.logger.Info("model loaded",
		zap.String("name", name),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Strings("materials", mesh.Materials.Names()),
		zap.Bool("gpu", l.device != nil),
	)
	return m, nil
}

// bindMaterials builds the material texture array and its bind group. A mesh without
// material-use directives has no materials to bind and gets no array.
func (l *loader) bindMaterials(ctx context.Context, name string, registry *model.MaterialRegistry, sources map[string]string) (material.MaterialArray, error) {
	if registry.Len() == 0 {
		l.logger.Debug("mesh has no materials, skipping texture array", zap.String("name", name))
		return nil, nil
	}

	stop := l.profiler.Start("textures")
	defer stop()

	opts := []material.MaterialArrayBuilderOption{
		material.WithLabel(name + " Materials"),
		material.WithImageDecoder(l.decoder),
		material.WithLogger(l.logger),
	}
	arr := material.NewMaterialArray(append(opts, l.materialOptions...)...)

	if l.fragmentShader != nil {
		if err := shader.CheckBindGroupLayout(l.fragmentShader, shader.MaterialGroup, arr.BindGroupLayoutDescriptor()); err != nil {
			return nil, err
		}
	}
	if err := arr.Init(ctx, l.device, registry, sources); err != nil {
		return nil, err
	}
	if _, err := arr.CreateBindGroup(l.device); err != nil {
		arr.Release(l.device)
		return nil, err
	}
	return arr, nil
}
