// Package main is the entry point for objbake, a headless mesh import check.
//
// objbake parses a mesh source, uploads its vertex buffer, builds its material texture array
// on a real WebGPU device, builds the textured render pipeline and a camera framing the mesh, and logs what was produced. It exits non-zero if any step fails.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-mesh/engine/camera"
	"github.com/Carmen-Shannon/oxy-mesh/engine/config"
	"github.com/Carmen-Shannon/oxy-mesh/engine/loader"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logger"
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/profiler"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(2)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Log.Error("bake failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// run acquires a device, loads the configured mesh onto it and releases everything again.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Log

	vs := shader.MeshVertexShader()
	fs := shader.MeshFragmentShader()
	if cfg.GPU.CompileShaders {
		compileShaders(log, vs, fs)
	}

	resizeMode, err := material.ParseResizeMode(cfg.Materials.ResizeMode)
	if err != nil {
		return err
	}

	dev, err := renderer.NewDevice(
		renderer.WithLabel(cfg.GPU.Label),
		renderer.WithForceFallbackAdapter(cfg.GPU.ForceFallbackAdapter),
	)
	if err != nil {
		return fmt.Errorf("acquire gpu device: %w", err)
	}
	defer dev.Close()
	log.Info("gpu device ready", zap.String("label", cfg.GPU.Label), zap.Bool("fallback_adapter", cfg.GPU.ForceFallbackAdapter))

	prof := profiler.NewProfiler(log.Named("profiler"))

	var parserOptions []loader.ParserOption
	if cfg.Mesh.GlobalTiling {
		parserOptions = append(parserOptions, loader.WithGlobalTiling())
	}

	options := []loader.LoaderBuilderOption{
		loader.WithDevice(dev),
		loader.WithFetcher(loader.MultiFetcher{
			HTTP: loader.HTTPFetcher{Client: &http.Client{Timeout: cfg.Mesh.FetchTimeout}},
		}),
		loader.WithVertexShader(vs),
		loader.WithFragmentShader(fs),
		loader.WithLogger(log.Named("loader")),
		loader.WithProfiler(prof),
		loader.WithParserOptions(parserOptions...),
		loader.WithDefaultImage(cfg.Materials.DefaultImage),
		loader.WithImageBaseDir(cfg.Materials.BaseDir),
		loader.WithResizeMode(resizeMode),
		loader.WithResolution(cfg.Materials.Width, cfg.Materials.Height),
	}
	if cfg.Materials.Workers > 0 {
		options = append(options, loader.WithWorkers(cfg.Materials.Workers))
	}
	l := loader.NewLoader(options...)

	m, err := l.Load(ctx, cfg.Mesh.Path, cfg.Materials.Sources)
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.Mesh.Path, err)
	}
	defer l.Unload(cfg.Mesh.Path)

	// A mesh without materials has no material bind group layout to build the textured pipeline with.
	if mp := m.MaterialProvider(); mp != nil {
		done := prof.Start("pipeline")
		pl := pipeline.NewPipeline(m.Name(), pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))
		err := pl.Build(dev, mp.BindGroupLayout(), m.VertexLayout())
		done()
		if err != nil {
			return err
		}
		defer pl.Release(dev)
		log.Info("render pipeline built", zap.String("pipeline", pl.PipelineKey()))

		mesh := m.Mesh()
		cam := camera.NewCamera(camera.WithAspect(float32(cfg.Materials.Width) / float32(cfg.Materials.Height)))
		cam.FrameBounds(mesh.BoundingMin, mesh.BoundingMax)
		if _, err := cam.BuildFrameBindGroup(dev, pl.FrameBindGroupLayout()); err != nil {
			return err
		}
		defer cam.Release(dev)
		eye := cam.Position()
		log.Debug("frame bind group built",
			zap.Float32s("eye", eye[:]),
			zap.Float32("near", cam.Near()),
			zap.Float32("far", cam.Far()),
		)
	}

	summarize(log, m, cfg)
	prof.Report()
	return nil
}

// compileShaders runs the SPIR-V compile check on each shader and logs failures as warnings.
func compileShaders(log *zap.Logger, shaders ...shader.Shader) {
	for _, s := range shaders {
		words, err := shader.CompileSPIRV(s)
		if err != nil {
			log.Warn("shader compile check failed", zap.String("shader", s.Key()), zap.Error(err))
			continue
		}
		log.Debug("shader compiled", zap.String("shader", s.Key()), zap.Int("spirv_words", len(words)))
	}
}

// summarize logs the registry, vertex stream and texture array of a loaded model.
func summarize(log *zap.Logger, m model.Model, cfg *config.Config) {
	registry := m.Materials()
	for _, entry := range registry.Entries() {
		source, ok := cfg.Materials.Sources[entry.Name]
		if !ok {
			source = cfg.Materials.DefaultImage + " (default)"
		}
		log.Info("material",
			zap.Uint32("layer", entry.Index),
			zap.String("name", entry.Name),
			zap.String("source", source),
		)
	}

	mesh := m.Mesh()
	layers := 0
	if m.MaterialProvider() != nil {
		layers = registry.Len()
	}
	log.Info("mesh baked",
		zap.String("name", m.Name()),
		zap.Int("vertices", m.VertexCount()),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Uint64("vertex_buffer_bytes", model.VertexBufferSize(m.VertexCount())),
		zap.Int("materials", registry.Len()),
		zap.Int("texture_layers", layers),
		zap.String("materials_order", strings.Join(registry.Names(), ", ")),
		zap.Float32s("bounds_min", mesh.BoundingMin[:]),
		zap.Float32s("bounds_max", mesh.BoundingMax[:]),
		zap.Float32("bounding_radius", m.BoundingRadius()),
		zap.Int("ignored_lines", mesh.Stats.IgnoredLines),
	)
}
