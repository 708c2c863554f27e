package loader

import (
	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"github.com/Carmen-Shannon/oxy-mesh/engine/profiler"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithDevice is an option builder that sets the GPU device the Loader creates buffers and textures on.
//
// Parameters:
//   - dev: the device
//
// Returns:
//   - LoaderBuilderOption: a function that applies the device option to a loader
func WithDevice(dev renderer.Device) LoaderBuilderOption {
	return func(l *loader) {
		l.device = dev
	}
}

// WithFetcher is an option builder that sets how mesh sources (and, by default, material images) are opened.
//
// Parameters:
//   - f: the fetcher
//
// Returns:
//   - LoaderBuilderOption: a function that applies the fetcher option to a loader
func WithFetcher(f Fetcher) LoaderBuilderOption {
	return func(l *loader) {
		if f != nil {
			l.fetcher = f
		}
	}
}

// WithImageDecoder is an option builder that sets the material image decoder.
// The default decodes images opened through the loader's fetcher.
//
// Parameters:
//   - d: the image decoder
//
// Returns:
//   - LoaderBuilderOption: a function that applies the decoder option to a loader
func WithImageDecoder(d material.ImageDecoder) LoaderBuilderOption {
	return func(l *loader) {
		l.decoder = d
	}
}

// WithVertexShader is an option builder that sets the vertex shader every mesh layout is checked against.
//
// Parameters:
//   - s: the vertex shader
//
// Returns:
//   - LoaderBuilderOption: a function that applies the vertex shader option to a loader
func WithVertexShader(s shader.Shader) LoaderBuilderOption {
	return func(l *loader) {
		l.vertexShader = s
	}
}

// WithFragmentShader is an option builder that sets the fragment shader every material bind group
// layout is checked against at shader.MaterialGroup.
//
// Parameters:
//   - s: the fragment shader
//
// Returns:
//   - LoaderBuilderOption: a function that applies the fragment shader option to a loader
func WithFragmentShader(s shader.Shader) LoaderBuilderOption {
	return func(l *loader) {
		l.fragmentShader = s
	}
}

// WithLogger is an option builder that sets the logger used by the loader, its parser and its material arrays.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithProfiler is an option builder that records fetch, parse, upload and texture stage timings.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - LoaderBuilderOption: a function that applies the profiler option to a loader
func WithProfiler(p *profiler.Profiler) LoaderBuilderOption {
	return func(l *loader) {
		l.profiler = p
	}
}

// WithParserOptions is an option builder that passes options to every OBJ parse.
//
// Parameters:
//   - options: the parser options
//
// Returns:
//   - LoaderBuilderOption: a function that applies the parser options to a loader
func WithParserOptions(options ...ParserOption) LoaderBuilderOption {
	return func(l *loader) {
		l.parserOptions = append(l.parserOptions, options...)
	}
}

// WithWorkers is an option builder that sets the number of concurrent material image loads.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker option to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.materialOptions = append(l.materialOptions, material.WithWorkers(n))
	}
}

// WithDefaultImage is an option builder that sets the image used for unmapped materials.
// An empty locator makes unmapped materials an error.
//
// Parameters:
//   - locator: the default image locator
//
// Returns:
//   - LoaderBuilderOption: a function that applies the default image option to a loader
func WithDefaultImage(locator string) LoaderBuilderOption {
	return func(l *loader) {
		l.materialOptions = append(l.materialOptions, material.WithDefaultImage(locator))
	}
}

// WithImageBaseDir is an option builder that sets the directory relative material image locators resolve under.
//
// Parameters:
//   - dir: the base directory or URL prefix
//
// Returns:
//   - LoaderBuilderOption: a function that applies the base directory option to a loader
func WithImageBaseDir(dir string) LoaderBuilderOption {
	return func(l *loader) {
		l.materialOptions = append(l.materialOptions, material.WithImageBaseDir(dir))
	}
}

// WithResizeMode is an option builder that sets how material images of a non-canonical size are fitted.
//
// Parameters:
//   - mode: the resize mode
//
// Returns:
//   - LoaderBuilderOption: a function that applies the resize mode option to a loader
func WithResizeMode(mode material.ResizeMode) LoaderBuilderOption {
	return func(l *loader) {
		l.materialOptions = append(l.materialOptions, material.WithResizeMode(mode))
	}
}

// WithResolution is an option builder that sets the canonical material layer size.
//
// Parameters:
//   - width: the layer width in pixels
//   - height: the layer height in pixels
//
// Returns:
//   - LoaderBuilderOption: a function that applies the resolution option to a loader
func WithResolution(width, height uint32) LoaderBuilderOption {
	return func(l *loader) {
		l.materialOptions = append(l.materialOptions, material.WithResolution(width, height))
	}
}

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - model: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, model model.Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = model
	}
}
