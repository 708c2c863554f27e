package material

import (
	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// MaterialArrayBuilderOption is a function that configures a materialArray instance during construction.
type MaterialArrayBuilderOption func(*materialArray)

// WithLabel is an option builder that sets the debug label prefix of every GPU resource of the array.
//
// Parameters:
//   - label: the debug label
//
// Returns:
//   - MaterialArrayBuilderOption: a function that applies the label option to a material array
func WithLabel(label string) MaterialArrayBuilderOption {
	return func(m *materialArray) {
		m.label = label
	}
}

// WithResolution is an option builder that overrides the canonical layer size (1920x1080 by default).
// Zero dimensions are ignored.
//
// Parameters:
//   - width: the layer width in pixels
//   - height: the layer height in pixels
//
// Returns:
//   - MaterialArrayBuilderOption: a function that applies the resolution option to a material array
func WithResolution(width, height uint32) MaterialArrayBuilderOption {
	return func(m *materialArray) {
		m.width = common.Coalesce(width, m.width)
		m.height = common.Coalesce(height, m.height)
	}
}

// WithDefaultImage is an option builder that sets the image used by materials with no mapped source.
// An empty locator disables the fallback, making unmapped materials an error.
//
// Parameters:
//   - locator: the default image locator
//
// Returns:
//   - MaterialArrayBuilderOption: a function that applies the default image option to a material array
func WithDefaultImage(locator string) MaterialArrayBuilderOption {
	return func(m *materialArray) {
		m.defaultImage = locator
	}
}

// WithImageBaseDir is an option builder that sets the directory (or URL prefix) relative image locators are resolved under.
//
// Parameters:
//   - dir: the base directory or URL prefix
//
// Returns:
//   - MaterialArrayBuilderOption: a function that applies the base directory option to a material array
func WithImageBaseDir(dir string) MaterialArrayBuilderOption {
	return func(m *materialArray) {
		m.imageBaseDir = dir
	}
}

// WithWorkers is an option builder that sets the number of concurrent image loads. Defaults to runtime.NumCPU().
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - MaterialArrayBuilderOption: a function that applies the worker option to a material array
func WithWorkers(n int) MaterialArrayBuilderOption {
	return func(m *materialArray) {
		m.workers = n
	}
}

// WithResizeMode is an option builder that selects how images with a non-canonical size are fitted.
//
// Parameters:
//   - mode: ResizeCenter (default) or ResizeStretch
//
// Returns:
//   - MaterialArrayBuilderOption: a function that applies the resize mode option to a material array
func WithResizeMode(mode ResizeMode) MaterialArrayBuilderOption {
	return func(m *materialArray) {
		m.resizeMode = mode
	}
}

// DefaultSampler returns the sampler parameters used when WithSampler is not given:
// linear filtering at every level and repeat addressing.
//
// Returns:
//   - common.SamplerStagingData: the default sampler configuration
func DefaultSampler() common.SamplerStagingData {
	return common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

// WithSampler is an option builder that replaces the sampler parameters. Address modes and filters are used
// as given, so a zero filter selects nearest sampling. A zero LodMaxClamp becomes 32 and a zero MaxAnisotropy becomes 1.
// Start from DefaultSampler to change a single field.
//
// Parameters:
//   - data: the sampler configuration
//
// Returns:
//   - MaterialArrayBuilderOption: a function that applies the sampler option to a material array
func WithSampler(data common.SamplerStagingData) MaterialArrayBuilderOption {
	return func(m *materialArray) {
		m.sampler = data
	}
}

// WithImageDecoder is an option builder that sets the collaborator that fetches and decodes images.
//
// Parameters:
//   - decoder: the image decoder
//
// Returns:
//   - MaterialArrayBuilderOption: a function that applies the decoder option to a material array
func WithImageDecoder(decoder ImageDecoder) MaterialArrayBuilderOption {
	return func(m *materialArray) {
		m.decoder = decoder
	}
}

// WithLogger is an option builder that sets the logger used for debug output.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - MaterialArrayBuilderOption: a function that applies the logger option to a material array
func WithLogger(logger *zap.Logger) MaterialArrayBuilderOption {
	return func(m *materialArray) {
		if logger != nil {
			m.logger = logger
		}
	}
}
