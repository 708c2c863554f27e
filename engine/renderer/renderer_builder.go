package renderer

import "github.com/cogentcore/webgpu/wgpu"

// DeviceBuilderOption is a functional option applied to a device during construction via NewDevice.
type DeviceBuilderOption func(*wgpuDeviceImpl)

// WithLabel sets the debug label of the requested device.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - DeviceBuilderOption: a function that applies the label option to a device
func WithLabel(label string) DeviceBuilderOption {
	return func(d *wgpuDeviceImpl) {
		d.label = label
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe). Useful on CI machines without a GPU.
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - DeviceBuilderOption: a function that applies the fallback adapter option to a device
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(d *wgpuDeviceImpl) {
		d.forceFallbackAdapter = force
	}
}

// WithLimits overrides the limits requested from the adapter. Defaults to wgpu.DefaultLimits().
//
// Parameters:
//   - limits: the required device limits
//
// Returns:
//   - DeviceBuilderOption: a function that applies the limits option to a device
func WithLimits(limits wgpu.Limits) DeviceBuilderOption {
	return func(d *wgpuDeviceImpl) {
		d.limits = &limits
	}
}
