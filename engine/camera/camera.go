package camera

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// FrameBinding is the binding of the frame uniform buffer inside the frame bind group (shader.FrameGroup).
const FrameBinding = 0

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

type cameraImpl struct {
	mu sync.Mutex

	position [3]float32
	target   [3]float32
	up       [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       common.Mat4
	projectionMatrix common.Mat4

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera holds a perspective eye and produces the view and projection matrices the mesh vertex shader
// reads from its frame uniform. Matrices are recomputed whenever a setter changes the eye or the lens.
type Camera interface {
	// Position returns the eye position.
	//
	// Returns:
	//   - [3]float32: the eye position in world space
	Position() [3]float32

	// Target returns the point the camera looks at.
	//
	// Returns:
	//   - [3]float32: the target in world space
	Target() [3]float32

	// Up returns the camera's up vector.
	//
	// Returns:
	//   - [3]float32: the up vector
	Up() [3]float32

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the current view matrix (column-major).
	//
	// Returns:
	//   - common.Mat4: the view matrix
	ViewMatrix() common.Mat4

	// ProjectionMatrix returns the current projection matrix (column-major).
	//
	// Returns:
	//   - common.Mat4: the projection matrix
	ProjectionMatrix() common.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - common.Mat4: the combined matrix
	ViewProjectionMatrix() common.Mat4

	// SetPosition moves the eye.
	SetPosition(x, y, z float32)

	// SetTarget changes the point the camera looks at.
	SetTarget(x, y, z float32)

	// SetUp sets the camera's up vector.
	SetUp(x, y, z float32)

	// SetFov sets the vertical field of view in radians.
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height).
	SetAspect(aspect float32)

	// SetClip sets the near and far clipping plane distances.
	SetClip(near, far float32)

	// FrameBounds points the camera at the center of an axis-aligned box from the +Z side, far enough
	// back that the box's bounding sphere fits the vertical field of view, and fits the clip planes to it.
	//
	// Parameters:
	//   - minCorner: the minimum corner of the box
	//   - maxCorner: the maximum corner of the box
	FrameBounds(minCorner, maxCorner [3]float32)

	// Uniform returns the current frame uniform.
	//
	// Returns:
	//   - GPUFrameUniform: the view and projection matrices
	Uniform() GPUFrameUniform

	// BindGroupProvider returns the provider holding the frame uniform buffer and bind group.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// BuildFrameBindGroup creates the frame uniform buffer and its bind group against layout, and uploads
	// the current matrices. On later calls it only uploads the matrices.
	//
	// Parameters:
	//   - dev: the device that creates the buffer and bind group
	//   - layout: the frame bind group layout, typically the render pipeline's
	//
	// Returns:
	//   - *wgpu.BindGroup: the frame bind group
	//   - error: renderer.ErrUninitializedResource for a nil layout, or a device error
	BuildFrameBindGroup(dev renderer.Device, layout *wgpu.BindGroupLayout) (*wgpu.BindGroup, error)

	// Release frees the frame uniform buffer and bind group.
	//
	// Parameters:
	//   - dev: the device that created them
	Release(dev renderer.Device)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at (0, 0, 5) looking at the origin.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		position: [3]float32{0, 0, 5},
		up:       [3]float32{0, 1, 0},
		fov:      45.0 * (math.Pi / 180.0),
		aspect:   1.0,
		near:     0.1,
		far:      100.0,
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Add(1)-1, 10),
		),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.Mul4(c.projectionMatrix, c.viewMatrix)
}

func (c *cameraImpl) SetPosition(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetClip(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) FrameBounds(minCorner, maxCorner [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var center [3]float32
	var radiusSq float32
	for i := range 3 {
		center[i] = (minCorner[i] + maxCorner[i]) / 2
		half := (maxCorner[i] - minCorner[i]) / 2
		radiusSq += half * half
	}
	radius := float32(math.Sqrt(float64(radiusSq)))
	if radius == 0 {
		radius = 1
	}

	distance := radius / float32(math.Sin(float64(c.fov)/2))
	c.target = center
	c.position = [3]float32{center[0], center[1], center[2] + distance}
	c.near = max(distance-radius, distance*0.01)
	c.far = distance + radius
	c.updateMatrices()
}

func (c *cameraImpl) Uniform() GPUFrameUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUFrameUniform{ViewMatrix: c.viewMatrix, ProjectionMatrix: c.projectionMatrix}
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.bindGroupProvider
}

func (c *cameraImpl) BuildFrameBindGroup(dev renderer.Device, layout *wgpu.BindGroupLayout) (*wgpu.BindGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.bindGroupProvider
	uniform := GPUFrameUniform{ViewMatrix: c.viewMatrix, ProjectionMatrix: c.projectionMatrix}
	data := uniform.Marshal()

	if bg := p.BindGroup(); bg != nil {
		if err := dev.WriteBuffer(p.Buffer(FrameBinding), 0, data); err != nil {
			return nil, fmt.Errorf("failed to upload frame uniform for %s: %w", p.Label(), err)
		}
		return bg, nil
	}
	if layout == nil {
		return nil, fmt.Errorf("%s: frame bind group layout: %w", p.Label(), renderer.ErrUninitializedResource)
	}

	buf, err := dev.CreateBuffer(&wgpu.BufferDescriptor{
		Label: p.Label() + " Frame Uniform",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create frame uniform for %s: %w", p.Label(), err)
	}
	if err := dev.WriteBuffer(buf, 0, data); err != nil {
		dev.Release(buf)
		return nil, fmt.Errorf("failed to upload frame uniform for %s: %w", p.Label(), err)
	}
	bg, err := dev.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  p.Label() + " Frame Bind Group",
		Layout: layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: FrameBinding, Buffer: buf, Offset: 0, Size: uint64(len(data))},
		},
	})
	if err != nil {
		dev.Release(buf)
		return nil, fmt.Errorf("failed to create frame bind group for %s: %w", p.Label(), err)
	}

	p.SetBuffer(FrameBinding, buf)
	p.SetBindGroup(bg)
	return bg, nil
}

func (c *cameraImpl) Release(dev renderer.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if handles := c.bindGroupProvider.Detach(); len(handles) > 0 {
		dev.Release(handles...)
	}
}

// updateMatrices recalculates the view and projection matrices. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = common.LookAt(c.position, c.target, c.up)
	c.projectionMatrix = common.Perspective(c.fov, c.aspect, c.near, c.far)
}
