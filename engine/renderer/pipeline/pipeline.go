package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-mesh/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrMissingShader reports a Build call on a pipeline without both a vertex and a fragment shader.
var ErrMissingShader = errors.New("render pipeline needs a vertex and a fragment shader")

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	mu sync.Mutex

	// pipelineKey is the unique identifier for this pipeline and the prefix of every GPU label it creates
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// The following handles are created by Build and owned by the pipeline until Release.

	frameLayout    *wgpu.BindGroupLayout
	vertexModule   *wgpu.ShaderModule
	fragmentModule *wgpu.ShaderModule
	pipelineLayout *wgpu.PipelineLayout
	renderPipeline *wgpu.RenderPipeline

	// The following properties configure the render state and can be set with the builder options.

	colorFormat         wgpu.TextureFormat
	depthFormat         wgpu.TextureFormat
	sampleCount         uint32
	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline is the render pipeline that draws imported meshes: one interleaved vertex buffer laid out
// as model.GPUVertex, the frame uniform at shader.FrameGroup and the material texture array at
// shader.MaterialGroup.
//
// Build creates every GPU object at once; the driver validates the shader stages against the
// vertex layout and both bind group layouts while doing so. A failed Build leaves nothing behind.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Build creates the frame bind group layout, both shader modules, the pipeline layout and the
	// render pipeline on dev. Calling Build on a built pipeline is a no-op.
	//
	// Parameters:
	//   - dev: the device that creates the pipeline objects
	//   - materialLayout: the bind group layout of the material texture array, bound at shader.MaterialGroup
	//   - vertexLayout: the layout of the mesh vertex buffers this pipeline will draw
	//
	// Returns:
	//   - error: ErrMissingShader, shader.ErrLayoutMismatch, renderer.ErrUninitializedResource or a device error
	Build(dev renderer.Device, materialLayout *wgpu.BindGroupLayout, vertexLayout wgpu.VertexBufferLayout) error

	// RenderPipeline returns the created render pipeline, or nil before Build.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the render pipeline or nil
	RenderPipeline() *wgpu.RenderPipeline

	// FrameBindGroupLayout returns the layout frame bind groups must be created against, or nil before Build.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the frame bind group layout or nil
	FrameBindGroupLayout() *wgpu.BindGroupLayout

	// Release frees every object created by Build on dev. The pipeline can be built again afterwards.
	//
	// Parameters:
	//   - dev: the device that built the pipeline
	Release(dev renderer.Device)

	// ColorFormat returns the format of the color target.
	ColorFormat() wgpu.TextureFormat

	// DepthFormat returns the format of the depth target.
	DepthFormat() wgpu.TextureFormat

	// SampleCount returns the multisample count.
	SampleCount() uint32

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// DepthBias returns the constant depth bias configured for this pipeline.
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	DepthBiasSlopeScale() float32

	// BlendEnabled returns whether blending is enabled for this pipeline.
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state used when blending is enabled.
	BlendState() *wgpu.BlendState
}

var _ Pipeline = &pipeline{}

// NewPipeline creates an unbuilt mesh render pipeline.
// Without WithVertexShader and WithFragmentShader it uses shader.MeshVertexShader and shader.MeshFragmentShader.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		colorFormat:       wgpu.TextureFormatRGBA8Unorm,
		depthFormat:       wgpu.TextureFormatDepth24Plus,
		sampleCount:       1,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		blendEnabled:      false,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.vertexShader == nil && p.fragmentShader == nil {
		p.vertexShader = shader.MeshVertexShader()
		p.fragmentShader = shader.MeshFragmentShader()
	}
	return p
}

func (p *pipeline) Build(dev renderer.Device, materialLayout *wgpu.BindGroupLayout, vertexLayout wgpu.VertexBufferLayout) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.renderPipeline != nil {
		return nil
	}
	if p.vertexShader == nil || p.fragmentShader == nil {
		return ErrMissingShader
	}
	if materialLayout == nil {
		return fmt.Errorf("build pipeline %s: material bind group layout: %w", p.pipelineKey, renderer.ErrUninitializedResource)
	}
	if err := shader.CheckVertexLayout(p.vertexShader, vertexLayout); err != nil {
		return fmt.Errorf("build pipeline %s: %w", p.pipelineKey, err)
	}
	frameDesc := p.vertexShader.BindGroupLayoutDescriptor(shader.FrameGroup)
	if len(frameDesc.Entries) == 0 {
		return fmt.Errorf("%w: vertex shader %s declares no bindings in group %d", shader.ErrLayoutMismatch, p.vertexShader.Key(), shader.FrameGroup)
	}
	frameDesc.Label = p.pipelineKey + " Frame Bind Group Layout"

	var created []bind_group_provider.Releasable
	fail := func(step string, err error) error {
		for i := len(created) - 1; i >= 0; i-- {
			dev.Release(created[i])
		}
		return fmt.Errorf("build pipeline %s: %s: %w", p.pipelineKey, step, err)
	}

	frameLayout, err := dev.CreateBindGroupLayout(&frameDesc)
	if err != nil {
		return fail("frame bind group layout", err)
	}
	created = append(created, frameLayout)

	vs, err := dev.CreateShaderModule(shaderModuleDescriptor(p.vertexShader))
	if err != nil {
		return fail("vertex shader module", err)
	}
	created = append(created, vs)

	fs, err := dev.CreateShaderModule(shaderModuleDescriptor(p.fragmentShader))
	if err != nil {
		return fail("fragment shader module", err)
	}
	created = append(created, fs)

	groups := make([]*wgpu.BindGroupLayout, max(shader.FrameGroup, shader.MaterialGroup)+1)
	groups[shader.FrameGroup] = frameLayout
	groups[shader.MaterialGroup] = materialLayout
	pipelineLayout, err := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.pipelineKey + " Pipeline Layout",
		BindGroupLayouts: groups,
	})
	if err != nil {
		return fail("pipeline layout", err)
	}
	created = append(created, pipelineLayout)

	rp, err := dev.CreateRenderPipeline(p.renderPipelineDescriptor(pipelineLayout, vs, fs, vertexLayout))
	if err != nil {
		return fail("render pipeline", err)
	}

	p.frameLayout = frameLayout
	p.vertexModule = vs
	p.fragmentModule = fs
	p.pipelineLayout = pipelineLayout
	p.renderPipeline = rp
	return nil
}

// renderPipelineDescriptor assembles the render state from the pipeline's configuration.
func (p *pipeline) renderPipelineDescriptor(layout *wgpu.PipelineLayout, vs, fs *wgpu.ShaderModule, vertexLayout wgpu.VertexBufferLayout) *wgpu.RenderPipelineDescriptor {
	target := wgpu.ColorTargetState{
		Format:    p.colorFormat,
		WriteMask: p.writeMask,
	}
	if p.blendEnabled {
		target.Blend = p.blendState
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.depthTestEnabled {
		depthCompare = wgpu.CompareFunctionAlways
	}

	return &wgpu.RenderPipelineDescriptor{
		Label:  p.pipelineKey + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: p.vertexShader.EntryPoint(),
			Buffers:    []wgpu.VertexBufferLayout{vertexLayout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: p.fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: p.sampleCount,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              p.depthFormat,
			DepthWriteEnabled:   p.depthWriteEnabled,
			DepthCompare:        depthCompare,
			DepthBias:           p.depthBias,
			DepthBiasSlopeScale: p.depthBiasSlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	}
}

// shaderModuleDescriptor returns a WGSL module descriptor labeled with the shader key.
func shaderModuleDescriptor(s shader.Shader) *wgpu.ShaderModuleDescriptor {
	desc := s.Module()
	if desc != nil {
		return desc
	}
	return &wgpu.ShaderModuleDescriptor{
		Label: s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: s.Source(),
		},
	}
}

func (p *pipeline) Release(dev renderer.Device) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []bind_group_provider.Releasable
	if p.renderPipeline != nil {
		out = append(out, p.renderPipeline)
	}
	if p.pipelineLayout != nil {
		out = append(out, p.pipelineLayout)
	}
	if p.fragmentModule != nil {
		out = append(out, p.fragmentModule)
	}
	if p.vertexModule != nil {
		out = append(out, p.vertexModule)
	}
	if p.frameLayout != nil {
		out = append(out, p.frameLayout)
	}
	if len(out) > 0 {
		dev.Release(out...)
	}
	p.renderPipeline, p.pipelineLayout, p.fragmentModule, p.vertexModule, p.frameLayout = nil, nil, nil, nil, nil
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderPipeline
}

func (p *pipeline) FrameBindGroupLayout() *wgpu.BindGroupLayout {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameLayout
}

func (p *pipeline) ColorFormat() wgpu.TextureFormat {
	return p.colorFormat
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) SampleCount() uint32 {
	return p.sampleCount
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}
