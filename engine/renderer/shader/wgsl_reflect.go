package shader

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// structHeadRegex matches the opening of a struct declaration and captures its name.
	structHeadRegex = regexp.MustCompile(`\bstruct\s+(\w+)\s*\{`)

	// attributeRegex matches a single attribute such as @location(2) or @builtin(position).
	attributeRegex = regexp.MustCompile(`@(\w+)\s*(?:\(([^)]*)\))?`)

	// entryRegex matches a stage attribute followed by its function and captures both.
	entryRegex = regexp.MustCompile(`(?s)@(vertex|fragment)\b.*?\bfn\s+(\w+)`)

	// bindingRegex captures group, binding, address space, name and type from a resource declaration:
	// @group(0) @binding(0) var<uniform> frame: FrameUniform;
	bindingRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// wgslField is one member of a WGSL struct.
type wgslField struct {
	name     string
	typeName string
	// location is the @location index, or -1.
	location int
	builtin  bool
}

// wgslStruct is a struct declaration in source order.
type wgslStruct struct {
	name   string
	fields []wgslField
}

// vertexInput reports whether every field is a @location attribute. Stage outputs also carry
// @builtin(position) and are excluded.
func (s wgslStruct) vertexInput() bool {
	if len(s.fields) == 0 {
		return false
	}
	for _, f := range s.fields {
		if f.builtin || f.location < 0 {
			return false
		}
	}
	return true
}

// wgslModule is the reflected form of a WGSL source: comments removed, structs indexed
// and their host-shareable layouts computed.
type wgslModule struct {
	text    string
	structs []wgslStruct
	layouts map[string]hostLayout
}

// reflectWGSL strips comments from source and collects the struct declarations it needs
// for layout reflection.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - *wgslModule: the reflected module
func reflectWGSL(source string) *wgslModule {
	m := &wgslModule{text: stripComments(source)}
	m.structs = scanStructs(m.text)
	m.layouts = structLayouts(m.structs)
	return m
}

// entryPoint returns the name of the first function marked with the stage's attribute, or "".
func (m *wgslModule) entryPoint(stage ShaderType) string {
	for _, match := range entryRegex.FindAllStringSubmatch(m.text, -1) {
		if match[1] == stage.String() {
			return match[2]
		}
	}
	return ""
}

// vertexLayouts builds one tightly packed buffer layout per vertex input struct, keyed in source order.
// Structs with a member that has no vertex format are skipped.
func (m *wgslModule) vertexLayouts() map[int][]wgpu.VertexBufferLayout {
	out := make(map[int][]wgpu.VertexBufferLayout)
	for _, s := range m.structs {
		if !s.vertexInput() {
			continue
		}
		layout, ok := packVertexStruct(s)
		if !ok {
			continue
		}
		out[len(out)] = []wgpu.VertexBufferLayout{layout}
	}
	return out
}

// bindGroups reflects every @group/@binding declaration into layout descriptors keyed by group,
// with entries sorted by binding and visible to the given stage. Buffer entries get their
// MinBindingSize from the bound type. The second result maps group and binding to the variable name.
func (m *wgslModule) bindGroups(visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, match := range bindingRegex.FindAllStringSubmatch(m.text, -1) {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		space := strings.TrimSpace(match[3])
		typeName := strings.TrimSpace(match[5])

		entry := bindingEntry(uint32(binding), visibility, space, typeName)
		if entry.Buffer.Type != wgpu.BufferBindingTypeUndefined {
			if l, ok := m.layoutOf(typeName); ok {
				entry.Buffer.MinBindingSize = l.size
			}
		}
		entries[group] = append(entries[group], entry)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = match[4]
	}

	out := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for group, list := range entries {
		slices.SortFunc(list, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		out[group] = wgpu.BindGroupLayoutDescriptor{Entries: list}
	}
	return out, names
}

// layoutOf resolves typeName against the built-in types and the module's structs.
func (m *wgslModule) layoutOf(typeName string) (hostLayout, bool) {
	return resolveLayout(typeName, m.layouts)
}

// bindingEntry classifies one resource declaration. Address-space variables are buffers;
// handle types are samplers or sampled textures. Storage textures are left unclassified.
func bindingEntry(binding uint32, visibility wgpu.ShaderStage, space, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	switch {
	case space == "uniform":
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
	case strings.HasPrefix(space, "storage"):
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(space, "read_write") {
			entry.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
	case space != "":
		// private and workgroup variables are not bindable
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_storage_"):
	case strings.HasPrefix(typeName, "texture_"):
		base, param := splitGeneric(typeName)
		depth := strings.HasPrefix(base, "texture_depth_")
		dim := strings.TrimPrefix(strings.TrimPrefix(base, "texture_"), "depth_")

		entry.Texture.Multisampled = strings.HasPrefix(dim, "multisampled_")
		entry.Texture.ViewDimension = viewDimension(strings.TrimPrefix(dim, "multisampled_"))
		switch {
		case depth:
			entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		case param == "i32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeSint
		case param == "u32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeUint
		case param == "f32":
			entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		}
	}
	return entry
}

func viewDimension(dim string) wgpu.TextureViewDimension {
	switch dim {
	case "1d":
		return wgpu.TextureViewDimension1D
	case "2d":
		return wgpu.TextureViewDimension2D
	case "2d_array":
		return wgpu.TextureViewDimension2DArray
	case "3d":
		return wgpu.TextureViewDimension3D
	case "cube":
		return wgpu.TextureViewDimensionCube
	case "cube_array":
		return wgpu.TextureViewDimensionCubeArray
	}
	return wgpu.TextureViewDimensionUndefined
}

// scanStructs finds every struct declaration. Struct bodies cannot contain braces, so the body
// ends at the first closing brace.
func scanStructs(text string) []wgslStruct {
	var out []wgslStruct
	for _, loc := range structHeadRegex.FindAllStringSubmatchIndex(text, -1) {
		bodyStart := loc[1]
		end := strings.IndexByte(text[bodyStart:], '}')
		if end < 0 {
			break
		}
		out = append(out, wgslStruct{
			name:   text[loc[2]:loc[3]],
			fields: scanFields(text[bodyStart : bodyStart+end]),
		})
	}
	return out
}

// scanFields splits a struct body into members, reading the attributes in front of each one.
func scanFields(body string) []wgslField {
	var out []wgslField
	for _, member := range splitMembers(body) {
		f := wgslField{location: -1}
		for _, attr := range attributeRegex.FindAllStringSubmatch(member, -1) {
			switch attr[1] {
			case "builtin":
				f.builtin = true
			case "location":
				if n, err := strconv.Atoi(strings.TrimSpace(attr[2])); err == nil {
					f.location = n
				}
			}
		}
		decl := strings.TrimSpace(attributeRegex.ReplaceAllString(member, ""))
		name, typeName, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		f.name = strings.TrimSpace(name)
		f.typeName = strings.TrimSpace(typeName)
		out = append(out, f)
	}
	return out
}

// splitMembers splits a struct body at commas outside template brackets, so
// array<vec4<f32>, 6> stays one member. Empty members are dropped.
func splitMembers(body string) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i <= len(body); i++ {
		if i < len(body) {
			switch body[i] {
			case '<':
				depth++
				continue
			case '>':
				depth = max(depth-1, 0)
				continue
			case ',':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}
		if member := strings.TrimSpace(body[start:i]); member != "" {
			out = append(out, member)
		}
		start = i + 1
	}
	return out
}

// splitGeneric returns the base name and template argument list of a type such as texture_2d<f32>.
func splitGeneric(typeName string) (string, string) {
	base, rest, ok := strings.Cut(typeName, "<")
	if !ok {
		return strings.TrimSpace(typeName), ""
	}
	return strings.TrimSpace(base), strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), ">"))
}

// stripComments removes line comments and nested block comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		next := byte(0)
		if i+1 < len(source) {
			next = source[i+1]
		}
		switch {
		case source[i] == '/' && next == '*':
			depth++
			i++
		case source[i] == '*' && next == '/' && depth > 0:
			depth--
			i++
		case depth > 0:
		case source[i] == '/' && next == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		default:
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
