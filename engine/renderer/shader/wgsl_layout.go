package shader

import (
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// hostLayout is the size and alignment of a WGSL type in a uniform or storage buffer.
type hostLayout struct {
	size  uint64
	align uint64
}

// scalarSizes holds the byte size of each host-shareable scalar.
var scalarSizes = map[string]uint64{
	"f32":  4,
	"i32":  4,
	"u32":  4,
	"f16":  2,
	"bool": 4,
}

// shorthandScalars maps the suffix of predeclared aliases such as vec3f or mat4x4f to the scalar type.
var shorthandScalars = map[byte]string{
	'f': "f32",
	'i': "i32",
	'u': "u32",
	'h': "f16",
}

// vertexFormats maps a scalar type and component count to the vertex attribute format and its byte size.
var vertexFormats = map[string]map[int]struct {
	format wgpu.VertexFormat
	size   uint64
}{
	"f32": {
		1: {wgpu.VertexFormatFloat32, 4},
		2: {wgpu.VertexFormatFloat32x2, 8},
		3: {wgpu.VertexFormatFloat32x3, 12},
		4: {wgpu.VertexFormatFloat32x4, 16},
	},
	"u32": {
		1: {wgpu.VertexFormatUint32, 4},
		2: {wgpu.VertexFormatUint32x2, 8},
		3: {wgpu.VertexFormatUint32x3, 12},
		4: {wgpu.VertexFormatUint32x4, 16},
	},
	"i32": {
		1: {wgpu.VertexFormatSint32, 4},
		2: {wgpu.VertexFormatSint32x2, 8},
		3: {wgpu.VertexFormatSint32x3, 12},
		4: {wgpu.VertexFormatSint32x4, 16},
	},
	"f16": {
		2: {wgpu.VertexFormatFloat16x2, 4},
		4: {wgpu.VertexFormatFloat16x4, 8},
	},
}

// alignUp rounds value up to a multiple of align, which must be a power of two.
func alignUp(value, align uint64) uint64 {
	if align == 0 {
		return value
	}
	return (value + align - 1) &^ (align - 1)
}

// numericType decomposes a scalar, vector or matrix type name into its scalar, column count and
// row count. Scalars are 1x1 and vectors have one column. ok is false for anything else.
func numericType(typeName string) (scalar string, cols, rows int, ok bool) {
	if _, isScalar := scalarSizes[typeName]; isScalar {
		return typeName, 1, 1, true
	}

	base, param := splitGeneric(typeName)
	if param == "" && len(base) > 0 {
		s, short := shorthandScalars[base[len(base)-1]]
		if !short {
			return "", 0, 0, false
		}
		base, param = base[:len(base)-1], s
	}
	if _, isScalar := scalarSizes[param]; !isScalar {
		return "", 0, 0, false
	}

	switch {
	case strings.HasPrefix(base, "vec") && len(base) == 4:
		n, err := strconv.Atoi(base[3:])
		if err != nil || n < 2 || n > 4 {
			return "", 0, 0, false
		}
		return param, 1, n, true
	case strings.HasPrefix(base, "mat") && len(base) == 6 && base[4] == 'x':
		c, errC := strconv.Atoi(base[3:4])
		r, errR := strconv.Atoi(base[5:6])
		if errC != nil || errR != nil || c < 2 || c > 4 || r < 2 || r > 4 {
			return "", 0, 0, false
		}
		return param, c, r, true
	}
	return "", 0, 0, false
}

// vectorLayout returns the layout of an n-component vector of a scalar; vec3 aligns like vec4.
func vectorLayout(scalarSize uint64, n int) hostLayout {
	size := scalarSize * uint64(n)
	align := size
	if n == 3 {
		align = scalarSize * 4
	}
	return hostLayout{size: size, align: align}
}

// resolveLayout returns the host-shareable layout of typeName. Matrices are arrays of column vectors;
// a runtime-sized array reports one element stride, the smallest binding that holds an element.
func resolveLayout(typeName string, structs map[string]hostLayout) (hostLayout, bool) {
	typeName = strings.TrimSpace(typeName)

	if scalar, cols, rows, ok := numericType(typeName); ok {
		size := scalarSizes[scalar]
		if rows == 1 {
			return hostLayout{size: size, align: size}, true
		}
		column := vectorLayout(size, rows)
		if cols == 1 {
			return column, true
		}
		stride := alignUp(column.size, column.align)
		return hostLayout{size: stride * uint64(cols), align: column.align}, true
	}
	if l, ok := structs[typeName]; ok {
		return l, true
	}

	base, param := splitGeneric(typeName)
	switch base {
	case "atomic":
		return resolveLayout(param, structs)
	case "array":
		elemType, count, sized := strings.Cut(param, ",")
		elem, ok := resolveLayout(elemType, structs)
		if !ok {
			return hostLayout{}, false
		}
		stride := alignUp(elem.size, elem.align)
		if !sized {
			return hostLayout{size: stride, align: elem.align}, true
		}
		n, err := strconv.ParseUint(strings.TrimSpace(count), 10, 64)
		if err != nil {
			return hostLayout{}, false
		}
		return hostLayout{size: stride * n, align: elem.align}, true
	}
	return hostLayout{}, false
}

// structLayout lays the non-builtin members out at their natural alignment and rounds the total
// up to the largest member alignment. A trailing runtime-sized array contributes one element.
func structLayout(s wgslStruct, known map[string]hostLayout) (hostLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range s.fields {
		if f.builtin {
			continue
		}
		l, ok := resolveLayout(f.typeName, known)
		if !ok {
			return hostLayout{}, false
		}
		offset = alignUp(offset, l.align) + l.size
		align = max(align, l.align)
	}
	return hostLayout{size: alignUp(offset, align), align: align}, true
}

// structLayouts resolves every struct, repeating until no more struct members become resolvable
// so declarations may reference structs declared after them.
func structLayouts(structs []wgslStruct) map[string]hostLayout {
	known := make(map[string]hostLayout, len(structs))
	pending := structs
	for len(pending) > 0 {
		var next []wgslStruct
		for _, s := range pending {
			if l, ok := structLayout(s, known); ok {
				known[s.name] = l
			} else {
				next = append(next, s)
			}
		}
		if len(next) == len(pending) {
			break
		}
		pending = next
	}
	return known
}

// packVertexStruct converts a vertex input struct into a tightly packed layout in member order.
func packVertexStruct(s wgslStruct) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(s.fields))
	var offset uint64
	for _, f := range s.fields {
		scalar, cols, rows, ok := numericType(f.typeName)
		if !ok || cols != 1 {
			return wgpu.VertexBufferLayout{}, false
		}
		vf, ok := vertexFormats[scalar][rows]
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         vf.format,
			Offset:         offset,
			ShaderLocation: uint32(f.location),
		})
		offset += vf.size
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}
