package loader

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// maxLineLength bounds a single source line. Very large n-gons can exceed bufio's default 64KB token size.
const maxLineLength = 16 * 1024 * 1024

// ParserOption is a functional option used to configure ParseOBJ.
type ParserOption func(*objParser)

// WithMeshName sets the name recorded on the resulting ImportedMesh.
//
// Parameters:
//   - name: the mesh identifier
//
// Returns:
//   - ParserOption: a function that applies the name option to the parser
func WithMeshName(name string) ParserOption {
	return func(p *objParser) {
		p.name = name
	}
}

// WithParserLogger sets the logger that receives parse statistics at debug level.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - ParserOption: a function that applies the logger option to the parser
func WithParserLogger(logger *zap.Logger) ParserOption {
	return func(p *objParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithGlobalTiling makes every corner use the texture coordinate extent of the whole source instead of
// the extent seen up to its face. The source is buffered and read twice.
//
// Returns:
//   - ParserOption: a function that enables two-pass tiling on the parser
func WithGlobalTiling() ParserOption {
	return func(p *objParser) {
		p.globalTiling = true
	}
}

// objParser holds the per-parse state of a single mesh source.
type objParser struct {
	name         string
	logger       *zap.Logger
	globalTiling bool

	tables   GeometryTables
	registry *model.MaterialRegistry
	tiling   TilingTracker
	vertices []model.GPUVertex
	stats    model.MeshStats
}

// corner is a resolved face corner prior to emission.
type corner struct {
	position [3]float32
	texCoord [2]float32
}

// ParseOBJ reads a Wavefront OBJ subset and produces the flat vertex stream and material registry of the mesh.
//
// Supported lines are v, vt, vn, f and the material-use directive (usemtl, matched by its leading "u").
// Faces with N corners are fan-triangulated into N-2 triangles sharing the first corner.
// Stored texture coordinates are (u, 1-v) for a top-left texture origin; the tiling tracker sees the authored v.
// Lines with any other prefix are counted and ignored. A UTF-8 byte order mark is accepted.
//
// Parameters:
//   - r: the source text
//   - options: a variadic list of ParserOption functions
//
// Returns:
//   - *model.ImportedMesh: the parsed mesh with a finalized registry
//   - error: ErrMalformedGeometry wrapped with the line number, or the read error
func ParseOBJ(r io.Reader, options ...ParserOption) (*model.ImportedMesh, error) {
	p := &objParser{
		logger:   zap.NewNop(),
		registry: model.NewMaterialRegistry(),
	}
	for _, opt := range options {
		opt(p)
	}

	src := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	if p.globalTiling {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read mesh source: %w", err)
		}
		p.observeAll(lines)
		for i, line := range lines {
			if err := p.parseLine(i+1, line); err != nil {
				return nil, err
			}
		}
	} else {
		lineNum := 0
		for scanner.Scan() {
			lineNum++
			if err := p.parseLine(lineNum, scanner.Text()); err != nil {
				return nil, err
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read mesh source: %w", err)
		}
	}

	return p.finish(), nil
}

// observeAll feeds every parsable vt line to the tiling tracker and freezes it.
// Malformed lines are skipped here and reported by the emitting pass.
func (p *objParser) observeAll(lines []string) {
	for _, line := range lines {
		tokens := strings.Fields(line)
		if len(tokens) == 0 || tokens[0] != "vt" {
			continue
		}
		if uv, err := parseVec2(tokens); err == nil {
			p.tiling.Observe(uv[0], uv[1])
		}
	}
	p.tiling.Freeze()
}

// parseLine dispatches a single source line.
func (p *objParser) parseLine(lineNum int, line string) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 || strings.HasPrefix(tokens[0], "#") {
		return nil
	}

	switch tokens[0] {
	case "v":
		v, err := parseVec3(tokens)
		if err != nil {
			return lineError(lineNum, err)
		}
		p.tables.AddPosition(v)
	case "vt":
		uv, err := parseVec2(tokens)
		if err != nil {
			return lineError(lineNum, err)
		}
		p.tables.AddTexCoord(uv)
		p.tiling.Observe(uv[0], uv[1])
	case "vn":
		n, err := parseVec3(tokens)
		if err != nil {
			return lineError(lineNum, err)
		}
		p.tables.AddNormal(n)
	case "f":
		if err := p.parseFace(tokens[1:]); err != nil {
			return lineError(lineNum, err)
		}
	default:
		// A bare usemtl selects the unnamed material.
		if strings.HasPrefix(tokens[0], "u") {
			name := strings.TrimSpace(strings.TrimSpace(line)[len(tokens[0]):])
			p.registry.Use(name)
			return nil
		}
		p.stats.IgnoredLines++
	}
	return nil
}

// parseFace resolves every corner of a face and emits its fan triangulation.
func (p *objParser) parseFace(tokens []string) error {
	if len(tokens) < 3 {
		return fmt.Errorf("%w: face has %d corners, need at least 3", ErrMalformedGeometry, len(tokens))
	}

	corners := make([]corner, len(tokens))
	for i, tok := range tokens {
		c, err := p.resolveCorner(tok)
		if err != nil {
			return fmt.Errorf("corner %d %q: %w", i+1, tok, err)
		}
		corners[i] = c
	}

	material := p.registry.Active()
	tiling := p.tiling.Factor()
	emit := func(c corner) {
		p.vertices = append(p.vertices, model.GPUVertex{
			Position:      c.position,
			TexCoord:      c.texCoord,
			MaterialIndex: material,
			Tiling:        tiling,
		})
	}
	for i := 1; i < len(corners)-1; i++ {
		emit(corners[0])
		emit(corners[i])
		emit(corners[i+1])
	}

	p.stats.Faces++
	p.stats.Triangles += len(corners) - 2
	return nil
}

// resolveCorner parses a p[/t[/n]] token. The normal index is not consumed.
func (p *objParser) resolveCorner(tok string) (corner, error) {
	parts := strings.SplitN(tok, "/", 3)

	pi, err := parseIndex(parts[0])
	if err != nil {
		return corner{}, err
	}
	pos, err := p.tables.Position(pi)
	if err != nil {
		return corner{}, err
	}

	c := corner{position: pos}
	if len(parts) > 1 && parts[1] != "" {
		ti, err := parseIndex(parts[1])
		if err != nil {
			return corner{}, err
		}
		uv, err := p.tables.TexCoord(ti)
		if err != nil {
			return corner{}, err
		}
		c.texCoord = [2]float32{uv[0], 1 - uv[1]}
	}
	return c, nil
}

// finish assembles the ImportedMesh and logs the parse statistics.
func (p *objParser) finish() *model.ImportedMesh {
	p.stats.Positions = p.tables.Positions()
	p.stats.TexCoords = p.tables.TexCoords()
	p.stats.Normals = p.tables.Normals()

	mesh := &model.ImportedMesh{
		Name:      p.name,
		Vertices:  p.vertices,
		Materials: p.registry,
		Stats:     p.stats,
	}
	mesh.BoundingMin, mesh.BoundingMax = model.ComputeBounds(p.vertices)

	p.logger.Debug("parsed mesh source",
		zap.String("name", p.name),
		zap.Int("positions", p.stats.Positions),
		zap.Int("texcoords", p.stats.TexCoords),
		zap.Int("normals", p.stats.Normals),
		zap.Int("faces", p.stats.Faces),
		zap.Int("triangles", p.stats.Triangles),
		zap.Int("materials", p.registry.Len()),
		zap.Int("ignored_lines", p.stats.IgnoredLines),
		zap.Bool("global_tiling", p.globalTiling),
	)
	return mesh
}

// lineError attaches the 1-based line number to a parse error.
func lineError(lineNum int, err error) error {
	return fmt.Errorf("line %d: %w", lineNum, err)
}

// parseIndex parses a positive 1-based index. Relative (negative) indices are rejected.
func parseIndex(tok string) (int, error) {
	idx, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: bad index %q", ErrMalformedGeometry, tok)
	}
	if idx < 1 {
		return 0, fmt.Errorf("%w: index %d must be 1 or greater", ErrMalformedGeometry, idx)
	}
	return idx, nil
}

// parseFloat parses one coordinate. NaN and infinities are rejected so tiling and bounds stay finite.
func parseFloat(tok string) (float32, error) {
	f, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrMalformedGeometry, tok)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: non-finite number %q", ErrMalformedGeometry, tok)
	}
	return float32(f), nil
}

// parseVec3 parses the three components following a v or vn prefix.
func parseVec3(tokens []string) ([3]float32, error) {
	var v [3]float32
	if len(tokens) < 4 {
		return v, fmt.Errorf("%w: %q expects 3 components, got %d", ErrMalformedGeometry, tokens[0], len(tokens)-1)
	}
	for i := 0; i < 3; i++ {
		f, err := parseFloat(tokens[i+1])
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}

// parseVec2 parses the u and optional v components following a vt prefix. A missing v is 0.
func parseVec2(tokens []string) ([2]float32, error) {
	var v [2]float32
	if len(tokens) < 2 {
		return v, fmt.Errorf("%w: %q expects at least 1 component", ErrMalformedGeometry, tokens[0])
	}
	for i := 0; i < 2 && i+1 < len(tokens); i++ {
		f, err := parseFloat(tokens[i+1])
		if err != nil {
			return v, err
		}
		v[i] = f
	}
	return v, nil
}
