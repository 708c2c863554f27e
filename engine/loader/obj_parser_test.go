package loader

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const triangleOBJ = `# single textured triangle
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
f 1/1 2/2 3/3
`

func mustParse(t *testing.T, src string, opts ...ParserOption) *model.ImportedMesh {
	t.Helper()
	mesh, err := ParseOBJ(strings.NewReader(src), opts...)
	if err != nil {
		t.Fatalf("ParseOBJ() error = %v", err)
	}
	return mesh
}

func TestParseTriangle(t *testing.T) {
	mesh := mustParse(t, triangleOBJ, WithMeshName("tri"))

	if mesh.Name != "tri" {
		t.Errorf("Name = %q", mesh.Name)
	}
	if len(mesh.Vertices) != 3 {
		t.Fatalf("got %d vertices, want 3", len(mesh.Vertices))
	}
	want := []model.GPUVertex{
		{Position: [3]float32{0, 0, 0}, TexCoord: [2]float32{0, 1}, MaterialIndex: 0, Tiling: [2]float32{1, 1}},
		{Position: [3]float32{1, 0, 0}, TexCoord: [2]float32{1, 1}, MaterialIndex: 0, Tiling: [2]float32{1, 1}},
		{Position: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 0}, MaterialIndex: 0, Tiling: [2]float32{1, 1}},
	}
	for i := range want {
		if mesh.Vertices[i] != want[i] {
			t.Errorf("vertex %d = %+v, want %+v", i, mesh.Vertices[i], want[i])
		}
	}
	if mesh.Materials.Len() != 0 {
		t.Errorf("registry has %d materials, want 0", mesh.Materials.Len())
	}
	if mesh.BoundingMin != [3]float32{0, 0, 0} || mesh.BoundingMax != [3]float32{1, 1, 0} {
		t.Errorf("bounds = %v..%v", mesh.BoundingMin, mesh.BoundingMax)
	}
	stats := mesh.Stats
	if stats.Positions != 3 || stats.TexCoords != 3 || stats.Faces != 1 || stats.Triangles != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestParseFanTriangulation(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v -1 1 0
f 1 2 3 4 5
`
	mesh := mustParse(t, src)
	if mesh.TriangleCount() != 3 || len(mesh.Vertices) != 9 {
		t.Fatalf("got %d vertices, want 9", len(mesh.Vertices))
	}
	// (c1,c2,c3) (c1,c3,c4) (c1,c4,c5)
	order := []int{1, 2, 3, 1, 3, 4, 1, 4, 5}
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}, {-1, 1, 0}}
	for i, p := range order {
		if mesh.Vertices[i].Position != positions[p-1] {
			t.Errorf("vertex %d = %v, want corner %d %v", i, mesh.Vertices[i].Position, p, positions[p-1])
		}
	}
	if mesh.Stats.Faces != 1 || mesh.Stats.Triangles != 3 {
		t.Errorf("stats = %+v", mesh.Stats)
	}
}

func TestParseQuad(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"
	mesh := mustParse(t, src)
	if len(mesh.Vertices) != 6 {
		t.Fatalf("got %d vertices, want 6", len(mesh.Vertices))
	}
	if mesh.Vertices[3].Position != mesh.Vertices[0].Position {
		t.Error("second triangle should start at the first corner")
	}
}

func TestParseMaterialSwitches(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
usemtl A
f 1 2 3
usemtl B
f 1 2 3
usemtl A
f 1 2 3
`
	mesh := mustParse(t, src)
	if got := mesh.Materials.Names(); fmt.Sprint(got) != "[A B]" {
		t.Fatalf("Names() = %v, want [A B]", got)
	}
	want := []uint32{0, 0, 1, 0}
	for face, idx := range want {
		for c := 0; c < 3; c++ {
			if got := mesh.Vertices[face*3+c].MaterialIndex; got != idx {
				t.Errorf("face %d corner %d material = %d, want %d", face, c, got, idx)
			}
		}
	}
}

func TestParseMaterialNameWithSpaces(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl brushed metal  \nf 1 2 3\n"
	mesh := mustParse(t, src)
	if idx, ok := mesh.Materials.Index("brushed metal"); !ok || idx != 0 {
		t.Errorf("Index(%q) = %d, %v", "brushed metal", idx, ok)
	}
}

func TestParseBareMaterialSwitch(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl A\nf 1 2 3\nusemtl\nf 1 2 3\n"
	mesh := mustParse(t, src)
	if got := mesh.Materials.Names(); len(got) != 2 || got[0] != "A" || got[1] != "" {
		t.Fatalf("Names() = %q, want [A \"\"]", got)
	}
	if got := mesh.Vertices[3].MaterialIndex; got != 1 {
		t.Errorf("second face material = %d, want 1", got)
	}
}

func TestParseCornerForms(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0.25 0.75
vn 0 0 1
f 1//1 2//1 3//1
f 1/1/1 2/1/1 3/1/1
f 1/1 2/1 3/1
`
	mesh := mustParse(t, src)
	if len(mesh.Vertices) != 9 {
		t.Fatalf("got %d vertices, want 9", len(mesh.Vertices))
	}
	for i := 0; i < 3; i++ {
		if uv := mesh.Vertices[i].TexCoord; uv != [2]float32{0, 0} {
			t.Errorf("p//n corner %d uv = %v, want (0,0)", i, uv)
		}
	}
	for i := 3; i < 9; i++ {
		if uv := mesh.Vertices[i].TexCoord; uv != [2]float32{0.25, 0.25} {
			t.Errorf("corner %d uv = %v, want (0.25, 0.25)", i, uv)
		}
	}
	if mesh.Stats.Normals != 1 {
		t.Errorf("Normals = %d, want 1", mesh.Stats.Normals)
	}
}

func TestParseVFlip(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0.5 0.2\nf 1/1 2/1 3/1\n"
	mesh := mustParse(t, src)
	uv := mesh.Vertices[0].TexCoord
	if uv[0] != 0.5 || uv[1] < 0.7999 || uv[1] > 0.8001 {
		t.Errorf("uv = %v, want (0.5, 0.8)", uv)
	}
}

func TestParseTexCoordWithoutV(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0.5\nf 1/1 2/1 3/1\n"
	mesh := mustParse(t, src)
	if uv := mesh.Vertices[0].TexCoord; uv != [2]float32{0.5, 1} {
		t.Errorf("uv = %v, want (0.5, 1)", uv)
	}
}

func TestParseRunningTiling(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 2 0
f 1/1 2/2 3/1
vt 0 5
f 1/3 2/2 3/1
`
	mesh := mustParse(t, src)
	if got := mesh.Vertices[0].Tiling; got != [2]float32{2, 1} {
		t.Errorf("first face tiling = %v, want (2,1)", got)
	}
	if got := mesh.Vertices[3].Tiling; got != [2]float32{2, 5} {
		t.Errorf("second face tiling = %v, want (2,5)", got)
	}
}

func TestParseGlobalTiling(t *testing.T) {
	src := `v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 2 0
f 1/1 2/2 3/1
vt -1 5
f 1/3 2/2 3/1
`
	mesh := mustParse(t, src, WithGlobalTiling())
	for i, v := range mesh.Vertices {
		if v.Tiling != [2]float32{3, 5} {
			t.Errorf("vertex %d tiling = %v, want (3,5)", i, v.Tiling)
		}
	}
}

func TestParseTilingAtLeastOne(t *testing.T) {
	var b strings.Builder
	b.WriteString("v 0 0 0\nv 1 0 0\nv 0 1 0\n")
	coords := []string{"0 0", "0.1 0.3", "-0.2 0.1", "0.4 -0.4", "0.05 0.05", "-7 3"}
	for i, c := range coords {
		fmt.Fprintf(&b, "vt %s\nf 1/%d 2/%d 3/%d\n", c, i+1, i+1, i+1)
	}
	mesh := mustParse(t, b.String())
	for i, v := range mesh.Vertices {
		if v.Tiling[0] < 1 || v.Tiling[1] < 1 {
			t.Errorf("vertex %d tiling = %v, want both >= 1", i, v.Tiling)
		}
	}
	last := mesh.Vertices[len(mesh.Vertices)-1].Tiling
	if !near(last[0], 7.4) || !near(last[1], 3.4) {
		t.Errorf("last tiling = %v, want (7.4, 3.4)", last)
	}
}

func near(a, b float32) bool {
	d := a - b
	return d > -1e-4 && d < 1e-4
}

func TestParseByteOrderMark(t *testing.T) {
	mesh := mustParse(t, "\xEF\xBB\xBF"+triangleOBJ)
	if len(mesh.Vertices) != 3 || mesh.Stats.IgnoredLines != 0 {
		t.Errorf("BOM input: %d vertices, %d ignored lines", len(mesh.Vertices), mesh.Stats.IgnoredLines)
	}
}

func TestParseCRLF(t *testing.T) {
	mesh := mustParse(t, strings.ReplaceAll(triangleOBJ, "\n", "\r\n"))
	if len(mesh.Vertices) != 3 {
		t.Errorf("got %d vertices, want 3", len(mesh.Vertices))
	}
}

func TestParseIgnoredLines(t *testing.T) {
	src := "mtllib scene.mtl\no cube\ng side\ns 1\n\n# comment\n" + triangleOBJ
	mesh := mustParse(t, src)
	if mesh.Stats.IgnoredLines != 4 {
		t.Errorf("IgnoredLines = %d, want 4", mesh.Stats.IgnoredLines)
	}
	if len(mesh.Vertices) != 3 {
		t.Errorf("got %d vertices, want 3", len(mesh.Vertices))
	}
}

func TestParseEmptySource(t *testing.T) {
	mesh := mustParse(t, "")
	if len(mesh.Vertices) != 0 || mesh.Materials == nil {
		t.Errorf("empty source gave %d vertices", len(mesh.Vertices))
	}
}

func TestParseLongFace(t *testing.T) {
	const corners = 40000
	var b strings.Builder
	b.WriteString("v 0 0 0\nv 1 0 0\nv 0 1 0\nf")
	for i := 0; i < corners; i++ {
		fmt.Fprintf(&b, " %d", i%3+1)
	}
	b.WriteString("\n")
	mesh := mustParse(t, b.String())
	if mesh.TriangleCount() != corners-2 {
		t.Errorf("got %d triangles, want %d", mesh.TriangleCount(), corners-2)
	}
}

func TestParseMalformed(t *testing.T) {
	header := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\n"
	tests := []struct {
		name string
		line string
	}{
		{"position out of range", "f 1 2 4"},
		{"zero index", "f 0 1 2"},
		{"negative index", "f -1 -2 -3"},
		{"texcoord out of range", "f 1/2 2/1 3/1"},
		{"two corners", "f 1 2"},
		{"no corners", "f"},
		{"non-numeric index", "f 1 two 3"},
		{"bad position number", "v 1 x 0"},
		{"short position", "v 1 2"},
		{"bad texcoord number", "vt a 0"},
		{"empty texcoord", "vt"},
		{"bad normal number", "vn 0 0 z"},
		{"nan texcoord", "vt nan 0"},
		{"infinite texcoord", "vt 0 -Inf"},
		{"infinite position", "v inf 0 0"},
		{"overflowing normal", "vn 0 1e40 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(header + tt.line + "\n"))
			if !errors.Is(err, ErrMalformedGeometry) {
				t.Fatalf("error = %v, want ErrMalformedGeometry", err)
			}
			if !strings.Contains(err.Error(), "line 5") {
				t.Errorf("error %q should name line 5", err)
			}
		})
	}
}

func TestParseReadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ParseOBJ(iotest.ErrReader(boom))
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestParseLogsStatistics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	mustParse(t, "o thing\n"+triangleOBJ, WithParserLogger(zap.New(core)), WithMeshName("tri"))

	entries := logs.FilterMessage("parsed mesh source").All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["name"] != "tri" || fields["triangles"] != int64(1) || fields["ignored_lines"] != int64(1) {
		t.Errorf("fields = %v", fields)
	}
}
