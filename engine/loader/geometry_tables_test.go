package loader

import (
	"errors"
	"testing"
)

func TestGeometryTablesOneBased(t *testing.T) {
	var g GeometryTables
	g.AddPosition([3]float32{1, 2, 3})
	g.AddPosition([3]float32{4, 5, 6})
	g.AddTexCoord([2]float32{0.5, 0.5})
	g.AddNormal([3]float32{0, 0, 1})

	p, err := g.Position(2)
	if err != nil || p != [3]float32{4, 5, 6} {
		t.Errorf("Position(2) = %v, %v", p, err)
	}
	uv, err := g.TexCoord(1)
	if err != nil || uv != [2]float32{0.5, 0.5} {
		t.Errorf("TexCoord(1) = %v, %v", uv, err)
	}
	if g.Positions() != 2 || g.TexCoords() != 1 || g.Normals() != 1 {
		t.Errorf("counts = %d/%d/%d", g.Positions(), g.TexCoords(), g.Normals())
	}
}

func TestGeometryTablesOutOfRange(t *testing.T) {
	var g GeometryTables
	g.AddPosition([3]float32{})
	for _, idx := range []int{0, -1, 2} {
		if _, err := g.Position(idx); !errors.Is(err, ErrMalformedGeometry) {
			t.Errorf("Position(%d) error = %v, want ErrMalformedGeometry", idx, err)
		}
	}
	if _, err := g.TexCoord(1); !errors.Is(err, ErrMalformedGeometry) {
		t.Errorf("TexCoord(1) on an empty table: error = %v", err)
	}
}
