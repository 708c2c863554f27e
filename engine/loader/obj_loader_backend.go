package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
)

// objLoaderBackendImpl is the loaderBackend for Wavefront OBJ sources. It delegates to ParseOBJ.
type objLoaderBackendImpl struct {
	options []ParserOption
}

var _ loaderBackend = &objLoaderBackendImpl{}

// newOBJLoaderBackend creates a new OBJ loader backend.
//
// Parameters:
//   - options: parser options applied to every parse
//
// Returns:
//   - loaderBackend: the loader backend for OBJ sources
func newOBJLoaderBackend(options ...ParserOption) loaderBackend {
	return &objLoaderBackendImpl{options: options}
}

func (b *objLoaderBackendImpl) Parse(name string, r io.Reader) (*model.ImportedMesh, error) {
	opts := append([]ParserOption{WithMeshName(name)}, b.options...)
	return ParseOBJ(r, opts...)
}
