package loader

import (
	"io"

	"github.com/Carmen-Shannon/oxy-mesh/engine/model"
)

// loaderBackend defines the generic interface for turning a mesh source stream into CPU-side mesh data.
// Concrete implementations (e.g., objLoaderBackendImpl) handle format-specific details.
type loaderBackend interface {
	// Parse imports a mesh from a reader stream.
	//
	// Parameters:
	//   - name: the mesh identifier recorded on the result
	//   - r: the reader providing the mesh source text
	//
	// Returns:
	//   - *model.ImportedMesh: the imported mesh data
	//   - error: error if parsing fails
	Parse(name string, r io.Reader) (*model.ImportedMesh, error)
}
