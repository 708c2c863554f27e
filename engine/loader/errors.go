package loader

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-mesh/common"
)

var (
	// ErrSourceUnavailable reports that the mesh source could not be fetched.
	ErrSourceUnavailable = common.ErrSourceUnavailable

	// ErrMalformedGeometry reports a face that references a missing position or texture coordinate,
	// a face with fewer than three corners, or a number that does not parse.
	ErrMalformedGeometry = errors.New("malformed geometry")
)
