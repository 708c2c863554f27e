package common

import "errors"

// ErrSourceUnavailable reports that a mesh or image locator could not be fetched or decoded.
// It is shared by the loader and the material binder so callers can match either with errors.Is.
var ErrSourceUnavailable = errors.New("source unavailable")
