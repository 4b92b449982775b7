package registry

import "errors"

// ErrConfigurationNotFound is returned when a named configuration, or a
// baseConfig it references, is not registered.
var ErrConfigurationNotFound = errors.New("registry: configuration not found")
