package commands

import (
	_ "embed"
	"sync"
)

//go:embed catalog/eiscp.yaml
var builtinCatalog []byte

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the built-in command catalog, loaded from the
// embedded YAML. It covers the commonly used commands of the main and
// auxiliary zones; the full vendor catalog can be supplied externally
// via LoadRegistry.
//
// The returned registry is shared and must not be mutated.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r, err := ParseRegistry(builtinCatalog)
		if err != nil {
			panic("commands: invalid built-in catalog: " + err.Error())
		}
		defaultRegistry = r
	})
	return defaultRegistry
}
