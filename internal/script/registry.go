package script

import (
	"fmt"
	"sort"
	"sync"

	"github.com/flowcraft-dev/flowcraft/pkg/pipeline"
)

// The registry maps a function name (as referenced from a pipeline
// manifest script) to its Go implementation. Populated by import-time
// RegisterFunc calls: node functions register themselves explicitly
// under a stable name before Orchestrate runs, since a manifest script
// cannot name arbitrary Go functions.
var (
	registryMu sync.RWMutex
	registry   = map[string]pipeline.NodeFunc{}
)

// RegisterFunc registers fn under name so pipeline manifest scripts can
// bind it to a node via node("name", ...). Intended to be called from an
// init() in the package defining the node function.
func RegisterFunc(name string, fn pipeline.NodeFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

func lookupFunc(name string) (pipeline.NodeFunc, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("script: no function registered under name %q (known: %v)", name, registeredNames())
	}
	return fn, nil
}

func registeredNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
