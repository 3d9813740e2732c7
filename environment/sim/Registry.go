package sim

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Loader loads a model description from path and returns a simulator for
// it. Backends with a built-in model may ignore path.
type Loader func(path string, logger *zap.SugaredLogger) (Simulator, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Loader{}
)

// Register registers a backend under a name. It panics if the name is
// already registered.
func Register(name string, loader Loader) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := registry[name]; ok {
		panic(errors.Errorf("register: backend %q already registered", name))
	}
	registry[name] = loader
}

// Load loads a model with the named backend
func Load(backend, path string, logger *zap.SugaredLogger) (Simulator, error) {
	registryMu.RLock()
	loader, ok := registry[backend]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.Errorf("load: no backend %q registered (have %v)",
			backend, Backends())
	}

	s, err := loader(path, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "load: backend %q", backend)
	}
	return s, nil
}

// Backends returns the names of all registered backends
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
