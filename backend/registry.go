package backend

import (
	"fmt"
	"sync"

	"github.com/fontproof/fontproof"
)

// Factory creates a new backend instance.
type Factory func() Renderer

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	backends   = make(map[ID]Factory)
)

// Register registers a backend factory under the given identifier.
// This is typically called from init() functions in backend packages.
// If a backend with the same identifier is already registered, it is
// replaced. Identifiers outside the Known enumeration are ignored.
func Register(id ID, factory Factory) {
	if !isKnown(id) {
		fontproof.Logger().Warn("ignoring unknown backend registration", "backend", string(id))
		return
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[id] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(id ID) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, id)
}

// Usable returns the identifiers of backends that are both compiled into
// this build and usable on the current host, in preference order.
func Usable() []ID {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ids := make([]ID, 0, len(backends))
	for _, id := range Known() {
		if _, ok := backends[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsUsable reports whether the backend is registered and usable.
func IsUsable(id ID) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := backends[id]
	return ok
}

// Get returns a backend instance by identifier. It fails with a
// fontproof.ErrBackendUnavailable wrap when the identifier is not in the
// usable set.
func Get(id ID) (Renderer, error) {
	registryMu.RLock()
	factory, ok := backends[id]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", fontproof.ErrBackendUnavailable, string(id))
	}
	return factory(), nil
}

// Default returns the preferred usable preview-capable backend, falling
// back to any usable backend, or an error when none is registered.
func Default() (Renderer, error) {
	var fallback Renderer
	for _, id := range Usable() {
		r, err := Get(id)
		if err != nil {
			continue
		}
		if r.Capabilities().Preview {
			return r, nil
		}
		if fallback == nil {
			fallback = r
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("%w: no backend registered", fontproof.ErrBackendUnavailable)
}

// Describe returns the capability record for a usable backend.
func Describe(id ID) (Capabilities, error) {
	r, err := Get(id)
	if err != nil {
		return Capabilities{}, err
	}
	return r.Capabilities(), nil
}

func isKnown(id ID) bool {
	for _, k := range Known() {
		if k == id {
			return true
		}
	}
	return false
}
