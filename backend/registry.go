package backend

import "sync"

var (
	registryMu sync.RWMutex
	registry   = map[Kind]Backend{}
)

// Register makes a backend available to the capability probe. Backend packages
// call this from init; registering a kind twice replaces the earlier entry,
// which keeps test doubles simple.
func Register(b Backend) {
	if b == nil {
		return
	}
	registryMu.Lock()
	registry[b.Kind()] = b
	registryMu.Unlock()
}

// Unregister removes a backend kind. Intended for tests that need to simulate
// an absent optional backend.
func Unregister(k Kind) {
	registryMu.Lock()
	delete(registry, k)
	registryMu.Unlock()
}

// Lookup returns the registered backend for a kind.
func Lookup(k Kind) (Backend, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := registry[k]
	return b, ok
}

// Detect reports which backend kinds are currently registered. It is a pure,
// side-effect-free query; callers run it once per configure pass rather than
// caching the result at load time.
func Detect() Set {
	registryMu.RLock()
	defer registryMu.RUnlock()
	set := make(Set, len(registry))
	for kind := range registry {
		set[kind] = true
	}
	return set
}
