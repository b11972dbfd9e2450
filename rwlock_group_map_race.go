//go:build race

package spinrw

// keyMap under race detector: pb reads its table with plain loads on TSO
// targets, which the detector cannot see through. Serialize on a spin lock
// of our own so every access is ordered by atomics.
type keyMap[K comparable] struct {
	mu rawRWLock
	m  map[K]*groupEntry
}

func (km *keyMap[K]) ref(k K) *groupEntry {
	km.mu.lock()
	defer km.mu.unlock()
	if km.m == nil {
		km.m = make(map[K]*groupEntry)
	}
	e := km.m[k]
	if e == nil {
		e = &groupEntry{}
		km.m[k] = e
	}
	e.ref++
	return e
}

func (km *keyMap[K]) unref(k K) {
	km.mu.lock()
	defer km.mu.unlock()
	e := km.m[k]
	if e == nil {
		return
	}
	e.ref--
	if e.ref <= 0 {
		delete(km.m, k)
	}
}

func (km *keyMap[K]) size() int {
	km.mu.rLock()
	defer km.mu.rUnlock()
	return len(km.m)
}
