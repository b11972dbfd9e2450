package spinrw

// RWLockGroup allows shared reader-writer spin locking on arbitrary keys.
//
// Features:
//   - Read/TryRead for shared access, Write/TryWrite for exclusive access.
//   - Infinite Keys & Auto-Cleanup: an entry is created on first
//     acquisition and removed when its last holder releases.
//
// Unlike RWLock, the group allocates its entries and its map may take a
// short internal lock; it is meant for hosted code.
//
// Usage:
//
//	var group RWLockGroup[string]
//
//	g := group.Write("user-123")
//	update(user)
//	g.Release()
type RWLockGroup[K comparable] struct {
	_ noCopy
	m keyMap[K]
}

type groupEntry struct {
	mu  rawRWLock
	ref int32
}

// KeyGuard is a shared or exclusive hold on one key of an RWLockGroup.
// Release is idempotent.
type KeyGuard[K comparable] struct {
	_     noCopy
	g     *RWLockGroup[K]
	e     *groupEntry
	key   K
	write bool
}

// Key returns the key the guard holds.
func (kg *KeyGuard[K]) Key() K {
	return kg.key
}

// Valid reports whether the guard still holds its key.
func (kg *KeyGuard[K]) Valid() bool {
	return kg.g != nil
}

// Release gives up the hold and drops the entry once it is unreferenced.
func (kg *KeyGuard[K]) Release() {
	g := kg.g
	if g == nil {
		return
	}
	kg.g = nil
	if kg.write {
		kg.e.mu.unlock()
	} else {
		kg.e.mu.rUnlock()
	}
	kg.e = nil
	g.m.unref(kg.key)
}

// Read acquires shared access to k.
func (g *RWLockGroup[K]) Read(k K) KeyGuard[K] {
	e := g.m.ref(k)
	e.mu.rLock()
	return KeyGuard[K]{g: g, e: e, key: k}
}

// Write acquires exclusive access to k.
func (g *RWLockGroup[K]) Write(k K) KeyGuard[K] {
	e := g.m.ref(k)
	e.mu.lock()
	return KeyGuard[K]{g: g, e: e, key: k, write: true}
}

// TryRead acquires shared access to k if no writer holds it.
func (g *RWLockGroup[K]) TryRead(k K) (KeyGuard[K], bool) {
	e := g.m.ref(k)
	if !e.mu.tryRLock() {
		g.m.unref(k)
		return KeyGuard[K]{}, false
	}
	return KeyGuard[K]{g: g, e: e, key: k}, true
}

// TryWrite acquires exclusive access to k if nobody holds it.
func (g *RWLockGroup[K]) TryWrite(k K) (KeyGuard[K], bool) {
	e := g.m.ref(k)
	if !e.mu.tryLock() {
		g.m.unref(k)
		return KeyGuard[K]{}, false
	}
	return KeyGuard[K]{g: g, e: e, key: k, write: true}, true
}

// Len returns the number of keys currently held or waited on.
func (g *RWLockGroup[K]) Len() int {
	return g.m.size()
}
