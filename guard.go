package spinrw

// ReadGuard grants shared access to the value of the lock that produced it.
//
// The zero ReadGuard holds nothing. Release must be called exactly once for
// every guard returned by a successful acquisition, typically with defer.
// Further calls to Release are no-ops.
type ReadGuard[T any] struct {
	_  noCopy
	mu locker
	v  *T
}

// Get returns a copy of the protected value.
func (g *ReadGuard[T]) Get() T {
	if g.v == nil {
		panic(ErrGuardReleased)
	}
	return *g.v
}

// Valid reports whether the guard still holds the lock.
func (g *ReadGuard[T]) Valid() bool {
	return g.mu != nil
}

// Release gives up the shared hold.
func (g *ReadGuard[T]) Release() {
	mu := g.mu
	if mu == nil {
		return
	}
	g.mu, g.v = nil, nil
	mu.rUnlock()
}

// Upgrade releases the shared hold and then acquires the lock exclusively.
//
// The two steps are not atomic: other writers may run in between, so any
// state derived from the value under the read hold must be re-checked
// through the returned guard. The receiver is released on return.
func (g *ReadGuard[T]) Upgrade() WriteGuard[T] {
	mu, v := g.mu, g.v
	if mu == nil {
		panic(ErrGuardReleased)
	}
	g.mu, g.v = nil, nil
	mu.rUnlock()
	mu.lock()
	return WriteGuard[T]{mu: mu, v: v}
}

// WriteGuard grants exclusive access to the value of the lock that produced
// it. The same release rules as for ReadGuard apply.
type WriteGuard[T any] struct {
	_  noCopy
	mu locker
	v  *T
}

// Get returns a copy of the protected value.
func (g *WriteGuard[T]) Get() T {
	return *g.Ptr()
}

// Set replaces the protected value.
func (g *WriteGuard[T]) Set(v T) {
	*g.Ptr() = v
}

// Ptr returns a pointer to the protected value. The pointer must not be
// retained after Release.
func (g *WriteGuard[T]) Ptr() *T {
	if g.v == nil {
		panic(ErrGuardReleased)
	}
	return g.v
}

// Valid reports whether the guard still holds the lock.
func (g *WriteGuard[T]) Valid() bool {
	return g.mu != nil
}

// Release gives up the exclusive hold.
func (g *WriteGuard[T]) Release() {
	mu := g.mu
	if mu == nil {
		return
	}
	g.mu, g.v = nil, nil
	mu.unlock()
}

// Downgrade atomically turns the exclusive hold into a shared one. No
// writer can acquire the lock in between. The receiver is released on
// return.
func (g *WriteGuard[T]) Downgrade() ReadGuard[T] {
	mu, v := g.mu, g.v
	if mu == nil {
		panic(ErrGuardReleased)
	}
	g.mu, g.v = nil, nil
	mu.downgrade()
	return ReadGuard[T]{mu: mu, v: v}
}
