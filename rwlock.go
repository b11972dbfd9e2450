package spinrw

// RWLock is a spin-based reader-writer lock that owns a value of type T.
//
// Any number of readers or a single writer may hold it. Waiting is a busy
// loop on one atomic word, so it is intended for critical sections of a few
// memory accesses.
//
// Properties:
//   - Reader-Preferred: a writer acquires only from the fully unlocked
//     state, so arriving readers can overtake a waiting writer forever.
//   - No allocation, no parking, no timeouts.
//
// The zero RWLock is unlocked and holds the zero T. An RWLock must not be
// copied after first use.
type RWLock[T any] struct {
	_     noCopy
	raw   rawRWLock
	value T
}

// New returns an unlocked RWLock holding v.
func New[T any](v T) *RWLock[T] {
	return &RWLock[T]{value: v}
}

// Read acquires shared access, spinning while a writer holds the lock.
//
// It panics with ErrReaderOverflow when the reader count is exhausted.
func (l *RWLock[T]) Read() ReadGuard[T] {
	l.raw.rLock()
	return ReadGuard[T]{mu: &l.raw, v: &l.value}
}

// TryRead acquires shared access if no writer holds the lock.
// It never waits for a holder to leave. A compare-and-swap lost to another
// reader is retried, so TryRead is lock-free but not wait-free: under
// constant reader churn a single call may retry many times.
func (l *RWLock[T]) TryRead() (ReadGuard[T], bool) {
	if !l.raw.tryRLock() {
		return ReadGuard[T]{}, false
	}
	return ReadGuard[T]{mu: &l.raw, v: &l.value}, true
}

// Write acquires exclusive access, spinning until the lock is unlocked.
func (l *RWLock[T]) Write() WriteGuard[T] {
	l.raw.lock()
	return WriteGuard[T]{mu: &l.raw, v: &l.value}
}

// TryWrite acquires exclusive access if the lock is unlocked.
func (l *RWLock[T]) TryWrite() (WriteGuard[T], bool) {
	if !l.raw.tryLock() {
		return WriteGuard[T]{}, false
	}
	return WriteGuard[T]{mu: &l.raw, v: &l.value}, true
}

// WithRead calls fn with the value under shared access.
// The lock is released however fn returns, including by panic.
func (l *RWLock[T]) WithRead(fn func(v T)) {
	g := l.Read()
	defer g.Release()
	fn(*g.v)
}

// WithReadErr is WithRead for functions that can fail; fn's error is
// returned unchanged.
func (l *RWLock[T]) WithReadErr(fn func(v T) error) error {
	g := l.Read()
	defer g.Release()
	return fn(*g.v)
}

// WithWrite calls fn with a pointer to the value under exclusive access.
// The lock is released however fn returns, including by panic.
func (l *RWLock[T]) WithWrite(fn func(v *T)) {
	g := l.Write()
	defer g.Release()
	fn(g.v)
}

// WithWriteErr is WithWrite for functions that can fail; fn's error is
// returned unchanged.
func (l *RWLock[T]) WithWriteErr(fn func(v *T) error) error {
	g := l.Write()
	defer g.Release()
	return fn(g.v)
}
