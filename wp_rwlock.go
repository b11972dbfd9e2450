package spinrw

import (
	"github.com/llxisdsh/spinrw/internal/opt"
	"github.com/llxisdsh/spinrw/internal/state"
)

// WPRWLock is a spin-based reader-writer lock that prefers writers.
//
// It is a distinct protocol from RWLock. A writer first sets a flag that
// turns away new readers, then waits for the readers already inside to
// drain. Writers cannot be starved by readers; readers can be starved by a
// continuous stream of writers.
//
// The guard API is the same as RWLock's. The zero WPRWLock is unlocked and
// holds the zero T.
type WPRWLock[T any] struct {
	_     noCopy
	raw   wpRWLock
	value T
}

// NewWP returns an unlocked WPRWLock holding v.
func NewWP[T any](v T) *WPRWLock[T] {
	return &WPRWLock[T]{value: v}
}

// Read acquires shared access, spinning while a writer holds or waits for
// the lock.
func (l *WPRWLock[T]) Read() ReadGuard[T] {
	l.raw.rLock()
	return ReadGuard[T]{mu: &l.raw, v: &l.value}
}

// TryRead acquires shared access if no writer holds or waits for the lock.
// Like RWLock.TryRead it retries a compare-and-swap lost to another reader.
func (l *WPRWLock[T]) TryRead() (ReadGuard[T], bool) {
	if !l.raw.tryRLock() {
		return ReadGuard[T]{}, false
	}
	return ReadGuard[T]{mu: &l.raw, v: &l.value}, true
}

// Write acquires exclusive access.
func (l *WPRWLock[T]) Write() WriteGuard[T] {
	l.raw.lock()
	return WriteGuard[T]{mu: &l.raw, v: &l.value}
}

// TryWrite acquires exclusive access if the lock is unlocked.
func (l *WPRWLock[T]) TryWrite() (WriteGuard[T], bool) {
	if !l.raw.tryLock() {
		return WriteGuard[T]{}, false
	}
	return WriteGuard[T]{mu: &l.raw, v: &l.value}, true
}

// WithRead calls fn with the value under shared access.
func (l *WPRWLock[T]) WithRead(fn func(v T)) {
	g := l.Read()
	defer g.Release()
	fn(*g.v)
}

// WithWrite calls fn with a pointer to the value under exclusive access.
func (l *WPRWLock[T]) WithWrite(fn func(v *T)) {
	g := l.Write()
	defer g.Release()
	fn(g.v)
}

// wpRWLock is the writer-preferring state machine behind WPRWLock.
// See state.WPRead and friends for the encoding of the word.
type wpRWLock struct {
	w opt.Word_
}

func (rw *wpRWLock) lock() {
	var spins int
	for {
		// 1. Claim the writer flag. This blocks NEW readers.
		s := rw.w.V.Load()
		if next, ok := state.WPWrite(s); ok && rw.w.V.CompareAndSwap(s, next) {
			// 2. Wait for existing readers to drain.
			for !state.WPDrained(rw.w.V.Load()) {
				opt.Relax(&spins)
			}
			return
		}
		opt.Relax(&spins)
	}
}

func (rw *wpRWLock) tryLock() bool {
	return rw.w.V.Load() == state.Unlocked &&
		rw.w.V.CompareAndSwap(state.Unlocked, state.WPWriterFlag)
}

func (rw *wpRWLock) unlock() {
	rw.w.V.Store(state.Unlocked)
}

func (rw *wpRWLock) rLock() {
	var spins int
	for {
		s := rw.w.V.Load()
		if next, ok := state.WPRead(s); ok {
			if rw.w.V.CompareAndSwap(s, next) {
				return
			}
			continue
		}
		opt.Relax(&spins)
	}
}

func (rw *wpRWLock) tryRLock() bool {
	for {
		s := rw.w.V.Load()
		next, ok := state.WPRead(s)
		if !ok {
			return false
		}
		if rw.w.V.CompareAndSwap(s, next) {
			return true
		}
	}
}

func (rw *wpRWLock) rUnlock() {
	rw.w.V.Add(^(state.WPOneReader - 1))
}

// downgrade replaces the drained writer flag with one reader.
func (rw *wpRWLock) downgrade() {
	rw.w.V.Store(state.WPOneReader)
}

func (rw *wpRWLock) load() uintptr {
	return rw.w.V.Load()
}
