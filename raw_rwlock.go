package spinrw

import (
	"github.com/llxisdsh/spinrw/internal/opt"
	"github.com/llxisdsh/spinrw/internal/state"
)

// locker is the protocol a guard releases through.
type locker interface {
	lock()
	unlock()
	rLock()
	rUnlock()
	downgrade()
}

// rawRWLock is the reader-preferring state machine behind RWLock.
// See internal/state for the encoding of the word.
type rawRWLock struct {
	w opt.Word_
}

func (rw *rawRWLock) lock() {
	if rw.w.V.CompareAndSwap(state.Unlocked, state.Writer) {
		return
	}
	rw.lockSlow()
}

func (rw *rawRWLock) lockSlow() {
	var spins int
	for {
		// Spin on plain loads so that waiting writers do not bounce the
		// cache line between cores with failing CAS attempts.
		s := rw.w.V.Load()
		if next, ok := state.Write(s); ok {
			if rw.w.V.CompareAndSwap(s, next) {
				return
			}
			continue
		}
		opt.Relax(&spins)
	}
}

func (rw *rawRWLock) tryLock() bool {
	return rw.w.V.Load() == state.Unlocked &&
		rw.w.V.CompareAndSwap(state.Unlocked, state.Writer)
}

// unlock stores Unlocked unconditionally: the writer is the only holder.
func (rw *rawRWLock) unlock() {
	rw.w.V.Store(state.Unlocked)
}

func (rw *rawRWLock) rLock() {
	s := rw.w.V.Load()
	if next, ok := state.Read(s); ok && rw.w.V.CompareAndSwap(s, next) {
		return
	}
	rw.rLockSlow()
}

func (rw *rawRWLock) rLockSlow() {
	var spins int
	for {
		s := rw.w.V.Load()
		if next, ok := state.Read(s); ok {
			if rw.w.V.CompareAndSwap(s, next) {
				return
			}
			// Lost to another reader or a releasing holder; the word has
			// moved, so retry without relaxing.
			continue
		}
		opt.Relax(&spins)
	}
}

// tryRLock fails only when a writer holds the word. A CAS lost to another
// reader is retried, since the word is still reader-compatible.
func (rw *rawRWLock) tryRLock() bool {
	for {
		s := rw.w.V.Load()
		next, ok := state.Read(s)
		if !ok {
			return false
		}
		if rw.w.V.CompareAndSwap(s, next) {
			return true
		}
	}
}

func (rw *rawRWLock) rUnlock() {
	rw.w.V.Add(^uintptr(0))
}

// downgrade turns the exclusive hold into a single shared hold.
func (rw *rawRWLock) downgrade() {
	rw.w.V.Store(state.OneReader)
}

func (rw *rawRWLock) load() uintptr {
	return rw.w.V.Load()
}
