// Package state defines the encoding of the lock word and the pure
// transitions between its values.
//
// The word is a single uintptr:
//
//	0                 unlocked
//	1 .. MaxReaders   that many readers hold shared access
//	Writer            exactly one writer holds exclusive access
//
// Both the runtime lock and the interleaving checker drive the word only
// through the functions in this package.
package state

import (
	"errors"
	"fmt"
)

const (
	// Unlocked is the state with neither readers nor a writer.
	Unlocked uintptr = 0
	// Writer is the sentinel for a single exclusive holder.
	Writer = ^uintptr(0)
	// MaxReaders is the largest reader count the word can represent.
	// One more reader would be indistinguishable from Writer.
	MaxReaders = Writer - 1
	// OneReader is the state left behind by a downgraded writer.
	OneReader uintptr = 1
)

var (
	// ErrReaderOverflow is the panic value raised when a read acquisition
	// would push the reader count into the writer sentinel.
	ErrReaderOverflow = errors.New("spinrw: reader count overflow")
	// ErrUnbalancedRelease is the panic value raised when a release does not
	// match any hold.
	ErrUnbalancedRelease = errors.New("spinrw: release of unheld lock")
)

// Read returns the state a new reader moves s to.
// It reports false when s is held by a writer. It panics with
// ErrReaderOverflow when s already carries MaxReaders readers.
//
//go:nosplit
func Read(s uintptr) (uintptr, bool) {
	if s == Writer {
		return s, false
	}
	if s == MaxReaders {
		panic(ErrReaderOverflow)
	}
	return s + 1, true
}

// Write returns Writer if s is unlocked.
//
//go:nosplit
func Write(s uintptr) (uintptr, bool) {
	if s != Unlocked {
		return s, false
	}
	return Writer, true
}

// ReleaseRead returns the state after one reader leaves s.
func ReleaseRead(s uintptr) uintptr {
	if s == Unlocked || s == Writer {
		panic(ErrUnbalancedRelease)
	}
	return s - 1
}

// Readers returns the number of readers encoded in s.
//
//go:nosplit
func Readers(s uintptr) uintptr {
	if s == Writer {
		return 0
	}
	return s
}

// IsWriter reports whether s is the writer sentinel.
//
//go:nosplit
func IsWriter(s uintptr) bool {
	return s == Writer
}

// Validate checks s against the holders an observer counted independently.
// It returns a descriptive error when the word and the holder set disagree.
func Validate(s uintptr, readers, writers int) error {
	switch {
	case writers > 1:
		return fmt.Errorf("%d writers hold the lock", writers)
	case writers == 1 && readers != 0:
		return fmt.Errorf("writer coexists with %d readers", readers)
	case writers == 1 && !IsWriter(s):
		return fmt.Errorf("writer holds the lock but state is %#x", s)
	case writers == 0 && IsWriter(s):
		return errors.New("state is the writer sentinel but no writer holds the lock")
	case writers == 0 && Readers(s) != uintptr(readers):
		return fmt.Errorf("state %d does not match %d readers", s, readers)
	}
	return nil
}

// String formats s for diagnostics.
func String(s uintptr) string {
	switch s {
	case Unlocked:
		return "unlocked"
	case Writer:
		return "writer"
	case OneReader:
		return "1 reader"
	}
	return fmt.Sprintf("%d readers", Readers(s))
}
