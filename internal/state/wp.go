package state

import (
	"fmt"
)

// Writer-preferring encoding. Bit 0 is the writer flag, set by a writer
// that holds or waits for the lock. The reader count lives above it.
//
//	flag clear, n<<1  n readers, no writer
//	flag set,   n<<1  a writer waits for n readers to drain
//	WPWriterFlag      the writer holds the lock
const (
	WPWriterFlag uintptr = 1
	WPReadShift          = 1
	// WPOneReader is one reader, and the state a downgraded writer leaves.
	WPOneReader  uintptr = 1 << WPReadShift
	WPMaxReaders         = ^uintptr(0) >> WPReadShift
)

// WPRead returns the state a new reader moves s to. It reports false
// while a writer holds or waits for the lock.
//
//go:nosplit
func WPRead(s uintptr) (uintptr, bool) {
	if s&WPWriterFlag != 0 {
		return s, false
	}
	if s>>WPReadShift == WPMaxReaders {
		panic(ErrReaderOverflow)
	}
	return s + WPOneReader, true
}

// WPWrite claims the writer flag. The writer owns the lock only once
// WPDrained holds.
//
//go:nosplit
func WPWrite(s uintptr) (uintptr, bool) {
	if s&WPWriterFlag != 0 {
		return s, false
	}
	return s | WPWriterFlag, true
}

// WPDrained reports whether a flagged writer may enter.
//
//go:nosplit
func WPDrained(s uintptr) bool {
	return s == WPWriterFlag
}

// WPReleaseRead returns the state after one reader leaves s.
func WPReleaseRead(s uintptr) uintptr {
	if WPReaders(s) == 0 {
		panic(ErrUnbalancedRelease)
	}
	return s - WPOneReader
}

// WPReaders returns the number of readers encoded in s.
//
//go:nosplit
func WPReaders(s uintptr) uintptr {
	return s >> WPReadShift
}

// WPValidate is Validate for the writer-preferring encoding. A set flag
// without a holding writer is a waiting writer and is legal.
func WPValidate(s uintptr, readers, writers int) error {
	switch {
	case writers > 1:
		return fmt.Errorf("%d writers hold the lock", writers)
	case writers == 1 && readers != 0:
		return fmt.Errorf("writer coexists with %d readers", readers)
	case writers == 1 && s != WPWriterFlag:
		return fmt.Errorf("writer holds the lock but state is %#x", s)
	case WPReaders(s) != uintptr(readers):
		return fmt.Errorf("state %#x does not match %d readers", s, readers)
	}
	return nil
}

// WPString formats s for diagnostics.
func WPString(s uintptr) string {
	switch {
	case s == Unlocked:
		return "unlocked"
	case s == WPWriterFlag:
		return "writer"
	case s&WPWriterFlag != 0:
		return fmt.Sprintf("writer waiting on %d readers", WPReaders(s))
	}
	return fmt.Sprintf("%d readers", WPReaders(s))
}
