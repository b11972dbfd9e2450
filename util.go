package spinrw

import (
	"errors"

	"github.com/llxisdsh/spinrw/internal/state"
)

var (
	// ErrReaderOverflow is the panic value raised by a read acquisition that
	// would exceed the largest representable reader count. Letting the count
	// wrap would turn the reader into a phantom writer, so the acquisition
	// never returns.
	ErrReaderOverflow = state.ErrReaderOverflow
	// ErrGuardReleased is the panic value raised when a released or zero
	// guard is dereferenced.
	ErrGuardReleased = errors.New("spinrw: use of released guard")
)

// noCopy may be added to structs which must not be copied
// after the first use.
//
// See https://golang.org/issues/8005#issuecomment-190753527
// for details.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
