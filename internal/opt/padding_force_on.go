//go:build spinrw_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// Word_ is the lock state word.
// Padding is force-enabled via the spinrw_enable_padding build tag.
// Use: go build -tags=spinrw_enable_padding
type Word_ struct {
	V atomic.Uintptr
	_ [(CacheLineSize_ - unsafe.Sizeof(atomic.Uintptr{})%CacheLineSize_) % CacheLineSize_]byte
}

const Padded_ = true
