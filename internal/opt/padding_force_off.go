//go:build spinrw_disable_padding

package opt

import "sync/atomic"

// Word_ is the lock state word.
// Padding is force-disabled via the spinrw_disable_padding build tag.
// Use: go build -tags=spinrw_disable_padding
type Word_ struct {
	V atomic.Uintptr
}

const Padded_ = false
