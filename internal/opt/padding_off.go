//go:build (amd64 || 386 || arm || mips || mipsle || wasm) && !spinrw_disable_padding && !spinrw_enable_padding

package opt

import "sync/atomic"

// Word_ is the lock state word.
// Padding is disabled by default for:
// - amd64
// - 32-bit architectures (386, arm, mips, mipsle, wasm)
type Word_ struct {
	V atomic.Uintptr
}

const Padded_ = false
