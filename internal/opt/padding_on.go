//go:build !(amd64 || 386 || arm || mips || mipsle || wasm) && !spinrw_disable_padding && !spinrw_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// Word_ is the lock state word.
// Padding is automatically enabled for architectures that are NOT:
// - amd64 (x86_64): the adjacent-line prefetcher makes trailing padding of little use
// - 32-bit architectures (386, arm, mips, mipsle, wasm): smaller cache lines/memory constraints
//
// Enabled for: arm64, s390x, ppc64, ppc64le, riscv64, loong64, mips64, mips64le, etc.
// The payload of a lock follows the word, so a writer spinning on the word
// does not keep invalidating the line the readers dereference.
type Word_ struct {
	V atomic.Uintptr
	_ [(CacheLineSize_ - unsafe.Sizeof(atomic.Uintptr{})%CacheLineSize_) % CacheLineSize_]byte
}

const Padded_ = true
