package opt

import (
	_ "unsafe" // for linkname
)

// Relax is called once per failed spin iteration.
//
// It issues the runtime's processor spin hint (PAUSE on amd64, YIELD on
// arm64) and never sleeps, parks or enters the kernel. With the
// spinrw_gosched tag it additionally yields the P every GoschedEvery_
// iterations.
func Relax(spins *int) {
	runtime_doSpin()
	*spins++
	maybeYield(*spins)
}

// nolint:all
//
//go:linkname runtime_doSpin sync.runtime_doSpin
//goland:noinspection ALL
func runtime_doSpin()
