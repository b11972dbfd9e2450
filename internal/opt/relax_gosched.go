//go:build spinrw_gosched

package opt

import "runtime"

// GoschedEvery_ enables a cooperative runtime.Gosched every 64 spins.
// Use: go build -tags=spinrw_gosched
const GoschedEvery_ = 64

func maybeYield(spins int) {
	if spins%GoschedEvery_ == 0 {
		runtime.Gosched()
	}
}
