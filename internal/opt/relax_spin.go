//go:build !spinrw_gosched

package opt

// GoschedEvery_ is zero by default: spinning only ever executes the
// processor hint.
const GoschedEvery_ = 0

//go:nosplit
func maybeYield(int) {}
