//go:build race

package opt

// Race_ under race detector, tests shrink their iteration counts since every
// atomic on the state word is instrumented.
const Race_ = true
