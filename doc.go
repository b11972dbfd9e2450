// Package spinrw provides busy-wait reader-writer locks that own the value
// they protect.
//
// The locks never park a goroutine, sleep, or call into the kernel; a
// waiting caller spins on a single atomic word and executes only the
// processor's spin hint between attempts. They are meant for very short
// critical sections and for code that must not depend on a scheduler.
//
// The protected value is reachable only through a guard:
//
//	var cfg = spinrw.New(Config{})
//
//	g := cfg.Read()
//	defer g.Release()
//	use(g.Get())
//
// or through the scoped helpers, which release on every exit path:
//
//	cfg.WithWrite(func(c *Config) { c.Limit++ })
//
// Caller contract:
//   - Acquisition is not re-entrant. A goroutine that holds a guard and
//     acquires a write guard on the same lock spins forever.
//   - A lock must outlive all of its guards, and a guard must not be copied.
//   - RWLock is reader-preferring and does not promise fairness: a
//     continuous stream of readers can starve a writer indefinitely. Use
//     WPRWLock when writers must make progress under read load.
//   - There is no timeout. Bounded waiting is built from TryRead/TryWrite
//     with a caller-side retry policy.
package spinrw
