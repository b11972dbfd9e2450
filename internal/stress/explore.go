package stress

import (
	"fmt"
	"log/slog"

	"github.com/llxisdsh/spinrw/internal/interleave"
)

// Program is a named interleaving program.
type Program struct {
	Name string
	// Lock selects the protocol, LockRW or LockWP. Empty means LockRW.
	Lock    string
	Threads [][]interleave.Op
	// Prefix pins the opening steps, see interleave.WithPrefix.
	Prefix []int
}

// Programs are the schedules checked by the -explore mode.
var Programs = []Program{
	{
		Name:    "three readers then writer",
		Threads: [][]interleave.Op{{interleave.OpRead}, {interleave.OpRead}, {interleave.OpRead}, {interleave.OpWrite}},
		Prefix:  []int{0, 0, 1, 1, 2, 2},
	},
	{Name: "two readers and writer", Threads: [][]interleave.Op{{interleave.OpRead}, {interleave.OpRead}, {interleave.OpWrite}}},
	{Name: "writer vs try-read", Threads: [][]interleave.Op{{interleave.OpWrite}, {interleave.OpTryRead, interleave.OpTryRead}}},
	{Name: "competing try-writes", Threads: [][]interleave.Op{{interleave.OpTryWrite}, {interleave.OpTryWrite}, {interleave.OpRead}}},
	{Name: "read-write sequences", Threads: [][]interleave.Op{{interleave.OpRead, interleave.OpWrite}, {interleave.OpWrite, interleave.OpRead}}},
	{Name: "upgrade vs downgrade", Threads: [][]interleave.Op{{interleave.OpUpgrade}, {interleave.OpDowngrade}}},
	{
		Name:    "three readers then writer",
		Lock:    LockWP,
		Threads: [][]interleave.Op{{interleave.OpRead}, {interleave.OpRead}, {interleave.OpRead}, {interleave.OpWrite}},
		Prefix:  []int{0, 0, 1, 1, 2, 2},
	},
	{Name: "two readers and writer", Lock: LockWP, Threads: [][]interleave.Op{{interleave.OpRead}, {interleave.OpRead}, {interleave.OpWrite}}},
	{Name: "upgrade vs downgrade", Lock: LockWP, Threads: [][]interleave.Op{{interleave.OpUpgrade}, {interleave.OpDowngrade}}},
}

// ExploreResult is the outcome of one exhaustive program check.
type ExploreResult struct {
	Program string
	Lock    string
	Stats   interleave.Stats
}

// Explore checks every program exhaustively and stops at the first
// violation.
func Explore(log *slog.Logger, programs []Program) ([]ExploreResult, error) {
	results := make([]ExploreResult, 0, len(programs))
	for _, p := range programs {
		lock := p.Lock
		if lock == "" {
			lock = LockRW
		}
		var protocol interleave.Protocol
		switch lock {
		case LockRW:
			protocol = interleave.DefaultProtocol()
		case LockWP:
			protocol = interleave.WriterPreferringProtocol()
		default:
			return results, fmt.Errorf("explore %q: unknown lock %q", p.Name, lock)
		}

		stats, err := interleave.Explore(p.Threads, interleave.WithProtocol(protocol), interleave.WithPrefix(p.Prefix...))
		if err != nil {
			return results, fmt.Errorf("explore %s %q: %w", lock, p.Name, err)
		}
		log.Info("explored program",
			slog.String("lock", lock),
			slog.String("program", p.Name),
			slog.Int("runs", stats.Runs),
			slog.Int("steps", stats.Steps),
		)
		results = append(results, ExploreResult{Program: p.Name, Lock: lock, Stats: stats})
	}
	return results, nil
}
