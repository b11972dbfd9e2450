// Package interleave exhaustively explores thread interleavings of the lock
// protocol.
//
// Every operation of a small program is split into the atomic steps the
// runtime lock performs on its word (load, compare-and-swap, release) plus
// one access to the protected payload. Explore runs every schedule of those
// steps and checks, after each step, that the word agrees with the set of
// holders, and, on every payload access, that the access is ordered after
// all conflicting ones by the acquire/release edges of the word.
//
// A blocking acquisition that loads an incompatible word does not spin in
// the model: the thread is simply not runnable until the word admits it.
// The skipped loads have no effect on shared state, so no behavior is lost
// and the state space stays finite.
package interleave

import (
	"errors"
	"fmt"
	"strings"

	"github.com/llxisdsh/spinrw/internal/state"
)

// MaxThreads bounds the number of threads in a program.
const MaxThreads = 8

// Op is one lock operation of a modeled thread. Every successful
// acquisition accesses the payload once and releases.
type Op uint8

const (
	// OpRead is a blocking read acquisition.
	OpRead Op = iota
	// OpWrite is a blocking write acquisition.
	OpWrite
	// OpTryRead is a read acquisition that gives up when a writer holds the
	// lock.
	OpTryRead
	// OpTryWrite is a single write attempt.
	OpTryWrite
	// OpUpgrade reads, releases, then writes.
	OpUpgrade
	// OpDowngrade writes, downgrades to a read hold, then reads.
	OpDowngrade
)

var opNames = [...]string{"read", "write", "try-read", "try-write", "upgrade", "downgrade"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", uint8(o))
}

var (
	// ErrProgram reports a program Explore cannot model.
	ErrProgram = errors.New("interleave: invalid program")
	// ErrBudget reports that exploration exceeded the configured run budget.
	ErrBudget = errors.New("interleave: run budget exceeded")
)

// Protocol is the set of word transitions under test. The zero value is
// replaced by DefaultProtocol.
type Protocol struct {
	// Read returns the word after a reader enters, or false if it may not.
	Read func(s uintptr) (uintptr, bool)
	// Write returns the word after a writer enters, or false if it may not.
	Write func(s uintptr) (uintptr, bool)
	// Drained, when set, makes a writer that entered through Write wait
	// until it reports true before it holds the lock.
	Drained func(s uintptr) bool
	// ReleaseRead returns the word after a reader leaves.
	ReleaseRead func(s uintptr) uintptr
	// Downgraded is the word a downgrading writer stores. Zero means
	// state.OneReader.
	Downgraded uintptr
	// Validate checks the word against the holders. Nil means
	// state.Validate.
	Validate func(s uintptr, readers, writers int) error
	// Format renders the word in violations. Nil means state.String.
	Format func(s uintptr) string
	// RelaxedRelease drops the release edge on both release paths.
	RelaxedRelease bool
}

// DefaultProtocol is the protocol implemented by spinrw.RWLock.
func DefaultProtocol() Protocol {
	return Protocol{
		Read:        state.Read,
		Write:       state.Write,
		ReleaseRead: state.ReleaseRead,
		Downgraded:  state.OneReader,
		Validate:    state.Validate,
		Format:      state.String,
	}
}

// WriterPreferringProtocol is the protocol implemented by spinrw.WPRWLock.
func WriterPreferringProtocol() Protocol {
	return Protocol{
		Read:        state.WPRead,
		Write:       state.WPWrite,
		Drained:     state.WPDrained,
		ReleaseRead: state.WPReleaseRead,
		Downgraded:  state.WPOneReader,
		Validate:    state.WPValidate,
		Format:      state.WPString,
	}
}

// Stats summarizes an exploration.
type Stats struct {
	// Runs is the number of complete schedules explored.
	Runs int
	// Steps is the number of atomic steps executed across all schedules.
	Steps int
	// MaxDepth is the length of the longest schedule.
	MaxDepth int
}

// Violation describes the first schedule that broke an invariant.
type Violation struct {
	Reason string
	// Schedule lists the thread that ran each step, in order.
	Schedule []int
	// State is the word after the offending step.
	State uintptr

	format func(uintptr) string
}

func (v *Violation) Error() string {
	format := v.format
	if format == nil {
		format = state.String
	}
	var b strings.Builder
	fmt.Fprintf(&b, "interleave: %s (state %s) after schedule", v.Reason, format(v.State))
	for _, tid := range v.Schedule {
		fmt.Fprintf(&b, " %d", tid)
	}
	return b.String()
}

type config struct {
	protocol Protocol
	maxRuns  int
	prefix   []int
}

// Option configures Explore.
type Option func(*config)

// WithProtocol replaces the transitions under test.
func WithProtocol(p Protocol) Option {
	return func(c *config) {
		c.protocol = p
	}
}

// WithMaxRuns bounds the number of complete schedules. Zero means no bound.
func WithMaxRuns(n int) Option {
	return func(c *config) {
		c.maxRuns = n
	}
}

// WithPrefix pins the first steps of every schedule to the given threads,
// in order. Exploration branches only after the prefix.
func WithPrefix(tids ...int) Option {
	return func(c *config) {
		c.prefix = tids
	}
}

// Explore runs every interleaving of program, which holds one list of
// operations per thread. It returns a *Violation as soon as a schedule
// breaks mutual exclusion, the word encoding, release balance, or races on
// the payload, or deadlocks.
func Explore(program [][]Op, opts ...Option) (Stats, error) {
	if len(program) == 0 || len(program) > MaxThreads {
		return Stats{}, fmt.Errorf("%w: %d threads, want 1..%d", ErrProgram, len(program), MaxThreads)
	}
	c := config{protocol: DefaultProtocol()}
	for _, opt := range opts {
		opt(&c)
	}
	if c.protocol.Read == nil || c.protocol.Write == nil || c.protocol.ReleaseRead == nil {
		return Stats{}, fmt.Errorf("%w: incomplete protocol", ErrProgram)
	}
	if c.protocol.Downgraded == 0 {
		c.protocol.Downgraded = state.OneReader
	}
	if c.protocol.Validate == nil {
		c.protocol.Validate = state.Validate
	}
	if c.protocol.Format == nil {
		c.protocol.Format = state.String
	}

	for _, tid := range c.prefix {
		if tid < 0 || tid >= len(program) {
			return Stats{}, fmt.Errorf("%w: prefix names thread %d", ErrProgram, tid)
		}
	}

	w := newWorld(len(program))
	for tid, ops := range program {
		for _, op := range ops {
			if int(op) >= len(opNames) {
				return Stats{}, fmt.Errorf("%w: thread %d: unknown %v", ErrProgram, tid, op)
			}
			w.threads[tid].actions = append(w.threads[tid].actions, compile(op, c.protocol.Drained != nil)...)
		}
	}

	e := explorer{cfg: c}
	err := e.dfs(w, nil)
	return e.stats, err
}

type explorer struct {
	cfg   config
	stats Stats
}

func (e *explorer) dfs(w *world, schedule []int) error {
	if w.done() {
		if w.word != state.Unlocked {
			return e.violation("lock not released at end of run", schedule, w.word)
		}
		e.stats.Runs++
		e.stats.MaxDepth = max(e.stats.MaxDepth, len(schedule))
		if e.cfg.maxRuns > 0 && e.stats.Runs > e.cfg.maxRuns {
			return ErrBudget
		}
		return nil
	}

	if len(schedule) < len(e.cfg.prefix) {
		tid := e.cfg.prefix[len(schedule)]
		if !w.enabled(tid, &e.cfg.protocol) {
			return fmt.Errorf("%w: prefix step %d: thread %d is not runnable", ErrProgram, len(schedule), tid)
		}
		return e.run(w, schedule, tid)
	}

	runnable := false
	for tid := range w.threads {
		if !w.enabled(tid, &e.cfg.protocol) {
			continue
		}
		runnable = true
		if err := e.run(w, schedule, tid); err != nil {
			return err
		}
	}
	if !runnable {
		return e.violation("deadlock", schedule, w.word)
	}
	return nil
}

// run steps tid on a copy of w and explores from there.
func (e *explorer) run(w *world, schedule []int, tid int) error {
	next := w.clone()
	sched := append(schedule[:len(schedule):len(schedule)], tid)
	e.stats.Steps++
	if reason := next.step(tid, &e.cfg.protocol); reason != "" {
		return e.violation(reason, sched, next.word)
	}
	return e.dfs(next, sched)
}

func (e *explorer) violation(reason string, schedule []int, s uintptr) *Violation {
	return &Violation{Reason: reason, Schedule: schedule, State: s, format: e.cfg.protocol.Format}
}
