package interleave

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/llxisdsh/spinrw/internal/state"
)

func TestExplore_SingleThread(t *testing.T) {
	stats, err := Explore([][]Op{{OpRead}})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Runs)
	require.Equal(t, 4, stats.MaxDepth)
	require.Equal(t, 4, stats.Steps)
}

func TestExplore_Programs(t *testing.T) {
	programs := map[string][][]Op{
		"two readers and writer": {{OpRead}, {OpRead}, {OpWrite}},
		"writers and try-read":   {{OpWrite}, {OpWrite}, {OpTryRead}},
		"try everything":         {{OpTryWrite}, {OpTryRead}, {OpWrite}},
		"mixed sequences":        {{OpRead, OpWrite}, {OpWrite, OpRead}},
		"upgrade against read":   {{OpUpgrade}, {OpRead}},
		"upgrade against write":  {{OpUpgrade}, {OpWrite}},
		"downgrade":              {{OpDowngrade}, {OpWrite}},
		"downgrade and upgrade":  {{OpDowngrade}, {OpUpgrade}},
		"three try-writers":      {{OpTryWrite}, {OpTryWrite}, {OpTryWrite}},
	}
	for name, prog := range programs {
		t.Run(name, func(t *testing.T) {
			stats, err := Explore(prog)
			require.NoError(t, err)
			require.Positive(t, stats.Runs)
		})
	}
}

func TestExplore_WriterPreferring(t *testing.T) {
	programs := map[string][][]Op{
		"two readers and writer": {{OpRead}, {OpRead}, {OpWrite}},
		"writers and try-read":   {{OpWrite}, {OpWrite}, {OpTryRead}},
		"try-write and try-read": {{OpTryWrite}, {OpTryRead}},
		"upgrade against write":  {{OpUpgrade}, {OpWrite}},
		"downgrade and upgrade":  {{OpDowngrade}, {OpUpgrade}},
	}
	for name, prog := range programs {
		t.Run(name, func(t *testing.T) {
			stats, err := Explore(prog, WithProtocol(WriterPreferringProtocol()))
			require.NoError(t, err)
			require.Positive(t, stats.Runs)
		})
	}
}

func TestExplore_WriterPreferringThreeReadersThenWriter(t *testing.T) {
	prog := [][]Op{{OpRead}, {OpRead}, {OpRead}, {OpWrite}}
	stats, err := Explore(prog, WithProtocol(WriterPreferringProtocol()), WithPrefix(0, 0, 1, 1, 2, 2))
	require.NoError(t, err)
	// The writer takes a drain step after claiming the flag.
	require.GreaterOrEqual(t, stats.MaxDepth, 17)
}

func TestExplore_WriterPreferringTryWriteNeedsUnlocked(t *testing.T) {
	// The try-writer never waits for the reader to drain, so in every run
	// either it fails or the reader came strictly after it.
	stats, err := Explore([][]Op{{OpRead}, {OpTryWrite}}, WithProtocol(WriterPreferringProtocol()))
	require.NoError(t, err)
	require.Positive(t, stats.Runs)
}

func TestExplore_DetectsUndrainedWriter(t *testing.T) {
	p := WriterPreferringProtocol()
	p.Drained = func(uintptr) bool { return true }
	_, err := Explore([][]Op{{OpRead}, {OpWrite}}, WithProtocol(p))
	var v *Violation
	require.ErrorAs(t, err, &v)
	require.Contains(t, v.Reason, "coexists")
	require.Contains(t, v.Error(), "writer waiting on 1 readers")
}

func TestExplore_ThreeReadersThenWriter(t *testing.T) {
	// Each reader loads and wins its CAS before anything else runs, so the
	// writer arrives at a word holding three readers.
	prog := [][]Op{{OpRead}, {OpRead}, {OpRead}, {OpWrite}}
	stats, err := Explore(prog, WithPrefix(0, 0, 1, 1, 2, 2))
	require.NoError(t, err)
	// The writer stays blocked until all three readers have released, so
	// only the six reader steps interleave: 6!/(2!2!2!).
	require.Equal(t, 90, stats.Runs)
	require.Equal(t, 16, stats.MaxDepth)
}

func TestExplore_PrefixMustBeRunnable(t *testing.T) {
	// The writer cannot load while thread 0 holds the write lock.
	_, err := Explore([][]Op{{OpWrite}, {OpWrite}}, WithPrefix(0, 0, 1))
	require.ErrorIs(t, err, ErrProgram)

	_, err = Explore([][]Op{{OpRead}}, WithPrefix(3))
	require.ErrorIs(t, err, ErrProgram)
}

func TestExplore_TwoReadersInterleaveFreely(t *testing.T) {
	// Two readers never wait on each other, so every ordering of their
	// steps is a run, apart from CAS retries that add more.
	stats, err := Explore([][]Op{{OpRead}, {OpRead}})
	require.NoError(t, err)
	require.GreaterOrEqual(t, stats.Runs, 70) // C(8,4)
}

func TestExplore_WriterExcludesWriter(t *testing.T) {
	// Two writers serialize: once one wins the CAS the other is not
	// runnable until release.
	stats, err := Explore([][]Op{{OpWrite}, {OpWrite}})
	require.NoError(t, err)
	require.Positive(t, stats.Runs)
}

func TestExplore_DetectsMissingWriterCheck(t *testing.T) {
	p := DefaultProtocol()
	p.Read = func(s uintptr) (uintptr, bool) {
		if s == state.Writer {
			return 1, true // lets a reader in over a writer
		}
		return s + 1, true
	}
	_, err := Explore([][]Op{{OpWrite}, {OpRead}}, WithProtocol(p))
	var v *Violation
	require.ErrorAs(t, err, &v)
	require.NotEmpty(t, v.Schedule)
}

func TestExplore_DetectsSecondWriter(t *testing.T) {
	p := DefaultProtocol()
	p.Write = func(s uintptr) (uintptr, bool) {
		return state.Writer, s == state.Unlocked || s == state.Writer
	}
	_, err := Explore([][]Op{{OpWrite}, {OpWrite}}, WithProtocol(p))
	var v *Violation
	require.ErrorAs(t, err, &v)
	require.Contains(t, v.Reason, "writers")
}

func TestExplore_DetectsRelaxedRelease(t *testing.T) {
	p := DefaultProtocol()
	p.RelaxedRelease = true
	_, err := Explore([][]Op{{OpWrite}, {OpRead}}, WithProtocol(p))
	var v *Violation
	require.ErrorAs(t, err, &v)
	require.Contains(t, v.Reason, "data race")
}

func TestExplore_DetectsLostRelease(t *testing.T) {
	p := DefaultProtocol()
	p.ReleaseRead = func(s uintptr) uintptr { return s }
	_, err := Explore([][]Op{{OpRead}, {OpWrite}}, WithProtocol(p))
	var v *Violation
	require.ErrorAs(t, err, &v)
	require.Equal(t, state.OneReader, v.State)
}

func TestExplore_DetectsDeadlock(t *testing.T) {
	p := DefaultProtocol()
	p.Write = func(uintptr) (uintptr, bool) { return 0, false }
	_, err := Explore([][]Op{{OpWrite}}, WithProtocol(p))
	var v *Violation
	require.ErrorAs(t, err, &v)
	require.Equal(t, "deadlock", v.Reason)
	require.Contains(t, v.Error(), "deadlock")
}

func TestExplore_Budget(t *testing.T) {
	_, err := Explore([][]Op{{OpRead}, {OpRead}, {OpRead}}, WithMaxRuns(10))
	require.ErrorIs(t, err, ErrBudget)
}

func TestExplore_InvalidProgram(t *testing.T) {
	_, err := Explore(nil)
	require.ErrorIs(t, err, ErrProgram)

	_, err = Explore(make([][]Op, MaxThreads+1))
	require.ErrorIs(t, err, ErrProgram)

	_, err = Explore([][]Op{{Op(200)}})
	require.ErrorIs(t, err, ErrProgram)

	_, err = Explore([][]Op{{OpRead}}, WithProtocol(Protocol{}))
	require.ErrorIs(t, err, ErrProgram)
}

func TestViolation_Error(t *testing.T) {
	v := &Violation{Reason: "boom", Schedule: []int{0, 1, 1}, State: state.Writer}
	require.Equal(t, "interleave: boom (state writer) after schedule 0 1 1", v.Error())
	require.True(t, errors.As(error(v), new(*Violation)))
}

func TestOp_String(t *testing.T) {
	require.Equal(t, "upgrade", OpUpgrade.String())
	require.Equal(t, "op(42)", Op(42).String())
}
