package interleave

import (
	"fmt"

	"github.com/llxisdsh/spinrw/internal/state"
)

type kind uint8

const (
	loadRead kind = iota
	casRead
	loadWrite
	casWrite
	drainWrite
	accessRead
	accessWrite
	releaseRead
	releaseWrite
	downgrade
)

// action is one atomic step of a compiled operation.
type action struct {
	kind kind
	// skip, when non-zero, is how far a failed try-acquisition jumps to
	// leave its operation.
	skip int
}

func compile(op Op, drain bool) []action {
	read := []action{{kind: loadRead}, {kind: casRead}, {kind: accessRead}, {kind: releaseRead}}
	acquire := []action{{kind: loadWrite}, {kind: casWrite}}
	if drain {
		acquire = append(acquire, action{kind: drainWrite})
	}
	write := append(acquire[:len(acquire):len(acquire)], action{kind: accessWrite}, action{kind: releaseWrite})
	switch op {
	case OpRead:
		return read
	case OpWrite:
		return write
	case OpTryRead:
		// A lost CAS is retried, like the runtime tryRLock; only a writer
		// turns a try-read away.
		return []action{{kind: loadRead, skip: 4}, {kind: casRead}, {kind: accessRead}, {kind: releaseRead}}
	case OpTryWrite:
		try := append([]action(nil), write...)
		try[0].skip = len(try)
		try[1].skip = len(try) - 1
		return try
	case OpUpgrade:
		return append(read, write...)
	case OpDowngrade:
		return append(acquire[:len(acquire):len(acquire)],
			action{kind: accessWrite}, action{kind: downgrade}, action{kind: accessRead}, action{kind: releaseRead})
	}
	return nil
}

type thread struct {
	actions  []action
	pc       int
	observed uintptr
	reading  bool
	writing  bool
	vc       clock
}

// world is one node of the schedule tree.
type world struct {
	word    uintptr
	wc      clock // clock published through the word
	threads []thread
	payload shadow
}

func newWorld(n int) *world {
	w := &world{
		wc:      newClock(n),
		threads: make([]thread, n),
		payload: newShadow(n),
	}
	for tid := range w.threads {
		w.threads[tid].vc = newClock(n)
		w.threads[tid].vc[tid] = 1
	}
	return w
}

func (w *world) clone() *world {
	out := &world{
		word:    w.word,
		wc:      w.wc.clone(),
		threads: make([]thread, len(w.threads)),
		payload: w.payload.clone(),
	}
	for tid, t := range w.threads {
		t.vc = t.vc.clone()
		out.threads[tid] = t
	}
	return out
}

func (w *world) done() bool {
	for _, t := range w.threads {
		if t.pc < len(t.actions) {
			return false
		}
	}
	return true
}

func (w *world) enabled(tid int, p *Protocol) bool {
	t := &w.threads[tid]
	if t.pc >= len(t.actions) {
		return false
	}
	a := t.actions[t.pc]
	switch {
	case a.kind == loadRead && a.skip == 0:
		_, ok := p.Read(w.word)
		return ok
	case a.kind == loadWrite && a.skip == 0:
		_, ok := p.Write(w.word)
		return ok
	case a.kind == drainWrite:
		return p.Drained(w.word)
	}
	return true
}

// step executes the next action of tid and returns a non-empty reason if
// an invariant broke.
func (w *world) step(tid int, p *Protocol) string {
	t := &w.threads[tid]
	a := t.actions[t.pc]
	switch a.kind {
	case loadRead:
		if _, ok := p.Read(w.word); !ok {
			t.pc += a.skip
			return ""
		}
		t.observed = w.word
		t.pc++
	case casRead:
		if w.word != t.observed {
			t.pc-- // reload
			return ""
		}
		w.word, _ = p.Read(t.observed)
		t.reading = true
		t.vc.join(w.wc)
		t.pc++
	case loadWrite:
		next, ok := p.Write(w.word)
		// A try-write succeeds only if it would hold the lock at once.
		if a.skip != 0 && ok && p.Drained != nil {
			ok = p.Drained(next)
		}
		if !ok {
			t.pc += a.skip
			return ""
		}
		t.observed = w.word
		t.pc++
	case casWrite:
		if w.word != t.observed {
			if a.skip != 0 {
				t.pc += a.skip
			} else {
				t.pc--
			}
			return ""
		}
		w.word, _ = p.Write(t.observed)
		t.writing = p.Drained == nil
		t.vc.join(w.wc)
		t.pc++
	case drainWrite:
		t.writing = true
		t.vc.join(w.wc)
		t.pc++
	case accessRead:
		if w.payload.onRead(tid, t.vc) {
			return fmt.Sprintf("data race: thread %d read the payload", tid)
		}
		t.pc++
		return ""
	case accessWrite:
		if w.payload.onWrite(tid, t.vc) {
			return fmt.Sprintf("data race: thread %d wrote the payload", tid)
		}
		t.pc++
		return ""
	case releaseRead:
		w.word = p.ReleaseRead(w.word)
		t.reading = false
		// A read-modify-write extends the release sequence of the word.
		if !p.RelaxedRelease {
			w.wc.join(t.vc)
		}
		t.vc[tid]++
		t.pc++
	case releaseWrite, downgrade:
		if a.kind == downgrade {
			w.word = p.Downgraded
			t.reading = true
		} else {
			w.word = state.Unlocked
		}
		t.writing = false
		// A plain store starts a new release sequence.
		if p.RelaxedRelease {
			w.wc = newClock(len(w.threads))
		} else {
			w.wc = t.vc.clone()
		}
		t.vc[tid]++
		t.pc++
	}
	return w.validate(p)
}

func (w *world) validate(p *Protocol) string {
	var readers, writers int
	for _, t := range w.threads {
		if t.reading {
			readers++
		}
		if t.writing {
			writers++
		}
	}
	if err := p.Validate(w.word, readers, writers); err != nil {
		return err.Error()
	}
	return ""
}
