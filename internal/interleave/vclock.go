package interleave

// clock is a vector clock indexed by thread id.
//
// Key operations:
//   - join: synchronization (point-wise maximum), used on acquire
//   - covers: happens-before check of a single epoch
type clock []uint32

func newClock(n int) clock {
	return make(clock, n)
}

func (c clock) clone() clock {
	out := make(clock, len(c))
	copy(out, c)
	return out
}

// join performs point-wise maximum: c = c ⊔ other.
func (c clock) join(other clock) {
	for i, v := range other {
		if v > c[i] {
			c[i] = v
		}
	}
}

// covers reports whether the event at epoch e@tid happens-before the owner
// of c.
func (c clock) covers(tid int, e uint32) bool {
	return e <= c[tid]
}

// epoch is a single (thread, clock) pair naming one access.
type epoch struct {
	tid int
	at  uint32
}

var noEpoch = epoch{tid: -1}

// shadow tracks the accesses to the protected payload since the last write,
// in the manner of FastTrack: one write epoch and one read epoch per
// thread.
type shadow struct {
	write epoch
	reads []uint32
}

func newShadow(n int) shadow {
	return shadow{write: noEpoch, reads: make([]uint32, n)}
}

func (s shadow) clone() shadow {
	reads := make([]uint32, len(s.reads))
	copy(reads, s.reads)
	return shadow{write: s.write, reads: reads}
}

// onRead records a read by tid at clock vc and reports whether it races
// with the last write.
func (s *shadow) onRead(tid int, vc clock) bool {
	racy := s.write.tid >= 0 && s.write.tid != tid && !vc.covers(s.write.tid, s.write.at)
	s.reads[tid] = vc[tid]
	return racy
}

// onWrite records a write by tid at clock vc and reports whether it races
// with the last write or any read since.
func (s *shadow) onWrite(tid int, vc clock) bool {
	racy := s.write.tid >= 0 && s.write.tid != tid && !vc.covers(s.write.tid, s.write.at)
	for u, at := range s.reads {
		if u != tid && at != 0 && !vc.covers(u, at) {
			racy = true
		}
		s.reads[u] = 0
	}
	s.write = epoch{tid: tid, at: vc[tid]}
	return racy
}
