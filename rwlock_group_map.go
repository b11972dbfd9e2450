//go:build !race

package spinrw

import (
	"github.com/llxisdsh/pb"
)

// keyMap holds the live entries of an RWLockGroup, reference counted
// through the map's per-entry compute.
type keyMap[K comparable] struct {
	m pb.MapOf[K, *groupEntry]
}

func (km *keyMap[K]) ref(k K) *groupEntry {
	e, _ := km.m.ProcessEntry(
		k,
		func(l *pb.EntryOf[K, *groupEntry]) (*pb.EntryOf[K, *groupEntry], *groupEntry, bool) {
			if l != nil {
				l.Value.ref++
				return l, l.Value, true
			}
			e := &groupEntry{ref: 1}
			return &pb.EntryOf[K, *groupEntry]{Key: k, Value: e}, e, false
		},
	)
	return e
}

func (km *keyMap[K]) unref(k K) {
	km.m.ProcessEntry(
		k,
		func(l *pb.EntryOf[K, *groupEntry]) (*pb.EntryOf[K, *groupEntry], *groupEntry, bool) {
			if l == nil {
				return nil, nil, false
			}
			l.Value.ref--
			if l.Value.ref <= 0 {
				return nil, nil, true
			}
			return l, l.Value, true
		},
	)
}

func (km *keyMap[K]) size() int {
	return km.m.Size()
}
