package spinrw

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRWLockGroup_Basic(t *testing.T) {
	var g RWLockGroup[string]
	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)

	// Test Concurrent Readers
	for range n {
		go func() {
			defer wg.Done()
			kg := g.Read("key")
			time.Sleep(time.Microsecond)
			kg.Release()
		}()
	}
	wg.Wait()
	require.Zero(t, g.Len())

	// Test Writer Exclusion
	w := g.Write("key")
	done := make(chan struct{})
	go func() {
		kg := g.Read("key") // Should spin
		close(done)
		kg.Release()
	}()

	select {
	case <-done:
		t.Fatal("Read acquired while Write held")
	case <-time.After(10 * time.Millisecond):
	}
	w.Release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Read not acquired after Release")
	}
}

func TestRWLockGroup_RefCounting(t *testing.T) {
	var g RWLockGroup[int]

	r1 := g.Read(1)
	r2 := g.Read(1)
	require.Equal(t, 1, g.Len())
	require.Equal(t, 1, r1.Key())

	r1.Release()
	require.Equal(t, 1, g.Len(), "entry dropped while still held")
	r1.Release()
	require.Equal(t, 1, g.Len(), "double release dropped a reference")

	r2.Release()
	require.Zero(t, g.Len(), "entry should be auto-deleted after the last release")
}

func TestRWLockGroup_KeysAreIndependent(t *testing.T) {
	var g RWLockGroup[string]
	a := g.Write("a")
	defer a.Release()

	b, ok := g.TryWrite("b")
	require.True(t, ok)
	b.Release()

	_, ok = g.TryRead("a")
	require.False(t, ok)
	_, ok = g.TryWrite("a")
	require.False(t, ok)
	require.Equal(t, 1, g.Len(), "failed try must not leak a reference")
}

func TestRWLockGroup_TryRead(t *testing.T) {
	var g RWLockGroup[string]
	r, ok := g.TryRead("k")
	require.True(t, ok)
	require.True(t, r.Valid())

	r2, ok := g.TryRead("k")
	require.True(t, ok)
	_, ok = g.TryWrite("k")
	require.False(t, ok)

	r.Release()
	r2.Release()
	require.False(t, r.Valid())
	require.Zero(t, g.Len())
}

func TestRWLockGroup_Counters(t *testing.T) {
	var g RWLockGroup[int]
	counters := make([]int, 4)
	n := loops(200)

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range n {
				k := (w + i) % len(counters)
				kg := g.Write(k)
				counters[k]++
				kg.Release()
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, c := range counters {
		total += c
	}
	require.Equal(t, 8*n, total)
	require.Zero(t, g.Len())
}

func TestRWLockGroup_ConcurrentColdStart(t *testing.T) {
	var g RWLockGroup[int]
	var counters [2]int
	n := loops(100)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := range n {
				k := (w + i) % 2
				kg := g.Write(k)
				counters[k]++
				kg.Release()

				r := g.Read(k)
				_ = counters[k]
				r.Release()
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, 8*n, counters[0]+counters[1])
	require.Zero(t, g.Len())
}
