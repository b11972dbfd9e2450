// Package stress hammers the spin locks from many goroutines and checks,
// inside every critical section, that no reader coexists with a writer and
// that no reader observes a half-written payload.
package stress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llxisdsh/spinrw"
)

// ErrViolation is wrapped by every error reporting a broken lock guarantee.
var ErrViolation = errors.New("lock violation")

// Payload is updated field by field so that a torn read is observable.
type Payload struct {
	A, B uint64
}

// Lock is the surface of a stressed lock.
type Lock interface {
	Read() spinrw.ReadGuard[Payload]
	TryRead() (spinrw.ReadGuard[Payload], bool)
	Write() spinrw.WriteGuard[Payload]
	TryWrite() (spinrw.WriteGuard[Payload], bool)
}

// Result holds the counters of one lock's run.
type Result struct {
	Lock       string
	Reads      uint64
	Writes     uint64
	Upgrades   uint64
	Downgrades uint64
	TryMisses  uint64
	Elapsed    time.Duration
}

// Ops returns the number of completed acquisitions.
func (r Result) Ops() uint64 {
	return r.Reads + r.Writes
}

// Runner executes the configured stress runs.
type Runner struct {
	cfg   Config
	log   *slog.Logger
	locks map[string]func() Lock
}

// Option configures a Runner.
type Option func(*Runner)

// WithLock makes runs named name stress the locks built by newLock.
func WithLock(name string, newLock func() Lock) Option {
	return func(r *Runner) {
		r.locks[name] = newLock
	}
}

func New(cfg Config, log *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg: cfg,
		log: log,
		locks: map[string]func() Lock{
			LockRW: func() Lock { return spinrw.New(Payload{}) },
			LockWP: func() Lock { return spinrw.NewWP(Payload{}) },
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run stresses every configured lock in turn.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, len(r.cfg.Locks))
	for _, name := range r.cfg.Locks {
		newLock, ok := r.locks[name]
		if !ok {
			return results, fmt.Errorf("unknown lock %q", name)
		}

		res, err := r.runOne(ctx, name, newLock())
		if err != nil {
			r.log.Error("stress run failed", slog.String("lock", name), slog.Any("err", err))
			return results, fmt.Errorf("%s: %w", name, err)
		}
		r.log.Info("stress run finished",
			slog.String("lock", name),
			slog.Uint64("ops", res.Ops()),
			slog.Duration("elapsed", res.Elapsed),
		)
		results = append(results, res)
	}
	return results, nil
}

type run struct {
	cfg     Config
	l       Lock
	readers atomic.Int32
	writers atomic.Int32

	reads, writes, upgrades, downgrades, misses atomic.Uint64
}

func (r *Runner) runOne(ctx context.Context, name string, l Lock) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Duration.Duration)
	defer cancel()

	st := &run{cfg: r.cfg, l: l}
	g, ctx := errgroup.WithContext(ctx)
	start := time.Now()
	for i := range r.cfg.Readers {
		g.Go(func() error {
			r.log.Debug("reader started", slog.String("lock", name), slog.Int("worker", i))
			return st.reader(ctx)
		})
	}
	for i := range r.cfg.Writers {
		g.Go(func() error {
			r.log.Debug("writer started", slog.String("lock", name), slog.Int("worker", i))
			return st.writer(ctx)
		})
	}
	err := g.Wait()

	res := Result{
		Lock:       name,
		Reads:      st.reads.Load(),
		Writes:     st.writes.Load(),
		Upgrades:   st.upgrades.Load(),
		Downgrades: st.downgrades.Load(),
		TryMisses:  st.misses.Load(),
		Elapsed:    time.Since(start),
	}
	if err != nil {
		return res, err
	}

	// Every write bumps both fields once.
	final := l.Read()
	defer final.Release()
	if p := final.Get(); p.A != p.B || p.A != res.Writes {
		return res, fmt.Errorf("%w: final payload %+v after %d writes", ErrViolation, p, res.Writes)
	}
	return res, nil
}

// checkInterval is the number of operations between context checks.
const checkInterval = 64

func (st *run) reader(ctx context.Context) error {
	for n := 1; ; n++ {
		if n%checkInterval == 0 && ctx.Err() != nil {
			return nil
		}

		var g spinrw.ReadGuard[Payload]
		if st.cfg.TryEvery > 0 && n%st.cfg.TryEvery == 0 {
			var ok bool
			if g, ok = st.l.TryRead(); !ok {
				st.misses.Add(1)
				continue
			}
		} else {
			g = st.l.Read()
		}

		if err := st.enterRead(g.Get()); err != nil {
			g.Release()
			return err
		}
		st.readers.Add(-1)
		st.reads.Add(1)

		if st.cfg.UpgradeEvery > 0 && n%st.cfg.UpgradeEvery == 0 {
			w := g.Upgrade()
			err := st.write(&w)
			w.Release()
			if err != nil {
				return err
			}
			st.upgrades.Add(1)
			continue
		}
		g.Release()
	}
}

func (st *run) writer(ctx context.Context) error {
	for n := 1; ; n++ {
		if n%checkInterval == 0 && ctx.Err() != nil {
			return nil
		}

		var w spinrw.WriteGuard[Payload]
		if st.cfg.TryEvery > 0 && n%st.cfg.TryEvery == 0 {
			var ok bool
			if w, ok = st.l.TryWrite(); !ok {
				st.misses.Add(1)
				continue
			}
		} else {
			w = st.l.Write()
		}

		if err := st.write(&w); err != nil {
			w.Release()
			return err
		}

		if st.cfg.UpgradeEvery > 0 && n%st.cfg.UpgradeEvery == 0 {
			g := w.Downgrade()
			err := st.enterRead(g.Get())
			if err == nil {
				st.readers.Add(-1)
				st.reads.Add(1)
				st.downgrades.Add(1)
			}
			g.Release()
			if err != nil {
				return err
			}
			continue
		}
		w.Release()
	}
}

// enterRead checks a read critical section. On success the caller holds
// one count in st.readers.
func (st *run) enterRead(p Payload) error {
	st.readers.Add(1)
	if n := st.writers.Load(); n != 0 {
		st.readers.Add(-1)
		return fmt.Errorf("%w: reader entered while %d writers active", ErrViolation, n)
	}
	if p.A != p.B {
		st.readers.Add(-1)
		return fmt.Errorf("%w: reader observed torn payload %+v", ErrViolation, p)
	}
	return nil
}

// write performs one checked write through w.
func (st *run) write(w *spinrw.WriteGuard[Payload]) error {
	defer st.writers.Add(-1)
	if n := st.writers.Add(1); n != 1 {
		return fmt.Errorf("%w: %d writers active", ErrViolation, n)
	}
	if n := st.readers.Load(); n != 0 {
		return fmt.Errorf("%w: writer entered while %d readers active", ErrViolation, n)
	}
	p := w.Ptr()
	p.A++
	p.B++
	st.writes.Add(1)
	return nil
}
