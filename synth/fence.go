package synth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/crillab/exactsynth/encoder"
	"github.com/crillab/exactsynth/fence"
	"github.com/crillab/exactsynth/sat"
	"github.com/crillab/exactsynth/spec"
)

// Fence searches for a minimum-size chain, trying fences by increasing size, then
// increasing depth. The chain found has the smallest depth among the chains of its size.
func Fence(ctx context.Context, s *spec.Spec, opts Options) (*Result, error) {
	sr, err := newSearcher(s, opts, strategyFence)
	if err != nil {
		return nil, err
	}
	res := &Result{Strategy: sr.strategy}
	if triv := sr.pb.TrivialChain(); triv != nil {
		if err := sr.finish(res, triv); err != nil {
			return nil, err
		}
		return res, nil
	}
	solver := sr.opts.Backend()
	gen := fence.NewGenerator(sr.initialSteps(), sr.opts.Family.Arity, len(sr.pb.Targets))
	for {
		f := gen.Next()
		if f.Size() > sr.opts.MaxSteps {
			return nil, errors.Wrapf(ErrBoundExhausted, "no chain of at most %d steps", sr.opts.MaxSteps)
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "search interrupted")
		}
		a := sr.prepare(solver, f.Size(), f)
		r, sol, err := a.solve(sr.spec.Budget)
		res.Attempts = append(res.Attempts, a.info)
		if err != nil {
			return nil, err
		}
		switch r {
		case sat.Sat:
			res.Fence = f
			if err := sr.finish(res, sol.Chain); err != nil {
				return nil, err
			}
			return res, nil
		case sat.Timeout:
			return nil, errors.Wrapf(ErrSolverTimeout, "fence %v", f)
		}
	}
}

// ParallelFence is Fence with the fences of each (size, depth) class spread over
// opts.Workers workers, each owning its own solver. A class is finished before the
// next one starts, so the size and depth found are the ones Fence finds.
func ParallelFence(ctx context.Context, s *spec.Spec, opts Options) (*Result, error) {
	sr, err := newSearcher(s, opts, strategyParallel)
	if err != nil {
		return nil, err
	}
	res := &Result{Strategy: sr.strategy}
	if triv := sr.pb.TrivialChain(); triv != nil {
		if err := sr.finish(res, triv); err != nil {
			return nil, err
		}
		return res, nil
	}
	arity, nbTargets := sr.opts.Family.Arity, len(sr.pb.Targets)
	for size := sr.initialSteps(); size <= sr.opts.MaxSteps; size++ {
		for depth := 1; depth <= size; depth++ {
			fences := fence.Filtered(size, depth, arity, nbTargets)
			if len(fences) == 0 {
				continue
			}
			sr.log.WithFields(logrus.Fields{"steps": size, "depth": depth, "fences": len(fences)}).Debug("class")
			found, attempts, err := sr.runClass(ctx, fences)
			res.Attempts = append(res.Attempts, attempts...)
			if err != nil {
				return nil, err
			}
			if found != nil {
				res.Fence = found.fence
				if err := sr.finish(res, found.sol.Chain); err != nil {
					return nil, err
				}
				return res, nil
			}
		}
	}
	return nil, errors.Wrapf(ErrBoundExhausted, "no chain of at most %d steps", sr.opts.MaxSteps)
}

type found struct {
	sol   *encoder.Solution
	fence fence.Fence
}

// A resultCell holds the first solution found by the workers of a class.
// Setting it cancels the class.
type resultCell struct {
	v      atomic.Pointer[found]
	cancel context.CancelFunc
}

// set stores f if the cell is empty, and returns true iff it did.
func (c *resultCell) set(f *found) bool {
	if c.v.CompareAndSwap(nil, f) {
		c.cancel()
		return true
	}
	return false
}

func (c *resultCell) get() *found { return c.v.Load() }

// runClass looks for a satisfiable fence among fences. It returns nil if there is none.
func (sr *searcher) runClass(ctx context.Context, fences []fence.Fence) (*found, []Attempt, error) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	cell := &resultCell{cancel: cancel}
	work := make(chan fence.Fence, 3*sr.opts.Workers)

	var (
		mu       sync.Mutex
		attempts []Attempt
	)
	g, gctx := errgroup.WithContext(cctx)
	g.Go(func() error {
		defer close(work)
		for _, f := range fences {
			select {
			case work <- f:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})
	for w := 0; w < sr.opts.Workers; w++ {
		log := sr.log.WithField("worker", w)
		g.Go(func() error {
			solver := sr.opts.Backend()
			for f := range work {
				if cell.get() != nil || gctx.Err() != nil {
					continue
				}
				a := sr.prepare(solver, f.Size(), f)
				start := time.Now()
				r := sat.Timeout
				var sol *encoder.Solution
				for r == sat.Timeout && cell.get() == nil && gctx.Err() == nil {
					var err error
					r, sol, err = a.solve(sr.opts.AttemptBudget)
					if err != nil {
						return err
					}
					if r == sat.Timeout && sr.spec.Budget > 0 && time.Since(start) > sr.spec.Budget {
						return errors.Wrapf(ErrSolverTimeout, "fence %v", f)
					}
				}
				mu.Lock()
				attempts = append(attempts, a.info)
				mu.Unlock()
				if r == sat.Sat && cell.set(&found{sol: sol, fence: f}) {
					log.WithField("fence", f).Debug("fence satisfied")
				}
			}
			return nil
		})
	}
	err := g.Wait()
	if f := cell.get(); f != nil {
		return f, attempts, nil
	}
	if err != nil {
		return nil, attempts, err
	}
	if err := ctx.Err(); err != nil {
		return nil, attempts, errors.Wrap(err, "search interrupted")
	}
	return nil, attempts, nil
}
