// Package synth searches for minimum-size chains.
//
// Every strategy asks the same question, "is there a chain of N steps?", to a SAT
// solver for increasing values of N, and returns the first chain found:
//
//   - Direct encodes every row of the truth tables up front;
//   - CEGAR starts without any row and adds the rows on which candidate chains fail;
//   - Fence also bounds the depth, trying every level structure of a given size by
//     increasing depth, so the chain found is depth-optimal for its size;
//   - ParallelFence spreads the fences of each (size, depth) class over several workers.
package synth

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/encoder"
	"github.com/crillab/exactsynth/fence"
	"github.com/crillab/exactsynth/gate"
	"github.com/crillab/exactsynth/metrics"
	"github.com/crillab/exactsynth/network"
	"github.com/crillab/exactsynth/sat"
	"github.com/crillab/exactsynth/spec"
)

var (
	// ErrSolverTimeout is returned when a solver call runs out of budget.
	ErrSolverTimeout = errors.New("solver timeout")
	// ErrBoundExhausted is returned when no chain exists below the size ceiling.
	ErrBoundExhausted = errors.New("size bound exhausted")
	// ErrExhausted is returned by an Enumerator once every chain was produced.
	ErrExhausted = errors.New("no more chains")
	// ErrVerification is returned when a chain does not compute its specification.
	ErrVerification = errors.New("chain does not match its specification")
)

const (
	strategyDirect   = "direct"
	strategyCEGAR    = "cegar"
	strategyFence    = "fence"
	strategyParallel = "parallel-fence"

	defaultAttemptBudget = 100 * time.Millisecond
)

// Options configures a search.
type Options struct {
	Family  *gate.Family
	Backend sat.Factory      // Defaults to gini.
	Encoder *encoder.Options // Defaults to encoder.DefaultOptions(Family).
	CEGAR   bool             // Add rows lazily, from counterexamples.
	Fence   bool             // Bound the depth with fences.
	Workers int              // With Fence, more than one worker runs the parallel search.

	MaxSteps      int           // Size ceiling. Defaults to Family.MaxSteps.
	AttemptBudget time.Duration // Length of a solver call in the parallel search.
	Verify        bool          // Check the chain found with a SAT miter.

	Logger  logrus.FieldLogger
	Metrics *metrics.Metrics
}

// An Attempt records one encoding sent to the solver.
type Attempt struct {
	Steps    int
	Fence    fence.Fence // Nil outside of fence search.
	Result   sat.Result
	Vars     int
	Clauses  int
	Duration time.Duration
}

// A Result is a chain along with the story of its search.
type Result struct {
	Chain    *chain.Chain
	Steps    int
	Depth    int
	Fence    fence.Fence // The fence the chain was found with, if any.
	Strategy string
	Attempts []Attempt
}

// Synthesize runs the strategy selected by opts.
func Synthesize(ctx context.Context, s *spec.Spec, opts Options) (*Result, error) {
	switch {
	case opts.Fence && opts.Workers > 1:
		return ParallelFence(ctx, s, opts)
	case opts.Fence:
		return Fence(ctx, s, opts)
	case opts.CEGAR:
		return CEGAR(ctx, s, opts)
	default:
		return Direct(ctx, s, opts)
	}
}

// Direct searches for a minimum-size chain, encoding every row of s at each size.
func Direct(ctx context.Context, s *spec.Spec, opts Options) (*Result, error) {
	opts.CEGAR = false
	sr, err := newSearcher(s, opts, strategyDirect)
	if err != nil {
		return nil, err
	}
	res, _, err := sr.sizeSearch(ctx)
	return res, err
}

// CEGAR searches for a minimum-size chain, encoding rows of s only when a candidate
// chain gets them wrong.
func CEGAR(ctx context.Context, s *spec.Spec, opts Options) (*Result, error) {
	opts.CEGAR = true
	sr, err := newSearcher(s, opts, strategyCEGAR)
	if err != nil {
		return nil, err
	}
	res, _, err := sr.sizeSearch(ctx)
	return res, err
}

// A searcher holds what all the attempts of a search share.
type searcher struct {
	spec     *spec.Spec
	opts     Options
	enc      encoder.Options
	pb       *spec.Problem
	log      logrus.FieldLogger
	strategy string
}

func newSearcher(s *spec.Spec, opts Options, strategy string) (*searcher, error) {
	if opts.Family == nil {
		return nil, errors.New("no gate family")
	}
	if opts.Backend == nil {
		opts.Backend = func() sat.Solver { return sat.NewGini() }
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = opts.Family.MaxSteps
	}
	if opts.AttemptBudget <= 0 {
		opts.AttemptBudget = defaultAttemptBudget
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	enc := encoder.DefaultOptions(opts.Family)
	if opts.Encoder != nil {
		enc = *opts.Encoder
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	pb, err := s.Normalize(opts.Family, spec.NewCache())
	if err != nil {
		return nil, err
	}
	if !pb.AllTrivial() {
		if err := encoder.CheckFeasible(opts.Family, s.NbInputs, enc); err != nil {
			return nil, err
		}
	}
	return &searcher{
		spec:     s,
		opts:     opts,
		enc:      enc,
		pb:       pb,
		log:      log.WithFields(logrus.Fields{"family": opts.Family.Name, "strategy": strategy}),
		strategy: strategy,
	}, nil
}

func (sr *searcher) initialSteps() int {
	if sr.spec.InitialSteps < 1 {
		return 1
	}
	return sr.spec.InitialSteps
}

// sizeSearch tries increasing sizes until an attempt is satisfiable. The satisfied
// attempt is returned along with the result, so that more chains can be drawn from it.
func (sr *searcher) sizeSearch(ctx context.Context) (*Result, *attempt, error) {
	res := &Result{Strategy: sr.strategy}
	if triv := sr.pb.TrivialChain(); triv != nil {
		if err := sr.finish(res, triv); err != nil {
			return nil, nil, err
		}
		return res, nil, nil
	}
	solver := sr.opts.Backend()
	for n := sr.initialSteps(); n <= sr.opts.MaxSteps; n++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrap(err, "search interrupted")
		}
		a := sr.prepare(solver, n, nil)
		r, sol, err := a.solve(sr.spec.Budget)
		res.Attempts = append(res.Attempts, a.info)
		if err != nil {
			return nil, nil, err
		}
		switch r {
		case sat.Sat:
			if err := sr.finish(res, sol.Chain); err != nil {
				return nil, nil, err
			}
			return res, a, nil
		case sat.Timeout:
			return nil, nil, errors.Wrapf(ErrSolverTimeout, "%d steps", n)
		}
	}
	return nil, nil, errors.Wrapf(ErrBoundExhausted, "no chain of at most %d steps", sr.opts.MaxSteps)
}

// finish fills res with c, after checking it if required.
func (sr *searcher) finish(res *Result, c *chain.Chain) error {
	if err := sr.verify(c); err != nil {
		return err
	}
	res.Chain = c
	res.Steps = c.Size()
	res.Depth = c.Depth()
	sr.opts.Metrics.ObserveChain(sr.strategy, res.Steps)
	sr.log.WithFields(logrus.Fields{
		"steps":    res.Steps,
		"depth":    res.Depth,
		"attempts": len(res.Attempts),
	}).Info("chain found")
	return nil
}

func (sr *searcher) verify(c *chain.Chain) error {
	if !sr.opts.Verify {
		return nil
	}
	n, err := network.Build(c)
	if err != nil {
		return errors.Wrap(ErrVerification, err.Error())
	}
	row, found, err := n.Counterexample(sr.spec)
	if err != nil {
		return errors.Wrap(ErrVerification, err.Error())
	}
	if found {
		return errors.Wrapf(ErrVerification, "wrong value on row %d", row)
	}
	return nil
}

// mismatch returns the first row on which c differs from the specification.
func (sr *searcher) mismatch(c *chain.Chain) (int, bool) {
	outs := c.Simulate()
	for r := 0; r < 1<<uint(sr.spec.NbInputs); r++ {
		for h, f := range sr.spec.Functions {
			dc := sr.spec.DontCare(h)
			if dc.Valid() && dc.Bit(r) {
				continue
			}
			if outs[h].Bit(r) != f.Bit(r) {
				return r, true
			}
		}
	}
	return 0, false
}
