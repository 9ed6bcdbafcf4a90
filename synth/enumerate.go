package synth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/encoder"
	"github.com/crillab/exactsynth/sat"
	"github.com/crillab/exactsynth/spec"
)

// An Enumerator produces every minimum-size chain of a specification, up to operators:
// two chains it returns never have the same fanins for all their steps.
type Enumerator struct {
	sr      *searcher
	attempt *attempt
	last    *encoder.Solution
	result  *Result
	done    bool
}

// NewEnumerator returns an enumerator of the minimum-size chains of s.
// The size search runs Direct, or CEGAR when opts.CEGAR is set; opts.Fence is ignored.
func NewEnumerator(s *spec.Spec, opts Options) (*Enumerator, error) {
	strategy := strategyDirect
	if opts.CEGAR {
		strategy = strategyCEGAR
	}
	sr, err := newSearcher(s, opts, strategy)
	if err != nil {
		return nil, err
	}
	return &Enumerator{sr: sr}, nil
}

// Result returns the result of the size search, once Next was called successfully.
func (e *Enumerator) Result() *Result { return e.result }

// Next returns the next chain. It returns an error wrapping ErrExhausted once every
// chain was returned.
func (e *Enumerator) Next(ctx context.Context) (*chain.Chain, error) {
	if e.done {
		return nil, ErrExhausted
	}
	if e.result == nil {
		res, a, err := e.sr.sizeSearch(ctx)
		if err != nil {
			return nil, err
		}
		e.result = res
		if a == nil {
			// The zero-step chain is the only one.
			e.done = true
			return res.Chain, nil
		}
		e.attempt = a
		e.last = encoder.Decode(a.layout, e.sr.pb, a.solver)
		return res.Chain, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "enumeration interrupted")
	}
	a := e.attempt
	encoder.Block(a.layout, a.solver, e.last)
	r, sol, err := a.solve(e.sr.spec.Budget)
	if err != nil {
		return nil, err
	}
	switch r {
	case sat.Unsat:
		e.done = true
		return nil, ErrExhausted
	case sat.Timeout:
		return nil, errors.Wrapf(ErrSolverTimeout, "%d steps", a.layout.NbSteps)
	}
	if err := e.sr.verify(sol.Chain); err != nil {
		return nil, err
	}
	e.last = sol
	return sol.Chain, nil
}
