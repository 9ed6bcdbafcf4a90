package synth

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/crillab/exactsynth/encoder"
	"github.com/crillab/exactsynth/fence"
	"github.com/crillab/exactsynth/sat"
)

// An attempt is the encoding of one size, or one fence, loaded in a solver.
type attempt struct {
	sr      *searcher
	solver  sat.Solver
	layout  *encoder.Layout
	builder *encoder.Builder
	info    Attempt
}

// prepare resets solver and loads the encoding of a chain of nbSteps steps, shaped
// by f if it is not nil. In CEGAR mode, no row is encoded yet.
func (sr *searcher) prepare(solver sat.Solver, nbSteps int, f fence.Fence) *attempt {
	start := time.Now()
	solver.Restart()
	l := encoder.Allocate(sr.opts.Family, sr.spec.NbInputs, nbSteps, len(sr.pb.Targets), f, sr.enc)
	b := encoder.NewBuilder(l, sr.pb.Targets, solver)
	if sr.opts.CEGAR {
		b.EncodeBase()
	} else {
		b.Encode()
	}
	sr.opts.Metrics.ObserveEncode(b.NbClauses(), time.Since(start))
	return &attempt{
		sr:      sr,
		solver:  solver,
		layout:  l,
		builder: b,
		info:    Attempt{Steps: nbSteps, Fence: f, Vars: l.NbVars()},
	}
}

// solve runs the solver until it proves a chain exists or does not.
// In CEGAR mode, every candidate chain is simulated and the first row it gets wrong
// is encoded before solving again.
func (a *attempt) solve(budget time.Duration) (sat.Result, *encoder.Solution, error) {
	sr := a.sr
	for {
		start := time.Now()
		res := a.solver.Solve(budget)
		elapsed := time.Since(start)
		sr.opts.Metrics.ObserveSolve(res.String(), elapsed)
		a.info.Result = res
		a.info.Duration += elapsed
		a.info.Clauses = a.builder.NbClauses()
		sr.log.WithFields(logrus.Fields{
			"steps":   a.info.Steps,
			"fence":   a.info.Fence,
			"vars":    a.info.Vars,
			"clauses": a.info.Clauses,
			"result":  res,
		}).Debug("attempt")
		if res != sat.Sat {
			return res, nil, nil
		}
		sol := encoder.Decode(a.layout, sr.pb, a.solver)
		if !sr.opts.CEGAR {
			return sat.Sat, sol, nil
		}
		r, wrong := sr.mismatch(sol.Chain)
		if !wrong {
			return sat.Sat, sol, nil
		}
		before := a.builder.NbClauses()
		if !a.layout.Simulated(r) || !a.builder.AddRow(r) {
			return sat.Sat, nil, errors.Wrapf(ErrVerification, "decoded chain is wrong on encoded row %d", r)
		}
		sr.opts.Metrics.ObserveEncode(a.builder.NbClauses()-before, 0)
	}
}
