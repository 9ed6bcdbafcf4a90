package encoder

import (
	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/sat"
	"github.com/crillab/exactsynth/spec"
)

// A Solution is a chain read from a model, along with the tuple each step selected.
type Solution struct {
	Chain     *chain.Chain
	Selection []int // Selection[i] is the index of the tuple of step i in Layout.Tuples(i).
}

// Decode reads the chain from the model of s, which must have been satisfied by the
// clauses of l. Each step takes its first asserted tuple and its first asserted operator.
// Trivial outputs of pb come from their bindings.
func Decode(l *Layout, pb *spec.Problem, s sat.Solver) *Solution {
	c := chain.New(l.Family, l.NbInputs)
	sol := &Solution{Chain: c, Selection: make([]int, l.NbSteps)}
	for i := 0; i < l.NbSteps; i++ {
		op := 0
		for o := 0; o < l.Family.NbOps(); o++ {
			if s.Value(l.OpVar(i, o)) {
				op = o
				break
			}
		}
		sel := 0
		for k := range l.Tuples(i) {
			if s.Value(l.SelVar(i, k)) {
				sel = k
				break
			}
		}
		sol.Selection[i] = sel
		c.AddStep(op, append([]int(nil), l.Tuples(i)[sel]...)...)
	}
	for _, b := range pb.Bindings {
		if b.Trivial {
			c.AddOutput(b.Node, b.Inverted)
			continue
		}
		step := l.NbSteps - 1
		if l.NbTargets > 1 {
			for i := 0; i < l.NbSteps; i++ {
				if s.Value(l.OutVar(b.Target, i)) {
					step = i
					break
				}
			}
		}
		inv := pb.Targets[b.Target].Inverted
		if !l.Family.Normal() && s.Value(l.PolVar(b.Target)) {
			inv = !inv
		}
		c.AddOutput(l.Node(step), inv)
	}
	return sol
}

// Block forbids the wiring of sol in later models: at least one step has to drop the tuple it selected.
func Block(l *Layout, s sat.Solver, sol *Solution) {
	lits := make([]sat.Lit, len(sol.Selection))
	for i, k := range sol.Selection {
		lits[i] = l.SelVar(i, k).Neg()
	}
	s.AddClause(lits...)
}
