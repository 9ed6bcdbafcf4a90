// Package encoder translates the question "does a chain of N steps realize
// these targets?" into CNF, and decodes models back into chains.
//
// A Layout fixes the variables of one attempt, a Builder emits its clauses to
// a sat.Solver and Decode reads the chain back from a model.
package encoder

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/crillab/exactsynth/fence"
	"github.com/crillab/exactsynth/gate"
	"github.com/crillab/exactsynth/sat"
)

// ErrInfeasible is returned when no step can be built from the available nodes.
var ErrInfeasible = errors.New("no fanin tuple available")

// Options tunes the encoding.
type Options struct {
	AtLeastOnce bool // Every step but the last one feeds a later step or an output.
	Colex       bool // Consecutive independent steps have colex-ordered fanins.
	TwoConst    bool // Allow tuples starting with two constant fanins.
	TwoEqual    bool // Allow tuples with one duplicated non-constant fanin.
}

// DefaultOptions returns the usual options for the given family.
func DefaultOptions(family *gate.Family) Options {
	return Options{
		AtLeastOnce: true,
		Colex:       family.Colex,
		TwoConst:    family.Relaxed.TwoConst,
		TwoEqual:    family.Relaxed.TwoEqual,
	}
}

// A Layout maps every variable of an attempt to its id.
// Ids are dense and start at 1. Selection variables come first, followed by
// operator, simulation, output-selector and output-polarity variables.
type Layout struct {
	Family    *gate.Family
	NbInputs  int
	NbSteps   int
	NbTargets int
	Fence     fence.Fence // Optional.
	Options   Options

	rowBase   int   // First simulated row: 1 for normal families, 0 otherwise.
	nbRows    int   // Number of simulated rows.
	levels    []int // Level of each node, only under a fence.
	tuples    [][][]int
	selOffset []int // selOffset[i] is the id of the first selection variable of step i.
	opOffset  int
	simOffset int
	outOffset int
	polOffset int
	nbVars    int
}

// Allocate computes the layout of an attempt at nbSteps steps. f may be nil.
// It panics when f does not describe nbSteps steps or leaves a step without any fanin tuple.
func Allocate(family *gate.Family, nbInputs, nbSteps, nbTargets int, f fence.Fence, opts Options) *Layout {
	if f != nil {
		if !f.Valid() {
			panic(fmt.Sprintf("invalid fence %v", f))
		}
		if f.Size() != nbSteps {
			panic(fmt.Sprintf("fence %v has %d steps, expected %d", f, f.Size(), nbSteps))
		}
	}
	l := &Layout{
		Family:    family,
		NbInputs:  nbInputs,
		NbSteps:   nbSteps,
		NbTargets: nbTargets,
		Fence:     f,
		Options:   opts,
	}
	if family.Normal() {
		l.rowBase = 1
	}
	l.nbRows = (1 << uint(nbInputs)) - l.rowBase
	if f != nil {
		l.levels = make([]int, nbInputs+1, nbInputs+1+nbSteps)
		l.levels = append(l.levels, f.Levels()...)
	}
	l.tuples = make([][][]int, nbSteps)
	l.selOffset = make([]int, nbSteps)
	next := 1
	for i := range l.tuples {
		l.tuples[i] = l.stepTuples(i)
		if f != nil && len(l.tuples[i]) == 0 {
			panic(fmt.Sprintf("step %d has no fanin tuple under fence %v", i, f))
		}
		l.selOffset[i] = next
		next += len(l.tuples[i])
	}
	l.opOffset = next
	next += nbSteps * family.NbOps()
	l.simOffset = next
	next += nbSteps * l.nbRows
	l.outOffset = next
	if nbTargets > 1 {
		next += nbTargets * nbSteps
	}
	l.polOffset = next
	if !family.Normal() {
		next += nbTargets
	}
	l.nbVars = next - 1
	return l
}

// CheckFeasible returns an error wrapping ErrInfeasible when the first step of a chain
// over nbInputs inputs has no fanin tuple.
func CheckFeasible(family *gate.Family, nbInputs int, opts Options) error {
	if len(tuples(family.Arity, nbInputs, opts)) == 0 {
		return errors.Wrapf(ErrInfeasible, "%s gates need more than %d inputs", family.Name, nbInputs)
	}
	return nil
}

// stepTuples returns the fanin tuples of step i.
func (l *Layout) stepTuples(i int) [][]int {
	if l.Fence == nil {
		return tuples(l.Family.Arity, l.NbInputs+i, l.Options)
	}
	level := l.levels[l.Node(i)]
	maxNode := 0
	for node, lvl := range l.levels {
		if lvl < level {
			maxNode = node
		}
	}
	all := tuples(l.Family.Arity, maxNode, l.Options)
	res := all[:0]
	for _, t := range all {
		if l.levels[t[len(t)-1]] == level-1 {
			res = append(res, t)
		}
	}
	return res
}

// tuples returns the fanin tuples of a gate reading nodes 0..maxNode:
// strictly increasing combinations in colex order, then the relaxed tuples.
func tuples(arity, maxNode int, opts Options) [][]int {
	res := combinations(0, maxNode, arity)
	if opts.TwoConst && arity >= 3 {
		for _, c := range combinations(1, maxNode, arity-2) {
			res = append(res, append([]int{0, 0}, c...))
		}
	}
	if opts.TwoConst && opts.TwoEqual && arity >= 4 {
		for _, c := range combinations(1, maxNode, arity-3) {
			t := append([]int{0, 0, c[0]}, c...)
			res = append(res, t)
		}
	}
	if opts.TwoEqual && arity >= 2 {
		for _, c := range combinations(1, maxNode, arity-1) {
			for k := range c {
				t := make([]int, 0, arity)
				t = append(t, c[:k+1]...)
				t = append(t, c[k:]...)
				res = append(res, t)
			}
		}
	}
	return res
}

// combinations returns the strictly increasing k-tuples of [lo, hi], in colex order.
func combinations(lo, hi, k int) [][]int {
	if k == 0 {
		return [][]int{{}}
	}
	var res [][]int
	for last := lo + k - 1; last <= hi; last++ {
		for _, c := range combinations(lo, last-1, k-1) {
			t := make([]int, 0, k)
			t = append(t, c...)
			res = append(res, append(t, last))
		}
	}
	return res
}

// colexLess returns true iff t1 comes strictly before t2 in colex order.
func colexLess(t1, t2 []int) bool {
	for j := len(t1) - 1; j >= 0; j-- {
		if t1[j] != t2[j] {
			return t1[j] < t2[j]
		}
	}
	return false
}

// NbVars returns the number of variables of the attempt.
func (l *Layout) NbVars() int { return l.nbVars }

// Node returns the node index of step i.
func (l *Layout) Node(i int) int { return l.NbInputs + 1 + i }

// Tuples returns the fanin tuples of step i. The slice must not be modified.
func (l *Layout) Tuples(i int) [][]int { return l.tuples[i] }

// Rows returns the simulated rows, in increasing order.
func (l *Layout) Rows() []int {
	res := make([]int, l.nbRows)
	for k := range res {
		res[k] = l.rowBase + k
	}
	return res
}

// Simulated returns true iff row r has simulation variables.
func (l *Layout) Simulated(r int) bool { return r >= l.rowBase && r < l.rowBase+l.nbRows }

// SelVar returns the variable selecting tuple k for step i.
func (l *Layout) SelVar(i, k int) sat.Var { return sat.Var(l.selOffset[i] + k) }

// OpVar returns the variable selecting operator op for step i.
func (l *Layout) OpVar(i, op int) sat.Var {
	return sat.Var(l.opOffset + i*l.Family.NbOps() + op)
}

// SimVar returns the variable holding the value of step i on row r.
func (l *Layout) SimVar(i, r int) sat.Var {
	return sat.Var(l.simOffset + i*l.nbRows + r - l.rowBase)
}

// OutVar returns the variable telling target h is computed by step i.
// Only defined with several targets.
func (l *Layout) OutVar(h, i int) sat.Var {
	return sat.Var(l.outOffset + h*l.NbSteps + i)
}

// PolVar returns the variable telling target h is computed complemented.
// Only defined for families that are not normal.
func (l *Layout) PolVar(h int) sat.Var { return sat.Var(l.polOffset + h) }

// NbSelVars returns the number of selection variables.
func (l *Layout) NbSelVars() int { return l.opOffset - 1 }
