package encoder

import (
	"github.com/crillab/exactsynth/sat"
	"github.com/crillab/exactsynth/spec"
	"github.com/crillab/exactsynth/tt"
)

// A Builder emits the clauses of an attempt to a solver.
type Builder struct {
	layout    *Layout
	targets   []spec.Target
	solver    sat.Solver
	buf       []sat.Lit
	fanins    []sat.Var // Distinct step fanins of the tuple being encoded.
	pos       []int     // pos[j] is the index in fanins of fanin j, or -1 if it is fixed.
	rows      []bool    // rows[r] is true once the clauses of row r were emitted.
	nbClauses int
}

// NewBuilder returns a builder for the given layout and targets.
// len(targets) must be l.NbTargets.
func NewBuilder(l *Layout, targets []spec.Target, s sat.Solver) *Builder {
	if len(targets) != l.NbTargets {
		panic("number of targets does not match layout")
	}
	return &Builder{
		layout:  l,
		targets: targets,
		solver:  s,
		buf:     make([]sat.Lit, 0, 64),
		fanins:  make([]sat.Var, 0, l.Family.Arity),
		pos:     make([]int, 0, l.Family.Arity),
		rows:    make([]bool, 1<<uint(l.NbInputs)),
	}
}

// Layout returns the layout the builder encodes.
func (b *Builder) Layout() *Layout { return b.layout }

// NbClauses returns the number of clauses emitted so far.
func (b *Builder) NbClauses() int { return b.nbClauses }

// Encode emits the whole encoding: the structure and every row.
func (b *Builder) Encode() {
	b.EncodeBase()
	for _, r := range b.layout.Rows() {
		b.AddRow(r)
	}
}

// EncodeBase emits the clauses that do not depend on any row: fanin selection, operator
// pruning, output selection and symmetry breaking.
func (b *Builder) EncodeBase() {
	b.solver.SetVarCount(b.layout.NbVars())
	b.addFanins()
	b.addPruning()
	b.addOutputSelection()
	if b.layout.Options.AtLeastOnce {
		b.addAtLeastOnce()
	}
	if b.layout.Options.Colex {
		b.addColex()
	}
}

// AddRow emits the clauses making the steps and the targets consistent on row r.
// Rows that are not simulated, or that were already added, are ignored.
// It returns false if row r had already been added.
func (b *Builder) AddRow(r int) bool {
	if !b.layout.Simulated(r) {
		return true
	}
	if b.rows[r] {
		return false
	}
	b.rows[r] = true
	for i := 0; i < b.layout.NbSteps; i++ {
		b.addConsistency(i, r)
	}
	b.addOutputs(r)
	return true
}

// HasRow returns true iff the clauses of row r were emitted.
func (b *Builder) HasRow(r int) bool { return b.rows[r] }

func (b *Builder) clear() { b.buf = b.buf[:0] }

func (b *Builder) push(lits ...sat.Lit) { b.buf = append(b.buf, lits...) }

func (b *Builder) emit() {
	b.nbClauses++
	b.solver.AddClause(b.buf...)
	b.clear()
}

func (b *Builder) addFanins() {
	l := b.layout
	for i := 0; i < l.NbSteps; i++ {
		for k := range l.Tuples(i) {
			b.push(l.SelVar(i, k).Pos())
		}
		b.emit()
	}
}

func (b *Builder) addPruning() {
	l := b.layout
	for i := 0; i < l.NbSteps; i++ {
		for k, t := range l.Tuples(i) {
			for op := 0; op < l.Family.NbOps(); op++ {
				if l.Family.Conflicting(op, t) {
					b.push(l.SelVar(i, k).Neg(), l.OpVar(i, op).Neg())
					b.emit()
				}
			}
		}
	}
}

// addOutputSelection binds every target to exactly one step, the last step being used
// by at least one of them. Nothing is needed for a single target, always computed by
// the last step.
func (b *Builder) addOutputSelection() {
	l := b.layout
	if l.NbTargets <= 1 {
		return
	}
	for h := 0; h < l.NbTargets; h++ {
		for i := 0; i < l.NbSteps; i++ {
			b.push(l.OutVar(h, i).Pos())
		}
		b.emit()
		for i := 0; i < l.NbSteps; i++ {
			for j := i + 1; j < l.NbSteps; j++ {
				b.push(l.OutVar(h, i).Neg(), l.OutVar(h, j).Neg())
				b.emit()
			}
		}
	}
	for h := 0; h < l.NbTargets; h++ {
		b.push(l.OutVar(h, l.NbSteps-1).Pos())
	}
	b.emit()
}

func contains(t []int, node int) bool {
	for _, n := range t {
		if n == node {
			return true
		}
	}
	return false
}

func (b *Builder) addAtLeastOnce() {
	l := b.layout
	for i := 0; i < l.NbSteps-1; i++ {
		node := l.Node(i)
		for j := i + 1; j < l.NbSteps; j++ {
			for k, t := range l.Tuples(j) {
				if contains(t, node) {
					b.push(l.SelVar(j, k).Pos())
				}
			}
		}
		if l.NbTargets > 1 {
			for h := 0; h < l.NbTargets; h++ {
				b.push(l.OutVar(h, i).Pos())
			}
		}
		b.emit()
	}
}

func (b *Builder) addColex() {
	l := b.layout
	var levels []int
	if l.Fence != nil {
		levels = l.Fence.Levels()
	}
	for i := 0; i+1 <= l.NbSteps-2; i++ {
		if levels != nil && levels[i] != levels[i+1] {
			continue
		}
		for k, t := range l.Tuples(i) {
			b.push(l.SelVar(i, k).Neg())
			for k2, t2 := range l.Tuples(i + 1) {
				if !colexLess(t2, t) {
					b.push(l.SelVar(i+1, k2).Pos())
				}
			}
			b.emit()
		}
	}
}

// value returns the literal of fanin node on row r: a fixed value for the constant and
// the inputs, a simulation variable for steps.
func (b *Builder) value(node, r int) (fixed, val bool, v sat.Var) {
	l := b.layout
	switch {
	case node == 0:
		return true, false, 0
	case node <= l.NbInputs:
		return true, tt.InputBit(r, node-1), 0
	default:
		return false, false, l.SimVar(node-l.NbInputs-1, r)
	}
}

// addConsistency forces the simulation variable of step i on row r to the value its
// operator gives to its fanins, for every tuple the step may select.
func (b *Builder) addConsistency(i, r int) {
	l := b.layout
	x := l.SimVar(i, r)
	for k, t := range l.Tuples(i) {
		sel := l.SelVar(i, k)
		b.fanins, b.pos = b.fanins[:0], b.pos[:0]
		base := 0 // Combination bits given by constant and input fanins.
		for j, node := range t {
			fixed, val, v := b.value(node, r)
			if fixed {
				b.pos = append(b.pos, -1)
				if val {
					base |= 1 << uint(j)
				}
				continue
			}
			idx := -1
			for d, w := range b.fanins {
				if w == v {
					idx = d
				}
			}
			if idx < 0 {
				idx = len(b.fanins)
				b.fanins = append(b.fanins, v)
			}
			b.pos = append(b.pos, idx)
		}
		for a := 0; a < 1<<uint(len(b.fanins)); a++ {
			combo := base
			for j, d := range b.pos {
				if d >= 0 && a&(1<<uint(d)) != 0 {
					combo |= 1 << uint(j)
				}
			}
			b.addImplication(sel, b.fanins, a, x, l.Family.OnSet(combo), l.Family.OffSet(combo), i)
		}
	}
}

// addImplication emits the clauses stating that, when sel is true and the step fanins
// have the values given by assignment a, x is true iff the operator of step i is in onSet.
func (b *Builder) addImplication(sel sat.Var, fanins []sat.Var, a int, x sat.Var, onSet, offSet []int, i int) {
	l := b.layout
	prefix := func() {
		b.push(sel.Neg())
		for d, v := range fanins {
			b.push(v.Lit(a&(1<<uint(d)) == 0))
		}
	}
	if len(onSet) == 0 {
		prefix()
		b.push(x.Neg())
		b.emit()
		return
	}
	if len(offSet) == 0 {
		prefix()
		b.push(x.Pos())
		b.emit()
		return
	}
	prefix()
	b.push(x.Neg())
	for _, op := range onSet {
		b.push(l.OpVar(i, op).Pos())
	}
	b.emit()
	for _, op := range offSet {
		prefix()
		b.push(x.Neg(), l.OpVar(i, op).Neg())
		b.emit()
	}
	prefix()
	b.push(x.Pos())
	for _, op := range offSet {
		b.push(l.OpVar(i, op).Pos())
	}
	b.emit()
	for _, op := range onSet {
		prefix()
		b.push(x.Pos(), l.OpVar(i, op).Neg())
		b.emit()
	}
}

// addOutputs binds the targets to their steps on row r.
func (b *Builder) addOutputs(r int) {
	l := b.layout
	normal := l.Family.Normal()
	for h, target := range b.targets {
		if !target.Care(r) {
			continue
		}
		want := target.Function.Bit(r)
		steps := []int{l.NbSteps - 1}
		if l.NbTargets > 1 {
			steps = steps[:0]
			for i := 0; i < l.NbSteps; i++ {
				steps = append(steps, i)
			}
		}
		for _, i := range steps {
			x := l.SimVar(i, r)
			sel := func() {
				if l.NbTargets > 1 {
					b.push(l.OutVar(h, i).Neg())
				}
			}
			if normal {
				sel()
				b.push(x.Lit(want))
				b.emit()
				continue
			}
			p := l.PolVar(h)
			sel()
			b.push(p.Pos(), x.Lit(want))
			b.emit()
			sel()
			b.push(p.Neg(), x.Lit(!want))
			b.emit()
		}
	}
}
