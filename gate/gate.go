// Package gate describes the gate families chains are built from.
//
// A family is a base Boolean function together with a small table of polarity
// patterns. Each pattern tells, for every input of the base function, which
// fanin of the step it reads and whether that fanin is complemented. The
// operator code of a step is an index in that table.
package gate

import (
	"fmt"
	"sort"
	"strings"
)

// An Input is one entry of a polarity pattern: the base-function input reads
// the fanin at position Index, complemented iff Negated.
type Input struct {
	Index   int
	Negated bool
}

// A Pattern lists, for each input of the base function, the fanin it reads.
type Pattern []Input

func (p Pattern) String() string {
	parts := make([]string, len(p))
	for i, in := range p {
		if in.Negated {
			parts[i] = fmt.Sprintf("!x%d", in.Index)
		} else {
			parts[i] = fmt.Sprintf("x%d", in.Index)
		}
	}
	return strings.Join(parts, ",")
}

// Relaxed describes which non-strict fanin tuples a family may use.
type Relaxed struct {
	TwoConst bool // Tuples starting with two constant fanins.
	TwoEqual bool // Tuples with one adjacent pair of identical non-constant fanins.
}

// A Family is a gate library: a base function and its polarity patterns.
type Family struct {
	Name     string
	Arity    int
	Patterns []Pattern
	MaxSteps int  // Default ceiling of the size search.
	Colex    bool // Whether colex symmetry breaking is on by default.
	Relaxed  Relaxed

	base   func(ins []bool) bool
	table  [][]bool // table[op][combo]
	onSet  [][]int  // onSet[combo] = ops giving 1
	offSet [][]int  // offSet[combo] = ops giving 0
	normal bool
}

// NewFamily creates a family from its base function and patterns.
// Every pattern must have exactly arity entries, all indexing fanins in [0, arity).
func NewFamily(name string, arity int, base func(ins []bool) bool, patterns []Pattern) *Family {
	if arity <= 0 || arity > 16 {
		panic(fmt.Sprintf("invalid arity %d", arity))
	}
	f := &Family{Name: name, Arity: arity, Patterns: patterns, base: base, MaxSteps: 10, Colex: true}
	nbCombos := 1 << uint(arity)
	f.table = make([][]bool, len(patterns))
	ins := make([]bool, arity)
	fanins := make([]bool, arity)
	for op, p := range patterns {
		if len(p) != arity {
			panic(fmt.Sprintf("pattern %d of %s has %d entries, expected %d", op, name, len(p), arity))
		}
		f.table[op] = make([]bool, nbCombos)
		for c := 0; c < nbCombos; c++ {
			for j := range fanins {
				fanins[j] = c&(1<<uint(j)) != 0
			}
			for j, in := range p {
				ins[j] = fanins[in.Index] != in.Negated
			}
			f.table[op][c] = base(ins)
		}
	}
	f.onSet = make([][]int, nbCombos)
	f.offSet = make([][]int, nbCombos)
	for c := 0; c < nbCombos; c++ {
		for op := range patterns {
			if f.table[op][c] {
				f.onSet[c] = append(f.onSet[c], op)
			} else {
				f.offSet[c] = append(f.offSet[c], op)
			}
		}
	}
	f.normal = true
	for op := range patterns {
		if f.table[op][0] {
			f.normal = false
		}
	}
	return f
}

// NbOps returns the number of operator codes of the family.
func (f *Family) NbOps() int { return len(f.Patterns) }

// Normal returns true iff every pattern maps the all-zero input to 0.
// Chains made of normal gates only compute normal functions, so row 0 of a
// target never needs to be simulated.
func (f *Family) Normal() bool { return f.normal }

// Value returns the output of pattern op when fanin j has bit j of combo.
func (f *Family) Value(op, combo int) bool { return f.table[op][combo] }

// OnSet returns the operator codes whose output is 1 for the given fanin combination.
func (f *Family) OnSet(combo int) []int { return f.onSet[combo] }

// OffSet returns the operator codes whose output is 0 for the given fanin combination.
func (f *Family) OffSet(combo int) []int { return f.offSet[combo] }

// Eval evaluates pattern op on the given fanin values.
func (f *Family) Eval(op int, fanins []bool) bool {
	combo := 0
	for j, v := range fanins {
		if v {
			combo |= 1 << uint(j)
		}
	}
	return f.table[op][combo]
}

// Base evaluates the base function, without any polarity pattern.
func (f *Family) Base(ins []bool) bool { return f.base(ins) }

// Conflicting returns true iff pattern op reads two identical non-constant fanins of tuple
// with opposite polarities. Such a pairing cancels the two inputs and is never needed.
// A duplicated constant fanin read with both polarities is how a gate gets the constant 1,
// so it is not a conflict.
func (f *Family) Conflicting(op int, tuple []int) bool {
	p := f.Patterns[op]
	for j := 0; j < len(p); j++ {
		for k := j + 1; k < len(p); k++ {
			a, b := tuple[p[j].Index], tuple[p[k].Index]
			if a == b && a != 0 && p[j].Negated != p[k].Negated {
				return true
			}
		}
	}
	return false
}

func (f *Family) String() string { return f.Name }

func maj3(ins []bool) bool {
	return (ins[0] && ins[1]) || (ins[0] && ins[2]) || (ins[1] && ins[2])
}

func maj5(ins []bool) bool {
	a, b, c, d, e := ins[0], ins[1], ins[2], ins[3], ins[4]
	m1 := maj3([]bool{a, b, c})
	m2 := maj3([]bool{a, b, d})
	m3 := maj3([]bool{m2, c, d})
	return maj3([]bool{m1, m3, e})
}

func imp(ins []bool) bool {
	return !ins[0] || ins[1]
}

// negations builds the identity-ordered patterns negating the given input sets.
func negations(arity int, sets ...[]int) []Pattern {
	res := make([]Pattern, len(sets))
	for i, set := range sets {
		p := make(Pattern, arity)
		for j := range p {
			p[j] = Input{Index: j}
		}
		for _, j := range set {
			p[j].Negated = true
		}
		res[i] = p
	}
	return res
}

// MAJ3 is the 3-input majority family, with at most one complemented input.
var MAJ3 = NewFamily("maj3", 3, maj3, negations(3, nil, []int{0}, []int{1}, []int{2}))

// RM3 is the family of the 3-input custom gate RM3(a,b,c) = M(a,!b,c), applied to
// every rotation of its inputs.
var RM3 = NewFamily("rm3", 3, maj3, negations(3, []int{0}, []int{1}, []int{2}))

// MAJ5 is the 5-input majority family, with at most two complemented inputs.
var MAJ5 = func() *Family {
	sets := [][]int{
		nil,
		{0}, {1}, {2}, {3}, {4},
		{0, 1}, {0, 2}, {0, 3}, {0, 4},
		{1, 2}, {1, 3}, {1, 4},
		{2, 3}, {2, 4},
		{3, 4},
	}
	f := NewFamily("maj5", 5, maj5, negations(5, sets...))
	f.MaxSteps = 20
	f.Colex = false
	return f
}()

// IMP is the 2-input implication family. Its patterns are imp(x0, x1) and imp(x1, x0).
var IMP = func() *Family {
	f := NewFamily("imp", 2, imp, []Pattern{
		{{Index: 0}, {Index: 1}},
		{{Index: 1}, {Index: 0}},
	})
	f.MaxSteps = 20
	return f
}()

var families = map[string]*Family{
	MAJ3.Name: MAJ3,
	RM3.Name:  RM3,
	MAJ5.Name: MAJ5,
	IMP.Name:  IMP,
}

// Lookup returns the family with the given name.
func Lookup(name string) (*Family, bool) {
	f, ok := families[strings.ToLower(name)]
	return f, ok
}

// Names returns the names of all known families, sorted.
func Names() []string {
	res := make([]string, 0, len(families))
	for name := range families {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}
