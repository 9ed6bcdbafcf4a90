package expr

import (
	"fmt"
	"strings"

	"github.com/crillab/gophersat/bf"
	"github.com/pkg/errors"

	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/tt"
)

// A Formula is any kind of boolean formula, not necessarily in CNF.
type Formula interface {
	String() string
	// Eval evaluates the formula for the given bindings. Unbound variables are false.
	Eval(model map[string]bool) bool
	// bf returns the equivalent gophersat formula.
	bf() bf.Formula
}

// True is the constant denoting a tautology.
var True Formula = constant(true)

// False is the constant denoting a contradiction.
var False Formula = constant(false)

type constant bool

func (c constant) String() string {
	if c {
		return "1"
	}
	return "0"
}

func (c constant) Eval(model map[string]bool) bool { return bool(c) }

func (c constant) bf() bf.Formula {
	if c {
		return bf.True
	}
	return bf.False
}

// Var generates a named boolean variable in a formula.
func Var(name string) Formula {
	return variable(name)
}

type variable string

func (v variable) String() string                  { return string(v) }
func (v variable) Eval(model map[string]bool) bool { return model[string(v)] }
func (v variable) bf() bf.Formula                  { return bf.Var(string(v)) }

// Not represents a negation.
func Not(f Formula) Formula {
	if c, ok := f.(constant); ok {
		return constant(!c)
	}
	return not{f}
}

type not [1]Formula

func (n not) String() string                  { return "not(" + n[0].String() + ")" }
func (n not) Eval(model map[string]bool) bool { return !n[0].Eval(model) }
func (n not) bf() bf.Formula                  { return bf.Not(n[0].bf()) }

// And generates a conjunction of subformulas.
func And(subs ...Formula) Formula {
	return and(subs)
}

type and []Formula

func (a and) String() string { return "and(" + join(a) + ")" }

func (a and) Eval(model map[string]bool) bool {
	for _, sub := range a {
		if !sub.Eval(model) {
			return false
		}
	}
	return true
}

func (a and) bf() bf.Formula { return bf.And(bfs(a)...) }

// Or generates a disjunction of subformulas.
func Or(subs ...Formula) Formula {
	return or(subs)
}

type or []Formula

func (o or) String() string { return "or(" + join(o) + ")" }

func (o or) Eval(model map[string]bool) bool {
	for _, sub := range o {
		if sub.Eval(model) {
			return true
		}
	}
	return false
}

func (o or) bf() bf.Formula { return bf.Or(bfs(o)...) }

// Xor generates an exclusive disjunction of subformulas, i.e their parity.
func Xor(subs ...Formula) Formula {
	return xor(subs)
}

type xor []Formula

func (x xor) String() string { return "xor(" + join(x) + ")" }

func (x xor) Eval(model map[string]bool) bool {
	res := false
	for _, sub := range x {
		res = res != sub.Eval(model)
	}
	return res
}

func (x xor) bf() bf.Formula {
	if len(x) == 0 {
		return bf.False
	}
	res := x[0].bf()
	for _, sub := range x[1:] {
		res = bf.Xor(res, sub.bf())
	}
	return res
}

// Maj generates the majority of an odd number of subformulas.
func Maj(subs ...Formula) Formula {
	return maj(subs)
}

type maj []Formula

func (m maj) String() string { return "maj(" + join(m) + ")" }

func (m maj) Eval(model map[string]bool) bool {
	nb := 0
	for _, sub := range m {
		if sub.Eval(model) {
			nb++
		}
	}
	return 2*nb > len(m)
}

// bf expands the majority as the disjunction of all conjunctions of a strict majority of the subformulas.
func (m maj) bf() bf.Formula {
	need := len(m)/2 + 1
	var terms []bf.Formula
	var rec func(start int, picked []bf.Formula)
	rec = func(start int, picked []bf.Formula) {
		if len(picked) == need {
			terms = append(terms, bf.And(append([]bf.Formula(nil), picked...)...))
			return
		}
		for i := start; i < len(m); i++ {
			rec(i+1, append(picked, m[i].bf()))
		}
	}
	rec(0, nil)
	if len(terms) == 0 {
		return bf.False
	}
	return bf.Or(terms...)
}

// Implies indicates a subformula implies another one.
func Implies(f1, f2 Formula) Formula {
	return Or(Not(f1), f2)
}

// Eq indicates a subformula is equivalent to another one.
func Eq(f1, f2 Formula) Formula {
	return And(Or(Not(f1), f2), Or(f1, Not(f2)))
}

func join(subs []Formula) string {
	strs := make([]string, len(subs))
	for i, sub := range subs {
		strs[i] = sub.String()
	}
	return strings.Join(strs, ", ")
}

func bfs(subs []Formula) []bf.Formula {
	res := make([]bf.Formula, len(subs))
	for i, sub := range subs {
		res[i] = sub.bf()
	}
	return res
}

// ToBF translates f to a gophersat formula.
func ToBF(f Formula) bf.Formula { return f.bf() }

// Equivalent returns true iff f1 and f2 agree on every assignment.
// The check is delegated to the gophersat solver: f1 and f2 are equivalent iff not(f1 = f2) is unsatisfiable.
func Equivalent(f1, f2 Formula) bool {
	return bf.Solve(bf.Not(Eq(f1, f2).bf())) == nil
}

// Vars returns the variables of f, in order of first appearance.
func Vars(f Formula) []string {
	var res []string
	seen := make(map[string]bool)
	var rec func(f Formula)
	rec = func(f Formula) {
		switch f := f.(type) {
		case variable:
			if !seen[string(f)] {
				seen[string(f)] = true
				res = append(res, string(f))
			}
		case not:
			rec(f[0])
		case and:
			for _, sub := range f {
				rec(sub)
			}
		case or:
			for _, sub := range f {
				rec(sub)
			}
		case xor:
			for _, sub := range f {
				rec(sub)
			}
		case maj:
			for _, sub := range f {
				rec(sub)
			}
		}
	}
	rec(f)
	return res
}

// TruthTable returns the truth table of f, inputs[i] being the i-th variable of the table.
// It fails if f uses a variable that is not in inputs.
func TruthTable(f Formula, inputs []string) (tt.TT, error) {
	known := make(map[string]bool, len(inputs))
	for _, name := range inputs {
		known[name] = true
	}
	for _, v := range Vars(f) {
		if !known[v] {
			return tt.TT{}, errors.Errorf("unknown variable %q in %s", v, f)
		}
	}
	res := tt.New(len(inputs))
	model := make(map[string]bool, len(inputs))
	for r := 0; r < res.NbRows(); r++ {
		for i, name := range inputs {
			model[name] = tt.InputBit(r, i)
		}
		if f.Eval(model) {
			res.Set(r, true)
		}
	}
	return res, nil
}

// FromChain returns, for each output of c, an equivalent formula over the given input names.
// If names is nil, inputs are named x1, x2, ...
func FromChain(c *chain.Chain, names []string) []Formula {
	if names == nil {
		names = make([]string, c.NbInputs)
		for i := range names {
			names[i] = fmt.Sprintf("x%d", i+1)
		}
	}
	nodes := make([]Formula, c.NbInputs+1+c.Size())
	nodes[chain.Const] = False
	for i := 0; i < c.NbInputs; i++ {
		nodes[i+1] = Var(names[i])
	}
	for i, step := range c.Steps {
		fanins := make([]Formula, len(step.Fanins))
		for j, fanin := range step.Fanins {
			fanins[j] = nodes[fanin]
		}
		nodes[c.StepNode(i)] = gateFormula(c, step.Op, fanins)
	}
	res := make([]Formula, len(c.Outputs))
	for h, out := range c.Outputs {
		res[h] = nodes[out.Node]
		if out.Inverted {
			res[h] = Not(res[h])
		}
	}
	return res
}

// gateFormula returns the formula of pattern op applied to the given fanins.
func gateFormula(c *chain.Chain, op int, fanins []Formula) Formula {
	p := c.Family.Patterns[op]
	ins := make([]Formula, len(p))
	for j, in := range p {
		ins[j] = fanins[in.Index]
		if in.Negated {
			ins[j] = Not(ins[j])
		}
	}
	switch c.Family.Name {
	case "maj3", "rm3", "maj5":
		return Maj(ins...)
	case "imp":
		return Implies(ins[0], ins[1])
	}
	// Unknown family: sum of the minterms of the base function.
	var terms []Formula
	vals := make([]bool, len(ins))
	for combo := 0; combo < 1<<uint(len(ins)); combo++ {
		lits := make([]Formula, len(ins))
		for j := range vals {
			vals[j] = combo&(1<<uint(j)) != 0
			lits[j] = ins[j]
			if !vals[j] {
				lits[j] = Not(ins[j])
			}
		}
		if c.Family.Base(vals) {
			terms = append(terms, And(lits...))
		}
	}
	if len(terms) == 0 {
		return False
	}
	return Or(terms...)
}
