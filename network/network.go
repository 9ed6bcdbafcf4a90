// Package network materializes chains as and-inverter graphs, so that they can be
// evaluated and checked against their specification with a SAT miter.
package network

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/gate"
	"github.com/crillab/exactsynth/spec"
	"github.com/crillab/exactsynth/tt"
)

// A native builds the base function of a family from its (already complemented) inputs.
type native func(c *logic.C, ins []z.Lit) z.Lit

func maj(c *logic.C, a, b, d z.Lit) z.Lit {
	return c.Ors(c.And(a, b), c.And(a, d), c.And(b, d))
}

var natives = map[string]native{
	"maj3": func(c *logic.C, ins []z.Lit) z.Lit { return maj(c, ins[0], ins[1], ins[2]) },
	"rm3":  func(c *logic.C, ins []z.Lit) z.Lit { return maj(c, ins[0], ins[1], ins[2]) },
	"maj5": func(c *logic.C, ins []z.Lit) z.Lit {
		a, b, d, e, f := ins[0], ins[1], ins[2], ins[3], ins[4]
		return maj(c, maj(c, a, b, d), maj(c, maj(c, a, b, e), d, e), f)
	},
	"imp": func(c *logic.C, ins []z.Lit) z.Lit { return c.Implies(ins[0], ins[1]) },
}

// sop builds the base function of family as a sum of products. It is used for families
// without a native construction.
func sop(family *gate.Family) native {
	return func(c *logic.C, ins []z.Lit) z.Lit {
		vals := make([]bool, len(ins))
		var terms []z.Lit
		for combo := 0; combo < 1<<uint(len(ins)); combo++ {
			for j := range vals {
				vals[j] = combo&(1<<uint(j)) != 0
			}
			if family.Base(vals) {
				terms = append(terms, minterm(c, ins, combo))
			}
		}
		return c.Ors(terms...)
	}
}

func minterm(c *logic.C, ins []z.Lit, combo int) z.Lit {
	lits := make([]z.Lit, len(ins))
	for j, in := range ins {
		if combo&(1<<uint(j)) != 0 {
			lits[j] = in
		} else {
			lits[j] = in.Not()
		}
	}
	return c.Ands(lits...)
}

// A Network is a chain built as a gini circuit.
type Network struct {
	C       *logic.C
	Chain   *chain.Chain
	Inputs  []z.Lit // Inputs[i] is the literal of input i, counted from 0.
	Nodes   []z.Lit // Nodes[k] is the literal of node k of the chain.
	Outputs []z.Lit
}

// Build materializes c.
func Build(c *chain.Chain) (*Network, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "cannot build network")
	}
	circ := logic.NewC()
	n := &Network{
		C:       circ,
		Chain:   c,
		Inputs:  make([]z.Lit, c.NbInputs),
		Nodes:   make([]z.Lit, 0, c.NbInputs+1+c.Size()),
		Outputs: make([]z.Lit, len(c.Outputs)),
	}
	n.Nodes = append(n.Nodes, circ.F)
	for i := range n.Inputs {
		n.Inputs[i] = circ.Lit()
		n.Nodes = append(n.Nodes, n.Inputs[i])
	}
	build, ok := natives[c.Family.Name]
	if !ok {
		build = sop(c.Family)
	}
	ins := make([]z.Lit, c.Family.Arity)
	for _, step := range c.Steps {
		for j, in := range c.Family.Patterns[step.Op] {
			ins[j] = n.Nodes[step.Fanins[in.Index]]
			if in.Negated {
				ins[j] = ins[j].Not()
			}
		}
		n.Nodes = append(n.Nodes, build(circ, ins))
	}
	for h, out := range c.Outputs {
		n.Outputs[h] = n.Nodes[out.Node]
		if out.Inverted {
			n.Outputs[h] = n.Outputs[h].Not()
		}
	}
	return n, nil
}

func value(vs []bool, m z.Lit) bool {
	return vs[m.Var()] == m.IsPos()
}

// Simulate evaluates the network on every row and returns the truth table of each output.
func (n *Network) Simulate() []tt.TT {
	nbInputs := len(n.Inputs)
	res := make([]tt.TT, len(n.Outputs))
	for h := range res {
		res[h] = tt.New(nbInputs)
	}
	vs := make([]bool, n.C.Len())
	for r := 0; r < 1<<uint(nbInputs); r++ {
		vs[n.C.T.Var()] = true
		for i, in := range n.Inputs {
			vs[in.Var()] = tt.InputBit(r, i)
		}
		n.C.Eval(vs)
		for h, out := range n.Outputs {
			if value(vs, out) {
				res[h].Set(r, true)
			}
		}
	}
	return res
}

// function builds f as a sum of minterms over the inputs of n.
func (n *Network) function(f tt.TT) z.Lit {
	var terms []z.Lit
	for r := 0; r < f.NbRows(); r++ {
		if f.Bit(r) {
			terms = append(terms, minterm(n.C, n.Inputs, r))
		}
	}
	return n.C.Ors(terms...)
}

// Counterexample looks for an input row on which n and s differ, not counting
// don't-cares. found is false when n computes s.
func (n *Network) Counterexample(s *spec.Spec) (row int, found bool, err error) {
	if len(n.Outputs) != s.NbOutputs() {
		return 0, false, errors.Errorf("network has %d outputs, specification has %d", len(n.Outputs), s.NbOutputs())
	}
	if len(n.Inputs) != s.NbInputs {
		return 0, false, errors.Errorf("network has %d inputs, specification has %d", len(n.Inputs), s.NbInputs)
	}
	diffs := make([]z.Lit, len(n.Outputs))
	for h, out := range n.Outputs {
		diff := n.C.Xor(out, n.function(s.Functions[h]))
		if dc := s.DontCare(h); dc.Valid() {
			diff = n.C.And(diff, n.function(dc.Not()))
		}
		diffs[h] = diff
	}
	miter := n.C.Ors(diffs...)
	switch miter {
	case n.C.F:
		return 0, false, nil
	case n.C.T:
		return 0, true, nil
	}
	g := gini.New()
	n.C.ToCnf(g)
	g.Add(n.C.T)
	g.Add(z.LitNull)
	g.Assume(miter)
	switch g.Solve() {
	case -1:
		return 0, false, nil
	case 1:
		for i, in := range n.Inputs {
			if in.Var() <= g.MaxVar() && g.Value(in) {
				row |= 1 << uint(i)
			}
		}
		return row, true, nil
	default:
		return 0, false, errors.New("miter could not be decided")
	}
}

// Equivalent returns true iff n computes s on every care row.
func (n *Network) Equivalent(s *spec.Spec) (bool, error) {
	_, found, err := n.Counterexample(s)
	if err != nil {
		return false, err
	}
	return !found, nil
}
