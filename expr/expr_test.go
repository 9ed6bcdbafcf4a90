package expr

import (
	"fmt"
	"testing"

	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/gate"
)

func TestEval(t *testing.T) {
	f := Maj(Var("a"), Not(Var("b")), Var("c"))
	model := map[string]bool{"a": true, "b": true, "c": false}
	if f.Eval(model) {
		t.Errorf("%v should be false for %v", f, model)
	}
	model["c"] = true
	if !f.Eval(model) {
		t.Errorf("%v should be true for %v", f, model)
	}
	if x := Xor(Var("a"), Var("b"), Var("c")); !x.Eval(map[string]bool{"a": true}) {
		t.Errorf("%v should be true when a single input is", x)
	}
}

func TestTruthTable(t *testing.T) {
	f := Maj(Var("a"), Var("b"), Var("c"))
	tab, err := TruthTable(f, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("could not compute truth table: %v", err)
	}
	if tab.Hex() != "e8" {
		t.Errorf("expected e8, got %v", tab)
	}
	if _, err := TruthTable(f, []string{"a", "b"}); err == nil {
		t.Errorf("expected error on unknown variable c")
	}
}

func TestEquivalent(t *testing.T) {
	a, b, c := Var("a"), Var("b"), Var("c")
	tests := []struct {
		f1, f2 Formula
		equiv  bool
	}{
		{Implies(a, b), Or(Not(a), b), true},
		{Not(And(a, b)), Or(Not(a), Not(b)), true},
		{Maj(a, b, c), Or(And(a, b), And(a, c), And(b, c)), true},
		{Maj(a, b, c), Or(a, b, c), false},
		{Xor(a, b), Eq(a, Not(b)), true},
		{Maj(a, b, False), And(a, b), true},
		{Maj(a, b, True), Or(a, b), true},
	}
	for i, test := range tests {
		if got := Equivalent(test.f1, test.f2); got != test.equiv {
			t.Errorf("test %d: Equivalent(%v, %v) = %t, expected %t", i, test.f1, test.f2, got, test.equiv)
		}
	}
}

func TestFromChain(t *testing.T) {
	c := chain.New(gate.IMP, 2)
	notB := c.AddStep(1, chain.Const, 2)
	nand := c.AddStep(0, 1, notB)
	c.AddOutput(nand, true)
	fs := FromChain(c, []string{"a", "b"})
	if len(fs) != 1 {
		t.Fatalf("expected 1 formula, got %d", len(fs))
	}
	if !Equivalent(fs[0], And(Var("a"), Var("b"))) {
		t.Errorf("%v should be equivalent to and(a, b)", fs[0])
	}
	for _, fam := range []*gate.Family{gate.MAJ3, gate.RM3, gate.MAJ5} {
		c := chain.New(fam, fam.Arity)
		fanins := make([]int, fam.Arity)
		for i := range fanins {
			fanins[i] = i + 1
		}
		for op := 0; op < fam.NbOps(); op++ {
			c.AddOutput(c.AddStep(op, fanins...), op%2 == 1)
		}
		names := make([]string, fam.Arity)
		for i := range names {
			names[i] = fmt.Sprintf("x%d", i+1)
		}
		fs := FromChain(c, nil)
		sims := c.Simulate()
		for h, f := range fs {
			tab, err := TruthTable(f, names)
			if err != nil {
				t.Fatalf("%s: could not evaluate %v: %v", fam, f, err)
			}
			if !tab.Equal(sims[h]) {
				t.Errorf("%s op %d: formula gives %v, simulation gives %v", fam, h, tab, sims[h])
			}
		}
	}
}
