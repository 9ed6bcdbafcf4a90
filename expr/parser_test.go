package expr

import (
	"fmt"
	"strings"
	"testing"
)

// To each formula, associate an expected string input.
var exprToFormula = map[string]string{
	"foo":               "foo",
	"^foo":              "not(foo)",
	"!!foo":             "not(not(foo))",
	"(foo)":             "foo",
	"a | b":             "or(a, b)",
	"a & b":             "and(a, b)",
	"a -> b":            "or(not(a), b)",
	"a = b":             "and(or(not(a), b), or(a, not(b)))",
	"^(a|  b)":          "not(or(a, b))",
	"a & b & c":         "and(a, and(b, c))",
	"a & (b & c) & d":   "and(a, and(and(b, c), d))",
	"maj(a, !b, c)":     "maj(a, not(b), c)",
	"xor(a, b) | 0":     "or(xor(a, b), 0)",
	"!1":                "0",
	"maj(a & b, c, 1)":  "maj(and(a, b), c, 1)",
	"and(a, b, c)":      "and(a, b, c)",
	"or(a, not(b))":     "or(a, not(b))",
	"not(0)":            "1",
	"imp(a, b)":         "or(not(a), b)",
	"maj(a, b, not(c))": "maj(a, b, not(c))",
}

func TestParse(t *testing.T) {
	for expr, expected := range exprToFormula {
		f, err := ParseString(expr)
		if err != nil {
			t.Errorf("Could not parse expression %q: %v", expr, err)
		} else if f.String() != expected {
			t.Errorf("For expression %q, expected formula %q, got %q", expr, expected, f.String())
		}
	}
}

var invalidExprs = []string{
	"",
	"a &",
	"& a",
	"(a | b",
	"a b",
	"maj(a, b)",
	"foo(a)",
	"a - b",
	"maj(a, b,",
	"not(a, b)",
	"imp(a)",
	"imp(a, b, c)",
}

func TestParseErrors(t *testing.T) {
	for _, expr := range invalidExprs {
		if f, err := ParseString(expr); err == nil {
			t.Errorf("expected error for %q, got formula %v", expr, f)
		}
	}
}

func TestParsePrinted(t *testing.T) {
	formulas := []Formula{
		Not(And(Var("a"), Var("b"))),
		Or(Var("a"), Xor(Var("b"), Not(Var("c"))), False),
		Maj(Var("a"), Implies(Var("b"), Var("c")), Eq(Var("a"), Var("d"))),
		And(True, Or(Var("x1"), Var("x2"))),
	}
	for _, f := range formulas {
		g, err := ParseString(f.String())
		if err != nil {
			t.Errorf("Could not parse printed formula %q: %v", f, err)
		} else if g.String() != f.String() {
			t.Errorf("Printed formula %q was parsed as %q", f, g)
		}
	}
}

func ExampleParse() {
	expr := "maj(a, b, c) & ^(a = d)"
	f, err := Parse(strings.NewReader(expr))
	if err != nil {
		fmt.Printf("Could not parse expression %q: %v", expr, err)
		return
	}
	tab, err := TruthTable(f, []string{"a", "b", "c", "d"})
	if err != nil {
		fmt.Printf("Could not evaluate %q: %v", expr, err)
		return
	}
	fmt.Printf("%s has %d models: %s", Vars(f), tab.Count(), tab.Hex())
	// Output: [a b c d] has 4 models: 40a8
}
