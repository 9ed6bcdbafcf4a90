// Package sat abstracts the SAT solvers the encoder talks to.
//
// Variables are numbered from 1 and literals follow the DIMACS convention:
// v is the positive literal of variable v, -v its negation.
package sat

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// A Var is a boolean variable, numbered from 1.
type Var int

// Pos returns the positive literal of v.
func (v Var) Pos() Lit { return Lit(v) }

// Neg returns the negative literal of v.
func (v Var) Neg() Lit { return Lit(-v) }

// Lit returns the literal of v with the given sign.
func (v Var) Lit(positive bool) Lit {
	if positive {
		return Lit(v)
	}
	return Lit(-v)
}

// A Lit is a DIMACS literal.
type Lit int

// Not returns the negation of l.
func (l Lit) Not() Lit { return -l }

// Var returns the variable of l.
func (l Lit) Var() Var {
	if l < 0 {
		return Var(-l)
	}
	return Var(l)
}

// IsPositive returns true iff l is a positive literal.
func (l Lit) IsPositive() bool { return l > 0 }

// A Result is the outcome of a call to Solve.
type Result byte

const (
	// Timeout means the budget was exhausted before the problem was decided.
	Timeout = Result(iota)
	// Sat means a model was found.
	Sat
	// Unsat means the problem has no model.
	Unsat
)

func (r Result) String() string {
	switch r {
	case Timeout:
		return "TIMEOUT"
	case Sat:
		return "SAT"
	case Unsat:
		return "UNSAT"
	default:
		panic("invalid result")
	}
}

// A Solver is an incremental SAT solver.
type Solver interface {
	// SetVarCount declares the number of variables the next clauses will use.
	SetVarCount(n int)
	// AddClause adds a clause. The slice may be reused by the caller after the call.
	// It returns false if the solver is known to be unsatisfiable.
	AddClause(lits ...Lit) bool
	// Solve decides the current set of clauses, giving up after budget (0 means no limit).
	Solve(budget time.Duration) Result
	// Value returns the binding of v in the last model. Only valid after Solve returned Sat.
	Value(v Var) bool
	// Restart removes all variables and clauses.
	Restart()
}

// A Factory creates fresh solvers.
type Factory func() Solver

var factories = map[string]Factory{
	"gini":      func() Solver { return NewGini() },
	"gophersat": func() Solver { return NewGophersat() },
}

// New returns a new solver of the named backend.
func New(name string) (Solver, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return f(), nil
}

// Lookup returns the factory of the named backend.
func Lookup(name string) (Factory, error) {
	f, ok := factories[name]
	if !ok {
		return nil, errors.Errorf("unknown SAT backend %q (available: %v)", name, Backends())
	}
	return f, nil
}

// Backends returns the names of the available backends, sorted.
func Backends() []string {
	res := make([]string, 0, len(factories))
	for name := range factories {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

func checkLits(lits []Lit) {
	for _, l := range lits {
		if l == 0 {
			panic(fmt.Sprintf("null literal in clause %v", lits))
		}
	}
}
