package sat

import (
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// Gini is a Solver backed by gini. Clauses are streamed to the solver as they are added,
// so clauses added after a Solve call keep what the solver learned.
type Gini struct {
	g      *gini.Gini
	nbVars int
	unsat  bool
}

// NewGini returns an empty gini solver.
func NewGini() *Gini {
	return &Gini{g: gini.New()}
}

// SetVarCount implements Solver.
func (s *Gini) SetVarCount(n int) {
	s.nbVars = n
}

// AddClause implements Solver.
func (s *Gini) AddClause(lits ...Lit) bool {
	checkLits(lits)
	if len(lits) == 0 {
		s.unsat = true
		return false
	}
	for _, l := range lits {
		s.g.Add(toZ(l))
	}
	s.g.Add(z.LitNull)
	return !s.unsat
}

func toZ(l Lit) z.Lit {
	if l < 0 {
		return z.Var(-l).Neg()
	}
	return z.Var(l).Pos()
}

// Solve implements Solver. A positive budget is enforced with gini's asynchronous solve.
func (s *Gini) Solve(budget time.Duration) Result {
	if s.unsat {
		return Unsat
	}
	var res int
	if budget > 0 {
		res = s.g.GoSolve().Try(budget)
	} else {
		res = s.g.Solve()
	}
	switch res {
	case 1:
		return Sat
	case -1:
		return Unsat
	default:
		return Timeout
	}
}

// Value implements Solver. Variables that never occurred in a clause are false.
func (s *Gini) Value(v Var) bool {
	if z.Var(v) > s.g.MaxVar() {
		return false
	}
	return s.g.Value(z.Var(v).Pos())
}

// Restart implements Solver.
func (s *Gini) Restart() {
	s.g = gini.New()
	s.nbVars = 0
	s.unsat = false
}
