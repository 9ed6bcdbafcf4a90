package sat

import (
	"time"

	"github.com/crillab/gophersat/solver"
)

// Gophersat is a Solver backed by gophersat.
//
// gophersat simplifies a problem when it is built, so clauses are accumulated and a fresh
// solver is built by the first Solve call following an AddClause. The budget is ignored:
// the solver cannot be interrupted.
type Gophersat struct {
	clauses [][]int
	nbVars  int
	dirty   bool
	status  solver.Status
	model   []bool
}

// NewGophersat returns an empty gophersat solver.
func NewGophersat() *Gophersat {
	return &Gophersat{}
}

// SetVarCount implements Solver.
func (s *Gophersat) SetVarCount(n int) {
	s.nbVars = n
}

// AddClause implements Solver.
func (s *Gophersat) AddClause(lits ...Lit) bool {
	checkLits(lits)
	clause := make([]int, len(lits))
	for i, l := range lits {
		clause[i] = int(l)
	}
	s.clauses = append(s.clauses, clause)
	s.dirty = true
	return len(lits) != 0
}

// Solve implements Solver.
func (s *Gophersat) Solve(budget time.Duration) Result {
	if s.dirty || s.status == solver.Indet {
		pb := solver.ParseSlice(s.clauses)
		gs := solver.New(pb)
		s.status = gs.Solve()
		s.model = nil
		if s.status == solver.Sat {
			s.model = gs.Model()
		}
		s.dirty = false
	}
	switch s.status {
	case solver.Sat:
		return Sat
	case solver.Unsat:
		return Unsat
	default:
		return Timeout
	}
}

// Value implements Solver.
func (s *Gophersat) Value(v Var) bool {
	idx := int(v) - 1
	if idx < 0 || idx >= len(s.model) {
		return false
	}
	return s.model[idx]
}

// Restart implements Solver.
func (s *Gophersat) Restart() {
	s.clauses = nil
	s.nbVars = 0
	s.dirty = false
	s.status = solver.Indet
	s.model = nil
}
