package sat

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// A Recorder is a Solver keeping a copy of every clause it is given, so that the current
// problem can be written in DIMACS format. Solving is delegated to an inner solver, if any.
type Recorder struct {
	inner   Solver
	nbVars  int
	clauses [][]Lit
}

// NewRecorder returns a recorder delegating to inner, which may be nil.
func NewRecorder(inner Solver) *Recorder {
	return &Recorder{inner: inner}
}

// SetVarCount implements Solver.
func (r *Recorder) SetVarCount(n int) {
	r.nbVars = n
	if r.inner != nil {
		r.inner.SetVarCount(n)
	}
}

// AddClause implements Solver.
func (r *Recorder) AddClause(lits ...Lit) bool {
	r.clauses = append(r.clauses, append([]Lit(nil), lits...))
	for _, l := range lits {
		if v := int(l.Var()); v > r.nbVars {
			r.nbVars = v
		}
	}
	if r.inner != nil {
		return r.inner.AddClause(lits...)
	}
	return len(lits) != 0
}

// Solve implements Solver. Without an inner solver it always times out.
func (r *Recorder) Solve(budget time.Duration) Result {
	if r.inner == nil {
		return Timeout
	}
	return r.inner.Solve(budget)
}

// Value implements Solver.
func (r *Recorder) Value(v Var) bool {
	if r.inner == nil {
		return false
	}
	return r.inner.Value(v)
}

// Restart implements Solver.
func (r *Recorder) Restart() {
	r.nbVars = 0
	r.clauses = nil
	if r.inner != nil {
		r.inner.Restart()
	}
}

// NbVars returns the number of variables of the recorded problem.
func (r *Recorder) NbVars() int { return r.nbVars }

// NbClauses returns the number of recorded clauses.
func (r *Recorder) NbClauses() int { return len(r.clauses) }

// WriteDIMACS writes a DIMACS CNF representation of the recorded problem.
func (r *Recorder) WriteDIMACS(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "p cnf %d %d\n", r.nbVars, len(r.clauses))
	for _, clause := range r.clauses {
		for _, l := range clause {
			fmt.Fprintf(bw, "%d ", int(l))
		}
		fmt.Fprintln(bw, "0")
	}
	return bw.Flush()
}
