package encoder

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/exactsynth/fence"
	"github.com/crillab/exactsynth/gate"
	"github.com/crillab/exactsynth/sat"
	"github.com/crillab/exactsynth/spec"
	"github.com/crillab/exactsynth/tt"
)

func problem(t *testing.T, family *gate.Family, n int, hexes ...string) *spec.Problem {
	t.Helper()
	fs := make([]tt.TT, len(hexes))
	for i, h := range hexes {
		f, err := tt.FromHex(n, h)
		require.NoError(t, err)
		fs[i] = f
	}
	pb, err := spec.New(fs...).Normalize(family, nil)
	require.NoError(t, err)
	return pb
}

// attempt encodes pb at nbSteps steps and solves it with every backend.
// All backends must agree; the solution found by the first one is returned.
func attempt(t *testing.T, pb *spec.Problem, nbSteps int, f fence.Fence, opts Options) (sat.Result, *Solution) {
	t.Helper()
	var (
		res sat.Result
		sol *Solution
	)
	for i, name := range sat.Backends() {
		s, err := sat.New(name)
		require.NoError(t, err)
		l := Allocate(pb.Family, pb.Spec.NbInputs, nbSteps, len(pb.Targets), f, opts)
		NewBuilder(l, pb.Targets, s).Encode()
		r := s.Solve(0)
		if i == 0 {
			res = r
			if r == sat.Sat {
				sol = Decode(l, pb, s)
			}
		} else {
			require.Equal(t, res, r, "backend %s disagrees", name)
		}
	}
	return res, sol
}

func TestCombinations(t *testing.T) {
	assert.Equal(t, [][]int{{0, 1}, {0, 2}, {1, 2}, {0, 3}, {1, 3}, {2, 3}}, combinations(0, 3, 2))
	assert.Empty(t, combinations(1, 3, 4))
	assert.True(t, colexLess([]int{2, 3, 4}, []int{0, 1, 5}))
	assert.False(t, colexLess([]int{0, 1, 5}, []int{0, 1, 5}))
}

func TestAllocate(t *testing.T) {
	l := Allocate(gate.MAJ3, 3, 1, 1, nil, DefaultOptions(gate.MAJ3))
	assert.Len(t, l.Tuples(0), 4)
	assert.Equal(t, 4+4+7, l.NbVars())
	assert.Equal(t, sat.Var(1), l.SelVar(0, 0))
	assert.Equal(t, sat.Var(5), l.OpVar(0, 0))
	assert.Equal(t, sat.Var(9), l.SimVar(0, 1))
	assert.Equal(t, sat.Var(15), l.SimVar(0, 7))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, l.Rows())
	assert.False(t, l.Simulated(0))
}

func TestAllocateNotNormal(t *testing.T) {
	l := Allocate(gate.IMP, 2, 2, 2, nil, DefaultOptions(gate.IMP))
	assert.Len(t, l.Tuples(0), 3)
	assert.Len(t, l.Tuples(1), 6)
	assert.Equal(t, 9, l.NbSelVars())
	assert.Equal(t, sat.Var(10), l.OpVar(0, 0))
	assert.Equal(t, sat.Var(14), l.SimVar(0, 0))
	assert.Equal(t, sat.Var(22), l.OutVar(0, 0))
	assert.Equal(t, sat.Var(26), l.PolVar(0))
	assert.Equal(t, 27, l.NbVars())
	assert.True(t, l.Simulated(0))
}

func TestRelaxedTuples(t *testing.T) {
	opts := DefaultOptions(gate.MAJ5)
	err := CheckFeasible(gate.MAJ5, 3, opts)
	require.Error(t, err)
	assert.Equal(t, ErrInfeasible, errors.Cause(err))

	opts.TwoConst, opts.TwoEqual = true, true
	require.NoError(t, CheckFeasible(gate.MAJ5, 3, opts))
	l := Allocate(gate.MAJ5, 3, 1, 1, nil, opts)
	assert.Equal(t, [][]int{
		{0, 0, 1, 2, 3},
		{0, 0, 1, 1, 2},
		{0, 0, 1, 1, 3},
		{0, 0, 2, 2, 3},
	}, l.Tuples(0))

	opts.TwoConst = false
	l = Allocate(gate.MAJ5, 4, 1, 1, nil, opts)
	assert.Len(t, l.Tuples(0), 1+4)
	assert.Contains(t, l.Tuples(0), []int{1, 2, 3, 4, 4})
}

func TestFencedTuples(t *testing.T) {
	l := Allocate(gate.MAJ3, 3, 3, 1, fence.Fence{2, 1}, DefaultOptions(gate.MAJ3))
	assert.Len(t, l.Tuples(0), 4)
	assert.Len(t, l.Tuples(1), 4)
	assert.Len(t, l.Tuples(2), 6+10)
	for _, tuple := range l.Tuples(2) {
		assert.True(t, tuple[2] == 4 || tuple[2] == 5, "tuple %v does not read level 1", tuple)
	}
}

func TestAllocatePanics(t *testing.T) {
	opts := DefaultOptions(gate.MAJ3)
	assert.Panics(t, func() { Allocate(gate.MAJ3, 3, 2, 1, fence.Fence{1, 2}, opts) })
	assert.Panics(t, func() { Allocate(gate.MAJ3, 3, 2, 1, fence.Fence{2, 0}, opts) })
	assert.Panics(t, func() { Allocate(gate.MAJ5, 3, 1, 1, fence.Fence{1}, DefaultOptions(gate.MAJ5)) })
}

func TestMajority(t *testing.T) {
	pb := problem(t, gate.MAJ3, 3, "e8")
	res, sol := attempt(t, pb, 1, nil, DefaultOptions(gate.MAJ3))
	require.Equal(t, sat.Sat, res)
	c := sol.Chain
	require.Equal(t, 1, c.Size())
	assert.Equal(t, []int{1, 2, 3}, c.Steps[0].Fanins)
	assert.Equal(t, 0, c.Steps[0].Op)
	assert.False(t, c.Outputs[0].Inverted)
	require.NoError(t, pb.Spec.Check(c))
}

func TestInvertedTarget(t *testing.T) {
	// Complement of x1 & x2, normalized into x1 & x2.
	pb := problem(t, gate.MAJ3, 3, "77")
	res, sol := attempt(t, pb, 1, nil, DefaultOptions(gate.MAJ3))
	require.Equal(t, sat.Sat, res)
	assert.True(t, sol.Chain.Outputs[0].Inverted)
	require.NoError(t, pb.Spec.Check(sol.Chain))
}

func TestUnsatSize(t *testing.T) {
	pb := problem(t, gate.MAJ3, 3, "96")
	res, _ := attempt(t, pb, 1, nil, DefaultOptions(gate.MAJ3))
	assert.Equal(t, sat.Unsat, res)
}

func TestImplication(t *testing.T) {
	pb := problem(t, gate.IMP, 2, "8")
	res, _ := attempt(t, pb, 1, nil, DefaultOptions(gate.IMP))
	require.Equal(t, sat.Unsat, res)
	res, sol := attempt(t, pb, 2, nil, DefaultOptions(gate.IMP))
	require.Equal(t, sat.Sat, res)
	require.NoError(t, pb.Spec.Check(sol.Chain))
	assert.Contains(t, sol.Chain.Steps[1].Fanins, sol.Chain.StepNode(0))
}

func TestMultipleTargets(t *testing.T) {
	pb := problem(t, gate.MAJ3, 3, "e8", "88", "aa")
	require.Len(t, pb.Targets, 2)
	res, _ := attempt(t, pb, 1, nil, DefaultOptions(gate.MAJ3))
	require.Equal(t, sat.Unsat, res)
	res, sol := attempt(t, pb, 2, nil, DefaultOptions(gate.MAJ3))
	require.Equal(t, sat.Sat, res)
	require.NoError(t, pb.Spec.Check(sol.Chain))
	assert.Equal(t, 3, len(sol.Chain.Outputs))
	assert.False(t, sol.Chain.IsStep(sol.Chain.Outputs[2].Node))
}

func TestSharedOutputs(t *testing.T) {
	pb := problem(t, gate.MAJ3, 3, "e8", "17")
	require.Len(t, pb.Targets, 2)
	res, sol := attempt(t, pb, 1, nil, DefaultOptions(gate.MAJ3))
	require.Equal(t, sat.Sat, res)
	require.NoError(t, pb.Spec.Check(sol.Chain))
	assert.Equal(t, sol.Chain.Outputs[0].Node, sol.Chain.Outputs[1].Node)
}

func TestFencedAttempt(t *testing.T) {
	pb := problem(t, gate.MAJ3, 3, "96")
	opts := DefaultOptions(gate.MAJ3)
	for _, f := range []fence.Fence{{3}, {1, 2}} {
		res, _ := attempt(t, pb, 3, f, opts)
		assert.Equal(t, sat.Unsat, res, "fence %v", f)
	}
	res, sol := attempt(t, pb, 3, fence.Fence{2, 1}, opts)
	require.Equal(t, sat.Sat, res)
	require.NoError(t, pb.Spec.Check(sol.Chain))
	assert.Equal(t, 2, sol.Chain.Depth())
}

func TestRows(t *testing.T) {
	pb := problem(t, gate.MAJ3, 3, "e8")
	l := Allocate(gate.MAJ3, 3, 1, 1, nil, DefaultOptions(gate.MAJ3))
	b := NewBuilder(l, pb.Targets, sat.NewGini())
	b.EncodeBase()
	base := b.NbClauses()
	assert.True(t, b.AddRow(0), "row 0 is not simulated for normal families")
	assert.Equal(t, base, b.NbClauses())
	assert.True(t, b.AddRow(3))
	assert.True(t, b.HasRow(3))
	after := b.NbClauses()
	assert.Greater(t, after, base)
	assert.False(t, b.AddRow(3))
	assert.Equal(t, after, b.NbClauses())
}

func TestBlock(t *testing.T) {
	pb := problem(t, gate.MAJ3, 3, "e8")
	l := Allocate(gate.MAJ3, 3, 1, 1, nil, DefaultOptions(gate.MAJ3))
	s := sat.NewGini()
	NewBuilder(l, pb.Targets, s).Encode()
	require.Equal(t, sat.Sat, s.Solve(0))
	sol := Decode(l, pb, s)
	assert.Equal(t, []int{3}, sol.Selection)
	Block(l, s, sol)
	assert.Equal(t, sat.Unsat, s.Solve(0))
}

func TestRecordedEncoding(t *testing.T) {
	pb := problem(t, gate.IMP, 2, "8")
	l := Allocate(gate.IMP, 2, 2, 1, nil, DefaultOptions(gate.IMP))
	rec := sat.NewRecorder(nil)
	b := NewBuilder(l, pb.Targets, rec)
	b.Encode()
	assert.Equal(t, l.NbVars(), rec.NbVars())
	assert.Equal(t, b.NbClauses(), rec.NbClauses())
}

// dimacs returns the sorted clause lines of the problem recorded by rec.
func dimacs(t *testing.T, rec *sat.Recorder) []string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, rec.WriteDIMACS(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	sort.Strings(lines[1:])
	return lines
}

func TestRowOrder(t *testing.T) {
	pb := problem(t, gate.MAJ3, 3, "96", "e8")
	l := Allocate(gate.MAJ3, 3, 3, 2, nil, DefaultOptions(gate.MAJ3))

	full := sat.NewRecorder(nil)
	NewBuilder(l, pb.Targets, full).Encode()

	lazy := sat.NewRecorder(nil)
	b := NewBuilder(l, pb.Targets, lazy)
	b.EncodeBase()
	rows := l.Rows()
	for i := len(rows) - 1; i >= 0; i-- {
		require.True(t, b.AddRow(rows[i]))
	}
	assert.Equal(t, dimacs(t, full), dimacs(t, lazy))
}
