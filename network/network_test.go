package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/gate"
	"github.com/crillab/exactsynth/spec"
	"github.com/crillab/exactsynth/tt"
)

func mustHex(t *testing.T, n int, s string) tt.TT {
	t.Helper()
	f, err := tt.FromHex(n, s)
	require.NoError(t, err)
	return f
}

// and2 computes x1 & x2 with two implications.
func and2() *chain.Chain {
	c := chain.New(gate.IMP, 2)
	n := c.AddStep(1, chain.Const, 2)
	n = c.AddStep(0, 1, n)
	c.AddOutput(n, true)
	return c
}

func TestSimulate(t *testing.T) {
	n, err := Build(and2())
	require.NoError(t, err)
	outs := n.Simulate()
	require.Len(t, outs, 1)
	assert.Equal(t, "8", outs[0].Hex())
}

func TestEquivalent(t *testing.T) {
	n, err := Build(and2())
	require.NoError(t, err)
	ok, err := n.Equivalent(spec.New(mustHex(t, 2, "8")))
	require.NoError(t, err)
	assert.True(t, ok)

	row, found, err := n.Counterexample(spec.New(mustHex(t, 2, "c")))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, row)

	s := spec.New(mustHex(t, 2, "c"))
	s.DontCares = []tt.TT{mustHex(t, 2, "4")}
	ok, err = n.Equivalent(s)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = n.Equivalent(spec.New(mustHex(t, 3, "88")))
	assert.Error(t, err)
}

func TestEveryOperator(t *testing.T) {
	xor := gate.NewFamily("xor2", 2, func(ins []bool) bool { return ins[0] != ins[1] }, []gate.Pattern{
		{{Index: 0}, {Index: 1}},
		{{Index: 0, Negated: true}, {Index: 1}},
	})
	for _, family := range []*gate.Family{gate.MAJ3, gate.RM3, gate.MAJ5, gate.IMP, xor} {
		for op := 0; op < family.NbOps(); op++ {
			c := chain.New(family, family.Arity)
			fanins := make([]int, family.Arity)
			for j := range fanins {
				fanins[j] = j + 1
			}
			c.AddOutput(c.AddStep(op, fanins...), false)
			n, err := Build(c)
			require.NoError(t, err)
			want := c.Simulate()
			assert.Equal(t, want[0].Hex(), n.Simulate()[0].Hex(), "%s op %d", family.Name, op)
			ok, err := n.Equivalent(spec.New(want...))
			require.NoError(t, err)
			assert.True(t, ok, "%s op %d", family.Name, op)
		}
	}
}

func TestConstantOutputs(t *testing.T) {
	c := chain.New(gate.MAJ3, 2)
	c.AddOutput(chain.Const, false)
	c.AddOutput(chain.Const, true)
	n, err := Build(c)
	require.NoError(t, err)
	outs := n.Simulate()
	assert.True(t, outs[0].IsZero())
	assert.Equal(t, 4, outs[1].Count())
	ok, err := n.Equivalent(spec.New(tt.Const(2, false), tt.Const(2, true)))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = n.Equivalent(spec.New(tt.Const(2, true), tt.Const(2, true)))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBuildInvalid(t *testing.T) {
	c := chain.New(gate.MAJ3, 2)
	c.AddStep(0, 1, 2, 5)
	_, err := Build(c)
	assert.Error(t, err)
}
