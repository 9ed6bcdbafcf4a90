package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crillab/exactsynth/gate"
)

func TestSimulateMajority(t *testing.T) {
	c := New(gate.MAJ3, 3)
	n := c.AddStep(0, 1, 2, 3)
	c.AddOutput(n, false)
	require.NoError(t, c.Validate())
	outs := c.Simulate()
	require.Len(t, outs, 1)
	assert.Equal(t, "e8", outs[0].Hex())
	assert.Equal(t, 1, c.Depth())
}

func TestSimulateImplicationAnd(t *testing.T) {
	// !b, then imp(a, !b) = nand(a, b), inverted.
	c := New(gate.IMP, 2)
	notB := c.AddStep(1, Const, 2)
	nand := c.AddStep(0, 1, notB)
	c.AddOutput(nand, true)
	require.NoError(t, c.Validate())
	assert.Equal(t, "8", c.Simulate()[0].Hex())
	assert.Equal(t, 2, c.Depth())
	assert.Equal(t, []int{0, 0, 0, 1, 2}, c.Levels())
}

func TestSimulateTrivial(t *testing.T) {
	c := New(gate.MAJ3, 2)
	c.AddOutput(2, true)
	c.AddOutput(Const, true)
	outs := c.Simulate()
	assert.Equal(t, "3", outs[0].Hex())
	assert.Equal(t, "f", outs[1].Hex())
	assert.Equal(t, 0, c.Depth())
	assert.Equal(t, "", c.SelectionKey())
}

func TestValidate(t *testing.T) {
	c := New(gate.MAJ3, 3)
	c.AddStep(0, 1, 2, 4)
	assert.Error(t, c.Validate(), "step reads itself")

	c = New(gate.MAJ3, 3)
	c.AddStep(0, 2, 1, 3)
	assert.Error(t, c.Validate(), "decreasing fanins")

	c = New(gate.MAJ3, 3)
	c.AddStep(7, 1, 2, 3)
	assert.Error(t, c.Validate(), "unknown operator")

	c = New(gate.MAJ3, 3)
	c.AddStep(0, 1, 2)
	assert.Error(t, c.Validate(), "missing fanin")

	c = New(gate.MAJ3, 3)
	c.AddOutput(5, false)
	assert.Error(t, c.Validate(), "unknown output node")
}

func TestString(t *testing.T) {
	c := New(gate.MAJ3, 3)
	n := c.AddStep(1, Const, 1, 2)
	c.AddOutput(n, true)
	assert.Equal(t, "n4 = MAJ3[!x0,x1,x2](0, x1, x2)\ny1 = !n4\n", c.String())
	assert.Equal(t, "0,1,2", c.SelectionKey())
}
