// Package chain defines Boolean chains: ordered sequences of gates where each
// step only reads the constant, the primary inputs or earlier steps.
package chain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/crillab/exactsynth/gate"
	"github.com/crillab/exactsynth/tt"
)

// Node indexes: 0 is the constant false, 1..NbInputs are the primary inputs,
// NbInputs+1+i is step i.
const Const = 0

// A Step is one gate of a chain.
type Step struct {
	Fanins []int // Non-decreasing node indexes, all smaller than the step's own node.
	Op     int   // Index in the family's pattern table.
}

// An Output points to the node computing an output, possibly complemented.
type Output struct {
	Node     int
	Inverted bool
}

// A Chain is a feed-forward circuit made of gates of a single family.
type Chain struct {
	NbInputs int
	Family   *gate.Family
	Steps    []Step
	Outputs  []Output
}

// New returns an empty chain over nbInputs inputs.
func New(family *gate.Family, nbInputs int) *Chain {
	return &Chain{NbInputs: nbInputs, Family: family}
}

// Size returns the number of steps of c.
func (c *Chain) Size() int { return len(c.Steps) }

// StepNode returns the node index of step i.
func (c *Chain) StepNode(i int) int { return c.NbInputs + 1 + i }

// IsStep returns true iff node is a step of c, rather than an input or the constant.
func (c *Chain) IsStep(node int) bool { return node > c.NbInputs }

// AddStep appends a step and returns its node index.
func (c *Chain) AddStep(op int, fanins ...int) int {
	c.Steps = append(c.Steps, Step{Fanins: fanins, Op: op})
	return c.StepNode(len(c.Steps) - 1)
}

// AddOutput appends an output.
func (c *Chain) AddOutput(node int, inverted bool) {
	c.Outputs = append(c.Outputs, Output{Node: node, Inverted: inverted})
}

// Validate checks that c is well-formed: every fanin exists and precedes the step reading it,
// fanins are non-decreasing, operators exist and outputs point to existing nodes.
func (c *Chain) Validate() error {
	if c.Family == nil {
		return errors.New("chain has no gate family")
	}
	for i, step := range c.Steps {
		node := c.StepNode(i)
		if len(step.Fanins) != c.Family.Arity {
			return errors.Errorf("step %d has %d fanins, expected %d", i, len(step.Fanins), c.Family.Arity)
		}
		if step.Op < 0 || step.Op >= c.Family.NbOps() {
			return errors.Errorf("step %d has invalid operator %d", i, step.Op)
		}
		for j, fanin := range step.Fanins {
			if fanin < 0 || fanin >= node {
				return errors.Errorf("step %d reads node %d, which does not precede it", i, fanin)
			}
			if j > 0 && fanin < step.Fanins[j-1] {
				return errors.Errorf("step %d has decreasing fanins %v", i, step.Fanins)
			}
		}
	}
	last := c.StepNode(len(c.Steps) - 1)
	for h, out := range c.Outputs {
		if out.Node < 0 || out.Node > last {
			return errors.Errorf("output %d points to unknown node %d", h, out.Node)
		}
	}
	return nil
}

// SimulateNodes returns the truth table of each node of c, indexed by node.
func (c *Chain) SimulateNodes() []tt.TT {
	nodes := make([]tt.TT, c.NbInputs+1+len(c.Steps))
	nodes[Const] = tt.New(c.NbInputs)
	for i := 0; i < c.NbInputs; i++ {
		nodes[i+1] = tt.Nth(c.NbInputs, i)
	}
	vals := make([]bool, 0, 8)
	for i, step := range c.Steps {
		res := tt.New(c.NbInputs)
		for r := 0; r < res.NbRows(); r++ {
			vals = vals[:0]
			for _, fanin := range step.Fanins {
				vals = append(vals, nodes[fanin].Bit(r))
			}
			if c.Family.Eval(step.Op, vals) {
				res.Set(r, true)
			}
		}
		nodes[c.StepNode(i)] = res
	}
	return nodes
}

// Simulate returns the truth table of each output of c.
func (c *Chain) Simulate() []tt.TT {
	nodes := c.SimulateNodes()
	res := make([]tt.TT, len(c.Outputs))
	for h, out := range c.Outputs {
		res[h] = nodes[out.Node]
		if out.Inverted {
			res[h] = res[h].Not()
		}
	}
	return res
}

// Levels returns the level of each node: 0 for inputs and the constant,
// 1 + the maximal level of its fanins for a step.
func (c *Chain) Levels() []int {
	levels := make([]int, c.NbInputs+1+len(c.Steps))
	for i, step := range c.Steps {
		lvl := 0
		for _, fanin := range step.Fanins {
			if levels[fanin] > lvl {
				lvl = levels[fanin]
			}
		}
		levels[c.StepNode(i)] = lvl + 1
	}
	return levels
}

// Depth returns the maximal level of an output of c.
func (c *Chain) Depth() int {
	levels := c.Levels()
	depth := 0
	for _, out := range c.Outputs {
		if levels[out.Node] > depth {
			depth = levels[out.Node]
		}
	}
	return depth
}

// SelectionKey returns a string identifying the wiring of c, i.e the fanins of all its steps.
// Two chains with the same key only differ in their operators or outputs.
func (c *Chain) SelectionKey() string {
	var sb strings.Builder
	for i, step := range c.Steps {
		if i > 0 {
			sb.WriteByte(';')
		}
		for j, fanin := range step.Fanins {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "%d", fanin)
		}
	}
	return sb.String()
}

// NodeName returns a printable name for a node.
func (c *Chain) NodeName(node int) string {
	switch {
	case node == Const:
		return "0"
	case node <= c.NbInputs:
		return fmt.Sprintf("x%d", node)
	default:
		return fmt.Sprintf("n%d", node)
	}
}

// String returns a netlist-like description of c, one line per step and output.
func (c *Chain) String() string {
	var sb strings.Builder
	name := "?"
	if c.Family != nil {
		name = strings.ToUpper(c.Family.Name)
	}
	for i, step := range c.Steps {
		fanins := make([]string, len(step.Fanins))
		for j, fanin := range step.Fanins {
			fanins[j] = c.NodeName(fanin)
		}
		pattern := ""
		if c.Family != nil {
			pattern = c.Family.Patterns[step.Op].String()
		}
		fmt.Fprintf(&sb, "%s = %s[%s](%s)\n", c.NodeName(c.StepNode(i)), name, pattern, strings.Join(fanins, ", "))
	}
	for h, out := range c.Outputs {
		inv := ""
		if out.Inverted {
			inv = "!"
		}
		fmt.Fprintf(&sb, "y%d = %s%s\n", h+1, inv, c.NodeName(out.Node))
	}
	return sb.String()
}
