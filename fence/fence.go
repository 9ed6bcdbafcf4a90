// Package fence enumerates the level structures used by depth-bounded synthesis.
//
// A fence assigns a number of steps to each level 1..k of a chain; level 0 holds
// the primary inputs and the constant. A step on level l only reads nodes of
// lower levels, and at least one of its fanins lies on level l-1.
package fence

import (
	"fmt"
	"strings"
)

// A Fence holds the number of steps of each level, from level 1 upwards.
type Fence []int

// Size returns the total number of steps of f.
func (f Fence) Size() int {
	res := 0
	for _, nb := range f {
		res += nb
	}
	return res
}

// Depth returns the number of levels of f.
func (f Fence) Depth() int { return len(f) }

// Valid returns true iff every level of f has at least one step.
func (f Fence) Valid() bool {
	if len(f) == 0 {
		return false
	}
	for _, nb := range f {
		if nb <= 0 {
			return false
		}
	}
	return true
}

// Levels returns the level of each step, steps being assigned to levels in order.
func (f Fence) Levels() []int {
	res := make([]int, 0, f.Size())
	for l, nb := range f {
		for i := 0; i < nb; i++ {
			res = append(res, l+1)
		}
	}
	return res
}

func (f Fence) String() string {
	strs := make([]string, len(f))
	for i, nb := range f {
		strs[i] = fmt.Sprint(nb)
	}
	return "[" + strings.Join(strs, " ") + "]"
}

// Compositions returns all fences of the given size and depth, in lexicographic order.
func Compositions(size, depth int) []Fence {
	if depth <= 0 || size < depth {
		return nil
	}
	var res []Fence
	cur := make(Fence, depth)
	var rec func(level, left int)
	rec = func(level, left int) {
		if level == depth-1 {
			cur[level] = left
			res = append(res, append(Fence(nil), cur...))
			return
		}
		for nb := 1; nb <= left-(depth-1-level); nb++ {
			cur[level] = nb
			rec(level+1, left-nb)
		}
	}
	rec(0, size)
	return res
}

// Filter returns true iff f can be the structure of a chain of gates with the given arity
// computing nbOutputs nontrivial outputs: the top level has at most nbOutputs steps, and
// every other level has no more steps than can be read by the levels above it and by the
// outputs not on the top level.
func Filter(f Fence, arity, nbOutputs int) bool {
	if !f.Valid() {
		return false
	}
	if f[len(f)-1] > nbOutputs {
		return false
	}
	above := 0
	for l := len(f) - 1; l >= 0; l-- {
		if l < len(f)-1 && f[l] > arity*above+nbOutputs-1 {
			return false
		}
		above += f[l]
	}
	return true
}

// Filtered returns the fences of the given size and depth that pass Filter.
func Filtered(size, depth, arity, nbOutputs int) []Fence {
	var res []Fence
	for _, f := range Compositions(size, depth) {
		if Filter(f, arity, nbOutputs) {
			res = append(res, f)
		}
	}
	return res
}

// A Generator yields fences by increasing size, then increasing depth.
type Generator struct {
	arity     int
	nbOutputs int
	size      int
	depth     int
	pending   []Fence
}

// NewGenerator returns a generator starting at fences of minSize steps.
func NewGenerator(minSize, arity, nbOutputs int) *Generator {
	if minSize < 1 {
		minSize = 1
	}
	if nbOutputs < 1 {
		nbOutputs = 1
	}
	return &Generator{arity: arity, nbOutputs: nbOutputs, size: minSize, depth: 0}
}

// Size returns the size of the fences currently generated.
func (g *Generator) Size() int { return g.size }

// Next returns the next fence. The generator never runs dry: callers bound the size themselves.
func (g *Generator) Next() Fence {
	for len(g.pending) == 0 {
		g.depth++
		if g.depth > g.size {
			g.size++
			g.depth = 1
		}
		g.pending = Filtered(g.size, g.depth, g.arity, g.nbOutputs)
	}
	f := g.pending[0]
	g.pending = g.pending[1:]
	return f
}
