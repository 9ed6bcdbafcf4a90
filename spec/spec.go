// Package spec describes what a chain must compute: one or more truth tables
// over shared inputs, with optional don't-cares.
//
// Before any search, a Spec is normalized against a gate family. Outputs that
// are already equal to a constant or to an (inverted) input are marked trivial
// and never reach the encoder; for families of normal gates, remaining outputs
// are complemented when needed so that they map the all-zero row to 0.
package spec

import (
	"time"

	"github.com/pkg/errors"

	"github.com/crillab/exactsynth/chain"
	"github.com/crillab/exactsynth/gate"
	"github.com/crillab/exactsynth/tt"
)

// A Spec is an immutable synthesis target.
type Spec struct {
	NbInputs     int
	Functions    []tt.TT
	DontCares    []tt.TT       // Optional. When set, one (possibly zero-valued) mask per function.
	InputNames   []string      // Optional.
	OutputNames  []string      // Optional.
	InitialSteps int           // Size the search starts at. Defaults to 1.
	Budget       time.Duration // Soft timeout of each solver call. 0 means no limit.
}

// New returns a spec for the given functions, which must all share the same number of inputs.
func New(functions ...tt.TT) *Spec {
	s := &Spec{Functions: functions, InitialSteps: 1}
	if len(functions) > 0 {
		s.NbInputs = functions[0].NbVars()
	}
	return s
}

// NbOutputs returns the number of outputs of s.
func (s *Spec) NbOutputs() int { return len(s.Functions) }

// DontCare returns the don't-care mask of output h, or a zero-valued TT if there is none.
func (s *Spec) DontCare(h int) tt.TT {
	if h < len(s.DontCares) {
		return s.DontCares[h]
	}
	return tt.TT{}
}

// Validate checks the consistency of s.
func (s *Spec) Validate() error {
	if len(s.Functions) == 0 {
		return errors.New("specification has no output")
	}
	if s.NbInputs < 0 {
		return errors.Errorf("invalid number of inputs %d", s.NbInputs)
	}
	for h, f := range s.Functions {
		if !f.Valid() {
			return errors.Errorf("output %d has no truth table", h)
		}
		if f.NbVars() != s.NbInputs {
			return errors.Errorf("output %d has %d inputs, expected %d", h, f.NbVars(), s.NbInputs)
		}
	}
	if len(s.DontCares) != 0 && len(s.DontCares) != len(s.Functions) {
		return errors.Errorf("%d don't-care masks for %d outputs", len(s.DontCares), len(s.Functions))
	}
	for h, dc := range s.DontCares {
		if dc.Valid() && dc.NbVars() != s.NbInputs {
			return errors.Errorf("don't-care mask of output %d has %d inputs, expected %d", h, dc.NbVars(), s.NbInputs)
		}
	}
	if len(s.InputNames) != 0 && len(s.InputNames) != s.NbInputs {
		return errors.Errorf("%d input names for %d inputs", len(s.InputNames), s.NbInputs)
	}
	if s.InitialSteps < 0 {
		return errors.Errorf("invalid initial number of steps %d", s.InitialSteps)
	}
	return nil
}

// A Target is a nontrivial output, as seen by the encoder.
type Target struct {
	Output   int   // Index of the output in the spec.
	Function tt.TT // Normalized function.
	DontCare tt.TT // Zero-valued when every row matters.
	Inverted bool  // Whether Function is the complement of the spec's output.
}

// Care returns true iff row r of t matters.
func (t Target) Care(r int) bool {
	return !t.DontCare.Valid() || !t.DontCare.Bit(r)
}

// A Binding tells how an output of the spec is computed.
type Binding struct {
	Trivial  bool
	Node     int  // For trivial outputs, the constant or input node.
	Inverted bool // For trivial outputs, whether the node is complemented.
	Target   int  // For nontrivial outputs, the index in Problem.Targets.
}

// A Problem is a normalized Spec.
type Problem struct {
	Spec     *Spec
	Family   *gate.Family
	Bindings []Binding
	Targets  []Target
}

// Normalize normalizes s for the given family. cache may be nil.
func (s *Spec) Normalize(family *gate.Family, cache *Cache) (*Problem, error) {
	if err := s.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid specification")
	}
	if cache == nil {
		cache = NewCache()
	}
	pb := &Problem{Spec: s, Family: family, Bindings: make([]Binding, len(s.Functions))}
	for h, f := range s.Functions {
		dc := s.DontCare(h)
		if triv, ok := cache.Trivial(f, dc); ok {
			pb.Bindings[h] = Binding{Trivial: true, Node: triv.Node, Inverted: triv.Inverted}
			continue
		}
		target := Target{Output: h, Function: f, DontCare: dc}
		if family.Normal() && f.Bit(0) && (!dc.Valid() || !dc.Bit(0)) {
			target.Function = f.Not()
			target.Inverted = true
		}
		pb.Bindings[h] = Binding{Target: len(pb.Targets)}
		pb.Targets = append(pb.Targets, target)
	}
	return pb, nil
}

// AllTrivial returns true iff no output requires a gate.
func (pb *Problem) AllTrivial() bool { return len(pb.Targets) == 0 }

// TrivialMask returns, for each output, whether it is trivial.
func (pb *Problem) TrivialMask() []bool {
	res := make([]bool, len(pb.Bindings))
	for h, b := range pb.Bindings {
		res[h] = b.Trivial
	}
	return res
}

// InversionMask returns, for each output, whether it is computed by a complemented node.
// Nontrivial outputs report their normalization bit.
func (pb *Problem) InversionMask() []bool {
	res := make([]bool, len(pb.Bindings))
	for h, b := range pb.Bindings {
		if b.Trivial {
			res[h] = b.Inverted
		} else {
			res[h] = pb.Targets[b.Target].Inverted
		}
	}
	return res
}

// TrivialChain returns the zero-step chain computing s when all its outputs are trivial.
func (pb *Problem) TrivialChain() *chain.Chain {
	if !pb.AllTrivial() {
		return nil
	}
	c := chain.New(pb.Family, pb.Spec.NbInputs)
	for _, b := range pb.Bindings {
		c.AddOutput(b.Node, b.Inverted)
	}
	return c
}

// Check returns an error if c does not compute s on every care row.
func (s *Spec) Check(c *chain.Chain) error {
	if err := c.Validate(); err != nil {
		return err
	}
	outs := c.Simulate()
	if len(outs) != len(s.Functions) {
		return errors.Errorf("chain has %d outputs, expected %d", len(outs), len(s.Functions))
	}
	for h, f := range s.Functions {
		if !outs[h].EqualUnder(f, s.DontCare(h)) {
			return errors.Errorf("output %d computes %v, expected %v", h, outs[h], f)
		}
	}
	return nil
}
