package spec

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/crillab/exactsynth/expr"
	"github.com/crillab/exactsynth/tt"
)

// File is the YAML representation of a Spec.
//
//	inputs: [a, b, c]
//	initial_steps: 1
//	budget: 30s
//	outputs:
//	  - name: carry
//	    expr: maj(a, b, c)
//	  - name: f
//	    hex: "96"
//	    dontcare: "01"
type File struct {
	Inputs       []string     `yaml:"inputs,omitempty"`
	NbInputs     int          `yaml:"nb_inputs,omitempty"`
	InitialSteps int          `yaml:"initial_steps,omitempty"`
	Budget       string       `yaml:"budget,omitempty"`
	Outputs      []FileOutput `yaml:"outputs"`
}

// FileOutput is one output of a File. Exactly one of Expr, Hex and Binary must be set.
type FileOutput struct {
	Name     string `yaml:"name,omitempty"`
	Expr     string `yaml:"expr,omitempty"`
	Hex      string `yaml:"hex,omitempty"`
	Binary   string `yaml:"binary,omitempty"`
	DontCare string `yaml:"dontcare,omitempty"` // Hexadecimal mask of the rows that do not matter.
}

// Load reads a YAML specification.
func Load(r io.Reader) (*Spec, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "could not decode specification")
	}
	return f.Spec()
}

// Spec builds the Spec described by f.
func (f *File) Spec() (*Spec, error) {
	n := f.NbInputs
	if len(f.Inputs) != 0 {
		if n != 0 && n != len(f.Inputs) {
			return nil, errors.Errorf("nb_inputs is %d but %d inputs are named", n, len(f.Inputs))
		}
		n = len(f.Inputs)
	}
	names := f.Inputs
	if len(names) == 0 {
		names = DefaultNames(n)
	}
	s := &Spec{NbInputs: n, InputNames: names, InitialSteps: f.InitialSteps}
	if s.InitialSteps == 0 {
		s.InitialSteps = 1
	}
	if f.Budget != "" {
		d, err := time.ParseDuration(f.Budget)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid budget %q", f.Budget)
		}
		s.Budget = d
	}
	hasDC := false
	for h, out := range f.Outputs {
		fn, err := out.function(n, names)
		if err != nil {
			return nil, errors.Wrapf(err, "output %d", h)
		}
		s.Functions = append(s.Functions, fn)
		var dc tt.TT
		if out.DontCare != "" {
			hasDC = true
			if dc, err = tt.FromHex(n, out.DontCare); err != nil {
				return nil, errors.Wrapf(err, "don't-care mask of output %d", h)
			}
		}
		s.DontCares = append(s.DontCares, dc)
		name := out.Name
		if name == "" {
			name = fmt.Sprintf("y%d", h+1)
		}
		s.OutputNames = append(s.OutputNames, name)
	}
	if !hasDC {
		s.DontCares = nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (out FileOutput) function(n int, names []string) (tt.TT, error) {
	set := 0
	for _, str := range []string{out.Expr, out.Hex, out.Binary} {
		if str != "" {
			set++
		}
	}
	if set != 1 {
		return tt.TT{}, errors.New("exactly one of expr, hex and binary must be set")
	}
	switch {
	case out.Hex != "":
		return tt.FromHex(n, out.Hex)
	case out.Binary != "":
		return tt.FromBinary(n, out.Binary)
	default:
		f, err := expr.ParseString(out.Expr)
		if err != nil {
			return tt.TT{}, errors.Wrapf(err, "could not parse %q", out.Expr)
		}
		return expr.TruthTable(f, names)
	}
}

// DefaultNames returns the names x1, ..., xn.
func DefaultNames(n int) []string {
	res := make([]string, n)
	for i := range res {
		res[i] = fmt.Sprintf("x%d", i+1)
	}
	return res
}

// FromExprs builds a spec from formulas over the given inputs.
// If inputs is empty, the variables of the formulas are used, in order of first appearance.
func FromExprs(inputs []string, exprs ...string) (*Spec, error) {
	forms := make([]expr.Formula, len(exprs))
	for i, str := range exprs {
		f, err := expr.ParseString(str)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse %q", str)
		}
		forms[i] = f
	}
	if len(inputs) == 0 {
		seen := make(map[string]bool)
		for _, f := range forms {
			for _, v := range expr.Vars(f) {
				if !seen[v] {
					seen[v] = true
					inputs = append(inputs, v)
				}
			}
		}
	}
	s := &Spec{NbInputs: len(inputs), InputNames: inputs, InitialSteps: 1}
	for i, f := range forms {
		tab, err := expr.TruthTable(f, inputs)
		if err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
		s.Functions = append(s.Functions, tab)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
