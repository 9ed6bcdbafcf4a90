package expr

import (
	"fmt"
	"io"
	"strings"
	"text/scanner"
)

type parser struct {
	s     scanner.Scanner
	eof   bool   // Have we reached eof yet?
	token string // Last token read
}

// Parse parses the formula from the given input Reader.
// It returns the corresponding Formula.
// Formulas are written using the following operators (from lowest to highest priority) :
//
// - for an equivalence, the "=" operator,
// - for an implication, the "->" operator,
// - for a disjunction ("or"), the "|" operator,
// - for a conjunction ("and"), the "&" operator,
// - for a negation, the "^" or "!" unary operators.
//
// Parentheses can be used to group subformulas.
// The constants are written 0 and 1. The functions maj(...), xor(...), and(...) and or(...)
// take any number of comma-separated arguments, not(...) takes one and imp(...) two,
// so that the output of Formula.String can be parsed back.
func Parse(r io.Reader) (Formula, error) {
	var s scanner.Scanner
	s.Init(r)
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.SkipComments
	p := parser{s: s}
	p.scan()
	f, err := p.parseEquiv()
	if err != nil {
		return nil, err
	}
	if !p.eof {
		return nil, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
	}
	return f, nil
}

// ParseString parses the formula in str.
func ParseString(str string) (Formula, error) {
	return Parse(strings.NewReader(str))
}

func isOperator(token string) bool {
	return token == "=" || token == "-" || token == "|" || token == "&" || token == ","
}

func (p *parser) scan() {
	if p.eof {
		return
	}
	p.eof = (p.s.Scan() == scanner.EOF)
	p.token = p.s.TokenText()
}

func (p *parser) parseEquiv() (f Formula, err error) {
	if p.eof {
		return nil, fmt.Errorf("at position %v, expected expression, found EOF", p.s.Pos())
	}
	if isOperator(p.token) {
		return nil, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
	}
	f, err = p.parseImplies()
	if err != nil {
		return nil, err
	}
	if p.eof {
		return f, nil
	}
	if p.token == "=" {
		p.scan()
		if p.eof {
			return nil, fmt.Errorf("unexpected EOF")
		}
		f2, err := p.parseEquiv()
		if err != nil {
			return nil, err
		}
		return Eq(f, f2), nil
	}
	return f, nil
}

func (p *parser) parseImplies() (f Formula, err error) {
	f, err = p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.eof {
		return f, nil
	}
	if p.token == "-" {
		p.scan()
		if p.eof {
			return nil, fmt.Errorf("unexpected EOF")
		}
		if p.token != ">" {
			return nil, fmt.Errorf("invalid token %q at %v", "-"+p.token, p.s.Pos())
		}
		p.scan()
		if p.eof {
			return nil, fmt.Errorf("unexpected EOF")
		}
		f2, err := p.parseImplies()
		if err != nil {
			return nil, err
		}
		return Implies(f, f2), nil
	}
	return f, nil
}

func (p *parser) parseOr() (f Formula, err error) {
	f, err = p.parseAnd()
	if err != nil {
		return nil, err
	}
	if p.eof {
		return f, nil
	}
	if p.token == "|" {
		p.scan()
		if p.eof {
			return nil, fmt.Errorf("unexpected EOF")
		}
		f2, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		return Or(f, f2), nil
	}
	return f, nil
}

func (p *parser) parseAnd() (f Formula, err error) {
	f, err = p.parseNot()
	if err != nil {
		return nil, err
	}
	if p.eof {
		return f, nil
	}
	if p.token == "&" {
		p.scan()
		if p.eof {
			return nil, fmt.Errorf("unexpected EOF")
		}
		f2, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		return And(f, f2), nil
	}
	return f, nil
}

func (p *parser) parseNot() (f Formula, err error) {
	if isOperator(p.token) {
		return nil, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
	}
	if p.token == "^" || p.token == "!" {
		p.scan()
		if p.eof {
			return nil, fmt.Errorf("unexpected EOF")
		}
		f, err = p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not(f), nil
	}
	return p.parseBasic()
}

func (p *parser) parseBasic() (f Formula, err error) {
	if isOperator(p.token) || p.token == ")" {
		return nil, fmt.Errorf("unexpected token %q at %s", p.token, p.s.Pos())
	}
	if p.token == "(" {
		p.scan()
		f, err = p.parseEquiv()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return f, nil
	}
	switch p.token {
	case "0":
		p.scan()
		return False, nil
	case "1":
		p.scan()
		return True, nil
	}
	name := p.token
	if !isIdent(name) {
		return nil, fmt.Errorf("unexpected token %q at %s", name, p.s.Pos())
	}
	p.scan()
	if p.eof || p.token != "(" {
		return Var(name), nil
	}
	pos := p.s.Pos()
	var build func(...Formula) Formula
	switch name {
	case "maj":
		build = Maj
	case "xor":
		build = Xor
	case "and":
		build = And
	case "or":
		build = Or
	case "not":
		build = func(args ...Formula) Formula { return Not(args[0]) }
	case "imp":
		build = func(args ...Formula) Formula { return Implies(args[0], args[1]) }
	default:
		return nil, fmt.Errorf("unknown function %q at %s", name, pos)
	}
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	switch {
	case name == "maj" && len(args)%2 == 0:
		return nil, fmt.Errorf("maj expects an odd number of arguments, got %d", len(args))
	case name == "not" && len(args) != 1:
		return nil, fmt.Errorf("not expects 1 argument, got %d at %s", len(args), pos)
	case name == "imp" && len(args) != 2:
		return nil, fmt.Errorf("imp expects 2 arguments, got %d at %s", len(args), pos)
	}
	return build(args...), nil
}

// parseArgs parses a parenthesized, comma-separated list of formulas.
// The current token is the opening parenthesis.
func (p *parser) parseArgs() ([]Formula, error) {
	var args []Formula
	p.scan()
	for {
		f, err := p.parseEquiv()
		if err != nil {
			return nil, err
		}
		args = append(args, f)
		if p.eof {
			return nil, fmt.Errorf("expected closing parenthesis, found EOF at %s", p.s.Pos())
		}
		if p.token == "," {
			p.scan()
			continue
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

func (p *parser) expect(token string) error {
	if p.eof {
		return fmt.Errorf("expected %q, found EOF at %s", token, p.s.Pos())
	}
	if p.token != token {
		return fmt.Errorf("expected %q, found %q at %s", token, p.token, p.s.Pos())
	}
	p.scan()
	return nil
}

func isIdent(token string) bool {
	if token == "" {
		return false
	}
	for i, r := range token {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
