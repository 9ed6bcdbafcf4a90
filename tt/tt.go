// Package tt implements truth tables of arbitrary arity.
//
// A truth table over n variables holds 2^n bits. Row r of the table is the
// value of the function when variable i (counted from 0) has the value of
// bit i of r. Tables are packed in 64-bit words; the bits of the last word
// beyond 2^n are always kept at 0, so two tables can be compared word by word.
package tt

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// A TT is a truth table.
type TT struct {
	n     int
	words []uint64
}

// projections of the first 6 variables on a single word.
var projections = [6]uint64{
	0xaaaaaaaaaaaaaaaa,
	0xcccccccccccccccc,
	0xf0f0f0f0f0f0f0f0,
	0xff00ff00ff00ff00,
	0xffff0000ffff0000,
	0xffffffff00000000,
}

// New returns the constant 0 function over n variables.
func New(n int) TT {
	if n < 0 {
		panic("negative number of variables")
	}
	return TT{n: n, words: make([]uint64, nbWords(n))}
}

func nbWords(n int) int {
	if n <= 6 {
		return 1
	}
	return 1 << uint(n-6)
}

// mask returns the mask of the meaningful bits of the last word.
func (t TT) mask() uint64 {
	if t.n >= 6 {
		return ^uint64(0)
	}
	return (uint64(1) << (uint(1) << uint(t.n))) - 1
}

// Nth returns the projection on variable i, i.e the function equal to its i-th input.
func Nth(n, i int) TT {
	if i < 0 || i >= n {
		panic(fmt.Sprintf("variable %d out of range [0,%d)", i, n))
	}
	t := New(n)
	if i < 6 {
		for w := range t.words {
			t.words[w] = projections[i]
		}
	} else {
		period := 1 << uint(i-6)
		for w := range t.words {
			if (w/period)%2 == 1 {
				t.words[w] = ^uint64(0)
			}
		}
	}
	t.words[len(t.words)-1] &= t.mask()
	return t
}

// Const returns the constant function over n variables.
func Const(n int, val bool) TT {
	t := New(n)
	if val {
		for i := range t.words {
			t.words[i] = ^uint64(0)
		}
		t.words[len(t.words)-1] &= t.mask()
	}
	return t
}

// NbVars returns the number of variables of t.
func (t TT) NbVars() int { return t.n }

// NbRows returns the number of rows of t, i.e 2^NbVars().
func (t TT) NbRows() int { return 1 << uint(t.n) }

// Bit returns the value of row r.
func (t TT) Bit(r int) bool {
	return t.words[r>>6]&(uint64(1)<<uint(r&63)) != 0
}

// Set sets the value of row r.
func (t TT) Set(r int, val bool) {
	if val {
		t.words[r>>6] |= uint64(1) << uint(r&63)
	} else {
		t.words[r>>6] &^= uint64(1) << uint(r&63)
	}
}

// Clone returns a deep copy of t.
func (t TT) Clone() TT {
	words := make([]uint64, len(t.words))
	copy(words, t.words)
	return TT{n: t.n, words: words}
}

// Not returns the complement of t.
func (t TT) Not() TT {
	res := t.Clone()
	for i := range res.words {
		res.words[i] = ^res.words[i]
	}
	res.words[len(res.words)-1] &= res.mask()
	return res
}

// And returns the conjunction of t and o.
func (t TT) And(o TT) TT {
	t.check(o)
	res := t.Clone()
	for i := range res.words {
		res.words[i] &= o.words[i]
	}
	return res
}

// Or returns the disjunction of t and o.
func (t TT) Or(o TT) TT {
	t.check(o)
	res := t.Clone()
	for i := range res.words {
		res.words[i] |= o.words[i]
	}
	return res
}

// Xor returns the exclusive disjunction of t and o.
func (t TT) Xor(o TT) TT {
	t.check(o)
	res := t.Clone()
	for i := range res.words {
		res.words[i] ^= o.words[i]
	}
	return res
}

func (t TT) check(o TT) {
	if t.n != o.n {
		panic(fmt.Sprintf("truth tables of different arities: %d and %d", t.n, o.n))
	}
}

// Equal returns true iff t and o represent the same function.
func (t TT) Equal(o TT) bool {
	if t.n != o.n {
		return false
	}
	for i, w := range t.words {
		if w != o.words[i] {
			return false
		}
	}
	return true
}

// EqualUnder returns true iff t and o agree on every row where dc is 0.
// dc is a don't-care mask; a zero-valued TT means no don't-care.
func (t TT) EqualUnder(o, dc TT) bool {
	if dc.words == nil {
		return t.Equal(o)
	}
	if t.n != o.n || t.n != dc.n {
		return false
	}
	for i, w := range t.words {
		if (w^o.words[i])&^dc.words[i] != 0 {
			return false
		}
	}
	return true
}

// IsZero returns true iff t is the constant 0 function.
func (t TT) IsZero() bool {
	for _, w := range t.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Count returns the number of rows set to 1.
func (t TT) Count() int {
	res := 0
	for _, w := range t.words {
		res += bits.OnesCount64(w)
	}
	return res
}

// Valid returns false for the zero value of TT.
func (t TT) Valid() bool { return t.words != nil }

// Hex returns the hexadecimal representation of t, most significant row first.
func (t TT) Hex() string {
	nbDigits := t.NbRows() / 4
	if nbDigits == 0 {
		nbDigits = 1
	}
	var sb strings.Builder
	for d := nbDigits - 1; d >= 0; d-- {
		nibble := 0
		for b := 0; b < 4; b++ {
			r := d*4 + b
			if r < t.NbRows() && t.Bit(r) {
				nibble |= 1 << uint(b)
			}
		}
		sb.WriteByte("0123456789abcdef"[nibble])
	}
	return sb.String()
}

// Binary returns the binary representation of t, most significant row first.
func (t TT) Binary() string {
	var sb strings.Builder
	for r := t.NbRows() - 1; r >= 0; r-- {
		if t.Bit(r) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (t TT) String() string {
	return t.Hex()
}

// FromHex parses a truth table over n variables from its hexadecimal representation.
// An optional "0x" prefix is accepted.
func FromHex(n int, s string) (TT, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	t := New(n)
	nbDigits := t.NbRows() / 4
	if nbDigits == 0 {
		nbDigits = 1
	}
	if len(s) != nbDigits {
		return TT{}, errors.Errorf("expected %d hex digits for %d variables, got %q", nbDigits, n, s)
	}
	for i := 0; i < len(s); i++ {
		var nibble int
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			nibble = int(c - '0')
		case c >= 'a' && c <= 'f':
			nibble = int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			nibble = int(c-'A') + 10
		default:
			return TT{}, errors.Errorf("invalid hex digit %q in %q", c, s)
		}
		d := len(s) - 1 - i
		for b := 0; b < 4; b++ {
			r := d*4 + b
			if nibble&(1<<uint(b)) == 0 {
				continue
			}
			if r >= t.NbRows() {
				return TT{}, errors.Errorf("hex string %q has bits beyond %d rows", s, t.NbRows())
			}
			t.Set(r, true)
		}
	}
	return t, nil
}

// FromBinary parses a truth table over n variables from its binary representation,
// most significant row first.
func FromBinary(n int, s string) (TT, error) {
	t := New(n)
	if len(s) != t.NbRows() {
		return TT{}, errors.Errorf("expected %d binary digits for %d variables, got %q", t.NbRows(), n, s)
	}
	for i := 0; i < len(s); i++ {
		r := len(s) - 1 - i
		switch s[i] {
		case '0':
		case '1':
			t.Set(r, true)
		default:
			return TT{}, errors.Errorf("invalid binary digit %q in %q", s[i], s)
		}
	}
	return t, nil
}

// InputBit returns the value of input i (counted from 0) on row r.
func InputBit(r, i int) bool {
	return (r>>uint(i))&1 == 1
}
