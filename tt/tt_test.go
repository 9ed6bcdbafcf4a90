package tt

import (
	"fmt"
	"testing"
)

// To each (arity, hex) pair, associate the expected binary representation.
var hexToBinary = map[string]string{
	"1:2":  "10",
	"2:8":  "1000",
	"2:6":  "0110",
	"3:e8": "11101000",
	"3:96": "10010110",
	"3:01": "00000001",
}

func TestHexBinary(t *testing.T) {
	for in, expected := range hexToBinary {
		var n int
		var hex string
		if _, err := fmt.Sscanf(in, "%d:%s", &n, &hex); err != nil {
			t.Fatalf("invalid test input %q: %v", in, err)
		}
		tab, err := FromHex(n, hex)
		if err != nil {
			t.Errorf("could not parse %q: %v", in, err)
			continue
		}
		if got := tab.Binary(); got != expected {
			t.Errorf("for %q, expected binary %q, got %q", in, expected, got)
		}
		if got := tab.Hex(); got != hex {
			t.Errorf("for %q, hex round trip gave %q", in, got)
		}
		back, err := FromBinary(n, expected)
		if err != nil {
			t.Errorf("could not parse binary %q: %v", expected, err)
		} else if !back.Equal(tab) {
			t.Errorf("binary %q gave %v, expected %v", expected, back, tab)
		}
	}
}

func TestFromHexErrors(t *testing.T) {
	for _, in := range []string{"e", "e8e", "zz"} {
		if _, err := FromHex(3, in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
	if _, err := FromHex(1, "4"); err == nil {
		t.Errorf("expected error for bits beyond the table")
	}
}

func TestNth(t *testing.T) {
	for n := 1; n <= 8; n++ {
		for i := 0; i < n; i++ {
			v := Nth(n, i)
			for r := 0; r < v.NbRows(); r++ {
				if v.Bit(r) != InputBit(r, i) {
					t.Fatalf("Nth(%d, %d): invalid bit at row %d", n, i, r)
				}
			}
			if v.Count() != v.NbRows()/2 {
				t.Errorf("Nth(%d, %d) has %d ones", n, i, v.Count())
			}
		}
	}
}

func TestOperators(t *testing.T) {
	a, b, c := Nth(3, 0), Nth(3, 1), Nth(3, 2)
	maj := a.And(b).Or(a.And(c)).Or(b.And(c))
	if maj.Hex() != "e8" {
		t.Errorf("expected majority to be e8, got %v", maj)
	}
	if x := a.Xor(b).Xor(c); x.Hex() != "96" {
		t.Errorf("expected parity to be 96, got %v", x)
	}
	if nm := maj.Not(); nm.Hex() != "17" {
		t.Errorf("expected complement of majority to be 17, got %v", nm)
	}
	if !Const(3, false).IsZero() || Const(3, true).Count() != 8 {
		t.Errorf("invalid constants")
	}
	if Const(2, true).Not().Count() != 0 {
		t.Errorf("complement of constant 1 should be 0")
	}
}

func TestEqualUnder(t *testing.T) {
	and, _ := FromHex(2, "8")
	or, _ := FromHex(2, "e")
	dc, _ := FromHex(2, "6")
	if and.Equal(or) {
		t.Errorf("and and or should differ")
	}
	if !and.EqualUnder(or, dc) {
		t.Errorf("and and or should agree outside of rows 1 and 2")
	}
	if !and.EqualUnder(and, TT{}) {
		t.Errorf("a zero don't-care mask should behave as Equal")
	}
}

func ExampleFromHex() {
	f, err := FromHex(3, "e8")
	if err != nil {
		fmt.Printf("could not parse: %v", err)
		return
	}
	fmt.Println(f.Binary(), f.Count(), f.Bit(3), f.Bit(4))
	// Output: 11101000 4 true false
}
