// Package expr parses and evaluates Boolean expressions used to write synthesis targets.
//
// Rather than writing a truth table in hexadecimal, a target can be written as a formula
// over named inputs:
//
//	maj(a, b, c) & ^(a -> d)
//
// TruthTable turns such a formula into a truth table, given the ordered list of inputs.
//
// Formulas can also be built from a synthesized chain (see FromChain), and two formulas
// can be checked for equivalence: the check is translated to a gophersat bf formula and
// handed to the gophersat solver, which gives an independent confirmation that a chain
// computes its target.
package expr
