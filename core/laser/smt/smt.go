// Copyright 2020 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

// Package smt states the boundary between the engine and its SMT
// collaborator: the term algebra, the simplifier and the solver are all
// external. The engine only ever holds Bool/BitVec values behind
// these interfaces and asks a Solver whether a ConstraintSet is satisfiable.
package smt

// Bool is an opaque boolean SMT term. Implementations are provided by the
// term-algebra collaborator; the engine treats values as immutable and only
// ever combines them through the Factory.
type Bool interface {
	// String renders the term for logging; it is not a serialisation format.
	String() string
}

// BitVec is an opaque, fixed-width symbolic bit-vector term.
type BitVec interface {
	Size() int
	String() string

	// Value reports the concrete value and whether the term is a literal.
	// The engine uses this to short-circuit keccak concretisation for keys
	// that are already concrete.
	Value() (uint64, bool)
}

// Factory builds new terms. A concrete implementation wraps whatever
// expression representation the attached solver understands.
type Factory interface {
	BoolVal(v bool) Bool
	BoolConst(name string) Bool
	BitVecVal(v uint64, size int) BitVec
	// BitVecValBytes builds a literal of the given bit width from a
	// big-endian byte encoding, used for 256-bit keccak witnesses that
	// don't fit in a uint64.
	BitVecValBytes(v []byte, size int) BitVec
	BitVecConst(name string, size int) BitVec

	Eq(a, b BitVec) Bool
	And(terms ...Bool) Bool
	Or(terms ...Bool) Bool
	Not(a Bool) Bool

	// Function declares (or looks up) an uninterpreted function of the given
	// domain/range widths, used by keccak concretisation to witness
	// `function(x) == y` / `inverse(y) == x` pairs.
	Function(name string, domain, rng int) Function
}

// Function is an uninterpreted SMT function symbol.
type Function interface {
	Apply(arg BitVec) BitVec
}

// Solver probes satisfiability of a constraint set. Implementations may
// cache, batch or time out; the engine only requires the boolean answer.
type Solver interface {
	IsPossible(constraints []Bool) bool
}

// ConstraintSet is an append-only ordered list of boolean terms plus an
// auxiliary list of softly-weighted terms accumulated during keccak
// concretisation.
type ConstraintSet struct {
	terms    []Bool
	weighted []Bool
}

// NewConstraintSet returns an empty set.
func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{}
}

// Append adds terms to the ordered list, in order.
func (c *ConstraintSet) Append(terms ...Bool) {
	c.terms = append(c.terms, terms...)
}

// AppendWeighted extends the soft-weight list, used to surface keccak flag
// booleans as solver objectives.
func (c *ConstraintSet) AppendWeighted(terms ...Bool) {
	c.weighted = append(c.weighted, terms...)
}

// All returns the ordered constraint list. Callers must not mutate it.
func (c *ConstraintSet) All() []Bool { return c.terms }

// Weighted returns the soft-weight list. Callers must not mutate it.
func (c *ConstraintSet) Weighted() []Bool { return c.weighted }

// Remove deletes every term equal under == to one of victims (pointer
// identity for pointer-backed terms, field equality for value-backed ones), returning the removed terms. Removing an absent term is a silent
// no-op.
func (c *ConstraintSet) Remove(victims ...Bool) []Bool {
	if len(victims) == 0 {
		return nil
	}
	want := make(map[Bool]bool, len(victims))
	for _, v := range victims {
		want[v] = true
	}
	var removed []Bool
	kept := c.terms[:0:0]
	for _, t := range c.terms {
		if want[t] {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	c.terms = kept
	return removed
}

// Clone returns a deep-enough copy: term slices are copied, term values
// themselves are immutable and shared.
func (c *ConstraintSet) Clone() *ConstraintSet {
	out := &ConstraintSet{
		terms:    make([]Bool, len(c.terms)),
		weighted: make([]Bool, len(c.weighted)),
	}
	copy(out.terms, c.terms)
	copy(out.weighted, c.weighted)
	return out
}

// IsPossible asks the solver whether the current constraint list is
// satisfiable. A nil solver is treated as "always possible", useful for
// engine-only unit tests that never exercise keccak concretisation.
func (c *ConstraintSet) IsPossible(solver Solver) bool {
	if solver == nil {
		return true
	}
	return solver.IsPossible(c.terms)
}

// Len reports the number of hard constraints currently held.
func (c *ConstraintSet) Len() int { return len(c.terms) }

// Last returns the most recently appended constraint, or nil if empty. The
// CFG builder uses this to label CONDITIONAL edges with the branch guard
// that was just added.
func (c *ConstraintSet) Last() Bool {
	if len(c.terms) == 0 {
		return nil
	}
	return c.terms[len(c.terms)-1]
}
