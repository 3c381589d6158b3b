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

// Package literal is the engine's built-in smt.Factory/Solver: it evaluates
// every term against its concrete operands instead of deferring to a real
// SMT backend. A named constant minted by BoolConst or BitVecConst has no
// underlying value, so this factory cannot actually prune a path guarded by
// one; it exists so cmd/lasersvm runs end to end against concrete inputs
// without a solver dependency, not as a substitute for a real one.
package literal

import (
	"fmt"
	"math/big"

	"github.com/laser-ethereum/laser/core/laser/smt"
)

// BitVec is a fixed-width value: concrete when it was built from a literal,
// symbolic (no tracked value) when built from BitVecConst.
type BitVec struct {
	name       string
	val        *big.Int
	bits       int
	isConcrete bool
}

func (b BitVec) Size() int { return b.bits }

func (b BitVec) String() string {
	if b.isConcrete {
		return fmt.Sprintf("0x%x", b.val)
	}
	return b.name
}

// Value reports the concrete value truncated to 64 bits, and whether the
// term was built as a literal at all; callers needing the full width use
// Big instead.
func (b BitVec) Value() (uint64, bool) {
	if !b.isConcrete {
		return 0, false
	}
	return b.val.Uint64(), true
}

// Big returns the full-width concrete value, or nil for a symbolic term.
func (b BitVec) Big() *big.Int { return b.val }

// Bool is a boolean term: concrete when it carries a known value, symbolic
// (permissive — see package doc) when minted by BoolConst.
type Bool struct {
	name       string
	val        bool
	isConcrete bool
}

func (b Bool) String() string {
	if b.isConcrete {
		if b.val {
			return "true"
		}
		return "false"
	}
	return b.name
}

// Value reports the concrete value and whether one is known.
func (b Bool) Value() (bool, bool) { return b.val, b.isConcrete }

// Function is an uninterpreted function symbol. Apply always returns a
// symbolic result: this factory never actually computes a function's range
// value, since nothing in the concrete evaluator drives one to completion
// (topological keys it produces are always already-concrete keccak
// outputs, which keccak.Manager.Concretise skips over entirely).
type Function struct {
	name string
	rng  int
}

func (f Function) Apply(arg smt.BitVec) smt.BitVec {
	return BitVec{name: fmt.Sprintf("%s(%s)", f.name, arg.String()), bits: f.rng}
}

// Factory builds literal/symbolic terms as described above.
type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) BoolVal(v bool) smt.Bool { return Bool{val: v, isConcrete: true} }

func (f *Factory) BoolConst(name string) smt.Bool { return Bool{name: name} }

func (f *Factory) BitVecVal(v uint64, size int) smt.BitVec {
	return BitVec{val: new(big.Int).SetUint64(v), bits: size, isConcrete: true}
}

func (f *Factory) BitVecValBytes(v []byte, size int) smt.BitVec {
	return BitVec{val: new(big.Int).SetBytes(v), bits: size, isConcrete: true}
}

func (f *Factory) BitVecConst(name string, size int) smt.BitVec {
	return BitVec{name: name, bits: size}
}

func (f *Factory) Eq(a, b smt.BitVec) smt.Bool {
	la, lok := a.(BitVec)
	lb, rok := b.(BitVec)
	if lok && rok && la.isConcrete && lb.isConcrete {
		return Bool{val: la.val.Cmp(lb.val) == 0, isConcrete: true}
	}
	return Bool{name: fmt.Sprintf("(= %s %s)", a.String(), b.String())}
}

func (f *Factory) And(terms ...smt.Bool) smt.Bool {
	acc := true
	allConcrete := true
	for _, t := range terms {
		b, ok := t.(Bool)
		if !ok || !b.isConcrete {
			allConcrete = false
			continue
		}
		acc = acc && b.val
	}
	if allConcrete {
		return Bool{val: acc, isConcrete: true}
	}
	return Bool{name: "(and " + joinBool(terms) + ")"}
}

func (f *Factory) Or(terms ...smt.Bool) smt.Bool {
	acc := false
	allConcrete := true
	for _, t := range terms {
		b, ok := t.(Bool)
		if !ok || !b.isConcrete {
			allConcrete = false
			continue
		}
		acc = acc || b.val
	}
	if allConcrete {
		return Bool{val: acc, isConcrete: true}
	}
	return Bool{name: "(or " + joinBool(terms) + ")"}
}

func (f *Factory) Not(a smt.Bool) smt.Bool {
	if b, ok := a.(Bool); ok && b.isConcrete {
		return Bool{val: !b.val, isConcrete: true}
	}
	return Bool{name: "(not " + a.String() + ")"}
}

func (f *Factory) Function(name string, domain, rng int) smt.Function {
	return Function{name: name, rng: rng}
}

func joinBool(terms []smt.Bool) string {
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += " "
		}
		out += t.String()
	}
	return out
}

// Solver answers satisfiability by conjunction of whichever terms carry a
// concrete value: a single concrete false term makes the whole set
// impossible, otherwise the set is reported possible even if it also holds
// unresolved symbolic terms. This is sound for refutation and unsound for
// confirmation, which is exactly the gap a real SMT backend closes.
type Solver struct{}

func (Solver) IsPossible(constraints []smt.Bool) bool {
	for _, c := range constraints {
		if b, ok := c.(Bool); ok && b.isConcrete && !b.val {
			return false
		}
	}
	return true
}
