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

// Package smttest is a fake smt.Factory/Solver for package tests: terms are
// rendered as plain strings rather than fed to a real SMT backend, which is
// enough to assert structure (which terms got combined, in what shape)
// without a solver dependency in the test binary.
package smttest

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/laser-ethereum/laser/core/laser/smt"
)

// BitVec is a fake symbolic or concrete bit-vector term.
type BitVec struct {
	Label      string
	Bits       int
	Val        *big.Int
	IsConcrete bool
}

func (b BitVec) Size() int { return b.Bits }

func (b BitVec) String() string {
	if b.IsConcrete {
		return fmt.Sprintf("0x%x", b.Val)
	}
	return b.Label
}

func (b BitVec) Value() (uint64, bool) {
	if !b.IsConcrete {
		return 0, false
	}
	return b.Val.Uint64(), true
}

// Bool is a fake boolean term, printed as the s-expression it represents.
type Bool struct {
	Repr string
}

func (b Bool) String() string { return b.Repr }

// Function is a fake uninterpreted function symbol.
type Function struct {
	Name string
	Rng  int
}

func (f Function) Apply(arg smt.BitVec) smt.BitVec {
	return BitVec{Label: fmt.Sprintf("%s(%s)", f.Name, arg.String()), Bits: f.Rng}
}

// Factory is a fake smt.Factory building string-rendered terms.
type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) BoolVal(v bool) smt.Bool {
	if v {
		return Bool{"true"}
	}
	return Bool{"false"}
}

func (f *Factory) BoolConst(name string) smt.Bool { return Bool{name} }

func (f *Factory) BitVecVal(v uint64, size int) smt.BitVec {
	return BitVec{Val: new(big.Int).SetUint64(v), Bits: size, IsConcrete: true}
}

func (f *Factory) BitVecValBytes(v []byte, size int) smt.BitVec {
	return BitVec{Val: new(big.Int).SetBytes(v), Bits: size, IsConcrete: true}
}

func (f *Factory) BitVecConst(name string, size int) smt.BitVec {
	return BitVec{Label: name, Bits: size}
}

func (f *Factory) Eq(a, b smt.BitVec) smt.Bool {
	return Bool{fmt.Sprintf("(= %s %s)", a.String(), b.String())}
}

func (f *Factory) And(terms ...smt.Bool) smt.Bool {
	return Bool{"(and " + join(terms) + ")"}
}

func (f *Factory) Or(terms ...smt.Bool) smt.Bool {
	return Bool{"(or " + join(terms) + ")"}
}

func (f *Factory) Not(a smt.Bool) smt.Bool {
	return Bool{"(not " + a.String() + ")"}
}

func (f *Factory) Function(name string, domain, rng int) smt.Function {
	return Function{Name: name, Rng: rng}
}

func join(terms []smt.Bool) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// Solver is a fake smt.Solver with a fixed satisfiability answer, or a
// Reject set of term strings treated as individually unsatisfiable.
type Solver struct {
	Possible bool
	Reject   map[string]bool
}

func (s Solver) IsPossible(constraints []smt.Bool) bool {
	if s.Reject != nil {
		for _, c := range constraints {
			if s.Reject[c.String()] {
				return false
			}
		}
	}
	return s.Possible
}
