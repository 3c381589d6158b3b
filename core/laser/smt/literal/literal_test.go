package literal

import (
	"testing"

	"github.com/laser-ethereum/laser/core/laser/smt"
)

func TestEqConcreteBitVecs(t *testing.T) {
	f := NewFactory()
	a := f.BitVecVal(5, 64)
	b := f.BitVecVal(5, 64)
	c := f.BitVecVal(6, 64)

	if got := f.Eq(a, b); got.String() != "true" {
		t.Fatalf("Eq(5,5) = %v, want true", got)
	}
	if got := f.Eq(a, c); got.String() != "false" {
		t.Fatalf("Eq(5,6) = %v, want false", got)
	}
}

func TestAndShortCircuitsOnConcreteFalse(t *testing.T) {
	f := NewFactory()
	got := f.And(f.BoolVal(true), f.BoolVal(false), f.BoolVal(true))
	if got.String() != "false" {
		t.Fatalf("And(true,false,true) = %v, want false", got)
	}
}

func TestAndMixedSymbolicStaysSymbolic(t *testing.T) {
	f := NewFactory()
	got := f.And(f.BoolVal(true), f.BoolConst("x"))
	if _, concrete := got.(Bool).Value(); concrete {
		t.Fatalf("And(true, x) should stay symbolic, got %v", got)
	}
}

func TestSolverIsPossibleRejectsConcreteFalse(t *testing.T) {
	f := NewFactory()
	var s Solver

	terms := []smt.Bool{f.BoolVal(true), f.BoolVal(false)}
	if s.IsPossible(terms) {
		t.Fatalf("a concrete false term should make the set impossible")
	}
}

func TestSolverIsPossibleAcceptsSymbolicAndEmpty(t *testing.T) {
	f := NewFactory()
	var s Solver

	if !s.IsPossible(nil) {
		t.Fatalf("empty constraint set should be possible")
	}
	terms := []smt.Bool{f.BoolVal(true), f.BoolConst("x")}
	if !s.IsPossible(terms) {
		t.Fatalf("an unresolved symbolic term should not be treated as impossible")
	}
}

func TestBitVecBigReportsFullWidthValue(t *testing.T) {
	f := NewFactory()
	bv := f.BitVecValBytes([]byte{0x01, 0x02}, 256).(BitVec)
	if bv.Big().Int64() != 0x0102 {
		t.Fatalf("Big() = %v, want 0x0102", bv.Big())
	}
}
