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

package demo

import (
	"errors"
	"sync/atomic"

	"github.com/core-coin/uint256"

	"github.com/laser-ethereum/laser/common"
	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/profiler"
	"github.com/laser-ethereum/laser/core/laser/smt"
	"github.com/laser-ethereum/laser/core/laser/smt/literal"
	"github.com/laser-ethereum/laser/core/laser/state"
)

// ErrStackUnderflow is the VmException cause raised when an opcode needs
// more stack elements than are present.
var ErrStackUnderflow = errors.New("demo: stack underflow")

// ErrInvalidJumpDest is the VmException cause raised by JUMP when the
// target is not a JUMPDEST.
var ErrInvalidJumpDest = errors.New("demo: invalid jump destination")

// Evaluator is the bundled instruction evaluator: a small concrete
// interpreter over smt/literal terms, covering just enough of the EVM
// instruction set (stack/arithmetic/storage/control-flow/calls) to drive
// core/laser's exploration loop end to end. It does not model memory (MLOAD/
// MSTORE are unimplemented) and call arguments are read as empty input
// rather than copied from it; a production embedder supplies a real
// evaluator instead.
type Evaluator struct {
	Factory smt.Factory

	// Coverage is consulted by the coverage strategy wrapper, if the caller
	// enables it; nil skips the extra bookkeeping.
	Coverage *Coverage

	seq int32
}

func NewEvaluator(factory smt.Factory) *Evaluator {
	return &Evaluator{Factory: factory}
}

func (e *Evaluator) nextSeq() int {
	return int(atomic.AddInt32(&e.seq, 1))
}

func (e *Evaluator) Step(op evm.OpCode, loader evm.DynamicLoader, prof *profiler.Profiler, gs *state.GlobalState, postCall bool) (evm.StepOutcome, error) {
	if postCall {
		return e.resume(gs), nil
	}

	prof.RecordCoverage(gs.Env.ActiveAccount.Hex(), gs.MState.PC)
	if e.Coverage != nil {
		e.Coverage.Mark(gs.Env.ActiveAccount.Hex(), gs.MState.PC)
	}

	switch {
	case op == evm.STOP:
		return endOK(gs), nil
	case op == evm.RETURN:
		return e.doReturn(gs)
	case op == opREVERT:
		return e.doRevert(gs)
	case isPush(op):
		return e.push(gs, op)
	case op == opPOP:
		return e.pop1(gs)
	case op == opDUP1:
		return e.dup1(gs)
	case op == opSWAP1:
		return e.swap1(gs)
	case op == opADD || op == opSUB || op == opLT || op == opGT || op == opEQ:
		return e.binOp(gs, op)
	case op == opISZERO:
		return e.isZero(gs)
	case op == opCALLVALUE:
		return e.pushTerm(gs, gs.Env.CallValue), nil
	case op == opCALLER:
		return e.pushTerm(gs, gs.Env.Sender), nil
	case op == opCALLDATALOAD:
		return e.callDataLoad(gs)
	case op == evm.SLOAD:
		return e.sload(gs)
	case op == evm.SSTORE:
		return e.sstore(gs)
	case op == evm.JUMP:
		return e.jump(gs)
	case op == evm.JUMPI:
		return e.jumpi(gs)
	case op == opJUMPDEST:
		advance(gs, 1)
		return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
	case op == opPC:
		return e.pushTerm(gs, e.Factory.BitVecVal(gs.MState.PC, 256)), nil
	case op == evm.CALL || op == evm.CALLCODE || op == evm.DELEGATECALL:
		return e.startCall(gs, op)
	default:
		return evm.StepOutcome{}, evm.ErrUnimplementedOpcode
	}
}

func endOK(gs *state.GlobalState) evm.StepOutcome {
	return evm.StepOutcome{Kind: evm.StepEndTransaction, End: &evm.TransactionEndSignal{GlobalState: gs, Revert: false}}
}

func endRevert(gs *state.GlobalState) evm.StepOutcome {
	return evm.StepOutcome{Kind: evm.StepEndTransaction, End: &evm.TransactionEndSignal{GlobalState: gs, Revert: true}}
}

func exception(cause error) evm.StepOutcome {
	return evm.StepOutcome{Kind: evm.StepException, Exception: &evm.VmException{Cause: cause}}
}

func advance(gs *state.GlobalState, n uint64) { gs.MState.PC += n }

// pop removes and returns the stack top, or ok=false on underflow.
func pop(gs *state.GlobalState) (smt.BitVec, bool) {
	st := gs.MState.Stack
	if len(st) == 0 {
		return nil, false
	}
	top := st[len(st)-1]
	gs.MState.Stack = st[:len(st)-1]
	return top, true
}

func push(gs *state.GlobalState, v smt.BitVec) { gs.MState.Stack = append(gs.MState.Stack, v) }

func (e *Evaluator) pushTerm(gs *state.GlobalState, v smt.BitVec) evm.StepOutcome {
	if v == nil {
		v = e.Factory.BitVecVal(0, 256)
	}
	push(gs, v)
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}
}

func (e *Evaluator) push(gs *state.GlobalState, op evm.OpCode) (evm.StepOutcome, error) {
	width := pushWidth(op)
	code := gs.World.CodeAt(gs.Env.ActiveAccount)
	start := gs.MState.PC + 1
	end := start + uint64(width)
	if end > uint64(len(code)) {
		end = uint64(len(code))
	}
	var raw []byte
	if start < uint64(len(code)) {
		raw = code[start:end]
	}
	push(gs, e.Factory.BitVecValBytes(raw, 256))
	advance(gs, uint64(width)+1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

func (e *Evaluator) pop1(gs *state.GlobalState) (evm.StepOutcome, error) {
	if _, ok := pop(gs); !ok {
		return exception(ErrStackUnderflow), nil
	}
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

func (e *Evaluator) dup1(gs *state.GlobalState) (evm.StepOutcome, error) {
	top := gs.MState.StackTop()
	if top == nil {
		return exception(ErrStackUnderflow), nil
	}
	push(gs, top)
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

func (e *Evaluator) swap1(gs *state.GlobalState) (evm.StepOutcome, error) {
	st := gs.MState.Stack
	if len(st) < 2 {
		return exception(ErrStackUnderflow), nil
	}
	st[len(st)-1], st[len(st)-2] = st[len(st)-2], st[len(st)-1]
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

// toUint256 reads a literal-factory concrete term, treating any term this
// evaluator cannot interpret concretely (a genuinely symbolic constant) as
// zero. A real evaluator defers such arithmetic to the SMT term algebra
// instead.
func toUint256(v smt.BitVec) *uint256.Int {
	if lb, ok := v.(literal.BitVec); ok {
		if b := lb.Big(); b != nil {
			n, _ := uint256.FromBig(b)
			return n
		}
	}
	return new(uint256.Int)
}

func (e *Evaluator) binOp(gs *state.GlobalState, op evm.OpCode) (evm.StepOutcome, error) {
	b, ok1 := pop(gs)
	a, ok2 := pop(gs)
	if !ok1 || !ok2 {
		return exception(ErrStackUnderflow), nil
	}
	av, bv := toUint256(a), toUint256(b)
	var result uint256.Int
	switch op {
	case opADD:
		result.Add(av, bv)
	case opSUB:
		result.Sub(av, bv)
	case opLT:
		if av.Lt(bv) {
			result.SetOne()
		}
	case opGT:
		if av.Gt(bv) {
			result.SetOne()
		}
	case opEQ:
		if av.Eq(bv) {
			result.SetOne()
		}
	}
	push(gs, e.Factory.BitVecValBytes(result.Bytes(), 256))
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

func (e *Evaluator) isZero(gs *state.GlobalState) (evm.StepOutcome, error) {
	a, ok := pop(gs)
	if !ok {
		return exception(ErrStackUnderflow), nil
	}
	var result uint256.Int
	if toUint256(a).IsZero() {
		result.SetOne()
	}
	push(gs, e.Factory.BitVecValBytes(result.Bytes(), 256))
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

func (e *Evaluator) callDataLoad(gs *state.GlobalState) (evm.StepOutcome, error) {
	offsetTerm, ok := pop(gs)
	if !ok {
		return exception(ErrStackUnderflow), nil
	}
	data, _ := gs.Env.CallData.([]byte)
	offset := toUint256(offsetTerm).Uint64()
	var word [32]byte
	if offset < uint64(len(data)) {
		copy(word[:], data[offset:])
	}
	push(gs, e.Factory.BitVecValBytes(word[:], 256))
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

func hashKey(v smt.BitVec) common.Hash {
	return common.BytesToHash(toUint256(v).Bytes())
}

func (e *Evaluator) sload(gs *state.GlobalState) (evm.StepOutcome, error) {
	key, ok := pop(gs)
	if !ok {
		return exception(ErrStackUnderflow), nil
	}
	acc := gs.Account()
	val, ok := acc.Storage[hashKey(key)]
	if !ok {
		val = e.Factory.BitVecVal(0, 256)
	}
	push(gs, val)
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

// sstore forks gs.World and writes through a copy-on-write account clone in
// the fork, per WorldState's CloneAccount contract: a sibling successor
// sharing the pre-write WorldState never sees this write.
func (e *Evaluator) sstore(gs *state.GlobalState) (evm.StepOutcome, error) {
	key, ok1 := pop(gs)
	val, ok2 := pop(gs)
	if !ok1 || !ok2 {
		return exception(ErrStackUnderflow), nil
	}
	gs.World = gs.World.Clone()
	acc := gs.World.CloneAccount(gs.Env.ActiveAccount)
	acc.Storage[hashKey(key)] = val
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

// jump checks the destination against the JUMPDEST set of the active code,
// which skips PUSH immediates; a destination outside that set raises
// ErrInvalidJumpDest as a VmException.
func (e *Evaluator) jump(gs *state.GlobalState) (evm.StepOutcome, error) {
	destTerm, ok := pop(gs)
	if !ok {
		return exception(ErrStackUnderflow), nil
	}
	dest := toUint256(destTerm).Uint64()
	code := gs.World.CodeAt(gs.Env.ActiveAccount)
	if !jumpDests(code)[dest] {
		return exception(ErrInvalidJumpDest), nil
	}
	gs.MState.PC = dest
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}, nil
}

// jumpi forks into a taken and a fall-through successor, each carrying the
// branch guard the CFG builder reads back off MState.Constraints.Last().
// Unlike jump, the taken branch's destination is not validated here. On the
// taken successor's next step, a target past the end of code is committed
// as end of code, a target on an opcode this evaluator does not implement
// drops the successor, and any other target runs the instruction found there.
func (e *Evaluator) jumpi(gs *state.GlobalState) (evm.StepOutcome, error) {
	destTerm, ok1 := pop(gs)
	condTerm, ok2 := pop(gs)
	if !ok1 || !ok2 {
		return exception(ErrStackUnderflow), nil
	}
	dest := toUint256(destTerm).Uint64()

	zero := e.Factory.BitVecVal(0, 256)
	notZero := e.Factory.Not(e.Factory.Eq(condTerm, zero))
	isZeroC := e.Factory.Eq(condTerm, zero)

	taken := gs.ShallowCopy()
	taken.MState.PC = dest
	taken.MState.Constraints.Append(notZero)

	fallthru := gs
	fallthru.MState.PC++
	fallthru.MState.Constraints.Append(isZeroC)

	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{taken, fallthru}}, nil
}

func (e *Evaluator) doReturn(gs *state.GlobalState) (evm.StepOutcome, error) {
	if _, ok := pop(gs); !ok {
		return exception(ErrStackUnderflow), nil
	}
	if _, ok := pop(gs); !ok {
		return exception(ErrStackUnderflow), nil
	}
	tx := gs.CurrentTransaction()
	if tx != nil {
		tx.SetReturnData(nil)
	}
	return endOK(gs), nil
}

func (e *Evaluator) doRevert(gs *state.GlobalState) (evm.StepOutcome, error) {
	if _, ok := pop(gs); !ok {
		return exception(ErrStackUnderflow), nil
	}
	if _, ok := pop(gs); !ok {
		return exception(ErrStackUnderflow), nil
	}
	return endRevert(gs), nil
}

// startCall pops the standard CALL/CALLCODE/DELEGATECALL argument words
// (DELEGATECALL has no value argument) and mints a nested MessageCall
// transaction. Calldata is not read from memory in this stand-in; the
// callee always sees an empty input.
func (e *Evaluator) startCall(gs *state.GlobalState, op evm.OpCode) (evm.StepOutcome, error) {
	n := 7
	if op == evm.DELEGATECALL {
		n = 6
	}
	args := make([]smt.BitVec, n)
	for i := 0; i < n; i++ {
		v, ok := pop(gs)
		if !ok {
			return exception(ErrStackUnderflow), nil
		}
		args[i] = v
	}
	// args[1] is always the target address for CALL/CALLCODE/DELEGATECALL.
	addr := common.BytesToAddress(toUint256(args[1]).Bytes())

	tx := NewMessageCall(addr, e.Factory, e.nextSeq(), nil)
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepStartTransaction, Start: &evm.TransactionStartSignal{Transaction: tx, GlobalState: gs}}, nil
}

// resume consumes a nested call's return value on the way back into the
// caller: this stand-in always reports success (pushes 1), since
// distinguishing a callee revert from the stack alone is a decision the
// real evaluator's ABI/gas layer owns, not this engine.
func (e *Evaluator) resume(gs *state.GlobalState) evm.StepOutcome {
	push(gs, e.Factory.BitVecVal(1, 256))
	advance(gs, 1)
	return evm.StepOutcome{Kind: evm.StepNormal, Successors: []*state.GlobalState{gs}}
}
