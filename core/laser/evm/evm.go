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

// Package evm states the boundary between the engine and its instruction
// evaluator, dynamic loader and profiler collaborators. Full
// opcode semantics are explicitly out of scope here: this package only
// names the handful of opcodes the engine itself has to branch on (control
// flow and storage, for CFG construction) and the tagged outcome an
// evaluator Step returns.
package evm

import (
	"errors"

	"github.com/laser-ethereum/laser/core/laser/profiler"
	"github.com/laser-ethereum/laser/core/laser/state"
)

// OpCode is a single CVM/EVM instruction byte. The engine only assigns
// names to the opcodes its own control-flow logic inspects; everything else
// a jump-table-owning evaluator is free to interpret as it sees fit.
type OpCode byte

const (
	STOP         OpCode = 0x00
	SLOAD        OpCode = 0x54
	SSTORE       OpCode = 0x55
	JUMP         OpCode = 0x56
	JUMPI        OpCode = 0x57
	CALL         OpCode = 0xf1
	CALLCODE     OpCode = 0xf2
	RETURN       OpCode = 0xf3
	DELEGATECALL OpCode = 0xf4
)

var names = map[OpCode]string{
	STOP:         "STOP",
	SLOAD:        "SLOAD",
	SSTORE:       "SSTORE",
	JUMP:         "JUMP",
	JUMPI:        "JUMPI",
	CALL:         "CALL",
	CALLCODE:     "CALLCODE",
	RETURN:       "RETURN",
	DELEGATECALL: "DELEGATECALL",
}

// String returns the opcode mnemonic, or a generic "0xNN" placeholder for
// anything the engine does not need to name individually.
func (op OpCode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return unknownName(op)
}

func unknownName(op OpCode) string {
	const hex = "0123456789abcdef"
	return "0x" + string([]byte{hex[op>>4], hex[op&0xf]})
}

// DynamicLoader fetches the code of an address not yet present in the
// WorldState. A nil loader is valid; the evaluator collaborator simply
// treats unknown addresses as empty accounts.
type DynamicLoader interface {
	LoadCode(addr string) ([]byte, error)
}

// VmException is raised by the evaluator for any instruction-level failure
// (stack underflow, invalid jump destination, out-of-gas, ...). The engine
// treats every VmException identically regardless of cause.
type VmException struct {
	Cause error
}

func (e *VmException) Error() string { return "vm exception: " + e.Cause.Error() }
func (e *VmException) Unwrap() error { return e.Cause }

// TransactionStartSignal is raised when an opcode (CALL, CREATE, ...)
// spawns a nested transaction.
type TransactionStartSignal struct {
	Transaction state.Transaction
	GlobalState *state.GlobalState
}

// TransactionEndSignal is raised when a transaction concludes, top-level or
// nested.
type TransactionEndSignal struct {
	GlobalState *state.GlobalState
	Revert      bool
}

// StepKind tags which branch of the evaluator's result a StepOutcome holds.
type StepKind int

const (
	StepNormal StepKind = iota
	StepException
	StepStartTransaction
	StepEndTransaction
)

// StepOutcome is the tagged union the evaluator returns from Step.
type StepOutcome struct {
	Kind       StepKind
	Successors []*state.GlobalState
	Exception  *VmException
	Start      *TransactionStartSignal
	End        *TransactionEndSignal
}

// ErrUnimplementedOpcode is returned by Step when the evaluator does not
// support the given opcode. The engine logs and drops the state;
// it is not a VmException and not an engine-fatal error.
var ErrUnimplementedOpcode = errors.New("laser: unimplemented opcode")

// Evaluator executes exactly one instruction against a GlobalState. postCall
// is true when Step is being asked to resume execution after a nested
// call/create just returned.
type Evaluator interface {
	Step(op OpCode, loader DynamicLoader, prof *profiler.Profiler, gs *state.GlobalState, postCall bool) (StepOutcome, error)
}
