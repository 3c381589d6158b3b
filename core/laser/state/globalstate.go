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

package state

import (
	"github.com/laser-ethereum/laser/common"
	"github.com/laser-ethereum/laser/core/laser/smt"
)

// Transaction is the abstract unit the lifecycle drives: either a message
// call or a contract creation. Concrete variants, their return data
// plumbing and gas accounting live with the external transaction-setup
// collaborator; this interface is the seam the engine calls through.
type Transaction interface {
	ReturnData() []byte
	SetReturnData([]byte)
	SetRevert(bool)
	Revert() bool
	IsCreation() bool

	// InitialGlobalState mints the GlobalState a TransactionStartSignal
	// hands to the engine.
	InitialGlobalState() *GlobalState

	// String names the transaction for logging and CFG function naming
	// ("constructor" for creations).
	String() string
}

// Frame is one entry of a GlobalState's transaction stack: the transaction
// being executed and, for anything but the top-level transaction, the
// caller's GlobalState to resume once this one ends.
type Frame struct {
	Tx          Transaction
	ReturnState *GlobalState
}

// Environment carries the per-transaction symbolic inputs: which account is
// executing, who called it, the call value, and the active function name the
// CFG builder assigns once it recognises a function entry.
type Environment struct {
	ActiveAccount      common.Address
	Sender             smt.BitVec
	CallValue          smt.BitVec
	CallData           interface{} // opaque to the engine; owned by the evaluator
	ActiveFunctionName string
}

// MachineState is the per-path interpreter state: program counter, stack,
// memory, the path's constraint set, and propagated gas bounds. Memory and
// the stack's element semantics belong to the instruction evaluator; the
// engine only inspects the stack top for CFG classification.
type MachineState struct {
	PC          uint64
	Stack       []smt.BitVec
	Memory      []byte
	Constraints *smt.ConstraintSet
	Gas         GasBounds
}

// NewMachineState returns a machine state with a fresh, empty constraint set.
func NewMachineState() *MachineState {
	return &MachineState{Constraints: smt.NewConstraintSet()}
}

// StackTop returns the top stack element, or nil on underflow. The CFG
// builder treats underflow as FUNC_ENTRY.
func (m *MachineState) StackTop() smt.BitVec {
	if len(m.Stack) == 0 {
		return nil
	}
	return m.Stack[len(m.Stack)-1]
}

// Clone copies the machine state's owned slices/constraint set so a
// successor can diverge from its sibling without aliasing.
func (m *MachineState) Clone() *MachineState {
	cp := &MachineState{
		PC:          m.PC,
		Stack:       append([]smt.BitVec{}, m.Stack...),
		Memory:      append([]byte{}, m.Memory...),
		Constraints: m.Constraints.Clone(),
		Gas:         m.Gas,
	}
	return cp
}

// GlobalState is the per-path execution state: a WorldState reference, the
// active Environment, the MachineState, a direct CFG Node pointer, the
// transaction call stack (bottom first), the last return data seen, and an
// annotation bag carried across calls.
type GlobalState struct {
	World   *WorldState
	Env     Environment
	MState  *MachineState
	Node    *Node
	TxStack []Frame

	LastReturnData []byte
	Annotations    *AnnotationBag
	TopoKeys       []smt.BitVec
}

// NewGlobalState returns a GlobalState seeded with a fresh machine state and
// annotation bag. Callers still need to push at least one transaction frame
// before handing it to the engine.
func NewGlobalState(world *WorldState, env Environment) *GlobalState {
	return &GlobalState{
		World:       world,
		Env:         env,
		MState:      NewMachineState(),
		Annotations: NewAnnotationBag(),
	}
}

// Depth reports the transaction-stack-implied call depth, used by the
// strategy's max_depth bound.
func (g *GlobalState) Depth() int { return len(g.TxStack) }

// CurrentTransaction returns the transaction at the top of the stack, or nil
// if the stack is empty.
func (g *GlobalState) CurrentTransaction() Transaction {
	if len(g.TxStack) == 0 {
		return nil
	}
	return g.TxStack[len(g.TxStack)-1].Tx
}

// PushFrame pushes a new (tx, returnState) frame onto the stack.
func (g *GlobalState) PushFrame(tx Transaction, ret *GlobalState) {
	g.TxStack = append(g.TxStack, Frame{Tx: tx, ReturnState: ret})
}

// PopFrame removes and returns the top frame. Callers must check Depth()>0.
func (g *GlobalState) PopFrame() Frame {
	top := g.TxStack[len(g.TxStack)-1]
	g.TxStack = g.TxStack[:len(g.TxStack)-1]
	return top
}

// PeekFrame returns the top frame without removing it.
func (g *GlobalState) PeekFrame() Frame {
	return g.TxStack[len(g.TxStack)-1]
}

// Account returns the account the currently active transaction executes
// against.
func (g *GlobalState) Account() *Account {
	return g.World.AccountOrNew(g.Env.ActiveAccount)
}

// ShallowCopy returns a new GlobalState sharing the WorldState pointer but
// with its own machine state, transaction stack slice and annotation bag —
// the shape every successor produced by a step needs (independent PC/stack/
// constraints, same world until a write forks it via CloneAccount).
func (g *GlobalState) ShallowCopy() *GlobalState {
	cp := &GlobalState{
		World:          g.World,
		Env:            g.Env,
		MState:         g.MState.Clone(),
		Node:           g.Node,
		TxStack:        append([]Frame{}, g.TxStack...),
		LastReturnData: g.LastReturnData,
		Annotations:    g.Annotations.Clone(),
		TopoKeys:       append([]smt.BitVec{}, g.TopoKeys...),
	}
	return cp
}
