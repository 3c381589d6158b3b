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

// Package cfg builds the control-flow graph from the successors a single
// instruction step produces: it mints nodes, classifies edges and assigns
// function names, all against the arena types in core/laser/state.
package cfg

import (
	"strings"

	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/smt"
	"github.com/laser-ethereum/laser/core/laser/state"
)

// Disassembly resolves function-entry metadata for a contract's bytecode.
// The disassembler itself is an external collaborator; the builder only
// needs to ask it where functions start.
type Disassembly interface {
	// FunctionNameAt returns the name of the function whose entry point is
	// pc in contract, and ok==true if pc is a known function entry.
	FunctionNameAt(contract string, pc uint64) (name string, ok bool)
}

// Builder applies the CFG decision table to the successors of one
// instruction step, mutating the shared arena in gs.World's session.
type Builder struct {
	arena *state.CFG
	disas Disassembly
}

// NewBuilder returns a Builder writing into arena and consulting disas for
// function-entry naming. disas may be nil, in which case only the
// PC-zero ("fallback") and contract-creation ("constructor") naming rules
// apply.
func NewBuilder(arena *state.CFG, disas Disassembly) *Builder {
	return &Builder{arena: arena, disas: disas}
}

// Arena returns the CFG arena this builder writes into, so a caller can
// report node/edge counts once a campaign finishes.
func (b *Builder) Arena() *state.CFG { return b.arena }

// Manage applies the decision table for op to successors, appending each to
// its node's state list, and returns the (possibly mutated, never resized)
// successors slice. It is a no-op beyond state-list bookkeeping when the
// arena was constructed with recording disabled.
func (b *Builder) Manage(op evm.OpCode, successors []*state.GlobalState) []*state.GlobalState {
	switch op {
	case evm.JUMP:
		b.mintUnconditional(successors)
	case evm.JUMPI:
		b.mintConditional(successors)
	case evm.SLOAD, evm.SSTORE:
		if len(successors) >= 2 {
			b.mintConditional(successors)
		} else {
			b.appendOnly(successors)
		}
	case evm.RETURN:
		b.mintReturn(successors)
	default:
		b.appendOnly(successors)
	}
	for _, gs := range successors {
		b.flagAndName(op, gs)
	}
	return successors
}

func (b *Builder) appendOnly(successors []*state.GlobalState) {
	for _, gs := range successors {
		if gs.Node != nil {
			gs.Node.AddState(gs)
		}
	}
}

func (b *Builder) mintUnconditional(successors []*state.GlobalState) {
	for _, gs := range successors {
		src := gs.Node
		n := b.arena.NewNode(gs.Env.ActiveAccount.Hex())
		b.link(src, n, state.Unconditional, nil)
		gs.Node = n
		if n != nil {
			n.AddState(gs)
		}
	}
}

func (b *Builder) mintConditional(successors []*state.GlobalState) {
	for _, gs := range successors {
		src := gs.Node
		n := b.arena.NewNode(gs.Env.ActiveAccount.Hex())
		b.link(src, n, state.Conditional, gs.MState.Constraints.Last())
		gs.Node = n
		if n != nil {
			n.AddState(gs)
		}
	}
}

func (b *Builder) mintReturn(successors []*state.GlobalState) {
	for _, gs := range successors {
		src := gs.Node
		n := b.arena.NewNode(gs.Env.ActiveAccount.Hex())
		b.link(src, n, state.Return, nil)
		gs.Node = n
		if n != nil {
			n.SetFlag(state.CallReturn)
			n.AddState(gs)
		}
	}
}

func (b *Builder) link(src, dst *state.Node, jt state.JumpType, guard smt.Bool) {
	if !b.arena.Enabled || src == nil || dst == nil {
		return
	}
	b.arena.AddEdge(state.Edge{Src: src.ID, Dst: dst.ID, Type: jt, Condition: guard})
}

// flagAndName applies the CALL_RETURN/FUNC_ENTRY flagging rule for CALL
// edges and the disassembly-based function-naming rule, in that order.
func (b *Builder) flagAndName(op evm.OpCode, gs *state.GlobalState) {
	if gs.Node == nil {
		return
	}
	if op == evm.CALL || op == evm.CALLCODE || op == evm.DELEGATECALL {
		top := gs.MState.StackTop()
		if top == nil {
			gs.Node.SetFlag(state.FuncEntry)
		} else if strings.Contains(top.String(), "retval") {
			gs.Node.SetFlag(state.CallReturn)
		} else {
			gs.Node.SetFlag(state.FuncEntry)
		}
	}

	// Naming rules apply in order and each may override the last; a
	// contract-creation frame always ends up named "constructor" even if an
	// earlier rule matched.
	pc := gs.MState.PC
	contract := gs.Env.ActiveAccount.Hex()
	if b.disas != nil {
		if name, ok := b.disas.FunctionNameAt(contract, pc); ok {
			gs.Env.ActiveFunctionName = name
			gs.Node.FunctionName = name
			gs.Node.SetFlag(state.FuncEntry)
		}
	}
	if pc == 0 {
		gs.Env.ActiveFunctionName = "fallback"
		gs.Node.FunctionName = "fallback"
	}
	if tx := gs.CurrentTransaction(); tx != nil && tx.IsCreation() {
		gs.Env.ActiveFunctionName = "constructor"
		gs.Node.FunctionName = "constructor"
	}
}
