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

// Package laser is the exploration engine: a single instruction step,
// transaction lifecycle handling, and the multi-transaction driver loop
// that ties the worklist, hooks, CFG builder and keccak manager together.
package laser

import (
	"errors"

	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/hooks"
	"github.com/laser-ethereum/laser/core/laser/keccak"
	"github.com/laser-ethereum/laser/core/laser/profiler"
	"github.com/laser-ethereum/laser/core/laser/smt"
	"github.com/laser-ethereum/laser/core/laser/state"
	"github.com/laser-ethereum/laser/log"
)

// Detector is the external vulnerability-detection collaborator invoked at
// every top-level transaction end.
type Detector interface {
	Analyze(gs *state.GlobalState)
}

// Engine runs the per-instruction step algorithm and the transaction
// lifecycle against one session's collaborators. A fresh Engine per session
// gives the keccak manager and open-state list the same isolation.
type Engine struct {
	Evaluator evm.Evaluator
	Loader    evm.DynamicLoader
	Profiler  *profiler.Profiler
	Hooks     *hooks.Registry
	Keccak    *keccak.Manager
	Factory   smt.Factory
	Detector  Detector

	RequiresStatespace bool

	openStates []*state.WorldState
}

// NewEngine wires the collaborators a session needs. hooks/profiler/keccak
// manager must already be constructed; Detector may be nil.
func NewEngine(ev evm.Evaluator, loader evm.DynamicLoader, prof *profiler.Profiler, reg *hooks.Registry, km *keccak.Manager, factory smt.Factory, det Detector, requiresStatespace bool) *Engine {
	return &Engine{
		Evaluator:          ev,
		Loader:             loader,
		Profiler:           prof,
		Hooks:              reg,
		Keccak:             km,
		Factory:            factory,
		Detector:           det,
		RequiresStatespace: requiresStatespace,
	}
}

// OpenStates returns every world state committed since the last ResetOpenStates.
func (e *Engine) OpenStates() []*state.WorldState { return e.openStates }

// SeedOpenStates installs worlds directly as open states, bypassing
// add_world_state hooks. The driver uses this once, at sym_exec entry, to
// seed the campaign from a preconfigured world state or a creation driver's
// post-construction states.
func (e *Engine) SeedOpenStates(worlds ...*state.WorldState) {
	e.openStates = append(e.openStates, worlds...)
}

// ResetOpenStates drains the committed world-state list, used between
// transaction rounds in the driver.
func (e *Engine) ResetOpenStates() []*state.WorldState {
	out := e.openStates
	e.openStates = nil
	return out
}

func (e *Engine) fetchOpcode(gs *state.GlobalState) (evm.OpCode, bool) {
	code := gs.World.CodeAt(gs.Env.ActiveAccount)
	if gs.MState.PC >= uint64(len(code)) {
		return 0, false
	}
	return evm.OpCode(code[gs.MState.PC]), true
}

// commitOpenState runs the add_world_state hooks and, absent a veto,
// appends gs.World to the open-state list. When RequiresStatespace is
// false the hooks still fire (detectors may depend on them) but the world
// state itself is not retained, trading completeness for memory on
// detector-only runs.
func (e *Engine) commitOpenState(gs *state.GlobalState) error {
	if err := e.Hooks.RunLifecycle(hooks.AddWorldState, gs); err != nil {
		if errors.Is(err, hooks.ErrSkipWorldState) {
			return nil
		}
		return err
	}
	if e.RequiresStatespace {
		e.openStates = append(e.openStates, gs.World)
	}
	return nil
}

// ExecuteState runs execute_state: fires the execute_state lifecycle hooks,
// fetches the opcode at gs's PC, runs pre-hooks, delegates to the
// instruction evaluator, and translates whatever outcome it returns into a
// successor list. The returned opcode is 0 when gs committed at end of code;
// on a pre-hook veto it is the fetched opcode, though no evaluator call ran.
func (e *Engine) ExecuteState(gs *state.GlobalState) ([]*state.GlobalState, evm.OpCode, error) {
	if err := e.Hooks.RunLifecycle(hooks.ExecuteState, gs); err != nil {
		return nil, 0, err
	}

	op, ok := e.fetchOpcode(gs)
	if !ok {
		if err := e.commitOpenState(gs); err != nil {
			return nil, 0, err
		}
		return nil, 0, nil
	}

	if err := e.Hooks.RunPre(op, gs); err != nil {
		if errors.Is(err, hooks.ErrSkipState) {
			if err := e.commitOpenState(gs); err != nil {
				return nil, op, err
			}
			return nil, op, nil
		}
		return nil, op, err
	}

	outcome, err := e.Evaluator.Step(op, e.Loader, e.Profiler, gs, false)
	if err != nil {
		if errors.Is(err, evm.ErrUnimplementedOpcode) {
			log.Warn("dropping state at unimplemented opcode", "op", op)
			e.Profiler.RecordDropped()
			return nil, op, nil
		}
		return nil, op, err
	}

	switch outcome.Kind {
	case evm.StepNormal:
		successors, err := e.Hooks.RunPost(op, outcome.Successors)
		if err != nil {
			return nil, op, err
		}
		return successors, op, nil

	case evm.StepException:
		successors, err := e.handleException(gs, op)
		return successors, op, err

	case evm.StepStartTransaction:
		return e.handleStart(gs, outcome.Start), op, nil

	case evm.StepEndTransaction:
		successors, err := e.endTransaction(op, outcome.End)
		return successors, op, err

	default:
		return nil, op, &InvariantError{Detail: "evaluator returned an unrecognised step kind"}
	}
}

// handleException pops the top transaction frame off gs. A top-level
// exception (no return state) produces no successors: the path dies without
// an open-state commit. A nested exception runs the post hooks for the
// failing opcode on the pre-exception state, then unwinds through
// end-message-call with revert=true and no return data.
func (e *Engine) handleException(gs *state.GlobalState, op evm.OpCode) ([]*state.GlobalState, error) {
	if gs.Depth() == 0 {
		return nil, &InvariantError{Detail: "vm exception on a state with an empty transaction stack"}
	}
	frame := gs.PopFrame()
	if frame.ReturnState == nil {
		return nil, nil
	}
	if _, err := e.Hooks.RunPost(op, []*state.GlobalState{gs}); err != nil {
		return nil, err
	}
	ret := frame.ReturnState.ShallowCopy()
	return e.endMessageCall(ret, frame.Tx, gs, true, nil, op)
}

// handleStart mints the single successor a TransactionStartSignal produces:
// a fresh GlobalState for the callee, with the caller's transaction stack
// extended by one frame and its CFG node and constraints carried over. A
// callee state minted without a world state runs against the caller's. Per
// the instruction-step algorithm this bypasses post-hooks entirely.
func (e *Engine) handleStart(gs *state.GlobalState, sig *evm.TransactionStartSignal) []*state.GlobalState {
	next := sig.Transaction.InitialGlobalState()
	if next.World == nil {
		next.World = gs.World
	}
	next.TxStack = append(append([]state.Frame{}, gs.TxStack...), state.Frame{Tx: sig.Transaction, ReturnState: gs})
	next.Node = gs.Node
	next.MState.Constraints = gs.MState.Constraints.Clone()
	return []*state.GlobalState{next}
}
