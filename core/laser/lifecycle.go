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

package laser

import (
	"errors"

	mapset "github.com/deckarep/golang-set"

	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/smt"
	"github.com/laser-ethereum/laser/core/laser/state"
)

// endTransaction dispatches a TransactionEndSignal to its top-level or
// nested handling depending on whether the ending transaction's frame
// carries a return state.
func (e *Engine) endTransaction(op evm.OpCode, sig *evm.TransactionEndSignal) ([]*state.GlobalState, error) {
	g := sig.GlobalState
	if g.Depth() == 0 {
		return nil, &InvariantError{Detail: "transaction end signal on a state with an empty transaction stack"}
	}
	frame := g.PeekFrame()
	if frame.ReturnState == nil {
		return nil, e.endTopLevel(g, frame.Tx, sig.Revert)
	}
	return e.endNested(op, g, frame, sig.Revert)
}

// endTopLevel implements the top-level branch of §4.5: keccak
// concretisation, vulnerability detection, attaching the final constraint
// set to the world state's CFG node, and committing through add_world_state.
// It produces no successors either way.
func (e *Engine) endTopLevel(g *state.GlobalState, tx state.Transaction, revert bool) error {
	if revert || (tx.IsCreation() && len(tx.ReturnData()) == 0) {
		return nil
	}

	result := e.Keccak.Concretise(g, g)
	if e.Detector != nil {
		e.Detector.Analyze(g)
	}

	g.World.SetNode(g.Node)
	if node := g.Node; node != nil {
		node.Constraints = g.MState.Constraints.Clone()
		removeDeletedConstraints(node.Constraints, e.Keccak.DeleteConstraints())
		combined := e.Factory.And(e.Factory.Or(result.C, result.D), result.V)
		node.Constraints.Append(combined)
		node.Constraints.AppendWeighted(result.W...)
	}

	return e.commitOpenState(g)
}

// endNested implements the nested branch of §4.5: run the ending opcode's
// post hooks on the callee's final state, concretise keccak keys against
// that same ending state (mirroring endTopLevel), propagate mutation
// annotations across a DELEGATECALL/CALLCODE boundary, then hand off to
// end-message-call with a private copy of the caller's return state.
func (e *Engine) endNested(op evm.OpCode, g *state.GlobalState, frame state.Frame, revert bool) ([]*state.GlobalState, error) {
	if _, err := e.Hooks.RunPost(op, []*state.GlobalState{g}); err != nil {
		return nil, err
	}

	ret := frame.ReturnState
	result := e.Keccak.Concretise(g, g)
	combined := e.Factory.And(e.Factory.Or(result.C, result.D), result.V)
	g.MState.Constraints.Append(combined)
	g.MState.Constraints.AppendWeighted(result.W...)

	removeDeletedConstraints(ret.MState.Constraints, e.Keccak.DeleteConstraints())

	if op == evm.DELEGATECALL || op == evm.CALLCODE {
		state.Propagate(g, ret)
	}

	retClone := ret.ShallowCopy()
	return e.endMessageCall(retClone, frame.Tx, g, revert, frame.Tx.ReturnData(), op)
}

// endMessageCall implements _end_message_call (§4.8): fold the callee's
// constraints into the return state, commit (or discard, on revert) the
// callee's world state and gas bounds, replay the instruction evaluator in
// post-call mode to consume the return value, then force every produced
// successor onto the callee's CFG node for call-graph continuity.
func (e *Engine) endMessageCall(ret *state.GlobalState, tx state.Transaction, callee *state.GlobalState, revert bool, returnData []byte, op evm.OpCode) ([]*state.GlobalState, error) {
	ret.MState.Constraints.Append(callee.MState.Constraints.All()...)
	ret.LastReturnData = returnData

	if !revert {
		ret.World = callee.World.Clone()
		ret.World.AccountOrNew(ret.Env.ActiveAccount)
		if tx.IsCreation() {
			ret.MState.Gas.Add(callee.MState.Gas)
		}
	}

	outcome, err := e.Evaluator.Step(op, e.Loader, e.Profiler, ret, true)
	if err != nil {
		if errors.Is(err, evm.ErrUnimplementedOpcode) {
			return nil, nil
		}
		return nil, err
	}
	if outcome.Kind != evm.StepNormal {
		return nil, &InvariantError{Detail: "post-call evaluator step returned a non-normal outcome"}
	}

	for _, s := range outcome.Successors {
		s.Node = callee.Node
	}
	return outcome.Successors, nil
}

// removeDeletedConstraints removes every member of deletions from cs. A
// deletion absent from cs is a silent no-op, per ConstraintSet.Remove.
func removeDeletedConstraints(cs *smt.ConstraintSet, deletions mapset.Set) {
	deletions.Each(func(item interface{}) bool {
		cs.Remove(item.(smt.Bool))
		return false
	})
}
