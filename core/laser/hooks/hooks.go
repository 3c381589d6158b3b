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

// Package hooks implements the engine's two orthogonal extension surfaces
//: per-opcode pre/post hooks, and six lifecycle hook sets. Both
// surfaces support veto signals that interrupt the current path without
// aborting the campaign.
package hooks

import (
	"errors"
	"fmt"

	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/state"
)

// ErrSkipState is raised by a pre-hook to commit the current path as a
// terminal world state without producing successors, or by a post-hook to
// drop one specific successor.
var ErrSkipState = errors.New("laser: skip state")

// ErrSkipWorldState is raised by an add_world_state hook to veto committing
// a candidate world state to open_states.
var ErrSkipWorldState = errors.New("laser: skip world state")

// PreHook runs before an instruction evaluates. Returning ErrSkipState
// vetoes the step.
type PreHook func(gs *state.GlobalState) error

// PostHook runs once per successor after an instruction evaluates.
// Returning ErrSkipState drops that specific successor.
type PostHook func(gs *state.GlobalState) error

// LifecycleKind names one of the six lifecycle hook sets.
type LifecycleKind string

const (
	StartSymExec  LifecycleKind = "start_sym_exec"
	StopSymExec   LifecycleKind = "stop_sym_exec"
	StartSymTrans LifecycleKind = "start_sym_trans"
	StopSymTrans  LifecycleKind = "stop_sym_trans"
	ExecuteState  LifecycleKind = "execute_state"
	AddWorldState LifecycleKind = "add_world_state"
)

var validKinds = map[LifecycleKind]bool{
	StartSymExec: true, StopSymExec: true, StartSymTrans: true,
	StopSymTrans: true, ExecuteState: true, AddWorldState: true,
}

// LifecycleHook is invoked with a GlobalState. Only AddWorldState hooks may
// meaningfully return ErrSkipWorldState; any other non-nil error from any
// lifecycle hook propagates and aborts the engine.
type LifecycleHook func(gs *state.GlobalState) error

// ErrUnknownHookKind is a configuration error: register_laser_hooks was
// called with a kind outside the six defined sets.
type ErrUnknownHookKind struct{ Kind LifecycleKind }

func (e *ErrUnknownHookKind) Error() string {
	return fmt.Sprintf("laser: unknown lifecycle hook kind %q", e.Kind)
}

// Registry holds every registered hook. Registration is append-only;
// invocation order equals registration order.
type Registry struct {
	pre  map[evm.OpCode][]PreHook
	post map[evm.OpCode][]PostHook

	lifecycle map[LifecycleKind][]LifecycleHook
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pre:       make(map[evm.OpCode][]PreHook),
		post:      make(map[evm.OpCode][]PostHook),
		lifecycle: make(map[LifecycleKind][]LifecycleHook),
	}
}

// RegisterPre appends fn to op's pre-hook list.
func (r *Registry) RegisterPre(op evm.OpCode, fn PreHook) {
	r.pre[op] = append(r.pre[op], fn)
}

// RegisterPost appends fn to op's post-hook list.
func (r *Registry) RegisterPost(op evm.OpCode, fn PostHook) {
	r.post[op] = append(r.post[op], fn)
}

// RegisterLifecycle appends fn to kind's hook list. Returns
// *ErrUnknownHookKind for anything outside the six defined sets.
func (r *Registry) RegisterLifecycle(kind LifecycleKind, fn LifecycleHook) error {
	if !validKinds[kind] {
		return &ErrUnknownHookKind{Kind: kind}
	}
	r.lifecycle[kind] = append(r.lifecycle[kind], fn)
	return nil
}

// RunPre runs every pre-hook registered for op, in order, stopping at the
// first ErrSkipState (which it returns) or first non-nil unrelated error.
// Any error other than the two defined veto signals propagates and is
// expected to abort the engine.
func (r *Registry) RunPre(op evm.OpCode, gs *state.GlobalState) error {
	for _, fn := range r.pre[op] {
		if err := fn(gs); err != nil {
			return err
		}
	}
	return nil
}

// RunPost runs every post-hook registered for op over each successor,
// dropping (not erroring) any successor a hook vetoes with ErrSkipState.
// Order is preserved for survivors.
func (r *Registry) RunPost(op evm.OpCode, successors []*state.GlobalState) ([]*state.GlobalState, error) {
	survivors := successors[:0:0]
	for _, gs := range successors {
		vetoed := false
		for _, fn := range r.post[op] {
			if err := fn(gs); err != nil {
				if errors.Is(err, ErrSkipState) {
					vetoed = true
					break
				}
				return nil, err
			}
		}
		if !vetoed {
			survivors = append(survivors, gs)
		}
	}
	return survivors, nil
}

// RunLifecycle runs every hook registered for kind, in order. For
// AddWorldState, an ErrSkipWorldState from any hook short-circuits and is
// returned to the caller to veto the commit; any other error propagates.
func (r *Registry) RunLifecycle(kind LifecycleKind, gs *state.GlobalState) error {
	for _, fn := range r.lifecycle[kind] {
		if err := fn(gs); err != nil {
			return err
		}
	}
	return nil
}
