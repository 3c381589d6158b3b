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

// Package strategy holds the worklist and the pluggable state-selection
// policy that drives it. A Strategy is a stateful producer: it owns no
// states itself, only an ordering over the shared Worklist, and yields the
// next state to execute until the worklist is drained or its depth bound
// rules everything remaining out.
package strategy

import "github.com/laser-ethereum/laser/core/laser/state"

// Worklist is the ordered reservoir of pending execution states shared by
// the driver and every Strategy wrapping it.
type Worklist struct {
	items []*state.GlobalState
}

// NewWorklist returns an empty worklist.
func NewWorklist() *Worklist {
	return &Worklist{}
}

// Push appends states to the worklist, preserving their relative order.
func (w *Worklist) Push(states ...*state.GlobalState) {
	w.items = append(w.items, states...)
}

// Len reports how many states remain.
func (w *Worklist) Len() int { return len(w.items) }

// popBack removes and returns the last item, LIFO order. Ok is false on an
// empty worklist.
func (w *Worklist) popBack() (*state.GlobalState, bool) {
	if len(w.items) == 0 {
		return nil, false
	}
	idx := len(w.items) - 1
	item := w.items[idx]
	w.items[idx] = nil
	w.items = w.items[:idx]
	return item, true
}

// remove deletes the state at index i, preserving order of the rest.
func (w *Worklist) remove(i int) *state.GlobalState {
	item := w.items[i]
	w.items = append(w.items[:i], w.items[i+1:]...)
	return item
}

// Strategy yields the next GlobalState to execute, or ok==false once
// exhausted. A strategy must skip (never yield) states whose transaction
// stack depth exceeds its configured max depth, continuing to the next
// candidate rather than stopping early.
type Strategy interface {
	Next() (gs *state.GlobalState, ok bool)
}

// depthFirst is the default strategy: LIFO selection over the shared
// worklist, skipping any state deeper than maxDepth.
type depthFirst struct {
	worklist *Worklist
	maxDepth int // <=0 means unbounded
}

// NewDepthFirst returns the default depth-first (LIFO) strategy over
// worklist. maxDepth<=0 means unbounded.
func NewDepthFirst(worklist *Worklist, maxDepth int) Strategy {
	return &depthFirst{worklist: worklist, maxDepth: maxDepth}
}

func (s *depthFirst) Next() (*state.GlobalState, bool) {
	for {
		gs, ok := s.worklist.popBack()
		if !ok {
			return nil, false
		}
		if s.maxDepth > 0 && gs.Depth() > s.maxDepth {
			continue
		}
		return gs, true
	}
}
