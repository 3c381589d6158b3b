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

package strategy

import "github.com/laser-ethereum/laser/core/laser/state"

// CoveragePlugin reports whether a contract's program counter has already
// been observed by a prior step, letting the coverage strategy push
// unexplored territory ahead of the worklist's natural order.
type CoveragePlugin interface {
	IsCovered(contract string, pc uint64) bool
}

// coverageStrategy decorates an inner Strategy: before every Next() it
// swaps the most recently pushed state the plugin has not yet seen with the
// one at the back of the shared worklist, then defers selection (and maxDepth
// filtering) entirely to inner. It never removes a state from the worklist
// itself.
type coverageStrategy struct {
	inner    Strategy
	worklist *Worklist
	plugin   CoveragePlugin
}

// NewCoverageStrategy wraps inner with coverage-aware prioritisation over
// worklist. It satisfies the same Strategy contract as inner, so it composes
// wherever a plain strategy is expected.
func NewCoverageStrategy(inner Strategy, worklist *Worklist, plugin CoveragePlugin) Strategy {
	return &coverageStrategy{inner: inner, worklist: worklist, plugin: plugin}
}

func (s *coverageStrategy) Next() (*state.GlobalState, bool) {
	s.prioritizeUncovered()
	return s.inner.Next()
}

// prioritizeUncovered finds the most recently pushed state whose (contract,
// pc) the plugin has not yet seen and swaps it to the back of the worklist,
// so inner's LIFO selection picks it next. If every remaining state is
// covered, the worklist is left untouched.
func (s *coverageStrategy) prioritizeUncovered() {
	items := s.worklist.items
	last := len(items) - 1
	for i := last; i >= 0; i-- {
		gs := items[i]
		if !s.plugin.IsCovered(gs.Env.ActiveAccount.Hex(), gs.MState.PC) {
			items[i], items[last] = items[last], items[i]
			return
		}
	}
}
