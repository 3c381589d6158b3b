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

// Package profiler collects session counters and, when instruction-level
// profiling is enabled, a per-contract count of executed instructions. The
// coverage strategy wrapper does not read it; it consults its own
// CoveragePlugin.
package profiler

import "sync"

// Profiler accumulates counters across a session. The zero value is ready
// to use; all methods are safe for the single-threaded engine to call from
// hook callbacks without extra locking concerns, but a mutex is kept anyway
// because a caller-supplied coverage plugin may read it from outside the
// step loop.
type Profiler struct {
	mu            sync.Mutex
	totalStates   int
	droppedStates int
	coverage      map[string]int // contract name -> instruction hits, repeats included
	iprofEnabled  bool
}

// New returns a Profiler with instruction-level profiling (enable_iprof)
// set according to enabled.
func New(enableIprof bool) *Profiler {
	return &Profiler{coverage: make(map[string]int), iprofEnabled: enableIprof}
}

// RecordState increments the cumulative count of satisfiable successors
// ever appended to the worklist.
func (p *Profiler) RecordState() {
	p.mu.Lock()
	p.totalStates++
	p.mu.Unlock()
}

// RecordDropped counts a successor filtered out as unsatisfiable, or a
// state dropped because its opcode was unimplemented.
func (p *Profiler) RecordDropped() {
	p.mu.Lock()
	p.droppedStates++
	p.mu.Unlock()
}

// RecordCoverage counts one instruction executed by contract when
// instruction-level profiling is enabled. pc is not recorded.
func (p *Profiler) RecordCoverage(contract string, pc uint64) {
	if !p.iprofEnabled {
		return
	}
	p.mu.Lock()
	p.coverage[contract]++
	p.mu.Unlock()
}

// TotalStates returns the cumulative satisfiable-successor count.
func (p *Profiler) TotalStates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalStates
}

// DroppedStates returns the cumulative dropped-state count.
func (p *Profiler) DroppedStates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.droppedStates
}

// CoverageHits returns the number of instruction-level hits recorded for a
// contract name.
func (p *Profiler) CoverageHits(contract string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coverage[contract]
}
