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

import "sync"

// Coverage is the bundled strategy.CoveragePlugin: a per-(contract, pc) hit
// set, marked by the evaluator on every step and consulted by the coverage
// strategy wrapper to deprioritise already-seen locations.
type Coverage struct {
	mu  sync.Mutex
	hit map[string]map[uint64]bool
}

func NewCoverage() *Coverage {
	return &Coverage{hit: make(map[string]map[uint64]bool)}
}

// Mark records that contract has executed an instruction at pc.
func (c *Coverage) Mark(contract string, pc uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.hit[contract]
	if !ok {
		set = make(map[uint64]bool)
		c.hit[contract] = set
	}
	set[pc] = true
}

func (c *Coverage) IsCovered(contract string, pc uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hit[contract][pc]
}
