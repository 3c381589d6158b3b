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

import "fmt"

// NopLoader is the bundled evm.DynamicLoader: every account this demo
// explores is already installed in the WorldState by the creation or
// message-call driver, so there is never an address to fetch on demand.
type NopLoader struct{}

func (NopLoader) LoadCode(addr string) ([]byte, error) { return nil, nil }

// Disassembler is the bundled cfg.Disassembly: it names a function entry
// after its program counter rather than recovering a real selector, since
// this package has no ABI to decode against.
type Disassembler struct {
	code map[string][]byte
}

func NewDisassembler() *Disassembler {
	return &Disassembler{code: make(map[string][]byte)}
}

// Register makes contract's code available for future FunctionNameAt calls.
// Drivers call this once per account they install.
func (d *Disassembler) Register(contract string, code []byte) {
	d.code[contract] = code
}

// FunctionNameAt reports pc as a function entry when it lands on a JUMPDEST
// that isn't inside another instruction's push data, and isn't pc zero
// (which the CFG builder already names "fallback" on its own).
func (d *Disassembler) FunctionNameAt(contract string, pc uint64) (string, bool) {
	if pc == 0 {
		return "", false
	}
	code, ok := d.code[contract]
	if !ok || !jumpDests(code)[pc] {
		return "", false
	}
	return fmt.Sprintf("func_%#x", pc), true
}
