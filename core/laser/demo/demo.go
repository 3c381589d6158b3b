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

// Package demo is a thin concrete stand-in for every collaborator
// spec.md §1 declares external to the engine: an instruction evaluator, a
// dynamic loader, a disassembler, and the two transaction drivers. None of
// it is the hard part this module implements; it exists only so
// cmd/lasersvm can drive core/laser end to end against the smt/literal
// factory without a real EVM interpreter or SMT backend wired in. A
// production embedder replaces every type in this package and keeps
// core/laser untouched.
package demo

import "github.com/laser-ethereum/laser/core/laser/evm"

// Extra opcodes the bundled evaluator interprets beyond the handful
// core/laser/evm names for its own CFG/control-flow purposes. Numbering
// follows the public EVM instruction set.
const (
	opADD          evm.OpCode = 0x01
	opSUB          evm.OpCode = 0x03
	opLT           evm.OpCode = 0x10
	opGT           evm.OpCode = 0x11
	opEQ           evm.OpCode = 0x14
	opISZERO       evm.OpCode = 0x15
	opCALLER       evm.OpCode = 0x33
	opCALLVALUE    evm.OpCode = 0x34
	opCALLDATALOAD evm.OpCode = 0x35
	opPOP          evm.OpCode = 0x50
	opPC           evm.OpCode = 0x58
	opJUMPDEST     evm.OpCode = 0x5b
	opPUSH1        evm.OpCode = 0x60
	opPUSH32       evm.OpCode = 0x7f
	opDUP1         evm.OpCode = 0x80
	opSWAP1        evm.OpCode = 0x90
	opREVERT       evm.OpCode = 0xfd
)

func isPush(op evm.OpCode) bool { return op >= opPUSH1 && op <= opPUSH32 }

func pushWidth(op evm.OpCode) int { return int(op-opPUSH1) + 1 }

// jumpDests walks code the way a disassembler would, skipping PUSH
// immediates so a 0x5b byte embedded in push data is never mistaken for a
// JUMPDEST.
func jumpDests(code []byte) map[uint64]bool {
	dests := make(map[uint64]bool)
	for pc := 0; pc < len(code); {
		op := evm.OpCode(code[pc])
		if op == opJUMPDEST {
			dests[uint64(pc)] = true
		}
		if isPush(op) {
			pc += pushWidth(op) + 1
			continue
		}
		pc++
	}
	return dests
}
