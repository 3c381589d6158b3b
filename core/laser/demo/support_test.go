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

import (
	"testing"

	"github.com/laser-ethereum/laser/core/laser/smt/literal"
	"github.com/laser-ethereum/laser/core/laser/state"
	"github.com/laser-ethereum/laser/core/laser/strategy"
)

func TestJumpDestsSkipsPushImmediates(t *testing.T) {
	// index 1's 0x5b is PUSH1's immediate byte, not a real JUMPDEST; the one
	// at index 3 is a genuine JUMPDEST.
	code := []byte{byte(opPUSH1), byte(opJUMPDEST), 0x00, byte(opJUMPDEST)}
	dests := jumpDests(code)
	if dests[1] || dests[2] {
		t.Fatalf("jumpDests must not treat a PUSH1 immediate as a destination")
	}
	if !dests[3] {
		t.Fatalf("jumpDests must recognise a real JUMPDEST at index 3")
	}
}

func TestDisassemblerFunctionNameAt(t *testing.T) {
	d := NewDisassembler()
	realDestCode := []byte{byte(opPUSH1), 0x00, byte(opJUMPDEST)}
	d.Register("contract-a", realDestCode)

	if _, ok := d.FunctionNameAt("contract-a", 0); ok {
		t.Fatalf("pc 0 must never be reported as a function entry")
	}
	if _, ok := d.FunctionNameAt("contract-a", 1); ok {
		t.Fatalf("a byte inside push data must not be reported")
	}
	name, ok := d.FunctionNameAt("contract-a", 2)
	if !ok || name == "" {
		t.Fatalf("a real JUMPDEST must be reported as a function entry")
	}
	if _, ok := d.FunctionNameAt("unknown-contract", 2); ok {
		t.Fatalf("an unregistered contract must never match")
	}
}

func TestCoverageMarkAndIsCovered(t *testing.T) {
	c := NewCoverage()
	if c.IsCovered("x", 5) {
		t.Fatalf("fresh coverage must report nothing covered")
	}
	c.Mark("x", 5)
	if !c.IsCovered("x", 5) {
		t.Fatalf("Mark then IsCovered must agree")
	}
	if c.IsCovered("x", 6) {
		t.Fatalf("marking pc 5 must not cover pc 6")
	}
	if c.IsCovered("y", 5) {
		t.Fatalf("marking one contract must not cover another")
	}
}

func TestDeployerCreateIsDeterministic(t *testing.T) {
	disas := NewDisassembler()
	d := NewDeployer(disas)
	code := []byte{byte(opPUSH1), 0x00, byte(opJUMPDEST)}

	worlds1, addr1, err := d.Create(code, "Token")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	worlds2, addr2, err := d.Create(code, "Token")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if addr1 != addr2 {
		t.Fatalf("Create must derive the same address for the same (name, code)")
	}
	if len(worlds1) != 1 || len(worlds2) != 1 {
		t.Fatalf("Create must return exactly one world state")
	}

	_, otherAddr, err := d.Create(code, "OtherToken")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if otherAddr == addr1 {
		t.Fatalf("Create must derive different addresses for different names")
	}

	acc, ok := worlds1[0].Account(addr1)
	if !ok || string(acc.Code) != string(code) {
		t.Fatalf("Create must install code at the derived address")
	}
	if name, ok := disas.FunctionNameAt(addr1.Hex(), 2); !ok || name == "" {
		t.Fatalf("Create must register the installed code with the disassembler")
	}
}

func TestSeederSeedOneStatePerWorld(t *testing.T) {
	factory := literal.NewFactory()
	s := NewSeeder(factory)
	worklist := strategy.NewWorklist()

	w1 := state.NewWorldState()
	w2 := state.NewWorldState()
	target := [20]byte{0x07}

	if err := s.Seed(worklist, target, []*state.WorldState{w1, w2}); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if worklist.Len() != 2 {
		t.Fatalf("Seed: want 2 states queued, got %d", worklist.Len())
	}
}
