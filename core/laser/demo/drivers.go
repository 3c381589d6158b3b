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
	"sync/atomic"

	"github.com/laser-ethereum/laser/common"
	"github.com/laser-ethereum/laser/core/laser/smt"
	"github.com/laser-ethereum/laser/core/laser/state"
	"github.com/laser-ethereum/laser/core/laser/strategy"
	"github.com/laser-ethereum/laser/crypto"
)

// Deployer is the bundled laser.CreationDriver: it does not execute the
// constructor at all (see Creation's doc comment), it just installs the
// supplied code as the deployed account's runtime code at a deterministic
// address and hands back a single post-construction world state.
type Deployer struct {
	Disas Disassemblable
}

// Disassemblable is the subset of collaborators a Deployer registers newly
// installed code with, so later CFG naming can see it. *Disassembler
// satisfies it; nil is valid and simply skips registration.
type Disassemblable interface {
	Register(contract string, code []byte)
}

func NewDeployer(disas Disassemblable) *Deployer {
	return &Deployer{Disas: disas}
}

// Create installs code at an address derived from keccak(name || code),
// mirroring how a real CREATE address would at least be deterministic and
// collision-resistant across distinct (name, code) pairs in one run.
func (d *Deployer) Create(code []byte, name string) ([]*state.WorldState, common.Address, error) {
	addr := deriveAddress(name, code)

	world := state.NewWorldState()
	acc := state.NewAccount(addr)
	acc.Code = code
	world.PutAccount(acc)

	if d.Disas != nil {
		d.Disas.Register(addr.Hex(), code)
	}

	return []*state.WorldState{world}, addr, nil
}

func deriveAddress(name string, code []byte) common.Address {
	h := crypto.Keccak256Hash(append([]byte(name), code...))
	return common.BytesToAddress(h.Bytes()[common.HashLength-common.AddressLength:])
}

// Seeder is the bundled laser.MessageCallDriver: it mints one top-level
// MessageCall per open world state from the prior round, targeting the same
// contract address every round (this demo has no transaction-generation
// strategy of its own — a production embedder supplies varied calldata
// across rounds).
type Seeder struct {
	Factory smt.Factory
	seq     int32
}

func NewSeeder(factory smt.Factory) *Seeder {
	return &Seeder{Factory: factory}
}

func (s *Seeder) Seed(worklist *strategy.Worklist, target common.Address, openStates []*state.WorldState) error {
	for _, world := range openStates {
		seq := int(atomic.AddInt32(&s.seq, 1))
		tx := NewMessageCall(target, s.Factory, seq, nil)

		gs := tx.InitialGlobalState()
		gs.World = world
		gs.Node = world.Node()
		gs.PushFrame(tx, nil)

		worklist.Push(gs)
	}
	return nil
}
