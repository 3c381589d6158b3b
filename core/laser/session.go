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
	"github.com/laser-ethereum/laser/core/laser/cfg"
	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/hooks"
	"github.com/laser-ethereum/laser/core/laser/keccak"
	"github.com/laser-ethereum/laser/core/laser/profiler"
	"github.com/laser-ethereum/laser/core/laser/smt"
	"github.com/laser-ethereum/laser/core/laser/state"
)

// Session bundles one campaign's collaborators: the hook registry a caller
// registers opcode/lifecycle hooks against before calling SymExec, and the
// Driver that runs it. NewSession is the one-shot entry point analogous to
// the teacher's NewCVMInterpreter/Config wiring.
type Session struct {
	Hooks  *hooks.Registry
	Driver *Driver
}

// NewSession wires an Engine and Driver from cfg (defaulted via NewConfig)
// and the collaborators an embedder supplies: the instruction evaluator,
// SMT factory and solver, hash function, vulnerability detector (may be
// nil), disassembly (may be nil), and the two transaction drivers.
func NewSession(
	config Config,
	ev evm.Evaluator,
	factory smt.Factory,
	solver smt.Solver,
	hashFn func([]byte) []byte,
	detector Detector,
	disas cfg.Disassembly,
	creation CreationDriver,
	msgCall MessageCallDriver,
) *Session {
	config = NewConfig(config)

	reg := hooks.NewRegistry()
	prof := profiler.New(config.EnableIprof)
	km := keccak.NewManager(factory, hashFn).WithActors(config.Actors)

	engine := NewEngine(ev, config.DynamicLoader, prof, reg, km, factory, detector, *config.RequiresStatespace)

	arena := state.NewCFG(true)
	builder := cfg.NewBuilder(arena, disas)

	driver := NewDriver(engine, builder, solver, config, creation, msgCall)

	return &Session{Hooks: reg, Driver: driver}
}
