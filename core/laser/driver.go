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
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"golang.org/x/sync/singleflight"

	"github.com/laser-ethereum/laser/common"
	"github.com/laser-ethereum/laser/core/laser/cfg"
	"github.com/laser-ethereum/laser/core/laser/hooks"
	"github.com/laser-ethereum/laser/core/laser/smt"
	"github.com/laser-ethereum/laser/core/laser/state"
	"github.com/laser-ethereum/laser/core/laser/strategy"
	"github.com/laser-ethereum/laser/log"
)

// CreationDriver is the external contract-creation collaborator: given
// creation bytecode and a display name, it runs construction and returns
// the post-construction world states plus the address the contract lands
// at.
type CreationDriver interface {
	Create(code []byte, name string) ([]*state.WorldState, common.Address, error)
}

// MessageCallDriver is the external message-call collaborator: given the
// worklist, a target address and the open states from the prior round, it
// expands each open state into one or more seed GlobalStates pushed onto
// the worklist.
type MessageCallDriver interface {
	Seed(worklist *strategy.Worklist, target common.Address, openStates []*state.WorldState) error
}

// Driver runs sym_exec: it owns the worklist, the configured strategy, the
// CFG builder and the satisfiability filter, and drives the engine across
// Config.TransactionCount rounds.
type Driver struct {
	Engine *Engine
	CFG    *cfg.Builder
	Solver smt.Solver

	Config Config

	CreationDriver    CreationDriver
	MessageCallDriver MessageCallDriver

	Worklist *strategy.Worklist
	strat    strategy.Strategy

	// probe merges is_possible calls for identical-by-content constraint
	// sets only while an earlier call for the same text is still in flight
	// on another goroutine; exec issues its probes one after another, and
	// each of those reaches the solver.
	probe singleflight.Group

	totalStates int

	execDeadline   time.Time
	createDeadline time.Time
}

// NewDriver returns a Driver over engine/builder/solver, defaulting cfg the
// way NewConfig does, and building the configured (optionally
// coverage-wrapped) strategy over a fresh worklist.
func NewDriver(engine *Engine, builder *cfg.Builder, solver smt.Solver, config Config, creation CreationDriver, msgCall MessageCallDriver) *Driver {
	config = NewConfig(config)
	worklist := strategy.NewWorklist()
	return &Driver{
		Engine:            engine,
		CFG:               builder,
		Solver:            solver,
		Config:            config,
		CreationDriver:    creation,
		MessageCallDriver: msgCall,
		Worklist:          worklist,
		strat:             config.buildStrategy(worklist),
	}
}

// SymExec runs one campaign in preconfigured mode (world non-nil, target
// the contract to explore) or creation mode (creationCode/creationName
// non-empty). Exactly one mode must be supplied; supplying both or neither
// is a configuration error.
func (d *Driver) SymExec(world *state.WorldState, target common.Address, creationCode []byte, creationName string) ([]*state.WorldState, error) {
	preconfigured := world != nil
	creation := len(creationCode) > 0 || creationName != ""
	if preconfigured == creation {
		return nil, ErrBadSessionConfig
	}

	d.execDeadline = deadlineFrom(d.Config.ExecutionTimeout)
	d.createDeadline = deadlineFrom(d.Config.CreateTimeout)

	if err := d.Engine.Hooks.RunLifecycle(hooks.StartSymExec, nil); err != nil {
		return nil, err
	}

	var addr common.Address
	if preconfigured {
		d.Engine.SeedOpenStates(world)
		addr = target
	} else {
		if d.CreationDriver == nil {
			return nil, ErrBadSessionConfig
		}
		created, createdAddr, err := d.CreationDriver.Create(creationCode, creationName)
		if err != nil {
			return nil, err
		}
		d.Engine.SeedOpenStates(created...)
		addr = createdAddr
	}

	if err := d.executeTransactions(addr); err != nil {
		return nil, err
	}

	if err := d.Engine.Hooks.RunLifecycle(hooks.StopSymExec, nil); err != nil {
		return nil, err
	}

	open := d.Engine.OpenStates()
	log.Info("sym_exec finished", "total_states", d.totalStates, "open_states", len(open))
	return open, nil
}

// executeTransactions implements _execute_transactions: one round per
// Config.TransactionCount, each round seeding the worklist from the prior
// round's open states via the message-call driver, running exec to drain
// it, and resetting the keccak topological-key bookkeeping on whatever open
// states remain before the next round.
func (d *Driver) executeTransactions(target common.Address) error {
	for i := 0; i < d.Config.TransactionCount; i++ {
		if err := d.Engine.Hooks.RunLifecycle(hooks.StartSymTrans, nil); err != nil {
			return err
		}

		if d.MessageCallDriver == nil {
			return ErrBadSessionConfig
		}
		open := d.Engine.ResetOpenStates()
		if err := d.MessageCallDriver.Seed(d.Worklist, target, open); err != nil {
			return err
		}

		if err := d.exec(false); err != nil {
			return err
		}

		for _, w := range d.Engine.OpenStates() {
			w.ResetKeccakKeys()
		}

		if err := d.Engine.Hooks.RunLifecycle(hooks.StopSymTrans, nil); err != nil {
			return err
		}
	}
	return nil
}

// exec iterates the strategy until it's exhausted or the relevant deadline
// (create_timeout for create, execution_timeout otherwise) has passed.
// Unsatisfiable successors are dropped silently before reaching the CFG
// builder or the worklist; total_states only counts survivors. An error
// from a step is logged with a dump of the state that raised it and
// returned, ending the campaign.
func (d *Driver) exec(create bool) error {
	for {
		if d.deadlineExpired(create) {
			return nil
		}
		gs, ok := d.strat.Next()
		if !ok {
			return nil
		}

		successors, op, err := d.Engine.ExecuteState(gs)
		if err != nil {
			log.Error("engine aborted", "err", err, "state", spew.Sdump(gs))
			return err
		}

		survivors := successors[:0:0]
		for _, s := range successors {
			if !d.isPossible(s) {
				d.Engine.Profiler.RecordDropped()
				continue
			}
			survivors = append(survivors, s)
		}

		survivors = d.CFG.Manage(op, survivors)
		d.Worklist.Push(survivors...)
		d.totalStates += len(survivors)
		for range survivors {
			d.Engine.Profiler.RecordState()
		}
	}
}

// isPossible asks the solver whether s's constraint set is satisfiable,
// deduplicating concurrent-looking probes for textually identical
// constraint sets through d.probe.
func (d *Driver) isPossible(s *state.GlobalState) bool {
	terms := s.MState.Constraints.All()
	var key strings.Builder
	for _, t := range terms {
		key.WriteString(t.String())
		key.WriteByte('\n')
	}
	v, _, _ := d.probe.Do(key.String(), func() (interface{}, error) {
		return s.MState.Constraints.IsPossible(d.Solver), nil
	})
	return v.(bool)
}

func (d *Driver) deadlineExpired(create bool) bool {
	dl := d.execDeadline
	if create {
		dl = d.createDeadline
	}
	if dl.IsZero() {
		return false
	}
	return !time.Now().Before(dl)
}

// deadlineFrom returns the zero Time (meaning "no deadline") for a negative
// timeout, or now+timeout otherwise.
func deadlineFrom(timeout time.Duration) time.Time {
	if timeout < 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}
