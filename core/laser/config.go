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
	"time"

	"github.com/core-coin/uint256"

	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/keccak"
	"github.com/laser-ethereum/laser/core/laser/strategy"
)

// StrategyFactory builds the Strategy a session drives, given the shared
// worklist and the configured max depth. Config.Strategy defaults to
// strategy.NewDepthFirst when left nil.
type StrategyFactory func(worklist *strategy.Worklist, maxDepth int) strategy.Strategy

// Config is session configuration. Zero-value fields are defaulted by
// NewConfig the way core/vm.Config defaults an unset JumpTable.
type Config struct {
	DynamicLoader evm.DynamicLoader

	MaxDepth int // <=0 means unbounded

	// ExecutionTimeout and CreateTimeout bound exec's non-create and create
	// deadlines respectively. Zero means "use the default"; pass a negative
	// duration to disable a deadline outright.
	ExecutionTimeout time.Duration
	CreateTimeout    time.Duration

	Strategy StrategyFactory

	TransactionCount int

	// RequiresStatespace defaults to true (a nil pointer means "unset"); set
	// it to a false pointer explicitly to stop retaining committed world
	// states as open states on detector-only runs. CFG recording is not
	// affected by it.
	RequiresStatespace *bool

	EnableIprof            bool
	EnableCoverageStrategy bool
	CoveragePlugin         strategy.CoveragePlugin

	Actors [3]*uint256.Int
}

var boolTrue = true

// NewConfig returns cfg with every unset field replaced by its documented
// default, mutating and returning the same value.
func NewConfig(cfg Config) Config {
	if cfg.ExecutionTimeout == 0 {
		cfg.ExecutionTimeout = 60 * time.Second
	}
	if cfg.CreateTimeout == 0 {
		cfg.CreateTimeout = 10 * time.Second
	}
	if cfg.Strategy == nil {
		cfg.Strategy = strategy.NewDepthFirst
	}
	if cfg.TransactionCount == 0 {
		cfg.TransactionCount = 2
	}
	if cfg.RequiresStatespace == nil {
		cfg.RequiresStatespace = &boolTrue
	}
	if cfg.Actors == ([3]*uint256.Int{}) {
		cfg.Actors = keccak.DefaultActors
	}
	return cfg
}

// buildStrategy wires the coverage wrapper on top of the configured
// strategy when enabled, per EnableCoverageStrategy.
func (c Config) buildStrategy(worklist *strategy.Worklist) strategy.Strategy {
	inner := c.Strategy(worklist, c.MaxDepth)
	if c.EnableCoverageStrategy && c.CoveragePlugin != nil {
		return strategy.NewCoverageStrategy(inner, worklist, c.CoveragePlugin)
	}
	return inner
}
