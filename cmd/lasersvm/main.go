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

// lasersvm drives one symbolic-execution campaign from the command line,
// against the bundled concrete demo collaborators rather than a real EVM
// interpreter or SMT solver.
package main

import (
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/laser-ethereum/laser/common"
	"github.com/laser-ethereum/laser/core/laser"
	"github.com/laser-ethereum/laser/core/laser/demo"
	"github.com/laser-ethereum/laser/core/laser/smt/literal"
	"github.com/laser-ethereum/laser/crypto"
	"github.com/laser-ethereum/laser/log"
)

var gitCommit = ""

var (
	app = cli.NewApp()

	CodeFlag = cli.StringFlag{
		Name:  "code",
		Usage: "contract creation bytecode, as a hex string",
	}
	CodeFileFlag = cli.StringFlag{
		Name:  "codefile",
		Usage: "file containing creation bytecode; '-' reads stdin",
	}
	NameFlag = cli.StringFlag{
		Name:  "name",
		Usage: "display name for the created contract",
		Value: "main",
	}
	TransactionCountFlag = cli.IntFlag{
		Name:  "transaction-count",
		Usage: "number of message-call rounds to explore after creation",
		Value: 2,
	}
	MaxDepthFlag = cli.IntFlag{
		Name:  "max-depth",
		Usage: "maximum call-stack depth a state may reach before the strategy drops it (0 = unbounded)",
	}
	ExecutionTimeoutFlag = cli.DurationFlag{
		Name:  "execution-timeout",
		Usage: "wall-clock budget shared by all message-call rounds, counted from the start of the run",
		Value: 60_000_000_000, // 60s, expressed in ns since cli.v1 has no default-duration helper
	}
	CreateTimeoutFlag = cli.DurationFlag{
		Name:  "create-timeout",
		Usage: "wall-clock budget for create-mode exploration; the bundled deployer runs no creation code, so no run of this tool consumes it",
		Value: 10_000_000_000,
	}
	EnableIprofFlag = cli.BoolFlag{
		Name:  "enable-iprof",
		Usage: "enable per-opcode coverage profiling",
	}
	EnableCoverageStrategyFlag = cli.BoolFlag{
		Name:  "enable-coverage-strategy",
		Usage: "deprioritise states whose PC/contract pair has already been covered (requires enable-iprof)",
	}
	VerbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Usage: "log verbosity: 0=error 1=warn 2=info 3=debug 4=trace",
		Value: int(log.LvlInfo),
	}
)

var runCommand = cli.Command{
	Name:   "run",
	Usage:  "explore a contract's reachable states starting from its creation bytecode",
	Action: run,
	Flags: []cli.Flag{
		CodeFlag,
		CodeFileFlag,
		NameFlag,
		TransactionCountFlag,
		MaxDepthFlag,
		ExecutionTimeoutFlag,
		CreateTimeoutFlag,
		EnableIprofFlag,
		EnableCoverageStrategyFlag,
		VerbosityFlag,
	},
}

func init() {
	app.Name = "lasersvm"
	app.Usage = "run a laser exploration campaign against the bundled demo evaluator"
	app.Version = gitCommit
	app.Commands = []cli.Command{runCommand}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	log.SetLevel(log.Lvl(ctx.Int(VerbosityFlag.Name)))

	code, err := loadCode(ctx)
	if err != nil {
		return err
	}
	name := ctx.String(NameFlag.Name)

	factory := literal.NewFactory()
	solver := literal.Solver{}
	disas := demo.NewDisassembler()
	evaluator := demo.NewEvaluator(factory)
	coverage := demo.NewCoverage()
	evaluator.Coverage = coverage
	deployer := demo.NewDeployer(disas)
	seeder := demo.NewSeeder(factory)

	requiresStatespace := true

	config := laser.Config{
		DynamicLoader:      demo.NopLoader{},
		MaxDepth:           ctx.Int(MaxDepthFlag.Name),
		ExecutionTimeout:   ctx.Duration(ExecutionTimeoutFlag.Name),
		CreateTimeout:      ctx.Duration(CreateTimeoutFlag.Name),
		TransactionCount:   ctx.Int(TransactionCountFlag.Name),
		RequiresStatespace: &requiresStatespace,
		EnableIprof:        ctx.Bool(EnableIprofFlag.Name),
	}
	if config.EnableIprof && ctx.Bool(EnableCoverageStrategyFlag.Name) {
		config.EnableCoverageStrategy = true
		config.CoveragePlugin = coverage
	}

	hashFn := func(b []byte) []byte { return crypto.Keccak256(b) }
	session := laser.NewSession(config, evaluator, factory, solver, hashFn, nil, disas, deployer, seeder)

	open, err := session.Driver.SymExec(nil, common.Address{}, code, name)
	if err != nil {
		return err
	}

	arena := session.Driver.CFG.Arena()
	fmt.Printf("open states: %d\n", len(open))
	fmt.Printf("cfg nodes:   %d\n", len(arena.Nodes()))
	fmt.Printf("cfg edges:   %d\n", len(arena.Edges()))
	return nil
}

func loadCode(ctx *cli.Context) ([]byte, error) {
	if hexCode := ctx.String(CodeFlag.Name); hexCode != "" {
		return decodeHex(hexCode)
	}
	path := ctx.String(CodeFileFlag.Name)
	if path == "" {
		return nil, fmt.Errorf("lasersvm: one of --code or --codefile is required")
	}
	var raw []byte
	var err error
	if path == "-" {
		raw, err = ioutil.ReadAll(os.Stdin)
	} else {
		raw, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("lasersvm: reading codefile: %w", err)
	}
	return decodeHex(string(raw))
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("lasersvm: invalid hex bytecode: %w", err)
	}
	return b, nil
}
