package laser

import (
	"testing"

	"github.com/laser-ethereum/laser/common"
	"github.com/laser-ethereum/laser/core/laser/cfg"
	"github.com/laser-ethereum/laser/core/laser/smt/smttest"
	"github.com/laser-ethereum/laser/core/laser/state"
	"github.com/laser-ethereum/laser/core/laser/strategy"
)

type fakeMessageCallDriver struct {
	seedCalls int
}

func (f *fakeMessageCallDriver) Seed(worklist *strategy.Worklist, target common.Address, openStates []*state.WorldState) error {
	f.seedCalls++
	gs := state.NewGlobalState(state.NewWorldState(), state.Environment{ActiveAccount: target})
	gs.PushFrame(&fakeTx{}, nil)
	worklist.Push(gs)
	return nil
}

type fakeCreationDriver struct {
	addr common.Address
}

func (f *fakeCreationDriver) Create(code []byte, name string) ([]*state.WorldState, common.Address, error) {
	return []*state.WorldState{state.NewWorldState()}, f.addr, nil
}

func newTestDriver(msgCall MessageCallDriver, creation CreationDriver) *Driver {
	e := newEngine(&fakeEvaluator{})
	arena := state.NewCFG(false)
	builder := cfg.NewBuilder(arena, nil)
	solver := smttest.Solver{Possible: true}
	return NewDriver(e, builder, solver, Config{TransactionCount: 2}, creation, msgCall)
}

func TestSymExecPreconfiguredRunsOneTargetThroughEachRound(t *testing.T) {
	msgCall := &fakeMessageCallDriver{}
	d := newTestDriver(msgCall, nil)

	world := state.NewWorldState()
	target := common.Address{7}
	open, err := d.SymExec(world, target, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgCall.seedCalls != 2 {
		t.Fatalf("expected message-call driver seeded once per transaction round, got %d", msgCall.seedCalls)
	}
	if len(open) != 1 {
		t.Fatalf("expected one open world state per round retained, got %d", len(open))
	}
}

func TestSymExecCreationModeUsesCreationDriver(t *testing.T) {
	msgCall := &fakeMessageCallDriver{}
	addr := common.Address{9}
	creation := &fakeCreationDriver{addr: addr}
	d := newTestDriver(msgCall, creation)

	_, err := d.SymExec(nil, common.Address{}, []byte{0x60, 0x00}, "Test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSymExecRejectsBothModesAtOnce(t *testing.T) {
	d := newTestDriver(&fakeMessageCallDriver{}, &fakeCreationDriver{})
	world := state.NewWorldState()
	_, err := d.SymExec(world, common.Address{}, []byte{0x60}, "Test")
	if err != ErrBadSessionConfig {
		t.Fatalf("expected ErrBadSessionConfig, got %v", err)
	}
}

func TestSymExecRejectsNeitherModeSupplied(t *testing.T) {
	d := newTestDriver(&fakeMessageCallDriver{}, &fakeCreationDriver{})
	_, err := d.SymExec(nil, common.Address{}, nil, "")
	if err != ErrBadSessionConfig {
		t.Fatalf("expected ErrBadSessionConfig, got %v", err)
	}
}
