package laser

import (
	"errors"
	"testing"

	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/hooks"
	"github.com/laser-ethereum/laser/core/laser/state"
)

func TestExecuteStateEndOfCodeCommits(t *testing.T) {
	e := newEngine(&fakeEvaluator{})
	gs := codedState(nil)
	gs.MState.PC = 0

	successors, op, err := e.ExecuteState(gs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if successors != nil || op != 0 {
		t.Fatalf("expected no successors and opcode 0, got %v %v", successors, op)
	}
	if len(e.OpenStates()) != 1 || e.OpenStates()[0] != gs.World {
		t.Fatalf("expected the world state committed as open")
	}
}

func TestExecuteStatePreHookVetoCommits(t *testing.T) {
	e := newEngine(&fakeEvaluator{})
	e.Hooks.RegisterPre(evm.STOP, func(gs *state.GlobalState) error { return hooks.ErrSkipState })

	gs := codedState([]byte{byte(evm.STOP)})
	successors, op, err := e.ExecuteState(gs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if successors != nil || op != evm.STOP {
		t.Fatalf("expected no successors, got %v", successors)
	}
	if len(e.OpenStates()) != 1 {
		t.Fatalf("expected the vetoed state committed as open")
	}
}

func TestExecuteStateUnimplementedOpcodeDrops(t *testing.T) {
	ev := &fakeEvaluator{errs: []error{evm.ErrUnimplementedOpcode}}
	e := newEngine(ev)
	gs := codedState([]byte{byte(evm.STOP)})

	successors, op, err := e.ExecuteState(gs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if successors != nil || op != evm.STOP {
		t.Fatalf("expected the state dropped silently")
	}
	if e.Profiler.DroppedStates() != 1 {
		t.Fatalf("expected the drop recorded on the profiler")
	}
	if len(e.OpenStates()) != 0 {
		t.Fatalf("expected no open-state commit for a dropped state")
	}
}

func TestExecuteStateNormalRunsPostHooks(t *testing.T) {
	successor := codedState([]byte{byte(evm.STOP)})
	ev := &fakeEvaluator{outcomes: []evm.StepOutcome{{
		Kind:       evm.StepNormal,
		Successors: []*state.GlobalState{successor},
	}}}
	e := newEngine(ev)

	var sawPost bool
	e.Hooks.RegisterPost(evm.STOP, func(gs *state.GlobalState) error {
		sawPost = true
		return nil
	})

	gs := codedState([]byte{byte(evm.STOP)})
	successors, op, err := e.ExecuteState(gs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if op != evm.STOP || len(successors) != 1 || successors[0] != successor {
		t.Fatalf("expected the evaluator's successor returned, got %v", successors)
	}
	if !sawPost {
		t.Fatalf("expected post hook invoked for a normal step")
	}
}

func TestExecuteStatePreHookVetoSkipsEvaluator(t *testing.T) {
	ev := &fakeEvaluator{outcomes: []evm.StepOutcome{{Kind: evm.StepNormal}}}
	e := newEngine(ev)
	e.Hooks.RegisterPre(evm.STOP, func(gs *state.GlobalState) error { return hooks.ErrSkipState })

	gs := codedState([]byte{byte(evm.STOP)})
	if _, _, err := e.ExecuteState(gs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.calls != 0 {
		t.Fatalf("expected the evaluator never invoked once a pre-hook vetoes")
	}
}

func TestHandleExceptionTopLevelProducesNoSuccessors(t *testing.T) {
	ev := &fakeEvaluator{outcomes: []evm.StepOutcome{{Kind: evm.StepException}}}
	e := newEngine(ev)
	gs := codedState([]byte{byte(evm.STOP)})

	successors, _, err := e.ExecuteState(gs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if successors != nil {
		t.Fatalf("expected a top-level exception to produce no successors, got %v", successors)
	}
}

func TestHandleStartBypassesPostHooksAndExtendsStack(t *testing.T) {
	callee := &fakeTx{}
	ev := &fakeEvaluator{}
	e := newEngine(ev)

	var sawPost bool
	e.Hooks.RegisterPost(evm.CALL, func(gs *state.GlobalState) error { sawPost = true; return nil })

	gs := codedState([]byte{byte(evm.CALL)})
	ev.outcomes = []evm.StepOutcome{{
		Kind: evm.StepStartTransaction,
		Start: &evm.TransactionStartSignal{
			Transaction: callee,
			GlobalState: gs,
		},
	}}

	successors, _, err := e.ExecuteState(gs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(successors) != 1 {
		t.Fatalf("expected exactly one successor")
	}
	if sawPost {
		t.Fatalf("expected post hooks bypassed for a transaction start")
	}
	if successors[0].Depth() != gs.Depth()+1 || successors[0].CurrentTransaction() != callee {
		t.Fatalf("expected the callee's frame pushed onto the new state's stack")
	}
}

func TestExecuteStateUnrecognisedStepKindIsInvariantError(t *testing.T) {
	ev := &fakeEvaluator{outcomes: []evm.StepOutcome{{Kind: evm.StepKind(99)}}}
	e := newEngine(ev)
	gs := codedState([]byte{byte(evm.STOP)})

	_, _, err := e.ExecuteState(gs)
	var invariant *InvariantError
	if !errors.As(err, &invariant) {
		t.Fatalf("expected an InvariantError, got %v", err)
	}
}
