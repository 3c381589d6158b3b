package laser

import (
	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/hooks"
	"github.com/laser-ethereum/laser/core/laser/keccak"
	"github.com/laser-ethereum/laser/core/laser/profiler"
	"github.com/laser-ethereum/laser/core/laser/smt/smttest"
	"github.com/laser-ethereum/laser/core/laser/state"
)

// fakeTx is a minimal state.Transaction for lifecycle tests.
type fakeTx struct {
	creation   bool
	returnData []byte
	revert     bool
	name       string
}

func (f *fakeTx) ReturnData() []byte     { return f.returnData }
func (f *fakeTx) SetReturnData(b []byte) { f.returnData = b }
func (f *fakeTx) SetRevert(v bool)       { f.revert = v }
func (f *fakeTx) Revert() bool           { return f.revert }
func (f *fakeTx) IsCreation() bool       { return f.creation }
func (f *fakeTx) InitialGlobalState() *state.GlobalState {
	return state.NewGlobalState(state.NewWorldState(), state.Environment{})
}
func (f *fakeTx) String() string { return f.name }

// fakeEvaluator lets each test queue exactly the StepOutcome(s) it wants
// returned, in call order, regardless of opcode.
type fakeEvaluator struct {
	outcomes []evm.StepOutcome
	errs     []error
	calls    int
}

func (f *fakeEvaluator) Step(op evm.OpCode, loader evm.DynamicLoader, prof *profiler.Profiler, gs *state.GlobalState, postCall bool) (evm.StepOutcome, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if i < len(f.outcomes) {
		return f.outcomes[i], err
	}
	return evm.StepOutcome{}, err
}

func newEngine(ev evm.Evaluator) *Engine {
	reg := hooks.NewRegistry()
	prof := profiler.New(false)
	f := smttest.NewFactory()
	km := keccak.NewManager(f, func(b []byte) []byte { return b })
	return NewEngine(ev, nil, prof, reg, km, f, nil, true)
}

func codedState(code []byte) *state.GlobalState {
	world := state.NewWorldState()
	addr := [20]byte{1}
	acc := world.AccountOrNew(addr)
	acc.Code = code
	gs := state.NewGlobalState(world, state.Environment{ActiveAccount: addr})
	gs.PushFrame(&fakeTx{}, nil)
	return gs
}
