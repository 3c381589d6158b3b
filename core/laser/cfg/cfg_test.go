package cfg

import (
	"testing"

	"github.com/laser-ethereum/laser/common"
	"github.com/laser-ethereum/laser/core/laser/evm"
	"github.com/laser-ethereum/laser/core/laser/smt/smttest"
	"github.com/laser-ethereum/laser/core/laser/state"
)

type fakeDisas struct {
	names map[uint64]string
}

func (d fakeDisas) FunctionNameAt(contract string, pc uint64) (string, bool) {
	name, ok := d.names[pc]
	return name, ok
}

func newState() *state.GlobalState {
	return state.NewGlobalState(state.NewWorldState(), state.Environment{ActiveAccount: common.Address{1}})
}

func TestManageJUMPMintsUnconditionalEdge(t *testing.T) {
	arena := state.NewCFG(true)
	b := NewBuilder(arena, nil)

	src := newState()
	src.Node = arena.NewNode("c")

	dst := src.ShallowCopy()
	b.Manage(evm.JUMP, []*state.GlobalState{dst})

	if dst.Node == nil || dst.Node == src.Node {
		t.Fatalf("expected a freshly minted node distinct from the source")
	}
	edges := arena.Edges()
	if len(edges) != 1 || edges[0].Type != state.Unconditional {
		t.Fatalf("expected one UNCONDITIONAL edge, got %+v", edges)
	}
}

func TestManageJUMPIMintsConditionalEdgeWithGuard(t *testing.T) {
	arena := state.NewCFG(true)
	b := NewBuilder(arena, nil)
	f := smttest.NewFactory()

	src := newState()
	src.Node = arena.NewNode("c")

	dst := src.ShallowCopy()
	dst.MState.Constraints.Append(f.BoolConst("branch_taken"))
	b.Manage(evm.JUMPI, []*state.GlobalState{dst})

	edges := arena.Edges()
	if len(edges) != 1 || edges[0].Type != state.Conditional {
		t.Fatalf("expected one CONDITIONAL edge, got %+v", edges)
	}
	if edges[0].Condition == nil {
		t.Fatalf("expected the branch guard to be carried onto the edge")
	}
}

func TestManageDefaultOpcodeAppendsOnly(t *testing.T) {
	arena := state.NewCFG(true)
	b := NewBuilder(arena, nil)

	n := arena.NewNode("c")
	gs := newState()
	gs.Node = n
	b.Manage(evm.STOP, []*state.GlobalState{gs})

	if len(n.States) != 1 || n.States[0] != gs {
		t.Fatalf("expected the state appended to its existing node")
	}
	if len(arena.Edges()) != 0 {
		t.Fatalf("expected no new edges for a non-branching opcode")
	}
}

func TestManageRETURNFlagsCallReturn(t *testing.T) {
	arena := state.NewCFG(true)
	b := NewBuilder(arena, nil)

	src := newState()
	src.Node = arena.NewNode("c")
	dst := src.ShallowCopy()

	b.Manage(evm.RETURN, []*state.GlobalState{dst})
	if !dst.Node.Flags.Has(state.CallReturn) {
		t.Fatalf("expected RETURN's destination node flagged CallReturn")
	}
}

func TestFlagAndNameDisassemblyOverridesThenConstructorWins(t *testing.T) {
	arena := state.NewCFG(true)
	disas := fakeDisas{names: map[uint64]string{5: "transfer"}}
	b := NewBuilder(arena, disas)

	gs := newState()
	gs.Node = arena.NewNode("c")
	gs.MState.PC = 5
	gs.PushFrame(&creationTx{}, nil)

	b.Manage(evm.STOP, []*state.GlobalState{gs})

	if gs.Env.ActiveFunctionName != "constructor" {
		t.Fatalf("expected the creation-frame rule to win, got %q", gs.Env.ActiveFunctionName)
	}
}

func TestFlagAndNamePCZeroFallback(t *testing.T) {
	arena := state.NewCFG(true)
	b := NewBuilder(arena, nil)

	gs := newState()
	gs.Node = arena.NewNode("c")
	gs.MState.PC = 0

	b.Manage(evm.STOP, []*state.GlobalState{gs})
	if gs.Env.ActiveFunctionName != "fallback" {
		t.Fatalf("expected pc-zero fallback naming, got %q", gs.Env.ActiveFunctionName)
	}
}

type creationTx struct{}

func (c *creationTx) ReturnData() []byte               { return nil }
func (c *creationTx) SetReturnData([]byte)              {}
func (c *creationTx) SetRevert(bool)                    {}
func (c *creationTx) Revert() bool                      { return false }
func (c *creationTx) IsCreation() bool                  { return true }
func (c *creationTx) InitialGlobalState() *state.GlobalState { return nil }
func (c *creationTx) String() string                    { return "creation" }
