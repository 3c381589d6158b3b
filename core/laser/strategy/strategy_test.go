package strategy

import (
	"testing"

	"github.com/laser-ethereum/laser/core/laser/state"
)

func gsAtDepth(depth int) *state.GlobalState {
	gs := state.NewGlobalState(state.NewWorldState(), state.Environment{})
	for i := 0; i < depth; i++ {
		gs.PushFrame(nil, nil)
	}
	return gs
}

func TestDepthFirstIsLIFO(t *testing.T) {
	w := NewWorklist()
	a, b, c := gsAtDepth(0), gsAtDepth(0), gsAtDepth(0)
	w.Push(a, b, c)
	s := NewDepthFirst(w, 0)

	for _, want := range []*state.GlobalState{c, b, a} {
		got, ok := s.Next()
		if !ok || got != want {
			t.Fatalf("expected %p, got %p (ok=%v)", want, got, ok)
		}
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("expected exhausted worklist")
	}
}

func TestDepthFirstSkipsOverMaxDepth(t *testing.T) {
	w := NewWorklist()
	shallow := gsAtDepth(1)
	deep := gsAtDepth(5)
	w.Push(deep, shallow)
	s := NewDepthFirst(w, 2)

	got, ok := s.Next()
	if !ok || got != shallow {
		t.Fatalf("expected the shallow state, got %v ok=%v", got, ok)
	}
	if _, ok := s.Next(); ok {
		t.Fatalf("expected the over-depth state to be skipped, not returned")
	}
}

func TestWorklistLen(t *testing.T) {
	w := NewWorklist()
	if w.Len() != 0 {
		t.Fatalf("expected empty worklist")
	}
	w.Push(gsAtDepth(0), gsAtDepth(0))
	if w.Len() != 2 {
		t.Fatalf("expected len 2, got %d", w.Len())
	}
}
