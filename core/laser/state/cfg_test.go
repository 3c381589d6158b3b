package state

import "testing"

func TestCFGDisabledIsNoOp(t *testing.T) {
	c := NewCFG(false)
	n := c.NewNode("contract")
	if n != nil {
		t.Fatalf("expected nil node from a disabled arena")
	}
	c.AddEdge(Edge{Src: 0, Dst: 1})
	if len(c.Edges()) != 0 {
		t.Fatalf("expected no edges recorded while disabled")
	}
}

func TestCFGEnabledMintsAndLinksNodes(t *testing.T) {
	c := NewCFG(true)
	a := c.NewNode("contract")
	b := c.NewNode("contract")
	if a.ID != 0 || b.ID != 1 {
		t.Fatalf("expected sequential ids, got %d, %d", a.ID, b.ID)
	}
	c.AddEdge(Edge{Src: a.ID, Dst: b.ID, Type: Unconditional})
	if len(c.Edges()) != 1 {
		t.Fatalf("expected 1 edge")
	}
	if c.Node(a.ID) != a {
		t.Fatalf("expected Node lookup to resolve by id")
	}
	if c.Node(99) != nil {
		t.Fatalf("expected out-of-range lookup to return nil")
	}
}

func TestNodeFlags(t *testing.T) {
	n := &Node{}
	n.SetFlag(FuncEntry)
	if !n.Flags.Has(FuncEntry) {
		t.Fatalf("expected FuncEntry flag set")
	}
	if n.Flags.Has(CallReturn) {
		t.Fatalf("expected CallReturn flag unset")
	}
	n.SetFlag(CallReturn)
	if !n.Flags.Has(FuncEntry) || !n.Flags.Has(CallReturn) {
		t.Fatalf("expected both flags set")
	}
}

func TestJumpTypeString(t *testing.T) {
	cases := map[JumpType]string{
		Unconditional: "UNCONDITIONAL",
		Conditional:   "CONDITIONAL",
		Call:          "CALL",
		Return:        "RETURN",
		JumpType(99):  "UNKNOWN",
	}
	for jt, want := range cases {
		if got := jt.String(); got != want {
			t.Fatalf("JumpType(%d).String() = %q, want %q", jt, got, want)
		}
	}
}
