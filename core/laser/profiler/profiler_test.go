package profiler

import "testing"

func TestRecordStateAndDropped(t *testing.T) {
	p := New(false)
	p.RecordState()
	p.RecordState()
	p.RecordDropped()

	if got := p.TotalStates(); got != 2 {
		t.Fatalf("expected 2 total states, got %d", got)
	}
	if got := p.DroppedStates(); got != 1 {
		t.Fatalf("expected 1 dropped state, got %d", got)
	}
}

func TestRecordCoverageRespectsIprofFlag(t *testing.T) {
	p := New(false)
	p.RecordCoverage("contract", 10)
	if got := p.CoverageHits("contract"); got != 0 {
		t.Fatalf("expected no coverage recorded when iprof disabled, got %d", got)
	}

	p2 := New(true)
	p2.RecordCoverage("contract", 10)
	p2.RecordCoverage("contract", 11)
	if got := p2.CoverageHits("contract"); got != 2 {
		t.Fatalf("expected 2 coverage hits, got %d", got)
	}
}
