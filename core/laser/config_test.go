package laser

import (
	"testing"
	"time"

	"github.com/laser-ethereum/laser/core/laser/keccak"
	"github.com/laser-ethereum/laser/core/laser/state"
	"github.com/laser-ethereum/laser/core/laser/strategy"
)

func TestNewConfigAppliesDefaults(t *testing.T) {
	cfg := NewConfig(Config{})
	if cfg.ExecutionTimeout != 60*time.Second {
		t.Fatalf("expected default execution timeout, got %v", cfg.ExecutionTimeout)
	}
	if cfg.CreateTimeout != 10*time.Second {
		t.Fatalf("expected default create timeout, got %v", cfg.CreateTimeout)
	}
	if cfg.TransactionCount != 2 {
		t.Fatalf("expected default transaction count 2, got %d", cfg.TransactionCount)
	}
	if cfg.Strategy == nil {
		t.Fatalf("expected a default strategy factory")
	}
	if cfg.RequiresStatespace == nil || !*cfg.RequiresStatespace {
		t.Fatalf("expected RequiresStatespace to default to true")
	}
	if cfg.Actors != keccak.DefaultActors {
		t.Fatalf("expected the default actor roster")
	}
}

func TestNewConfigPreservesExplicitValues(t *testing.T) {
	f := false
	cfg := NewConfig(Config{
		ExecutionTimeout:   -1,
		TransactionCount:   5,
		RequiresStatespace: &f,
	})
	if cfg.ExecutionTimeout >= 0 {
		t.Fatalf("expected the negative timeout preserved, not defaulted")
	}
	if cfg.TransactionCount != 5 {
		t.Fatalf("expected explicit transaction count preserved")
	}
	if cfg.RequiresStatespace == nil || *cfg.RequiresStatespace {
		t.Fatalf("expected the explicit false to be preserved, not defaulted to true")
	}
}

// fakeStrategy lets a test observe whether buildStrategy actually drove
// selection through the configured Strategy, rather than discarding it.
type fakeStrategy struct {
	sentinel *state.GlobalState
	calls    int
}

func (f *fakeStrategy) Next() (*state.GlobalState, bool) {
	f.calls++
	return f.sentinel, true
}

type noopCoverage struct{}

func (noopCoverage) IsCovered(contract string, pc uint64) bool { return false }

func TestBuildStrategyWrapsConfiguredStrategyUnderCoverage(t *testing.T) {
	sentinel := state.NewGlobalState(state.NewWorldState(), state.Environment{})
	fs := &fakeStrategy{sentinel: sentinel}

	cfg := NewConfig(Config{
		Strategy: func(worklist *strategy.Worklist, maxDepth int) strategy.Strategy {
			return fs
		},
		EnableCoverageStrategy: true,
		CoveragePlugin:         noopCoverage{},
	})

	worklist := strategy.NewWorklist()
	got, ok := cfg.buildStrategy(worklist).Next()
	if !ok || got != sentinel {
		t.Fatalf("expected the configured strategy's state to survive the coverage wrapper, got %v ok=%v", got, ok)
	}
	if fs.calls != 1 {
		t.Fatalf("expected buildStrategy to delegate to the configured strategy exactly once, got %d calls", fs.calls)
	}
}

func TestDeadlineFromNegativeDisables(t *testing.T) {
	dl := deadlineFrom(-1)
	if !dl.IsZero() {
		t.Fatalf("expected a negative timeout to produce the zero deadline")
	}
}

func TestDeadlineFromPositive(t *testing.T) {
	dl := deadlineFrom(time.Hour)
	if dl.IsZero() || !dl.After(time.Now()) {
		t.Fatalf("expected a future deadline")
	}
}
