package pipeline

import (
	"testing"

	"github.com/lodeworks/stockpipe/types"
)

func TestTracker_StampsRunIdentity(t *testing.T) {
	tr := NewTracker("a1b2c3d4", "stock_pipeline")

	tr.Record(types.RunOutcome{Symbol: "AAPL", Status: types.OutcomeSuccess})
	tr.Record(types.RunOutcome{Symbol: "MSFT", Status: types.OutcomeNoData})

	if tr.Len() != 2 {
		t.Fatalf("Len = %d, want 2", tr.Len())
	}

	outcomes := tr.Drain()
	if len(outcomes) != 2 {
		t.Fatalf("Drain returned %d, want 2", len(outcomes))
	}
	for _, o := range outcomes {
		if o.RunID != "a1b2c3d4" {
			t.Errorf("%s run_id = %q, want a1b2c3d4", o.Symbol, o.RunID)
		}
		if o.PipelineName != "stock_pipeline" {
			t.Errorf("%s pipeline_name = %q", o.Symbol, o.PipelineName)
		}
	}

	// Recording order is preserved.
	if outcomes[0].Symbol != "AAPL" || outcomes[1].Symbol != "MSFT" {
		t.Errorf("order = %s, %s", outcomes[0].Symbol, outcomes[1].Symbol)
	}
}

func TestTracker_DrainEmptiesBuffer(t *testing.T) {
	tr := NewTracker("a1b2c3d4", "stock_pipeline")
	tr.Record(types.RunOutcome{Symbol: "AAPL"})

	if got := tr.Drain(); len(got) != 1 {
		t.Fatalf("first Drain = %d, want 1", len(got))
	}
	if got := tr.Drain(); len(got) != 0 {
		t.Errorf("second Drain = %d, want 0", len(got))
	}
	if tr.Len() != 0 {
		t.Errorf("Len after drain = %d, want 0", tr.Len())
	}
}
