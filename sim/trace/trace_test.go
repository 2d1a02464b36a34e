package trace

import (
	"testing"
)

func TestNewDecisionTrace_NoneLevel_ReturnsNil(t *testing.T) {
	if dt := NewDecisionTrace(TraceConfig{Level: TraceLevelNone}); dt != nil {
		t.Fatalf("expected nil trace for level none, got %+v", dt)
	}
	if dt := NewDecisionTrace(TraceConfig{}); dt != nil {
		t.Fatal("expected nil trace for empty level")
	}
}

func TestDecisionTrace_NilReceiver_Discards(t *testing.T) {
	var dt *DecisionTrace
	// Must not panic.
	dt.RecordJoin(JoinRecord{GuestID: "g1"})
	dt.RecordAbandon(AbandonRecord{GuestID: "g1"})
}

func TestDecisionTrace_RecordJoin_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	dt := NewDecisionTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN a join record is recorded
	dt.RecordJoin(JoinRecord{
		GuestID:   "g1",
		Clock:     1000,
		ConsoleID: "console_0",
		Score:     7.5,
		Joined:    true,
	})

	// THEN the trace contains it unchanged
	if len(dt.Joins) != 1 {
		t.Fatalf("expected 1 join, got %d", len(dt.Joins))
	}
	if dt.Joins[0].ConsoleID != "console_0" || !dt.Joins[0].Joined {
		t.Errorf("unexpected record %+v", dt.Joins[0])
	}
}

func TestDecisionTrace_RecordJoin_TrimsCandidates(t *testing.T) {
	dt := NewDecisionTrace(TraceConfig{Level: TraceLevelDecisions, MaxCandidates: 2})
	dt.RecordJoin(JoinRecord{
		GuestID: "g1",
		Candidates: []CandidateScore{
			{ConsoleID: "a"}, {ConsoleID: "b"}, {ConsoleID: "c"},
		},
	})
	if got := len(dt.Joins[0].Candidates); got != 2 {
		t.Errorf("expected 2 candidates kept, got %d", got)
	}
	if dt.Joins[0].Candidates[1].ConsoleID != "b" {
		t.Errorf("expected scan order preserved, got %+v", dt.Joins[0].Candidates)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		want  bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true},
		{"verbose", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.want {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
