package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalJoinDecisions != 0 || summary.AbandonCount != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
	if summary.JoinDistribution == nil {
		t.Error("expected non-nil distribution map")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with mixed join decisions and abandonments
	dt := NewDecisionTrace(TraceConfig{Level: TraceLevelDecisions})
	dt.RecordJoin(JoinRecord{GuestID: "g1", ConsoleID: "c0", Joined: true})
	dt.RecordJoin(JoinRecord{GuestID: "g2", ConsoleID: "c0", Joined: false})
	dt.RecordJoin(JoinRecord{GuestID: "g3", ConsoleID: "c1", Joined: true})
	dt.RecordJoin(JoinRecord{GuestID: "g4", ConsoleID: "c0", Joined: true})
	dt.RecordAbandon(AbandonRecord{GuestID: "g1", ConsoleID: "c0", Waited: 1000, Forced: false})
	dt.RecordAbandon(AbandonRecord{GuestID: "g3", ConsoleID: "c1", Waited: 3000, Forced: true, BecameAngry: true})

	// WHEN summarized
	summary := Summarize(dt)

	// THEN counts match
	if summary.TotalJoinDecisions != 4 {
		t.Errorf("expected 4 join decisions, got %d", summary.TotalJoinDecisions)
	}
	if summary.JoinedCount != 3 || summary.DeclinedCount != 1 {
		t.Errorf("expected 3 joined / 1 declined, got %d / %d", summary.JoinedCount, summary.DeclinedCount)
	}
	if summary.UniqueConsoles != 2 {
		t.Errorf("expected 2 unique consoles, got %d", summary.UniqueConsoles)
	}
	if summary.JoinDistribution["c0"] != 2 {
		t.Errorf("expected 2 joins on c0, got %d", summary.JoinDistribution["c0"])
	}
	if summary.AbandonCount != 2 || summary.ForcedAbandons != 1 || summary.AngryAbandons != 1 {
		t.Errorf("unexpected abandonment counts %+v", summary)
	}
	if summary.MeanWaitBeforeQuit != 2000 {
		t.Errorf("expected mean wait 2000, got %v", summary.MeanWaitBeforeQuit)
	}
}
