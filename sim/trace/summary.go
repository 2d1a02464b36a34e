package trace

// TraceSummary aggregates statistics from a DecisionTrace.
type TraceSummary struct {
	TotalJoinDecisions int
	JoinedCount        int
	DeclinedCount      int
	AbandonCount       int
	ForcedAbandons     int
	AngryAbandons      int
	UniqueConsoles     int
	MeanWaitBeforeQuit float64        // ms, over abandonments
	JoinDistribution   map[string]int // console ID → successful joins
}

// Summarize computes aggregate statistics from a DecisionTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(dt *DecisionTrace) *TraceSummary {
	summary := &TraceSummary{
		JoinDistribution: make(map[string]int),
	}
	if dt == nil {
		return summary
	}

	summary.TotalJoinDecisions = len(dt.Joins)
	for _, j := range dt.Joins {
		if j.Joined {
			summary.JoinedCount++
			summary.JoinDistribution[j.ConsoleID]++
		} else {
			summary.DeclinedCount++
		}
	}

	if len(dt.Abandons) > 0 {
		var totalWait int64
		for _, a := range dt.Abandons {
			totalWait += a.Waited
			if a.Forced {
				summary.ForcedAbandons++
			}
			if a.BecameAngry {
				summary.AngryAbandons++
			}
		}
		summary.AbandonCount = len(dt.Abandons)
		summary.MeanWaitBeforeQuit = float64(totalWait) / float64(len(dt.Abandons))
	}

	summary.UniqueConsoles = len(summary.JoinDistribution)
	return summary
}
