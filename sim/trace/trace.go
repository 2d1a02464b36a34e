package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions captures every queue join decision and abandonment.
	TraceLevelDecisions TraceLevel = "decisions"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if level is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level         TraceLevel
	MaxCandidates int // candidates kept per join record; 0 keeps all
}

// DecisionTrace collects queue decision records during a venue run.
// A nil *DecisionTrace accepts and discards records.
type DecisionTrace struct {
	Config   TraceConfig
	Joins    []JoinRecord
	Abandons []AbandonRecord
}

// NewDecisionTrace creates a DecisionTrace ready for recording.
// Returns nil for TraceLevelNone so callers can record unconditionally.
func NewDecisionTrace(config TraceConfig) *DecisionTrace {
	if config.Level == TraceLevelNone || config.Level == "" {
		return nil
	}
	return &DecisionTrace{
		Config:   config,
		Joins:    make([]JoinRecord, 0),
		Abandons: make([]AbandonRecord, 0),
	}
}

// RecordJoin appends a join decision, trimming candidates to MaxCandidates.
func (dt *DecisionTrace) RecordJoin(record JoinRecord) {
	if dt == nil {
		return
	}
	if k := dt.Config.MaxCandidates; k > 0 && len(record.Candidates) > k {
		record.Candidates = record.Candidates[:k]
	}
	dt.Joins = append(dt.Joins, record)
}

// RecordAbandon appends an abandonment.
func (dt *DecisionTrace) RecordAbandon(record AbandonRecord) {
	if dt == nil {
		return
	}
	dt.Abandons = append(dt.Abandons, record)
}
