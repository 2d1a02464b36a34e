// Package trace records queue decisions for offline analysis of how guests
// distribute over consoles. It has no dependency on sim: records carry plain
// identifiers and numbers only.
package trace

// CandidateScore captures one console considered for a queue join.
type CandidateScore struct {
	ConsoleID   string
	Score       float64
	QueueLength int
	Distance    float64
}

// JoinRecord captures a single queue-join decision: the best-scoring console
// and whether the probabilistic gate let the guest in.
type JoinRecord struct {
	GuestID    string
	GuestType  string
	Clock      int64
	ConsoleID  string
	Score      float64
	Joined     bool
	Candidates []CandidateScore // every eligible console, in scan order
}

// AbandonRecord captures a guest leaving a queue before being served.
type AbandonRecord struct {
	GuestID     string
	GuestType   string
	ConsoleID   string
	Clock       int64
	Waited      int64 // ms spent in the queue
	Position    int   // place in line when leaving
	Forced      bool  // wait tolerance exceeded, as opposed to a random roll
	BecameAngry bool
}
