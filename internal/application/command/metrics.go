package command

import "time"

// MatchingMetrics receives measurements from the match commands.
// A nil MatchingMetrics disables them.
type MatchingMetrics interface {
	MatcherRun(duration time.Duration, iterations, participants int, bestPenalty float64)
	GroupColor(color string)
	Finalize(outcome string)
}

// Finalize outcomes reported to MatchingMetrics.
const (
	OutcomeCommitted        = "committed"
	OutcomeAlreadyFinalized = "already_finalized"
	OutcomeVotingOpen       = "voting_open"
	OutcomeInvalid          = "invalid"
	OutcomeError            = "error"
)

type noopMetrics struct{}

func (noopMetrics) MatcherRun(time.Duration, int, int, float64) {}
func (noopMetrics) GroupColor(string)                           {}
func (noopMetrics) Finalize(string)                             {}

func metricsOrNoop(m MatchingMetrics) MatchingMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
