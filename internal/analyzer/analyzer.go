// Package analyzer reduces a batch of probe observations to a verdict:
// the one payload whose response signal distinguishes it, an ambiguous set
// of tied candidates, or no verdict at all.
package analyzer

import (
	"github.com/signalfuzz/signalfuzz/pkg/types"
)

// Verdict is the outcome of analyzing one observation batch.
type Verdict struct {
	// Found is true when a single distinguishing payload was identified.
	Found   bool
	Payload string

	// Ambiguous is true when several payloads tied at the maximum
	// deviation. They are surfaced for manual inspection, never
	// auto-resolved.
	Ambiguous  bool
	Candidates []Candidate

	// Distance is the content deviation of the winner (content strategy).
	Distance int

	// Deviation is the relative timing deviation of the winner
	// (timing strategy).
	Deviation float64
}

// Candidate is one tied payload surfaced by an ambiguous verdict.
type Candidate struct {
	Payload    string
	Distance   int
	BodyDigest string
}

// NoVerdict is the explicit "no distinguishing signal" outcome.
func NoVerdict() *Verdict {
	return &Verdict{}
}

// Strategy is a batch-analysis heuristic. Implementations must treat the
// batch as a set: no ordering is guaranteed between probes of one round.
type Strategy interface {
	Name() string
	Analyze(obs []*types.Observation) *Verdict
}
