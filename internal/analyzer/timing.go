package analyzer

import (
	"sort"
	"time"

	"github.com/signalfuzz/signalfuzz/pkg/types"
)

// DefaultTimingThreshold is the relative deviation a payload's mean elapsed
// time must exceed, as a fraction of the global mean (0.35 = 35% slower).
const DefaultTimingThreshold = 0.35

// TimingStrategy infers the distinguishing payload from a time side
// channel: the payload whose mean response time deviates furthest above the
// global mean wins, provided the relative deviation strictly exceeds the
// threshold. Slower is the interesting direction (an induced delay, e.g.
// a sleep-based check); faster never wins.
type TimingStrategy struct {
	Threshold float64
}

// NewTimingStrategy returns the timing-deviation strategy. A non-positive
// threshold falls back to the default.
func NewTimingStrategy(threshold float64) *TimingStrategy {
	if threshold <= 0 {
		threshold = DefaultTimingThreshold
	}
	return &TimingStrategy{Threshold: threshold}
}

func (s *TimingStrategy) Name() string { return "timing" }

func (s *TimingStrategy) Analyze(obs []*types.Observation) *Verdict {
	if len(obs) == 0 {
		return NoVerdict()
	}

	sums := make(map[string]time.Duration)
	counts := make(map[string]int)
	for _, o := range obs {
		sums[o.Payload] += o.Elapsed
		counts[o.Payload]++
	}

	payloads := make([]string, 0, len(sums))
	for p := range sums {
		payloads = append(payloads, p)
	}
	sort.Strings(payloads) // deterministic winner on exact mean ties

	means := make(map[string]float64, len(payloads))
	var global float64
	for _, p := range payloads {
		m := float64(sums[p]) / float64(counts[p])
		means[p] = m
		global += m
	}
	global /= float64(len(payloads))
	if global <= 0 {
		return NoVerdict()
	}

	var best string
	bestMean := -1.0
	for _, p := range payloads {
		if means[p] > bestMean {
			best = p
			bestMean = means[p]
		}
	}

	deviation := (bestMean - global) / global
	if deviation <= s.Threshold {
		// Strictly greater than: a payload exactly at the threshold is
		// indistinguishable from noise.
		return NoVerdict()
	}
	return &Verdict{Found: true, Payload: best, Deviation: deviation}
}
