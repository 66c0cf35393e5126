package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/signalfuzz/signalfuzz/internal/analyzer"
	"github.com/signalfuzz/signalfuzz/internal/request"
	"github.com/signalfuzz/signalfuzz/pkg/types"
)

// Config carries the orchestrator's tunables. The former process-wide
// counters (pool size, backpressure ceiling) live here explicitly; nothing
// in the engine reads ambient state.
type Config struct {
	// Workers is the probe worker pool size.
	Workers int

	// MaxInFlight caps dispatched-but-unresolved probes. Zero means the
	// pool size is the cap.
	MaxInFlight int

	// RPS limits request dispatch per second. Zero disables limiting.
	RPS int

	// Retain keeps every Observation on the campaign. When false only
	// side effects (hooks, logging) remain; memory traded for visibility.
	Retain bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:     50,
		MaxInFlight: 100,
		RPS:         0,
		Retain:      true,
	}
}

// Prober issues one concrete request and never fails: transport errors
// arrive as sentinel observations. Satisfied by probe.Prober; tests supply
// simulated implementations.
type Prober interface {
	Probe(req *request.Concrete, payload string) *types.Observation
}

// GuessResult is the final state of one stateful token.
type GuessResult struct {
	Value string
	// Ambiguous lists tied candidates when convergence halted on an
	// ambiguous verdict; the operator inspects them manually.
	Ambiguous []analyzer.Candidate
}

// Outcome is the campaign's verdict surface.
type Outcome struct {
	// SweepPayload is the inferred payload of the stateless sweep: the
	// first filter-passing payload, or the content-deviation winner when
	// no filter is active. Empty when the sweep found no signal.
	SweepPayload string

	// SweepMatches are all filter-passing observations, in dispatch
	// order, when filters were active.
	SweepMatches []*types.Observation

	// SweepAmbiguous lists tied sweep candidates.
	SweepAmbiguous []analyzer.Candidate

	// Guesses maps each stateful token's raw text to its final state.
	Guesses map[string]*GuessResult

	// NoSignal is true when the campaign produced no verdict at all.
	NoSignal bool

	// Observations is the ordered sequence produced by the run. Nil when
	// Config.Retain is false.
	Observations []*types.Observation
}

// Stats is a point-in-time snapshot for progress display.
type Stats struct {
	Phase       string
	Round       int
	TotalProbes int64
	Failed      int64
	InFlight    int
	Elapsed     time.Duration
	RPS         float64
}

// stats is the orchestrator's internal mutable counter set.
type stats struct {
	mu          sync.Mutex
	phase       string
	round       int
	totalProbes atomic.Int64
	failed      atomic.Int64
	start       time.Time
}

func (s *stats) setPhase(phase string) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}

func (s *stats) setRound(round int) {
	s.mu.Lock()
	s.round = round
	s.mu.Unlock()
}

func (s *stats) snapshot(inFlight int) Stats {
	s.mu.Lock()
	phase, round := s.phase, s.round
	s.mu.Unlock()

	elapsed := time.Since(s.start)
	total := s.totalProbes.Load()
	rps := 0.0
	if elapsed.Seconds() > 0 {
		rps = float64(total) / elapsed.Seconds()
	}
	return Stats{
		Phase:       phase,
		Round:       round,
		TotalProbes: total,
		Failed:      s.failed.Load(),
		InFlight:    inFlight,
		Elapsed:     elapsed,
		RPS:         rps,
	}
}
