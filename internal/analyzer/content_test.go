package analyzer

import (
	"testing"

	"github.com/signalfuzz/signalfuzz/pkg/types"
)

func obsShape(payload string, status, length, words, lines int) *types.Observation {
	return &types.Observation{
		StatusCode: status,
		BodyLength: length,
		WordCount:  words,
		LineCount:  lines,
		Payload:    payload,
	}
}

func TestContentStrategy_UniqueDeviationWins(t *testing.T) {
	s := NewContentStrategy()
	batch := []*types.Observation{
		obsShape("admin", 200, 1200, 80, 30),
		obsShape("carlos", 200, 1500, 95, 33),
		obsShape("wiener", 200, 1200, 80, 30),
		obsShape("guest", 200, 1200, 80, 30),
	}

	v := s.Analyze(batch)
	if !v.Found {
		t.Fatal("Expected a verdict")
	}
	if v.Payload != "carlos" {
		t.Errorf("Expected carlos, got %q", v.Payload)
	}
	if v.Distance != 300+15+3 {
		t.Errorf("Expected distance 318, got %d", v.Distance)
	}
}

func TestContentStrategy_TieIsAmbiguous(t *testing.T) {
	s := NewContentStrategy()
	batch := []*types.Observation{
		obsShape("a", 200, 100, 10, 5),
		obsShape("b", 200, 100, 10, 5),
		obsShape("c", 200, 150, 10, 5),
		obsShape("d", 200, 50, 10, 5),
	}

	v := s.Analyze(batch)
	if v.Found {
		t.Fatal("A tie at maximum distance must not auto-resolve")
	}
	if !v.Ambiguous {
		t.Fatal("Expected an ambiguous verdict")
	}
	if len(v.Candidates) != 2 {
		t.Fatalf("Expected 2 tied candidates, got %d", len(v.Candidates))
	}
	seen := map[string]bool{}
	for _, c := range v.Candidates {
		seen[c.Payload] = true
	}
	if !seen["c"] || !seen["d"] {
		t.Errorf("Expected candidates c and d, got %v", v.Candidates)
	}
}

func TestContentStrategy_IdenticalResponsesNoVerdict(t *testing.T) {
	s := NewContentStrategy()
	var batch []*types.Observation
	for _, p := range []string{"a", "b", "c", "d"} {
		batch = append(batch, obsShape(p, 200, 100, 10, 5))
	}

	v := s.Analyze(batch)
	if v.Found || v.Ambiguous {
		t.Error("Content-identical responses must yield no verdict")
	}
}

func TestContentStrategy_ErrorClassCandidate(t *testing.T) {
	// Error-class responses are excluded from the baseline but can still
	// win on deviation.
	s := NewContentStrategy()
	batch := []*types.Observation{
		obsShape("a", 200, 100, 10, 5),
		obsShape("b", 200, 100, 10, 5),
		obsShape("c", 500, 40, 4, 1),
	}

	v := s.Analyze(batch)
	if !v.Found || v.Payload != "c" {
		t.Errorf("Expected error-class deviation c to win, got %+v", v)
	}
}

func TestContentStrategy_FallbackCorrectGuessErrors(t *testing.T) {
	// Every shape identical, but exactly one payload sits alone in the
	// error class: a correct guess that errors while the rest succeed.
	s := NewContentStrategy()
	batch := []*types.Observation{
		obsShape("a", 200, 100, 10, 5),
		obsShape("b", 200, 100, 10, 5),
		obsShape("c", 403, 100, 10, 5),
		obsShape("d", 200, 100, 10, 5),
	}

	v := s.Analyze(batch)
	if !v.Found || v.Payload != "c" {
		t.Errorf("Expected error-class fallback to pick c, got %+v", v)
	}
}

func TestContentStrategy_FallbackCorrectGuessSucceeds(t *testing.T) {
	// The inverse direction: one payload succeeds while all others error.
	s := NewContentStrategy()
	batch := []*types.Observation{
		obsShape("a", 200, 100, 10, 5),
		obsShape("b", 404, 100, 10, 5),
		obsShape("c", 404, 100, 10, 5),
		obsShape("d", 404, 100, 10, 5),
	}

	v := s.Analyze(batch)
	if !v.Found || v.Payload != "a" {
		t.Errorf("Expected success-class fallback to pick a, got %+v", v)
	}
}

func TestContentStrategy_AllErrorsNoVerdict(t *testing.T) {
	s := NewContentStrategy()
	batch := []*types.Observation{
		obsShape("a", 404, 100, 10, 5),
		obsShape("b", 404, 100, 10, 5),
	}

	v := s.Analyze(batch)
	if v.Found || v.Ambiguous {
		t.Error("A single status class separates nothing")
	}
}

func TestContentStrategy_EmptyBatch(t *testing.T) {
	v := NewContentStrategy().Analyze(nil)
	if v.Found || v.Ambiguous {
		t.Error("Empty batch must yield no verdict")
	}
}
