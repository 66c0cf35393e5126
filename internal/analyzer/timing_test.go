package analyzer

import (
	"testing"
	"time"

	"github.com/signalfuzz/signalfuzz/pkg/types"
)

func obsTiming(payload string, elapsed time.Duration) *types.Observation {
	return &types.Observation{StatusCode: 200, Payload: payload, Elapsed: elapsed}
}

func TestTimingStrategy_SlowOutlierWins(t *testing.T) {
	s := NewTimingStrategy(0.35)
	batch := []*types.Observation{
		obsTiming("a", 100*time.Millisecond),
		obsTiming("b", 100*time.Millisecond),
		obsTiming("c", 100*time.Millisecond),
		obsTiming("s", 2*time.Second),
	}

	v := s.Analyze(batch)
	if !v.Found || v.Payload != "s" {
		t.Fatalf("Expected slow payload s to win, got %+v", v)
	}
	if v.Deviation <= 0.35 {
		t.Errorf("Winner's deviation must exceed the threshold, got %f", v.Deviation)
	}
}

func TestTimingStrategy_AveragesPerPayload(t *testing.T) {
	// Two samples per payload: one noisy spike must not beat a payload
	// that is consistently slow.
	s := NewTimingStrategy(0.35)
	batch := []*types.Observation{
		obsTiming("a", 100*time.Millisecond),
		obsTiming("a", 100*time.Millisecond),
		obsTiming("b", 900*time.Millisecond),
		obsTiming("b", 900*time.Millisecond),
		obsTiming("c", 100*time.Millisecond),
		obsTiming("c", 150*time.Millisecond),
	}

	v := s.Analyze(batch)
	if !v.Found || v.Payload != "b" {
		t.Fatalf("Expected consistently slow b to win, got %+v", v)
	}
}

func TestTimingStrategy_ThresholdIsStrict(t *testing.T) {
	// The global mean of means is exactly 200ms, so the slowest payload's
	// relative deviation is exactly 0.5 with no rounding error. At
	// threshold 0.5 it must NOT be selected; just below, it must.
	batch := []*types.Observation{
		obsTiming("a", 100*time.Millisecond),
		obsTiming("b", 150*time.Millisecond),
		obsTiming("c", 250*time.Millisecond),
		obsTiming("d", 300*time.Millisecond),
	}

	at := NewTimingStrategy(0.5)
	if v := at.Analyze(batch); v.Found {
		t.Error("Deviation exactly at the threshold must not be selected")
	}

	below := NewTimingStrategy(0.499)
	if v := below.Analyze(batch); !v.Found || v.Payload != "d" {
		t.Errorf("Deviation above the threshold must be selected, got %+v", v)
	}
}

func TestTimingStrategy_NoSlowSideNoVerdict(t *testing.T) {
	s := NewTimingStrategy(0.35)
	batch := []*types.Observation{
		obsTiming("a", 100*time.Millisecond),
		obsTiming("b", 100*time.Millisecond),
		obsTiming("c", 100*time.Millisecond),
	}

	if v := s.Analyze(batch); v.Found {
		t.Error("Uniform timing must yield no verdict")
	}
}

func TestTimingStrategy_DefaultThreshold(t *testing.T) {
	s := NewTimingStrategy(0)
	if s.Threshold != DefaultTimingThreshold {
		t.Errorf("Expected default threshold %f, got %f", DefaultTimingThreshold, s.Threshold)
	}
}

func TestTimingStrategy_EmptyBatch(t *testing.T) {
	if v := NewTimingStrategy(0.35).Analyze(nil); v.Found {
		t.Error("Empty batch must yield no verdict")
	}
}
