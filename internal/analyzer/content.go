package analyzer

import (
	"sort"

	"github.com/signalfuzz/signalfuzz/pkg/types"
)

// ContentStrategy infers the distinguishing payload from response shape:
// the majority (length, words, lines) triple among successful-class
// responses is the baseline, and the observation furthest from it wins.
type ContentStrategy struct{}

// NewContentStrategy returns the content-deviation strategy.
func NewContentStrategy() *ContentStrategy {
	return &ContentStrategy{}
}

func (s *ContentStrategy) Name() string { return "content" }

// Analyze picks the observation whose shape deviates most from the majority
// baseline. Ties at the maximum distance are surfaced as ambiguous. With
// zero deviations it falls back to the error-class heuristic: a payload
// that appears only among >= 400 responses, when it is the only such
// payload, is accepted (a correct guess can cause an error while the
// incorrect ones succeed).
func (s *ContentStrategy) Analyze(obs []*types.Observation) *Verdict {
	if len(obs) == 0 {
		return NoVerdict()
	}

	baseline, ok := majorityShape(obs)
	if !ok {
		// No successful-class responses to establish a baseline.
		return errorClassFallback(obs)
	}

	type deviation struct {
		obs      *types.Observation
		distance int
	}
	var deviations []deviation
	for _, o := range obs {
		if d := shapeDistance(o.Shape(), baseline); d > 0 {
			deviations = append(deviations, deviation{obs: o, distance: d})
		}
	}

	if len(deviations) == 0 {
		return errorClassFallback(obs)
	}

	sort.SliceStable(deviations, func(i, j int) bool {
		return deviations[i].distance > deviations[j].distance
	})

	top := deviations[0]
	if len(deviations) == 1 || deviations[1].distance < top.distance {
		return &Verdict{Found: true, Payload: top.obs.Payload, Distance: top.distance}
	}

	// Multiple observations tie at the maximum distance: ambiguous.
	v := &Verdict{Ambiguous: true}
	for _, d := range deviations {
		if d.distance < top.distance {
			break
		}
		v.Candidates = append(v.Candidates, Candidate{
			Payload:    d.obs.Payload,
			Distance:   d.distance,
			BodyDigest: d.obs.BodyDigest,
		})
	}
	return v
}

// majorityShape computes the most common shape triple among successful-class
// (< 400) observations. ok is false when no such observation exists.
func majorityShape(obs []*types.Observation) ([3]int, bool) {
	counts := make(map[[3]int]int)
	for _, o := range obs {
		if o.ErrorClass() {
			continue
		}
		counts[o.Shape()]++
	}
	if len(counts) == 0 {
		return [3]int{}, false
	}

	var best [3]int
	bestCount := -1
	for shape, count := range counts {
		if count > bestCount || (count == bestCount && lessShape(shape, best)) {
			best = shape
			bestCount = count
		}
	}
	return best, true
}

// lessShape is an arbitrary but fixed order so a majority tie resolves the
// same way on every run.
func lessShape(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func shapeDistance(a, b [3]int) int {
	d := 0
	for i := range a {
		diff := a[i] - b[i]
		if diff < 0 {
			diff = -diff
		}
		d += diff
	}
	return d
}

// errorClassFallback separates payloads by status class when their shapes
// carry no signal. A payload isolated in one class while every other
// payload sits in the opposite class is the answer: a correct guess may be
// the only one that errors, or the only one that succeeds.
func errorClassFallback(obs []*types.Observation) *Verdict {
	inError := make(map[string]bool)
	inSuccess := make(map[string]bool)
	for _, o := range obs {
		if o.ErrorClass() {
			inError[o.Payload] = true
		} else {
			inSuccess[o.Payload] = true
		}
	}
	if len(inSuccess) == 0 || len(inError) == 0 {
		// A single class cannot separate anything.
		return NoVerdict()
	}

	var onlyError, onlySuccess []string
	for payload := range inError {
		if !inSuccess[payload] {
			onlyError = append(onlyError, payload)
		}
	}
	for payload := range inSuccess {
		if !inError[payload] {
			onlySuccess = append(onlySuccess, payload)
		}
	}

	switch {
	case len(onlyError) == 1 && len(onlySuccess) != 1:
		return &Verdict{Found: true, Payload: onlyError[0]}
	case len(onlySuccess) == 1 && len(onlyError) != 1:
		return &Verdict{Found: true, Payload: onlySuccess[0]}
	default:
		return NoVerdict()
	}
}
