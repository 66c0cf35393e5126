// Package types defines common data structures shared across SignalFuzz components.
package types

import (
	"strings"
	"time"
)

// TokenMode identifies the value-generation strategy of a placeholder token.
type TokenMode int

const (
	ModeUnknown TokenMode = iota
	ModeWordlist
	ModeIntRange
	ModeCharGuess
)

func (m TokenMode) String() string {
	switch m {
	case ModeWordlist:
		return "wordlist"
	case ModeIntRange:
		return "range"
	case ModeCharGuess:
		return "guess"
	default:
		return "unknown"
	}
}

// Options holds the raw key/value option pairs of a token.
// Values are kept verbatim; boolean coercion happens at access time so
// unknown modes can round-trip their options untouched.
type Options map[string]string

// Get returns the raw value for key and whether it was present.
func (o Options) Get(key string) (string, bool) {
	v, ok := o[key]
	return v, ok
}

// Flag reports whether key is set and truthy. A bare flag (empty value)
// counts as true; "true"/"false" are matched case-insensitively.
func (o Options) Flag(key string) bool {
	v, ok := o[key]
	if !ok {
		return false
	}
	if v == "" {
		return true
	}
	return strings.EqualFold(v, "true")
}

// Token is an immutable descriptor of one placeholder in the template.
// Raw is the exact substring replaced wherever it occurs.
type Token struct {
	Raw     string
	Index   int
	Mode    TokenMode
	ModeTag string // mode name as written, preserved for unknown modes
	Options Options
}

// Stateful reports whether the token accumulates state across rounds.
func (t *Token) Stateful() bool {
	return t.Mode == ModeCharGuess
}

// Observation is the reduced, comparable summary of one HTTP response.
// A failed probe yields a sentinel Observation (status 500, zero counts)
// so every batch analysis sees a uniform, complete set.
type Observation struct {
	StatusCode    int
	BodyLength    int
	WordCount     int
	LineCount     int
	Elapsed       time.Duration
	Payload       string
	PassedFilters bool

	// BodyDigest is the TLSH digest of the response body, empty when the
	// body was too small to hash or the probe failed. Informational only:
	// verdicts never depend on it, but tied candidates report it so an
	// operator can judge how alike their responses actually are.
	BodyDigest string
}

// Shape returns the (length, words, lines) triple used by content-deviation
// analysis as the comparable response shape.
func (o *Observation) Shape() [3]int {
	return [3]int{o.BodyLength, o.WordCount, o.LineCount}
}

// ErrorClass reports whether the response belongs to the error class
// (status >= 400) excluded from baseline computation.
func (o *Observation) ErrorClass() bool {
	return o.StatusCode >= 400
}
