package analyzer

import "strings"

// FilterSet holds the optional response predicates. Each predicate is nil
// by default and imposes no constraint; a response passes the set iff it
// satisfies every non-nil predicate.
type FilterSet struct {
	// Exact body length to hide or show.
	HideLength *int
	ShowLength *int

	// Exact status code to hide or show.
	HideCode *int
	ShowCode *int

	// Substring that must be present or absent in the body.
	ShowString *string
	HideString *string
}

// Active reports whether any predicate is configured. With no active
// predicate a stateless sweep falls back to content-deviation inference.
func (f *FilterSet) Active() bool {
	if f == nil {
		return false
	}
	return f.HideLength != nil || f.ShowLength != nil ||
		f.HideCode != nil || f.ShowCode != nil ||
		f.ShowString != nil || f.HideString != nil
}

// Pass evaluates every configured predicate against one response.
func (f *FilterSet) Pass(statusCode, bodyLength int, body string) bool {
	if f == nil {
		return true
	}
	if f.HideLength != nil && bodyLength == *f.HideLength {
		return false
	}
	if f.ShowLength != nil && bodyLength != *f.ShowLength {
		return false
	}
	if f.HideCode != nil && statusCode == *f.HideCode {
		return false
	}
	if f.ShowCode != nil && statusCode != *f.ShowCode {
		return false
	}
	if f.ShowString != nil && !strings.Contains(body, *f.ShowString) {
		return false
	}
	if f.HideString != nil && strings.Contains(body, *f.HideString) {
		return false
	}
	return true
}
