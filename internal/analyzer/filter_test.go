package analyzer

import "testing"

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestFilterSet_InactiveByDefault(t *testing.T) {
	var f FilterSet
	if f.Active() {
		t.Error("Empty filter set must be inactive")
	}
	if !f.Pass(404, 0, "") {
		t.Error("Absent predicates impose no constraint")
	}

	var nilSet *FilterSet
	if nilSet.Active() {
		t.Error("Nil filter set must be inactive")
	}
	if !nilSet.Pass(500, 10, "x") {
		t.Error("Nil filter set must pass everything")
	}
}

func TestFilterSet_EveryPredicateMustHold(t *testing.T) {
	f := &FilterSet{
		ShowCode:   intPtr(200),
		HideLength: intPtr(1200),
		ShowString: strPtr("Welcome"),
	}
	if !f.Active() {
		t.Error("Configured set must be active")
	}

	if !f.Pass(200, 1500, "Welcome back") {
		t.Error("Observation satisfying every predicate must pass")
	}
	if f.Pass(302, 1500, "Welcome back") {
		t.Error("show_code mismatch must fail")
	}
	if f.Pass(200, 1200, "Welcome back") {
		t.Error("hide_length match must fail")
	}
	if f.Pass(200, 1500, "Invalid login") {
		t.Error("show_string absence must fail")
	}
}

func TestFilterSet_HideDirections(t *testing.T) {
	f := &FilterSet{
		HideCode:   intPtr(404),
		HideString: strPtr("Not Found"),
	}

	if f.Pass(404, 10, "page") {
		t.Error("hide_code match must fail")
	}
	if f.Pass(200, 10, "Not Found impostor") {
		t.Error("hide_string presence must fail")
	}
	if !f.Pass(200, 10, "fine") {
		t.Error("Unmatched hide predicates must pass")
	}
}

func TestFilterSet_ShowLength(t *testing.T) {
	f := &FilterSet{ShowLength: intPtr(1500)}
	if !f.Pass(200, 1500, "") {
		t.Error("Exact show_length match must pass")
	}
	if f.Pass(200, 1499, "") {
		t.Error("show_length mismatch must fail")
	}
}
