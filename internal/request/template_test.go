package request

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMaterialize_ReplacesEverywhere(t *testing.T) {
	tmpl := &Template{
		Method: "POST",
		Path:   "/reset?user=F1ZWORD:wordlist=u:Z",
		Headers: map[string]string{
			"Content-Length": "F2ZRANGE:follow:Z",
			"Host":           "example.org",
		},
		Body: "user=F1ZWORD:wordlist=u:Z&len=F2ZRANGE:follow:Z",
	}

	concrete := tmpl.Materialize(map[string]string{
		"F1ZWORD:wordlist=u:Z": "carlos",
		"F2ZRANGE:follow:Z":    "6",
	})

	if concrete.Path != "/reset?user=carlos" {
		t.Errorf("Unexpected path %q", concrete.Path)
	}
	if concrete.Headers["Content-Length"] != "6" {
		t.Errorf("Unexpected header %q", concrete.Headers["Content-Length"])
	}
	if concrete.Body != "user=carlos&len=6" {
		t.Errorf("Unexpected body %q", concrete.Body)
	}
}

func TestMaterialize_RoundTripLeavesNoTokenText(t *testing.T) {
	raw := "F3ZGUESS:charset=hex,append:Z"
	tmpl := &Template{
		Method:  "GET",
		Path:    "/check?code=" + raw + "&again=" + raw,
		Headers: map[string]string{"X-Code": raw},
		Body:    "code=" + raw,
	}

	concrete := tmpl.Materialize(map[string]string{raw: "a3"})

	for _, field := range []string{concrete.Path, concrete.Body, concrete.Headers["X-Code"]} {
		if strings.Contains(field, raw) {
			t.Errorf("Token text survived substitution in %q", field)
		}
	}
}

func TestMaterialize_DoesNotMutateTemplate(t *testing.T) {
	raw := "F1ZWORD:wordlist=u:Z"
	tmpl := &Template{
		Method:  "GET",
		Path:    "/a?x=" + raw,
		Headers: map[string]string{"X": raw},
	}

	tmpl.Materialize(map[string]string{raw: "one"})
	second := tmpl.Materialize(map[string]string{raw: "two"})

	if !strings.Contains(tmpl.Path, raw) {
		t.Error("Materialize must not mutate the template path")
	}
	if second.Path != "/a?x=two" {
		t.Errorf("Second materialization polluted by the first: %q", second.Path)
	}
	if second.Headers["X"] != "two" {
		t.Errorf("Header substitution polluted: %q", second.Headers["X"])
	}
}

func TestParseFile_RawRequest(t *testing.T) {
	content := strings.Join([]string{
		"POST /login?next=F1ZWORD:wordlist=common:Z HTTP/1.1",
		"Host: target.example",
		"Content-Type: application/x-www-form-urlencoded",
		"Cookie: session=F2ZGUESS:charset=hex:Z",
		"",
		"username=admin&password=F3ZWORD:wordlist=passwords:Z",
	}, "\n")

	path := filepath.Join(t.TempDir(), "req.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tmpl, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}

	if tmpl.Method != "POST" {
		t.Errorf("Expected method POST, got %q", tmpl.Method)
	}
	if tmpl.Path != "/login?next=F1ZWORD:wordlist=common:Z" {
		t.Errorf("Unexpected path %q", tmpl.Path)
	}
	if tmpl.Headers["Cookie"] != "session=F2ZGUESS:charset=hex:Z" {
		t.Errorf("Unexpected cookie header %q", tmpl.Headers["Cookie"])
	}
	if tmpl.Body != "username=admin&password=F3ZWORD:wordlist=passwords:Z" {
		t.Errorf("Unexpected body %q", tmpl.Body)
	}
}

func TestParseFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFile(empty); err == nil {
		t.Error("Expected error for empty request file")
	}

	bad := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(bad, []byte("nonsense"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseFile(bad); err == nil {
		t.Error("Expected error for request file without a request line")
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}
