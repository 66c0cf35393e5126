package probe

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/signalfuzz/signalfuzz/internal/analyzer"
	"github.com/signalfuzz/signalfuzz/internal/request"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProber_ReducesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user") != "carlos" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "no such user")
			return
		}
		fmt.Fprint(w, "Welcome back\nYour dashboard awaits")
	}))
	defer srv.Close()

	p := New(srv.URL, nil, nil, nil, testLogger())

	obs := p.Probe(&request.Concrete{Method: "GET", Path: "/?user=carlos"}, "carlos")
	if obs.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", obs.StatusCode)
	}
	body := "Welcome back\nYour dashboard awaits"
	if obs.BodyLength != len(body) {
		t.Errorf("Expected body length %d, got %d", len(body), obs.BodyLength)
	}
	if obs.WordCount != 5 {
		t.Errorf("Expected 5 words, got %d", obs.WordCount)
	}
	if obs.LineCount != 2 {
		t.Errorf("Expected 2 lines, got %d", obs.LineCount)
	}
	if obs.Elapsed <= 0 {
		t.Error("Expected a positive elapsed time")
	}
	if obs.Payload != "carlos" {
		t.Errorf("Expected payload label carlos, got %q", obs.Payload)
	}

	miss := p.Probe(&request.Concrete{Method: "GET", Path: "/?user=guest"}, "guest")
	if miss.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", miss.StatusCode)
	}
}

func TestProber_AppliesFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Welcome back")
	}))
	defer srv.Close()

	show := "Welcome"
	filters := &analyzer.FilterSet{ShowString: &show}
	p := New(srv.URL, nil, filters, nil, testLogger())

	obs := p.Probe(&request.Concrete{Method: "GET", Path: "/"}, "x")
	if !obs.PassedFilters {
		t.Error("Matching show_string must mark the observation as passing")
	}

	hide := "Welcome"
	p2 := New(srv.URL, nil, &analyzer.FilterSet{HideString: &hide}, nil, testLogger())
	if p2.Probe(&request.Concrete{Method: "GET", Path: "/"}, "x").PassedFilters {
		t.Error("Matching hide_string must mark the observation as filtered")
	}
}

func TestProber_SentinelOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	opts := DefaultClientOptions()
	opts.Timeout = 500 * time.Millisecond
	p := New(srv.URL, opts, nil, nil, testLogger())

	obs := p.Probe(&request.Concrete{Method: "GET", Path: "/"}, "ghost")
	if obs.StatusCode != 500 {
		t.Errorf("Sentinel must carry status 500, got %d", obs.StatusCode)
	}
	if obs.BodyLength != 0 || obs.WordCount != 0 || obs.LineCount != 0 {
		t.Error("Sentinel counts must be zero")
	}
	if obs.Elapsed != 0 {
		t.Error("Sentinel elapsed must be zero")
	}
	if obs.PassedFilters {
		t.Error("Sentinel must never pass filters")
	}
	if obs.Payload != "ghost" {
		t.Errorf("Sentinel must keep the payload label, got %q", obs.Payload)
	}
}

func TestProber_BodyDigestThreshold(t *testing.T) {
	// Varied bytes: the digest needs entropy, not just length.
	buf := make([]byte, 400)
	for i := range buf {
		buf[i] = byte('a' + (i*7+i*i/3)%26)
	}
	long := string(buf)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/long" {
			fmt.Fprint(w, long)
			return
		}
		fmt.Fprint(w, "tiny")
	}))
	defer srv.Close()

	p := New(srv.URL, nil, nil, nil, testLogger())

	if obs := p.Probe(&request.Concrete{Method: "GET", Path: "/long"}, "a"); obs.BodyDigest == "" {
		t.Error("Expected a digest for a body above the threshold")
	}
	if obs := p.Probe(&request.Concrete{Method: "GET", Path: "/tiny"}, "b"); obs.BodyDigest != "" {
		t.Errorf("Expected no digest for a tiny body, got %q", obs.BodyDigest)
	}
}

func TestCountLines(t *testing.T) {
	cases := []struct {
		body string
		want int
	}{
		{"", 0},
		{"one line", 1},
		{"a\nb", 2},
		{"a\nb\n", 3},
	}
	for _, c := range cases {
		if got := countLines(c.body); got != c.want {
			t.Errorf("countLines(%q) = %d, want %d", c.body, got, c.want)
		}
	}
}
