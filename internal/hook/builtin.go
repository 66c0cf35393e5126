package hook

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// JSONMatch is a shipped hook that inspects a JSON response body with a
// gjson path and logs observations whose field matches the expected value.
// It runs only for successful-class responses.
type JSONMatch struct {
	Path   string
	Expect string

	// Report receives matching payloads; defaults to stderr.
	Report func(payload, value string)
}

func (h *JSONMatch) Name() string { return "json-match" }

// Condition skips error-class and bodyless observations; gjson on a
// non-JSON error page is never meaningful.
func (h *JSONMatch) Condition(ev *Event) bool {
	return !ev.Observation.ErrorClass() && len(ev.Body) > 0
}

func (h *JSONMatch) Execute(ev *Event) error {
	value := gjson.GetBytes(ev.Body, h.Path)
	if !value.Exists() || value.String() != h.Expect {
		return nil
	}
	if h.Report != nil {
		h.Report(ev.Observation.Payload, value.String())
		return nil
	}
	_, err := fmt.Fprintf(os.Stderr, "[json-match] payload %q matched %s=%s\n",
		ev.Observation.Payload, h.Path, value.String())
	return err
}

// FileAppend records the payload of every observation that passed the
// campaign's filters, one per line. Mirrors the classic "save successful
// guesses" user script.
type FileAppend struct {
	Path string
}

func (h *FileAppend) Name() string { return "file-append" }

func (h *FileAppend) Condition(ev *Event) bool {
	return ev.Observation.PassedFilters
}

func (h *FileAppend) Execute(ev *Event) error {
	f, err := os.OpenFile(h.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, ev.Observation.Payload)
	return err
}
