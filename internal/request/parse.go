package request

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ParseFile reads a raw HTTP request (e.g. a Burp Suite export) into a
// Template. Tokens in the text are left untouched; the token parser scans
// the result separately.
func ParseFile(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening request template: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // large cookie headers

	if !scanner.Scan() {
		return nil, fmt.Errorf("request template %s is empty", path)
	}
	requestLine := strings.TrimSpace(scanner.Text())
	parts := strings.SplitN(requestLine, " ", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid request line %q", requestLine)
	}

	tmpl := &Template{
		Method:  parts[0],
		Path:    parts[1],
		Headers: make(map[string]string),
	}

	// Headers until the first blank line.
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		tmpl.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	// Remainder is the body.
	var body []string
	for scanner.Scan() {
		body = append(body, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading request template: %w", err)
	}
	tmpl.Body = strings.Join(body, "\n")

	return tmpl, nil
}
