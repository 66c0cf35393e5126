// Package token implements the placeholder token language and the per-token
// value generators that drive a fuzzing campaign.
//
// A token is written inline in the request template as
//
//	F<digits>Z<MODE>[:<options>]:Z
//
// where MODE is an uppercase word (WORD, RANGE, GUESS, or anything else for
// forward compatibility) and options are comma-separated key=value pairs or
// bare flags.
package token

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/signalfuzz/signalfuzz/pkg/types"
)

// tokenPattern matches the full token envelope. The options group is
// non-greedy so one token never swallows the ":Z" terminator of the next.
var tokenPattern = regexp.MustCompile(`F(\d+)Z([A-Z]+)(?::(.*?))?:Z`)

// modeNames maps the grammar's mode words to token modes. Unknown words
// still parse (ModeUnknown) so the template survives; scheduling such a
// token is the orchestrator's error to raise.
var modeNames = map[string]types.TokenMode{
	"WORD":  types.ModeWordlist,
	"RANGE": types.ModeIntRange,
	"GUESS": types.ModeCharGuess,
}

// Template is the textual request the parser scans for tokens.
type Template struct {
	Path    string
	Headers map[string]string
	Body    string
}

// Parse extracts the ordered set of distinct tokens from the template.
// Scanning order is path, then headers by sorted key, then body, so two
// runs over identical input always produce identical token lists.
func Parse(tmpl *Template) ([]*types.Token, error) {
	var fields []string
	fields = append(fields, tmpl.Path)
	keys := make([]string, 0, len(tmpl.Headers))
	for k := range tmpl.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, tmpl.Headers[k])
	}
	fields = append(fields, tmpl.Body)

	seen := make(map[string]bool)
	var tokens []*types.Token

	for _, field := range fields {
		for _, m := range tokenPattern.FindAllStringSubmatch(field, -1) {
			raw := m[0]
			if seen[raw] {
				continue
			}
			seen[raw] = true

			tok, err := parseOne(raw, m[1], m[2], m[3])
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		}
	}

	return tokens, nil
}

func parseOne(raw, index, mode, opts string) (*types.Token, error) {
	var idx int
	if _, err := fmt.Sscanf(index, "%d", &idx); err != nil {
		return nil, fmt.Errorf("token %q: bad index: %w", raw, err)
	}

	options, err := parseOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("token %q: %w", raw, err)
	}

	return &types.Token{
		Raw:     raw,
		Index:   idx,
		Mode:    modeNames[mode], // zero value is ModeUnknown
		ModeTag: mode,
		Options: options,
	}, nil
}

// parseOptions splits a comma-separated option string into raw key/value
// pairs. A bare key is a flag and stores the empty string; Options.Flag
// treats it as true.
func parseOptions(s string) (types.Options, error) {
	opts := make(types.Options)
	if s == "" {
		return opts, nil
	}
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		if key == "" {
			return nil, fmt.Errorf("option %q has no key", part)
		}
		opts[key] = value
	}
	return opts, nil
}
