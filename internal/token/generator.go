package token

import (
	"fmt"
	"strconv"

	"github.com/signalfuzz/signalfuzz/pkg/types"
)

// MaxGuessLength bounds the accumulated string of a character-guess token.
// Reaching it forces finalization regardless of analyzer verdicts so a
// runaway convergence loop cannot probe forever.
const MaxGuessLength = 50

// Named charsets for GUESS tokens. A custom literal set is supplied with
// the chars= option instead.
var charsets = map[string]string{
	"alnum":  "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_",
	"hex":    "0123456789abcdef",
	"digits": "0123456789",
}

// ConfigError reports a malformed token configuration. It is fatal: the
// campaign must abort before any network traffic is sent.
type ConfigError struct {
	Token  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("token %s: %s", e.Token, e.Reason)
}

// Generator is a per-token value source. Payload returns the next candidate
// value, or the empty string once the generator is exhausted. Generators are
// not safe for concurrent use; the orchestrator is their only writer.
type Generator interface {
	Token() *types.Token
	Payload() string
}

// WordLoader resolves a wordlist source (path or built-in alias) to its
// ordered words. Supplied by the caller so the engine stays free of file I/O.
type WordLoader func(source string) ([]string, error)

// Build constructs the generator for a token. Unknown modes are rejected
// here: they parse fine, but nothing can schedule them.
func Build(tok *types.Token, load WordLoader) (Generator, error) {
	switch tok.Mode {
	case types.ModeWordlist:
		return buildWordlist(tok, load)
	case types.ModeIntRange:
		return buildIntRange(tok)
	case types.ModeCharGuess:
		return buildCharGuess(tok)
	default:
		return nil, &ConfigError{Token: tok.Raw, Reason: fmt.Sprintf("unschedulable mode %q", tok.ModeTag)}
	}
}

// --- Wordlist ---

// WordlistGenerator walks a pre-loaded word sequence once. No restart
// within a run.
type WordlistGenerator struct {
	tok    *types.Token
	words  []string
	cursor int
}

func buildWordlist(tok *types.Token, load WordLoader) (*WordlistGenerator, error) {
	source, ok := tok.Options.Get("wordlist")
	if !ok || source == "" {
		return nil, &ConfigError{Token: tok.Raw, Reason: "missing wordlist option"}
	}
	if load == nil {
		return nil, &ConfigError{Token: tok.Raw, Reason: "no wordlist loader available"}
	}
	words, err := load(source)
	if err != nil {
		return nil, &ConfigError{Token: tok.Raw, Reason: fmt.Sprintf("loading wordlist: %v", err)}
	}
	return &WordlistGenerator{tok: tok, words: words}, nil
}

func (g *WordlistGenerator) Token() *types.Token { return g.tok }

func (g *WordlistGenerator) Payload() string {
	if g.cursor >= len(g.words) {
		return ""
	}
	word := g.words[g.cursor]
	g.cursor++
	return word
}

// Remaining returns how many words have not been served yet.
func (g *WordlistGenerator) Remaining() int {
	return len(g.words) - g.cursor
}

// --- Integer range ---

// IntRangeGenerator steps through [start, end]. On overflow it either
// terminates (stop_at_end) or wraps back to start; wrapping is deliberate so
// an integer token can keep pace with a longer-lived sibling. In follow mode
// the cursor is ignored and the payload tracks the accumulated length of a
// paired character-guess token.
type IntRangeGenerator struct {
	tok       *types.Token
	current   int
	start     int
	end       int
	step      int
	padding   int
	stopAtEnd bool
	follow    bool
	exhausted bool

	tracked *CharGuessGenerator
}

func buildIntRange(tok *types.Token) (*IntRangeGenerator, error) {
	start, err := intOption(tok, "start", 0)
	if err != nil {
		return nil, err
	}
	end, err := intOption(tok, "end", 0)
	if err != nil {
		return nil, err
	}
	step, err := intOption(tok, "step", 1)
	if err != nil {
		return nil, err
	}
	padding, err := intOption(tok, "padding", 0)
	if err != nil {
		return nil, err
	}
	if step <= 0 {
		return nil, &ConfigError{Token: tok.Raw, Reason: "step must be positive"}
	}
	if end < start {
		return nil, &ConfigError{Token: tok.Raw, Reason: "end is before start"}
	}
	return &IntRangeGenerator{
		tok:       tok,
		current:   start,
		start:     start,
		end:       end,
		step:      step,
		padding:   padding,
		stopAtEnd: tok.Options.Flag("stop_at_end"),
		follow:    tok.Options.Flag("follow"),
	}, nil
}

func (g *IntRangeGenerator) Token() *types.Token { return g.tok }

// Follows reports whether this generator tracks a character-guess token.
func (g *IntRangeGenerator) Follows() bool { return g.follow }

// Track binds the character-guess generator whose accumulated length this
// generator mirrors in follow mode.
func (g *IntRangeGenerator) Track(cg *CharGuessGenerator) { g.tracked = cg }

func (g *IntRangeGenerator) Payload() string {
	if g.follow {
		if g.tracked == nil {
			return ""
		}
		return g.format(len(g.tracked.Accumulated()))
	}
	if g.exhausted {
		return ""
	}
	value := g.current
	g.current += g.step
	if g.current > g.end {
		if g.stopAtEnd {
			g.exhausted = true
		} else {
			g.current = g.start
		}
	}
	return g.format(value)
}

func (g *IntRangeGenerator) format(v int) string {
	if g.padding > 0 {
		return fmt.Sprintf("%0*d", g.padding, v)
	}
	return strconv.Itoa(v)
}

// --- Character guess ---

// CharGuessGenerator owns an accumulated guessed string and a charset
// cursor. Payload cycles through charset candidates without touching the
// accumulated string; only Extend, driven by an analyzer verdict at the
// round barrier, advances it.
type CharGuessGenerator struct {
	tok     *types.Token
	charset string
	acc     string
	cursor  int
	append  bool
	done    bool
}

func buildCharGuess(tok *types.Token) (*CharGuessGenerator, error) {
	set := charsets["alnum"]
	if name, ok := tok.Options.Get("charset"); ok {
		named, known := charsets[name]
		if !known {
			return nil, &ConfigError{Token: tok.Raw, Reason: fmt.Sprintf("unknown charset %q", name)}
		}
		set = named
	}
	if custom, ok := tok.Options.Get("chars"); ok {
		if custom == "" {
			return nil, &ConfigError{Token: tok.Raw, Reason: "empty custom charset"}
		}
		set = custom
	}
	return &CharGuessGenerator{
		tok:     tok,
		charset: set,
		append:  tok.Options.Flag("append"),
	}, nil
}

func (g *CharGuessGenerator) Token() *types.Token { return g.tok }

// Charset returns the candidate character set.
func (g *CharGuessGenerator) Charset() string { return g.charset }

// Accumulated returns the confirmed guessed string so far.
func (g *CharGuessGenerator) Accumulated() string { return g.acc }

// AppendMode reports whether candidates carry the accumulated prefix.
func (g *CharGuessGenerator) AppendMode() bool { return g.append }

// Done reports whether the token has been finalized.
func (g *CharGuessGenerator) Done() bool { return g.done }

func (g *CharGuessGenerator) Payload() string {
	if g.done {
		return ""
	}
	ch := string(g.charset[g.cursor])
	g.cursor = (g.cursor + 1) % len(g.charset)
	if g.append {
		return g.acc + ch
	}
	return ch
}

// Extend confirms the round's winning payload. In append mode the payload
// already carries the prefix and replaces the accumulated string; otherwise
// the bare character is suffixed. The charset cursor restarts for the next
// round. Extension past MaxGuessLength finalizes the token instead.
func (g *CharGuessGenerator) Extend(payload string) {
	if g.done {
		return
	}
	if g.append {
		g.acc = payload
	} else {
		g.acc += payload
	}
	g.cursor = 0
	if len(g.acc) >= MaxGuessLength {
		g.done = true
	}
}

// Finalize marks the token complete; its accumulated string is the answer.
func (g *CharGuessGenerator) Finalize() {
	g.done = true
	g.cursor = 0
}

func intOption(tok *types.Token, key string, def int) (int, error) {
	raw, ok := tok.Options.Get(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ConfigError{Token: tok.Raw, Reason: fmt.Sprintf("option %s=%q is not an integer", key, raw)}
	}
	return v, nil
}
