// Package request holds the request template: loading it from a raw HTTP
// request file and materializing concrete requests from token values.
package request

import (
	"strings"

	"github.com/signalfuzz/signalfuzz/internal/token"
)

// Template is the seed request carrying placeholder tokens.
type Template struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    string
}

// Concrete is one materialized request, ready for the prober.
type Concrete struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    string
}

// TokenView adapts the template for the token parser.
func (t *Template) TokenView() *token.Template {
	return &token.Template{Path: t.Path, Headers: t.Headers, Body: t.Body}
}

// Materialize substitutes every token's current value into the template.
// Substitution is a textual replace-all of each token's exact text across
// path, header values and body. Token texts must be mutually non-overlapping;
// the F<n>Z...Z envelope makes collisions unlikely but guarding against them
// is the template author's responsibility.
func (t *Template) Materialize(values map[string]string) *Concrete {
	c := &Concrete{
		Method:  t.Method,
		Path:    t.Path,
		Headers: make(map[string]string, len(t.Headers)),
		Body:    t.Body,
	}
	for k, v := range t.Headers {
		c.Headers[k] = v
	}
	for raw, value := range values {
		c.Path = strings.ReplaceAll(c.Path, raw, value)
		c.Body = strings.ReplaceAll(c.Body, raw, value)
		for k, v := range c.Headers {
			if strings.Contains(v, raw) {
				c.Headers[k] = strings.ReplaceAll(v, raw, value)
			}
		}
	}
	return c
}
