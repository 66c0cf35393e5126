package probe

import (
	"log/slog"
	"strings"

	"github.com/glaslos/tlsh"
	"github.com/signalfuzz/signalfuzz/internal/analyzer"
	"github.com/signalfuzz/signalfuzz/internal/hook"
	"github.com/signalfuzz/signalfuzz/internal/request"
	"github.com/signalfuzz/signalfuzz/pkg/types"
)

// tlshMinBody is the smallest body the TLSH digest is computed for.
const tlshMinBody = 50

// Prober sends one concrete request and converts the response into an
// Observation. Transport failures never escape: they degrade to a sentinel
// observation so batch analysis always sees a uniform, complete set.
type Prober struct {
	client  *Client
	baseURL string
	filters *analyzer.FilterSet
	hooks   *hook.Runner
	logger  *slog.Logger
}

// New creates a Prober targeting baseURL. filters and hooks may be nil.
func New(baseURL string, opts *ClientOptions, filters *analyzer.FilterSet, hooks *hook.Runner, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		client:  NewClient(opts),
		baseURL: strings.TrimRight(baseURL, "/"),
		filters: filters,
		hooks:   hooks,
		logger:  logger,
	}
}

// Probe executes one request. payload labels the observation with the
// candidate value under test so analysis can name the winner.
func (p *Prober) Probe(req *request.Concrete, payload string) *types.Observation {
	raw, err := p.client.do(req.Method, p.baseURL+req.Path, req.Headers, []byte(req.Body))
	if err != nil {
		p.logger.Debug("probe failed",
			slog.String("payload", payload),
			slog.String("error", err.Error()),
		)
		obs := sentinel(payload)
		p.dispatch(obs, nil)
		return obs
	}

	body := string(raw.body)
	obs := &types.Observation{
		StatusCode:    raw.statusCode,
		BodyLength:    len(raw.body),
		WordCount:     len(strings.Fields(body)),
		LineCount:     countLines(body),
		Elapsed:       raw.elapsed,
		Payload:       payload,
		PassedFilters: p.filters.Pass(raw.statusCode, len(raw.body), body),
	}
	if len(raw.body) >= tlshMinBody {
		if h, err := tlsh.HashBytes(raw.body); err == nil {
			obs.BodyDigest = h.String()
		}
	}

	p.dispatch(obs, raw.body)
	return obs
}

func (p *Prober) dispatch(obs *types.Observation, body []byte) {
	if p.hooks.Empty() {
		return
	}
	p.hooks.Dispatch(&hook.Event{Observation: obs, Body: body})
}

// sentinel is the uniform zero-signal observation for a failed probe. It
// participates in deviation analysis as noise.
func sentinel(payload string) *types.Observation {
	return &types.Observation{
		StatusCode:    500,
		Payload:       payload,
		PassedFilters: false,
	}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
