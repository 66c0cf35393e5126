package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/signalfuzz/signalfuzz/internal/analyzer"
	"github.com/signalfuzz/signalfuzz/internal/request"
	"github.com/signalfuzz/signalfuzz/internal/token"
	"github.com/signalfuzz/signalfuzz/pkg/types"
	"golang.org/x/time/rate"
)

// Orchestrator partitions generators into stateless and stateful groups,
// drives the lockstep sweep over the former and the round-based convergence
// loop over the latter. Generator state is mutated only here, only between
// dispatches or at the round barrier; probe tasks consume snapshotted
// payloads and never touch a generator.
type Orchestrator struct {
	cfg      *Config
	tmpl     *request.Template
	prober   Prober
	strategy analyzer.Strategy
	filters  *analyzer.FilterSet
	pool     *workerPool
	limiter  *rate.Limiter
	logger   *slog.Logger

	stateless []token.Generator
	followers []*token.IntRangeGenerator
	stateful  []*token.CharGuessGenerator

	// held pins each non-follow stateless generator's last sweep value for
	// the convergence phase.
	held map[string]string

	mu  sync.Mutex
	obs []*types.Observation
	st  stats
}

// New builds an orchestrator over the parsed generator set. It fails fast,
// before any network traffic, on anything it cannot schedule: an empty
// token set, duplicate tokens, or a follow token with nothing to track.
func New(cfg *Config, tmpl *request.Template, gens []token.Generator, prober Prober, strategy analyzer.Strategy, filters *analyzer.FilterSet, logger *slog.Logger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if strategy == nil {
		strategy = analyzer.NewContentStrategy()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(gens) == 0 {
		return nil, fmt.Errorf("template contains no tokens")
	}

	o := &Orchestrator{
		cfg:      cfg,
		tmpl:     tmpl,
		prober:   prober,
		strategy: strategy,
		filters:  filters,
		logger:   logger,
		held:     make(map[string]string),
	}

	seen := make(map[string]bool)
	for _, g := range gens {
		raw := g.Token().Raw
		if seen[raw] {
			return nil, fmt.Errorf("duplicate generator for token %s", raw)
		}
		seen[raw] = true

		switch gen := g.(type) {
		case *token.CharGuessGenerator:
			o.stateful = append(o.stateful, gen)
		case *token.IntRangeGenerator:
			if gen.Follows() {
				o.followers = append(o.followers, gen)
			} else {
				o.stateless = append(o.stateless, g)
			}
		default:
			o.stateless = append(o.stateless, g)
		}
	}

	if err := o.bindFollowers(); err != nil {
		return nil, err
	}

	pool, err := newWorkerPool(cfg.Workers, cfg.MaxInFlight)
	if err != nil {
		return nil, err
	}
	o.pool = pool

	if cfg.RPS > 0 {
		o.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS)
	}

	return o, nil
}

// bindFollowers wires each follow-mode range generator to the guess
// generator whose length it mirrors: the one named by track=<index>, or the
// first guess token.
func (o *Orchestrator) bindFollowers() error {
	for _, f := range o.followers {
		if len(o.stateful) == 0 {
			return &token.ConfigError{Token: f.Token().Raw, Reason: "follow requires a guess token"}
		}
		target := o.stateful[0]
		if idx, ok := f.Token().Options.Get("track"); ok {
			found := false
			for _, cg := range o.stateful {
				if fmt.Sprintf("%d", cg.Token().Index) == idx {
					target = cg
					found = true
					break
				}
			}
			if !found {
				return &token.ConfigError{Token: f.Token().Raw, Reason: fmt.Sprintf("no guess token with index %s to track", idx)}
			}
		}
		f.Track(target)
	}
	return nil
}

// Stats returns a progress snapshot for display.
func (o *Orchestrator) Stats() Stats {
	return o.st.snapshot(o.pool.inFlight())
}

// Run executes the campaign: Phase A (stateless sweep) when any sweepable
// generator exists, then Phase B (stateful convergence). Dispatched probes
// are always awaited; cancellation takes effect between combinations and
// between rounds, never mid-round.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	defer o.pool.release()
	o.st.start = time.Now()

	outcome := &Outcome{Guesses: make(map[string]*GuessResult)}

	if len(o.stateless) > 0 {
		if err := o.runSweep(ctx, outcome); err != nil {
			return nil, err
		}
	}

	if len(o.stateful) > 0 {
		if err := o.runConvergence(ctx, outcome); err != nil {
			return nil, err
		}
	}

	outcome.NoSignal = o.noSignal(outcome)
	if o.cfg.Retain {
		o.mu.Lock()
		outcome.Observations = o.obs
		o.mu.Unlock()
	}
	return outcome, ctx.Err()
}

// --- Phase A: stateless sweep ---

// runSweep advances every stateless generator in lockstep, one combination
// per dispatch, until any of them is exhausted. This is deliberately not a
// cross-product of the generators' value spaces: bounded request volume is
// traded for coverage, and the behavior is part of the engine's contract.
func (o *Orchestrator) runSweep(ctx context.Context, outcome *Outcome) error {
	o.st.setPhase("sweep")

	type seqObs struct {
		seq int
		obs *types.Observation
	}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		collected []seqObs
	)

	seq := 0
	for ctx.Err() == nil {
		values, label, ok := o.nextCombination()
		if !ok {
			break
		}
		req := o.tmpl.Materialize(values)

		if err := o.wait(ctx); err != nil {
			break
		}
		n := seq
		seq++
		err := o.pool.submit(&wg, func() {
			obs := o.prober.Probe(req, label)
			o.record(obs)
			mu.Lock()
			collected = append(collected, seqObs{seq: n, obs: obs})
			mu.Unlock()
		})
		if err != nil {
			return err
		}
	}
	wg.Wait()

	sort.Slice(collected, func(i, j int) bool { return collected[i].seq < collected[j].seq })
	batch := make([]*types.Observation, len(collected))
	for i, c := range collected {
		batch[i] = c.obs
	}

	if o.filters.Active() {
		for _, obs := range batch {
			if obs.PassedFilters {
				outcome.SweepMatches = append(outcome.SweepMatches, obs)
			}
		}
		if len(outcome.SweepMatches) > 0 {
			outcome.SweepPayload = outcome.SweepMatches[0].Payload
		} else {
			o.logger.Info("sweep exhausted with no passing payload")
		}
		return nil
	}

	// No active predicate: infer the answer from content deviation.
	verdict := analyzer.NewContentStrategy().Analyze(batch)
	switch {
	case verdict.Found:
		outcome.SweepPayload = verdict.Payload
	case verdict.Ambiguous:
		outcome.SweepAmbiguous = verdict.Candidates
		o.logger.Info("sweep verdict ambiguous", slog.Int("candidates", len(verdict.Candidates)))
	default:
		o.logger.Info("sweep found no distinguishing signal")
	}
	return nil
}

// nextCombination pulls one candidate from every stateless generator in
// lockstep. ok is false once any generator is exhausted.
func (o *Orchestrator) nextCombination() (map[string]string, string, bool) {
	values := make(map[string]string, len(o.stateless)+len(o.followers)+len(o.stateful))
	var labels []string

	exhausted := false
	for _, g := range o.stateless {
		p := g.Payload()
		if p == "" {
			exhausted = true
			continue
		}
		values[g.Token().Raw] = p
		o.held[g.Token().Raw] = p
		labels = append(labels, p)
	}
	if exhausted {
		return nil, "", false
	}

	// Follow tokens mirror the tracked guess length; stateful tokens sit at
	// their (initially empty) accumulated string.
	for _, f := range o.followers {
		values[f.Token().Raw] = f.Payload()
	}
	for _, cg := range o.stateful {
		values[cg.Token().Raw] = cg.Accumulated()
	}

	return values, strings.Join(labels, ","), true
}

// --- Phase B: stateful convergence ---

// runConvergence proceeds in discrete rounds. Each round probes every
// charset candidate of every active token, waits on the round barrier, then
// consults the analyzer per token. The loop ends when no token is active,
// a round makes no progress, or every token hit the length cap.
func (o *Orchestrator) runConvergence(ctx context.Context, outcome *Outcome) error {
	o.st.setPhase("convergence")

	active := make([]*token.CharGuessGenerator, 0, len(o.stateful))
	for _, cg := range o.stateful {
		if !cg.Done() {
			active = append(active, cg)
		}
	}
	ambiguous := make(map[*token.CharGuessGenerator][]analyzer.Candidate)

	round := 0
	for len(active) > 0 && ctx.Err() == nil {
		round++
		o.st.setRound(round)

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			groups = make(map[*token.CharGuessGenerator][]*types.Observation, len(active))
		)

		for _, gen := range active {
			for i := 0; i < len(gen.Charset()); i++ {
				candidate := gen.Payload()
				req := o.tmpl.Materialize(o.roundValues(gen, candidate))

				if err := o.wait(ctx); err != nil {
					break
				}
				gen := gen
				err := o.pool.submit(&wg, func() {
					obs := o.prober.Probe(req, candidate)
					o.record(obs)
					mu.Lock()
					groups[gen] = append(groups[gen], obs)
					mu.Unlock()
				})
				if err != nil {
					wg.Wait()
					return err
				}
			}
		}

		// Round barrier: every probe of this round completes before any
		// analysis, so batches are never skewed by a different prefix
		// length.
		wg.Wait()

		progress := false
		var next []*token.CharGuessGenerator
		for _, gen := range active {
			verdict := o.strategy.Analyze(groups[gen])
			switch {
			case verdict.Found:
				gen.Extend(verdict.Payload)
				progress = true
				o.logger.Debug("guess extended",
					slog.String("token", gen.Token().Raw),
					slog.String("value", gen.Accumulated()),
				)
				if !gen.Done() {
					next = append(next, gen)
				}
			case verdict.Ambiguous:
				ambiguous[gen] = verdict.Candidates
				gen.Finalize()
				o.logger.Warn("guess halted on ambiguous verdict",
					slog.String("token", gen.Token().Raw),
					slog.Int("candidates", len(verdict.Candidates)),
				)
			default:
				gen.Finalize()
			}
		}
		active = next
		if !progress {
			break
		}
	}

	for _, cg := range o.stateful {
		outcome.Guesses[cg.Token().Raw] = &GuessResult{
			Value:     cg.Accumulated(),
			Ambiguous: ambiguous[cg],
		}
	}
	return nil
}

// roundValues snapshots the substitution map for one candidate: the active
// token varies, sibling guesses sit at their accumulated strings, non-follow
// stateless tokens stay pinned at their last sweep value, and followers
// recompute from the tracked guess length.
func (o *Orchestrator) roundValues(activeGen *token.CharGuessGenerator, candidate string) map[string]string {
	values := make(map[string]string, len(o.held)+len(o.followers)+len(o.stateful))
	for raw, v := range o.held {
		values[raw] = v
	}
	for _, f := range o.followers {
		values[f.Token().Raw] = f.Payload()
	}
	for _, cg := range o.stateful {
		if cg == activeGen {
			values[cg.Token().Raw] = candidate
		} else {
			values[cg.Token().Raw] = cg.Accumulated()
		}
	}
	return values
}

// --- shared ---

func (o *Orchestrator) wait(ctx context.Context) error {
	if o.limiter == nil {
		return nil
	}
	return o.limiter.Wait(ctx)
}

func (o *Orchestrator) record(obs *types.Observation) {
	o.st.totalProbes.Add(1)
	if obs.Elapsed == 0 && obs.StatusCode == 500 {
		o.st.failed.Add(1)
	}
	if !o.cfg.Retain {
		return
	}
	o.mu.Lock()
	o.obs = append(o.obs, obs)
	o.mu.Unlock()
}

func (o *Orchestrator) noSignal(outcome *Outcome) bool {
	if outcome.SweepPayload != "" || len(outcome.SweepMatches) > 0 || len(outcome.SweepAmbiguous) > 0 {
		return false
	}
	for _, g := range outcome.Guesses {
		if g.Value != "" || len(g.Ambiguous) > 0 {
			return false
		}
	}
	return true
}
