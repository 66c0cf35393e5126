// Package hook runs optional per-observation callbacks. A hook exposes zero,
// one or both of two capabilities: a Condition predicate deciding whether it
// runs, and an Execute action. Hook failures are logged and swallowed; they
// never abort a probe or a round.
package hook

import (
	"fmt"
	"log/slog"

	"github.com/signalfuzz/signalfuzz/pkg/types"
)

// Event is the data handed to hooks for each observation. Body is the raw
// response body; it is nil for failed probes.
type Event struct {
	Observation *types.Observation
	Body        []byte
}

// Hook is the minimal identity every hook carries. Capabilities are
// optional interfaces probed once at registration, not per dispatch.
type Hook interface {
	Name() string
}

// Conditioner is the optional predicate capability. A hook without it runs
// for every observation.
type Conditioner interface {
	Condition(ev *Event) bool
}

// Executor is the optional action capability.
type Executor interface {
	Execute(ev *Event) error
}

// entry caches the result of capability probing for one hook.
type entry struct {
	hook Hook
	cond Conditioner // nil when the capability is absent
	exec Executor
}

// Runner dispatches events to a fixed set of hooks.
type Runner struct {
	entries []entry
	logger  *slog.Logger
}

// NewRunner probes each hook's capabilities once and caches them.
func NewRunner(logger *slog.Logger, hooks ...Hook) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{logger: logger}
	for _, h := range hooks {
		e := entry{hook: h}
		if c, ok := h.(Conditioner); ok {
			e.cond = c
		}
		if x, ok := h.(Executor); ok {
			e.exec = x
		}
		r.entries = append(r.entries, e)
	}
	return r
}

// Empty reports whether no hooks are registered.
func (r *Runner) Empty() bool {
	return r == nil || len(r.entries) == 0
}

// Dispatch runs every accepting hook against the event. Each hook failure,
// error or panic alike, is logged and swallowed independently.
func (r *Runner) Dispatch(ev *Event) {
	if r == nil {
		return
	}
	for _, e := range r.entries {
		r.dispatchOne(e, ev)
	}
}

func (r *Runner) dispatchOne(e entry, ev *Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("hook panicked",
				slog.String("hook", e.hook.Name()),
				slog.String("panic", fmt.Sprint(rec)),
			)
		}
	}()

	if e.cond != nil && !e.cond.Condition(ev) {
		return
	}
	if e.exec == nil {
		return
	}
	if err := e.exec.Execute(ev); err != nil {
		r.logger.Warn("hook failed",
			slog.String("hook", e.hook.Name()),
			slog.String("error", err.Error()),
		)
	}
}
