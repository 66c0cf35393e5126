// SignalFuzz - blind-inference HTTP fuzzer.
// Drives token-templated request variations against a target and infers
// hidden values from response signals alone.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/signalfuzz/signalfuzz/internal/analyzer"
	"github.com/signalfuzz/signalfuzz/internal/config"
	"github.com/signalfuzz/signalfuzz/internal/engine"
	"github.com/signalfuzz/signalfuzz/internal/hook"
	"github.com/signalfuzz/signalfuzz/internal/probe"
	"github.com/signalfuzz/signalfuzz/internal/request"
	"github.com/signalfuzz/signalfuzz/internal/token"
	"github.com/signalfuzz/signalfuzz/internal/ui"
	"github.com/signalfuzz/signalfuzz/internal/wordlist"
)

var version = "0.1.0"

var (
	baseURL      string
	templateFile string
	configFile   string
	workers      int
	maxInFlight  int
	rps          int
	timeoutSecs  int
	strategyName string
	timingThresh float64
	hideLength   int
	showLength   int
	hideCode     int
	showCode     int
	showString   string
	hideString   string
	saveFile     string
	noRetain     bool
	useTUI       bool
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "signalfuzz",
		Short: "SignalFuzz - blind-inference HTTP fuzzer",
		Long: `SignalFuzz replays an HTTP request template containing placeholder
tokens (F<n>Z<MODE>[:<options>]:Z) against a live target and infers hidden
values purely from response signals: status, body shape and timing.

Token modes:
  WORD   wordlist sweep        F1ZWORD:wordlist=common:Z
  RANGE  integer range sweep   F2ZRANGE:start=1,end=100,padding=3:Z
  GUESS  character-by-character convergence
         F3ZGUESS:charset=hex,append:Z`,
		RunE: run,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&baseURL, "url", "u", "", "Target base URL, scheme and host (required)")
	flags.StringVarP(&templateFile, "request", "r", "", "Path to the raw HTTP request template (required)")
	flags.StringVarP(&configFile, "config", "c", "", "Path to YAML config file")
	flags.IntVarP(&workers, "workers", "t", 0, "Probe worker pool size")
	flags.IntVar(&maxInFlight, "max-in-flight", 0, "Backpressure ceiling on unresolved probes")
	flags.IntVar(&rps, "rate", 0, "Requests per second limit (0 = unlimited)")
	flags.IntVar(&timeoutSecs, "timeout", 0, "Per-probe timeout in seconds")
	flags.StringVar(&strategyName, "strategy", "", "Analysis strategy: content or timing")
	flags.Float64Var(&timingThresh, "timing-threshold", 0, "Relative timing deviation a verdict must exceed")
	flags.IntVar(&hideLength, "hide-length", -1, "Hide responses with this exact body length")
	flags.IntVar(&showLength, "show-length", -1, "Show only responses with this exact body length")
	flags.IntVar(&hideCode, "hide-code", -1, "Hide responses with this status code")
	flags.IntVar(&showCode, "show-code", -1, "Show only responses with this status code")
	flags.StringVar(&showString, "show-string", "", "Require this substring in the body")
	flags.StringVar(&hideString, "hide-string", "", "Require this substring to be absent")
	flags.StringVar(&saveFile, "save", "", "Append filter-passing payloads to this file")
	flags.BoolVar(&noRetain, "no-retain", false, "Drop observations after hook dispatch")
	flags.BoolVar(&useTUI, "tui", false, "Show the live progress view")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("signalfuzz version %s\n", version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Target.BaseURL == "" || cfg.Target.Template == "" {
		return fmt.Errorf("--url and --request are required")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	tmpl, err := request.ParseFile(cfg.Target.Template)
	if err != nil {
		return err
	}
	tokens, err := token.Parse(tmpl.TokenView())
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return fmt.Errorf("template %s contains no tokens", cfg.Target.Template)
	}

	gens := make([]token.Generator, 0, len(tokens))
	for _, tok := range tokens {
		gen, err := token.Build(tok, wordlist.Load)
		if err != nil {
			return err
		}
		gens = append(gens, gen)
	}

	strategy, err := cfg.Strategy()
	if err != nil {
		return err
	}
	filters := cfg.FilterSet()

	var hooks []hook.Hook
	if cfg.Output.SaveFile != "" {
		hooks = append(hooks, &hook.FileAppend{Path: cfg.Output.SaveFile})
	}

	prober := probe.New(cfg.Target.BaseURL, &probe.ClientOptions{
		Timeout:             cfg.Engine.Timeout,
		MaxConnsPerHost:     cfg.Engine.Workers * 2,
		MaxIdleConnDuration: 10 * time.Second,
		UserAgent:           cfg.Engine.UserAgent,
		SkipTLSVerify:       cfg.Engine.SkipTLSVerify,
	}, filters, hook.NewRunner(logger, hooks...), logger)

	orch, err := engine.New(&engine.Config{
		Workers:     cfg.Engine.Workers,
		MaxInFlight: cfg.Engine.MaxInFlight,
		RPS:         cfg.Engine.RPS,
		Retain:      !cfg.Output.NoRetain,
	}, tmpl, gens, prober, strategy, filters, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("shutting down, draining in-flight probes")
		cancel()
	}()

	done := make(chan struct{})
	var outcome *engine.Outcome
	var runErr error
	go func() {
		outcome, runErr = orch.Run(ctx)
		close(done)
	}()

	if cfg.Output.TUI {
		p := tea.NewProgram(ui.NewProgress(orch.Stats, done))
		if _, err := p.Run(); err != nil {
			logger.Warn("progress view failed", slog.String("error", err.Error()))
		}
	}
	<-done

	if runErr != nil && runErr != context.Canceled {
		return runErr
	}
	if outcome != nil {
		fmt.Print(ui.RenderOutcome(outcome))
	}
	return nil
}

// loadConfig merges the optional YAML file with CLI flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if baseURL != "" {
		cfg.Target.BaseURL = baseURL
	}
	if templateFile != "" {
		cfg.Target.Template = templateFile
	}
	if workers > 0 {
		cfg.Engine.Workers = workers
	}
	if maxInFlight > 0 {
		cfg.Engine.MaxInFlight = maxInFlight
	}
	if rps > 0 {
		cfg.Engine.RPS = rps
	}
	if timeoutSecs > 0 {
		cfg.Engine.Timeout = time.Duration(timeoutSecs) * time.Second
	}
	if strategyName != "" {
		cfg.Analyzer.Strategy = strategyName
	}
	if timingThresh > 0 {
		cfg.Analyzer.TimingThreshold = timingThresh
	} else if cfg.Analyzer.TimingThreshold <= 0 {
		cfg.Analyzer.TimingThreshold = analyzer.DefaultTimingThreshold
	}
	if hideLength >= 0 {
		cfg.Filters.HideLength = &hideLength
	}
	if showLength >= 0 {
		cfg.Filters.ShowLength = &showLength
	}
	if hideCode >= 0 {
		cfg.Filters.HideCode = &hideCode
	}
	if showCode >= 0 {
		cfg.Filters.ShowCode = &showCode
	}
	if showString != "" {
		cfg.Filters.ShowString = &showString
	}
	if hideString != "" {
		cfg.Filters.HideString = &hideString
	}
	if saveFile != "" {
		cfg.Output.SaveFile = saveFile
	}
	if noRetain {
		cfg.Output.NoRetain = true
	}
	if useTUI {
		cfg.Output.TUI = true
	}
	cfg.Output.Verbose = verbose

	return cfg, nil
}
