package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/signalfuzz/signalfuzz/internal/engine"
)

// StatsFunc supplies the live campaign snapshot the view polls.
type StatsFunc func() engine.Stats

// Progress is the live campaign view. It polls the orchestrator's stats on
// a fixed tick and quits itself when the campaign's done channel closes.
type Progress struct {
	stats StatsFunc
	done  <-chan struct{}
	last  engine.Stats
}

// NewProgress creates the progress model.
func NewProgress(stats StatsFunc, done <-chan struct{}) Progress {
	return Progress{stats: stats, done: done}
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (p Progress) Init() tea.Cmd {
	return tick()
}

func (p Progress) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return p, tea.Quit
		}
	case tickMsg:
		p.last = p.stats()
		select {
		case <-p.done:
			return p, tea.Quit
		default:
		}
		return p, tick()
	}
	return p, nil
}

func (p Progress) View() string {
	s := p.last
	phase := s.Phase
	if phase == "" {
		phase = "starting"
	}

	body := fmt.Sprintf("%s %s\n%s %d  %s %d  %s %d\n%s %.0f req/s  %s %s",
		LabelStyle.Render("phase"), ValueStyle.Render(phase),
		LabelStyle.Render("round"), s.Round,
		LabelStyle.Render("probes"), s.TotalProbes,
		LabelStyle.Render("failed"), s.Failed,
		LabelStyle.Render("rate"), s.RPS,
		LabelStyle.Render("elapsed"), s.Elapsed.Round(time.Second),
	)
	return PanelStyle.Render(TitleStyle.Render("signalfuzz")+"\n"+body) + "\n"
}
