package ui

import (
	"fmt"
	"strings"

	"github.com/signalfuzz/signalfuzz/internal/engine"
)

// RenderOutcome formats the campaign verdict surface for the terminal.
func RenderOutcome(outcome *engine.Outcome) string {
	var b strings.Builder

	if outcome.NoSignal {
		b.WriteString(NoSignalStyle.Render("no distinguishing signal found"))
		b.WriteString("\n")
		return b.String()
	}

	if outcome.SweepPayload != "" {
		fmt.Fprintf(&b, "%s %s\n",
			LabelStyle.Render("inferred payload:"),
			VerdictStyle.Render(outcome.SweepPayload))
	}
	for _, m := range outcome.SweepMatches {
		fmt.Fprintf(&b, "  %s %s (status %d, %d bytes)\n",
			LabelStyle.Render("match:"),
			ValueStyle.Render(m.Payload), m.StatusCode, m.BodyLength)
	}
	if len(outcome.SweepAmbiguous) > 0 {
		b.WriteString(WarnStyle.Render("sweep ambiguous, inspect manually:"))
		b.WriteString("\n")
		for _, c := range outcome.SweepAmbiguous {
			fmt.Fprintf(&b, "  %s (distance %d", ValueStyle.Render(c.Payload), c.Distance)
			if c.BodyDigest != "" {
				fmt.Fprintf(&b, ", digest %s", c.BodyDigest)
			}
			b.WriteString(")\n")
		}
	}

	for raw, guess := range outcome.Guesses {
		switch {
		case len(guess.Ambiguous) > 0:
			fmt.Fprintf(&b, "%s %s %s\n",
				LabelStyle.Render("token"), raw,
				WarnStyle.Render("halted on ambiguous verdict:"))
			for _, c := range guess.Ambiguous {
				fmt.Fprintf(&b, "  %s (distance %d)\n", ValueStyle.Render(c.Payload), c.Distance)
			}
			if guess.Value != "" {
				fmt.Fprintf(&b, "  %s %s\n", LabelStyle.Render("partial:"), ValueStyle.Render(guess.Value))
			}
		case guess.Value != "":
			fmt.Fprintf(&b, "%s %s %s %s\n",
				LabelStyle.Render("token"), raw,
				LabelStyle.Render("guessed:"),
				VerdictStyle.Render(guess.Value))
		default:
			fmt.Fprintf(&b, "%s %s %s\n",
				LabelStyle.Render("token"), raw,
				NoSignalStyle.Render("no verdict"))
		}
	}

	return b.String()
}
