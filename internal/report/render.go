package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"poll-simulator/internal/domain"
)

const correctMarker = "**"

// Options controls text rendering.
type Options struct {
	NoColor bool
}

// Render writes statistics as one block per question, an answer per line with its tally,
// correct answers marked with "**", followed by the overall counters.
func Render(w io.Writer, stats domain.Statistics, opts Options) error {
	bw := bufio.NewWriter(w)
	for _, q := range stats.Questions {
		fmt.Fprintln(bw, stylize(q.Text, opts.NoColor, lipgloss.NewStyle().Bold(true)))
		for _, a := range q.Answers {
			line := fmt.Sprintf("%s : %d", a.Text, a.Count)
			if a.Correct {
				line = stylize(line+correctMarker, opts.NoColor, lipgloss.NewStyle().Foreground(lipgloss.Color("42")))
			}
			fmt.Fprintln(bw, line)
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintf(bw, "Total Correct: %d\n", stats.Correct)
	fmt.Fprintf(bw, "Total Incorrect: %d\n", stats.Incorrect)
	return bw.Flush()
}

// Separator is printed between consecutive rounds.
func Separator(opts Options) string {
	return stylize("\n----------------- Re-Voting -----------------\n", opts.NoColor,
		lipgloss.NewStyle().Foreground(lipgloss.Color("244")))
}

// stylize applies optional styling.
func stylize(text string, noColor bool, style lipgloss.Style) string {
	if noColor {
		return text
	}
	return style.Render(text)
}
