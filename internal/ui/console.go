// Package ui renders the session's line-oriented output: the run summary,
// the watch-status footer and the usage block. Only content and ordering
// live here; the session decides when each piece is shown.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/markhallen/testwatch/internal/runner"
	"github.com/markhallen/testwatch/internal/watch"
)

const (
	watchingLine    = "Watching for file changes..."
	notWatchingLine = "Ignoring file changes"
	noMatchLine     = "No matching tests found"
	helpHintLine    = "Type ? for help"
)

// timeUnit is the rounding applied to durations in the summary line.
const timeUnit = 10 * time.Millisecond

const helpText = `Commands:
  p <files...>  run only the given test files
  c             clear the file filter
  s             run only stale test files
  a             run all tests
  <enter>       rerun with the current settings
  q             quit`

// Console writes the session's output to a single writer.
type Console struct {
	w         io.Writer
	highlight lipgloss.Style
	fail      lipgloss.Style
	faint     lipgloss.Style
}

// NewConsole creates a Console. With color disabled every style is a
// pass-through.
func NewConsole(w io.Writer, color bool, highlightColor string) *Console {
	if w == nil {
		panic("w is required")
	}

	c := &Console{
		w:         w,
		highlight: lipgloss.NewStyle(),
		fail:      lipgloss.NewStyle(),
		faint:     lipgloss.NewStyle(),
	}
	if color {
		c.highlight = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(highlightColor))
		c.fail = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
		c.faint = lipgloss.NewStyle().Faint(true)
	}
	return c
}

// Summary prints the post-run block: blank line, summary line, then the
// usage footer.
func (c *Console) Summary(cfg watch.Config, res *runner.Result) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.summaryLine(cfg, res))
	c.footer(cfg)
}

// NoMatch prints the recoverable-failure block. It mirrors Summary with the
// highlighted message in place of the summary line.
func (c *Console) NoMatch(cfg watch.Config) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.highlight.Render(noMatchLine))
	c.footer(cfg)
}

// Footer prints the watch-status line and the help hint without a summary.
// Used for outcomes that acknowledge a command without running.
func (c *Console) Footer(cfg watch.Config) {
	c.footer(cfg)
}

// Help prints the fixed usage block.
func (c *Console) Help(cfg watch.Config) {
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, helpText)
	c.footer(cfg)
}

func (c *Console) footer(cfg watch.Config) {
	status := notWatchingLine
	if cfg.Watching {
		status = watchingLine
	}
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.faint.Render(status))
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, c.faint.Render(helpHintLine))
}

// summaryLine describes the finished pass: which mode ran and how the
// tests came out.
func (c *Console) summaryLine(cfg watch.Config, res *runner.Result) string {
	var mode string
	switch {
	case cfg.HasFilter():
		mode = fmt.Sprintf("Ran %s", strings.Join(cfg.FileFilter, " "))
	case cfg.StaleOnly:
		mode = "Ran stale tests"
	default:
		mode = "Ran all tests"
	}

	counts := res.Counts
	if counts.Total() == 0 {
		// Event parsing disabled or nothing surfaced per-test results;
		// fall back to the exit code.
		if res.ExitCode == 0 {
			return fmt.Sprintf("%s: ok (%s)", mode, res.Duration.Round(timeUnit))
		}
		return fmt.Sprintf("%s: %s (%s)", mode, c.fail.Render(fmt.Sprintf("exit %d", res.ExitCode)), res.Duration.Round(timeUnit))
	}

	parts := []string{fmt.Sprintf("%d passed", counts.Passed)}
	if counts.Failed > 0 {
		parts = append(parts, c.fail.Render(fmt.Sprintf("%d failed", counts.Failed)))
	}
	if counts.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", counts.Skipped))
	}
	return fmt.Sprintf("%s: %s (%s)", mode, strings.Join(parts, ", "), res.Duration.Round(timeUnit))
}
