// Package tui provides the Bubble Tea progress view for taskwatch.
//
// The TUI launches when a human runs `taskwatch watch` in an interactive
// terminal. It is never activated for scripts, CI/CD, or piped output --
// three independent gates (--json, --quiet, isatty) prevent it.
package tui

import (
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/funmagic/taskwatch/internal/taskprogress"
)

// --- TTY gate ---

// ShouldRunTUI returns true if the TUI should be launched.
// Returns false when stdout is not a terminal, or --json/--quiet flags are set.
//
// Parameters:
//   - jsonOutput: whether --json was passed
//   - quiet: whether --quiet was passed
//
// Returns:
//   - bool: true if the TUI should run
func ShouldRunTUI(jsonOutput, quiet bool) bool {
	if jsonOutput || quiet {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// --- Brand colors (mirrors internal/ui/styles.go) ---

var (
	magenta = lipgloss.Color("#D946EF")
	sky     = lipgloss.Color("#38BDF8")
	red     = lipgloss.Color("#EF4444")
	amber   = lipgloss.Color("#F59E0B")
	green   = lipgloss.Color("#22C55E")
	gray    = lipgloss.Color("#6B7280")
	dimGray = lipgloss.Color("#9CA3AF")
	white   = lipgloss.Color("#E5E7EB")
)

// --- Shared TUI styles ---

var (
	// titleStyle renders the header.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(magenta)

	// sectionStyle renders section headers.
	sectionStyle = lipgloss.NewStyle().
			Foreground(dimGray).
			Bold(true).
			MarginTop(1)

	// normalStyle renders regular text.
	normalStyle = lipgloss.NewStyle().
			Foreground(white)

	// dimStyle renders low-priority text.
	dimStyle = lipgloss.NewStyle().
			Foreground(dimGray)

	// successStyle renders completed indicators.
	successStyle = lipgloss.NewStyle().
			Foreground(green)

	// errorStyle renders failed indicators.
	errorStyle = lipgloss.NewStyle().
			Foreground(red).
			Bold(true)

	// warningStyle renders reconnect and cancel notices.
	warningStyle = lipgloss.NewStyle().
			Foreground(amber)

	// runningStyle renders the active step.
	runningStyle = lipgloss.NewStyle().
			Foreground(sky)

	// helpStyle renders the bottom key hint bar.
	helpStyle = lipgloss.NewStyle().
			Foreground(gray)

	// separatorStyle renders horizontal rules.
	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#374151"))
)

// separator returns a horizontal line of the given width.
func separator(width int) string {
	s := ""
	for i := 0; i < width; i++ {
		s += "─"
	}
	return separatorStyle.Render(s)
}

// helpKeyRender formats a key hint like "q quit".
func helpKeyRender(key, desc string) string {
	return normalStyle.Render(key) + " " + helpStyle.Render(desc)
}

// --- Shared message types ---

// ProgressMsg carries a status snapshot from the tracker.
// NextCmd must be issued by the Update handler to continue the streaming chain.
type ProgressMsg struct {
	// Status is nil when nothing is bound.
	Status  *taskprogress.ProgressStatus
	NextCmd tea.Cmd
}

// StreamClosedMsg signals that the status channel was closed.
type StreamClosedMsg struct{}

// CopiedMsg reports the result of copying task output to the clipboard.
type CopiedMsg struct {
	Err error
}

// tickMsg is sent every second to update the elapsed timer.
type tickMsg struct{}

// tickCmd sends a tick every second for the elapsed time display.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

// --- Shared spinner factory ---

// newSpinner creates a consistently styled braille spinner.
func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(sky)
	return s
}
