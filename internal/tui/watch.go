// Package tui provides the watch model for real-time task monitoring.
package tui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	statusutil "github.com/funmagic/taskwatch/internal/status"
	"github.com/funmagic/taskwatch/internal/taskprogress"
)

// statusBuffer is how many snapshots may queue before old ones are dropped.
const statusBuffer = 16

// WatchOptions configures RunWatch.
type WatchOptions struct {
	// Follow keeps the view open after a terminal status, for trackers whose
	// task id can change underneath (--id-file).
	Follow bool

	// Version is shown in the header.
	Version string
}

// watchModel renders one tracker's status.
type watchModel struct {
	// status is the latest snapshot; nil until a task is bound.
	status *taskprogress.ProgressStatus

	// steps lists finished step names in order.
	steps []string

	// follow keeps the program running after terminal states.
	follow bool

	version string

	// done is set once a terminal snapshot arrives.
	done bool

	// cancelled is set when the user quit before the task finished.
	cancelled bool

	// copied is the clipboard feedback line.
	copied string

	startTime time.Time

	spinner spinner.Model
	bar     progress.Model

	width  int
	height int

	// next reads the next snapshot from the tracker.
	next tea.Cmd
}

// newWatchModel creates the model. next is the first read command.
func newWatchModel(opts WatchOptions, next tea.Cmd) watchModel {
	bar := progress.New(progress.WithGradient(string(magenta), string(sky)), progress.WithWidth(40))
	return watchModel{
		follow:    opts.Follow,
		version:   opts.Version,
		startTime: time.Now(),
		spinner:   newSpinner(),
		bar:       bar,
		next:      next,
	}
}

// --- Tea commands ---

// subscribeCmd subscribes to tr and returns the command reading the first
// snapshot, plus the unsubscribe function.
//
// The tracker delivers snapshots while holding its lock, so the callback
// never blocks: when the TUI falls behind the oldest snapshot is dropped.
// The newest, and therefore the terminal one, always survives.
func subscribeCmd(ctx context.Context, tr *taskprogress.Tracker) (tea.Cmd, func()) {
	ch := make(chan *taskprogress.ProgressStatus, statusBuffer)

	unsubscribe := tr.Subscribe(func(p *taskprogress.ProgressStatus) {
		var snapshot *taskprogress.ProgressStatus
		if p != nil {
			c := *p
			c.Output = append(json.RawMessage(nil), p.Output...)
			snapshot = &c
		}
		select {
		case ch <- snapshot:
		default:
			// Channel full -- drain one stale snapshot and push the fresh one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	})

	return waitForStatusCmd(ctx, ch), unsubscribe
}

// waitForStatusCmd reads the next snapshot and re-issues itself through
// ProgressMsg.NextCmd until ctx ends.
func waitForStatusCmd(ctx context.Context, ch <-chan *taskprogress.ProgressStatus) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return StreamClosedMsg{}
		case st := <-ch:
			return ProgressMsg{Status: st, NextCmd: waitForStatusCmd(ctx, ch)}
		}
	}
}

// copyOutputCmd copies the task output to the system clipboard.
func copyOutputCmd(output json.RawMessage) tea.Cmd {
	return func() tea.Msg {
		return CopiedMsg{Err: clipboard.WriteAll(string(output))}
	}
}

// --- Bubble Tea interface ---

// Init starts the spinner, the clock and the status chain.
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd(), m.next)
}

// Update handles messages for the watch view.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(10, min(60, msg.Width-12))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tickMsg:
		if !m.done {
			return m, tickCmd()
		}
		return m, nil

	case ProgressMsg:
		m.apply(msg.Status)
		if m.done && !m.follow {
			return m, tea.Quit
		}
		return m, msg.NextCmd

	case StreamClosedMsg:
		return m, tea.Quit

	case CopiedMsg:
		if msg.Err != nil {
			m.copied = "copy failed: " + msg.Err.Error()
		} else {
			m.copied = "output copied to clipboard"
		}
		return m, nil
	}

	return m, nil
}

// apply folds a snapshot into the model.
func (m *watchModel) apply(st *taskprogress.ProgressStatus) {
	if st == nil {
		m.status = nil
		m.steps = nil
		m.done = false
		return
	}
	if m.status != nil && m.status.TaskID != st.TaskID {
		// rebound to another task
		m.steps = nil
		m.startTime = time.Now()
		m.copied = ""
	}

	prevStep := ""
	if m.status != nil {
		prevStep = m.status.CurrentStep
	}
	if prevStep != "" && prevStep != st.CurrentStep {
		m.steps = append(m.steps, prevStep)
	}
	if st.IsCompleted() && st.CurrentStep != "" && !containsStep(m.steps, st.CurrentStep) {
		m.steps = append(m.steps, st.CurrentStep)
	}

	m.status = st
	m.done = st.IsTerminal()
}

func containsStep(steps []string, name string) bool {
	for _, s := range steps {
		if s == name {
			return true
		}
	}
	return false
}

// handleKey processes key events.
func (m watchModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if !m.done {
			m.cancelled = true
		}
		return m, tea.Quit

	case "c":
		if m.status != nil && m.status.IsCompleted() && len(m.status.Output) > 0 {
			return m, copyOutputCmd(m.status.Output)
		}
	}
	return m, nil
}

// --- View rendering ---

// View renders the watch screen.
func (m watchModel) View() string {
	var b strings.Builder
	w := m.width
	if w == 0 {
		w = 80
	}

	elapsed := time.Since(m.startTime).Truncate(time.Second)
	taskLabel := "waiting for task id"
	if m.status != nil {
		taskLabel = m.status.TaskID
	}
	header := titleStyle.Render(" FUNMAGIC") + "  " +
		normalStyle.Render(taskLabel) + "  " +
		m.statusIcon() + "  " +
		dimStyle.Render(elapsed.String())
	if m.version != "" {
		header += "  " + dimStyle.Render("v"+strings.TrimPrefix(m.version, "v"))
	}
	b.WriteString(header + "\n")
	b.WriteString(separator(min(w, 60)) + "\n")

	if m.status == nil {
		b.WriteString("\n  " + m.spinner.View() + " " + dimStyle.Render("No task bound") + "\n")
		b.WriteString("\n  " + m.renderHelp() + "\n")
		return b.String()
	}

	b.WriteString("\n  " + m.bar.ViewAs(float64(m.status.Progress)/100) + "\n")
	b.WriteString("  " + m.renderStatusLine() + "\n")

	if len(m.steps) > 0 || m.status.CurrentStep != "" {
		b.WriteString(sectionStyle.Render("  Steps") + "\n")
		b.WriteString(m.renderSteps())
	}

	if m.done || m.cancelled {
		b.WriteString("\n")
		b.WriteString(m.renderResult())
	}

	b.WriteString("\n")
	b.WriteString("  " + separator(min(w-4, 56)) + "\n")
	b.WriteString("  " + m.renderHelp() + "\n")
	return b.String()
}

// statusIcon returns the header icon for the current state.
func (m watchModel) statusIcon() string {
	switch {
	case m.status == nil:
		return dimStyle.Render("◌")
	case m.status.IsCompleted():
		return successStyle.Render("✓")
	case m.status.IsFailed():
		return errorStyle.Render("✗")
	case m.cancelled:
		return warningStyle.Render("⊘")
	default:
		return m.spinner.View()
	}
}

// renderStatusLine renders "status · message".
func (m watchModel) renderStatusLine() string {
	st := string(m.status.Status)
	line := statusutil.StatusIcon(st) + " " + st
	switch statusutil.StatusCategory(st) {
	case "success":
		line = successStyle.Render(line)
	case "error":
		line = errorStyle.Render(line)
	case "info":
		line = runningStyle.Render(line)
	default:
		line = dimStyle.Render(line)
	}
	if m.status.Message != "" {
		line += dimStyle.Render(" · " + m.status.Message)
	}
	return line
}

// renderSteps renders finished steps and the active one.
func (m watchModel) renderSteps() string {
	var b strings.Builder
	for _, s := range m.steps {
		b.WriteString("   " + successStyle.Render("✓") + "  " + normalStyle.Render(s) + "\n")
	}
	current := m.status.CurrentStep
	if current != "" && !m.done && !containsStep(m.steps, current) {
		b.WriteString("   " + m.spinner.View() + " " + runningStyle.Render(current) + "\n")
	}
	if current != "" && m.status.IsFailed() {
		b.WriteString("   " + errorStyle.Render("✗") + "  " + dimStyle.Render(current) + "\n")
	}
	return b.String()
}

// renderResult renders the final line.
func (m watchModel) renderResult() string {
	switch {
	case m.status.IsCompleted():
		out := successStyle.Render("  ✓ Task completed")
		if m.copied != "" {
			out += "  " + dimStyle.Render(m.copied)
		}
		return out + "\n"
	case m.status.IsFailed():
		return errorStyle.Render("  ✗ Task failed") + "\n  " + dimStyle.Render(m.status.Error) + "\n"
	default:
		return warningStyle.Render("  ⊘ Stopped watching") + "\n"
	}
}

// renderHelp renders the bottom key hint bar.
func (m watchModel) renderHelp() string {
	var keys []string
	if m.status != nil && m.status.IsCompleted() && len(m.status.Output) > 0 {
		keys = append(keys, helpKeyRender("c", "copy output"))
	}
	keys = append(keys, helpKeyRender("q", "quit"))
	return strings.Join(keys, "  ")
}

// --- Tea program runner ---

// RunWatch shows tr's status until the task ends (or, with Follow, until
// the user quits or ctx ends).
//
// Parameters:
//   - ctx: Ends the view when cancelled
//   - tr: A tracker the caller has bound or will bind
//   - opts: View options
//
// Returns:
//   - *taskprogress.ProgressStatus: The last status shown, or nil
//   - bool: True if the user quit before the task finished
//   - error: Any error from the Bubble Tea runtime
func RunWatch(ctx context.Context, tr *taskprogress.Tracker, opts WatchOptions) (*taskprogress.ProgressStatus, bool, error) {
	next, unsubscribe := subscribeCmd(ctx, tr)
	defer unsubscribe()

	p := tea.NewProgram(newWatchModel(opts, next), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return nil, false, fmt.Errorf("watch view failed: %w", err)
	}

	m, ok := final.(watchModel)
	if !ok {
		return nil, false, nil
	}
	return m.status, m.cancelled, nil
}
