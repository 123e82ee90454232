// Package ui provides terminal UI components using Charm libraries.
package ui

import (
	"fmt"
	"io"
	"sync"
)

// StepTracker prints a task's steps as a growing list, one line per change.
//
// It is the line-mode counterpart of the TUI: a step is reported as done
// when the server moves on to the next one, or when the task completes.
type StepTracker struct {
	out io.Writer

	// completedSteps stores the names of finished steps in order.
	completedSteps []string

	// last is the most recent update, used to suppress duplicate lines.
	last StepStatus

	// verbose prints messages along with step names.
	verbose bool

	mu sync.Mutex
}

// StepStatus contains the status information for a step update.
// This is a simplified interface to avoid importing the taskprogress package.
type StepStatus struct {
	// Status is the lifecycle status (connecting, processing, completed, ...).
	Status string

	// CurrentStep is the name of the current step.
	CurrentStep string

	// Progress is the completion percentage.
	Progress int

	// Message is the latest status message.
	Message string
}

// NewStepTracker creates a new step tracker.
//
// Parameters:
//   - out: Where lines are written
//   - verbose: If true, also prints status messages
//
// Returns:
//   - *StepTracker: A new step tracker instance
func NewStepTracker(out io.Writer, verbose bool) *StepTracker {
	return &StepTracker{out: out, verbose: verbose}
}

// Update processes a status update and prints what changed.
//
// Parameters:
//   - st: The current status
func (t *StepTracker) Update(st StepStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if st == t.last {
		return
	}
	prev := t.last
	t.last = st

	if prev.CurrentStep != "" && st.CurrentStep != prev.CurrentStep {
		t.completeStep(prev.CurrentStep)
	}

	switch st.Status {
	case "completed":
		if st.CurrentStep != "" {
			t.completeStep(st.CurrentStep)
		}
		return
	case "failed":
		return
	}

	if st.Status == prev.Status && st.CurrentStep == prev.CurrentStep &&
		st.Progress == prev.Progress && (!t.verbose || st.Message == prev.Message) {
		return
	}

	line := StyledStatus(st.Status)
	if st.CurrentStep != "" {
		line += " " + InfoStyle.Render(st.CurrentStep)
	}
	if st.Progress > 0 {
		line += DimStyle.Render(fmt.Sprintf(" [%d%%]", st.Progress))
	}
	if t.verbose && st.Message != "" {
		line += " " + DimStyle.Render(st.Message)
	}
	fmt.Fprintln(t.out, line)
}

// completeStep records and prints a finished step. Caller holds t.mu.
func (t *StepTracker) completeStep(name string) {
	for _, done := range t.completedSteps {
		if done == name {
			return
		}
	}
	t.completedSteps = append(t.completedSteps, name)
	fmt.Fprintln(t.out, SuccessStyle.Render("✓ "+name))
}

// GetCompletedSteps returns a copy of the completed step names.
//
// Returns:
//   - []string: A copy of the completed step names
func (t *StepTracker) GetCompletedSteps() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	result := make([]string, len(t.completedSteps))
	copy(result, t.completedSteps)
	return result
}
