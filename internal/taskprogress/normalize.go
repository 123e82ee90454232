package taskprogress

import (
	"github.com/funmagic/taskwatch/internal/status"
)

// Outcome tells the caller whether an event ended the task.
type Outcome int

const (
	// OutcomeNone means the task is still running.
	OutcomeNone Outcome = iota

	// OutcomeCompleted means the event completed the task.
	OutcomeCompleted

	// OutcomeFailed means the event failed the task.
	OutcomeFailed
)

// Normalize folds ev into prev and returns the next status.
//
// Fields the event does not speak about are carried over. A terminal prev is
// returned unchanged with OutcomeNone, so replays and duplicates after the
// end are harmless. The status only moves forward through its phases, and
// progress is clamped to 0-100 and never decreases.
//
// Parameters:
//   - prev: The current status
//   - ev: The event to apply
//
// Returns:
//   - ProgressStatus: The next status
//   - Outcome: Whether ev ended the task
func Normalize(prev ProgressStatus, ev Event) (ProgressStatus, Outcome) {
	if prev.IsTerminal() {
		return prev, OutcomeNone
	}

	next := prev.clone()
	outcome := OutcomeNone

	switch e := ev.(type) {
	case ConnectedEvent:
		next.Status = advance(prev.Status, status.Connected)

	case StepStartedEvent:
		next.Status = advance(prev.Status, status.Processing)
		next.CurrentStep = e.Step
		next.Message = e.Message
		next.Progress = resolveProgress(prev.Progress, e.Progress, prev.Progress)

	case ProgressEvent:
		next.Status = advance(prev.Status, status.Processing)
		if e.Message != "" {
			next.Message = e.Message
		}
		next.Progress = resolveProgress(prev.Progress, e.Progress, prev.Progress)

	case StepCompletedEvent:
		next.Progress = resolveProgress(prev.Progress, e.Progress, 100)

	case CompletedEvent:
		next.Status = status.Completed
		next.Progress = 100
		next.Output = e.Output
		outcome = OutcomeCompleted

	case FailedEvent:
		next.Status = status.Failed
		next.Error = e.Error
		if next.Error == "" {
			next.Error = DefaultFailureMessage
		}
		outcome = OutcomeFailed

	default:
		// heartbeat and unknown types do not touch the model
		return prev, OutcomeNone
	}

	return next, outcome
}

// advance returns to if the lifecycle may move there from from, otherwise from.
func advance(from, to status.Progress) status.Progress {
	if status.CanAdvance(from, to) {
		return to
	}
	return from
}

// resolveProgress picks the reported value or the fallback, then clamps it
// into 0-100 and to no less than prev.
func resolveProgress(prev int, reported *int, fallback int) int {
	v := fallback
	if reported != nil {
		v = *reported
	}
	v = max(0, min(100, v))
	return max(prev, v)
}
