// Package status provides shared status constants and helpers for task progress.
//
// This package centralizes all status-related logic so the tracker, the API
// client and the terminal views agree on what a status string means. It mirrors
// the backend task status column plus the two client-only connection states.
package status

import "strings"

// Progress represents the lifecycle stage of a tracked task as seen by the client.
type Progress string

const (
	// Connecting indicates the client bound the task and has not heard from the server yet.
	Connecting Progress = "connecting"

	// Connected indicates the event stream acknowledged the subscription.
	Connected Progress = "connected"

	// Pending indicates the task row exists but has not been picked up.
	Pending Progress = "pending"

	// Queued indicates the task is waiting for a worker.
	Queued Progress = "queued"

	// Processing indicates a worker is executing the task.
	Processing Progress = "processing"

	// Completed indicates the task finished and produced output.
	Completed Progress = "completed"

	// Failed indicates the task ended with an error.
	Failed Progress = "failed"
)

// Phase orders statuses so transitions can only move forward.
type Phase int

const (
	// PhaseUnknown is the phase of an unrecognized status.
	PhaseUnknown Phase = iota - 1

	// PhaseConnecting covers connecting and connected.
	PhaseConnecting

	// PhaseActive covers pending, queued and processing.
	PhaseActive

	// PhaseTerminal covers completed and failed.
	PhaseTerminal
)

var phases = map[Progress]Phase{
	Connecting: PhaseConnecting,
	Connected:  PhaseConnecting,
	Pending:    PhaseActive,
	Queued:     PhaseActive,
	Processing: PhaseActive,
	Completed:  PhaseTerminal,
	Failed:     PhaseTerminal,
}

// PhaseOf returns the phase of a status string (case-insensitive).
//
// Parameters:
//   - s: The status string to classify
//
// Returns:
//   - Phase: The phase, or PhaseUnknown if the status is not recognized
func PhaseOf(s string) Phase {
	if p, ok := phases[Progress(strings.ToLower(s))]; ok {
		return p
	}
	return PhaseUnknown
}

// CanAdvance reports whether moving from one status to another keeps the
// lifecycle moving forward. Moves within a phase are allowed, terminal
// statuses never move, and unknown targets are rejected.
func CanAdvance(from, to Progress) bool {
	fromPhase, toPhase := PhaseOf(string(from)), PhaseOf(string(to))
	if toPhase == PhaseUnknown || fromPhase == PhaseTerminal {
		return false
	}
	return toPhase >= fromPhase
}

// IsTerminal checks if a status string indicates the task has ended.
//
// Parameters:
//   - s: The status string to check (case-insensitive)
//
// Returns:
//   - bool: True if the status is completed or failed
func IsTerminal(s string) bool {
	return PhaseOf(s) == PhaseTerminal
}

// IsActive checks if a status string indicates the task is still running server side.
//
// Parameters:
//   - s: The status string to check (case-insensitive)
//
// Returns:
//   - bool: True if the status is pending, queued or processing
func IsActive(s string) bool {
	return PhaseOf(s) == PhaseActive
}

// StatusIcon returns the appropriate icon for a status.
//
// Icons:
//   - connecting/connected: ◌ (dotted circle)
//   - pending/queued: ⏳ (hourglass)
//   - processing: ▶ (play)
//   - completed: ✓ (checkmark)
//   - failed: ✗ (x mark)
//   - unknown: ● (bullet)
//
// Parameters:
//   - s: The status string
//
// Returns:
//   - string: The icon character for the status
func StatusIcon(s string) string {
	switch Progress(strings.ToLower(s)) {
	case Connecting, Connected:
		return "◌"
	case Pending, Queued:
		return "⏳"
	case Processing:
		return "▶"
	case Completed:
		return "✓"
	case Failed:
		return "✗"
	default:
		return "●"
	}
}

// StatusCategory returns the category of a status for styling purposes.
//
// Categories:
//   - "dim": connecting, connected, pending, queued, unknown
//   - "info": processing
//   - "success": completed
//   - "error": failed
//
// Parameters:
//   - s: The status string
//
// Returns:
//   - string: The category name for styling
func StatusCategory(s string) string {
	switch Progress(strings.ToLower(s)) {
	case Processing:
		return "info"
	case Completed:
		return "success"
	case Failed:
		return "error"
	default:
		return "dim"
	}
}
