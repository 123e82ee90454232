// Package taskprogress tracks a long-running server-side task through its
// live event stream.
//
// A Tracker binds one task id at a time. For each binding it runs a session
// that probes the REST task endpoint, streams the task's server-sent events,
// folds every event into a ProgressStatus and reconnects under a bounded
// budget when the stream breaks. Callers observe the status through
// Subscribe or Status and get exactly one completion or failure callback per
// task.
package taskprogress

import (
	"encoding/json"

	"github.com/funmagic/taskwatch/internal/status"
)

// ProgressStatus is the client-side view of one task's progress.
type ProgressStatus struct {
	// TaskID identifies the tracked task. It never changes for a given value.
	TaskID string `json:"taskId"`

	// Status is the current lifecycle stage.
	Status status.Progress `json:"status"`

	// Progress is the completion percentage, 0-100.
	Progress int `json:"progress"`

	// CurrentStep names the active sub-step, if the server reported one.
	CurrentStep string `json:"currentStep,omitempty"`

	// Message is the latest free-text status message.
	Message string `json:"message,omitempty"`

	// Output is the task result. Set only when Status is completed.
	Output json.RawMessage `json:"output,omitempty"`

	// Error is the failure reason. Set only when Status is failed.
	Error string `json:"error,omitempty"`
}

// newProgressStatus returns the initial status of a fresh binding.
func newProgressStatus(taskID string) ProgressStatus {
	return ProgressStatus{TaskID: taskID, Status: status.Connecting}
}

// IsConnecting reports whether the client has not heard from the server yet.
func (p ProgressStatus) IsConnecting() bool { return p.Status == status.Connecting }

// IsProcessing reports whether the task is queued or running.
func (p ProgressStatus) IsProcessing() bool {
	return p.Status == status.Processing || p.Status == status.Queued
}

// IsCompleted reports whether the task finished successfully.
func (p ProgressStatus) IsCompleted() bool { return p.Status == status.Completed }

// IsFailed reports whether the task failed or the connection was lost for good.
func (p ProgressStatus) IsFailed() bool { return p.Status == status.Failed }

// IsTerminal reports whether no further changes will happen.
func (p ProgressStatus) IsTerminal() bool { return status.IsTerminal(string(p.Status)) }

// clone returns a copy that shares no mutable memory with p.
func (p ProgressStatus) clone() ProgressStatus {
	if p.Output != nil {
		p.Output = append(json.RawMessage(nil), p.Output...)
	}
	return p
}
