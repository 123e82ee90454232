package taskprogress

import (
	"encoding/json"
	"errors"
	"math"

	"github.com/tidwall/gjson"
)

// Event type discriminators as sent in the "type" field.
const (
	TypeConnected     = "connected"
	TypeStepStarted   = "step_started"
	TypeProgress      = "progress"
	TypeStepCompleted = "step_completed"
	TypeCompleted     = "completed"
	TypeFailed        = "failed"
	TypeHeartbeat     = "heartbeat"
)

// DefaultFailureMessage is used when a failed event carries no reason.
const DefaultFailureMessage = "Task failed"

// ErrInvalidEvent is returned by ParseEvent for payloads that are not a JSON object.
var ErrInvalidEvent = errors.New("event payload is not a JSON object")

// Event is one server event, already resolved into its typed variant.
// The concrete types are the *Event structs in this file.
type Event interface {
	// Type returns the wire discriminator.
	Type() string
}

// ConnectedEvent acknowledges the stream subscription.
type ConnectedEvent struct{}

// StepStartedEvent announces a new sub-step.
type StepStartedEvent struct {
	Step     string
	Message  string
	Progress *int
}

// ProgressEvent reports progress inside the current step.
type ProgressEvent struct {
	Message  string
	Progress *int
}

// StepCompletedEvent closes a sub-step.
type StepCompletedEvent struct {
	Progress *int
}

// CompletedEvent is terminal and carries the task output.
type CompletedEvent struct {
	Output json.RawMessage
}

// FailedEvent is terminal and carries the failure reason.
type FailedEvent struct {
	Error string
}

// HeartbeatEvent only proves the stream is alive.
type HeartbeatEvent struct{}

// UnknownEvent is any event type this client does not handle.
type UnknownEvent struct {
	Name string
}

func (ConnectedEvent) Type() string     { return TypeConnected }
func (StepStartedEvent) Type() string   { return TypeStepStarted }
func (ProgressEvent) Type() string      { return TypeProgress }
func (StepCompletedEvent) Type() string { return TypeStepCompleted }
func (CompletedEvent) Type() string     { return TypeCompleted }
func (FailedEvent) Type() string        { return TypeFailed }
func (HeartbeatEvent) Type() string     { return TypeHeartbeat }
func (e UnknownEvent) Type() string     { return e.Name }

// isTerminalEvent reports whether ev ends the task.
func isTerminalEvent(ev Event) bool {
	switch ev.(type) {
	case CompletedEvent, FailedEvent:
		return true
	}
	return false
}

// Field lookup order. Workers put fields at the top level; older publishers
// nest them under "data". Top level always wins.
var (
	stepPaths     = []string{"stepName", "data.stepName", "stepId", "data.stepId"}
	messagePaths  = []string{"message", "data.message"}
	progressPaths = []string{"progress", "data.progress"}
	outputPaths   = []string{"output", "data.output"}
	errorPaths    = []string{"error", "data.error", "message", "data.message"}
)

// ParseEvent decodes one frame payload into its typed variant.
//
// Parameters:
//   - payload: The JSON text of a data: field
//
// Returns:
//   - Event: The typed event; unhandled types come back as UnknownEvent
//   - error: ErrInvalidEvent if the payload is not a JSON object
func ParseEvent(payload []byte) (Event, error) {
	if !gjson.ValidBytes(payload) {
		return nil, ErrInvalidEvent
	}
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil, ErrInvalidEvent
	}

	switch name := root.Get("type").String(); name {
	case TypeConnected:
		return ConnectedEvent{}, nil
	case TypeStepStarted:
		return StepStartedEvent{
			Step:     firstString(root, stepPaths),
			Message:  firstString(root, messagePaths),
			Progress: firstNumber(root, progressPaths),
		}, nil
	case TypeProgress:
		return ProgressEvent{
			Message:  firstString(root, messagePaths),
			Progress: firstNumber(root, progressPaths),
		}, nil
	case TypeStepCompleted:
		return StepCompletedEvent{Progress: firstNumber(root, progressPaths)}, nil
	case TypeCompleted:
		return CompletedEvent{Output: firstRaw(root, outputPaths)}, nil
	case TypeFailed:
		msg := firstString(root, errorPaths)
		if msg == "" {
			msg = DefaultFailureMessage
		}
		return FailedEvent{Error: msg}, nil
	case TypeHeartbeat:
		return HeartbeatEvent{}, nil
	default:
		return UnknownEvent{Name: name}, nil
	}
}

// streamCursor returns the replay cursor the backend stamps on relayed events.
func streamCursor(payload []byte) string {
	return gjson.GetBytes(payload, "streamId").String()
}

// firstString returns the first non-empty string found along paths.
// Non-string values are skipped so an error object is never stringified.
func firstString(root gjson.Result, paths []string) string {
	for _, p := range paths {
		if v := root.Get(p); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// firstNumber returns the first numeric value found along paths. Zero counts
// as present.
func firstNumber(root gjson.Result, paths []string) *int {
	for _, p := range paths {
		if v := root.Get(p); v.Type == gjson.Number {
			n := int(math.Round(v.Num))
			return &n
		}
	}
	return nil
}

// firstRaw returns the raw JSON of the first present, non-null value along
// paths, or JSON null.
func firstRaw(root gjson.Result, paths []string) json.RawMessage {
	for _, p := range paths {
		if v := root.Get(p); v.Exists() && v.Type != gjson.Null {
			return json.RawMessage(v.Raw)
		}
	}
	return json.RawMessage("null")
}
