package taskprogress

import (
	"errors"
	"reflect"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Event
	}{
		{"connected", `{"type":"connected"}`, ConnectedEvent{}},
		{"heartbeat", `{"type":"heartbeat","ts":1}`, HeartbeatEvent{}},
		{
			name:    "step started top level",
			payload: `{"type":"step_started","stepName":"render","message":"Rendering","progress":12.6}`,
			want:    StepStartedEvent{Step: "render", Message: "Rendering", Progress: intPtr(13)},
		},
		{
			name:    "step started nested data",
			payload: `{"type":"step_started","data":{"stepId":"s1","message":"Queued","progress":0}}`,
			want:    StepStartedEvent{Step: "s1", Message: "Queued", Progress: intPtr(0)},
		},
		{
			name:    "step name beats step id",
			payload: `{"type":"step_started","stepId":"s1","data":{"stepName":"upscale"}}`,
			want:    StepStartedEvent{Step: "upscale"},
		},
		{
			name:    "progress without value",
			payload: `{"type":"progress","message":"working"}`,
			want:    ProgressEvent{Message: "working"},
		},
		{
			name:    "progress string value ignored",
			payload: `{"type":"progress","progress":"50"}`,
			want:    ProgressEvent{},
		},
		{
			name:    "step completed",
			payload: `{"type":"step_completed","data":{"progress":80}}`,
			want:    StepCompletedEvent{Progress: intPtr(80)},
		},
		{
			name:    "completed with nested output",
			payload: `{"type":"completed","data":{"output":{"images":["a"]}}}`,
			want:    CompletedEvent{Output: []byte(`{"images":["a"]}`)},
		},
		{
			name:    "completed without output",
			payload: `{"type":"completed"}`,
			want:    CompletedEvent{Output: []byte(`null`)},
		},
		{
			name:    "failed error field",
			payload: `{"type":"failed","error":"out of credits","message":"ignored"}`,
			want:    FailedEvent{Error: "out of credits"},
		},
		{
			name:    "failed falls back to message",
			payload: `{"type":"failed","data":{"message":"worker crashed"}}`,
			want:    FailedEvent{Error: "worker crashed"},
		},
		{
			name:    "failed error object skipped",
			payload: `{"type":"failed","error":{"code":"X"}}`,
			want:    FailedEvent{Error: DefaultFailureMessage},
		},
		{"unknown type", `{"type":"thumbnail_ready"}`, UnknownEvent{Name: "thumbnail_ready"}},
		{"missing type", `{"progress":5}`, UnknownEvent{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent([]byte(tt.payload))
			if err != nil {
				t.Fatalf("ParseEvent() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseEvent() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestParseEventInvalid(t *testing.T) {
	for _, payload := range []string{``, `not json`, `{"type":`, `[1,2]`, `"completed"`} {
		t.Run(payload, func(t *testing.T) {
			if _, err := ParseEvent([]byte(payload)); !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("ParseEvent(%q) error = %v, want ErrInvalidEvent", payload, err)
			}
		})
	}
}

func TestStreamCursor(t *testing.T) {
	if got := streamCursor([]byte(`{"type":"progress","streamId":"1700000000000-0"}`)); got != "1700000000000-0" {
		t.Errorf("streamCursor() = %q", got)
	}
	if got := streamCursor([]byte(`{"type":"progress"}`)); got != "" {
		t.Errorf("streamCursor() = %q, want empty", got)
	}
}
