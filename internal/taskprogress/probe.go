package taskprogress

import (
	"strings"

	"github.com/tidwall/sjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/funmagic/taskwatch/internal/api"
	"github.com/funmagic/taskwatch/internal/status"
)

// probe asks the REST endpoint whether the task already ended.
//
// A terminal answer is turned into the matching event and applied, so the
// stream path and the probe path share one set of transition rules. Any
// error is treated as "not terminal".
//
// Parameters:
//   - reason: Why the probe runs (preflight, recovery, final); for logs and spans
//
// Returns:
//   - bool: True if the task is terminal on the server
func (s *session) probe(reason string) bool {
	ctx, span := s.t.tracer.Start(s.ctx, "taskprogress.probe", trace.WithAttributes(
		attribute.String("task.id", s.taskID),
		attribute.String("probe.reason", reason),
		attribute.Int("reconnect.attempts", s.attempts),
	))
	defer span.End()

	task, err := s.t.source.GetTask(ctx, s.taskID)
	if err != nil {
		if s.ctx.Err() == nil {
			s.log.Debug("task probe failed", "reason", reason, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return false
	}
	span.SetAttributes(attribute.String("task.status", task.Status))

	payload, ok := terminalEventPayload(task)
	if !ok {
		return false
	}
	ev, err := ParseEvent(payload)
	if err != nil {
		s.log.Debug("unusable task probe result", "error", err)
		return false
	}

	s.log.Debug("task already finished", "reason", reason, "status", task.Status)
	s.t.apply(s, ev)
	return true
}

// terminalEventPayload renders a terminal REST task as the stream event
// that would have reported it.
//
// Returns:
//   - []byte: Event JSON
//   - bool: False if the task is not terminal
func terminalEventPayload(task *api.Task) ([]byte, bool) {
	var (
		raw []byte
		err error
	)
	switch status.Progress(strings.ToLower(task.Status)) {
	case status.Completed:
		output := []byte("null")
		if task.Payload != nil && len(task.Payload.Output) > 0 {
			output = task.Payload.Output
		}
		raw, err = sjson.SetBytes([]byte(`{}`), "type", TypeCompleted)
		if err == nil {
			raw, err = sjson.SetRawBytes(raw, "output", output)
		}
	case status.Failed:
		msg := DefaultFailureMessage
		if task.Payload != nil && task.Payload.Error != "" {
			msg = task.Payload.Error
		}
		raw, err = sjson.SetBytes([]byte(`{}`), "type", TypeFailed)
		if err == nil {
			raw, err = sjson.SetBytes(raw, "error", msg)
		}
	default:
		return nil, false
	}
	if err != nil {
		return nil, false
	}
	return raw, true
}
