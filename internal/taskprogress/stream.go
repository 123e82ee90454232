package taskprogress

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/funmagic/taskwatch/internal/sse"
)

type streamKind int

const (
	// streamResolved: a terminal event was applied.
	streamResolved streamKind = iota
	// streamInterrupted: the stream could not be opened, failed or ended early.
	streamInterrupted
	// streamStale: no frame arrived within the heartbeat timeout.
	streamStale
	// streamCancelled: the binding ended.
	streamCancelled
)

func (k streamKind) String() string {
	switch k {
	case streamResolved:
		return "resolved"
	case streamInterrupted:
		return "interrupted"
	case streamStale:
		return "stale"
	case streamCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type streamResult struct {
	kind streamKind
	err  error
}

// errStreamEnded is reported when the server closes the stream before a
// terminal event.
var errStreamEnded = errors.New("stream ended before the task finished")

const readBufferSize = 4096

// consume opens the task stream and applies its events until the stream
// resolves the task, breaks, goes stale or the session is cancelled.
//
// A reader goroutine only forwards raw chunks; the decoder, the heartbeat
// timer and the resume cursor stay on the session goroutine.
func (s *session) consume() (res streamResult) {
	ctx, span := s.t.tracer.Start(s.ctx, "taskprogress.stream", trace.WithAttributes(
		attribute.String("task.id", s.taskID),
		attribute.Int("reconnect.attempts", s.attempts),
		attribute.Bool("stream.resumed", s.lastEventID != ""),
	))
	defer func() {
		span.SetAttributes(attribute.String("stream.result", res.kind.String()))
		if res.err != nil {
			span.RecordError(res.err)
			span.SetStatus(codes.Error, res.err.Error())
		}
		span.End()
	}()

	connCtx, cancelConn := context.WithCancel(ctx)
	defer cancelConn()

	body, err := s.t.source.OpenTaskStream(connCtx, s.taskID, s.lastEventID)
	if err != nil {
		if s.ctx.Err() != nil {
			return streamResult{kind: streamCancelled}
		}
		return streamResult{kind: streamInterrupted, err: err}
	}
	// Cancelling connCtx is not enough for bodies that ignore it; closing
	// unblocks the reader goroutine's Read.
	defer body.Close()

	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	go readChunks(connCtx, body, chunks, readErr)

	dec := sse.NewDecoder()
	heartbeat := time.NewTimer(s.heartbeatTimeout)
	defer heartbeat.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return streamResult{kind: streamCancelled}

		case <-heartbeat.C:
			if s.attempts < s.maxAttempts {
				s.attempts++
				s.log.Warn("task stream stale, reconnecting", "attempt", s.attempts, "timeout", s.heartbeatTimeout)
				return streamResult{kind: streamStale}
			}
			// Not re-armed: from here only data, EOF or cancellation ends
			// the stream.
			s.log.Warn("task stream stale with no reconnects left", "attempts", s.attempts)

		case chunk := <-chunks:
			for _, frame := range dec.Feed(chunk) {
				parsed, terminal := s.handleFrame(frame, false)
				if parsed {
					heartbeat.Reset(s.heartbeatTimeout)
				}
				if terminal {
					return streamResult{kind: streamResolved}
				}
			}

		case err := <-readErr:
			for _, frame := range dec.Drain() {
				if _, terminal := s.handleFrame(frame, true); terminal {
					return streamResult{kind: streamResolved}
				}
			}
			if s.ctx.Err() != nil {
				return streamResult{kind: streamCancelled}
			}
			if errors.Is(err, io.EOF) {
				err = errStreamEnded
			}
			return streamResult{kind: streamInterrupted, err: err}
		}
	}
}

// handleFrame parses one frame and applies its event.
//
// Parameters:
//   - frame: A complete SSE frame
//   - draining: True for frames recovered after the transport failed
//
// Returns:
//   - bool: True if the frame parsed
//   - bool: True if its event ends the task
func (s *session) handleFrame(frame sse.Frame, draining bool) (bool, bool) {
	payload := []byte(frame.Data)
	ev, err := ParseEvent(payload)
	if err != nil {
		if draining {
			s.log.Debug("dropping partial event", "error", err)
		} else {
			s.log.Warn("failed to parse task event", "error", err)
		}
		return false, false
	}

	if frame.ID != "" {
		s.lastEventID = frame.ID
	}
	if cursor := streamCursor(payload); cursor != "" {
		s.lastEventID = cursor
	}

	s.t.apply(s, ev)
	return true, isTerminalEvent(ev)
}

// readChunks copies body into chunks until it fails, then reports the error.
// The caller closes body.
func readChunks(ctx context.Context, body io.Reader, chunks chan<- []byte, errs chan<- error) {
	buf := make([]byte, readBufferSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errs <- err
			return
		}
	}
}
