package taskprogress

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// session is the per-binding arena: everything that belongs to one bound
// task id. Only the session goroutine touches attempts and lastEventID.
type session struct {
	t      *Tracker
	taskID string
	log    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	heartbeatTimeout time.Duration
	maxAttempts      int
	backoffBase      time.Duration

	// attempts counts reconnects for this task id. It is never reset.
	attempts int

	// lastEventID is the resume cursor sent on the next stream request.
	lastEventID string
}

func newSession(t *Tracker, taskID string) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		t:                t,
		taskID:           taskID,
		log:              t.log.With("task", taskID),
		ctx:              ctx,
		cancel:           cancel,
		heartbeatTimeout: t.opts.heartbeatTimeout,
		maxAttempts:      t.opts.maxAttempts,
		backoffBase:      t.opts.backoffBase,
	}
}

// run drives the session until the task is terminal or the binding ends.
//
// Connecting probes the REST endpoint first, then opens the stream. A stale
// stream reconnects at once through Connecting. A broken stream goes through
// recovery: probe, then back off and reconnect while attempts remain, and
// finally report the connection as lost.
func (s *session) run() {
	defer s.t.wg.Done()
	defer s.cancel()

	preflight := true
	for {
		if preflight && s.probe("preflight") {
			return
		}
		if s.ctx.Err() != nil {
			return
		}

		switch res := s.consume(); res.kind {
		case streamResolved, streamCancelled:
			return
		case streamStale:
			preflight = true
			continue
		case streamInterrupted:
			s.log.Debug("stream interrupted", "attempt", s.attempts, "error", res.err)
		}

		if s.probe("recovery") || s.ctx.Err() != nil {
			return
		}

		if s.attempts >= s.maxAttempts {
			if s.probe("final") || s.ctx.Err() != nil {
				return
			}
			s.log.Warn("giving up on task stream", "attempts", s.attempts)
			s.t.apply(s, FailedEvent{Error: ConnectionLostMessage})
			return
		}

		s.attempts++
		delay := time.Duration(s.attempts) * s.backoffBase
		s.log.Debug("reconnecting", "attempt", s.attempts, "delay", delay)
		if !s.sleep(delay) {
			return
		}
		preflight = false
	}
}

// sleep waits for d or until the session is cancelled.
//
// Returns:
//   - bool: False if the session was cancelled
func (s *session) sleep(d time.Duration) bool {
	if d <= 0 {
		return s.ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}
