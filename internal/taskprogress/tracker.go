package taskprogress

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/funmagic/taskwatch/internal/api"
	"github.com/funmagic/taskwatch/internal/config"
)

// ConnectionLostMessage is the failure reason once the reconnect budget is spent.
const ConnectionLostMessage = "Connection lost"

const tracerName = "github.com/funmagic/taskwatch/internal/taskprogress"

// TaskSource is the server the tracker talks to. *api.Client implements it.
type TaskSource interface {
	// GetTask returns the current REST view of a task.
	GetTask(ctx context.Context, taskID string) (*api.Task, error)

	// OpenTaskStream opens the task's event stream, resuming after
	// lastEventID when it is non-empty.
	OpenTaskStream(ctx context.Context, taskID, lastEventID string) (io.ReadCloser, error)
}

// options holds Tracker configuration.
type options struct {
	onComplete       func(output json.RawMessage)
	onFailed         func(reason string)
	onProgress       func(ProgressStatus)
	heartbeatTimeout time.Duration
	maxAttempts      int
	backoffBase      time.Duration
	logger           *log.Logger
	tracer           trace.Tracer
}

// Option configures a Tracker.
type Option func(*options)

// WithOnComplete registers the completion callback. It runs once per task.
func WithOnComplete(fn func(output json.RawMessage)) Option {
	return func(o *options) { o.onComplete = fn }
}

// WithOnFailed registers the failure callback. It runs once per task, for
// server-reported failures and for a lost connection alike.
func WithOnFailed(fn func(reason string)) Option {
	return func(o *options) { o.onFailed = fn }
}

// WithOnProgress registers a callback for every non-terminal status change.
func WithOnProgress(fn func(ProgressStatus)) Option {
	return func(o *options) { o.onProgress = fn }
}

// WithHeartbeatTimeout sets how long a stream may stay silent before the
// tracker reconnects.
func WithHeartbeatTimeout(d time.Duration) Option {
	return func(o *options) { o.heartbeatTimeout = d }
}

// WithMaxReconnectAttempts bounds reconnects per bound task id. Silent and
// dropped streams draw from the same budget, and binding a new id resets it.
//
// Once the budget is spent the heartbeat no longer ends a silent stream: a
// half-open connection keeps the session waiting until data arrives, the
// server closes it, or the caller cancels (Close, Unbind or a context
// deadline such as watch --timeout).
func WithMaxReconnectAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

// WithBackoffBase sets the unit of the linear backoff between reconnects.
func WithBackoffBase(d time.Duration) Option {
	return func(o *options) { o.backoffBase = d }
}

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTracer sets the tracer used for probe and stream spans.
func WithTracer(tr trace.Tracer) Option {
	return func(o *options) { o.tracer = tr }
}

// WithSettings applies the stream section of the user settings.
func WithSettings(s config.StreamSettings) Option {
	return func(o *options) {
		o.heartbeatTimeout = s.HeartbeatTimeout
		o.maxAttempts = s.MaxReconnectAttempts
		o.backoffBase = s.BackoffBase
	}
}

// Tracker follows one task at a time.
//
// It is safe for concurrent use. Callbacks run on the tracker's worker
// goroutine and may call Bind; subscribers must not call Bind, Disconnect
// or Close.
type Tracker struct {
	source TaskSource
	opts   options
	log    *log.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	boundID string
	current *session
	closed  bool

	status *Subject[*ProgressStatus]
	wg     sync.WaitGroup
}

// New creates a tracker with nothing bound.
//
// Parameters:
//   - source: The task API
//   - opts: Callbacks and tuning
//
// Returns:
//   - *Tracker: An idle tracker
func New(source TaskSource, opts ...Option) *Tracker {
	o := options{
		heartbeatTimeout: config.DefaultHeartbeatTimeout,
		maxAttempts:      config.DefaultMaxReconnectAttempts,
		backoffBase:      config.DefaultBackoffBase,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}
	if o.heartbeatTimeout <= 0 {
		o.heartbeatTimeout = config.DefaultHeartbeatTimeout
	}
	if o.maxAttempts < 0 {
		o.maxAttempts = 0
	}

	return &Tracker{
		source: source,
		opts:   o,
		log:    o.logger,
		tracer: o.tracer,
		status: NewSubject[*ProgressStatus](nil),
	}
}

// Bind starts tracking taskID.
//
// Binding the id that is already bound does nothing. Any other id cancels
// the previous task's work and starts over with a fresh status; the empty
// id clears the status.
func (t *Tracker) Bind(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || taskID == t.boundID {
		return
	}

	t.stopLocked()
	t.boundID = taskID

	if taskID == "" {
		t.status.Set(nil)
		return
	}

	s := newSession(t, taskID)
	t.current = s
	initial := newProgressStatus(taskID)
	t.status.Set(&initial)

	t.wg.Add(1)
	go s.run()
}

// BindFrom binds every id received from ids until ids is closed or ctx
// ends. When ctx ends the tracker is closed.
func (t *Tracker) BindFrom(ctx context.Context, ids <-chan string) {
	for {
		select {
		case <-ctx.Done():
			t.Close()
			return
		case id, ok := <-ids:
			if !ok {
				return
			}
			t.Bind(id)
		}
	}
}

// Status returns a copy of the current status.
//
// Returns:
//   - ProgressStatus: The current status
//   - bool: False when nothing is bound
func (t *Tracker) Status() (ProgressStatus, bool) {
	p := t.status.Get()
	if p == nil {
		return ProgressStatus{}, false
	}
	return p.clone(), true
}

// Subscribe calls fn with the current status and again after every change.
// A nil argument means nothing is bound. fn must treat the value as read-only.
//
// Returns:
//   - func(): Unsubscribe
func (t *Tracker) Subscribe(fn func(*ProgressStatus)) func() {
	return t.status.Subscribe(fn)
}

// Disconnect releases the active task's connections and timers early. The
// last status stays readable, and binding the same id again starts over.
func (t *Tracker) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.boundID = ""
}

// Close tears the tracker down. In-flight work is cancelled and later
// binds are ignored.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.stopLocked()
}

// Wait blocks until every session goroutine has exited.
// It must not be called from a callback.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// stopLocked cancels the current session. Caller holds t.mu.
func (t *Tracker) stopLocked() {
	if t.current != nil {
		t.current.cancel()
		t.current = nil
	}
}

// apply folds ev into the status on behalf of s.
//
// Results from a session that was superseded or cancelled are dropped,
// which is what keeps a slow probe or read for an old task id from
// touching the new task's status.
//
// Returns:
//   - bool: True if ev was applied (even if it changed nothing)
func (t *Tracker) apply(s *session, ev Event) bool {
	t.mu.Lock()
	if t.current != s || s.ctx.Err() != nil {
		t.mu.Unlock()
		return false
	}
	prev := t.status.Get()
	if prev == nil || prev.IsTerminal() {
		t.mu.Unlock()
		return false
	}

	next, outcome := Normalize(*prev, ev)
	changed := !sameStatus(*prev, next)
	if changed {
		t.status.Set(&next)
	}
	t.mu.Unlock()

	switch outcome {
	case OutcomeCompleted:
		if t.opts.onComplete != nil {
			t.opts.onComplete(append(json.RawMessage(nil), next.Output...))
		}
	case OutcomeFailed:
		if t.opts.onFailed != nil {
			t.opts.onFailed(next.Error)
		}
	default:
		if changed && t.opts.onProgress != nil {
			t.opts.onProgress(next.clone())
		}
	}
	return true
}

// sameStatus reports whether two statuses are indistinguishable to callers.
func sameStatus(a, b ProgressStatus) bool {
	return a.TaskID == b.TaskID &&
		a.Status == b.Status &&
		a.Progress == b.Progress &&
		a.CurrentStep == b.CurrentStep &&
		a.Message == b.Message &&
		a.Error == b.Error &&
		string(a.Output) == string(b.Output)
}
