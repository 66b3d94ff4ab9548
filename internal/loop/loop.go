package loop

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/thruflo/keysweep/internal/control"
	"github.com/thruflo/keysweep/internal/field"
	"github.com/thruflo/keysweep/internal/logging"
	"github.com/thruflo/keysweep/internal/session"
)

// Defaults for Options fields left at zero.
const (
	DefaultMaxAttempts = 500000
	DefaultInterval    = 50 * time.Millisecond
	DefaultPausePoll   = 100 * time.Millisecond
)

// ErrAlreadyRun is returned when Run is called a second time on a Loop.
var ErrAlreadyRun = errors.New("loop already run")

// ExitReason indicates why the loop stopped.
type ExitReason int

const (
	ExitReasonUnknown      ExitReason = iota
	ExitReasonCompleted               // Keyspace exhausted
	ExitReasonMaxAttempts             // Hit attempt limit for this run
	ExitReasonFieldMissing            // Target field disappeared
	ExitReasonUserStop                // Operator stopped the run
	ExitReasonCanceled                // Cancel() or context canceled
)

// String returns a human-readable description of the exit reason.
func (r ExitReason) String() string {
	switch r {
	case ExitReasonCompleted:
		return "completed"
	case ExitReasonMaxAttempts:
		return "max attempts"
	case ExitReasonFieldMissing:
		return "field missing"
	case ExitReasonUserStop:
		return "user stopped"
	case ExitReasonCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Finished reports whether the reason counts as natural completion.
func (r ExitReason) Finished() bool {
	return r == ExitReasonCompleted || r == ExitReasonMaxAttempts
}

// Result contains the outcome of a loop execution.
type Result struct {
	RunID    string
	Reason   ExitReason
	Attempts int
	Cursor   int
	Error    error
}

// Options holds configuration for creating a Loop.
type Options struct {
	Progress    *session.Progress
	Control     *control.Machine
	Interactor  *field.Interactor
	MaxAttempts int           // Zero means DefaultMaxAttempts
	Interval    time.Duration // Negative disables the inter-attempt delay
	PausePoll   time.Duration // Zero means DefaultPausePoll
	Sink        StatusSink    // Optional
	Logger      *logging.Logger
}

// Loop drives one run over the keyspace.
type Loop struct {
	id          string
	progress    *session.Progress
	ctl         *control.Machine
	interactor  *field.Interactor
	maxAttempts int
	interval    time.Duration
	pausePoll   time.Duration
	sink        StatusSink
	log         *logging.Logger

	attempts int
	last     string
	outcome  field.Outcome

	started    atomic.Bool
	cancelCh   chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
}

// NewLoop creates a Loop. Zero-valued limits fall back to the defaults.
func NewLoop(opts Options) *Loop {
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	pausePoll := opts.PausePoll
	if pausePoll <= 0 {
		pausePoll = DefaultPausePoll
	}
	sink := opts.Sink
	if sink == nil {
		sink = StatusFunc(func(Status) {})
	}

	id := uuid.NewString()
	log := opts.Logger
	if log == nil {
		log = logging.Default()
	}

	return &Loop{
		id:          id,
		progress:    opts.Progress,
		ctl:         opts.Control,
		interactor:  opts.Interactor,
		maxAttempts: maxAttempts,
		interval:    interval,
		pausePoll:   pausePoll,
		sink:        sink,
		log:         log.With("run", id[:8]),
		cancelCh:    make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// ID returns the run id.
func (l *Loop) ID() string {
	return l.id
}

// Cancel asks the loop to exit at its next check. An attempt already in
// progress runs to completion first. Safe to call more than once.
func (l *Loop) Cancel() {
	l.cancelOnce.Do(func() { close(l.cancelCh) })
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes the loop until an exit condition is met.
// It may only be called once.
func (l *Loop) Run(ctx context.Context) Result {
	if !l.started.CompareAndSwap(false, true) {
		return Result{RunID: l.id, Error: ErrAlreadyRun}
	}
	defer close(l.done)

	l.log.Info("loop started", "cursor", l.progress.Cursor(), "total", l.progress.Len())
	result := l.run(ctx)
	result.RunID = l.id
	result.Attempts = l.attempts
	result.Cursor = l.progress.Cursor()

	switch {
	case result.Reason.Finished():
		l.ctl.NotifyOnce(control.MessageFinished)
	case result.Reason == ExitReasonFieldMissing:
		l.ctl.NotifyOnce(control.MessageFieldMissing)
	}

	l.publish(true, result.Reason)
	l.log.Info("loop exited",
		"reason", result.Reason.String(),
		"attempts", result.Attempts,
		"cursor", result.Cursor,
	)
	return result
}

func (l *Loop) run(ctx context.Context) Result {
	for {
		if l.canceled(ctx) {
			return Result{Reason: ExitReasonCanceled}
		}

		switch {
		case l.ctl.Mode() == control.ModeStopped:
			return Result{Reason: ExitReasonUserStop}
		case l.attempts >= l.maxAttempts:
			return Result{Reason: ExitReasonMaxAttempts}
		case l.progress.Remaining() == 0:
			return Result{Reason: ExitReasonCompleted}
		}

		if l.ctl.Mode() == control.ModePaused {
			if !l.wait(ctx, l.pausePoll) {
				return Result{Reason: ExitReasonCanceled}
			}
			continue
		}

		// The attempt itself is not interruptible.
		actx := context.WithoutCancel(ctx)

		f, err := l.interactor.LocateField(actx)
		if err != nil {
			l.log.Error("target field missing", "error", err)
			return Result{Reason: ExitReasonFieldMissing, Error: err}
		}

		value, err := l.progress.Next()
		if errors.Is(err, session.ErrExhausted) {
			return Result{Reason: ExitReasonCompleted}
		}
		if err != nil {
			return Result{Reason: ExitReasonUnknown, Error: err}
		}

		l.attempt(actx, f, value)

		if !l.wait(ctx, l.interval) {
			return Result{Reason: ExitReasonCanceled}
		}
	}
}

// attempt writes value and tries to submit it. Interaction failures are
// logged and never retried.
func (l *Loop) attempt(ctx context.Context, f field.Field, value int) {
	l.attempts++
	l.last = strconv.Itoa(value)

	if err := l.interactor.WriteValue(ctx, f, l.last); err != nil {
		l.log.Warn("write value failed", "value", l.last, "error", err)
	}
	ctl := l.interactor.LocateSubmitControl(ctx)
	l.outcome = l.interactor.TrySubmit(ctx, f, ctl, l.ctl.AutoSubmit())

	l.log.Debug("attempt",
		"attempt", l.attempts,
		"value", l.last,
		"submitted", l.outcome.String(),
	)
	l.publish(false, ExitReasonUnknown)
}

func (l *Loop) publish(final bool, reason ExitReason) {
	snap := l.ctl.Snapshot()
	l.sink.Publish(Status{
		RunID:      l.id,
		Attempt:    l.attempts,
		Value:      l.last,
		Outcome:    l.outcome,
		Cursor:     l.progress.Cursor(),
		Total:      l.progress.Len(),
		Mode:       snap.Mode,
		AutoSubmit: snap.AutoSubmit,
		Final:      final,
		Reason:     reason,
	})
}

func (l *Loop) canceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-l.cancelCh:
		return true
	default:
		return false
	}
}

// wait sleeps for d and reports false if the loop was canceled meanwhile.
func (l *Loop) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return !l.canceled(ctx)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-l.cancelCh:
		return false
	case <-t.C:
		return true
	}
}
