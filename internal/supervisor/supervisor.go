// Package supervisor owns the session, the control machine and the live
// driver loop. Starting or resetting always cancels and joins the previous
// loop before a new one begins, so at most one loop advances the cursor.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thruflo/keysweep/internal/control"
	"github.com/thruflo/keysweep/internal/field"
	"github.com/thruflo/keysweep/internal/logging"
	"github.com/thruflo/keysweep/internal/loop"
	"github.com/thruflo/keysweep/internal/session"
)

// ErrClosed is returned by Start and Apply after Close.
var ErrClosed = errors.New("supervisor closed")

// ErrNotStarted is returned when a command needs a started supervisor.
var ErrNotStarted = errors.New("supervisor not started")

// Options configures a Supervisor.
type Options struct {
	Session     *session.Session
	Control     *control.Machine
	Interactor  *field.Interactor
	Min         int
	Max         int
	MaxAttempts int
	Interval    time.Duration
	PausePoll   time.Duration
	Sink        loop.StatusSink // Optional
	Logger      *logging.Logger
}

// Supervisor coordinates loop lifecycles for one session.
type Supervisor struct {
	opts    Options
	log     *logging.Logger
	results chan loop.Result

	mu      sync.Mutex
	baseCtx context.Context
	current *loop.Loop
	closed  bool
	wg      sync.WaitGroup

	statusMu sync.Mutex
	last     loop.Status
}

// New creates a Supervisor. Nothing runs until Start.
func New(opts Options) *Supervisor {
	if opts.Session == nil {
		opts.Session = session.New()
	}
	if opts.Control == nil {
		opts.Control = control.NewMachine(nil)
	}
	log := opts.Logger
	if log == nil {
		log = logging.With("component", "supervisor")
	}
	return &Supervisor{
		opts:    opts,
		log:     log,
		results: make(chan loop.Result, 16),
	}
}

// Control returns the control machine.
func (s *Supervisor) Control() *control.Machine {
	return s.opts.Control
}

// Results returns loop results in completion order. The channel is closed
// by Close.
func (s *Supervisor) Results() <-chan loop.Result {
	return s.results
}

// Current returns the live loop, or nil before Start.
func (s *Supervisor) Current() *loop.Loop {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Status returns the most recent status.
func (s *Supervisor) Status() loop.Status {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.last
}

// Start cancels and joins any live loop, then starts a new one. ctx bounds
// this and every later loop started by reset.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.baseCtx = ctx
	return s.restartLocked()
}

// Apply performs an operator command and publishes the resulting status.
// Reset restarts the loop, keeping the cursor and the auto-submit latch.
func (s *Supervisor) Apply(cmd control.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	restart, err := s.opts.Control.Apply(cmd)
	if err != nil {
		return err
	}
	s.log.Info("command applied", "command", string(cmd), "mode", s.opts.Control.Mode().String())

	if restart {
		if s.baseCtx == nil {
			return ErrNotStarted
		}
		if err := s.restartLocked(); err != nil {
			return err
		}
	}

	s.publishSnapshot()
	return nil
}

// Close cancels and joins the live loop, ends the session and closes the
// results channel. Safe to call more than once.
func (s *Supervisor) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopLocked()
	s.mu.Unlock()

	s.wg.Wait()
	s.opts.Session.End()
	close(s.results)
}

func (s *Supervisor) restartLocked() error {
	s.stopLocked()

	progress, err := s.opts.Session.GetOrCreate(s.opts.Min, s.opts.Max)
	if err != nil {
		return fmt.Errorf("failed to get progress: %w", err)
	}

	l := loop.NewLoop(loop.Options{
		Progress:    progress,
		Control:     s.opts.Control,
		Interactor:  s.opts.Interactor,
		MaxAttempts: s.opts.MaxAttempts,
		Interval:    s.opts.Interval,
		PausePoll:   s.opts.PausePoll,
		Sink:        loop.StatusFunc(s.record),
		Logger:      s.log,
	})
	s.current = l

	ctx := s.baseCtx
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result := l.Run(ctx)
		select {
		case s.results <- result:
		default:
			s.log.Warn("dropping loop result, no reader", "run", result.RunID, "reason", result.Reason.String())
		}
	}()

	s.log.Debug("loop launched", "run", l.ID(), "cursor", progress.Cursor())
	return nil
}

// stopLocked cancels the live loop and waits for it to exit.
func (s *Supervisor) stopLocked() {
	if s.current == nil {
		return
	}
	s.current.Cancel()
	<-s.current.Done()
}

// record is the sink handed to every loop.
func (s *Supervisor) record(st loop.Status) {
	s.statusMu.Lock()
	s.last = st
	s.statusMu.Unlock()
	if s.opts.Sink != nil {
		s.opts.Sink.Publish(st)
	}
}

// publishSnapshot republishes the last status with the current control
// state.
func (s *Supervisor) publishSnapshot() {
	snap := s.opts.Control.Snapshot()

	s.statusMu.Lock()
	st := s.last
	st.Mode = snap.Mode
	st.AutoSubmit = snap.AutoSubmit
	st.Final = false
	st.Reason = loop.ExitReasonUnknown
	if s.current != nil {
		st.RunID = s.current.ID()
	}
	if p := s.opts.Session.Progress(); p != nil {
		st.Cursor = p.Cursor()
		st.Total = p.Len()
	}
	s.last = st
	s.statusMu.Unlock()

	if s.opts.Sink != nil {
		s.opts.Sink.Publish(st)
	}
}
