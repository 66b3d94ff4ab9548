package loop

import (
	"fmt"

	"github.com/thruflo/keysweep/internal/control"
	"github.com/thruflo/keysweep/internal/field"
)

// Status is the readout published after each attempt and once on exit.
type Status struct {
	RunID      string
	Attempt    int
	Value      string // Last attempted value, empty before the first attempt
	Outcome    field.Outcome
	Cursor     int
	Total      int
	Mode       control.Mode
	AutoSubmit bool
	Final      bool
	Reason     ExitReason // Set on the final status only
}

// Line renders the status in its one-line form.
func (s Status) Line() string {
	value := s.Value
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("attempt %d · last %s · submitted: %s", s.Attempt, value, s.Outcome)
}

// Record returns the attempt record carried by the status.
func (s Status) Record() AttemptRecord {
	return AttemptRecord{
		Value:     s.Value,
		Attempted: s.Outcome.Attempted(),
		Submitted: s.Outcome.Dispatched(),
	}
}

// AttemptRecord describes one attempt for reporting.
type AttemptRecord struct {
	Value     string
	Attempted bool
	Submitted bool
}

// StatusSink receives status updates. Publish is called from the loop's
// goroutine and should not block for long.
type StatusSink interface {
	Publish(Status)
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(Status)

// Publish calls f(s).
func (f StatusFunc) Publish(s Status) { f(s) }

// MultiSink fans a status out to several sinks in order.
type MultiSink []StatusSink

// Publish implements StatusSink.
func (m MultiSink) Publish(s Status) {
	for _, sink := range m {
		if sink != nil {
			sink.Publish(s)
		}
	}
}
