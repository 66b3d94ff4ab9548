package control

import (
	"sync"
)

// Mode is the run mode of the driver loop.
type Mode int

const (
	ModePaused Mode = iota
	ModeRunning
	ModeStopped
)

// String returns the panel label for the mode.
func (m Mode) String() string {
	switch m {
	case ModePaused:
		return "PAUSED"
	case ModeRunning:
		return "RUNNING"
	case ModeStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Notification messages.
const (
	MessageStopped      = "Stopped."
	MessageFieldMissing = "Target input field not found."
	MessageFinished     = "Finished all values or attempts."
)

// Notifier delivers a user-visible message.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

// Snapshot is a point-in-time copy of the machine's state.
type Snapshot struct {
	Mode       Mode
	AutoSubmit bool
	Notified   bool
}

// Machine is the run-control state machine. It is safe for concurrent use:
// the control surface mutates it while the driver loop polls it.
type Machine struct {
	mu         sync.Mutex
	mode       Mode
	autoSubmit bool
	notified   bool
	notifier   Notifier
}

// NewMachine creates a Machine in the Paused mode with both latches clear.
// A nil notifier discards notifications.
func NewMachine(n Notifier) *Machine {
	if n == nil {
		n = NotifierFunc(func(string) {})
	}
	return &Machine{mode: ModePaused, notifier: n}
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// AutoSubmit reports whether the auto-submit latch is set.
func (m *Machine) AutoSubmit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoSubmit
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Mode: m.mode, AutoSubmit: m.autoSubmit, Notified: m.notified}
}

// EnableAutoSubmit sets the auto-submit latch. There is no inverse.
func (m *Machine) EnableAutoSubmit() {
	m.mu.Lock()
	m.autoSubmit = true
	m.mu.Unlock()
}

// TogglePause flips between Paused and Running. It does nothing once Stopped.
func (m *Machine) TogglePause() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.mode {
	case ModePaused:
		m.mode = ModeRunning
	case ModeRunning:
		m.mode = ModePaused
	}
	return m.mode
}

// Resume moves Paused to Running. It does nothing in other modes.
func (m *Machine) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mode == ModePaused {
		m.mode = ModeRunning
	}
}

// Stop moves any mode to Stopped and notifies once.
func (m *Machine) Stop() {
	m.mu.Lock()
	m.mode = ModeStopped
	m.mu.Unlock()
	m.NotifyOnce(MessageStopped)
}

// Reset returns to Paused and clears the notified latch.
// Auto-submit is left as is.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.mode = ModePaused
	m.notified = false
	m.mu.Unlock()
}

// NotifyOnce sends message unless a notification was already sent since the
// last Reset. It reports whether the message was sent.
func (m *Machine) NotifyOnce(message string) bool {
	m.mu.Lock()
	if m.notified {
		m.mu.Unlock()
		return false
	}
	m.notified = true
	n := m.notifier
	m.mu.Unlock()

	n.Notify(message)
	return true
}
