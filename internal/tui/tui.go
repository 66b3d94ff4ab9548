// Package tui is the terminal control panel: a raw-mode key reader bound to
// the run-control commands, a status summary and an attempt tail.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/thruflo/keysweep/internal/control"
	"github.com/thruflo/keysweep/internal/loop"
)

// ErrAttached is returned by Attach when the panel is already attached.
var ErrAttached = errors.New("panel already attached")

// View represents the current panel view.
type View int

const (
	ViewSummary View = iota
	ViewTail
)

// String returns the string representation of the view.
func (v View) String() string {
	switch v {
	case ViewSummary:
		return "summary"
	case ViewTail:
		return "tail"
	default:
		return "unknown"
	}
}

// Action represents an operator action from the panel.
type Action int

const (
	ActionNone Action = iota
	ActionEnableAutoSubmit
	ActionTogglePause
	ActionStop
	ActionReset
	ActionDetach
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionEnableAutoSubmit:
		return "enable_auto_submit"
	case ActionTogglePause:
		return "toggle_pause"
	case ActionStop:
		return "stop"
	case ActionReset:
		return "reset"
	case ActionDetach:
		return "detach"
	default:
		return "unknown"
	}
}

// Command returns the control command for the action. Actions that do not
// drive the control machine report false.
func (a Action) Command() (control.Command, bool) {
	switch a {
	case ActionEnableAutoSubmit:
		return control.CommandEnableAutoSubmit, true
	case ActionTogglePause:
		return control.CommandTogglePause, true
	case ActionStop:
		return control.CommandStop, true
	case ActionReset:
		return control.CommandReset, true
	default:
		return "", false
	}
}

// ActionEvent is sent when the operator triggers an action.
type ActionEvent struct {
	Action Action
}

// Panel is the terminal control panel. It receives loop statuses as a
// loop.StatusSink and delivers notifications as a control.Notifier.
type Panel struct {
	terminal *Terminal
	notifier *Notifier
	actionCh chan ActionEvent

	mu       sync.Mutex
	state    ViewState
	view     View
	tail     *TailView
	summary  *SummaryView
	width    int
	height   int
	lastLine string
	attached bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPanel creates a Panel that draws to out and reports detached
// notifications to errOut.
func NewPanel(out, errOut io.Writer) *Panel {
	return newPanel(NewTerminal(out), NewNotifier(out, errOut))
}

func newPanel(terminal *Terminal, notifier *Notifier) *Panel {
	done := make(chan struct{})
	close(done)
	return &Panel{
		terminal: terminal,
		notifier: notifier,
		actionCh: make(chan ActionEvent, 16),
		view:     ViewSummary,
		tail:     NewTailView(1000),
		summary:  &SummaryView{},
		width:    80,
		height:   24,
		done:     done,
	}
}

// SetTarget records the page description shown in the title.
func (p *Panel) SetTarget(target string) {
	p.mu.Lock()
	p.state.Target = target
	p.mu.Unlock()
}

// State returns the current view state.
func (p *Panel) State() ViewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// View returns the current view.
func (p *Panel) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// TailLines returns a copy of the attempt tail.
func (p *Panel) TailLines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.tail.Lines()...)
}

// Actions returns a channel that receives operator actions.
func (p *Panel) Actions() <-chan ActionEvent {
	return p.actionCh
}

// Publish implements loop.StatusSink.
func (p *Panel) Publish(st loop.Status) {
	p.mu.Lock()
	p.state.Status = st
	switch {
	case st.Final:
		p.tail.Append("run ended: " + st.Reason.String())
	case st.Attempt > 0:
		// Command snapshots republish the last attempt.
		if line := st.Line(); line != p.lastLine {
			p.tail.Append(line)
			p.lastLine = line
		}
	}
	p.mu.Unlock()
	p.Update()
}

// Notify implements control.Notifier. While attached the panel rings the
// bell and shows the message; otherwise the notifier's detached path runs.
func (p *Panel) Notify(message string) {
	p.mu.Lock()
	p.state.Notice = message
	attached := p.attached
	p.mu.Unlock()

	if !attached {
		p.notifier.Detached(message)
		return
	}
	p.notifier.Bell()
	p.Update()
}

// Attached reports whether the panel owns the terminal.
func (p *Panel) Attached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attached
}

// Done returns a channel closed when the panel detaches. It is closed
// while the panel is not attached.
func (p *Panel) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Attach puts the terminal into raw mode and starts reading keys. The panel
// detaches when ctx ends, when Detach is called, or on a detach shortcut.
func (p *Panel) Attach(ctx context.Context) error {
	p.mu.Lock()
	if p.attached {
		p.mu.Unlock()
		return ErrAttached
	}
	if err := p.terminal.EnterRaw(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("failed to attach panel: %w", err)
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.attached = true
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	keyCh := make(chan KeyEvent, 10)
	keyErr := make(chan error, 1)
	go readKeys(ctx, NewKeyReader(p.terminal), keyCh, keyErr)

	p.Update()

	go func() {
		defer close(done)
		defer cancel()
		_ = p.eventLoop(ctx, keyCh, keyErr)

		p.mu.Lock()
		p.attached = false
		p.mu.Unlock()
		p.terminal.ShowCursor()
		_ = p.terminal.ExitRaw()
	}()
	return nil
}

// Detach releases the terminal and waits for the event loop to exit.
// Safe to call when not attached.
func (p *Panel) Detach() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	<-done
}

func readKeys(ctx context.Context, r *KeyReader, keyCh chan<- KeyEvent, keyErr chan<- error) {
	for {
		ev, err := r.ReadKey()
		if err != nil {
			keyErr <- err
			return
		}
		select {
		case keyCh <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// eventLoop turns key events into actions until ctx ends, the reader fails
// or the operator detaches.
func (p *Panel) eventLoop(ctx context.Context, keyCh <-chan KeyEvent, keyErr <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-keyErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err

		case ev := <-keyCh:
			action := p.handleKeyEvent(ev)
			if action.Action == ActionNone {
				continue
			}
			select {
			case p.actionCh <- action:
			default:
				// Channel full, drop event
			}
			if action.Action == ActionDetach {
				return nil
			}
		}
	}
}

// handleKeyEvent processes a key event and returns any triggered action.
func (p *Panel) handleKeyEvent(ev KeyEvent) ActionEvent {
	switch ParseShortcut(ev) {
	case ShortcutTail:
		p.mu.Lock()
		if p.view == ViewTail {
			p.view = ViewSummary
		} else {
			p.view = ViewTail
		}
		p.mu.Unlock()
		p.Update()
		return ActionEvent{Action: ActionNone}
	case ShortcutAutoSubmit:
		return ActionEvent{Action: ActionEnableAutoSubmit}
	case ShortcutPause:
		return ActionEvent{Action: ActionTogglePause}
	case ShortcutStop:
		return ActionEvent{Action: ActionStop}
	case ShortcutReset:
		return ActionEvent{Action: ActionReset}
	case ShortcutDetach:
		return ActionEvent{Action: ActionDetach}
	}
	return ActionEvent{Action: ActionNone}
}

// Update redraws the current view. It does nothing while detached.
func (p *Panel) Update() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.attached {
		return
	}

	if width, height, err := p.terminal.Size(); err == nil {
		p.width = width
		p.height = height
	}

	p.terminal.Clear()
	p.terminal.HideCursor()
	for _, line := range p.render() {
		p.terminal.WriteLine(line)
	}
}

func (p *Panel) render() []string {
	if p.view == ViewTail {
		return p.tail.Render(p.width, p.height-2)
	}
	return p.summary.Render(p.state, p.width)
}
