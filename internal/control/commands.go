package control

import "fmt"

// Command is an operator action.
type Command string

const (
	// CommandEnableAutoSubmit sets the auto-submit latch.
	CommandEnableAutoSubmit Command = "enable_auto_submit"
	// CommandTogglePause flips between paused and running.
	CommandTogglePause Command = "toggle_pause"
	// CommandStop stops the run.
	CommandStop Command = "stop"
	// CommandReset returns to paused and asks for a fresh loop.
	CommandReset Command = "reset"
)

// ParseCommand converts a string into a Command.
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandEnableAutoSubmit, CommandTogglePause, CommandStop, CommandReset:
		return c, nil
	default:
		return "", fmt.Errorf("unknown command: %s", s)
	}
}

// Apply performs cmd on the machine. It reports whether the caller must
// start a fresh driver loop, which is only the case for reset.
func (m *Machine) Apply(cmd Command) (restart bool, err error) {
	switch cmd {
	case CommandEnableAutoSubmit:
		m.EnableAutoSubmit()
	case CommandTogglePause:
		m.TogglePause()
	case CommandStop:
		m.Stop()
	case CommandReset:
		m.Reset()
		return true, nil
	default:
		return false, fmt.Errorf("unknown command: %s", cmd)
	}
	return false, nil
}
