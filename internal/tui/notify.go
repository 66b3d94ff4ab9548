package tui

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"

	"github.com/thruflo/keysweep/internal/logging"
)

// Notifier handles notifications for attached and detached panels.
// When the panel is attached, it uses the terminal bell.
// When detached, it writes a line to errOut and sends an OS notification.
type Notifier struct {
	out      io.Writer
	errOut   io.Writer
	osNotify func(title, message string) error
}

// NewNotifier creates a Notifier that writes the bell to out and detached
// messages to errOut.
func NewNotifier(out, errOut io.Writer) *Notifier {
	return &Notifier{out: out, errOut: errOut, osNotify: notifyOS}
}

// Bell writes the terminal bell character to output.
func (n *Notifier) Bell() {
	fmt.Fprint(n.out, Bell)
}

// NotifyOS sends an OS-native notification.
// On macOS, this uses osascript. On other platforms, this is a no-op.
func (n *Notifier) NotifyOS(title, message string) error {
	return n.osNotify(title, message)
}

// NotifyAttention rings the bell when foreground and otherwise sends an OS
// notification.
func (n *Notifier) NotifyAttention(title, message string, isForeground bool) error {
	if isForeground {
		n.Bell()
		return nil
	}
	return n.NotifyOS(title, message)
}

// Detached reports message while no panel owns the terminal.
func (n *Notifier) Detached(message string) {
	fmt.Fprintf(n.errOut, "keysweep: %s\n", message)
	if err := n.NotifyAttention("keysweep", message, false); err != nil {
		logging.Debug("os notification failed", "error", err)
	}
}

func notifyOS(title, message string) error {
	if runtime.GOOS != "darwin" {
		return nil
	}
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}
