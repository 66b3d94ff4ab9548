package tui

import (
	"bufio"
	"io"
	"unicode/utf8"
)

// Key represents a keyboard input.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeyCtrlC
	KeyCtrlD
	KeySequence // Arrow and function keys; not bound to anything
	KeyRune     // Regular character
)

// KeyEvent represents a key press event.
type KeyEvent struct {
	Key  Key
	Rune rune // Only valid when Key == KeyRune
}

// KeyReader reads keyboard input from a raw terminal.
type KeyReader struct {
	reader *bufio.Reader
}

// NewKeyReader creates a KeyReader from the given io.Reader.
// The reader should be raw terminal input.
func NewKeyReader(r io.Reader) *KeyReader {
	return &KeyReader{reader: bufio.NewReaderSize(r, 64)}
}

// ReadKey blocks until one key event is available.
func (k *KeyReader) ReadKey() (KeyEvent, error) {
	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{}, err
	}

	switch {
	case b == 0x03:
		return KeyEvent{Key: KeyCtrlC}, nil
	case b == 0x04:
		return KeyEvent{Key: KeyCtrlD}, nil
	case b == '\r' || b == '\n':
		return KeyEvent{Key: KeyEnter}, nil
	case b == 0x1B:
		return k.readEscape(), nil
	case b >= 0x20 && b < 0x7F:
		return KeyEvent{Key: KeyRune, Rune: rune(b)}, nil
	case b >= 0xC0:
		return k.readUTF8(b)
	}
	return KeyEvent{Key: KeyUnknown}, nil
}

// readEscape distinguishes a lone escape from a CSI or SS3 sequence. A
// sequence is consumed up to its final byte so it cannot leak into later
// reads as stray runes.
func (k *KeyReader) readEscape() KeyEvent {
	if k.reader.Buffered() == 0 {
		return KeyEvent{Key: KeyEscape}
	}
	b, err := k.reader.ReadByte()
	if err != nil {
		return KeyEvent{Key: KeyEscape}
	}
	if b != '[' && b != 'O' {
		_ = k.reader.UnreadByte()
		return KeyEvent{Key: KeyEscape}
	}
	for {
		next, err := k.reader.ReadByte()
		if err != nil {
			return KeyEvent{Key: KeySequence}
		}
		if next >= 0x40 && next <= 0x7E {
			return KeyEvent{Key: KeySequence}
		}
	}
}

func (k *KeyReader) readUTF8(first byte) (KeyEvent, error) {
	var n int
	switch {
	case first&0xE0 == 0xC0:
		n = 2
	case first&0xF0 == 0xE0:
		n = 3
	case first&0xF8 == 0xF0:
		n = 4
	default:
		return KeyEvent{Key: KeyUnknown}, nil
	}

	buf := make([]byte, n)
	buf[0] = first
	if _, err := io.ReadFull(k.reader, buf[1:]); err != nil {
		return KeyEvent{Key: KeyUnknown}, err
	}

	r, _ := utf8.DecodeRune(buf)
	if r == utf8.RuneError {
		return KeyEvent{Key: KeyUnknown}, nil
	}
	return KeyEvent{Key: KeyRune, Rune: r}, nil
}

// Shortcut represents a panel keyboard shortcut.
type Shortcut int

const (
	ShortcutNone       Shortcut = iota
	ShortcutAutoSubmit          // 'e' - enable auto-submit
	ShortcutPause               // 'p' or space - pause/resume
	ShortcutStop                // 's' - stop
	ShortcutReset               // 'r' - reset
	ShortcutTail                // 't' - toggle attempt tail
	ShortcutDetach              // 'q', esc or ctrl+c - detach the panel
)

// ParseShortcut converts a KeyEvent to a Shortcut.
func ParseShortcut(ev KeyEvent) Shortcut {
	switch ev.Key {
	case KeyEscape, KeyCtrlC:
		return ShortcutDetach
	case KeyRune:
		switch ev.Rune {
		case 'e', 'E':
			return ShortcutAutoSubmit
		case 'p', 'P', ' ':
			return ShortcutPause
		case 's', 'S':
			return ShortcutStop
		case 'r', 'R':
			return ShortcutReset
		case 't', 'T':
			return ShortcutTail
		case 'q', 'Q':
			return ShortcutDetach
		}
	}
	return ShortcutNone
}
