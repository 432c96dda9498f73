// Package input provides the synthetic keyboard and clipboard used to hand
// frames to the game client.
package input

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupported is returned by the stub implementations on platforms without
// SendInput and the Win32 clipboard.
var ErrUnsupported = errors.New("input injection not supported on this platform")

// Key is a Windows virtual-key code.
type Key uint16

const (
	KeyA        Key = 0x41
	KeyV        Key = 0x56
	KeyF13      Key = 0x7C
	KeyLControl Key = 0xA2
)

func (k Key) String() string {
	switch k {
	case KeyA:
		return "A"
	case KeyV:
		return "V"
	case KeyF13:
		return "F13"
	case KeyLControl:
		return "LControl"
	default:
		return fmt.Sprintf("Key(0x%02X)", uint16(k))
	}
}

// Keyboard sends synthetic key events to the foreground window.
type Keyboard interface {
	KeyDown(key Key) error
	KeyUp(key Key) error
	KeyPress(key Key) error
}

// Clipboard replaces the system clipboard contents.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// EventType names a recorded input action.
type EventType string

const (
	EventKeyDown   EventType = "key_down"
	EventKeyUp     EventType = "key_up"
	EventKeyPress  EventType = "key_press"
	EventClipboard EventType = "clipboard"
)

// Event is one keyboard or clipboard action, as recorded by test fakes and
// debug logging.
type Event struct {
	Type EventType `json:"type"`
	Key  Key       `json:"key,omitempty"`
	Text string    `json:"text,omitempty"`
}

func (e Event) String() string {
	if e.Type == EventClipboard {
		return fmt.Sprintf("%s(%q)", e.Type, e.Text)
	}
	return fmt.Sprintf("%s(%s)", e.Type, e.Key)
}
