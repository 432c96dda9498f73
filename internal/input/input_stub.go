//go:build !windows

package input

import "context"

// Stub implementation for non-Windows platforms

// SystemKeyboard represents a stub keyboard
type SystemKeyboard struct{}

// NewKeyboard creates a new stub keyboard
func NewKeyboard() *SystemKeyboard {
	return &SystemKeyboard{}
}

// KeyDown presses a key (stub)
func (k *SystemKeyboard) KeyDown(key Key) error {
	return ErrUnsupported
}

// KeyUp releases a key (stub)
func (k *SystemKeyboard) KeyUp(key Key) error {
	return ErrUnsupported
}

// KeyPress presses and releases a key (stub)
func (k *SystemKeyboard) KeyPress(key Key) error {
	return ErrUnsupported
}

// SystemClipboard represents a stub clipboard
type SystemClipboard struct{}

// NewClipboard creates a new stub clipboard
func NewClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// SetText replaces the clipboard contents (stub)
func (c *SystemClipboard) SetText(ctx context.Context, text string) error {
	return ErrUnsupported
}
