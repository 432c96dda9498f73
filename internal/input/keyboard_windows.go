//go:build windows

package input

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows implementation of synthetic keyboard input using SendInput

const (
	inputKeyboard  = 1
	keyEventFKeyUp = 0x0002
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

// keybdInput mirrors KEYBDINPUT.
type keybdInput struct {
	Vk        uint16
	Scan      uint16
	Flags     uint32
	Time      uint32
	ExtraInfo uintptr
}

// keyboardEvent mirrors INPUT with the keyboard arm of the union. The
// trailing padding brings it to the size of the largest arm (MOUSEINPUT).
type keyboardEvent struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte
}

// SystemKeyboard injects keys with SendInput.
type SystemKeyboard struct{}

// NewKeyboard returns the SendInput keyboard.
func NewKeyboard() *SystemKeyboard {
	return &SystemKeyboard{}
}

// KeyDown presses key.
func (k *SystemKeyboard) KeyDown(key Key) error {
	return send(keyboardEvent{Type: inputKeyboard, Ki: keybdInput{Vk: uint16(key)}})
}

// KeyUp releases key.
func (k *SystemKeyboard) KeyUp(key Key) error {
	return send(keyboardEvent{Type: inputKeyboard, Ki: keybdInput{Vk: uint16(key), Flags: keyEventFKeyUp}})
}

// KeyPress presses and releases key in a single SendInput call so no other
// input can interleave.
func (k *SystemKeyboard) KeyPress(key Key) error {
	return send(
		keyboardEvent{Type: inputKeyboard, Ki: keybdInput{Vk: uint16(key)}},
		keyboardEvent{Type: inputKeyboard, Ki: keybdInput{Vk: uint16(key), Flags: keyEventFKeyUp}},
	)
}

func send(events ...keyboardEvent) error {
	n, _, err := procSendInput.Call(
		uintptr(len(events)),
		uintptr(unsafe.Pointer(&events[0])),
		unsafe.Sizeof(events[0]),
	)
	if int(n) != len(events) {
		return fmt.Errorf("SendInput inserted %d of %d events: %w", n, len(events), err)
	}
	return nil
}
