//go:build windows

package window

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const maxTitleLength = 256

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW = user32.NewProc("GetWindowTextW")
)

// ForegroundTitle reads the title of the foreground window.
type ForegroundTitle struct{}

// NewTitleSource returns the platform title source.
func NewTitleSource() TitleSource {
	return ForegroundTitle{}
}

// ActiveWindowTitle implements TitleSource.
func (ForegroundTitle) ActiveWindowTitle() (string, bool) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return "", false
	}
	buf := make([]uint16, maxTitleLength)
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return "", false
	}
	return windows.UTF16ToString(buf[:n]), true
}
