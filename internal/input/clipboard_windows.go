//go:build windows

package input

import (
	"context"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Windows implementation of the clipboard using the Win32 clipboard API

const (
	cfUnicodeText = 13
	gmemMoveable  = 0x0002

	openAttempts = 20
	openBackoff  = 5 * time.Millisecond
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procOpenClipboard    = user32.NewProc("OpenClipboard")
	procCloseClipboard   = user32.NewProc("CloseClipboard")
	procEmptyClipboard   = user32.NewProc("EmptyClipboard")
	procSetClipboardData = user32.NewProc("SetClipboardData")
	procGlobalAlloc      = kernel32.NewProc("GlobalAlloc")
	procGlobalFree       = kernel32.NewProc("GlobalFree")
	procGlobalLock       = kernel32.NewProc("GlobalLock")
	procGlobalUnlock     = kernel32.NewProc("GlobalUnlock")
)

// SystemClipboard writes Unicode text to the Win32 clipboard.
type SystemClipboard struct{}

// NewClipboard returns the Win32 clipboard.
func NewClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// SetText replaces the clipboard with text. Another process may hold the
// clipboard open briefly, so opening is retried until ctx is done.
func (c *SystemClipboard) SetText(ctx context.Context, text string) error {
	data, err := windows.UTF16FromString(text)
	if err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}

	// The clipboard is owned by the thread that opened it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := openClipboard(ctx); err != nil {
		return err
	}
	defer procCloseClipboard.Call()

	if r, _, err := procEmptyClipboard.Call(); r == 0 {
		return fmt.Errorf("clipboard: EmptyClipboard: %w", err)
	}

	size := uintptr(len(data)) * unsafe.Sizeof(data[0])
	handle, _, err := procGlobalAlloc.Call(gmemMoveable, size)
	if handle == 0 {
		return fmt.Errorf("clipboard: GlobalAlloc: %w", err)
	}

	ptr, _, err := procGlobalLock.Call(handle)
	if ptr == 0 {
		procGlobalFree.Call(handle)
		return fmt.Errorf("clipboard: GlobalLock: %w", err)
	}
	copy(unsafe.Slice((*uint16)(unsafe.Pointer(ptr)), len(data)), data)
	procGlobalUnlock.Call(handle)

	if r, _, err := procSetClipboardData.Call(cfUnicodeText, handle); r == 0 {
		procGlobalFree.Call(handle)
		return fmt.Errorf("clipboard: SetClipboardData: %w", err)
	}
	return nil
}

func openClipboard(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt < openAttempts; attempt++ {
		r, _, err := procOpenClipboard.Call(0)
		if r != 0 {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(openBackoff):
		}
	}
	return fmt.Errorf("clipboard: OpenClipboard: %w", lastErr)
}
