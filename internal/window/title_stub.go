//go:build !windows

package window

// Stub implementation for non-Windows platforms

// ForegroundTitle represents a stub title source
type ForegroundTitle struct{}

// NewTitleSource returns the stub title source
func NewTitleSource() TitleSource {
	return ForegroundTitle{}
}

// ActiveWindowTitle never reports a window (stub)
func (ForegroundTitle) ActiveWindowTitle() (string, bool) {
	return "", false
}
