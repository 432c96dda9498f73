// Package autostart registers trackerlink to start when the user logs in.
package autostart

import (
	"fmt"
	"os"
	"strings"
)

// Name identifies the login item.
const Name = "trackerlink"

// Entry is the login item for one executable.
type Entry struct {
	// Executable is started on login.
	Executable string
	// Args are passed to Executable.
	Args []string
	// Dir holds file based login items (LaunchAgents or XDG autostart).
	// It is unused on Windows.
	Dir string
}

// New returns the entry for the running executable.
func New(args ...string) (*Entry, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	dir, err := defaultDir()
	if err != nil {
		return nil, err
	}
	return &Entry{Executable: exe, Args: args, Dir: dir}, nil
}

// Toggle enables the entry when it is disabled and the other way round. It
// returns the new state.
func (e *Entry) Toggle() (bool, error) {
	if e.IsEnabled() {
		return false, e.Disable()
	}
	return true, e.Enable()
}

// commandLine quotes the executable and arguments for a shell-like launcher.
func (e *Entry) commandLine() string {
	parts := make([]string, 0, len(e.Args)+1)
	for _, p := range append([]string{e.Executable}, e.Args...) {
		if strings.ContainsAny(p, " \t") {
			p = `"` + p + `"`
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}
