//go:build !windows

package steamvr

import (
	"os"
	"path/filepath"
)

// DefaultPath returns the settings file of a default Steam for Linux install.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".steam", "steam", "config", FileName)
	}
	return filepath.Join(home, ".steam", "steam", "config", FileName)
}
