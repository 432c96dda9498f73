//go:build windows

package steamvr

import (
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

const fallbackPath = `C:\Program Files (x86)\Steam\config\steamvr.vrsettings`

// DefaultPath locates steamvr.vrsettings through the Steam install path in
// the registry, falling back to the default install location.
func DefaultPath() string {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Software\Valve\Steam`, registry.QUERY_VALUE)
	if err != nil {
		return fallbackPath
	}
	defer key.Close()

	steamPath, _, err := key.GetStringValue("SteamPath")
	if err != nil || steamPath == "" {
		return fallbackPath
	}
	return filepath.Join(filepath.FromSlash(steamPath), "config", FileName)
}
