//go:build !windows

package autostart

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"text/template"
)

const launchAgentPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>com.trackerlink.agent</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.Executable}}</string>{{range .Args}}
        <string>{{.}}</string>{{end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <false/>
</dict>
</plist>
`

const desktopEntry = `[Desktop Entry]
Type=Application
Name=trackerlink
Exec={{.CommandLine}}
X-GNOME-Autostart-enabled=true
`

func defaultDir() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "LaunchAgents"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart"), nil
}

func (e *Entry) path() string {
	if runtime.GOOS == "darwin" {
		return filepath.Join(e.Dir, "com.trackerlink.agent.plist")
	}
	return filepath.Join(e.Dir, Name+".desktop")
}

// Enable writes the login item file.
func (e *Entry) Enable() error {
	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return err
	}

	text := desktopEntry
	if runtime.GOOS == "darwin" {
		text = launchAgentPlist
	}
	tmpl, err := template.New("entry").Parse(text)
	if err != nil {
		return err
	}

	f, err := os.Create(e.path())
	if err != nil {
		return err
	}
	defer f.Close()

	data := struct {
		Executable  string
		Args        []string
		CommandLine string
	}{e.Executable, e.Args, e.commandLine()}
	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("write %s: %w", e.path(), err)
	}
	return nil
}

// Disable removes the login item file.
func (e *Entry) Disable() error {
	if err := os.Remove(e.path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsEnabled reports whether the login item file exists.
func (e *Entry) IsEnabled() bool {
	_, err := os.Stat(e.path())
	return err == nil
}
