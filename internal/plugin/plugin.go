// Package plugin installs the Roblox Studio companion plugin shipped next to
// the executable.
package plugin

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// SourceName is the plugin file distributed with the executable.
	SourceName = "EnigmaCompanionPlugin.rbxmx"

	// TargetName is the file name written into each plugins folder.
	TargetName = "ManagedEnigmaCompanionPlugin.rbxmx"
)

// Installer copies the companion plugin into Roblox Studio's plugins folders
// when the installed copy is missing or differs.
type Installer struct {
	// SourceDir contains SourceName.
	SourceDir string
	// PluginDirs are the candidate plugins folders. Folders that do not
	// exist are skipped.
	PluginDirs []string

	logger *zap.SugaredLogger
}

// NewInstaller returns an installer reading from the executable's directory
// and writing to the platform's plugins folders.
func NewInstaller(logger *zap.SugaredLogger) (*Installer, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	dirs, err := DefaultPluginDirs()
	if err != nil {
		return nil, err
	}
	return &Installer{
		SourceDir:  filepath.Dir(exe),
		PluginDirs: dirs,
		logger:     logger,
	}, nil
}

// DefaultPluginDirs returns the Roblox Studio plugins folders for this OS.
func DefaultPluginDirs() ([]string, error) {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			localAppData = filepath.Join(home, "AppData", "Local")
		}
		return []string{filepath.Join(localAppData, "Roblox", "Plugins")}, nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		return []string{filepath.Join(home, "Documents", "Roblox", "Plugins")}, nil
	default:
		return nil, nil
	}
}

// Install copies the plugin into every existing plugins folder. A missing
// source file is not an error; development builds do not ship one.
func (i *Installer) Install() error {
	sourcePath := filepath.Join(i.SourceDir, SourceName)
	source, err := os.ReadFile(sourcePath)
	if os.IsNotExist(err) {
		i.logger.Debugf("Source plugin file %s not found. The managed plugin will not be copied.", sourcePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read plugin: %w", err)
	}
	sourceHash := sha256.Sum256(source)

	var errs error
	for _, dir := range i.PluginDirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			continue
		}
		targetPath := filepath.Join(dir, TargetName)

		existing, err := os.ReadFile(targetPath)
		switch {
		case err == nil && sha256.Sum256(existing) == sourceHash:
			i.logger.Debug("Managed plugin is already up-to-date.")
			continue
		case err == nil:
			i.logger.Info("Updating managed companion plugin for Roblox Studio.")
		case os.IsNotExist(err):
			i.logger.Info("Copying managed companion plugin for Roblox Studio.")
		default:
			errs = multierr.Append(errs, fmt.Errorf("read installed plugin %s: %w", targetPath, err))
			continue
		}

		if err := writeFile(targetPath, bytes.NewReader(source)); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("install plugin to %s: %w", dir, err))
		}
	}
	return errs
}

// writeFile replaces dstPath with the contents of src. The data is written to
// a temporary file first so Studio never loads a partial plugin.
func writeFile(dstPath string, src io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dstPath), ".plugin-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dstPath)
}
