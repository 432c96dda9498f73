package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	installer *Installer
	source    string
	plugins   string
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		source:  filepath.Join(root, "bin"),
		plugins: filepath.Join(root, "Plugins"),
	}
	require.NoError(t, os.MkdirAll(f.source, 0755))
	require.NoError(t, os.MkdirAll(f.plugins, 0755))

	core, logs := observer.New(zapcore.DebugLevel)
	f.logs = logs
	f.installer = &Installer{
		SourceDir:  f.source,
		PluginDirs: []string{f.plugins, filepath.Join(root, "missing")},
		logger:     zap.New(core).Sugar(),
	}
	return f
}

func (f *fixture) writeSource(t *testing.T, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.source, SourceName), []byte(data), 0644))
}

func (f *fixture) installed(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.plugins, TargetName))
	require.NoError(t, err)
	return string(data)
}

func TestInstallMissingSource(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.installer.Install())

	_, err := os.Stat(filepath.Join(f.plugins, TargetName))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 1, f.logs.FilterLevelExact(zapcore.DebugLevel).Len())
}

func TestInstallCopies(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "<roblox>v1</roblox>")

	require.NoError(t, f.installer.Install())
	assert.Equal(t, "<roblox>v1</roblox>", f.installed(t))
	assert.Equal(t, 1, f.logs.FilterMessage("Copying managed companion plugin for Roblox Studio.").Len())
}

func TestInstallUpToDate(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "<roblox>v1</roblox>")
	require.NoError(t, f.installer.Install())

	require.NoError(t, f.installer.Install())
	assert.Equal(t, 1, f.logs.FilterMessage("Managed plugin is already up-to-date.").Len())
}

func TestInstallUpdates(t *testing.T) {
	f := newFixture(t)
	f.writeSource(t, "<roblox>v1</roblox>")
	require.NoError(t, f.installer.Install())

	f.writeSource(t, "<roblox>v2</roblox>")
	require.NoError(t, f.installer.Install())
	assert.Equal(t, "<roblox>v2</roblox>", f.installed(t))
	assert.Equal(t, 1, f.logs.FilterMessage("Updating managed companion plugin for Roblox Studio.").Len())

	// No temporary files are left behind.
	entries, err := os.ReadDir(f.plugins)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDefaultPluginDirs(t *testing.T) {
	dirs, err := DefaultPluginDirs()
	require.NoError(t, err)
	for _, dir := range dirs {
		assert.Equal(t, "Plugins", filepath.Base(dir))
	}
}
