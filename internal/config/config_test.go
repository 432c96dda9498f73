package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 15*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 250*time.Millisecond, cfg.HeartbeatInterval())
	assert.Equal(t, 5*time.Second, cfg.ReloadInterval())
	assert.Equal(t, "world", cfg.Output.Mode)
	assert.Equal(t, 2, cfg.Output.WireRevision)
	assert.False(t, cfg.Output.AlwaysResend)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 52821, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name:   "tick interval clamped",
			mutate: func(c *Config) { c.Output.TickIntervalMs = 5 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 15, c.Output.TickIntervalMs)
			},
		},
		{
			name:   "slower tick interval kept",
			mutate: func(c *Config) { c.Output.TickIntervalMs = 33 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 33, c.Output.TickIntervalMs)
			},
		},
		{
			name:   "empty mode is world",
			mutate: func(c *Config) { c.Output.Mode = "" },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "world", c.Output.Mode)
			},
		},
		{
			name:   "headset mode",
			mutate: func(c *Config) { c.Output.Mode = "headset" },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "headset", c.Output.Mode)
			},
		},
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Output.Mode = "local" },
			wantErr: true,
		},
		{
			name:   "zero revision is default",
			mutate: func(c *Config) { c.Output.WireRevision = 0 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 2, c.Output.WireRevision)
			},
		},
		{
			name:    "unknown revision",
			mutate:  func(c *Config) { c.Output.WireRevision = 9 },
			wantErr: true,
		},
		{
			name: "intervals defaulted",
			mutate: func(c *Config) {
				c.Output.HeartbeatIntervalMs = 0
				c.SteamVR.ReloadIntervalMs = -1
				c.Server.Port = 0
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 250, c.Output.HeartbeatIntervalMs)
				assert.Equal(t, 5000, c.SteamVR.ReloadIntervalMs)
				assert.Equal(t, 52821, c.Server.Port)
			},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	require.NoError(t, m.Load())
	assert.Equal(t, *DefaultConfig(), m.Get())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	doc := `{
		// Studio testing
		"output": {"mode": "headset", "tick_interval_ms": 10, "always_resend": true,},
		"server": {"enabled": false},
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	m, err := NewManager(path)
	require.NoError(t, err)
	changed := 0
	m.RegisterChangeCallback(func() { changed++ })
	require.NoError(t, m.Load())

	cfg := m.Get()
	assert.Equal(t, "headset", cfg.Output.Mode)
	assert.Equal(t, 15, cfg.Output.TickIntervalMs)
	assert.True(t, cfg.Output.AlwaysResend)
	assert.False(t, cfg.Server.Enabled)
	// Fields absent from the file keep their defaults.
	assert.Equal(t, 2, cfg.Output.WireRevision)
	assert.Equal(t, 52821, cfg.Server.Port)
	assert.True(t, cfg.General.Tray)
	assert.Equal(t, 1, changed)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	malformed := filepath.Join(dir, "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"output":`), 0644))
	m, err := NewManager(malformed)
	require.NoError(t, err)
	assert.Error(t, m.Load())
	assert.Equal(t, *DefaultConfig(), m.Get())

	badMode := filepath.Join(dir, "mode.json")
	require.NoError(t, os.WriteFile(badMode, []byte(`{"output":{"mode":"sideways"}}`), 0644))
	m, err = NewManager(badMode)
	require.NoError(t, err)
	assert.ErrorContains(t, m.Load(), "output.mode")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	m, err := NewManager(path)
	require.NoError(t, err)

	cfg := m.Get()
	cfg.Output.WireRevision = 3
	cfg.General.LogFile = "trackerlink.log"
	require.NoError(t, m.Set(cfg))
	require.NoError(t, m.Save())

	loaded, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, loaded.Load())
	assert.Equal(t, cfg, loaded.Get())
}

func TestSetRejectsInvalid(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	cfg := m.Get()
	cfg.Output.Mode = "sideways"
	assert.Error(t, m.Set(cfg))
	assert.Equal(t, "world", m.Get().Output.Mode)
}

func TestGetReturnsCopy(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	cfg := m.Get()
	cfg.Server.Port = 1
	assert.Equal(t, 52821, m.Get().Server.Port)
}

func TestDefaultPath(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)
	assert.Equal(t, "config.json", filepath.Base(m.Path()))
	assert.Equal(t, "trackerlink", filepath.Base(filepath.Dir(m.Path())))
}
