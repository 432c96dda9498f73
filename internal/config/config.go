// Package config provides configuration management for trackerlink.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/tidwall/jsonc"

	"trackerlink/internal/api"
	"trackerlink/internal/delivery"
	"trackerlink/internal/loop"
	"trackerlink/internal/protocol"
	"trackerlink/internal/steamvr"
	"trackerlink/internal/transform"
)

// DefaultTickInterval matches the fastest interval the output loop allows.
const DefaultTickInterval = loop.MinInterval

// Config represents the application configuration
type Config struct {
	// Output controls how frames are built and delivered to the client
	Output OutputConfig `json:"output"`

	// SteamVR controls where tracker roles are read from
	SteamVR SteamVRConfig `json:"steamvr"`

	// Server controls the local companion/status HTTP server
	Server ServerConfig `json:"server"`

	// General contains general application settings
	General GeneralConfig `json:"general"`
}

// OutputConfig contains delivery settings
type OutputConfig struct {
	// TickIntervalMs is the output loop interval. Values below 15 are raised to 15.
	TickIntervalMs int `json:"tick_interval_ms"`

	// Mode is the coordinate mode: "world" or "headset"
	Mode string `json:"mode"`

	// WireRevision selects the frame layout (1, 2 or 3)
	WireRevision int `json:"wire_revision"`

	// AlwaysResend pastes every frame even when it is unchanged
	AlwaysResend bool `json:"always_resend"`

	// HeartbeatIntervalMs is how often the heartbeat key is re-pressed
	HeartbeatIntervalMs int `json:"heartbeat_interval_ms"`
}

// SteamVRConfig contains SteamVR settings file options
type SteamVRConfig struct {
	// SettingsPath overrides the detected steamvr.vrsettings location
	SettingsPath string `json:"settings_path,omitempty"`

	// ReloadIntervalMs is how often the settings file is re-read
	ReloadIntervalMs int `json:"reload_interval_ms"`
}

// ServerConfig contains status server settings
type ServerConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	// Tray shows a system tray icon
	Tray bool `json:"tray"`

	// CheckForUpdates queries GitHub for a newer release at startup
	CheckForUpdates bool `json:"check_for_updates"`

	// InstallPlugin copies the companion plugin into the Roblox Studio plugins folder
	InstallPlugin bool `json:"install_plugin"`

	// LogFile, when set, also writes logs to a rotated file
	LogFile string `json:"log_file,omitempty"`
}

// DefaultConfig returns a new Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			TickIntervalMs:      int(DefaultTickInterval / time.Millisecond),
			Mode:                string(transform.ModeWorld),
			WireRevision:        protocol.RevisionArity,
			HeartbeatIntervalMs: int(delivery.HeartbeatInterval / time.Millisecond),
		},
		SteamVR: SteamVRConfig{
			ReloadIntervalMs: int(steamvr.DefaultReloadInterval / time.Millisecond),
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    api.DefaultPort,
		},
		General: GeneralConfig{
			Tray:            true,
			CheckForUpdates: true,
			InstallPlugin:   true,
		},
	}
}

// TickInterval returns the output loop interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Output.TickIntervalMs) * time.Millisecond
}

// HeartbeatInterval returns the delivery heartbeat interval.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Output.HeartbeatIntervalMs) * time.Millisecond
}

// ReloadInterval returns the SteamVR settings reload interval.
func (c *Config) ReloadInterval() time.Duration {
	return time.Duration(c.SteamVR.ReloadIntervalMs) * time.Millisecond
}

// Validate fills unset values with defaults, clamps the tick interval and
// rejects unknown modes and wire revisions.
func (c *Config) Validate() error {
	defaults := DefaultConfig()

	if c.Output.TickIntervalMs < int(loop.MinInterval/time.Millisecond) {
		c.Output.TickIntervalMs = int(loop.MinInterval / time.Millisecond)
	}
	mode, err := transform.ParseMode(c.Output.Mode)
	if err != nil {
		return fmt.Errorf("output.mode: %w", err)
	}
	c.Output.Mode = string(mode)
	rev, err := protocol.ParseRevision(c.Output.WireRevision)
	if err != nil {
		return fmt.Errorf("output.wire_revision: %w", err)
	}
	c.Output.WireRevision = rev
	if c.Output.HeartbeatIntervalMs <= 0 {
		c.Output.HeartbeatIntervalMs = defaults.Output.HeartbeatIntervalMs
	}
	if c.SteamVR.ReloadIntervalMs <= 0 {
		c.SteamVR.ReloadIntervalMs = defaults.SteamVR.ReloadIntervalMs
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	return nil
}

// Manager handles loading and saving configuration
type Manager struct {
	mu         sync.Mutex
	configPath string
	config     *Config
	onChanged  func()
}

// NewManager creates a new configuration manager. An empty path selects the
// per-user default location.
func NewManager(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = getConfigPath()
		if err != nil {
			return nil, err
		}
	}

	return &Manager{
		configPath: path,
		config:     DefaultConfig(),
	}, nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "trackerlink")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(appData, "trackerlink")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config", "trackerlink")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Path returns the configuration file location.
func (m *Manager) Path() string {
	return m.configPath
}

// Load reads the configuration from disk. A missing file leaves the defaults
// in place. Comments and trailing commas are accepted.
func (m *Manager) Load() error {
	m.mu.Lock()
	data, err := os.ReadFile(m.configPath)
	if os.IsNotExist(err) {
		m.mu.Unlock()
		return nil
	}
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("parse config %s: %w", m.configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}
	m.config = cfg
	onChanged := m.onChanged
	m.mu.Unlock()

	if onChanged != nil {
		onChanged()
	}
	return nil
}

// Save writes the configuration to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.configPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(m.configPath, data, 0644)
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.config
}

// Set validates and replaces the configuration
func (m *Manager) Set(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.config = &cfg
	onChanged := m.onChanged
	m.mu.Unlock()
	if onChanged != nil {
		onChanged()
	}
	return nil
}

// RegisterChangeCallback registers a function to be called when config changes
func (m *Manager) RegisterChangeCallback(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChanged = fn
}
