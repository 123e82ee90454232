package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultHeartbeatTimeout is how long a stream may stay silent before it is considered stale.
	DefaultHeartbeatTimeout = 35 * time.Second

	// DefaultMaxReconnectAttempts bounds reconnects per tracked task.
	DefaultMaxReconnectAttempts = 3

	// DefaultBackoffBase is multiplied by the attempt number between reconnects.
	DefaultBackoffBase = time.Second

	// settingsFile is the settings file name inside the config directory.
	settingsFile = "config.yaml"
)

// Settings represents the ~/.funmagic/config.yaml file.
type Settings struct {
	// APIURL overrides the API base URL. Empty means production (or dev with --dev).
	APIURL string `yaml:"api_url,omitempty"`

	// Stream contains progress stream tuning.
	Stream StreamSettings `yaml:"stream,omitempty"`
}

// StreamSettings tunes the task progress stream client.
type StreamSettings struct {
	// HeartbeatTimeout is the staleness window, e.g. "35s".
	HeartbeatTimeout time.Duration `yaml:"heartbeat_timeout,omitempty"`

	// MaxReconnectAttempts bounds reconnects per task id.
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts,omitempty"`

	// BackoffBase is the delay unit between reconnect attempts, e.g. "1s".
	BackoffBase time.Duration `yaml:"backoff_base,omitempty"`
}

// DefaultSettings returns settings with every default filled in.
func DefaultSettings() *Settings {
	return &Settings{
		Stream: StreamSettings{
			HeartbeatTimeout:     DefaultHeartbeatTimeout,
			MaxReconnectAttempts: DefaultMaxReconnectAttempts,
			BackoffBase:          DefaultBackoffBase,
		},
	}
}

// DefaultDir returns the default configuration directory (~/.funmagic).
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".funmagic")
}

// LoadSettings reads settings from dir/config.yaml, applies defaults for
// anything left unset, then applies environment overrides.
//
// A missing file is not an error.
//
// Parameters:
//   - dir: The configuration directory
//
// Returns:
//   - *Settings: The effective settings
//   - error: Any error reading or parsing the file, or a malformed override
func LoadSettings(dir string) (*Settings, error) {
	s, err := ReadSettingsFile(dir)
	if err != nil {
		return nil, err
	}
	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadSettingsFile reads dir/config.yaml with defaults applied but without
// environment overrides, for commands that write the file back.
func ReadSettingsFile(dir string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(filepath.Join(dir, settingsFile))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse settings: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	s.applyDefaults()
	return s, nil
}

// SettingsPath returns the settings file path inside dir.
func SettingsPath(dir string) string {
	return filepath.Join(dir, settingsFile)
}

// SaveSettings writes settings to dir/config.yaml.
func SaveSettings(dir string, s *Settings) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, settingsFile), data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Validate rejects settings the stream client cannot run with.
func (s *Settings) Validate() error {
	if s.Stream.HeartbeatTimeout <= 0 {
		return fmt.Errorf("stream.heartbeat_timeout must be positive, got %s", s.Stream.HeartbeatTimeout)
	}
	if s.Stream.MaxReconnectAttempts < 0 {
		return fmt.Errorf("stream.max_reconnect_attempts must not be negative, got %d", s.Stream.MaxReconnectAttempts)
	}
	if s.Stream.BackoffBase < 0 {
		return fmt.Errorf("stream.backoff_base must not be negative, got %s", s.Stream.BackoffBase)
	}
	return nil
}

// ResolveAPIURL returns the API URL to use: the settings file value wins over
// the production default, and FUNMAGIC_API_URL or --dev win over both.
func (s *Settings) ResolveAPIURL(devMode bool) string {
	if devMode || os.Getenv("FUNMAGIC_API_URL") != "" || s.APIURL == "" {
		return GetAPIURL(devMode)
	}
	return strings.TrimRight(s.APIURL, "/")
}

func (s *Settings) applyDefaults() {
	if s.Stream.HeartbeatTimeout == 0 {
		s.Stream.HeartbeatTimeout = DefaultHeartbeatTimeout
	}
	if s.Stream.MaxReconnectAttempts == 0 {
		s.Stream.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if s.Stream.BackoffBase == 0 {
		s.Stream.BackoffBase = DefaultBackoffBase
	}
}

// applyEnv applies the FUNMAGIC_SSE_* overrides. Values are plain integers,
// milliseconds for the timeout, matching the web client's variables.
func (s *Settings) applyEnv() error {
	if v := os.Getenv("FUNMAGIC_SSE_HEARTBEAT_TIMEOUT_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FUNMAGIC_SSE_HEARTBEAT_TIMEOUT_MS %q: %w", v, err)
		}
		s.Stream.HeartbeatTimeout = time.Duration(ms) * time.Millisecond
	}
	if v := os.Getenv("FUNMAGIC_SSE_MAX_RECONNECT_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FUNMAGIC_SSE_MAX_RECONNECT_ATTEMPTS %q: %w", v, err)
		}
		s.Stream.MaxReconnectAttempts = n
	}
	return nil
}
