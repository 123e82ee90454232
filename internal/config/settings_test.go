package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every override so tests see only the file under test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"FUNMAGIC_API_URL",
		"FUNMAGIC_BACKEND_PORT",
		"FUNMAGIC_SSE_HEARTBEAT_TIMEOUT_MS",
		"FUNMAGIC_SSE_MAX_RECONNECT_ATTEMPTS",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

// TestLoadSettingsMissingFile verifies defaults apply when no file exists.
func TestLoadSettingsMissingFile(t *testing.T) {
	clearEnv(t)

	s, err := LoadSettings(t.TempDir())
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Stream.HeartbeatTimeout != DefaultHeartbeatTimeout {
		t.Errorf("HeartbeatTimeout = %s, want %s", s.Stream.HeartbeatTimeout, DefaultHeartbeatTimeout)
	}
	if s.Stream.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("MaxReconnectAttempts = %d, want %d", s.Stream.MaxReconnectAttempts, DefaultMaxReconnectAttempts)
	}
	if s.Stream.BackoffBase != DefaultBackoffBase {
		t.Errorf("BackoffBase = %s, want %s", s.Stream.BackoffBase, DefaultBackoffBase)
	}
	if got := s.ResolveAPIURL(false); got != ProdAPIURL {
		t.Errorf("ResolveAPIURL(false) = %q, want %q", got, ProdAPIURL)
	}
}

// TestLoadSettingsFromFile verifies YAML durations and partial files.
func TestLoadSettingsFromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	content := "api_url: https://staging.funmagic.ai/api/\nstream:\n  heartbeat_timeout: 10s\n  backoff_base: 250ms\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Stream.HeartbeatTimeout != 10*time.Second {
		t.Errorf("HeartbeatTimeout = %s, want 10s", s.Stream.HeartbeatTimeout)
	}
	if s.Stream.BackoffBase != 250*time.Millisecond {
		t.Errorf("BackoffBase = %s, want 250ms", s.Stream.BackoffBase)
	}
	if s.Stream.MaxReconnectAttempts != DefaultMaxReconnectAttempts {
		t.Errorf("MaxReconnectAttempts = %d, want default", s.Stream.MaxReconnectAttempts)
	}
	if got := s.ResolveAPIURL(false); got != "https://staging.funmagic.ai/api" {
		t.Errorf("ResolveAPIURL(false) = %q", got)
	}
}

// TestLoadSettingsEnvOverrides verifies the FUNMAGIC_* variables win over the file.
func TestLoadSettingsEnvOverrides(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api_url: https://file.example/api\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FUNMAGIC_SSE_HEARTBEAT_TIMEOUT_MS", "1500")
	t.Setenv("FUNMAGIC_SSE_MAX_RECONNECT_ATTEMPTS", "5")
	t.Setenv("FUNMAGIC_API_URL", "http://127.0.0.1:9999/api/")

	s, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Stream.HeartbeatTimeout != 1500*time.Millisecond {
		t.Errorf("HeartbeatTimeout = %s, want 1.5s", s.Stream.HeartbeatTimeout)
	}
	if s.Stream.MaxReconnectAttempts != 5 {
		t.Errorf("MaxReconnectAttempts = %d, want 5", s.Stream.MaxReconnectAttempts)
	}
	if got := s.ResolveAPIURL(false); got != "http://127.0.0.1:9999/api" {
		t.Errorf("ResolveAPIURL(false) = %q", got)
	}
}

// TestLoadSettingsInvalid verifies malformed input is reported, not ignored.
func TestLoadSettingsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		envKey  string
		envVal  string
		wantErr bool
	}{
		{name: "bad yaml", file: "stream: [", wantErr: true},
		{name: "bad duration", file: "stream:\n  heartbeat_timeout: soon\n", wantErr: true},
		{name: "negative backoff", file: "stream:\n  backoff_base: -1s\n", wantErr: true},
		{name: "bad env timeout", envKey: "FUNMAGIC_SSE_HEARTBEAT_TIMEOUT_MS", envVal: "abc", wantErr: true},
		{name: "zero env timeout", envKey: "FUNMAGIC_SSE_HEARTBEAT_TIMEOUT_MS", envVal: "0", wantErr: true},
		{name: "valid", file: "stream:\n  max_reconnect_attempts: 1\n", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			if tt.file != "" {
				if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.file), 0o600); err != nil {
					t.Fatal(err)
				}
			}
			if tt.envKey != "" {
				t.Setenv(tt.envKey, tt.envVal)
			}

			_, err := LoadSettings(dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestSaveSettingsRoundTrip verifies SaveSettings output is readable by LoadSettings.
func TestSaveSettingsRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "nested")

	in := DefaultSettings()
	in.Stream.HeartbeatTimeout = 20 * time.Second
	if err := SaveSettings(dir, in); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	out, err := LoadSettings(dir)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if out.Stream.HeartbeatTimeout != 20*time.Second {
		t.Errorf("HeartbeatTimeout = %s, want 20s", out.Stream.HeartbeatTimeout)
	}
}

// TestReadPortFromEnv verifies PORT extraction from a dotenv file.
func TestReadPortFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("DATABASE_URL=postgres://x\nPORT=\"3100\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := readPortFromEnv(path); got != "3100" {
		t.Errorf("readPortFromEnv() = %q, want 3100", got)
	}
	if got := readPortFromEnv(filepath.Join(t.TempDir(), "missing")); got != "" {
		t.Errorf("readPortFromEnv(missing) = %q, want empty", got)
	}
}

// TestGetAPIURLDevOverride verifies the port override in dev mode.
func TestGetAPIURLDevOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("FUNMAGIC_BACKEND_PORT", "4555")
	if got := GetAPIURL(true); got != "http://localhost:4555/api" {
		t.Errorf("GetAPIURL(true) = %q", got)
	}
}
