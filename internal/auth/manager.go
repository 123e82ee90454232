// Package auth resolves the credentials taskwatch sends to the task API.
//
// Credentials come from ~/.funmagic/credentials.json, overridden per field by
// FUNMAGIC_API_TOKEN and FUNMAGIC_SESSION_TOKEN. A bearer token always wins
// over a session cookie; only the winning credential is sent.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/funmagic/taskwatch/internal/api"
)

const (
	// EnvAPIToken overrides the stored bearer token.
	EnvAPIToken = "FUNMAGIC_API_TOKEN"
	// EnvSessionToken overrides the stored session cookie.
	EnvSessionToken = "FUNMAGIC_SESSION_TOKEN"
)

// Method names the credential a request authenticates with.
type Method string

const (
	MethodNone    Method = ""
	MethodToken   Method = "token"
	MethodSession Method = "session"
)

// Credentials holds the task API credentials.
type Credentials struct {
	Token         string `json:"token,omitempty"`
	SessionCookie string `json:"session_cookie,omitempty"`
	// Email is shown by 'auth status' only.
	Email string `json:"email,omitempty"`

	// Source says where the winning credential came from: the file path or
	// the environment variable name. Never persisted.
	Source string `json:"-"`
}

// Method reports which credential is sent. The token wins when both are set.
func (c *Credentials) Method() Method {
	switch {
	case c == nil:
		return MethodNone
	case c.Token != "":
		return MethodToken
	case c.SessionCookie != "":
		return MethodSession
	}
	return MethodNone
}

// Secret returns the value of the credential Method selects.
func (c *Credentials) Secret() string {
	switch c.Method() {
	case MethodToken:
		return c.Token
	case MethodSession:
		return c.SessionCookie
	}
	return ""
}

// HasAny reports whether the credentials can authenticate a request.
func (c *Credentials) HasAny() bool {
	return c.Method() != MethodNone
}

// ClientOptions converts the winning credential into API client options.
func (c *Credentials) ClientOptions() []api.Option {
	switch c.Method() {
	case MethodToken:
		return []api.Option{api.WithToken(c.Token)}
	case MethodSession:
		return []api.Option{api.WithSessionCookie(c.SessionCookie)}
	}
	return nil
}

// Manager reads and writes credentials under a config directory.
type Manager struct {
	configDir string
}

// NewManagerWithDir creates a manager storing credentials in configDir.
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{configDir: configDir}
}

func (m *Manager) credentialsPath() string {
	return filepath.Join(m.configDir, "credentials.json")
}

// GetCredentials returns the effective credentials, or nil when neither the
// file nor the environment provides any.
//
// Environment values replace the matching stored field; a file that exists
// but cannot be parsed is an error even when the environment is set, so a
// broken install is not masked in CI.
func (m *Manager) GetCredentials() (*Credentials, error) {
	stored, err := m.readFile()
	if err != nil {
		return nil, err
	}

	creds := Credentials{}
	if stored != nil {
		creds = *stored
		creds.Source = m.credentialsPath()
	}

	envToken := strings.TrimSpace(os.Getenv(EnvAPIToken))
	envSession := strings.TrimSpace(os.Getenv(EnvSessionToken))
	if envSession != "" {
		creds.SessionCookie = envSession
		if creds.Token == "" {
			creds.Source = EnvSessionToken
		}
	}
	if envToken != "" {
		creds.Token = envToken
		creds.Source = EnvAPIToken
	}

	if !creds.HasAny() {
		return nil, nil
	}
	return &creds, nil
}

// StoredCredentials returns only what is on disk, ignoring the environment.
func (m *Manager) StoredCredentials() (*Credentials, error) {
	creds, err := m.readFile()
	if err != nil || creds == nil {
		return nil, err
	}
	creds.Source = m.credentialsPath()
	return creds, nil
}

func (m *Manager) readFile() (*Credentials, error) {
	data, err := os.ReadFile(m.credentialsPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", m.credentialsPath(), err)
	}
	return &creds, nil
}

// SaveCredentials writes creds to disk, owner-readable only. The file is
// replaced atomically so a concurrent reader never sees a partial write.
func (m *Manager) SaveCredentials(creds *Credentials) error {
	if !creds.HasAny() {
		return fmt.Errorf("no token or session cookie to save")
	}
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(m.configDir, ".credentials-*.json")
	if err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.credentialsPath()); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// ClearCredentials removes the credentials file. Missing is not an error.
func (m *Manager) ClearCredentials() error {
	err := os.Remove(m.credentialsPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether GetCredentials yields a usable credential.
func (m *Manager) IsAuthenticated() bool {
	creds, err := m.GetCredentials()
	return err == nil && creds.HasAny()
}
