// Package main provides shared helper functions for CLI commands.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/funmagic/taskwatch/internal/api"
	"github.com/funmagic/taskwatch/internal/auth"
	"github.com/funmagic/taskwatch/internal/config"
)

// maxTaskIDLen bounds task ids accepted on the command line.
const maxTaskIDLen = 128

// configDir returns the directory holding settings and credentials.
// FUNMAGIC_CONFIG_DIR overrides ~/.funmagic.
func configDir() string {
	if dir := os.Getenv("FUNMAGIC_CONFIG_DIR"); dir != "" {
		return dir
	}
	return config.DefaultDir()
}

// jsonOutput reports whether --json was passed.
func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

// loadSettings reads the effective settings.
func loadSettings() (*config.Settings, error) {
	s, err := config.LoadSettings(configDir())
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// newAPIClient builds an API client from settings, stored credentials and --dev.
//
// Parameters:
//   - cmd: The running command, for the --dev flag
//   - settings: The effective settings
//
// Returns:
//   - *api.Client: An authenticated client
//   - error: If credentials cannot be read or none are configured
func newAPIClient(cmd *cobra.Command, settings *config.Settings) (*api.Client, error) {
	creds, err := auth.NewManagerWithDir(configDir()).GetCredentials()
	if err != nil {
		return nil, err
	}
	if !creds.HasAny() {
		return nil, fmt.Errorf("not authenticated: run 'taskwatch auth login' or set FUNMAGIC_API_TOKEN")
	}

	devMode, _ := cmd.Flags().GetBool("dev")
	return api.NewClientWithBaseURL(settings.ResolveAPIURL(devMode), creds.ClientOptions()...), nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}

// validateTaskID checks that a task id is safe to put in a URL path segment.
//
// Parameters:
//   - id: The task id
//
// Returns:
//   - error: A descriptive error if validation fails, nil otherwise
func validateTaskID(id string) error {
	if id == "" {
		return fmt.Errorf("task id cannot be empty")
	}
	if len(id) > maxTaskIDLen {
		return fmt.Errorf("task id too long (%d chars, max %d)", len(id), maxTaskIDLen)
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("task id cannot contain whitespace")
		}
	}
	if strings.ContainsAny(id, "/\\?#") {
		return fmt.Errorf("task id contains an invalid character (got %q)", id)
	}
	return nil
}

// maskSecret keeps the last four characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", min(len(s)-4, 12)) + s[len(s)-4:]
}
