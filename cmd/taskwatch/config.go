// Package main provides settings commands for ~/.funmagic/config.yaml.
package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/funmagic/taskwatch/internal/config"
	"github.com/funmagic/taskwatch/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit settings",
	Long: `View and edit settings in ~/.funmagic/config.yaml.

FUNMAGIC_SSE_HEARTBEAT_TIMEOUT_MS and FUNMAGIC_SSE_MAX_RECONNECT_ATTEMPTS
override the file at run time.

EXAMPLES:
  taskwatch config path
  taskwatch config show
  taskwatch config set heartbeat-timeout 45s
  taskwatch config set max-reconnect-attempts 5`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.SettingsPath(configDir()))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Long: `Set a setting.

Supported keys:
  api-url                  base URL, empty to reset
  heartbeat-timeout        duration, e.g. 35s
  max-reconnect-attempts   positive integer
  backoff-base             duration, e.g. 1s`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	devMode, _ := cmd.Flags().GetBool("dev")
	apiURL := s.ResolveAPIURL(devMode)

	if jsonOutput(cmd) {
		printJSON(map[string]interface{}{
			"path":    config.SettingsPath(configDir()),
			"api_url": apiURL,
			"stream": map[string]interface{}{
				"heartbeat_timeout":      s.Stream.HeartbeatTimeout.String(),
				"max_reconnect_attempts": s.Stream.MaxReconnectAttempts,
				"backoff_base":           s.Stream.BackoffBase.String(),
			},
		})
		return nil
	}

	ui.PrintInfo("Settings: %s", config.SettingsPath(configDir()))
	ui.PrintLink("API", apiURL)
	ui.Println()
	ui.PrintKeyValues(
		"heartbeat_timeout", s.Stream.HeartbeatTimeout.String(),
		"max_reconnect_attempts", strconv.Itoa(s.Stream.MaxReconnectAttempts),
		"backoff_base", s.Stream.BackoffBase.String(),
	)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(strings.ToLower(args[0]))
	value := strings.TrimSpace(args[1])

	dir := configDir()
	s, err := config.ReadSettingsFile(dir)
	if err != nil {
		return err
	}

	if err := applySetting(s, key, value); err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := config.SaveSettings(dir, s); err != nil {
		return err
	}

	ui.PrintSuccess("Updated %s", key)
	return nil
}

// applySetting parses value into the field named by key.
func applySetting(s *config.Settings, key, value string) error {
	switch key {
	case "api-url":
		s.APIURL = strings.TrimRight(value, "/")

	case "heartbeat-timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid heartbeat-timeout %q (expected a positive duration such as 35s)", value)
		}
		s.Stream.HeartbeatTimeout = d

	case "max-reconnect-attempts":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid max-reconnect-attempts %q (expected a positive integer)", value)
		}
		s.Stream.MaxReconnectAttempts = n

	case "backoff-base":
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid backoff-base %q (expected a duration such as 1s)", value)
		}
		s.Stream.BackoffBase = d

	default:
		return fmt.Errorf("unsupported key %q (supported: api-url, heartbeat-timeout, max-reconnect-attempts, backoff-base)", key)
	}
	return nil
}
