// Package main provides auth commands for the taskwatch CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funmagic/taskwatch/internal/auth"
	"github.com/funmagic/taskwatch/internal/ui"
)

// authCmd is the parent command for authentication operations.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage credentials",
	Long: `Manage credentials for the FunMagic task API.

COMMANDS:
  login   - Store an API token or session cookie
  logout  - Remove stored credentials
  status  - Show which credentials are in use

CREDENTIALS:
  Credentials are stored in ~/.funmagic/credentials.json.
  FUNMAGIC_API_TOKEN and FUNMAGIC_SESSION_TOKEN override the stored
  token and session cookie. A token always wins over a session cookie.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials",
	Long: `Store credentials for the task API.

Pass --token for an API token or --session for a browser session cookie.
With neither flag the token is read from the terminal without echo.

EXAMPLES:
  taskwatch auth login
  taskwatch auth login --token fm_...
  taskwatch auth login --session <cookie value>`,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr := auth.NewManagerWithDir(configDir())
		if err := mgr.ClearCredentials(); err != nil {
			return err
		}
		ui.PrintSuccess("Logged out")
		if creds, err := mgr.GetCredentials(); err == nil && creds.HasAny() {
			ui.PrintWarning("%s is still set and will be used", creds.Source)
		}
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current authentication status",
	RunE:  runAuthStatus,
}

func init() {
	authLoginCmd.Flags().String("token", "", "API token")
	authLoginCmd.Flags().String("session", "", "Session cookie value")
	authLoginCmd.Flags().String("email", "", "Email to show in 'auth status'")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	token, _ := cmd.Flags().GetString("token")
	session, _ := cmd.Flags().GetString("session")
	email, _ := cmd.Flags().GetString("email")

	mgr := auth.NewManagerWithDir(configDir())
	interactive := token == "" && session == ""
	if existing, err := mgr.StoredCredentials(); interactive && err == nil && existing.HasAny() {
		ok, err := ui.PromptConfirm("Credentials already stored. Replace them?", false)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	if interactive {
		var err error
		token, err = ui.PromptSecret("API token:")
		if err != nil {
			return err
		}
		if token == "" {
			return fmt.Errorf("token cannot be empty")
		}
	}

	creds := &auth.Credentials{Token: token, SessionCookie: session, Email: email}
	if err := mgr.SaveCredentials(creds); err != nil {
		return err
	}
	ui.PrintSuccess("Credentials saved")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	creds, err := auth.NewManagerWithDir(configDir()).GetCredentials()
	if err != nil {
		return err
	}

	if jsonOutput(cmd) {
		out := map[string]interface{}{"authenticated": creds.HasAny()}
		if creds.HasAny() {
			out["source"] = creds.Source
			out["method"] = creds.Method()
			if creds.Email != "" {
				out["email"] = creds.Email
			}
		}
		printJSON(out)
		return nil
	}

	if !creds.HasAny() {
		ui.PrintWarning("Not authenticated")
		ui.PrintInfo("Run 'taskwatch auth login' to authenticate")
		return nil
	}

	ui.PrintSuccess("Authenticated")
	ui.PrintKeyValues(
		"Method", string(creds.Method()),
		"Secret", maskSecret(creds.Secret()),
		"Email", creds.Email,
		"Source", creds.Source,
	)
	return nil
}
