// Package main provides the status command.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/funmagic/taskwatch/internal/api"
	"github.com/funmagic/taskwatch/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id>",
	Short: "Show a task's current state",
	Long: `Show a task's current state without opening a progress stream.

EXAMPLES:
  taskwatch status 3f2a9c1e-7b1d-4c55-9d1e-0c5a8b2f4e11
  taskwatch status 3f2a9c1e-... --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	taskID := args[0]
	if err := validateTaskID(taskID); err != nil {
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	client, err := newAPIClient(cmd, settings)
	if err != nil {
		return err
	}

	task, err := client.GetTask(cmd.Context(), taskID)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return fmt.Errorf("task %s not found", taskID)
		}
		return fmt.Errorf("failed to get task: %w", err)
	}

	if jsonOutput(cmd) {
		printJSON(task)
		return nil
	}

	var errMsg string
	if task.Payload != nil {
		errMsg = task.Payload.Error
	}
	ui.PrintKeyValues(
		"Task", task.ID,
		"Tool", task.ToolID,
		"Status", ui.StyledStatus(task.Status),
		"Error", errMsg,
	)
	if task.Payload != nil && len(task.Payload.Output) > 0 {
		ui.Println()
		ui.PrintDim("%s", string(task.Payload.Output))
	}
	return nil
}
