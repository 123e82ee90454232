// Package ui provides result rendering components.
package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// maxOutputLines bounds how much task output goes into the result box.
const maxOutputLines = 20

// PrintTaskResult prints a boxed summary of a finished task.
//
// Parameters:
//   - taskID: The task ID
//   - statusStr: "completed" or "failed"
//   - output: The task output JSON (completed tasks)
//   - errorMsg: The failure reason (failed tasks)
//   - duration: How long the watch took
func PrintTaskResult(taskID, statusStr string, output json.RawMessage, errorMsg, duration string) {
	fmt.Println(RenderTaskResult(taskID, statusStr, output, errorMsg, duration))
}

// RenderTaskResult renders the result box printed by PrintTaskResult.
func RenderTaskResult(taskID, statusStr string, output json.RawMessage, errorMsg, duration string) string {
	var boxStyle lipgloss.Style
	var icon string

	switch statusStr {
	case "completed":
		boxStyle = ResultBoxCompletedStyle
		icon = "✓"
	case "failed":
		boxStyle = ResultBoxFailedStyle
		icon = "✗"
	default:
		boxStyle = BoxStyle
		icon = "•"
	}

	titleLine := fmt.Sprintf("%s Task %s %s", icon, taskID, statusStr)
	if duration != "" {
		titleLine += "  " + DimStyle.Render(duration)
	}

	content := titleLine
	if errorMsg != "" {
		content += "\n" + ErrorStyle.Render(errorMsg)
	}
	if body := formatOutput(output); body != "" {
		content += "\n" + body
	}
	return boxStyle.Render(content)
}

// formatOutput pretty-prints output JSON, trimmed to maxOutputLines.
func formatOutput(output json.RawMessage) string {
	if len(output) == 0 || string(output) == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, output, "", "  "); err != nil {
		return string(output)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) > maxOutputLines {
		more := len(lines) - maxOutputLines
		lines = append(lines[:maxOutputLines], DimStyle.Render(fmt.Sprintf("… %d more lines (use --json)", more)))
	}
	return strings.Join(lines, "\n")
}
